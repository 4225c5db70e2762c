package ans

import (
	"log/slog"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing/move"
)

// Extracted is everything one user transaction contributes to the naming
// tables, v1 rows already projected into the v2 slices.
type Extracted struct {
	CurrentLookups        []CurrentLookup
	Lookups               []Lookup
	CurrentPrimaryNames   []CurrentPrimaryName
	PrimaryNames          []PrimaryName
	CurrentLookupsV2      []CurrentLookupV2
	LookupsV2             []LookupV2
	CurrentPrimaryNamesV2 []CurrentPrimaryNameV2
	PrimaryNamesV2        []PrimaryNameV2
}

// FromTransaction extracts naming rows from one user transaction. Only
// user transactions carry naming changes; everything else yields nothing.
// A malformed record or event of a recognized naming type drops that
// single item, never the transaction.
//
// Two passes over the write set: subdomain extensions are collected first
// because a v2 name record resource and its SubdomainExt can land in any
// relative order within the same transaction.
func FromTransaction(txn *domain.Transaction, cfg Config, log *slog.Logger) Extracted {
	var out Extracted
	if txn.Type != domain.TxnTypeUser {
		return out
	}
	info := txn.MustInfo()

	renewals := map[string]renewNameEvent{}
	for i := range txn.Events {
		ev := &txn.Events[i]
		renew, ok, err := renewNameEventFromEvent(ev, cfg, txn.Version)
		if err != nil {
			log.Error("failed to decode naming event",
				"version", txn.Version, "event_type", ev.Type,
				"data", string(ev.Data), "error", err)
			continue
		}
		if ok {
			renewals[renew.tokenName()] = renew
			continue
		}
		currentPrimary, primary, ok, err := primaryNameV2FromEvent(ev, cfg, txn.Version, int64(i))
		if err != nil {
			log.Error("failed to decode naming event",
				"version", txn.Version, "event_type", ev.Type,
				"data", string(ev.Data), "error", err)
			continue
		}
		if ok {
			out.CurrentPrimaryNamesV2 = append(out.CurrentPrimaryNamesV2, currentPrimary)
			out.PrimaryNamesV2 = append(out.PrimaryNamesV2, primary)
		}
	}

	subdomains := map[string]subdomainExt{}
	for i := range info.Changes {
		change := &info.Changes[i]
		if change.Type != domain.ChangeTypeWriteResource {
			continue
		}
		ext, ok, err := subdomainExtFromWriteResource(change.WriteResource, cfg, txn.Version)
		if err != nil {
			log.Error("failed to decode subdomain ext",
				"version", txn.Version,
				"data", string(change.WriteResource.Data), "error", err)
			continue
		}
		if ok {
			subdomains[move.StandardizeAddress(change.WriteResource.Address)] = ext
		}
	}

	for i := range info.Changes {
		change := &info.Changes[i]
		index := int64(i)
		switch change.Type {
		case domain.ChangeTypeWriteTableItem:
			item := change.WriteTableItem
			switch move.StandardizeAddress(item.Handle) {
			case cfg.V1NameRecordsTableHandle:
				current, lookup, err := nameRecordFromWriteTableItem(item, txn.Version, index)
				if err != nil {
					log.Error("failed to decode name record",
						"version", txn.Version, "key", item.Key,
						"value", item.Value, "error", err)
					continue
				}
				out.appendLookup(current, lookup)
			case cfg.V1PrimaryNamesTableHandle:
				current, primary, err := primaryNameFromWriteTableItem(item, txn.Version, index)
				if err != nil {
					log.Error("failed to decode primary name",
						"version", txn.Version, "key", item.Key,
						"value", item.Value, "error", err)
					continue
				}
				out.appendPrimaryName(current, primary)
			}
		case domain.ChangeTypeDeleteTableItem:
			item := change.DeleteTableItem
			switch move.StandardizeAddress(item.Handle) {
			case cfg.V1NameRecordsTableHandle:
				current, lookup, err := nameRecordFromDeleteTableItem(item, txn.Version, index)
				if err != nil {
					log.Error("failed to decode name record",
						"version", txn.Version, "key", item.Key, "error", err)
					continue
				}
				out.appendLookup(current, lookup)
			case cfg.V1PrimaryNamesTableHandle:
				current, primary, err := primaryNameFromDeleteTableItem(item, txn.Version, index)
				if err != nil {
					log.Error("failed to decode primary name",
						"version", txn.Version, "key", item.Key, "error", err)
					continue
				}
				out.appendPrimaryName(current, primary)
			}
		case domain.ChangeTypeWriteResource:
			current, lookup, ok, err := nameRecordV2FromWriteResource(change.WriteResource, cfg, txn.Version, index, subdomains)
			if err != nil {
				log.Error("failed to decode v2 name record",
					"version", txn.Version,
					"data", string(change.WriteResource.Data), "error", err)
				continue
			}
			if !ok {
				continue
			}
			if renew, found := renewals[current.TokenName]; found {
				if exp := renew.expiration(); exp.After(current.ExpirationTimestamp) {
					log.Debug("renew event ahead of record expiration",
						"version", txn.Version, "token_name", current.TokenName)
					current.ExpirationTimestamp = exp
					lookup.ExpirationTimestamp = exp
				}
			}
			out.CurrentLookupsV2 = append(out.CurrentLookupsV2, current)
			out.LookupsV2 = append(out.LookupsV2, lookup)
		}
	}
	return out
}

// appendLookup records a v1 name record pair plus its v2 projection.
func (e *Extracted) appendLookup(current CurrentLookup, lookup Lookup) {
	e.CurrentLookups = append(e.CurrentLookups, current)
	e.Lookups = append(e.Lookups, lookup)
	e.CurrentLookupsV2 = append(e.CurrentLookupsV2, current.V2())
	e.LookupsV2 = append(e.LookupsV2, lookup.V2())
}

// appendPrimaryName records a v1 primary name pair plus its v2 projection.
func (e *Extracted) appendPrimaryName(current CurrentPrimaryName, primary PrimaryName) {
	e.CurrentPrimaryNames = append(e.CurrentPrimaryNames, current)
	e.PrimaryNames = append(e.PrimaryNames, primary)
	e.CurrentPrimaryNamesV2 = append(e.CurrentPrimaryNamesV2, current.V2())
	e.PrimaryNamesV2 = append(e.PrimaryNamesV2, primary.V2())
}

// merge appends another transaction's rows in version order.
func (e *Extracted) merge(other Extracted) {
	e.CurrentLookups = append(e.CurrentLookups, other.CurrentLookups...)
	e.Lookups = append(e.Lookups, other.Lookups...)
	e.CurrentPrimaryNames = append(e.CurrentPrimaryNames, other.CurrentPrimaryNames...)
	e.PrimaryNames = append(e.PrimaryNames, other.PrimaryNames...)
	e.CurrentLookupsV2 = append(e.CurrentLookupsV2, other.CurrentLookupsV2...)
	e.LookupsV2 = append(e.LookupsV2, other.LookupsV2...)
	e.CurrentPrimaryNamesV2 = append(e.CurrentPrimaryNamesV2, other.CurrentPrimaryNamesV2...)
	e.PrimaryNamesV2 = append(e.PrimaryNamesV2, other.PrimaryNamesV2...)
}

package ans

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing/move"
)

// Name components are bounded to the on-chain limit.
const maxNameLength = 64

// Config identifies the on-chain naming deployment: the two v1 table
// handles and the v2 contract address. Handles are standardized once at
// processor construction.
type Config struct {
	V1PrimaryNamesTableHandle string `yaml:"v1_primary_names_table_handle"`
	V1NameRecordsTableHandle  string `yaml:"v1_name_records_table_handle"`
	V2ContractAddress         string `yaml:"v2_contract_address"`
}

func (c Config) standardized() Config {
	return Config{
		V1PrimaryNamesTableHandle: move.StandardizeAddress(c.V1PrimaryNamesTableHandle),
		V1NameRecordsTableHandle:  move.StandardizeAddress(c.V1NameRecordsTableHandle),
		V2ContractAddress:         move.StandardizeAddress(c.V2ContractAddress),
	}
}

func (c Config) nameRecordType() string   { return c.V2ContractAddress + "::v2_1_domains::NameRecord" }
func (c Config) subdomainExtType() string { return c.V2ContractAddress + "::v2_1_domains::SubdomainExt" }
func (c Config) setReverseLookupEventType() string {
	return c.V2ContractAddress + "::v2_1_domains::SetReverseLookupEvent"
}
func (c Config) renewNameEventType() string {
	return c.V2ContractAddress + "::v2_1_domains::RenewNameEvent"
}

// optionalString is the wrapped-optional encoding of an optional string.
type optionalString struct {
	Vec []string `json:"vec"`
}

func (o optionalString) value() (string, bool) {
	if len(o.Vec) == 0 {
		return "", false
	}
	return o.Vec[0], true
}

// tokenName renders the canonical dotted form of a name.
func tokenName(domainName, subdomain string) string {
	if subdomain != "" {
		return subdomain + "." + domainName + ".apt"
	}
	return domainName + ".apt"
}

// nameRecordKeyV1 is the table key of a v1 name record, and also the
// table value of a v1 primary name entry.
type nameRecordKeyV1 struct {
	DomainName    string         `json:"domain_name"`
	SubdomainName optionalString `json:"subdomain_name"`
}

func (k nameRecordKeyV1) domain() string {
	return move.TruncateStr(k.DomainName, maxNameLength)
}

func (k nameRecordKeyV1) subdomain() string {
	sub, _ := k.SubdomainName.value()
	return move.TruncateStr(sub, maxNameLength)
}

// nameRecordV1 is the table value of a v1 name record.
type nameRecordV1 struct {
	ExpirationTimeSec decimal.Decimal `json:"expiration_time_sec"`
	TargetAddress     optionalString  `json:"target_address"`
}

func (r nameRecordV1) expiration() time.Time {
	secs := r.ExpirationTimeSec.IntPart()
	if secs < 0 {
		secs = 0
	}
	return move.ParseTimestampSecs(uint64(secs))
}

func (r nameRecordV1) target() *string {
	raw, ok := r.TargetAddress.value()
	if !ok || raw == "" {
		return nil
	}
	addr := move.StandardizeAddress(raw)
	return &addr
}

// nameRecordFromWriteTableItem decodes a v1 name record registration.
// The caller has already matched the table handle.
func nameRecordFromWriteTableItem(item *domain.WriteTableItem, version uint64, index int64) (CurrentLookup, Lookup, error) {
	var key nameRecordKeyV1
	if err := json.Unmarshal([]byte(item.Key), &key); err != nil {
		return CurrentLookup{}, Lookup{}, fmt.Errorf("failed to parse name record key, version %d: %w", version, err)
	}
	var value nameRecordV1
	if err := json.Unmarshal([]byte(item.Value), &value); err != nil {
		return CurrentLookup{}, Lookup{}, fmt.Errorf("failed to parse name record value, version %d: %w", version, err)
	}

	current := CurrentLookup{
		Domain:                 key.domain(),
		Subdomain:              key.subdomain(),
		RegisteredAddress:      value.target(),
		ExpirationTimestamp:    value.expiration(),
		TokenName:              tokenName(key.domain(), key.subdomain()),
		LastTransactionVersion: version,
	}
	lookup := Lookup{
		TransactionVersion:  version,
		WriteSetChangeIndex: index,
		Domain:              current.Domain,
		Subdomain:           current.Subdomain,
		RegisteredAddress:   current.RegisteredAddress,
		ExpirationTimestamp: current.ExpirationTimestamp,
		TokenName:           current.TokenName,
	}
	return current, lookup, nil
}

// nameRecordFromDeleteTableItem decodes a v1 name record removal. Only the
// key side survives a delete, so the row is a tombstone at this version.
func nameRecordFromDeleteTableItem(item *domain.DeleteTableItem, version uint64, index int64) (CurrentLookup, Lookup, error) {
	var key nameRecordKeyV1
	if err := json.Unmarshal([]byte(item.Key), &key); err != nil {
		return CurrentLookup{}, Lookup{}, fmt.Errorf("failed to parse name record key, version %d: %w", version, err)
	}

	current := CurrentLookup{
		Domain:                 key.domain(),
		Subdomain:              key.subdomain(),
		ExpirationTimestamp:    time.Unix(0, 0).UTC(),
		TokenName:              tokenName(key.domain(), key.subdomain()),
		LastTransactionVersion: version,
		IsDeleted:              true,
	}
	lookup := Lookup{
		TransactionVersion:  version,
		WriteSetChangeIndex: index,
		Domain:              current.Domain,
		Subdomain:           current.Subdomain,
		ExpirationTimestamp: current.ExpirationTimestamp,
		TokenName:           current.TokenName,
		IsDeleted:           true,
	}
	return current, lookup, nil
}

// primaryNameFromWriteTableItem decodes a v1 reverse lookup: the table key
// is the registered address, the value names the domain it points at.
func primaryNameFromWriteTableItem(item *domain.WriteTableItem, version uint64, index int64) (CurrentPrimaryName, PrimaryName, error) {
	var addr string
	if err := json.Unmarshal([]byte(item.Key), &addr); err != nil {
		return CurrentPrimaryName{}, PrimaryName{}, fmt.Errorf("failed to parse primary name key, version %d: %w", version, err)
	}
	var value nameRecordKeyV1
	if err := json.Unmarshal([]byte(item.Value), &value); err != nil {
		return CurrentPrimaryName{}, PrimaryName{}, fmt.Errorf("failed to parse primary name value, version %d: %w", version, err)
	}

	domainName := value.domain()
	subdomain := value.subdomain()
	token := tokenName(domainName, subdomain)

	current := CurrentPrimaryName{
		RegisteredAddress:      move.StandardizeAddress(addr),
		Domain:                 &domainName,
		Subdomain:              &subdomain,
		TokenName:              &token,
		LastTransactionVersion: version,
	}
	primary := PrimaryName{
		TransactionVersion:  version,
		WriteSetChangeIndex: index,
		RegisteredAddress:   current.RegisteredAddress,
		Domain:              current.Domain,
		Subdomain:           current.Subdomain,
		TokenName:           current.TokenName,
	}
	return current, primary, nil
}

// primaryNameFromDeleteTableItem decodes a v1 reverse lookup removal.
func primaryNameFromDeleteTableItem(item *domain.DeleteTableItem, version uint64, index int64) (CurrentPrimaryName, PrimaryName, error) {
	var addr string
	if err := json.Unmarshal([]byte(item.Key), &addr); err != nil {
		return CurrentPrimaryName{}, PrimaryName{}, fmt.Errorf("failed to parse primary name key, version %d: %w", version, err)
	}

	current := CurrentPrimaryName{
		RegisteredAddress:      move.StandardizeAddress(addr),
		LastTransactionVersion: version,
		IsDeleted:              true,
	}
	primary := PrimaryName{
		TransactionVersion:  version,
		WriteSetChangeIndex: index,
		RegisteredAddress:   current.RegisteredAddress,
		IsDeleted:           true,
	}
	return current, primary, nil
}

// nameRecordV2 is the body of a v2 name record resource. The resource
// covers the domain only; the subdomain component lives in a sibling
// SubdomainExt resource under the same object address.
type nameRecordV2 struct {
	DomainName        string          `json:"domain_name"`
	ExpirationTimeSec decimal.Decimal `json:"expiration_time_sec"`
	TargetAddress     optionalString  `json:"target_address"`
}

func (r nameRecordV2) expiration() time.Time {
	secs := r.ExpirationTimeSec.IntPart()
	if secs < 0 {
		secs = 0
	}
	return move.ParseTimestampSecs(uint64(secs))
}

func (r nameRecordV2) target() *string {
	raw, ok := r.TargetAddress.value()
	if !ok || raw == "" {
		return nil
	}
	addr := move.StandardizeAddress(raw)
	return &addr
}

// subdomainExt carries the subdomain name and expiration policy for v2
// subdomain records, keyed by object address within the batch.
type subdomainExt struct {
	SubdomainName             string `json:"subdomain_name"`
	SubdomainExpirationPolicy int64  `json:"subdomain_expiration_policy,string"`
}

// subdomainExtFromWriteResource matches SubdomainExt resources of the
// configured contract. ok=false for every other resource type.
func subdomainExtFromWriteResource(wr *domain.WriteResource, cfg Config, version uint64) (subdomainExt, bool, error) {
	if wr.TypeStr != cfg.subdomainExtType() {
		return subdomainExt{}, false, nil
	}
	var ext subdomainExt
	if err := json.Unmarshal(wr.Data, &ext); err != nil {
		return subdomainExt{}, false, fmt.Errorf("failed to parse subdomain ext, version %d: %w", version, err)
	}
	return ext, true, nil
}

// nameRecordV2FromWriteResource decodes a v2 name record resource,
// joining in the batch-scoped subdomain map. There are no v2 delete
// changes: names are unset through reverse-lookup events and record
// rewrites, never resource removal.
func nameRecordV2FromWriteResource(wr *domain.WriteResource, cfg Config, version uint64, index int64, subdomains map[string]subdomainExt) (CurrentLookupV2, LookupV2, bool, error) {
	if wr.TypeStr != cfg.nameRecordType() {
		return CurrentLookupV2{}, LookupV2{}, false, nil
	}
	var record nameRecordV2
	if err := json.Unmarshal(wr.Data, &record); err != nil {
		return CurrentLookupV2{}, LookupV2{}, false, fmt.Errorf("failed to parse v2 name record, version %d: %w", version, err)
	}

	domainName := move.TruncateStr(record.DomainName, maxNameLength)
	subdomain := ""
	var policy *int64
	if ext, ok := subdomains[move.StandardizeAddress(wr.Address)]; ok {
		subdomain = move.TruncateStr(ext.SubdomainName, maxNameLength)
		p := ext.SubdomainExpirationPolicy
		policy = &p
	}

	current := CurrentLookupV2{
		Domain:                    domainName,
		Subdomain:                 subdomain,
		TokenStandard:             TokenStandardV2,
		RegisteredAddress:         record.target(),
		ExpirationTimestamp:       record.expiration(),
		TokenName:                 tokenName(domainName, subdomain),
		LastTransactionVersion:    version,
		SubdomainExpirationPolicy: policy,
	}
	lookup := LookupV2{
		TransactionVersion:        version,
		WriteSetChangeIndex:       index,
		Domain:                    current.Domain,
		Subdomain:                 current.Subdomain,
		TokenStandard:             TokenStandardV2,
		RegisteredAddress:         current.RegisteredAddress,
		ExpirationTimestamp:       current.ExpirationTimestamp,
		TokenName:                 current.TokenName,
		SubdomainExpirationPolicy: policy,
	}
	return current, lookup, true, nil
}

// setReverseLookupEvent announces the current primary name of an account.
// Empty current fields mean the primary name was unset.
type setReverseLookupEvent struct {
	AccountAddr       string         `json:"account_addr"`
	CurrDomainName    optionalString `json:"curr_domain_name"`
	CurrSubdomainName optionalString `json:"curr_subdomain_name"`
}

// primaryNameV2FromEvent decodes a reverse-lookup event of the configured
// contract into the v2 primary name pair. ok=false for other event types.
func primaryNameV2FromEvent(ev *domain.Event, cfg Config, version uint64, eventIndex int64) (CurrentPrimaryNameV2, PrimaryNameV2, bool, error) {
	if ev.Type != cfg.setReverseLookupEventType() {
		return CurrentPrimaryNameV2{}, PrimaryNameV2{}, false, nil
	}
	var event setReverseLookupEvent
	if err := json.Unmarshal(ev.Data, &event); err != nil {
		return CurrentPrimaryNameV2{}, PrimaryNameV2{}, false, fmt.Errorf("failed to parse reverse lookup event, version %d: %w", version, err)
	}

	current := CurrentPrimaryNameV2{
		RegisteredAddress:      move.StandardizeAddress(event.AccountAddr),
		TokenStandard:          TokenStandardV2,
		LastTransactionVersion: version,
	}
	if domainName, ok := event.CurrDomainName.value(); ok {
		domainName = move.TruncateStr(domainName, maxNameLength)
		subdomain, _ := event.CurrSubdomainName.value()
		subdomain = move.TruncateStr(subdomain, maxNameLength)
		token := tokenName(domainName, subdomain)
		current.Domain = &domainName
		current.Subdomain = &subdomain
		current.TokenName = &token
	} else {
		current.IsDeleted = true
	}

	primary := PrimaryNameV2{
		TransactionVersion:  version,
		WriteSetChangeIndex: eventIndex,
		RegisteredAddress:   current.RegisteredAddress,
		TokenStandard:       TokenStandardV2,
		Domain:              current.Domain,
		Subdomain:           current.Subdomain,
		TokenName:           current.TokenName,
		IsDeleted:           current.IsDeleted,
	}
	return current, primary, true, nil
}

// renewNameEvent announces an expiration extension for a v2 name. The
// renewed record resource is rewritten in the same transaction; the event
// is used to cross-check and refresh the expiration on that row.
type renewNameEvent struct {
	DomainName        string          `json:"domain_name"`
	SubdomainName     optionalString  `json:"subdomain_name"`
	ExpirationTimeSec decimal.Decimal `json:"expiration_time_secs"`
}

func renewNameEventFromEvent(ev *domain.Event, cfg Config, version uint64) (renewNameEvent, bool, error) {
	if ev.Type != cfg.renewNameEventType() {
		return renewNameEvent{}, false, nil
	}
	var event renewNameEvent
	if err := json.Unmarshal(ev.Data, &event); err != nil {
		return renewNameEvent{}, false, fmt.Errorf("failed to parse renew name event, version %d: %w", version, err)
	}
	return event, true, nil
}

func (r renewNameEvent) tokenName() string {
	domainName := move.TruncateStr(r.DomainName, maxNameLength)
	subdomain, _ := r.SubdomainName.value()
	return tokenName(domainName, move.TruncateStr(subdomain, maxNameLength))
}

func (r renewNameEvent) expiration() time.Time {
	secs := r.ExpirationTimeSec.IntPart()
	if secs < 0 {
		secs = 0
	}
	return move.ParseTimestampSecs(uint64(secs))
}

// Package reconcile merges repeated current-state rows within one batch so
// exactly one row per composite key reaches the persistence layer.
package reconcile

import "sort"

// Row is any current-state row carrying a composite key and the transaction
// version that produced it.
type Row interface {
	PrimaryKey() string
	RowVersion() uint64
}

// LastWriterWins keeps, for each composite key, the row with the highest
// transaction version seen in the batch; on equal versions the later input
// wins so reprocessing is deterministic. Output is sorted by key because
// downstream bulk upserts are order-sensitive for conflict handling.
func LastWriterWins[T Row](rows []T) []T {
	merged := make(map[string]T, len(rows))
	for _, row := range rows {
		key := row.PrimaryKey()
		if existing, ok := merged[key]; ok && existing.RowVersion() > row.RowVersion() {
			continue
		}
		merged[key] = row
	}

	out := make([]T, 0, len(merged))
	for _, row := range merged {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PrimaryKey() < out[j].PrimaryKey()
	})
	return out
}

// FirstWriterWins keeps, for each composite key, the row with the lowest
// transaction version. Used for creation-time metadata where the earliest
// observation is authoritative.
func FirstWriterWins[T Row](rows []T) []T {
	merged := make(map[string]T, len(rows))
	for _, row := range rows {
		key := row.PrimaryKey()
		if existing, ok := merged[key]; ok && existing.RowVersion() <= row.RowVersion() {
			continue
		}
		merged[key] = row
	}

	out := make([]T, 0, len(merged))
	for _, row := range merged {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PrimaryKey() < out[j].PrimaryKey()
	})
	return out
}

package domain

import "time"

// ProcessorStatus is the per-processor watermark. Restarts resume from
// LastSuccessVersion + 1.
type ProcessorStatus struct {
	Processor                string    `db:"processor"                  json:"processor"`
	LastSuccessVersion       uint64    `db:"last_success_version"       json:"last_success_version"`
	LastUpdated              time.Time `db:"last_updated"               json:"last_updated"`
	LastTransactionTimestamp time.Time `db:"last_transaction_timestamp" json:"last_transaction_timestamp"`
}

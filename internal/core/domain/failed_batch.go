package domain

import "time"

// FailedBatch records a version range that a processor could not persist.
// The whole range is retried as one unit; chunk writes are idempotent so a
// retry after partial success converges.
type FailedBatch struct {
	ID           string    `json:"id"`
	Processor    string    `json:"processor"`
	StartVersion uint64    `json:"start_version"`
	EndVersion   uint64    `json:"end_version"`
	Error        string    `json:"error"`
	RetryCount   int       `json:"retry_count"`
	FailedAt     time.Time `json:"failed_at"`
}

// Package health provides system health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ProcessorHealth contains health metrics for a single processor.
type ProcessorHealth struct {
	Processor          string       `json:"processor"`
	Status             SystemStatus `json:"status"`
	LastSuccessVersion uint64       `json:"last_success_version"`
	WatermarkAgeSec    float64      `json:"watermark_age_sec"`
	FailedBatches      int          `json:"failed_batches"`
}

// Report contains the full system health report.
type Report struct {
	SystemStatus SystemStatus               `json:"system_status"`
	Database     SystemStatus               `json:"database"`
	Redis        SystemStatus               `json:"redis"`
	Processors   map[string]ProcessorHealth `json:"processors"`
}

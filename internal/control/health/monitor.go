package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/chainsink/internal/infra/storage"
)

// Pinger checks connectivity of one backing service.
type Pinger interface {
	Health(ctx context.Context) error
}

// Monitor aggregates health status from the watermark table, the
// dead-letter queues and the backing services.
type Monitor struct {
	processors []string
	statuses   storage.ProcessorStatusRepository
	failed     map[string]storage.FailedBatchRepository
	db         Pinger
	redis      Pinger
	lastCheck  time.Time
	lastReport Report
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(
	processors []string,
	statuses storage.ProcessorStatusRepository,
	failed map[string]storage.FailedBatchRepository,
	db, redis Pinger,
) *Monitor {
	return &Monitor{
		processors: processors,
		statuses:   statuses,
		failed:     failed,
		db:         db,
		redis:      redis,
	}
}

// CheckHealth builds a health report for every processor. Checks are rate
// limited to once per 10s to keep the endpoint cheap.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && m.lastReport.Processors != nil {
		return m.lastReport
	}

	report := Report{
		SystemStatus: StatusHealthy,
		Database:     StatusHealthy,
		Redis:        StatusHealthy,
		Processors:   make(map[string]ProcessorHealth),
	}

	if err := m.db.Health(ctx); err != nil {
		report.Database = StatusCritical
	}
	if err := m.redis.Health(ctx); err != nil {
		report.Redis = StatusCritical
	}

	for _, name := range m.processors {
		ph := ProcessorHealth{
			Processor: name,
			Status:    StatusHealthy,
		}

		if report.Database == StatusHealthy {
			status, err := m.statuses.Get(ctx, name)
			if err != nil {
				ph.Status = StatusDegraded
			} else if status != nil {
				ph.LastSuccessVersion = status.LastSuccessVersion
				ph.WatermarkAgeSec = time.Since(status.LastUpdated).Seconds()
			}
		}

		if repo, ok := m.failed[name]; ok {
			if count, err := repo.Count(ctx); err == nil {
				ph.FailedBatches = count
			}
		}

		// Evaluate status
		if ph.FailedBatches > 50 || ph.WatermarkAgeSec > 600 {
			ph.Status = StatusCritical
		} else if ph.FailedBatches > 0 || ph.WatermarkAgeSec > 60 {
			ph.Status = StatusDegraded
		}

		report.Processors[name] = ph
	}

	// Aggregate status (worst case wins)
	worst := report.Database
	if rank(report.Redis) > rank(worst) {
		worst = report.Redis
	}
	for _, ph := range report.Processors {
		if rank(ph.Status) > rank(worst) {
			worst = ph.Status
		}
	}
	report.SystemStatus = worst

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

func rank(s SystemStatus) int {
	switch s {
	case StatusCritical:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

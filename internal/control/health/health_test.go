package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/infra/storage"
)

// =============================================================================
// Mocks
// =============================================================================

type stubPinger struct {
	err error
}

func (s *stubPinger) Health(ctx context.Context) error { return s.err }

type stubStatusRepo struct {
	status *domain.ProcessorStatus
}

func (s *stubStatusRepo) Save(ctx context.Context, p string, v uint64, ts time.Time) error {
	return nil
}

func (s *stubStatusRepo) Get(ctx context.Context, p string) (*domain.ProcessorStatus, error) {
	return s.status, nil
}

type stubFailedRepo struct {
	count int
}

func (s *stubFailedRepo) Add(ctx context.Context, start, end uint64, cause error) (*domain.FailedBatch, error) {
	return nil, nil
}
func (s *stubFailedRepo) GetNext(ctx context.Context) (*domain.FailedBatch, error) { return nil, nil }
func (s *stubFailedRepo) IncrementRetry(ctx context.Context, id string) error      { return nil }
func (s *stubFailedRepo) MarkResolved(ctx context.Context, id string) error        { return nil }
func (s *stubFailedRepo) GetAll(ctx context.Context) ([]*domain.FailedBatch, error) {
	return nil, nil
}
func (s *stubFailedRepo) Count(ctx context.Context) (int, error) { return s.count, nil }

var _ storage.FailedBatchRepository = (*stubFailedRepo)(nil)

func newMonitor(status *domain.ProcessorStatus, failedCount int, dbErr, redisErr error) *Monitor {
	return NewMonitor(
		[]string{"coin_processor"},
		&stubStatusRepo{status: status},
		map[string]storage.FailedBatchRepository{
			"coin_processor": &stubFailedRepo{count: failedCount},
		},
		&stubPinger{err: dbErr},
		&stubPinger{err: redisErr},
	)
}

// =============================================================================
// Tests
// =============================================================================

func TestCheckHealth_Healthy(t *testing.T) {
	m := newMonitor(&domain.ProcessorStatus{
		Processor:          "coin_processor",
		LastSuccessVersion: 1000,
		LastUpdated:        time.Now(),
	}, 0, nil, nil)

	report := m.CheckHealth(context.Background())
	if report.SystemStatus != StatusHealthy {
		t.Errorf("Expected healthy, got %s", report.SystemStatus)
	}
	if report.Processors["coin_processor"].LastSuccessVersion != 1000 {
		t.Errorf("Expected watermark 1000, got %d",
			report.Processors["coin_processor"].LastSuccessVersion)
	}
}

func TestCheckHealth_FailedBatchesDegrade(t *testing.T) {
	m := newMonitor(&domain.ProcessorStatus{
		Processor:   "coin_processor",
		LastUpdated: time.Now(),
	}, 3, nil, nil)

	report := m.CheckHealth(context.Background())
	if report.Processors["coin_processor"].Status != StatusDegraded {
		t.Errorf("Expected degraded, got %s", report.Processors["coin_processor"].Status)
	}
	if report.SystemStatus != StatusDegraded {
		t.Errorf("Expected degraded system, got %s", report.SystemStatus)
	}
}

func TestCheckHealth_StaleWatermarkCritical(t *testing.T) {
	m := newMonitor(&domain.ProcessorStatus{
		Processor:   "coin_processor",
		LastUpdated: time.Now().Add(-time.Hour),
	}, 0, nil, nil)

	report := m.CheckHealth(context.Background())
	if report.Processors["coin_processor"].Status != StatusCritical {
		t.Errorf("Expected critical, got %s", report.Processors["coin_processor"].Status)
	}
}

func TestCheckHealth_DatabaseDown(t *testing.T) {
	m := newMonitor(nil, 0, errors.New("connection refused"), nil)

	report := m.CheckHealth(context.Background())
	if report.Database != StatusCritical {
		t.Errorf("Expected critical database, got %s", report.Database)
	}
	if report.SystemStatus != StatusCritical {
		t.Errorf("Expected critical system, got %s", report.SystemStatus)
	}
}

func TestCheckHealth_CachesReport(t *testing.T) {
	repo := &stubFailedRepo{count: 0}
	m := NewMonitor(
		[]string{"coin_processor"},
		&stubStatusRepo{status: &domain.ProcessorStatus{LastUpdated: time.Now()}},
		map[string]storage.FailedBatchRepository{"coin_processor": repo},
		&stubPinger{}, &stubPinger{},
	)

	first := m.CheckHealth(context.Background())
	repo.count = 99
	second := m.CheckHealth(context.Background())

	if second.Processors["coin_processor"].FailedBatches != first.Processors["coin_processor"].FailedBatches {
		t.Error("Expected cached report within the rate-limit window")
	}
}

// Package scheduler runs the periodic hygiene jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/cordon-zt/cordon/internal/shared/biztime"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// BatchJob processes one batch per Execute call and returns how many items
// it handled.
type BatchJob interface {
	Execute(ctx context.Context) (int64, error)
}

// Manager owns the single gocron scheduler instance.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewManager creates a scheduler manager in the business timezone.
func NewManager(log logger.Interface) (*Manager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}
	return &Manager{
		scheduler: scheduler,
		logger:    log.Named("scheduler"),
	}, nil
}

// RegisterSweepJobs registers the storage hygiene jobs: deleting flow and
// token rows whose expiry has long passed. Correctness never depends on
// these; reads check expires_at themselves.
func (m *Manager) RegisterSweepJobs(interval time.Duration, flowSweep, tokenSweep BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.runJob(ctx, "flow-sweep", flowSweep)
			m.runJob(ctx, "token-sweep", tokenSweep)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("expiry-sweeper"),
	)
	return err
}

func (m *Manager) runJob(ctx context.Context, name string, job BatchJob) {
	processed, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("sweep job failed", "job", name, "error", err)
		return
	}
	if processed > 0 {
		m.logger.Infow("sweep job completed", "job", name, "deleted", processed)
	}
}

// Start begins executing registered jobs. Idempotent.
func (m *Manager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()
	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started")
}

// Stop shuts the scheduler down, waiting for running jobs.
func (m *Manager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false
	return m.scheduler.Shutdown()
}

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/metrics"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
)

// HousekeepingService periodically deletes expired tickets and refresh
// tokens so the tables do not grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval. A non-positive interval defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the cleanup loop in the background until Stop is called.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce deletes everything that expired before now. Each table is
// cleaned independently; a failure in one does not stop the other.
func (s *HousekeepingService) RunOnce(ctx context.Context) {
	now := time.Now()

	tasks := []struct {
		table string
		fn    func(context.Context, time.Time) (int64, error)
	}{
		{"tickets", s.Store.Tickets().DeleteExpiredTickets},
		{"refresh_tokens", s.Store.RefreshTokens().DeleteExpiredRefreshTokens},
	}

	var total int64
	for _, task := range tasks {
		n, err := task.fn(ctx, now)
		if err != nil {
			s.Logger.Error("housekeeping delete failed", "table", task.table, "error", err)
			continue
		}
		metrics.HousekeepingDeleted.WithLabelValues(task.table).Add(float64(n))
		total += n
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", total)
}

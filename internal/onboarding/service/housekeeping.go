package service

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper is implemented by StatusStore.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// HousekeepingService periodically drops long-expired status cache entries
// so the in-process cache does not grow without bound.
type HousekeepingService struct {
	Sweeper  Sweeper
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the worker. A non-positive interval defaults
// to one minute.
func NewHousekeepingService(sweeper Sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}

	return &HousekeepingService{
		Sweeper:  sweeper,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	removed, err := s.Sweeper.Sweep(context.Background())
	if err != nil {
		s.Logger.Error("status cache sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.Logger.Debug("status cache swept", "removed", removed)
	}
}

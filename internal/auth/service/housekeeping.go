package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/passguard/internal/auth/store"
)

// HousekeepingService periodically clears lockout stamps that have run out,
// so locked_until only ever holds live locks.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Clock    Clock

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweep in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down and waits for an in-progress sweep to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	// Stop cancels a sweep that is still running.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep clears expired lockouts once, in a single transaction, and returns
// how many users changed.
func (s *HousekeepingService) Sweep(ctx context.Context) int64 {
	var n int64
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		n, err = tx.Users().ClearExpiredLockouts(ctx, s.Clock.now())
		return err
	})
	if err != nil {
		if ctx.Err() == nil {
			s.Logger.Error("failed to clear expired lockouts", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.Logger.Info("cleared expired lockouts", "users", n)
	}
	return n
}

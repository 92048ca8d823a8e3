// Package scheduler runs the periodic background work of an open floor plan:
// polling live room status and flushing the offline queue.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/planwise/floorsync/internal/errors"
	"github.com/planwise/floorsync/internal/models"
	"github.com/planwise/floorsync/internal/netstate"
	syncpkg "github.com/planwise/floorsync/internal/sync"
)

// StatusHandler receives each polled status snapshot. Display-only data.
type StatusHandler func(*models.FloorPlan)

// Config holds scheduler intervals.
type Config struct {
	StatusInterval time.Duration // how often to poll live room status
	FlushInterval  time.Duration // how often to retry flushing the offline queue
}

// DefaultConfig returns the default scheduler intervals.
func DefaultConfig() *Config {
	return &Config{
		StatusInterval: 30 * time.Second,
		FlushInterval:  1 * time.Minute,
	}
}

// Scheduler drives periodic status polls and queue flushes for one engine.
// Both loops skip their tick while offline; the engine's own reconnect flush
// covers the transition back online.
type Scheduler struct {
	engine   *syncpkg.Engine
	net      netstate.Monitor
	onStatus StatusHandler
	logger   *zap.Logger

	statusInterval time.Duration
	flushInterval  time.Duration

	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a Scheduler. onStatus may be nil, which disables the
// status loop.
func NewScheduler(engine *syncpkg.Engine, net netstate.Monitor, onStatus StatusHandler, config *Config, logger *zap.Logger) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Scheduler{
		engine:         engine,
		net:            net,
		onStatus:       onStatus,
		logger:         logger,
		statusInterval: config.StatusInterval,
		flushInterval:  config.FlushInterval,
		stopCh:         make(chan struct{}),
	}
}

// Start launches the background loops. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	if s.onStatus != nil {
		s.wg.Add(1)
		go s.statusLoop(ctx)
	}
	s.wg.Add(1)
	go s.flushLoop(ctx)

	s.logger.Info("Background scheduler started",
		zap.Duration("status_interval", s.statusInterval),
		zap.Duration("flush_interval", s.flushInterval),
	)
}

// Stop stops the loops and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Background scheduler stopped")
}

// IsRunning reports whether the scheduler loops are active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) statusLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if !s.net.Online() {
				continue
			}
			plan, err := s.engine.RefreshStatus(ctx)
			if err != nil {
				s.logger.Debug("Status poll failed", zap.Error(err))
				continue
			}
			s.onStatus(plan)
		}
	}
}

func (s *Scheduler) flushLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if !s.net.Online() {
				continue
			}
			result, err := s.engine.FlushQueue(ctx)
			if err != nil {
				// A concurrent save or a missing baseline resolves itself;
				// anything else is worth surfacing.
				if errors.Is(err, errors.ErrSaveInFlight) || errors.Is(err, errors.ErrNoBaseline) {
					s.logger.Debug("Periodic flush skipped", zap.Error(err))
				} else {
					s.logger.Error("Periodic flush failed", zap.Error(err))
				}
				continue
			}
			if result != nil {
				s.logger.Info("Periodic flush finished", zap.String("outcome", string(result.Outcome)))
			}
		}
	}
}

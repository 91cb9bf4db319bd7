// Package sweeper runs the periodic booking housekeeping jobs.
package sweeper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Engine is the part of the availability engine the sweeper drives.
type Engine interface {
	CompleteExpired(ctx context.Context) (int, error)
	ReconcileSlots(ctx context.Context) (int, error)
}

// Result summarizes one sweep.
type Result struct {
	Completed  int
	Reconciled int
}

// Sweeper completes expired bookings and repairs slot status drift on a cron schedule.
type Sweeper struct {
	cron    *cron.Cron
	engine  Engine
	timeout time.Duration
}

// New creates a sweeper. Runs that overlap a still-running sweep are skipped.
func New(engine Engine, timeout time.Duration) *Sweeper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sweeper{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		engine:  engine,
		timeout: timeout,
	}
}

// Start schedules the sweep with spec (standard cron or "@every 1m") and starts the scheduler.
func (s *Sweeper) Start(spec string) error {
	log.Println("Starting booking sweeper...")
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("invalid sweeper schedule %q: %w", spec, err)
	}
	s.cron.Start()
	log.Printf("Booking sweeper scheduled %s", spec)
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running sweep.
func (s *Sweeper) Stop() {
	log.Println("Stopping booking sweeper...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Booking sweeper stopped")
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.SweepOnce(ctx)
	if err != nil {
		log.Printf("Booking sweep failed: %v", err)
		return
	}
	if res.Completed > 0 || res.Reconciled > 0 {
		log.Printf("Booking sweep completed %d booking(s), reconciled %d slot(s)", res.Completed, res.Reconciled)
	}
}

// SweepOnce completes expired bookings, then reconciles slot status. Reconciliation runs
// even when completion fails part way, so a stuck booking cannot block status repair.
func (s *Sweeper) SweepOnce(ctx context.Context) (Result, error) {
	var res Result
	completed, completeErr := s.engine.CompleteExpired(ctx)
	res.Completed = completed

	reconciled, err := s.engine.ReconcileSlots(ctx)
	res.Reconciled = reconciled

	if completeErr != nil {
		return res, fmt.Errorf("failed to complete expired bookings: %w", completeErr)
	}
	if err != nil {
		return res, fmt.Errorf("failed to reconcile slots: %w", err)
	}
	return res, nil
}

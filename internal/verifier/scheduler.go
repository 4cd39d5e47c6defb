package verifier

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"facegate/internal/logger"
)

// Scheduler drives one stage's per-frame work at a fixed interval. At most
// one tick is in flight at a time: a timer firing that finds the previous
// tick still running is a no-op, made explicit by a permit channel of
// capacity one instead of a boolean flag. Per-tick errors are logged and
// never stop the loop.
type Scheduler struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context) error
	permit   chan struct{}
	log      zerolog.Logger
}

// NewScheduler creates a scheduler for the named stage.
func NewScheduler(name string, interval time.Duration, tick func(ctx context.Context) error) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		tick:     tick,
		permit:   make(chan struct{}, 1),
		log:      logger.With("scheduler").With().Str("stage", name).Logger(),
	}
}

// Run fires ticks until the context is cancelled. It blocks; run it in its
// own goroutine. Cancellation stops the timer immediately; a tick already
// in flight observes the cancelled context and its result is discarded by
// the orchestrator's epoch check.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case s.permit <- struct{}{}:
				go func() {
					defer func() { <-s.permit }()
					if err := s.tick(ctx); err != nil && ctx.Err() == nil {
						s.log.Warn().Err(err).Msg("tick failed")
					}
				}()
			default:
				// Previous tick still in flight, skip this firing.
			}
		}
	}
}

// Runner runs the identifier and face schedulers for one session. Each tick
// checks the session state itself, so both loops can run for the session's
// whole lifetime.
type Runner struct {
	id   *Scheduler
	face *Scheduler
}

// NewRunner wires schedulers to an orchestrator with the given intervals.
func NewRunner(o *Orchestrator, idTick, faceTick time.Duration) *Runner {
	return &Runner{
		id:   NewScheduler("identifier", idTick, o.TickID),
		face: NewScheduler("face", faceTick, o.TickFace),
	}
}

// Run blocks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		r.id.Run(ctx)
		close(done)
	}()
	r.face.Run(ctx)
	<-done
}

// Package warmer keeps the conversion cache filled ahead of demand by
// assembling the current and next lunar years on a cron schedule.
package warmer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
)

// Target is what the warmer fills. *calendar.Resolver satisfies it.
type Target interface {
	Resolve(ctx context.Context, t time.Time) (calendar.LunarDate, error)
	Warm(ctx context.Context, year int) error
}

// Warmer runs cache warming as a cron job.
type Warmer struct {
	target   Target
	schedule cron.Schedule
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// Option configures a Warmer.
type Option func(*Warmer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Warmer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithTimeout bounds one run. The default is two minutes.
func WithTimeout(d time.Duration) Option {
	return func(w *Warmer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Warmer) { w.now = now }
}

// New creates a Warmer for a standard five-field cron spec.
func New(target Target, spec string, opts ...Option) (*Warmer, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse warm schedule %q: %w", spec, err)
	}

	w := &Warmer{
		target:   target,
		schedule: schedule,
		timeout:  2 * time.Minute,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Next reports when the job fires after t.
func (w *Warmer) Next(t time.Time) time.Time {
	return w.schedule.Next(t)
}

// Start schedules the job. It is a no-op if already started.
func (w *Warmer) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return
	}

	w.cron = cron.New()
	w.cron.Schedule(w.schedule, w)
	w.cron.Start()
	w.logger.Info("cache warmer started", slog.Time("next", w.Next(w.now())))
}

// Stop halts the schedule and waits for a running job, or for ctx.
func (w *Warmer) Stop(ctx context.Context) error {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()

	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run implements cron.Job.
func (w *Warmer) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.RunOnce(ctx); err != nil {
		w.logger.Error("cache warm failed", slog.Any("error", err))
	}
}

// RunOnce warms the lunar year containing now and the one after it.
func (w *Warmer) RunOnce(ctx context.Context) error {
	start := time.Now()

	ld, err := w.target.Resolve(ctx, w.now())
	if err != nil {
		return fmt.Errorf("resolve current lunar year: %w", err)
	}

	var errs []error
	for _, year := range []int{ld.Year, ld.Year + 1} {
		if err := w.target.Warm(ctx, year); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	w.logger.Info("cache warm complete",
		slog.Int("from", ld.Year),
		slog.Int("to", ld.Year+1),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// Package reconcile drives the engine's fast and slow ticks on a gocron
// scheduler.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/venuestatus/internal/engine"
	"git.home.luguber.info/inful/venuestatus/internal/logfields"
)

// Ticker is the work performed on each cadence. *engine.Engine satisfies it.
type Ticker interface {
	FastTick(ctx context.Context) engine.TickReport
	SlowTick(ctx context.Context) engine.TickReport
}

// Loop runs the two reconciliation cadences. Ticks never overlap: each job
// runs in singleton mode and both share one lock.
type Loop struct {
	scheduler gocron.Scheduler
	ticker    Ticker
	fast      time.Duration
	slow      time.Duration
	logger    *slog.Logger

	tickMu sync.Mutex

	reportMu sync.RWMutex
	last     map[engine.TickKind]engine.TickReport
}

// Option configures a Loop.
type Option func(*options)

type options struct {
	clock  clockwork.Clock
	logger *slog.Logger
}

// WithClock drives the scheduler from c.
func WithClock(c clockwork.Clock) Option { return func(o *options) { o.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// New creates a Loop. Intervals must be positive.
func New(t Ticker, fast, slow time.Duration, opts ...Option) (*Loop, error) {
	if fast <= 0 || slow <= 0 {
		return nil, fmt.Errorf("tick intervals must be positive (fast=%s slow=%s)", fast, slow)
	}
	o := options{clock: clockwork.NewRealClock(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	s, err := gocron.NewScheduler(
		gocron.WithClock(o.clock),
		gocron.WithLogger(o.logger.With("component", "reconcile")),
		gocron.WithStopTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Loop{
		scheduler: s,
		ticker:    t,
		fast:      fast,
		slow:      slow,
		logger:    o.logger,
		last:      make(map[engine.TickKind]engine.TickReport),
	}, nil
}

// Run schedules both cadences, starting immediately, and blocks until ctx is
// cancelled. A tick in progress at cancellation finishes before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.schedule(ctx, engine.TickFast, l.fast, l.RunFast); err != nil {
		return err
	}
	if err := l.schedule(ctx, engine.TickSlow, l.slow, l.RunSlow); err != nil {
		return err
	}

	l.logger.Info("Starting reconciliation loop",
		slog.Duration("fast_interval", l.fast),
		slog.Duration("slow_interval", l.slow))
	l.scheduler.Start()

	<-ctx.Done()
	l.logger.Info("Stopping reconciliation loop")
	if err := l.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop reconciliation loop: %w", err)
	}
	return nil
}

func (l *Loop) schedule(ctx context.Context, kind engine.TickKind, every time.Duration, run func(context.Context) engine.TickReport) error {
	_, err := l.scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func(jobCtx context.Context) { run(jobCtx) }),
		gocron.WithName(fmt.Sprintf("%s-tick", kind)),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s tick: %w", kind, err)
	}
	return nil
}

// RunFast performs one fast tick now.
func (l *Loop) RunFast(ctx context.Context) engine.TickReport {
	return l.run(ctx, l.ticker.FastTick)
}

// RunSlow performs one slow tick now.
func (l *Loop) RunSlow(ctx context.Context) engine.TickReport {
	return l.run(ctx, l.ticker.SlowTick)
}

func (l *Loop) run(ctx context.Context, tick func(context.Context) engine.TickReport) engine.TickReport {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	report := tick(ctx)

	l.reportMu.Lock()
	l.last[report.Kind] = report
	l.reportMu.Unlock()

	if report.Failures > 0 {
		l.logger.Warn("Tick completed with failures",
			logfields.TickKind(string(report.Kind)),
			logfields.Count(report.Failures))
	}
	return report
}

// LastReport returns the most recent report for kind.
func (l *Loop) LastReport(kind engine.TickKind) (engine.TickReport, bool) {
	l.reportMu.RLock()
	defer l.reportMu.RUnlock()
	r, ok := l.last[kind]
	return r, ok
}

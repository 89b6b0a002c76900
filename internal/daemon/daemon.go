// Package daemon wires the venue status service together and runs it.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/venuestatus/internal/api"
	"git.home.luguber.info/inful/venuestatus/internal/config"
	"git.home.luguber.info/inful/venuestatus/internal/engine"
	"git.home.luguber.info/inful/venuestatus/internal/eventstore"
	"git.home.luguber.info/inful/venuestatus/internal/lifecycle"
	"git.home.luguber.info/inful/venuestatus/internal/logfields"
	"git.home.luguber.info/inful/venuestatus/internal/metrics"
	"git.home.luguber.info/inful/venuestatus/internal/notify"
	"git.home.luguber.info/inful/venuestatus/internal/persistence"
	"git.home.luguber.info/inful/venuestatus/internal/reconcile"
	"git.home.luguber.info/inful/venuestatus/internal/retry"
	"git.home.luguber.info/inful/venuestatus/internal/schedule"
	"git.home.luguber.info/inful/venuestatus/internal/subscriptions"
)

// Status is the daemon lifecycle state.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
)

// Daemon owns every long-running component.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	clock   clockwork.Clock
	started time.Time
	status  atomic.Value

	venues     *persistence.SQLiteStore
	favorites  *subscriptions.SQLiteStore
	history    *eventstore.SQLiteStore
	writer     *persistence.Writer
	dispatcher *notify.Dispatcher
	deliverer  *notify.Deliverer
	transport  notify.Transport
	engine     *engine.Engine
	loop       *reconcile.Loop
	server     *api.Server
}

// Option configures a Daemon.
type Option func(*options)

type options struct {
	clock     clockwork.Clock
	transport notify.Transport
	registry  *prom.Registry
}

// WithClock overrides the wall clock for every component.
func WithClock(c clockwork.Clock) Option { return func(o *options) { o.clock = c } }

// WithTransport overrides the configured notification transport.
func WithTransport(t notify.Transport) Option { return func(o *options) { o.transport = t } }

// WithRegistry registers metrics on reg instead of a fresh registry.
func WithRegistry(reg *prom.Registry) Option { return func(o *options) { o.registry = reg } }

// New builds the daemon from cfg and loads every stored venue into the engine.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = metrics.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	recorder := metrics.NewPrometheusRecorder(o.registry)

	d := &Daemon{cfg: cfg, logger: logger, clock: o.clock}
	d.status.Store(StatusStarting)

	venues, err := persistence.NewSQLiteStore(cfg.Storage.Database)
	if err != nil {
		return nil, fmt.Errorf("open venue store: %w", err)
	}
	d.venues = venues

	favorites, err := subscriptions.NewSQLiteStoreFromDB(venues.DB())
	if err != nil {
		_ = venues.Close()
		return nil, fmt.Errorf("open favorites store: %w", err)
	}
	d.favorites = favorites

	history, err := eventstore.NewSQLiteStoreFromDB(venues.DB())
	if err != nil {
		_ = venues.Close()
		return nil, fmt.Errorf("open transition history: %w", err)
	}
	d.history = history

	d.transport = o.transport
	if d.transport == nil {
		d.transport, err = newTransport(ctx, cfg, logger)
		if err != nil {
			_ = venues.Close()
			return nil, err
		}
	}

	d.writer = persistence.NewWriter(venues,
		persistence.WithPolicy(retry.FromConfig(cfg.Persistence)),
		persistence.WithClock(o.clock),
		persistence.WithLogger(logger.With("component", "persistence")),
		persistence.WithRecorder(recorder),
	)

	d.dispatcher = notify.NewDispatcher(favorites,
		notify.WithDedupWindow(cfg.Engine.NotificationDedupWindow.D()),
		notify.WithQueueSize(cfg.Notifications.QueueSize),
		notify.WithClock(o.clock),
		notify.WithLogger(logger.With("component", "notify")),
		notify.WithRecorder(recorder),
	)
	d.deliverer = notify.NewDeliverer(d.transport, d.dispatcher.Outbox(),
		notify.WithDelivererLogger(logger.With("component", "deliverer")),
		notify.WithDelivererRecorder(recorder),
		notify.WithDelivererClock(o.clock),
	)

	hub := api.NewEventHub()
	machine := lifecycle.NewMachine(
		schedule.NewEvaluator(cfg.Engine.OpeningSoonWindow.D(), cfg.Engine.ClosingSoonWindow.D()),
		cfg.Engine.AutoTransitionDelay.D(),
	)
	d.engine = engine.New(machine,
		engine.WithPersister(d.writer),
		engine.WithDispatcher(d.dispatcher),
		engine.WithObserver(hub),
		engine.WithObserver(eventstore.NewRecorder(history, logger.With("component", "history"), 0)),
		engine.WithClock(o.clock),
		engine.WithLogger(logger.With("component", "engine")),
		engine.WithRecorder(recorder),
	)

	if err := d.load(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}

	d.loop, err = reconcile.New(d.engine,
		cfg.Engine.FastTickInterval.D(),
		cfg.Engine.SlowTickInterval.D(),
		reconcile.WithClock(o.clock),
		reconcile.WithLogger(logger),
	)
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	d.server = api.NewServer(cfg.HTTP.Addr, d.engine,
		api.WithEventHub(hub),
		api.WithMetricsHandler(metrics.HTTPHandler(o.registry)),
		api.WithRateLimit(cfg.HTTP.RatePerMinute),
		api.WithHealthReporter(d),
		api.WithHistory(history),
		api.WithLogger(logger.With("component", "api")),
	)
	d.started = o.clock.Now()
	return d, nil
}

func newTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.Transport, error) {
	switch cfg.Notifications.Transport {
	case config.TransportNATS:
		t, err := notify.NewNATSTransport(ctx, cfg.Notifications.NATS, cfg.Engine.NotificationDedupWindow.D())
		if err != nil {
			return nil, fmt.Errorf("create NATS transport: %w", err)
		}
		return t, nil
	default:
		return notify.LogTransport{Logger: logger.With("component", "transport")}, nil
	}
}

// load registers every stored venue.
func (d *Daemon) load(ctx context.Context) error {
	stored, err := d.venues.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load venues: %w", err)
	}
	for _, v := range stored {
		if err := d.engine.Register(v); err != nil {
			d.logger.Warn("Skipping stored venue", logfields.VenueID(v.ID), logfields.Error(err))
		}
	}
	d.logger.Info("Venues loaded",
		logfields.Count(len(stored)),
		slog.Int("pending_auto_transitions", d.engine.PendingAutoTransitions()))
	return nil
}

// Engine exposes the engine for in-process callers.
func (d *Daemon) Engine() *engine.Engine { return d.engine }

// GetStatus returns the lifecycle state.
func (d *Daemon) GetStatus() Status {
	s, _ := d.status.Load().(Status)
	return s
}

// Run starts every component and blocks until ctx is cancelled or one fails.
// In-flight ticks finish, the API drains and the persistence writer flushes
// before Run returns.
func (d *Daemon) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// Writer and deliverer outlive the loop and API so late events still land.
	bgCtx, stopBackground := context.WithCancel(context.WithoutCancel(ctx))
	defer stopBackground()
	var bg errgroup.Group
	bg.Go(func() error { return d.writer.Run(bgCtx) })
	bg.Go(func() error { return d.deliverer.Run(bgCtx) })

	g.Go(func() error { return d.loop.Run(gctx) })
	g.Go(func() error {
		d.logger.Info("HTTP API listening", slog.String("addr", d.cfg.HTTP.Addr))
		if err := d.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		d.status.Store(StatusStopping)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return d.server.Shutdown(shutdownCtx)
	})

	d.status.Store(StatusRunning)
	d.logger.Info("Daemon running")
	err := g.Wait()

	stopBackground()
	_ = bg.Wait()
	d.status.Store(StatusStopped)
	d.logger.Info("Daemon stopped")
	return err
}

// Close releases stores and the transport.
func (d *Daemon) Close() error {
	var errs []error
	if c, ok := d.transport.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	if d.venues != nil {
		errs = append(errs, d.venues.Close())
	}
	return errors.Join(errs...)
}

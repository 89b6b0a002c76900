package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/venuestatus/internal/api"
	"git.home.luguber.info/inful/venuestatus/internal/config"
	"git.home.luguber.info/inful/venuestatus/internal/notify"
	"git.home.luguber.info/inful/venuestatus/internal/persistence"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

type recordingTransport struct {
	mu         sync.Mutex
	deliveries []notify.Delivery
}

func (r *recordingTransport) Deliver(_ context.Context, d notify.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, d)
	return nil
}

func (r *recordingTransport) sent() []notify.Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Delivery(nil), r.deliveries...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Database = filepath.Join(t.TempDir(), "venues.db")
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Engine.FastTickInterval = config.Duration(50 * time.Millisecond)
	cfg.Engine.SlowTickInterval = config.Duration(100 * time.Millisecond)
	return cfg
}

func seedVenue(t *testing.T, path string) {
	t.Helper()
	store, err := persistence.NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Save(context.Background(), venue.Venue{
		ID:          "v1",
		Name:        "Blue Bar",
		OwnerID:     "owner-1",
		Mode:        venue.Manual{Status: venue.StatusClosed},
		Schedule:    venue.NewWeeklySchedule("UTC"),
		LastUpdated: time.Now().Add(-time.Hour),
	}))
}

func newTestDaemon(t *testing.T, cfg *config.Config, transport notify.Transport) *Daemon {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d, err := New(context.Background(), cfg, logger,
		WithTransport(transport),
		WithRegistry(prom.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNew_LoadsStoredVenues(t *testing.T) {
	cfg := testConfig(t)
	seedVenue(t, cfg.Storage.Database)

	d := newTestDaemon(t, cfg, &recordingTransport{})
	v, err := d.Engine().Get("v1")
	require.NoError(t, err)
	assert.Equal(t, "Blue Bar", v.Name)
	assert.Equal(t, venue.StatusClosed, v.Status())
	assert.Equal(t, StatusStarting, d.GetStatus())
}

func TestNewTransport_DefaultsToLog(t *testing.T) {
	cfg := config.Default()
	tr, err := newTransport(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, notify.LogTransport{}, tr)
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	seedVenue(t, cfg.Storage.Database)
	transport := &recordingTransport{}
	d := newTestDaemon(t, cfg, transport)

	ctx := context.Background()
	require.NoError(t, d.favorites.Favorite(ctx, "device-1", "v1"))

	runCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(runCtx) }()

	require.Eventually(t, func() bool {
		_, fast := d.loop.LastReport("fast")
		_, slow := d.loop.LastReport("slow")
		return d.GetStatus() == StatusRunning && fast && slow
	}, 5*time.Second, 10*time.Millisecond)

	health := d.Health(ctx)
	assert.Equal(t, api.HealthHealthy, health.Status)
	assert.Len(t, health.Checks, 4)

	updated, err := d.Engine().SetManualStatus(ctx, "owner-1", "v1", venue.StatusOpeningSoon)
	require.NoError(t, err)
	assert.Equal(t, venue.StatusOpeningSoon, updated.Status())

	require.Eventually(t, func() bool {
		sent := transport.sent()
		return len(sent) == 1 && sent[0].DeviceID == "device-1" && sent[0].Kind == notify.KindOpeningSoon
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		stored, err := d.venues.Get(ctx, "v1")
		return err == nil && stored.Status() == venue.StatusOpeningSoon
	}, 5*time.Second, 10*time.Millisecond)

	history, err := d.history.ByVenue(ctx, "v1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, venue.StatusOpeningSoon, history[0].NewStatus)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("daemon did not stop")
	}
	assert.Equal(t, StatusStopped, d.GetStatus())
}

func TestHealth_DegradedBeforeRun(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDaemon(t, cfg, &recordingTransport{})

	health := d.Health(context.Background())
	assert.Equal(t, api.HealthDegraded, health.Status)

	byName := map[string]api.HealthCheck{}
	for _, c := range health.Checks {
		byName[c.Name] = c
	}
	assert.Equal(t, api.HealthDegraded, byName["daemon"].Status)
	assert.Equal(t, api.HealthHealthy, byName["storage"].Status)
	assert.Equal(t, "no tick completed yet", byName["fast_tick"].Message)
}

func TestHealth_UnhealthyWhenStorageClosed(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDaemon(t, cfg, &recordingTransport{})
	require.NoError(t, d.venues.Close())

	health := d.Health(context.Background())
	assert.Equal(t, api.HealthUnhealthy, health.Status)
}

func TestNew_SkipsStoredVenueWithInvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	seedVenue(t, cfg.Storage.Database)

	store, err := persistence.NewSQLiteStore(cfg.Storage.Database)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), venue.Venue{
		ID:          "v2",
		Name:        "Red Room",
		OwnerID:     "owner-2",
		Mode:        venue.ScheduleFollowing{Status: venue.StatusClosed},
		Schedule:    venue.NewWeeklySchedule("Mars/Olympus"),
		LastUpdated: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, store.Close())

	d := newTestDaemon(t, cfg, &recordingTransport{})
	_, err = d.Engine().Get("v1")
	require.NoError(t, err)
	_, err = d.Engine().Get("v2")
	assert.True(t, errors.Is(err, venue.ErrVenueNotFound))
	assert.Len(t, d.Engine().Snapshot(), 1)
}

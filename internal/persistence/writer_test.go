package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/venuestatus/internal/config"
	"git.home.luguber.info/inful/venuestatus/internal/retry"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

type fakeGateway struct {
	mu       sync.Mutex
	failures int
	attempts map[string]int
	saved    map[string]venue.Venue
}

func newFakeGateway(failures int) *fakeGateway {
	return &fakeGateway{failures: failures, attempts: map[string]int{}, saved: map[string]venue.Venue{}}
}

func (g *fakeGateway) Save(_ context.Context, v venue.Venue) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempts[v.ID]++
	if g.failures > 0 {
		g.failures--
		return ErrPersistenceFailure.Wrap(errors.New("disk full"))
	}
	g.saved[v.ID] = v
	return nil
}

func (g *fakeGateway) LoadAll(context.Context) ([]venue.Venue, error) { return nil, nil }

func (g *fakeGateway) attemptsFor(id string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts[id]
}

func (g *fakeGateway) savedVenue(id string) (venue.Venue, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.saved[id]
	return v, ok
}

func startWriter(t *testing.T, w *Writer) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-w.Done()
	})
	return cancel
}

func TestWriter_SavesEnqueuedSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := newFakeGateway(0)
	w := NewWriter(gw)
	cancel := startWriter(t, w)

	w.Enqueue(sampleVenue("a", time.Now()))
	require.Eventually(t, func() bool { _, ok := gw.savedVenue("a"); return ok }, time.Second, 5*time.Millisecond)

	cancel()
	<-w.Done()
}

func TestWriter_RetriesWithBackoff(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	gw := newFakeGateway(2)
	w := NewWriter(gw,
		WithClock(clock),
		WithPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Second, time.Second, 5)),
	)
	cancel := startWriter(t, w)
	ctx := context.Background()

	w.Enqueue(sampleVenue("a", time.Now()))
	require.Eventually(t, func() bool { return gw.attemptsFor("a") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return gw.attemptsFor("a") == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { _, ok := gw.savedVenue("a"); return ok }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, gw.attemptsFor("a"))
	assert.Equal(t, 0, w.Pending())

	cancel()
	<-w.Done()
}

func TestWriter_DropsAfterExhaustion(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	gw := newFakeGateway(10)
	w := NewWriter(gw,
		WithClock(clock),
		WithPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Second, time.Second, 1)),
	)
	cancel := startWriter(t, w)
	ctx := context.Background()

	w.Enqueue(sampleVenue("a", time.Now()))
	require.Eventually(t, func() bool { return gw.attemptsFor("a") == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	require.Eventually(t, func() bool { return gw.attemptsFor("a") == 2 && w.Pending() == 0 }, time.Second, 5*time.Millisecond)
	_, saved := gw.savedVenue("a")
	assert.False(t, saved)

	cancel()
	<-w.Done()
	assert.Equal(t, 2, gw.attemptsFor("a"))
}

func TestWriter_CoalescesAndDrainsOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := newFakeGateway(0)
	w := NewWriter(gw)

	now := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
	first := sampleVenue("a", now)
	second := sampleVenue("a", now.Add(time.Minute))
	second.Mode = venue.ScheduleFollowing{Status: venue.StatusClosed}
	w.Enqueue(first)
	w.Enqueue(second)
	assert.Equal(t, 1, w.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))

	got, ok := gw.savedVenue("a")
	require.True(t, ok)
	assert.Equal(t, venue.ModeSchedule, got.Mode.Kind())
	assert.Equal(t, 1, gw.attemptsFor("a"))
}

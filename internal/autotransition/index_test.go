package autotransition

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

func TestIndex_DueAsOf(t *testing.T) {
	x := NewIndex()
	x.Arm("c", t0.Add(30*time.Minute))
	x.Arm("a", t0.Add(10*time.Minute))
	x.Arm("b", t0.Add(10*time.Minute))
	x.Arm("d", t0.Add(2*time.Hour))

	assert.Empty(t, x.DueAsOf(t0))
	assert.Equal(t, []string{"a", "b"}, x.DueAsOf(t0.Add(10*time.Minute)))
	assert.Equal(t, []string{"a", "b", "c"}, x.DueAsOf(t0.Add(time.Hour)))
	assert.Equal(t, 4, x.Len(), "querying must not consume entries")
}

func TestIndex_CatchUpAfterLongGap(t *testing.T) {
	x := NewIndex()
	for i := 0; i < 50; i++ {
		x.Arm(fmt.Sprintf("v-%02d", i), t0.Add(time.Duration(i)*time.Minute))
	}

	due := x.DueAsOf(t0.Add(72 * time.Hour))
	require.Len(t, due, 50)
	assert.Equal(t, "v-00", due[0])
	assert.Equal(t, "v-49", due[49])
}

func TestIndex_RearmAndClear(t *testing.T) {
	x := NewIndex()
	x.Arm("a", t0.Add(time.Hour))
	x.Arm("b", t0.Add(2*time.Hour))

	x.Arm("a", t0.Add(3*time.Hour))
	id, fireAt, ok := x.Next()
	require.True(t, ok)
	assert.Equal(t, "b", id)
	assert.Equal(t, t0.Add(2*time.Hour), fireAt)

	x.Clear("b")
	x.Clear("missing")
	assert.Equal(t, 1, x.Len())
	assert.Empty(t, x.DueAsOf(t0.Add(2*time.Hour)))

	got, ok := x.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, t0.Add(3*time.Hour), got)

	x.Clear("a")
	_, _, ok = x.Next()
	assert.False(t, ok)
}

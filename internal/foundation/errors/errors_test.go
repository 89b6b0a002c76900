package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder sets fields", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "venuestatus.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "venuestatus.yaml", file)
	})

	t.Run("wrapped cause is reachable", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := WrapError(cause, CategoryPersistence, "save venue").Retryable().Build()

		assert.ErrorIs(t, err, cause)
		assert.True(t, err.CanRetry())
		assert.True(t, IsRetryable(fmt.Errorf("outer: %w", err)))
	})
}

func TestSentinelMatching(t *testing.T) {
	sentinel := NotFoundError("venue not found").Build()

	withCtx := sentinel.WithContext("venue_id", "v-1")
	assert.ErrorIs(t, withCtx, sentinel)
	assert.Empty(t, sentinel.Context(), "sentinel must not be mutated")

	other := NotFoundError("device not found").Build()
	assert.NotErrorIs(t, withCtx, other)
}

func TestCategoryHelpers(t *testing.T) {
	err := fmt.Errorf("handler: %w", AuthError("caller is not the venue owner").Build())

	assert.True(t, HasCategory(err, CategoryAuth))
	assert.Equal(t, CategoryAuth, GetCategory(err))
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	assert.False(t, IsRetryable(err))
}

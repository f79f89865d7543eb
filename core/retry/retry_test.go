package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_SucceedsOnLaterAttempt(t *testing.T) {
	calls := 0
	ok, err := Verify(context.Background(), 4, time.Millisecond, func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, calls)
}

func TestVerify_ExhaustsAttempts(t *testing.T) {
	calls := 0
	ok, err := Verify(context.Background(), 3, time.Millisecond, func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, calls)
}

func TestVerify_CheckErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	ok, err := Verify(context.Background(), 5, time.Millisecond, func(ctx context.Context) (bool, error) {
		calls++
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestVerify_ContextCancelStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := Verify(ctx, 4, time.Hour, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

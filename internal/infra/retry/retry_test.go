package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fast = Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	req := require.New(t)
	calls := 0
	err := Do(context.Background(), fast, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("blip")
		}
		return nil
	})
	req.NoError(err)
	req.Equal(3, calls)
}

func TestDo_StopsAfterAttempts(t *testing.T) {
	req := require.New(t)
	calls := 0
	boom := errors.New("boom")
	err := Do(context.Background(), fast, func(context.Context) error {
		calls++
		return boom
	})
	req.ErrorIs(err, boom)
	req.Equal(3, calls)
}

func TestDo_PermanentIsNotRetried(t *testing.T) {
	req := require.New(t)
	calls := 0
	bad := errors.New("bad request")
	err := Do(context.Background(), fast, func(context.Context) error {
		calls++
		return Permanent(bad)
	})
	req.Equal(bad, err)
	req.Equal(1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{Attempts: 5, BaseDelay: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("blip")
	})
	req.Error(err)
	req.Equal(1, calls)
}

func TestRetryableStatus(t *testing.T) {
	req := require.New(t)
	req.True(RetryableStatus(http.StatusTooManyRequests))
	req.True(RetryableStatus(http.StatusBadGateway))
	req.True(RetryableStatus(http.StatusRequestTimeout))
	req.False(RetryableStatus(http.StatusBadRequest))
	req.False(RetryableStatus(http.StatusForbidden))
}

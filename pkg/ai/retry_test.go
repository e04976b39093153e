package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestRetryTransientThenSuccess(t *testing.T) {
	base := 2 * time.Millisecond
	for _, failures := range []int{0, 1, 2, 3} {
		t.Run(fmt.Sprintf("%d отказов", failures), func(t *testing.T) {
			calls := 0
			started := time.Now()
			err := Retry(context.Background(), RetryConfig{MaxRetries: 3, BaseDelay: base}, func(context.Context) error {
				calls++
				if calls <= failures {
					return genai.APIError{Code: 429, Message: "too many requests"}
				}
				return nil
			})
			elapsed := time.Since(started)

			require.NoError(t, err)
			assert.Equal(t, failures+1, calls)
			// Суммарное ожидание не меньше base*(2^k - 1).
			minWait := base * time.Duration((1<<failures)-1)
			assert.GreaterOrEqual(t, elapsed, minWait)
		})
	}
}

func TestRetryNonTransientFailsFast(t *testing.T) {
	calls := 0
	authErr := genai.APIError{Code: 401, Message: "API key not valid"}
	err := Retry(context.Background(), RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond}, func(context.Context) error {
		calls++
		return authErr
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	var apiErr genai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Code)
}

func TestRetryExhaustionReturnsLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond}, func(context.Context) error {
		calls++
		return genai.APIError{Code: 503, Message: "overloaded", Status: "UNAVAILABLE"}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls) // MaxRetries+1 попыток
	assert.Equal(t, KindUnavailable, Classify(err))
}

func TestRetryContextCancelStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := Retry(ctx, RetryConfig{MaxRetries: 3, BaseDelay: time.Hour}, func(context.Context) error {
		calls++
		return genai.APIError{Code: 429}
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryDefaults(t *testing.T) {
	cfg := RetryConfig{}.withDefaults()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.BaseDelay)
}

func TestRetryUnknownErrorNotRetried(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond}, func(context.Context) error {
		calls++
		return errors.New("неизвестный сбой")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

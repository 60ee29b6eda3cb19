package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/leapstack-labs/askql/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPermanent = errors.New("syntax error at or near SELEC")

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		failures  []error
		wantCalls int
		wantErr   error
		anyErr    bool
	}{
		{
			name:      "first attempt succeeds",
			policy:    Policy{MaxRetries: 2, Backoff: time.Millisecond},
			wantCalls: 1,
		},
		{
			name:      "transient then success",
			policy:    Policy{MaxRetries: 2, Backoff: time.Millisecond},
			failures:  []error{syscall.ECONNRESET},
			wantCalls: 2,
		},
		{
			name:      "permanent stops immediately",
			policy:    Policy{MaxRetries: 3, Backoff: time.Millisecond},
			failures:  []error{errPermanent},
			wantCalls: 1,
			wantErr:   errPermanent,
		},
		{
			name:      "budget exhausted",
			policy:    Policy{MaxRetries: 1, Backoff: time.Millisecond},
			failures:  []error{syscall.ECONNREFUSED, syscall.ECONNREFUSED, syscall.ECONNREFUSED},
			wantCalls: 2,
			wantErr:   syscall.ECONNREFUSED,
		},
		{
			name:      "zero retries",
			policy:    Policy{Backoff: time.Millisecond},
			failures:  []error{Transient(errors.New("503 service unavailable"))},
			wantCalls: 1,
			anyErr:    true,
		},
		{
			name: "custom classifier",
			policy: Policy{
				MaxRetries: 2,
				Backoff:    time.Millisecond,
				Transient:  func(err error) bool { return errors.Is(err, errPermanent) },
			},
			failures:  []error{errPermanent},
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), tt.policy, testutil.NewTestLogger(t), "test", func(_ context.Context) error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			if tt.anyErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDo_AttemptTimeoutIsRetried(t *testing.T) {
	calls := 0
	policy := Policy{MaxRetries: 1, Backoff: time.Millisecond, AttemptTimeout: 10 * time.Millisecond}

	err := Do(context.Background(), policy, nil, "slow", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_CancelledCallerNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, Policy{MaxRetries: 5, Backoff: time.Millisecond}, nil, "cancel", func(_ context.Context) error {
		calls++
		cancel()
		return syscall.ECONNRESET
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped reset", fmt.Errorf("query: %w", syscall.ECONNRESET), true},
		{"marked", Transient(errors.New("429 too many requests")), true},
		{"permanent", errPermanent, false},
		{"cancelled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransient_Nil(t *testing.T) {
	assert.NoError(t, Transient(nil))
	assert.False(t, IsMarkedTransient(errPermanent))
}

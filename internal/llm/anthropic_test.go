package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leapstack-labs/askql/internal/retry"
	"github.com/leapstack-labs/askql/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messageReply = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "test-model",
  "content": [
    {"type": "text", "text": "Tables: SBOOK\n"},
    {"type": "text", "text": "Columns: SUM(LOCCURAM)"}
  ],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 10, "output_tokens": 8}
}`

func newMessagesServer(t *testing.T, statuses []int, captured *map[string]any) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		if captured != nil {
			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.NoError(t, json.Unmarshal(body, captured))
		}

		status := http.StatusOK
		if int(n) <= len(statuses) {
			status = statuses[n-1]
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = io.WriteString(w, messageReply)
			return
		}
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"boom"}}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestAnthropic_Complete(t *testing.T) {
	var body map[string]any
	srv, calls := newMessagesServer(t, nil, &body)

	m, err := NewAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL + "/", Model: "test-model", MaxTokens: 256}, testutil.NewTestLogger(t))
	require.NoError(t, err)

	text, err := m.Complete(context.Background(), "Which tables hold bookings?")
	require.NoError(t, err)
	assert.Equal(t, "Tables: SBOOK\nColumns: SUM(LOCCURAM)", text)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	assert.Equal(t, "test-model", body["model"])
	assert.EqualValues(t, 256, body["max_tokens"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
}

func TestAnthropic_RetryClassification(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantErr   bool
	}{
		{"server error retried", []int{http.StatusInternalServerError}, 2, false},
		{"rate limit retried", []int{http.StatusTooManyRequests}, 2, false},
		{"bad request not retried", []int{http.StatusBadRequest}, 1, true},
		{"budget exhausted", []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable}, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := newMessagesServer(t, tt.statuses, nil)
			base, err := NewAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL + "/"}, nil)
			require.NoError(t, err)

			m := WithRetry(base, retry.Policy{MaxRetries: 1, Backoff: time.Millisecond}, testutil.NewTestLogger(t))
			_, err = m.Complete(context.Background(), "prompt")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(calls))
		})
	}
}

func TestNewAnthropic_RequiresKey(t *testing.T) {
	_, err := NewAnthropic(Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

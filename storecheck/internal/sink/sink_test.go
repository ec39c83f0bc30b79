package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

func page(url string, passed bool) *result.PageTestResult {
	return &result.PageTestResult{URL: url, Platform: "generic", Passed: passed}
}

func TestStdout(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)
	require.NoError(t, s.Send(context.Background(), page("https://shop.test/a", true)))
	require.NoError(t, s.SendSummary(context.Background(), result.Summary{Total: 1, Passed: 1}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &env))
	assert.Equal(t, "page", env.Type)
	assert.Contains(t, string(env.Data), `"url":"https://shop.test/a"`)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &env))
	assert.Equal(t, "summary", env.Type)
}

func TestWebhook_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	var lastBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		lastBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookBackoff(time.Millisecond))
	require.NoError(t, w.Send(context.Background(), page("https://shop.test/a", false)))
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, string(lastBody), `"type":"page"`)
}

func TestWebhook_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookRetries(2), WithWebhookBackoff(time.Millisecond))
	err := w.SendSummary(context.Background(), result.Summary{Total: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhook_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	w := NewWebhook(srv.URL, WithWebhookBackoff(time.Hour))
	assert.ErrorIs(t, w.Send(ctx, page("https://shop.test/a", true)), context.DeadlineExceeded)
}

func TestRouter_FanOutContinuesOnError(t *testing.T) {
	var got []string
	boom := errors.New("boom")
	failing := NewCallback(func(context.Context, *result.PageTestResult) error { return boom }, nil)
	recording := NewCallback(func(_ context.Context, r *result.PageTestResult) error {
		got = append(got, r.URL)
		return nil
	}, func(_ context.Context, s result.Summary) error {
		got = append(got, "summary")
		return nil
	})

	r := NewRouter(nil, failing, recording)
	assert.Equal(t, 2, r.Len())
	assert.ErrorIs(t, r.Send(context.Background(), page("https://shop.test/a", true)), boom)
	require.NoError(t, r.SendSummary(context.Background(), result.Summary{}))
	require.NoError(t, r.Close())
	assert.Equal(t, []string{"https://shop.test/a", "summary"}, got)
}

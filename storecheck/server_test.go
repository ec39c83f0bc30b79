package storecheck

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/storecheck/storecheck/internal/store"
	"github.com/hazyhaar/storecheck/storecheck/result"
)

func TestHandler_Health(t *testing.T) {
	c, _ := newTestChecker(t, testConfig())
	srv := httptest.NewServer(c.Handler(nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestHandler_Metrics(t *testing.T) {
	c, _ := newTestChecker(t, testConfig(), productTab())
	c.CheckPage(context.Background(), pageURL)

	rec := httptest.NewRecorder()
	c.Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storecheck_pages_total")
}

func TestHandler_CheckAndHistory(t *testing.T) {
	st := store.OpenMemory(t)
	c, _ := newTestChecker(t, testConfig(), productTab())
	c.sinkR.Add(st)
	h := c.Handler(st)

	body, _ := json.Marshal(map[string]string{"url": pageURL})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var checked result.PageTestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &checked))
	assert.True(t, checked.Passed)
	assert.Equal(t, "run-1", checked.ID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results?url="+pageURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []result.PageTestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "run-1", list[0].ID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/run-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CheckRejectsBadInput(t *testing.T) {
	c, _ := newTestChecker(t, testConfig())
	h := c.Handler(nil)

	for _, body := range []string{`not json`, `{"url":"javascript:alert(1)"}`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check", bytes.NewBufferString(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestHandler_NoStore(t *testing.T) {
	c, _ := newTestChecker(t, testConfig())
	rec := httptest.NewRecorder()
	c.Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSinksFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Sinks = []SinkConfig{{Type: "stdout"}, {Type: "webhook", URL: "https://hooks.test/x", Retries: 1}}
	sinks, err := SinksFromConfig(cfg, &bytes.Buffer{}, nil)
	require.NoError(t, err)
	assert.Len(t, sinks, 2)

	cfg.Sinks = []SinkConfig{{Type: "kafka"}}
	_, err = SinksFromConfig(cfg, nil, nil)
	assert.Error(t, err)
}


package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/storecheck/storecheck/internal/sink"
	"github.com/hazyhaar/storecheck/storecheck/result"
)

var _ sink.Sink = (*Store)(nil)

func sample(id, url string, passed bool, at time.Time) *result.PageTestResult {
	return &result.PageTestResult{
		ID:        id,
		URL:       url,
		Platform:  "shopify",
		StartedAt: at,
		Duration:  1500 * time.Millisecond,
		Passed:    passed,
		Signals: &result.SignalResult{
			Passed:        passed,
			CriticalCount: boolCount(!passed),
		},
	}
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestSaveGet(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, sample("r1", "https://shop.test/a", false, at)))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://shop.test/a", got.URL)
	assert.False(t, got.Passed)
	assert.Equal(t, 1, got.CriticalCount())
	assert.True(t, at.Equal(got.StartedAt))

	var critical int
	require.NoError(t, s.DB.QueryRow(`SELECT critical_count FROM page_results WHERE id = 'r1'`).Scan(&critical))
	assert.Equal(t, 1, critical)

	missing, err := s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveAssignsID(t *testing.T) {
	s := OpenMemory(t)
	r := sample("", "https://shop.test/a", true, time.Now())
	require.NoError(t, s.Save(context.Background(), r))
	assert.NotEmpty(t, r.ID)
}

func TestRecent(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, sample("a1", "https://shop.test/a", true, base)))
	require.NoError(t, s.Save(ctx, sample("b1", "https://shop.test/b", false, base.Add(time.Hour))))
	require.NoError(t, s.Save(ctx, sample("a2", "https://shop.test/a", false, base.Add(2*time.Hour))))

	all, err := s.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a2", "b1", "a1"}, ids(all))

	byURL, err := s.Recent(ctx, Query{URL: "https://shop.test/a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a1"}, ids(byURL))

	failed, err := s.Recent(ctx, Query{FailedOnly: true, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, ids(failed))

	since, err := s.Recent(ctx, Query{Since: base.Add(30 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "b1"}, ids(since))
}

func TestSummaries(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	require.NoError(t, s.SendSummary(ctx, result.Summary{Total: 2, Passed: 1, Failed: 1}))
	require.NoError(t, s.SendSummary(ctx, result.Summary{Total: 3, Passed: 3}))

	got, err := s.Summaries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Total)
	assert.Equal(t, 1, got[1].Failed)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path, WithMkdirAll())
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.DB.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func ids(rs []*result.PageTestResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

package signals

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestClassify_FiltersNoise(t *testing.T) {
	log := []RawSignal{
		ConsoleMessage{Text: "Failed to load https://www.google-analytics.com/analytics.js", Time: t0},
		ConsoleMessage{Text: "fbevents.js blocked", Time: t0},
		ConsoleMessage{Text: "Something odd happened", Time: t0},
	}
	res := Classify(log, result.Performance{}, Rules{Tolerance: result.Tolerance{MaxWarnings: 5}})
	assert.Equal(t, 2, res.Filtered)
	require.Len(t, res.Signals, 1)
	assert.Equal(t, result.KindConsoleError, res.Signals[0].Kind)
	assert.Equal(t, result.SeverityWarning, res.Signals[0].Severity)
	assert.True(t, res.Passed)
}

func TestClassify_UnhandledFaultIsCritical(t *testing.T) {
	res := Classify([]RawSignal{
		ConsoleMessage{Text: "Uncaught TypeError: x is undefined", Time: t0},
	}, result.Performance{}, Rules{Tolerance: result.Tolerance{MaxWarnings: 5}})
	require.Len(t, res.Signals, 1)
	assert.Equal(t, result.SeverityCritical, res.Signals[0].Severity)
	assert.Equal(t, 1, res.CriticalCount)
	assert.False(t, res.Passed)
}

func TestClassify_NoiseWinsOverCriticalPhrase(t *testing.T) {
	res := Classify([]RawSignal{
		ConsoleMessage{Text: "Uncaught ReferenceError: gtag is not defined", Time: t0},
	}, result.Performance{}, Rules{})
	assert.Empty(t, res.Signals)
	assert.Equal(t, 1, res.Filtered)
	assert.True(t, res.Passed)
}

func TestClassify_Tolerance(t *testing.T) {
	warnings := func(n int) []RawSignal {
		var out []RawSignal
		for i := 0; i < n; i++ {
			out = append(out, ConsoleMessage{Text: "deprecated API", Time: t0})
		}
		return out
	}
	tol := result.Tolerance{MaxCriticalErrors: 0, MaxWarnings: 5}

	tests := []struct {
		name string
		log  []RawSignal
		want bool
	}{
		{"five warnings", warnings(5), true},
		{"six warnings", warnings(6), false},
		{"one critical", []RawSignal{PageException{Message: "boom", Time: t0}}, false},
		{"nothing", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Classify(tt.log, result.Performance{}, Rules{Tolerance: tol})
			assert.Equal(t, tt.want, res.Passed)
		})
	}
}

func TestClassify_Kinds(t *testing.T) {
	log := []RawSignal{
		PageException{Message: "boom", Time: t0},
		NewRequestFailure("https://partner.test/widget.js", "net::ERR_FAILED CORS policy", "Script", t0),
		NewRequestFailure("https://cdn.test/pixel.gif", "net::ERR_CONNECTION_RESET", "Image", t0),
		ResponseError{URL: "https://shop.test/api/stock", Status: 404, Critical: true, Time: t0},
		ResponseError{URL: "https://shop.test/x.png", Status: 404, Time: t0},
		ResponseError{URL: "https://shop.test/x.png", Status: 503, Time: t0},
		SecurityFinding{Kind: result.KindMixedContent, URL: "http://cdn.test/a.js", Time: t0},
	}
	res := Classify(log, result.Performance{}, Rules{Tolerance: result.Tolerance{MaxCriticalErrors: 10, MaxWarnings: 10}})
	require.Len(t, res.Signals, 7)

	assert.Equal(t, result.KindPageError, res.Signals[0].Kind)
	assert.Equal(t, result.KindCORSFailure, res.Signals[1].Kind)
	assert.Equal(t, result.SeverityWarning, res.Signals[1].Severity, "widget.js is not a critical resource")
	assert.Equal(t, result.KindNetworkFailure, res.Signals[2].Kind)
	assert.Equal(t, result.KindCriticalResource, res.Signals[3].Kind)
	assert.Equal(t, result.SeverityCritical, res.Signals[3].Severity)
	assert.Equal(t, result.KindHTTPError, res.Signals[4].Kind)
	assert.Equal(t, result.SeverityWarning, res.Signals[4].Severity)
	assert.Equal(t, result.SeverityCritical, res.Signals[5].Severity)
	assert.Equal(t, result.KindMixedContent, res.Signals[6].Kind)

	assert.Equal(t, 3, res.CriticalCount)
	assert.Equal(t, 4, res.WarningCount)
	assert.True(t, res.Passed)
}

func TestClassify_SlowLoad(t *testing.T) {
	res := Classify(nil, result.Performance{LoadMS: 6200}, Rules{Tolerance: result.Tolerance{MaxWarnings: 1}})
	require.Len(t, res.Signals, 1)
	assert.Equal(t, result.KindSlowLoad, res.Signals[0].Kind)
	assert.True(t, res.Passed)

	res = Classify(nil, result.Performance{LoadMS: 4000}, Rules{})
	assert.Empty(t, res.Signals)
}

func TestIsCriticalResource(t *testing.T) {
	for url, want := range map[string]bool{
		"https://shop.test/checkout/step1":       true,
		"https://shop.test/cart/add":             true,
		"https://shop.test/api/v1/products":      true,
		"https://shop.test/theme.CSS":            true,
		"https://shop.test/static/main.js":       true,
		"https://shop.test/static/bundle.js?v=2": true,
		"https://shop.test/static/vendor.js":     false,
		"https://shop.test/img/hero.png":         false,
	} {
		assert.Equal(t, want, IsCriticalResource(url), url)
	}
}

func TestFromResponse_Security(t *testing.T) {
	headers := map[string]string{
		"Set-Cookie": "session=abc; Path=/; HttpOnly\ntheme=dark; Secure",
	}
	out := FromResponse("https://shop.test/p/1", "http://cdn.test/a.js", 200, "Script", headers, t0)
	require.Len(t, out, 2)

	mixed, ok := out[0].(SecurityFinding)
	require.True(t, ok)
	assert.Equal(t, result.KindMixedContent, mixed.Kind)

	cookie, ok := out[1].(SecurityFinding)
	require.True(t, ok)
	assert.Equal(t, result.KindInsecureCookie, cookie.Kind)
	assert.Contains(t, cookie.Detail, "session")
}

func TestFromResponse_PlainHTTPPageSkipsSecurity(t *testing.T) {
	out := FromResponse("http://shop.test/", "http://cdn.test/a.js", 500, "Script",
		map[string]string{"set-cookie": "a=b"}, t0)
	require.Len(t, out, 1)
	re, ok := out[0].(ResponseError)
	require.True(t, ok)
	assert.Equal(t, 500, re.Status)
	assert.Equal(t, result.SeverityCritical, re.Hint())
}

func TestCollector_Lifecycle(t *testing.T) {
	c := NewCollector(Config{
		PageURL: "https://shop.test/p/1",
		Rules:   Rules{Tolerance: result.Tolerance{MaxWarnings: 5}},
	})
	assert.Equal(t, Armed, c.State())

	_, err := c.Result()
	assert.ErrorIs(t, err, ErrArmed)

	c.Console("log", "ignored", "")
	c.Console("error", "deprecated API", "")
	c.RequestFailed("https://fonts.test/a.woff2", "net::ERR_BLOCKED_BY_CLIENT", "Font", false)
	c.RequestFailed("https://shop.test/x", "net::ERR_ABORTED", "XHR", true)
	c.Response("https://shop.test/img/a.png", 200, "Image", nil)
	c.Response("https://shop.test/img/b.png", 404, "Image", nil)

	res, err := c.Finalize(context.Background(), func(context.Context) (result.Performance, error) {
		return result.Performance{DOMContentLoadedMS: 300, LoadMS: 900}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, Finalized, c.State())
	assert.Equal(t, 2, res.WarningCount)
	assert.Equal(t, int64(900), int64(res.Performance.LoadMS))
	assert.True(t, res.Passed)

	status, ok := c.Status("https://shop.test/img/b.png")
	assert.True(t, ok)
	assert.Equal(t, 404, status)
	_, ok = c.Status("https://shop.test/img/missing.png")
	assert.False(t, ok)

	_, err = c.Finalize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrFinalized)

	got, err := c.Result()
	require.NoError(t, err)
	assert.Equal(t, res, got)

	c.Exception("late", "")
	assert.Equal(t, int64(1), c.Dropped())
	raw, err := c.Raw()
	require.NoError(t, err)
	assert.Len(t, raw, 2)
}

func TestCollector_ConcurrentProducers(t *testing.T) {
	c := NewCollector(Config{Buffer: 4, Rules: Rules{Tolerance: result.Tolerance{MaxWarnings: 1000}}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Console("error", "deprecated API", "")
			}
		}()
	}
	wg.Wait()

	res, err := c.Finalize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 400, res.WarningCount)
	assert.Zero(t, c.Dropped())
}

func TestCollector_FinalizeDuringIntakeAccountsEverySignal(t *testing.T) {
	const producers, perProducer = 8, 200
	c := NewCollector(Config{Buffer: 16})

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < perProducer; j++ {
				c.Exception("boom", "")
			}
		}()
	}
	close(start)
	_, err := c.Finalize(context.Background(), nil)
	require.NoError(t, err)
	wg.Wait()

	raw, err := c.Raw()
	require.NoError(t, err)
	assert.Equal(t, int64(producers*perProducer), int64(len(raw))+c.Dropped())
}

func TestCollector_WindowCatchesLateSignals(t *testing.T) {
	c := NewCollector(Config{ObservationWindow: 100 * time.Millisecond})
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.Exception("Uncaught Error: late", "https://shop.test/app.js")
	}()

	res, err := c.Finalize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CriticalCount)
	assert.False(t, res.Passed)
}

func TestCollector_CancelledContextCutsWindow(t *testing.T) {
	c := NewCollector(Config{ObservationWindow: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Finalize(ctx, func(ctx context.Context) (result.Performance, error) {
			return result.Performance{}, errors.New("tab gone")
		})
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("finalize did not honour cancelled context")
	}
}

func TestCollector_CloseWithoutFinalize(t *testing.T) {
	c := NewCollector(Config{ObservationWindow: time.Hour})
	c.Exception("boom", "")
	c.Close()
	c.Close()

	assert.Equal(t, Finalized, c.State())
	_, err := c.Finalize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrFinalized)
	raw, err := c.Raw()
	require.NoError(t, err)
	assert.Len(t, raw, 1)
}

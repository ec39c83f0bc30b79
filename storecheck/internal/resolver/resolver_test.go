package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/storecheck/storecheck/internal/dom/domtest"
	"github.com/hazyhaar/storecheck/storecheck/profile"
)

func TestResolve_FirstSuccessWins(t *testing.T) {
	page := domtest.NewPage().
		Set(".a", &domtest.Element{TextValue: "First"}).
		Set(".b", &domtest.Element{TextValue: "A much better, longer title"})

	m, err := Resolve(context.Background(), page, []string{".a", ".b"}, profile.PredicateText, Options{})
	require.NoError(t, err)
	assert.Equal(t, ".a", m.Selector)
	assert.Equal(t, "First", m.Text)
	assert.Equal(t, []string{".a"}, page.Queries, "later candidates are never evaluated")
}

func TestResolve_SkipsUnsatisfiedCandidates(t *testing.T) {
	page := domtest.NewPage().
		Set(".empty", &domtest.Element{TextValue: "   "}).
		Set(".title", &domtest.Element{TextValue: " Widget "})

	m, err := Resolve(context.Background(), page, []string{".missing", ".empty", ".title"}, profile.PredicateText, Options{})
	require.NoError(t, err)
	assert.Equal(t, ".title", m.Selector)
	assert.Equal(t, "Widget", m.Text)
}

func TestResolve_ThrowingSelectorContinues(t *testing.T) {
	page := domtest.NewPage().Set("h1", &domtest.Element{TextValue: "Widget"})
	page.Invalid["h1[[broken"] = true

	m, err := Resolve(context.Background(), page, []string{"h1[[broken", "h1"}, profile.PredicateText, Options{})
	require.NoError(t, err)
	assert.Equal(t, "h1", m.Selector)
}

func TestResolve_TextReadErrorIsNonMatch(t *testing.T) {
	page := domtest.NewPage().
		Set(".detached", &domtest.Element{TextErr: errors.New("node detached")}).
		Set(".ok", &domtest.Element{TextValue: "ok"})

	m, err := Resolve(context.Background(), page, []string{".detached", ".ok"}, profile.PredicateText, Options{})
	require.NoError(t, err)
	assert.Equal(t, ".ok", m.Selector)
}

func TestResolve_Price(t *testing.T) {
	page := domtest.NewPage().
		Set(".price-label", &domtest.Element{TextValue: "Price"}).
		Set(".price", &domtest.Element{TextValue: "$19.99"})

	m, err := Resolve(context.Background(), page, []string{".price-label", ".price"}, profile.PredicatePrice, Options{})
	require.NoError(t, err)
	assert.Equal(t, ".price", m.Selector)
	assert.Equal(t, "$19.99", m.Text)
}

func TestIsPrice(t *testing.T) {
	for text, want := range map[string]bool{
		"$19.99":       true,
		"€5":           true,
		"£":            true,
		"19,99 EUR":    true,
		"Sold out":     false,
		"":             false,
		"Call for it!": false,
	} {
		assert.Equal(t, want, IsPrice(text), text)
	}
}

func TestResolve_VisiblePredicate(t *testing.T) {
	page := domtest.NewPage().
		Set("#hidden", &domtest.Element{Hidden: true}).
		Set("#shown", &domtest.Element{})

	m, err := Resolve(context.Background(), page, []string{"#hidden", "#shown"}, profile.PredicateVisible, Options{})
	require.NoError(t, err)
	assert.Equal(t, "#shown", m.Selector)
}

func TestResolve_InspectsLaterNodesOfSameCandidate(t *testing.T) {
	page := domtest.NewPage().Set(".price",
		&domtest.Element{TextValue: ""},
		&domtest.Element{TextValue: "12.00"},
	)
	m, err := Resolve(context.Background(), page, []string{".price"}, profile.PredicatePrice, Options{})
	require.NoError(t, err)
	assert.Equal(t, "12.00", m.Text)
	assert.Equal(t, 2, m.Count)
}

func TestResolve_CandidateTimeoutFallsThrough(t *testing.T) {
	page := domtest.NewPage().
		Stall(".slow").
		Set("h1", &domtest.Element{TextValue: "Blue Widget"})

	start := time.Now()
	m, err := Resolve(context.Background(), page, []string{".slow", "h1"}, profile.PredicateText, Options{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, "h1", m.Selector)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, []string{".slow", "h1"}, page.Queries)
}

func TestResolve_NotFound(t *testing.T) {
	cands := []string{".x", ".y"}
	_, err := Resolve(context.Background(), domtest.NewPage(), cands, profile.PredicateExists, Options{Timeout: time.Second})

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, cands, nf.Candidates)
}

func TestResolve_EmptyCandidates(t *testing.T) {
	_, err := Resolve(context.Background(), domtest.NewPage(), nil, profile.PredicateText, Options{})
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestResolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Resolve(ctx, domtest.NewPage().Set("h1", &domtest.Element{}), []string{"h1"}, profile.PredicateExists, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

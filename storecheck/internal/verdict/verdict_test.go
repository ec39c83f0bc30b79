package verdict

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

func modules(structural, images, signals bool) Input {
	return Input{
		URL:        "https://shop.test/p/1",
		Platform:   "shopify",
		Structural: &result.StructuralResult{Passed: structural},
		Images:     &result.ImageResult{Passed: images},
		Signals:    &result.SignalResult{Passed: signals},
	}
}

func TestAggregate_Conjunction(t *testing.T) {
	tests := []struct {
		name                        string
		structural, images, signals bool
		want                        bool
	}{
		{"all pass", true, true, true, true},
		{"structural fails", false, true, true, false},
		{"images fail", true, false, true, false},
		{"signals fail", true, true, false, false},
		{"all fail", false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Aggregate(modules(tt.structural, tt.images, tt.signals))
			assert.Equal(t, tt.want, r.Passed)
			assert.Empty(t, r.Error)
		})
	}
}

func TestAggregate_FaultForcesFailure(t *testing.T) {
	in := modules(true, true, true)
	in.Fault = errors.New("navigation failed: timeout")

	r := Aggregate(in)
	assert.False(t, r.Passed)
	assert.Equal(t, "navigation failed: timeout", r.Error)
	assert.Equal(t, "https://shop.test/p/1", r.URL)
}

func TestAggregate_MissingModuleFails(t *testing.T) {
	in := modules(true, true, true)
	in.Images = nil
	assert.False(t, Aggregate(in).Passed)
}

func TestAggregate_CarriesPlatformOutcome(t *testing.T) {
	in := modules(true, true, true)
	in.PlatformDetected = true
	in.Degraded = true

	r := Aggregate(in)
	assert.Equal(t, "shopify", r.Platform)
	assert.True(t, r.PlatformDetected)
	assert.True(t, r.Degraded)
}

package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToleranceAllows(t *testing.T) {
	tol := Tolerance{MaxCriticalErrors: 0, MaxWarnings: 5}
	cases := []struct {
		critical, warnings int
		want               bool
	}{
		{0, 5, true},
		{0, 6, false},
		{1, 0, false},
		{0, 0, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, tol.Allows(c.critical, c.warnings), "critical=%d warnings=%d", c.critical, c.warnings)
	}
}

func TestPageCounts(t *testing.T) {
	r := PageTestResult{
		Structural: &StructuralResult{Findings: []Finding{
			{Element: "title", Severity: SeverityCritical},
			{Element: "description", Severity: SeverityWarning},
		}},
		Images:  &ImageResult{Failed: 2},
		Signals: &SignalResult{CriticalCount: 1, WarningCount: 3},
	}
	assert.Equal(t, 4, r.CriticalCount())
	assert.Equal(t, 4, r.WarningCount())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]PageTestResult{{Passed: true}, {Passed: false}, {Passed: true}})
	assert.Equal(t, Summary{Total: 3, Passed: 2, Failed: 1}, s)
}

package handoff

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

func TestDefaultRules_Frequencies(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		code     string
		interval time.Duration
		asNeeded bool
	}{
		{"BD", 12 * time.Hour, false},
		{"b.i.d.", 12 * time.Hour, false},
		{"q6h", 6 * time.Hour, false},
		{"TDS", 8 * time.Hour, false},
		{"OD", 24 * time.Hour, false},
		{"PRN", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			f, ok := rules.Frequency(tt.code)
			require.True(t, ok)
			assert.Equal(t, tt.asNeeded, f.AsNeeded)
			if !tt.asNeeded {
				assert.Equal(t, tt.interval, f.Interval())
			}
		})
	}

	_, ok := rules.Frequency("Q5H")
	assert.False(t, ok)
}

func TestDefaultRules_DayPartsAndTimeCritical(t *testing.T) {
	rules := DefaultRules()

	d, ok := rules.DayPart("Subah")
	require.True(t, ok)
	assert.Equal(t, 8*time.Hour, d)

	assert.True(t, rules.IsTimeCritical("Ceftriaxone"))
	assert.False(t, rules.IsTimeCritical("Paracetamol"))
	assert.Contains(t, rules.NegationKeywords, "not documented")
}

func TestBands_Bucket(t *testing.T) {
	b := DefaultRules().Scoring.Bands
	assert.Equal(t, entities.SeverityLow, b.Bucket(29))
	assert.Equal(t, entities.SeverityMedium, b.Bucket(30))
	assert.Equal(t, entities.SeverityMedium, b.Bucket(49))
	assert.Equal(t, entities.SeverityHigh, b.Bucket(50))
	assert.Equal(t, entities.SeverityHigh, b.Bucket(69))
	assert.Equal(t, entities.SeverityCritical, b.Bucket(70))
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "frequencies: [\n"},
		{"zero interval", "frequencies:\n  - codes: [BD]\n    interval_hours: 0\nscoring:\n  max_score: 100\n"},
		{"bad operator", "vital_thresholds:\n  - vital: SpO2\n    operator: eq\n    severity: HIGH\nscoring:\n  max_score: 100\n"},
		{"bad severity", "vital_thresholds:\n  - vital: SpO2\n    operator: lt\n    severity: SEVERE\nscoring:\n  max_score: 100\n"},
		{"omission without trigger", "omissions:\n  - category: x\nscoring:\n  max_score: 100\n"},
		{"no max score", "scoring:\n  max_score: 0\n"},
		{"descending bands", "scoring:\n  max_score: 100\n  bands: {medium: 50, high: 30, critical: 70}\n"},
		{"bad day part", "day_parts:\n  subah: \"8am\"\nscoring:\n  max_score: 100\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.NotEmpty(t, rules.VitalThresholds)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("frequencies:\n  - codes: [Q2H]\n    interval_hours: 2\nscoring:\n  max_score: 50\n  bands: {medium: 10, high: 20, critical: 40}\n"), 0o600))

	custom, err := LoadRules(path)
	require.NoError(t, err)
	f, ok := custom.Frequency("q2h")
	require.True(t, ok)
	assert.Equal(t, 2*time.Hour, f.Interval())
	assert.Equal(t, 50, custom.Scoring.MaxScore)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package handoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

func TestResolveTime(t *testing.T) {
	tr := NewTemporalReasoner(DefaultRules())
	basis := shiftTime(14, 0)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"08:00", shiftTime(8, 0)},
		{"subah", shiftTime(8, 0)},
		{"raat ko", shiftTime(22, 0).AddDate(0, 0, -1)},
		{"4 hours ago", shiftTime(10, 0)},
		{"2 ghante pehle", shiftTime(12, 0)},
		{"30 mins ago", shiftTime(13, 30)},
		{"9 am", shiftTime(9, 0)},
		{"1:30 pm", shiftTime(13, 30)},
		{"12 am", shiftTime(0, 0)},
		{"0600 hrs", shiftTime(6, 0)},
		{"sham 6 baje", shiftTime(18, 0).AddDate(0, 0, -1)},
		{"16:00", shiftTime(16, 0).AddDate(0, 0, -1)},
		{"2026-03-01T11:15:00Z", shiftTime(11, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := tr.ResolveTime(tt.raw, basis)
			require.True(t, ok)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}

	for _, raw := range []string{"after lunch", "25:00", "13 pm"} {
		_, ok := tr.ResolveTime(raw, basis)
		assert.False(t, ok, raw)
	}
}

func TestSchedule_NextDoseFromAdministrationTime(t *testing.T) {
	tr := NewTemporalReasoner(DefaultRules())

	schedule, asNeeded, diags := tr.Schedule([]entities.ExtractedFact{
		medication("Amoxicillin", "BD", "08:00"),
	}, shiftTime(14, 0))

	assert.Empty(t, asNeeded)
	assert.Empty(t, diags)
	require.Len(t, schedule, 1)
	require.NotNil(t, schedule[0].NextDueAt)
	assert.True(t, schedule[0].NextDueAt.Equal(shiftTime(20, 0)))
	assert.Equal(t, 12*time.Hour, schedule[0].Interval)
	assert.False(t, schedule[0].Overdue)
	assert.False(t, schedule[0].Inferred)
}

func TestSchedule_Overdue(t *testing.T) {
	tr := NewTemporalReasoner(DefaultRules())

	schedule, _, _ := tr.Schedule([]entities.ExtractedFact{
		medication("Vancomycin", "Q4H", "08:00"),
	}, shiftTime(14, 0))

	require.Len(t, schedule, 1)
	assert.True(t, schedule[0].NextDueAt.Equal(shiftTime(12, 0)))
	assert.True(t, schedule[0].Overdue)
}

func TestSchedule_InferredFromBasis(t *testing.T) {
	tr := NewTemporalReasoner(DefaultRules())

	schedule, _, _ := tr.Schedule([]entities.ExtractedFact{
		medication("Pantoprazole", "OD", ""),
		medication("Metformin", "BD", "after dinner"),
	}, shiftTime(14, 0))

	require.Len(t, schedule, 2)
	for _, e := range schedule {
		assert.True(t, e.Inferred)
		assert.False(t, e.Overdue)
	}
	assert.True(t, schedule[0].NextDueAt.Equal(shiftTime(14, 0).Add(24*time.Hour)))
	assert.Empty(t, schedule[0].Note)
	assert.Contains(t, schedule[1].Note, "not understood")
}

func TestSchedule_AsNeededAndUnknownCodes(t *testing.T) {
	tr := NewTemporalReasoner(DefaultRules())

	schedule, asNeeded, diags := tr.Schedule([]entities.ExtractedFact{
		medication("Morphine", "PRN", "2 hours ago"),
		medication("Drug X", "Q5H", "08:00"),
		medication("Aspirin", "", ""),
		vital("SpO2", "95%"),
	}, shiftTime(14, 0))

	assert.Equal(t, []string{"Morphine"}, asNeeded)
	require.Len(t, schedule, 1)
	assert.Equal(t, "Drug X", schedule[0].MedicationName)
	assert.Nil(t, schedule[0].NextDueAt)
	assert.Contains(t, schedule[0].Note, "Q5H")

	require.Len(t, diags, 1)
	assert.Equal(t, entities.DiagnosticRuleEvaluation, diags[0].Kind)
	assert.Equal(t, 1, diags[0].Index)
}

func TestSchedule_Deterministic(t *testing.T) {
	tr := NewTemporalReasoner(DefaultRules())
	facts := []entities.ExtractedFact{medication("Ceftriaxone", "BD", "subah"), medication("Heparin", "Q8H", "3 hours ago")}

	first, _, _ := tr.Schedule(facts, shiftTime(19, 0))
	second, _, _ := tr.Schedule(facts, shiftTime(19, 0))
	assert.Equal(t, first, second)
}

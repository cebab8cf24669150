package handoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

func priorWithScore(score int) entities.PriorContext {
	return BuildContext(1, []entities.HandoffSummary{{ShiftTime: shiftTime(7, 0), RiskScore: score, OverallRisk: entities.SeverityMedium}}, 2)
}

func TestScore_SpO2ThresholdsAccumulate(t *testing.T) {
	rs := NewRiskScorer(DefaultRules())

	tests := []struct {
		raw   string
		score int
		level entities.Severity
	}{
		{"95%", 0, entities.SeverityLow},
		{"91%", 15, entities.SeverityLow},
		{"88%", 45, entities.SeverityMedium},
		{"82%", 45, entities.SeverityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			a := rs.Score([]entities.ExtractedFact{vital("SpO2", tt.raw)}, nil, entities.OmissionReport{}, nil, entities.PriorContext{Empty: true})
			assert.Equal(t, tt.score, a.RiskScore)
			assert.Equal(t, tt.level, a.OverallRisk)
		})
	}
}

func TestScore_FahrenheitFever(t *testing.T) {
	rs := NewRiskScorer(DefaultRules())

	a := rs.Score([]entities.ExtractedFact{vital("Temp", "101F")}, nil, entities.OmissionReport{}, nil, entities.PriorContext{})
	assert.Equal(t, 10, a.RiskScore)
	require.Len(t, a.Alerts, 1)
	assert.Equal(t, "fever", a.Alerts[0].AlertType)

	a = rs.Score([]entities.ExtractedFact{vital("Temp", "99F")}, nil, entities.OmissionReport{}, nil, entities.PriorContext{})
	assert.Zero(t, a.RiskScore)
}

func TestScore_OpaqueVitalIgnored(t *testing.T) {
	rs := NewRiskScorer(DefaultRules())
	a := rs.Score([]entities.ExtractedFact{vital("SpO2", "not recorded")}, nil, entities.OmissionReport{}, nil, entities.PriorContext{})
	assert.Zero(t, a.RiskScore)
	assert.Empty(t, a.Alerts)
}

func TestScore_OmissionsAndOverdueDoses(t *testing.T) {
	rs := NewRiskScorer(DefaultRules())
	due := shiftTime(12, 0)

	a := rs.Score(
		nil,
		[]entities.DoseScheduleEntry{
			{MedicationName: "Vancomycin", FrequencyCode: "Q12H", NextDueAt: &due, Overdue: true},
			{MedicationName: "Paracetamol", FrequencyCode: "Q6H", NextDueAt: &due, Overdue: true},
			{MedicationName: "Pantoprazole", FrequencyCode: "OD", NextDueAt: &due},
		},
		entities.OmissionReport{Items: []entities.Omission{
			{Category: "allergy_cross_check", ExpectedItem: "Allergy status", SafetyCritical: true},
			{Category: "glucose_monitoring", ExpectedItem: "Glucose readings"},
		}},
		nil,
		entities.PriorContext{},
	)

	assert.Equal(t, 20+8+12+12, a.RiskScore)
	assert.Equal(t, entities.SeverityHigh, a.OverallRisk)

	var overdue []entities.Alert
	for _, al := range a.Alerts {
		if al.Source == entities.AlertSourceDoseSchedule {
			overdue = append(overdue, al)
		}
	}
	require.Len(t, overdue, 2)
	assert.Equal(t, entities.SeverityHigh, overdue[0].Severity)
	assert.Equal(t, entities.SeverityMedium, overdue[1].Severity)
	assert.Contains(t, overdue[0].Reason, "since 12:00")
}

func TestScore_FlaggedAlertFloorsAndCap(t *testing.T) {
	rs := NewRiskScorer(DefaultRules())

	a := rs.Score(nil, nil, entities.OmissionReport{}, []entities.Alert{
		{AlertType: "deteriorating", Severity: entities.SeverityCritical, Source: entities.AlertSourceExtractionFlag},
	}, entities.PriorContext{})
	assert.Equal(t, 70, a.RiskScore)
	assert.Equal(t, entities.SeverityCritical, a.OverallRisk)

	a = rs.Score(nil, nil, entities.OmissionReport{}, []entities.Alert{
		{AlertType: "mild", Severity: entities.SeverityLow, Source: entities.AlertSourceExtractionFlag},
	}, entities.PriorContext{})
	assert.Zero(t, a.RiskScore)
	assert.Len(t, a.Alerts, 1)

	facts := []entities.ExtractedFact{vital("SpO2", "80%"), vital("BP", "80/50"), vital("HR", "140"), vital("RR", "32"), vital("Temp", "39.5")}
	omissions := entities.OmissionReport{Items: []entities.Omission{{Category: "a", SafetyCritical: true}, {Category: "b", SafetyCritical: true}}}
	a = rs.Score(facts, nil, omissions, nil, entities.PriorContext{})
	assert.Equal(t, 100, a.RiskScore)
}

func TestScore_AlertsOrderedBySeverity(t *testing.T) {
	rs := NewRiskScorer(DefaultRules())
	a := rs.Score([]entities.ExtractedFact{vital("HR", "130"), vital("SpO2", "85%")}, nil, entities.OmissionReport{}, nil, entities.PriorContext{})

	require.Len(t, a.Alerts, 3)
	for i := 1; i < len(a.Alerts); i++ {
		assert.GreaterOrEqual(t, a.Alerts[i-1].Severity.Rank(), a.Alerts[i].Severity.Rank())
	}
	assert.Equal(t, "spo2_critical", a.Alerts[0].AlertType)
}

func TestScore_Trend(t *testing.T) {
	rs := NewRiskScorer(DefaultRules())
	facts := []entities.ExtractedFact{vital("SpO2", "91%")}

	tests := []struct {
		prior int
		want  entities.Trend
	}{
		{0, entities.TrendRising},
		{10, entities.TrendStable},
		{20, entities.TrendStable},
		{21, entities.TrendFalling},
	}
	for _, tt := range tests {
		a := rs.Score(facts, nil, entities.OmissionReport{}, nil, priorWithScore(tt.prior))
		assert.Equal(t, tt.want, a.Trend, "prior %d", tt.prior)
		require.NotNil(t, a.PriorScore)
		assert.Equal(t, tt.prior, *a.PriorScore)
	}

	a := rs.Score(facts, nil, entities.OmissionReport{}, nil, BuildContext(1, nil, 2))
	assert.Equal(t, entities.TrendUnknown, a.Trend)
	assert.Nil(t, a.PriorScore)
}

func TestHistoryTrend(t *testing.T) {
	rs := NewRiskScorer(DefaultRules())

	assert.Equal(t, entities.TrendUnknown, rs.HistoryTrend(nil))
	assert.Equal(t, entities.TrendUnknown, rs.HistoryTrend([]entities.HandoffSummary{{RiskScore: 40}}))
	assert.Equal(t, entities.TrendRising, rs.HistoryTrend([]entities.HandoffSummary{{RiskScore: 60}, {RiskScore: 40}}))
	assert.Equal(t, entities.TrendFalling, rs.HistoryTrend([]entities.HandoffSummary{{RiskScore: 20}, {RiskScore: 40}}))
	assert.Equal(t, entities.TrendStable, rs.HistoryTrend([]entities.HandoffSummary{{RiskScore: 43}, {RiskScore: 40}}))
}

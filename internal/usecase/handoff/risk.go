package handoff

import (
	"fmt"
	"sort"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

// RiskScorer combines vitals, omissions, schedule and model flags into a 0..max score
type RiskScorer struct {
	rules *Rules
}

// NewRiskScorer creates a scorer over the given rule tables
func NewRiskScorer(rules *Rules) *RiskScorer {
	return &RiskScorer{rules: rules}
}

// Score computes the assessment. Flagged alerts must already be validated and deduplicated.
func (rs *RiskScorer) Score(
	facts []entities.ExtractedFact,
	schedule []entities.DoseScheduleEntry,
	omissions entities.OmissionReport,
	flagged []entities.Alert,
	prior entities.PriorContext,
) entities.RiskAssessment {
	sc := rs.rules.Scoring
	score := 0
	alerts := make([]entities.Alert, 0)

	for _, f := range facts {
		if f.Kind != entities.FactKindVital || f.Vital == nil || f.Vital.Opaque || f.Vital.Value == nil {
			continue
		}
		value := *f.Vital.Value
		if f.Vital.Type == "Temp" {
			value = celsius(value, f.Vital.Unit)
		}
		for _, t := range rs.rules.VitalThresholds {
			if t.Vital != f.Vital.Type || !t.Matches(value) {
				continue
			}
			score += t.Weight
			alerts = append(alerts, entities.Alert{
				AlertType:      t.AlertType,
				Severity:       t.Severity,
				Reason:         fmt.Sprintf("%s (recorded %s)", t.Reason, f.Vital.Raw),
				Source:         entities.AlertSourceVitalThreshold,
				ActionRequired: actionOrDefault(t.Action),
			})
		}
	}

	for _, o := range omissions.Items {
		weight, sev := sc.OmissionWeight, entities.SeverityMedium
		if o.SafetyCritical {
			weight, sev = sc.SafetyCriticalOmissionWeight, entities.SeverityHigh
		}
		score += weight
		alerts = append(alerts, entities.Alert{
			AlertType:      o.Category,
			Severity:       sev,
			Reason:         o.ReasonExpected,
			Source:         entities.AlertSourceOmission,
			ActionRequired: fmt.Sprintf("Confirm: %s.", o.ExpectedItem),
		})
	}

	for _, e := range schedule {
		if !e.Overdue {
			continue
		}
		score += sc.OverdueWeight
		sev := entities.SeverityMedium
		if rs.rules.IsTimeCritical(e.MedicationName) {
			sev = entities.SeverityHigh
		}
		reason := fmt.Sprintf("%s %s dose overdue", e.MedicationName, e.FrequencyCode)
		if e.NextDueAt != nil {
			reason = fmt.Sprintf("%s since %s", reason, e.NextDueAt.Format("15:04"))
		}
		alerts = append(alerts, entities.Alert{
			AlertType:      "overdue_dose",
			Severity:       sev,
			Reason:         reason,
			Source:         entities.AlertSourceDoseSchedule,
			ActionRequired: fmt.Sprintf("Check whether %s was given and document it.", e.MedicationName),
		})
	}

	for _, a := range flagged {
		if floor, ok := sc.Floors[a.Severity]; ok && score < floor {
			score = floor
		}
		alerts = append(alerts, a)
	}

	if score > sc.MaxScore {
		score = sc.MaxScore
	}
	if score < 0 {
		score = 0
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() > alerts[j].Severity.Rank()
	})

	assessment := entities.RiskAssessment{
		OverallRisk: sc.Bands.Bucket(score),
		RiskScore:   score,
		Alerts:      alerts,
		Trend:       entities.TrendUnknown,
	}
	if prev, ok := prior.LatestScore(); ok {
		p := prev
		assessment.PriorScore = &p
		assessment.Trend = trend(score, prev, sc.TrendDelta)
	}
	return assessment
}

// HistoryTrend compares the two most recent digests of a most-recent-first list
func (rs *RiskScorer) HistoryTrend(history []entities.HandoffSummary) entities.Trend {
	if len(history) < 2 {
		return entities.TrendUnknown
	}
	return trend(history[0].RiskScore, history[1].RiskScore, rs.rules.Scoring.TrendDelta)
}

func trend(current, prior, delta int) entities.Trend {
	switch diff := current - prior; {
	case diff > delta:
		return entities.TrendRising
	case diff < -delta:
		return entities.TrendFalling
	}
	return entities.TrendStable
}

func actionOrDefault(action string) string {
	if action == "" {
		return entities.DefaultActionRequired
	}
	return action
}

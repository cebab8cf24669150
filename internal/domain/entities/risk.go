package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity is a totally ordered alert/risk level
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank orders severities LOW < MEDIUM < HIGH < CRITICAL. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// IsValid reports whether s is one of the four known levels
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// ParseSeverity normalizes a raw severity string
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown severity %q", raw)
	}
	return s, nil
}

// MaxSeverity returns the higher of a and b
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// AlertSource records which rule family produced an alert
type AlertSource string

const (
	AlertSourceVitalThreshold AlertSource = "vital_threshold"
	AlertSourceOmission       AlertSource = "omission"
	AlertSourceExtractionFlag AlertSource = "extraction_flag"
	AlertSourceDoseSchedule   AlertSource = "dose_schedule"
)

const DefaultActionRequired = "Monitor closely."

// Alert is a single risk signal
type Alert struct {
	AlertType      string      `json:"alert_type"`
	Severity       Severity    `json:"severity"`
	Reason         string      `json:"reason"`
	Source         AlertSource `json:"source"`
	ActionRequired string      `json:"action_required"`
}

// Trend compares the current score to the most recent prior score
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
	TrendUnknown Trend = "unknown"
)

// RiskAssessment is the output of risk scoring
type RiskAssessment struct {
	OverallRisk Severity `json:"overall_risk"`
	RiskScore   int      `json:"risk_score"`
	Alerts      []Alert  `json:"alerts"`
	Trend       Trend    `json:"trend"`
	PriorScore  *int     `json:"prior_score,omitempty"`
}

// Omission is an expected standard-of-care item missing from the handoff
type Omission struct {
	ExpectedItem   string `json:"expected_item"`
	Category       string `json:"category"`
	ReasonExpected string `json:"reason_expected"`
	SafetyCritical bool   `json:"safety_critical"`
}

type OmissionReport struct {
	Items []Omission `json:"items"`
}

// DoseScheduleEntry is the next-dose projection for one medication
type DoseScheduleEntry struct {
	MedicationName string        `json:"medication_name"`
	FrequencyCode  string        `json:"frequency_code"`
	NextDueAt      *time.Time    `json:"next_due_at"`
	BasisTime      time.Time     `json:"basis_time"`
	Interval       time.Duration `json:"-"`
	IntervalHours  float64       `json:"interval_hours,omitempty"`
	Inferred       bool          `json:"inferred"`
	Overdue        bool          `json:"overdue"`
	Note           string        `json:"note,omitempty"`
}

// MarshalJSON keeps next_due_at explicit even when unknown
func (e DoseScheduleEntry) MarshalJSON() ([]byte, error) {
	type alias DoseScheduleEntry
	a := alias(e)
	if e.Interval > 0 {
		a.IntervalHours = e.Interval.Hours()
	}
	return json.Marshal(a)
}

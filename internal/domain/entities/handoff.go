package entities

import (
	"strings"
	"time"
)

// Transcript is the immutable input to one analysis run
type Transcript struct {
	PatientID     int64     `json:"patient_id"`
	Text          string    `json:"text"`
	HandoffTime   time.Time `json:"handoff_time"`
	DiagnosisHint string    `json:"diagnosis_hint,omitempty"`
}

// IsBlank reports whether the transcript carries no text
func (t Transcript) IsBlank() bool {
	return strings.TrimSpace(t.Text) == ""
}

// HandoffSummary is the digest of a previous handoff used for context and trends
type HandoffSummary struct {
	HandoffID    int64     `json:"handoff_id,omitempty"`
	ShiftTime    time.Time `json:"shift_time"`
	OverallRisk  Severity  `json:"overall_risk"`
	RiskScore    int       `json:"risk_score"`
	ShortSummary string    `json:"short_summary"`
}

// ContextEntry is one rendered line of prior context
type ContextEntry struct {
	Summary HandoffSummary `json:"summary"`
	Line    string         `json:"line"`
}

// PriorContext holds the most recent handoffs, most recent first
type PriorContext struct {
	PatientID int64          `json:"patient_id"`
	Entries   []ContextEntry `json:"entries"`
	Digest    string         `json:"digest"`
	Empty     bool           `json:"empty"`
}

const NoPriorContextDigest = "No previous handoff data."

// LatestScore returns the score of the most recent prior handoff
func (p PriorContext) LatestScore() (int, bool) {
	if len(p.Entries) == 0 {
		return 0, false
	}
	return p.Entries[0].Summary.RiskScore, true
}

// Degraded reasons
const (
	DegradedNoPriorContext        = "no_prior_context"
	DegradedExtractionUnavailable = "extraction_unavailable"
	DegradedHistoryUnavailable    = "history_unavailable"
)

// DiagnosticKind classifies a non-fatal issue raised during a run
type DiagnosticKind string

const (
	DiagnosticValidation     DiagnosticKind = "validation"
	DiagnosticRuleEvaluation DiagnosticKind = "rule_evaluation"
)

// Diagnostic is a non-fatal validation or rule evaluation note
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Index  int            `json:"index"`
	Field  string         `json:"field,omitempty"`
	Reason string         `json:"reason"`
}

// HandoffAnalysisResult is the complete output of one pipeline run
type HandoffAnalysisResult struct {
	PatientID        int64               `json:"patient_id"`
	HandoffTime      time.Time           `json:"handoff_time"`
	Patient          PatientSnapshot     `json:"patient"`
	Extracted        []ExtractedFact     `json:"extracted"`
	Schedule         []DoseScheduleEntry `json:"schedule"`
	AsNeeded         []string            `json:"as_needed"`
	Risk             RiskAssessment      `json:"risk"`
	Omissions        OmissionReport      `json:"omissions"`
	Narrative        string              `json:"narrative"`
	Diagnostics      []Diagnostic        `json:"diagnostics"`
	ProcessingTimeMs int64               `json:"processing_time_ms"`
	Degraded         bool                `json:"degraded"`
	DegradedReasons  []string            `json:"degraded_reasons"`
}

// ShortSummary condenses a result into the one-liner stored for later context
func (r *HandoffAnalysisResult) ShortSummary() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	if r.Patient.ChiefComplaint != "" {
		parts = append(parts, r.Patient.ChiefComplaint)
	}
	if len(r.Risk.Alerts) > 0 {
		types := make([]string, 0, 3)
		for i, a := range r.Risk.Alerts {
			if i == 3 {
				break
			}
			types = append(types, a.AlertType)
		}
		parts = append(parts, "alerts: "+strings.Join(types, ", "))
	}
	if len(parts) == 0 {
		return "no significant findings"
	}
	return strings.Join(parts, "; ")
}

package handoff

import (
	"encoding/json"
	"time"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

// ProcessHandoffResponse is returned after an analysis run
type ProcessHandoffResponse struct {
	HandoffID   *int64                          `json:"handoff_id,omitempty"`
	Persisted   bool                            `json:"persisted"`
	ArchiveKey  *string                         `json:"archive_key,omitempty"`
	PatientName string                          `json:"patient_name"`
	RiskLevel   string                          `json:"risk_level"`
	RiskScore   int                             `json:"risk_score"`
	TopAlerts   []string                        `json:"top_alerts"`
	Narrative   string                          `json:"narrative"`
	Degraded    bool                            `json:"degraded"`
	Analysis    *entities.HandoffAnalysisResult `json:"full_analysis"`
}

// QuickRiskResponse is the unpersisted risk view of a transcript
type QuickRiskResponse struct {
	RiskLevel string              `json:"risk_level"`
	RiskScore int                 `json:"risk_score"`
	Trend     string              `json:"trend"`
	Alerts    []entities.Alert    `json:"alerts"`
	Omissions []entities.Omission `json:"omissions"`
	Degraded  bool                `json:"degraded"`
	Reasons   []string            `json:"degraded_reasons"`
}

// HandoffResponse is a stored handoff
type HandoffResponse struct {
	ID           int64           `json:"id"`
	PatientID    int64           `json:"patient_id"`
	ShiftTime    time.Time       `json:"shift_time"`
	OverallRisk  string          `json:"overall_risk"`
	RiskScore    int             `json:"risk_score"`
	ShortSummary string          `json:"short_summary"`
	Degraded     bool            `json:"degraded"`
	Transcript   string          `json:"raw_transcript"`
	Analysis     json.RawMessage `json:"analysis,omitempty"`
	ArchiveKey   *string         `json:"archive_key,omitempty"`
	ProcessedAt  time.Time       `json:"processed_at"`
}

// HandoffSummaryResponse is one timeline entry
type HandoffSummaryResponse struct {
	HandoffID    int64     `json:"handoff_id"`
	ShiftTime    time.Time `json:"shift_time"`
	OverallRisk  string    `json:"overall_risk"`
	RiskScore    int       `json:"risk_score"`
	ShortSummary string    `json:"short_summary"`
}

// RiskTrendPoint is one point of the risk chart, oldest first
type RiskTrendPoint struct {
	ShiftTime   time.Time `json:"shift_time"`
	RiskScore   int       `json:"risk_score"`
	OverallRisk string    `json:"overall_risk"`
}

// RiskTrendResponse is the chart series for a patient
type RiskTrendResponse struct {
	PatientID int64            `json:"patient_id"`
	Points    []RiskTrendPoint `json:"points"`
	Trend     string           `json:"trend"`
}

// WebhookAcceptedResponse acknowledges a queued transcript
type WebhookAcceptedResponse struct {
	Status    string `json:"status"`
	PatientID int64  `json:"patient_id"`
}

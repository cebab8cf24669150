package presenter

import (
	"encoding/json"

	handoffdto "github.com/johnquangdev/handoff-assistant/internal/adapter/dto/handoff"
	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	"github.com/johnquangdev/handoff-assistant/internal/usecase/handoff"
)

const maxTopAlerts = 3

// ToProcessHandoffResponse converts a processing outcome to its response DTO
func ToProcessHandoffResponse(outcome *handoff.ProcessOutcome) *handoffdto.ProcessHandoffResponse {
	if outcome == nil || outcome.Result == nil {
		return nil
	}
	r := outcome.Result

	resp := &handoffdto.ProcessHandoffResponse{
		Persisted:   outcome.Persisted,
		ArchiveKey:  outcome.ArchiveKey,
		PatientName: r.Patient.Name,
		RiskLevel:   string(r.Risk.OverallRisk),
		RiskScore:   r.Risk.RiskScore,
		TopAlerts:   topAlerts(r.Risk.Alerts),
		Narrative:   r.Narrative,
		Degraded:    r.Degraded,
		Analysis:    r,
	}
	if outcome.Persisted {
		id := outcome.HandoffID
		resp.HandoffID = &id
	}
	return resp
}

// ToQuickRiskResponse converts an unpersisted result to the risk view
func ToQuickRiskResponse(r *entities.HandoffAnalysisResult) *handoffdto.QuickRiskResponse {
	if r == nil {
		return nil
	}
	return &handoffdto.QuickRiskResponse{
		RiskLevel: string(r.Risk.OverallRisk),
		RiskScore: r.Risk.RiskScore,
		Trend:     string(r.Risk.Trend),
		Alerts:    r.Risk.Alerts,
		Omissions: r.Omissions.Items,
		Degraded:  r.Degraded,
		Reasons:   r.DegradedReasons,
	}
}

// ToHandoffResponse converts a stored handoff to its response DTO
func ToHandoffResponse(h *entities.Handoff) *handoffdto.HandoffResponse {
	if h == nil {
		return nil
	}
	resp := &handoffdto.HandoffResponse{
		ID:           h.ID,
		PatientID:    h.PatientID,
		ShiftTime:    h.ShiftTime,
		OverallRisk:  string(h.OverallRisk),
		RiskScore:    h.RiskScore,
		ShortSummary: h.ShortSummary,
		Degraded:     h.Degraded,
		Transcript:   h.RawTranscript,
		ArchiveKey:   h.ArchiveKey,
		ProcessedAt:  h.ProcessedAt,
	}
	if len(h.Analysis) > 0 && json.Valid(h.Analysis) {
		resp.Analysis = json.RawMessage(h.Analysis)
	}
	return resp
}

// ToHandoffSummaryList converts timeline digests
func ToHandoffSummaryList(history []entities.HandoffSummary) []handoffdto.HandoffSummaryResponse {
	out := make([]handoffdto.HandoffSummaryResponse, 0, len(history))
	for _, s := range history {
		out = append(out, handoffdto.HandoffSummaryResponse{
			HandoffID:    s.HandoffID,
			ShiftTime:    s.ShiftTime,
			OverallRisk:  string(s.OverallRisk),
			RiskScore:    s.RiskScore,
			ShortSummary: s.ShortSummary,
		})
	}
	return out
}

// ToRiskTrendResponse converts the chart series
func ToRiskTrendResponse(v *handoff.RiskTrendView) *handoffdto.RiskTrendResponse {
	if v == nil {
		return nil
	}
	points := make([]handoffdto.RiskTrendPoint, 0, len(v.Points))
	for _, p := range v.Points {
		points = append(points, handoffdto.RiskTrendPoint{
			ShiftTime:   p.ShiftTime,
			RiskScore:   p.RiskScore,
			OverallRisk: string(p.OverallRisk),
		})
	}
	return &handoffdto.RiskTrendResponse{
		PatientID: v.PatientID,
		Points:    points,
		Trend:     string(v.Trend),
	}
}

func topAlerts(alerts []entities.Alert) []string {
	out := make([]string, 0, maxTopAlerts)
	for _, a := range alerts {
		if len(out) == maxTopAlerts {
			break
		}
		out = append(out, a.AlertType)
	}
	return out
}

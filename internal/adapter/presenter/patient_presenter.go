package presenter

import (
	patientdto "github.com/johnquangdev/handoff-assistant/internal/adapter/dto/patient"
	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

// ToPatientResponse converts a Patient entity to PatientResponse DTO
func ToPatientResponse(p *entities.Patient) *patientdto.PatientResponse {
	if p == nil {
		return nil
	}
	return &patientdto.PatientResponse{
		ID:              p.ID,
		Name:            p.Name,
		BedNumber:       p.BedNumber,
		Age:             p.Age,
		AdmissionReason: p.AdmissionReason,
		Status:          string(p.Status),
		CreatedAt:       p.CreatedAt,
	}
}

// ToActiveRiskList converts open risks
func ToActiveRiskList(risks []entities.ActiveRisk) []patientdto.ActiveRiskResponse {
	out := make([]patientdto.ActiveRiskResponse, 0, len(risks))
	for _, r := range risks {
		out = append(out, patientdto.ActiveRiskResponse{
			ID:         r.ID,
			HandoffID:  r.HandoffID,
			RiskType:   r.RiskType,
			Severity:   string(r.Severity),
			Reason:     r.Reason,
			DetectedAt: r.DetectedAt,
		})
	}
	return out
}

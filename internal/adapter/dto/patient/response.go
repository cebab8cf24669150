package patient

import "time"

// PatientResponse represents a registered patient
type PatientResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	BedNumber       string    `json:"bed_number"`
	Age             *int      `json:"age,omitempty"`
	AdmissionReason string    `json:"admission_reason"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// ActiveRiskResponse is an open risk for a patient
type ActiveRiskResponse struct {
	ID         int64     `json:"id"`
	HandoffID  int64     `json:"handoff_id"`
	RiskType   string    `json:"risk_type"`
	Severity   string    `json:"severity"`
	Reason     string    `json:"reason"`
	DetectedAt time.Time `json:"detected_at"`
}

package handoff

// ProcessHandoffRequest represents a transcript submitted for analysis
type ProcessHandoffRequest struct {
	PatientID     int64  `json:"patient_id" validate:"required,gt=0"`
	Transcript    string `json:"transcript" validate:"max=100000"`
	HandoffTime   string `json:"handoff_time,omitempty" validate:"max=64"` // RFC3339 or a clock time such as "07:00 AM"
	DiagnosisHint string `json:"diagnosis_hint,omitempty" validate:"max=500"`
}

// TranscriptWebhookRequest is the body delivered by the transcription collaborator
type TranscriptWebhookRequest struct {
	PatientID     int64  `json:"patient_id" validate:"required,gt=0"`
	Transcript    string `json:"transcript" validate:"max=100000"`
	HandoffTime   string `json:"handoff_time,omitempty" validate:"max=64"`
	DiagnosisHint string `json:"diagnosis_hint,omitempty" validate:"max=500"`
}

// ListHandoffsRequest holds query parameters for the timeline
type ListHandoffsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

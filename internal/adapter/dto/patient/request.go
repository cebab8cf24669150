package patient

// CreatePatientRequest represents the request to register a patient
type CreatePatientRequest struct {
	Name            string `json:"name" validate:"required,notblank,max=255"`
	BedNumber       string `json:"bed_number,omitempty" validate:"max=50"`
	Age             *int   `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
	AdmissionReason string `json:"admission_reason,omitempty" validate:"max=2000"`
}

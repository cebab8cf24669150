package entities

import (
	"strings"
	"time"
)

// FactKind discriminates the ExtractedFact variant
type FactKind string

const (
	FactKindMedication FactKind = "medication"
	FactKindVital      FactKind = "vital"
	FactKindAllergy    FactKind = "allergy"
	FactKindEvent      FactKind = "event"
	FactKindNote       FactKind = "note"
)

// ParseFactKind maps a raw kind string onto a known FactKind
func ParseFactKind(s string) (FactKind, bool) {
	switch FactKind(strings.ToLower(strings.TrimSpace(s))) {
	case FactKindMedication, "med", "medications", "drug":
		return FactKindMedication, true
	case FactKindVital, "vitals", "vital_sign":
		return FactKindVital, true
	case FactKindAllergy, "allergies":
		return FactKindAllergy, true
	case FactKindEvent, "events":
		return FactKindEvent, true
	case FactKindNote, "notes", "pending_task", "task", "symptom":
		return FactKindNote, true
	}
	return "", false
}

const (
	RouteUnspecified = "unspecified"
	DoseUnspecified  = "not specified"
)

// ExtractedFact is a validated clinical fact. Exactly one payload matching Kind is set.
type ExtractedFact struct {
	Kind       FactKind        `json:"kind"`
	Medication *MedicationFact `json:"medication,omitempty"`
	Vital      *VitalFact      `json:"vital,omitempty"`
	Allergy    *AllergyFact    `json:"allergy,omitempty"`
	Event      *EventFact      `json:"event,omitempty"`
	Note       *NoteFact       `json:"note,omitempty"`
}

// MedicationFact describes a medication mentioned in the handoff
type MedicationFact struct {
	Name              string     `json:"name"`
	Dose              string     `json:"dose"`
	Route             string     `json:"route"`
	FrequencyCode     string     `json:"frequency_code,omitempty"`
	AdministeredAtRaw string     `json:"administered_at_raw,omitempty"`
	AdministeredAt    *time.Time `json:"administered_at,omitempty"`
	Reason            string     `json:"reason,omitempty"`
}

// VitalFact holds a vital sign. Value is nil and Opaque is set when Raw could not be parsed.
type VitalFact struct {
	Type      string   `json:"type"`
	Raw       string   `json:"raw"`
	Value     *float64 `json:"value,omitempty"`
	Secondary *float64 `json:"secondary,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	Opaque    bool     `json:"opaque"`
	Trend     string   `json:"trend,omitempty"`
}

type AllergyFact struct {
	Substance string `json:"substance"`
	Reaction  string `json:"reaction,omitempty"`
}

type EventFact struct {
	Description string `json:"description"`
	Time        string `json:"time,omitempty"`
}

type NoteFact struct {
	Text string `json:"text"`
}

// Text flattens the fact payload into lowercase searchable text
func (f ExtractedFact) Text() string {
	var parts []string
	switch f.Kind {
	case FactKindMedication:
		if f.Medication != nil {
			parts = append(parts, f.Medication.Name, f.Medication.Dose, f.Medication.Reason)
		}
	case FactKindVital:
		if f.Vital != nil {
			parts = append(parts, f.Vital.Type, f.Vital.Raw)
		}
	case FactKindAllergy:
		if f.Allergy != nil {
			parts = append(parts, "allergy", f.Allergy.Substance, f.Allergy.Reaction)
		}
	case FactKindEvent:
		if f.Event != nil {
			parts = append(parts, f.Event.Description)
		}
	case FactKindNote:
		if f.Note != nil {
			parts = append(parts, f.Note.Text)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// PatientSnapshot identifies the patient in a rendered result
type PatientSnapshot struct {
	Name           string `json:"name"`
	Bed            string `json:"bed"`
	Age            *int   `json:"age,omitempty"`
	ChiefComplaint string `json:"chief_complaint,omitempty"`
}

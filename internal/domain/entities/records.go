package entities

import (
	"time"

	"gorm.io/datatypes"
)

// PatientStatus represents the admission status of a patient
type PatientStatus string

const (
	PatientStatusAdmitted   PatientStatus = "admitted"
	PatientStatusDischarged PatientStatus = "discharged"
)

// Patient is the registry record a handoff is attached to
type Patient struct {
	ID              int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string        `gorm:"type:varchar(255);not null" json:"name"`
	BedNumber       string        `gorm:"type:varchar(50)" json:"bed_number"`
	Age             *int          `json:"age,omitempty"`
	AdmissionReason string        `gorm:"type:text" json:"admission_reason"`
	Status          PatientStatus `gorm:"type:varchar(20);not null;default:'admitted';index" json:"status"`
	CreatedAt       time.Time     `gorm:"default:now()" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for Patient
func (Patient) TableName() string {
	return "patients"
}

// Snapshot converts the registry record into the result's patient header
func (p *Patient) Snapshot() PatientSnapshot {
	if p == nil {
		return PatientSnapshot{Name: "Unknown", Bed: "Not stated"}
	}
	return PatientSnapshot{
		Name:           p.Name,
		Bed:            p.BedNumber,
		Age:            p.Age,
		ChiefComplaint: p.AdmissionReason,
	}
}

// Handoff is an append-only record of one analyzed shift handoff
type Handoff struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID     int64          `gorm:"not null;index" json:"patient_id"`
	ShiftTime     time.Time      `gorm:"not null;index" json:"shift_time"`
	RawTranscript string         `gorm:"type:text;not null" json:"raw_transcript"`
	OverallRisk   Severity       `gorm:"type:varchar(10);not null" json:"overall_risk"`
	RiskScore     int            `gorm:"not null" json:"risk_score"`
	ShortSummary  string         `gorm:"type:text" json:"short_summary"`
	Degraded      bool           `gorm:"not null;default:false" json:"degraded"`
	Analysis      datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"analysis"`
	ArchiveKey    *string        `gorm:"type:varchar(512)" json:"archive_key,omitempty"`
	ProcessedAt   time.Time      `gorm:"default:now()" json:"processed_at"`
}

// TableName specifies the table name for Handoff
func (Handoff) TableName() string {
	return "handoffs"
}

// Summary converts the stored record into a context digest
func (h *Handoff) Summary() HandoffSummary {
	return HandoffSummary{
		HandoffID:    h.ID,
		ShiftTime:    h.ShiftTime,
		OverallRisk:  h.OverallRisk,
		RiskScore:    h.RiskScore,
		ShortSummary: h.ShortSummary,
	}
}

// MedicationHistory is a denormalized row per medication fact
type MedicationHistory struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID int64     `gorm:"not null;index" json:"patient_id"`
	HandoffID int64     `gorm:"not null;index" json:"handoff_id"`
	MedName   string    `gorm:"type:varchar(255);not null" json:"med_name"`
	Dose      string    `gorm:"type:varchar(100)" json:"dose"`
	Route     string    `gorm:"type:varchar(50)" json:"route"`
	Frequency string    `gorm:"type:varchar(20)" json:"frequency"`
	TimeGiven string    `gorm:"type:varchar(50)" json:"time_given"`
	ShiftDate time.Time `gorm:"not null" json:"shift_date"`
}

func (MedicationHistory) TableName() string {
	return "medication_history"
}

// VitalsHistory is a denormalized row per vital fact
type VitalsHistory struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID  int64     `gorm:"not null;index" json:"patient_id"`
	HandoffID  int64     `gorm:"not null;index" json:"handoff_id"`
	VitalType  string    `gorm:"type:varchar(50);not null" json:"vital_type"`
	Value      string    `gorm:"type:varchar(50)" json:"value"`
	Trend      string    `gorm:"type:varchar(20)" json:"trend"`
	RecordedAt time.Time `gorm:"not null" json:"recorded_at"`
}

func (VitalsHistory) TableName() string {
	return "vitals_history"
}

// ActiveRiskStatus tracks whether a risk is still open
type ActiveRiskStatus string

const (
	ActiveRiskStatusActive   ActiveRiskStatus = "active"
	ActiveRiskStatusResolved ActiveRiskStatus = "resolved"
)

// ActiveRisk is an open alert carried until the next handoff supersedes it
type ActiveRisk struct {
	ID         int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID  int64            `gorm:"not null;index" json:"patient_id"`
	HandoffID  int64            `gorm:"not null" json:"handoff_id"`
	RiskType   string           `gorm:"type:varchar(100);not null" json:"risk_type"`
	Severity   Severity         `gorm:"type:varchar(10);not null" json:"severity"`
	Reason     string           `gorm:"type:text" json:"reason"`
	Status     ActiveRiskStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	DetectedAt time.Time        `gorm:"not null" json:"detected_at"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
}

func (ActiveRisk) TableName() string {
	return "active_risks"
}

package repository

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	"github.com/johnquangdev/handoff-assistant/internal/domain/repositories"
)

// handoffRepository implements the HandoffRepository interface
type handoffRepository struct {
	db *gorm.DB
}

// NewHandoffRepository creates a new handoff repository
func NewHandoffRepository(db *gorm.DB) repositories.HandoffRepository {
	return &handoffRepository{db: db}
}

// ListRecentSummaries retrieves the latest handoff digests for a patient
func (r *handoffRepository) ListRecentSummaries(ctx context.Context, patientID int64, limit int) ([]entities.HandoffSummary, error) {
	var rows []entities.Handoff
	err := r.db.WithContext(ctx).
		Select("id", "patient_id", "shift_time", "overall_risk", "risk_score", "short_summary").
		Where("patient_id = ?", patientID).
		Order("shift_time DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]entities.HandoffSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, rows[i].Summary())
	}
	return summaries, nil
}

// SaveAnalysis appends a handoff, its medication and vital rows, and replaces
// the patient's active risks, all in one transaction
func (r *handoffRepository) SaveAnalysis(ctx context.Context, record repositories.HandoffRecord) (*entities.Handoff, error) {
	result := record.Result
	if result == nil {
		return nil, fmt.Errorf("analysis result is required")
	}

	analysis, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}

	handoff := &entities.Handoff{
		PatientID:     record.Transcript.PatientID,
		ShiftTime:     record.Transcript.HandoffTime,
		RawTranscript: record.Transcript.Text,
		OverallRisk:   result.Risk.OverallRisk,
		RiskScore:     result.Risk.RiskScore,
		ShortSummary:  result.ShortSummary(),
		Degraded:      result.Degraded,
		Analysis:      datatypes.JSON(analysis),
		ArchiveKey:    record.ArchiveKey,
		ProcessedAt:   time.Now(),
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(handoff).Error; err != nil {
			return fmt.Errorf("failed to insert handoff: %w", err)
		}

		meds, vitals := historyRows(handoff, result.Extracted)
		if len(meds) > 0 {
			if err := tx.Create(&meds).Error; err != nil {
				return fmt.Errorf("failed to insert medication history: %w", err)
			}
		}
		if len(vitals) > 0 {
			if err := tx.Create(&vitals).Error; err != nil {
				return fmt.Errorf("failed to insert vitals history: %w", err)
			}
		}

		resolvedAt := handoff.ShiftTime
		if err := tx.Model(&entities.ActiveRisk{}).
			Where("patient_id = ? AND status = ?", handoff.PatientID, entities.ActiveRiskStatusActive).
			Updates(map[string]interface{}{
				"status":      entities.ActiveRiskStatusResolved,
				"resolved_at": resolvedAt,
			}).Error; err != nil {
			return fmt.Errorf("failed to resolve previous risks: %w", err)
		}

		risks := activeRiskRows(handoff, result.Risk.Alerts)
		if len(risks) > 0 {
			if err := tx.Create(&risks).Error; err != nil {
				return fmt.Errorf("failed to insert active risks: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return handoff, nil
}

// FindByID retrieves a stored handoff
func (r *handoffRepository) FindByID(ctx context.Context, id int64) (*entities.Handoff, error) {
	var handoff entities.Handoff
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&handoff).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrHandoffNotFound
		}
		return nil, err
	}
	return &handoff, nil
}

// ListActiveRisks returns open risks ordered by detection time
func (r *handoffRepository) ListActiveRisks(ctx context.Context, patientID int64) ([]entities.ActiveRisk, error) {
	var risks []entities.ActiveRisk
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND status = ?", patientID, entities.ActiveRiskStatusActive).
		Order("detected_at DESC, id ASC").
		Find(&risks).Error
	if err != nil {
		return nil, err
	}
	return risks, nil
}

func historyRows(h *entities.Handoff, facts []entities.ExtractedFact) ([]entities.MedicationHistory, []entities.VitalsHistory) {
	meds := make([]entities.MedicationHistory, 0)
	vitals := make([]entities.VitalsHistory, 0)
	for _, f := range facts {
		switch {
		case f.Kind == entities.FactKindMedication && f.Medication != nil:
			meds = append(meds, entities.MedicationHistory{
				PatientID: h.PatientID,
				HandoffID: h.ID,
				MedName:   f.Medication.Name,
				Dose:      f.Medication.Dose,
				Route:     f.Medication.Route,
				Frequency: f.Medication.FrequencyCode,
				TimeGiven: f.Medication.AdministeredAtRaw,
				ShiftDate: h.ShiftTime,
			})
		case f.Kind == entities.FactKindVital && f.Vital != nil:
			vitals = append(vitals, entities.VitalsHistory{
				PatientID:  h.PatientID,
				HandoffID:  h.ID,
				VitalType:  f.Vital.Type,
				Value:      f.Vital.Raw,
				Trend:      f.Vital.Trend,
				RecordedAt: h.ShiftTime,
			})
		}
	}
	return meds, vitals
}

func activeRiskRows(h *entities.Handoff, alerts []entities.Alert) []entities.ActiveRisk {
	risks := make([]entities.ActiveRisk, 0, len(alerts))
	for _, a := range alerts {
		risks = append(risks, entities.ActiveRisk{
			PatientID:  h.PatientID,
			HandoffID:  h.ID,
			RiskType:   a.AlertType,
			Severity:   a.Severity,
			Reason:     a.Reason,
			Status:     entities.ActiveRiskStatusActive,
			DetectedAt: h.ShiftTime,
		})
	}
	return risks
}

package repository

import (
	"context"
	stdErrors "errors"

	"gorm.io/gorm"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	"github.com/johnquangdev/handoff-assistant/internal/domain/repositories"
)

// patientRepository implements the PatientRepository interface
type patientRepository struct {
	db *gorm.DB
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *gorm.DB) repositories.PatientRepository {
	return &patientRepository{db: db}
}

// Create registers a new patient
func (r *patientRepository) Create(ctx context.Context, patient *entities.Patient) error {
	return r.db.WithContext(ctx).Create(patient).Error
}

// FindByID retrieves a patient by its ID
func (r *patientRepository) FindByID(ctx context.Context, id int64) (*entities.Patient, error) {
	var patient entities.Patient
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&patient).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrPatientNotFound
		}
		return nil, err
	}
	return &patient, nil
}

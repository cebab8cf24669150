package repositories

import (
	"context"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

// HandoffRecord bundles everything persisted for one analysis run
type HandoffRecord struct {
	Transcript entities.Transcript
	Result     *entities.HandoffAnalysisResult
	ArchiveKey *string
}

// HandoffRepository defines the interface for handoff history access
type HandoffRepository interface {
	// ListRecentSummaries returns up to limit digests for a patient, most recent first
	ListRecentSummaries(ctx context.Context, patientID int64, limit int) ([]entities.HandoffSummary, error)

	// SaveAnalysis appends the handoff and its denormalized rows in one transaction
	SaveAnalysis(ctx context.Context, record HandoffRecord) (*entities.Handoff, error)

	// FindByID retrieves a stored handoff
	FindByID(ctx context.Context, id int64) (*entities.Handoff, error)

	// ListActiveRisks returns the currently open risks for a patient
	ListActiveRisks(ctx context.Context, patientID int64) ([]entities.ActiveRisk, error)
}

// PatientRepository defines the interface for the patient registry
type PatientRepository interface {
	Create(ctx context.Context, patient *entities.Patient) error
	FindByID(ctx context.Context, id int64) (*entities.Patient, error)
}

// HistoryCache caches recent handoff digests per patient
type HistoryCache interface {
	Get(ctx context.Context, patientID int64, limit int) (summaries []entities.HandoffSummary, version string, ok bool)
	Set(ctx context.Context, patientID int64, version string, limit int, summaries []entities.HandoffSummary)
	Invalidate(ctx context.Context, patientID int64)
}

// ArchiveStore keeps raw transcripts and results as objects
type ArchiveStore interface {
	Archive(ctx context.Context, patientID int64, transcript string, result []byte) (string, error)
}

package repository

import (
	"context"
	stdErrors "errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	"github.com/johnquangdev/handoff-assistant/internal/domain/repositories"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestPatientRepository_FindByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "patients" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "bed_number", "admission_reason", "status"}).
			AddRow(1, "Ramesh Sharma", "12", "Pneumonia", "admitted"))

	p, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ramesh Sharma", p.Name)
	assert.Equal(t, entities.PatientStatusAdmitted, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRepository_FindByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "patients" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, entities.ErrPatientNotFound)
}

func TestPatientRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "patients"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	p := &entities.Patient{Name: "Ramesh Sharma", BedNumber: "12", Status: entities.PatientStatusAdmitted}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, int64(7), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandoffRepository_ListRecentSummaries(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewHandoffRepository(db)

	evening := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	morning := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM "handoffs" WHERE patient_id = \$1 ORDER BY shift_time DESC, id DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "shift_time", "overall_risk", "risk_score", "short_summary"}).
			AddRow(4, 1, evening, "HIGH", 65, "Pneumonia, Risk: HIGH").
			AddRow(3, 1, morning, "MEDIUM", 40, "Pneumonia, Risk: MEDIUM"))

	got, err := repo.ListRecentSummaries(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0].HandoffID)
	assert.Equal(t, entities.SeverityHigh, got[0].OverallRisk)
	assert.Equal(t, 40, got[1].RiskScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandoffRepository_FindByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewHandoffRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "handoffs" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), 5)
	assert.ErrorIs(t, err, entities.ErrHandoffNotFound)
}

func TestHandoffRepository_SaveAnalysisRequiresResult(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewHandoffRepository(db)

	_, err := repo.SaveAnalysis(context.Background(), repositories.HandoffRecord{})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandoffRepository_SaveAnalysisRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewHandoffRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "handoffs"`)).
		WillReturnError(stdErrors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.SaveAnalysis(context.Background(), repositories.HandoffRecord{
		Transcript: entities.Transcript{PatientID: 1, Text: "SpO2 88", HandoffTime: time.Now()},
		Result:     &entities.HandoffAnalysisResult{Risk: entities.RiskAssessment{OverallRisk: entities.SeverityHigh, RiskScore: 65}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert handoff")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRows(t *testing.T) {
	shift := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	h := &entities.Handoff{ID: 4, PatientID: 1, ShiftTime: shift}
	facts := []entities.ExtractedFact{
		{Kind: entities.FactKindMedication, Medication: &entities.MedicationFact{
			Name: "Ceftriaxone", Dose: "1g", Route: "IV", FrequencyCode: "BD", AdministeredAtRaw: "07:00",
		}},
		{Kind: entities.FactKindVital, Vital: &entities.VitalFact{Type: "SpO2", Raw: "88%", Trend: "dropping"}},
		{Kind: entities.FactKindNote},
		{Kind: entities.FactKindMedication},
	}

	meds, vitals := historyRows(h, facts)

	require.Len(t, meds, 1)
	assert.Equal(t, "Ceftriaxone", meds[0].MedName)
	assert.Equal(t, "07:00", meds[0].TimeGiven)
	assert.Equal(t, int64(4), meds[0].HandoffID)
	assert.True(t, meds[0].ShiftDate.Equal(shift))

	require.Len(t, vitals, 1)
	assert.Equal(t, "88%", vitals[0].Value)
	assert.Equal(t, "dropping", vitals[0].Trend)
}

func TestActiveRiskRows(t *testing.T) {
	shift := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	h := &entities.Handoff{ID: 4, PatientID: 1, ShiftTime: shift}

	risks := activeRiskRows(h, []entities.Alert{
		{AlertType: "critical_hypoxia", Severity: entities.SeverityCritical, Reason: "SpO2 88%"},
	})

	require.Len(t, risks, 1)
	assert.Equal(t, "critical_hypoxia", risks[0].RiskType)
	assert.Equal(t, entities.ActiveRiskStatusActive, risks[0].Status)
	assert.True(t, risks[0].DetectedAt.Equal(shift))
}

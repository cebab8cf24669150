package handoff

import (
	"context"
	stdErrors "errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	"github.com/johnquangdev/handoff-assistant/internal/domain/repositories"
	pkgai "github.com/johnquangdev/handoff-assistant/pkg/ai"
)

type fakeHandoffRepo struct {
	mu        sync.Mutex
	history   []entities.HandoffSummary
	listErr   error
	saveErr   error
	saved     []repositories.HandoffRecord
	listCalls int
	nextID    int64
	onList    func()
}

func (f *fakeHandoffRepo) ListRecentSummaries(_ context.Context, _ int64, limit int) ([]entities.HandoffSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.onList != nil {
		f.onList()
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.history) > limit {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeHandoffRepo) SaveAnalysis(_ context.Context, record repositories.HandoffRecord) (*entities.Handoff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.nextID++
	f.saved = append(f.saved, record)
	return &entities.Handoff{ID: f.nextID, PatientID: record.Transcript.PatientID}, nil
}

func (f *fakeHandoffRepo) FindByID(_ context.Context, id int64) (*entities.Handoff, error) {
	return nil, entities.ErrHandoffNotFound
}

func (f *fakeHandoffRepo) ListActiveRisks(_ context.Context, patientID int64) ([]entities.ActiveRisk, error) {
	return []entities.ActiveRisk{{PatientID: patientID, RiskType: "spo2_low"}}, nil
}

func (f *fakeHandoffRepo) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakePatientRepo struct {
	patients map[int64]*entities.Patient
	findErr  error
}

func (f *fakePatientRepo) Create(_ context.Context, p *entities.Patient) error {
	p.ID = int64(len(f.patients) + 1)
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) FindByID(_ context.Context, id int64) (*entities.Patient, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.patients[id]
	if !ok {
		return nil, entities.ErrPatientNotFound
	}
	return p, nil
}

type fakeCache struct {
	entries     map[int64][]entities.HandoffSummary
	versions    map[int64]int
	invalidated []int64
}

func (f *fakeCache) Get(_ context.Context, patientID int64, _ int) ([]entities.HandoffSummary, string, bool) {
	s, ok := f.entries[patientID]
	return s, strconv.Itoa(f.versions[patientID]), ok
}

func (f *fakeCache) Set(_ context.Context, patientID int64, version string, _ int, summaries []entities.HandoffSummary) {
	if version != strconv.Itoa(f.versions[patientID]) {
		return
	}
	f.entries[patientID] = summaries
}

func (f *fakeCache) Invalidate(_ context.Context, patientID int64) {
	delete(f.entries, patientID)
	f.versions[patientID]++
	f.invalidated = append(f.invalidated, patientID)
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Archive(ctx context.Context, patientID int64, transcript string, result []byte) (string, error) {
	args := m.Called(ctx, patientID, transcript, result)
	return args.String(0), args.Error(1)
}

type serviceFixture struct {
	handoffs *fakeHandoffRepo
	patients *fakePatientRepo
	cache    *fakeCache
	svc      Service
}

func newServiceFixture(t *testing.T, archive repositories.ArchiveStore, extractor Extractor) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		handoffs: &fakeHandoffRepo{history: []entities.HandoffSummary{
			{HandoffID: 1, ShiftTime: shiftTime(7, 0), OverallRisk: entities.SeverityMedium, RiskScore: 40, ShortSummary: "Pneumonia"},
		}},
		patients: &fakePatientRepo{patients: map[int64]*entities.Patient{
			7: {ID: 7, Name: "Ramesh Sharma", BedNumber: "12", Status: entities.PatientStatusAdmitted},
		}},
		cache: &fakeCache{entries: map[int64][]entities.HandoffSummary{}, versions: map[int64]int{}},
	}
	f.svc = NewService(f.handoffs, f.patients, f.cache, archive, extractor, NewPipeline(nil), 2, 4, zap.NewNop())
	return f
}

func pneumoniaTranscriptFor(patientID int64) entities.Transcript {
	return entities.Transcript{PatientID: patientID, Text: pneumoniaTranscript, HandoffTime: shiftTime(19, 0)}
}

func TestProcess_PersistsAndInvalidatesCache(t *testing.T) {
	archive := &mockArchive{}
	archive.On("Archive", mock.Anything, int64(7), pneumoniaTranscript, mock.Anything).Return("handoffs/7/2026/03/01/abc", nil).Once()
	f := newServiceFixture(t, archive, staticExtractor(pneumoniaExtraction))

	outcome, err := f.svc.Process(context.Background(), pneumoniaTranscriptFor(7))
	require.NoError(t, err)

	assert.True(t, outcome.Persisted)
	assert.Equal(t, int64(1), outcome.HandoffID)
	require.NotNil(t, outcome.ArchiveKey)
	assert.Equal(t, "handoffs/7/2026/03/01/abc", *outcome.ArchiveKey)
	assert.Equal(t, 65, outcome.Result.Risk.RiskScore)
	assert.Equal(t, entities.TrendRising, outcome.Result.Risk.Trend)
	assert.False(t, outcome.Result.Degraded)

	require.Len(t, f.handoffs.saved, 1)
	assert.Equal(t, outcome.ArchiveKey, f.handoffs.saved[0].ArchiveKey)
	assert.Equal(t, []int64{7}, f.cache.invalidated)
	archive.AssertExpectations(t)
}

func TestProcess_UsesCachedHistory(t *testing.T) {
	f := newServiceFixture(t, nil, staticExtractor(pneumoniaExtraction))
	f.cache.entries[7] = []entities.HandoffSummary{{ShiftTime: shiftTime(7, 0), RiskScore: 62, OverallRisk: entities.SeverityHigh}}

	result, err := f.svc.QuickRisk(context.Background(), pneumoniaTranscriptFor(7))
	require.NoError(t, err)

	assert.Equal(t, 0, f.handoffs.listCalls)
	require.NotNil(t, result.Risk.PriorScore)
	assert.Equal(t, 62, *result.Risk.PriorScore)
	assert.Equal(t, entities.TrendStable, result.Risk.Trend)
}

func TestQuickRisk_DoesNotPersist(t *testing.T) {
	f := newServiceFixture(t, nil, staticExtractor(pneumoniaExtraction))

	result, err := f.svc.QuickRisk(context.Background(), pneumoniaTranscriptFor(7))
	require.NoError(t, err)
	assert.Equal(t, entities.SeverityHigh, result.Risk.OverallRisk)
	assert.Empty(t, f.handoffs.saved)
	assert.Equal(t, 1, f.handoffs.listCalls)
	assert.Contains(t, f.cache.entries, int64(7))
}

func TestQuickRisk_SaveDuringHistoryLoadIsNotCached(t *testing.T) {
	f := newServiceFixture(t, nil, staticExtractor(pneumoniaExtraction))
	f.handoffs.onList = func() { f.cache.Invalidate(context.Background(), 7) }

	_, err := f.svc.QuickRisk(context.Background(), pneumoniaTranscriptFor(7))
	require.NoError(t, err)

	assert.Equal(t, 1, f.handoffs.listCalls)
	assert.NotContains(t, f.cache.entries, int64(7))
}

func TestProcess_PersistenceFailureStillReturnsResult(t *testing.T) {
	archive := &mockArchive{}
	archive.On("Archive", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", stdErrors.New("bucket missing"))
	f := newServiceFixture(t, archive, staticExtractor(pneumoniaExtraction))
	f.handoffs.saveErr = stdErrors.New("connection reset")

	outcome, err := f.svc.Process(context.Background(), pneumoniaTranscriptFor(7))
	require.NoError(t, err)

	assert.False(t, outcome.Persisted)
	assert.Zero(t, outcome.HandoffID)
	assert.Nil(t, outcome.ArchiveKey)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, 65, outcome.Result.Risk.RiskScore)
	assert.Empty(t, f.cache.invalidated)
}

func TestProcess_UnknownPatientIsInputError(t *testing.T) {
	f := newServiceFixture(t, nil, staticExtractor(pneumoniaExtraction))

	_, err := f.svc.Process(context.Background(), pneumoniaTranscriptFor(99))
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.ErrorIs(t, err, entities.ErrPatientNotFound)
	assert.Empty(t, f.handoffs.saved)
}

func TestProcess_EmptyTranscriptIsInputError(t *testing.T) {
	f := newServiceFixture(t, nil, staticExtractor(pneumoniaExtraction))
	tr := pneumoniaTranscriptFor(7)
	tr.Text = ""

	_, err := f.svc.Process(context.Background(), tr)
	assert.ErrorIs(t, err, entities.ErrEmptyTranscript)
}

func TestProcess_HistoryFailureDegrades(t *testing.T) {
	f := newServiceFixture(t, nil, staticExtractor(pneumoniaExtraction))
	f.handoffs.listErr = stdErrors.New("db down")

	outcome, err := f.svc.Process(context.Background(), pneumoniaTranscriptFor(7))
	require.NoError(t, err)
	assert.Contains(t, outcome.Result.DegradedReasons, entities.DegradedHistoryUnavailable)
	assert.Contains(t, outcome.Result.DegradedReasons, entities.DegradedNoPriorContext)
	assert.Equal(t, entities.TrendUnknown, outcome.Result.Risk.Trend)
}

func TestProcess_RegistryFailureDegrades(t *testing.T) {
	f := newServiceFixture(t, nil, staticExtractor(pneumoniaExtraction))
	f.patients.findErr = stdErrors.New("registry timeout")

	outcome, err := f.svc.Process(context.Background(), pneumoniaTranscriptFor(7))
	require.NoError(t, err)
	assert.Contains(t, outcome.Result.DegradedReasons, entities.DegradedHistoryUnavailable)
	assert.Equal(t, "Ramesh Sharma", outcome.Result.Patient.Name)
}

func TestHistoryAndRiskTrend(t *testing.T) {
	f := newServiceFixture(t, nil, nil)
	f.handoffs.history = []entities.HandoffSummary{
		{HandoffID: 3, ShiftTime: shiftTime(19, 0), RiskScore: 70},
		{HandoffID: 2, ShiftTime: shiftTime(13, 0), RiskScore: 45},
		{HandoffID: 1, ShiftTime: shiftTime(7, 0), RiskScore: 30},
	}

	history, err := f.svc.History(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	view, err := f.svc.RiskTrend(context.Background(), 7, 0)
	require.NoError(t, err)
	require.Len(t, view.Points, 3)
	assert.Equal(t, int64(1), view.Points[0].HandoffID)
	assert.Equal(t, int64(3), view.Points[2].HandoffID)
	assert.Equal(t, entities.TrendRising, view.Trend)

	_, err = f.svc.History(context.Background(), 0, 10)
	assert.True(t, IsInputError(err))
	_, err = f.svc.ActiveRisks(context.Background(), -1)
	assert.True(t, IsInputError(err))
}

func TestRegisterPatient(t *testing.T) {
	f := newServiceFixture(t, nil, nil)

	p := &entities.Patient{Name: "Asha Verma", BedNumber: "3"}
	require.NoError(t, f.svc.RegisterPatient(context.Background(), p))
	assert.NotZero(t, p.ID)
	assert.Equal(t, entities.PatientStatusAdmitted, p.Status)

	got, err := f.svc.GetPatient(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", got.Name)

	err = f.svc.RegisterPatient(context.Background(), &entities.Patient{})
	assert.True(t, IsInputError(err))
}

func TestEnqueue_RequiresRunningWorkers(t *testing.T) {
	f := newServiceFixture(t, nil, staticExtractor(pneumoniaExtraction))

	err := f.svc.Enqueue(context.Background(), pneumoniaTranscriptFor(7))
	assert.ErrorIs(t, err, entities.ErrWorkersNotRunning)
}

func TestEnqueue_ProcessesInBackground(t *testing.T) {
	f := newServiceFixture(t, nil, staticExtractor(pneumoniaExtraction))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.svc.StartWorkerPool(ctx, 2))
	assert.Error(t, f.svc.StartWorkerPool(ctx, 1))

	require.NoError(t, f.svc.Enqueue(context.Background(), pneumoniaTranscriptFor(7)))
	assert.Eventually(t, func() bool { return f.handoffs.savedCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.svc.StopWorkerPool())
	assert.Error(t, f.svc.StopWorkerPool())
}

func TestEnqueue_QueueFull(t *testing.T) {
	block := make(chan struct{})
	blocking := ExtractorFunc(func(context.Context, pkgai.ExtractionRequest) (string, error) {
		<-block
		return pneumoniaExtraction, nil
	})
	f := newServiceFixture(t, nil, blocking)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.svc.StartWorkerPool(ctx, 1))

	var err error
	for i := 0; i < 10 && err == nil; i++ {
		err = f.svc.Enqueue(context.Background(), pneumoniaTranscriptFor(7))
	}
	assert.ErrorIs(t, err, entities.ErrQueueFull)

	close(block)
	require.NoError(t, f.svc.StopWorkerPool())
}

func TestEnqueue_RejectsInvalidTranscript(t *testing.T) {
	f := newServiceFixture(t, nil, nil)
	err := f.svc.Enqueue(context.Background(), entities.Transcript{PatientID: 7, HandoffTime: shiftTime(19, 0)})
	assert.True(t, IsInputError(err))
}

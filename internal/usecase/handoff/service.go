package handoff

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	"github.com/johnquangdev/handoff-assistant/internal/domain/repositories"
	"github.com/johnquangdev/handoff-assistant/pkg/jobcontext"
)

// DefaultTimelineLimit is the number of handoffs returned by the history read side
const DefaultTimelineLimit = 10

// Run sources recorded in logs and run metadata
const (
	SourceAPI       = "api"
	SourceWebhook   = "webhook"
	SourceQuickRisk = "quick_risk"
)

// ProcessOutcome is the result of a persisted analysis
type ProcessOutcome struct {
	HandoffID  int64
	Persisted  bool
	ArchiveKey *string
	Result     *entities.HandoffAnalysisResult
}

// RiskTrendView is the risk chart series for a patient, oldest first
type RiskTrendView struct {
	PatientID int64
	Points    []entities.HandoffSummary
	Trend     entities.Trend
}

// Service defines handoff orchestration methods
type Service interface {
	Process(ctx context.Context, t entities.Transcript) (*ProcessOutcome, error)
	QuickRisk(ctx context.Context, t entities.Transcript) (*entities.HandoffAnalysisResult, error)
	History(ctx context.Context, patientID int64, limit int) ([]entities.HandoffSummary, error)
	RiskTrend(ctx context.Context, patientID int64, limit int) (*RiskTrendView, error)
	GetHandoff(ctx context.Context, id int64) (*entities.Handoff, error)
	ActiveRisks(ctx context.Context, patientID int64) ([]entities.ActiveRisk, error)
	RegisterPatient(ctx context.Context, patient *entities.Patient) error
	GetPatient(ctx context.Context, id int64) (*entities.Patient, error)
	Enqueue(ctx context.Context, t entities.Transcript) error
	StartWorkerPool(ctx context.Context, workerCount int) error
	StopWorkerPool() error
}

type handoffService struct {
	handoffRepo  repositories.HandoffRepository
	patientRepo  repositories.PatientRepository
	cache        repositories.HistoryCache
	archive      repositories.ArchiveStore
	extractor    Extractor
	pipeline     *Pipeline
	contextLimit int
	logger       *zap.Logger

	queue               chan entities.Transcript
	workerStopChan      chan struct{}
	workerWg            sync.WaitGroup
	isWorkerPoolRunning bool
	workerMutex         sync.Mutex
}

// NewService constructs a handoff service. cache and archive may be nil.
func NewService(
	handoffRepo repositories.HandoffRepository,
	patientRepo repositories.PatientRepository,
	cache repositories.HistoryCache,
	archive repositories.ArchiveStore,
	extractor Extractor,
	pipeline *Pipeline,
	contextLimit int,
	queueSize int,
	logger *zap.Logger,
) Service {
	if pipeline == nil {
		pipeline = NewPipeline(nil, WithLogger(logger))
	}
	if contextLimit <= 0 {
		contextLimit = DefaultContextLimit
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &handoffService{
		handoffRepo:    handoffRepo,
		patientRepo:    patientRepo,
		cache:          cache,
		archive:        archive,
		extractor:      extractor,
		pipeline:       pipeline,
		contextLimit:   contextLimit,
		logger:         logger,
		queue:          make(chan entities.Transcript, queueSize),
		workerStopChan: make(chan struct{}),
	}
}

// Process analyzes a handoff and persists it. Storage failures are logged and
// reported through Persisted; only input errors are returned.
func (s *handoffService) Process(ctx context.Context, t entities.Transcript) (*ProcessOutcome, error) {
	return s.process(ctx, t, SourceAPI)
}

func (s *handoffService) process(ctx context.Context, t entities.Transcript, source string) (*ProcessOutcome, error) {
	ctx = jobcontext.RunBegin(ctx, uuid.New(), t.PatientID, source, time.Now())

	result, err := s.analyze(ctx, t)
	if err != nil {
		return nil, err
	}

	outcome := &ProcessOutcome{Result: result}
	persistCtx := context.WithoutCancel(ctx)

	if s.archive != nil {
		payload, err := json.Marshal(result)
		if err == nil {
			key, archiveErr := s.archive.Archive(persistCtx, t.PatientID, t.Text, payload)
			err = archiveErr
			if archiveErr == nil {
				outcome.ArchiveKey = &key
			}
		}
		if err != nil && s.logger != nil {
			fields := append(jobcontext.Fields(ctx), zap.Error(err))
			s.logger.Warn("⚠️ Failed to archive handoff", fields...)
		}
	}

	if s.handoffRepo == nil {
		return outcome, nil
	}

	saved, err := s.handoffRepo.SaveAnalysis(persistCtx, repositories.HandoffRecord{
		Transcript: t,
		Result:     result,
		ArchiveKey: outcome.ArchiveKey,
	})
	if err != nil {
		if s.logger != nil {
			fields := append(jobcontext.Fields(ctx), zap.Error(err))
			s.logger.Error("❌ Failed to persist handoff analysis", fields...)
		}
		return outcome, nil
	}

	outcome.Persisted = true
	outcome.HandoffID = saved.ID
	if s.cache != nil {
		s.cache.Invalidate(persistCtx, t.PatientID)
	}

	if s.logger != nil {
		fields := append(jobcontext.Fields(ctx), zap.Int64("handoff_id", saved.ID))
		s.logger.Info("💾 Handoff analysis stored", fields...)
	}
	return outcome, nil
}

// QuickRisk runs the full analysis without persisting anything
func (s *handoffService) QuickRisk(ctx context.Context, t entities.Transcript) (*entities.HandoffAnalysisResult, error) {
	ctx = jobcontext.RunBegin(ctx, uuid.New(), t.PatientID, SourceQuickRisk, time.Now())
	return s.analyze(ctx, t)
}

func (s *handoffService) analyze(ctx context.Context, t entities.Transcript) (*entities.HandoffAnalysisResult, error) {
	if err := validateTranscript(t); err != nil {
		return nil, err
	}

	in := RunInput{Transcript: t}

	patient, err := s.lookupPatient(ctx, t.PatientID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrPatientNotFound) {
			return nil, newInputError("patient_id", entities.ErrPatientNotFound)
		}
		if s.logger != nil {
			fields := append(jobcontext.Fields(ctx), zap.Error(err))
			s.logger.Warn("⚠️ Patient registry unavailable", fields...)
		}
		in.HistoryUnavailable = true
	}
	in.Patient = patient

	history, err := s.loadHistory(ctx, t.PatientID)
	if err != nil {
		if s.logger != nil {
			fields := append(jobcontext.Fields(ctx), zap.Error(err))
			s.logger.Warn("⚠️ Handoff history unavailable, continuing without prior context", fields...)
		}
		in.HistoryUnavailable = true
		history = nil
	}
	in.Prior = BuildContext(t.PatientID, history, s.contextLimit)

	return s.pipeline.Run(ctx, in, s.extractor)
}

func (s *handoffService) lookupPatient(ctx context.Context, id int64) (*entities.Patient, error) {
	if s.patientRepo == nil {
		return nil, nil
	}
	patient, err := s.patientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return patient, nil
}

// loadHistory reads recent digests through the cache when one is configured
func (s *handoffService) loadHistory(ctx context.Context, patientID int64) ([]entities.HandoffSummary, error) {
	var version string
	if s.cache != nil {
		cached, v, ok := s.cache.Get(ctx, patientID, s.contextLimit)
		if ok {
			return cached, nil
		}
		version = v
	}
	if s.handoffRepo == nil {
		return nil, nil
	}

	history, err := s.handoffRepo.ListRecentSummaries(ctx, patientID, s.contextLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load handoff history: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, patientID, version, s.contextLimit, history)
	}
	return history, nil
}

// History returns recent handoff digests for the timeline, most recent first
func (s *handoffService) History(ctx context.Context, patientID int64, limit int) ([]entities.HandoffSummary, error) {
	if patientID <= 0 {
		return nil, newInputError("patient_id", entities.ErrInvalidPatient)
	}
	if limit <= 0 {
		limit = DefaultTimelineLimit
	}
	if s.handoffRepo == nil {
		return []entities.HandoffSummary{}, nil
	}
	history, err := s.handoffRepo.ListRecentSummaries(ctx, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list handoffs: %w", err)
	}
	return history, nil
}

// RiskTrend returns recent scores oldest first with the direction of the latest change
func (s *handoffService) RiskTrend(ctx context.Context, patientID int64, limit int) (*RiskTrendView, error) {
	history, err := s.History(ctx, patientID, limit)
	if err != nil {
		return nil, err
	}

	points := make([]entities.HandoffSummary, len(history))
	for i, h := range history {
		points[len(history)-1-i] = h
	}
	return &RiskTrendView{
		PatientID: patientID,
		Points:    points,
		Trend:     s.pipeline.scorer.HistoryTrend(history),
	}, nil
}

func (s *handoffService) GetHandoff(ctx context.Context, id int64) (*entities.Handoff, error) {
	if s.handoffRepo == nil {
		return nil, entities.ErrHandoffNotFound
	}
	return s.handoffRepo.FindByID(ctx, id)
}

func (s *handoffService) ActiveRisks(ctx context.Context, patientID int64) ([]entities.ActiveRisk, error) {
	if patientID <= 0 {
		return nil, newInputError("patient_id", entities.ErrInvalidPatient)
	}
	if s.handoffRepo == nil {
		return []entities.ActiveRisk{}, nil
	}
	return s.handoffRepo.ListActiveRisks(ctx, patientID)
}

func (s *handoffService) RegisterPatient(ctx context.Context, patient *entities.Patient) error {
	if patient == nil || patient.Name == "" {
		return newInputError("name", fmt.Errorf("patient name is required"))
	}
	if patient.Status == "" {
		patient.Status = entities.PatientStatusAdmitted
	}
	if s.patientRepo == nil {
		return fmt.Errorf("patient registry is not configured")
	}
	if err := s.patientRepo.Create(ctx, patient); err != nil {
		return fmt.Errorf("failed to register patient: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("🏥 Patient registered", zap.Int64("patient_id", patient.ID), zap.String("bed", patient.BedNumber))
	}
	return nil
}

func (s *handoffService) GetPatient(ctx context.Context, id int64) (*entities.Patient, error) {
	if s.patientRepo == nil {
		return nil, entities.ErrPatientNotFound
	}
	return s.patientRepo.FindByID(ctx, id)
}

// Enqueue validates a transcript and hands it to the worker pool
func (s *handoffService) Enqueue(ctx context.Context, t entities.Transcript) error {
	if err := validateTranscript(t); err != nil {
		return err
	}

	s.workerMutex.Lock()
	running := s.isWorkerPoolRunning
	s.workerMutex.Unlock()
	if !running {
		return entities.ErrWorkersNotRunning
	}

	select {
	case s.queue <- t:
		if s.logger != nil {
			s.logger.Info("📥 Handoff queued",
				zap.Int64("patient_id", t.PatientID),
				zap.Int("queue_depth", len(s.queue)),
			)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return entities.ErrQueueFull
	}
}

// StartWorkerPool starts background workers that analyze queued handoffs
func (s *handoffService) StartWorkerPool(ctx context.Context, workerCount int) error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}
	if workerCount <= 0 {
		workerCount = 1
	}

	s.isWorkerPoolRunning = true
	s.workerStopChan = make(chan struct{})

	if s.logger != nil {
		s.logger.Info("🚀 Starting handoff worker pool", zap.Int("worker_count", workerCount))
	}

	for i := 0; i < workerCount; i++ {
		s.workerWg.Add(1)
		go s.handoffWorker(ctx, i)
	}
	return nil
}

// StopWorkerPool gracefully stops all worker goroutines
func (s *handoffService) StopWorkerPool() error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if !s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	if s.logger != nil {
		s.logger.Info("🛑 Stopping handoff worker pool...")
	}

	close(s.workerStopChan)
	s.workerWg.Wait()
	s.isWorkerPoolRunning = false

	if s.logger != nil {
		s.logger.Info("✅ Handoff worker pool stopped")
	}
	return nil
}

func (s *handoffService) handoffWorker(parentCtx context.Context, workerID int) {
	defer s.workerWg.Done()

	if s.logger != nil {
		s.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))
	}

	for {
		select {
		case <-s.workerStopChan:
			if s.logger != nil {
				s.logger.Info("👋 Worker stopping", zap.Int("worker_id", workerID))
			}
			return
		case <-parentCtx.Done():
			return
		case t := <-s.queue:
			outcome, err := s.process(parentCtx, t, SourceWebhook)
			if s.logger == nil {
				continue
			}
			if err != nil {
				s.logger.Error("❌ Queued handoff rejected",
					zap.Int("worker_id", workerID),
					zap.Int64("patient_id", t.PatientID),
					zap.Error(err),
				)
				continue
			}
			s.logger.Info("✅ Queued handoff processed",
				zap.Int("worker_id", workerID),
				zap.Int64("patient_id", t.PatientID),
				zap.Int64("handoff_id", outcome.HandoffID),
				zap.Bool("persisted", outcome.Persisted),
			)
		}
	}
}

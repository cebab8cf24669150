package handoff

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	pkgai "github.com/johnquangdev/handoff-assistant/pkg/ai"
	"github.com/johnquangdev/handoff-assistant/pkg/jobcontext"
)

// Extractor is the external text-understanding capability
type Extractor interface {
	Extract(ctx context.Context, req pkgai.ExtractionRequest) (string, error)
}

// ExtractorFunc adapts a function to Extractor
type ExtractorFunc func(ctx context.Context, req pkgai.ExtractionRequest) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, req pkgai.ExtractionRequest) (string, error) {
	return f(ctx, req)
}

// DefaultExtractionTimeout bounds the only suspending step of a run
const DefaultExtractionTimeout = 45 * time.Second

// RunInput is everything a run reads besides the extraction response
type RunInput struct {
	Transcript         entities.Transcript
	Prior              entities.PriorContext
	Patient            *entities.Patient
	HistoryUnavailable bool
}

// Pipeline sequences validation, reasoning, scoring and rendering for one handoff.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	parser            *Parser
	temporal          *TemporalReasoner
	omissions         *OmissionDetector
	scorer            *RiskScorer
	narrator          *NarrativeRenderer
	extractionTimeout time.Duration
	now               func() time.Time
	logger            *zap.Logger
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithLogger sets the pipeline logger
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// WithClock sets the clock used only for processing_time_ms
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithExtractionTimeout bounds the extraction call
func WithExtractionTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.extractionTimeout = d
		}
	}
}

// WithLocale selects the narrative locale
func WithLocale(locale Locale) PipelineOption {
	return func(p *Pipeline) { p.narrator = NewNarrativeRenderer(locale) }
}

// NewPipeline wires the components over shared rule tables
func NewPipeline(rules *Rules, opts ...PipelineOption) *Pipeline {
	if rules == nil {
		rules = DefaultRules()
	}
	p := &Pipeline{
		parser:            NewParser(),
		temporal:          NewTemporalReasoner(rules),
		omissions:         NewOmissionDetector(rules),
		scorer:            NewRiskScorer(rules),
		narrator:          NewNarrativeRenderer(LocaleEnglish),
		extractionTimeout: DefaultExtractionTimeout,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run analyzes one handoff. Only input errors are returned; every collaborator
// failure degrades the result instead.
func (p *Pipeline) Run(ctx context.Context, in RunInput, extractor Extractor) (*entities.HandoffAnalysisResult, error) {
	started := p.now()
	state := newRunState()
	t := in.Transcript

	if err := validateTranscript(t); err != nil {
		return nil, state.fail(err)
	}

	result := &entities.HandoffAnalysisResult{
		PatientID:       t.PatientID,
		HandoffTime:     t.HandoffTime,
		Extracted:       make([]entities.ExtractedFact, 0),
		Schedule:        make([]entities.DoseScheduleEntry, 0),
		AsNeeded:        make([]string, 0),
		Diagnostics:     make([]entities.Diagnostic, 0),
		DegradedReasons: make([]string, 0),
	}

	p.mustAdvance(state, StageContextBuilt)
	if in.HistoryUnavailable {
		result.DegradedReasons = append(result.DegradedReasons, entities.DegradedHistoryUnavailable)
	}
	if in.Prior.Empty || len(in.Prior.Entries) == 0 {
		result.DegradedReasons = append(result.DegradedReasons, entities.DegradedNoPriorContext)
	}

	raw, err := p.extract(ctx, t, in.Prior, extractor)
	if err != nil {
		if p.logger != nil {
			fields := append(jobcontext.Fields(ctx), zap.Error(err))
			p.logger.Warn("⚠️ Extraction unavailable, continuing with empty facts", fields...)
		}
		result.DegradedReasons = append(result.DegradedReasons, entities.DegradedExtractionUnavailable)
	}
	p.mustAdvance(state, StageExtracted)

	facts := make([]entities.ExtractedFact, 0)
	var flagged []entities.Alert
	var extractedPatient entities.PatientSnapshot
	// A failed extraction is already recorded as a degraded reason.
	if err == nil {
		var diags, alertDiags []entities.Diagnostic
		facts, diags = p.parser.Validate(raw)
		flagged, alertDiags = p.parser.ExtractAlerts(raw)
		result.Diagnostics = append(result.Diagnostics, diags...)
		result.Diagnostics = append(result.Diagnostics, alertDiags...)
		extractedPatient = p.parser.ExtractPatient(raw)
	}
	result.Extracted = facts
	result.Patient = mergePatient(in.Patient, extractedPatient)
	p.mustAdvance(state, StageValidated)

	schedule, asNeeded, ruleDiags := p.temporal.Schedule(facts, t.HandoffTime)
	result.Schedule = schedule
	result.AsNeeded = asNeeded
	result.Diagnostics = append(result.Diagnostics, ruleDiags...)
	hint := diagnosisHint(t.DiagnosisHint, extractedPatient.ChiefComplaint, in.Patient)
	result.Omissions = p.omissions.Detect(facts, hint)
	p.mustAdvance(state, StageReasoned)

	result.Risk = p.scorer.Score(facts, schedule, result.Omissions, flagged, in.Prior)
	p.mustAdvance(state, StageScored)

	result.Degraded = len(result.DegradedReasons) > 0
	result.Narrative = p.narrator.Render(result)
	p.mustAdvance(state, StageNarrated)

	result.ProcessingTimeMs = p.now().Sub(started).Milliseconds()
	p.mustAdvance(state, StageComplete)

	recordPipelineRun(ctx, result)
	if p.logger != nil {
		fields := append(jobcontext.Fields(ctx),
			zap.String("overall_risk", string(result.Risk.OverallRisk)),
			zap.Int("risk_score", result.Risk.RiskScore),
			zap.Int("facts", len(result.Extracted)),
			zap.Int("omissions", len(result.Omissions.Items)),
			zap.Strings("degraded_reasons", result.DegradedReasons),
			zap.Int64("processing_time_ms", result.ProcessingTimeMs),
		)
		p.logger.Info("✅ Handoff analysis complete", fields...)
	}
	return result, nil
}

// extract calls the collaborator under the extraction timeout and decodes its
// output. Caller cancellation stops only this step.
func (p *Pipeline) extract(ctx context.Context, t entities.Transcript, prior entities.PriorContext, extractor Extractor) (any, error) {
	if extractor == nil {
		return nil, entities.ErrExtractionUnavailable
	}

	callCtx, cancel := context.WithTimeout(ctx, p.extractionTimeout)
	defer cancel()

	content, err := extractor.Extract(callCtx, pkgai.ExtractionRequest{
		Transcript:     t.Text,
		HandoffTime:    t.HandoffTime.Format(shiftTimeLayout),
		PatientContext: prior.Digest,
	})
	if err != nil {
		if stdErrors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", entities.ErrExtractionUnavailable, p.extractionTimeout)
		}
		return nil, fmt.Errorf("%w: %v", entities.ErrExtractionUnavailable, err)
	}
	return p.parser.ParseExtractionResponse(content)
}

// mustAdvance panics on an illegal transition, which can only be a programming error
func (p *Pipeline) mustAdvance(s *runState, next Stage) {
	if err := s.advance(next); err != nil {
		panic(err)
	}
}

func mergePatient(record *entities.Patient, extracted entities.PatientSnapshot) entities.PatientSnapshot {
	snap := record.Snapshot()
	if record == nil {
		snap = entities.PatientSnapshot{}
	}
	if snap.Name == "" {
		snap.Name = extracted.Name
	}
	if snap.Bed == "" {
		snap.Bed = extracted.Bed
	}
	if snap.Age == nil {
		snap.Age = extracted.Age
	}
	if extracted.ChiefComplaint != "" {
		snap.ChiefComplaint = extracted.ChiefComplaint
	}
	if snap.Name == "" {
		snap.Name = "Unknown"
	}
	if snap.Bed == "" {
		snap.Bed = "Not stated"
	}
	return snap
}

func diagnosisHint(explicit, extracted string, record *entities.Patient) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{explicit, extracted} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if record != nil && record.AdmissionReason != "" {
		parts = append(parts, record.AdmissionReason)
	}
	return strings.Join(parts, " ")
}

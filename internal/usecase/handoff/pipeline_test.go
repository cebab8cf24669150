package handoff

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	pkgai "github.com/johnquangdev/handoff-assistant/pkg/ai"
)

func pneumoniaInput(prior []entities.HandoffSummary) RunInput {
	return RunInput{
		Transcript: entities.Transcript{
			PatientID:   7,
			Text:        pneumoniaTranscript,
			HandoffTime: shiftTime(19, 0),
		},
		Prior: BuildContext(7, prior, DefaultContextLimit),
	}
}

func TestPipelineRun_PneumoniaHandoff(t *testing.T) {
	p := NewPipeline(nil, WithClock(fixedClock(shiftTime(19, 0))))
	prior := []entities.HandoffSummary{
		{ShiftTime: shiftTime(7, 0), OverallRisk: entities.SeverityMedium, RiskScore: 40, ShortSummary: "Pneumonia, on oxygen"},
	}

	result, err := p.Run(context.Background(), pneumoniaInput(prior), staticExtractor(pneumoniaExtraction))
	require.NoError(t, err)

	assert.Equal(t, "Ramesh Sharma", result.Patient.Name)
	assert.Equal(t, "12", result.Patient.Bed)
	require.NotNil(t, result.Patient.Age)
	assert.Equal(t, 68, *result.Patient.Age)

	require.Len(t, result.Schedule, 1)
	entry := result.Schedule[0]
	assert.Equal(t, "Ceftriaxone", entry.MedicationName)
	require.NotNil(t, entry.NextDueAt)
	assert.True(t, entry.NextDueAt.Equal(shiftTime(19, 0)))
	assert.False(t, entry.Overdue)
	assert.False(t, entry.Inferred)

	assert.Equal(t, 65, result.Risk.RiskScore)
	assert.Equal(t, entities.SeverityHigh, result.Risk.OverallRisk)
	assert.Equal(t, entities.TrendRising, result.Risk.Trend)
	require.NotNil(t, result.Risk.PriorScore)
	assert.Equal(t, 40, *result.Risk.PriorScore)

	require.NotEmpty(t, result.Risk.Alerts)
	assert.Equal(t, entities.SeverityCritical, result.Risk.Alerts[0].Severity)
	assert.Equal(t, "spo2_critical", result.Risk.Alerts[0].AlertType)

	require.Len(t, result.Omissions.Items, 1)
	assert.Equal(t, "allergy_cross_check", result.Omissions.Items[0].Category)
	assert.True(t, result.Omissions.Items[0].SafetyCritical)

	assert.False(t, result.Degraded)
	assert.Empty(t, result.DegradedReasons)
	assert.Contains(t, result.Narrative, "Ceftriaxone 1g IV BD: next dose 19:00")
	assert.Contains(t, result.Narrative, "Overall risk HIGH (score 65/100, trend rising)")
}

func TestPipelineRun_Deterministic(t *testing.T) {
	p := NewPipeline(nil, WithClock(fixedClock(shiftTime(19, 0))))
	in := pneumoniaInput(nil)

	first, err := p.Run(context.Background(), in, staticExtractor(pneumoniaExtraction))
	require.NoError(t, err)
	second, err := p.Run(context.Background(), in, staticExtractor(pneumoniaExtraction))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPipelineRun_NoPriorContextIsDegraded(t *testing.T) {
	p := NewPipeline(nil)

	result, err := p.Run(context.Background(), pneumoniaInput(nil), staticExtractor(pneumoniaExtraction))
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, []string{entities.DegradedNoPriorContext}, result.DegradedReasons)
	assert.Equal(t, entities.TrendUnknown, result.Risk.Trend)
	assert.Nil(t, result.Risk.PriorScore)
}

func TestPipelineRun_ExtractionFailureDegrades(t *testing.T) {
	p := NewPipeline(nil)

	result, err := p.Run(context.Background(), pneumoniaInput(nil), failingExtractor(stdErrors.New("connection refused")))
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Contains(t, result.DegradedReasons, entities.DegradedExtractionUnavailable)
	assert.Empty(t, result.Extracted)
	assert.Equal(t, 0, result.Risk.RiskScore)
	assert.Equal(t, entities.SeverityLow, result.Risk.OverallRisk)
	assert.Equal(t, "Unknown", result.Patient.Name)
	assert.Contains(t, result.Narrative, "Extraction was unavailable")
	for _, d := range result.Diagnostics {
		assert.NotEqual(t, entities.DiagnosticValidation, d.Kind, d.Reason)
	}
}

func TestPipelineRun_NilExtractorDegrades(t *testing.T) {
	result, err := NewPipeline(nil).Run(context.Background(), pneumoniaInput(nil), nil)
	require.NoError(t, err)
	assert.Contains(t, result.DegradedReasons, entities.DegradedExtractionUnavailable)
	assert.Empty(t, result.Diagnostics)
}

func TestPipelineRun_MalformedExtractionDegrades(t *testing.T) {
	result, err := NewPipeline(nil).Run(context.Background(), pneumoniaInput(nil), staticExtractor("I could not read the transcript."))
	require.NoError(t, err)
	assert.Contains(t, result.DegradedReasons, entities.DegradedExtractionUnavailable)
	assert.NotEmpty(t, result.Narrative)
}

func TestPipelineRun_ExtractionTimeout(t *testing.T) {
	p := NewPipeline(nil, WithExtractionTimeout(20*time.Millisecond))
	slow := ExtractorFunc(func(ctx context.Context, _ pkgai.ExtractionRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	started := time.Now()
	result, err := p.Run(context.Background(), pneumoniaInput(nil), slow)
	require.NoError(t, err)

	assert.Less(t, time.Since(started), 2*time.Second)
	assert.Contains(t, result.DegradedReasons, entities.DegradedExtractionUnavailable)
}

func TestPipelineRun_HistoryUnavailable(t *testing.T) {
	in := pneumoniaInput(nil)
	in.HistoryUnavailable = true

	result, err := NewPipeline(nil).Run(context.Background(), in, staticExtractor(pneumoniaExtraction))
	require.NoError(t, err)
	assert.Equal(t, []string{entities.DegradedHistoryUnavailable, entities.DegradedNoPriorContext}, result.DegradedReasons)
}

func TestPipelineRun_InputErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunInput)
		target error
	}{
		{"blank transcript", func(in *RunInput) { in.Transcript.Text = "   \n" }, entities.ErrEmptyTranscript},
		{"missing patient", func(in *RunInput) { in.Transcript.PatientID = 0 }, entities.ErrInvalidPatient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := pneumoniaInput(nil)
			tt.mutate(&in)

			result, err := NewPipeline(nil).Run(context.Background(), in, staticExtractor(pneumoniaExtraction))
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, IsInputError(err))
			assert.ErrorIs(t, err, tt.target)

			var pe *PipelineError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, StageIngested, pe.Stage)
		})
	}
}

func TestPipelineRun_RegistryPatientWins(t *testing.T) {
	in := pneumoniaInput(nil)
	in.Patient = &entities.Patient{ID: 7, Name: "R. Sharma", BedNumber: "ICU-3", AdmissionReason: "Community acquired pneumonia"}

	result, err := NewPipeline(nil).Run(context.Background(), in, staticExtractor(pneumoniaExtraction))
	require.NoError(t, err)
	assert.Equal(t, "R. Sharma", result.Patient.Name)
	assert.Equal(t, "ICU-3", result.Patient.Bed)
	assert.Equal(t, "Pneumonia", result.Patient.ChiefComplaint)
}

func TestPipelineRun_LocaleHinglish(t *testing.T) {
	p := NewPipeline(nil, WithLocale(LocaleHinglish))
	result, err := p.Run(context.Background(), pneumoniaInput(nil), staticExtractor(pneumoniaExtraction))
	require.NoError(t, err)
	assert.Contains(t, result.Narrative, "agla dose 19:00 baje")
}

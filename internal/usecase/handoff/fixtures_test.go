package handoff

import (
	"context"
	"time"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	pkgai "github.com/johnquangdev/handoff-assistant/pkg/ai"
)

const pneumoniaTranscript = `Bed 12, Ramesh Sharma, 68 saal, pneumonia ke saath admit.
SpO2 92 se 88 ho gaya, 4 litre oxygen pe hai.
Ceftriaxone 1g IV BD subah 7 baje diya.`

const pneumoniaExtraction = `{
  "summary": {"patient_name": "Ramesh Sharma", "bed": "12", "age": 68, "chief_complaint": "Pneumonia"},
  "medications": [
    {"name": "Ceftriaxone", "dose": "1g", "route": "IV", "frequency": "BD", "time_given": "07:00"}
  ],
  "vitals": [{"type": "SpO2", "value": "88%", "trend": "dropping"}],
  "allergies": [],
  "alerts": []
}`

func shiftTime(hour, minute int) time.Time {
	return time.Date(2026, time.March, 1, hour, minute, 0, 0, time.UTC)
}

func staticExtractor(content string) Extractor {
	return ExtractorFunc(func(context.Context, pkgai.ExtractionRequest) (string, error) {
		return content, nil
	})
}

func failingExtractor(err error) Extractor {
	return ExtractorFunc(func(context.Context, pkgai.ExtractionRequest) (string, error) {
		return "", err
	})
}

func medication(name, freq, given string) entities.ExtractedFact {
	return entities.ExtractedFact{Kind: entities.FactKindMedication, Medication: &entities.MedicationFact{
		Name:              name,
		Dose:              entities.DoseUnspecified,
		Route:             entities.RouteUnspecified,
		FrequencyCode:     freq,
		AdministeredAtRaw: given,
	}}
}

func vital(vtype, raw string) entities.ExtractedFact {
	f, diag := buildVital(map[string]any{"type": vtype, "value": raw})
	if diag != nil {
		panic(diag.Reason)
	}
	return f
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

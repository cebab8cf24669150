package handoff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

// TemporalReasoner projects next-dose times from dosing codes
type TemporalReasoner struct {
	rules *Rules
}

// NewTemporalReasoner creates a reasoner over the given rule tables
func NewTemporalReasoner(rules *Rules) *TemporalReasoner {
	return &TemporalReasoner{rules: rules}
}

// Schedule builds one entry per medication with a frequency code. As-needed
// medications are listed separately and never scheduled. The result depends
// only on facts and basis.
func (tr *TemporalReasoner) Schedule(facts []entities.ExtractedFact, basis time.Time) ([]entities.DoseScheduleEntry, []string, []entities.Diagnostic) {
	schedule := make([]entities.DoseScheduleEntry, 0)
	asNeeded := make([]string, 0)
	diags := make([]entities.Diagnostic, 0)

	for i, f := range facts {
		if f.Kind != entities.FactKindMedication || f.Medication == nil {
			continue
		}
		med := f.Medication
		if med.FrequencyCode == "" {
			continue
		}

		entry := entities.DoseScheduleEntry{
			MedicationName: med.Name,
			FrequencyCode:  med.FrequencyCode,
			BasisTime:      basis,
		}

		freq, ok := tr.rules.Frequency(med.FrequencyCode)
		if !ok {
			entry.Note = fmt.Sprintf("unknown frequency code %q", med.FrequencyCode)
			schedule = append(schedule, entry)
			diags = append(diags, entities.Diagnostic{
				Kind:   entities.DiagnosticRuleEvaluation,
				Index:  i,
				Field:  "frequency_code",
				Reason: entry.Note,
			})
			continue
		}
		if freq.AsNeeded {
			asNeeded = append(asNeeded, med.Name)
			continue
		}

		entry.Interval = freq.Interval()
		administered, understood := tr.administrationTime(med, basis)
		var next time.Time
		if administered != nil {
			next = administered.Add(entry.Interval)
			entry.Overdue = next.Before(basis)
		} else {
			next = basis.Add(entry.Interval)
			entry.Inferred = true
			if !understood {
				entry.Note = fmt.Sprintf("administration time %q not understood", med.AdministeredAtRaw)
			}
		}
		entry.NextDueAt = &next
		schedule = append(schedule, entry)
	}
	return schedule, asNeeded, diags
}

// administrationTime resolves the last administration. understood is false only
// when a raw time was given but could not be read.
func (tr *TemporalReasoner) administrationTime(med *entities.MedicationFact, basis time.Time) (*time.Time, bool) {
	if med.AdministeredAt != nil {
		return med.AdministeredAt, true
	}
	if strings.TrimSpace(med.AdministeredAtRaw) == "" {
		return nil, true
	}
	t, ok := tr.ResolveTime(med.AdministeredAtRaw, basis)
	if !ok {
		return nil, false
	}
	return &t, true
}

var (
	twelveHourPattern   = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*([ap])\.?\s*m\b\.?`)
	clockPattern        = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	militaryPattern     = regexp.MustCompile(`^(\d{2})(\d{2})\s*(?:hrs?|h)?$`)
	hourWordPattern     = regexp.MustCompile(`(\d{1,2})\s*(?:o'?\s*clock|baje)`)
	hoursAgoPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|ghante|ghanta)\s*(?:ago|pehle|before)`)
	minutesAgoPattern   = regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?)\s*(?:ago|pehle|before)`)
	absoluteTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02 15:04:05"}
)

// ResolveTime reads an administration time relative to basis. Clock times that
// would fall after basis are taken from the previous day.
func (tr *TemporalReasoner) ResolveTime(raw string, basis time.Time) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	text := strings.ToLower(trimmed)
	loc := basis.Location()

	for _, layout := range absoluteTimeLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return t, true
		}
	}

	if m := hoursAgoPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.ParseFloat(m[1], 64)
		return basis.Add(-time.Duration(h * float64(time.Hour))), true
	}
	if m := minutesAgoPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return basis.Add(-time.Duration(n) * time.Minute), true
	}

	if m := twelveHourPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return time.Time{}, false
		}
		hour %= 12
		if m[3] == "p" {
			hour += 12
		}
		return anchorClock(basis, hour, minute), true
	}
	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return time.Time{}, false
		}
		return anchorClock(basis, tr.withDayPart(text, hour), minute), true
	}
	if m := militaryPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return time.Time{}, false
		}
		return anchorClock(basis, hour, minute), true
	}
	if m := hourWordPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour > 23 {
			return time.Time{}, false
		}
		return anchorClock(basis, tr.withDayPart(text, hour), 0), true
	}

	if offset, ok := tr.dayPartIn(text); ok {
		return anchorClock(basis, int(offset/time.Hour), int((offset%time.Hour)/time.Minute)), true
	}
	return time.Time{}, false
}

// withDayPart shifts an ambiguous hour into the afternoon when the phrase names an evening part of day
func (tr *TemporalReasoner) withDayPart(text string, hour int) int {
	if hour >= 12 {
		return hour
	}
	if offset, ok := tr.dayPartIn(text); ok && offset >= 12*time.Hour {
		return hour + 12
	}
	return hour
}

func (tr *TemporalReasoner) dayPartIn(text string) (time.Duration, bool) {
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if d, ok := tr.rules.DayPart(word); ok {
			return d, true
		}
	}
	return 0, false
}

func anchorClock(basis time.Time, hour, minute int) time.Time {
	t := time.Date(basis.Year(), basis.Month(), basis.Day(), hour, minute, 0, 0, basis.Location())
	if t.After(basis) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

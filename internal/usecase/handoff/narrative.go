package handoff

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

// Locale selects the narrative phrasing
type Locale string

const (
	LocaleEnglish  Locale = "en"
	LocaleHinglish Locale = "hinglish"
)

// ParseLocale falls back to English for unknown values
func ParseLocale(s string) Locale {
	if Locale(strings.ToLower(strings.TrimSpace(s))) == LocaleHinglish {
		return LocaleHinglish
	}
	return LocaleEnglish
}

// NarrativeSections is the structured form of a rendered narrative
type NarrativeSections struct {
	Overview    string   `json:"overview"`
	Medications []string `json:"medications"`
	Alerts      []string `json:"alerts"`
	Missing     []string `json:"missing_info"`
	ActionItems []string `json:"action_items"`
}

type narrativeLabels struct {
	Overview, Medications, Alerts, Missing, Actions, None string
}

type phrasebook struct {
	labels        narrativeLabels
	overview      func(p entities.PatientSnapshot, r entities.RiskAssessment) string
	degraded      string
	nextDose      string
	overdue       string
	inferred      string
	unknownDose   string
	asNeeded      string
	missing       func(o entities.Omission) string
	confirm       func(o entities.Omission) string
	noDataSummary string
}

var phrasebooks = map[Locale]phrasebook{
	LocaleEnglish: {
		labels: narrativeLabels{"PATIENT OVERVIEW", "MEDICATIONS & TIMING", "RISK ALERTS", "MISSING INFORMATION", "ACTION ITEMS", "None"},
		overview: func(p entities.PatientSnapshot, r entities.RiskAssessment) string {
			return fmt.Sprintf("%s. Overall risk %s (score %d/100, trend %s).", patientLine(p), r.OverallRisk, r.RiskScore, r.Trend)
		},
		degraded:    "Extraction was unavailable, findings may be incomplete.",
		nextDose:    "next dose %s",
		overdue:     " (overdue)",
		inferred:    " (estimated from handoff time)",
		unknownDose: "next dose unknown",
		asNeeded:    "as needed",
		missing: func(o entities.Omission) string {
			return fmt.Sprintf("%s: %s", o.ExpectedItem, o.ReasonExpected)
		},
		confirm: func(o entities.Omission) string {
			verb := "Check"
			if o.SafetyCritical {
				verb = "Confirm"
			}
			return fmt.Sprintf("%s %s", verb, lowerFirst(o.ExpectedItem))
		},
		noDataSummary: "Summary could not be generated.",
	},
	LocaleHinglish: {
		labels: narrativeLabels{"PATIENT OVERVIEW", "MEDICATIONS AUR TIMING", "RISK ALERTS", "MISSING INFO", "ACTION ITEMS", "Kuch nahi"},
		overview: func(p entities.PatientSnapshot, r entities.RiskAssessment) string {
			return fmt.Sprintf("%s. Overall risk %s hai (score %d/100, trend %s).", patientLine(p), r.OverallRisk, r.RiskScore, r.Trend)
		},
		degraded:    "AI extraction available nahi tha, details incomplete ho sakti hain.",
		nextDose:    "agla dose %s baje",
		overdue:     " (overdue hai)",
		inferred:    " (handoff time se andaaza)",
		unknownDose: "agla dose pata nahi",
		asNeeded:    "zarurat pe (PRN)",
		missing: func(o entities.Omission) string {
			return fmt.Sprintf("%s handoff mein nahi bataya gaya", o.ExpectedItem)
		},
		confirm: func(o entities.Omission) string {
			verb := "Check karein"
			if o.SafetyCritical {
				verb = "Confirm karein"
			}
			return fmt.Sprintf("%s: %s", verb, lowerFirst(o.ExpectedItem))
		},
		noDataSummary: "Summary generate nahi ho paya.",
	},
}

var narrativeTemplate = template.Must(template.New("narrative").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(
	`{{.Labels.Overview}}
{{.Sections.Overview}}

{{.Labels.Medications}}
{{range .Sections.Medications}}- {{.}}
{{else}}- {{$.Labels.None}}
{{end}}
{{.Labels.Alerts}}
{{range .Sections.Alerts}}- {{.}}
{{else}}- {{$.Labels.None}}
{{end}}
{{.Labels.Missing}}
{{range .Sections.Missing}}- {{.}}
{{else}}- {{$.Labels.None}}
{{end}}
{{.Labels.Actions}}
{{range $i, $a := .Sections.ActionItems}}{{inc $i}}. {{$a}}
{{else}}- {{$.Labels.None}}
{{end}}`))

// NarrativeRenderer renders a human-readable summary from a completed result
type NarrativeRenderer struct {
	locale Locale
}

// NewNarrativeRenderer creates a renderer for the given locale
func NewNarrativeRenderer(locale Locale) *NarrativeRenderer {
	return &NarrativeRenderer{locale: ParseLocale(string(locale))}
}

// Render never fails: on any rendering problem it degrades to the overview line
func (nr *NarrativeRenderer) Render(result *entities.HandoffAnalysisResult) (out string) {
	pb := phrasebooks[nr.locale]
	if result == nil {
		return pb.noDataSummary
	}

	sections := nr.BuildSections(result)
	defer func() {
		if r := recover(); r != nil {
			out = sections.Overview
		}
	}()

	var buf bytes.Buffer
	data := struct {
		Labels   narrativeLabels
		Sections NarrativeSections
	}{pb.labels, sections}
	if err := narrativeTemplate.Execute(&buf, data); err != nil {
		return sections.Overview
	}
	return strings.TrimRight(buf.String(), "\n")
}

// BuildSections assembles the narrative content without formatting it
func (nr *NarrativeRenderer) BuildSections(result *entities.HandoffAnalysisResult) NarrativeSections {
	pb := phrasebooks[nr.locale]
	s := NarrativeSections{
		Medications: make([]string, 0),
		Alerts:      make([]string, 0),
		Missing:     make([]string, 0),
		ActionItems: make([]string, 0),
	}

	s.Overview = pb.overview(result.Patient, result.Risk)
	if result.Degraded && containsString(result.DegradedReasons, entities.DegradedExtractionUnavailable) {
		s.Overview += " " + pb.degraded
	}

	scheduled := make(map[string]entities.DoseScheduleEntry, len(result.Schedule))
	for _, e := range result.Schedule {
		if _, ok := scheduled[e.MedicationName]; !ok {
			scheduled[e.MedicationName] = e
		}
	}
	asNeeded := make(map[string]bool, len(result.AsNeeded))
	for _, name := range result.AsNeeded {
		asNeeded[name] = true
	}
	for _, f := range result.Extracted {
		if f.Kind != entities.FactKindMedication || f.Medication == nil {
			continue
		}
		s.Medications = append(s.Medications, nr.medicationLine(pb, f.Medication, scheduled, asNeeded))
	}

	for _, a := range result.Risk.Alerts {
		s.Alerts = append(s.Alerts, fmt.Sprintf("[%s] %s: %s", a.Severity, a.AlertType, a.Reason))
	}

	for _, o := range result.Omissions.Items {
		s.Missing = append(s.Missing, pb.missing(o))
	}

	for _, a := range result.Risk.Alerts {
		if a.Source == entities.AlertSourceOmission {
			continue
		}
		if a.Severity == entities.SeverityCritical || a.Severity == entities.SeverityHigh {
			s.ActionItems = append(s.ActionItems, fmt.Sprintf("[%s] %s: %s", a.Severity, a.AlertType, a.ActionRequired))
		}
	}
	seen := make(map[string]bool)
	for _, o := range result.Omissions.Items {
		if item := pb.confirm(o); !seen[item] {
			seen[item] = true
			s.ActionItems = append(s.ActionItems, item)
		}
	}
	return s
}

func (nr *NarrativeRenderer) medicationLine(pb phrasebook, med *entities.MedicationFact, scheduled map[string]entities.DoseScheduleEntry, asNeeded map[string]bool) string {
	parts := []string{med.Name}
	if med.Dose != entities.DoseUnspecified {
		parts = append(parts, med.Dose)
	}
	if med.Route != entities.RouteUnspecified {
		parts = append(parts, med.Route)
	}
	if med.FrequencyCode != "" {
		parts = append(parts, med.FrequencyCode)
	}
	line := strings.Join(parts, " ")

	if asNeeded[med.Name] {
		return line + ": " + pb.asNeeded
	}
	e, ok := scheduled[med.Name]
	if !ok {
		return line
	}
	if e.NextDueAt == nil {
		return line + ": " + pb.unknownDose
	}
	line += ": " + fmt.Sprintf(pb.nextDose, e.NextDueAt.Format("15:04"))
	switch {
	case e.Overdue:
		line += pb.overdue
	case e.Inferred:
		line += pb.inferred
	}
	return line
}

func patientLine(p entities.PatientSnapshot) string {
	name := p.Name
	if name == "" {
		name = "Unknown"
	}
	bed := p.Bed
	if bed == "" {
		bed = "Not stated"
	}
	line := fmt.Sprintf("%s, Bed %s", name, bed)
	if p.Age != nil {
		line += fmt.Sprintf(", %d yrs", *p.Age)
	}
	if p.ChiefComplaint != "" {
		line += ". " + strings.TrimRight(p.ChiefComplaint, ". ")
	}
	return line
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

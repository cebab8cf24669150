package handoff

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

// Parser turns raw extraction output into validated facts
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

var (
	thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)
	answerTag  = regexp.MustCompile(`(?i)</?answer>`)
)

// ParseExtractionResponse decodes the JSON object embedded in a model response
func (p *Parser) ParseExtractionResponse(content string) (any, error) {
	content = extractJSON(content)
	if content == "" {
		return nil, fmt.Errorf("%w: no JSON object found", entities.ErrMalformedExtraction)
	}

	var raw any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrMalformedExtraction, err)
	}
	return raw, nil
}

// extractJSON strips reasoning blocks and markdown fences and isolates the outermost object
func extractJSON(content string) string {
	content = thinkBlock.ReplaceAllString(content, "")
	content = answerTag.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	if start := strings.Index(content, "```"); start != -1 {
		inner := content[start+3:]
		inner = strings.TrimPrefix(inner, "json")
		if end := strings.Index(inner, "```"); end != -1 {
			inner = inner[:end]
		}
		content = strings.TrimSpace(inner)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return ""
	}
	return content[start : end+1]
}

type candidate struct {
	kind   entities.FactKind
	rawKnd string
	value  any
}

var factGroups = []struct {
	key  string
	kind entities.FactKind
}{
	{"medications", entities.FactKindMedication},
	{"vitals", entities.FactKindVital},
	{"allergies", entities.FactKindAllergy},
	{"events", entities.FactKindEvent},
	{"notes", entities.FactKindNote},
	{"symptoms", entities.FactKindNote},
	{"pending_tasks", entities.FactKindNote},
}

// Validate normalizes a loosely typed extraction payload. Malformed candidates
// are dropped and reported; it never fails as a whole.
func (p *Parser) Validate(raw any) (facts []entities.ExtractedFact, diags []entities.Diagnostic) {
	facts = make([]entities.ExtractedFact, 0)
	diags = make([]entities.Diagnostic, 0)

	defer func() {
		if r := recover(); r != nil {
			diags = append(diags, entities.Diagnostic{
				Kind:   entities.DiagnosticValidation,
				Index:  -1,
				Reason: fmt.Sprintf("validation aborted: %v", r),
			})
		}
	}()

	for i, c := range collectCandidates(raw, &diags) {
		fact, diag := buildFact(c)
		if diag != nil {
			diag.Index = i
			diags = append(diags, *diag)
			continue
		}
		facts = append(facts, fact)
	}
	return facts, diags
}

func collectCandidates(raw any, diags *[]entities.Diagnostic) []candidate {
	var out []candidate

	switch root := raw.(type) {
	case []any:
		return taggedCandidates(root)
	case map[string]any:
		if list, ok := root["facts"].([]any); ok {
			out = append(out, taggedCandidates(list)...)
		}
		for _, scope := range []map[string]any{root, asMap(root["extracted"]), asMap(root["extracted_data"])} {
			if scope == nil {
				continue
			}
			for _, g := range factGroups {
				out = append(out, groupCandidates(g.kind, scope[g.key])...)
			}
		}
	default:
		*diags = append(*diags, entities.Diagnostic{
			Kind:   entities.DiagnosticValidation,
			Index:  -1,
			Reason: "extraction payload is not an object",
		})
	}
	return out
}

func taggedCandidates(list []any) []candidate {
	out := make([]candidate, 0, len(list))
	for _, item := range list {
		m := asMap(item)
		rawKind := str(m, "kind")
		kind, _ := entities.ParseFactKind(rawKind)
		out = append(out, candidate{kind: kind, rawKnd: rawKind, value: item})
	}
	return out
}

func groupCandidates(kind entities.FactKind, group any) []candidate {
	switch g := group.(type) {
	case []any:
		out := make([]candidate, 0, len(g))
		for _, item := range g {
			out = append(out, candidate{kind: kind, rawKnd: string(kind), value: item})
		}
		return out
	case map[string]any:
		// vitals reported as {"spo2": "88%", "bp": "120/80"}
		if kind != entities.FactKindVital {
			return nil
		}
		keys := sortedKeys(g)
		out := make([]candidate, 0, len(keys))
		for _, k := range keys {
			out = append(out, candidate{kind: kind, rawKnd: string(kind), value: map[string]any{"type": k, "value": g[k]}})
		}
		return out
	}
	return nil
}

func buildFact(c candidate) (entities.ExtractedFact, *entities.Diagnostic) {
	if c.kind == "" {
		if c.rawKnd == "" {
			return entities.ExtractedFact{}, invalid("kind", "missing fact kind")
		}
		return entities.ExtractedFact{}, invalid("kind", fmt.Sprintf("unknown fact kind %q", c.rawKnd))
	}

	m := asMap(c.value)
	if m == nil {
		text, ok := c.value.(string)
		if !ok || strings.TrimSpace(text) == "" {
			return entities.ExtractedFact{}, invalid("", "candidate is neither an object nor text")
		}
		m = shorthand(c.kind, strings.TrimSpace(text))
	}

	switch c.kind {
	case entities.FactKindMedication:
		return buildMedication(m)
	case entities.FactKindVital:
		return buildVital(m)
	case entities.FactKindAllergy:
		substance := str(m, "substance", "allergen", "name")
		if substance == "" {
			return entities.ExtractedFact{}, invalid("substance", "allergy without substance")
		}
		return entities.ExtractedFact{Kind: c.kind, Allergy: &entities.AllergyFact{
			Substance: substance,
			Reaction:  str(m, "reaction"),
		}}, nil
	case entities.FactKindEvent:
		desc := str(m, "description", "event", "text")
		if desc == "" {
			return entities.ExtractedFact{}, invalid("description", "event without description")
		}
		return entities.ExtractedFact{Kind: c.kind, Event: &entities.EventFact{
			Description: desc,
			Time:        str(m, "time", "at"),
		}}, nil
	default:
		text := str(m, "text", "note", "task", "description")
		if text == "" {
			return entities.ExtractedFact{}, invalid("text", "note without text")
		}
		return entities.ExtractedFact{Kind: entities.FactKindNote, Note: &entities.NoteFact{Text: text}}, nil
	}
}

// shorthand expands bare strings in grouped lists
func shorthand(kind entities.FactKind, text string) map[string]any {
	switch kind {
	case entities.FactKindMedication:
		return map[string]any{"name": text}
	case entities.FactKindAllergy:
		return map[string]any{"substance": text}
	case entities.FactKindEvent:
		return map[string]any{"description": text}
	case entities.FactKindVital:
		return map[string]any{"raw": text}
	}
	return map[string]any{"text": text}
}

func buildMedication(m map[string]any) (entities.ExtractedFact, *entities.Diagnostic) {
	name := str(m, "name", "medication", "med_name", "drug")
	if name == "" {
		return entities.ExtractedFact{}, invalid("name", "medication without name")
	}

	med := &entities.MedicationFact{
		Name:              name,
		Dose:              str(m, "dose", "dosage", "amount"),
		Route:             str(m, "route"),
		FrequencyCode:     str(m, "frequency_code", "frequency", "freq"),
		AdministeredAtRaw: str(m, "administered_at", "time_given", "time_administered", "last_given", "time"),
		Reason:            str(m, "reason", "indication"),
	}
	if med.Dose == "" {
		med.Dose = entities.DoseUnspecified
	}
	if med.Route == "" {
		med.Route = entities.RouteUnspecified
	}
	if med.AdministeredAtRaw != "" {
		if t, err := time.Parse(time.RFC3339, med.AdministeredAtRaw); err == nil {
			med.AdministeredAt = &t
		}
	}
	return entities.ExtractedFact{Kind: entities.FactKindMedication, Medication: med}, nil
}

func buildVital(m map[string]any) (entities.ExtractedFact, *entities.Diagnostic) {
	vtype := str(m, "type", "vital_type", "vital", "name")
	if vtype == "" {
		return entities.ExtractedFact{}, invalid("type", "vital without type")
	}
	vtype = canonicalVitalType(vtype)

	raw := str(m, "value", "reading", "raw")
	if raw == "" {
		sys, dia := str(m, "systolic"), str(m, "diastolic")
		switch {
		case sys != "" && dia != "":
			raw = sys + "/" + dia
		case sys != "":
			raw = sys
		}
	}
	if raw == "" {
		return entities.ExtractedFact{}, invalid("value", fmt.Sprintf("vital %s without value", vtype))
	}

	vital := &entities.VitalFact{
		Type:  vtype,
		Raw:   raw,
		Unit:  str(m, "unit"),
		Trend: strings.ToLower(str(m, "trend")),
	}
	value, secondary, unit, ok := parseVitalValue(vtype, raw)
	if ok {
		vital.Value = value
		vital.Secondary = secondary
		if vital.Unit == "" {
			vital.Unit = unit
		} else {
			vital.Unit = normalizeUnit(vital.Unit)
		}
	} else {
		vital.Opaque = true
	}
	return entities.ExtractedFact{Kind: entities.FactKindVital, Vital: vital}, nil
}

// ExtractAlerts reads model-flagged alerts, keeping the highest severity per alert type
func (p *Parser) ExtractAlerts(raw any) ([]entities.Alert, []entities.Diagnostic) {
	alerts := make([]entities.Alert, 0)
	diags := make([]entities.Diagnostic, 0)

	root := asMap(raw)
	if root == nil {
		return alerts, diags
	}

	var list []any
	for _, key := range []string{"alerts", "risk_flags", "risk_alerts"} {
		if l, ok := root[key].([]any); ok {
			list = l
			break
		}
	}

	position := make(map[string]int)
	for i, item := range list {
		m := asMap(item)
		alertType := str(m, "alert_type", "type", "name")
		if alertType == "" {
			diags = append(diags, entities.Diagnostic{Kind: entities.DiagnosticValidation, Index: i, Field: "alert_type", Reason: "alert without type"})
			continue
		}
		sev, err := entities.ParseSeverity(str(m, "severity", "level"))
		if err != nil {
			diags = append(diags, entities.Diagnostic{Kind: entities.DiagnosticValidation, Index: i, Field: "severity", Reason: err.Error()})
			continue
		}
		alert := entities.Alert{
			AlertType:      alertType,
			Severity:       sev,
			Reason:         str(m, "reason", "description"),
			Source:         entities.AlertSourceExtractionFlag,
			ActionRequired: str(m, "action_required", "action"),
		}
		if alert.ActionRequired == "" {
			alert.ActionRequired = entities.DefaultActionRequired
		}

		if at, seen := position[alertType]; seen {
			if sev.Rank() > alerts[at].Severity.Rank() {
				alerts[at] = alert
			}
			continue
		}
		position[alertType] = len(alerts)
		alerts = append(alerts, alert)
	}
	return alerts, diags
}

// ExtractPatient reads the patient header from either a summary block or flat keys
func (p *Parser) ExtractPatient(raw any) entities.PatientSnapshot {
	root := asMap(raw)
	src := asMap(root["summary"])
	if src == nil {
		src = asMap(root["patient"])
	}
	if src == nil {
		src = root
	}

	snap := entities.PatientSnapshot{
		Name:           str(src, "patient_name", "name"),
		Bed:            str(src, "bed", "bed_number"),
		ChiefComplaint: str(src, "chief_complaint", "diagnosis", "admission_reason"),
	}
	if age, err := strconv.Atoi(str(src, "age")); err == nil && age > 0 {
		snap.Age = &age
	}
	return snap
}

func invalid(field, reason string) *entities.Diagnostic {
	return &entities.Diagnostic{Kind: entities.DiagnosticValidation, Field: field, Reason: reason}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// str returns the first non-empty value among keys, rendering numbers without exponent
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

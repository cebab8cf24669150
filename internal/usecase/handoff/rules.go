package handoff

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

//go:embed rules/default_rules.yaml
var defaultRulesYAML []byte

// Rules are the clinical rule tables driving temporal, omission and risk logic.
// A loaded Rules value is never mutated and can be shared across runs.
type Rules struct {
	Frequencies             []FrequencyRule   `yaml:"frequencies"`
	TimeCriticalMedications []string          `yaml:"time_critical_medications"`
	DayParts                map[string]string `yaml:"day_parts"`
	VitalThresholds         []VitalThreshold  `yaml:"vital_thresholds"`
	Omissions               []OmissionRule    `yaml:"omissions"`
	NegationKeywords        []string          `yaml:"negation_keywords"`
	Scoring                 Scoring           `yaml:"scoring"`

	frequencyIndex map[string]FrequencyRule
	dayParts       map[string]time.Duration
}

// FrequencyRule maps dosing codes to an interval
type FrequencyRule struct {
	Codes         []string `yaml:"codes"`
	IntervalHours float64  `yaml:"interval_hours"`
	AsNeeded      bool     `yaml:"as_needed"`
}

// Interval returns the dosing interval
func (f FrequencyRule) Interval() time.Duration {
	return time.Duration(f.IntervalHours * float64(time.Hour))
}

// VitalThreshold adds Weight to the score when a vital crosses Limit
type VitalThreshold struct {
	AlertType string            `yaml:"alert_type"`
	Vital     string            `yaml:"vital"`
	Operator  string            `yaml:"operator"`
	Limit     float64           `yaml:"limit"`
	Weight    int               `yaml:"weight"`
	Severity  entities.Severity `yaml:"severity"`
	Reason    string            `yaml:"reason"`
	Action    string            `yaml:"action"`
}

// Matches evaluates the threshold against a value
func (t VitalThreshold) Matches(v float64) bool {
	switch t.Operator {
	case "lt":
		return v < t.Limit
	case "lte":
		return v <= t.Limit
	case "gt":
		return v > t.Limit
	case "gte":
		return v >= t.Limit
	}
	return false
}

// OmissionRule expects corroborating facts whenever its trigger matches
type OmissionRule struct {
	Category              string   `yaml:"category"`
	ExpectedItem          string   `yaml:"expected_item"`
	Reason                string   `yaml:"reason"`
	SafetyCritical        bool     `yaml:"safety_critical"`
	MedicationKeywords    []string `yaml:"medication_keywords"`
	DiagnosisKeywords     []string `yaml:"diagnosis_keywords"`
	MinMedicationMatches  int      `yaml:"min_medication_matches"`
	CorroboratingKinds    []string `yaml:"corroborating_kinds"`
	CorroboratingVitals   []string `yaml:"corroborating_vitals"`
	CorroboratingKeywords []string `yaml:"corroborating_keywords"`
}

// Scoring holds risk weights and band boundaries
type Scoring struct {
	OmissionWeight               int                       `yaml:"omission_weight"`
	SafetyCriticalOmissionWeight int                       `yaml:"safety_critical_omission_weight"`
	OverdueWeight                int                       `yaml:"overdue_weight"`
	MaxScore                     int                       `yaml:"max_score"`
	TrendDelta                   int                       `yaml:"trend_delta"`
	Floors                       map[entities.Severity]int `yaml:"floors"`
	Bands                        Bands                     `yaml:"bands"`
}

// Bands are the lower bounds of each score bucket above LOW
type Bands struct {
	Medium   int `yaml:"medium"`
	High     int `yaml:"high"`
	Critical int `yaml:"critical"`
}

// Bucket maps a score to a severity
func (b Bands) Bucket(score int) entities.Severity {
	switch {
	case score >= b.Critical:
		return entities.SeverityCritical
	case score >= b.High:
		return entities.SeverityHigh
	case score >= b.Medium:
		return entities.SeverityMedium
	}
	return entities.SeverityLow
}

// DefaultRules returns the embedded rule tables
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded rules are invalid: %v", err))
	}
	return r
}

// LoadRules reads rule tables from path, falling back to the embedded defaults when path is empty
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates YAML rule tables
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Rules) compile() error {
	r.frequencyIndex = make(map[string]FrequencyRule)
	for i, f := range r.Frequencies {
		if !f.AsNeeded && f.IntervalHours <= 0 {
			return fmt.Errorf("frequency rule %d: interval_hours must be positive", i)
		}
		for _, code := range f.Codes {
			r.frequencyIndex[normalizeFrequencyCode(code)] = f
		}
	}

	r.dayParts = make(map[string]time.Duration)
	for word, clock := range r.DayParts {
		t, err := time.Parse("15:04", clock)
		if err != nil {
			return fmt.Errorf("day part %q: %w", word, err)
		}
		r.dayParts[strings.ToLower(word)] = time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	}

	for i, t := range r.VitalThresholds {
		if !t.Severity.IsValid() {
			return fmt.Errorf("vital threshold %d: invalid severity %q", i, t.Severity)
		}
		switch t.Operator {
		case "lt", "lte", "gt", "gte":
		default:
			return fmt.Errorf("vital threshold %d: invalid operator %q", i, t.Operator)
		}
		if t.Weight < 0 {
			return fmt.Errorf("vital threshold %d: weight must not be negative", i)
		}
	}

	for i, o := range r.Omissions {
		if o.Category == "" {
			return fmt.Errorf("omission rule %d: category is required", i)
		}
		if len(o.MedicationKeywords) == 0 && len(o.DiagnosisKeywords) == 0 {
			return fmt.Errorf("omission rule %q: needs medication or diagnosis keywords", o.Category)
		}
	}

	s := r.Scoring
	if s.MaxScore <= 0 {
		return fmt.Errorf("scoring: max_score must be positive")
	}
	if !(s.Bands.Medium <= s.Bands.High && s.Bands.High <= s.Bands.Critical) {
		return fmt.Errorf("scoring: bands must be ascending")
	}
	for sev := range s.Floors {
		if !sev.IsValid() {
			return fmt.Errorf("scoring: invalid floor severity %q", sev)
		}
	}
	return nil
}

// Frequency looks up a dosing code such as "BD", "q6h" or "B.I.D."
func (r *Rules) Frequency(code string) (FrequencyRule, bool) {
	f, ok := r.frequencyIndex[normalizeFrequencyCode(code)]
	return f, ok
}

// DayPart resolves a colloquial time-of-day word to an offset from midnight
func (r *Rules) DayPart(word string) (time.Duration, bool) {
	d, ok := r.dayParts[strings.ToLower(strings.TrimSpace(word))]
	return d, ok
}

// IsTimeCritical reports whether a medication is on the time-critical list
func (r *Rules) IsTimeCritical(medication string) bool {
	return containsAny(strings.ToLower(medication), r.TimeCriticalMedications)
}

func normalizeFrequencyCode(code string) string {
	code = strings.ToUpper(code)
	return strings.NewReplacer(".", "", " ", "", "-", "").Replace(code)
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

package handoff

import (
	"strings"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

// OmissionDetector checks facts against standard-of-care expectations
type OmissionDetector struct {
	rules *Rules
}

// NewOmissionDetector creates a detector over the given rule tables
func NewOmissionDetector(rules *Rules) *OmissionDetector {
	return &OmissionDetector{rules: rules}
}

// Detect emits one omission per rule whose trigger matches and whose expected
// corroborating fact is absent. Matching is case-insensitive substring matching.
func (d *OmissionDetector) Detect(facts []entities.ExtractedFact, diagnosisHint string) entities.OmissionReport {
	report := entities.OmissionReport{Items: make([]entities.Omission, 0)}

	medications := make([]string, 0)
	for _, f := range facts {
		if f.Kind == entities.FactKindMedication && f.Medication != nil {
			medications = append(medications, strings.ToLower(f.Medication.Name))
		}
	}
	hint := strings.ToLower(diagnosisHint)

	for _, rule := range d.rules.Omissions {
		if !triggered(rule, medications, hint) {
			continue
		}
		if corroborated(rule, facts, d.rules.NegationKeywords) {
			continue
		}
		report.Items = append(report.Items, entities.Omission{
			ExpectedItem:   rule.ExpectedItem,
			Category:       rule.Category,
			ReasonExpected: rule.Reason,
			SafetyCritical: rule.SafetyCritical,
		})
	}
	return report
}

func triggered(rule OmissionRule, medications []string, hint string) bool {
	if hint != "" && containsAny(hint, rule.DiagnosisKeywords) {
		return true
	}
	if len(rule.MedicationKeywords) == 0 {
		return false
	}

	need := rule.MinMedicationMatches
	if need <= 0 {
		need = 1
	}
	matched := 0
	for _, name := range medications {
		if containsAny(name, rule.MedicationKeywords) {
			matched++
		}
	}
	return matched >= need
}

// corroborated reports whether any fact documents what the rule expects.
// Medication facts never corroborate by keyword, and a clause carrying a
// negation keyword does not count.
func corroborated(rule OmissionRule, facts []entities.ExtractedFact, negations []string) bool {
	for _, f := range facts {
		text := f.Text()
		negated := containsAny(text, negations)
		if !negated {
			for _, kind := range rule.CorroboratingKinds {
				if string(f.Kind) == kind {
					return true
				}
			}
			if f.Kind == entities.FactKindVital && f.Vital != nil {
				for _, v := range rule.CorroboratingVitals {
					if strings.EqualFold(f.Vital.Type, v) {
						return true
					}
				}
			}
		}
		if f.Kind == entities.FactKindMedication {
			continue
		}
		for _, clause := range strings.FieldsFunc(text, isClauseBreak) {
			if containsAny(clause, rule.CorroboratingKeywords) && !containsAny(clause, negations) {
				return true
			}
		}
	}
	return false
}

func isClauseBreak(r rune) bool {
	switch r {
	case '.', ';', ',', '\n':
		return true
	}
	return false
}

package handoff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

// DefaultContextLimit is the number of prior handoffs folded into context
const DefaultContextLimit = 2

const shiftTimeLayout = "2006-01-02 15:04"

// BuildContext keeps the limit most recent summaries, most recent first, and renders a digest.
// The input slice is not modified.
func BuildContext(patientID int64, history []entities.HandoffSummary, limit int) entities.PriorContext {
	if limit <= 0 {
		limit = DefaultContextLimit
	}

	sorted := make([]entities.HandoffSummary, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ShiftTime.After(sorted[j].ShiftTime)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	pc := entities.PriorContext{
		PatientID: patientID,
		Entries:   make([]entities.ContextEntry, 0, len(sorted)),
	}
	if len(sorted) == 0 {
		pc.Empty = true
		pc.Digest = entities.NoPriorContextDigest
		return pc
	}

	lines := make([]string, 0, len(sorted))
	for _, s := range sorted {
		line := digestLine(s)
		pc.Entries = append(pc.Entries, entities.ContextEntry{Summary: s, Line: line})
		lines = append(lines, line)
	}
	pc.Digest = strings.Join(lines, "\n")
	return pc
}

func digestLine(s entities.HandoffSummary) string {
	return fmt.Sprintf("Shift %s: %s, Risk: %s", s.ShiftTime.Format(shiftTimeLayout), s.ShortSummary, s.OverallRisk)
}

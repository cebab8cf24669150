package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

func severityColor(s entities.Severity) *color.Color {
	switch s {
	case entities.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case entities.SeverityHigh:
		return color.New(color.FgRed)
	case entities.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func printReport(out io.Writer, result *entities.HandoffAnalysisResult) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	fmt.Fprintf(out, "%s %s (bed %s)\n", bold.Sprint("Patient:"), result.Patient.Name, result.Patient.Bed)
	fmt.Fprintf(out, "%s %s  score %d  trend %s\n",
		bold.Sprint("Risk:"),
		severityColor(result.Risk.OverallRisk).Sprint(result.Risk.OverallRisk),
		result.Risk.RiskScore,
		result.Risk.Trend,
	)
	if result.Degraded {
		fmt.Fprintf(out, "%s %s\n", color.New(color.FgYellow).Sprint("Degraded:"), strings.Join(result.DegradedReasons, ", "))
	}

	if len(result.Risk.Alerts) > 0 {
		fmt.Fprintln(out)
		bold.Fprintln(out, "Alerts")
		for _, a := range result.Risk.Alerts {
			fmt.Fprintf(out, "  [%s] %s: %s\n", severityColor(a.Severity).Sprint(a.Severity), a.AlertType, a.Reason)
			faint.Fprintf(out, "      %s (%s)\n", a.ActionRequired, a.Source)
		}
	}

	if len(result.Schedule) > 0 {
		fmt.Fprintln(out)
		bold.Fprintln(out, "Dose schedule")
		for _, e := range result.Schedule {
			due := "unknown"
			if e.NextDueAt != nil {
				due = e.NextDueAt.Format("2006-01-02 15:04")
			}
			line := fmt.Sprintf("  %-20s %-6s next %s", e.MedicationName, e.FrequencyCode, due)
			if e.Overdue {
				line += " " + color.New(color.FgRed).Sprint("OVERDUE")
			}
			if e.Inferred {
				line += faint.Sprint(" (inferred)")
			}
			fmt.Fprintln(out, line)
		}
	}

	if len(result.Omissions.Items) > 0 {
		fmt.Fprintln(out)
		bold.Fprintln(out, "Omissions")
		for _, o := range result.Omissions.Items {
			marker := "-"
			if o.SafetyCritical {
				marker = color.New(color.FgRed).Sprint("!")
			}
			fmt.Fprintf(out, "  %s %s: %s\n", marker, o.ExpectedItem, o.ReasonExpected)
		}
	}

	if len(result.Diagnostics) > 0 {
		fmt.Fprintln(out)
		faint.Fprintf(out, "%d diagnostic(s)\n", len(result.Diagnostics))
		for _, d := range result.Diagnostics {
			faint.Fprintf(out, "  %s #%d %s: %s\n", d.Kind, d.Index, d.Field, d.Reason)
		}
	}

	fmt.Fprintln(out)
	bold.Fprintln(out, "Narrative")
	fmt.Fprintln(out, result.Narrative)
}

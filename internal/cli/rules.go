package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/handoff-assistant/internal/usecase/handoff"
)

// RulesCmd returns the rules command
func RulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect clinical rule tables",
	}
	cmd.AddCommand(rulesCheckCmd())
	return cmd
}

func rulesCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a rule tables file (embedded defaults when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			rules, err := handoff.LoadRules(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", color.New(color.FgRed).Sprint("INVALID"), err)
				return err
			}
			printRulesSummary(cmd.OutOrStdout(), path, rules)
			return nil
		},
	}
}

func printRulesSummary(out io.Writer, path string, rules *handoff.Rules) {
	source := path
	if source == "" {
		source = "embedded defaults"
	}
	fmt.Fprintf(out, "%s %s\n", color.New(color.FgGreen).Sprint("OK"), source)
	fmt.Fprintf(out, "  frequencies:          %d\n", len(rules.Frequencies))
	fmt.Fprintf(out, "  time-critical meds:   %d\n", len(rules.TimeCriticalMedications))
	fmt.Fprintf(out, "  day parts:            %d\n", len(rules.DayParts))
	fmt.Fprintf(out, "  vital thresholds:     %d\n", len(rules.VitalThresholds))
	fmt.Fprintf(out, "  omission rules:       %d\n", len(rules.Omissions))
	b := rules.Scoring.Bands
	fmt.Fprintf(out, "  bands:                medium>=%d high>=%d critical>=%d\n", b.Medium, b.High, b.Critical)
}

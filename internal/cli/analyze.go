package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	"github.com/johnquangdev/handoff-assistant/internal/usecase/handoff"
	pkgai "github.com/johnquangdev/handoff-assistant/pkg/ai"
	"github.com/johnquangdev/handoff-assistant/pkg/config"
)

type analyzeOptions struct {
	transcriptPath string
	extractionPath string
	priorPath      string
	patientID      int64
	at             string
	diagnosis      string
	rulesPath      string
	locale         string
	live           bool
	asJSON         bool
}

// AnalyzeCmd returns the analyze command
func AnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the analysis pipeline on a transcript without touching storage",
		Long: `Analyze a handoff transcript offline.

The extraction step is replayed from --extraction (a saved model response) unless
--live is given, in which case the configured extraction endpoint is called.
Prior context may be supplied as a JSON array of handoff summaries via --prior.`,
		Example: `  handoffctl analyze --transcript shift.txt --extraction extraction.json --at 2026-03-01T19:00:00Z
  handoffctl analyze --transcript - --live --json < shift.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.transcriptPath, "transcript", "t", "", "transcript file, or - for stdin (required)")
	cmd.Flags().StringVarP(&opts.extractionPath, "extraction", "e", "", "saved extraction response to replay")
	cmd.Flags().StringVar(&opts.priorPath, "prior", "", "JSON array of prior handoff summaries")
	cmd.Flags().Int64VarP(&opts.patientID, "patient-id", "p", 1, "patient id")
	cmd.Flags().StringVar(&opts.at, "at", "", "handoff time (RFC3339, default now)")
	cmd.Flags().StringVar(&opts.diagnosis, "diagnosis", "", "diagnosis hint")
	cmd.Flags().StringVar(&opts.rulesPath, "rules", "", "rule tables YAML (default embedded)")
	cmd.Flags().StringVar(&opts.locale, "locale", "en", "narrative locale (en|hinglish)")
	cmd.Flags().BoolVar(&opts.live, "live", false, "call the configured extraction endpoint")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("transcript")

	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, stdin io.Reader, opts analyzeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	text, err := readInput(opts.transcriptPath, stdin)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	at := time.Now()
	if opts.at != "" {
		at, err = time.Parse(time.RFC3339, opts.at)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	rules, err := handoff.LoadRules(opts.rulesPath)
	if err != nil {
		return err
	}

	var history []entities.HandoffSummary
	if opts.priorPath != "" {
		raw, err := os.ReadFile(opts.priorPath)
		if err != nil {
			return fmt.Errorf("failed to read prior context: %w", err)
		}
		if err := json.Unmarshal(raw, &history); err != nil {
			return fmt.Errorf("failed to decode prior context: %w", err)
		}
	}

	extractor, err := buildExtractor(opts)
	if err != nil {
		return err
	}

	pipeline := handoff.NewPipeline(rules, handoff.WithLocale(handoff.ParseLocale(opts.locale)))
	result, err := pipeline.Run(ctx, handoff.RunInput{
		Transcript: entities.Transcript{
			PatientID:     opts.patientID,
			Text:          string(text),
			HandoffTime:   at,
			DiagnosisHint: opts.diagnosis,
		},
		Prior: handoff.BuildContext(opts.patientID, history, handoff.DefaultContextLimit),
	}, extractor)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printReport(out, result)
	return nil
}

func buildExtractor(opts analyzeOptions) (handoff.Extractor, error) {
	if opts.live {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return pkgai.NewExtractionClient(&cfg.Extraction), nil
	}
	if opts.extractionPath == "" {
		// Without a replay file the run degrades to extraction_unavailable
		return nil, nil
	}

	content, err := os.ReadFile(opts.extractionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction response: %w", err)
	}
	return handoff.ExtractorFunc(func(context.Context, pkgai.ExtractionRequest) (string, error) {
		return string(content), nil
	}), nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

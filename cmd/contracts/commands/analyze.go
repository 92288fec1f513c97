package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"contractpulse/internal/compliance"
	"contractpulse/internal/exporter"
	"contractpulse/internal/validation"
	"contractpulse/pkg/contracts/domain"
)

type analyzeOptions struct {
	mode   string
	date   string
	format string
	output string
}

func newAnalyzeCommand(opts *globalOptions) *cobra.Command {
	ao := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Compute compliance analytics for a contract spreadsheet",
		Long: `Imports the spreadsheet and computes per-zone compliance for the
selected mode at the reference date (default today).

Modes:
  BONUS  zones must reach 90% of the contracted volume
  GIF    zones must reach 95% of the contracted volume

Example:
  contracts analyze contracts.xlsx --mode GIF --date 15/06/2025
  contracts analyze contracts.xlsx --format csv --output june.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(ao.format, "json", "csv"); err != nil {
				return err
			}
			ref, err := parseDate(ao.date)
			if err != nil {
				return err
			}

			env, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			mode := env.cfg.DefaultMode()
			if ao.mode != "" {
				if mode, err = domain.ParseComplianceMode(ao.mode); err != nil {
					return err
				}
			}

			result, err := importFile(cmd.Context(), env, args[0])
			if err != nil {
				return err
			}
			analytics := compliance.Compute(result.Zones, mode, ref)

			return ao.write(cmd, env, analytics)
		},
	}

	cmd.Flags().StringVarP(&ao.mode, "mode", "m", "", "compliance mode (BONUS|GIF), default from config")
	cmd.Flags().StringVarP(&ao.date, "date", "d", "", "reference date DD/MM/YYYY or YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&ao.format, "format", "f", "json", "output format (json|csv)")
	cmd.Flags().StringVarP(&ao.output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func (ao *analyzeOptions) write(cmd *cobra.Command, env *environment, result domain.AnalyticsResult) error {
	w := cmd.OutOrStdout()
	if ao.output != "" {
		v := validation.NewFileValidator(0, env.logger)
		if err := v.ValidateOutputFile(ao.output); err != nil {
			return err
		}
		f, err := os.Create(ao.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if ao.format == "csv" {
		return exporter.WriteAnalytics(w, result)
	}
	return writeJSON(w, result)
}

// parseDate accepts DD/MM/YYYY or YYYY-MM-DD. Empty means today.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now(), nil
	}
	for _, layout := range []string{compliance.DateLayout, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected DD/MM/YYYY or YYYY-MM-DD", value)
}

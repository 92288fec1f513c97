package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"contractpulse/internal/validation"
	"contractpulse/pkg/contracts/domain"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a contract spreadsheet and print its zones",
		Long: `Reads the first sheet of the spreadsheet, detects the header, and
prints one line per origin zone together with the row counts.

Example:
  contracts import contracts.xlsx
  contracts import contracts.csv --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "table", "json"); err != nil {
				return err
			}
			env, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result, err := importFile(cmd.Context(), env, args[0])
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return printImportSummary(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table|json)")
	return cmd
}

// importFile validates and imports one spreadsheet from disk
func importFile(ctx context.Context, env *environment, path string) (*domain.ImportResult, error) {
	v := validation.NewFileValidator(env.cfg.Import.MaxUploadBytes, env.logger)
	if err := v.ValidateSpreadsheet(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return env.importer.ImportFile(ctx, path, f)
}

func printImportSummary(w io.Writer, result *domain.ImportResult) error {
	fmt.Fprintf(w, "Valid rows     : %d\n", result.ValidRowCount)
	fmt.Fprintf(w, "Duplicate rows : %d\n", result.DuplicateRowCount)
	fmt.Fprintf(w, "Routes         : %d\n", result.RouteCount)
	fmt.Fprintf(w, "Zones          : %d\n", len(result.Zones))
	fmt.Fprintf(w, "Header detected: %t\n\n", result.HeaderDetected)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ZONE\tNAME\tPROGRAMMER\tROUTES")
	for _, z := range result.Zones {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", z.ID, z.Name, z.Programmer, len(z.Routes))
	}
	return tw.Flush()
}

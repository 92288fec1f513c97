package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"contractpulse/internal/config"
	"contractpulse/internal/importer"
	"contractpulse/internal/infrastructure"
	"contractpulse/pkg/contracts"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configFile string
	verbose    bool
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "contracts",
		Short: "Contract spreadsheet import and compliance analytics",
		Long: `ContractPulse CLI

Imports a freight contract spreadsheet (.xlsx, .xls or .csv), groups its
routes into origin zones and reports compliance against the monthly
contracted volumes.

Examples:
  contracts import contracts.xlsx
  contracts analyze contracts.xlsx --mode GIF --date 15/06/2025
  contracts analyze contracts.csv --format csv --output reports/june.csv`,
		Version:      contracts.GetFullVersionString(),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newImportCommand(opts))
	rootCmd.AddCommand(newAnalyzeCommand(opts))

	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return NewRootCommand().Execute()
}

// environment is what every command needs after flags are parsed
type environment struct {
	cfg      *config.Config
	logger   *slog.Logger
	importer *importer.Importer
}

func (o *globalOptions) load(stderr io.Writer) (*environment, error) {
	cfg, err := config.LoadFrom(o.configFile)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger := infrastructure.NewLogger(stderr, level)

	expander := importer.DefaultExpander()
	if file := cfg.Locations.AbbreviationsFile; file != "" {
		expander, err = importer.LoadExpander(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load location abbreviations: %w", err)
		}
	}

	return &environment{
		cfg:    cfg,
		logger: logger,
		importer: importer.New(importer.Options{
			HeaderWindow: cfg.Import.HeaderWindow,
			Expander:     expander,
			Logger:       logger,
		}),
	}, nil
}

// Package cmd implements the urnas command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zalepa/urnas/config"
	"github.com/zalepa/urnas/logging"
)

var (
	configPath string
	verbose    bool

	inputDir   string
	outputDir  string
	state      string
	year       int
	sqliteFile string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "urnas",
	Short: "Build per-municipality election metrics and boundary maps",
	Long: `urnas turns raw TSE per-section vote results and IBGE municipal
boundaries for one state into two files for the results map:

  metrics_<year>.json       winners and top candidates per municipality and zone
  municipios_<uf>.geojson   municipal boundaries in EPSG:4326

Run without a subcommand to perform a full build.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runBuild,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "urnas.yaml", "YAML config file (missing file means defaults)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&inputDir, "input", "", "directory holding the raw inputs")
	pf.StringVar(&outputDir, "output", "", "directory receiving the outputs")
	pf.StringVar(&state, "state", "", "two-letter state code")
	pf.IntVar(&year, "year", 0, "election year")
	pf.StringVar(&sqliteFile, "sqlite", "", "also export a SQLite database to this file")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(geoCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(reportCmd)
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputDir = inputDir
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("state") {
		cfg.State = state
	}
	if flags.Changed("year") {
		cfg.Year = year
	}
	if flags.Changed("sqlite") {
		cfg.SQLiteFile = sqliteFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

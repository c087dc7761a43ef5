package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zalepa/urnas/pipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Locate inputs, aggregate votes and write metrics and geometry",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %d: %d municipalities, %d of %d rows kept\n",
		cfg.State, cfg.Year, res.Municipalities, res.Rows.Kept, res.Rows.Read)
	fmt.Fprintf(out, "  %s\n  %s\n", res.MetricsPath, res.GeometryPath)
	if res.SQLitePath != "" {
		fmt.Fprintf(out, "  %s\n", res.SQLitePath)
	}
	return nil
}

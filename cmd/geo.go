package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zalepa/urnas/pipeline"
)

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Convert the municipal boundary shapefile to GeoJSON only",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		stats, err := pipeline.Geometry(cfg, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d features (%s)\n", cfg.GeometryPath(), stats.Features, stats.CRS)
		return nil
	},
}

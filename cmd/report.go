package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zalepa/urnas/metrics"
	"github.com/zalepa/urnas/report"
)

var reportPDF string

var reportCmd = &cobra.Command{
	Use:   "report [metrics.json]",
	Short: "Summarize municipality winners as a table and a PDF of bar charts",
	Long: `Counts how many municipalities each candidate won, per office and round,
prints the counts and renders one bar chart page per race. Without an argument
the metrics file of the configured state and year is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := cfg.MetricsPath()
		if len(args) == 1 {
			path = args[0]
		}
		doc, err := metrics.Read(path)
		if err != nil {
			return err
		}

		races := report.Tally(doc)
		if err := report.WriteTable(cmd.OutOrStdout(), races); err != nil {
			return err
		}

		pdfPath := reportPDF
		if pdfPath == "" {
			pdfPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".pdf"
		}
		title := fmt.Sprintf("%s %d", cfg.State, doc.Meta.Year)
		if err := report.RenderPDF(pdfPath, title, races); err != nil {
			return err
		}
		pages, err := report.PageCount(pdfPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nwrote %s (%d pages)\n", pdfPath, pages)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportPDF, "pdf", "", "output PDF path (default: metrics path with .pdf)")
}

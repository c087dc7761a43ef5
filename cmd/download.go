package cmd

import (
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zalepa/urnas/fetch"
	"github.com/zalepa/urnas/pipeline"
)

var (
	downloadForce   bool
	downloadTimeout time.Duration
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the raw TSE and IBGE archives into the input directory",
	Long: `Download fetches the configured urls (boundaries, votes, profile) for the
selected state and year into input_dir. Files already present are skipped
unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().BoolVar(&downloadForce, "force", false, "download even when the file already exists")
	downloadCmd.Flags().DurationVar(&downloadTimeout, "timeout", 10*time.Minute, "per-file download timeout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: downloadTimeout}
	sources := []struct{ input, url string }{
		{pipeline.InputBoundaries, cfg.URLs.Boundaries},
		{pipeline.InputVotes, cfg.URLs.Votes},
		{pipeline.InputProfile, cfg.URLs.Profile},
	}

	var downloaded, skipped int
	for _, s := range sources {
		if s.url == "" {
			logger.Debug("no url configured", zap.String("input", s.input))
			continue
		}
		url := cfg.Expand(s.url)
		dest := filepath.Join(cfg.InputDir, path.Base(url))

		res, err := fetch.File(cmd.Context(), client, url, dest, downloadForce)
		if err != nil {
			return fmt.Errorf("%s: %w", s.input, err)
		}
		if res.Skipped {
			logger.Info("skip existing file", zap.String("input", s.input), zap.String("path", dest))
			skipped++
			continue
		}
		logger.Info("downloaded",
			zap.String("input", s.input),
			zap.String("url", url),
			zap.Int64("bytes", res.Bytes))
		downloaded++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Done: %d downloaded, %d skipped\n", downloaded, skipped)
	return nil
}

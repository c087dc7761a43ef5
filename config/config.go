// Package config holds the settings of a pipeline run. Values come from
// built-in defaults, an optional YAML file, then URNAS_* environment
// variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes one run.
type Config struct {
	InputDir     string   `yaml:"input_dir"`     // Raw artifacts are searched here
	OutputDir    string   `yaml:"output_dir"`    // Metrics and geometry are written here
	ScratchDir   string   `yaml:"scratch_dir"`   // Archives are extracted here
	State        string   `yaml:"state"`         // Two-letter state code, e.g. AL
	Year         int      `yaml:"year"`          // Election year
	MetricsFile  string   `yaml:"metrics_file"`  // Template, {year} expanded
	GeometryFile string   `yaml:"geometry_file"` // Template, {state} expanded
	TopN         int      `yaml:"top_n"`         // Candidates kept per zone ranking
	CodeWidth    int      `yaml:"code_width"`    // Municipality code width after padding
	SQLiteFile   string   `yaml:"sqlite_file"`   // Optional export, relative to output_dir
	Patterns     Patterns `yaml:"patterns"`
	URLs         URLs     `yaml:"urls"` // Used by the download command only
}

// URLs are the public download locations of the raw inputs, with the same
// placeholders as Patterns. An empty URL is skipped.
type URLs struct {
	Boundaries string `yaml:"boundaries"`
	Votes      string `yaml:"votes"`
	Profile    string `yaml:"profile"`
}

// Patterns lists the ordered glob patterns tried for each input artifact.
// {STATE}, {state} and {year} are expanded before matching.
type Patterns struct {
	Boundaries []string `yaml:"boundaries"`
	Votes      []string `yaml:"votes"`
	Profile    []string `yaml:"profile"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		InputDir:     "raw_data",
		OutputDir:    filepath.Join("public", "data"),
		ScratchDir:   ".urnas_tmp",
		State:        "AL",
		Year:         2022,
		MetricsFile:  "metrics_{year}.json",
		GeometryFile: "municipios_{state}.geojson",
		TopN:         5,
		CodeWidth:    7,
		Patterns: Patterns{
			Boundaries: []string{
				"{STATE}_Municipios_2024.zip",
				"*Municipios*{STATE}*.zip",
				"*Municipios*{STATE}*.shp",
			},
			Votes: []string{
				"votacao_secao_{year}_{STATE}.zip",
				"*vot*secao*{STATE}*{year}*.zip",
				"*vot*secao*{STATE}*{year}*.csv",
			},
			Profile: []string{
				"perfil_eleitor_secao_{year}_{STATE}.zip",
				"*perfil*secao*{STATE}*{year}*.zip",
			},
		},
		URLs: URLs{
			Boundaries: "https://geoftp.ibge.gov.br/organizacao_do_territorio/malhas_territoriais/malhas_municipais/municipio_2024/UFs/{STATE}/{STATE}_Municipios_2024.zip",
			Votes:      "https://cdn.tse.jus.br/estatistica/sead/odsele/votacao_secao/votacao_secao_{year}_{STATE}.zip",
			Profile:    "https://cdn.tse.jus.br/estatistica/sead/odsele/perfil_eleitor_secao/perfil_eleitor_secao_{year}_{STATE}.zip",
		},
	}
}

// LoadFromFile loads configuration from path. A missing file yields the
// defaults. Environment overrides are applied before validation.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies URNAS_* environment variables. Values that do not
// parse are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("URNAS_INPUT_DIR"); v != "" {
		c.InputDir = v
	}
	if v := os.Getenv("URNAS_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("URNAS_STATE"); v != "" {
		c.State = v
	}
	if v := os.Getenv("URNAS_YEAR"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			c.Year = y
		}
	}
	if v := os.Getenv("URNAS_SQLITE_FILE"); v != "" {
		c.SQLiteFile = v
	}
}

// Validate checks the configuration and normalizes the state code to upper
// case.
func (c *Config) Validate() error {
	c.State = strings.ToUpper(strings.TrimSpace(c.State))
	if len(c.State) != 2 || !isLetters(c.State) {
		return fmt.Errorf("state must be a two-letter code (got: %q)", c.State)
	}
	if c.Year <= 0 {
		return fmt.Errorf("year must be > 0 (got: %d)", c.Year)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be > 0 (got: %d)", c.TopN)
	}
	if c.CodeWidth <= 0 {
		return fmt.Errorf("code_width must be > 0 (got: %d)", c.CodeWidth)
	}
	if c.InputDir == "" {
		return errors.New("input_dir must be set")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir must be set")
	}
	if c.ScratchDir == "" {
		return errors.New("scratch_dir must be set")
	}
	if c.MetricsFile == "" || c.GeometryFile == "" {
		return errors.New("metrics_file and geometry_file must be set")
	}
	for _, p := range []struct {
		name string
		list []string
	}{
		{"boundaries", c.Patterns.Boundaries},
		{"votes", c.Patterns.Votes},
		{"profile", c.Patterns.Profile},
	} {
		if len(p.list) == 0 {
			return fmt.Errorf("patterns.%s must not be empty", p.name)
		}
	}
	return nil
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Expand substitutes the run's placeholders in a pattern or file template.
func (c *Config) Expand(template string) string {
	r := strings.NewReplacer(
		"{STATE}", strings.ToUpper(c.State),
		"{state}", strings.ToLower(c.State),
		"{year}", strconv.Itoa(c.Year),
	)
	return r.Replace(template)
}

// ExpandAll expands every pattern of a list.
func (c *Config) ExpandAll(patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = c.Expand(p)
	}
	return out
}

// MetricsPath is where the metrics document is written.
func (c *Config) MetricsPath() string {
	return filepath.Join(c.OutputDir, c.Expand(c.MetricsFile))
}

// GeometryPath is where the GeoJSON layer is written.
func (c *Config) GeometryPath() string {
	return filepath.Join(c.OutputDir, c.Expand(c.GeometryFile))
}

// SQLitePath is where the optional database export is written, or "" when
// the export is disabled.
func (c *Config) SQLitePath() string {
	if c.SQLiteFile == "" {
		return ""
	}
	if filepath.IsAbs(c.SQLiteFile) {
		return c.SQLiteFile
	}
	return filepath.Join(c.OutputDir, c.Expand(c.SQLiteFile))
}

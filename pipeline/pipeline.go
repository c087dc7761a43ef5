// Package pipeline runs a full build: it locates the three raw inputs,
// converts the boundary layer, aggregates the vote file and writes every
// output artifact.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/zalepa/urnas/aggregate"
	"github.com/zalepa/urnas/config"
	"github.com/zalepa/urnas/geo"
	"github.com/zalepa/urnas/locate"
	"github.com/zalepa/urnas/metrics"
	"github.com/zalepa/urnas/normalize"
	"github.com/zalepa/urnas/schema"
	"github.com/zalepa/urnas/store"
	"github.com/zalepa/urnas/table"
)

// Logical input names, as used in logs and InputNotFoundError.
const (
	InputBoundaries = "boundaries"
	InputVotes      = "votes"
	InputProfile    = "profile"
)

// Inputs are the located raw artifacts of a run.
type Inputs struct {
	Boundaries string
	Votes      string
	Profile    string
}

// Result summarizes a completed run.
type Result struct {
	RunID          string
	Inputs         Inputs
	VotesFile      string
	Delimiter      rune
	Encoding       table.Encoding
	Rows           normalize.Stats
	Geometry       geo.Stats
	Municipalities int
	MetricsPath    string
	GeometryPath   string
	SQLitePath     string
}

// Run performs a build described by cfg. Nothing is written to the output
// directory unless every input was located and parsed. A nil log discards
// logging.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	res := &Result{RunID: uuid.NewString()}
	log = log.With(zap.String("run_id", res.RunID))
	log.Info("build started",
		zap.String("state", cfg.State),
		zap.Int("year", cfg.Year),
		zap.String("input_dir", cfg.InputDir))

	in, err := Locate(cfg)
	if err != nil {
		return nil, err
	}
	res.Inputs = in
	log.Info("inputs located",
		zap.String(InputBoundaries, in.Boundaries),
		zap.String(InputVotes, in.Votes),
		zap.String(InputProfile, in.Profile))

	fc, gstats, err := loadGeometry(in.Boundaries, cfg.ScratchDir)
	if err != nil {
		return nil, err
	}
	res.Geometry = gstats
	log.Info("geometry read",
		zap.Int("features", gstats.Features),
		zap.Int("skipped", gstats.Skipped),
		zap.String("crs", gstats.CRS))

	votes, err := loadVotes(in.Votes, cfg, log)
	if err != nil {
		return nil, err
	}
	res.VotesFile = votes.table.Path
	res.Delimiter = votes.table.Delimiter
	res.Encoding = votes.table.Encoding
	res.Rows = votes.stats

	profile, err := locate.Expand(in.Profile, cfg.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("%s input: %w", InputProfile, err)
	}
	log.Debug("profile extracted", zap.Int("files", len(profile)))

	agg := aggregate.Run(votes.rows, cfg.TopN)
	doc := metrics.Assemble(agg, metrics.Options{Year: cfg.Year, PartyKnown: votes.partyKnown})
	res.Municipalities = doc.Municipalities.Len()
	log.Info("aggregated",
		zap.Int("municipalities", res.Municipalities),
		zap.Int("zones", len(agg.Zones)),
		zap.Int("top_entries", len(agg.Top)),
		zap.Int("winners", len(agg.Winners)))

	res.GeometryPath = cfg.GeometryPath()
	if err := geo.Write(res.GeometryPath, fc); err != nil {
		return nil, err
	}
	res.MetricsPath = cfg.MetricsPath()
	if err := metrics.Write(res.MetricsPath, doc); err != nil {
		return nil, err
	}
	if p := cfg.SQLitePath(); p != "" {
		if err := store.Export(ctx, p, votes.rows, agg); err != nil {
			return nil, err
		}
		res.SQLitePath = p
	}

	log.Info("build finished",
		zap.String("metrics", res.MetricsPath),
		zap.String("geometry", res.GeometryPath),
		zap.String("sqlite", res.SQLitePath))
	return res, nil
}

// Locate finds all three inputs. It fails on the first one missing.
func Locate(cfg *config.Config) (Inputs, error) {
	var in Inputs
	var err error
	if in.Boundaries, err = locate.FindOne(cfg.InputDir, InputBoundaries, cfg.ExpandAll(cfg.Patterns.Boundaries)); err != nil {
		return in, err
	}
	if in.Votes, err = locate.FindOne(cfg.InputDir, InputVotes, cfg.ExpandAll(cfg.Patterns.Votes)); err != nil {
		return in, err
	}
	if in.Profile, err = locate.FindOne(cfg.InputDir, InputProfile, cfg.ExpandAll(cfg.Patterns.Profile)); err != nil {
		return in, err
	}
	return in, nil
}

// Geometry runs only the boundary conversion.
func Geometry(cfg *config.Config, log *zap.Logger) (geo.Stats, error) {
	if log == nil {
		log = zap.NewNop()
	}
	path, err := locate.FindOne(cfg.InputDir, InputBoundaries, cfg.ExpandAll(cfg.Patterns.Boundaries))
	if err != nil {
		return geo.Stats{}, err
	}
	files, err := locate.Expand(path, cfg.ScratchDir)
	if err != nil {
		return geo.Stats{}, fmt.Errorf("%s input: %w", InputBoundaries, err)
	}
	out := cfg.GeometryPath()
	stats, err := geo.Convert(files, out)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	log.Info("geometry written",
		zap.String("source", path),
		zap.String("output", out),
		zap.Int("features", stats.Features),
		zap.String("crs", stats.CRS))
	return stats, nil
}

func loadGeometry(path, scratch string) (*geojson.FeatureCollection, geo.Stats, error) {
	files, err := locate.Expand(path, scratch)
	if err != nil {
		return nil, geo.Stats{}, fmt.Errorf("%s input: %w", InputBoundaries, err)
	}
	shpPath, err := geo.FindShapefile(files)
	if err != nil {
		return nil, geo.Stats{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return geo.ReadFeatures(shpPath)
}

type votes struct {
	table      *table.Table
	rows       []normalize.Row
	stats      normalize.Stats
	partyKnown bool
}

func loadVotes(path string, cfg *config.Config, log *zap.Logger) (*votes, error) {
	files, err := locate.Expand(path, cfg.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("%s input: %w", InputVotes, err)
	}
	candidates := locate.Tabular(files)
	file, ok := locate.PickVotes(candidates)
	if !ok {
		return nil, &locate.InputNotFoundError{Input: InputVotes, Dir: path, Patterns: []string{"*.csv", "*.txt"}}
	}
	log.Info("vote file chosen", zap.String("file", file), zap.Int("candidates", len(candidates)))

	t, err := table.Read(file)
	if err != nil {
		return nil, err
	}
	log.Debug("vote file decoded",
		zap.String("delimiter", string(t.Delimiter)),
		zap.String("encoding", string(t.Encoding)),
		zap.Int("columns", len(t.Columns)))

	fm, err := schema.Resolve(t.Columns)
	if err != nil {
		return nil, err
	}

	rows, st := normalize.Rows(t, fm, normalize.Options{State: cfg.State, CodeWidth: cfg.CodeWidth})
	log.Info("rows normalized",
		zap.Int("read", st.Read),
		zap.Int("kept", st.Kept),
		zap.Int("other_state", st.OtherState),
		zap.Int("unknown_office", st.UnknownOffice),
		zap.Int("bad_key", st.BadKey),
		zap.Bool("state_filter", fm.Has(schema.State)),
		zap.Bool("party", fm.Has(schema.Party)))

	return &votes{table: t, rows: rows, stats: st, partyKnown: fm.Has(schema.Party)}, nil
}

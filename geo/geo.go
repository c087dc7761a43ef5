// Package geo converts a municipal boundary shapefile into a GeoJSON
// FeatureCollection in longitude/latitude (EPSG:4326).
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
	"golang.org/x/text/encoding/charmap"

	"github.com/zalepa/urnas/locate"
	"github.com/zalepa/urnas/outfile"
)

// ErrNoGeometryFound is returned when a boundaries artifact holds no .shp.
var ErrNoGeometryFound = errors.New("no shapefile found in boundaries input")

// ErrNoAttributeTable is returned when a shapefile has no .dbf sidecar.
var ErrNoAttributeTable = errors.New("shapefile attribute table (.dbf) not found")

// Stats summarizes one conversion.
type Stats struct {
	Features int    `json:"features"`
	Skipped  int    `json:"skipped"`
	CRS      string `json:"crs"`
}

// FindShapefile picks the .shp among the files of an expanded artifact.
func FindShapefile(files []string) (string, error) {
	path, ok := locate.FindExt(files, ".shp")
	if !ok {
		return "", ErrNoGeometryFound
	}
	return path, nil
}

// Convert reads the shapefile among files and writes it to outPath.
func Convert(files []string, outPath string) (Stats, error) {
	shpPath, err := FindShapefile(files)
	if err != nil {
		return Stats{}, err
	}
	fc, stats, err := ReadFeatures(shpPath)
	if err != nil {
		return stats, err
	}
	return stats, Write(outPath, fc)
}

// ReadFeatures loads every polygon of the shapefile at path, reprojected to
// longitude/latitude, with its DBF attributes as string properties. Shapes
// that are not polygons are skipped and counted.
func ReadFeatures(path string) (*geojson.FeatureCollection, Stats, error) {
	var stats Stats

	transform, crs, err := readProjection(path)
	if err != nil {
		return nil, stats, err
	}
	stats.CRS = crs

	if err := checkAttributeTable(path); err != nil {
		return nil, stats, err
	}
	r, err := shp.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("open shapefile %s: %w", filepath.Base(path), err)
	}
	defer r.Close()

	fields := r.Fields()
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for r.Next() {
		row, shape := r.Shape()
		g, ok := polygonGeometry(shape, transform)
		if !ok {
			stats.Skipped++
			continue
		}
		props := make(map[string]interface{}, len(fields))
		for i, f := range fields {
			props[f.String()] = attribute(r.ReadAttribute(row, i))
		}
		fc.Features = append(fc.Features, &geojson.Feature{Geometry: g, Properties: props})
		stats.Features++
	}
	if err := r.Err(); err != nil {
		return nil, stats, fmt.Errorf("read shapefile %s: %w", filepath.Base(path), err)
	}
	return fc, stats, nil
}

// Write encodes fc as GeoJSON at path, replacing any previous file only once
// the new one is complete.
func Write(path string, fc *geojson.FeatureCollection) error {
	if err := outfile.Write(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(fc)
	}); err != nil {
		return fmt.Errorf("write geometry: %w", err)
	}
	return nil
}

func readProjection(shpPath string) (Transform, string, error) {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	for _, ext := range []string{".prj", ".PRJ"} {
		data, err := os.ReadFile(base + ext)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("read projection: %w", err)
		}
		return ParsePRJ(base+ext, string(data))
	}
	return Identity, "geographic", nil
}

// checkAttributeTable requires the .dbf next to shpPath, under the name the
// shapefile reader opens (same base, lower-case "dbf").
func checkAttributeTable(shpPath string) error {
	dbf := shpPath[:len(shpPath)-len("shp")] + "dbf"
	_, err := os.Stat(dbf)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("stat attribute table: %w", err)
	}
	upper := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".DBF"
	if _, err := os.Stat(upper); err == nil {
		return fmt.Errorf("%s: %w (found %s, rename it to %s)",
			filepath.Base(shpPath), ErrNoAttributeTable, filepath.Base(upper), filepath.Base(dbf))
	}
	return fmt.Errorf("%s: %w", filepath.Base(shpPath), ErrNoAttributeTable)
}

// attribute cleans a raw DBF value. DBF text is usually Latin-1.
func attribute(raw string) string {
	s := strings.TrimSpace(strings.Trim(raw, "\x00"))
	if utf8.ValidString(s) {
		return s
	}
	if dec, err := charmap.ISO8859_1.NewDecoder().String(s); err == nil {
		return dec
	}
	return s
}

func polygonGeometry(shape shp.Shape, transform Transform) (geom.T, bool) {
	var parts []int32
	var points []shp.Point
	switch s := shape.(type) {
	case *shp.Polygon:
		parts, points = s.Parts, s.Points
	case *shp.PolygonZ:
		parts, points = s.Parts, s.Points
	case *shp.PolygonM:
		parts, points = s.Parts, s.Points
	default:
		return nil, false
	}

	polys := groupRings(rings(parts, points, transform))
	switch len(polys) {
	case 0:
		return nil, false
	case 1:
		p, err := geom.NewPolygon(geom.XY).SetCoords(polys[0])
		if err != nil {
			return nil, false
		}
		return p, true
	default:
		mp, err := geom.NewMultiPolygon(geom.XY).SetCoords(polys)
		if err != nil {
			return nil, false
		}
		return mp, true
	}
}

// rings splits the point list of a shape into closed, transformed rings.
// Rings with fewer than three distinct vertices are dropped.
func rings(parts []int32, points []shp.Point, transform Transform) [][]geom.Coord {
	var out [][]geom.Coord
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || start >= end {
			continue
		}
		ring := make([]geom.Coord, 0, end-start+1)
		for _, p := range points[start:end] {
			lon, lat := transform(p.X, p.Y)
			ring = append(ring, geom.Coord{lon, lat})
		}
		first, last := ring[0], ring[len(ring)-1]
		if first[0] != last[0] || first[1] != last[1] {
			ring = append(ring, geom.Coord{first[0], first[1]})
		}
		if len(ring) < 4 {
			continue
		}
		out = append(out, ring)
	}
	return out
}

// groupRings assembles rings into polygons: a clockwise ring starts a new
// polygon and a counter-clockwise ring is a hole of the polygon before it.
func groupRings(rs [][]geom.Coord) [][][]geom.Coord {
	var polys [][][]geom.Coord
	for _, ring := range rs {
		flat := make([]float64, 0, 2*len(ring))
		for _, c := range ring {
			flat = append(flat, c[0], c[1])
		}
		if xy.IsRingCounterClockwise(geom.XY, flat) && len(polys) > 0 {
			last := len(polys) - 1
			polys[last] = append(polys[last], ring)
			continue
		}
		polys = append(polys, [][]geom.Coord{ring})
	}
	return polys
}

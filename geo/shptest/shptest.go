// Package shptest writes small municipal boundary shapefiles for tests.
package shptest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

// Municipio is one boundary feature: its code, its name and its rings.
type Municipio struct {
	Code  string
	Name  string
	Rings [][]shp.Point
}

// Square returns a closed rectangular ring, clockwise or counter-clockwise.
func Square(x0, y0, x1, y1 float64, clockwise bool) []shp.Point {
	if clockwise {
		return []shp.Point{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}, {X: x0, Y: y0}}
	}
	return []shp.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}
}

// Write creates the polygon shapefile at path (which must end in ".shp")
// with its .shx and .dbf sidecars. Attributes are CD_MUN and NM_MUN, names
// encoded as Latin-1. A non-empty prj is written as the .prj sidecar.
func Write(t testing.TB, path string, ms []Municipio, prj string) {
	t.Helper()
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("CD_MUN", 7),
		shp.StringField("NM_MUN", 60),
	}))
	latin1 := charmap.ISO8859_1.NewEncoder()
	for _, m := range ms {
		row := w.Write((*shp.Polygon)(shp.NewPolyLine(m.Rings)))
		name, err := latin1.String(m.Name)
		require.NoError(t, err)
		require.NoError(t, w.WriteAttribute(int(row), 0, m.Code))
		require.NoError(t, w.WriteAttribute(int(row), 1, name))
	}
	w.Close()
	FixDBF(t, path)

	if prj != "" {
		require.NoError(t, os.WriteFile(strings.TrimSuffix(path, ".shp")+".prj", []byte(prj), 0644))
	}
}

// FixDBF moves the attribute table of a closed shp.Writer to its usual
// name. The writer creates it as "<base>dbf", without the dot.
func FixDBF(t testing.TB, path string) {
	t.Helper()
	base := strings.TrimSuffix(path, ".shp")
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
}

// Files writes the shapefile like Write and returns its sidecars keyed by
// file name, ready to be packed into an archive.
func Files(t testing.TB, name string, ms []Municipio, prj string) map[string][]byte {
	t.Helper()
	dir := t.TempDir()
	Write(t, filepath.Join(dir, name+".shp"), ms, prj)

	exts := []string{".shp", ".shx", ".dbf"}
	if prj != "" {
		exts = append(exts, ".prj")
	}
	files := make(map[string][]byte, len(exts))
	for _, ext := range exts {
		data, err := os.ReadFile(filepath.Join(dir, name+ext))
		require.NoError(t, err)
		files[name+ext] = data
	}
	return files
}

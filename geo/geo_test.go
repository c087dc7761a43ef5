package geo

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/zalepa/urnas/geo/shptest"
)

const utm24S = `PROJCS["SIRGAS 2000 / UTM zone 24S",GEOGCS["SIRGAS 2000",DATUM["Sistema_de_Referencia_Geocentrico_para_America_del_Sur_2000",SPHEROID["GRS 1980",6378137,298.257222101]],PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",-39],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",10000000],UNIT["metre",1]]`

const sirgas = `GEOGCS["SIRGAS 2000",DATUM["Sistema_de_Referencia_Geocentrico_para_America_del_Sur_2000",SPHEROID["GRS 1980",6378137,298.257222101]],PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433]]`

func writeShapefile(t *testing.T, dir string, ms []shptest.Municipio, prj string) string {
	t.Helper()
	path := filepath.Join(dir, "AL_Municipios_2024.shp")
	shptest.Write(t, path, ms, prj)
	return path
}

func TestReadFeaturesGeographic(t *testing.T) {
	for _, prj := range []string{"", sirgas} {
		dir := t.TempDir()
		path := writeShapefile(t, dir, []shptest.Municipio{
			{Code: "2704302", Name: "Maceió", Rings: [][]shp.Point{
				shptest.Square(-36, -10, -35, -9, true),
				shptest.Square(-35.8, -9.8, -35.2, -9.2, false),
			}},
			{Code: "2700300", Name: "Arapiraca", Rings: [][]shp.Point{
				shptest.Square(-37, -10, -36.5, -9.5, true),
				shptest.Square(-36.4, -10, -36.2, -9.5, true),
			}},
		}, prj)

		fc, stats, err := ReadFeatures(path)
		require.NoError(t, err)
		assert.Equal(t, Stats{Features: 2, CRS: "geographic"}, stats)
		require.Len(t, fc.Features, 2)

		first := fc.Features[0]
		assert.Equal(t, map[string]interface{}{"CD_MUN": "2704302", "NM_MUN": "Maceió"}, first.Properties)
		poly, ok := first.Geometry.(*geom.Polygon)
		require.True(t, ok, "want polygon, got %T", first.Geometry)
		assert.Equal(t, 2, poly.NumLinearRings())
		assert.Equal(t, geom.Coord{-36, -10}, poly.LinearRing(0).Coord(0))

		multi, ok := fc.Features[1].Geometry.(*geom.MultiPolygon)
		require.True(t, ok, "want multipolygon, got %T", fc.Features[1].Geometry)
		assert.Equal(t, 2, multi.NumPolygons())
	}
}

func TestConvertWritesGeoJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeShapefile(t, dir, []shptest.Municipio{
		{Code: "2704302", Name: "Maceió", Rings: [][]shp.Point{shptest.Square(-36, -10, -35, -9, true)}},
	}, "")
	out := filepath.Join(dir, "out", "municipios_al.geojson")

	stats, err := Convert([]string{filepath.Join(dir, "leiame.txt"), path}, out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Features)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
	assert.Contains(t, string(data), `"Maceió"`)

	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "2704302", fc.Features[0].Properties["CD_MUN"])
	_, ok := fc.Features[0].Geometry.(*geom.Polygon)
	assert.True(t, ok)
}

func TestReadFeaturesUTM(t *testing.T) {
	dir := t.TempDir()
	path := writeShapefile(t, dir, []shptest.Municipio{
		{Code: "2704302", Name: "Maceió", Rings: [][]shp.Point{shptest.Square(500000, 9000000, 600000, 10000000, true)}},
	}, utm24S)

	fc, stats, err := ReadFeatures(path)
	require.NoError(t, err)
	assert.Equal(t, "SIRGAS 2000 / UTM zone 24S", stats.CRS)
	poly := fc.Features[0].Geometry.(*geom.Polygon)

	// Second vertex of the ring is (500000, 10000000): on the central
	// meridian at the equator.
	c := poly.LinearRing(0).Coord(1)
	assert.InDelta(t, -39, c[0], 1e-9)
	assert.InDelta(t, 0, c[1], 1e-9)

	for _, c := range poly.LinearRing(0).Coords() {
		assert.True(t, c[0] > -40 && c[0] < -37, "lon %v", c[0])
		assert.True(t, c[1] > -10 && c[1] <= 0, "lat %v", c[1])
	}
}

func TestReadFeaturesUnsupportedProjection(t *testing.T) {
	lcc := strings.Replace(utm24S, "Transverse_Mercator", "Lambert_Conformal_Conic_2SP", 1)
	dir := t.TempDir()
	path := writeShapefile(t, dir, []shptest.Municipio{
		{Code: "2704302", Name: "Maceió", Rings: [][]shp.Point{shptest.Square(0, 0, 1, 1, true)}},
	}, lcc)

	_, _, err := ReadFeatures(path)
	var upe *UnsupportedProjectionError
	require.ErrorAs(t, err, &upe)
	assert.Equal(t, "Lambert_Conformal_Conic_2SP", upe.Projection)
}

func TestReadFeaturesSkipsNonPolygons(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pontos.shp")
	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	w.Write(&shp.Point{X: -36, Y: -9})
	w.Write(&shp.Point{X: -37, Y: -10})
	w.Close()
	shptest.FixDBF(t, path)

	fc, stats, err := ReadFeatures(path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Skipped)
	assert.Empty(t, fc.Features)
}

func TestReadFeaturesNeedsAttributeTable(t *testing.T) {
	dir := t.TempDir()
	path := writeShapefile(t, dir, []shptest.Municipio{
		{Code: "2704302", Name: "Maceió", Rings: [][]shp.Point{shptest.Square(-36, -10, -35, -9, true)}},
	}, "")
	dbf := strings.TrimSuffix(path, ".shp") + ".dbf"

	require.NoError(t, os.Rename(dbf, strings.TrimSuffix(path, ".shp")+".DBF"))
	_, _, err := ReadFeatures(path)
	require.ErrorIs(t, err, ErrNoAttributeTable)
	assert.Contains(t, err.Error(), "AL_Municipios_2024.DBF")

	require.NoError(t, os.Remove(strings.TrimSuffix(path, ".shp")+".DBF"))
	_, _, err = ReadFeatures(path)
	require.ErrorIs(t, err, ErrNoAttributeTable)

	_, err = Convert([]string{path}, filepath.Join(dir, "out.geojson"))
	require.ErrorIs(t, err, ErrNoAttributeTable)
	assert.NoFileExists(t, filepath.Join(dir, "out.geojson"))
}

func TestFindShapefile(t *testing.T) {
	_, err := FindShapefile([]string{"a/leiame.pdf", "a/AL.dbf"})
	assert.ErrorIs(t, err, ErrNoGeometryFound)

	got, err := FindShapefile([]string{"a/AL.dbf", "a/AL.shp"})
	require.NoError(t, err)
	assert.Equal(t, "a/AL.shp", got)
}

func TestParsePRJ(t *testing.T) {
	tests := []struct {
		name    string
		wkt     string
		crs     string
		wantErr bool
	}{
		{"empty", "", "geographic", false},
		{"geographic", sirgas, "geographic", false},
		{"utm", utm24S, "SIRGAS 2000 / UTM zone 24S", false},
		{"unknown root", `COMPD_CS["x"]`, "", true},
		{"mercator", strings.Replace(utm24S, "Transverse_Mercator", "Mercator_1SP", 1), "", true},
	}
	for _, tt := range tests {
		tr, crs, err := ParsePRJ("x.prj", tt.wkt)
		if tt.wantErr {
			var upe *UnsupportedProjectionError
			assert.ErrorAs(t, err, &upe, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.crs, crs, tt.name)
		assert.NotNil(t, tr, tt.name)
	}
}

// forwardUTM is the textbook forward Transverse Mercator, used to check the
// inverse against.
func forwardUTM(tm *transverseMercator, lonDeg, latDeg float64) (float64, float64) {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	n := tm.a / math.Sqrt(1-tm.e2*math.Sin(lat)*math.Sin(lat))
	tt := math.Tan(lat) * math.Tan(lat)
	c := tm.ep2 * math.Cos(lat) * math.Cos(lat)
	a := (lon - tm.lon0) * math.Cos(lat)
	m := tm.meridianArc(lat)

	x := tm.fe + tm.k0*n*(a+(1-tt+c)*math.Pow(a, 3)/6+
		(5-18*tt+tt*tt+72*c-58*tm.ep2)*math.Pow(a, 5)/120)
	y := tm.fn + tm.k0*(m-tm.m0+n*math.Tan(lat)*(a*a/2+
		(5-tt+9*c+4*c*c)*math.Pow(a, 4)/24+
		(61-58*tt+tt*tt+600*c-330*tm.ep2)*math.Pow(a, 6)/720))
	return x, y
}

func TestTransverseMercatorRoundTrip(t *testing.T) {
	tm, err := newTransverseMercator(utm24S)
	require.NoError(t, err)

	points := [][2]float64{
		{-39, 0},
		{-35.7, -9.6},
		{-37.1, -10.4},
		{-40.5, -3.2},
	}
	for _, p := range points {
		x, y := forwardUTM(tm, p[0], p[1])
		lon, lat := tm.inverse(x, y)
		assert.InDelta(t, p[0], lon, 1e-6, "lon for %v", p)
		assert.InDelta(t, p[1], lat, 1e-6, "lat for %v", p)
	}
}

func TestAttributeDecodesLatin1(t *testing.T) {
	assert.Equal(t, "Maceió", attribute("Macei\xf3\x00\x00"))
	assert.Equal(t, "Maceió", attribute(" Maceió "))
	assert.Equal(t, "", attribute("\x00\x00"))
}

package geo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Transform maps a source coordinate to longitude/latitude in degrees.
type Transform func(x, y float64) (lon, lat float64)

// UnsupportedProjectionError reports a .prj the converter cannot reproject.
type UnsupportedProjectionError struct {
	Path       string
	Projection string
}

func (e *UnsupportedProjectionError) Error() string {
	return fmt.Sprintf("%s: unsupported projection %q", e.Path, e.Projection)
}

// Identity is the transform for geographic coordinate systems.
func Identity(x, y float64) (float64, float64) { return x, y }

var (
	projectionRe = regexp.MustCompile(`PROJECTION\["([^"]+)"`)
	parameterRe  = regexp.MustCompile(`PARAMETER\["([^"]+)",\s*([-+0-9.eE]+)\s*\]`)
	spheroidRe   = regexp.MustCompile(`SPHEROID\["[^"]*",\s*([-+0-9.eE]+),\s*([-+0-9.eE]+)`)
	projcsRe     = regexp.MustCompile(`^\s*PROJCS\["([^"]*)"`)
)

// ParsePRJ builds the transform described by the WKT in a .prj sidecar. An
// empty WKT is treated as geographic. path is used in errors only.
func ParsePRJ(path, wkt string) (Transform, string, error) {
	wkt = strings.TrimSpace(wkt)
	if wkt == "" {
		return Identity, "geographic", nil
	}
	if strings.HasPrefix(wkt, "GEOGCS[") {
		return Identity, "geographic", nil
	}
	m := projcsRe.FindStringSubmatch(wkt)
	if m == nil {
		return nil, "", &UnsupportedProjectionError{Path: path, Projection: firstToken(wkt)}
	}
	name := m[1]

	pm := projectionRe.FindStringSubmatch(wkt)
	if pm == nil || normalizeName(pm[1]) != "transverse_mercator" {
		proj := name
		if pm != nil {
			proj = pm[1]
		}
		return nil, "", &UnsupportedProjectionError{Path: path, Projection: proj}
	}

	tm, err := newTransverseMercator(wkt)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return tm.inverse, name, nil
}

func firstToken(wkt string) string {
	if i := strings.IndexByte(wkt, '['); i > 0 {
		return wkt[:i]
	}
	return wkt
}

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

type transverseMercator struct {
	a, e2, ep2 float64
	lat0, lon0 float64
	k0         float64
	fe, fn     float64
	m0         float64
}

func newTransverseMercator(wkt string) (*transverseMercator, error) {
	sm := spheroidRe.FindStringSubmatch(wkt)
	if sm == nil {
		return nil, fmt.Errorf("projection has no SPHEROID")
	}
	a, err := strconv.ParseFloat(sm[1], 64)
	if err != nil {
		return nil, fmt.Errorf("semi-major axis: %w", err)
	}
	invF, err := strconv.ParseFloat(sm[2], 64)
	if err != nil {
		return nil, fmt.Errorf("inverse flattening: %w", err)
	}
	var f float64
	if invF != 0 {
		f = 1 / invF
	}

	params := map[string]float64{"scale_factor": 1}
	for _, p := range parameterRe.FindAllStringSubmatch(wkt, -1) {
		v, err := strconv.ParseFloat(p[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p[1], err)
		}
		params[normalizeName(p[1])] = v
	}

	tm := &transverseMercator{
		a:    a,
		e2:   f * (2 - f),
		lat0: params["latitude_of_origin"] * math.Pi / 180,
		lon0: params["central_meridian"] * math.Pi / 180,
		k0:   params["scale_factor"],
		fe:   params["false_easting"],
		fn:   params["false_northing"],
	}
	tm.ep2 = tm.e2 / (1 - tm.e2)
	tm.m0 = tm.meridianArc(tm.lat0)
	return tm, nil
}

// meridianArc is the distance along the meridian from the equator to lat.
func (tm *transverseMercator) meridianArc(lat float64) float64 {
	e2 := tm.e2
	e4 := e2 * e2
	e6 := e4 * e2
	return tm.a * ((1-e2/4-3*e4/64-5*e6/256)*lat -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*lat) +
		(15*e4/256+45*e6/1024)*math.Sin(4*lat) -
		(35*e6/3072)*math.Sin(6*lat))
}

// inverse follows the series in Snyder, Map Projections: A Working Manual, §8.
func (tm *transverseMercator) inverse(x, y float64) (float64, float64) {
	e2 := tm.e2
	e4 := e2 * e2
	e6 := e4 * e2

	m := tm.m0 + (y-tm.fn)/tm.k0
	mu := m / (tm.a * (1 - e2/4 - 3*e4/64 - 5*e6/256))
	r := math.Sqrt(1 - e2)
	e1 := (1 - r) / (1 + r)

	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sin1, cos1 := math.Sin(phi1), math.Cos(phi1)
	tan1 := math.Tan(phi1)
	c1 := tm.ep2 * cos1 * cos1
	t1 := tan1 * tan1
	w := 1 - e2*sin1*sin1
	n1 := tm.a / math.Sqrt(w)
	r1 := tm.a * (1 - e2) / math.Pow(w, 1.5)
	d := (x - tm.fe) / (n1 * tm.k0)

	lat := phi1 - (n1*tan1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*tm.ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*tm.ep2-3*c1*c1)*math.Pow(d, 6)/720)
	lon := tm.lon0 + (d-
		(1+2*t1+c1)*math.Pow(d, 3)/6+
		(5-2*c1+28*t1-3*c1*c1+8*tm.ep2+24*t1*t1)*math.Pow(d, 5)/120)/cos1

	return lon * 180 / math.Pi, lat * 180 / math.Pi
}

package report

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/zalepa/urnas/outfile"
)

const (
	pageWidth  = 11 * vg.Inch
	pageHeight = 8.5 * vg.Inch
	pdfMargin  = 0.6 * vg.Inch

	// maxBars caps the candidates drawn per race; deputy races can have
	// hundreds of distinct municipal winners.
	maxBars = 20
)

var chartBlue = color.RGBA{R: 31, G: 119, B: 180, A: 255}

var officeNames = map[string]string{
	"GOV": "Governador",
	"SEN": "Senador",
	"DF":  "Deputado Federal",
	"DE":  "Deputado Estadual",
}

// RaceTitle is the heading of a race's page.
func RaceTitle(r Race) string {
	name, ok := officeNames[r.Office]
	if !ok {
		name = r.Office
	}
	return fmt.Sprintf("%s - turno %s", name, r.Round)
}

// RenderPDF writes one bar chart page per race to path. With no races the
// document is a single page saying so.
func RenderPDF(path, title string, races []Race) error {
	title = strings.ReplaceAll(title, "\u2014", "-")
	title = strings.ReplaceAll(title, "\u2013", "-")

	c := vgpdf.New(pageWidth, pageHeight)
	if len(races) == 0 {
		dc := draw.New(c)
		area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
		fillText(area, title, vg.Points(14), area.Min.X, area.Max.Y-vg.Points(14), color.Black)
		fillText(area, "Nenhum vencedor registrado.", vg.Points(10), area.Min.X, area.Max.Y-0.45*vg.Inch, color.Gray{Y: 100})
	}
	for i, r := range races {
		if i > 0 {
			c.NextPage()
		}
		if err := drawRacePage(c, title+" - "+RaceTitle(r), r.Wins); err != nil {
			return fmt.Errorf("race %s/%s: %w", r.Office, r.Round, err)
		}
	}

	if err := outfile.Write(path, func(w io.Writer) error {
		_, err := c.WriteTo(w)
		return err
	}); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func drawRacePage(c *vgpdf.Canvas, title string, wins []Wins) error {
	if len(wins) > maxBars {
		title = fmt.Sprintf("%s (top %d of %d)", title, maxBars, len(wins))
		wins = wins[:maxBars]
	}

	values := make(plotter.Values, len(wins))
	labels := make([]string, len(wins))
	for i, w := range wins {
		values[i] = float64(w.Municipalities)
		labels[i] = w.Name
		if w.Party != "" {
			labels[i] += " (" + w.Party + ")"
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.BackgroundColor = color.White
	p.Y.Label.Text = "municipios"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return err
	}
	bars.Color = chartBlue
	bars.LineStyle.Width = 0
	p.Add(bars, plotter.NewGrid())

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
	p.Draw(area)
	return nil
}

func fillText(c draw.Canvas, txt string, size vg.Length, x, y vg.Length, clr color.Color) {
	sty := draw.TextStyle{
		Color:   clr,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
	}
	sty.Font.Size = size
	c.FillText(sty, vg.Point{X: x, Y: y}, txt)
}

// PageCount opens the PDF at path and returns its number of pages.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	ctx, err := pdfcpu.Read(f, model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return ctx.PageCount, nil
}

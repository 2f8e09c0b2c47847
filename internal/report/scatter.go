package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/browser"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/pdclinical/internal/metrics"
	"github.com/KaramelBytes/pdclinical/internal/utils"
)

// Style describes how the scatter plot looks. Colours are hex strings.
type Style struct {
	Title       string  `mapstructure:"title" yaml:"title"`
	XLabel      string  `mapstructure:"x_label" yaml:"x_label"`
	YLabel      string  `mapstructure:"y_label" yaml:"y_label"`
	LeftLabel   string  `mapstructure:"left_label" yaml:"left_label"`
	RightLabel  string  `mapstructure:"right_label" yaml:"right_label"`
	LeftColor   string  `mapstructure:"left_color" yaml:"left_color"`
	RightColor  string  `mapstructure:"right_color" yaml:"right_color"`
	Radius      float64 `mapstructure:"radius" yaml:"radius"`
	WidthInches float64 `mapstructure:"width_inches" yaml:"width_inches"`
	// HeightInches defaults to three quarters of the width.
	HeightInches float64 `mapstructure:"height_inches" yaml:"height_inches"`
	// Grid paints a grey background with a white grid.
	Grid bool `mapstructure:"grid" yaml:"grid"`
}

// DefaultStyle returns the ggplot-like look of the clinical outcome plot.
func DefaultStyle() Style {
	return Style{
		Title:        "Parkinsons Patient Data",
		XLabel:       "STN percent activation (%)",
		YLabel:       "Motor improvement score normalized by voltage",
		LeftLabel:    metrics.Left.Label(),
		RightLabel:   metrics.Right.Label(),
		LeftColor:    "#E24A33",
		RightColor:   "#348ABD",
		Radius:       3,
		WidthInches:  6.4,
		HeightInches: 4.8,
		Grid:         true,
	}
}

// Displayer shows a rendered image to the user.
type Displayer func(path string) error

// Display opens interactive plots. It defaults to the platform viewer, which
// may read the file after Display returns, so the rendered
// pdclinical-*.png is left in the OS temp directory.
var Display Displayer = browser.OpenFile

var ggplotBackground = color.RGBA{R: 0xE5, G: 0xE5, B: 0xE5, A: 0xFF}

// RenderScatter plots improvement score against percent activation for both
// sides. A non-empty target is written as an image whose format follows the
// extension (png when there is none). An empty target renders to a temporary
// png and hands it to Display.
func RenderScatter(left, right []metrics.Point, target string, style Style) error {
	p, err := newScatterPlot(left, right, style)
	if err != nil {
		return err
	}
	w, h := style.size()

	if target == "" {
		f, err := os.CreateTemp("", "pdclinical-*.png")
		if err != nil {
			return fmt.Errorf("%w: create temp plot: %v", ErrIOFailure, err)
		}
		path := f.Name()
		if err := writePlot(p, w, h, "png", f); err != nil {
			removeQuietly(path)
			return err
		}
		if err := Display(path); err != nil {
			return fmt.Errorf("display plot %s: %w", path, err)
		}
		return nil
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(target), "."))
	if format == "" {
		format = "png"
	}
	if err := ensureParent(target); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIOFailure, target, err)
	}
	if err := writePlot(p, w, h, format, f); err != nil {
		removeQuietly(target)
		return err
	}
	return nil
}

func newScatterPlot(left, right []metrics.Point, style Style) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = style.Title
	p.X.Label.Text = style.XLabel
	p.Y.Label.Text = style.YLabel
	p.Legend.Top = true

	if style.Grid {
		p.BackgroundColor = ggplotBackground
		grid := plotter.NewGrid()
		grid.Vertical.Color = color.White
		grid.Horizontal.Color = color.White
		p.Add(grid)
	}

	sides := []struct {
		points []metrics.Point
		label  string
		hex    string
	}{
		{left, style.LeftLabel, style.LeftColor},
		{right, style.RightLabel, style.RightColor},
	}
	plotted := 0
	for _, s := range sides {
		if len(s.points) == 0 {
			continue
		}
		c, err := parseColor(s.hex)
		if err != nil {
			return nil, err
		}
		sc, err := plotter.NewScatter(pointsXY(s.points))
		if err != nil {
			return nil, fmt.Errorf("scatter %s: %w", s.label, err)
		}
		sc.GlyphStyle.Color = c
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(style.radius())
		p.Add(sc)
		p.Legend.Add(s.label, sc)
		plotted += len(s.points)
	}
	if plotted == 0 {
		p.X.Min, p.X.Max = 0, 100
		p.Y.Min, p.Y.Max = 0, 1
	}
	return p, nil
}

func writePlot(p *plot.Plot, w, h vg.Length, format string, f *os.File) error {
	wt, err := p.WriterTo(w, h, format)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("unsupported plot format %q: %w", format, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write plot %s: %v", ErrIOFailure, f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close plot %s: %v", ErrIOFailure, f.Name(), err)
	}
	return nil
}

func pointsXY(pts []metrics.Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i].X = pt.Activation
		xys[i].Y = pt.Improvement
	}
	return xys
}

func parseColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("plot colour %q: %w", hex, err)
	}
	return c, nil
}

func ensureParent(path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return nil
}

func (s Style) size() (vg.Length, vg.Length) {
	w := s.WidthInches
	if w <= 0 {
		w = 6.4
	}
	h := s.HeightInches
	if h <= 0 {
		h = w * 0.75
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

func (s Style) radius() float64 {
	if s.Radius <= 0 {
		return 3
	}
	return s.Radius
}

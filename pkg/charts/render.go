package charts

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Renderer draws charts into encoded images.
type Renderer interface {
	BarChart(title string, labels []string, values []float64) ([]byte, error)
	HistogramChart(title string, bins []Bin) ([]byte, error)
}

var barColor = color.RGBA{R: 0x4c, G: 0x72, B: 0xb0, A: 0xff}

// PNGRenderer renders charts as PNG with gonum/plot.
type PNGRenderer struct {
	Width  vg.Length
	Height vg.Length
	XLabel string
	YLabel string
}

// NewPNGRenderer returns a renderer producing 6x4 inch images.
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{
		Width:  6 * vg.Inch,
		Height: 4 * vg.Inch,
		XLabel: "Growth time",
		YLabel: "Berries",
	}
}

// BarChart draws one bar per label.
func (r *PNGRenderer) BarChart(title string, labels []string, values []float64) ([]byte, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("bar chart: %d labels for %d values", len(labels), len(values))
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("bar chart: no values")
	}

	p := r.newPlot(title)

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0

	p.Add(bars)
	p.NominalX(labels...)

	return r.encode(p)
}

// HistogramChart draws contiguous bars over the bin ranges.
func (r *PNGRenderer) HistogramChart(title string, bins []Bin) ([]byte, error) {
	if len(bins) == 0 {
		return nil, fmt.Errorf("histogram: no bins")
	}

	p := r.newPlot(title)

	h := &plotter.Histogram{
		Bins:      make([]plotter.HistogramBin, len(bins)),
		Width:     bins[0].Max - bins[0].Min,
		FillColor: barColor,
		LineStyle: plotter.DefaultLineStyle,
	}
	for i, b := range bins {
		h.Bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: float64(b.Count)}
	}

	p.Add(h)
	return r.encode(p)
}

func (r *PNGRenderer) newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = r.XLabel
	p.Y.Label.Text = r.YLabel
	p.Y.Min = 0
	return p
}

func (r *PNGRenderer) encode(p *plot.Plot) ([]byte, error) {
	wt, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return nil, fmt.Errorf("create png writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Images holds the rendered chart pair shown on the charts page.
type Images struct {
	Frequency []byte
	Histogram []byte
}

// RenderAll renders the frequency bar chart and the histogram of samples.
func RenderAll(r Renderer, samples []int) (*Images, error) {
	labels, values := FrequencySeries(Frequencies(samples))
	freq, err := r.BarChart("Growth time frequency", labels, values)
	if err != nil {
		return nil, err
	}

	hist, err := r.HistogramChart("Growth time histogram", Histogram(samples, DefaultBins))
	if err != nil {
		return nil, err
	}

	return &Images{Frequency: freq, Histogram: hist}, nil
}

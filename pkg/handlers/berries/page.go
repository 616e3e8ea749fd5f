package berries

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"

	"github.com/Sternrassler/berry-stats/pkg/berries"
	"github.com/Sternrassler/berry-stats/pkg/charts"
)

var chartsPage = template.Must(template.New("charts").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Berry growth time statistics</title>
</head>
<body>
<h1>Berry growth time statistics</h1>
<table>
<tr><th>Berries</th><td>{{len .Summary.Names}}</td></tr>
<tr><th>Min</th><td>{{.Summary.MinGrowthTime}}</td></tr>
<tr><th>Max</th><td>{{.Summary.MaxGrowthTime}}</td></tr>
<tr><th>Mean</th><td>{{printf "%.2f" .Summary.MeanGrowthTime}}</td></tr>
<tr><th>Median</th><td>{{printf "%.2f" .Summary.MedianGrowthTime}}</td></tr>
<tr><th>Variance</th><td>{{printf "%.2f" .Summary.VarianceGrowthTime}}</td></tr>
<tr><th>Most frequent</th><td>{{.Summary.FrequencyGrowthTime}}</td></tr>
</table>
<h2>Frequency</h2>
<img alt="Growth time frequency" src="{{.Frequency}}">
<h2>Histogram</h2>
<img alt="Growth time histogram" src="{{.Histogram}}">
<h2>Berries</h2>
<ol>
{{range .Summary.Names}}<li>{{.}}</li>
{{end}}</ol>
</body>
</html>
`))

type chartsView struct {
	Summary   *berries.Summary
	Frequency template.URL
	Histogram template.URL
}

func (h *Handler) renderCharts(ctx context.Context) ([]byte, string, error) {
	summary, samples, err := h.service.StatisticsWithSamples(ctx)
	if err != nil {
		return nil, "", err
	}

	images, err := charts.RenderAll(h.renderer, samples)
	if err != nil {
		return nil, "", fmt.Errorf("render charts: %w", err)
	}

	view := chartsView{
		Summary:   summary,
		Frequency: pngDataURL(images.Frequency),
		Histogram: pngDataURL(images.Histogram),
	}

	var buf bytes.Buffer
	if err := chartsPage.Execute(&buf, view); err != nil {
		return nil, "", fmt.Errorf("execute charts template: %w", err)
	}
	return buf.Bytes(), "text/html; charset=utf-8", nil
}

func pngDataURL(img []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img))
}

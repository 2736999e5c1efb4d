package api

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/willcagas/goose-trials-sub001/internal/domain/types"
)

const (
	chartWidth  = 800
	chartHeight = 400
)

var (
	chartCurve  = drawing.ColorFromHex("2f6f4f")
	chartMarker = drawing.ColorFromHex("d69e2e")
	chartText   = drawing.ColorFromHex("1a202c")
)

// renderDistributionChart draws the density curve and, when known, a vertical marker at the caller's score.
func renderDistributionChart(d types.DistributionResponse, unit string) ([]byte, error) {
	if len(d.Distribution) == 0 {
		return renderNoDataPlaceholder("Not enough scores to draw a distribution")
	}

	xs := make([]float64, len(d.Distribution))
	ys := make([]float64, len(d.Distribution))
	var peak float64
	for i, p := range d.Distribution {
		xs[i], ys[i] = p.Score, p.Frequency
		peak = max(peak, p.Frequency)
	}

	series := []chart.Series{chart.ContinuousSeries{
		Name:    "Players",
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: chartCurve,
			StrokeWidth: 2,
			FillColor:   chartCurve.WithAlpha(48),
		},
	}}
	if d.UserScore != nil {
		series = append(series, chart.ContinuousSeries{
			Name:    "You",
			XValues: []float64{*d.UserScore, *d.UserScore},
			YValues: []float64{0, peak},
			Style: chart.Style{
				StrokeColor:     chartMarker,
				StrokeWidth:     2,
				StrokeDashArray: []float64{5, 5},
			},
		})
	}

	graph := chart.Chart{
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Name:           fmt.Sprintf("Score (%s)", unit),
			Style:          chart.Style{FontColor: chartText},
			ValueFormatter: func(v any) string { return fmt.Sprintf("%.0f", v) },
		},
		YAxis: chart.YAxis{
			Name:  "Players",
			Style: chart.Style{FontColor: chartText},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render distribution chart: %w", err)
	}
	return buf.Bytes(), nil
}

func renderNoDataPlaceholder(msg string) ([]byte, error) {
	const (
		width  = 400
		height = 200
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		XAxis:  chart.XAxis{Style: chart.Style{Hidden: true}},
		YAxis:  chart.YAxis{Style: chart.Style{Hidden: true}},
		// go-chart needs one series with a non-zero range even when nothing is drawn.
		Series: []chart.Series{chart.ContinuousSeries{
			XValues: []float64{0, 1},
			YValues: []float64{0, 1},
			Style:   chart.Style{StrokeColor: drawing.ColorTransparent},
		}},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, _ chart.Style) {
				r.SetFontColor(chartText)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render placeholder chart: %w", err)
	}
	return buf.Bytes(), nil
}

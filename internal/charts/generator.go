package charts

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sensei/dashboard/internal/store"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) PassRateChart(data []store.DataPoint) string {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Pass Rate Trend"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithInitializationOpts(opts.Initialization{
			Height: "200px",
			Width:  "100%",
		}),
	)

	xAxis := make([]string, len(data))
	yAxis := make([]opts.LineData, len(data))
	for i, dp := range data {
		xAxis[i] = dp.Date.Format("Jan 02")
		yAxis[i] = opts.LineData{Value: dp.PassRate}
	}

	line.SetXAxis(xAxis).
		AddSeries("Pass Rate %", yAxis).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return g.renderToString(line)
}

func (g *Generator) LatencyChart(data []store.DataPoint) string {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Response Latency Trend"}),
		charts.WithInitializationOpts(opts.Initialization{
			Height: "200px",
			Width:  "100%",
		}),
	)

	xAxis := make([]string, len(data))
	latency := make([]opts.BarData, len(data))
	for i, dp := range data {
		xAxis[i] = dp.Date.Format("Jan 02")
		latency[i] = opts.BarData{Value: dp.AvgLatencyMs}
	}

	bar.SetXAxis(xAxis).
		AddSeries("Avg latency (ms)", latency)

	return g.renderToString(bar)
}

func (g *Generator) Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	// A single sample renders as a flat line across the full width.
	if len(values) == 1 {
		values = []float64{values[0], values[0]}
	}
	width := 100
	height := 30

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		max = min + 1
	}

	points := make([]string, len(values))
	for i, v := range values {
		x := float64(i) * float64(width) / float64(len(values)-1)
		y := float64(height) - ((v - min) / (max - min) * float64(height))
		points[i] = fmt.Sprintf("%.1f,%.1f", x, y)
	}

	return fmt.Sprintf(`
		<svg width="%d" height="%d" class="sparkline">
			<polyline points="%s"
					  fill="none"
					  stroke="currentColor"
					  stroke-width="2"/>
		</svg>
	`, width, height, strings.Join(points, " "))
}

// Interface for anything that can render itself to an io.Writer
type Renderer interface {
	Render(w io.Writer) error
}

func (g *Generator) renderToString(c Renderer) string {
	var buf bytes.Buffer
	c.Render(&buf)
	return buf.String()
}

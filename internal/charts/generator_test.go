package charts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sensei/dashboard/internal/store"
)

func TestSparkline_SingleValueRendersFlatLine(t *testing.T) {
	svg := NewGenerator().Sparkline([]float64{42})
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "polyline")
	assert.NotContains(t, svg, "NaN")
	assert.NotContains(t, svg, "Inf")
}

func TestSparkline_EmptyInput(t *testing.T) {
	assert.Empty(t, NewGenerator().Sparkline(nil))
}

func TestSparkline_ConstantValues(t *testing.T) {
	svg := NewGenerator().Sparkline([]float64{5, 5, 5})
	assert.Contains(t, svg, "polyline")
	assert.NotContains(t, svg, "NaN")
}

func TestPassRateChartRenders(t *testing.T) {
	points := []store.DataPoint{
		{Date: time.Now().AddDate(0, 0, -1), PassRate: 80, AvgLatencyMs: 300, Count: 5},
		{Date: time.Now(), PassRate: 90, AvgLatencyMs: 280, Count: 4},
	}
	g := NewGenerator()
	assert.Contains(t, g.PassRateChart(points), "Pass Rate Trend")
	assert.Contains(t, g.LatencyChart(points), "Response Latency Trend")
}

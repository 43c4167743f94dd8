package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected Trend
	}{
		{"empty", nil, TrendInsufficientData},
		{"three values", []float64{10, 20, 30}, TrendInsufficientData},
		{"improving", []float64{10, 10, 10, 20, 20, 20}, TrendImproving},
		{"declining", []float64{20, 20, 10, 10}, TrendDeclining},
		{"stable", []float64{10, 10, 10, 10.2, 10.1, 9.9}, TrendStable},
		{"zero first half", []float64{0, 0, 5, 5}, TrendStable},
		{"small rise is stable", []float64{100, 100, 104, 104}, TrendStable},
		{"odd length puts middle in second half", []float64{10, 10, 30, 30, 30}, TrendImproving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyTrend(tt.values))
		})
	}
}

func TestSeries(t *testing.T) {
	posts := []PostMetric{
		{OpenRate: 30, CTOR: 10},
		{OpenRate: 40, CTOR: 12},
	}

	assert.Equal(t, []float64{30, 40}, OpenRateSeries(posts))
	assert.Equal(t, []float64{10, 12}, CTORSeries(posts))
	assert.Empty(t, OpenRateSeries(nil))
}

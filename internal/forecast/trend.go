package forecast

const (
	minTrendPoints = 4
	trendThreshold = 5.0 // percent change between halves
)

// ClassifyTrend compares the mean of the later half of values against the
// earlier half. The split is at len/2 so an odd middle element falls into the
// later half. A zero earlier mean never counts as a change.
func ClassifyTrend(values []float64) Trend {
	if len(values) < minTrendPoints {
		return TrendInsufficientData
	}

	mid := len(values) / 2
	first := mean(values[:mid])
	second := mean(values[mid:])

	var change float64
	if first > 0 {
		change = (second - first) / first * 100
	}

	switch {
	case change > trendThreshold:
		return TrendImproving
	case change < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// OpenRateSeries extracts open rates in the given post order.
func OpenRateSeries(posts []PostMetric) []float64 {
	out := make([]float64, len(posts))
	for i, p := range posts {
		out[i] = p.OpenRate
	}
	return out
}

// CTORSeries extracts click-to-open rates in the given post order.
func CTORSeries(posts []PostMetric) []float64 {
	out := make([]float64, len(posts))
	for i, p := range posts {
		out[i] = p.CTOR
	}
	return out
}

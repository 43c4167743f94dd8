package forecast

import "time"

const day = 24 * time.Hour

// DailyGrowth returns the number of subscribers created within the trailing
// windowDays ending at now, divided by windowDays. Events without a creation
// time are ignored. The cutoff instant itself is inclusive.
func DailyGrowth(events []SubscriberEvent, now time.Time, windowDays int) float64 {
	if windowDays <= 0 {
		return 0
	}
	cutoff := now.Add(-time.Duration(windowDays) * day)

	recent := 0
	for _, e := range events {
		if e.CreatedAt == nil {
			continue
		}
		if !e.CreatedAt.Before(cutoff) {
			recent++
		}
	}
	return float64(recent) / float64(windowDays)
}

// Window wraps DailyGrowth with the window it was computed over.
func Window(events []SubscriberEvent, now time.Time, windowDays int) GrowthWindow {
	return GrowthWindow{
		WindowDays: windowDays,
		DailyRate:  DailyGrowth(events, now, windowDays),
	}
}

// DailySeries buckets subscriber creations into windowDays consecutive
// 24-hour slots counted back from now, oldest first. It feeds the growth
// trend. An event on the cutoff lands in the oldest slot.
func DailySeries(events []SubscriberEvent, now time.Time, windowDays int) []float64 {
	if windowDays <= 0 {
		return nil
	}
	cutoff := now.Add(-time.Duration(windowDays) * day)
	series := make([]float64, windowDays)

	for _, e := range events {
		if e.CreatedAt == nil || e.CreatedAt.Before(cutoff) {
			continue
		}
		idx := windowDays - 1
		if ago := now.Sub(*e.CreatedAt); ago > 0 {
			idx -= int(ago / day)
		}
		if idx < 0 {
			idx = 0
		}
		series[idx]++
	}
	return series
}

package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventAt(t time.Time) SubscriberEvent {
	return SubscriberEvent{CreatedAt: &t, Status: "active"}
}

func TestDailyGrowth(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	events := []SubscriberEvent{
		eventAt(now.Add(-1 * time.Hour)),
		eventAt(now.Add(-10 * day)),
		eventAt(now.Add(-30 * day)), // on the cutoff, counted
		eventAt(now.Add(-31 * day)),
		{CreatedAt: nil},
	}

	assert.InDelta(t, 3.0/30.0, DailyGrowth(events, now, 30), 0.0001)
}

func TestDailyGrowth_Empty(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 0.0, DailyGrowth(nil, now, 30))
	assert.Equal(t, 0.0, DailyGrowth([]SubscriberEvent{eventAt(now)}, now, 0))
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	w := Window([]SubscriberEvent{eventAt(now.Add(-day))}, now, 10)

	assert.Equal(t, 10, w.WindowDays)
	assert.InDelta(t, 0.1, w.DailyRate, 0.0001)
}

func TestDailySeries(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	events := []SubscriberEvent{
		eventAt(now.Add(-4*day + time.Hour)), // first bucket
		eventAt(now.Add(-4*day + 2*time.Hour)),
		eventAt(now.Add(-time.Hour)), // last bucket
		eventAt(now),
		eventAt(now.Add(-4 * day)), // cutoff, oldest bucket
		eventAt(now.Add(-5 * day)), // outside window
	}

	series := DailySeries(events, now, 4)

	require.Len(t, series, 4)
	assert.Equal(t, []float64{3, 0, 0, 2}, series)
	assert.Nil(t, DailySeries(events, now, 0))
}

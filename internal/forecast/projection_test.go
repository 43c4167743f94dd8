package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysUntil(t *testing.T) {
	deadline := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 100, DaysUntil(deadline.Add(-100*day), deadline))
	assert.Equal(t, 99, DaysUntil(deadline.Add(-100*day+time.Hour), deadline), "partial days are floored")
	assert.Equal(t, 0, DaysUntil(deadline, deadline))
	assert.Equal(t, -1, DaysUntil(deadline.Add(time.Hour), deadline))
	assert.Equal(t, -10, DaysUntil(deadline.Add(10*day), deadline))
}

func TestProjectDays(t *testing.T) {
	t.Run("ahead", func(t *testing.T) {
		p := ProjectDays(20000, 30000, 100, 120)

		assert.InDelta(t, 32000.0, p.ProjectedSubscribers, 0.0001)
		assert.Equal(t, StatusAhead, p.Status)
		assert.InDelta(t, 100.0, p.RequiredDailyGrowth, 0.0001)
		assert.Equal(t, 10000, p.SubscribersNeeded)
	})

	t.Run("behind", func(t *testing.T) {
		p := ProjectDays(20000, 30000, 100, 80)

		assert.InDelta(t, 28000.0, p.ProjectedSubscribers, 0.0001)
		assert.Equal(t, StatusBehind, p.Status)
		assert.InDelta(t, 100.0, p.RequiredDailyGrowth, 0.0001)
	})

	t.Run("deadline today", func(t *testing.T) {
		p := ProjectDays(20000, 30000, 0, 80)

		assert.Equal(t, 0, p.DaysRemaining)
		assert.Equal(t, 0.0, p.RequiredDailyGrowth)
		assert.InDelta(t, 20000.0, p.ProjectedSubscribers, 0.0001)
		assert.Equal(t, 10000, p.SubscribersNeeded)
		assert.Equal(t, StatusBehind, p.Status)
	})

	t.Run("on track", func(t *testing.T) {
		p := ProjectDays(20000, 30000, 100, 100)

		assert.InDelta(t, 30000.0, p.ProjectedSubscribers, 0.0001)
		assert.Equal(t, StatusOnTrack, p.Status)
	})

	t.Run("deadline passed", func(t *testing.T) {
		p := ProjectDays(20000, 30000, -5, 100)

		assert.Equal(t, -5, p.DaysRemaining)
		assert.Equal(t, 0.0, p.RequiredDailyGrowth)
		assert.InDelta(t, 19500.0, p.ProjectedSubscribers, 0.0001)
		assert.Equal(t, StatusBehind, p.Status)
	})

	t.Run("target already met", func(t *testing.T) {
		p := ProjectDays(31000, 30000, 10, 0)

		assert.Equal(t, 0, p.SubscribersNeeded)
		assert.InDelta(t, -100.0, p.RequiredDailyGrowth, 0.0001)
		assert.Equal(t, StatusOnTrack, p.Status)
	})
}

func TestProject(t *testing.T) {
	deadline := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	now := deadline.Add(-100 * day)

	p := Project(20000, 30000, now, deadline, 120)

	assert.Equal(t, 100, p.DaysRemaining)
	assert.Equal(t, StatusAhead, p.Status)
}

func TestClassifyBand(t *testing.T) {
	assert.Equal(t, BandBelowTarget, ClassifyBand(34.9, 35, 40))
	assert.Equal(t, BandOnTrack, ClassifyBand(35, 35, 40))
	assert.Equal(t, BandOnTrack, ClassifyBand(40, 35, 40))
	assert.Equal(t, BandAboveTarget, ClassifyBand(40.1, 35, 40))
}

func TestClassifyMinimum(t *testing.T) {
	assert.Equal(t, BandOnTrack, ClassifyMinimum(16, 16))
	assert.Equal(t, BandOnTrack, ClassifyMinimum(25, 16))
	assert.Equal(t, BandBelowTarget, ClassifyMinimum(15.9, 16))
}

func TestAverage(t *testing.T) {
	assert.Equal(t, Averages{}, Average(nil))

	avg := Average([]PostMetric{
		{OpenRate: 30, CTOR: 10, ArticleClicks: 1000},
		{OpenRate: 40, CTOR: 20, ArticleClicks: 3000},
	})
	assert.InDelta(t, 35.0, avg.OpenRate, 0.0001)
	assert.InDelta(t, 15.0, avg.CTOR, 0.0001)
	assert.InDelta(t, 2000.0, avg.TrafficPerSend, 0.0001)
}

func TestClassify(t *testing.T) {
	targets := DefaultConfig().Targets

	status := Classify(Averages{OpenRate: 42, CTOR: 10, TrafficPerSend: 3500}, targets)

	assert.Equal(t, BandAboveTarget, status.OpenRate)
	assert.Equal(t, BandBelowTarget, status.CTOR)
	assert.Equal(t, BandOnTrack, status.Traffic)
}

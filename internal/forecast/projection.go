package forecast

import (
	"math"
	"time"
)

// aheadMargin is how far past target the projection must land to count as AHEAD.
const aheadMargin = 1.05

// DaysUntil returns the whole days from now to deadline, floored. It goes
// negative once the deadline has passed.
func DaysUntil(now, deadline time.Time) int {
	return int(math.Floor(deadline.Sub(now).Hours() / 24))
}

// Project forecasts the subscriber count at deadline assuming dailyGrowth
// holds. DaysRemaining is not clamped; with no days left the required growth
// is reported as 0.
func Project(currentSubs, targetSubs int, now, deadline time.Time, dailyGrowth float64) Projection {
	return ProjectDays(currentSubs, targetSubs, DaysUntil(now, deadline), dailyGrowth)
}

// ProjectDays is Project with the remaining days already computed.
func ProjectDays(currentSubs, targetSubs, daysRemaining int, dailyGrowth float64) Projection {
	gap := targetSubs - currentSubs

	var required float64
	if daysRemaining > 0 {
		required = float64(gap) / float64(daysRemaining)
	}

	projected := float64(currentSubs) + dailyGrowth*float64(daysRemaining)

	needed := gap
	if needed < 0 {
		needed = 0
	}

	return Projection{
		ProjectedSubscribers: projected,
		DaysRemaining:        daysRemaining,
		RequiredDailyGrowth:  required,
		SubscribersNeeded:    needed,
		Status:               subscriberStatus(projected, targetSubs),
	}
}

func subscriberStatus(projected float64, target int) SubscriberStatus {
	switch {
	case projected >= float64(target)*aheadMargin:
		return StatusAhead
	case projected >= float64(target):
		return StatusOnTrack
	default:
		return StatusBehind
	}
}

// ClassifyBand places value against the inclusive [min, max] band.
func ClassifyBand(value, min, max float64) BandStatus {
	switch {
	case value < min:
		return BandBelowTarget
	case value > max:
		return BandAboveTarget
	default:
		return BandOnTrack
	}
}

// ClassifyMinimum is ON_TRACK when value reaches min. Used for metrics that
// have no upper bound worth flagging.
func ClassifyMinimum(value, min float64) BandStatus {
	if value >= min {
		return BandOnTrack
	}
	return BandBelowTarget
}

// Average computes engagement means over posts. All zero for an empty list.
func Average(posts []PostMetric) Averages {
	if len(posts) == 0 {
		return Averages{}
	}
	var open, ctor, traffic float64
	for _, p := range posts {
		open += p.OpenRate
		ctor += p.CTOR
		traffic += float64(p.ArticleClicks)
	}
	n := float64(len(posts))
	return Averages{
		OpenRate:       open / n,
		CTOR:           ctor / n,
		TrafficPerSend: traffic / n,
	}
}

// Classify returns the band status of each engagement average.
func Classify(avg Averages, t Targets) EngagementStatus {
	return EngagementStatus{
		OpenRate: ClassifyBand(avg.OpenRate, t.OpenRate.Min, t.OpenRate.Max),
		CTOR:     ClassifyMinimum(avg.CTOR, t.CTOR.Min),
		Traffic:  ClassifyMinimum(avg.TrafficPerSend, t.TrafficPerSend),
	}
}

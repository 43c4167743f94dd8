package forecast

import "fmt"

// MaxRecommendations caps the number of messages a snapshot carries.
const MaxRecommendations = 3

// AllOnTrack is returned alone when no rule fires.
const AllOnTrack = "All metrics are on track! Maintain current strategies and continue monitoring."

// Assessment is the subset of a run's results the recommendation rules read.
type Assessment struct {
	SubscriberStatus    SubscriberStatus
	RequiredDailyGrowth float64
	ActualDailyGrowth   float64
	AvgOpenRate         float64
	AvgCTOR             float64
	AvgTrafficPerSend   float64
}

// Rule is one entry of the recommendation policy.
type Rule struct {
	Name    string
	Applies func(a Assessment, t Targets) bool
	Message func(a Assessment, t Targets) string
}

// DefaultRules returns the policy in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "subscriber_growth",
			Applies: func(a Assessment, _ Targets) bool {
				return a.SubscriberStatus == StatusBehind
			},
			Message: func(a Assessment, _ Targets) string {
				gap := a.RequiredDailyGrowth - a.ActualDailyGrowth
				return fmt.Sprintf("Subscriber growth needs to increase by %.1f subs/day. "+
					"Consider: referral programs, cross-promotions, or paid acquisition.", gap)
			},
		},
		{
			Name: "open_rate",
			Applies: func(a Assessment, t Targets) bool {
				return a.AvgOpenRate < t.OpenRate.Min
			},
			Message: func(a Assessment, t Targets) string {
				return fmt.Sprintf("Open rate (%.1f%%) is below target (%s%%). "+
					"Test subject lines, optimize send times, and clean inactive subscribers.",
					a.AvgOpenRate, formatTarget(t.OpenRate.Min))
			},
		},
		{
			Name: "ctor",
			Applies: func(a Assessment, t Targets) bool {
				return a.AvgCTOR < t.CTOR.Min
			},
			Message: func(a Assessment, t Targets) string {
				return fmt.Sprintf("CTOR (%.1f%%) is below target (%s%%). "+
					"Improve CTA placement, use more compelling link text, and ensure content matches subject promises.",
					a.AvgCTOR, formatTarget(t.CTOR.Min))
			},
		},
		{
			Name: "traffic",
			Applies: func(a Assessment, t Targets) bool {
				return a.AvgTrafficPerSend < t.TrafficPerSend
			},
			Message: func(a Assessment, t Targets) string {
				return fmt.Sprintf("Traffic per send (%.0f) is below target (%s). "+
					"Add more article links, use curiosity-driven teasers, and test link positioning.",
					a.AvgTrafficPerSend, formatTarget(t.TrafficPerSend))
			},
		},
	}
}

// Recommend evaluates DefaultRules against a.
func Recommend(a Assessment, t Targets) []string {
	return RecommendWith(DefaultRules(), a, t)
}

// RecommendWith evaluates rules in order, keeping at most MaxRecommendations
// messages. The result is never empty.
func RecommendWith(rules []Rule, a Assessment, t Targets) []string {
	out := make([]string, 0, MaxRecommendations)
	for _, r := range rules {
		if len(out) == MaxRecommendations {
			break
		}
		if r.Applies(a, t) {
			out = append(out, r.Message(a, t))
		}
	}
	if len(out) == 0 {
		out = append(out, AllOnTrack)
	}
	return out
}

// formatTarget prints whole numbers without decimals, so 35 reads "35" and
// 16.5 reads "16.5".
func formatTarget(v float64) string {
	return fmt.Sprintf("%g", v)
}

package forecast

import (
	"time"

	"github.com/google/uuid"
)

// Input is the raw data fetched for a single run.
type Input struct {
	Publication *RawPublication
	Posts       []RawPost
	Subscribers []RawSubscriber
}

// Engine runs the forecast pipeline over one fetched snapshot. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	cfg   Config
	rules []Rule
	newID func() string
}

// NewEngine creates an engine with the default recommendation rules.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:   cfg,
		rules: DefaultRules(),
		newID: func() string { return uuid.New().String() },
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run normalizes in, derives every metric relative to now and assembles the
// snapshot.
func (e *Engine) Run(now time.Time, in Input) (*Snapshot, error) {
	if in.Publication == nil {
		return nil, ErrNoPublication
	}

	norm := Normalize(e.cfg, *in.Publication, in.Posts, in.Subscribers)
	posts := QualifyingPosts(norm.Posts, e.cfg.MinRecipients, e.cfg.MaxPosts)

	growth := Window(norm.Subscribers, now, e.cfg.GrowthWindowDays)
	avg := Average(posts)
	proj := Project(norm.Publication.ActiveSubscribers, e.cfg.Targets.Subscribers,
		now, e.cfg.Targets.Deadline, growth.DailyRate)

	trends := Trends{
		OpenRate: ClassifyTrend(OpenRateSeries(posts)),
		CTOR:     ClassifyTrend(CTORSeries(posts)),
		Growth:   ClassifyTrend(DailySeries(norm.Subscribers, now, e.cfg.GrowthWindowDays)),
	}

	recs := RecommendWith(e.rules, Assessment{
		SubscriberStatus:    proj.Status,
		RequiredDailyGrowth: proj.RequiredDailyGrowth,
		ActualDailyGrowth:   growth.DailyRate,
		AvgOpenRate:         avg.OpenRate,
		AvgCTOR:             avg.CTOR,
		AvgTrafficPerSend:   avg.TrafficPerSend,
	}, e.cfg.Targets)

	return Assemble(AssembleInput{
		RunID:           e.newID(),
		GeneratedAt:     now,
		Publication:     norm.Publication,
		Targets:         e.cfg.Targets,
		Growth:          growth,
		Averages:        avg,
		Projection:      proj,
		Status:          Classify(avg, e.cfg.Targets),
		Trends:          trends,
		Recommendations: recs,
		Posts:           posts,
		TopArticles:     RankArticles(posts, e.cfg.TopArticles),
	}), nil
}

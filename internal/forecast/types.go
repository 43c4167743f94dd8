package forecast

import (
	"errors"
	"time"
)

// ErrNoPublication is returned when a run is attempted without a publication
// record. Without a baseline subscriber count no projection can be made.
var ErrNoPublication = errors.New("publication record is required")

// Range is an inclusive target band on the percentage scale.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Targets holds the goals a publication is measured against
type Targets struct {
	Subscribers    int       `json:"subscribers"`
	OpenRate       Range     `json:"open_rate"`
	CTOR           Range     `json:"ctor"`
	TrafficPerSend float64   `json:"traffic_per_send"`
	Deadline       time.Time `json:"deadline"`
}

// Config is the immutable engine configuration passed into every run.
type Config struct {
	Targets          Targets
	GrowthWindowDays int      // trailing window for the daily growth rate
	MaxPosts         int      // qualifying posts analysed per run
	MinRecipients    int      // posts must have strictly more recipients than this
	TopArticles      int      // rows kept in the top articles table
	ContentDomains   []string // click URLs containing one of these count as article traffic
}

// DefaultConfig returns the configuration the forecast was originally tuned for.
func DefaultConfig() Config {
	return Config{
		Targets: Targets{
			Subscribers:    30000,
			OpenRate:       Range{Min: 35, Max: 40},
			CTOR:           Range{Min: 16, Max: 17},
			TrafficPerSend: 3000,
			Deadline:       time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
		},
		GrowthWindowDays: 30,
		MaxPosts:         20,
		MinRecipients:    100,
		TopArticles:      15,
		ContentDomains:   []string{"inquisitr.com"},
	}
}

// RateEncoding states how a provider encoded a rate value.
type RateEncoding string

const (
	// EncodingAuto infers the scale from magnitude: values below 1 are fractions.
	EncodingAuto RateEncoding = "auto"
	// EncodingFraction marks a 0-1 value.
	EncodingFraction RateEncoding = "fraction"
	// EncodingPercent marks a value already on the 0-100 scale.
	EncodingPercent RateEncoding = "percent"
)

// RawPublication is a publication record as handed over by the fetch layer.
type RawPublication struct {
	ID                  string
	Name                string
	ActiveSubscriptions int
	AverageOpenRate     float64
	AverageClickRate    float64
	RateEncoding        RateEncoding
}

// RawClick is a single link entry of a post's click stats.
type RawClick struct {
	URL          string
	TotalClicks  int
	UniqueClicks int
}

// RawPost is a post record as handed over by the fetch layer.
type RawPost struct {
	ID               string
	Title            string
	PublishDate      *int64 // epoch seconds
	Recipients       int
	UniqueOpens      int
	UniqueClicks     int
	OpenRate         float64
	OpenRateEncoding RateEncoding
	Clicks           []RawClick
}

// RawSubscriber is a subscription record as handed over by the fetch layer.
type RawSubscriber struct {
	Created *int64 // epoch seconds
	Status  string
}

// Publication is the normalized publication snapshot. Rates are percentages.
type Publication struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	ActiveSubscribers int     `json:"active_subscriptions"`
	AvgOpenRate       float64 `json:"average_open_rate"`
	AvgClickRate      float64 `json:"average_click_rate"`
}

// ArticleLink is a content-domain link clicked from a post.
type ArticleLink struct {
	URL          string `json:"url"`
	TotalClicks  int    `json:"total_clicks"`
	UniqueClicks int    `json:"unique_clicks"`
}

// PostMetric holds per-post engagement derived from a raw post.
type PostMetric struct {
	ID            string
	Title         string
	PublishedAt   *time.Time
	Recipients    int
	UniqueOpens   int
	UniqueClicks  int
	OpenRate      float64 // percentage
	CTOR          float64 // click-to-open, percentage
	ArticleClicks int
	ArticleLinks  []ArticleLink
}

// SubscriberEvent is a single subscription creation.
type SubscriberEvent struct {
	CreatedAt *time.Time
	Status    string
}

// GrowthWindow is the average number of subscribers added per day over the
// trailing window ending at the run instant.
type GrowthWindow struct {
	WindowDays int     `json:"window_days"`
	DailyRate  float64 `json:"daily_rate"`
}

// Trend is the direction of a metric series.
type Trend string

const (
	TrendInsufficientData Trend = "insufficient_data"
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
)

// SubscriberStatus classifies the projected subscriber count against target.
type SubscriberStatus string

const (
	StatusAhead   SubscriberStatus = "AHEAD"
	StatusOnTrack SubscriberStatus = "ON_TRACK"
	StatusBehind  SubscriberStatus = "BEHIND"
)

// BandStatus classifies an engagement metric against its target band.
type BandStatus string

const (
	BandOnTrack     BandStatus = "ON_TRACK"
	BandBelowTarget BandStatus = "BELOW_TARGET"
	BandAboveTarget BandStatus = "ABOVE_TARGET"
)

// Projection is the deadline forecast for the subscriber target.
type Projection struct {
	ProjectedSubscribers float64          `json:"projected_subscribers"`
	DaysRemaining        int              `json:"days_remaining"`
	RequiredDailyGrowth  float64          `json:"required_daily_growth"`
	SubscribersNeeded    int              `json:"subscribers_needed"`
	Status               SubscriberStatus `json:"subscriber_status"`
}

// Averages are the engagement means over the analysed posts.
type Averages struct {
	OpenRate       float64
	CTOR           float64
	TrafficPerSend float64
}

// CurrentMetrics is the "where we are now" block of a snapshot.
type CurrentMetrics struct {
	Subscribers       int     `json:"subscribers"`
	DailyGrowth       float64 `json:"daily_growth"`
	AvgOpenRate       float64 `json:"avg_open_rate"`
	AvgCTOR           float64 `json:"avg_ctor"`
	AvgTrafficPerSend float64 `json:"avg_traffic_per_send"`
}

// EngagementStatus holds the band classification of each engagement metric.
type EngagementStatus struct {
	OpenRate BandStatus `json:"open_rate"`
	CTOR     BandStatus `json:"ctor"`
	Traffic  BandStatus `json:"traffic"`
}

// Trends holds the direction of each tracked series.
type Trends struct {
	OpenRate Trend `json:"open_rate"`
	CTOR     Trend `json:"ctor"`
	Growth   Trend `json:"growth"`
}

// PostDetail is the per-post row of a snapshot.
type PostDetail struct {
	Title         string     `json:"title"`
	PublishDate   *time.Time `json:"publish_date"`
	Recipients    int        `json:"recipients"`
	OpenRate      float64    `json:"open_rate"`
	CTOR          float64    `json:"ctor"`
	ArticleClicks int        `json:"article_clicks"`
}

// TopArticle is a content link ranked by clicks across the analysed posts.
type TopArticle struct {
	URL          string `json:"url"`
	PostTitle    string `json:"post_title"`
	TotalClicks  int    `json:"total_clicks"`
	UniqueClicks int    `json:"unique_clicks"`
}

// Snapshot is the complete report handed to renderers and storage.
type Snapshot struct {
	RunID           string           `json:"run_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Publication     Publication      `json:"publication"`
	Targets         Targets          `json:"targets"`
	CurrentMetrics  CurrentMetrics   `json:"current_metrics"`
	Projections     Projection       `json:"projections"`
	Status          EngagementStatus `json:"status"`
	Trends          Trends           `json:"trends"`
	Recommendations []string         `json:"recommendations"`
	PostsAnalyzed   int              `json:"posts_analyzed"`
	PostDetails     []PostDetail     `json:"post_details"`
	TopArticles     []TopArticle     `json:"top_articles"`
}

package forecast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRun_NoPublication(t *testing.T) {
	e := NewEngine(DefaultConfig())

	snap, err := e.Run(time.Now(), Input{})

	assert.ErrorIs(t, err, ErrNoPublication)
	assert.Nil(t, snap)
}

func TestEngineRun_NoPostsNoSubscribers(t *testing.T) {
	cfg := DefaultConfig()
	now := cfg.Targets.Deadline.Add(-100 * day)
	e := NewEngine(cfg)

	snap, err := e.Run(now, Input{
		Publication: &RawPublication{ID: "pub_1", Name: "Daily", ActiveSubscriptions: 20000},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, snap.RunID)
	assert.Equal(t, now, snap.GeneratedAt)
	assert.Equal(t, 0, snap.PostsAnalyzed)
	assert.Empty(t, snap.PostDetails)
	assert.NotNil(t, snap.PostDetails)
	assert.Equal(t, 0.0, snap.CurrentMetrics.DailyGrowth)
	assert.Equal(t, 100, snap.Projections.DaysRemaining)
	assert.Equal(t, StatusBehind, snap.Projections.Status)
	assert.Equal(t, TrendInsufficientData, snap.Trends.OpenRate)
	assert.Equal(t, TrendInsufficientData, snap.Trends.CTOR)
	assert.Equal(t, BandBelowTarget, snap.Status.OpenRate)
	assert.Len(t, snap.Recommendations, MaxRecommendations)
}

func TestEngineRun_FullPipeline(t *testing.T) {
	cfg := DefaultConfig()
	now := cfg.Targets.Deadline.Add(-50 * day)
	e := NewEngine(cfg)
	e.newID = func() string { return "run-1" }

	var posts []RawPost
	for i := 0; i < 25; i++ {
		posts = append(posts, RawPost{
			ID:               string(rune('a' + i)),
			Title:            "Post",
			PublishDate:      epoch(now.Add(-time.Duration(25-i) * day)),
			Recipients:       20000,
			UniqueOpens:      8000,
			UniqueClicks:     1400,
			OpenRate:         38,
			OpenRateEncoding: EncodingAuto,
			Clicks: []RawClick{
				{URL: "https://inquisitr.com/story-" + string(rune('a' + i)), TotalClicks: 3100 + i, UniqueClicks: 2900},
				{URL: "https://facebook.com/share", TotalClicks: 10},
			},
		})
	}
	// Below the recipient floor; must be ignored.
	posts = append(posts, RawPost{ID: "small", Recipients: 50, PublishDate: epoch(now)})

	var subs []RawSubscriber
	for i := 0; i < 6000; i++ {
		subs = append(subs, RawSubscriber{Created: epoch(now.Add(-time.Duration(i%30) * day)), Status: "active"})
	}

	snap, err := e.Run(now, Input{
		Publication: &RawPublication{
			ID:                  "pub_1",
			Name:                "Daily",
			ActiveSubscriptions: 25000,
			AverageOpenRate:     0.38,
			AverageClickRate:    0.06,
			RateEncoding:        EncodingFraction,
		},
		Posts:       posts,
		Subscribers: subs,
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, 20, snap.PostsAnalyzed)
	require.Len(t, snap.PostDetails, 20)
	assert.True(t, snap.PostDetails[0].PublishDate.Before(*snap.PostDetails[19].PublishDate))
	assert.Equal(t, 3105, snap.PostDetails[0].ArticleClicks, "oldest kept post is the sixth fetched")

	assert.InDelta(t, 200.0, snap.CurrentMetrics.DailyGrowth, 0.0001)
	assert.InDelta(t, 38.0, snap.CurrentMetrics.AvgOpenRate, 0.0001)
	assert.InDelta(t, 17.5, snap.CurrentMetrics.AvgCTOR, 0.0001)
	assert.InDelta(t, 38.0, snap.Publication.AvgOpenRate, 0.0001)

	assert.Equal(t, 50, snap.Projections.DaysRemaining)
	assert.InDelta(t, 35000.0, snap.Projections.ProjectedSubscribers, 0.0001)
	assert.Equal(t, StatusAhead, snap.Projections.Status)
	assert.Equal(t, 5000, snap.Projections.SubscribersNeeded)

	assert.Equal(t, BandOnTrack, snap.Status.OpenRate)
	assert.Equal(t, BandOnTrack, snap.Status.CTOR)
	assert.Equal(t, BandOnTrack, snap.Status.Traffic)
	assert.Equal(t, TrendStable, snap.Trends.OpenRate)
	assert.Equal(t, TrendStable, snap.Trends.Growth)
	assert.Equal(t, []string{AllOnTrack}, snap.Recommendations)

	require.Len(t, snap.TopArticles, cfg.TopArticles)
	assert.Equal(t, 3124, snap.TopArticles[0].TotalClicks)
	assert.Equal(t, "Post", snap.TopArticles[0].PostTitle)
}

func TestSnapshotJSONFieldNames(t *testing.T) {
	snap := Assemble(AssembleInput{RunID: "r", Targets: DefaultConfig().Targets})

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))

	for _, key := range []string{
		"run_id", "generated_at", "publication", "targets", "current_metrics", "projections",
		"status", "trends", "recommendations", "posts_analyzed", "post_details", "top_articles",
	} {
		assert.Contains(t, m, key)
	}

	proj := m["projections"].(map[string]interface{})
	for _, key := range []string{
		"projected_subscribers", "days_remaining", "required_daily_growth", "subscribers_needed", "subscriber_status",
	} {
		assert.Contains(t, proj, key)
	}

	targets := m["targets"].(map[string]interface{})
	assert.Contains(t, targets["open_rate"], "min")
	assert.Equal(t, []interface{}{}, m["post_details"])
	assert.Equal(t, []interface{}{}, m["top_articles"])
}

func TestRankArticles(t *testing.T) {
	posts := []PostMetric{
		{Title: "one", ArticleLinks: []ArticleLink{{URL: "a", TotalClicks: 5}, {URL: "b", TotalClicks: 50, UniqueClicks: 40}}},
		{Title: "two", ArticleLinks: []ArticleLink{{URL: "c", TotalClicks: 20}, {URL: "d", TotalClicks: 60}}},
		{Title: "three", ArticleLinks: []ArticleLink{{URL: "b", TotalClicks: 30, UniqueClicks: 25}}},
	}

	top := RankArticles(posts, 3)

	require.Len(t, top, 3)
	assert.Equal(t, "b", top[0].URL)
	assert.Equal(t, 80, top[0].TotalClicks)
	assert.Equal(t, 65, top[0].UniqueClicks)
	assert.Equal(t, "one", top[0].PostTitle, "merged URL keeps the first title")
	assert.Equal(t, "d", top[1].URL)
	assert.Equal(t, "c", top[2].URL)
	assert.Equal(t, []TopArticle{}, RankArticles(nil, 15))
}

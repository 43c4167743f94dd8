package forecast

import (
	"sort"
	"time"
)

// AssembleInput carries everything Assemble composes into a Snapshot.
type AssembleInput struct {
	RunID           string
	GeneratedAt     time.Time
	Publication     Publication
	Targets         Targets
	Growth          GrowthWindow
	Averages        Averages
	Projection      Projection
	Status          EngagementStatus
	Trends          Trends
	Recommendations []string
	Posts           []PostMetric
	TopArticles     []TopArticle
}

// Assemble composes the run results into a Snapshot. It performs no
// computation beyond copying and shaping.
func Assemble(in AssembleInput) *Snapshot {
	details := make([]PostDetail, 0, len(in.Posts))
	for _, p := range in.Posts {
		details = append(details, PostDetail{
			Title:         p.Title,
			PublishDate:   p.PublishedAt,
			Recipients:    p.Recipients,
			OpenRate:      p.OpenRate,
			CTOR:          p.CTOR,
			ArticleClicks: p.ArticleClicks,
		})
	}

	top := in.TopArticles
	if top == nil {
		top = []TopArticle{}
	}
	recs := in.Recommendations
	if recs == nil {
		recs = []string{}
	}

	return &Snapshot{
		RunID:       in.RunID,
		GeneratedAt: in.GeneratedAt,
		Publication: in.Publication,
		Targets:     in.Targets,
		CurrentMetrics: CurrentMetrics{
			Subscribers:       in.Publication.ActiveSubscribers,
			DailyGrowth:       in.Growth.DailyRate,
			AvgOpenRate:       in.Averages.OpenRate,
			AvgCTOR:           in.Averages.CTOR,
			AvgTrafficPerSend: in.Averages.TrafficPerSend,
		},
		Projections:     in.Projection,
		Status:          in.Status,
		Trends:          in.Trends,
		Recommendations: recs,
		PostsAnalyzed:   len(in.Posts),
		PostDetails:     details,
		TopArticles:     top,
	}
}

// RankArticles merges the article links of posts by URL and returns the
// limit most clicked, highest first. A URL keeps the title of the first post
// that linked it; ties keep first-seen order.
func RankArticles(posts []PostMetric, limit int) []TopArticle {
	index := make(map[string]int)
	all := []TopArticle{}
	for _, p := range posts {
		for _, l := range p.ArticleLinks {
			if i, ok := index[l.URL]; ok {
				all[i].TotalClicks += l.TotalClicks
				all[i].UniqueClicks += l.UniqueClicks
				continue
			}
			index[l.URL] = len(all)
			all = append(all, TopArticle{
				URL:          l.URL,
				PostTitle:    p.Title,
				TotalClicks:  l.TotalClicks,
				UniqueClicks: l.UniqueClicks,
			})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].TotalClicks > all[j].TotalClicks
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

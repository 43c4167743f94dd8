package forecast

import (
	"sort"
	"strings"
	"time"
)

// Normalized is the canonical form of one fetched snapshot.
// Posts are ordered chronologically, oldest first; undated posts sort first.
type Normalized struct {
	Publication Publication
	Posts       []PostMetric
	Subscribers []SubscriberEvent
}

// Normalize converts raw provider records into canonical metric entities.
func Normalize(cfg Config, pub RawPublication, posts []RawPost, subs []RawSubscriber) Normalized {
	out := Normalized{
		Publication: NormalizePublication(pub),
		Posts:       make([]PostMetric, 0, len(posts)),
		Subscribers: make([]SubscriberEvent, 0, len(subs)),
	}

	for _, p := range posts {
		out.Posts = append(out.Posts, NormalizePost(p, cfg.ContentDomains))
	}
	sortChronologically(out.Posts)

	for _, s := range subs {
		out.Subscribers = append(out.Subscribers, SubscriberEvent{
			CreatedAt: fromEpoch(s.Created),
			Status:    s.Status,
		})
	}

	return out
}

// NormalizePublication converts the publication record. Rates become percentages.
func NormalizePublication(pub RawPublication) Publication {
	name := pub.Name
	if name == "" {
		name = "Unknown"
	}
	return Publication{
		ID:                pub.ID,
		Name:              name,
		ActiveSubscribers: pub.ActiveSubscriptions,
		AvgOpenRate:       NormalizeRate(pub.AverageOpenRate, pub.RateEncoding),
		AvgClickRate:      NormalizeRate(pub.AverageClickRate, pub.RateEncoding),
	}
}

// NormalizePost derives the per-post metrics from a raw post.
func NormalizePost(p RawPost, contentDomains []string) PostMetric {
	title := p.Title
	if title == "" {
		title = "Untitled"
	}

	pm := PostMetric{
		ID:           p.ID,
		Title:        title,
		PublishedAt:  fromEpoch(p.PublishDate),
		Recipients:   p.Recipients,
		UniqueOpens:  p.UniqueOpens,
		UniqueClicks: p.UniqueClicks,
		OpenRate:     NormalizeRate(p.OpenRate, p.OpenRateEncoding),
		CTOR:         ClickToOpenRate(p.UniqueClicks, p.UniqueOpens),
	}

	for _, c := range p.Clicks {
		if !IsContentURL(c.URL, contentDomains) {
			continue
		}
		pm.ArticleClicks += c.TotalClicks
		pm.ArticleLinks = append(pm.ArticleLinks, ArticleLink{
			URL:          c.URL,
			TotalClicks:  c.TotalClicks,
			UniqueClicks: c.UniqueClicks,
		})
	}

	return pm
}

// NormalizeRate puts a rate on the 0-100 scale according to its encoding.
// With EncodingAuto (or an unrecognised encoding) a value below 1 is treated
// as a fraction. A genuine sub-1% rate cannot be told apart in that mode.
func NormalizeRate(value float64, enc RateEncoding) float64 {
	switch enc {
	case EncodingFraction:
		value *= 100
	case EncodingPercent:
	default:
		if value < 1 {
			value *= 100
		}
	}
	return clampPercent(value)
}

// ClickToOpenRate returns unique clicks over unique opens as a percentage,
// or 0 when there were no opens.
func ClickToOpenRate(uniqueClicks, uniqueOpens int) float64 {
	if uniqueOpens <= 0 {
		return 0
	}
	return float64(uniqueClicks) / float64(uniqueOpens) * 100
}

// IsContentURL reports whether url points at one of the content domains.
func IsContentURL(url string, domains []string) bool {
	if url == "" {
		return false
	}
	lower := strings.ToLower(url)
	for _, d := range domains {
		if d != "" && strings.Contains(lower, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

// QualifyingPosts keeps posts with more than minRecipients recipients and caps
// the result to the maxPosts most recent ones. Input must be chronological;
// the returned slice keeps that order.
func QualifyingPosts(posts []PostMetric, minRecipients, maxPosts int) []PostMetric {
	qualifying := make([]PostMetric, 0, len(posts))
	for _, p := range posts {
		if p.Recipients > minRecipients {
			qualifying = append(qualifying, p)
		}
	}
	if maxPosts > 0 && len(qualifying) > maxPosts {
		qualifying = qualifying[len(qualifying)-maxPosts:]
	}
	return qualifying
}

func sortChronologically(posts []PostMetric) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].PublishedAt, posts[j].PublishedAt
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
}

func fromEpoch(sec *int64) *time.Time {
	if sec == nil || *sec <= 0 {
		return nil
	}
	t := time.Unix(*sec, 0).UTC()
	return &t
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

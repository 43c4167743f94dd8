package beehiiv

import "github.com/ignite/beehiiv-forecast/internal/forecast"

// PublicationsResponse is the body of GET /publications
type PublicationsResponse struct {
	Data []Publication `json:"data"`
}

// Publication is a Beehiiv publication with expanded stats
type Publication struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Stats PublicationStats `json:"stats"`
}

// PublicationStats are publication-wide aggregates. Rates are 0-1 fractions.
type PublicationStats struct {
	ActiveSubscriptions int     `json:"active_subscriptions"`
	AverageOpenRate     float64 `json:"average_open_rate"`
	AverageClickRate    float64 `json:"average_click_rate"`
}

// PostsResponse is one page of GET /publications/{id}/posts
type PostsResponse struct {
	Data         []Post `json:"data"`
	Page         int    `json:"page"`
	Limit        int    `json:"limit"`
	TotalResults int    `json:"total_results"`
	TotalPages   int    `json:"total_pages"`
}

// Post is a Beehiiv post with expanded stats
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	PublishDate *int64    `json:"publish_date"`
	Stats       PostStats `json:"stats"`
}

// PostStats holds the email and per-link stats of a post
type PostStats struct {
	Email  EmailStats  `json:"email"`
	Clicks []ClickStat `json:"clicks"`
}

// EmailStats are the email delivery stats of a post. OpenRate is reported
// as a fraction by some accounts and as a percentage by others.
type EmailStats struct {
	Recipients   int     `json:"recipients"`
	Delivered    int     `json:"delivered"`
	Opens        int     `json:"opens"`
	UniqueOpens  int     `json:"unique_opens"`
	OpenRate     float64 `json:"open_rate"`
	Clicks       int     `json:"clicks"`
	UniqueClicks int     `json:"unique_clicks"`
	ClickRate    float64 `json:"click_rate"`
}

// ClickStat is the click summary of a single link in a post
type ClickStat struct {
	URL               string `json:"url"`
	TotalClicks       int    `json:"total_clicks"`
	TotalUniqueClicks int    `json:"total_unique_clicks"`
	UniqueClicks      int    `json:"unique_clicks"`
}

// SubscriptionsResponse is one page of GET /publications/{id}/subscriptions
type SubscriptionsResponse struct {
	Data       []Subscription `json:"data"`
	Limit      int            `json:"limit"`
	HasMore    bool           `json:"has_more"`
	NextCursor string         `json:"next_cursor"`
}

// Subscription is a subscriber record. The email address is deliberately not
// decoded; the forecast only needs creation times.
type Subscription struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Created *int64 `json:"created"`
}

// ToRaw converts the publication for the forecast engine.
func (p Publication) ToRaw() forecast.RawPublication {
	return forecast.RawPublication{
		ID:                  p.ID,
		Name:                p.Name,
		ActiveSubscriptions: p.Stats.ActiveSubscriptions,
		AverageOpenRate:     p.Stats.AverageOpenRate,
		AverageClickRate:    p.Stats.AverageClickRate,
		RateEncoding:        forecast.EncodingFraction,
	}
}

// ToRaw converts the post for the forecast engine.
func (p Post) ToRaw() forecast.RawPost {
	raw := forecast.RawPost{
		ID:               p.ID,
		Title:            p.Title,
		PublishDate:      p.PublishDate,
		Recipients:       p.Stats.Email.Recipients,
		UniqueOpens:      p.Stats.Email.UniqueOpens,
		UniqueClicks:     p.Stats.Email.UniqueClicks,
		OpenRate:         p.Stats.Email.OpenRate,
		OpenRateEncoding: forecast.EncodingAuto,
		Clicks:           make([]forecast.RawClick, 0, len(p.Stats.Clicks)),
	}
	for _, c := range p.Stats.Clicks {
		unique := c.TotalUniqueClicks
		if unique == 0 {
			unique = c.UniqueClicks
		}
		raw.Clicks = append(raw.Clicks, forecast.RawClick{
			URL:          c.URL,
			TotalClicks:  c.TotalClicks,
			UniqueClicks: unique,
		})
	}
	return raw
}

// ToRaw converts the subscription for the forecast engine.
func (s Subscription) ToRaw() forecast.RawSubscriber {
	return forecast.RawSubscriber{
		Created: s.Created,
		Status:  s.Status,
	}
}

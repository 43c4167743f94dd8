// Package report renders forecast snapshots as the plain-text report and as
// indented JSON.
package report

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/osteele/liquid"

	"github.com/ignite/beehiiv-forecast/internal/forecast"
)

const textTemplate = `============================================================
         BEEHIIV GROWTH PREDICTION REPORT
         Generated: {{ generated_at }}
============================================================

Publication: {{ publication }}

SUBSCRIBER PROJECTION
------------------------------------------------------------
Current Subscribers:     {{ current_subs | delimit }}
{{ target_label | pad: 25 }}{{ target_subs | delimit }}
Gap:                     {{ gap | delimit }}
Days Remaining:          {{ days_remaining }}

Current Daily Growth:    {{ daily_growth | fixed: 1 }} subs/day
Required Daily Growth:   {{ required_growth | fixed: 1 }} subs/day

{{ projected_label | pad: 25 }}{{ projected | delimit }}
Status:                  {{ subscriber_status | replace: "_", " " }}

ENGAGEMENT METRICS (Last {{ posts_analyzed }} Posts)
------------------------------------------------------------
                    Current     Target      Status
Open Rate:          {{ open_rate | fixed: 1 | append: "%" | pad: 12 }}{{ open_target | pad: 12 }}{{ open_status | label }}
CTOR:               {{ ctor | fixed: 1 | append: "%" | pad: 12 }}{{ ctor_target | pad: 12 }}{{ ctor_status | label }}
Traffic/Send:       {{ traffic | fixed: 0 | pad: 12 }}{{ traffic_target | delimit | pad: 12 }}{{ traffic_status | label }}

TREND ANALYSIS
------------------------------------------------------------
Open Rate Trend:    {{ open_trend | replace: "_", " " }}
CTOR Trend:         {{ ctor_trend | replace: "_", " " }}
Growth Trend:       {{ growth_trend | replace: "_", " " }}

RECOMMENDATIONS
------------------------------------------------------------
{% for rec in recommendations %}{{ forloop.index }}. {{ rec }}
{% endfor %}{% if top_articles.size > 0 %}
TOP ARTICLES
------------------------------------------------------------
{% for a in top_articles %}{{ a.clicks | delimit | pad: 8 }}{{ a.url }}
{% endfor %}{% endif %}
============================================================
`

// TextRenderer renders the plain-text report. The template is parsed once;
// rendering is safe for concurrent use.
type TextRenderer struct {
	tpl *liquid.Template
}

// NewTextRenderer parses the report template.
func NewTextRenderer() (*TextRenderer, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)

	tpl, err := engine.ParseString(textTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}
	return &TextRenderer{tpl: tpl}, nil
}

// Render produces the text report for s.
func (r *TextRenderer) Render(s *forecast.Snapshot) (string, error) {
	out, err := r.tpl.RenderString(bindings(s))
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return out, nil
}

func bindings(s *forecast.Snapshot) map[string]interface{} {
	deadline := s.Targets.Deadline.Format("Jan 2")

	articles := make([]map[string]interface{}, 0, len(s.TopArticles))
	for _, a := range s.TopArticles {
		articles = append(articles, map[string]interface{}{
			"url":    a.URL,
			"title":  a.PostTitle,
			"clicks": a.TotalClicks,
		})
	}

	return map[string]interface{}{
		"generated_at":      s.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
		"publication":       s.Publication.Name,
		"current_subs":      s.CurrentMetrics.Subscribers,
		"target_label":      "Target (" + deadline + "):",
		"target_subs":       s.Targets.Subscribers,
		"gap":               s.Projections.SubscribersNeeded,
		"days_remaining":    s.Projections.DaysRemaining,
		"daily_growth":      s.CurrentMetrics.DailyGrowth,
		"required_growth":   s.Projections.RequiredDailyGrowth,
		"projected_label":   "Projected by " + deadline + ":",
		"projected":         s.Projections.ProjectedSubscribers,
		"subscriber_status": string(s.Projections.Status),
		"posts_analyzed":    s.PostsAnalyzed,
		"open_rate":         s.CurrentMetrics.AvgOpenRate,
		"open_target":       bandLabel(s.Targets.OpenRate),
		"open_status":       string(s.Status.OpenRate),
		"ctor":              s.CurrentMetrics.AvgCTOR,
		"ctor_target":       bandLabel(s.Targets.CTOR),
		"ctor_status":       string(s.Status.CTOR),
		"traffic":           s.CurrentMetrics.AvgTrafficPerSend,
		"traffic_target":    s.Targets.TrafficPerSend,
		"traffic_status":    string(s.Status.Traffic),
		"open_trend":        string(s.Trends.OpenRate),
		"ctor_trend":        string(s.Trends.CTOR),
		"growth_trend":      string(s.Trends.Growth),
		"recommendations":   s.Recommendations,
		"top_articles":      articles,
	}
}

func bandLabel(r forecast.Range) string {
	return strconv.FormatFloat(r.Min, 'f', -1, 64) + "-" + strconv.FormatFloat(r.Max, 'f', -1, 64) + "%"
}

// JSON returns the snapshot as indented JSON, the data.json format.
func JSON(s *forecast.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

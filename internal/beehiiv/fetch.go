package beehiiv

import (
	"context"
	"fmt"

	"github.com/ignite/beehiiv-forecast/internal/forecast"
	"github.com/ignite/beehiiv-forecast/internal/pkg/logger"
)

// Fetch pulls everything one forecast run needs. Only a publication failure
// is fatal: a posts or subscriptions failure is logged and whatever was
// fetched is used.
func (c *Client) Fetch(ctx context.Context) (forecast.Input, error) {
	logger.Info("fetching publication data")
	pub, err := c.GetPublication(ctx)
	if err != nil {
		return forecast.Input{}, fmt.Errorf("fetching publication: %w", err)
	}
	rawPub := pub.ToRaw()
	logger.Info("publication fetched",
		"publication", pub.Name,
		"active_subscriptions", pub.Stats.ActiveSubscriptions,
	)

	logger.Info("fetching posts", "max_posts", c.maxPosts)
	posts, err := c.ListPosts(ctx, pub.ID)
	if err != nil {
		if ctx.Err() != nil {
			return forecast.Input{}, ctx.Err()
		}
		logger.Warn("posts fetch failed, continuing with partial data",
			"fetched", len(posts),
			"error", err,
		)
	}
	logger.Info("posts fetched", "count", len(posts))

	logger.Info("fetching subscriber history", "cap", c.subscriberCap)
	subs, err := c.ListSubscriptions(ctx, pub.ID)
	if err != nil {
		if ctx.Err() != nil {
			return forecast.Input{}, ctx.Err()
		}
		logger.Warn("subscriptions fetch failed, continuing with partial data",
			"fetched", len(subs),
			"error", err,
		)
	}
	if c.subscriberCap > 0 && len(subs) >= c.subscriberCap {
		logger.Info("subscriber fetch limited", "cap", c.subscriberCap)
	}
	logger.Info("subscribers fetched", "count", len(subs))

	in := forecast.Input{
		Publication: &rawPub,
		Posts:       make([]forecast.RawPost, 0, len(posts)),
		Subscribers: make([]forecast.RawSubscriber, 0, len(subs)),
	}
	for _, p := range posts {
		in.Posts = append(in.Posts, p.ToRaw())
	}
	for _, s := range subs {
		in.Subscribers = append(in.Subscribers, s.ToRaw())
	}
	return in, nil
}

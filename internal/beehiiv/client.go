package beehiiv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/ignite/beehiiv-forecast/internal/config"
	"github.com/ignite/beehiiv-forecast/internal/metrics"
	"github.com/ignite/beehiiv-forecast/internal/pkg/httpretry"
)

// ErrNoPublications is returned when the API key has no publication.
var ErrNoPublications = errors.New("no publications found for API key")

// Client is a Beehiiv v2 API client
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    httpretry.HTTPDoer
	limiter       *rate.Limiter
	pageSize      int
	maxPosts      int
	subscriberCap int
}

// NewClient creates a new Beehiiv API client. Calls are paced at the
// configured delay and retried on 429 and 5xx responses.
func NewClient(cfg config.BeehiivConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, cfg.MaxRetries),
		limiter:       newLimiter(cfg.RateLimitDelay()),
		pageSize:      cfg.PageSize,
		maxPosts:      cfg.MaxPosts,
		subscriberCap: cfg.SubscriberCap,
	}
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// doRequest makes a paced GET request to the Beehiiv API
func (c *Client) doRequest(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(endpoint, "error", time.Since(start))
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordAPIRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(body), 512))
	}

	return body, nil
}

// GetPublication returns the first publication visible to the API key
func (c *Client) GetPublication(ctx context.Context) (*Publication, error) {
	params := url.Values{}
	params.Set("expand[]", "stats")

	body, err := c.doRequest(ctx, "publications", "/publications", params)
	if err != nil {
		return nil, fmt.Errorf("fetching publications: %w", err)
	}

	var resp PublicationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing publications: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoPublications
	}

	metrics.RecordFetched("publication", 1)
	return &resp.Data[0], nil
}

// ListPosts pages through confirmed posts, newest first, until maxPosts
// records are fetched or the pages run out. On failure the posts fetched so
// far are returned along with the error.
func (c *Client) ListPosts(ctx context.Context, publicationID string) ([]Post, error) {
	var posts []Post
	path := fmt.Sprintf("/publications/%s/posts", url.PathEscape(publicationID))

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("expand[]", "stats")
		params.Set("status", "confirmed")
		params.Set("order_by", "publish_date")
		params.Set("direction", "desc")
		params.Set("limit", strconv.Itoa(c.pageSize))
		params.Set("page", strconv.Itoa(page))

		body, err := c.doRequest(ctx, "posts", path, params)
		if err != nil {
			return posts, fmt.Errorf("fetching posts page %d: %w", page, err)
		}

		var resp PostsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return posts, fmt.Errorf("parsing posts page %d: %w", page, err)
		}

		posts = append(posts, resp.Data...)
		metrics.RecordFetched("post", len(resp.Data))

		if c.maxPosts > 0 && len(posts) >= c.maxPosts {
			return posts[:c.maxPosts], nil
		}
		if len(resp.Data) == 0 || page >= resp.TotalPages {
			return posts, nil
		}
	}
}

// ListSubscriptions pages through active subscriptions by cursor. Paging
// stops when there is no next cursor, a page comes back short, or the
// subscriber cap is reached. On failure the records fetched so far are
// returned along with the error.
func (c *Client) ListSubscriptions(ctx context.Context, publicationID string) ([]Subscription, error) {
	var subs []Subscription
	path := fmt.Sprintf("/publications/%s/subscriptions", url.PathEscape(publicationID))
	cursor := ""

	for {
		params := url.Values{}
		params.Set("status", "active")
		params.Set("limit", strconv.Itoa(c.pageSize))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := c.doRequest(ctx, "subscriptions", path, params)
		if err != nil {
			return subs, fmt.Errorf("fetching subscriptions after %d records: %w", len(subs), err)
		}

		var resp SubscriptionsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return subs, fmt.Errorf("parsing subscriptions: %w", err)
		}

		subs = append(subs, resp.Data...)
		metrics.RecordFetched("subscriber", len(resp.Data))

		if c.subscriberCap > 0 && len(subs) >= c.subscriberCap {
			return subs[:c.subscriberCap], nil
		}
		cursor = resp.NextCursor
		if cursor == "" || len(resp.Data) < c.pageSize {
			return subs, nil
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

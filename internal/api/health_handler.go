package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/beehiiv-forecast/internal/pkg/httputil"
	"github.com/ignite/beehiiv-forecast/internal/storage"
)

// HealthStatus represents the overall health of the server.
type HealthStatus struct {
	Status  string                    `json:"status"` // "healthy", "degraded", "unhealthy"
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthChecker checks the snapshot cache and Redis.
type HealthChecker struct {
	cache       storage.SnapshotCache
	redisClient *redis.Client
	startTime   time.Time
}

// NewHealthChecker creates a HealthChecker. redisClient may be nil.
func NewHealthChecker(cache storage.SnapshotCache, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{
		cache:       cache,
		redisClient: redisClient,
		startTime:   time.Now(),
	}
}

const healthVersion = "1.0.0"

// HandleHealth returns the health of every component. Always 200; the
// status field carries the verdict.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]ComponentCheck{
		"cache": hc.checkCache(r.Context()),
		"redis": hc.checkRedis(r.Context()),
	}

	httputil.OK(w, HealthStatus{
		Status:  determineOverallStatus(checks),
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	})
}

// checkCache loads the cached snapshot. An empty cache is degraded, not down.
func (hc *HealthChecker) checkCache(ctx context.Context) ComponentCheck {
	if hc.cache == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}

	loadCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	entry, err := hc.cache.Load(loadCtx)
	latency := time.Since(start)

	switch {
	case errors.Is(err, storage.ErrCacheMiss):
		return ComponentCheck{Status: "degraded", Latency: latency.String(), Message: "no snapshot cached yet"}
	case err != nil:
		return ComponentCheck{Status: "down", Latency: latency.String(), Message: fmt.Sprintf("load failed: %v", err)}
	}

	return ComponentCheck{
		Status:  "up",
		Latency: latency.String(),
		Message: "snapshot fetched " + entry.FetchedAt.UTC().Format(time.RFC3339),
	}
}

// checkRedis pings Redis with a 2-second timeout.
func (hc *HealthChecker) checkRedis(ctx context.Context) ComponentCheck {
	if hc.redisClient == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.redisClient.Ping(pingCtx).Err()
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	status := "up"
	msg := "connected"
	if latency > 500*time.Millisecond {
		status = "degraded"
		msg = fmt.Sprintf("slow response (%s)", latency)
	}

	return ComponentCheck{
		Status:  status,
		Latency: latency.String(),
		Message: msg,
	}
}

// determineOverallStatus derives the aggregate status from individual checks.
//
// Rules:
//   - "unhealthy" if the cache is configured but down
//   - "degraded"  if any check is degraded or another configured check is down
//   - "healthy"   otherwise
func determineOverallStatus(checks map[string]ComponentCheck) string {
	if c, ok := checks["cache"]; ok && c.Status == "down" && c.Message != "not configured" {
		return "unhealthy"
	}

	for _, c := range checks {
		if c.Status == "degraded" {
			return "degraded"
		}
		if c.Status == "down" && c.Message != "not configured" {
			return "degraded"
		}
	}

	return "healthy"
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

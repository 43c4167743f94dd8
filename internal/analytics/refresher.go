package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ignite/beehiiv-forecast/internal/pkg/distlock"
	"github.com/ignite/beehiiv-forecast/internal/pkg/logger"
	"github.com/ignite/beehiiv-forecast/internal/storage"
)

// ErrRefreshInProgress is returned when another refresh holds the lock
var ErrRefreshInProgress = errors.New("refresh already in progress")

// minRefreshGap is the shortest wait between scheduled refreshes.
const minRefreshGap = time.Minute

// LockFactory creates a fresh lock for each refresh attempt
type LockFactory func() distlock.DistLock

// Status describes the cached snapshot for the dashboard
type Status struct {
	HasCachedData        bool       `json:"has_cached_data"`
	FetchedAt            *time.Time `json:"fetched_at"`
	AgeMinutes           *int       `json:"age_minutes"`
	IsStale              bool       `json:"is_stale"`
	RefreshIntervalHours float64    `json:"refresh_interval_hours"`
	NextRefresh          *time.Time `json:"next_refresh"`
	Refreshing           bool       `json:"refreshing"`
	LastError            string     `json:"last_error,omitempty"`
	LastErrorAt          *time.Time `json:"last_error_at,omitempty"`
}

// Refresher keeps the snapshot cache fresh. A cached snapshot older than the
// interval is stale.
type Refresher struct {
	service  *Service
	cache    storage.SnapshotCache
	interval time.Duration
	newLock  LockFactory
	clock    Clock

	mu          sync.Mutex
	running     bool
	lastErr     error
	lastErrorAt time.Time
}

// NewRefresher creates a refresher. newLock may be nil when a single process
// owns the cache.
func NewRefresher(service *Service, cache storage.SnapshotCache, interval time.Duration, newLock LockFactory) *Refresher {
	if interval < minRefreshGap {
		interval = minRefreshGap
	}
	return &Refresher{
		service:  service,
		cache:    cache,
		interval: interval,
		newLock:  newLock,
		clock:    service.clock,
	}
}

// Refresh runs the pipeline now and caches the result.
func (r *Refresher) Refresh(ctx context.Context) (*storage.CachedSnapshot, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrRefreshInProgress
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	if r.newLock != nil {
		lock := r.newLock()
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return nil, r.fail(fmt.Errorf("acquiring refresh lock: %w", err))
		}
		if !ok {
			return nil, ErrRefreshInProgress
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				logger.Warn("releasing refresh lock", "error", err)
			}
		}()
	}

	res, err := r.service.Run(ctx)
	if err != nil {
		return nil, r.fail(err)
	}

	entry := &storage.CachedSnapshot{
		Snapshot:   res.Snapshot,
		Report:     res.Report,
		FetchedAt:  res.Snapshot.GeneratedAt,
		DurationMs: res.Duration.Milliseconds(),
	}
	if err := r.cache.Store(ctx, entry); err != nil {
		return nil, r.fail(fmt.Errorf("caching snapshot: %w", err))
	}

	r.mu.Lock()
	r.lastErr = nil
	r.mu.Unlock()
	return entry, nil
}

func (r *Refresher) fail(err error) error {
	r.mu.Lock()
	r.lastErr = err
	r.lastErrorAt = r.clock()
	r.mu.Unlock()
	return err
}

// Current returns the cached snapshot, refreshing first when it is missing
// or stale. If that refresh fails a stale snapshot is still served.
func (r *Refresher) Current(ctx context.Context) (*storage.CachedSnapshot, error) {
	entry := r.load(ctx)
	if entry != nil && !r.isStale(entry) {
		return entry, nil
	}

	fresh, err := r.Refresh(ctx)
	if err == nil {
		return fresh, nil
	}
	if entry != nil {
		logger.Warn("serving stale snapshot", "fetched_at", entry.FetchedAt, "error", err)
		return entry, nil
	}
	return nil, err
}

// Status reports cache freshness and the last refresh error.
func (r *Refresher) Status(ctx context.Context) Status {
	st := Status{
		IsStale:              true,
		RefreshIntervalHours: math.Round(r.interval.Hours()*100) / 100,
	}

	if entry := r.load(ctx); entry != nil {
		now := r.clock()
		fetchedAt := entry.FetchedAt
		age := int(math.Round(entry.Age(now).Minutes()))
		next := fetchedAt.Add(r.interval)

		st.HasCachedData = true
		st.FetchedAt = &fetchedAt
		st.AgeMinutes = &age
		st.IsStale = r.isStale(entry)
		st.NextRefresh = &next
	}

	r.mu.Lock()
	st.Refreshing = r.running
	if r.lastErr != nil {
		at := r.lastErrorAt
		st.LastError = r.lastErr.Error()
		st.LastErrorAt = &at
	}
	r.mu.Unlock()

	return st
}

// Start refreshes a missing or stale cache, then keeps refreshing every
// interval until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	logger.Info("starting auto-refresh", "interval_hours", r.interval.Hours())

	entry := r.load(ctx)
	switch {
	case entry == nil:
		logger.Info("no cached snapshot, fetching fresh data")
		r.refreshLogged(ctx)
	case r.isStale(entry):
		logger.Info("cached snapshot stale, fetching fresh data", "fetched_at", entry.FetchedAt)
		r.refreshLogged(ctx)
	default:
		logger.Info("cached snapshot is fresh", "fetched_at", entry.FetchedAt)
	}

	for {
		wait := r.nextDelay(r.load(ctx))
		logger.Info("next auto-refresh scheduled", "in_minutes", math.Round(wait.Minutes()))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("stopping auto-refresh")
			return
		case <-timer.C:
		}

		r.refreshLogged(ctx)
	}
}

func (r *Refresher) refreshLogged(ctx context.Context) {
	if _, err := r.Refresh(ctx); err != nil {
		if errors.Is(err, ErrRefreshInProgress) {
			logger.Info("auto-refresh skipped, another refresh is running")
			return
		}
		logger.Error("auto-refresh failed", "error", err)
	}
}

// nextDelay is the time left until entry goes stale, never below a minute.
func (r *Refresher) nextDelay(entry *storage.CachedSnapshot) time.Duration {
	if entry == nil {
		return r.interval
	}
	wait := r.interval - entry.Age(r.clock())
	if wait < minRefreshGap {
		return minRefreshGap
	}
	return wait
}

func (r *Refresher) isStale(entry *storage.CachedSnapshot) bool {
	return entry.Age(r.clock()) > r.interval
}

func (r *Refresher) load(ctx context.Context) *storage.CachedSnapshot {
	entry, err := r.cache.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrCacheMiss) {
			logger.Warn("loading cached snapshot", "error", err)
		}
		return nil
	}
	return entry
}

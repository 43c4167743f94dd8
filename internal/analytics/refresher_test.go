package analytics

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/beehiiv-forecast/internal/pkg/distlock"
	"github.com/ignite/beehiiv-forecast/internal/storage"
)

func newTestRefresher(t *testing.T, clock *fakeClock, fetcher Fetcher, newLock LockFactory) (*Refresher, storage.SnapshotCache) {
	t.Helper()
	cache := storage.NewFileCache(filepath.Join(t.TempDir(), "cache.json"))
	svc := newTestService(t, clock, fetcher)
	return NewRefresher(svc, cache, 2*time.Hour, newLock), cache
}

func TestRefresher_CurrentRefreshesWhenStale(t *testing.T) {
	clock := newFakeClock()
	fetcher := &fakeFetcher{in: sampleInput(clock.Now())}
	r, _ := newTestRefresher(t, clock, fetcher, nil)
	ctx := context.Background()

	first, err := r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.Calls(), "cache miss triggers a fetch")
	assert.Equal(t, clock.Now(), first.FetchedAt)

	clock.Advance(90 * time.Minute)
	second, err := r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.Calls(), "fresh cache is served")
	assert.Equal(t, first.Snapshot.RunID, second.Snapshot.RunID)

	clock.Advance(31 * time.Minute)
	third, err := r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.Calls(), "stale cache is refreshed")
	assert.NotEqual(t, first.Snapshot.RunID, third.Snapshot.RunID)
}

func TestRefresher_ServesStaleOnFailure(t *testing.T) {
	clock := newFakeClock()
	fetcher := &fakeFetcher{in: sampleInput(clock.Now())}
	r, _ := newTestRefresher(t, clock, fetcher, nil)
	ctx := context.Background()

	first, err := r.Refresh(ctx)
	require.NoError(t, err)

	clock.Advance(3 * time.Hour)
	fetcher.err = errors.New("beehiiv unavailable")

	got, err := r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Snapshot.RunID, got.Snapshot.RunID)

	st := r.Status(ctx)
	assert.True(t, st.HasCachedData)
	assert.True(t, st.IsStale)
	assert.Contains(t, st.LastError, "beehiiv unavailable")
	require.NotNil(t, st.LastErrorAt)
}

func TestRefresher_NoCacheAndFailure(t *testing.T) {
	clock := newFakeClock()
	r, _ := newTestRefresher(t, clock, &fakeFetcher{err: errors.New("boom")}, nil)

	_, err := r.Current(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRefresher_LockHeldElsewhere(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	const key = "beehiiv:forecast:refresh-lock"
	other := distlock.NewRedisLock(rdb, key, time.Minute)
	ok, err := other.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	clock := newFakeClock()
	fetcher := &fakeFetcher{in: sampleInput(clock.Now())}
	r, _ := newTestRefresher(t, clock, fetcher, func() distlock.DistLock {
		return distlock.NewLock(rdb, key, time.Minute)
	})

	_, err = r.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshInProgress)
	assert.Equal(t, 0, fetcher.Calls())

	require.NoError(t, other.Release(context.Background()))
	_, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.Calls())
	assert.False(t, mr.Exists(key), "lock released after refresh")
}

func TestRefresher_Status(t *testing.T) {
	clock := newFakeClock()
	r, _ := newTestRefresher(t, clock, &fakeFetcher{in: sampleInput(clock.Now())}, nil)
	ctx := context.Background()

	st := r.Status(ctx)
	assert.False(t, st.HasCachedData)
	assert.True(t, st.IsStale)
	assert.Nil(t, st.FetchedAt)
	assert.Equal(t, 2.0, st.RefreshIntervalHours)

	entry, err := r.Refresh(ctx)
	require.NoError(t, err)
	clock.Advance(45 * time.Minute)

	st = r.Status(ctx)
	assert.True(t, st.HasCachedData)
	assert.False(t, st.IsStale)
	require.NotNil(t, st.AgeMinutes)
	assert.Equal(t, 45, *st.AgeMinutes)
	require.NotNil(t, st.NextRefresh)
	assert.True(t, entry.FetchedAt.Add(2*time.Hour).Equal(*st.NextRefresh))
	assert.Empty(t, st.LastError)
}

func TestRefresher_NextDelay(t *testing.T) {
	clock := newFakeClock()
	r, _ := newTestRefresher(t, clock, &fakeFetcher{}, nil)

	assert.Equal(t, 2*time.Hour, r.nextDelay(nil))

	entry := &storage.CachedSnapshot{FetchedAt: clock.Now().Add(-30 * time.Minute)}
	assert.Equal(t, 90*time.Minute, r.nextDelay(entry))

	entry.FetchedAt = clock.Now().Add(-119*time.Minute - 30*time.Second)
	assert.Equal(t, time.Minute, r.nextDelay(entry), "never below one minute")

	entry.FetchedAt = clock.Now().Add(-5 * time.Hour)
	assert.Equal(t, time.Minute, r.nextDelay(entry))
}

func TestNewRefresher_IntervalFloor(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(t, clock, &fakeFetcher{})
	r := NewRefresher(svc, storage.NewFileCache(filepath.Join(t.TempDir(), "c.json")), time.Second, nil)
	assert.Equal(t, time.Minute, r.interval)
}

func TestRefresher_StartRefreshesMissingCache(t *testing.T) {
	clock := newFakeClock()
	fetcher := &fakeFetcher{in: sampleInput(clock.Now())}
	r, cache := newTestRefresher(t, clock, fetcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return fetcher.Calls() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}

	_, err := cache.Load(context.Background())
	assert.NoError(t, err)
}

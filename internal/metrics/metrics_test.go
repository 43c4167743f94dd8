package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ignite/beehiiv-forecast/internal/forecast"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequests.WithLabelValues("posts", "200"))

	RecordAPIRequest("posts", "200", 150*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(APIRequests.WithLabelValues("posts", "200")))
}

func TestRecordFetched(t *testing.T) {
	before := testutil.ToFloat64(RecordsFetched.WithLabelValues("subscriber"))

	RecordFetched("subscriber", 250)

	assert.Equal(t, before+250, testutil.ToFloat64(RecordsFetched.WithLabelValues("subscriber")))
}

func TestObserveSnapshot(t *testing.T) {
	ObserveSnapshot(nil)

	ObserveSnapshot(&forecast.Snapshot{
		GeneratedAt:    time.Unix(1760000000, 0),
		CurrentMetrics: forecast.CurrentMetrics{Subscribers: 25000, DailyGrowth: 42.5},
		Projections:    forecast.Projection{ProjectedSubscribers: 31000},
	})

	assert.Equal(t, 25000.0, testutil.ToFloat64(CurrentSubscribers))
	assert.Equal(t, 31000.0, testutil.ToFloat64(ProjectedSubscribers))
	assert.Equal(t, 42.5, testutil.ToFloat64(DailyGrowth))
	assert.Equal(t, 1760000000.0, testutil.ToFloat64(LastSuccess))
}

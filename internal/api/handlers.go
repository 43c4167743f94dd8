package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ignite/beehiiv-forecast/internal/analytics"
	"github.com/ignite/beehiiv-forecast/internal/forecast"
	"github.com/ignite/beehiiv-forecast/internal/pkg/httputil"
	"github.com/ignite/beehiiv-forecast/internal/pkg/logger"
	"github.com/ignite/beehiiv-forecast/internal/storage"
)

// SnapshotSource serves and refreshes the cached forecast
type SnapshotSource interface {
	Current(ctx context.Context) (*storage.CachedSnapshot, error)
	Refresh(ctx context.Context) (*storage.CachedSnapshot, error)
	Status(ctx context.Context) analytics.Status
}

// DataResponse is the snapshot plus cache metadata
type DataResponse struct {
	*forecast.Snapshot
	FetchedAt       time.Time `json:"fetched_at"`
	FetchDurationMs int64     `json:"fetch_duration_ms"`
}

// Handlers contains the dashboard API handlers
type Handlers struct {
	source SnapshotSource
}

// NewHandlers creates handlers over source
func NewHandlers(source SnapshotSource) *Handlers {
	return &Handlers{source: source}
}

// GetData returns the cached snapshot, refreshing it first when stale
func (h *Handlers) GetData(w http.ResponseWriter, r *http.Request) {
	entry, err := h.source.Current(r.Context())
	if err != nil {
		h.writeRefreshError(w, err)
		return
	}
	httputil.OK(w, toDataResponse(entry))
}

// Refresh forces a new fetch
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	entry, err := h.source.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, analytics.ErrRefreshInProgress) {
			httputil.ErrorCode(w, http.StatusConflict, "refresh_in_progress", "a refresh is already running")
			return
		}
		h.writeRefreshError(w, err)
		return
	}
	httputil.OK(w, toDataResponse(entry))
}

// GetStatus reports cache freshness
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, h.source.Status(r.Context()))
}

// GetReport returns the rendered text report
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	entry, err := h.source.Current(r.Context())
	if err != nil {
		h.writeRefreshError(w, err)
		return
	}
	httputil.Text(w, entry.Report)
}

func (h *Handlers) writeRefreshError(w http.ResponseWriter, err error) {
	if errors.Is(err, analytics.ErrRefreshInProgress) {
		w.Header().Set("Retry-After", "30")
		httputil.ErrorCode(w, http.StatusServiceUnavailable, "refresh_in_progress", "data is being fetched, try again shortly")
		return
	}
	logger.Error("snapshot unavailable", "error", err)
	httputil.ErrorCode(w, http.StatusBadGateway, "fetch_failed", "failed to fetch newsletter data")
}

func toDataResponse(entry *storage.CachedSnapshot) DataResponse {
	return DataResponse{
		Snapshot:        entry.Snapshot,
		FetchedAt:       entry.FetchedAt,
		FetchDurationMs: entry.DurationMs,
	}
}

// internal/app/features/photo/handler.go
//
// Package photo proxies profile photos from the directory with an in-memory
// cache, so the chart can show hundreds of avatars without hammering the
// Graph API on every page load.
package photo

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/system/timeouts"
)

// cacheTTL bounds how long a fetched photo (or a "no photo" answer) is
// served without re-asking the directory.
const cacheTTL = 24 * time.Hour

// PhotoSource fetches one user's photo. A nil slice with nil error means the
// user has no photo.
type PhotoSource interface {
	FetchEmployeePhoto(ctx context.Context, userID string) ([]byte, string, error)
}

type cacheEntry struct {
	data        []byte
	contentType string
	fetchedAt   time.Time
}

// Handler serves cached profile photos.
type Handler struct {
	Source PhotoSource
	Log    *zap.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
	now   func() time.Time
}

// NewHandler constructs a photo Handler.
func NewHandler(source PhotoSource, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Source: source,
		Log:    logger,
		cache:  make(map[string]cacheEntry),
		now:    time.Now,
	}
}

// Serve handles GET /api/photo/{userID}. Missing photos are cached too, so
// the bulk of a photo-less tenant resolves without any Graph traffic.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.NotFound(w, r)
		return
	}

	if entry, ok := h.cached(userID); ok {
		h.write(w, entry)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data, contentType, err := h.Source.FetchEmployeePhoto(ctx, userID)
	if err != nil {
		h.Log.Warn("photo fetch failed", zap.String("user_id", userID), zap.Error(err))
		http.NotFound(w, r)
		return
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	entry := cacheEntry{data: data, contentType: contentType, fetchedAt: h.now()}
	h.mu.Lock()
	h.cache[userID] = entry
	h.mu.Unlock()

	h.write(w, entry)
}

func (h *Handler) cached(userID string) (cacheEntry, bool) {
	h.mu.RLock()
	entry, ok := h.cache[userID]
	h.mu.RUnlock()
	if !ok || h.now().Sub(entry.fetchedAt) > cacheTTL {
		return cacheEntry{}, false
	}
	return entry, true
}

func (h *Handler) write(w http.ResponseWriter, entry cacheEntry) {
	if entry.data == nil {
		http.Error(w, "no photo", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", entry.contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(entry.data)
}

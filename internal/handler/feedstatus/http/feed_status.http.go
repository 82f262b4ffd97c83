package http

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
)

type StatusReader interface {
	Snapshot() []entity.FeedStatus
	Get(feed string) (entity.FeedStatus, bool)
	AllStreaming() bool
}

type FeedStatusResponse struct {
	Feeds []entity.FeedStatus `json:"feeds"`
}

type Handler struct {
	statusReader StatusReader
}

func NewFeedStatusHTTPHandler(statusReader StatusReader) *Handler {
	return &Handler{statusReader: statusReader}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)
	mux.HandleFunc("/feeds", h.ListFeeds)
	mux.HandleFunc("/feeds/", h.GetFeed)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Ready is only green while every feed has a live session.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	if !h.statusReader.AllStreaming() {
		writeJSON(w, http.StatusServiceUnavailable, FeedStatusResponse{Feeds: h.statusReader.Snapshot()})
		return
	}

	writeJSON(w, http.StatusOK, FeedStatusResponse{Feeds: h.statusReader.Snapshot()})
}

func (h *Handler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	writeJSON(w, http.StatusOK, FeedStatusResponse{Feeds: h.statusReader.Snapshot()})
}

func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/feeds/"), "/")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "feed name is required"})
		return
	}

	status, ok := h.statusReader.Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "feed not found"})
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/logging"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/ports"
)

type HTTPHandler struct {
	capture ports.CaptureService
	hits    ports.HitService
}

func NewHTTPHandler(capture ports.CaptureService, hits ports.HitService) *HTTPHandler {
	return &HTTPHandler{capture: capture, hits: hits}
}

// Track records the request and redirects. Unknown tracking IDs are captured too.
func (h *HTTPHandler) Track(w http.ResponseWriter, r *http.Request) {
	trackingID := chi.URLParam(r, "trackingID")

	req := domain.InboundRequest{
		Method:     r.Method,
		RemoteAddr: r.RemoteAddr,
		Host:       r.Host,
		Header:     r.Header,
		Query:      r.URL.Query(),
	}

	destination, err := h.capture.Capture(r.Context(), req, trackingID)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, destination, http.StatusFound)
}

// RecentRequests lists the newest hits for a tracking ID as a bare JSON array.
func (h *HTTPHandler) RecentRequests(w http.ResponseWriter, r *http.Request) {
	hits, err := h.hits.RecentHits(r.Context(), chi.URLParam(r, "trackingID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if hits == nil {
		hits = []domain.HitSummary{}
	}
	writeJSON(w, http.StatusOK, hits)
}

// ListHits pages through the full records for a tracking ID.
func (h *HTTPHandler) ListHits(w http.ResponseWriter, r *http.Request) {
	trackingID := chi.URLParam(r, "trackingID")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	hits, total, err := h.hits.ListHits(r.Context(), trackingID, page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if hits == nil {
		hits = []domain.TrackedHit{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  hits,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *HTTPHandler) GetHit(w http.ResponseWriter, r *http.Request) {
	hit, err := h.hits.GetHit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hit)
}

// Get Dashboard
func (h *HTTPHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.hits.GetDashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain errors onto status codes. Anything unrecognised is a 500
// and its detail stays in the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrCampaignNotFound), errors.Is(err, domain.ErrHitNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTrackingIDTaken):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCampaign):
		status = http.StatusBadRequest
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

package api

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/ayusman/blinktalk/internal/app"
)

// Tracker controls the camera loop.
type Tracker interface {
	Start() error
	Stop()
	Status() app.Status
	SetScreen(width, height float64) error
}

// TrackingHandler starts and stops gaze tracking.
type TrackingHandler struct {
	tracker Tracker
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(t Tracker) *TrackingHandler {
	return &TrackingHandler{tracker: t}
}

// Status handles GET /api/status.
func (h *TrackingHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, h.tracker.Status())
}

// Start handles POST /api/tracking/start. When the camera or the landmark
// model cannot be brought up the response is 503 with the tracking status.
func (h *TrackingHandler) Start(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.tracker.Start(); err != nil {
		if errors.Is(err, app.ErrTrackingDisabled) {
			writeJSON(w, http.StatusServiceUnavailable, h.tracker.Status())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to start tracking")
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.Status())
}

// Stop handles POST /api/tracking/stop.
func (h *TrackingHandler) Stop(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.tracker.Stop()
	writeJSON(w, http.StatusOK, h.tracker.Status())
}

type screenRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Screen handles PUT /api/screen with the viewport size of the board.
func (h *TrackingHandler) Screen(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req screenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.tracker.SetScreen(req.Width, req.Height); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

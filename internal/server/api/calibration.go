package api

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/ayusman/blinktalk/internal/app"
)

// Calibrator runs the gaze calibration flows.
type Calibrator interface {
	QuickCalibrate() error
	StartCalibration() app.CalibrationStatus
	RecordCalibration() (app.CalibrationStatus, error)
	ResetCalibration()
	Calibration() app.CalibrationStatus
}

// CalibrationHandler handles the calibration endpoints.
type CalibrationHandler struct {
	calibrator Calibrator
}

// NewCalibrationHandler creates a new CalibrationHandler.
func NewCalibrationHandler(c Calibrator) *CalibrationHandler {
	return &CalibrationHandler{calibrator: c}
}

// Get handles GET /api/calibration.
func (h *CalibrationHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, h.calibrator.Calibration())
}

// Quick handles POST /api/calibration/quick.
func (h *CalibrationHandler) Quick(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.calibrator.QuickCalibrate(); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.calibrator.Calibration())
}

// Start handles POST /api/calibration/start and returns the first target.
func (h *CalibrationHandler) Start(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, h.calibrator.StartCalibration())
}

// Record handles POST /api/calibration/record for the current target.
func (h *CalibrationHandler) Record(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	st, err := h.calibrator.RecordCalibration()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Reset handles DELETE /api/calibration.
func (h *CalibrationHandler) Reset(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.calibrator.ResetCalibration()
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrNoGaze):
		return http.StatusConflict
	case errors.Is(err, app.ErrNotCalibrating):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

package api

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/ayusman/blinktalk/internal/dispatch"
	"github.com/ayusman/blinktalk/internal/selection"
)

// SelectionHandler exposes the word picker to pointer and keyboard input.
type SelectionHandler struct {
	machine *selection.Machine
}

// NewSelectionHandler creates a new SelectionHandler over m.
func NewSelectionHandler(m *selection.Machine) *SelectionHandler {
	return &SelectionHandler{machine: m}
}

// Get handles GET /api/selection.
func (h *SelectionHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, h.machine.Snapshot())
}

// Command handles POST /api/selection/:command where command is one of
// left, right, confirm, back or reset.
func (h *SelectionHandler) Command(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	switch ps.ByName("command") {
	case "left":
		h.machine.Navigate(dispatch.Left)
	case "right":
		h.machine.Navigate(dispatch.Right)
	case "confirm":
		h.machine.Confirm()
	case "back":
		h.machine.Back()
	case "reset":
		h.machine.Reset()
	default:
		writeError(w, http.StatusNotFound, "Unknown command")
		return
	}
	writeJSON(w, http.StatusOK, h.machine.Snapshot())
}

// Select handles POST /api/select/:id, choosing an option directly.
func (h *SelectionHandler) Select(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := h.machine.Select(ps.ByName("id"))
	switch {
	case errors.Is(err, selection.ErrUnknownOption):
		writeError(w, http.StatusNotFound, "Option not offered at this step")
		return
	case errors.Is(err, selection.ErrBusy):
		writeError(w, http.StatusConflict, "Sentence in progress")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to select option")
		return
	}
	writeJSON(w, http.StatusOK, h.machine.Snapshot())
}

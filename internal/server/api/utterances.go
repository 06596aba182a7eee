package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/ayusman/blinktalk/internal/store"
)

const (
	defaultUtteranceLimit = 50
	maxUtteranceLimit     = 500
)

// UtteranceHandler serves the history of spoken sentences.
type UtteranceHandler struct {
	store *store.Store
}

// NewUtteranceHandler creates a new UtteranceHandler with the given store.
func NewUtteranceHandler(s *store.Store) *UtteranceHandler {
	return &UtteranceHandler{store: s}
}

type listUtterancesResponse struct {
	Utterances []*store.Utterance `json:"utterances"`
	Total      int                `json:"total"`
}

// List handles GET /api/utterances?limit=N&session=ID, newest first.
func (h *UtteranceHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := defaultUtteranceLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxUtteranceLimit)
	}

	var (
		list []*store.Utterance
		err  error
	)
	if session := r.URL.Query().Get("session"); session != "" {
		list, err = h.store.Utterances().ListBySession(session)
		if len(list) > limit {
			list = list[:limit]
		}
	} else {
		list, err = h.store.Utterances().List(limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list utterances")
		return
	}

	total, err := h.store.Utterances().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count utterances")
		return
	}

	if list == nil {
		list = []*store.Utterance{}
	}
	writeJSON(w, http.StatusOK, listUtterancesResponse{Utterances: list, Total: total})
}

// Get handles GET /api/utterances/:id.
func (h *UtteranceHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	u, err := h.store.Utterances().GetByID(ps.ByName("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Utterance not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get utterance")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

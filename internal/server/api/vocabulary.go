package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/ayusman/blinktalk/internal/vocab"
)

// VocabularyBoard owns the active word tables.
type VocabularyBoard interface {
	Vocabulary() *vocab.Vocabulary
	SetVocabulary(v *vocab.Vocabulary) error
}

// VocabularyHandler reads and replaces the word tables.
type VocabularyHandler struct {
	board VocabularyBoard
}

// NewVocabularyHandler creates a new VocabularyHandler.
func NewVocabularyHandler(b VocabularyBoard) *VocabularyHandler {
	return &VocabularyHandler{board: b}
}

// Get handles GET /api/vocabulary.
func (h *VocabularyHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, h.board.Vocabulary())
}

// Put handles PUT /api/vocabulary. The picker restarts on the new tables.
func (h *VocabularyHandler) Put(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var v vocab.Vocabulary
	if !decodeJSON(w, r, &v) {
		return
	}
	if err := v.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.board.SetVocabulary(&v); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save vocabulary")
		return
	}
	writeJSON(w, http.StatusOK, h.board.Vocabulary())
}

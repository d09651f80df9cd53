package handlers

import (
	"net/http"

	"github.com/leaguehq/team-workspace/services"
)

type SuggestionHandler struct {
	suggestionService services.SuggestionService
}

func NewSuggestionHandler(ss services.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestionService: ss}
}

// Suggest выдает заготовку фирменного стиля: имя, палитру, маскота,
// стиль логотипа и шрифт. Залоченные поля переживают перегенерацию.
func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var input services.SuggestionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	suggestion, err := h.suggestionService.Suggest(input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"suggestion": suggestion}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SuggestPalette выдает палитру под залоченный основной цвет из query.
func (h *SuggestionHandler) SuggestPalette(w http.ResponseWriter, r *http.Request) {
	lockedPrimary := r.URL.Query().Get("primary")

	palette, err := h.suggestionService.SuggestPalette(lockedPrimary)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"palette": palette}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

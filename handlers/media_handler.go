package handlers

import (
	"net/http"

	"github.com/leaguehq/team-workspace/middleware"
	"github.com/leaguehq/team-workspace/services"
)

const maxImageUploadBytes = 10 << 20 // 10MB

type MediaHandler struct {
	mediaService services.MediaService
}

func NewMediaHandler(ms services.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: ms}
}

func (h *MediaHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	teamID, err := getParamFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateMediaItemInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	item, err := h.mediaService.CreateItem(r.Context(), teamID, input, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusCreated, jsonResponse{"item": item}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MediaHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	teamID, err := getParamFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	itemID, err := getParamFromURL(r, "itemID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateMediaItemInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	item, err := h.mediaService.UpdateItem(r.Context(), teamID, itemID, input, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"item": item}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MediaHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	teamID, err := getParamFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	itemID, err := getParamFromURL(r, "itemID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.mediaService.DeleteItem(r.Context(), teamID, itemID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MediaHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	teamID, err := getParamFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	items, err := h.mediaService.ListItems(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"items": items}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadImage принимает multipart-форму с полем "image" и привязывает
// загруженный файл к элементу доски.
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	teamID, err := getParamFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	itemID, err := getParamFromURL(r, "itemID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUploadBytes)
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	item, err := h.mediaService.UploadImage(r.Context(), teamID, itemID, contentType, file, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"item": item}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

package handlers

import (
	"net/http"

	"github.com/leaguehq/team-workspace/middleware"
	"github.com/leaguehq/team-workspace/services"
)

type MembershipHandler struct {
	membershipService services.MembershipService
}

func NewMembershipHandler(ms services.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: ms}
}

type inviteInput struct {
	Email   string `json:"email"`
	CanEdit bool   `json:"can_edit"`
}

func (h *MembershipHandler) InviteByEmail(w http.ResponseWriter, r *http.Request) {
	teamID, err := getParamFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input inviteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	membership, err := h.membershipService.InviteByEmail(r.Context(), teamID, input.Email, input.CanEdit, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusCreated, jsonResponse{"membership": membership}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcceptInvite принимает приглашение от имени текущей сессии: и userID,
// и email берутся из токена, а не из тела запроса.
func (h *MembershipHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	teamID, err := getParamFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	currentEmail, err := middleware.GetUserEmailFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user email")
		return
	}

	membership, err := h.membershipService.AcceptInvite(r.Context(), teamID, currentUserID, currentEmail)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"membership": membership}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MembershipHandler) RevokeMembership(w http.ResponseWriter, r *http.Request) {
	teamID, err := getParamFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	membershipID, err := getParamFromURL(r, "membershipID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.membershipService.RevokeMembership(r.Context(), teamID, membershipID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MembershipHandler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	teamID, err := getParamFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	memberships, err := h.membershipService.ListMemberships(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"memberships": memberships}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

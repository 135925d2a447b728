package handler

import (
	"net/http"
)

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UserEnvelope{
		User: UserResponse{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
		},
	})
}

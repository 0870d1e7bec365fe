package handlers

import (
	"net/http"
	"time"

	"github.com/dlm-community/tournament-service/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

// IssueTokenHandler exchanges the gateway API key for a JWT.
func (h *AuthHandler) IssueTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input tokenRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	token, expiresAt, err := h.authService.IssueToken(input.APIKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dlm-community/tournament-service/services"
)

// Deck screenshots arrive as multipart uploads; 10MB covers any phone
// screenshot with headroom.
const maxDeckUploadBytes = 10 << 20

type RosterHandler struct {
	rosterService services.RosterService
}

func NewRosterHandler(rosterService services.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rosterService}
}

type registerRequest struct {
	UserID  string  `json:"user_id"`
	DeckURL *string `json:"deck_url,omitempty"`
}

func (h *RosterHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")

	var input registerRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID == "" {
		badRequestResponse(w, r, errors.New("user_id is required"))
		return
	}

	p, err := h.rosterService.Register(r.Context(), guildID, input.UserID, input.DeckURL)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": p}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) UnregisterHandler(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	userID := chi.URLParam(r, "userID")

	if err := h.rosterService.Unregister(r.Context(), guildID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "registration removed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) DropHandler(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	userID := chi.URLParam(r, "userID")

	p, err := h.rosterService.Drop(r.Context(), guildID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": p}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")

	roster, err := h.rosterService.List(r.Context(), guildID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": roster}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitDeckHandler accepts a multipart form with a "deck" file field.
func (h *RosterHandler) SubmitDeckHandler(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	userID := chi.URLParam(r, "userID")

	r.Body = http.MaxBytesReader(w, r.Body, maxDeckUploadBytes)
	if err := r.ParseMultipartForm(maxDeckUploadBytes); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form or file too large"))
		return
	}

	file, header, err := r.FormFile("deck")
	if err != nil {
		badRequestResponse(w, r, errors.New("missing 'deck' file field"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "image/png", "image/jpeg", "image/webp":
	default:
		badRequestResponse(w, r, errors.New("deck screenshot must be a png, jpeg or webp image"))
		return
	}

	p, err := h.rosterService.SubmitDeck(r.Context(), guildID, userID, header.Filename, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": p}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dlm-community/tournament-service/services"
)

type CardHandler struct {
	cardService services.CardService
}

func NewCardHandler(cardService services.CardService) *CardHandler {
	return &CardHandler{cardService: cardService}
}

// LookupHandler searches the Duel Links card database by name:
// GET /cards?name=Sphere+Kuriboh
func (h *CardHandler) LookupHandler(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		badRequestResponse(w, r, errors.New("name query parameter is required"))
		return
	}

	results, err := h.cardService.Lookup(r.Context(), name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"cards": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler fetches one card by id: GET /cards/{cardID}
func (h *CardHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	card, err := h.cardService.Get(r.Context(), chi.URLParam(r, "cardID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"card": card}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TopDecksHandler serves the community top-decks feed: GET /meta/top-decks?limit=10
func (h *CardHandler) TopDecksHandler(w http.ResponseWriter, r *http.Request) {
	decks, err := h.cardService.TopDecks(r.Context(), limitParam(r, 10))
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"top_decks": decks}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TournamentReportsHandler serves recent tournament-report articles:
// GET /meta/tournaments?limit=5
func (h *CardHandler) TournamentReportsHandler(w http.ResponseWriter, r *http.Request) {
	reports, err := h.cardService.TournamentReports(r.Context(), limitParam(r, 5))
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament_reports": reports}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ActiveEventsHandler serves the currently running in-game events:
// GET /meta/events
func (h *CardHandler) ActiveEventsHandler(w http.ResponseWriter, r *http.Request) {
	events, err := h.cardService.ActiveEvents(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func limitParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 100 {
		return fallback
	}
	return limit
}

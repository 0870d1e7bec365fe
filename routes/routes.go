package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/dlm-community/tournament-service/handlers"
	"github.com/dlm-community/tournament-service/middleware"
	"github.com/dlm-community/tournament-service/services"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	rosterHandler *handlers.RosterHandler,
	matchHandler *handlers.MatchHandler,
	settingsHandler *handlers.SettingsHandler,
	statsHandler *handlers.StatsHandler,
	cardHandler *handlers.CardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "api/openapi.json")
	})
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Post("/auth/token", authHandler.IssueTokenHandler)

	// Bracket event stream; the gateway authenticates via the token query
	// parameter handled by the reverse proxy, so the upgrade itself is open.
	router.Get("/ws/guilds/{guildID}/bracket", webSocketHandler.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Use(middleware.Authorize(services.RoleGateway))

		r.Route("/guilds/{guildID}", func(r chi.Router) {
			r.Route("/tournament", func(r chi.Router) {
				r.Post("/", tournamentHandler.CreateHandler)
				r.Get("/", tournamentHandler.GetCurrentHandler)
				r.Post("/open", tournamentHandler.OpenRegistrationHandler)
				r.Post("/close", tournamentHandler.CloseRegistrationHandler)
				r.Post("/start", tournamentHandler.StartHandler)
				r.Delete("/", tournamentHandler.CancelHandler)
				r.Get("/standings", tournamentHandler.StandingsHandler)
				r.Get("/upcoming", matchHandler.UpcomingHandler)

				r.Post("/participants", rosterHandler.RegisterHandler)
				r.Get("/participants", rosterHandler.ListHandler)
				r.Delete("/participants/{userID}", rosterHandler.UnregisterHandler)
				r.Post("/participants/{userID}/drop", rosterHandler.DropHandler)
				r.Post("/participants/{userID}/deck", rosterHandler.SubmitDeckHandler)
			})

			r.Get("/settings", settingsHandler.GetHandler)
			r.Patch("/settings", settingsHandler.UpdateHandler)

			r.Get("/users/{userID}/stats", statsHandler.PlayerStatsHandler)
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Post("/result", matchHandler.ReportResultHandler)
			r.Post("/schedule", matchHandler.ScheduleHandler)
		})

		r.Get("/cards", cardHandler.LookupHandler)
		r.Get("/cards/{cardID}", cardHandler.GetHandler)
		r.Get("/meta/top-decks", cardHandler.TopDecksHandler)
		r.Get("/meta/tournaments", cardHandler.TournamentReportsHandler)
		r.Get("/meta/events", cardHandler.ActiveEventsHandler)
	})
}

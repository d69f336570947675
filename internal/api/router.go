package api

import (
	"net/http"

	"github.com/dmarsh/strava-calendar/internal/api/handlers"
	"github.com/dmarsh/strava-calendar/internal/api/middleware"
	"github.com/dmarsh/strava-calendar/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth)
	stravaHandler := handlers.NewStravaHandler(services.Token)
	activityHandler := handlers.NewActivityHandler(services.Sync)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Strava redirects here without our bearer token; the user travels
		// in the state parameter.
		r.Get("/strava/callback", stravaHandler.Callback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			r.Get("/strava/connect", stravaHandler.Connect)
			r.Post("/sync", activityHandler.Sync)
			r.Get("/calendar", activityHandler.Calendar)
			r.Get("/activities/{date}", activityHandler.DayDetails)
		})
	})

	return r
}

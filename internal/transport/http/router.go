package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the REST API, the websocket endpoint, and /metrics.
func NewRouter(h *Handler, ws *WSHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/health/db", h.HealthDB)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", ws.ServeWS)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/", h.ListUsers)

		r.Route("/{userID}/trivias", func(r chi.Router) {
			r.Get("/", h.ListUserTrivias)
			r.Get("/{triviaID}/play", h.Play)
			r.Post("/{triviaID}/questions/{questionID}/options/{optionID}", h.Answer)
		})
	})

	r.Route("/questions", func(r chi.Router) {
		r.Post("/", h.CreateQuestion)
		r.Get("/", h.ListQuestions)
	})

	r.Route("/trivias", func(r chi.Router) {
		r.Post("/", h.CreateTrivia)
		r.Get("/", h.ListTrivias)
		r.Get("/{triviaID}", h.GetTrivia)
		r.Get("/{triviaID}/ranking", h.Ranking)
	})

	return r
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewRouter wires the public surface. Session endpoints are open; everything
// touching accounts requires a live session token.
func NewRouter(h *Implementation, am *AuthMiddleware, log *zap.SugaredLogger) chi.Router {
	r := chi.NewRouter()

	r.Use(AddLoggerToContextMiddleware(log))
	r.Use(RequestMiddleware())
	r.Use(ResponseMiddleware())

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/session/start", h.SessionStart)
		r.Post("/session/hold", h.SessionHold)

		r.With(am.Middleware).Get("/balance", h.Balances)
		r.With(am.Middleware).Get("/accounts/{id}/balance", h.AccountBalance)
		r.With(am.Middleware).Get("/accounts/{id}/history", h.History)
		r.With(am.Middleware).Post("/transfers", h.Transfer)
	})

	return r
}

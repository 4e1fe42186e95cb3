package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/neumannchess/server/internal/auth"
	"github.com/neumannchess/server/internal/identity"
)

// NewRouter assembles the HTTP surface: public auth endpoints plus the
// token-protected user and game routes.
func NewRouter(authH *AuthHandler, gameH *GameHandler, jwtService *auth.JWTService, users identity.Repository) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authH.HandleRegister)
		r.Post("/auth/login", authH.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(jwtService, users))

			r.Get("/auth/me", authH.HandleMe)
			r.Get("/auth/search", authH.HandleSearch)
			r.Get("/auth/users", authH.HandleListUsers)

			r.Route("/games", func(r chi.Router) {
				r.Post("/", gameH.HandleCreate)
				r.Get("/current", gameH.HandleCurrent)
				r.Get("/pending", gameH.HandlePending)
				r.Get("/user/{userId}", gameH.HandleHistory)
				r.Get("/{gameId}", gameH.HandleGet)
				r.Post("/{gameId}/accept", gameH.HandleAccept)
				r.Post("/{gameId}/move", gameH.HandleMove)
				r.Put("/{gameId}/end", gameH.HandleEnd)
				r.Delete("/{gameId}", gameH.HandleDecline)
			})
		})
	})

	return r
}

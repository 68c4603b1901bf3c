package api

import (
	"time"

	"expense-tracker-server/src/db"
	"expense-tracker-server/src/handlers"
	"expense-tracker-server/src/middleware"
	"expense-tracker-server/src/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Transactions   *service.TransactionService
	Users          db.UserStore
	Cache          *db.ListCache
	JWTSecret      []byte
	TokenTTL       time.Duration
	AllowedOrigins []string
	DemoMode       bool
}

func NewRouter(deps Deps) *chi.Mux {
	issuer := handlers.TokenIssuer{Secret: deps.JWTSecret, TTL: deps.TokenTTL}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(deps.AllowedOrigins))
	r.Use(middleware.DemoModeMiddleware(deps.DemoMode))

	r.Get("/health", handlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", handlers.Register(deps.Users, issuer))
		r.Post("/auth/login", handlers.Login(deps.Users, issuer))

		// Protected routes
		r.With(middleware.JWTAuthMiddleware(deps.JWTSecret)).Group(func(r chi.Router) {
			// Account
			r.Get("/auth/me", handlers.GetUser(deps.Users))
			r.Put("/auth/me", handlers.UpdateUser(deps.Users))
			r.Delete("/auth/me", handlers.DeleteUser(deps.Users, deps.Cache))
			r.Post("/auth/change-password", handlers.ChangePassword(deps.Users))

			// Transactions
			r.With(middleware.RequireAccount(deps.Users)).Group(func(r chi.Router) {
				r.Get("/transactions", handlers.GetTransactions(deps.Transactions))
				r.Post("/transactions", handlers.AddTransaction(deps.Transactions))
				r.Get("/transactions/summary", handlers.GetSummary(deps.Transactions))
				r.Get("/transactions/export", handlers.ExportTransactions(deps.Transactions))
				r.Put("/transactions/{id}", handlers.UpdateTransaction(deps.Transactions))
				r.Delete("/transactions/{id}", handlers.DeleteTransaction(deps.Transactions))
			})
		})
	})

	return r
}

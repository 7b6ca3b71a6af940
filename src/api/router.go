package api

import (
	"time"

	"fintrack-server/src/auth"
	"fintrack-server/src/handlers"
	"fintrack-server/src/logger"
	"fintrack-server/src/middleware"
	"fintrack-server/src/store"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	Store          store.Store
	Tokens         *auth.Tokens
	Logger         *logger.Logger
	AllowedOrigins []string
	ReadOnly       bool
	// Now is the clock behind every current-month view. Defaults to time.Now.
	Now func() time.Time
}

func NewRouter(opts Options) *chi.Mux {
	st := opts.Store
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(logger.Middleware(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))
	r.Use(middleware.ReadOnlyMiddleware(opts.ReadOnly))

	r.Get("/health", handlers.Health(st))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handlers.Login(st, opts.Tokens))
		r.Post("/register", handlers.Register(st, opts.Tokens))
		r.Post("/users", handlers.Register(st, opts.Tokens))

		// Protected routes
		r.With(middleware.JWTAuthMiddleware(opts.Tokens)).Group(func(r chi.Router) {
			r.Post("/logout", handlers.Logout(opts.Tokens))

			// Users
			r.Get("/users", handlers.GetUsers(st))
			r.Get("/users/{id}", handlers.GetUser(st))
			r.Put("/users/{id}", handlers.UpdateUser(st))
			r.Delete("/users/{id}", handlers.DeleteUser(st, opts.Tokens))

			// Transactions
			r.Get("/transactions", handlers.GetTransactions(st))
			r.Post("/transactions", handlers.CreateTransaction(st))
			r.Put("/transactions/{id}", handlers.UpdateTransaction(st))
			r.Delete("/transactions/{id}", handlers.DeleteTransaction(st))

			// Categories
			r.Get("/categories", handlers.GetCategories(st))
			r.Get("/categories/spending", handlers.GetCategoriesWithSpending(st, now))
			r.Post("/categories", handlers.CreateCategory(st))
			r.Put("/categories/{id}", handlers.UpdateCategory(st))
			r.Delete("/categories/{id}", handlers.DeleteCategory(st))

			// Budgets
			r.Get("/budgets", handlers.GetBudgets(st))
			r.Get("/budgets/progress", handlers.GetBudgetProgress(st, now))
			r.Get("/budgets/available-categories", handlers.GetAvailableCategories(st))
			r.Post("/budgets", handlers.CreateBudget(st))
			r.Put("/budgets/{id}", handlers.UpdateBudget(st))
			r.Delete("/budgets/{id}", handlers.DeleteBudget(st))

			// Reports
			r.Get("/reports", handlers.GetReport(st))
			r.Get("/reports/export.csv", handlers.ExportCSV(st))
			r.Get("/reports/export.pdf", handlers.ExportPDF(st))
			r.Get("/reports/export.xlsx", handlers.ExportXLSX(st))
			r.Get("/dashboard", handlers.GetDashboard(st, now))
		})
	})

	return r
}

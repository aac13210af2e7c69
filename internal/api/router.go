package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/tradebid/tradebid/internal/api/middleware"
	"github.com/tradebid/tradebid/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	RegisterHandler http.HandlerFunc
	LoginHandler    http.HandlerFunc
	LogoutHandler   http.HandlerFunc

	GetUserHandler    http.HandlerFunc
	UpdateUserHandler http.HandlerFunc
	DeleteUserHandler http.HandlerFunc

	CreateJobHandler http.HandlerFunc
	GetJobHandler    http.HandlerFunc
	ListJobsHandler  http.HandlerFunc
	UpdateJobHandler http.HandlerFunc
	DeleteJobHandler http.HandlerFunc

	SubmitBidHandler http.HandlerFunc
	UpdateBidHandler http.HandlerFunc

	GeocodeSearchHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public routes
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Post("/api/v1/users", orNotImplemented(deps.RegisterHandler))
	r.Post("/api/v1/auth/login", orNotImplemented(deps.LoginHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/auth/logout", orNotImplemented(deps.LogoutHandler))

		r.Get("/api/v1/users/{userID}", orNotImplemented(deps.GetUserHandler))
		r.Patch("/api/v1/users/{userID}", orNotImplemented(deps.UpdateUserHandler))
		r.Delete("/api/v1/users/{userID}", orNotImplemented(deps.DeleteUserHandler))

		r.Post("/api/v1/jobs", orNotImplemented(deps.CreateJobHandler))
		r.Get("/api/v1/jobs", orNotImplemented(deps.ListJobsHandler))
		r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.GetJobHandler))
		r.Patch("/api/v1/jobs/{jobID}", orNotImplemented(deps.UpdateJobHandler))
		r.Delete("/api/v1/jobs/{jobID}", orNotImplemented(deps.DeleteJobHandler))

		r.Post("/api/v1/jobs/{jobID}/bids", orNotImplemented(deps.SubmitBidHandler))
		r.Patch("/api/v1/jobs/{jobID}/bids/{userID}", orNotImplemented(deps.UpdateBidHandler))

		r.Get("/api/v1/geocode/search", orNotImplemented(deps.GeocodeSearchHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}

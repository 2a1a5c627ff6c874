package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkwell/internal/postservice"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AuthEnabled enforces Bearer token auth on write routes.
	AuthEnabled bool
	Token       string
	// SSE, if non-nil, is mounted at GET /events.
	SSE http.Handler
	// MaxSubmissionBytes caps the multipart body of POST /posts.
	MaxSubmissionBytes int64
}

// NewRouter creates a chi router with all API routes mounted. Reads are
// public; publishing goes through AuthMiddleware.
func NewRouter(svc *postservice.Service, opts RouterOptions) chi.Router {
	h := NewHandler(svc, opts.MaxSubmissionBytes)

	r := chi.NewRouter()

	// Posts.
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{id}", h.GetPost)
	r.With(AuthMiddleware(opts.AuthEnabled, opts.Token)).Post("/posts", h.CreatePost)

	// Index families.
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{key}", h.indexHandler("categories"))
	r.Get("/tags", h.ListTags)
	r.Get("/tags/{key}", h.indexHandler("tags"))
	r.Get("/years/{key}", h.indexHandler("yearly"))

	// Owner profile.
	r.Get("/profile", h.Profile)

	if opts.SSE != nil {
		r.Get("/events", opts.SSE.ServeHTTP)
	}

	return r
}

package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkwell/internal/postservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc                *postservice.Service
	maxSubmissionBytes int64
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service, maxSubmissionBytes int64) *Handler {
	return &Handler{svc: svc, maxSubmissionBytes: maxSubmissionBytes}
}

func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List posts, newest first
//	@Tags			posts
//	@Produce		json
//	@Param			category	query		string	false	"Filter by category"
//	@Param			tag			query		string	false	"Filter by tag"
//	@Success		200			{object}	PostListResponse
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	posts, err := h.svc.List(r.Context(), postservice.Filter{
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
	})
	if err != nil {
		writeError(w, r, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts, Total: len(posts)})
}

// GetPost handles GET /api/posts/{id}.
//
//	@Summary		Get a single post with its body and rendered HTML
//	@Tags			posts
//	@Produce		json
//	@Param			id	path		string	true	"Post slug or part of it"
//	@Success		200	{object}	models.Post
//	@Failure		404	{object}	errResponse
//	@Router			/posts/{id} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	post, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// CreatePost handles POST /api/posts.
//
//	@Summary		Publish a new post
//	@Tags			posts
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			title				formData	string	true	"Title"
//	@Param			content				formData	string	false	"Markdown body"
//	@Param			category			formData	string	false	"Category"
//	@Param			tags				formData	string	false	"Comma-separated tags"
//	@Param			thumbnail			formData	file	false	"Thumbnail image"
//	@Param			contentImageCount	formData	int		false	"Number of inline images"
//	@Success		200					{object}	PublishResponse
//	@Failure		400					{object}	errResponse
//	@Failure		403					{object}	errResponse
//	@Failure		413					{object}	errResponse
//	@Failure		429					{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts [post]
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CheckPublishable(); err != nil {
		writeError(w, r, "publish post", err)
		return
	}

	sub, files, err := parseSubmission(w, r, h.maxSubmissionBytes)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("요청 본문이 너무 큽니다."))
			return
		}
		writeError(w, r, "parse submission", err)
		return
	}
	defer files.Close()

	res, err := h.svc.Publish(r.Context(), sub)
	if err != nil {
		writeError(w, r, "publish post", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// indexHandler serves GET /api/{family}/{key} from the stored index file.
//
//	@Summary		Read a category, tag or year index
//	@Tags			indexes
//	@Produce		json
//	@Param			key	path		string	true	"Category, tag or year"
//	@Success		200	{object}	IndexResponse
//	@Router			/categories/{key} [get]
//	@Router			/tags/{key} [get]
//	@Router			/years/{key} [get]
func (h *Handler) indexHandler(family string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := urlParam(r, "key")
		posts, err := h.svc.Index(r.Context(), family, key)
		if err != nil {
			writeError(w, r, "read index", err)
			return
		}
		writeJSON(w, http.StatusOK, IndexResponse{Family: family, Key: key, Posts: posts})
	}
}

// ListCategories handles GET /api/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	terms, err := h.svc.Categories(r.Context())
	if err != nil {
		writeError(w, r, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, TermListResponse{Terms: terms})
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	terms, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, r, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TermListResponse{Terms: terms})
}

// Profile handles GET /api/profile.
//
//	@Summary		Repository owner profile
//	@Tags			profile
//	@Produce		json
//	@Success		200	{object}	storage.Profile
//	@Router			/profile [get]
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context())
	if err != nil {
		writeError(w, r, "profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

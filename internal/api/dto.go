package api

import (
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/postservice"
)

// PostListResponse wraps a post listing.
type PostListResponse struct {
	Posts []models.Post `json:"posts" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// IndexResponse is the content of one category, tag or year index.
type IndexResponse struct {
	Family string                `json:"family" example:"tags" validate:"required"`
	Key    string                `json:"key" example:"go" validate:"required"`
	Posts  []models.PostMetadata `json:"posts" validate:"required"`
}

// TermListResponse lists categories or tags with post counts.
type TermListResponse struct {
	Terms []postservice.Term `json:"terms" validate:"required"`
}

// PublishResponse is returned after a successful publish.
type PublishResponse = postservice.PublishResult

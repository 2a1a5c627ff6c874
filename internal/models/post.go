// Package models defines the domain types for inkwell.
package models

import "time"

// DefaultCategory is used when a submission carries no category.
const DefaultCategory = "Uncategorized"

// PostMetadata is the summary record embedded in every index file.
// JSON keys are part of the stored format and must not change.
type PostMetadata struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Thumbnail   string   `json:"thumbnail"`
	Excerpt     string   `json:"excerpt"`
	ReadingTime string   `json:"readingTime"`
}

// Post is a document resolved from the content tree.
type Post struct {
	PostMetadata
	Path        string    `json:"path"`
	PublishedAt time.Time `json:"-"`
	Content     string    `json:"content,omitempty"`
	HTML        string    `json:"html,omitempty"`
}

// Summary strips the body fields, leaving what list endpoints return.
func (p Post) Summary() Post {
	p.Content = ""
	p.HTML = ""
	return p
}

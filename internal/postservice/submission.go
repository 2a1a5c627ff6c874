package postservice

import (
	"errors"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/inkwell/internal/images"
)

// ContentImage is an inline image bound to the placeholder id written into
// the body when the image was picked.
type ContentImage struct {
	ID     string
	Upload images.Upload
}

// Validate implements validation.Validatable.
func (c ContentImage) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
	)
}

// Submission is a new post as received from a client.
type Submission struct {
	Title    string
	Content  string
	Category string
	Tags     []string
	// Thumbnail is optional; an empty upload counts as absent.
	Thumbnail     *images.Upload
	ContentImages []ContentImage
}

// Validate implements validation.Validatable.
func (s Submission) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Title, validation.Required, validation.By(singleLine)),
		validation.Field(&s.Category, validation.By(pathSegment)),
		validation.Field(&s.Tags, validation.Each(validation.Required, validation.By(pathSegment))),
		validation.Field(&s.ContentImages),
	)
}

func singleLine(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, "\r\n") {
		return errors.New("must be a single line")
	}
	return nil
}

// pathSegment rejects values that cannot be used verbatim as one path
// segment of an index file name.
func pathSegment(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	return ValidateKey(s)
}

// ValidateKey reports whether key can name an index file.
func ValidateKey(key string) error {
	if key == "" || key == "." || strings.Contains(key, "..") {
		return errors.New("must not be empty or contain '..'")
	}
	if strings.ContainsAny(key, `/\`) {
		return errors.New("must not contain path separators")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return errors.New("must not contain control characters")
		}
	}
	return nil
}

// ParseTags splits a comma-separated tag string, trimming blanks and
// dropping empty entries. Duplicates are kept.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

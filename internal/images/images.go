// Package images turns uploaded image files into commit-ready blobs with a
// stable public URL. Nothing here performs network I/O.
package images

import (
	"encoding/base64"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/storage"
)

// MaxBytes is the default per-image size cap.
const MaxBytes = 5 << 20

const defaultExt = "jpg"

// Upload is an image received from a client.
type Upload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Target identifies where materialised images will live.
type Target struct {
	Owner  string
	Repo   string
	Branch string
	// Dir is the repository-relative images directory, e.g. "mdx/images".
	Dir string
	// MaxBytes overrides the default size cap when positive.
	MaxBytes int64
	// URLFor builds the public URL of a repository path. When nil the
	// raw.githubusercontent.com form is used.
	URLFor func(path string) string
}

// Materialized is an image ready to be committed.
type Materialized struct {
	FilePath string
	// Content is the base64-encoded payload.
	Content string
	URL     string
}

// Materializer names and encodes uploads. Now and NewID are replaceable for tests.
type Materializer struct {
	Target Target
	Now    func() time.Time
	NewID  func() string
}

// NewMaterializer returns a Materializer using the wall clock and random UUIDs.
func NewMaterializer(t Target) *Materializer {
	return &Materializer{
		Target: t,
		Now:    time.Now,
		NewID:  func() string { return uuid.NewString() },
	}
}

// Materialize validates the size of u and prepares its commit entry.
func (m *Materializer) Materialize(u Upload) (*Materialized, error) {
	limit := m.Target.MaxBytes
	if limit <= 0 {
		limit = MaxBytes
	}
	if u.Size > limit {
		return nil, tooLarge(limit)
	}
	if u.Reader == nil {
		return nil, apperr.Validationf("image %q has no content", u.Name)
	}

	data, err := io.ReadAll(io.LimitReader(u.Reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("images: read %s: %w", u.Name, err)
	}
	// Declared size may lie; the read length is authoritative.
	if int64(len(data)) > limit {
		return nil, tooLarge(limit)
	}

	name := fmt.Sprintf("%d-%s.%s", m.Now().UnixMilli(), m.NewID(), extension(u.Name))
	filePath := path.Join(m.Target.Dir, name)

	return &Materialized{
		FilePath: filePath,
		Content:  base64.StdEncoding.EncodeToString(data),
		URL:      m.urlFor(filePath),
	}, nil
}

func (m *Materializer) urlFor(filePath string) string {
	if m.Target.URLFor != nil {
		return m.Target.URLFor(filePath)
	}
	return storage.RawGitHubURL(m.Target.Owner, m.Target.Repo, m.Target.Branch, filePath)
}

// extension returns the lower-cased text after the last dot, or jpg.
func extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return defaultExt
	}
	return strings.ToLower(name[i+1:])
}

func tooLarge(limit int64) error {
	return apperr.Validationf("파일 크기는 %dMB를 초과할 수 없습니다.", limit>>20)
}

// ReplacePlaceholder swaps every "(tempID)" in body for "(url)". Only the
// parenthesised form inside markdown image syntax is touched, and the id is
// matched literally, so temp-12 never rewrites temp-123.
func ReplacePlaceholder(body, tempID, url string) string {
	if tempID == "" {
		return body
	}
	re := regexp.MustCompile(`\(` + regexp.QuoteMeta(tempID) + `\)`)
	return re.ReplaceAllLiteralString(body, "("+url+")")
}

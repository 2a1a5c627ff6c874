// Package index maintains the per-category, per-tag and per-year JSON
// indexes stored next to the posts. Each index is a JSON array of post
// metadata, newest first.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/starford/inkwell/internal/commit"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/storage"
)

// Family is one kind of index: a directory of <key>.json files.
type Family struct {
	Name string
	Dir  string
}

// Default index families under the metadata root.
var (
	Categories = Family{Name: "categories", Dir: "categories"}
	Tags       = Family{Name: "tags", Dir: "tags"}
	Yearly     = Family{Name: "yearly", Dir: "yearly"}
)

// Families lists every index family in update order.
var Families = []Family{Categories, Tags, Yearly}

// Lookup returns the family with the given name.
func Lookup(name string) (Family, bool) {
	for _, f := range Families {
		if f.Name == name {
			return f, true
		}
	}
	return Family{}, false
}

// Fetcher reads a file at the branch head.
type Fetcher interface {
	GetFile(ctx context.Context, path string) ([]byte, error)
}

// Updater reads index files and prepares their updated contents.
type Updater struct {
	files  Fetcher
	root   string
	logger *slog.Logger
}

// NewUpdater returns an Updater for indexes under root (e.g. "mdx/metadata").
func NewUpdater(files Fetcher, root string, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{files: files, root: root, logger: logger}
}

// Path returns the repository path of the index for key.
func (u *Updater) Path(f Family, key string) string {
	return path.Join(u.root, f.Dir, key+".json")
}

// Read returns the current entries of an index. A missing file is an empty
// index; so is one that does not decode, after a warning.
func (u *Updater) Read(ctx context.Context, f Family, key string) ([]models.PostMetadata, error) {
	p := u.Path(f, key)
	data, err := u.files.GetFile(ctx, p)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.PostMetadata{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: read %s: %w", p, err)
	}

	var entries []models.PostMetadata
	if err := json.Unmarshal(data, &entries); err != nil {
		u.logger.Warn("index: corrupt file, starting empty",
			slog.String("path", p), slog.String("error", err.Error()))
		return []models.PostMetadata{}, nil
	}
	if entries == nil {
		entries = []models.PostMetadata{}
	}
	return entries, nil
}

// Prepend returns the index file for key with post placed first. Nothing is
// written; the caller commits the result.
func (u *Updater) Prepend(ctx context.Context, f Family, key string, post models.PostMetadata) (commit.File, error) {
	existing, err := u.Read(ctx, f, key)
	if err != nil {
		return commit.File{}, err
	}
	updated := make([]models.PostMetadata, 0, len(existing)+1)
	updated = append(updated, post)
	updated = append(updated, existing...)

	data, err := json.MarshalIndent(updated, "", "  ")
	if err != nil {
		return commit.File{}, fmt.Errorf("index: encode %s/%s: %w", f.Name, key, err)
	}
	return commit.File{Path: u.Path(f, key), Content: string(data)}, nil
}

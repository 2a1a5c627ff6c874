// Package commit writes several files to a branch as one Git commit.
package commit

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/storage"
)

// File is one path and its content. Binary content is already base64; text
// content is sent as is.
type File struct {
	Path    string
	Content string
}

// blobConcurrency bounds parallel blob uploads.
const blobConcurrency = 8

var textExtensions = map[string]bool{
	".mdx":  true,
	".md":   true,
	".json": true,
	".txt":  true,
}

// EncodingFor picks the blob encoding from the file extension.
func EncodingFor(p string) storage.Encoding {
	if textExtensions[strings.ToLower(path.Ext(p))] {
		return storage.EncodingUTF8
	}
	return storage.EncodingBase64
}

// Committer creates commits through a storage.GitWriter.
type Committer struct {
	git    storage.GitWriter
	logger *slog.Logger
}

// New returns a Committer.
func New(git storage.GitWriter, logger *slog.Logger) *Committer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Committer{git: git, logger: logger}
}

// Commit writes files on top of the branch head and fast-forwards the branch
// to the new commit. On any failure the branch is left where it was; blobs
// and trees created before the failure stay unreferenced.
func (c *Committer) Commit(ctx context.Context, files []File, message string) (string, error) {
	if len(files) == 0 {
		return "", apperr.Internal(fmt.Errorf("commit: no files"))
	}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.Path] {
			return "", apperr.Internal(fmt.Errorf("commit: duplicate path %s", f.Path))
		}
		seen[f.Path] = true
	}

	head, err := c.git.HeadCommit(ctx)
	if err != nil {
		return "", fmt.Errorf("commit: head: %w", err)
	}
	baseTree, err := c.git.CommitTree(ctx, head)
	if err != nil {
		return "", fmt.Errorf("commit: base tree: %w", err)
	}

	entries := make([]storage.TreeEntry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blobConcurrency)
	for i, f := range files {
		g.Go(func() error {
			sha, err := c.git.CreateBlob(gctx, f.Content, EncodingFor(f.Path))
			if err != nil {
				return fmt.Errorf("commit: blob %s: %w", f.Path, err)
			}
			entries[i] = storage.TreeEntry{Path: f.Path, SHA: sha}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	tree, err := c.git.CreateTree(ctx, baseTree, entries)
	if err != nil {
		return "", fmt.Errorf("commit: tree: %w", err)
	}
	sha, err := c.git.CreateCommit(ctx, message, tree, []string{head})
	if err != nil {
		return "", fmt.Errorf("commit: create: %w", err)
	}
	if err := c.git.UpdateHead(ctx, sha); err != nil {
		return "", fmt.Errorf("commit: update ref: %w", err)
	}

	c.logger.Info("commit created", "sha", sha, "parent", head, "files", len(files))
	return sha, nil
}

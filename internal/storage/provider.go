// Package storage defines the remote content repository abstraction: a
// directory/contents reader plus the Git data model (blobs, trees, commits,
// a branch ref) used to publish several files in one commit.
package storage

import (
	"context"
	"fmt"

	"github.com/starford/inkwell/internal/apperr"
)

// ErrNotFound is returned (wrapped) when a path does not exist at the branch head.
var ErrNotFound = apperr.NotFound("file")

// EntryType is the kind of a directory entry.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// Encoding is the transfer encoding of blob content.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingBase64 Encoding = "base64"
)

// Entry is one item of a directory listing.
type Entry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Type        EntryType `json:"type"`
	DownloadURL string    `json:"download_url"`
}

// TreeEntry places an existing blob at a path in a new tree.
type TreeEntry struct {
	Path string
	SHA  string
}

// Profile is the public profile of the repository owner.
type Profile struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
}

// Reader reads content at the branch head.
type Reader interface {
	// ListDir lists the entries directly under dir.
	ListDir(ctx context.Context, dir string) ([]Entry, error)
	// Download fetches the raw bytes of a listed file.
	Download(ctx context.Context, e Entry) ([]byte, error)
	// GetFile returns the decoded contents of path, or ErrNotFound.
	GetFile(ctx context.Context, path string) ([]byte, error)
	// Profile returns the repository owner's profile.
	Profile(ctx context.Context) (*Profile, error)
}

// GitWriter is the Git data API used by the committer.
type GitWriter interface {
	// HeadCommit resolves the branch ref to a commit sha.
	HeadCommit(ctx context.Context) (string, error)
	// CommitTree returns the root tree sha of a commit.
	CommitTree(ctx context.Context, commitSHA string) (string, error)
	// CreateBlob stores content and returns its sha.
	CreateBlob(ctx context.Context, content string, enc Encoding) (string, error)
	// CreateTree layers entries on top of baseTree.
	CreateTree(ctx context.Context, baseTree string, entries []TreeEntry) (string, error)
	// CreateCommit creates a commit object; it does not move the branch.
	CreateCommit(ctx context.Context, message, treeSHA string, parents []string) (string, error)
	// UpdateHead fast-forwards the branch to commitSHA.
	UpdateHead(ctx context.Context, commitSHA string) error
}

// Backend is a complete content repository.
type Backend interface {
	Reader
	GitWriter
	// RawURL is the public URL a file will have once committed.
	RawURL(path string) string
	// Branch is the target branch name.
	Branch() string
}

func notFound(path string) error {
	return fmt.Errorf("storage: %s: %w", path, ErrNotFound)
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"

	"github.com/starford/inkwell/internal/apperr"
)

// GitHubOptions configures a GitHub backend.
type GitHubOptions struct {
	Token  string
	Owner  string
	Repo   string
	Branch string
	// BaseURL overrides the REST endpoint, e.g. for GitHub Enterprise
	// ("https://ghe.example.com/api/v3/") or tests.
	BaseURL    string
	HTTPClient *http.Client
}

// GitHub implements Backend on the GitHub REST API.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

// NewGitHub creates a GitHub backend. Every request carries the bearer token
// when one is configured.
func NewGitHub(opts GitHubOptions) (*GitHub, error) {
	client := github.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("storage: parse base url: %w", err)
		}
		client.BaseURL = u
	}
	branch := opts.Branch
	if branch == "" {
		branch = "main"
	}
	return &GitHub{client: client, owner: opts.Owner, repo: opts.Repo, branch: branch}, nil
}

// Branch returns the target branch name.
func (g *GitHub) Branch() string {
	return g.branch
}

// RawURL returns the raw.githubusercontent.com URL of path on the branch.
func (g *GitHub) RawURL(path string) string {
	return RawGitHubURL(g.owner, g.repo, g.branch, path)
}

// RawGitHubURL formats the public raw-content URL of a file on a branch.
func RawGitHubURL(owner, repo, branch, path string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", owner, repo, branch, path)
}

// ListDir lists dir at the branch head.
func (g *GitHub) ListDir(ctx context.Context, dir string) ([]Entry, error) {
	file, contents, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, dir,
		&github.RepositoryContentGetOptions{Ref: g.branch})
	if err != nil {
		return nil, g.classify("list "+dir, err)
	}
	if file != nil {
		return nil, fmt.Errorf("storage: list %s: not a directory", dir)
	}
	out := make([]Entry, 0, len(contents))
	for _, c := range contents {
		out = append(out, Entry{
			Name:        c.GetName(),
			Path:        c.GetPath(),
			Type:        EntryType(c.GetType()),
			DownloadURL: c.GetDownloadURL(),
		})
	}
	return out, nil
}

// Download fetches a file through its download URL, falling back to the
// contents API when the listing carried none.
func (g *GitHub) Download(ctx context.Context, e Entry) ([]byte, error) {
	if e.DownloadURL == "" {
		return g.GetFile(ctx, e.Path)
	}
	return g.download(ctx, e.Path, e.DownloadURL)
}

func (g *GitHub) download(ctx context.Context, path, rawURL string) ([]byte, error) {
	req, err := g.client.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: download %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := g.client.Do(ctx, req, &buf); err != nil {
		return nil, g.classify("download "+path, err)
	}
	return buf.Bytes(), nil
}

// GetFile returns the decoded contents of path at the branch head.
func (g *GitHub) GetFile(ctx context.Context, path string) ([]byte, error) {
	file, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path,
		&github.RepositoryContentGetOptions{Ref: g.branch})
	if err != nil {
		return nil, g.classify("get "+path, err)
	}
	if file == nil {
		return nil, fmt.Errorf("storage: get %s: is a directory", path)
	}
	// Files above 1 MB come back without inline content.
	if file.GetEncoding() == "none" && file.GetDownloadURL() != "" {
		return g.download(ctx, path, file.GetDownloadURL())
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", path, err)
	}
	return []byte(content), nil
}

// Profile returns the owner's public profile.
func (g *GitHub) Profile(ctx context.Context) (*Profile, error) {
	u, _, err := g.client.Users.Get(ctx, g.owner)
	if err != nil {
		return nil, g.classifyAPI("profile", err)
	}
	return &Profile{
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		AvatarURL:   u.GetAvatarURL(),
		Bio:         u.GetBio(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
	}, nil
}

// HeadCommit resolves refs/heads/<branch>.
func (g *GitHub) HeadCommit(ctx context.Context) (string, error) {
	ref, _, err := g.client.Git.GetRef(ctx, g.owner, g.repo, "heads/"+g.branch)
	if err != nil {
		return "", g.classifyAPI("get ref", err)
	}
	return ref.GetObject().GetSHA(), nil
}

// CommitTree returns the tree sha of a commit.
func (g *GitHub) CommitTree(ctx context.Context, commitSHA string) (string, error) {
	c, _, err := g.client.Git.GetCommit(ctx, g.owner, g.repo, commitSHA)
	if err != nil {
		return "", g.classifyAPI("get commit", err)
	}
	return c.GetTree().GetSHA(), nil
}

// CreateBlob uploads a blob.
func (g *GitHub) CreateBlob(ctx context.Context, content string, enc Encoding) (string, error) {
	b, _, err := g.client.Git.CreateBlob(ctx, g.owner, g.repo, &github.Blob{
		Content:  github.String(content),
		Encoding: github.String(string(enc)),
	})
	if err != nil {
		return "", g.classifyAPI("create blob", err)
	}
	return b.GetSHA(), nil
}

// CreateTree creates a tree on top of baseTree with regular-file entries.
func (g *GitHub) CreateTree(ctx context.Context, baseTree string, entries []TreeEntry) (string, error) {
	ghEntries := make([]*github.TreeEntry, len(entries))
	for i, e := range entries {
		ghEntries[i] = &github.TreeEntry{
			Path: github.String(e.Path),
			Mode: github.String("100644"),
			Type: github.String("blob"),
			SHA:  github.String(e.SHA),
		}
	}
	tree, _, err := g.client.Git.CreateTree(ctx, g.owner, g.repo, baseTree, ghEntries)
	if err != nil {
		return "", g.classifyAPI("create tree", err)
	}
	return tree.GetSHA(), nil
}

// CreateCommit creates a commit object with the given parents.
func (g *GitHub) CreateCommit(ctx context.Context, message, treeSHA string, parents []string) (string, error) {
	ps := make([]*github.Commit, len(parents))
	for i, p := range parents {
		ps[i] = &github.Commit{SHA: github.String(p)}
	}
	c, _, err := g.client.Git.CreateCommit(ctx, g.owner, g.repo, &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: github.String(treeSHA)},
		Parents: ps,
	}, nil)
	if err != nil {
		return "", g.classifyAPI("create commit", err)
	}
	return c.GetSHA(), nil
}

// UpdateHead moves the branch without force, so GitHub rejects anything
// that is not a fast-forward of the current head.
func (g *GitHub) UpdateHead(ctx context.Context, commitSHA string) error {
	_, _, err := g.client.Git.UpdateRef(ctx, g.owner, g.repo, &github.Reference{
		Ref:    github.String("refs/heads/" + g.branch),
		Object: &github.GitObject{SHA: github.String(commitSHA)},
	}, false)
	if err != nil {
		return g.classifyAPI("update ref", err)
	}
	return nil
}

// classify maps go-github errors from content reads onto storage/apperr
// kinds. A 404 there means the file does not exist.
func (g *GitHub) classify(op string, err error) error {
	return classifyError(op, err, true)
}

// classifyAPI is classify for Git data and user calls, where a 404 is an
// upstream failure (missing branch, commit or user) rather than a missing file.
func (g *GitHub) classifyAPI(op string, err error) error {
	return classifyError(op, err, false)
}

func classifyError(op string, err error, missingFile bool) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("storage: %s: %w", op, apperr.RateLimited(err))
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		status := 0
		if respErr.Response != nil {
			status = respErr.Response.StatusCode
		}
		switch {
		case status == http.StatusNotFound && missingFile:
			return fmt.Errorf("storage: %s: %w", op, ErrNotFound)
		case status == http.StatusTooManyRequests:
			return fmt.Errorf("storage: %s: %w", op, apperr.RateLimited(err))
		}
		return fmt.Errorf("storage: %s: %w", op, apperr.Upstream(status, respErr.Message, err))
	}
	return fmt.Errorf("storage: %s: %w", op, err)
}

var _ Backend = (*GitHub)(nil)

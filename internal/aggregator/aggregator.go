// Package aggregator builds the read-side view of the blog by walking the
// year/month document tree of the content repository.
package aggregator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/sync/errgroup"

	"github.com/starford/inkwell/internal/document"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/storage"
)

// DocumentExt is the extension of post documents.
const DocumentExt = ".mdx"

// DateLayout is the layout of the date header.
const DateLayout = "2006-01-02 15:04"

const downloadConcurrency = 8

// Aggregator lists and resolves posts.
type Aggregator struct {
	store  storage.Reader
	root   string
	md     goldmark.Markdown
	logger *slog.Logger
}

// New returns an Aggregator reading documents under root (e.g. "mdx/posts").
func New(store storage.Reader, root string, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		store:  store,
		root:   root,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger: logger,
	}
}

// List returns every parseable post, newest first, without bodies. A
// document that fails to download or parse is logged and skipped.
func (a *Aggregator) List(ctx context.Context) ([]models.Post, error) {
	files, err := a.documents(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*models.Post, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadConcurrency)
	for i, f := range files {
		g.Go(func() error {
			p, err := a.load(gctx, f)
			if err != nil {
				a.logger.Error("aggregator: skipping document",
					slog.String("path", f.Path), slog.String("error", err.Error()))
				return nil
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(results))
	for _, p := range results {
		if p != nil {
			posts = append(posts, p.Summary())
		}
	}
	SortNewestFirst(posts)
	return posts, nil
}

// Get resolves id against document file stems: an exact match, a stem that
// contains id, or a stem equal to id once unescaped. The first match in
// walk order wins. Get returns nil, nil when nothing matches.
func (a *Aggregator) Get(ctx context.Context, id string) (*models.Post, error) {
	decoded, err := url.PathUnescape(id)
	if err != nil {
		decoded = id
	}
	if decoded == "" {
		return nil, nil
	}

	files, err := a.documents(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if !matches(stem(f.Name), decoded) {
			continue
		}
		p, err := a.load(ctx, f)
		if err != nil {
			a.logger.Error("aggregator: matched document unreadable",
				slog.String("path", f.Path), slog.String("error", err.Error()))
			return nil, nil
		}
		var buf bytes.Buffer
		if err := a.md.Convert([]byte(p.Content), &buf); err != nil {
			return nil, fmt.Errorf("aggregator: render %s: %w", f.Path, err)
		}
		p.HTML = buf.String()
		return p, nil
	}
	return nil, nil
}

func matches(name, id string) bool {
	if name == id || strings.Contains(name, id) {
		return true
	}
	unescaped, err := url.PathUnescape(name)
	return err == nil && unescaped == id
}

func stem(name string) string {
	return strings.TrimSuffix(name, DocumentExt)
}

// documents walks root/<year>/<month>/*.mdx. A missing root is an empty blog.
func (a *Aggregator) documents(ctx context.Context) ([]storage.Entry, error) {
	years, err := a.store.ListDir(ctx, a.root)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("aggregator: list %s: %w", a.root, err)
	}

	var out []storage.Entry
	for _, y := range years {
		if y.Type != storage.EntryDir {
			continue
		}
		months, err := a.store.ListDir(ctx, y.Path)
		if err != nil {
			return nil, fmt.Errorf("aggregator: list %s: %w", y.Path, err)
		}
		for _, m := range months {
			if m.Type != storage.EntryDir {
				continue
			}
			files, err := a.store.ListDir(ctx, m.Path)
			if err != nil {
				return nil, fmt.Errorf("aggregator: list %s: %w", m.Path, err)
			}
			for _, f := range files {
				if f.Type == storage.EntryFile && strings.HasSuffix(f.Name, DocumentExt) {
					out = append(out, f)
				}
			}
		}
	}
	return out, nil
}

func (a *Aggregator) load(ctx context.Context, f storage.Entry) (*models.Post, error) {
	data, err := a.store.Download(ctx, f)
	if err != nil {
		return nil, err
	}
	parsed, err := document.Parse(string(data))
	if err != nil {
		return nil, err
	}
	published, err := ParseDate(parsed.Header.Date)
	if err != nil {
		return nil, err
	}

	h := parsed.Header
	return &models.Post{
		PostMetadata: models.PostMetadata{
			Slug:        stem(f.Name),
			Title:       h.Title,
			Date:        h.Date,
			Category:    h.Category,
			Tags:        h.Tags,
			Thumbnail:   h.Thumbnail,
			Excerpt:     document.Excerpt(parsed.Body),
			ReadingTime: h.ReadingTime,
		},
		Path:        f.Path,
		PublishedAt: published,
		Content:     parsed.Body,
	}, nil
}

// ParseDate accepts "YYYY-MM-DD HH:mm" and a bare "YYYY-MM-DD".
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("aggregator: invalid date %q", s)
	}
	return t, nil
}

// SortNewestFirst orders posts by publication time, descending. Ties keep
// their walk order.
func SortNewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
}

// Package postservice orchestrates publishing and reading posts on top of
// the content repository.
package postservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/starford/inkwell/internal/aggregator"
	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/commit"
	"github.com/starford/inkwell/internal/document"
	"github.com/starford/inkwell/internal/images"
	"github.com/starford/inkwell/internal/index"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/readingtime"
	"github.com/starford/inkwell/internal/slug"
	"github.com/starford/inkwell/internal/storage"
)

// ModeDevelopment is the only runtime mode that accepts new posts.
const ModeDevelopment = "development"

// Config controls where and whether posts are published.
type Config struct {
	Mode  string
	Owner string
	Repo  string
	Token string
	// TokenRequired is false for backends that need no credential.
	TokenRequired bool

	PostsDir      string
	ImagesDir     string
	MetadataDir   string
	MaxImageBytes int64
	CacheTTL      time.Duration
	Location      *time.Location
}

func (c Config) checkCoordinates() error {
	var missing []string
	if c.Owner == "" {
		missing = append(missing, "owner")
	}
	if c.Repo == "" {
		missing = append(missing, "repo")
	}
	if c.TokenRequired && c.Token == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("postservice: missing github %v", missing)
	}
	return nil
}

// Events receives publish notifications.
type Events interface {
	PostPublished(meta models.PostMetadata)
}

// PublishResult is returned to the client after a successful publish.
type PublishResult struct {
	Success            bool   `json:"success"`
	Slug               string `json:"slug"`
	FileName           string `json:"fileName"`
	ThumbnailURL       string `json:"thumbnailUrl"`
	ContentImagesCount int    `json:"contentImagesCount"`
	ReadingTime        string `json:"readingTime"`
	Branch             string `json:"branch"`
	Commit             string `json:"commit"`
}

// Service coordinates the publish pipeline and the read path.
type Service struct {
	cfg       Config
	store     storage.Backend
	committer *commit.Committer
	indexes   *index.Updater
	posts     *aggregator.Aggregator
	cache     *listingCache
	events    Events
	logger    *slog.Logger

	// Now is the publish clock; replaceable for tests.
	Now func() time.Time
	// NewID names uploaded images; replaceable for tests.
	NewID func() string
}

// NewService wires a Service over store. events may be nil.
func NewService(cfg Config, store storage.Backend, events Events, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	s := &Service{
		cfg:       cfg,
		store:     store,
		committer: commit.New(store, logger),
		indexes:   index.NewUpdater(store, cfg.MetadataDir, logger),
		posts:     aggregator.New(store, cfg.PostsDir, logger),
		events:    events,
		logger:    logger,
		Now:       time.Now,
	}
	s.cache = newListingCache(cfg.CacheTTL, s.posts.List)
	return s
}

func (s *Service) materializer(now time.Time) *images.Materializer {
	m := images.NewMaterializer(images.Target{
		Owner:    s.cfg.Owner,
		Repo:     s.cfg.Repo,
		Branch:   s.store.Branch(),
		Dir:      s.cfg.ImagesDir,
		MaxBytes: s.cfg.MaxImageBytes,
		URLFor:   s.store.RawURL,
	})
	m.Now = func() time.Time { return now }
	if s.NewID != nil {
		m.NewID = s.NewID
	}
	return m
}

// CheckPublishable reports whether this instance may publish at all: the
// runtime mode must allow it and the repository coordinates must be set.
// Callers that receive large request bodies check this before reading them.
func (s *Service) CheckPublishable() error {
	if s.cfg.Mode != ModeDevelopment {
		return apperr.Environment()
	}
	if err := s.cfg.checkCoordinates(); err != nil {
		return apperr.Configuration(err)
	}
	return nil
}

// Publish runs a submission through images, composition and index updates
// and lands everything in one commit. Nothing is written unless every step
// before the commit succeeds.
func (s *Service) Publish(ctx context.Context, sub Submission) (*PublishResult, error) {
	log := s.logger.With(slog.String("title", sub.Title))
	state := func(name string) { log.Debug("publish", slog.String("state", name)) }

	if err := s.CheckPublishable(); err != nil {
		if apperr.IsKind(err, apperr.KindEnvironment) {
			state("rejected_environment")
		} else {
			state("rejected_config")
		}
		return nil, err
	}

	state("parsing")
	if err := sub.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	state("processing_images")
	now := s.Now().In(s.cfg.Location)
	mat := s.materializer(now)
	var files []commit.File

	thumbnailURL := ""
	if sub.Thumbnail != nil && sub.Thumbnail.Size > 0 {
		img, err := mat.Materialize(*sub.Thumbnail)
		if err != nil {
			return nil, fmt.Errorf("postservice: thumbnail: %w", err)
		}
		thumbnailURL = img.URL
		files = append(files, commit.File{Path: img.FilePath, Content: img.Content})
	}

	body := sub.Content
	for _, ci := range sub.ContentImages {
		img, err := mat.Materialize(ci.Upload)
		if err != nil {
			return nil, fmt.Errorf("postservice: content image %s: %w", ci.ID, err)
		}
		files = append(files, commit.File{Path: img.FilePath, Content: img.Content})
		body = images.ReplacePlaceholder(body, ci.ID, img.URL)
	}

	state("composing")
	postSlug := slug.FileStem(now, slug.Generate(sub.Title, now.UnixMilli()))
	fileName := postSlug + aggregator.DocumentExt
	docPath := path.Join(s.cfg.PostsDir, now.Format("2006"), now.Format("01"), fileName)
	stats := readingtime.Estimate(body)

	category := sub.Category
	if category == "" {
		category = models.DefaultCategory
	}
	tags := sub.Tags
	if tags == nil {
		tags = []string{}
	}
	meta := models.PostMetadata{
		Slug:        postSlug,
		Title:       sub.Title,
		Date:        now.Format(aggregator.DateLayout),
		Category:    category,
		Tags:        tags,
		Thumbnail:   thumbnailURL,
		Excerpt:     document.Excerpt(body),
		ReadingTime: stats.Label(),
	}
	doc := document.Compose(document.Header{
		Title:       meta.Title,
		Date:        meta.Date,
		Category:    meta.Category,
		Tags:        meta.Tags,
		Thumbnail:   meta.Thumbnail,
		ReadingTime: meta.ReadingTime,
	}, body)
	files = append(files, commit.File{Path: docPath, Content: doc})

	state("committing")
	indexFiles, err := s.indexUpdates(ctx, meta, now.Year())
	if err != nil {
		return nil, err
	}
	files = append(files, indexFiles...)

	sha, err := s.committer.Commit(ctx, files, "Add post: "+sub.Title)
	if err != nil {
		return nil, err
	}

	state("done")
	s.cache.Invalidate()
	if s.events != nil {
		s.events.PostPublished(meta)
	}
	log.Info("post published",
		slog.String("slug", postSlug), slog.String("commit", sha), slog.Int("files", len(files)))

	return &PublishResult{
		Success:            true,
		Slug:               postSlug,
		FileName:           fileName,
		ThumbnailURL:       thumbnailURL,
		ContentImagesCount: len(sub.ContentImages),
		ReadingTime:        stats.Text,
		Branch:             s.store.Branch(),
		Commit:             sha,
	}, nil
}

// indexUpdates prepends meta to its category index, each distinct tag
// index, and the year index.
func (s *Service) indexUpdates(ctx context.Context, meta models.PostMetadata, year int) ([]commit.File, error) {
	type target struct {
		family index.Family
		key    string
	}
	targets := []target{{index.Categories, meta.Category}}
	seen := make(map[string]bool, len(meta.Tags))
	for _, t := range meta.Tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		targets = append(targets, target{index.Tags, t})
	}
	targets = append(targets, target{index.Yearly, strconv.Itoa(year)})

	files := make([]commit.File, 0, len(targets))
	for _, tg := range targets {
		f, err := s.indexes.Prepend(ctx, tg.family, tg.key, meta)
		if err != nil {
			return nil, fmt.Errorf("postservice: %s index %q: %w", tg.family.Name, tg.key, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	Category string
	Tag      string
}

func (f Filter) match(p models.Post) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Tag == "" {
		return true
	}
	for _, t := range p.Tags {
		if t == f.Tag {
			return true
		}
	}
	return false
}

// List returns post summaries, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Post, error) {
	posts, err := s.cache.Posts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if f.match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Get resolves one post with its body and rendered HTML.
func (s *Service) Get(ctx context.Context, id string) (*models.Post, error) {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("post")
	}
	return p, nil
}

// Index returns the entries of one index file.
func (s *Service) Index(ctx context.Context, family, key string) ([]models.PostMetadata, error) {
	f, ok := index.Lookup(family)
	if !ok {
		return nil, apperr.NotFound("index family")
	}
	if err := ValidateKey(key); err != nil {
		return nil, apperr.Validationf("%s: %v", family, err)
	}
	return s.indexes.Read(ctx, f, key)
}

// Term is a category or tag with the number of posts using it.
type Term struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Categories counts posts per category in listing order of first use.
func (s *Service) Categories(ctx context.Context) ([]Term, error) {
	return s.terms(ctx, func(p models.Post) []string { return []string{p.Category} })
}

// Tags counts posts per tag.
func (s *Service) Tags(ctx context.Context) ([]Term, error) {
	return s.terms(ctx, func(p models.Post) []string { return p.Tags })
}

func (s *Service) terms(ctx context.Context, of func(models.Post) []string) ([]Term, error) {
	posts, err := s.cache.Posts(ctx)
	if err != nil {
		return nil, err
	}
	pos := make(map[string]int)
	out := []Term{}
	for _, p := range posts {
		counted := make(map[string]bool)
		for _, name := range of(p) {
			if name == "" || counted[name] {
				continue
			}
			counted[name] = true
			if i, ok := pos[name]; ok {
				out[i].Count++
				continue
			}
			pos[name] = len(out)
			out = append(out, Term{Name: name, Count: 1})
		}
	}
	return out, nil
}

// Profile returns the repository owner's profile.
func (s *Service) Profile(ctx context.Context) (*storage.Profile, error) {
	if s.cfg.Owner == "" {
		return nil, apperr.Configuration(errors.New("postservice: missing github owner"))
	}
	return s.store.Profile(ctx)
}

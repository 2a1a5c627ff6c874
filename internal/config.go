package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/inkwell/internal/images"
	"github.com/starford/inkwell/internal/postservice"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage backends.
const (
	BackendGitHub = "github"
	BackendMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	GitHub  GitHubConfig      `yaml:"github"`
	Content ContentConfig     `yaml:"content"`
	Cache   CacheConfig       `yaml:"cache"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.GitHub.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// Mode gates publishing; only "development" accepts new posts.
	Mode     string     `yaml:"mode"`
	Timezone string     `yaml:"timezone"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Timezone, validation.By(knownLocation)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// Location resolves Timezone, falling back to the local zone.
func (c *ApplicationConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func knownLocation(value any) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown timezone %q", name)
	}
	return nil
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// GitHubConfig locates the content repository.
//
// Owner, Repo and Token are not required at startup: a server without them
// still serves reads from whatever it can reach, and publishing reports a
// configuration error.
type GitHubConfig struct {
	Token   string `yaml:"token"`
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Branch  string `yaml:"branch"`
	APIURL  string `yaml:"api_url"`
	Backend string `yaml:"backend"`
}

// Validate validates the GitHub configuration.
func (c *GitHubConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendGitHub
	}
	if c.Branch == "" {
		c.Branch = "main"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.In(BackendGitHub, BackendMemory)),
	)
}

// ContentConfig holds the repository layout and upload limits.
type ContentConfig struct {
	PostsDir           string `yaml:"posts_dir"`
	ImagesDir          string `yaml:"images_dir"`
	MetadataDir        string `yaml:"metadata_dir"`
	MaxImageBytes      int64  `yaml:"max_image_bytes"`
	MaxSubmissionBytes int64  `yaml:"max_submission_bytes"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PostsDir, validation.Required),
		validation.Field(&c.ImagesDir, validation.Required),
		validation.Field(&c.MetadataDir, validation.Required),
		validation.Field(&c.MaxImageBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.MaxSubmissionBytes, validation.Required, validation.Min(c.MaxImageBytes)),
	)
}

// CacheConfig controls the listing cache. A zero TTL disables it.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// AuthConfig holds authentication configuration for publishing.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): anyone reaching the server may publish, suitable for local dev.
//   - "token": POST /api/posts requires a Bearer token; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ServiceConfig maps the configuration onto the post service.
func (c *Config) ServiceConfig() postservice.Config {
	return postservice.Config{
		Mode:          c.App.Mode,
		Owner:         c.GitHub.Owner,
		Repo:          c.GitHub.Repo,
		Token:         c.GitHub.Token,
		TokenRequired: c.GitHub.Backend == BackendGitHub,
		PostsDir:      c.Content.PostsDir,
		ImagesDir:     c.Content.ImagesDir,
		MetadataDir:   c.Content.MetadataDir,
		MaxImageBytes: c.Content.MaxImageBytes,
		CacheTTL:      c.Cache.TTL,
		Location:      c.App.Location(),
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Mode:     "production",
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		GitHub: GitHubConfig{
			Branch:  "main",
			Backend: BackendGitHub,
		},
		Content: ContentConfig{
			PostsDir:           "mdx/posts",
			ImagesDir:          "mdx/images",
			MetadataDir:        "mdx/metadata",
			MaxImageBytes:      images.MaxBytes,
			MaxSubmissionBytes: 64 << 20,
		},
		Cache: CacheConfig{
			TTL: time.Minute,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

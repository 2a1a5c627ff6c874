package internal

import (
	"io"

	"github.com/starford/inkwell/internal/storage"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	backend storage.Backend
	logOut  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithBackend replaces the backend selected by github.backend.
func WithBackend(b storage.Backend) Option {
	return func(a *application) {
		a.backend = b
	}
}

// WithLogOutput sets where JSON logs are written. Defaults to stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

package gen

import (
	"errors"
	"log/slog"
)

// Option configures the compiler.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the output package import path.
// For example: "github.com/org/project/shop".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
// The directory where generated code will be written.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithWorkers sets the number of catalogs compiled in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithDebugDir mirrors every artifact into dir. Mirroring failures are
// reported as warnings.
func WithDebugDir(dir string) Option {
	return func(c *Config) error {
		c.DebugDir = dir
		return nil
	}
}

// WithSwitchThreshold sets the largest catalog whose name lookup is
// compiled to a switch statement. Zero restores the default; use a negative
// value to always emit a frozen index.
func WithSwitchThreshold(n int) Option {
	return func(c *Config) error {
		if n < -1 {
			return NewConfigError("SwitchThreshold", n, "threshold must be -1 or greater")
		}
		c.SwitchThreshold = n
		return nil
	}
}

// WithLogger sets the logger receiving warnings and progress.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithEmitter sets the code emitter.
// The emitter lives in a separate package to avoid import cycles; see
// the registry package.
func WithEmitter(e Emitter) Option {
	return func(c *Config) error {
		if e == nil {
			return NewConfigError("Emitter", nil, "emitter cannot be nil")
		}
		c.Emitter = e
		return nil
	}
}

// WithCache sets the incremental cache. Sharing one cache between
// compilations of a session skips emission of unchanged catalogs.
func WithCache(cache *Cache) Option {
	return func(c *Config) error {
		if cache == nil {
			return NewConfigError("Cache", nil, "cache cannot be nil")
		}
		c.Cache = cache
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	c.defaults()
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

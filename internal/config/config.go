package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/tocsync/internal/toc"
)

// EnvPrefix prefixes environment overrides. A double underscore descends
// into a section: TOCSYNC_SERVER__PORT sets server.port.
const EnvPrefix = "TOCSYNC_"

// Load layers the YAML file at path (if it exists) and TOCSYNC_* variables
// over DefaultConfig.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	switch _, err := os.Stat(path); {
	case err == nil:
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// envKey maps TOCSYNC_SERVER__PORT to server.port.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes c as YAML.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid setting, combined into one error.
func (c *Config) Validate() error {
	var errs error
	fail := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if c.DocsDir == "" {
		fail("docs_dir is required")
	}
	if c.SiteDir == "" {
		fail("site_dir is required")
	}
	if len(c.Include) == 0 {
		fail("include needs at least one pattern")
	}
	for _, set := range [][]string{c.Include, c.Exclude} {
		for _, p := range set {
			if !doublestar.ValidatePattern(p) {
				fail("invalid glob pattern %q", p)
			}
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		fail("server.port %d out of range", c.Server.Port)
	}
	switch c.Log.Level {
	case "", LogDebug, LogNormal, LogNone:
	default:
		fail("invalid log.level %q: must be one of debug, normal, none", c.Log.Level)
	}
	if _, err := c.Conventions.Compile(); err != nil {
		fail("conventions: %w", err)
	}
	return errs
}

// Schema compiles the configured TOC conventions.
func (c *Config) Schema() (*toc.Schema, error) {
	return c.Conventions.Compile()
}

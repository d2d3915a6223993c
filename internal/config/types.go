package config

import "github.com/ziadkadry99/tocsync/internal/toc"

// LogLevel selects how much the CLI reports.
type LogLevel string

const (
	LogDebug  LogLevel = "debug"
	LogNormal LogLevel = "normal"
	LogNone   LogLevel = "none"
)

// Config is the top-level tocsync configuration, corresponding to .tocsync.yml.
type Config struct {
	DocsDir   string   `yaml:"docs_dir" koanf:"docs_dir"`
	SiteDir   string   `yaml:"site_dir" koanf:"site_dir"`
	SiteName  string   `yaml:"site_name" koanf:"site_name"`
	Include   []string `yaml:"include" koanf:"include"`
	Exclude   []string `yaml:"exclude" koanf:"exclude"`
	Minify    bool     `yaml:"minify" koanf:"minify"`
	Prerender bool     `yaml:"prerender" koanf:"prerender"`

	Server      ServerConfig    `yaml:"server" koanf:"server"`
	Log         LogConfig       `yaml:"log" koanf:"log"`
	Conventions toc.Conventions `yaml:"conventions" koanf:"conventions"`
}

// ServerConfig holds settings for `tocsync serve`.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level LogLevel `yaml:"level" koanf:"level"`
}

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".tocsync.yml"

// DefaultExcludes are glob patterns skipped when discovering pages.
var DefaultExcludes = []string{
	"**/_*/**",
	"**/.*/**",
	"**/node_modules/**",
	"**/drafts/**",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DocsDir:   "docs",
		SiteDir:   "site",
		SiteName:  "Documentation",
		Include:   []string{"**/*.md"},
		Exclude:   append([]string(nil), DefaultExcludes...),
		Prerender: true,
		Server: ServerConfig{
			Port: 8080,
		},
		Log:         LogConfig{Level: LogNormal},
		Conventions: toc.DefaultConventions(),
	}
}

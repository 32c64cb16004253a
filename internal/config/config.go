// Package config provides configuration management for versemark.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/versemark/core/annotate"
	"github.com/FocuswithJustin/versemark/core/errors"
	"github.com/FocuswithJustin/versemark/core/render"
	"github.com/FocuswithJustin/versemark/internal/logging"
)

// Config holds the versemark configuration.
type Config struct {
	ChapterLabel     string   `yaml:"chapter_label"`
	HighlightElement string   `yaml:"highlight_element"`
	QuotesToIgnore   []string `yaml:"quotes_to_ignore,omitempty"`
	Bible            string   `yaml:"bible,omitempty"`        // Aligned translation named in diagnostics
	SourceBible      string   `yaml:"source_bible,omitempty"` // Original-language text named in diagnostics
	FixLinks         bool     `yaml:"fix_links"`              // Strip padding around footnote refs and verse numbers
	LogLevel         string   `yaml:"log_level"`
	LogFormat        string   `yaml:"log_format"`
	DiagnosticsLog   string   `yaml:"diagnostics_log,omitempty"` // Extra JSON log sink, if set
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ChapterLabel:     render.DefaultChapterLabel,
		HighlightElement: "span",
		QuotesToIgnore:   append([]string(nil), annotate.QuotesToIgnore...),
		Bible:            "ult",
		FixLinks:         true,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

var elementName = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ChapterLabel) == "" {
		return errors.NewValidation("chapter_label", "must not be empty")
	}
	if !elementName.MatchString(c.HighlightElement) {
		return &errors.ValidationError{Field: "highlight_element", Value: c.HighlightElement, Message: "must be a lower-case element name"}
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return &errors.ValidationError{Field: "log_level", Value: c.LogLevel, Message: "must be one of debug, info, warn, error"}
	}
	if _, ok := logging.ParseFormat(c.LogFormat); !ok {
		return &errors.ValidationError{Field: "log_format", Value: c.LogFormat, Message: "must be text or json"}
	}
	return nil
}

// LoadFromEnv overrides fields from VERSEMARK_* environment variables.
// Only set, non-empty variables take effect.
func (c *Config) LoadFromEnv() {
	setFromEnv(&c.ChapterLabel, "VERSEMARK_CHAPTER_LABEL")
	setFromEnv(&c.HighlightElement, "VERSEMARK_HIGHLIGHT_ELEMENT")
	setFromEnv(&c.Bible, "VERSEMARK_BIBLE")
	setFromEnv(&c.SourceBible, "VERSEMARK_SOURCE_BIBLE")
	setFromEnv(&c.LogLevel, "VERSEMARK_LOG_LEVEL")
	setFromEnv(&c.LogFormat, "VERSEMARK_LOG_FORMAT")
	setFromEnv(&c.DiagnosticsLog, "VERSEMARK_DIAGNOSTICS_LOG")
	if v := os.Getenv("VERSEMARK_QUOTES_TO_IGNORE"); v != "" {
		c.QuotesToIgnore = nil
		for _, q := range strings.Split(v, ",") {
			if q = strings.TrimSpace(q); q != "" {
				c.QuotesToIgnore = append(c.QuotesToIgnore, q)
			}
		}
	}
	if v := os.Getenv("VERSEMARK_FIX_LINKS"); v != "" {
		c.FixLinks = v == "1" || strings.EqualFold(v, "true")
	}
}

func setFromEnv(field *string, name string) {
	if v := os.Getenv(name); v != "" {
		*field = v
	}
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "versemark", "config.yml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".versemark", "config.yml")
	}

	return filepath.Join(home, ".config", "versemark", "config.yml")
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path. Fields missing from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &errors.ParseError{Format: "YAML", Path: path, Message: err.Error(), Err: err}
	}

	return cfg, nil
}

// LoadWithEnv loads configuration from path, falling back to the defaults
// when the file does not exist, then applies environment overrides and
// validates the result.
func LoadWithEnv(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	cfg.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

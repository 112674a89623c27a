package config

import (
	"fmt"
	"path"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&DirDefaultApplier{},
			&TemplateDefaultApplier{},
			&StyleDefaultApplier{},
			&LegacyDefaultApplier{},
			&LoggingDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// DirDefaultApplier handles source/output directory defaults.
type DirDefaultApplier struct{}

func (d *DirDefaultApplier) Domain() string { return "dir" }

func (d *DirDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Dir.Input == "" {
		cfg.Dir.Input = "src"
	}
	if cfg.Dir.Output == "" {
		cfg.Dir.Output = "dist"
	}
	if cfg.Dir.Includes == "" {
		cfg.Dir.Includes = "_includes"
	}
	if cfg.Dir.Data == "" {
		cfg.Dir.Data = "_data"
	}
	if cfg.Build.Concurrency < 0 {
		cfg.Build.Concurrency = 0
	}
	return nil
}

// TemplateDefaultApplier handles template format defaults.
type TemplateDefaultApplier struct{}

func (t *TemplateDefaultApplier) Domain() string { return "templates" }

func (t *TemplateDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.TemplateFormats) == 0 {
		cfg.TemplateFormats = []string{"html", "md", "scss", "sass"}
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/"
	}
	return nil
}

// StyleDefaultApplier handles Sass and CSS defaults.
type StyleDefaultApplier struct{}

func (s *StyleDefaultApplier) Domain() string { return "styles" }

func (s *StyleDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.Sass.LoadPaths) == 0 {
		cfg.Sass.LoadPaths = []string{"node_modules"}
	}
	if cfg.Sass.Style == "" {
		cfg.Sass.Style = "expanded"
	}
	if cfg.Sass.Timeout == "" {
		cfg.Sass.Timeout = "30s"
	}
	if cfg.CSS.Prefixes == nil {
		cfg.CSS.Prefixes = []string{"webkit", "moz", "ms"}
	}
	return nil
}

// LegacyDefaultApplier derives the legacy pipeline output locations.
type LegacyDefaultApplier struct{}

func (l *LegacyDefaultApplier) Domain() string { return "legacy" }

func (l *LegacyDefaultApplier) ApplyDefaults(cfg *Config) error {
	lg := &cfg.Legacy
	if lg.Styles.Output == "" {
		lg.Styles.Output = path.Join(cfg.Dir.Output, "css", "styles.min.css")
	}
	if lg.Scripts.Output == "" {
		lg.Scripts.Output = path.Join(cfg.Dir.Output, "js")
	}
	if lg.Fonts.To == "" {
		lg.Fonts.To = path.Join(path.Dir(lg.Styles.Output), "files")
	}
	if len(lg.Clean) == 0 {
		for _, dir := range []string{path.Dir(lg.Styles.Output), lg.Scripts.Output} {
			if dir != "." && dir != "" {
				lg.Clean = append(lg.Clean, dir)
			}
		}
	}
	return nil
}

// LoggingDefaultApplier normalizes logging settings.
type LoggingDefaultApplier struct{}

func (l *LoggingDefaultApplier) Domain() string { return "logging" }

func (l *LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

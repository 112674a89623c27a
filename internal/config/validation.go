package config

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

var (
	knownTemplateFormats = map[string]bool{"html": true, "md": true, "scss": true, "sass": true}
	knownPrefixes        = map[string]bool{"webkit": true, "moz": true, "ms": true}
	knownSassStyles      = map[string]bool{"expanded": true, "compressed": true}
)

// configurationValidator handles validation of the complete configuration.
type configurationValidator struct {
	config *Config
}

// ValidateConfig validates the complete configuration structure
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateDirs(); err != nil {
		return err
	}
	if err := cv.validateTemplateFormats(); err != nil {
		return err
	}
	if err := cv.validatePassthrough(); err != nil {
		return err
	}
	if err := cv.validateStyles(); err != nil {
		return err
	}
	if err := cv.validateLegacy(); err != nil {
		return err
	}
	return cv.validateBuild()
}

func (cv *configurationValidator) validateDirs() error {
	d := cv.config.Dir
	for field, value := range map[string]string{"dir.includes": d.Includes, "dir.data": d.Data} {
		if filepath.IsAbs(value) || escapes(value) {
			return errors.ValidationFailed(field, "must be a path inside dir.input")
		}
	}
	in := filepath.Clean(cv.config.InputDir())
	out := filepath.Clean(cv.config.OutputDir())
	if in == out {
		return errors.ValidationFailed("dir.output", "must differ from dir.input")
	}
	if within(out, in) {
		return errors.ValidationFailed("dir.input", "must not be inside dir.output")
	}
	return nil
}

func (cv *configurationValidator) validateTemplateFormats() error {
	for _, f := range cv.config.TemplateFormats {
		if !knownTemplateFormats[f] {
			return errors.ValidationFailed("template_formats", fmt.Sprintf("unsupported format %q", f))
		}
	}
	return nil
}

func (cv *configurationValidator) validatePassthrough() error {
	sources := make([]string, 0, len(cv.config.Passthrough))
	for src := range cv.config.Passthrough {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	seen := make(map[string]string, len(sources))
	for _, src := range sources {
		dst := cv.config.Passthrough[src]
		if strings.TrimSpace(src) == "" {
			return errors.ValidationFailed("passthrough", "source must not be empty")
		}
		clean := path.Clean(filepath.ToSlash(dst))
		if dst == "" || path.IsAbs(clean) || escapes(clean) {
			return errors.ValidationFailed("passthrough."+src, "destination must be a path inside the output directory")
		}
		if prev, ok := seen[clean]; ok {
			return errors.OutputCollision(clean, prev, src)
		}
		seen[clean] = src
	}
	return nil
}

func (cv *configurationValidator) validateStyles() error {
	for _, p := range cv.config.CSS.Prefixes {
		if !knownPrefixes[p] {
			return errors.ValidationFailed("css.prefixes", fmt.Sprintf("unknown prefix %q", p))
		}
	}
	if !knownSassStyles[cv.config.Sass.Style] {
		return errors.ValidationFailed("sass.style", fmt.Sprintf("unknown style %q", cv.config.Sass.Style))
	}
	if _, err := cv.config.SassTimeout(); err != nil {
		return errors.ValidationFailed("sass.timeout", err.Error())
	}
	return nil
}

// validateLegacy keeps clean inside the project; it never deletes the
// project root.
func (cv *configurationValidator) validateLegacy() error {
	for _, dir := range cv.config.Legacy.Clean {
		if filepath.IsAbs(dir) || escapes(dir) || path.Clean(filepath.ToSlash(dir)) == "." {
			return errors.ValidationFailed("legacy.clean", fmt.Sprintf("%q must be a directory inside the project", dir))
		}
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	if cv.config.Build.Concurrency < 0 {
		return errors.ValidationFailed("build.concurrency", "must be >= 0")
	}
	return nil
}

// SassTimeout parses sass.timeout.
func (c *Config) SassTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Sass.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", c.Sass.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}

func escapes(rel string) bool {
	rel = path.Clean(filepath.ToSlash(rel))
	return rel == ".." || strings.HasPrefix(rel, "../")
}

// within reports whether child is strictly below parent.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." {
		return false
	}
	return !escapes(rel)
}

package sitedata

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// Extensions lists the data file extensions in lookup priority order.
var Extensions = []string{".yaml", ".yml", ".json"}

// IsDataFile reports whether name has a supported data extension.
func IsDataFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadFile decodes a single YAML or JSON data file.
func LoadFile(path string) (any, error) {
	// #nosec G304 -- path comes from a walk of the configured data directory
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemError("read", path, err)
	}
	var v any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &v)
	default:
		err = yaml.Unmarshal(raw, &v)
	}
	if err != nil {
		return nil, errors.ParseFailed(path, err)
	}
	return v, nil
}

// LoadDir loads every data file below dir into a nested map keyed by path
// segments: `nav/main.yaml` becomes data["nav"]["main"]. A missing directory
// yields an empty map.
func LoadDir(dir string) (map[string]any, error) {
	out := map[string]any{}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return out, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsDataFile(d.Name()) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.FileSystemError("walk", dir, err)
	}
	sort.Strings(files)

	for _, p := range files {
		v, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		rel, _ := filepath.Rel(dir, p)
		rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		if err := insert(out, strings.Split(rel, "/"), v); err != nil {
			return nil, errors.ParseFailed(p, err)
		}
	}
	return out, nil
}

func insert(m map[string]any, keys []string, v any) error {
	key := keys[0]
	if len(keys) == 1 {
		if existing, ok := m[key].(map[string]any); ok {
			incoming, ok := v.(map[string]any)
			if !ok {
				return fmt.Errorf("data key %q is both a directory and a non-map value", key)
			}
			m[key] = Merge(existing, incoming)
			return nil
		}
		m[key] = v
		return nil
	}
	child, ok := m[key].(map[string]any)
	if !ok {
		if _, exists := m[key]; exists {
			return fmt.Errorf("data key %q is both a file and a directory", key)
		}
		child = map[string]any{}
		m[key] = child
	}
	return insert(child, keys[1:], v)
}

// Merge returns a new map with override layered over base. Nested maps merge
// recursively; every other value in override replaces the base value.
func Merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if bm, ok := out[k].(map[string]any); ok {
			if om, ok := v.(map[string]any); ok {
				out[k] = Merge(bm, om)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// SiblingFile returns the `<stem>.data.<ext>` file next to a template, or ""
// when none exists.
func SiblingFile(templatePath string) string {
	stem := strings.TrimSuffix(templatePath, filepath.Ext(templatePath))
	for _, ext := range Extensions {
		p := stem + ".data" + ext
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// LoadSibling loads the sibling data file of a template. Templates without
// one, or whose data is not a map, yield nil.
func LoadSibling(templatePath string) (map[string]any, error) {
	p := SiblingFile(templatePath)
	if p == "" {
		return nil, nil
	}
	v, err := LoadFile(p)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok && v != nil {
		return nil, errors.ParseFailed(p, fmt.Errorf("template data must be a mapping"))
	}
	return m, nil
}

// Package frontmatter separates a `---` delimited YAML header from a template body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrUnterminated indicates the document opened a front matter block but never closed it.
var ErrUnterminated = errors.New("front matter opened with --- but never closed")

var bom = []byte("\xef\xbb\xbf")

// Document is a template source split into its header fields and body.
type Document struct {
	Fields map[string]any
	Body   []byte
	// BodyLine is the 1-based line of the source the body starts on.
	BodyLine int
}

// Has reports whether the header declared key.
func (d Document) Has(key string) bool {
	_, ok := d.Fields[key]
	return ok
}

// String returns a header field as a string, or "" when absent or not a string.
func (d Document) String(key string) string {
	s, _ := d.Fields[key].(string)
	return s
}

// Parse splits content and decodes the YAML header. A document without a
// header yields empty Fields and the full content as Body.
func Parse(content []byte) (Document, error) {
	header, body, line, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	fields, err := ParseYAML(header)
	if err != nil {
		return Document{}, err
	}
	return Document{Fields: fields, Body: body, BodyLine: line}, nil
}

// Split returns the raw header (without delimiters), the body and the line the
// body starts on. The opening delimiter must be the first line; the closing one
// is the next line consisting only of `---` (trailing spaces allowed).
func Split(content []byte) (header, body []byte, bodyLine int, err error) {
	content = bytes.TrimPrefix(content, bom)

	first, rest, _ := cutLine(content)
	if !isDelimiter(first) {
		return nil, content, 1, nil
	}

	start := len(content) - len(rest)
	line := 2
	for cur := rest; ; line++ {
		l, next, more := cutLine(cur)
		if isDelimiter(l) {
			end := len(content) - len(cur)
			return content[start:end], next, line + 1, nil
		}
		if !more {
			return nil, nil, 0, ErrUnterminated
		}
		cur = next
	}
}

// ParseYAML decodes a raw header into a map. Empty input yields an empty map.
func ParseYAML(header []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(header)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// cutLine splits off the first line (without its terminator). more reports
// whether a line terminator was found.
func cutLine(b []byte) (line, rest []byte, more bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	return bytes.TrimSuffix(b[:i], []byte("\r")), b[i+1:], true
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == "---"
}

package css

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"
)

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// SourceMap is a revision 3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// JSON encodes the map.
func (m *SourceMap) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// Comment returns the trailing comment that links a style sheet to its map.
func Comment(mapURL string) string {
	return "\n/*# sourceMappingURL=" + mapURL + " */\n"
}

type segment struct {
	genLine, genCol int
	src             int
	srcLine         int
}

// Bundle concatenates processed chunks and records where each one came from.
// Every generated line start is mapped to the start of the corresponding
// source line, clamped to the source length, so minified chunks map to their
// first line.
type Bundle struct {
	file     string
	out      bytes.Buffer
	sources  []string
	contents []string
	segments []segment
	line     int
	col      int
}

// NewBundle starts a bundle for the generated file name.
func NewBundle(file string) *Bundle {
	return &Bundle{file: file}
}

// Add appends generated, produced from original read from source.
func (b *Bundle) Add(source, original string, generated []byte) {
	idx := len(b.sources)
	b.sources = append(b.sources, source)
	b.contents = append(b.contents, original)

	srcLines := strings.Count(original, "\n")
	b.segments = append(b.segments, segment{genLine: b.line, genCol: b.col, src: idx})
	for i, l := 0, 0; i < len(generated); i++ {
		if generated[i] != '\n' {
			b.col++
			continue
		}
		b.line++
		b.col = 0
		l++
		if i+1 < len(generated) {
			b.segments = append(b.segments, segment{genLine: b.line, src: idx, srcLine: min(l, srcLines)})
		}
	}
	b.out.Write(generated)
}

// Bytes returns the concatenated output.
func (b *Bundle) Bytes() []byte { return b.out.Bytes() }

// Map returns the source map of everything added so far. Sources are made
// relative to the directory of the generated file when rel is non-empty.
func (b *Bundle) Map(rel func(source string) string) *SourceMap {
	sources := make([]string, len(b.sources))
	for i, s := range b.sources {
		if rel != nil {
			s = rel(s)
		}
		sources[i] = path.Clean(s)
	}
	return &SourceMap{
		Version:        3,
		File:           b.file,
		Sources:        sources,
		SourcesContent: append([]string(nil), b.contents...),
		Names:          []string{},
		Mappings:       encodeMappings(b.segments),
	}
}

func encodeMappings(segs []segment) string {
	var sb strings.Builder
	line, prevCol, prevSrc, prevSrcLine := 0, 0, 0, 0
	first := true
	for _, s := range segs {
		for line < s.genLine {
			sb.WriteByte(';')
			line++
			prevCol = 0
			first = true
		}
		if !first {
			sb.WriteByte(',')
		}
		first = false
		writeVLQ(&sb, s.genCol-prevCol)
		writeVLQ(&sb, s.src-prevSrc)
		writeVLQ(&sb, s.srcLine-prevSrcLine)
		writeVLQ(&sb, 0)
		prevCol, prevSrc, prevSrcLine = s.genCol, s.src, s.srcLine
	}
	return sb.String()
}

// writeVLQ appends the base64 VLQ encoding of v.
func writeVLQ(sb *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		sb.WriteByte(base64Digits[digit])
		if u == 0 {
			return
		}
	}
}

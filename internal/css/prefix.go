package css

import (
	"bytes"
	"strings"
)

// propertyPrefixes lists properties that still need vendor prefixed copies
// for the browsers the generated sites target.
var propertyPrefixes = map[string][]string{
	"appearance":           {"webkit", "moz"},
	"backdrop-filter":      {"webkit"},
	"box-decoration-break": {"webkit"},
	"clip-path":            {"webkit"},
	"hyphens":              {"webkit", "ms"},
	"mask":                 {"webkit"},
	"mask-clip":            {"webkit"},
	"mask-composite":       {"webkit"},
	"mask-image":           {"webkit"},
	"mask-origin":          {"webkit"},
	"mask-position":        {"webkit"},
	"mask-repeat":          {"webkit"},
	"mask-size":            {"webkit"},
	"print-color-adjust":   {"webkit"},
	"tab-size":             {"moz"},
	"text-size-adjust":     {"webkit", "moz", "ms"},
	"user-select":          {"webkit", "moz", "ms"},
}

// Prefixer inserts vendor prefixed declarations in front of unprefixed ones.
// The input is otherwise reproduced byte for byte.
type Prefixer struct {
	prefixes map[string]bool
}

// NewPrefixer returns a Prefixer emitting only the given prefixes
// ("webkit", "moz", "ms").
func NewPrefixer(prefixes []string) *Prefixer {
	p := &Prefixer{prefixes: make(map[string]bool, len(prefixes))}
	for _, v := range prefixes {
		p.prefixes[strings.ToLower(strings.Trim(v, "-"))] = true
	}
	return p
}

// Prefix returns src with prefixed declarations added.
func (p *Prefixer) Prefix(src []byte) ([]byte, error) {
	if len(p.prefixes) == 0 {
		return src, nil
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	bp := &blockParser{toks: toks}
	stmts, _ := bp.parseBlock(true)

	var out bytes.Buffer
	out.Grow(len(src) + len(src)/8)
	p.emit(&out, stmts)
	return out.Bytes(), nil
}

func (p *Prefixer) emit(w *bytes.Buffer, stmts []*statement) {
	declared := map[string]bool{}
	stickyFallback := false
	for _, s := range stmts {
		if name, _, value, ok := s.declaration(); ok {
			declared[name] = true
			if name == "position" && value == "-webkit-sticky" {
				stickyFallback = true
			}
		}
	}

	for _, s := range stmts {
		if s.block {
			writeTokens(w, s.prelude)
			w.WriteByte('{')
			p.emit(w, s.children)
			if s.closed {
				w.WriteByte('}')
			}
			continue
		}
		if name, at, value, ok := s.declaration(); ok {
			lead, rest := s.prelude[:at], trimTrailingSpace(s.prelude[at+1:])
			for _, vendor := range propertyPrefixes[name] {
				if !p.prefixes[vendor] || declared["-"+vendor+"-"+name] {
					continue
				}
				writeTokens(w, lead)
				w.WriteString("-" + vendor + "-")
				w.Write(s.prelude[at].data)
				writeTokens(w, rest)
				w.WriteByte(';')
			}
			if name == "position" && strings.HasPrefix(value, "sticky") && p.prefixes["webkit"] && !stickyFallback {
				writeTokens(w, lead)
				w.Write(s.prelude[at].data)
				w.WriteString(":-webkit-" + value + ";")
			}
		}
		writeTokens(w, s.prelude)
		if s.semi {
			w.WriteByte(';')
		}
	}
}

package site

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
)

// Slugify lower-cases s, folds accented letters to their base letter and
// joins the remaining letter and digit runs with hyphens.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
			continue
		}
		hyphen = true
	}
	return b.String()
}

// Plainify strips markup from s and collapses whitespace runs. Script and
// style content is dropped; entities are decoded.
func Plainify(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var buf bytes.Buffer
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(buf.String()), " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawElement(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawElement(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				buf.Write(z.Text())
			}
		}
	}
}

func isRawElement(name string) bool { return name == "script" || name == "style" }

// funcMap returns the template functions. prefix is the configured path prefix.
func funcMap(prefix string) template.FuncMap {
	return template.FuncMap{
		"slugify": Slugify,
		"url": func(p string) string {
			return prefixURL(prefix, p)
		},
		"markdownify": func(s string) (template.HTML, error) {
			out, err := markdown.RenderInline([]byte(s))
			if err != nil {
				return "", err
			}
			// #nosec G203 -- markdown source is authored site content
			return template.HTML(out), nil
		},
		"jsonify": func(v any) (template.JS, error) {
			raw, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			// #nosec G203 -- json.Marshal escapes <, > and & for script contexts
			return template.JS(raw), nil
		},
		"plainify": func(v any) string {
			return Plainify(fmt.Sprint(v))
		},
		"dateFormat": func(layout string, t time.Time) string {
			return t.Format(layout)
		},
	}
}

// prefixURL prepends the path prefix to site-absolute paths. Relative paths
// and URLs with a scheme are returned unchanged.
func prefixURL(prefix, p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return p
	}
	if u, err := url.Parse(p); err == nil && u.Scheme != "" {
		return p
	}
	if prefix == "" || prefix == "/" {
		return p
	}
	joined := path.Join("/", prefix, p)
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}

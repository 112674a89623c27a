package css

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type token struct {
	tt   css.TokenType
	data []byte
}

func (t token) significant() bool {
	return t.tt != css.WhitespaceToken && t.tt != css.CommentToken
}

// lex returns the full token stream of src. Concatenating every token's data
// reproduces src.
func lex(src []byte) ([]token, error) {
	buf := make([]byte, len(src))
	copy(buf, src)

	l := css.NewLexer(parse.NewInputBytes(buf))
	var toks []token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("css lexer: %w", err)
			}
			return toks, nil
		}
		toks = append(toks, token{tt: tt, data: append([]byte(nil), data...)})
	}
}

// statement is one entry of a block: a declaration or at-rule terminated by
// `;`, a rule or at-rule owning a `{}` block, or trailing tokens before `}`.
type statement struct {
	prelude  []token
	semi     bool
	block    bool
	closed   bool
	children []*statement
}

type blockParser struct {
	toks []token
	pos  int
}

// parseBlock reads statements until the closing brace of the current block,
// or the end of input when top is set. Unclosed blocks end at EOF.
func (p *blockParser) parseBlock(top bool) (stmts []*statement, closed bool) {
	cur := &statement{}
	depth := 0
	flush := func() {
		if len(cur.prelude) > 0 {
			stmts = append(stmts, cur)
		}
		cur = &statement{}
	}
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		p.pos++
		switch t.tt {
		case css.LeftParenthesisToken, css.FunctionToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.SemicolonToken:
			if depth == 0 {
				cur.semi = true
				stmts = append(stmts, cur)
				cur = &statement{}
				continue
			}
		case css.LeftBraceToken:
			if depth == 0 {
				cur.block = true
				cur.children, cur.closed = p.parseBlock(false)
				stmts = append(stmts, cur)
				cur = &statement{}
				continue
			}
		case css.RightBraceToken:
			if depth == 0 && !top {
				flush()
				return stmts, true
			}
		}
		cur.prelude = append(cur.prelude, t)
	}
	flush()
	return stmts, false
}

// declaration reports the property name (lower case), the index of the name
// token and the trimmed value when s is a `name: value` declaration.
func (s *statement) declaration() (name string, at int, value string, ok bool) {
	if s.block {
		return "", 0, "", false
	}
	at = -1
	for i, t := range s.prelude {
		if t.significant() {
			at = i
			break
		}
	}
	if at < 0 || s.prelude[at].tt != css.IdentToken {
		return "", 0, "", false
	}
	colon := -1
	for i := at + 1; i < len(s.prelude); i++ {
		if s.prelude[i].tt == css.WhitespaceToken {
			continue
		}
		if s.prelude[i].tt == css.ColonToken {
			colon = i
		}
		break
	}
	if colon < 0 {
		return "", 0, "", false
	}
	var v bytes.Buffer
	for _, t := range s.prelude[colon+1:] {
		v.Write(t.data)
	}
	return string(bytes.ToLower(s.prelude[at].data)), at, string(bytes.ToLower(bytes.TrimSpace(v.Bytes()))), true
}

func writeTokens(w *bytes.Buffer, toks []token) {
	for _, t := range toks {
		w.Write(t.data)
	}
}

func trimTrailingSpace(toks []token) []token {
	for len(toks) > 0 && toks[len(toks)-1].tt == css.WhitespaceToken {
		toks = toks[:len(toks)-1]
	}
	return toks
}

package schema

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokPunct
	tokString
	tokNumber
	tokIdent
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return strconv.Quote(t.text)
	default:
		return t.text
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case strings.HasPrefix(l.src[l.pos:], "//"):
			end := strings.IndexByte(l.src[l.pos:], '\n')
			if end < 0 {
				l.pos = len(l.src)
			} else {
				l.pos += end + 1
			}
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				l.pos = len(l.src)
			} else {
				l.pos += end + 4
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]
	switch {
	case strings.ContainsRune("{}[](),:.", rune(c)):
		l.pos++
		return token{kind: tokPunct, text: string(c), pos: start}, nil
	case c == '\'' || c == '"':
		s, err := l.readQuoted(c)
		return token{kind: tokString, text: s, pos: start}, err
	case c == '`':
		s, err := l.readTemplate()
		return token{kind: tokString, text: s, pos: start}, err
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return l.readNumber()
	default:
		r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
		if isIdentStart(r) {
			return l.readIdent(), nil
		}
		return token{}, fmt.Errorf("unexpected character %q at offset %d", r, start)
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func (l *lexer) readIdent() token {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	return token{kind: tokIdent, text: l.src[start:l.pos], pos: start}
}

func (l *lexer) readNumber() (token, error) {
	start := l.pos
	if c := l.src[l.pos]; c == '-' || c == '+' {
		l.pos++
	}
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '_' ||
			((c == '-' || c == '+') && (l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E')) {
			l.pos++
			continue
		}
		break
	}
	text := strings.ReplaceAll(l.src[start:l.pos], "_", "")
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, fmt.Errorf("invalid number %q at offset %d", text, start)
	}
	return token{kind: tokNumber, text: text, num: n, pos: start}, nil
}

func (l *lexer) readQuoted(quote byte) (string, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case quote:
			l.pos++
			return b.String(), nil
		case '\\':
			if err := l.readEscape(&b); err != nil {
				return "", err
			}
		case '\n':
			return "", fmt.Errorf("unterminated string at offset %d", start)
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return "", fmt.Errorf("unterminated string at offset %d", start)
}

// readTemplate accepts template literals without substitutions.
func (l *lexer) readTemplate() (string, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '`':
			l.pos++
			return b.String(), nil
		case c == '\\':
			if err := l.readEscape(&b); err != nil {
				return "", err
			}
		case c == '$' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '{':
			return "", fmt.Errorf("template substitution at offset %d is not supported", l.pos)
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return "", fmt.Errorf("unterminated template literal at offset %d", start)
}

// readEscape consumes a backslash escape at l.pos.
func (l *lexer) readEscape(b *strings.Builder) error {
	if l.pos+1 >= len(l.src) {
		return fmt.Errorf("dangling escape at offset %d", l.pos)
	}
	c := l.src[l.pos+1]
	l.pos += 2
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case '\n':
		// line continuation
	case 'u':
		if l.pos+4 > len(l.src) {
			return fmt.Errorf("short unicode escape at offset %d", l.pos)
		}
		v, err := strconv.ParseUint(l.src[l.pos:l.pos+4], 16, 32)
		if err != nil {
			return fmt.Errorf("invalid unicode escape at offset %d", l.pos)
		}
		b.WriteRune(rune(v))
		l.pos += 4
	default:
		b.WriteByte(c)
	}
	return nil
}

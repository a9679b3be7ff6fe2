package schema

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultToken is the declaration that introduces the schema object.
const DefaultToken = "export const schema"

var (
	// ErrNoSchema is returned when a file has no schema declaration.
	ErrNoSchema = errors.New("no schema declaration")
	// ErrUnbalanced is returned when the schema object literal never closes.
	ErrUnbalanced = errors.New("unbalanced braces in schema object")
)

type scanState int

const (
	stateCode scanState = iota
	stateString
	stateTemplate
	stateLineComment
	stateBlockComment
)

// ExtractObjectLiteral returns the object literal assigned by the first
// occurrence of token in src, braces included.
func ExtractObjectLiteral(src, token string) (string, error) {
	idx := strings.Index(src, token)
	if idx < 0 {
		return "", ErrNoSchema
	}

	start := idx + len(token)
	for start < len(src) {
		c := src[start]
		if c == '{' {
			break
		}
		if c == '=' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			start++
			continue
		}
		return "", fmt.Errorf("%w: expected object literal after %q, found %q", ErrNoSchema, token, c)
	}
	if start >= len(src) {
		return "", ErrNoSchema
	}

	end, err := matchBrace(src, start)
	if err != nil {
		return "", err
	}
	return src[start : end+1], nil
}

// matchBrace returns the index of the brace closing the one at open.
func matchBrace(src string, open int) (int, error) {
	var (
		state scanState
		quote byte
		depth int
		// depths at which a template literal ${...} expression was entered
		templates []int
	)

	for i := open; i < len(src); i++ {
		c := src[i]
		var next byte
		if i+1 < len(src) {
			next = src[i+1]
		}

		switch state {
		case stateCode:
			switch c {
			case '\'', '"':
				quote = c
				state = stateString
			case '`':
				state = stateTemplate
			case '/':
				if next == '/' {
					state = stateLineComment
					i++
				} else if next == '*' {
					state = stateBlockComment
					i++
				}
			case '{':
				depth++
			case '}':
				if n := len(templates); n > 0 && templates[n-1] == depth {
					templates = templates[:n-1]
					state = stateTemplate
					continue
				}
				depth--
				if depth == 0 {
					return i, nil
				}
			}
		case stateString:
			if c == '\\' {
				i++
			} else if c == quote {
				state = stateCode
			}
		case stateTemplate:
			if c == '\\' {
				i++
			} else if c == '`' {
				state = stateCode
			} else if c == '$' && next == '{' {
				templates = append(templates, depth)
				state = stateCode
				i++
			}
		case stateLineComment:
			if c == '\n' {
				state = stateCode
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateCode
				i++
			}
		}
	}
	return 0, ErrUnbalanced
}

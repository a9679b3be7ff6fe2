package schema

import (
	"fmt"
	"strings"
)

// Evaluate parses a restricted expression: object and array literals, string,
// number, boolean, null and undefined primitives, and calls to constructors in
// registry. Identifiers outside the registry are rejected.
func Evaluate(src string, registry Registry) (any, error) {
	p := &parser{lex: &lexer{src: src}, registry: registry}
	if err := p.advance(); err != nil {
		return nil, err
	}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s at offset %d", p.tok, p.tok.pos)
	}
	return v, nil
}

type parser struct {
	lex      *lexer
	tok      token
	registry Registry
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) isPunct(s string) bool {
	return p.tok.kind == tokPunct && p.tok.text == s
}

func (p *parser) expect(s string) error {
	if !p.isPunct(s) {
		return fmt.Errorf("expected %q, found %s at offset %d", s, p.tok, p.tok.pos)
	}
	return p.advance()
}

func (p *parser) parseValue() (any, error) {
	switch p.tok.kind {
	case tokString:
		s := p.tok.text
		return s, p.advance()
	case tokNumber:
		n := p.tok.num
		return n, p.advance()
	case tokIdent:
		return p.parseIdentExpr()
	case tokPunct:
		switch p.tok.text {
		case "{":
			return p.parseObject()
		case "[":
			return p.parseArray()
		}
	}
	return nil, fmt.Errorf("unexpected %s at offset %d", p.tok, p.tok.pos)
}

func (p *parser) parseObject() (any, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	obj := make(map[string]any)
	for !p.isPunct("}") {
		var key string
		switch p.tok.kind {
		case tokIdent, tokString, tokNumber:
			key = p.tok.text
		default:
			return nil, fmt.Errorf("invalid object key %s at offset %d", p.tok, p.tok.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
		obj[key] = v

		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if !p.isPunct("}") {
			return nil, fmt.Errorf("expected \",\" or \"}\", found %s at offset %d", p.tok, p.tok.pos)
		}
	}
	return obj, p.advance()
}

func (p *parser) parseArray() (any, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	arr := make([]any, 0)
	for !p.isPunct("]") {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)

		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if !p.isPunct("]") {
			return nil, fmt.Errorf("expected \",\" or \"]\", found %s at offset %d", p.tok, p.tok.pos)
		}
	}
	return arr, p.advance()
}

// parseIdentExpr handles keywords and whitelisted constructor calls such as
// widgets.Input({...}) or Input({...}).
func (p *parser) parseIdentExpr() (any, error) {
	pos := p.tok.pos
	parts := []string{p.tok.text}
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.isPunct(".") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokIdent {
			return nil, fmt.Errorf("expected identifier after \".\", found %s at offset %d", p.tok, p.tok.pos)
		}
		parts = append(parts, p.tok.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	name := strings.Join(parts, ".")
	if !p.isPunct("(") {
		if len(parts) == 1 {
			switch name {
			case "true":
				return true, nil
			case "false":
				return false, nil
			case "null", "undefined":
				return nil, nil
			}
		}
		return nil, fmt.Errorf("unsupported identifier %q at offset %d", name, pos)
	}

	ctor, ok := p.registry.Lookup(parts)
	if !ok {
		return nil, fmt.Errorf("call to unknown constructor %q at offset %d", name, pos)
	}

	if err := p.advance(); err != nil {
		return nil, err
	}
	var args []any
	for !p.isPunct(")") {
		v, err := p.parseValue()
		if err != nil {
			return nil, fmt.Errorf("%s argument: %w", name, err)
		}
		args = append(args, v)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if !p.isPunct(")") {
			return nil, fmt.Errorf("expected \",\" or \")\", found %s at offset %d", p.tok, p.tok.pos)
		}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	v, err := ctor(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

package formula

import (
	"strings"
)

// Parse parses a formula string into an AST.
func Parse(input string) (Node, error) {
	p := &parser{lexer: NewLexer(input)}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokEOF {
		return nil, newSyntaxError(tok.Pos, "unexpected %s, expected end of formula", tok.Kind)
	}
	return node, nil
}

type parser struct {
	lexer *Lexer
}

// parseExpr: operand [ compareOp operand ]
func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	op, ok := comparisons[tok.Kind]
	if !ok {
		return left, nil
	}
	p.advance()
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &Compare{Op: op, Left: left, Right: right}, nil
}

// parseOperand: field | param | string | number | ident "(" [ expr { sep expr } ] ")"
func (p *parser) parseOperand() (Node, error) {
	tok, err := p.advance()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case TokField:
		return parseFieldRef(tok)
	case TokParam:
		return &ParamRef{Name: tok.Lit}, nil
	case TokString:
		return &Literal{Kind: LitString, Value: tok.Lit}, nil
	case TokNumber:
		return &Literal{Kind: LitNumber, Value: tok.Lit}, nil
	case TokIdent:
		return p.parseCall(tok)
	}
	return nil, newSyntaxError(tok.Pos, "unexpected %s", tok.Kind)
}

func (p *parser) parseCall(name Token) (Node, error) {
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	call := &Call{Name: strings.ToUpper(name.Lit)}

	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokRParen {
		p.advance()
		return call, nil
	}

	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		tok, err := p.advance()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case TokSep:
			continue
		case TokRParen:
			return call, nil
		}
		return nil, newSyntaxError(tok.Pos, "unexpected %s in arguments of %s", tok.Kind, call.Name)
	}
}

func parseFieldRef(tok Token) (Node, error) {
	parts := strings.Split(tok.Lit, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, newSyntaxError(tok.Pos, "field reference %q must be [category.column] or [category.column.AGGREGATION]", tok.Lit)
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil, newSyntaxError(tok.Pos, "empty segment in field reference %q", tok.Lit)
		}
	}
	ref := &FieldRef{Category: parts[0], Column: parts[1]}
	if len(parts) == 3 {
		ref.Agg = strings.ToUpper(parts[2])
	}
	return ref, nil
}

// --- Token helpers ---

func (p *parser) peek() (Token, error) {
	return p.lexer.Peek()
}

func (p *parser) advance() (Token, error) {
	return p.lexer.Next()
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok, err := p.advance()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != kind {
		return Token{}, newSyntaxError(tok.Pos, "expected %s, got %s", kind, tok.Kind)
	}
	return tok, nil
}

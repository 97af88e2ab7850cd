package formula

import (
	"strings"
	"unicode"
)

const paramPrefix = "param:"

// Lexer tokenizes a formula string.
type Lexer struct {
	input  []rune
	pos    int
	peeked *Token
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: []rune(input)}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	tok, err := l.next()
	if err != nil {
		return Token{}, err
	}
	l.peeked = &tok
	return tok, nil
}

// Next consumes and returns the next token.
func (l *Lexer) Next() (Token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.next()
}

func (l *Lexer) next() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Pos: l.pos}, nil
	}

	ch := l.input[l.pos]
	pos := l.pos

	switch ch {
	case '(':
		l.pos++
		return Token{Kind: TokLParen, Lit: "(", Pos: pos}, nil
	case ')':
		l.pos++
		return Token{Kind: TokRParen, Lit: ")", Pos: pos}, nil
	case ';', ',':
		l.pos++
		return Token{Kind: TokSep, Lit: string(ch), Pos: pos}, nil
	case '=':
		l.pos++
		return Token{Kind: TokEq, Lit: "=", Pos: pos}, nil
	case '>':
		if l.peekRune(1) == '=' {
			l.pos += 2
			return Token{Kind: TokGte, Lit: ">=", Pos: pos}, nil
		}
		l.pos++
		return Token{Kind: TokGt, Lit: ">", Pos: pos}, nil
	case '<':
		switch l.peekRune(1) {
		case '=':
			l.pos += 2
			return Token{Kind: TokLte, Lit: "<=", Pos: pos}, nil
		case '>':
			l.pos += 2
			return Token{Kind: TokNeq, Lit: "<>", Pos: pos}, nil
		}
		l.pos++
		return Token{Kind: TokLt, Lit: "<", Pos: pos}, nil
	case '[':
		return l.readBracket(pos)
	case '"':
		return l.readString(pos)
	case '-':
		if unicode.IsDigit(l.peekRune(1)) {
			return l.readNumber(pos)
		}
		return Token{}, l.errorf(pos, "unexpected '-'")
	default:
		if unicode.IsDigit(ch) {
			return l.readNumber(pos)
		}
		if isIdentStart(ch) {
			return l.readIdent(pos)
		}
		return Token{}, l.errorf(pos, "unexpected character %q", ch)
	}
}

func (l *Lexer) readBracket(pos int) (Token, error) {
	l.pos++ // skip [
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != ']' {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{}, l.errorf(pos, "unterminated reference")
	}
	lit := string(l.input[start:l.pos])
	l.pos++ // skip ]
	if name, ok := strings.CutPrefix(lit, paramPrefix); ok {
		if name == "" {
			return Token{}, l.errorf(pos, "empty parameter name")
		}
		return Token{Kind: TokParam, Lit: name, Pos: pos}, nil
	}
	return Token{Kind: TokField, Lit: lit, Pos: pos}, nil
}

// readString reads a double-quoted literal. A doubled quote inside the
// literal stands for one quote character.
func (l *Lexer) readString(pos int) (Token, error) {
	l.pos++ // skip opening "
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '"' {
			if l.peekRune(1) == '"' {
				b.WriteRune('"')
				l.pos += 2
				continue
			}
			l.pos++
			return Token{Kind: TokString, Lit: b.String(), Pos: pos}, nil
		}
		b.WriteRune(ch)
		l.pos++
	}
	return Token{}, l.errorf(pos, "unterminated string literal")
}

func (l *Lexer) readNumber(pos int) (Token, error) {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.input) && unicode.IsDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' && unicode.IsDigit(l.peekRune(1)) {
		l.pos++ // consume .
		for l.pos < len(l.input) && unicode.IsDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	return Token{Kind: TokNumber, Lit: string(l.input[start:l.pos]), Pos: pos}, nil
}

func (l *Lexer) readIdent(pos int) (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && isIdentCont(l.input[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokIdent, Lit: string(l.input[start:l.pos]), Pos: pos}, nil
}

func (l *Lexer) peekRune(offset int) rune {
	if l.pos+offset < len(l.input) {
		return l.input[l.pos+offset]
	}
	return 0
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) errorf(pos int, format string, args ...any) error {
	return newSyntaxError(pos, format, args...)
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentCont(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

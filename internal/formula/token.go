package formula

import "fmt"

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokEOF    TokenKind = iota
	TokLParen           // (
	TokRParen           // )
	TokSep              // ; or ,
	TokEq               // =
	TokNeq              // <>
	TokGt               // >
	TokGte              // >=
	TokLt               // <
	TokLte              // <=
	TokField            // [cat.col] or [cat.col.AGG]
	TokParam            // [param:name]
	TokIdent            // function name
	TokString           // "string literal"
	TokNumber           // 42, -3.14
)

// Token is a single lexical token produced by the lexer.
type Token struct {
	Kind TokenKind
	Lit  string // decoded text: bracket contents, unquoted string, etc.
	Pos  int    // byte offset in input
}

func (t Token) String() string {
	if t.Lit != "" {
		return fmt.Sprintf("%s(%q)", t.Kind, t.Lit)
	}
	return t.Kind.String()
}

var kindNames = map[TokenKind]string{
	TokEOF:    "EOF",
	TokLParen: "(",
	TokRParen: ")",
	TokSep:    "separator",
	TokEq:     "=",
	TokNeq:    "<>",
	TokGt:     ">",
	TokGte:    ">=",
	TokLt:     "<",
	TokLte:    "<=",
	TokField:  "field reference",
	TokParam:  "parameter reference",
	TokIdent:  "identifier",
	TokString: "string",
	TokNumber: "number",
}

func (k TokenKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// comparisons maps comparison tokens to their operator text.
var comparisons = map[TokenKind]string{
	TokEq:  "=",
	TokNeq: "<>",
	TokGt:  ">",
	TokGte: ">=",
	TokLt:  "<",
	TokLte: "<=",
}

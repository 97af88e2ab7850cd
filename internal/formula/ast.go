package formula

import "fmt"

// Node is the interface all AST nodes implement.
type Node interface {
	node() // marker method
}

// FieldRef is a column reference: [Category.Column] or [Category.Column.Agg].
type FieldRef struct {
	Category string
	Column   string
	Agg      string // aggregation name, "" when unqualified
}

// ParamRef is a parameter reference: [param:Name].
type ParamRef struct {
	Name string
}

// LiteralKind distinguishes string from numeric literals.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
)

// Literal is a string or number constant.
type Literal struct {
	Kind  LiteralKind
	Value string
}

// Compare is a binary comparison: Left Op Right.
type Compare struct {
	Op    string // "=", "<>", ">", ">=", "<", "<="
	Left  Node
	Right Node
}

// Call is a function application. Name is upper-cased.
type Call struct {
	Name string
	Args []Node
}

func (*FieldRef) node() {}
func (*ParamRef) node() {}
func (*Literal) node()  {}
func (*Compare) node()  {}
func (*Call) node()     {}

// SyntaxError reports malformed formula text.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula error at position %d: %s", e.Pos, e.Msg)
}

func newSyntaxError(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Walk visits n and its children depth-first, stopping early when fn
// returns false.
func Walk(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	switch n := n.(type) {
	case *Compare:
		return Walk(n.Left, fn) && Walk(n.Right, fn)
	case *Call:
		for _, a := range n.Args {
			if !Walk(a, fn) {
				return false
			}
		}
	}
	return true
}

// FieldRefs collects every field reference in n, in order of appearance.
func FieldRefs(n Node) []*FieldRef {
	var refs []*FieldRef
	Walk(n, func(n Node) bool {
		if f, ok := n.(*FieldRef); ok {
			refs = append(refs, f)
		}
		return true
	})
	return refs
}

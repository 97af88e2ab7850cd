package formula

import "fmt"

// ResolveFunc returns the values bound to a parameter name.
type ResolveFunc func(name string) ([]string, bool)

// UnboundParamError reports a parameter reference with no usable value.
type UnboundParamError struct {
	Name   string
	Reason string
}

func (e *UnboundParamError) Error() string {
	return fmt.Sprintf("parameter %q %s", e.Name, e.Reason)
}

// Substitute returns a copy of n with every parameter reference replaced by
// string literals. A multi-valued parameter compared with = becomes IN, and
// with <> becomes NOT(IN); inside a function call its values are spread as
// separate arguments.
func Substitute(n Node, resolve ResolveFunc) (Node, error) {
	return expandOne(n, resolve)
}

func expandOne(n Node, resolve ResolveFunc) (Node, error) {
	nodes, err := expand(n, resolve)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		if p, ok := n.(*ParamRef); ok {
			return nil, &UnboundParamError{Name: p.Name, Reason: "has several values where one is required"}
		}
		return nil, fmt.Errorf("expression expands to %d values", len(nodes))
	}
	return nodes[0], nil
}

func expand(n Node, resolve ResolveFunc) ([]Node, error) {
	switch n := n.(type) {
	case *ParamRef:
		values, ok := resolve(n.Name)
		if !ok {
			return nil, &UnboundParamError{Name: n.Name, Reason: "is not defined"}
		}
		if len(values) == 0 {
			return nil, &UnboundParamError{Name: n.Name, Reason: "has no value"}
		}
		out := make([]Node, len(values))
		for i, v := range values {
			out[i] = &Literal{Kind: LitString, Value: v}
		}
		return out, nil

	case *Call:
		if n.Name == "DATEVALUE" && len(n.Args) == 1 {
			args, err := expand(n.Args[0], resolve)
			if err != nil {
				return nil, err
			}
			out := make([]Node, len(args))
			for i, a := range args {
				out[i] = &Call{Name: n.Name, Args: []Node{a}}
			}
			return out, nil
		}
		c := &Call{Name: n.Name}
		for _, a := range n.Args {
			args, err := expand(a, resolve)
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, args...)
		}
		return []Node{c}, nil

	case *Compare:
		left, err := expandOne(n.Left, resolve)
		if err != nil {
			return nil, err
		}
		right, err := expand(n.Right, resolve)
		if err != nil {
			return nil, err
		}
		if len(right) == 1 {
			return []Node{&Compare{Op: n.Op, Left: left, Right: right[0]}}, nil
		}
		in := &Call{Name: "IN", Args: append([]Node{left}, right...)}
		switch n.Op {
		case "=":
			return []Node{in}, nil
		case "<>":
			return []Node{&Call{Name: "NOT", Args: []Node{in}}}, nil
		}
		return nil, fmt.Errorf("operator %s cannot compare against %d values", n.Op, len(right))
	}
	return []Node{n}, nil
}

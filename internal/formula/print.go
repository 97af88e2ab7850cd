package formula

import (
	"strings"
)

// Print renders n in canonical form; Parse(Print(n)) yields an equal tree.
// A comparison against DATEVALUE(...) is written without the space after the
// operator, matching the form conditions are generated in.
func Print(n Node) string {
	var b strings.Builder
	write(&b, n)
	return b.String()
}

func write(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *FieldRef:
		b.WriteString("[" + n.Category + "." + n.Column)
		if n.Agg != "" {
			b.WriteString("." + n.Agg)
		}
		b.WriteString("]")
	case *ParamRef:
		b.WriteString("[" + paramPrefix + n.Name + "]")
	case *Literal:
		if n.Kind == LitNumber {
			b.WriteString(n.Value)
			return
		}
		b.WriteString(`"` + strings.ReplaceAll(n.Value, `"`, `""`) + `"`)
	case *Compare:
		write(b, n.Left)
		b.WriteString(" " + n.Op)
		if c, ok := n.Right.(*Call); !ok || c.Name != "DATEVALUE" {
			b.WriteString(" ")
		}
		write(b, n.Right)
	case *Call:
		b.WriteString(n.Name + "(")
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(";")
			}
			write(b, a)
		}
		b.WriteString(")")
	}
}

package sqlgen

import (
	"fmt"

	"github.com/atlekbai/metaquery/internal/schema"
)

type join struct {
	table *schema.PhysicalTable
	on    string
	left  bool
}

type edge struct {
	to     string
	rel    schema.Relationship
	parent string
}

// joinTree connects the needed tables with the fewest relationships from
// the first one. Tables are joined in breadth-first order; tables only on a
// path between two needed tables are included, others are not.
func joinTree(m *schema.Model, needed []string) (*schema.PhysicalTable, []join, error) {
	root := m.Table(needed[0])
	if root == nil {
		return nil, nil, fmt.Errorf("unknown table %q", needed[0])
	}

	adjacent := make(map[string][]edge)
	for _, rel := range m.Relationships {
		adjacent[rel.From] = append(adjacent[rel.From], edge{to: rel.To, rel: rel})
		adjacent[rel.To] = append(adjacent[rel.To], edge{to: rel.From, rel: rel})
	}

	via := map[string]edge{root.ID: {}}
	order := []string{root.ID}
	for i := 0; i < len(order); i++ {
		cur := order[i]
		for _, e := range adjacent[cur] {
			if _, seen := via[e.to]; seen {
				continue
			}
			e.parent = cur
			via[e.to] = e
			order = append(order, e.to)
		}
	}

	keep := map[string]bool{root.ID: true}
	for _, id := range needed[1:] {
		if _, ok := via[id]; !ok {
			return nil, nil, fmt.Errorf("no relationship path from table %q to %q", root.ID, id)
		}
		for t := id; !keep[t]; t = via[t].parent {
			keep[t] = true
		}
	}

	var joins []join
	for _, id := range order[1:] {
		if !keep[id] {
			continue
		}
		e := via[id]
		table := m.Table(id)
		if table == nil {
			return nil, nil, fmt.Errorf("unknown table %q", id)
		}
		parentCol, childCol := e.rel.FromColumn, e.rel.ToColumn
		if e.rel.From != e.parent {
			parentCol, childCol = childCol, parentCol
		}
		joins = append(joins, join{
			table: table,
			on:    column(e.parent, parentCol) + " = " + column(id, childCol),
			left:  e.rel.Join == schema.JoinLeft,
		})
	}
	return root, joins, nil
}

func column(tableID, name string) string {
	return QuoteIdent(tableID) + "." + QuoteIdent(name)
}

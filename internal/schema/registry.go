package schema

import (
	"fmt"
	"sort"
)

// Registry holds business models keyed by domain id. It is built once and
// never mutated afterwards, so reads take no lock.
type Registry struct {
	domains map[string]*Domain
	order   []string
}

// NewRegistry normalizes and validates the given domains. A domain id that
// appears twice is an error.
func NewRegistry(domains ...*Domain) (*Registry, error) {
	r := &Registry{domains: make(map[string]*Domain, len(domains))}
	for _, d := range domains {
		normalize(d)
		if err := Validate(d); err != nil {
			return nil, fmt.Errorf("domain %q: %w", d.ID, err)
		}
		if _, dup := r.domains[d.ID]; dup {
			return nil, fmt.Errorf("duplicate domain %q", d.ID)
		}
		r.domains[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	sort.Strings(r.order)
	return r, nil
}

// Get returns the model for the pair, or false when either id is empty or
// the pair is unknown.
func (r *Registry) Get(domainID, modelID string) (*Model, bool) {
	if domainID == "" || modelID == "" {
		return nil, false
	}
	d, ok := r.domains[domainID]
	if !ok {
		return nil, false
	}
	for _, m := range d.Models {
		if m.ID == modelID {
			return m, true
		}
	}
	return nil, false
}

// Domain returns a domain by id.
func (r *Registry) Domain(id string) (*Domain, bool) {
	d, ok := r.domains[id]
	return d, ok
}

// List returns summaries filtered by the non-empty ids. Unknown ids yield an
// empty slice.
func (r *Registry) List(domainID, modelID string) []ModelSummary {
	out := []ModelSummary{}
	for _, id := range r.order {
		if domainID != "" && id != domainID {
			continue
		}
		for _, m := range r.domains[id].Models {
			if modelID != "" && m.ID != modelID {
				continue
			}
			out = append(out, m.Summary())
		}
	}
	return out
}

// Domains returns the loaded domains ordered by id.
func (r *Registry) Domains() []*Domain {
	out := make([]*Domain, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.domains[id])
	}
	return out
}

// Merge builds one registry from the domains of several. A domain defined
// in two of them is an error.
func Merge(regs ...*Registry) (*Registry, error) {
	var domains []*Domain
	for _, r := range regs {
		domains = append(domains, r.Domains()...)
	}
	return NewRegistry(domains...)
}

// ModelCount returns the number of loaded models across all domains.
func (r *Registry) ModelCount() int {
	n := 0
	for _, d := range r.domains {
		n += len(d.Models)
	}
	return n
}

// normalize fills the defaults a definition file may leave out.
func normalize(d *Domain) {
	for _, m := range d.Models {
		m.DomainID = d.ID
		m.Connection = d.Connection
		for i := range m.Relationships {
			if m.Relationships[i].Join == "" {
				m.Relationships[i].Join = JoinInner
			}
		}
		for _, cat := range m.Categories.OrZero() {
			for _, col := range cat.Columns {
				normalizeColumn(col)
			}
		}
	}
}

func normalizeColumn(c *Column) {
	if c.Type == "" {
		c.Type = DataTypeUnknown
	}
	if c.FieldType == "" {
		c.FieldType = FieldDimension
	}
	if c.DefaultAggType == "" {
		c.DefaultAggType = AggNone
	}
	if len(c.AggTypes) == 0 {
		c.AggTypes = []AggregationType{c.DefaultAggType}
	}
	if c.Alignment == "" {
		if c.Type == DataTypeNumeric {
			c.Alignment = AlignRight
		} else {
			c.Alignment = AlignLeft
		}
	}
	if c.Expr == "" {
		c.Expr = c.ID
	}
}

package schema

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"
)

// Validate checks a domain for dangling references and duplicate ids. Every
// problem found is reported, not just the first.
func Validate(d *Domain) error {
	var result *multierror.Error
	if d.ID == "" {
		result = multierror.Append(result, fmt.Errorf("domain id is empty"))
	}

	models := mapset.NewThreadUnsafeSet[string]()
	for _, m := range d.Models {
		if m.ID == "" {
			result = multierror.Append(result, fmt.Errorf("model with empty id"))
			continue
		}
		if !models.Add(m.ID) {
			result = multierror.Append(result, fmt.Errorf("duplicate model %q", m.ID))
		}
		if err := validateModel(m); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func validateModel(m *Model) error {
	var result *multierror.Error

	tables := mapset.NewThreadUnsafeSet[string]()
	for _, t := range m.Tables {
		if !tables.Add(t.ID) {
			result = multierror.Append(result, fmt.Errorf("model %q: duplicate table %q", m.ID, t.ID))
		}
		if t.Name == "" {
			result = multierror.Append(result, fmt.Errorf("model %q: table %q has no name", m.ID, t.ID))
		}
	}

	for _, rel := range m.Relationships {
		for _, id := range []string{rel.From, rel.To} {
			if !tables.Contains(id) {
				result = multierror.Append(result, fmt.Errorf("model %q: relationship references unknown table %q", m.ID, id))
			}
		}
		if rel.FromColumn == "" || rel.ToColumn == "" {
			result = multierror.Append(result, fmt.Errorf("model %q: relationship %s-%s is missing a join column", m.ID, rel.From, rel.To))
		}
	}

	categories := mapset.NewThreadUnsafeSet[string]()
	for _, cat := range m.Categories.OrZero() {
		if !categories.Add(cat.ID) {
			result = multierror.Append(result, fmt.Errorf("model %q: duplicate category %q", m.ID, cat.ID))
		}
		columns := mapset.NewThreadUnsafeSet[string]()
		for _, col := range cat.Columns {
			where := fmt.Sprintf("model %q: column %s.%s", m.ID, cat.ID, col.ID)
			if !columns.Add(col.ID) {
				result = multierror.Append(result, fmt.Errorf("%s: duplicate id", where))
			}
			if !tables.Contains(col.Table) {
				result = multierror.Append(result, fmt.Errorf("%s: unknown table %q", where, col.Table))
			}
			if !col.Permits(col.DefaultAggType) {
				result = multierror.Append(result, fmt.Errorf("%s: default aggregation %s is not permitted", where, col.DefaultAggType))
			}
		}
	}
	return result.ErrorOrNil()
}

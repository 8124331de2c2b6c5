// Package sales builds the sales status summaries and cumulative rate series
// from per-unit sale records.
package sales

import "salesdash/internal/core"

// Filter selects records. A nil Filter selects everything.
type Filter func(core.UnitSaleRecord) bool

// Apply returns the records selected by f, in input order.
func (f Filter) Apply(records []core.UnitSaleRecord) []core.UnitSaleRecord {
	if f == nil {
		return records
	}
	out := make([]core.UnitSaleRecord, 0, len(records))
	for _, r := range records {
		if f(r) {
			out = append(out, r)
		}
	}
	return out
}

// ByProject selects records whose project name contains name, ignoring case.
func ByProject(name string) Filter {
	if name == "" {
		return nil
	}
	return func(r core.UnitSaleRecord) bool {
		return core.ProjectContains(r.Project, name)
	}
}

// ByProductTypes selects the listed product types. No types means no filtering.
func ByProductTypes(types ...core.ProductType) Filter {
	if len(types) == 0 {
		return nil
	}
	set := make(map[core.ProductType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(r core.UnitSaleRecord) bool {
		_, ok := set[r.ProductType]
		return ok
	}
}

// And combines filters; nil filters are skipped.
func And(filters ...Filter) Filter {
	var active []Filter
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(r core.UnitSaleRecord) bool {
		for _, f := range active {
			if !f(r) {
				return false
			}
		}
		return true
	}
}

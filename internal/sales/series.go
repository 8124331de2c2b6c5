package sales

import (
	"sort"

	"salesdash/internal/core"
)

// Point is the cumulative state of one product type at the end of a month.
type Point struct {
	ProductType          core.ProductType `json:"product_type"`
	Month                core.Month       `json:"month"`
	CumulativeContracted int64            `json:"cumulative_contracted"`
	CumulativePaid       int64            `json:"cumulative_paid"`
	ContractedRate       float64          `json:"contracted_rate"`
	PaidRate             float64          `json:"paid_rate"`
}

// Series is the monthly cumulative contract and payment-completion trend.
// Points are ordered by month, then product type.
type Series struct {
	Points []Point                    `json:"points"`
	Months []core.Month               `json:"months"`
	Supply map[core.ProductType]int64 `json:"supply"`
}

type seriesKey struct {
	product core.ProductType
	month   core.Month
}

// BuildSeries computes cumulative contracted and paid rates per product type
// and month. supply is the denominator per product type; when nil it is the
// record count of each type. Records whose month does not parse are left out
// of the corresponding track.
func BuildSeries(records []core.UnitSaleRecord, supply map[core.ProductType]int64) Series {
	if supply == nil {
		supply = map[core.ProductType]int64{}
		for _, r := range records {
			supply[r.ProductType]++
		}
	}

	contracted := map[seriesKey]int64{}
	paid := map[seriesKey]int64{}
	monthsByType := map[core.ProductType]map[core.Month]struct{}{}
	note := func(k seriesKey) {
		set, ok := monthsByType[k.product]
		if !ok {
			set = map[core.Month]struct{}{}
			monthsByType[k.product] = set
		}
		set[k.month] = struct{}{}
	}

	for _, r := range records {
		if m, ok := r.ContractedIn(); ok {
			k := seriesKey{r.ProductType, m}
			contracted[k]++
			note(k)
		}
		if r.Payment == core.PaidInFull {
			if m, ok := r.PaidIn(); ok {
				k := seriesKey{r.ProductType, m}
				paid[k]++
				note(k)
			}
		}
	}

	points := make([]Point, 0)
	axis := map[core.Month]struct{}{}
	for p, set := range monthsByType {
		months := sortedMonths(set)
		var cumC, cumP int64
		for _, m := range months {
			k := seriesKey{p, m}
			cumC += contracted[k]
			cumP += paid[k]
			points = append(points, Point{
				ProductType:          p,
				Month:                m,
				CumulativeContracted: cumC,
				CumulativePaid:       cumP,
				ContractedRate:       Ratio(cumC, supply[p]),
				PaidRate:             Ratio(cumP, supply[p]),
			})
			axis[m] = struct{}{}
		}
	}

	sort.Slice(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if !a.Month.Equal(b.Month) {
			return a.Month.Before(b.Month)
		}
		return compareProduct(a.ProductType, b.ProductType) < 0
	})

	used := make(map[core.ProductType]int64, len(monthsByType))
	for p := range monthsByType {
		used[p] = supply[p]
	}

	return Series{Points: points, Months: sortedMonths(axis), Supply: used}
}

// PaidActivity returns the points where at least one unit has been paid in full.
func (s Series) PaidActivity() []Point {
	out := make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if p.CumulativePaid > 0 {
			out = append(out, p)
		}
	}
	return out
}

// ForType returns the points of one product type in month order.
func (s Series) ForType(p core.ProductType) []Point {
	var out []Point
	for _, pt := range s.Points {
		if pt.ProductType == p {
			out = append(out, pt)
		}
	}
	return out
}

// ProductTypes returns the product types present in the series, in display order.
func (s Series) ProductTypes() []core.ProductType {
	seen := map[core.ProductType]struct{}{}
	var out []core.ProductType
	for _, p := range s.Points {
		if _, ok := seen[p.ProductType]; ok {
			continue
		}
		seen[p.ProductType] = struct{}{}
		out = append(out, p.ProductType)
	}
	sort.Slice(out, func(i, j int) bool { return compareProduct(out[i], out[j]) < 0 })
	return out
}

func sortedMonths(set map[core.Month]struct{}) []core.Month {
	out := make([]core.Month, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

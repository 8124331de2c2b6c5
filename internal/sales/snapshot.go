package sales

import (
	"math"
	"sort"

	"salesdash/internal/core"
)

type (
	Dimension string
	Unit      string
)

const (
	DimensionContract   Dimension = "contract"
	DimensionPayment    Dimension = "payment"
	DimensionLitigation Dimension = "litigation"

	UnitCount    Unit = "units"
	UnitMillions Unit = "millions_krw"
)

// SummaryRow is one product type of a status pivot.
type SummaryRow struct {
	ProductType core.ProductType `json:"product_type"`
	Supply      int64            `json:"supply"`
	Positive    int64            `json:"positive"`
	Negative    int64            `json:"negative"`
	PositivePct int64            `json:"positive_pct"`
	NegativePct int64            `json:"negative_pct"`
}

// Table is a status pivot by product type. Columns holds the display labels
// for Supply, Positive, Negative, PositivePct and NegativePct in that order.
type Table struct {
	Dimension Dimension    `json:"dimension"`
	Unit      Unit         `json:"unit"`
	Columns   []string     `json:"columns"`
	Rows      []SummaryRow `json:"rows"`
}

// Block pairs the unit-count and amount tables of one status dimension.
type Block struct {
	Units   Table `json:"units"`
	Amounts Table `json:"amounts"`
}

// BreakdownRow is one (product, litigation, payment, contract) combination.
type BreakdownRow struct {
	ProductType    core.ProductType      `json:"product_type"`
	Litigation     core.LitigationStatus `json:"litigation"`
	Payment        core.PaymentStatus    `json:"payment"`
	Contract       core.ContractStatus   `json:"contract"`
	Units          int64                 `json:"units"`
	AmountMillions int64                 `json:"amount_millions"`
}

// Snapshot is the current status summary of a record set. Payment is set only
// when occupancy certificates exist; Litigation and Overall only when at
// least one unit is in litigation.
type Snapshot struct {
	Contract   Block          `json:"contract"`
	Payment    *Block         `json:"payment,omitempty"`
	Litigation *Block         `json:"litigation,omitempty"`
	Overall    []BreakdownRow `json:"overall,omitempty"`
}

// Empty reports whether the snapshot was built from no records.
func (s Snapshot) Empty() bool {
	return len(s.Contract.Units.Rows) == 0
}

// SupplyByType returns the unit supply per product type from the contract counts.
func (s Snapshot) SupplyByType() map[core.ProductType]int64 {
	out := make(map[core.ProductType]int64, len(s.Contract.Units.Rows))
	for _, r := range s.Contract.Units.Rows {
		out[r.ProductType] = r.Supply
	}
	return out
}

// Row returns the row for product type p.
func (t Table) Row(p core.ProductType) (SummaryRow, bool) {
	for _, r := range t.Rows {
		if r.ProductType == p {
			return r, true
		}
	}
	return SummaryRow{}, false
}

type dimension struct {
	name     Dimension
	columns  []string
	positive func(core.UnitSaleRecord) bool
	ordered  bool
}

var (
	contractDim = dimension{
		name:     DimensionContract,
		columns:  []string{"공급", "계약", "미계약", "계약(%)", "미계약(%)"},
		positive: func(r core.UnitSaleRecord) bool { return r.Contract == core.Contracted },
	}
	paymentDim = dimension{
		name:     DimensionPayment,
		columns:  []string{"공급", "완납", "미납", "완납(%)", "미납(%)"},
		positive: func(r core.UnitSaleRecord) bool { return r.Payment == core.PaidInFull },
		ordered:  true,
	}
	litigationDim = dimension{
		name:     DimensionLitigation,
		columns:  []string{"세대", "소송", "미소송", "소송(%)", "미소송(%)"},
		positive: func(r core.UnitSaleRecord) bool { return r.Litigation == core.InLitigation },
		ordered:  true,
	}
)

// BuildSnapshot summarises contract, payment and litigation status by product type.
func BuildSnapshot(records []core.UnitSaleRecord) Snapshot {
	var snap Snapshot
	if len(records) == 0 {
		snap.Contract = Block{
			Units:   Table{Dimension: DimensionContract, Unit: UnitCount, Columns: contractDim.columns, Rows: []SummaryRow{}},
			Amounts: Table{Dimension: DimensionContract, Unit: UnitMillions, Columns: contractDim.columns, Rows: []SummaryRow{}},
		}
		return snap
	}

	snap.Contract = buildBlock(records, contractDim)

	var occupancy int64
	litigation := false
	for _, r := range records {
		occupancy += r.OccupancyCert
		if r.Litigation == core.InLitigation {
			litigation = true
		}
	}
	if occupancy > 0 {
		b := buildBlock(records, paymentDim)
		snap.Payment = &b
	}
	if litigation {
		b := buildBlock(records, litigationDim)
		snap.Litigation = &b
		snap.Overall = buildBreakdown(records)
	}
	return snap
}

type tally struct {
	posUnits, negUnits int64
	posWon, negWon     int64
}

func buildBlock(records []core.UnitSaleRecord, dim dimension) Block {
	byType := map[core.ProductType]*tally{}
	order := make([]core.ProductType, 0)
	for _, r := range records {
		t, ok := byType[r.ProductType]
		if !ok {
			t = &tally{}
			byType[r.ProductType] = t
			order = append(order, r.ProductType)
		}
		if dim.positive(r) {
			t.posUnits++
			t.posWon += amountOf(r)
		} else {
			t.negUnits++
			t.negWon += amountOf(r)
		}
	}

	units := make([]SummaryRow, 0, len(order))
	amounts := make([]SummaryRow, 0, len(order))
	for _, p := range order {
		t := byType[p]
		units = append(units, newRow(p, t.posUnits, t.negUnits))
		amounts = append(amounts, newRow(p, core.Millions(t.posWon), core.Millions(t.negWon)))
	}

	if dim.ordered {
		units = domainOrder(units)
		amounts = domainOrder(amounts)
	} else {
		sortBySupply(units)
		sortBySupply(amounts)
	}

	return Block{
		Units:   Table{Dimension: dim.name, Unit: UnitCount, Columns: dim.columns, Rows: units},
		Amounts: Table{Dimension: dim.name, Unit: UnitMillions, Columns: dim.columns, Rows: amounts},
	}
}

// amountOf is the won amount a record contributes; negative amounts count as 0
// so percentages stay within 0..100.
func amountOf(r core.UnitSaleRecord) int64 {
	if r.Amount < 0 {
		return 0
	}
	return r.Amount
}

func newRow(p core.ProductType, pos, neg int64) SummaryRow {
	supply := pos + neg
	return SummaryRow{
		ProductType: p,
		Supply:      supply,
		Positive:    pos,
		Negative:    neg,
		PositivePct: Percent(pos, supply),
		NegativePct: Percent(neg, supply),
	}
}

// Percent returns part/whole as a whole percentage rounded half to even, or 0
// when whole is 0.
func Percent(part, whole int64) int64 {
	if whole == 0 {
		return 0
	}
	return int64(math.RoundToEven(float64(part) / float64(whole) * 100))
}

// Ratio returns part/whole, or 0 when whole is 0.
func Ratio(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func sortBySupply(rows []SummaryRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Supply > rows[j].Supply
	})
}

// domainOrder keeps the known product types in display order and drops the rest.
func domainOrder(rows []SummaryRow) []SummaryRow {
	out := make([]SummaryRow, 0, len(rows))
	for _, p := range core.ProductTypes() {
		for _, r := range rows {
			if r.ProductType == p {
				out = append(out, r)
			}
		}
	}
	return out
}

type breakdownKey struct {
	product    core.ProductType
	litigation core.LitigationStatus
	payment    core.PaymentStatus
	contract   core.ContractStatus
}

func buildBreakdown(records []core.UnitSaleRecord) []BreakdownRow {
	type acc struct {
		units int64
		won   int64
	}
	groups := map[breakdownKey]*acc{}
	order := make([]breakdownKey, 0)
	for _, r := range records {
		k := breakdownKey{r.ProductType, r.Litigation, r.Payment, r.Contract}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
			order = append(order, k)
		}
		a.units++
		a.won += amountOf(r)
	}

	rows := make([]BreakdownRow, 0, len(order))
	for _, k := range order {
		a := groups[k]
		rows = append(rows, BreakdownRow{
			ProductType:    k.product,
			Litigation:     k.litigation,
			Payment:        k.payment,
			Contract:       k.contract,
			Units:          a.units,
			AmountMillions: core.Millions(a.won),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if c := compareProduct(a.ProductType, b.ProductType); c != 0 {
			return c < 0
		}
		if a.Payment != b.Payment {
			return a.Payment == core.PaidInFull
		}
		if a.Litigation != b.Litigation {
			return a.Litigation == core.InLitigation
		}
		return false
	})
	return rows
}

// compareProduct orders known product types by rank and the rest lexically after them.
func compareProduct(a, b core.ProductType) int {
	ra, okA := a.Rank()
	rb, okB := b.Rank()
	switch {
	case okA && okB:
		return ra - rb
	case okA:
		return -1
	case okB:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

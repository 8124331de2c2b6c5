package sheets

import (
	"fmt"
	"log/slog"
	"strings"

	"salesdash/internal/core"
)

// Field is a record attribute that a sheet column can map to.
type Field string

const (
	FieldProject       Field = "project"
	FieldProductType   Field = "product_type"
	FieldUnitID        Field = "unit_id"
	FieldDong          Field = "dong"
	FieldHo            Field = "ho"
	FieldContract      Field = "contract_status"
	FieldContractMonth Field = "contract_month"
	FieldPayment       Field = "payment_status"
	FieldPaymentMonth  Field = "payment_month"
	FieldLitigation    Field = "litigation"
	FieldAmount        Field = "total_sale_amount"
	FieldOccupancy     Field = "occupancy_cert"
	FieldReportMonth   Field = "report_month"
)

var headerAliases = map[string]Field{
	"사업명":               FieldProject,
	"사업":                FieldProject,
	"현장명":               FieldProject,
	"project":           FieldProject,
	"project_name":      FieldProject,
	"상품":                FieldProductType,
	"상품구분":              FieldProductType,
	"용도":                FieldProductType,
	"product":           FieldProductType,
	"product_type":      FieldProductType,
	"동호수":               FieldUnitID,
	"동호":                FieldUnitID,
	"unit":              FieldUnitID,
	"unit_id":           FieldUnitID,
	"동":                 FieldDong,
	"호":                 FieldHo,
	"호수":                FieldHo,
	"계약여부":              FieldContract,
	"contract":          FieldContract,
	"contract_status":   FieldContract,
	"계약월":               FieldContractMonth,
	"계약일":               FieldContractMonth,
	"계약일자":              FieldContractMonth,
	"contract_month":    FieldContractMonth,
	"완납여부":              FieldPayment,
	"payment":           FieldPayment,
	"payment_status":    FieldPayment,
	"완납월":               FieldPaymentMonth,
	"완납일":               FieldPaymentMonth,
	"payment_month":     FieldPaymentMonth,
	"소송":                FieldLitigation,
	"소송여부":              FieldLitigation,
	"litigation":        FieldLitigation,
	"litigation_status": FieldLitigation,
	"총분양금":              FieldAmount,
	"분양금액":              FieldAmount,
	"분양가":               FieldAmount,
	"amount":            FieldAmount,
	"total_sale_amount": FieldAmount,
	"입주증번호":             FieldOccupancy,
	"입주증":               FieldOccupancy,
	"occupancy":         FieldOccupancy,
	"occupancy_cert":    FieldOccupancy,
	"기준월":               FieldReportMonth,
	"report_month":      FieldReportMonth,
	"as_of":             FieldReportMonth,
}

// Layout maps record fields to column positions of a sheet header.
type Layout struct {
	index   map[Field]int
	Unknown []string
}

var headerNormalizer = strings.NewReplacer(" ", "", "_", "", "-", "", "\n", "")

func normalizeHeader(h string) string {
	return headerNormalizer.Replace(strings.ToLower(strings.TrimSpace(h)))
}

var aliasIndex = func() map[string]Field {
	m := make(map[string]Field, len(headerAliases))
	for k, f := range headerAliases {
		m[normalizeHeader(k)] = f
	}
	return m
}()

// ParseHeader locates the known columns of header. The product type column and
// either a unit id column or both dong and ho columns are required.
func ParseHeader(header []string) (Layout, error) {
	l := Layout{index: map[Field]int{}}
	for i, h := range header {
		name := normalizeHeader(h)
		if name == "" {
			continue
		}
		f, ok := aliasIndex[name]
		if !ok {
			l.Unknown = append(l.Unknown, strings.TrimSpace(h))
			continue
		}
		if _, dup := l.index[f]; dup {
			continue
		}
		l.index[f] = i
	}

	var missing []string
	if !l.Has(FieldProductType) {
		missing = append(missing, "상품")
	}
	if !l.Has(FieldUnitID) && !(l.Has(FieldDong) && l.Has(FieldHo)) {
		missing = append(missing, "동호수")
	}
	if len(missing) > 0 {
		return l, fmt.Errorf("%w: %s; got headers=%v", core.ErrMissingColumn, strings.Join(missing, ","), header)
	}
	return l, nil
}

// Has reports whether the header carries a column for f.
func (l Layout) Has(f Field) bool {
	_, ok := l.index[f]
	return ok
}

func (l Layout) get(row []string, f Field) string {
	idx, ok := l.index[f]
	if !ok {
		return ""
	}
	return strings.TrimSpace(safeGet(row, idx))
}

// Decode converts one data row. Rows without a product type are skipped.
func (l Layout) Decode(row []string) (core.UnitSaleRecord, bool) {
	product := l.get(row, FieldProductType)
	if product == "" {
		return core.UnitSaleRecord{}, false
	}
	unit := l.get(row, FieldUnitID)
	if unit == "" {
		dong, ho := l.get(row, FieldDong), l.get(row, FieldHo)
		if dong != "" || ho != "" {
			unit = dong + "-" + ho
		}
	}
	return core.UnitSaleRecord{
		Project:       l.get(row, FieldProject),
		ProductType:   core.ProductType(product),
		UnitID:        unit,
		Contract:      core.ParseContractStatus(l.get(row, FieldContract)),
		ContractMonth: l.get(row, FieldContractMonth),
		Payment:       core.ParsePaymentStatus(l.get(row, FieldPayment)),
		PaymentMonth:  l.get(row, FieldPaymentMonth),
		Litigation:    core.ParseLitigationStatus(l.get(row, FieldLitigation)),
		Amount:        saleAmount(unit, l.get(row, FieldAmount)),
		OccupancyCert: occupancyValue(l.get(row, FieldOccupancy)),
		ReportMonth:   l.get(row, FieldReportMonth),
	}, true
}

// saleAmount reads a total sale amount. Negative amounts are malformed and count as 0.
func saleAmount(unit, raw string) int64 {
	v := core.WonOrZero(raw)
	if v < 0 {
		slog.Warn("Negative sale amount, counting as zero", "unit_id", unit, "amount", raw)
		return 0
	}
	return v
}

// occupancyValue reads a certificate number; a non-numeric certificate id still counts as present.
func occupancyValue(s string) int64 {
	if s == "" {
		return 0
	}
	if v, err := core.ParseWon(s); err == nil {
		return v
	}
	return 1
}

// DecodeTable decodes a header row followed by data rows. Leading blank rows are skipped.
func DecodeTable(rows [][]string) ([]core.UnitSaleRecord, Layout, error) {
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, Layout{index: map[Field]int{}}, nil
	}
	layout, err := ParseHeader(rows[start])
	if err != nil {
		return nil, layout, err
	}
	out := make([]core.UnitSaleRecord, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		if r, ok := layout.Decode(row); ok {
			out = append(out, r)
		}
	}
	return out, layout, nil
}

// Select applies q to decoded records. The report month part of q is dropped
// when the layout has no report month column; the returned flag tells callers
// when that happened.
func Select(records []core.UnitSaleRecord, q core.Query, layout Layout) ([]core.UnitSaleRecord, bool) {
	ignoredAsOf := false
	if q.AsOf != nil && !layout.Has(FieldReportMonth) {
		q.AsOf = nil
		ignoredAsOf = true
	}
	out := make([]core.UnitSaleRecord, 0, len(records))
	for _, r := range records {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, ignoredAsOf
}

// Projects returns distinct non-empty project names in first-seen order.
func Projects(records []core.UnitSaleRecord) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, r := range records {
		name := strings.TrimSpace(r.Project)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

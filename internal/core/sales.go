package core

import (
	"strings"
)

// Known product types. The sheet carries the Korean label, which is kept as the value.
const (
	Apartment          ProductType = "아파트"
	Officetel          ProductType = "오피스텔"
	ResidentialLodging ProductType = "생활숙박시설"
	Industrial         ProductType = "지식산업센터"
	RetailSales        ProductType = "판매시설"
	RetailShop         ProductType = "상가"
)

const (
	Contracted   ContractStatus = "계약"
	Uncontracted ContractStatus = "미계약"

	PaidInFull    PaymentStatus = "완납"
	NotPaidInFull PaymentStatus = "미납"

	InLitigation    LitigationStatus = "소송"
	NotInLitigation LitigationStatus = "미소송"
)

type (
	ProductType      string
	ContractStatus   string
	PaymentStatus    string
	LitigationStatus string

	// UnitSaleRecord is one sellable unit as read from a data source.
	// Month fields hold the raw source text; empty means no value.
	UnitSaleRecord struct {
		Project       string
		ProductType   ProductType
		UnitID        string
		Contract      ContractStatus
		ContractMonth string
		Payment       PaymentStatus
		PaymentMonth  string
		Litigation    LitigationStatus
		Amount        int64 // won
		OccupancyCert int64
		ReportMonth   string
	}

	// Query selects the records of one project, optionally for a single report month.
	Query struct {
		Project string
		AsOf    *Month
	}

	// ProjectPair links a main construction project code to its option-work code.
	ProjectPair struct {
		Main   string
		Option string
	}
)

var productOrder = []ProductType{Apartment, Officetel, ResidentialLodging, Industrial, RetailSales, RetailShop}

// ProductTypes returns the known product types in display order.
func ProductTypes() []ProductType {
	return append([]ProductType(nil), productOrder...)
}

// Rank returns the display position of a known product type.
func (p ProductType) Rank() (int, bool) {
	for i, v := range productOrder {
		if v == p {
			return i, true
		}
	}
	return len(productOrder), false
}

func (p ProductType) String() string { return string(p) }

// ParseContractStatus maps a sheet cell to a contract status. Anything other
// than the contracted label counts as uncontracted.
func ParseContractStatus(s string) ContractStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Contracted), "contracted", "y", "yes", "true":
		return Contracted
	}
	return Uncontracted
}

func ParsePaymentStatus(s string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PaidInFull), "paid", "paid_in_full", "y", "yes", "true":
		return PaidInFull
	}
	return NotPaidInFull
}

func ParseLitigationStatus(s string) LitigationStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(InLitigation), "litigation", "in_litigation", "y", "yes", "true":
		return InLitigation
	}
	return NotInLitigation
}

// ContractedIn returns the parsed contract month.
func (r UnitSaleRecord) ContractedIn() (Month, bool) {
	m, err := ParseMonth(r.ContractMonth)
	return m, err == nil
}

// PaidIn returns the parsed payment completion month.
func (r UnitSaleRecord) PaidIn() (Month, bool) {
	m, err := ParseMonth(r.PaymentMonth)
	return m, err == nil
}

// Matches reports whether the record belongs to the project named by q and,
// when q.AsOf is set, to that report month.
func (q Query) Matches(r UnitSaleRecord) bool {
	if !ProjectContains(r.Project, q.Project) {
		return false
	}
	if q.AsOf != nil {
		m, err := ParseMonth(r.ReportMonth)
		if err != nil || !m.Equal(*q.AsOf) {
			return false
		}
	}
	return true
}

// ProjectContains is a case-insensitive substring match; an empty needle matches everything.
func ProjectContains(project, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(project), strings.ToLower(needle))
}

// Key returns a cache key for the query.
func (q Query) Key() string {
	k := strings.ToLower(strings.TrimSpace(q.Project))
	if q.AsOf != nil {
		k += "@" + q.AsOf.String()
	}
	return k
}

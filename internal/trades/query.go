// Package trades looks up real-transaction records by kind and region.
package trades

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"salesdash/internal/core"
)

// Kind is a transaction category offered by the lookup.
type Kind string

const (
	PresaleRight  Kind = "분양권"
	AptSale       Kind = "아파트 매매"
	AptRent       Kind = "아파트 전월세"
	OfficetelSale Kind = "오피스텔 매매"
	OfficetelRent Kind = "오피스텔 전월세"
	VillaSale     Kind = "연립/다세대 매매"
	VillaRent     Kind = "연립/다세대 전월세"
)

// Kinds returns the supported kinds in display order.
func Kinds() []Kind {
	return []Kind{PresaleRight, AptSale, AptRent, OfficetelSale, OfficetelRent, VillaSale, VillaRent}
}

var (
	ErrUnknownKind   = errors.New("unknown transaction kind")
	ErrMissingRegion = errors.New("sido and sigungu are required")
	ErrInvalidArea   = errors.New("invalid exclusive area range")
)

var (
	capitalArea = []string{"서울특별시", "인천광역시", "경기도"}
	bigSix      = []string{"부산광역시", "대구광역시", "대전광역시", "광주광역시", "울산광역시", "세종특별자치시"}
	provinces   = []string{"강원특별자치도", "충청북도", "충청남도", "전라특별자치도", "전라남도", "경상북도", "경상남도", "제주특별자치도"}
)

var kindTables = map[Kind]string{
	PresaleRight:  "bunyang",
	AptSale:       "sale_sma",
	AptRent:       "rent_sma",
	OfficetelSale: "ot_sale",
	OfficetelRent: "ot_rent",
	VillaSale:     "villa_sale",
	VillaRent:     "villa_rent",
}

// TableFor returns the table holding transactions of kind in sido.
func TableFor(kind Kind, sido string) (string, error) {
	table, ok := kindTables[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	switch {
	case kind == AptSale && slices.Contains(bigSix, sido):
		return "sale_big6", nil
	case kind == AptSale && slices.Contains(provinces, sido):
		return "sale_dodo", nil
	case kind == AptRent && !slices.Contains(capitalArea, sido):
		return "rent_notsma", nil
	}
	return table, nil
}

// Params filters a lookup. Dong is optional; "전체" means every dong.
type Params struct {
	Kind    Kind
	Sido    string
	Sigungu string
	Dong    string
	AreaMin float64
	AreaMax float64
	Since   time.Time
}

const (
	DefaultAreaMin = 59
	DefaultAreaMax = 85
	MaxRows        = core.MaxFetchRows
)

// DefaultSince is the last day of the month two months before now.
func DefaultSince(now time.Time) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -1, -1)
}

func (p Params) normalized() Params {
	p.Sido = strings.TrimSpace(p.Sido)
	p.Sigungu = strings.TrimSpace(p.Sigungu)
	p.Dong = strings.TrimSpace(p.Dong)
	if p.Dong == "전체" {
		p.Dong = ""
	}
	if p.AreaMin == 0 && p.AreaMax == 0 {
		p.AreaMin, p.AreaMax = DefaultAreaMin, DefaultAreaMax
	}
	return p
}

// Validate checks the required filters.
func (p Params) Validate() error {
	p = p.normalized()
	if _, ok := kindTables[p.Kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
	if p.Sido == "" || p.Sigungu == "" {
		return ErrMissingRegion
	}
	if p.AreaMin < 0 || p.AreaMax < p.AreaMin {
		return fmt.Errorf("%w: %g..%g", ErrInvalidArea, p.AreaMin, p.AreaMax)
	}
	return nil
}

// BuildQuery returns the SQL text and positional arguments for p.
func BuildQuery(p Params, now time.Time) (string, []any, error) {
	if err := p.Validate(); err != nil {
		return "", nil, err
	}
	p = p.normalized()
	table, err := TableFor(p.Kind, p.Sido)
	if err != nil {
		return "", nil, err
	}
	since := p.Since
	if since.IsZero() {
		since = DefaultSince(now)
	}

	var b strings.Builder
	args := []any{p.Sido, p.Sigungu, since.Format("2006-01-02")}
	fmt.Fprintf(&b, "SELECT * FROM %s WHERE 광역시도 = $1 AND 시자치구 = $2 AND 기준월 >= $3", table)
	if p.Dong != "" {
		args = append(args, p.Dong)
		fmt.Fprintf(&b, " AND 법정동 = $%d", len(args))
	}
	args = append(args, p.AreaMin, p.AreaMax)
	fmt.Fprintf(&b, " AND 전용면적 >= $%d AND 전용면적 <= $%d LIMIT %d", len(args)-1, len(args), MaxRows)
	return b.String(), args, nil
}

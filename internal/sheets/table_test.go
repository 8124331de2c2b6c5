package sheets

import (
	"errors"
	"testing"

	"salesdash/internal/core"
)

func TestDecodeTable_KoreanHeaders(t *testing.T) {
	rows := [][]string{
		{"", "", ""},
		{"사업명", "상품", "동호수", "계약여부", "계약월", "완납여부", "완납월", "소송", "총분양금", "입주증번호", "비고"},
		{"해운대 1차", "아파트", "101-1201", "계약", "2024-01-15", "완납", "2024.06", "미소송", "350,000,000", "12", "메모"},
		{"해운대 1차", "오피스텔", "B-305", "미계약", "", "미납", "", "소송", "180,500,000", "", ""},
		{"", "", "", "", "", "", "", "", "", "", ""},
		{"해운대 1차", "상가", "1층-02", "계약"},
	}
	recs, layout, err := DecodeTable(rows)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if len(layout.Unknown) != 1 || layout.Unknown[0] != "비고" {
		t.Fatalf("unknown columns = %v", layout.Unknown)
	}

	apt := recs[0]
	if apt.ProductType != core.Apartment || apt.UnitID != "101-1201" || apt.Contract != core.Contracted {
		t.Fatalf("apartment = %+v", apt)
	}
	if apt.Amount != 350_000_000 || apt.OccupancyCert != 12 || apt.Payment != core.PaidInFull {
		t.Fatalf("apartment numbers = %+v", apt)
	}
	if m, ok := apt.PaidIn(); !ok || m.String() != "2024-06" {
		t.Fatalf("paid month = %v %v", m, ok)
	}

	ot := recs[1]
	if ot.Litigation != core.InLitigation || ot.Contract != core.Uncontracted || ot.Amount != 180_500_000 {
		t.Fatalf("officetel = %+v", ot)
	}

	// Short rows read missing cells as blank.
	shop := recs[2]
	if shop.Payment != core.NotPaidInFull || shop.Amount != 0 || shop.ContractMonth != "" {
		t.Fatalf("short row = %+v", shop)
	}
}

func TestParseHeader(t *testing.T) {
	cases := []struct {
		name    string
		header  []string
		wantErr bool
	}{
		{"korean", []string{"상품", "동호수"}, false},
		{"english aliases", []string{"Product Type", "Unit-ID", "Contract Status"}, false},
		{"dong and ho", []string{"상품", "동", "호수"}, false},
		{"missing product", []string{"사업명", "동호수"}, true},
		{"missing unit", []string{"상품", "동"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseHeader(tc.header)
			if tc.wantErr {
				if !errors.Is(err, core.ErrMissingColumn) {
					t.Fatalf("want ErrMissingColumn, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDecode_DongHo(t *testing.T) {
	l, err := ParseHeader([]string{"상품", "동", "호"})
	if err != nil {
		t.Fatal(err)
	}
	r, ok := l.Decode([]string{"아파트", "101", "1201"})
	if !ok || r.UnitID != "101-1201" {
		t.Fatalf("unit id = %q", r.UnitID)
	}
}

func TestDecode_OccupancyText(t *testing.T) {
	l, _ := ParseHeader([]string{"상품", "동호수", "입주증번호"})
	r, _ := l.Decode([]string{"아파트", "101-1", "A-0012"})
	if r.OccupancyCert != 1 {
		t.Fatalf("text certificate should count as present, got %d", r.OccupancyCert)
	}
}

func TestSelect(t *testing.T) {
	jan := core.MustParseMonth("2024-01")
	records := []core.UnitSaleRecord{
		{Project: "해운대 1차", ReportMonth: "2024-01"},
		{Project: "해운대 1차", ReportMonth: "2024-02"},
		{Project: "센텀 2차", ReportMonth: "2024-01"},
	}
	withMonth, _ := ParseHeader([]string{"사업명", "상품", "동호수", "기준월"})
	withoutMonth, _ := ParseHeader([]string{"사업명", "상품", "동호수"})

	got, ignored := Select(records, core.Query{Project: "해운대", AsOf: &jan}, withMonth)
	if len(got) != 1 || ignored {
		t.Fatalf("with month: %d records, ignored=%v", len(got), ignored)
	}
	got, ignored = Select(records, core.Query{Project: "해운대", AsOf: &jan}, withoutMonth)
	if len(got) != 2 || !ignored {
		t.Fatalf("without month: %d records, ignored=%v", len(got), ignored)
	}
}

func TestProjects(t *testing.T) {
	got := Projects([]core.UnitSaleRecord{{Project: "B"}, {Project: " A "}, {Project: "B"}, {Project: ""}})
	if len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Fatalf("projects = %v", got)
	}
}

func TestDecode_NegativeAmount(t *testing.T) {
	rows := [][]string{
		{"상품", "동호수", "계약여부", "총분양금"},
		{"아파트", "101-1", "계약", "-300,000,000"},
		{"아파트", "101-2", "미계약", "600,000,000"},
	}
	recs, _, err := DecodeTable(rows)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if recs[0].Amount != 0 || recs[1].Amount != 600_000_000 {
		t.Fatalf("amounts = %d, %d", recs[0].Amount, recs[1].Amount)
	}
}

package export

import (
	"bytes"
	"slices"
	"testing"

	"salesdash/internal/core"
	"salesdash/internal/sales"

	"github.com/xuri/excelize/v2"
)

func records() []core.UnitSaleRecord {
	return []core.UnitSaleRecord{
		{ProductType: core.Apartment, UnitID: "1", Contract: core.Contracted, ContractMonth: "2024-01",
			Payment: core.PaidInFull, PaymentMonth: "2024-03", Litigation: core.NotInLitigation, Amount: 300_000_000, OccupancyCert: 1},
		{ProductType: core.Apartment, UnitID: "2", Contract: core.Contracted, ContractMonth: "2024-02",
			Payment: core.NotPaidInFull, Litigation: core.InLitigation, Amount: 310_000_000},
		{ProductType: core.Officetel, UnitID: "3", Contract: core.Uncontracted,
			Payment: core.NotPaidInFull, Litigation: core.NotInLitigation, Amount: 150_000_000},
	}
}

func open(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	res := sales.Build(records(), nil)
	if err := WriteReport(&buf, "해운대 1차", res); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := open(t, &buf)

	want := []string{SheetContract, SheetPayment, SheetLitigation, SheetOverall, SheetSeries}
	if got := f.GetSheetList(); !slices.Equal(got, want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}

	title, _ := f.GetCellValue(SheetContract, "A1")
	if title != "해운대 1차" {
		t.Fatalf("title = %q", title)
	}
	header, _ := f.GetCellValue(SheetContract, "B3")
	if header != "공급" {
		t.Fatalf("units header = %q", header)
	}
	product, _ := f.GetCellValue(SheetContract, "A4")
	supply, _ := f.GetCellValue(SheetContract, "B4")
	if product != string(core.Apartment) || supply != "2" {
		t.Fatalf("first row = %q %q", product, supply)
	}
	amount, _ := f.GetCellValue(SheetContract, "I4")
	if amount != "610" {
		t.Fatalf("amount supply = %q, want 610", amount)
	}

	month, _ := f.GetCellValue(SheetSeries, "A2")
	if month != "2024-01" {
		t.Fatalf("first series month = %q", month)
	}
}

func TestWriteReport_ContractOnly(t *testing.T) {
	recs := records()
	for i := range recs {
		recs[i].OccupancyCert = 0
		recs[i].Litigation = core.NotInLitigation
	}
	var buf bytes.Buffer
	if err := WriteReport(&buf, "x", sales.Build(recs, nil)); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := open(t, &buf)
	if got := f.GetSheetList(); !slices.Equal(got, []string{SheetContract, SheetSeries}) {
		t.Fatalf("sheets = %v", got)
	}
}

func TestWriteRows(t *testing.T) {
	var buf bytes.Buffer
	rows := [][]any{{"래미안", 84.9, int64(152000)}, {"자이", 59.8, int64(98000)}}
	if err := WriteRows(&buf, "실거래", []string{"단지명", "전용면적", "거래금액"}, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := open(t, &buf)
	got, err := f.GetRows("실거래")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 3 || got[0][0] != "단지명" || got[2][0] != "자이" || got[2][2] != "98000" {
		t.Fatalf("rows = %v", got)
	}

	if err := WriteRows(&buf, "", nil, nil); err == nil {
		t.Fatal("expected error for empty sheet name")
	}
}

func TestSheetName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"연립/다세대 매매", "연립_다세대 매매"},
		{" 아파트 매매 ", "아파트 매매"},
		{"a[1]:b?", "a(1)_b_"},
		{"'quoted'", "quoted"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SheetName(tc.in); got != tc.want {
			t.Errorf("SheetName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	long := SheetName("가나다라마바사아자차카타파하가나다라마바사아자차카타파하가나다라마바사")
	if n := len([]rune(long)); n != 31 {
		t.Errorf("long name has %d runes, want 31", n)
	}
}

func TestWriteRows_SanitizesSheetName(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRows(&buf, "연립/다세대 매매", []string{"단지명"}, [][]any{{"빌라"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := open(t, &buf)
	if got := f.GetSheetList(); !slices.Equal(got, []string{"연립_다세대 매매"}) {
		t.Fatalf("sheets = %v", got)
	}
}

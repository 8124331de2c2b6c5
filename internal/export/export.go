// Package export renders aggregation results and lookups as xlsx workbooks.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"salesdash/internal/sales"

	"github.com/xuri/excelize/v2"
)

const (
	SheetContract   = "계약현황"
	SheetPayment    = "입주현황"
	SheetLitigation = "소송현황"
	SheetOverall    = "전체현황"
	SheetSeries     = "누적추이"
)

// amountsCol is where the millions table starts, leaving a blank column after
// the six-column units table.
const amountsCol = 8

type writer struct {
	f      *excelize.File
	header int
	pct    int
}

func newWriter() (*writer, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	pct, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("percent style: %w", err)
	}
	return &writer{f: f, header: header, pct: pct}, nil
}

// sheet creates name, reusing the default first sheet for the first call.
func (w *writer) sheet(name string) error {
	list := w.f.GetSheetList()
	if len(list) == 1 && list[0] == "Sheet1" {
		return w.f.SetSheetName("Sheet1", name)
	}
	_, err := w.f.NewSheet(name)
	return err
}

func (w *writer) row(sheet string, col, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func (w *writer) headerRow(sheet string, col, row int, labels []string) error {
	values := make([]any, len(labels))
	for i, l := range labels {
		values[i] = l
	}
	if err := w.row(sheet, col, row, values); err != nil {
		return err
	}
	from, _ := excelize.CoordinatesToCellName(col, row)
	to, _ := excelize.CoordinatesToCellName(col+len(labels)-1, row)
	return w.f.SetCellStyle(sheet, from, to, w.header)
}

func (w *writer) table(sheet string, col int, caption string, t sales.Table) error {
	if err := w.row(sheet, col, 2, []any{caption}); err != nil {
		return err
	}
	if err := w.headerRow(sheet, col, 3, append([]string{"상품"}, t.Columns...)); err != nil {
		return err
	}
	for i, r := range t.Rows {
		values := []any{string(r.ProductType), r.Supply, r.Positive, r.Negative, r.PositivePct, r.NegativePct}
		if err := w.row(sheet, col, 4+i, values); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) block(name, title string, b sales.Block) error {
	if err := w.sheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	if err := w.f.SetCellValue(name, "A1", title); err != nil {
		return err
	}
	if err := w.table(name, 1, "세대수", b.Units); err != nil {
		return fmt.Errorf("write %s units: %w", name, err)
	}
	if err := w.table(name, amountsCol, "금액(백만원)", b.Amounts); err != nil {
		return fmt.Errorf("write %s amounts: %w", name, err)
	}
	return nil
}

func (w *writer) overall(title string, rows []sales.BreakdownRow) error {
	if err := w.sheet(SheetOverall); err != nil {
		return err
	}
	if err := w.f.SetCellValue(SheetOverall, "A1", title); err != nil {
		return err
	}
	if err := w.headerRow(SheetOverall, 1, 3, []string{"상품", "소송", "완납", "계약", "세대", "금액(백만원)"}); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{string(r.ProductType), string(r.Litigation), string(r.Payment), string(r.Contract), r.Units, r.AmountMillions}
		if err := w.row(SheetOverall, 1, 4+i, values); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) series(s sales.Series) error {
	if err := w.sheet(SheetSeries); err != nil {
		return err
	}
	if err := w.headerRow(SheetSeries, 1, 1, []string{"월", "상품", "누적계약", "누적완납", "계약률", "완납률"}); err != nil {
		return err
	}
	for i, p := range s.Points {
		values := []any{p.Month.String(), string(p.ProductType), p.CumulativeContracted, p.CumulativePaid, p.ContractedRate, p.PaidRate}
		if err := w.row(SheetSeries, 1, 2+i, values); err != nil {
			return err
		}
	}
	if n := len(s.Points); n > 0 {
		return w.f.SetCellStyle(SheetSeries, "E2", fmt.Sprintf("F%d", n+1), w.pct)
	}
	return nil
}

// WriteReport writes one sheet per available block plus the cumulative series.
func WriteReport(out io.Writer, title string, res sales.Result) error {
	w, err := newWriter()
	if err != nil {
		return err
	}
	defer w.f.Close()

	snap := res.Snapshot
	if err := w.block(SheetContract, title, snap.Contract); err != nil {
		return err
	}
	if snap.Payment != nil {
		if err := w.block(SheetPayment, title, *snap.Payment); err != nil {
			return err
		}
	}
	if snap.Litigation != nil {
		if err := w.block(SheetLitigation, title, *snap.Litigation); err != nil {
			return err
		}
	}
	if len(snap.Overall) > 0 {
		if err := w.overall(title, snap.Overall); err != nil {
			return fmt.Errorf("write overall: %w", err)
		}
	}
	if err := w.series(res.Series); err != nil {
		return fmt.Errorf("write series: %w", err)
	}

	if _, err := w.f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

var sheetNameReplacer = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")")

// SheetName makes name usable as a worksheet title: the characters Excel
// rejects are replaced and the result is cut to 31 characters.
func SheetName(name string) string {
	name = sheetNameReplacer.Replace(strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

// WriteRows writes a single sheet with a header row followed by rows.
func WriteRows(out io.Writer, sheet string, header []string, rows [][]any) error {
	sheet = SheetName(sheet)
	if sheet == "" {
		return errors.New("sheet name is required")
	}
	w, err := newWriter()
	if err != nil {
		return err
	}
	defer w.f.Close()

	if err := w.sheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if err := w.headerRow(sheet, 1, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		if err := w.row(sheet, 1, 2+i, r); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if _, err := w.f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

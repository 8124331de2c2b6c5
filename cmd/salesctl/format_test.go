package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/sales"
	"salesdash/internal/services"
	"salesdash/internal/worker"
)

func sampleReport() *services.Report {
	records := []core.UnitSaleRecord{
		{Project: "해운대 1차", ProductType: core.Apartment, UnitID: "101-1", Contract: core.Contracted, ContractMonth: "2024-01", Payment: core.PaidInFull, PaymentMonth: "2024-03", Litigation: core.NotInLitigation, Amount: 350_000_000, OccupancyCert: 1},
		{Project: "해운대 1차", ProductType: core.Apartment, UnitID: "101-2", Contract: core.Uncontracted, Payment: core.NotPaidInFull, Litigation: core.InLitigation, Amount: 300_000_000},
		{Project: "해운대 1차", ProductType: core.Officetel, UnitID: "B-1", Contract: core.Contracted, ContractMonth: "2024-02", Payment: core.NotPaidInFull, Litigation: core.NotInLitigation, Amount: 120_000_000},
	}
	return &services.Report{
		Project: "해운대",
		AsOf:    "2024-03",
		Result:  sales.Build(records, sales.ByProductTypes()),
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, sampleReport(), true)
	out := buf.String()

	for _, want := range []string{
		"해운대 (2024-03): 3 records",
		"계약현황",
		"입주현황",
		"소송현황",
		"전체현황",
		"[금액(백만원)]",
		"누적 추이 (2024-01 ~ 2024-03)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintReport_WithoutSeries(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, sampleReport(), false)
	if strings.Contains(buf.String(), "누적 추이") {
		t.Fatalf("series printed when disabled:\n%s", buf.String())
	}
}

func TestPrintPairs(t *testing.T) {
	var buf bytes.Buffer
	printPairs(&buf, nil)
	if !strings.Contains(buf.String(), "No pairs registered.") {
		t.Fatalf("empty pairs output = %q", buf.String())
	}

	buf.Reset()
	printPairs(&buf, []core.ProjectPair{{Main: "A-02", Option: "OP-02"}, {Main: "A-01", Option: "OP-01"}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "A-02") {
		t.Fatalf("pairs output = %q", buf.String())
	}
}

func TestPrintProjects(t *testing.T) {
	var buf bytes.Buffer
	printProjects(&buf, []string{"해운대 1차", "센텀 2차"})
	if buf.String() != "해운대 1차\n센텀 2차\n" {
		t.Fatalf("projects output = %q", buf.String())
	}
}

func TestPrintSyncResult(t *testing.T) {
	var buf bytes.Buffer
	printSyncResult(&buf, worker.SyncResult{
		Projects: 3,
		Records:  40,
		Failed:   []string{"센텀 2차"},
		Removed:  []string{"철거된사업"},
		Duration: 1500 * time.Millisecond,
	})
	out := buf.String()
	if !strings.Contains(out, "Synced 2 projects, 40 records in 1.5s") {
		t.Errorf("summary line missing:\n%s", out)
	}
	if !strings.Contains(out, "FAILED (1):") || !strings.Contains(out, "센텀 2차") {
		t.Errorf("failed list missing:\n%s", out)
	}
	if !strings.Contains(out, "REMOVED (1):") || !strings.Contains(out, "철거된사업") {
		t.Errorf("removed list missing:\n%s", out)
	}
}

func TestReportOptions_Query(t *testing.T) {
	tests := []struct {
		name      string
		opts      reportOptions
		wantAsOf  string
		wantTypes int
		wantErr   bool
	}{
		{name: "defaults", opts: reportOptions{}},
		{name: "month and types", opts: reportOptions{project: " 해운대 ", asOf: "2024-03", types: []string{"아파트", " ", "상가"}}, wantAsOf: "2024-03", wantTypes: 2},
		{name: "bad month", opts: reportOptions{asOf: "March"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, types, err := tt.opts.query()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantAsOf == "" && q.AsOf != nil {
				t.Errorf("as of = %v, want nil", q.AsOf)
			}
			if tt.wantAsOf != "" && (q.AsOf == nil || q.AsOf.String() != tt.wantAsOf) {
				t.Errorf("as of = %v, want %s", q.AsOf, tt.wantAsOf)
			}
			if len(types) != tt.wantTypes {
				t.Errorf("types = %v, want %d", types, tt.wantTypes)
			}
			if strings.HasPrefix(q.Project, " ") {
				t.Errorf("project not trimmed: %q", q.Project)
			}
		})
	}
}

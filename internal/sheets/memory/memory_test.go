package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"salesdash/internal/core"
)

const seedCSV = "\ufeff사업명,상품,동호수,계약여부,계약월,총분양금,기준월\n" +
	"해운대 1차,아파트,101-1201,계약,2024-01,\"350,000,000\",2024-03\n" +
	"해운대 1차,오피스텔,B-305,미계약,,\"180,000,000\",2024-03\n" +
	"센텀 2차,아파트,201-101,계약,2023-11,\"420,000,000\",2024-02\n"

func TestNewFromCSV(t *testing.T) {
	s, err := NewFromCSV(strings.NewReader(seedCSV))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	ctx := context.Background()

	projects, _ := s.ListProjects(ctx)
	if len(projects) != 2 || projects[0] != "해운대 1차" {
		t.Fatalf("projects = %v", projects)
	}

	mar := core.MustParseMonth("2024-03")
	recs, err := s.FetchRecords(ctx, core.Query{Project: "해운대", AsOf: &mar})
	if err != nil || len(recs) != 2 {
		t.Fatalf("fetch: %d records, err=%v", len(recs), err)
	}
	if recs[0].Amount != 350_000_000 {
		t.Fatalf("amount = %d", recs[0].Amount)
	}

	feb := core.MustParseMonth("2024-02")
	recs, _ = s.FetchRecords(ctx, core.Query{Project: "해운대", AsOf: &feb})
	if len(recs) != 0 {
		t.Fatalf("as-of filter kept %d records", len(recs))
	}
}

func TestNewFromFile_Missing(t *testing.T) {
	s, err := NewFromFile(filepath.Join(t.TempDir(), "nope.csv"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	recs, _ := s.FetchRecords(context.Background(), core.Query{})
	if len(recs) != 0 {
		t.Fatalf("expected empty store, got %d", len(recs))
	}
}

func TestNewFromFile_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("사업명,계약여부\nA,계약\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(path); !errors.Is(err, core.ErrMissingColumn) {
		t.Fatalf("want ErrMissingColumn, got %v", err)
	}
}

func TestReplaceProject(t *testing.T) {
	s, _ := NewFromCSV(strings.NewReader(seedCSV))
	ctx := context.Background()
	err := s.ReplaceProject(ctx, "해운대 1차", []core.UnitSaleRecord{
		{Project: "해운대 1차", ProductType: core.RetailShop, UnitID: "1F-01"},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	recs, _ := s.FetchRecords(ctx, core.Query{Project: "해운대 1차"})
	if len(recs) != 1 || recs[0].ProductType != core.RetailShop {
		t.Fatalf("after replace = %+v", recs)
	}
	all, _ := s.FetchRecords(ctx, core.Query{})
	if len(all) != 2 {
		t.Fatalf("other projects should be kept, got %d records", len(all))
	}
	if err := s.ReplaceProject(ctx, " ", nil); !errors.Is(err, core.ErrEmptyProject) {
		t.Fatalf("want ErrEmptyProject, got %v", err)
	}
}

func TestPairs(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	for i, p := range []core.ProjectPair{{Main: "A-01", Option: "OP-01"}, {Main: "A-02", Option: "OP-02"}} {
		ref, err := s.AppendPair(ctx, p)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if want := "mem:" + string(rune('1'+i)); ref != want {
			t.Fatalf("ref = %q, want %q", ref, want)
		}
	}
	pairs, _ := s.ListPairs(ctx)
	if len(pairs) != 2 || pairs[0].Main != "A-02" {
		t.Fatalf("pairs = %+v", pairs)
	}
	if _, err := s.AppendPair(ctx, core.ProjectPair{Main: "x"}); !errors.Is(err, core.ErrEmptyPairCode) {
		t.Fatalf("want ErrEmptyPairCode, got %v", err)
	}
}

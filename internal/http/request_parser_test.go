package http

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/trades"
)

func TestParseReportParams(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		project   string
		asOf      string
		types     []core.ProductType
		wantError bool
	}{
		{name: "empty", query: ""},
		{name: "project only", query: "project=+해운대+", project: "해운대"},
		{name: "as of", query: "project=a&as_of=2024.03", project: "a", asOf: "2024-03"},
		{name: "types", query: "types=아파트,상가&types=오피스텔", types: []core.ProductType{core.Apartment, core.RetailShop, core.Officetel}},
		{name: "bad as of", query: "as_of=march", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseReportParams(q)
			if tt.wantError {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("want errBadRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Query.Project != tt.project {
				t.Errorf("project = %q, want %q", got.Query.Project, tt.project)
			}
			asOf := ""
			if got.Query.AsOf != nil {
				asOf = got.Query.AsOf.String()
			}
			if asOf != tt.asOf {
				t.Errorf("as_of = %q, want %q", asOf, tt.asOf)
			}
			if len(got.Types) != len(tt.types) {
				t.Fatalf("types = %v, want %v", got.Types, tt.types)
			}
			for i := range tt.types {
				if got.Types[i] != tt.types[i] {
					t.Errorf("types[%d] = %q, want %q", i, got.Types[i], tt.types[i])
				}
			}
		})
	}
}

func TestParseTradeParams(t *testing.T) {
	base := "kind=아파트+매매&sido=서울특별시&sigungu=강남구"
	tests := []struct {
		name      string
		query     string
		wantError bool
		check     func(t *testing.T, p trades.Params)
	}{
		{
			name:  "defaults",
			query: base,
			check: func(t *testing.T, p trades.Params) {
				if p.AreaMin != 59 || p.AreaMax != 85 || !p.Since.IsZero() {
					t.Errorf("params = %+v", p)
				}
			},
		},
		{
			name:  "explicit band and since",
			query: base + "&ex_min=30&ex_max=60.5&since=2024-05-31&dong=역삼동",
			check: func(t *testing.T, p trades.Params) {
				want := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
				if p.AreaMin != 30 || p.AreaMax != 60.5 || !p.Since.Equal(want) || p.Dong != "역삼동" {
					t.Errorf("params = %+v", p)
				}
			},
		},
		{name: "non numeric area", query: base + "&ex_min=abc", wantError: true},
		{name: "bad since", query: base + "&since=2024/05/31", wantError: true},
		{name: "missing region", query: "kind=분양권", wantError: true},
		{name: "unknown kind", query: "kind=토지&sido=서울특별시&sigungu=강남구", wantError: true},
		{name: "inverted band", query: base + "&ex_min=90&ex_max=60", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			p, err := ParseTradeParams(q)
			if tt.wantError {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("want errBadRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		main    string
		wantErr bool
	}{
		{"json", `{"main":" A-01 ","option":"OP"}`, "A-01", false},
		{"json number", `{"main":1201}`, "1201", false},
		{"form", "main=A-02&option=OP", "A-02", false},
		{"empty", "", "", false},
		{"broken json", `{"main":`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRequestBodyParser(httptest.NewRequest("POST", "/", strings.NewReader(tt.body)))
			err := p.Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p.Get("main") != tt.main {
				t.Errorf("Get(main) = %q, want %q", p.Get("main"), tt.main)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  해운대\x00 1차\n "); got != "해운대 1차" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}

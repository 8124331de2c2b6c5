//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"salesdash/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_GoogleSheetsFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") == "" &&
		os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") == "" &&
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewFromEnv(ctx)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	var projects []string
	t.Run("ProjectLister", func(t *testing.T) {
		projects, err = client.ListProjects(ctx)
		if err != nil {
			t.Fatalf("Failed to list projects: %v", err)
		}
		t.Logf("Found %d projects", len(projects))

		seen := make(map[string]bool)
		for _, p := range projects {
			if seen[p] {
				t.Errorf("Duplicate project found: %s", p)
			}
			seen[p] = true
		}
	})

	t.Run("RecordSource", func(t *testing.T) {
		if len(projects) == 0 {
			t.Skip("No projects available for test")
		}
		recs, err := client.FetchRecords(ctx, core.Query{Project: projects[0]})
		if err != nil {
			t.Fatalf("Failed to fetch records: %v", err)
		}
		t.Logf("Project %q has %d records", projects[0], len(recs))

		for i, r := range recs {
			if r.ProductType == "" {
				t.Errorf("Record %d: product type should not be empty", i)
			}
			if r.Amount < 0 {
				t.Errorf("Record %d: amount should not be negative, got %d", i, r.Amount)
			}
		}
	})

	t.Run("PairRegistry", func(t *testing.T) {
		pairs, err := client.ListPairs(ctx)
		if err != nil {
			t.Fatalf("Failed to list pairs: %v", err)
		}
		t.Logf("Found %d project pairs", len(pairs))
	})
}

func TestIntegration_ErrorHandling(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") == "" && os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, Options{SpreadsheetID: "invalid-spreadsheet-id"})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if _, err := client.FetchRecords(ctx, core.Query{}); err == nil {
		t.Error("Expected error with invalid spreadsheet ID")
	}
}

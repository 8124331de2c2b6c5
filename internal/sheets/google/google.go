package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"salesdash/internal/core"
	ports "salesdash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const source = "google_sheets"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	salesSheet    string
	pairSheet     string
}

// Ensure interface conformance
var (
	_ ports.RecordSource  = (*Client)(nil)
	_ ports.ProjectLister = (*Client)(nil)
	_ ports.PairRegistry  = (*Client)(nil)
)

// Options names the spreadsheet and its tabs.
type Options struct {
	SpreadsheetID string
	SalesSheet    string
	PairSheet     string
}

func (o Options) withDefaults() Options {
	o.SpreadsheetID = strings.TrimSpace(o.SpreadsheetID)
	if strings.TrimSpace(o.SalesSheet) == "" {
		o.SalesSheet = "분양"
	}
	if strings.TrimSpace(o.PairSheet) == "" {
		o.PairSheet = "pj_pair"
	}
	return o
}

// New creates a Sheets client authenticated with service account credentials
// from the environment.
func New(ctx context.Context, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, opts), nil
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional sheet names: GOOGLE_SALES_SHEET_NAME (default "분양"),
// GOOGLE_PAIR_SHEET_NAME (default "pj_pair").
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Options{
		SpreadsheetID: os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SalesSheet:    os.Getenv("GOOGLE_SALES_SHEET_NAME"),
		PairSheet:     os.Getenv("GOOGLE_PAIR_SHEET_NAME"),
	})
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		salesSheet:    opts.SalesSheet,
		pairSheet:     opts.PairSheet,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "credentials_size", len(credentialsJSON))
	return service, nil
}

// FetchRecords reads the sales sheet and returns the records selected by q.
func (c *Client) FetchRecords(ctx context.Context, q core.Query) ([]core.UnitSaleRecord, error) {
	records, layout, err := c.readSales(ctx)
	if err != nil {
		return nil, core.Unavailable(source, "fetch", err)
	}
	out, ignoredAsOf := ports.Select(records, q, layout)
	if ignoredAsOf {
		slog.WarnContext(ctx, "Sales sheet has no report month column, ignoring as-of filter",
			"sheet", c.salesSheet, "as_of", q.AsOf.String())
	}
	slog.DebugContext(ctx, "Fetched sales records",
		"sheet", c.salesSheet, "project", q.Project, "rows", len(records), "selected", len(out))
	return out, nil
}

// ListProjects implements ports.ProjectLister
func (c *Client) ListProjects(ctx context.Context) ([]string, error) {
	records, _, err := c.readSales(ctx)
	if err != nil {
		return nil, core.Unavailable(source, "list projects", err)
	}
	return ports.Projects(records), nil
}

func (c *Client) readSales(ctx context.Context) ([]core.UnitSaleRecord, ports.Layout, error) {
	values, err := c.readRange(ctx, quoteSheet(c.salesSheet))
	if err != nil {
		return nil, ports.Layout{}, err
	}
	records, layout, err := ports.DecodeTable(values)
	if err != nil {
		return nil, layout, fmt.Errorf("decode %s: %w", c.salesSheet, err)
	}
	if len(layout.Unknown) > 0 {
		slog.DebugContext(ctx, "Ignoring unknown sales columns", "sheet", c.salesSheet, "columns", layout.Unknown)
	}
	return records, layout, nil
}

// ListPairs returns the registered project code pairs, newest first.
func (c *Client) ListPairs(ctx context.Context) ([]core.ProjectPair, error) {
	values, err := c.readRange(ctx, quoteSheet(c.pairSheet)+"!A:B")
	if err != nil {
		return nil, core.Unavailable(source, "list pairs", err)
	}
	return parsePairs(values), nil
}

// AppendPair adds a row to the pair sheet and returns the updated range.
func (c *Client) AppendPair(ctx context.Context, p core.ProjectPair) (string, error) {
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := quoteSheet(c.pairSheet) + "!A:B"
	vr := &gsheet.ValueRange{Values: [][]any{{strings.TrimSpace(p.Main), strings.TrimSpace(p.Option)}}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", core.Unavailable(source, "append pair", fmt.Errorf("append %s: %w", rng, err))
	}
	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Project pair appended", "main", p.Main, "option", p.Option, "sheets_ref", ref)
	return ref, nil
}

func (c *Client) readRange(ctx context.Context, rng string) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = toStrings(row)
	}
	return out, nil
}

func parsePairs(values [][]string) []core.ProjectPair {
	var pairs []core.ProjectPair
	for i, row := range values {
		mainCode, option := safeGet(row, 0), safeGet(row, 1)
		if i == 0 && (mainCode == "본공사" || strings.EqualFold(mainCode, "main")) {
			continue
		}
		if mainCode == "" && option == "" {
			continue
		}
		pairs = append(pairs, core.ProjectPair{Main: mainCode, Option: option})
	}
	for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	}
	return pairs
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// quoteSheet quotes a tab name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(strings.TrimSpace(name), "'", "''") + "'"
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

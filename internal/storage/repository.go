package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"salesdash/internal/core"
	ports "salesdash/internal/sheets"

	_ "modernc.org/sqlite"
)

const source = "sqlite"

// SQLiteRepository mirrors the sales sheet and the pair registry locally.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var (
	_ ports.RecordSource  = (*SQLiteRepository)(nil)
	_ ports.ProjectLister = (*SQLiteRepository)(nil)
	_ ports.PairRegistry  = (*SQLiteRepository)(nil)
	_ ports.ProjectWriter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FetchRecords implements sheets.RecordSource. The as-of filter is dropped
// when no mirrored row of the project carries a report month. At most
// core.MaxFetchRows rows are returned.
func (r *SQLiteRepository) FetchRecords(ctx context.Context, q core.Query) ([]core.UnitSaleRecord, error) {
	params := ListUnitSalesParams{
		Project: strings.TrimSpace(q.Project),
		Limit:   core.MaxFetchRows,
	}
	if q.AsOf != nil {
		has, err := r.queries.HasReportMonths(ctx, params.Project)
		if err != nil {
			return nil, core.Unavailable(source, "fetch", err)
		}
		if has {
			params.ReportMonth = q.AsOf.String()
		} else {
			slog.WarnContext(ctx, "Mirror has no report months, ignoring as-of filter",
				"project", q.Project, "as_of", q.AsOf.String())
		}
	}

	rows, err := r.queries.ListUnitSales(ctx, params)
	if err != nil {
		return nil, core.Unavailable(source, "fetch", err)
	}
	if len(rows) >= core.MaxFetchRows {
		slog.WarnContext(ctx, "Row limit reached, result truncated",
			"project", q.Project, "limit", core.MaxFetchRows)
	}

	records := make([]core.UnitSaleRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row))
	}
	return records, nil
}

// ListProjects implements sheets.ProjectLister
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]string, error) {
	projects, err := r.queries.ListProjects(ctx)
	if err != nil {
		return nil, core.Unavailable(source, "list projects", err)
	}
	if projects == nil {
		projects = []string{}
	}
	return projects, nil
}

// ReplaceProject implements sheets.ProjectWriter. The delete and inserts share
// one transaction so readers never see a half-synced project.
func (r *SQLiteRepository) ReplaceProject(ctx context.Context, project string, records []core.UnitSaleRecord) error {
	project = strings.TrimSpace(project)
	if project == "" {
		return core.ErrEmptyProject
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	deleted, err := qtx.DeleteProject(ctx, project)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", project, err)
	}
	for _, rec := range records {
		if err := qtx.InsertUnitSale(ctx, toParams(project, rec)); err != nil {
			return fmt.Errorf("insert unit %s: %w", rec.UnitID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Project mirrored to SQLite",
		"project", project,
		"deleted", deleted,
		"inserted", len(records))
	return nil
}

// CountRecords returns the number of mirrored rows.
func (r *SQLiteRepository) CountRecords(ctx context.Context) (int64, error) {
	n, err := r.queries.CountUnitSales(ctx)
	if err != nil {
		return 0, fmt.Errorf("count unit sales: %w", err)
	}
	return n, nil
}

// ListPairs implements sheets.PairRegistry
func (r *SQLiteRepository) ListPairs(ctx context.Context) ([]core.ProjectPair, error) {
	rows, err := r.queries.ListProjectPairs(ctx)
	if err != nil {
		return nil, core.Unavailable(source, "list pairs", err)
	}
	out := make([]core.ProjectPair, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.ProjectPair{Main: row.MainCode, Option: row.OptionCode})
	}
	return out, nil
}

// AppendPair implements sheets.PairRegistry
func (r *SQLiteRepository) AppendPair(ctx context.Context, p core.ProjectPair) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	row, err := r.queries.CreateProjectPair(ctx, strings.TrimSpace(p.Main), strings.TrimSpace(p.Option))
	if err != nil {
		return "", core.Unavailable(source, "append pair", err)
	}
	slog.InfoContext(ctx, "Project pair saved to SQLite",
		"id", row.ID,
		"main", row.MainCode,
		"option", row.OptionCode)
	return strconv.FormatInt(row.ID, 10), nil
}

func toRecord(row UnitSale) core.UnitSaleRecord {
	return core.UnitSaleRecord{
		Project:       row.Project,
		ProductType:   core.ProductType(row.ProductType),
		UnitID:        row.UnitID,
		Contract:      core.ParseContractStatus(row.ContractStatus),
		ContractMonth: row.ContractMonth,
		Payment:       core.ParsePaymentStatus(row.PaymentStatus),
		PaymentMonth:  row.PaymentMonth,
		Litigation:    core.ParseLitigationStatus(row.Litigation),
		Amount:        row.Amount,
		OccupancyCert: row.OccupancyCert,
		ReportMonth:   row.ReportMonth,
	}
}

// toParams stores months in canonical form; unparseable months are kept as text.
func toParams(project string, rec core.UnitSaleRecord) InsertUnitSaleParams {
	return InsertUnitSaleParams{
		Project:        project,
		ProductType:    string(rec.ProductType),
		UnitID:         rec.UnitID,
		ContractStatus: string(rec.Contract),
		ContractMonth:  canonicalMonth(rec.ContractMonth),
		PaymentStatus:  string(rec.Payment),
		PaymentMonth:   canonicalMonth(rec.PaymentMonth),
		Litigation:     string(rec.Litigation),
		Amount:         rec.Amount,
		OccupancyCert:  rec.OccupancyCert,
		ReportMonth:    canonicalMonth(rec.ReportMonth),
	}
}

func canonicalMonth(s string) string {
	if m, err := core.ParseMonth(s); err == nil {
		return m.String()
	}
	return strings.TrimSpace(s)
}

package trades

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"salesdash/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const source = "trades_db"

// Result is a generic table: column names plus row values.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Empty reports whether the lookup matched nothing.
func (r Result) Empty() bool { return len(r.Rows) == 0 }

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repository struct {
	db  Querier
	now func() time.Time
}

func New(db Querier) *Repository {
	return &Repository{db: db, now: time.Now}
}

// NewPool opens and pings a connection pool for the transaction database.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Search runs the lookup described by p. The id column is dropped from the result.
func (r *Repository) Search(ctx context.Context, p Params) (Result, error) {
	query, args, err := BuildQuery(p, r.now())
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return Result{}, core.Unavailable(source, "search", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	keep := make([]int, 0, len(fields))
	res := Result{Columns: make([]string, 0, len(fields)), Rows: [][]any{}}
	for i, f := range fields {
		if strings.EqualFold(f.Name, "id") {
			continue
		}
		keep = append(keep, i)
		res.Columns = append(res.Columns, f.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return Result{}, core.Unavailable(source, "scan", err)
		}
		row := make([]any, 0, len(keep))
		for _, i := range keep {
			row = append(row, plainValue(values[i]))
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, core.Unavailable(source, "search", err)
	}

	slog.InfoContext(ctx, "Trade lookup completed",
		"kind", string(p.Kind),
		"sido", p.Sido,
		"sigungu", p.Sigungu,
		"rows", len(res.Rows),
		"duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

// plainValue converts driver values into JSON and spreadsheet friendly ones.
func plainValue(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case time.Time:
		return x.Format("2006-01-02")
	case []byte:
		return string(x)
	default:
		return v
	}
}

package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type UnitSale struct {
	ID             int64
	Project        string
	ProductType    string
	UnitID         string
	ContractStatus string
	ContractMonth  string
	PaymentStatus  string
	PaymentMonth   string
	Litigation     string
	Amount         int64
	OccupancyCert  int64
	ReportMonth    string
	SyncedAt       time.Time
}

type ProjectPair struct {
	ID         int64
	MainCode   string
	OptionCode string
	CreatedAt  time.Time
}

const listUnitSales = `-- name: ListUnitSales :many
SELECT id, project, product_type, unit_id, contract_status, contract_month,
       payment_status, payment_month, litigation, amount, occupancy_cert,
       report_month, synced_at
FROM unit_sales
WHERE (? = '' OR instr(lower(project), lower(?)) > 0)
  AND (? = '' OR report_month = ?)
ORDER BY id
LIMIT ?
`

type ListUnitSalesParams struct {
	Project     string
	ReportMonth string
	Limit       int64
}

func (q *Queries) ListUnitSales(ctx context.Context, arg ListUnitSalesParams) ([]UnitSale, error) {
	rows, err := q.db.QueryContext(ctx, listUnitSales,
		arg.Project, arg.Project,
		arg.ReportMonth, arg.ReportMonth,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UnitSale
	for rows.Next() {
		var i UnitSale
		if err := rows.Scan(
			&i.ID,
			&i.Project,
			&i.ProductType,
			&i.UnitID,
			&i.ContractStatus,
			&i.ContractMonth,
			&i.PaymentStatus,
			&i.PaymentMonth,
			&i.Litigation,
			&i.Amount,
			&i.OccupancyCert,
			&i.ReportMonth,
			&i.SyncedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const hasReportMonths = `-- name: HasReportMonths :one
SELECT EXISTS(
    SELECT 1 FROM unit_sales
    WHERE report_month <> ''
      AND (? = '' OR instr(lower(project), lower(?)) > 0)
)
`

func (q *Queries) HasReportMonths(ctx context.Context, project string) (bool, error) {
	row := q.db.QueryRowContext(ctx, hasReportMonths, project, project)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listProjects = `-- name: ListProjects :many
SELECT project FROM unit_sales
WHERE trim(project) <> ''
GROUP BY project
ORDER BY MIN(id)
`

func (q *Queries) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listProjects)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var project string
		if err := rows.Scan(&project); err != nil {
			return nil, err
		}
		items = append(items, project)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteProject = `-- name: DeleteProject :execrows
DELETE FROM unit_sales WHERE project = ?
`

func (q *Queries) DeleteProject(ctx context.Context, project string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteProject, project)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertUnitSale = `-- name: InsertUnitSale :exec
INSERT INTO unit_sales (
    project, product_type, unit_id, contract_status, contract_month,
    payment_status, payment_month, litigation, amount, occupancy_cert, report_month
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertUnitSaleParams struct {
	Project        string
	ProductType    string
	UnitID         string
	ContractStatus string
	ContractMonth  string
	PaymentStatus  string
	PaymentMonth   string
	Litigation     string
	Amount         int64
	OccupancyCert  int64
	ReportMonth    string
}

func (q *Queries) InsertUnitSale(ctx context.Context, arg InsertUnitSaleParams) error {
	_, err := q.db.ExecContext(ctx, insertUnitSale,
		arg.Project,
		arg.ProductType,
		arg.UnitID,
		arg.ContractStatus,
		arg.ContractMonth,
		arg.PaymentStatus,
		arg.PaymentMonth,
		arg.Litigation,
		arg.Amount,
		arg.OccupancyCert,
		arg.ReportMonth,
	)
	return err
}

const countUnitSales = `-- name: CountUnitSales :one
SELECT COUNT(*) FROM unit_sales
`

func (q *Queries) CountUnitSales(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUnitSales)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createProjectPair = `-- name: CreateProjectPair :one
INSERT INTO project_pairs (main_code, option_code) VALUES (?, ?)
RETURNING id, main_code, option_code, created_at
`

func (q *Queries) CreateProjectPair(ctx context.Context, mainCode, optionCode string) (ProjectPair, error) {
	row := q.db.QueryRowContext(ctx, createProjectPair, mainCode, optionCode)
	var i ProjectPair
	err := row.Scan(&i.ID, &i.MainCode, &i.OptionCode, &i.CreatedAt)
	return i, err
}

const listProjectPairs = `-- name: ListProjectPairs :many
SELECT id, main_code, option_code, created_at FROM project_pairs
ORDER BY id DESC
`

func (q *Queries) ListProjectPairs(ctx context.Context) ([]ProjectPair, error) {
	rows, err := q.db.QueryContext(ctx, listProjectPairs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProjectPair
	for rows.Next() {
		var i ProjectPair
		if err := rows.Scan(&i.ID, &i.MainCode, &i.OptionCode, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"hospital-portal/api/internal/report"
)

var ErrNotFound = sql.ErrNoRows

// ArchivedReport is the Postgres copy of one analysis.
type ArchivedReport struct {
	ID        string
	CreatedAt time.Time
	Engine    string
	Model     string
	Analysis  report.MedicalReportAnalysis
}

// Archive mirrors each analysis into Postgres with the full JSON.
type Archive struct{ DB *sql.DB }

func NewArchive(db *sql.DB) *Archive { return &Archive{DB: db} }

// OpenArchive connects with the pgx driver and creates the table if needed.
func OpenArchive(ctx context.Context, dsn string) (*Archive, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	a := NewArchive(db)
	if err := a.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

var migrations = []string{
	`create table if not exists lab_reports (
  seq         bigserial primary key,
  report_id   text        not null,
  created_at  timestamptz not null,
  engine      text        not null,
  model       text        not null,
  test_type   text        not null,
  has_concern boolean     not null,
  analysis    jsonb       not null
)`,
	`create index if not exists lab_reports_report_id_idx on lab_reports (report_id)`,
}

func (a *Archive) Migrate(ctx context.Context) error {
	for _, q := range migrations {
		if _, err := a.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate lab_reports: %w", err)
		}
	}
	return nil
}

// Save inserts one row. Report ids may repeat in legacy mode, so there is no
// uniqueness constraint on report_id.
func (a *Archive) Save(ctx context.Context, r ArchivedReport) error {
	js, err := json.Marshal(r.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	const q = `
insert into lab_reports (report_id, created_at, engine, model, test_type, has_concern, analysis)
values ($1, $2, $3, $4, $5, $6, $7)`
	_, err = a.DB.ExecContext(ctx, q, r.ID, r.CreatedAt, r.Engine, r.Model, r.Analysis.Type, len(r.Analysis.Concerns) > 0, js)
	if err != nil {
		return fmt.Errorf("insert lab_report: %w", err)
	}
	return nil
}

// FindByID returns the newest archived analysis for id.
func (a *Archive) FindByID(ctx context.Context, id string) (*ArchivedReport, error) {
	const q = `
select report_id, created_at, engine, model, analysis
from lab_reports
where report_id = $1
order by created_at desc, seq desc
limit 1`
	var (
		out ArchivedReport
		js  []byte
	)
	err := a.DB.QueryRowContext(ctx, q, id).Scan(&out.ID, &out.CreatedAt, &out.Engine, &out.Model, &js)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(js, &out.Analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &out, nil
}

func (a *Archive) Close() error { return a.DB.Close() }

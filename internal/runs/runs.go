// Package runs stores the audit history of polling cycles in Postgres.
// The history is informational; dedup state never reads from it.
package runs

import (
	"context"
	"time"

	"github.com/example/campwatch/internal/db"
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

type Run struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    string    `json:"outcome"`
	Windows    int       `json:"windows"`
	Available  int       `json:"available"`
	Notified   int       `json:"notified"`
	Delivered  bool      `json:"delivered"`
	ErrorClass string    `json:"error_class,omitempty"`
	Error      *string   `json:"error,omitempty"`
}

func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Record(ctx context.Context, run Run) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO cycle_runs(started_at,finished_at,outcome,windows,available,notified,delivered,error_class,error)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`,
		run.StartedAt, run.FinishedAt, run.Outcome, run.Windows, run.Available, run.Notified, run.Delivered, run.ErrorClass, run.Error,
	).Scan(&id)
	return id, db.WrapNotFound(err)
}

// Recent returns up to limit runs, newest first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `
SELECT id,started_at,finished_at,outcome,windows,available,notified,delivered,error_class,error
FROM cycle_runs
ORDER BY started_at DESC, id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID, &run.StartedAt, &run.FinishedAt, &run.Outcome, &run.Windows, &run.Available, &run.Notified,
			&run.Delivered, &run.ErrorClass, &run.Error,
		); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get returns one run or internaltypes.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id int64) (Run, error) {
	var run Run
	err := r.db.QueryRow(ctx, `
SELECT id,started_at,finished_at,outcome,windows,available,notified,delivered,error_class,error
FROM cycle_runs
WHERE id=$1`, id).
		Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Outcome, &run.Windows, &run.Available, &run.Notified,
			&run.Delivered, &run.ErrorClass, &run.Error)
	if err != nil {
		return Run{}, db.WrapNotFound(err)
	}
	return run, nil
}

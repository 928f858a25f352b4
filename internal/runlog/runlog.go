// Package runlog records analysis runs so operators can audit when each
// discovery, grid refresh, or scoring pass ran and what it produced.
package runlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gms-foundation/gms-cli/internal/db"
)

// Run is one recorded analysis execution.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Detail      string     `json:"detail,omitempty"`
	RecordCount int64      `json:"record_count"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Recorder persists run bookkeeping rows.
type Recorder struct {
	pool db.Pool
	log  *zap.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(pool db.Pool) *Recorder {
	return &Recorder{pool: pool, log: zap.L().With(zap.String("component", "gms.runlog"))}
}

// Start inserts a running row and returns it.
func (r *Recorder) Start(ctx context.Context, kind string) (*Run, error) {
	run := &Run{
		ID:        uuid.New(),
		Kind:      kind,
		Status:    "running",
		StartedAt: time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO gms.analysis_runs (id, kind, status, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Kind, run.Status, run.StartedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "runlog: start %s", kind)
	}
	r.log.Info("run started", zap.String("run_id", run.ID.String()), zap.String("kind", kind))
	return run, nil
}

// Complete marks the run succeeded with the number of records produced.
func (r *Recorder) Complete(ctx context.Context, run *Run, recordCount int64) error {
	return r.finish(ctx, run, "completed", "", recordCount)
}

// Fail marks the run failed, keeping the error text for diagnosis.
func (r *Recorder) Fail(ctx context.Context, run *Run, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return r.finish(ctx, run, "failed", detail, run.RecordCount)
}

func (r *Recorder) finish(ctx context.Context, run *Run, status, detail string, recordCount int64) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`UPDATE gms.analysis_runs SET status = $2, detail = $3, record_count = $4, finished_at = $5 WHERE id = $1`,
		run.ID, status, detail, recordCount, now)
	if err != nil {
		return eris.Wrapf(err, "runlog: finish %s", run.ID)
	}
	run.Status = status
	run.Detail = detail
	run.RecordCount = recordCount
	run.FinishedAt = &now
	r.log.Info("run finished",
		zap.String("run_id", run.ID.String()),
		zap.String("status", status),
		zap.Int64("records", recordCount))
	return nil
}

// Recent returns the most recent runs, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, status, detail, record_count, started_at, finished_at
		FROM gms.analysis_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list recent runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Kind, &run.Status, &run.Detail, &run.RecordCount, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run row")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

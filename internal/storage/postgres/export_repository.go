package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExportRepository struct {
	pool *pgxpool.Pool
}

func NewExportRepository(pool *pgxpool.Pool) *ExportRepository {
	return &ExportRepository{pool: pool}
}

func (r *ExportRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ExportRepository) Create(ctx context.Context, j domain.ExportJob) error {
	const stmt = `
INSERT INTO export_jobs (id, event_id, format, status_filter, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := exec(ctx, r.pool, stmt, j.ID, j.EventID, j.Format, j.StatusFilter, j.Status, j.CreatedAt); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

const exportColumns = `id, event_id, format, status_filter, status, payload, content_type, error, created_at, started_at, finished_at`

func scanExportJob(row pgx.Row) (domain.ExportJob, error) {
	var j domain.ExportJob
	var format, status string
	err := row.Scan(&j.ID, &j.EventID, &format, &j.StatusFilter, &status,
		&j.Payload, &j.ContentType, &j.Error, &j.CreatedAt, &j.StartedAt, &j.FinishedAt)
	j.Format = domain.ExportFormat(format)
	j.Status = domain.ExportStatus(status)
	return j, err
}

func (r *ExportRepository) Get(ctx context.Context, eventID, id string) (domain.ExportJob, error) {
	const q = `SELECT ` + exportColumns + ` FROM export_jobs WHERE id = $1 AND event_id = $2`

	j, err := scanExportJob(queryRow(ctx, r.pool, q, id, eventID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ExportJob{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.ExportJob{}, domain.ErrExportNotFound
		}
		return domain.ExportJob{}, fmt.Errorf("get export job: %w", err)
	}
	return j, nil
}

// ClaimNext picks the oldest queued job and marks it running. SKIP LOCKED
// lets multiple workers poll without stepping on each other.
func (r *ExportRepository) ClaimNext(ctx context.Context, now time.Time) (*domain.ExportJob, error) {
	const stmt = `
UPDATE export_jobs SET status = 'running', started_at = $1
WHERE id = (
	SELECT id FROM export_jobs
	WHERE status = 'queued'
	ORDER BY created_at
	LIMIT 1
	FOR UPDATE SKIP LOCKED)
RETURNING ` + exportColumns

	j, err := scanExportJob(queryRow(ctx, r.pool, stmt, now))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("claim export job: %w", err)
	}
	return &j, nil
}

func (r *ExportRepository) MarkDone(ctx context.Context, id string, payload []byte, contentType string, finishedAt time.Time) error {
	const stmt = `
UPDATE export_jobs SET status = 'done', payload = $2, content_type = $3, finished_at = $4
WHERE id = $1`

	if _, err := exec(ctx, r.pool, stmt, id, payload, contentType, finishedAt); err != nil {
		return fmt.Errorf("mark export done: %w", err)
	}
	return nil
}

func (r *ExportRepository) MarkFailed(ctx context.Context, id, errMsg string, finishedAt time.Time) error {
	const stmt = `
UPDATE export_jobs SET status = 'failed', error = $2, finished_at = $3
WHERE id = $1`

	if _, err := exec(ctx, r.pool, stmt, id, errMsg, finishedAt); err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	return nil
}

// RequeueStale returns jobs to the queue whose worker died after claiming
// them. Without this a crashed worker would leave the job running forever.
func (r *ExportRepository) RequeueStale(ctx context.Context, cutoff time.Time) error {
	const stmt = `
UPDATE export_jobs SET status = 'queued', started_at = NULL
WHERE status = 'running' AND started_at < $1`

	if _, err := exec(ctx, r.pool, stmt, cutoff); err != nil {
		return fmt.Errorf("requeue stale exports: %w", err)
	}
	return nil
}

// PruneExpired drops artifacts past the retention window so they stop being
// downloadable.
func (r *ExportRepository) PruneExpired(ctx context.Context, cutoff time.Time) error {
	const stmt = `
UPDATE export_jobs SET payload = NULL
WHERE status = 'done' AND payload IS NOT NULL AND finished_at < $1`

	if _, err := exec(ctx, r.pool, stmt, cutoff); err != nil {
		return fmt.Errorf("prune exports: %w", err)
	}
	return nil
}

func (r *ExportRepository) ListOrdersForExport(ctx context.Context, eventID, status string) ([]domain.Order, error) {
	orders := NewOrderRepository(r.pool)
	return orders.ListForExport(ctx, eventID, status)
}

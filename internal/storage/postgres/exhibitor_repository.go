package postgres

import (
	"context"
	"fmt"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExhibitorRepository struct {
	pool *pgxpool.Pool
}

func NewExhibitorRepository(pool *pgxpool.Pool) *ExhibitorRepository {
	return &ExhibitorRepository{pool: pool}
}

func (r *ExhibitorRepository) Create(ctx context.Context, e domain.Exhibitor) error {
	const stmt = `
INSERT INTO exhibitors (id, organizer_id, name, booth, access_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := exec(ctx, r.pool, stmt, e.ID, e.OrganizerID, e.Name, e.Booth, e.AccessKey, e.CreatedAt); err != nil {
		return fmt.Errorf("create exhibitor: %w", err)
	}
	return nil
}

func (r *ExhibitorRepository) Get(ctx context.Context, organizerID, id string) (domain.Exhibitor, error) {
	const q = `
SELECT id, organizer_id, name, booth, access_key, created_at
FROM exhibitors WHERE id = $1 AND organizer_id = $2`

	var e domain.Exhibitor
	err := queryRow(ctx, r.pool, q, id, organizerID).
		Scan(&e.ID, &e.OrganizerID, &e.Name, &e.Booth, &e.AccessKey, &e.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Exhibitor{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Exhibitor{}, domain.ErrExhibitorNotFound
		}
		return domain.Exhibitor{}, fmt.Errorf("get exhibitor: %w", err)
	}
	return e, nil
}

func (r *ExhibitorRepository) List(ctx context.Context, organizerID string, limit, offset int) ([]domain.Exhibitor, int, error) {
	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM exhibitors WHERE organizer_id = $1`, organizerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count exhibitors: %w", err)
	}

	const q = `
SELECT id, organizer_id, name, booth, access_key, created_at
FROM exhibitors WHERE organizer_id = $1 ORDER BY name, id LIMIT $2 OFFSET $3`

	rows, err := query(ctx, r.pool, q, organizerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list exhibitors: %w", err)
	}
	defer rows.Close()

	exhibitors := make([]domain.Exhibitor, 0, limit)
	for rows.Next() {
		var e domain.Exhibitor
		if err := rows.Scan(&e.ID, &e.OrganizerID, &e.Name, &e.Booth, &e.AccessKey, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan exhibitor: %w", err)
		}
		exhibitors = append(exhibitors, e)
	}
	return exhibitors, total, rows.Err()
}

func (r *ExhibitorRepository) Update(ctx context.Context, e domain.Exhibitor) error {
	const stmt = `UPDATE exhibitors SET name = $2, booth = $3 WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, e.ID, e.Name, e.Booth)
	if err != nil {
		return fmt.Errorf("update exhibitor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExhibitorNotFound
	}
	return nil
}

func (r *ExhibitorRepository) UpdateAccessKey(ctx context.Context, id, accessKey string) error {
	tag, err := exec(ctx, r.pool, `UPDATE exhibitors SET access_key = $2 WHERE id = $1`, id, accessKey)
	if err != nil {
		return fmt.Errorf("rotate access key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExhibitorNotFound
	}
	return nil
}

func (r *ExhibitorRepository) Delete(ctx context.Context, id string) error {
	tag, err := exec(ctx, r.pool, `DELETE FROM exhibitors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exhibitor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExhibitorNotFound
	}
	return nil
}

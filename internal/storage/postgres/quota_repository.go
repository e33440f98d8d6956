package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QuotaRepository struct {
	pool *pgxpool.Pool
}

func NewQuotaRepository(pool *pgxpool.Pool) *QuotaRepository {
	return &QuotaRepository{pool: pool}
}

func (r *QuotaRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *QuotaRepository) Create(ctx context.Context, q domain.Quota) error {
	const stmt = `
INSERT INTO quotas (id, event_id, subevent_id, name, size)
VALUES ($1, $2, $3, $4, $5)`

	if _, err := exec(ctx, r.pool, stmt, q.ID, q.EventID, q.SubeventID, q.Name, q.Size); err != nil {
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create quota: %w", err)
	}
	return r.replaceLinks(ctx, q)
}

func (r *QuotaRepository) Get(ctx context.Context, eventID, id string) (domain.Quota, error) {
	const q = `SELECT id, event_id, subevent_id, name, size FROM quotas WHERE id = $1 AND event_id = $2`

	var quota domain.Quota
	err := queryRow(ctx, r.pool, q, id, eventID).
		Scan(&quota.ID, &quota.EventID, &quota.SubeventID, &quota.Name, &quota.Size)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Quota{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Quota{}, domain.ErrQuotaNotFound
		}
		return domain.Quota{}, fmt.Errorf("get quota: %w", err)
	}
	if err := r.loadLinks(ctx, &quota); err != nil {
		return domain.Quota{}, err
	}
	return quota, nil
}

func (r *QuotaRepository) List(ctx context.Context, eventID string, limit, offset int) ([]domain.Quota, int, error) {
	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM quotas WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotas: %w", err)
	}

	const q = `
SELECT id, event_id, subevent_id, name, size
FROM quotas WHERE event_id = $1 ORDER BY name, id LIMIT $2 OFFSET $3`

	rows, err := query(ctx, r.pool, q, eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list quotas: %w", err)
	}
	defer rows.Close()

	quotas := make([]domain.Quota, 0, limit)
	for rows.Next() {
		var quota domain.Quota
		if err := rows.Scan(&quota.ID, &quota.EventID, &quota.SubeventID, &quota.Name, &quota.Size); err != nil {
			return nil, 0, fmt.Errorf("scan quota: %w", err)
		}
		quotas = append(quotas, quota)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range quotas {
		if err := r.loadLinks(ctx, &quotas[i]); err != nil {
			return nil, 0, err
		}
	}
	return quotas, total, nil
}

func (r *QuotaRepository) Update(ctx context.Context, q domain.Quota) error {
	const stmt = `UPDATE quotas SET name = $2, size = $3, subevent_id = $4 WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, q.ID, q.Name, q.Size, q.SubeventID)
	if err != nil {
		return fmt.Errorf("update quota: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuotaNotFound
	}
	return r.replaceLinks(ctx, q)
}

func (r *QuotaRepository) Delete(ctx context.Context, id string) error {
	tag, err := exec(ctx, r.pool, `DELETE FROM quotas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete quota: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuotaNotFound
	}
	return nil
}

func (r *QuotaRepository) ComputeAvailability(ctx context.Context, q domain.Quota, now time.Time) (domain.QuotaAvailability, error) {
	return computeAvailability(ctx, r.pool, q, now)
}

// replaceLinks rewrites the quota_items rows: one row per plain item, one
// row per covered variation (resolved to its item).
func (r *QuotaRepository) replaceLinks(ctx context.Context, q domain.Quota) error {
	if _, err := exec(ctx, r.pool, `DELETE FROM quota_items WHERE quota_id = $1`, q.ID); err != nil {
		return fmt.Errorf("clear quota items: %w", err)
	}
	if len(q.ItemIDs) > 0 {
		const stmt = `
INSERT INTO quota_items (quota_id, item_id)
SELECT $1, i.id FROM items i WHERE i.id = ANY($2) AND i.event_id = $3`
		tag, err := exec(ctx, r.pool, stmt, q.ID, q.ItemIDs, q.EventID)
		if err != nil {
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("link quota items: %w", err)
		}
		if int(tag.RowsAffected()) != len(q.ItemIDs) {
			return domain.ErrItemNotFound
		}
	}
	if len(q.VariationIDs) > 0 {
		const stmt = `
INSERT INTO quota_items (quota_id, item_id, variation_id)
SELECT $1, iv.item_id, iv.id
FROM item_variations iv
JOIN items i ON i.id = iv.item_id
WHERE iv.id = ANY($2) AND i.event_id = $3`
		tag, err := exec(ctx, r.pool, stmt, q.ID, q.VariationIDs, q.EventID)
		if err != nil {
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("link quota variations: %w", err)
		}
		if int(tag.RowsAffected()) != len(q.VariationIDs) {
			return domain.ErrItemNotFound
		}
	}
	return nil
}

func (r *QuotaRepository) loadLinks(ctx context.Context, q *domain.Quota) error {
	const sel = `SELECT item_id, variation_id FROM quota_items WHERE quota_id = $1 ORDER BY item_id`

	rows, err := query(ctx, r.pool, sel, q.ID)
	if err != nil {
		return fmt.Errorf("load quota items: %w", err)
	}
	defer rows.Close()

	q.ItemIDs = q.ItemIDs[:0]
	q.VariationIDs = q.VariationIDs[:0]
	for rows.Next() {
		var itemID string
		var variationID *string
		if err := rows.Scan(&itemID, &variationID); err != nil {
			return fmt.Errorf("scan quota item: %w", err)
		}
		if variationID != nil {
			q.VariationIDs = append(q.VariationIDs, *variationID)
		} else {
			q.ItemIDs = append(q.ItemIDs, itemID)
		}
	}
	return rows.Err()
}

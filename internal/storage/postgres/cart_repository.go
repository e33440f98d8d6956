package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *CartRepository) GetItem(ctx context.Context, eventID, itemID string) (domain.Item, error) {
	items := NewItemRepository(r.pool)
	return items.Get(ctx, eventID, itemID)
}

func (r *CartRepository) LockQuotasForItem(ctx context.Context, eventID, itemID string, variationID, subeventID *string) ([]domain.Quota, error) {
	return lockQuotasForItem(ctx, r.pool, eventID, itemID, variationID, subeventID)
}

func (r *CartRepository) ComputeAvailability(ctx context.Context, q domain.Quota, now time.Time) (domain.QuotaAvailability, error) {
	return computeAvailability(ctx, r.pool, q, now)
}

func (r *CartRepository) Create(ctx context.Context, p domain.CartPosition) error {
	const stmt = `
INSERT INTO cart_positions (id, event_id, subevent_id, item_id, variation_id, seat_id, price, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := exec(ctx, r.pool, stmt,
		p.ID, p.EventID, p.SubeventID, p.ItemID, p.VariationID, p.SeatID, p.Price, p.ExpiresAt, p.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create cart position: %w", err)
	}
	return nil
}

const cartColumns = `id, event_id, subevent_id, item_id, variation_id, seat_id, price, expires_at, created_at`

func scanCartPosition(row pgx.Row) (domain.CartPosition, error) {
	var p domain.CartPosition
	err := row.Scan(&p.ID, &p.EventID, &p.SubeventID, &p.ItemID, &p.VariationID, &p.SeatID, &p.Price, &p.ExpiresAt, &p.CreatedAt)
	return p, err
}

func (r *CartRepository) Get(ctx context.Context, eventID, id string) (domain.CartPosition, error) {
	const q = `SELECT ` + cartColumns + ` FROM cart_positions WHERE id = $1 AND event_id = $2`

	p, err := scanCartPosition(queryRow(ctx, r.pool, q, id, eventID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.CartPosition{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.CartPosition{}, domain.ErrCartPositionNotFound
		}
		return domain.CartPosition{}, fmt.Errorf("get cart position: %w", err)
	}
	return p, nil
}

func (r *CartRepository) List(ctx context.Context, eventID string, limit, offset int) ([]domain.CartPosition, int, error) {
	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM cart_positions WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cart positions: %w", err)
	}

	const q = `SELECT ` + cartColumns + `
FROM cart_positions WHERE event_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`

	rows, err := query(ctx, r.pool, q, eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list cart positions: %w", err)
	}
	defer rows.Close()

	positions := make([]domain.CartPosition, 0, limit)
	for rows.Next() {
		p, err := scanCartPosition(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan cart position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, total, rows.Err()
}

func (r *CartRepository) Delete(ctx context.Context, id string) error {
	tag, err := exec(ctx, r.pool, `DELETE FROM cart_positions WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete cart position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartPositionNotFound
	}
	return nil
}

func (r *CartRepository) GetSeatForUpdate(ctx context.Context, eventID, seatID string) (domain.Seat, error) {
	return getSeatForUpdate(ctx, r.pool, eventID, seatID)
}

func (r *CartRepository) SeatTaken(ctx context.Context, seatID string, now time.Time) (bool, error) {
	return seatTaken(ctx, r.pool, seatID, now)
}

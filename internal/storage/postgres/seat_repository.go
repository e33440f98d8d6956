package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SeatRepository struct {
	pool *pgxpool.Pool
}

func NewSeatRepository(pool *pgxpool.Pool) *SeatRepository {
	return &SeatRepository{pool: pool}
}

func (r *SeatRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *SeatRepository) Create(ctx context.Context, s domain.Seat) error {
	const stmt = `
INSERT INTO seats (id, event_id, subevent_id, guid, seat_row, seat_number, item_id, blocked)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := exec(ctx, r.pool, stmt,
		s.ID, s.EventID, s.SubeventID, s.GUID, s.Row, s.Number, s.ItemID, s.Blocked,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSeatTaken
		}
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create seat: %w", err)
	}
	return nil
}

func (r *SeatRepository) Get(ctx context.Context, eventID, id string) (domain.Seat, error) {
	const q = `
SELECT id, event_id, subevent_id, guid, seat_row, seat_number, item_id, blocked
FROM seats WHERE id = $1 AND event_id = $2`

	var s domain.Seat
	err := queryRow(ctx, r.pool, q, id, eventID).
		Scan(&s.ID, &s.EventID, &s.SubeventID, &s.GUID, &s.Row, &s.Number, &s.ItemID, &s.Blocked)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Seat{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Seat{}, domain.ErrSeatNotFound
		}
		return domain.Seat{}, fmt.Errorf("get seat: %w", err)
	}
	return s, nil
}

// List returns seats with a computed is_available flag alongside.
func (r *SeatRepository) List(ctx context.Context, eventID string, subeventID *string, now time.Time, limit, offset int) ([]domain.Seat, []bool, int, error) {
	var total int
	const countQ = `SELECT COUNT(*) FROM seats WHERE event_id = $1 AND ($2::uuid IS NULL OR subevent_id = $2)`
	if err := queryRow(ctx, r.pool, countQ, eventID, subeventID).Scan(&total); err != nil {
		return nil, nil, 0, fmt.Errorf("count seats: %w", err)
	}

	const q = `
SELECT s.id, s.event_id, s.subevent_id, s.guid, s.seat_row, s.seat_number, s.item_id, s.blocked,
  NOT s.blocked
  AND NOT EXISTS (SELECT 1 FROM cart_positions cp WHERE cp.seat_id = s.id AND cp.expires_at > $2)
  AND NOT EXISTS (
	SELECT 1 FROM order_positions op
	JOIN orders o ON o.id = op.order_id
	WHERE op.seat_id = s.id AND o.status IN ('pending', 'paid')) AS is_available
FROM seats s
WHERE s.event_id = $1 AND ($3::uuid IS NULL OR s.subevent_id = $3)
ORDER BY s.seat_row, s.seat_number, s.guid
LIMIT $4 OFFSET $5`

	rows, err := query(ctx, r.pool, q, eventID, now, subeventID, limit, offset)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0, limit)
	available := make([]bool, 0, limit)
	for rows.Next() {
		var s domain.Seat
		var avail bool
		if err := rows.Scan(&s.ID, &s.EventID, &s.SubeventID, &s.GUID, &s.Row, &s.Number, &s.ItemID, &s.Blocked, &avail); err != nil {
			return nil, nil, 0, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, s)
		available = append(available, avail)
	}
	return seats, available, total, rows.Err()
}

func getSeatForUpdate(ctx context.Context, pool *pgxpool.Pool, eventID, seatID string) (domain.Seat, error) {
	const q = `
SELECT id, event_id, subevent_id, guid, seat_row, seat_number, item_id, blocked
FROM seats WHERE id = $1 AND event_id = $2
FOR UPDATE`

	var s domain.Seat
	err := queryRow(ctx, pool, q, seatID, eventID).
		Scan(&s.ID, &s.EventID, &s.SubeventID, &s.GUID, &s.Row, &s.Number, &s.ItemID, &s.Blocked)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Seat{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Seat{}, domain.ErrSeatNotFound
		}
		return domain.Seat{}, fmt.Errorf("get seat: %w", err)
	}
	return s, nil
}

// seatTaken reports whether a valid cart position or a pending/paid order
// position currently occupies the seat.
func seatTaken(ctx context.Context, pool *pgxpool.Pool, seatID string, now time.Time) (bool, error) {
	const q = `
SELECT EXISTS (SELECT 1 FROM cart_positions WHERE seat_id = $1 AND expires_at > $2)
  OR EXISTS (
	SELECT 1 FROM order_positions op
	JOIN orders o ON o.id = op.order_id
	WHERE op.seat_id = $1 AND o.status IN ('pending', 'paid'))`

	var taken bool
	if err := queryRow(ctx, pool, q, seatID, now).Scan(&taken); err != nil {
		return false, fmt.Errorf("seat taken: %w", err)
	}
	return taken, nil
}

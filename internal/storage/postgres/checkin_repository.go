package postgres

import (
	"context"
	"fmt"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckinRepository struct {
	pool *pgxpool.Pool
}

func NewCheckinRepository(pool *pgxpool.Pool) *CheckinRepository {
	return &CheckinRepository{pool: pool}
}

func (r *CheckinRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *CheckinRepository) CreateList(ctx context.Context, l domain.CheckinList) error {
	const stmt = `
INSERT INTO checkin_lists (id, event_id, name, all_items, subevent_id, include_pending)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := exec(ctx, r.pool, stmt,
		l.ID, l.EventID, l.Name, l.AllItems, l.SubeventID, l.IncludePending,
	); err != nil {
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create checkin list: %w", err)
	}
	return r.replaceListItems(ctx, l)
}

func (r *CheckinRepository) GetList(ctx context.Context, eventID, id string) (domain.CheckinList, error) {
	const q = `
SELECT id, event_id, name, all_items, subevent_id, include_pending
FROM checkin_lists WHERE id = $1 AND event_id = $2`

	var l domain.CheckinList
	err := queryRow(ctx, r.pool, q, id, eventID).
		Scan(&l.ID, &l.EventID, &l.Name, &l.AllItems, &l.SubeventID, &l.IncludePending)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.CheckinList{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.CheckinList{}, domain.ErrCheckinListNotFound
		}
		return domain.CheckinList{}, fmt.Errorf("get checkin list: %w", err)
	}
	if err := r.loadListItems(ctx, &l); err != nil {
		return domain.CheckinList{}, err
	}
	return l, nil
}

func (r *CheckinRepository) ListLists(ctx context.Context, eventID string, limit, offset int) ([]domain.CheckinList, int, error) {
	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM checkin_lists WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count checkin lists: %w", err)
	}

	const q = `
SELECT id, event_id, name, all_items, subevent_id, include_pending
FROM checkin_lists WHERE event_id = $1 ORDER BY name, id LIMIT $2 OFFSET $3`

	rows, err := query(ctx, r.pool, q, eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list checkin lists: %w", err)
	}
	defer rows.Close()

	lists := make([]domain.CheckinList, 0, limit)
	for rows.Next() {
		var l domain.CheckinList
		if err := rows.Scan(&l.ID, &l.EventID, &l.Name, &l.AllItems, &l.SubeventID, &l.IncludePending); err != nil {
			return nil, 0, fmt.Errorf("scan checkin list: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range lists {
		if err := r.loadListItems(ctx, &lists[i]); err != nil {
			return nil, 0, err
		}
	}
	return lists, total, nil
}

func (r *CheckinRepository) UpdateList(ctx context.Context, l domain.CheckinList) error {
	const stmt = `
UPDATE checkin_lists SET name = $2, all_items = $3, subevent_id = $4, include_pending = $5
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, l.ID, l.Name, l.AllItems, l.SubeventID, l.IncludePending)
	if err != nil {
		return fmt.Errorf("update checkin list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCheckinListNotFound
	}
	return r.replaceListItems(ctx, l)
}

func (r *CheckinRepository) DeleteList(ctx context.Context, id string) error {
	tag, err := exec(ctx, r.pool, `DELETE FROM checkin_lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete checkin list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCheckinListNotFound
	}
	return nil
}

// ListStatus counts the positions in scope of the list and the distinct
// positions that have an entry check-in.
func (r *CheckinRepository) ListStatus(ctx context.Context, l domain.CheckinList) (domain.CheckinListStatus, error) {
	var st domain.CheckinListStatus

	const positions = `
SELECT COUNT(*)
FROM order_positions op
JOIN orders o ON o.id = op.order_id
WHERE o.event_id = $1
  AND (o.status = 'paid' OR ($2 AND o.status = 'pending'))
  AND ($3::uuid IS NULL OR op.subevent_id = $3)
  AND ($4 OR EXISTS (SELECT 1 FROM checkin_list_items cli WHERE cli.list_id = $5 AND cli.item_id = op.item_id))`

	if err := queryRow(ctx, r.pool, positions,
		l.EventID, l.IncludePending, l.SubeventID, l.AllItems, l.ID,
	).Scan(&st.PositionCount); err != nil {
		return st, fmt.Errorf("count positions: %w", err)
	}

	const checkins = `
SELECT COUNT(DISTINCT position_id) FROM checkins WHERE list_id = $1 AND type = 'entry'`

	if err := queryRow(ctx, r.pool, checkins, l.ID).Scan(&st.CheckinCount); err != nil {
		return st, fmt.Errorf("count checkins: %w", err)
	}
	return st, nil
}

// GetPositionWithOrder resolves an order position of the event together
// with its order.
func (r *CheckinRepository) GetPositionWithOrder(ctx context.Context, eventID, positionID string) (domain.OrderPosition, domain.Order, error) {
	const q = `
SELECT op.id, op.order_id, op.position_id, op.item_id, op.variation_id, op.subevent_id, op.seat_id, op.voucher_id, op.price, op.attendee_name, op.secret,
  o.id, o.event_id, o.code, o.status, o.email, o.customer_id, o.total, o.expires_at, o.testmode, o.created_at
FROM order_positions op
JOIN orders o ON o.id = op.order_id
WHERE op.id = $1 AND o.event_id = $2`

	var p domain.OrderPosition
	var o domain.Order
	var status string
	err := queryRow(ctx, r.pool, q, positionID, eventID).Scan(
		&p.ID, &p.OrderID, &p.PositionID, &p.ItemID, &p.VariationID, &p.SubeventID,
		&p.SeatID, &p.VoucherID, &p.Price, &p.AttendeeName, &p.Secret,
		&o.ID, &o.EventID, &o.Code, &status, &o.Email, &o.CustomerID,
		&o.Total, &o.ExpiresAt, &o.Testmode, &o.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return p, o, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return p, o, domain.ErrPositionNotFound
		}
		return p, o, fmt.Errorf("get position with order: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	return p, o, nil
}

func (r *CheckinRepository) FindCheckinByNonce(ctx context.Context, listID, positionID, nonce string) (*domain.Checkin, error) {
	const q = `
SELECT id, list_id, position_id, type, nonce, created_at
FROM checkins WHERE list_id = $1 AND position_id = $2 AND nonce = $3`

	var c domain.Checkin
	var typ string
	err := queryRow(ctx, r.pool, q, listID, positionID, nonce).
		Scan(&c.ID, &c.ListID, &c.PositionID, &typ, &c.Nonce, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find checkin by nonce: %w", err)
	}
	c.Type = domain.CheckinType(typ)
	return &c, nil
}

func (r *CheckinRepository) HasEntryCheckin(ctx context.Context, listID, positionID string) (bool, error) {
	var exists bool
	err := queryRow(ctx, r.pool,
		`SELECT EXISTS (SELECT 1 FROM checkins WHERE list_id = $1 AND position_id = $2 AND type = 'entry')`,
		listID, positionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has entry checkin: %w", err)
	}
	return exists, nil
}

func (r *CheckinRepository) CreateCheckin(ctx context.Context, c domain.Checkin) error {
	const stmt = `
INSERT INTO checkins (id, list_id, position_id, type, nonce, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := exec(ctx, r.pool, stmt, c.ID, c.ListID, c.PositionID, c.Type, c.Nonce, c.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyRedeemed
		}
		return fmt.Errorf("create checkin: %w", err)
	}
	return nil
}

func (r *CheckinRepository) replaceListItems(ctx context.Context, l domain.CheckinList) error {
	if _, err := exec(ctx, r.pool, `DELETE FROM checkin_list_items WHERE list_id = $1`, l.ID); err != nil {
		return fmt.Errorf("clear list items: %w", err)
	}
	if l.AllItems || len(l.ItemIDs) == 0 {
		return nil
	}
	const stmt = `
INSERT INTO checkin_list_items (list_id, item_id)
SELECT $1, i.id FROM items i WHERE i.id = ANY($2) AND i.event_id = $3`
	tag, err := exec(ctx, r.pool, stmt, l.ID, l.ItemIDs, l.EventID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("link list items: %w", err)
	}
	if int(tag.RowsAffected()) != len(l.ItemIDs) {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *CheckinRepository) loadListItems(ctx context.Context, l *domain.CheckinList) error {
	rows, err := query(ctx, r.pool,
		`SELECT item_id FROM checkin_list_items WHERE list_id = $1 ORDER BY item_id`, l.ID)
	if err != nil {
		return fmt.Errorf("load list items: %w", err)
	}
	defer rows.Close()

	l.ItemIDs = l.ItemIDs[:0]
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan list item: %w", err)
		}
		l.ItemIDs = append(l.ItemIDs, id)
	}
	return rows.Err()
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) GetItem(ctx context.Context, eventID, itemID string) (domain.Item, error) {
	items := NewItemRepository(r.pool)
	return items.Get(ctx, eventID, itemID)
}

func (r *OrderRepository) LockQuotasForItem(ctx context.Context, eventID, itemID string, variationID, subeventID *string) ([]domain.Quota, error) {
	return lockQuotasForItem(ctx, r.pool, eventID, itemID, variationID, subeventID)
}

func (r *OrderRepository) ComputeAvailability(ctx context.Context, q domain.Quota, now time.Time) (domain.QuotaAvailability, error) {
	return computeAvailability(ctx, r.pool, q, now)
}

func (r *OrderRepository) GetSeatForUpdate(ctx context.Context, eventID, seatID string) (domain.Seat, error) {
	return getSeatForUpdate(ctx, r.pool, eventID, seatID)
}

func (r *OrderRepository) SeatTaken(ctx context.Context, seatID string, now time.Time) (bool, error) {
	return seatTaken(ctx, r.pool, seatID, now)
}

const orderColumns = `id, event_id, code, status, email, customer_id, total, expires_at, testmode, created_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.EventID, &o.Code, &status, &o.Email, &o.CustomerID,
		&o.Total, &o.ExpiresAt, &o.Testmode, &o.CreatedAt)
	o.Status = domain.OrderStatus(status)
	return o, err
}

func (r *OrderRepository) Create(ctx context.Context, o domain.Order) error {
	const stmt = `
INSERT INTO orders (id, event_id, code, status, email, customer_id, total, expires_at, testmode, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := exec(ctx, r.pool, stmt,
		o.ID, o.EventID, o.Code, o.Status, o.Email, o.CustomerID, o.Total, o.ExpiresAt, o.Testmode, o.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderCodeTaken
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) CreatePosition(ctx context.Context, p domain.OrderPosition) error {
	const stmt = `
INSERT INTO order_positions (id, order_id, position_id, item_id, variation_id, subevent_id, seat_id, voucher_id, price, attendee_name, secret)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := exec(ctx, r.pool, stmt,
		p.ID, p.OrderID, p.PositionID, p.ItemID, p.VariationID, p.SubeventID,
		p.SeatID, p.VoucherID, p.Price, p.AttendeeName, p.Secret,
	)
	if err != nil {
		return fmt.Errorf("create order position: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByCode(ctx context.Context, eventID, code string) (domain.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE event_id = $1 AND code = $2`

	o, err := scanOrder(queryRow(ctx, r.pool, q, eventID, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// GetByCodeForUpdate locks the order row without waiting. A row held by a
// concurrent transition surfaces as ErrOrderLocked so the client can retry.
func (r *OrderRepository) GetByCodeForUpdate(ctx context.Context, eventID, code string) (domain.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE event_id = $1 AND code = $2 FOR UPDATE NOWAIT`

	o, err := scanOrder(queryRow(ctx, r.pool, q, eventID, code))
	if err != nil {
		if isLockNotAvailable(err) {
			return domain.Order{}, domain.ErrOrderLocked
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("lock order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) List(ctx context.Context, eventID, status, email string, limit, offset int) ([]domain.Order, int, error) {
	const where = ` FROM orders
WHERE event_id = $1 AND ($2 = '' OR status = $2) AND ($3 = '' OR email = $3)`

	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*)`+where, eventID, status, email).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := query(ctx, r.pool,
		`SELECT `+orderColumns+where+` ORDER BY created_at, code LIMIT $4 OFFSET $5`,
		eventID, status, email, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, int, error) {
	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customer orders: %w", err)
	}

	rows, err := query(ctx, r.pool,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at, code LIMIT $2 OFFSET $3`,
		customerID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list customer orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *OrderRepository) ListForExport(ctx context.Context, eventID, status string) ([]domain.Order, error) {
	rows, err := query(ctx, r.pool,
		`SELECT `+orderColumns+` FROM orders WHERE event_id = $1 AND ($2 = '' OR status = $2) ORDER BY created_at, code`,
		eventID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders for export: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	tag, err := exec(ctx, r.pool, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) UpdateTotal(ctx context.Context, orderID, total string) error {
	tag, err := exec(ctx, r.pool, `UPDATE orders SET total = $2 WHERE id = $1`, orderID, total)
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

const positionColumns = `id, order_id, position_id, item_id, variation_id, subevent_id, seat_id, voucher_id, price, attendee_name, secret`

func scanPosition(row pgx.Row) (domain.OrderPosition, error) {
	var p domain.OrderPosition
	err := row.Scan(&p.ID, &p.OrderID, &p.PositionID, &p.ItemID, &p.VariationID,
		&p.SubeventID, &p.SeatID, &p.VoucherID, &p.Price, &p.AttendeeName, &p.Secret)
	return p, err
}

func (r *OrderRepository) ListPositions(ctx context.Context, orderID string) ([]domain.OrderPosition, error) {
	rows, err := query(ctx, r.pool,
		`SELECT `+positionColumns+` FROM order_positions WHERE order_id = $1 ORDER BY position_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.OrderPosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (r *OrderRepository) GetPosition(ctx context.Context, orderID, positionID string) (domain.OrderPosition, error) {
	const q = `SELECT ` + positionColumns + ` FROM order_positions WHERE id = $1 AND order_id = $2`

	p, err := scanPosition(queryRow(ctx, r.pool, q, positionID, orderID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.OrderPosition{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.OrderPosition{}, domain.ErrPositionNotFound
		}
		return domain.OrderPosition{}, fmt.Errorf("get position: %w", err)
	}
	return p, nil
}

func (r *OrderRepository) DeletePosition(ctx context.Context, id string) error {
	tag, err := exec(ctx, r.pool, `DELETE FROM order_positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPositionNotFound
	}
	return nil
}

func (r *OrderRepository) GetCartPositionsForUpdate(ctx context.Context, eventID string, ids []string) ([]domain.CartPosition, error) {
	const q = `SELECT ` + cartColumns + `
FROM cart_positions WHERE event_id = $1 AND id = ANY($2) ORDER BY id FOR UPDATE`

	rows, err := query(ctx, r.pool, q, eventID, ids)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("lock cart positions: %w", err)
	}
	defer rows.Close()

	positions := make([]domain.CartPosition, 0, len(ids))
	for rows.Next() {
		p, err := scanCartPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(positions) != len(ids) {
		return nil, domain.ErrCartPositionNotFound
	}
	return positions, nil
}

func (r *OrderRepository) DeleteCartPositions(ctx context.Context, ids []string) error {
	if _, err := exec(ctx, r.pool, `DELETE FROM cart_positions WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete cart positions: %w", err)
	}
	return nil
}

const voucherColumns = `id, event_id, code, max_usages, redeemed, price_mode, value, item_id, block_quota, exhibitor_id, valid_until, created_at`

func (r *OrderRepository) GetVoucherByCodeForUpdate(ctx context.Context, eventID, code string) (domain.Voucher, error) {
	const q = `SELECT ` + voucherColumns + ` FROM vouchers WHERE event_id = $1 AND code = $2 FOR UPDATE`

	v, err := scanVoucher(queryRow(ctx, r.pool, q, eventID, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Voucher{}, domain.ErrVoucherNotFound
		}
		return domain.Voucher{}, fmt.Errorf("lock voucher: %w", err)
	}
	return v, nil
}

// IncrementVoucherRedeemed consumes one usage; the budget guard lives in the
// UPDATE predicate so concurrent redemptions cannot overshoot.
func (r *OrderRepository) IncrementVoucherRedeemed(ctx context.Context, voucherID string) error {
	const stmt = `UPDATE vouchers SET redeemed = redeemed + 1 WHERE id = $1 AND redeemed < max_usages`

	tag, err := exec(ctx, r.pool, stmt, voucherID)
	if err != nil {
		return fmt.Errorf("redeem voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVoucherBudgetExceeded
	}
	return nil
}

func (r *OrderRepository) DecrementVoucherRedeemed(ctx context.Context, voucherID string) error {
	const stmt = `UPDATE vouchers SET redeemed = redeemed - 1 WHERE id = $1 AND redeemed > 0`

	if _, err := exec(ctx, r.pool, stmt, voucherID); err != nil {
		return fmt.Errorf("release voucher: %w", err)
	}
	return nil
}

// NextInvoiceNumber increments the per-organizer sequence and returns the
// formatted invoice number.
func (r *OrderRepository) NextInvoiceNumber(ctx context.Context, organizerID, prefix string) (string, error) {
	const stmt = `
INSERT INTO invoice_sequences (organizer_id, prefix, last_number)
VALUES ($1, $2, 1)
ON CONFLICT (organizer_id) DO UPDATE SET last_number = invoice_sequences.last_number + 1
RETURNING prefix, last_number`

	var p string
	var n int
	if err := queryRow(ctx, r.pool, stmt, organizerID, prefix).Scan(&p, &n); err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return fmt.Sprintf("%s-%05d", p, n), nil
}

func (r *OrderRepository) CreateInvoice(ctx context.Context, inv domain.Invoice) error {
	const stmt = `
INSERT INTO invoices (id, event_id, order_id, number, is_cancellation, refers_to, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := exec(ctx, r.pool, stmt,
		inv.ID, inv.EventID, inv.OrderID, inv.Number, inv.IsCancellation, inv.RefersTo, inv.CreatedAt,
	); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	for _, line := range inv.Lines {
		const lineStmt = `
INSERT INTO invoice_lines (id, invoice_id, position, description, gross_value)
VALUES ($1, $2, $3, $4, $5)`
		if _, err := exec(ctx, r.pool, lineStmt, line.ID, inv.ID, line.Position, line.Description, line.GrossValue); err != nil {
			return fmt.Errorf("create invoice line: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) LatestInvoiceForOrder(ctx context.Context, orderID string) (*domain.Invoice, error) {
	const q = `
SELECT id, event_id, order_id, number, is_cancellation, refers_to, created_at
FROM invoices WHERE order_id = $1 ORDER BY created_at DESC, number DESC LIMIT 1`

	var inv domain.Invoice
	err := queryRow(ctx, r.pool, q, orderID).
		Scan(&inv.ID, &inv.EventID, &inv.OrderID, &inv.Number, &inv.IsCancellation, &inv.RefersTo, &inv.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest invoice: %w", err)
	}
	return &inv, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VoucherRepository struct {
	pool *pgxpool.Pool
}

func NewVoucherRepository(pool *pgxpool.Pool) *VoucherRepository {
	return &VoucherRepository{pool: pool}
}

func scanVoucher(row pgx.Row) (domain.Voucher, error) {
	var v domain.Voucher
	var mode string
	err := row.Scan(&v.ID, &v.EventID, &v.Code, &v.MaxUsages, &v.Redeemed, &mode,
		&v.Value, &v.ItemID, &v.BlockQuota, &v.ExhibitorID, &v.ValidUntil, &v.CreatedAt)
	v.PriceMode = domain.PriceMode(mode)
	return v, err
}

func (r *VoucherRepository) Create(ctx context.Context, v domain.Voucher) error {
	const stmt = `
INSERT INTO vouchers (id, event_id, code, max_usages, redeemed, price_mode, value, item_id, block_quota, exhibitor_id, valid_until, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := exec(ctx, r.pool, stmt,
		v.ID, v.EventID, v.Code, v.MaxUsages, v.Redeemed, v.PriceMode, v.Value,
		v.ItemID, v.BlockQuota, v.ExhibitorID, v.ValidUntil, v.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVoucherCodeTaken
		}
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create voucher: %w", err)
	}
	return nil
}

func (r *VoucherRepository) Get(ctx context.Context, eventID, id string) (domain.Voucher, error) {
	const q = `SELECT ` + voucherColumns + ` FROM vouchers WHERE id = $1 AND event_id = $2`

	v, err := scanVoucher(queryRow(ctx, r.pool, q, id, eventID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Voucher{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Voucher{}, domain.ErrVoucherNotFound
		}
		return domain.Voucher{}, fmt.Errorf("get voucher: %w", err)
	}
	return v, nil
}

func (r *VoucherRepository) List(ctx context.Context, eventID string, limit, offset int) ([]domain.Voucher, int, error) {
	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM vouchers WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vouchers: %w", err)
	}

	const q = `SELECT ` + voucherColumns + `
FROM vouchers WHERE event_id = $1 ORDER BY code LIMIT $2 OFFSET $3`

	rows, err := query(ctx, r.pool, q, eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := make([]domain.Voucher, 0, limit)
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, total, rows.Err()
}

func (r *VoucherRepository) Update(ctx context.Context, v domain.Voucher) error {
	const stmt = `
UPDATE vouchers
SET max_usages = $2, price_mode = $3, value = $4, item_id = $5, block_quota = $6, exhibitor_id = $7, valid_until = $8
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt,
		v.ID, v.MaxUsages, v.PriceMode, v.Value, v.ItemID, v.BlockQuota, v.ExhibitorID, v.ValidUntil,
	)
	if err != nil {
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVoucherNotFound
	}
	return nil
}

func (r *VoucherRepository) Delete(ctx context.Context, id string) error {
	tag, err := exec(ctx, r.pool, `DELETE FROM vouchers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrVoucherRedeemed
		}
		return fmt.Errorf("delete voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVoucherNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// computeAvailability counts everything that occupies units of the quota:
// positions of paid and pending orders, unexpired cart positions and
// unredeemed block-quota vouchers. A position matches the quota when a
// quota_items link covers its item (links with a variation cover only that
// variation). Quotas bound to a subevent only count positions of that
// subevent; quotas without one count positions of every subevent.
func computeAvailability(ctx context.Context, pool *pgxpool.Pool, q domain.Quota, now time.Time) (domain.QuotaAvailability, error) {
	av := domain.QuotaAvailability{TotalSize: q.Size}

	const orderCount = `
SELECT COUNT(*)
FROM order_positions op
JOIN orders o ON o.id = op.order_id
WHERE o.status = $2
  AND ($3::uuid IS NULL OR op.subevent_id = $3)
  AND EXISTS (
	SELECT 1 FROM quota_items qi
	WHERE qi.quota_id = $1 AND qi.item_id = op.item_id
	  AND (qi.variation_id IS NULL OR qi.variation_id = op.variation_id))`

	if err := queryRow(ctx, pool, orderCount, q.ID, domain.OrderStatusPaid, q.SubeventID).Scan(&av.PaidOrders); err != nil {
		return av, fmt.Errorf("count paid positions: %w", err)
	}
	if err := queryRow(ctx, pool, orderCount, q.ID, domain.OrderStatusPending, q.SubeventID).Scan(&av.PendingOrders); err != nil {
		return av, fmt.Errorf("count pending positions: %w", err)
	}

	const cartCount = `
SELECT COUNT(*)
FROM cart_positions cp
WHERE cp.expires_at > $2
  AND ($3::uuid IS NULL OR cp.subevent_id = $3)
  AND EXISTS (
	SELECT 1 FROM quota_items qi
	WHERE qi.quota_id = $1 AND qi.item_id = cp.item_id
	  AND (qi.variation_id IS NULL OR qi.variation_id = cp.variation_id))`

	if err := queryRow(ctx, pool, cartCount, q.ID, now, q.SubeventID).Scan(&av.CartPositions); err != nil {
		return av, fmt.Errorf("count cart positions: %w", err)
	}

	const voucherCount = `
SELECT COALESCE(SUM(v.max_usages - v.redeemed), 0)
FROM vouchers v
WHERE v.block_quota
  AND v.redeemed < v.max_usages
  AND (v.valid_until IS NULL OR v.valid_until > $2)
  AND v.item_id IS NOT NULL
  AND EXISTS (
	SELECT 1 FROM quota_items qi
	WHERE qi.quota_id = $1 AND qi.item_id = v.item_id)`

	if err := queryRow(ctx, pool, voucherCount, q.ID, now).Scan(&av.BlockingVouchers); err != nil {
		return av, fmt.Errorf("count blocking vouchers: %w", err)
	}

	return av, nil
}

// lockQuotasForItem row-locks every quota of the event that covers the given
// item (and variation, when set), in stable order to avoid deadlocks between
// concurrent reservations. Quotas without a subevent apply to every subevent.
// Postgres forbids DISTINCT together with FOR UPDATE, so the quota_items
// match lives in an EXISTS subquery instead of a join.
func lockQuotasForItem(ctx context.Context, pool *pgxpool.Pool, eventID, itemID string, variationID, subeventID *string) ([]domain.Quota, error) {
	const q = `
SELECT q.id, q.event_id, q.subevent_id, q.name, q.size
FROM quotas q
WHERE q.event_id = $1
  AND (q.subevent_id IS NULL OR q.subevent_id = $4)
  AND EXISTS (
	SELECT 1 FROM quota_items qi
	WHERE qi.quota_id = q.id AND qi.item_id = $2
	  AND (qi.variation_id IS NULL OR qi.variation_id = $3))
ORDER BY q.id
FOR UPDATE`

	rows, err := query(ctx, pool, q, eventID, itemID, variationID, subeventID)
	if err != nil {
		return nil, fmt.Errorf("lock quotas: %w", err)
	}
	defer rows.Close()

	var quotas []domain.Quota
	for rows.Next() {
		var quota domain.Quota
		if err := rows.Scan(&quota.ID, &quota.EventID, &quota.SubeventID, &quota.Name, &quota.Size); err != nil {
			return nil, fmt.Errorf("scan quota: %w", err)
		}
		quotas = append(quotas, quota)
	}
	return quotas, rows.Err()
}

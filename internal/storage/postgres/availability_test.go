package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/foldline/boxoffice/internal/testutil"
)

func TestLockQuotasForItem(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewOrderRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("locks a covering quota inside a transaction", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		organizerID := testutil.InsertOrganizerWithToken(t, ctx, pool, "acme", "secret-1")
		eventID := testutil.InsertEvent(t, ctx, pool, organizerID, "democon")
		itemID := testutil.InsertItem(t, ctx, pool, eventID, "Ticket", "25.00")
		size := 10
		quotaID := testutil.InsertQuota(t, ctx, pool, eventID, itemID, &size)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			quotas, err := repo.LockQuotasForItem(txCtx, eventID, itemID, nil, nil)
			if err != nil {
				return err
			}
			if len(quotas) != 1 || quotas[0].ID != quotaID {
				t.Fatalf("unexpected quotas: %+v", quotas)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("returns each quota once despite multiple links", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		organizerID := testutil.InsertOrganizerWithToken(t, ctx, pool, "acme", "secret-1")
		eventID := testutil.InsertEvent(t, ctx, pool, organizerID, "democon")
		itemID := testutil.InsertItem(t, ctx, pool, eventID, "Ticket", "25.00")
		variationID := insertTestVariation(t, ctx, pool, itemID, "Early bird")
		size := 10
		quotaID := testutil.InsertQuota(t, ctx, pool, eventID, itemID, &size)
		if _, err := pool.Exec(ctx,
			`INSERT INTO quota_items (quota_id, item_id, variation_id) VALUES ($1, $2, $3)`,
			quotaID, itemID, variationID,
		); err != nil {
			t.Fatalf("insert variation link: %v", err)
		}

		quotas, err := repo.LockQuotasForItem(ctx, eventID, itemID, &variationID, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(quotas) != 1 {
			t.Fatalf("expected the quota once, got %d rows", len(quotas))
		}
	})

	t.Run("event-wide quota covers a subevent reservation", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		organizerID := testutil.InsertOrganizerWithToken(t, ctx, pool, "acme", "secret-1")
		eventID := testutil.InsertEvent(t, ctx, pool, organizerID, "democon")
		subeventID := insertTestSubevent(t, ctx, pool, eventID, "Day 1")
		itemID := testutil.InsertItem(t, ctx, pool, eventID, "Ticket", "25.00")
		size := 10
		quotaID := testutil.InsertQuota(t, ctx, pool, eventID, itemID, &size)

		quotas, err := repo.LockQuotasForItem(ctx, eventID, itemID, nil, &subeventID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(quotas) != 1 || quotas[0].ID != quotaID {
			t.Fatalf("expected the event-wide quota, got %+v", quotas)
		}
	})

	t.Run("subevent quota is invisible to other subevents", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		organizerID := testutil.InsertOrganizerWithToken(t, ctx, pool, "acme", "secret-1")
		eventID := testutil.InsertEvent(t, ctx, pool, organizerID, "democon")
		day1 := insertTestSubevent(t, ctx, pool, eventID, "Day 1")
		day2 := insertTestSubevent(t, ctx, pool, eventID, "Day 2")
		itemID := testutil.InsertItem(t, ctx, pool, eventID, "Ticket", "25.00")
		size := 10
		quotaID := testutil.InsertQuota(t, ctx, pool, eventID, itemID, &size)
		if _, err := pool.Exec(ctx, `UPDATE quotas SET subevent_id = $2 WHERE id = $1`, quotaID, day1); err != nil {
			t.Fatalf("scope quota: %v", err)
		}

		quotas, err := repo.LockQuotasForItem(ctx, eventID, itemID, nil, &day2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(quotas) != 0 {
			t.Fatalf("expected no quotas for the other subevent, got %+v", quotas)
		}

		quotas, err = repo.LockQuotasForItem(ctx, eventID, itemID, nil, &day1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(quotas) != 1 {
			t.Fatalf("expected the scoped quota, got %+v", quotas)
		}
	})
}

func TestComputeAvailability(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewQuotaRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	now := time.Now().UTC()

	t.Run("counts each occupancy bucket", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		organizerID := testutil.InsertOrganizerWithToken(t, ctx, pool, "acme", "secret-1")
		eventID := testutil.InsertEvent(t, ctx, pool, organizerID, "democon")
		itemID := testutil.InsertItem(t, ctx, pool, eventID, "Ticket", "25.00")
		size := 10
		quotaID := testutil.InsertQuota(t, ctx, pool, eventID, itemID, &size)

		insertTestOrderWithPosition(t, ctx, pool, eventID, "AAAA3", "paid", itemID, nil)
		insertTestOrderWithPosition(t, ctx, pool, eventID, "BBBB3", "pending", itemID, nil)
		insertTestCartPosition(t, ctx, pool, eventID, itemID, nil, now.Add(10*time.Minute))
		insertTestCartPosition(t, ctx, pool, eventID, itemID, nil, now.Add(-10*time.Minute))
		if _, err := pool.Exec(ctx, `
INSERT INTO vouchers (event_id, code, max_usages, redeemed, item_id, block_quota)
VALUES ($1, 'BLOCK', 2, 0, $2, TRUE)`,
			eventID, itemID,
		); err != nil {
			t.Fatalf("insert voucher: %v", err)
		}

		av, err := repo.ComputeAvailability(ctx, domain.Quota{ID: quotaID, EventID: eventID, Size: &size}, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if av.PaidOrders != 1 || av.PendingOrders != 1 {
			t.Fatalf("unexpected order counts: %+v", av)
		}
		if av.CartPositions != 1 {
			t.Fatalf("expected only the unexpired cart position, got %d", av.CartPositions)
		}
		if av.BlockingVouchers != 2 {
			t.Fatalf("expected 2 blocked units, got %d", av.BlockingVouchers)
		}
		if left := av.AvailableNumber(); left == nil || *left != 5 {
			t.Fatalf("unexpected availability: %+v", av)
		}
	})

	t.Run("event-wide quota sees subevent positions", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		organizerID := testutil.InsertOrganizerWithToken(t, ctx, pool, "acme", "secret-1")
		eventID := testutil.InsertEvent(t, ctx, pool, organizerID, "democon")
		subeventID := insertTestSubevent(t, ctx, pool, eventID, "Day 1")
		itemID := testutil.InsertItem(t, ctx, pool, eventID, "Ticket", "25.00")
		size := 10
		quotaID := testutil.InsertQuota(t, ctx, pool, eventID, itemID, &size)

		insertTestOrderWithPosition(t, ctx, pool, eventID, "CCCC3", "paid", itemID, &subeventID)

		av, err := repo.ComputeAvailability(ctx, domain.Quota{ID: quotaID, EventID: eventID, Size: &size}, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if av.PaidOrders != 1 {
			t.Fatalf("expected the subevent position counted, got %d", av.PaidOrders)
		}
	})

	t.Run("subevent quota ignores other subevents", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		organizerID := testutil.InsertOrganizerWithToken(t, ctx, pool, "acme", "secret-1")
		eventID := testutil.InsertEvent(t, ctx, pool, organizerID, "democon")
		day1 := insertTestSubevent(t, ctx, pool, eventID, "Day 1")
		day2 := insertTestSubevent(t, ctx, pool, eventID, "Day 2")
		itemID := testutil.InsertItem(t, ctx, pool, eventID, "Ticket", "25.00")
		size := 10
		quotaID := testutil.InsertQuota(t, ctx, pool, eventID, itemID, &size)
		if _, err := pool.Exec(ctx, `UPDATE quotas SET subevent_id = $2 WHERE id = $1`, quotaID, day1); err != nil {
			t.Fatalf("scope quota: %v", err)
		}

		insertTestOrderWithPosition(t, ctx, pool, eventID, "DDDD3", "paid", itemID, &day1)
		insertTestOrderWithPosition(t, ctx, pool, eventID, "EEEE3", "paid", itemID, &day2)

		av, err := repo.ComputeAvailability(ctx, domain.Quota{ID: quotaID, EventID: eventID, SubeventID: &day1, Size: &size}, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if av.PaidOrders != 1 {
			t.Fatalf("expected only the scoped subevent counted, got %d", av.PaidOrders)
		}
	})
}

func insertTestSubevent(t *testing.T, ctx context.Context, pool *pgxpool.Pool, eventID, name string) string {
	t.Helper()
	var id string
	if err := pool.QueryRow(ctx,
		`INSERT INTO subevents (event_id, name) VALUES ($1, $2) RETURNING id`,
		eventID, name,
	).Scan(&id); err != nil {
		t.Fatalf("insert subevent: %v", err)
	}
	return id
}

func insertTestVariation(t *testing.T, ctx context.Context, pool *pgxpool.Pool, itemID, value string) string {
	t.Helper()
	var id string
	if err := pool.QueryRow(ctx,
		`INSERT INTO item_variations (item_id, value) VALUES ($1, $2) RETURNING id`,
		itemID, value,
	).Scan(&id); err != nil {
		t.Fatalf("insert variation: %v", err)
	}
	return id
}

func insertTestOrderWithPosition(t *testing.T, ctx context.Context, pool *pgxpool.Pool, eventID, code, status, itemID string, subeventID *string) (string, string) {
	t.Helper()
	var orderID string
	if err := pool.QueryRow(ctx, `
INSERT INTO orders (event_id, code, status, email, total, expires_at)
VALUES ($1, $2, $3, 'ada@b.test', '25.00', NOW() + INTERVAL '1 day')
RETURNING id`,
		eventID, code, status,
	).Scan(&orderID); err != nil {
		t.Fatalf("insert order: %v", err)
	}
	var positionID string
	if err := pool.QueryRow(ctx, `
INSERT INTO order_positions (order_id, position_id, item_id, subevent_id, price, secret)
VALUES ($1, 1, $2, $3, '25.00', $4)
RETURNING id`,
		orderID, itemID, subeventID, "secret-"+code,
	).Scan(&positionID); err != nil {
		t.Fatalf("insert position: %v", err)
	}
	return orderID, positionID
}

func insertTestCartPosition(t *testing.T, ctx context.Context, pool *pgxpool.Pool, eventID, itemID string, subeventID *string, expiresAt time.Time) string {
	t.Helper()
	var id string
	if err := pool.QueryRow(ctx, `
INSERT INTO cart_positions (event_id, subevent_id, item_id, price, expires_at)
VALUES ($1, $2, $3, '25.00', $4)
RETURNING id`,
		eventID, subeventID, itemID, expiresAt,
	).Scan(&id); err != nil {
		t.Fatalf("insert cart position: %v", err)
	}
	return id
}

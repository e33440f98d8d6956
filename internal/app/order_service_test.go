package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/domain"
)

var (
	testOrg   = domain.Organizer{ID: "org-1", Slug: "acme"}
	testEvent = domain.Event{ID: "event-1", OrganizerID: "org-1", Slug: "democon", Name: "DemoCon"}
)

func TestOrderService_Create(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	size := 10

	makeRepo := func() *fakeOrderRepo {
		repo := newFakeOrderRepo()
		repo.items["item-1"] = domain.Item{ID: "item-1", EventID: "event-1", Name: "Ticket", DefaultPrice: "25.00", Active: true}
		repo.quotas = []domain.Quota{{ID: "quota-1", EventID: "event-1", Size: &size, ItemIDs: []string{"item-1"}}}
		repo.avail["quota-1"] = domain.QuotaAvailability{TotalSize: &size, PaidOrders: 2}
		return repo
	}

	t.Run("requires email", func(t *testing.T) {
		svc := NewOrderService(makeRepo(), clock.NewFixed(now))
		_, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Positions: []OrderPositionInput{{ItemID: "item-1"}},
		})
		if err != domain.ErrEmailRequired {
			t.Fatalf("expected ErrEmailRequired, got %v", err)
		}
	})

	t.Run("requires at least one position", func(t *testing.T) {
		svc := NewOrderService(makeRepo(), clock.NewFixed(now))
		_, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{Email: "a@b.test"})
		if err != domain.ErrNoPositions {
			t.Fatalf("expected ErrNoPositions, got %v", err)
		}
	})

	t.Run("creates pending order from explicit positions", func(t *testing.T) {
		repo := makeRepo()
		svc := NewOrderService(repo, clock.NewFixed(now), WithPaymentTerm(24*time.Hour))

		order, positions, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email: "a@b.test",
			Positions: []OrderPositionInput{
				{ItemID: "item-1", AttendeeName: "Ada"},
				{ItemID: "item-1"},
			},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if order.Status != domain.OrderStatusPending {
			t.Fatalf("expected pending order, got %s", order.Status)
		}
		if len(order.Code) != 5 {
			t.Fatalf("expected 5-char code, got %q", order.Code)
		}
		if order.Total != "50.00" {
			t.Fatalf("expected total 50.00, got %s", order.Total)
		}
		if order.ExpiresAt != now.Add(24*time.Hour) {
			t.Fatalf("expected deadline %v, got %v", now.Add(24*time.Hour), order.ExpiresAt)
		}
		if len(positions) != 2 {
			t.Fatalf("expected 2 positions, got %d", len(positions))
		}
		if positions[0].PositionID != 1 || positions[1].PositionID != 2 {
			t.Fatalf("expected sequential position ids, got %d, %d", positions[0].PositionID, positions[1].PositionID)
		}
		if positions[0].Secret == "" || positions[0].Secret == positions[1].Secret {
			t.Fatalf("expected distinct non-empty secrets")
		}
		if positions[0].AttendeeName != "Ada" {
			t.Fatalf("expected attendee name, got %q", positions[0].AttendeeName)
		}
	})

	t.Run("fails when quota exhausted", func(t *testing.T) {
		repo := makeRepo()
		repo.avail["quota-1"] = domain.QuotaAvailability{TotalSize: &size, PaidOrders: 10}
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email:     "a@b.test",
			Positions: []OrderPositionInput{{ItemID: "item-1"}},
		})
		if err != domain.ErrInsufficientQuota {
			t.Fatalf("expected ErrInsufficientQuota, got %v", err)
		}
		if len(repo.orders) != 0 {
			t.Fatalf("expected no order persisted, got %d", len(repo.orders))
		}
	})

	t.Run("fails when no quota covers the item", func(t *testing.T) {
		repo := makeRepo()
		repo.quotas = nil
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email:     "a@b.test",
			Positions: []OrderPositionInput{{ItemID: "item-1"}},
		})
		if err != domain.ErrInsufficientQuota {
			t.Fatalf("expected ErrInsufficientQuota, got %v", err)
		}
	})

	t.Run("retries order code collisions", func(t *testing.T) {
		repo := makeRepo()
		repo.codeCollisions = 2
		svc := NewOrderService(repo, clock.NewFixed(now))

		order, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email:     "a@b.test",
			Positions: []OrderPositionInput{{ItemID: "item-1"}},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if order.Code == "" {
			t.Fatalf("expected code to be set")
		}
	})

	t.Run("gives up after repeated code collisions", func(t *testing.T) {
		repo := makeRepo()
		repo.codeCollisions = maxCodeAttempts
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email:     "a@b.test",
			Positions: []OrderPositionInput{{ItemID: "item-1"}},
		})
		if err != domain.ErrOrderCodeTaken {
			t.Fatalf("expected ErrOrderCodeTaken, got %v", err)
		}
	})

	t.Run("converts cart positions without re-checking quota", func(t *testing.T) {
		repo := makeRepo()
		repo.avail["quota-1"] = domain.QuotaAvailability{TotalSize: &size, PaidOrders: 10}
		repo.carts["cart-1"] = domain.CartPosition{
			ID: "cart-1", EventID: "event-1", ItemID: "item-1",
			Price: "25.00", ExpiresAt: now.Add(10 * time.Minute),
		}
		svc := NewOrderService(repo, clock.NewFixed(now))

		order, positions, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email:           "a@b.test",
			CartPositionIDs: []string{"cart-1"},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if order.Total != "25.00" {
			t.Fatalf("expected total 25.00, got %s", order.Total)
		}
		if len(positions) != 1 {
			t.Fatalf("expected 1 position, got %d", len(positions))
		}
		if _, ok := repo.carts["cart-1"]; ok {
			t.Fatalf("expected cart position to be consumed")
		}
	})

	t.Run("rejects expired cart positions", func(t *testing.T) {
		repo := makeRepo()
		repo.carts["cart-1"] = domain.CartPosition{
			ID: "cart-1", EventID: "event-1", ItemID: "item-1",
			Price: "25.00", ExpiresAt: now.Add(-time.Minute),
		}
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email:           "a@b.test",
			CartPositionIDs: []string{"cart-1"},
		})
		if err != domain.ErrCartPositionExpired {
			t.Fatalf("expected ErrCartPositionExpired, got %v", err)
		}
		if _, ok := repo.carts["cart-1"]; !ok {
			t.Fatalf("expected cart position to survive the failed order")
		}
	})

	t.Run("inherits testmode from the event", func(t *testing.T) {
		repo := makeRepo()
		svc := NewOrderService(repo, clock.NewFixed(now))
		testmodeEvent := testEvent
		testmodeEvent.Testmode = true

		order, _, err := svc.Create(context.Background(), testmodeEvent, CreateOrderInput{
			Email:     "a@b.test",
			Positions: []OrderPositionInput{{ItemID: "item-1"}},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !order.Testmode {
			t.Fatalf("expected testmode order")
		}
	})
}

func TestOrderService_CreateWithVoucher(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	size := 10

	makeRepo := func(v domain.Voucher) *fakeOrderRepo {
		repo := newFakeOrderRepo()
		repo.items["item-1"] = domain.Item{ID: "item-1", EventID: "event-1", Name: "Ticket", DefaultPrice: "25.00", Active: true}
		repo.quotas = []domain.Quota{{ID: "quota-1", EventID: "event-1", Size: &size, ItemIDs: []string{"item-1"}}}
		repo.avail["quota-1"] = domain.QuotaAvailability{TotalSize: &size}
		repo.vouchers[v.Code] = v
		return repo
	}

	t.Run("applies voucher discount", func(t *testing.T) {
		ten := "10.00"
		repo := makeRepo(domain.Voucher{
			ID: "v-1", EventID: "event-1", Code: "TENOFF",
			MaxUsages: 5, PriceMode: domain.PriceModeSubtract, Value: &ten,
		})
		svc := NewOrderService(repo, clock.NewFixed(now))

		order, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email:     "a@b.test",
			Positions: []OrderPositionInput{{ItemID: "item-1", VoucherCode: "TENOFF"}},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if order.Total != "15.00" {
			t.Fatalf("expected discounted total 15.00, got %s", order.Total)
		}
		if repo.vouchers["TENOFF"].Redeemed != 1 {
			t.Fatalf("expected redemption counted, got %d", repo.vouchers["TENOFF"].Redeemed)
		}
	})

	t.Run("rejects expired voucher", func(t *testing.T) {
		past := now.Add(-time.Hour)
		repo := makeRepo(domain.Voucher{
			ID: "v-1", EventID: "event-1", Code: "OLD", MaxUsages: 5, ValidUntil: &past,
		})
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email:     "a@b.test",
			Positions: []OrderPositionInput{{ItemID: "item-1", VoucherCode: "OLD"}},
		})
		if err != domain.ErrVoucherExpired {
			t.Fatalf("expected ErrVoucherExpired, got %v", err)
		}
	})

	t.Run("rejects voucher bound to another item", func(t *testing.T) {
		other := "item-2"
		repo := makeRepo(domain.Voucher{
			ID: "v-1", EventID: "event-1", Code: "WRONG", MaxUsages: 5, ItemID: &other,
		})
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email:     "a@b.test",
			Positions: []OrderPositionInput{{ItemID: "item-1", VoucherCode: "WRONG"}},
		})
		if err != domain.ErrVoucherItemMismatch {
			t.Fatalf("expected ErrVoucherItemMismatch, got %v", err)
		}
	})

	t.Run("rejects voucher with no usages left", func(t *testing.T) {
		repo := makeRepo(domain.Voucher{
			ID: "v-1", EventID: "event-1", Code: "FULL", MaxUsages: 1, Redeemed: 1,
		})
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email:     "a@b.test",
			Positions: []OrderPositionInput{{ItemID: "item-1", VoucherCode: "FULL"}},
		})
		if err != domain.ErrVoucherBudgetExceeded {
			t.Fatalf("expected ErrVoucherBudgetExceeded, got %v", err)
		}
	})

	t.Run("block quota voucher skips availability check", func(t *testing.T) {
		repo := makeRepo(domain.Voucher{
			ID: "v-1", EventID: "event-1", Code: "HELD", MaxUsages: 1, BlockQuota: true,
		})
		// The quota is fully consumed, one unit of it by the voucher itself.
		repo.avail["quota-1"] = domain.QuotaAvailability{TotalSize: &size, PaidOrders: 9, BlockingVouchers: 1}
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, _, err := svc.Create(context.Background(), testEvent, CreateOrderInput{
			Email:     "a@b.test",
			Positions: []OrderPositionInput{{ItemID: "item-1", VoucherCode: "HELD"}},
		})
		if err != nil {
			t.Fatalf("expected block quota voucher to redeem, got %v", err)
		}
	})
}

func TestOrderService_MarkPaid(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	size := 10

	makeRepo := func(status domain.OrderStatus) *fakeOrderRepo {
		repo := newFakeOrderRepo()
		repo.quotas = []domain.Quota{{ID: "quota-1", EventID: "event-1", Size: &size, ItemIDs: []string{"item-1"}}}
		repo.avail["quota-1"] = domain.QuotaAvailability{TotalSize: &size}
		repo.orders = append(repo.orders, domain.Order{
			ID: "order-1", EventID: "event-1", Code: "ABC39", Status: status,
			Email: "a@b.test", Total: "25.00", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
		})
		repo.positions = append(repo.positions, domain.OrderPosition{
			ID: "pos-1", OrderID: "order-1", PositionID: 1, ItemID: "item-1",
			Price: "25.00", AttendeeName: "Ada", Secret: "s1",
		})
		return repo
	}

	t.Run("pays pending order and writes invoice", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPending)
		svc := NewOrderService(repo, clock.NewFixed(now))

		o, err := svc.MarkPaid(context.Background(), testOrg, testEvent, "ABC39")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if o.Status != domain.OrderStatusPaid {
			t.Fatalf("expected paid, got %s", o.Status)
		}
		if len(repo.invoices) != 1 {
			t.Fatalf("expected 1 invoice, got %d", len(repo.invoices))
		}
		inv := repo.invoices[0]
		if inv.Number != "ACME-00001" {
			t.Fatalf("expected number ACME-00001, got %s", inv.Number)
		}
		if inv.IsCancellation {
			t.Fatalf("expected regular invoice")
		}
		if len(inv.Lines) != 1 || inv.Lines[0].Description != "Ticket for Ada" || inv.Lines[0].GrossValue != "25.00" {
			t.Fatalf("unexpected invoice lines: %+v", inv.Lines)
		}
	})

	t.Run("does not write a second invoice on re-payment", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPending)
		svc := NewOrderService(repo, clock.NewFixed(now))

		if _, err := svc.MarkPaid(context.Background(), testOrg, testEvent, "ABC39"); err != nil {
			t.Fatalf("first payment: %v", err)
		}
		if _, err := svc.MarkPending(context.Background(), testEvent, "ABC39"); err != nil {
			t.Fatalf("mark pending: %v", err)
		}
		if _, err := svc.MarkPaid(context.Background(), testOrg, testEvent, "ABC39"); err != nil {
			t.Fatalf("second payment: %v", err)
		}
		if len(repo.invoices) != 1 {
			t.Fatalf("expected single invoice, got %d", len(repo.invoices))
		}
	})

	t.Run("revives expired order when quota is left", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusExpired)
		svc := NewOrderService(repo, clock.NewFixed(now))

		o, err := svc.MarkPaid(context.Background(), testOrg, testEvent, "ABC39")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if o.Status != domain.OrderStatusPaid {
			t.Fatalf("expected paid, got %s", o.Status)
		}
	})

	t.Run("refuses to revive expired order without quota", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusExpired)
		repo.avail["quota-1"] = domain.QuotaAvailability{TotalSize: &size, PaidOrders: 10}
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, err := svc.MarkPaid(context.Background(), testOrg, testEvent, "ABC39")
		if err != domain.ErrInsufficientQuota {
			t.Fatalf("expected ErrInsufficientQuota, got %v", err)
		}
		if repo.orders[0].Status != domain.OrderStatusExpired {
			t.Fatalf("expected order untouched, got %s", repo.orders[0].Status)
		}
	})

	t.Run("rejects canceled order", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusCanceled)
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, err := svc.MarkPaid(context.Background(), testOrg, testEvent, "ABC39")
		if err != domain.ErrInvalidTransition {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPending)
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, err := svc.MarkPaid(context.Background(), testOrg, testEvent, "ZZZZZ")
		if err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

func TestOrderService_MarkCanceled(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	makeRepo := func(status domain.OrderStatus) *fakeOrderRepo {
		repo := newFakeOrderRepo()
		repo.orders = append(repo.orders, domain.Order{
			ID: "order-1", EventID: "event-1", Code: "ABC39", Status: status,
			Email: "a@b.test", Total: "25.00", ExpiresAt: now.Add(time.Hour),
		})
		repo.positions = append(repo.positions, domain.OrderPosition{
			ID: "pos-1", OrderID: "order-1", PositionID: 1, ItemID: "item-1", Price: "25.00", Secret: "s1",
		})
		return repo
	}

	t.Run("canceling pending order releases vouchers", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPending)
		voucherID := "v-1"
		repo.vouchers["CODE"] = domain.Voucher{ID: voucherID, EventID: "event-1", Code: "CODE", MaxUsages: 2, Redeemed: 1}
		repo.positions[0].VoucherID = &voucherID
		svc := NewOrderService(repo, clock.NewFixed(now))

		o, err := svc.MarkCanceled(context.Background(), testOrg, testEvent, "ABC39")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if o.Status != domain.OrderStatusCanceled {
			t.Fatalf("expected canceled, got %s", o.Status)
		}
		if repo.vouchers["CODE"].Redeemed != 0 {
			t.Fatalf("expected voucher released, got %d", repo.vouchers["CODE"].Redeemed)
		}
		if len(repo.invoices) != 0 {
			t.Fatalf("expected no invoice for pending cancel, got %d", len(repo.invoices))
		}
	})

	t.Run("canceling paid order writes cancellation invoice", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPaid)
		repo.invoices = append(repo.invoices, domain.Invoice{
			ID: "inv-1", EventID: "event-1", OrderID: "order-1", Number: "ACME-00001",
		})
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, err := svc.MarkCanceled(context.Background(), testOrg, testEvent, "ABC39")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(repo.invoices) != 2 {
			t.Fatalf("expected cancellation invoice, got %d invoices", len(repo.invoices))
		}
		cancel := repo.invoices[1]
		if !cancel.IsCancellation {
			t.Fatalf("expected cancellation invoice")
		}
		if cancel.RefersTo == nil || *cancel.RefersTo != "ACME-00001" {
			t.Fatalf("expected reference to original invoice, got %v", cancel.RefersTo)
		}
		if cancel.Lines[0].GrossValue != "-25.00" {
			t.Fatalf("expected negated line, got %s", cancel.Lines[0].GrossValue)
		}
	})

	t.Run("rejects expired order", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusExpired)
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, err := svc.MarkCanceled(context.Background(), testOrg, testEvent, "ABC39")
		if err != domain.ErrInvalidTransition {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})
}

func TestOrderService_MarkExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	makeRepo := func(status domain.OrderStatus, deadline time.Time) *fakeOrderRepo {
		repo := newFakeOrderRepo()
		repo.orders = append(repo.orders, domain.Order{
			ID: "order-1", EventID: "event-1", Code: "ABC39", Status: status,
			Email: "a@b.test", Total: "25.00", ExpiresAt: deadline,
		})
		return repo
	}

	t.Run("expires pending order past deadline", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPending, now.Add(-time.Minute))
		svc := NewOrderService(repo, clock.NewFixed(now))

		o, err := svc.MarkExpired(context.Background(), testEvent, "ABC39")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if o.Status != domain.OrderStatusExpired {
			t.Fatalf("expected expired, got %s", o.Status)
		}
	})

	t.Run("refuses order still within deadline", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPending, now.Add(time.Minute))
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, err := svc.MarkExpired(context.Background(), testEvent, "ABC39")
		if err != domain.ErrOrderNotExpired {
			t.Fatalf("expected ErrOrderNotExpired, got %v", err)
		}
	})

	t.Run("refuses paid order", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPaid, now.Add(-time.Minute))
		svc := NewOrderService(repo, clock.NewFixed(now))

		_, err := svc.MarkExpired(context.Background(), testEvent, "ABC39")
		if err != domain.ErrInvalidTransition {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})
}

func TestOrderService_DeletePosition(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	makeRepo := func(status domain.OrderStatus) *fakeOrderRepo {
		repo := newFakeOrderRepo()
		repo.orders = append(repo.orders, domain.Order{
			ID: "order-1", EventID: "event-1", Code: "ABC39", Status: status,
			Email: "a@b.test", Total: "40.00", ExpiresAt: now.Add(time.Hour),
		})
		repo.positions = append(repo.positions,
			domain.OrderPosition{ID: "pos-1", OrderID: "order-1", PositionID: 1, ItemID: "item-1", Price: "25.00", Secret: "s1"},
			domain.OrderPosition{ID: "pos-2", OrderID: "order-1", PositionID: 2, ItemID: "item-1", Price: "15.00", Secret: "s2"},
		)
		return repo
	}

	t.Run("removes position and recomputes total", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPending)
		svc := NewOrderService(repo, clock.NewFixed(now))

		if err := svc.DeletePosition(context.Background(), testEvent, "ABC39", "pos-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(repo.positions) != 1 {
			t.Fatalf("expected 1 position left, got %d", len(repo.positions))
		}
		if repo.orders[0].Total != "15.00" {
			t.Fatalf("expected total 15.00, got %s", repo.orders[0].Total)
		}
	})

	t.Run("deleting the last position cancels the order", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPending)
		repo.positions = repo.positions[:1]
		svc := NewOrderService(repo, clock.NewFixed(now))

		if err := svc.DeletePosition(context.Background(), testEvent, "ABC39", "pos-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo.orders[0].Status != domain.OrderStatusCanceled {
			t.Fatalf("expected canceled order, got %s", repo.orders[0].Status)
		}
	})

	t.Run("releases the position voucher", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPending)
		voucherID := "v-1"
		repo.vouchers["CODE"] = domain.Voucher{ID: voucherID, EventID: "event-1", Code: "CODE", MaxUsages: 2, Redeemed: 1}
		repo.positions[0].VoucherID = &voucherID
		svc := NewOrderService(repo, clock.NewFixed(now))

		if err := svc.DeletePosition(context.Background(), testEvent, "ABC39", "pos-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo.vouchers["CODE"].Redeemed != 0 {
			t.Fatalf("expected voucher released, got %d", repo.vouchers["CODE"].Redeemed)
		}
	})

	t.Run("refuses non-pending order", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPaid)
		svc := NewOrderService(repo, clock.NewFixed(now))

		err := svc.DeletePosition(context.Background(), testEvent, "ABC39", "pos-1")
		if err != domain.ErrOrderNotPending {
			t.Fatalf("expected ErrOrderNotPending, got %v", err)
		}
	})

	t.Run("unknown position", func(t *testing.T) {
		repo := makeRepo(domain.OrderStatusPending)
		svc := NewOrderService(repo, clock.NewFixed(now))

		err := svc.DeletePosition(context.Background(), testEvent, "ABC39", "missing")
		if err != domain.ErrPositionNotFound {
			t.Fatalf("expected ErrPositionNotFound, got %v", err)
		}
	})
}

func TestOrderService_List(t *testing.T) {
	t.Parallel()

	repo := newFakeOrderRepo()
	repo.orders = append(repo.orders,
		domain.Order{ID: "o-1", EventID: "event-1", Code: "AAAAA", Status: domain.OrderStatusPaid, Email: "a@b.test"},
		domain.Order{ID: "o-2", EventID: "event-1", Code: "BBBBB", Status: domain.OrderStatusPending, Email: "c@d.test"},
	)
	svc := NewOrderService(repo, clock.NewFixed(time.Now()))

	t.Run("filters by status", func(t *testing.T) {
		orders, total, err := svc.List(context.Background(), "event-1", "paid", "", 50, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if total != 1 || len(orders) != 1 || orders[0].Code != "AAAAA" {
			t.Fatalf("unexpected result: total=%d orders=%+v", total, orders)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, _, err := svc.List(context.Background(), "event-1", "bogus", "", 50, 0)
		if err != domain.ErrInvalidOrderStatus {
			t.Fatalf("expected ErrInvalidOrderStatus, got %v", err)
		}
	})
}

// fakeOrderRepo is an in-memory OrderRepository. WithTx runs the function
// directly; failed transactions do not roll back fake state except where
// individual tests assert it, so mutating calls happen after validation in
// the code under test.
type fakeOrderRepo struct {
	items          map[string]domain.Item
	quotas         []domain.Quota
	avail          map[string]domain.QuotaAvailability
	seats          map[string]domain.Seat
	takenSeats     map[string]bool
	orders         []domain.Order
	positions      []domain.OrderPosition
	carts          map[string]domain.CartPosition
	vouchers       map[string]domain.Voucher
	invoices       []domain.Invoice
	invoiceSeq     int
	codeCollisions int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		items:      make(map[string]domain.Item),
		avail:      make(map[string]domain.QuotaAvailability),
		seats:      make(map[string]domain.Seat),
		takenSeats: make(map[string]bool),
		carts:      make(map[string]domain.CartPosition),
		vouchers:   make(map[string]domain.Voucher),
	}
}

func (f *fakeOrderRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeOrderRepo) GetItem(_ context.Context, eventID, itemID string) (domain.Item, error) {
	item, ok := f.items[itemID]
	if !ok || item.EventID != eventID {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return item, nil
}

func (f *fakeOrderRepo) LockQuotasForItem(_ context.Context, eventID, itemID string, variationID, subeventID *string) ([]domain.Quota, error) {
	var out []domain.Quota
	for _, q := range f.quotas {
		if q.EventID != eventID {
			continue
		}
		for _, id := range q.ItemIDs {
			if id == itemID {
				out = append(out, q)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ComputeAvailability(_ context.Context, q domain.Quota, _ time.Time) (domain.QuotaAvailability, error) {
	return f.avail[q.ID], nil
}

func (f *fakeOrderRepo) GetSeatForUpdate(_ context.Context, eventID, seatID string) (domain.Seat, error) {
	s, ok := f.seats[seatID]
	if !ok || s.EventID != eventID {
		return domain.Seat{}, domain.ErrSeatNotFound
	}
	return s, nil
}

func (f *fakeOrderRepo) SeatTaken(_ context.Context, seatID string, _ time.Time) (bool, error) {
	return f.takenSeats[seatID], nil
}

func (f *fakeOrderRepo) Create(_ context.Context, o domain.Order) error {
	if f.codeCollisions > 0 {
		f.codeCollisions--
		return domain.ErrOrderCodeTaken
	}
	for _, existing := range f.orders {
		if existing.EventID == o.EventID && existing.Code == o.Code {
			return domain.ErrOrderCodeTaken
		}
	}
	f.orders = append(f.orders, o)
	return nil
}

func (f *fakeOrderRepo) CreatePosition(_ context.Context, p domain.OrderPosition) error {
	f.positions = append(f.positions, p)
	return nil
}

func (f *fakeOrderRepo) GetByCode(_ context.Context, eventID, code string) (domain.Order, error) {
	for _, o := range f.orders {
		if o.EventID == eventID && o.Code == code {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetByCodeForUpdate(ctx context.Context, eventID, code string) (domain.Order, error) {
	return f.GetByCode(ctx, eventID, code)
}

func (f *fakeOrderRepo) List(_ context.Context, eventID, status, email string, limit, offset int) ([]domain.Order, int, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if o.EventID != eventID {
			continue
		}
		if status != "" && string(o.Status) != status {
			continue
		}
		if email != "" && o.Email != email {
			continue
		}
		out = append(out, o)
	}
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	for i := range f.orders {
		if f.orders[i].ID == orderID {
			f.orders[i].Status = status
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

func (f *fakeOrderRepo) UpdateTotal(_ context.Context, orderID, total string) error {
	for i := range f.orders {
		if f.orders[i].ID == orderID {
			f.orders[i].Total = total
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

func (f *fakeOrderRepo) ListPositions(_ context.Context, orderID string) ([]domain.OrderPosition, error) {
	var out []domain.OrderPosition
	for _, p := range f.positions {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) GetPosition(_ context.Context, orderID, positionID string) (domain.OrderPosition, error) {
	for _, p := range f.positions {
		if p.OrderID == orderID && p.ID == positionID {
			return p, nil
		}
	}
	return domain.OrderPosition{}, domain.ErrPositionNotFound
}

func (f *fakeOrderRepo) DeletePosition(_ context.Context, id string) error {
	for i, p := range f.positions {
		if p.ID == id {
			f.positions = append(f.positions[:i], f.positions[i+1:]...)
			return nil
		}
	}
	return domain.ErrPositionNotFound
}

func (f *fakeOrderRepo) GetCartPositionsForUpdate(_ context.Context, eventID string, ids []string) ([]domain.CartPosition, error) {
	var out []domain.CartPosition
	for _, id := range ids {
		c, ok := f.carts[id]
		if !ok || c.EventID != eventID {
			return nil, domain.ErrCartPositionNotFound
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeOrderRepo) DeleteCartPositions(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.carts, id)
	}
	return nil
}

func (f *fakeOrderRepo) GetVoucherByCodeForUpdate(_ context.Context, eventID, code string) (domain.Voucher, error) {
	v, ok := f.vouchers[code]
	if !ok || v.EventID != eventID {
		return domain.Voucher{}, domain.ErrVoucherNotFound
	}
	return v, nil
}

func (f *fakeOrderRepo) IncrementVoucherRedeemed(_ context.Context, voucherID string) error {
	for code, v := range f.vouchers {
		if v.ID != voucherID {
			continue
		}
		if v.Redeemed >= v.MaxUsages {
			return domain.ErrVoucherBudgetExceeded
		}
		v.Redeemed++
		f.vouchers[code] = v
		return nil
	}
	return domain.ErrVoucherNotFound
}

func (f *fakeOrderRepo) DecrementVoucherRedeemed(_ context.Context, voucherID string) error {
	for code, v := range f.vouchers {
		if v.ID != voucherID {
			continue
		}
		if v.Redeemed > 0 {
			v.Redeemed--
		}
		f.vouchers[code] = v
		return nil
	}
	return domain.ErrVoucherNotFound
}

func (f *fakeOrderRepo) NextInvoiceNumber(_ context.Context, _, prefix string) (string, error) {
	f.invoiceSeq++
	return fmt.Sprintf("%s-%05d", prefix, f.invoiceSeq), nil
}

func (f *fakeOrderRepo) CreateInvoice(_ context.Context, inv domain.Invoice) error {
	f.invoices = append(f.invoices, inv)
	return nil
}

func (f *fakeOrderRepo) LatestInvoiceForOrder(_ context.Context, orderID string) (*domain.Invoice, error) {
	for i := len(f.invoices) - 1; i >= 0; i-- {
		if f.invoices[i].OrderID == orderID {
			inv := f.invoices[i]
			return &inv, nil
		}
	}
	return nil, nil
}

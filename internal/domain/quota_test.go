package domain

import "testing"

func TestQuotaAvailability(t *testing.T) {
	t.Parallel()

	intp := func(n int) *int { return &n }

	t.Run("subtracts every usage bucket", func(t *testing.T) {
		a := QuotaAvailability{
			TotalSize:        intp(100),
			PaidOrders:       40,
			PendingOrders:    25,
			CartPositions:    10,
			BlockingVouchers: 5,
		}
		if n := a.AvailableNumber(); n == nil || *n != 20 {
			t.Fatalf("expected 20 left, got %v", n)
		}
		if !a.Available() {
			t.Fatalf("expected quota available")
		}
	})

	t.Run("clamps oversold quotas at zero", func(t *testing.T) {
		a := QuotaAvailability{TotalSize: intp(10), PaidOrders: 15}
		if n := a.AvailableNumber(); n == nil || *n != 0 {
			t.Fatalf("expected 0 left, got %v", n)
		}
		if a.Available() {
			t.Fatalf("expected quota sold out")
		}
	})

	t.Run("nil size is unlimited", func(t *testing.T) {
		a := QuotaAvailability{PaidOrders: 100000}
		if a.AvailableNumber() != nil {
			t.Fatalf("expected nil available number")
		}
		if !a.Available() {
			t.Fatalf("expected unlimited quota available")
		}
	})
}

func TestCheckinListCovers(t *testing.T) {
	t.Parallel()

	t.Run("all-items list covers everything", func(t *testing.T) {
		l := CheckinList{AllItems: true}
		if !l.Covers("item-1") {
			t.Fatalf("expected coverage")
		}
	})

	t.Run("restricted list covers listed items only", func(t *testing.T) {
		l := CheckinList{ItemIDs: []string{"item-1", "item-2"}}
		if !l.Covers("item-2") {
			t.Fatalf("expected item-2 covered")
		}
		if l.Covers("item-3") {
			t.Fatalf("expected item-3 not covered")
		}
	})
}

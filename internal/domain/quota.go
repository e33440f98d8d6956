package domain

// Quota is a capacity pool limiting how many units of its items can be sold.
// A nil Size means unlimited.
type Quota struct {
	ID           string
	EventID      string
	SubeventID   *string
	Name         string
	Size         *int
	ItemIDs      []string
	VariationIDs []string
}

// QuotaAvailability is the computed usage breakdown of a quota.
type QuotaAvailability struct {
	TotalSize        *int
	PaidOrders       int
	PendingOrders    int
	CartPositions    int
	BlockingVouchers int
}

// AvailableNumber returns how many units are left, or nil for unlimited
// quotas. The result is clamped at zero.
func (a QuotaAvailability) AvailableNumber() *int {
	if a.TotalSize == nil {
		return nil
	}
	left := *a.TotalSize - a.PaidOrders - a.PendingOrders - a.CartPositions - a.BlockingVouchers
	if left < 0 {
		left = 0
	}
	return &left
}

// Available reports whether at least one unit is left.
func (a QuotaAvailability) Available() bool {
	n := a.AvailableNumber()
	return n == nil || *n > 0
}

package domain

import "time"

type PriceMode string

const (
	PriceModeNone     PriceMode = "none"
	PriceModeSet      PriceMode = "set"
	PriceModeSubtract PriceMode = "subtract"
	PriceModePercent  PriceMode = "percent"
)

// ValidPriceMode reports whether s is a known voucher price mode.
func ValidPriceMode(s string) bool {
	switch PriceMode(s) {
	case PriceModeNone, PriceModeSet, PriceModeSubtract, PriceModePercent:
		return true
	}
	return false
}

// Voucher grants discounted or reserved access to specific items.
// A block_quota voucher counts against quota until it is redeemed.
type Voucher struct {
	ID          string
	EventID     string
	Code        string
	MaxUsages   int
	Redeemed    int
	PriceMode   PriceMode
	Value       *string
	ItemID      *string
	BlockQuota  bool
	ExhibitorID *string
	ValidUntil  *time.Time
	CreatedAt   time.Time
}

// ApplyTo returns the position price in cents after applying the voucher
// to a base price.
func (v Voucher) ApplyTo(baseCents int64) (int64, error) {
	switch v.PriceMode {
	case PriceModeNone, "":
		return baseCents, nil
	case PriceModeSet:
		if v.Value == nil {
			return baseCents, nil
		}
		return ParsePrice(*v.Value)
	case PriceModeSubtract:
		if v.Value == nil {
			return baseCents, nil
		}
		sub, err := ParsePrice(*v.Value)
		if err != nil {
			return 0, err
		}
		if sub > baseCents {
			return 0, nil
		}
		return baseCents - sub, nil
	case PriceModePercent:
		if v.Value == nil {
			return baseCents, nil
		}
		pct, err := ParsePrice(*v.Value)
		if err != nil {
			return 0, err
		}
		// Value is a percentage with two decimals, e.g. "25.00".
		discounted := baseCents - baseCents*pct/10000
		if discounted < 0 {
			return 0, nil
		}
		return discounted, nil
	}
	return baseCents, nil
}

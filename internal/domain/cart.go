package domain

import "time"

// CartPosition is a temporary reservation of one unit of quota prior to
// order creation. Expired positions stop counting against quota.
type CartPosition struct {
	ID          string
	EventID     string
	SubeventID  *string
	ItemID      string
	VariationID *string
	SeatID      *string
	Price       string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusExpired  OrderStatus = "expired"
	OrderStatusCanceled OrderStatus = "canceled"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusPaid, OrderStatusExpired, OrderStatusCanceled:
		return true
	}
	return false
}

// Order is a purchase transaction containing one or more positions.
type Order struct {
	ID         string
	EventID    string
	Code       string
	Status     OrderStatus
	Email      string
	CustomerID *string
	Total      string
	ExpiresAt  time.Time
	Testmode   bool
	CreatedAt  time.Time
}

// OrderPosition is a single ticket within an order.
type OrderPosition struct {
	ID           string
	OrderID      string
	PositionID   int
	ItemID       string
	VariationID  *string
	SubeventID   *string
	SeatID       *string
	VoucherID    *string
	Price        string
	AttendeeName string
	Secret       string
}

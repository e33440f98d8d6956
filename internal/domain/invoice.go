package domain

import "time"

// Invoice is an immutable billing document generated for an order.
type Invoice struct {
	ID             string
	EventID        string
	OrderID        string
	Number         string
	IsCancellation bool
	RefersTo       *string
	CreatedAt      time.Time
	Lines          []InvoiceLine
}

// InvoiceLine is one billed line of an invoice.
type InvoiceLine struct {
	ID          string
	InvoiceID   string
	Position    int
	Description string
	GrossValue  string
}

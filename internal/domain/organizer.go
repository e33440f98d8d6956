package domain

import "time"

// Organizer is the tenant that owns events, customers and exhibitors.
type Organizer struct {
	ID        string
	Slug      string
	Name      string
	CreatedAt time.Time
}

// APIToken grants full API access to a single organizer account.
type APIToken struct {
	ID          string
	OrganizerID string
	Name        string
	Secret      string
	Active      bool
	CreatedAt   time.Time
}

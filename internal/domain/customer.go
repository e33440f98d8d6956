package domain

import "time"

// Customer is a reusable account at the organizer level that orders can be
// attached to.
type Customer struct {
	ID           string
	OrganizerID  string
	Identifier   string
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// Exhibitor is a booth owner with an access key used by lead-scanning apps.
type Exhibitor struct {
	ID          string
	OrganizerID string
	Name        string
	Booth       string
	AccessKey   string
	CreatedAt   time.Time
}

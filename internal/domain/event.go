package domain

import "time"

// Event is a ticketed occasion or event series belonging to an organizer.
type Event struct {
	ID           string
	OrganizerID  string
	Slug         string
	Name         string
	Live         bool
	Testmode     bool
	Currency     string
	DateFrom     *time.Time
	DateTo       *time.Time
	HasSubevents bool
	CreatedAt    time.Time
}

// Subevent is one date instance within an event series.
type Subevent struct {
	ID       string
	EventID  string
	Name     string
	DateFrom *time.Time
	DateTo   *time.Time
	Active   bool
}

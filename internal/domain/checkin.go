package domain

import "time"

// CheckinList is a named scope for attendee entry/exit scanning.
type CheckinList struct {
	ID             string
	EventID        string
	Name           string
	AllItems       bool
	ItemIDs        []string
	SubeventID     *string
	IncludePending bool
}

// CheckinListStatus holds the aggregate counters shown on a list.
type CheckinListStatus struct {
	PositionCount int
	CheckinCount  int
}

type CheckinType string

const (
	CheckinTypeEntry CheckinType = "entry"
	CheckinTypeExit  CheckinType = "exit"
)

// Checkin is one successful scan of an order position on a list.
type Checkin struct {
	ID         string
	ListID     string
	PositionID string
	Type       CheckinType
	Nonce      string
	CreatedAt  time.Time
}

// Covers reports whether the list admits positions of the given item.
func (l CheckinList) Covers(itemID string) bool {
	if l.AllItems {
		return true
	}
	for _, id := range l.ItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

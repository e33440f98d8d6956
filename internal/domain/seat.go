package domain

// Seat is one assignable place of a seating plan. A seat is available when
// it is not blocked and no valid cart position or active order position
// references it.
type Seat struct {
	ID         string
	EventID    string
	SubeventID *string
	GUID       string
	Row        string
	Number     string
	ItemID     *string
	Blocked    bool
}

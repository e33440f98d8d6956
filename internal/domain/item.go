package domain

// Item is a sellable product of an event.
type Item struct {
	ID           string
	EventID      string
	Name         string
	DefaultPrice string
	Active       bool
	Admission    bool
	Position     int
	Variations   []ItemVariation
}

// ItemVariation is a variant of an item, optionally with its own price.
type ItemVariation struct {
	ID       string
	ItemID   string
	Value    string
	Price    *string
	Position int
}

// PriceFor returns the effective price for the given variation, falling
// back to the item's default price.
func (i Item) PriceFor(variationID *string) string {
	if variationID == nil {
		return i.DefaultPrice
	}
	for _, v := range i.Variations {
		if v.ID == *variationID && v.Price != nil {
			return *v.Price
		}
	}
	return i.DefaultPrice
}

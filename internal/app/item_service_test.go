package app

import (
	"context"
	"testing"

	"github.com/foldline/boxoffice/internal/domain"
)

func TestItemService_Create(t *testing.T) {
	t.Parallel()

	t.Run("requires a name", func(t *testing.T) {
		svc := NewItemService(newFakeItemRepo())
		_, err := svc.Create(context.Background(), "event-1", CreateItemInput{})
		if err != domain.ErrItemNameRequired {
			t.Fatalf("expected ErrItemNameRequired, got %v", err)
		}
	})

	t.Run("defaults the price to zero", func(t *testing.T) {
		svc := NewItemService(newFakeItemRepo())
		item, err := svc.Create(context.Background(), "event-1", CreateItemInput{Name: "Ticket"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if item.DefaultPrice != "0.00" {
			t.Fatalf("expected 0.00 default, got %s", item.DefaultPrice)
		}
	})

	t.Run("rejects a malformed price", func(t *testing.T) {
		svc := NewItemService(newFakeItemRepo())
		_, err := svc.Create(context.Background(), "event-1", CreateItemInput{Name: "Ticket", DefaultPrice: "lots"})
		if err != domain.ErrInvalidPrice {
			t.Fatalf("expected ErrInvalidPrice, got %v", err)
		}
	})

	t.Run("builds variations with own ids", func(t *testing.T) {
		svc := NewItemService(newFakeItemRepo())
		price := "35.00"
		item, err := svc.Create(context.Background(), "event-1", CreateItemInput{
			Name:         "Ticket",
			DefaultPrice: "25.00",
			Variations: []VariationInput{
				{Value: "Regular", Position: 0},
				{Value: "VIP", Price: &price, Position: 1},
			},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(item.Variations) != 2 {
			t.Fatalf("expected 2 variations, got %d", len(item.Variations))
		}
		if item.Variations[0].ID == item.Variations[1].ID {
			t.Fatalf("expected distinct variation ids")
		}
		if item.Variations[1].Price == nil || *item.Variations[1].Price != "35.00" {
			t.Fatalf("expected VIP price kept, got %v", item.Variations[1].Price)
		}
	})

	t.Run("rejects a variation without a value", func(t *testing.T) {
		svc := NewItemService(newFakeItemRepo())
		_, err := svc.Create(context.Background(), "event-1", CreateItemInput{
			Name:       "Ticket",
			Variations: []VariationInput{{Value: ""}},
		})
		if err != domain.ErrItemNameRequired {
			t.Fatalf("expected ErrItemNameRequired, got %v", err)
		}
	})
}

func TestItemService_Update(t *testing.T) {
	t.Parallel()

	makeRepo := func() *fakeItemRepo {
		repo := newFakeItemRepo()
		repo.items["item-1"] = domain.Item{
			ID: "item-1", EventID: "event-1", Name: "Ticket", DefaultPrice: "25.00", Active: true,
		}
		return repo
	}

	t.Run("patches only the given fields", func(t *testing.T) {
		svc := NewItemService(makeRepo())
		inactive := false
		item, err := svc.Update(context.Background(), "event-1", "item-1", UpdateItemInput{Active: &inactive})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if item.Active {
			t.Fatalf("expected inactive item")
		}
		if item.Name != "Ticket" || item.DefaultPrice != "25.00" {
			t.Fatalf("expected other fields untouched, got %+v", item)
		}
	})

	t.Run("rejects clearing the name", func(t *testing.T) {
		svc := NewItemService(makeRepo())
		empty := ""
		_, err := svc.Update(context.Background(), "event-1", "item-1", UpdateItemInput{Name: &empty})
		if err != domain.ErrItemNameRequired {
			t.Fatalf("expected ErrItemNameRequired, got %v", err)
		}
	})

	t.Run("replaces variations when given", func(t *testing.T) {
		repo := makeRepo()
		svc := NewItemService(repo)
		item, err := svc.Update(context.Background(), "event-1", "item-1", UpdateItemInput{
			Variations: []VariationInput{{Value: "Regular"}},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(item.Variations) != 1 || item.Variations[0].Value != "Regular" {
			t.Fatalf("expected replaced variations, got %+v", item.Variations)
		}
	})
}

func TestItemService_Delete(t *testing.T) {
	t.Parallel()

	makeRepo := func(inUse bool) *fakeItemRepo {
		repo := newFakeItemRepo()
		repo.items["item-1"] = domain.Item{ID: "item-1", EventID: "event-1", Name: "Ticket"}
		repo.inUse["item-1"] = inUse
		return repo
	}

	t.Run("deletes an unused item", func(t *testing.T) {
		repo := makeRepo(false)
		svc := NewItemService(repo)
		if err := svc.Delete(context.Background(), "event-1", "item-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(repo.items) != 0 {
			t.Fatalf("expected item removed")
		}
	})

	t.Run("refuses an item referenced by orders", func(t *testing.T) {
		repo := makeRepo(true)
		svc := NewItemService(repo)
		err := svc.Delete(context.Background(), "event-1", "item-1")
		if err != domain.ErrItemInUse {
			t.Fatalf("expected ErrItemInUse, got %v", err)
		}
		if len(repo.items) != 1 {
			t.Fatalf("expected item kept")
		}
	})
}

type fakeItemRepo struct {
	items map[string]domain.Item
	inUse map[string]bool
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{
		items: make(map[string]domain.Item),
		inUse: make(map[string]bool),
	}
}

func (f *fakeItemRepo) Create(_ context.Context, item domain.Item) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemRepo) Get(_ context.Context, eventID, id string) (domain.Item, error) {
	item, ok := f.items[id]
	if !ok || item.EventID != eventID {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return item, nil
}

func (f *fakeItemRepo) List(_ context.Context, eventID string, limit, offset int) ([]domain.Item, int, error) {
	var out []domain.Item
	for _, item := range f.items {
		if item.EventID == eventID {
			out = append(out, item)
		}
	}
	return out, len(out), nil
}

func (f *fakeItemRepo) Update(_ context.Context, item domain.Item) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemRepo) Delete(_ context.Context, id string) error {
	delete(f.items, id)
	return nil
}

func (f *fakeItemRepo) InUse(_ context.Context, id string) (bool, error) {
	return f.inUse[id], nil
}

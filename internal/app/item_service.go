package app

import (
	"context"

	"github.com/foldline/boxoffice/internal/domain"
)

type ItemRepository interface {
	Create(ctx context.Context, item domain.Item) error
	Get(ctx context.Context, eventID, id string) (domain.Item, error)
	List(ctx context.Context, eventID string, limit, offset int) ([]domain.Item, int, error)
	Update(ctx context.Context, item domain.Item) error
	Delete(ctx context.Context, id string) error
	InUse(ctx context.Context, id string) (bool, error)
}

type ItemService struct {
	repo ItemRepository
}

func NewItemService(repo ItemRepository) *ItemService {
	return &ItemService{repo: repo}
}

type VariationInput struct {
	Value    string
	Price    *string
	Position int
}

type CreateItemInput struct {
	Name         string
	DefaultPrice string
	Active       bool
	Admission    bool
	Position     int
	Variations   []VariationInput
}

func (s *ItemService) Create(ctx context.Context, eventID string, in CreateItemInput) (domain.Item, error) {
	if in.Name == "" {
		return domain.Item{}, domain.ErrItemNameRequired
	}
	price := in.DefaultPrice
	if price == "" {
		price = "0.00"
	}
	if _, err := domain.ParsePrice(price); err != nil {
		return domain.Item{}, err
	}

	item := domain.Item{
		ID:           newID(),
		EventID:      eventID,
		Name:         in.Name,
		DefaultPrice: price,
		Active:       in.Active,
		Admission:    in.Admission,
		Position:     in.Position,
	}
	variations, err := buildVariations(item.ID, in.Variations)
	if err != nil {
		return domain.Item{}, err
	}
	item.Variations = variations

	if err := s.repo.Create(ctx, item); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

func (s *ItemService) Get(ctx context.Context, eventID, id string) (domain.Item, error) {
	return s.repo.Get(ctx, eventID, id)
}

func (s *ItemService) List(ctx context.Context, eventID string, limit, offset int) ([]domain.Item, int, error) {
	return s.repo.List(ctx, eventID, limit, offset)
}

type UpdateItemInput struct {
	Name         *string
	DefaultPrice *string
	Active       *bool
	Admission    *bool
	Position     *int
	Variations   []VariationInput
}

func (s *ItemService) Update(ctx context.Context, eventID, id string, in UpdateItemInput) (domain.Item, error) {
	item, err := s.repo.Get(ctx, eventID, id)
	if err != nil {
		return domain.Item{}, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return domain.Item{}, domain.ErrItemNameRequired
		}
		item.Name = *in.Name
	}
	if in.DefaultPrice != nil {
		if _, err := domain.ParsePrice(*in.DefaultPrice); err != nil {
			return domain.Item{}, err
		}
		item.DefaultPrice = *in.DefaultPrice
	}
	if in.Active != nil {
		item.Active = *in.Active
	}
	if in.Admission != nil {
		item.Admission = *in.Admission
	}
	if in.Position != nil {
		item.Position = *in.Position
	}
	if in.Variations != nil {
		variations, err := buildVariations(item.ID, in.Variations)
		if err != nil {
			return domain.Item{}, err
		}
		item.Variations = variations
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

// Delete refuses to remove an item that is referenced by order positions.
func (s *ItemService) Delete(ctx context.Context, eventID, id string) error {
	item, err := s.repo.Get(ctx, eventID, id)
	if err != nil {
		return err
	}
	inUse, err := s.repo.InUse(ctx, item.ID)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrItemInUse
	}
	return s.repo.Delete(ctx, item.ID)
}

func buildVariations(itemID string, inputs []VariationInput) ([]domain.ItemVariation, error) {
	variations := make([]domain.ItemVariation, 0, len(inputs))
	for _, v := range inputs {
		if v.Value == "" {
			return nil, domain.ErrItemNameRequired
		}
		if v.Price != nil {
			if _, err := domain.ParsePrice(*v.Price); err != nil {
				return nil, err
			}
		}
		variations = append(variations, domain.ItemVariation{
			ID:       newID(),
			ItemID:   itemID,
			Value:    v.Value,
			Price:    v.Price,
			Position: v.Position,
		})
	}
	return variations, nil
}

package app

import (
	"context"

	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/domain"
)

type ExhibitorRepository interface {
	Create(ctx context.Context, e domain.Exhibitor) error
	Get(ctx context.Context, organizerID, id string) (domain.Exhibitor, error)
	List(ctx context.Context, organizerID string, limit, offset int) ([]domain.Exhibitor, int, error)
	Update(ctx context.Context, e domain.Exhibitor) error
	UpdateAccessKey(ctx context.Context, id, accessKey string) error
	Delete(ctx context.Context, id string) error
}

type ExhibitorService struct {
	repo  ExhibitorRepository
	clock clock.Clock
}

func NewExhibitorService(repo ExhibitorRepository, clk clock.Clock) *ExhibitorService {
	return &ExhibitorService{repo: repo, clock: clk}
}

type ExhibitorInput struct {
	Name  string
	Booth string
}

func (s *ExhibitorService) Create(ctx context.Context, org domain.Organizer, in ExhibitorInput) (domain.Exhibitor, error) {
	if in.Name == "" {
		return domain.Exhibitor{}, domain.ErrExhibitorNameRequired
	}
	e := domain.Exhibitor{
		ID:          newID(),
		OrganizerID: org.ID,
		Name:        in.Name,
		Booth:       in.Booth,
		AccessKey:   newID(),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return domain.Exhibitor{}, err
	}
	return e, nil
}

func (s *ExhibitorService) Get(ctx context.Context, org domain.Organizer, id string) (domain.Exhibitor, error) {
	return s.repo.Get(ctx, org.ID, id)
}

func (s *ExhibitorService) List(ctx context.Context, org domain.Organizer, limit, offset int) ([]domain.Exhibitor, int, error) {
	return s.repo.List(ctx, org.ID, limit, offset)
}

type UpdateExhibitorInput struct {
	Name  *string
	Booth *string
}

func (s *ExhibitorService) Update(ctx context.Context, org domain.Organizer, id string, in UpdateExhibitorInput) (domain.Exhibitor, error) {
	e, err := s.repo.Get(ctx, org.ID, id)
	if err != nil {
		return domain.Exhibitor{}, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return domain.Exhibitor{}, domain.ErrExhibitorNameRequired
		}
		e.Name = *in.Name
	}
	if in.Booth != nil {
		e.Booth = *in.Booth
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return domain.Exhibitor{}, err
	}
	return e, nil
}

// RotateKey invalidates the previous access key by generating a fresh one.
func (s *ExhibitorService) RotateKey(ctx context.Context, org domain.Organizer, id string) (domain.Exhibitor, error) {
	e, err := s.repo.Get(ctx, org.ID, id)
	if err != nil {
		return domain.Exhibitor{}, err
	}
	e.AccessKey = newID()
	if err := s.repo.UpdateAccessKey(ctx, e.ID, e.AccessKey); err != nil {
		return domain.Exhibitor{}, err
	}
	return e, nil
}

func (s *ExhibitorService) Delete(ctx context.Context, org domain.Organizer, id string) error {
	e, err := s.repo.Get(ctx, org.ID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, e.ID)
}

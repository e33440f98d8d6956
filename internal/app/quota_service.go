package app

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/domain"
)

type QuotaRepository interface {
	Create(ctx context.Context, q domain.Quota) error
	Get(ctx context.Context, eventID, id string) (domain.Quota, error)
	List(ctx context.Context, eventID string, limit, offset int) ([]domain.Quota, int, error)
	Update(ctx context.Context, q domain.Quota) error
	Delete(ctx context.Context, id string) error
	ComputeAvailability(ctx context.Context, q domain.Quota, now time.Time) (domain.QuotaAvailability, error)
}

// QuotaService caches availability reads for a short window and collapses
// concurrent computations for the same quota. Reserving transactions never
// go through this cache; they use the repository's locked computation.
type QuotaService struct {
	repo  QuotaRepository
	clock clock.Clock
	cache *gocache.Cache
	group singleflight.Group
}

const availabilityCacheTTL = 5 * time.Second

func NewQuotaService(repo QuotaRepository, clk clock.Clock) *QuotaService {
	return &QuotaService{
		repo:  repo,
		clock: clk,
		cache: gocache.New(availabilityCacheTTL, time.Minute),
	}
}

type QuotaInput struct {
	Name         string
	Size         *int
	SubeventID   *string
	ItemIDs      []string
	VariationIDs []string
}

func validateQuotaInput(in QuotaInput) error {
	if in.Name == "" {
		return domain.ErrQuotaNameRequired
	}
	if in.Size != nil && *in.Size < 0 {
		return domain.ErrInvalidQuotaSize
	}
	if len(in.ItemIDs) == 0 && len(in.VariationIDs) == 0 {
		return domain.ErrQuotaItemsMissing
	}
	return nil
}

func (s *QuotaService) Create(ctx context.Context, ev domain.Event, in QuotaInput) (domain.Quota, error) {
	if err := validateQuotaInput(in); err != nil {
		return domain.Quota{}, err
	}
	if in.SubeventID != nil && !ev.HasSubevents {
		return domain.Quota{}, domain.ErrSubeventsDisabled
	}
	q := domain.Quota{
		ID:           newID(),
		EventID:      ev.ID,
		SubeventID:   in.SubeventID,
		Name:         in.Name,
		Size:         in.Size,
		ItemIDs:      in.ItemIDs,
		VariationIDs: in.VariationIDs,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return domain.Quota{}, err
	}
	return q, nil
}

func (s *QuotaService) Get(ctx context.Context, eventID, id string) (domain.Quota, error) {
	return s.repo.Get(ctx, eventID, id)
}

func (s *QuotaService) List(ctx context.Context, eventID string, limit, offset int) ([]domain.Quota, int, error) {
	return s.repo.List(ctx, eventID, limit, offset)
}

func (s *QuotaService) Update(ctx context.Context, ev domain.Event, id string, in QuotaInput) (domain.Quota, error) {
	if err := validateQuotaInput(in); err != nil {
		return domain.Quota{}, err
	}
	if in.SubeventID != nil && !ev.HasSubevents {
		return domain.Quota{}, domain.ErrSubeventsDisabled
	}
	q, err := s.repo.Get(ctx, ev.ID, id)
	if err != nil {
		return domain.Quota{}, err
	}
	q.Name = in.Name
	q.Size = in.Size
	q.SubeventID = in.SubeventID
	q.ItemIDs = in.ItemIDs
	q.VariationIDs = in.VariationIDs
	if err := s.repo.Update(ctx, q); err != nil {
		return domain.Quota{}, err
	}
	s.cache.Delete(q.ID)
	return q, nil
}

func (s *QuotaService) Delete(ctx context.Context, eventID, id string) error {
	q, err := s.repo.Get(ctx, eventID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, q.ID); err != nil {
		return err
	}
	s.cache.Delete(q.ID)
	return nil
}

func (s *QuotaService) Availability(ctx context.Context, eventID, id string) (domain.QuotaAvailability, error) {
	q, err := s.repo.Get(ctx, eventID, id)
	if err != nil {
		return domain.QuotaAvailability{}, err
	}

	v, err, _ := s.group.Do(q.ID, func() (any, error) {
		if cached, ok := s.cache.Get(q.ID); ok {
			return cached.(domain.QuotaAvailability), nil
		}
		avail, err := s.repo.ComputeAvailability(ctx, q, s.clock.Now())
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(q.ID, avail)
		return avail, nil
	})
	if err != nil {
		return domain.QuotaAvailability{}, err
	}
	return v.(domain.QuotaAvailability), nil
}

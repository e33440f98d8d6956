package app

import (
	"context"
	"time"

	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/domain"
)

type EventRepository interface {
	Create(ctx context.Context, e domain.Event) error
	GetBySlug(ctx context.Context, organizerID, slug string) (domain.Event, error)
	List(ctx context.Context, organizerID string, limit, offset int) ([]domain.Event, int, error)
	Update(ctx context.Context, e domain.Event) error
	Delete(ctx context.Context, eventID string) error
	HasOrders(ctx context.Context, eventID string) (bool, error)
	CreateSubevent(ctx context.Context, s domain.Subevent) error
	GetSubevent(ctx context.Context, eventID, id string) (domain.Subevent, error)
	ListSubevents(ctx context.Context, eventID string, limit, offset int) ([]domain.Subevent, int, error)
	UpdateSubevent(ctx context.Context, s domain.Subevent) error
	DeleteSubevent(ctx context.Context, id string) error
	SubeventHasOrders(ctx context.Context, subeventID string) (bool, error)
}

type EventService struct {
	repo  EventRepository
	clock clock.Clock
}

func NewEventService(repo EventRepository, clk clock.Clock) *EventService {
	return &EventService{repo: repo, clock: clk}
}

type CreateEventInput struct {
	Slug         string
	Name         string
	Live         bool
	Testmode     bool
	Currency     string
	DateFrom     *time.Time
	DateTo       *time.Time
	HasSubevents bool
}

func (s *EventService) Create(ctx context.Context, organizerID string, in CreateEventInput) (domain.Event, error) {
	if in.Slug == "" {
		return domain.Event{}, domain.ErrEventSlugRequired
	}
	if in.Name == "" {
		return domain.Event{}, domain.ErrEventNameRequired
	}
	currency := in.Currency
	if currency == "" {
		currency = "EUR"
	}

	e := domain.Event{
		ID:           newID(),
		OrganizerID:  organizerID,
		Slug:         in.Slug,
		Name:         in.Name,
		Live:         in.Live,
		Testmode:     in.Testmode,
		Currency:     currency,
		DateFrom:     in.DateFrom,
		DateTo:       in.DateTo,
		HasSubevents: in.HasSubevents,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

func (s *EventService) Get(ctx context.Context, organizerID, slug string) (domain.Event, error) {
	return s.repo.GetBySlug(ctx, organizerID, slug)
}

func (s *EventService) List(ctx context.Context, organizerID string, limit, offset int) ([]domain.Event, int, error) {
	return s.repo.List(ctx, organizerID, limit, offset)
}

type UpdateEventInput struct {
	Name     *string
	Live     *bool
	Testmode *bool
	Currency *string
	DateFrom *time.Time
	DateTo   *time.Time
}

func (s *EventService) Update(ctx context.Context, organizerID, slug string, in UpdateEventInput) (domain.Event, error) {
	e, err := s.repo.GetBySlug(ctx, organizerID, slug)
	if err != nil {
		return domain.Event{}, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return domain.Event{}, domain.ErrEventNameRequired
		}
		e.Name = *in.Name
	}
	if in.Live != nil {
		e.Live = *in.Live
	}
	if in.Testmode != nil {
		e.Testmode = *in.Testmode
	}
	if in.Currency != nil {
		e.Currency = *in.Currency
	}
	if in.DateFrom != nil {
		e.DateFrom = in.DateFrom
	}
	if in.DateTo != nil {
		e.DateTo = in.DateTo
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

// Delete refuses to remove an event that already has orders.
func (s *EventService) Delete(ctx context.Context, organizerID, slug string) error {
	e, err := s.repo.GetBySlug(ctx, organizerID, slug)
	if err != nil {
		return err
	}
	hasOrders, err := s.repo.HasOrders(ctx, e.ID)
	if err != nil {
		return err
	}
	if hasOrders {
		return domain.ErrEventHasOrders
	}
	return s.repo.Delete(ctx, e.ID)
}

type SubeventInput struct {
	Name     string
	DateFrom *time.Time
	DateTo   *time.Time
	Active   bool
}

func (s *EventService) CreateSubevent(ctx context.Context, ev domain.Event, in SubeventInput) (domain.Subevent, error) {
	if !ev.HasSubevents {
		return domain.Subevent{}, domain.ErrSubeventsDisabled
	}
	if in.Name == "" {
		return domain.Subevent{}, domain.ErrEventNameRequired
	}
	sub := domain.Subevent{
		ID:       newID(),
		EventID:  ev.ID,
		Name:     in.Name,
		DateFrom: in.DateFrom,
		DateTo:   in.DateTo,
		Active:   in.Active,
	}
	if err := s.repo.CreateSubevent(ctx, sub); err != nil {
		return domain.Subevent{}, err
	}
	return sub, nil
}

func (s *EventService) GetSubevent(ctx context.Context, ev domain.Event, id string) (domain.Subevent, error) {
	if !ev.HasSubevents {
		return domain.Subevent{}, domain.ErrSubeventsDisabled
	}
	return s.repo.GetSubevent(ctx, ev.ID, id)
}

func (s *EventService) ListSubevents(ctx context.Context, ev domain.Event, limit, offset int) ([]domain.Subevent, int, error) {
	if !ev.HasSubevents {
		return nil, 0, domain.ErrSubeventsDisabled
	}
	return s.repo.ListSubevents(ctx, ev.ID, limit, offset)
}

type UpdateSubeventInput struct {
	Name     *string
	DateFrom *time.Time
	DateTo   *time.Time
	Active   *bool
}

func (s *EventService) UpdateSubevent(ctx context.Context, ev domain.Event, id string, in UpdateSubeventInput) (domain.Subevent, error) {
	sub, err := s.GetSubevent(ctx, ev, id)
	if err != nil {
		return domain.Subevent{}, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return domain.Subevent{}, domain.ErrEventNameRequired
		}
		sub.Name = *in.Name
	}
	if in.DateFrom != nil {
		sub.DateFrom = in.DateFrom
	}
	if in.DateTo != nil {
		sub.DateTo = in.DateTo
	}
	if in.Active != nil {
		sub.Active = *in.Active
	}
	if err := s.repo.UpdateSubevent(ctx, sub); err != nil {
		return domain.Subevent{}, err
	}
	return sub, nil
}

func (s *EventService) DeleteSubevent(ctx context.Context, ev domain.Event, id string) error {
	sub, err := s.GetSubevent(ctx, ev, id)
	if err != nil {
		return err
	}
	hasOrders, err := s.repo.SubeventHasOrders(ctx, sub.ID)
	if err != nil {
		return err
	}
	if hasOrders {
		return domain.ErrSubeventHasOrders
	}
	return s.repo.DeleteSubevent(ctx, sub.ID)
}

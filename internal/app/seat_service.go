package app

import (
	"context"
	"time"

	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/domain"
)

type SeatRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, s domain.Seat) error
	Get(ctx context.Context, eventID, id string) (domain.Seat, error)
	List(ctx context.Context, eventID string, subeventID *string, now time.Time, limit, offset int) ([]domain.Seat, []bool, int, error)
}

type SeatService struct {
	repo  SeatRepository
	clock clock.Clock
}

func NewSeatService(repo SeatRepository, clk clock.Clock) *SeatService {
	return &SeatService{repo: repo, clock: clk}
}

type SeatInput struct {
	GUID       string
	Row        string
	Number     string
	ItemID     *string
	SubeventID *string
	Blocked    bool
}

// CreateSeats imports a batch of seats for an event, all or nothing.
func (s *SeatService) CreateSeats(ctx context.Context, ev domain.Event, inputs []SeatInput) ([]domain.Seat, error) {
	seats := make([]domain.Seat, 0, len(inputs))
	for _, in := range inputs {
		if in.GUID == "" {
			return nil, domain.ErrSeatGUIDRequired
		}
		if in.SubeventID != nil && !ev.HasSubevents {
			return nil, domain.ErrSubeventsDisabled
		}
		seats = append(seats, domain.Seat{
			ID:         newID(),
			EventID:    ev.ID,
			SubeventID: in.SubeventID,
			GUID:       in.GUID,
			Row:        in.Row,
			Number:     in.Number,
			ItemID:     in.ItemID,
			Blocked:    in.Blocked,
		})
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		for _, seat := range seats {
			if err := s.repo.Create(txCtx, seat); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seats, nil
}

func (s *SeatService) Get(ctx context.Context, eventID, id string) (domain.Seat, error) {
	return s.repo.Get(ctx, eventID, id)
}

// SeatAvailability pairs a seat with its computed availability.
type SeatAvailability struct {
	Seat        domain.Seat
	IsAvailable bool
}

func (s *SeatService) List(ctx context.Context, eventID string, subeventID *string, limit, offset int) ([]SeatAvailability, int, error) {
	seats, available, total, err := s.repo.List(ctx, eventID, subeventID, s.clock.Now(), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	result := make([]SeatAvailability, 0, len(seats))
	for i, seat := range seats {
		result = append(result, SeatAvailability{Seat: seat, IsAvailable: available[i]})
	}
	return result, total, nil
}

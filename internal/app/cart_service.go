package app

import (
	"context"
	"time"

	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/domain"
)

type CartRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetItem(ctx context.Context, eventID, itemID string) (domain.Item, error)
	LockQuotasForItem(ctx context.Context, eventID, itemID string, variationID, subeventID *string) ([]domain.Quota, error)
	ComputeAvailability(ctx context.Context, q domain.Quota, now time.Time) (domain.QuotaAvailability, error)
	Create(ctx context.Context, p domain.CartPosition) error
	Get(ctx context.Context, eventID, id string) (domain.CartPosition, error)
	List(ctx context.Context, eventID string, limit, offset int) ([]domain.CartPosition, int, error)
	Delete(ctx context.Context, id string) error
	GetSeatForUpdate(ctx context.Context, eventID, seatID string) (domain.Seat, error)
	SeatTaken(ctx context.Context, seatID string, now time.Time) (bool, error)
}

type CartService struct {
	repo    CartRepository
	clock   clock.Clock
	cartTTL time.Duration
}

const defaultCartTTL = 30 * time.Minute

func NewCartService(repo CartRepository, clk clock.Clock, opts ...CartServiceOption) *CartService {
	svc := &CartService{
		repo:    repo,
		clock:   clk,
		cartTTL: defaultCartTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CartServiceOption func(*CartService)

// WithCartTTL overrides the default lifetime of new cart positions.
func WithCartTTL(d time.Duration) CartServiceOption {
	return func(s *CartService) {
		if d > 0 {
			s.cartTTL = d
		}
	}
}

type CreateCartPositionInput struct {
	ItemID      string
	VariationID *string
	SubeventID  *string
	SeatID      *string
	Price       string
}

// Create reserves one unit of quota for the cart TTL. The quota rows
// covering the item are locked before availability is recomputed, so two
// concurrent reservations of the last unit cannot both succeed.
func (s *CartService) Create(ctx context.Context, ev domain.Event, in CreateCartPositionInput) (domain.CartPosition, error) {
	if err := validateSubeventScope(ev, in.SubeventID); err != nil {
		return domain.CartPosition{}, err
	}

	now := s.clock.Now()
	var result domain.CartPosition

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		item, err := s.repo.GetItem(txCtx, ev.ID, in.ItemID)
		if err != nil {
			return err
		}
		if err := validateVariation(item, in.VariationID); err != nil {
			return err
		}

		priceCents, err := resolvePrice(item, in.VariationID, in.Price)
		if err != nil {
			return err
		}

		if in.SeatID != nil {
			if err := checkSeat(txCtx, s.repo, ev.ID, *in.SeatID, item.ID, in.SubeventID, now); err != nil {
				return err
			}
		}

		quotas, err := s.repo.LockQuotasForItem(txCtx, ev.ID, item.ID, in.VariationID, in.SubeventID)
		if err != nil {
			return err
		}
		if len(quotas) == 0 {
			return domain.ErrInsufficientQuota
		}
		for _, q := range quotas {
			avail, err := s.repo.ComputeAvailability(txCtx, q, now)
			if err != nil {
				return err
			}
			if !avail.Available() {
				return domain.ErrInsufficientQuota
			}
		}

		result = domain.CartPosition{
			ID:          newID(),
			EventID:     ev.ID,
			SubeventID:  in.SubeventID,
			ItemID:      item.ID,
			VariationID: in.VariationID,
			SeatID:      in.SeatID,
			Price:       domain.FormatPrice(priceCents),
			ExpiresAt:   now.Add(s.cartTTL),
			CreatedAt:   now,
		}
		return s.repo.Create(txCtx, result)
	})
	if err != nil {
		return domain.CartPosition{}, err
	}
	return result, nil
}

func (s *CartService) Get(ctx context.Context, eventID, id string) (domain.CartPosition, error) {
	return s.repo.Get(ctx, eventID, id)
}

func (s *CartService) List(ctx context.Context, eventID string, limit, offset int) ([]domain.CartPosition, int, error) {
	return s.repo.List(ctx, eventID, limit, offset)
}

func (s *CartService) Delete(ctx context.Context, eventID, id string) error {
	p, err := s.repo.Get(ctx, eventID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, p.ID)
}

func validateSubeventScope(ev domain.Event, subeventID *string) error {
	if ev.HasSubevents && subeventID == nil {
		return domain.ErrSubeventRequired
	}
	if !ev.HasSubevents && subeventID != nil {
		return domain.ErrSubeventsDisabled
	}
	return nil
}

func validateVariation(item domain.Item, variationID *string) error {
	if variationID == nil {
		return nil
	}
	for _, v := range item.Variations {
		if v.ID == *variationID {
			return nil
		}
	}
	return domain.ErrVariationNotFound
}

func resolvePrice(item domain.Item, variationID *string, override string) (int64, error) {
	if override != "" {
		return domain.ParsePrice(override)
	}
	return domain.ParsePrice(item.PriceFor(variationID))
}

type seatChecker interface {
	GetSeatForUpdate(ctx context.Context, eventID, seatID string) (domain.Seat, error)
	SeatTaken(ctx context.Context, seatID string, now time.Time) (bool, error)
}

// checkSeat locks the seat row and verifies that it can take the position.
// The row lock makes concurrent claims of the same seat serialize, so the
// first writer wins and the second sees the taken seat.
func checkSeat(ctx context.Context, repo seatChecker, eventID, seatID, itemID string, subeventID *string, now time.Time) error {
	seat, err := repo.GetSeatForUpdate(ctx, eventID, seatID)
	if err != nil {
		return err
	}
	if seat.Blocked {
		return domain.ErrSeatBlocked
	}
	if seat.ItemID != nil && *seat.ItemID != itemID {
		return domain.ErrSeatBlocked
	}
	if !equalPtr(seat.SubeventID, subeventID) {
		return domain.ErrSeatNotFound
	}
	taken, err := repo.SeatTaken(ctx, seat.ID, now)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrSeatTaken
	}
	return nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

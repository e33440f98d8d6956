package app

import (
	"context"

	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/domain"
)

type CheckinRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateList(ctx context.Context, l domain.CheckinList) error
	GetList(ctx context.Context, eventID, id string) (domain.CheckinList, error)
	ListLists(ctx context.Context, eventID string, limit, offset int) ([]domain.CheckinList, int, error)
	UpdateList(ctx context.Context, l domain.CheckinList) error
	DeleteList(ctx context.Context, id string) error
	ListStatus(ctx context.Context, l domain.CheckinList) (domain.CheckinListStatus, error)
	GetPositionWithOrder(ctx context.Context, eventID, positionID string) (domain.OrderPosition, domain.Order, error)
	FindCheckinByNonce(ctx context.Context, listID, positionID, nonce string) (*domain.Checkin, error)
	HasEntryCheckin(ctx context.Context, listID, positionID string) (bool, error)
	CreateCheckin(ctx context.Context, c domain.Checkin) error
}

type CheckinService struct {
	repo  CheckinRepository
	clock clock.Clock
}

func NewCheckinService(repo CheckinRepository, clk clock.Clock) *CheckinService {
	return &CheckinService{repo: repo, clock: clk}
}

type CheckinListInput struct {
	Name           string
	AllItems       bool
	ItemIDs        []string
	SubeventID     *string
	IncludePending bool
}

func (s *CheckinService) CreateList(ctx context.Context, ev domain.Event, in CheckinListInput) (domain.CheckinList, error) {
	if in.Name == "" {
		return domain.CheckinList{}, domain.ErrCheckinListNameRequired
	}
	if in.SubeventID != nil && !ev.HasSubevents {
		return domain.CheckinList{}, domain.ErrSubeventsDisabled
	}
	l := domain.CheckinList{
		ID:             newID(),
		EventID:        ev.ID,
		Name:           in.Name,
		AllItems:       in.AllItems,
		ItemIDs:        in.ItemIDs,
		SubeventID:     in.SubeventID,
		IncludePending: in.IncludePending,
	}
	if l.AllItems {
		l.ItemIDs = nil
	}
	if err := s.repo.CreateList(ctx, l); err != nil {
		return domain.CheckinList{}, err
	}
	return l, nil
}

func (s *CheckinService) GetList(ctx context.Context, eventID, id string) (domain.CheckinList, error) {
	return s.repo.GetList(ctx, eventID, id)
}

func (s *CheckinService) ListLists(ctx context.Context, eventID string, limit, offset int) ([]domain.CheckinList, int, error) {
	return s.repo.ListLists(ctx, eventID, limit, offset)
}

func (s *CheckinService) UpdateList(ctx context.Context, ev domain.Event, id string, in CheckinListInput) (domain.CheckinList, error) {
	if in.Name == "" {
		return domain.CheckinList{}, domain.ErrCheckinListNameRequired
	}
	if in.SubeventID != nil && !ev.HasSubevents {
		return domain.CheckinList{}, domain.ErrSubeventsDisabled
	}
	l, err := s.repo.GetList(ctx, ev.ID, id)
	if err != nil {
		return domain.CheckinList{}, err
	}
	l.Name = in.Name
	l.AllItems = in.AllItems
	l.ItemIDs = in.ItemIDs
	l.SubeventID = in.SubeventID
	l.IncludePending = in.IncludePending
	if l.AllItems {
		l.ItemIDs = nil
	}
	if err := s.repo.UpdateList(ctx, l); err != nil {
		return domain.CheckinList{}, err
	}
	return l, nil
}

func (s *CheckinService) DeleteList(ctx context.Context, eventID, id string) error {
	l, err := s.repo.GetList(ctx, eventID, id)
	if err != nil {
		return err
	}
	return s.repo.DeleteList(ctx, l.ID)
}

func (s *CheckinService) ListStatus(ctx context.Context, eventID, id string) (domain.CheckinListStatus, error) {
	l, err := s.repo.GetList(ctx, eventID, id)
	if err != nil {
		return domain.CheckinListStatus{}, err
	}
	return s.repo.ListStatus(ctx, l)
}

type RedeemInput struct {
	ListID     string
	PositionID string
	Nonce      string
	Type       string
	Force      bool
}

// RedeemResult carries the check-in plus whether it was replayed. A replay
// of a known nonce returns the original check-in without creating a second
// row.
type RedeemResult struct {
	Checkin  domain.Checkin
	Repeated bool
}

// Redeem checks an order position in on a list. The nonce makes retries of
// the same scan idempotent: the replay is detected before any state checks
// so that a scanner resending a request always gets the original outcome.
func (s *CheckinService) Redeem(ctx context.Context, ev domain.Event, in RedeemInput) (RedeemResult, error) {
	if in.Nonce == "" {
		return RedeemResult{}, domain.ErrNonceRequired
	}
	typ := domain.CheckinTypeEntry
	switch in.Type {
	case "", string(domain.CheckinTypeEntry):
	case string(domain.CheckinTypeExit):
		typ = domain.CheckinTypeExit
	default:
		return RedeemResult{}, domain.ErrInvalidCheckinType
	}

	now := s.clock.Now()
	var result RedeemResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		l, err := s.repo.GetList(txCtx, ev.ID, in.ListID)
		if err != nil {
			return err
		}
		p, o, err := s.repo.GetPositionWithOrder(txCtx, ev.ID, in.PositionID)
		if err != nil {
			return err
		}

		if existing, err := s.repo.FindCheckinByNonce(txCtx, l.ID, p.ID, in.Nonce); err != nil {
			return err
		} else if existing != nil {
			result = RedeemResult{Checkin: *existing, Repeated: true}
			return nil
		}

		switch o.Status {
		case domain.OrderStatusPaid:
		case domain.OrderStatusPending:
			if !l.IncludePending {
				return domain.ErrOrderNotPaid
			}
		default:
			return domain.ErrOrderNotPaid
		}

		if l.SubeventID != nil && !equalPtr(l.SubeventID, p.SubeventID) {
			return domain.ErrPositionNotFound
		}
		if !l.Covers(p.ItemID) {
			return domain.ErrProductNotAllowed
		}

		if typ == domain.CheckinTypeEntry && !in.Force {
			checkedIn, err := s.repo.HasEntryCheckin(txCtx, l.ID, p.ID)
			if err != nil {
				return err
			}
			if checkedIn {
				return domain.ErrAlreadyRedeemed
			}
		}

		c := domain.Checkin{
			ID:         newID(),
			ListID:     l.ID,
			PositionID: p.ID,
			Type:       typ,
			Nonce:      in.Nonce,
			CreatedAt:  now,
		}
		if err := s.repo.CreateCheckin(txCtx, c); err != nil {
			// A concurrent request with the same nonce won the insert.
			if err == domain.ErrAlreadyRedeemed {
				existing, ferr := s.repo.FindCheckinByNonce(txCtx, l.ID, p.ID, in.Nonce)
				if ferr != nil {
					return ferr
				}
				if existing != nil {
					result = RedeemResult{Checkin: *existing, Repeated: true}
					return nil
				}
			}
			return err
		}
		result = RedeemResult{Checkin: c}
		return nil
	})
	if err != nil {
		return RedeemResult{}, err
	}
	return result, nil
}

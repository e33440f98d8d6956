package app

import (
	"context"
	"strings"
	"time"

	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/domain"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetItem(ctx context.Context, eventID, itemID string) (domain.Item, error)
	LockQuotasForItem(ctx context.Context, eventID, itemID string, variationID, subeventID *string) ([]domain.Quota, error)
	ComputeAvailability(ctx context.Context, q domain.Quota, now time.Time) (domain.QuotaAvailability, error)
	GetSeatForUpdate(ctx context.Context, eventID, seatID string) (domain.Seat, error)
	SeatTaken(ctx context.Context, seatID string, now time.Time) (bool, error)
	Create(ctx context.Context, o domain.Order) error
	CreatePosition(ctx context.Context, p domain.OrderPosition) error
	GetByCode(ctx context.Context, eventID, code string) (domain.Order, error)
	GetByCodeForUpdate(ctx context.Context, eventID, code string) (domain.Order, error)
	List(ctx context.Context, eventID, status, email string, limit, offset int) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	UpdateTotal(ctx context.Context, orderID, total string) error
	ListPositions(ctx context.Context, orderID string) ([]domain.OrderPosition, error)
	GetPosition(ctx context.Context, orderID, positionID string) (domain.OrderPosition, error)
	DeletePosition(ctx context.Context, id string) error
	GetCartPositionsForUpdate(ctx context.Context, eventID string, ids []string) ([]domain.CartPosition, error)
	DeleteCartPositions(ctx context.Context, ids []string) error
	GetVoucherByCodeForUpdate(ctx context.Context, eventID, code string) (domain.Voucher, error)
	IncrementVoucherRedeemed(ctx context.Context, voucherID string) error
	DecrementVoucherRedeemed(ctx context.Context, voucherID string) error
	NextInvoiceNumber(ctx context.Context, organizerID, prefix string) (string, error)
	CreateInvoice(ctx context.Context, inv domain.Invoice) error
	LatestInvoiceForOrder(ctx context.Context, orderID string) (*domain.Invoice, error)
}

type OrderService struct {
	repo        OrderRepository
	clock       clock.Clock
	paymentTerm time.Duration
}

const (
	defaultPaymentTerm = 14 * 24 * time.Hour
	maxCodeAttempts    = 5
)

func NewOrderService(repo OrderRepository, clk clock.Clock, opts ...OrderServiceOption) *OrderService {
	svc := &OrderService{
		repo:        repo,
		clock:       clk,
		paymentTerm: defaultPaymentTerm,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type OrderServiceOption func(*OrderService)

// WithPaymentTerm overrides how long a pending order may stay unpaid.
func WithPaymentTerm(d time.Duration) OrderServiceOption {
	return func(s *OrderService) {
		if d > 0 {
			s.paymentTerm = d
		}
	}
}

type OrderPositionInput struct {
	ItemID       string
	VariationID  *string
	SubeventID   *string
	SeatID       *string
	VoucherCode  string
	AttendeeName string
	Price        string
}

type CreateOrderInput struct {
	Email           string
	CustomerID      *string
	CartPositionIDs []string
	Positions       []OrderPositionInput
}

// resolvedPosition is a position whose item, price, seat and voucher have
// been validated inside the order transaction.
type resolvedPosition struct {
	itemID       string
	variationID  *string
	subeventID   *string
	seatID       *string
	voucherID    *string
	priceCents   int64
	attendeeName string
}

// Create creates a pending order either from explicit positions or by
// converting cart positions. Cart positions already hold their quota, so
// only explicit positions are checked against availability. The whole
// operation runs in one transaction; on any failure nothing is reserved.
func (s *OrderService) Create(ctx context.Context, ev domain.Event, in CreateOrderInput) (domain.Order, []domain.OrderPosition, error) {
	if in.Email == "" {
		return domain.Order{}, nil, domain.ErrEmailRequired
	}
	if len(in.CartPositionIDs) == 0 && len(in.Positions) == 0 {
		return domain.Order{}, nil, domain.ErrNoPositions
	}

	now := s.clock.Now()
	var order domain.Order
	var positions []domain.OrderPosition

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var resolved []resolvedPosition

		if len(in.CartPositionIDs) > 0 {
			carts, err := s.repo.GetCartPositionsForUpdate(txCtx, ev.ID, in.CartPositionIDs)
			if err != nil {
				return err
			}
			for _, c := range carts {
				if !c.ExpiresAt.After(now) {
					return domain.ErrCartPositionExpired
				}
				priceCents, err := domain.ParsePrice(c.Price)
				if err != nil {
					return err
				}
				resolved = append(resolved, resolvedPosition{
					itemID:      c.ItemID,
					variationID: c.VariationID,
					subeventID:  c.SubeventID,
					seatID:      c.SeatID,
					priceCents:  priceCents,
				})
			}
		}

		for _, p := range in.Positions {
			rp, err := s.resolvePosition(txCtx, ev, p, now)
			if err != nil {
				return err
			}
			resolved = append(resolved, rp)
		}

		var totalCents int64
		for _, rp := range resolved {
			totalCents += rp.priceCents
		}

		order = domain.Order{
			ID:         newID(),
			EventID:    ev.ID,
			Status:     domain.OrderStatusPending,
			Email:      in.Email,
			CustomerID: in.CustomerID,
			Total:      domain.FormatPrice(totalCents),
			ExpiresAt:  now.Add(s.paymentTerm),
			Testmode:   ev.Testmode,
			CreatedAt:  now,
		}
		if err := s.createWithFreshCode(txCtx, &order); err != nil {
			return err
		}

		positions = positions[:0]
		for i, rp := range resolved {
			pos := domain.OrderPosition{
				ID:           newID(),
				OrderID:      order.ID,
				PositionID:   i + 1,
				ItemID:       rp.itemID,
				VariationID:  rp.variationID,
				SubeventID:   rp.subeventID,
				SeatID:       rp.seatID,
				VoucherID:    rp.voucherID,
				Price:        domain.FormatPrice(rp.priceCents),
				AttendeeName: rp.attendeeName,
				Secret:       newPositionSecret(),
			}
			if err := s.repo.CreatePosition(txCtx, pos); err != nil {
				return err
			}
			positions = append(positions, pos)
		}

		if len(in.CartPositionIDs) > 0 {
			return s.repo.DeleteCartPositions(txCtx, in.CartPositionIDs)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, nil, err
	}
	return order, positions, nil
}

func (s *OrderService) resolvePosition(ctx context.Context, ev domain.Event, in OrderPositionInput, now time.Time) (resolvedPosition, error) {
	var rp resolvedPosition

	if err := validateSubeventScope(ev, in.SubeventID); err != nil {
		return rp, err
	}

	item, err := s.repo.GetItem(ctx, ev.ID, in.ItemID)
	if err != nil {
		return rp, err
	}
	if err := validateVariation(item, in.VariationID); err != nil {
		return rp, err
	}

	priceCents, err := resolvePrice(item, in.VariationID, in.Price)
	if err != nil {
		return rp, err
	}

	blockQuota := false
	var voucherID *string
	if in.VoucherCode != "" {
		voucher, err := s.repo.GetVoucherByCodeForUpdate(ctx, ev.ID, in.VoucherCode)
		if err != nil {
			return rp, err
		}
		if voucher.ValidUntil != nil && voucher.ValidUntil.Before(now) {
			return rp, domain.ErrVoucherExpired
		}
		if voucher.ItemID != nil && *voucher.ItemID != item.ID {
			return rp, domain.ErrVoucherItemMismatch
		}
		if err := s.repo.IncrementVoucherRedeemed(ctx, voucher.ID); err != nil {
			return rp, err
		}
		priceCents, err = voucher.ApplyTo(priceCents)
		if err != nil {
			return rp, err
		}
		voucherID = &voucher.ID
		blockQuota = voucher.BlockQuota
	}

	if in.SeatID != nil {
		if err := checkSeat(ctx, s.repo, ev.ID, *in.SeatID, item.ID, in.SubeventID, now); err != nil {
			return rp, err
		}
	}

	quotas, err := s.repo.LockQuotasForItem(ctx, ev.ID, item.ID, in.VariationID, in.SubeventID)
	if err != nil {
		return rp, err
	}
	if len(quotas) == 0 {
		return rp, domain.ErrInsufficientQuota
	}
	// A block_quota voucher was already counted against the quota before
	// redemption, so its redemption cannot oversell.
	if !blockQuota {
		for _, q := range quotas {
			avail, err := s.repo.ComputeAvailability(ctx, q, now)
			if err != nil {
				return rp, err
			}
			if !avail.Available() {
				return rp, domain.ErrInsufficientQuota
			}
		}
	}

	return resolvedPosition{
		itemID:       item.ID,
		variationID:  in.VariationID,
		subeventID:   in.SubeventID,
		seatID:       in.SeatID,
		voucherID:    voucherID,
		priceCents:   priceCents,
		attendeeName: in.AttendeeName,
	}, nil
}

func (s *OrderService) createWithFreshCode(ctx context.Context, o *domain.Order) error {
	var err error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		o.Code, err = newOrderCode()
		if err != nil {
			return err
		}
		err = s.repo.Create(ctx, *o)
		if err != domain.ErrOrderCodeTaken {
			return err
		}
	}
	return err
}

func (s *OrderService) Get(ctx context.Context, eventID, code string) (domain.Order, error) {
	return s.repo.GetByCode(ctx, eventID, code)
}

func (s *OrderService) List(ctx context.Context, eventID, status, email string, limit, offset int) ([]domain.Order, int, error) {
	if status != "" && !domain.ValidOrderStatus(status) {
		return nil, 0, domain.ErrInvalidOrderStatus
	}
	return s.repo.List(ctx, eventID, status, email, limit, offset)
}

func (s *OrderService) ListPositions(ctx context.Context, eventID, code string) ([]domain.OrderPosition, error) {
	o, err := s.repo.GetByCode(ctx, eventID, code)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPositions(ctx, o.ID)
}

// MarkPaid transitions a pending or expired order to paid. Reviving an
// expired order re-checks quota, since its positions stopped counting when
// it expired. The first successful payment generates an invoice.
func (s *OrderService) MarkPaid(ctx context.Context, org domain.Organizer, ev domain.Event, code string) (domain.Order, error) {
	now := s.clock.Now()
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		o, err := s.repo.GetByCodeForUpdate(txCtx, ev.ID, code)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusPending && o.Status != domain.OrderStatusExpired {
			return domain.ErrInvalidTransition
		}

		positions, err := s.repo.ListPositions(txCtx, o.ID)
		if err != nil {
			return err
		}

		if o.Status == domain.OrderStatusExpired {
			if err := s.recheckQuota(txCtx, ev, positions, now); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateStatus(txCtx, o.ID, domain.OrderStatusPaid); err != nil {
			return err
		}

		existing, err := s.repo.LatestInvoiceForOrder(txCtx, o.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := s.createInvoice(txCtx, org, ev, o, positions, false, nil, now); err != nil {
				return err
			}
		}

		o.Status = domain.OrderStatusPaid
		result = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// MarkCanceled transitions a pending or paid order to canceled. Canceling
// a pending order releases its voucher redemptions; canceling a paid order
// generates a cancellation invoice referencing the original.
func (s *OrderService) MarkCanceled(ctx context.Context, org domain.Organizer, ev domain.Event, code string) (domain.Order, error) {
	now := s.clock.Now()
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		o, err := s.repo.GetByCodeForUpdate(txCtx, ev.ID, code)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusPending && o.Status != domain.OrderStatusPaid {
			return domain.ErrInvalidTransition
		}

		positions, err := s.repo.ListPositions(txCtx, o.ID)
		if err != nil {
			return err
		}

		if o.Status == domain.OrderStatusPending {
			for _, p := range positions {
				if p.VoucherID == nil {
					continue
				}
				if err := s.repo.DecrementVoucherRedeemed(txCtx, *p.VoucherID); err != nil {
					return err
				}
			}
		}

		if err := s.repo.UpdateStatus(txCtx, o.ID, domain.OrderStatusCanceled); err != nil {
			return err
		}

		if o.Status == domain.OrderStatusPaid {
			original, err := s.repo.LatestInvoiceForOrder(txCtx, o.ID)
			if err != nil {
				return err
			}
			if original != nil {
				if err := s.createInvoice(txCtx, org, ev, o, positions, true, &original.Number, now); err != nil {
					return err
				}
			}
		}

		o.Status = domain.OrderStatusCanceled
		result = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// MarkPending reverts a paid order to pending, e.g. after a chargeback.
func (s *OrderService) MarkPending(ctx context.Context, ev domain.Event, code string) (domain.Order, error) {
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		o, err := s.repo.GetByCodeForUpdate(txCtx, ev.ID, code)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusPaid {
			return domain.ErrInvalidTransition
		}
		if err := s.repo.UpdateStatus(txCtx, o.ID, domain.OrderStatusPending); err != nil {
			return err
		}
		o.Status = domain.OrderStatusPending
		result = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// MarkExpired expires a pending order whose payment deadline has passed.
func (s *OrderService) MarkExpired(ctx context.Context, ev domain.Event, code string) (domain.Order, error) {
	now := s.clock.Now()
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		o, err := s.repo.GetByCodeForUpdate(txCtx, ev.ID, code)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusPending {
			return domain.ErrInvalidTransition
		}
		if o.ExpiresAt.After(now) {
			return domain.ErrOrderNotExpired
		}
		if err := s.repo.UpdateStatus(txCtx, o.ID, domain.OrderStatusExpired); err != nil {
			return err
		}
		o.Status = domain.OrderStatusExpired
		result = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// DeletePosition removes one position from a pending order. Deleting the
// last position cancels the order instead of leaving it empty.
func (s *OrderService) DeletePosition(ctx context.Context, ev domain.Event, code, positionID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		o, err := s.repo.GetByCodeForUpdate(txCtx, ev.ID, code)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusPending {
			return domain.ErrOrderNotPending
		}

		p, err := s.repo.GetPosition(txCtx, o.ID, positionID)
		if err != nil {
			return err
		}
		if err := s.repo.DeletePosition(txCtx, p.ID); err != nil {
			return err
		}
		if p.VoucherID != nil {
			if err := s.repo.DecrementVoucherRedeemed(txCtx, *p.VoucherID); err != nil {
				return err
			}
		}

		remaining, err := s.repo.ListPositions(txCtx, o.ID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return s.repo.UpdateStatus(txCtx, o.ID, domain.OrderStatusCanceled)
		}

		var totalCents int64
		for _, rp := range remaining {
			cents, err := domain.ParsePrice(rp.Price)
			if err != nil {
				return err
			}
			totalCents += cents
		}
		return s.repo.UpdateTotal(txCtx, o.ID, domain.FormatPrice(totalCents))
	})
}

func (s *OrderService) recheckQuota(ctx context.Context, ev domain.Event, positions []domain.OrderPosition, now time.Time) error {
	for _, p := range positions {
		quotas, err := s.repo.LockQuotasForItem(ctx, ev.ID, p.ItemID, p.VariationID, p.SubeventID)
		if err != nil {
			return err
		}
		for _, q := range quotas {
			avail, err := s.repo.ComputeAvailability(ctx, q, now)
			if err != nil {
				return err
			}
			if !avail.Available() {
				return domain.ErrInsufficientQuota
			}
		}
	}
	return nil
}

func (s *OrderService) createInvoice(ctx context.Context, org domain.Organizer, ev domain.Event, o domain.Order, positions []domain.OrderPosition, cancellation bool, refersTo *string, now time.Time) error {
	number, err := s.repo.NextInvoiceNumber(ctx, org.ID, strings.ToUpper(org.Slug))
	if err != nil {
		return err
	}

	inv := domain.Invoice{
		ID:             newID(),
		EventID:        ev.ID,
		OrderID:        o.ID,
		Number:         number,
		IsCancellation: cancellation,
		RefersTo:       refersTo,
		CreatedAt:      now,
	}
	for i, p := range positions {
		gross := p.Price
		if cancellation {
			gross = "-" + gross
		}
		description := "Ticket"
		if p.AttendeeName != "" {
			description = "Ticket for " + p.AttendeeName
		}
		inv.Lines = append(inv.Lines, domain.InvoiceLine{
			ID:          newID(),
			InvoiceID:   inv.ID,
			Position:    i + 1,
			Description: description,
			GrossValue:  gross,
		})
	}
	return s.repo.CreateInvoice(ctx, inv)
}

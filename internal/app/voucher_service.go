package app

import (
	"context"
	"time"

	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/domain"
)

type VoucherRepository interface {
	Create(ctx context.Context, v domain.Voucher) error
	Get(ctx context.Context, eventID, id string) (domain.Voucher, error)
	List(ctx context.Context, eventID string, limit, offset int) ([]domain.Voucher, int, error)
	Update(ctx context.Context, v domain.Voucher) error
	Delete(ctx context.Context, id string) error
}

type VoucherService struct {
	repo  VoucherRepository
	clock clock.Clock
}

func NewVoucherService(repo VoucherRepository, clk clock.Clock) *VoucherService {
	return &VoucherService{repo: repo, clock: clk}
}

type VoucherInput struct {
	Code        string
	MaxUsages   int
	PriceMode   string
	Value       *string
	ItemID      *string
	BlockQuota  bool
	ExhibitorID *string
	ValidUntil  *time.Time
}

func validateVoucherInput(in VoucherInput) error {
	if in.Code == "" {
		return domain.ErrVoucherCodeRequired
	}
	if in.PriceMode != "" && !domain.ValidPriceMode(in.PriceMode) {
		return domain.ErrInvalidPriceMode
	}
	if in.Value != nil {
		cents, err := domain.ParsePrice(*in.Value)
		if err != nil {
			return err
		}
		if domain.PriceMode(in.PriceMode) == domain.PriceModePercent && cents > 10000 {
			return domain.ErrInvalidPercent
		}
	}
	return nil
}

func (s *VoucherService) Create(ctx context.Context, eventID string, in VoucherInput) (domain.Voucher, error) {
	if err := validateVoucherInput(in); err != nil {
		return domain.Voucher{}, err
	}
	maxUsages := in.MaxUsages
	if maxUsages < 1 {
		maxUsages = 1
	}
	priceMode := domain.PriceMode(in.PriceMode)
	if priceMode == "" {
		priceMode = domain.PriceModeNone
	}

	v := domain.Voucher{
		ID:          newID(),
		EventID:     eventID,
		Code:        in.Code,
		MaxUsages:   maxUsages,
		PriceMode:   priceMode,
		Value:       in.Value,
		ItemID:      in.ItemID,
		BlockQuota:  in.BlockQuota,
		ExhibitorID: in.ExhibitorID,
		ValidUntil:  in.ValidUntil,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return domain.Voucher{}, err
	}
	return v, nil
}

func (s *VoucherService) Get(ctx context.Context, eventID, id string) (domain.Voucher, error) {
	return s.repo.Get(ctx, eventID, id)
}

func (s *VoucherService) List(ctx context.Context, eventID string, limit, offset int) ([]domain.Voucher, int, error) {
	return s.repo.List(ctx, eventID, limit, offset)
}

func (s *VoucherService) Update(ctx context.Context, eventID, id string, in VoucherInput) (domain.Voucher, error) {
	if err := validateVoucherInput(in); err != nil {
		return domain.Voucher{}, err
	}
	v, err := s.repo.Get(ctx, eventID, id)
	if err != nil {
		return domain.Voucher{}, err
	}
	v.Code = in.Code
	if in.MaxUsages >= 1 {
		v.MaxUsages = in.MaxUsages
	}
	if in.PriceMode != "" {
		v.PriceMode = domain.PriceMode(in.PriceMode)
	}
	v.Value = in.Value
	v.ItemID = in.ItemID
	v.BlockQuota = in.BlockQuota
	v.ExhibitorID = in.ExhibitorID
	v.ValidUntil = in.ValidUntil
	if err := s.repo.Update(ctx, v); err != nil {
		return domain.Voucher{}, err
	}
	return v, nil
}

// Delete refuses to remove a voucher that has been redeemed.
func (s *VoucherService) Delete(ctx context.Context, eventID, id string) error {
	v, err := s.repo.Get(ctx, eventID, id)
	if err != nil {
		return err
	}
	if v.Redeemed > 0 {
		return domain.ErrVoucherRedeemed
	}
	return s.repo.Delete(ctx, v.ID)
}

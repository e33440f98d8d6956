package app

import (
	"context"

	"github.com/foldline/boxoffice/internal/domain"
)

type InvoiceRepository interface {
	List(ctx context.Context, eventID string, limit, offset int) ([]domain.Invoice, int, error)
	GetByNumber(ctx context.Context, eventID, number string) (domain.Invoice, error)
}

// InvoiceService exposes invoices read-only; they are written by order
// transitions.
type InvoiceService struct {
	repo InvoiceRepository
}

func NewInvoiceService(repo InvoiceRepository) *InvoiceService {
	return &InvoiceService{repo: repo}
}

func (s *InvoiceService) List(ctx context.Context, eventID string, limit, offset int) ([]domain.Invoice, int, error) {
	return s.repo.List(ctx, eventID, limit, offset)
}

func (s *InvoiceService) Get(ctx context.Context, eventID, number string) (domain.Invoice, error) {
	return s.repo.GetByNumber(ctx, eventID, number)
}

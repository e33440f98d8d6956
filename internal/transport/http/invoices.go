package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/domain"
)

type invoiceService interface {
	List(ctx context.Context, eventID string, limit, offset int) ([]domain.Invoice, int, error)
	Get(ctx context.Context, eventID, number string) (domain.Invoice, error)
}

type invoiceLineResponse struct {
	Position    int    `json:"position"`
	Description string `json:"description"`
	GrossValue  string `json:"gross_value"`
}

type invoiceResponse struct {
	Number         string                `json:"number"`
	Order          string                `json:"order"`
	IsCancellation bool                  `json:"is_cancellation"`
	RefersTo       *string               `json:"refers_to"`
	Date           time.Time             `json:"date"`
	Lines          []invoiceLineResponse `json:"lines"`
}

func toInvoiceResponse(inv domain.Invoice) invoiceResponse {
	lines := make([]invoiceLineResponse, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, invoiceLineResponse{
			Position:    l.Position,
			Description: l.Description,
			GrossValue:  l.GrossValue,
		})
	}
	return invoiceResponse{
		Number:         inv.Number,
		Order:          inv.OrderID,
		IsCancellation: inv.IsCancellation,
		RefersTo:       inv.RefersTo,
		Date:           inv.CreatedAt,
		Lines:          lines,
	}
}

func HandleListInvoices(svc invoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		invoices, total, err := svc.List(r.Context(), eventFrom(r.Context()).ID, pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]invoiceResponse, 0, len(invoices))
		for _, inv := range invoices {
			results = append(results, toInvoiceResponse(inv))
		}
		respondList(w, r, page, total, results)
	}
}

func HandleGetInvoice(svc invoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := svc.Get(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "number"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

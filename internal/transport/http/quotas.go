package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type quotaService interface {
	Create(ctx context.Context, ev domain.Event, in app.QuotaInput) (domain.Quota, error)
	Get(ctx context.Context, eventID, id string) (domain.Quota, error)
	List(ctx context.Context, eventID string, limit, offset int) ([]domain.Quota, int, error)
	Update(ctx context.Context, ev domain.Event, id string, in app.QuotaInput) (domain.Quota, error)
	Delete(ctx context.Context, eventID, id string) error
	Availability(ctx context.Context, eventID, id string) (domain.QuotaAvailability, error)
}

type quotaResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Size       *int     `json:"size"`
	Subevent   *string  `json:"subevent"`
	Items      []string `json:"items"`
	Variations []string `json:"variations"`
}

func toQuotaResponse(q domain.Quota) quotaResponse {
	resp := quotaResponse{
		ID:         q.ID,
		Name:       q.Name,
		Size:       q.Size,
		Subevent:   q.SubeventID,
		Items:      q.ItemIDs,
		Variations: q.VariationIDs,
	}
	if resp.Items == nil {
		resp.Items = []string{}
	}
	if resp.Variations == nil {
		resp.Variations = []string{}
	}
	return resp
}

func HandleListQuotas(svc quotaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		quotas, total, err := svc.List(r.Context(), eventFrom(r.Context()).ID, pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]quotaResponse, 0, len(quotas))
		for _, q := range quotas {
			results = append(results, toQuotaResponse(q))
		}
		respondList(w, r, page, total, results)
	}
}

type quotaRequest struct {
	Name       string   `json:"name"`
	Size       *int     `json:"size"`
	Subevent   *string  `json:"subevent"`
	Items      []string `json:"items"`
	Variations []string `json:"variations"`
}

func (req quotaRequest) toInput() app.QuotaInput {
	return app.QuotaInput{
		Name:         req.Name,
		Size:         req.Size,
		SubeventID:   req.Subevent,
		ItemIDs:      req.Items,
		VariationIDs: req.Variations,
	}
}

func HandleCreateQuota(svc quotaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quotaRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		q, err := svc.Create(r.Context(), eventFrom(r.Context()), req.toInput())
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toQuotaResponse(q))
	}
}

func HandleGetQuota(svc quotaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := svc.Get(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toQuotaResponse(q))
	}
}

func HandleUpdateQuota(svc quotaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quotaRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		q, err := svc.Update(r.Context(), eventFrom(r.Context()), chi.URLParam(r, "id"), req.toInput())
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toQuotaResponse(q))
	}
}

func HandleDeleteQuota(svc quotaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type availabilityResponse struct {
	Available        bool `json:"available"`
	AvailableNumber  *int `json:"available_number"`
	TotalSize        *int `json:"total_size"`
	PaidOrders       int  `json:"paid_orders"`
	PendingOrders    int  `json:"pending_orders"`
	CartPositions    int  `json:"cart_positions"`
	BlockingVouchers int  `json:"blocking_vouchers"`
}

func HandleQuotaAvailability(svc quotaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		avail, err := svc.Availability(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, availabilityResponse{
			Available:        avail.Available(),
			AvailableNumber:  avail.AvailableNumber(),
			TotalSize:        avail.TotalSize,
			PaidOrders:       avail.PaidOrders,
			PendingOrders:    avail.PendingOrders,
			CartPositions:    avail.CartPositions,
			BlockingVouchers: avail.BlockingVouchers,
		})
	}
}

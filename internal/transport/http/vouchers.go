package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type voucherService interface {
	Create(ctx context.Context, eventID string, in app.VoucherInput) (domain.Voucher, error)
	Get(ctx context.Context, eventID, id string) (domain.Voucher, error)
	List(ctx context.Context, eventID string, limit, offset int) ([]domain.Voucher, int, error)
	Update(ctx context.Context, eventID, id string, in app.VoucherInput) (domain.Voucher, error)
	Delete(ctx context.Context, eventID, id string) error
}

type voucherResponse struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	MaxUsages  int        `json:"max_usages"`
	Redeemed   int        `json:"redeemed"`
	PriceMode  string     `json:"price_mode"`
	Value      *string    `json:"value"`
	Item       *string    `json:"item"`
	BlockQuota bool       `json:"block_quota"`
	Exhibitor  *string    `json:"exhibitor"`
	ValidUntil *time.Time `json:"valid_until"`
}

func toVoucherResponse(v domain.Voucher) voucherResponse {
	return voucherResponse{
		ID:         v.ID,
		Code:       v.Code,
		MaxUsages:  v.MaxUsages,
		Redeemed:   v.Redeemed,
		PriceMode:  string(v.PriceMode),
		Value:      v.Value,
		Item:       v.ItemID,
		BlockQuota: v.BlockQuota,
		Exhibitor:  v.ExhibitorID,
		ValidUntil: v.ValidUntil,
	}
}

func HandleListVouchers(svc voucherService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		vouchers, total, err := svc.List(r.Context(), eventFrom(r.Context()).ID, pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]voucherResponse, 0, len(vouchers))
		for _, v := range vouchers {
			results = append(results, toVoucherResponse(v))
		}
		respondList(w, r, page, total, results)
	}
}

type voucherRequest struct {
	Code       string     `json:"code"`
	MaxUsages  int        `json:"max_usages"`
	PriceMode  string     `json:"price_mode"`
	Value      *string    `json:"value"`
	Item       *string    `json:"item"`
	BlockQuota bool       `json:"block_quota"`
	Exhibitor  *string    `json:"exhibitor"`
	ValidUntil *time.Time `json:"valid_until"`
}

func (req voucherRequest) toInput() app.VoucherInput {
	return app.VoucherInput{
		Code:        req.Code,
		MaxUsages:   req.MaxUsages,
		PriceMode:   req.PriceMode,
		Value:       req.Value,
		ItemID:      req.Item,
		BlockQuota:  req.BlockQuota,
		ExhibitorID: req.Exhibitor,
		ValidUntil:  req.ValidUntil,
	}
}

func HandleCreateVoucher(svc voucherService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req voucherRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		v, err := svc.Create(r.Context(), eventFrom(r.Context()).ID, req.toInput())
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toVoucherResponse(v))
	}
}

func HandleGetVoucher(svc voucherService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Get(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toVoucherResponse(v))
	}
}

func HandleUpdateVoucher(svc voucherService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req voucherRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		v, err := svc.Update(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id"), req.toInput())
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toVoucherResponse(v))
	}
}

func HandleDeleteVoucher(svc voucherService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type orderService interface {
	Create(ctx context.Context, ev domain.Event, in app.CreateOrderInput) (domain.Order, []domain.OrderPosition, error)
	Get(ctx context.Context, eventID, code string) (domain.Order, error)
	List(ctx context.Context, eventID, status, email string, limit, offset int) ([]domain.Order, int, error)
	ListPositions(ctx context.Context, eventID, code string) ([]domain.OrderPosition, error)
	MarkPaid(ctx context.Context, org domain.Organizer, ev domain.Event, code string) (domain.Order, error)
	MarkCanceled(ctx context.Context, org domain.Organizer, ev domain.Event, code string) (domain.Order, error)
	MarkPending(ctx context.Context, ev domain.Event, code string) (domain.Order, error)
	MarkExpired(ctx context.Context, ev domain.Event, code string) (domain.Order, error)
	DeletePosition(ctx context.Context, ev domain.Event, code, positionID string) error
}

type orderPositionResponse struct {
	ID           string  `json:"id"`
	Position     int     `json:"position"`
	Item         string  `json:"item"`
	Variation    *string `json:"variation"`
	Subevent     *string `json:"subevent"`
	Seat         *string `json:"seat"`
	Price        string  `json:"price"`
	AttendeeName string  `json:"attendee_name"`
	Secret       string  `json:"secret"`
}

func toOrderPositionResponse(p domain.OrderPosition) orderPositionResponse {
	return orderPositionResponse{
		ID:           p.ID,
		Position:     p.PositionID,
		Item:         p.ItemID,
		Variation:    p.VariationID,
		Subevent:     p.SubeventID,
		Seat:         p.SeatID,
		Price:        p.Price,
		AttendeeName: p.AttendeeName,
		Secret:       p.Secret,
	}
}

type orderResponse struct {
	Code      string                  `json:"code"`
	Status    string                  `json:"status"`
	Email     string                  `json:"email"`
	Customer  *string                 `json:"customer"`
	Total     string                  `json:"total"`
	Expires   time.Time               `json:"expires"`
	Testmode  bool                    `json:"testmode"`
	Created   time.Time               `json:"created"`
	Positions []orderPositionResponse `json:"positions,omitempty"`
}

func toOrderResponse(o domain.Order, positions []domain.OrderPosition) orderResponse {
	resp := orderResponse{
		Code:     o.Code,
		Status:   string(o.Status),
		Email:    o.Email,
		Customer: o.CustomerID,
		Total:    o.Total,
		Expires:  o.ExpiresAt,
		Testmode: o.Testmode,
		Created:  o.CreatedAt,
	}
	for _, p := range positions {
		resp.Positions = append(resp.Positions, toOrderPositionResponse(p))
	}
	return resp
}

func HandleListOrders(svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		status := r.URL.Query().Get("status")
		email := r.URL.Query().Get("email")
		orders, total, err := svc.List(r.Context(), eventFrom(r.Context()).ID, status, email, pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]orderResponse, 0, len(orders))
		for _, o := range orders {
			results = append(results, toOrderResponse(o, nil))
		}
		respondList(w, r, page, total, results)
	}
}

type orderPositionRequest struct {
	Item         string  `json:"item"`
	Variation    *string `json:"variation"`
	Subevent     *string `json:"subevent"`
	Seat         *string `json:"seat"`
	Voucher      string  `json:"voucher"`
	AttendeeName string  `json:"attendee_name"`
	Price        string  `json:"price"`
}

type createOrderRequest struct {
	Email         string                 `json:"email"`
	Customer      *string                `json:"customer"`
	CartPositions []string               `json:"cart_positions"`
	Positions     []orderPositionRequest `json:"positions"`
}

func HandleCreateOrder(svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		in := app.CreateOrderInput{
			Email:           req.Email,
			CustomerID:      req.Customer,
			CartPositionIDs: req.CartPositions,
		}
		for _, p := range req.Positions {
			in.Positions = append(in.Positions, app.OrderPositionInput{
				ItemID:       p.Item,
				VariationID:  p.Variation,
				SubeventID:   p.Subevent,
				SeatID:       p.Seat,
				VoucherCode:  p.Voucher,
				AttendeeName: p.AttendeeName,
				Price:        p.Price,
			})
		}
		o, positions, err := svc.Create(r.Context(), eventFrom(r.Context()), in)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toOrderResponse(o, positions))
	}
}

func HandleGetOrder(svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev := eventFrom(r.Context())
		code := chi.URLParam(r, "code")
		o, err := svc.Get(r.Context(), ev.ID, code)
		if err != nil {
			respondError(w, err)
			return
		}
		positions, err := svc.ListPositions(r.Context(), ev.ID, code)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(o, positions))
	}
}

func HandleListOrderPositions(svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		positions, err := svc.ListPositions(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "code"))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]orderPositionResponse, 0, len(positions))
		for _, p := range positions {
			results = append(results, toOrderPositionResponse(p))
		}
		respondList(w, r, page, len(results), results)
	}
}

func HandleDeleteOrderPosition(svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.DeletePosition(r.Context(), eventFrom(r.Context()), chi.URLParam(r, "code"), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleMarkOrderPaid(svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org := organizerFrom(r.Context())
		o, err := svc.MarkPaid(r.Context(), org, eventFrom(r.Context()), chi.URLParam(r, "code"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(o, nil))
	}
}

func HandleMarkOrderCanceled(svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org := organizerFrom(r.Context())
		o, err := svc.MarkCanceled(r.Context(), org, eventFrom(r.Context()), chi.URLParam(r, "code"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(o, nil))
	}
}

func HandleMarkOrderPending(svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := svc.MarkPending(r.Context(), eventFrom(r.Context()), chi.URLParam(r, "code"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(o, nil))
	}
}

func HandleMarkOrderExpired(svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := svc.MarkExpired(r.Context(), eventFrom(r.Context()), chi.URLParam(r, "code"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(o, nil))
	}
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type cartService interface {
	Create(ctx context.Context, ev domain.Event, in app.CreateCartPositionInput) (domain.CartPosition, error)
	Get(ctx context.Context, eventID, id string) (domain.CartPosition, error)
	List(ctx context.Context, eventID string, limit, offset int) ([]domain.CartPosition, int, error)
	Delete(ctx context.Context, eventID, id string) error
}

type cartPositionResponse struct {
	ID        string    `json:"id"`
	Item      string    `json:"item"`
	Variation *string   `json:"variation"`
	Subevent  *string   `json:"subevent"`
	Seat      *string   `json:"seat"`
	Price     string    `json:"price"`
	Expires   time.Time `json:"expires"`
}

func toCartPositionResponse(p domain.CartPosition) cartPositionResponse {
	return cartPositionResponse{
		ID:        p.ID,
		Item:      p.ItemID,
		Variation: p.VariationID,
		Subevent:  p.SubeventID,
		Seat:      p.SeatID,
		Price:     p.Price,
		Expires:   p.ExpiresAt,
	}
}

func HandleListCartPositions(svc cartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		positions, total, err := svc.List(r.Context(), eventFrom(r.Context()).ID, pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]cartPositionResponse, 0, len(positions))
		for _, p := range positions {
			results = append(results, toCartPositionResponse(p))
		}
		respondList(w, r, page, total, results)
	}
}

type createCartPositionRequest struct {
	Item      string  `json:"item"`
	Variation *string `json:"variation"`
	Subevent  *string `json:"subevent"`
	Seat      *string `json:"seat"`
	Price     string  `json:"price"`
}

func HandleCreateCartPosition(svc cartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCartPositionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		p, err := svc.Create(r.Context(), eventFrom(r.Context()), app.CreateCartPositionInput{
			ItemID:      req.Item,
			VariationID: req.Variation,
			SubeventID:  req.Subevent,
			SeatID:      req.Seat,
			Price:       req.Price,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCartPositionResponse(p))
	}
}

func HandleGetCartPosition(svc cartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartPositionResponse(p))
	}
}

func HandleDeleteCartPosition(svc cartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type itemService interface {
	Create(ctx context.Context, eventID string, in app.CreateItemInput) (domain.Item, error)
	Get(ctx context.Context, eventID, id string) (domain.Item, error)
	List(ctx context.Context, eventID string, limit, offset int) ([]domain.Item, int, error)
	Update(ctx context.Context, eventID, id string, in app.UpdateItemInput) (domain.Item, error)
	Delete(ctx context.Context, eventID, id string) error
}

type variationResponse struct {
	ID       string  `json:"id"`
	Value    string  `json:"value"`
	Price    *string `json:"price"`
	Position int     `json:"position"`
}

type itemResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	DefaultPrice string              `json:"default_price"`
	Active       bool                `json:"active"`
	Admission    bool                `json:"admission"`
	Position     int                 `json:"position"`
	Variations   []variationResponse `json:"variations"`
}

func toItemResponse(item domain.Item) itemResponse {
	variations := make([]variationResponse, 0, len(item.Variations))
	for _, v := range item.Variations {
		variations = append(variations, variationResponse{
			ID:       v.ID,
			Value:    v.Value,
			Price:    v.Price,
			Position: v.Position,
		})
	}
	return itemResponse{
		ID:           item.ID,
		Name:         item.Name,
		DefaultPrice: item.DefaultPrice,
		Active:       item.Active,
		Admission:    item.Admission,
		Position:     item.Position,
		Variations:   variations,
	}
}

func HandleListItems(svc itemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		items, total, err := svc.List(r.Context(), eventFrom(r.Context()).ID, pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]itemResponse, 0, len(items))
		for _, item := range items {
			results = append(results, toItemResponse(item))
		}
		respondList(w, r, page, total, results)
	}
}

type variationRequest struct {
	Value    string  `json:"value"`
	Price    *string `json:"price"`
	Position int     `json:"position"`
}

type createItemRequest struct {
	Name         string             `json:"name"`
	DefaultPrice string             `json:"default_price"`
	Active       bool               `json:"active"`
	Admission    bool               `json:"admission"`
	Position     int                `json:"position"`
	Variations   []variationRequest `json:"variations"`
}

func toVariationInputs(reqs []variationRequest) []app.VariationInput {
	if reqs == nil {
		return nil
	}
	inputs := make([]app.VariationInput, 0, len(reqs))
	for _, v := range reqs {
		inputs = append(inputs, app.VariationInput{
			Value:    v.Value,
			Price:    v.Price,
			Position: v.Position,
		})
	}
	return inputs
}

func HandleCreateItem(svc itemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		item, err := svc.Create(r.Context(), eventFrom(r.Context()).ID, app.CreateItemInput{
			Name:         req.Name,
			DefaultPrice: req.DefaultPrice,
			Active:       req.Active,
			Admission:    req.Admission,
			Position:     req.Position,
			Variations:   toVariationInputs(req.Variations),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toItemResponse(item))
	}
}

func HandleGetItem(svc itemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := svc.Get(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(item))
	}
}

type updateItemRequest struct {
	Name         *string            `json:"name"`
	DefaultPrice *string            `json:"default_price"`
	Active       *bool              `json:"active"`
	Admission    *bool              `json:"admission"`
	Position     *int               `json:"position"`
	Variations   []variationRequest `json:"variations"`
}

func HandleUpdateItem(svc itemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateItemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		item, err := svc.Update(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id"), app.UpdateItemInput{
			Name:         req.Name,
			DefaultPrice: req.DefaultPrice,
			Active:       req.Active,
			Admission:    req.Admission,
			Position:     req.Position,
			Variations:   toVariationInputs(req.Variations),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(item))
	}
}

func HandleDeleteItem(svc itemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

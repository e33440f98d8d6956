package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type checkinService interface {
	CreateList(ctx context.Context, ev domain.Event, in app.CheckinListInput) (domain.CheckinList, error)
	GetList(ctx context.Context, eventID, id string) (domain.CheckinList, error)
	ListLists(ctx context.Context, eventID string, limit, offset int) ([]domain.CheckinList, int, error)
	UpdateList(ctx context.Context, ev domain.Event, id string, in app.CheckinListInput) (domain.CheckinList, error)
	DeleteList(ctx context.Context, eventID, id string) error
	ListStatus(ctx context.Context, eventID, id string) (domain.CheckinListStatus, error)
	Redeem(ctx context.Context, ev domain.Event, in app.RedeemInput) (app.RedeemResult, error)
}

type checkinListResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	AllItems       bool     `json:"all_items"`
	Items          []string `json:"items"`
	Subevent       *string  `json:"subevent"`
	IncludePending bool     `json:"include_pending"`
}

func toCheckinListResponse(l domain.CheckinList) checkinListResponse {
	resp := checkinListResponse{
		ID:             l.ID,
		Name:           l.Name,
		AllItems:       l.AllItems,
		Items:          l.ItemIDs,
		Subevent:       l.SubeventID,
		IncludePending: l.IncludePending,
	}
	if resp.Items == nil {
		resp.Items = []string{}
	}
	return resp
}

func HandleListCheckinLists(svc checkinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		lists, total, err := svc.ListLists(r.Context(), eventFrom(r.Context()).ID, pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]checkinListResponse, 0, len(lists))
		for _, l := range lists {
			results = append(results, toCheckinListResponse(l))
		}
		respondList(w, r, page, total, results)
	}
}

type checkinListRequest struct {
	Name           string   `json:"name"`
	AllItems       bool     `json:"all_items"`
	Items          []string `json:"items"`
	Subevent       *string  `json:"subevent"`
	IncludePending bool     `json:"include_pending"`
}

func (req checkinListRequest) toInput() app.CheckinListInput {
	return app.CheckinListInput{
		Name:           req.Name,
		AllItems:       req.AllItems,
		ItemIDs:        req.Items,
		SubeventID:     req.Subevent,
		IncludePending: req.IncludePending,
	}
}

func HandleCreateCheckinList(svc checkinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkinListRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		l, err := svc.CreateList(r.Context(), eventFrom(r.Context()), req.toInput())
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCheckinListResponse(l))
	}
}

func HandleGetCheckinList(svc checkinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := svc.GetList(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCheckinListResponse(l))
	}
}

func HandleUpdateCheckinList(svc checkinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkinListRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		l, err := svc.UpdateList(r.Context(), eventFrom(r.Context()), chi.URLParam(r, "id"), req.toInput())
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCheckinListResponse(l))
	}
}

func HandleDeleteCheckinList(svc checkinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteList(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type checkinListStatusResponse struct {
	PositionCount int `json:"position_count"`
	CheckinCount  int `json:"checkin_count"`
}

func HandleCheckinListStatus(svc checkinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.ListStatus(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, checkinListStatusResponse{
			PositionCount: st.PositionCount,
			CheckinCount:  st.CheckinCount,
		})
	}
}

type redeemRequest struct {
	Nonce string `json:"nonce"`
	Type  string `json:"type"`
	Force bool   `json:"force"`
}

type checkinResponse struct {
	ID       string    `json:"id"`
	List     string    `json:"list"`
	Position string    `json:"position"`
	Type     string    `json:"type"`
	Nonce    string    `json:"nonce"`
	Datetime time.Time `json:"datetime"`
}

func toCheckinResponse(c domain.Checkin) checkinResponse {
	return checkinResponse{
		ID:       c.ID,
		List:     c.ListID,
		Position: c.PositionID,
		Type:     string(c.Type),
		Nonce:    c.Nonce,
		Datetime: c.CreatedAt,
	}
}

// HandleRedeem checks a position in. A replayed nonce answers 200 with the
// original check-in; a fresh scan answers 201.
func HandleRedeem(svc checkinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redeemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		result, err := svc.Redeem(r.Context(), eventFrom(r.Context()), app.RedeemInput{
			ListID:     chi.URLParam(r, "id"),
			PositionID: chi.URLParam(r, "positionid"),
			Nonce:      req.Nonce,
			Type:       req.Type,
			Force:      req.Force,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		status := http.StatusCreated
		if result.Repeated {
			status = http.StatusOK
		}
		writeJSON(w, status, toCheckinResponse(result.Checkin))
	}
}

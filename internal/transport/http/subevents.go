package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type subeventService interface {
	CreateSubevent(ctx context.Context, ev domain.Event, in app.SubeventInput) (domain.Subevent, error)
	GetSubevent(ctx context.Context, ev domain.Event, id string) (domain.Subevent, error)
	ListSubevents(ctx context.Context, ev domain.Event, limit, offset int) ([]domain.Subevent, int, error)
	UpdateSubevent(ctx context.Context, ev domain.Event, id string, in app.UpdateSubeventInput) (domain.Subevent, error)
	DeleteSubevent(ctx context.Context, ev domain.Event, id string) error
}

type subeventResponse struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Active   bool       `json:"active"`
}

func toSubeventResponse(s domain.Subevent) subeventResponse {
	return subeventResponse{
		ID:       s.ID,
		Name:     s.Name,
		DateFrom: s.DateFrom,
		DateTo:   s.DateTo,
		Active:   s.Active,
	}
}

func HandleListSubevents(svc subeventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		subevents, total, err := svc.ListSubevents(r.Context(), eventFrom(r.Context()), pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]subeventResponse, 0, len(subevents))
		for _, s := range subevents {
			results = append(results, toSubeventResponse(s))
		}
		respondList(w, r, page, total, results)
	}
}

type subeventRequest struct {
	Name     string     `json:"name"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Active   bool       `json:"active"`
}

func HandleCreateSubevent(svc subeventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subeventRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		s, err := svc.CreateSubevent(r.Context(), eventFrom(r.Context()), app.SubeventInput{
			Name:     req.Name,
			DateFrom: req.DateFrom,
			DateTo:   req.DateTo,
			Active:   req.Active,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSubeventResponse(s))
	}
}

func HandleGetSubevent(svc subeventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.GetSubevent(r.Context(), eventFrom(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSubeventResponse(s))
	}
}

type updateSubeventRequest struct {
	Name     *string    `json:"name"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Active   *bool      `json:"active"`
}

func HandleUpdateSubevent(svc subeventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateSubeventRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		s, err := svc.UpdateSubevent(r.Context(), eventFrom(r.Context()), chi.URLParam(r, "id"), app.UpdateSubeventInput{
			Name:     req.Name,
			DateFrom: req.DateFrom,
			DateTo:   req.DateTo,
			Active:   req.Active,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSubeventResponse(s))
	}
}

func HandleDeleteSubevent(svc subeventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteSubevent(r.Context(), eventFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type eventService interface {
	Create(ctx context.Context, organizerID string, in app.CreateEventInput) (domain.Event, error)
	Get(ctx context.Context, organizerID, slug string) (domain.Event, error)
	List(ctx context.Context, organizerID string, limit, offset int) ([]domain.Event, int, error)
	Update(ctx context.Context, organizerID, slug string, in app.UpdateEventInput) (domain.Event, error)
	Delete(ctx context.Context, organizerID, slug string) error
}

type eventResponse struct {
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	Live         bool       `json:"live"`
	Testmode     bool       `json:"testmode"`
	Currency     string     `json:"currency"`
	DateFrom     *time.Time `json:"date_from"`
	DateTo       *time.Time `json:"date_to"`
	HasSubevents bool       `json:"has_subevents"`
}

func toEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		Slug:         e.Slug,
		Name:         e.Name,
		Live:         e.Live,
		Testmode:     e.Testmode,
		Currency:     e.Currency,
		DateFrom:     e.DateFrom,
		DateTo:       e.DateTo,
		HasSubevents: e.HasSubevents,
	}
}

func HandleListEvents(svc eventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		org := organizerFrom(r.Context())
		events, total, err := svc.List(r.Context(), org.ID, pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]eventResponse, 0, len(events))
		for _, e := range events {
			results = append(results, toEventResponse(e))
		}
		respondList(w, r, page, total, results)
	}
}

type createEventRequest struct {
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	Live         bool       `json:"live"`
	Testmode     bool       `json:"testmode"`
	Currency     string     `json:"currency"`
	DateFrom     *time.Time `json:"date_from"`
	DateTo       *time.Time `json:"date_to"`
	HasSubevents bool       `json:"has_subevents"`
}

func HandleCreateEvent(svc eventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEventRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		org := organizerFrom(r.Context())
		e, err := svc.Create(r.Context(), org.ID, app.CreateEventInput{
			Slug:         req.Slug,
			Name:         req.Name,
			Live:         req.Live,
			Testmode:     req.Testmode,
			Currency:     req.Currency,
			DateFrom:     req.DateFrom,
			DateTo:       req.DateTo,
			HasSubevents: req.HasSubevents,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEventResponse(e))
	}
}

func HandleGetEvent(svc eventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org := organizerFrom(r.Context())
		e, err := svc.Get(r.Context(), org.ID, chi.URLParam(r, "event"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(e))
	}
}

type updateEventRequest struct {
	Name     *string    `json:"name"`
	Live     *bool      `json:"live"`
	Testmode *bool      `json:"testmode"`
	Currency *string    `json:"currency"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
}

func HandleUpdateEvent(svc eventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateEventRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		org := organizerFrom(r.Context())
		e, err := svc.Update(r.Context(), org.ID, chi.URLParam(r, "event"), app.UpdateEventInput{
			Name:     req.Name,
			Live:     req.Live,
			Testmode: req.Testmode,
			Currency: req.Currency,
			DateFrom: req.DateFrom,
			DateTo:   req.DateTo,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(e))
	}
}

func HandleDeleteEvent(svc eventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org := organizerFrom(r.Context())
		if err := svc.Delete(r.Context(), org.ID, chi.URLParam(r, "event")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type exhibitorService interface {
	Create(ctx context.Context, org domain.Organizer, in app.ExhibitorInput) (domain.Exhibitor, error)
	Get(ctx context.Context, org domain.Organizer, id string) (domain.Exhibitor, error)
	List(ctx context.Context, org domain.Organizer, limit, offset int) ([]domain.Exhibitor, int, error)
	Update(ctx context.Context, org domain.Organizer, id string, in app.UpdateExhibitorInput) (domain.Exhibitor, error)
	RotateKey(ctx context.Context, org domain.Organizer, id string) (domain.Exhibitor, error)
	Delete(ctx context.Context, org domain.Organizer, id string) error
}

type exhibitorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Booth     string `json:"booth"`
	AccessKey string `json:"access_key"`
}

func toExhibitorResponse(e domain.Exhibitor) exhibitorResponse {
	return exhibitorResponse{
		ID:        e.ID,
		Name:      e.Name,
		Booth:     e.Booth,
		AccessKey: e.AccessKey,
	}
}

func HandleListExhibitors(svc exhibitorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		exhibitors, total, err := svc.List(r.Context(), organizerFrom(r.Context()), pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]exhibitorResponse, 0, len(exhibitors))
		for _, e := range exhibitors {
			results = append(results, toExhibitorResponse(e))
		}
		respondList(w, r, page, total, results)
	}
}

type exhibitorRequest struct {
	Name  string `json:"name"`
	Booth string `json:"booth"`
}

func HandleCreateExhibitor(svc exhibitorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exhibitorRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		e, err := svc.Create(r.Context(), organizerFrom(r.Context()), app.ExhibitorInput{
			Name:  req.Name,
			Booth: req.Booth,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toExhibitorResponse(e))
	}
}

func HandleGetExhibitor(svc exhibitorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Get(r.Context(), organizerFrom(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toExhibitorResponse(e))
	}
}

type updateExhibitorRequest struct {
	Name  *string `json:"name"`
	Booth *string `json:"booth"`
}

func HandleUpdateExhibitor(svc exhibitorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateExhibitorRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		e, err := svc.Update(r.Context(), organizerFrom(r.Context()), chi.URLParam(r, "id"), app.UpdateExhibitorInput{
			Name:  req.Name,
			Booth: req.Booth,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toExhibitorResponse(e))
	}
}

// HandleRotateExhibitorKey regenerates the exhibitor's access key,
// invalidating the previous one.
func HandleRotateExhibitorKey(svc exhibitorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.RotateKey(r.Context(), organizerFrom(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toExhibitorResponse(e))
	}
}

func HandleDeleteExhibitor(svc exhibitorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), organizerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

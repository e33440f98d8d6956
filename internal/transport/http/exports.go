package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type exportService interface {
	Run(ctx context.Context, ev domain.Event, in app.RunExportInput) (domain.ExportJob, error)
	Download(ctx context.Context, ev domain.Event, id string) (domain.ExportJob, error)
}

type runExportRequest struct {
	Format string `json:"format"`
	Status string `json:"status"`
}

type runExportResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Download string `json:"download"`
}

// HandleRunExport enqueues an export and answers 202 with the URL to poll
// for the artifact.
func HandleRunExport(svc exportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req runExportRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		org := organizerFrom(r.Context())
		ev := eventFrom(r.Context())
		j, err := svc.Run(r.Context(), ev, app.RunExportInput{
			Format:       req.Format,
			StatusFilter: req.Status,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, runExportResponse{
			ID:     j.ID,
			Status: string(j.Status),
			Download: fmt.Sprintf(
				"/api/v1/organizers/%s/events/%s/exports/%s/download",
				org.Slug, ev.Slug, j.ID,
			),
		})
	}
}

// HandleDownloadExport serves the artifact of a finished export. Pending
// jobs answer 409, failed ones 417 and pruned artifacts 410.
func HandleDownloadExport(svc exportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, err := svc.Download(r.Context(), eventFrom(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", j.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(j)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(j.Payload)
	}
}

func exportFilename(j domain.ExportJob) string {
	switch j.Format {
	case domain.ExportFormatOrdersCSV:
		return "orders.csv"
	case domain.ExportFormatOrdersJSON:
		return "orders.json"
	}
	return "export"
}

package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"time"

	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/domain"
)

type ExportRepository interface {
	Create(ctx context.Context, j domain.ExportJob) error
	Get(ctx context.Context, eventID, id string) (domain.ExportJob, error)
	ClaimNext(ctx context.Context, now time.Time) (*domain.ExportJob, error)
	MarkDone(ctx context.Context, id string, payload []byte, contentType string, finishedAt time.Time) error
	MarkFailed(ctx context.Context, id, errMsg string, finishedAt time.Time) error
	RequeueStale(ctx context.Context, cutoff time.Time) error
	PruneExpired(ctx context.Context, cutoff time.Time) error
	ListOrdersForExport(ctx context.Context, eventID, status string) ([]domain.Order, error)
}

type ExportService struct {
	repo       ExportRepository
	clock      clock.Clock
	retention  time.Duration
	staleAfter time.Duration
}

const (
	defaultExportRetention  = time.Hour
	defaultExportStaleAfter = 5 * time.Minute
)

func NewExportService(repo ExportRepository, clk clock.Clock, opts ...ExportServiceOption) *ExportService {
	svc := &ExportService{
		repo:       repo,
		clock:      clk,
		retention:  defaultExportRetention,
		staleAfter: defaultExportStaleAfter,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ExportServiceOption func(*ExportService)

// WithExportRetention overrides how long finished artifacts stay
// downloadable.
func WithExportRetention(d time.Duration) ExportServiceOption {
	return func(s *ExportService) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithExportStaleAfter overrides how long a claimed job may stay in running
// before it is treated as abandoned and requeued.
func WithExportStaleAfter(d time.Duration) ExportServiceOption {
	return func(s *ExportService) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

type RunExportInput struct {
	Format       string
	StatusFilter string
}

// Run enqueues an export job; a worker picks it up asynchronously.
func (s *ExportService) Run(ctx context.Context, ev domain.Event, in RunExportInput) (domain.ExportJob, error) {
	if !domain.ValidExportFormat(in.Format) {
		return domain.ExportJob{}, domain.ErrUnknownExportFormat
	}
	if in.StatusFilter != "" && !domain.ValidOrderStatus(in.StatusFilter) {
		return domain.ExportJob{}, domain.ErrInvalidOrderStatus
	}

	j := domain.ExportJob{
		ID:           newID(),
		EventID:      ev.ID,
		Format:       domain.ExportFormat(in.Format),
		StatusFilter: in.StatusFilter,
		Status:       domain.ExportStatusQueued,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.Create(ctx, j); err != nil {
		return domain.ExportJob{}, err
	}
	return j, nil
}

// Download returns a finished job with its artifact. Jobs that are still
// queued or running, failed, or past the retention window map to distinct
// errors so the transport layer can answer 409, 417 and 410.
func (s *ExportService) Download(ctx context.Context, ev domain.Event, id string) (domain.ExportJob, error) {
	j, err := s.repo.Get(ctx, ev.ID, id)
	if err != nil {
		return domain.ExportJob{}, err
	}
	switch j.Status {
	case domain.ExportStatusQueued, domain.ExportStatusRunning:
		return domain.ExportJob{}, domain.ErrExportRunning
	case domain.ExportStatusFailed:
		return domain.ExportJob{}, domain.ErrExportFailed
	}
	if j.Payload == nil {
		return domain.ExportJob{}, domain.ErrExportExpired
	}
	if j.FinishedAt != nil && s.clock.Now().Sub(*j.FinishedAt) > s.retention {
		return domain.ExportJob{}, domain.ErrExportExpired
	}
	return j, nil
}

// ProcessNext claims one queued job, renders it and stores the outcome.
// It reports whether a job was processed so callers can drain the queue.
func (s *ExportService) ProcessNext(ctx context.Context) (bool, error) {
	j, err := s.repo.ClaimNext(ctx, s.clock.Now())
	if err != nil {
		return false, err
	}
	if j == nil {
		return false, nil
	}

	payload, contentType, err := s.render(ctx, *j)
	if err != nil {
		if merr := s.repo.MarkFailed(ctx, j.ID, err.Error(), s.clock.Now()); merr != nil {
			return true, merr
		}
		return true, nil
	}
	return true, s.repo.MarkDone(ctx, j.ID, payload, contentType, s.clock.Now())
}

// RequeueStale puts jobs back in the queue when the worker that claimed
// them never finished, so a crash cannot strand a job in running.
func (s *ExportService) RequeueStale(ctx context.Context) error {
	return s.repo.RequeueStale(ctx, s.clock.Now().Add(-s.staleAfter))
}

// Prune clears artifacts older than the retention window.
func (s *ExportService) Prune(ctx context.Context) error {
	return s.repo.PruneExpired(ctx, s.clock.Now().Add(-s.retention))
}

func (s *ExportService) render(ctx context.Context, j domain.ExportJob) ([]byte, string, error) {
	orders, err := s.repo.ListOrdersForExport(ctx, j.EventID, j.StatusFilter)
	if err != nil {
		return nil, "", err
	}
	switch j.Format {
	case domain.ExportFormatOrdersCSV:
		return renderOrdersCSV(orders)
	case domain.ExportFormatOrdersJSON:
		return renderOrdersJSON(orders)
	}
	return nil, "", domain.ErrUnknownExportFormat
}

func renderOrdersCSV(orders []domain.Order) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"code", "status", "email", "total", "created_at"}); err != nil {
		return nil, "", err
	}
	for _, o := range orders {
		record := []string{
			o.Code,
			string(o.Status),
			o.Email,
			o.Total,
			o.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "text/csv", nil
}

type exportedOrder struct {
	Code      string    `json:"code"`
	Status    string    `json:"status"`
	Email     string    `json:"email"`
	Total     string    `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

func renderOrdersJSON(orders []domain.Order) ([]byte, string, error) {
	out := make([]exportedOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, exportedOrder{
			Code:      o.Code,
			Status:    string(o.Status),
			Email:     o.Email,
			Total:     o.Total,
			CreatedAt: o.CreatedAt.UTC(),
		})
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return nil, "", err
	}
	return payload, "application/json", nil
}

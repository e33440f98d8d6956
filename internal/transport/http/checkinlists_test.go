package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

func TestHandleRedeem(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	ev := domain.Event{ID: "event-1", OrganizerID: "org-1", Slug: "democon"}
	checkin := domain.Checkin{
		ID: "chk-1", ListID: "list-1", PositionID: "pos-1",
		Type: domain.CheckinTypeEntry, Nonce: "nonce-1", CreatedAt: now,
	}

	tests := []struct {
		name           string
		body           string
		result         app.RedeemResult
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "fresh scan",
			body:           `{"nonce":"nonce-1","type":"entry"}`,
			result:         app.RedeemResult{Checkin: checkin},
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"nonce":"nonce-1"`,
		},
		{
			name:           "replayed nonce",
			body:           `{"nonce":"nonce-1","type":"entry"}`,
			result:         app.RedeemResult{Checkin: checkin, Repeated: true},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing nonce",
			body:           `{"type":"entry"}`,
			serviceErr:     domain.ErrNonceRequired,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "already checked in",
			body:           `{"nonce":"nonce-2","type":"entry"}`,
			serviceErr:     domain.ErrAlreadyRedeemed,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "unpaid order",
			body:           `{"nonce":"nonce-1","type":"entry"}`,
			serviceErr:     domain.ErrOrderNotPaid,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "item not on the list",
			body:           `{"nonce":"nonce-1","type":"entry"}`,
			serviceErr:     domain.ErrProductNotAllowed,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown position",
			body:           `{"nonce":"nonce-1","type":"entry"}`,
			serviceErr:     domain.ErrPositionNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "malformed body",
			body:           `{"nonce":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubCheckinService{result: tt.result, err: tt.serviceErr}

			req := httptest.NewRequest(
				http.MethodPost,
				"/api/v1/organizers/acme/events/democon/checkinlists/list-1/positions/pos-1/redeem",
				strings.NewReader(tt.body),
			)
			req = withEvent(req, ev)
			req = withURLParam(req, "id", "list-1")
			rec := httptest.NewRecorder()

			HandleRedeem(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

type stubCheckinService struct {
	list   domain.CheckinList
	result app.RedeemResult
	err    error
}

func (s *stubCheckinService) CreateList(_ context.Context, _ domain.Event, _ app.CheckinListInput) (domain.CheckinList, error) {
	return s.list, s.err
}

func (s *stubCheckinService) GetList(_ context.Context, _, _ string) (domain.CheckinList, error) {
	return s.list, s.err
}

func (s *stubCheckinService) ListLists(_ context.Context, _ string, _, _ int) ([]domain.CheckinList, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return []domain.CheckinList{s.list}, 1, nil
}

func (s *stubCheckinService) UpdateList(_ context.Context, _ domain.Event, _ string, _ app.CheckinListInput) (domain.CheckinList, error) {
	return s.list, s.err
}

func (s *stubCheckinService) DeleteList(_ context.Context, _, _ string) error {
	return s.err
}

func (s *stubCheckinService) ListStatus(_ context.Context, _, _ string) (domain.CheckinListStatus, error) {
	return domain.CheckinListStatus{}, s.err
}

func (s *stubCheckinService) Redeem(_ context.Context, _ domain.Event, _ app.RedeemInput) (app.RedeemResult, error) {
	if s.err != nil {
		return app.RedeemResult{}, s.err
	}
	return s.result, nil
}

package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type seatService interface {
	CreateSeats(ctx context.Context, ev domain.Event, inputs []app.SeatInput) ([]domain.Seat, error)
	Get(ctx context.Context, eventID, id string) (domain.Seat, error)
	List(ctx context.Context, eventID string, subeventID *string, limit, offset int) ([]app.SeatAvailability, int, error)
}

type seatResponse struct {
	ID          string  `json:"id"`
	GUID        string  `json:"guid"`
	Row         string  `json:"row"`
	Number      string  `json:"number"`
	Item        *string `json:"item"`
	Subevent    *string `json:"subevent"`
	Blocked     bool    `json:"blocked"`
	IsAvailable bool    `json:"is_available"`
}

func toSeatResponse(s domain.Seat, available bool) seatResponse {
	return seatResponse{
		ID:          s.ID,
		GUID:        s.GUID,
		Row:         s.Row,
		Number:      s.Number,
		Item:        s.ItemID,
		Subevent:    s.SubeventID,
		Blocked:     s.Blocked,
		IsAvailable: available,
	}
}

func HandleListSeats(svc seatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		var subeventID *string
		if s := r.URL.Query().Get("subevent"); s != "" {
			subeventID = &s
		}
		seats, total, err := svc.List(r.Context(), eventFrom(r.Context()).ID, subeventID, pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]seatResponse, 0, len(seats))
		for _, s := range seats {
			results = append(results, toSeatResponse(s.Seat, s.IsAvailable))
		}
		respondList(w, r, page, total, results)
	}
}

type seatRequest struct {
	GUID     string  `json:"guid"`
	Row      string  `json:"row"`
	Number   string  `json:"number"`
	Item     *string `json:"item"`
	Subevent *string `json:"subevent"`
	Blocked  bool    `json:"blocked"`
}

type createSeatsRequest struct {
	Seats []seatRequest `json:"seats"`
}

// HandleCreateSeats imports a seating plan in bulk.
func HandleCreateSeats(svc seatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSeatsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		inputs := make([]app.SeatInput, 0, len(req.Seats))
		for _, s := range req.Seats {
			inputs = append(inputs, app.SeatInput{
				GUID:       s.GUID,
				Row:        s.Row,
				Number:     s.Number,
				ItemID:     s.Item,
				SubeventID: s.Subevent,
				Blocked:    s.Blocked,
			})
		}
		seats, err := svc.CreateSeats(r.Context(), eventFrom(r.Context()), inputs)
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]seatResponse, 0, len(seats))
		for _, s := range seats {
			results = append(results, toSeatResponse(s, !s.Blocked))
		}
		writeJSON(w, http.StatusCreated, map[string]any{"seats": results})
	}
}

func HandleGetSeat(svc seatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Get(r.Context(), eventFrom(r.Context()).ID, chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSeatResponse(s, !s.Blocked))
	}
}

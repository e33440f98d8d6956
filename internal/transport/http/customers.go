package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/domain"
)

type customerService interface {
	Create(ctx context.Context, org domain.Organizer, in app.CreateCustomerInput) (domain.Customer, error)
	Get(ctx context.Context, org domain.Organizer, identifier string) (domain.Customer, error)
	List(ctx context.Context, org domain.Organizer, limit, offset int) ([]domain.Customer, int, error)
	Update(ctx context.Context, org domain.Organizer, identifier string, in app.UpdateCustomerInput) (domain.Customer, error)
	Orders(ctx context.Context, org domain.Organizer, identifier string, limit, offset int) ([]domain.Order, int, error)
	Login(ctx context.Context, org domain.Organizer, email, password string) (app.LoginResult, error)
}

type customerResponse struct {
	Identifier string    `json:"identifier"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

func toCustomerResponse(c domain.Customer) customerResponse {
	return customerResponse{
		Identifier: c.Identifier,
		Email:      c.Email,
		Name:       c.Name,
		IsActive:   c.IsActive,
		DateJoined: c.CreatedAt,
	}
}

func HandleListCustomers(svc customerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		customers, total, err := svc.List(r.Context(), organizerFrom(r.Context()), pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]customerResponse, 0, len(customers))
		for _, c := range customers {
			results = append(results, toCustomerResponse(c))
		}
		respondList(w, r, page, total, results)
	}
}

type createCustomerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func HandleCreateCustomer(svc customerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCustomerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		c, err := svc.Create(r.Context(), organizerFrom(r.Context()), app.CreateCustomerInput{
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCustomerResponse(c))
	}
}

func HandleGetCustomer(svc customerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.Get(r.Context(), organizerFrom(r.Context()), chi.URLParam(r, "identifier"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCustomerResponse(c))
	}
}

type updateCustomerRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

func HandleUpdateCustomer(svc customerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateCustomerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		c, err := svc.Update(r.Context(), organizerFrom(r.Context()), chi.URLParam(r, "identifier"), app.UpdateCustomerInput{
			Email:    req.Email,
			Name:     req.Name,
			IsActive: req.IsActive,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCustomerResponse(c))
	}
}

// HandleCustomerOrders lists the customer's orders across all events of
// the organizer.
func HandleCustomerOrders(svc customerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromRequest(r)
		if err != nil {
			respondError(w, err)
			return
		}
		orders, total, err := svc.Orders(r.Context(), organizerFrom(r.Context()), chi.URLParam(r, "identifier"), pageSize, pageOffset(page))
		if err != nil {
			respondError(w, err)
			return
		}
		results := make([]orderResponse, 0, len(orders))
		for _, o := range orders {
			results = append(results, toOrderResponse(o, nil))
		}
		respondList(w, r, page, total, results)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

func HandleCustomerLogin(svc customerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		result, err := svc.Login(r.Context(), organizerFrom(r.Context()), req.Email, req.Password)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{
			Token:   result.Token,
			Expires: result.Expires,
		})
	}
}

package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/foldline/boxoffice/internal/domain"
)

type ctxKey int

const (
	organizerCtxKey ctxKey = iota
	eventCtxKey
)

type authenticator interface {
	Authenticate(ctx context.Context, organizerSlug, secret string) (domain.Organizer, error)
}

// RequireOrganizer authenticates the API token against the organizer in
// the URL and stores the organizer in the request context. The scheme is
// "Authorization: Token <secret>".
func RequireOrganizer(auth authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret, ok := tokenFromHeader(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing or malformed authorization header")
				return
			}
			org, err := auth.Authenticate(r.Context(), chi.URLParam(r, "organizer"), secret)
			if err != nil {
				respondError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), organizerCtxKey, org)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromHeader(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, secret, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Token") || secret == "" {
		return "", false
	}
	return secret, true
}

func organizerFrom(ctx context.Context) domain.Organizer {
	org, _ := ctx.Value(organizerCtxKey).(domain.Organizer)
	return org
}

type eventResolver interface {
	Get(ctx context.Context, organizerID, slug string) (domain.Event, error)
}

// RequireEvent resolves the event slug in the URL for the authenticated
// organizer and stores the event in the request context.
func RequireEvent(events eventResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			org := organizerFrom(r.Context())
			ev, err := events.Get(r.Context(), org.ID, chi.URLParam(r, "event"))
			if err != nil {
				respondError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), eventCtxKey, ev)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func eventFrom(ctx context.Context) domain.Event {
	ev, _ := ctx.Value(eventCtxKey).(domain.Event)
	return ev
}

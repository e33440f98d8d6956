package app

import (
	"context"

	"github.com/foldline/boxoffice/internal/domain"
)

type AuthRepository interface {
	GetBySlug(ctx context.Context, slug string) (domain.Organizer, error)
	FindTokenBySecret(ctx context.Context, secret string) (domain.APIToken, error)
}

type AuthService struct {
	repo AuthRepository
}

func NewAuthService(repo AuthRepository) *AuthService {
	return &AuthService{repo: repo}
}

// Authenticate resolves the addressed organizer and verifies that the
// presented API token belongs to it. A token of another organizer and a
// nonexistent organizer produce the same error so responses do not reveal
// which organizer slugs exist.
func (s *AuthService) Authenticate(ctx context.Context, organizerSlug, secret string) (domain.Organizer, error) {
	if secret == "" {
		return domain.Organizer{}, domain.ErrTokenInvalid
	}
	token, err := s.repo.FindTokenBySecret(ctx, secret)
	if err != nil {
		return domain.Organizer{}, err
	}
	org, err := s.repo.GetBySlug(ctx, organizerSlug)
	if err != nil {
		return domain.Organizer{}, err
	}
	if token.OrganizerID != org.ID {
		return domain.Organizer{}, domain.ErrOrganizerNotFound
	}
	return org, nil
}

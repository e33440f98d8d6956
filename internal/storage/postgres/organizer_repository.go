package postgres

import (
	"context"
	"fmt"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrganizerRepository struct {
	pool *pgxpool.Pool
}

func NewOrganizerRepository(pool *pgxpool.Pool) *OrganizerRepository {
	return &OrganizerRepository{pool: pool}
}

func (r *OrganizerRepository) GetBySlug(ctx context.Context, slug string) (domain.Organizer, error) {
	const q = `SELECT id, slug, name, created_at FROM organizers WHERE slug = $1`

	var o domain.Organizer
	err := queryRow(ctx, r.pool, q, slug).Scan(&o.ID, &o.Slug, &o.Name, &o.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Organizer{}, domain.ErrOrganizerNotFound
		}
		return domain.Organizer{}, fmt.Errorf("get organizer: %w", err)
	}
	return o, nil
}

func (r *OrganizerRepository) FindTokenBySecret(ctx context.Context, secret string) (domain.APIToken, error) {
	const q = `
SELECT id, organizer_id, name, secret, active, created_at
FROM api_tokens
WHERE secret = $1 AND active`

	var t domain.APIToken
	err := queryRow(ctx, r.pool, q, secret).
		Scan(&t.ID, &t.OrganizerID, &t.Name, &t.Secret, &t.Active, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.APIToken{}, domain.ErrTokenInvalid
		}
		return domain.APIToken{}, fmt.Errorf("find token: %w", err)
	}
	return t, nil
}

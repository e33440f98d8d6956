package postgres

import (
	"context"
	"fmt"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const eventColumns = `id, organizer_id, slug, name, live, testmode, currency, date_from, date_to, has_subevents, created_at`

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.OrganizerID, &e.Slug, &e.Name, &e.Live, &e.Testmode,
		&e.Currency, &e.DateFrom, &e.DateTo, &e.HasSubevents, &e.CreatedAt)
	return e, err
}

func (r *EventRepository) Create(ctx context.Context, e domain.Event) error {
	const stmt = `
INSERT INTO events (id, organizer_id, slug, name, live, testmode, currency, date_from, date_to, has_subevents, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := exec(ctx, r.pool, stmt,
		e.ID, e.OrganizerID, e.Slug, e.Name, e.Live, e.Testmode,
		e.Currency, e.DateFrom, e.DateTo, e.HasSubevents, e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEventSlugTaken
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetBySlug(ctx context.Context, organizerID, slug string) (domain.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = $1 AND slug = $2`

	e, err := scanEvent(queryRow(ctx, r.pool, q, organizerID, slug))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (r *EventRepository) List(ctx context.Context, organizerID string, limit, offset int) ([]domain.Event, int, error) {
	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM events WHERE organizer_id = $1`, organizerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	const q = `SELECT ` + eventColumns + `
FROM events WHERE organizer_id = $1 ORDER BY created_at, slug LIMIT $2 OFFSET $3`

	rows, err := query(ctx, r.pool, q, organizerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0, limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *EventRepository) Update(ctx context.Context, e domain.Event) error {
	const stmt = `
UPDATE events
SET name = $2, live = $3, testmode = $4, currency = $5, date_from = $6, date_to = $7, has_subevents = $8
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt,
		e.ID, e.Name, e.Live, e.Testmode, e.Currency, e.DateFrom, e.DateTo, e.HasSubevents,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, eventID string) error {
	tag, err := exec(ctx, r.pool, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) HasOrders(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := queryRow(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM orders WHERE event_id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("event has orders: %w", err)
	}
	return exists, nil
}

func (r *EventRepository) CreateSubevent(ctx context.Context, s domain.Subevent) error {
	const stmt = `
INSERT INTO subevents (id, event_id, name, date_from, date_to, active)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := exec(ctx, r.pool, stmt, s.ID, s.EventID, s.Name, s.DateFrom, s.DateTo, s.Active); err != nil {
		return fmt.Errorf("create subevent: %w", err)
	}
	return nil
}

func (r *EventRepository) GetSubevent(ctx context.Context, eventID, id string) (domain.Subevent, error) {
	const q = `SELECT id, event_id, name, date_from, date_to, active FROM subevents WHERE id = $1 AND event_id = $2`

	var s domain.Subevent
	err := queryRow(ctx, r.pool, q, id, eventID).Scan(&s.ID, &s.EventID, &s.Name, &s.DateFrom, &s.DateTo, &s.Active)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Subevent{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Subevent{}, domain.ErrSubeventNotFound
		}
		return domain.Subevent{}, fmt.Errorf("get subevent: %w", err)
	}
	return s, nil
}

func (r *EventRepository) ListSubevents(ctx context.Context, eventID string, limit, offset int) ([]domain.Subevent, int, error) {
	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM subevents WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subevents: %w", err)
	}

	const q = `
SELECT id, event_id, name, date_from, date_to, active
FROM subevents WHERE event_id = $1 ORDER BY date_from NULLS LAST, name LIMIT $2 OFFSET $3`

	rows, err := query(ctx, r.pool, q, eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list subevents: %w", err)
	}
	defer rows.Close()

	subevents := make([]domain.Subevent, 0, limit)
	for rows.Next() {
		var s domain.Subevent
		if err := rows.Scan(&s.ID, &s.EventID, &s.Name, &s.DateFrom, &s.DateTo, &s.Active); err != nil {
			return nil, 0, fmt.Errorf("scan subevent: %w", err)
		}
		subevents = append(subevents, s)
	}
	return subevents, total, rows.Err()
}

func (r *EventRepository) UpdateSubevent(ctx context.Context, s domain.Subevent) error {
	const stmt = `
UPDATE subevents SET name = $2, date_from = $3, date_to = $4, active = $5
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, s.ID, s.Name, s.DateFrom, s.DateTo, s.Active)
	if err != nil {
		return fmt.Errorf("update subevent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubeventNotFound
	}
	return nil
}

func (r *EventRepository) DeleteSubevent(ctx context.Context, id string) error {
	tag, err := exec(ctx, r.pool, `DELETE FROM subevents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subevent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubeventNotFound
	}
	return nil
}

func (r *EventRepository) SubeventHasOrders(ctx context.Context, subeventID string) (bool, error) {
	var exists bool
	err := queryRow(ctx, r.pool,
		`SELECT EXISTS (SELECT 1 FROM order_positions WHERE subevent_id = $1)`, subeventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("subevent has orders: %w", err)
	}
	return exists, nil
}

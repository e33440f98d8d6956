package postgres

import (
	"context"
	"fmt"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

func (r *ItemRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ItemRepository) Create(ctx context.Context, item domain.Item) error {
	const stmt = `
INSERT INTO items (id, event_id, name, default_price, active, admission, position)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := exec(ctx, r.pool, stmt,
		item.ID, item.EventID, item.Name, item.DefaultPrice, item.Active, item.Admission, item.Position,
	); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return r.replaceVariations(ctx, item.ID, item.Variations)
}

func (r *ItemRepository) Get(ctx context.Context, eventID, id string) (domain.Item, error) {
	const q = `
SELECT id, event_id, name, default_price, active, admission, position
FROM items WHERE id = $1 AND event_id = $2`

	var item domain.Item
	err := queryRow(ctx, r.pool, q, id, eventID).
		Scan(&item.ID, &item.EventID, &item.Name, &item.DefaultPrice, &item.Active, &item.Admission, &item.Position)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Item{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Item{}, domain.ErrItemNotFound
		}
		return domain.Item{}, fmt.Errorf("get item: %w", err)
	}

	variations, err := r.variationsFor(ctx, []string{item.ID})
	if err != nil {
		return domain.Item{}, err
	}
	item.Variations = variations[item.ID]
	return item, nil
}

func (r *ItemRepository) List(ctx context.Context, eventID string, limit, offset int) ([]domain.Item, int, error) {
	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM items WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	const q = `
SELECT id, event_id, name, default_price, active, admission, position
FROM items WHERE event_id = $1 ORDER BY position, name LIMIT $2 OFFSET $3`

	rows, err := query(ctx, r.pool, q, eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.EventID, &item.Name, &item.DefaultPrice, &item.Active, &item.Admission, &item.Position); err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	variations, err := r.variationsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].Variations = variations[items[i].ID]
	}
	return items, total, nil
}

func (r *ItemRepository) Update(ctx context.Context, item domain.Item) error {
	const stmt = `
UPDATE items SET name = $2, default_price = $3, active = $4, admission = $5, position = $6
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt,
		item.ID, item.Name, item.DefaultPrice, item.Active, item.Admission, item.Position,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return r.replaceVariations(ctx, item.ID, item.Variations)
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	tag, err := exec(ctx, r.pool, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrItemInUse
		}
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) InUse(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := queryRow(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM order_positions WHERE item_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("item in use: %w", err)
	}
	return exists, nil
}

func (r *ItemRepository) replaceVariations(ctx context.Context, itemID string, variations []domain.ItemVariation) error {
	if _, err := exec(ctx, r.pool, `DELETE FROM item_variations WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("clear variations: %w", err)
	}
	for _, v := range variations {
		const stmt = `
INSERT INTO item_variations (id, item_id, value, price, position)
VALUES ($1, $2, $3, $4, $5)`
		if _, err := exec(ctx, r.pool, stmt, v.ID, itemID, v.Value, v.Price, v.Position); err != nil {
			return fmt.Errorf("create variation: %w", err)
		}
	}
	return nil
}

func (r *ItemRepository) variationsFor(ctx context.Context, itemIDs []string) (map[string][]domain.ItemVariation, error) {
	out := make(map[string][]domain.ItemVariation, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	const q = `
SELECT id, item_id, value, price, position
FROM item_variations WHERE item_id = ANY($1) ORDER BY position, value`

	rows, err := query(ctx, r.pool, q, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.ItemVariation
		if err := rows.Scan(&v.ID, &v.ItemID, &v.Value, &v.Price, &v.Position); err != nil {
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		out[v.ItemID] = append(out[v.ItemID], v)
	}
	return out, rows.Err()
}

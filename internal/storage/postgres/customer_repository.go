package postgres

import (
	"context"
	"fmt"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

const customerColumns = `id, organizer_id, identifier, email, name, password_hash, is_active, created_at`

func scanCustomer(row pgx.Row) (domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.OrganizerID, &c.Identifier, &c.Email, &c.Name,
		&c.PasswordHash, &c.IsActive, &c.CreatedAt)
	return c, err
}

func (r *CustomerRepository) Create(ctx context.Context, c domain.Customer) error {
	const stmt = `
INSERT INTO customers (id, organizer_id, identifier, email, name, password_hash, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := exec(ctx, r.pool, stmt,
		c.ID, c.OrganizerID, c.Identifier, c.Email, c.Name, c.PasswordHash, c.IsActive, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCustomerEmailTaken
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) GetByIdentifier(ctx context.Context, organizerID, identifier string) (domain.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE organizer_id = $1 AND identifier = $2`

	c, err := scanCustomer(queryRow(ctx, r.pool, q, organizerID, identifier))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, organizerID, email string) (domain.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE organizer_id = $1 AND email = $2`

	c, err := scanCustomer(queryRow(ctx, r.pool, q, organizerID, email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("get customer by email: %w", err)
	}
	return c, nil
}

func (r *CustomerRepository) List(ctx context.Context, organizerID string, limit, offset int) ([]domain.Customer, int, error) {
	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM customers WHERE organizer_id = $1`, organizerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	const q = `SELECT ` + customerColumns + `
FROM customers WHERE organizer_id = $1 ORDER BY created_at, identifier LIMIT $2 OFFSET $3`

	rows, err := query(ctx, r.pool, q, organizerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, limit)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *CustomerRepository) Update(ctx context.Context, c domain.Customer) error {
	const stmt = `UPDATE customers SET email = $2, name = $3, is_active = $4 WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, c.ID, c.Email, c.Name, c.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCustomerEmailTaken
		}
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepository) ListOrders(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, int, error) {
	orders := NewOrderRepository(r.pool)
	return orders.ListByCustomer(ctx, customerID, limit, offset)
}

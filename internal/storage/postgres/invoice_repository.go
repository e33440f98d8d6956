package postgres

import (
	"context"
	"fmt"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InvoiceRepository struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

func (r *InvoiceRepository) List(ctx context.Context, eventID string, limit, offset int) ([]domain.Invoice, int, error) {
	var total int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM invoices WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	const q = `
SELECT id, event_id, order_id, number, is_cancellation, refers_to, created_at
FROM invoices WHERE event_id = $1 ORDER BY created_at, number LIMIT $2 OFFSET $3`

	rows, err := query(ctx, r.pool, q, eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0, limit)
	for rows.Next() {
		var inv domain.Invoice
		if err := rows.Scan(&inv.ID, &inv.EventID, &inv.OrderID, &inv.Number,
			&inv.IsCancellation, &inv.RefersTo, &inv.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range invoices {
		if err := r.loadLines(ctx, &invoices[i]); err != nil {
			return nil, 0, err
		}
	}
	return invoices, total, nil
}

func (r *InvoiceRepository) GetByNumber(ctx context.Context, eventID, number string) (domain.Invoice, error) {
	const q = `
SELECT id, event_id, order_id, number, is_cancellation, refers_to, created_at
FROM invoices WHERE event_id = $1 AND number = $2`

	var inv domain.Invoice
	err := queryRow(ctx, r.pool, q, eventID, number).
		Scan(&inv.ID, &inv.EventID, &inv.OrderID, &inv.Number, &inv.IsCancellation, &inv.RefersTo, &inv.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Invoice{}, domain.ErrInvoiceNotFound
		}
		return domain.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	if err := r.loadLines(ctx, &inv); err != nil {
		return domain.Invoice{}, err
	}
	return inv, nil
}

func (r *InvoiceRepository) loadLines(ctx context.Context, inv *domain.Invoice) error {
	const q = `
SELECT id, invoice_id, position, description, gross_value
FROM invoice_lines WHERE invoice_id = $1 ORDER BY position`

	rows, err := query(ctx, r.pool, q, inv.ID)
	if err != nil {
		return fmt.Errorf("load invoice lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.InvoiceLine
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.Position, &line.Description, &line.GrossValue); err != nil {
			return fmt.Errorf("scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, line)
	}
	return rows.Err()
}

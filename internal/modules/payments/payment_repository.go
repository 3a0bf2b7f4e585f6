package payments

import (
	"context"
	"errors"
	"fmt"

	"e-courier/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for payment storage. Each
// shipment has at most one payment row; Upsert overwrites it so the last
// attempt wins.
type RepositoryInterface interface {
	Upsert(ctx context.Context, p models.PaymentUpsert) (*models.Payment, error)
	FindByID(ctx context.Context, paymentID string) (*models.Payment, error)
	FindByShipment(ctx context.Context, shipmentID string) (*models.Payment, error)
	// HasCompleted reports whether the shipment's payment row exists in the
	// completed state.
	HasCompleted(ctx context.Context, shipmentID string) (bool, error)
	// List returns payment rows newest first, one page at a time.
	List(ctx context.Context, limit, offset int) ([]*models.Payment, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const paymentColumns = `id, shipment_id, customer_id, amount, method, status, result, created_at, updated_at`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(
		&p.ID, &p.ShipmentID, &p.CustomerID, &p.Amount,
		&p.Method, &p.Status, &p.Result, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return p, nil
}

// Upsert inserts the payment row for a shipment or overwrites the
// existing one, keyed by shipment id.
func (r *Repository) Upsert(ctx context.Context, p models.PaymentUpsert) (*models.Payment, error) {
	query := `
		INSERT INTO payments (shipment_id, customer_id, amount, method, status, result)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (shipment_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			amount = EXCLUDED.amount,
			method = EXCLUDED.method,
			status = EXCLUDED.status,
			result = EXCLUDED.result,
			updated_at = NOW()
		RETURNING ` + paymentColumns
	payment, err := scanPayment(r.db.QueryRow(ctx, query,
		p.ShipmentID, p.CustomerID, p.Amount, p.Method, p.Status, p.Result))
	if err != nil {
		return nil, fmt.Errorf("repository.UpsertPayment: %w", err)
	}
	return payment, nil
}

func (r *Repository) FindByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := scanPayment(r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindPaymentByID: %w", err)
	}
	return payment, nil
}

func (r *Repository) FindByShipment(ctx context.Context, shipmentID string) (*models.Payment, error) {
	payment, err := scanPayment(r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE shipment_id = $1`, shipmentID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindPaymentByShipment: %w", err)
	}
	return payment, nil
}

func (r *Repository) HasCompleted(ctx context.Context, shipmentID string) (bool, error) {
	var completed bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE shipment_id = $1 AND status = $2)`,
		shipmentID, models.PaymentStatusCompleted).Scan(&completed)
	if err != nil {
		return false, fmt.Errorf("repository.HasCompletedPayment: %w", err)
	}
	return completed, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repository.ListPayments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListPayments.Scan: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

package shipments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"e-courier/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UpdateFields carries the optional field set an admin update may apply.
// Nil means unchanged.
type UpdateFields struct {
	SenderID          *string
	Receiver          *models.Receiver
	OriginCityID      *string
	DestinationCityID *string
	OriginHubID       *string
	DestinationHubID  *string
	Weight            *float64
	Price             *float64
}

// RepositoryInterface defines the contract for shipment storage. Mutating
// methods that take a log input run the mutation and the append in one
// transaction: if the audit entry cannot be written the whole operation
// fails (gateway calls never happen inside these transactions).
type RepositoryInterface interface {
	CreateWithLog(ctx context.Context, shipment *models.Shipment, entry models.ShipmentLogInput) (*models.Shipment, error)
	FindByID(ctx context.Context, shipmentID string) (*models.Shipment, error)
	FindByQRCode(ctx context.Context, qrCodeID string) (*models.Shipment, error)
	ListAll(ctx context.Context) ([]*models.Shipment, error)
	ListBySender(ctx context.Context, userID string) ([]*models.Shipment, error)
	ListByReceiverUser(ctx context.Context, userID string) ([]*models.Shipment, error)
	ListByCourier(ctx context.Context, userID string, courierType string) ([]*models.Shipment, error)

	// UpdateStatusWithLog overwrites the status. When expectedStatus is
	// non-nil the update is conditional on the row still holding that
	// status (compare-and-set); losing the race yields ErrInvalidTransition.
	UpdateStatusWithLog(ctx context.Context, shipmentID string, expectedStatus *string, newStatus string, originHubID *string, entry models.ShipmentLogInput) error
	SetCourierWithLog(ctx context.Context, shipmentID, courierType, courierID string, entry models.ShipmentLogInput) error
	SetWeightPriceWithLog(ctx context.Context, shipmentID string, weight, price float64, entries []models.ShipmentLogInput) error
	ApplyUpdateWithLog(ctx context.Context, shipmentID string, fields UpdateFields, entry *models.ShipmentLogInput) error

	SetQRCode(ctx context.Context, shipmentID, qrCodeID, qrCodeImage string) error
	MarkPaid(ctx context.Context, shipmentID string) error
	AppendLog(ctx context.Context, shipmentID string, entry models.ShipmentLogInput) error
	ListLogs(ctx context.Context, shipmentID string) ([]*models.ShipmentLogEntry, error)
	Delete(ctx context.Context, shipmentID string) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const shipmentColumns = `s.id, s.sender_id, u.name,
	s.receiver_user_id, s.receiver_name, s.receiver_phone, s.receiver_address,
	s.origin_city_id, s.destination_city_id, oc.name, dc.name,
	s.origin_hub_id, s.destination_hub_id, s.courier_a_id, s.courier_b_id,
	s.weight, s.price, s.qr_code_id, s.qr_code_image,
	s.status, s.payment_status, s.created_at, s.updated_at`

const shipmentJoins = `FROM shipments s
	JOIN users u ON u.id = s.sender_id
	JOIN cities oc ON oc.id = s.origin_city_id
	JOIN cities dc ON dc.id = s.destination_city_id`

func scanShipment(row pgx.Row) (*models.Shipment, error) {
	s := &models.Shipment{}
	err := row.Scan(
		&s.ID, &s.SenderID, &s.SenderName,
		&s.Receiver.UserID, &s.Receiver.Name, &s.Receiver.Phone, &s.Receiver.Address,
		&s.OriginCityID, &s.DestinationCityID, &s.OriginCityName, &s.DestCityName,
		&s.OriginHubID, &s.DestinationHubID, &s.CourierAID, &s.CourierBID,
		&s.Weight, &s.Price, &s.QRCodeID, &s.QRCodeImage,
		&s.Status, &s.PaymentStatus, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan shipment: %w", err)
	}
	return s, nil
}

func (r *Repository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository.BeginTx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func appendLogTx(ctx context.Context, tx pgx.Tx, shipmentID string, entry models.ShipmentLogInput) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("repository.AppendLog: marshal metadata: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO shipment_logs (shipment_id, action, status, description, user_id, user_role, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		shipmentID, entry.Action, entry.Status, entry.Description, entry.UserID, entry.UserRole, metaJSON)
	if err != nil {
		return fmt.Errorf("repository.AppendLog: %w", err)
	}
	return nil
}

func (r *Repository) CreateWithLog(ctx context.Context, shipment *models.Shipment, entry models.ShipmentLogInput) (*models.Shipment, error) {
	var shipmentID string
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO shipments (
				sender_id, receiver_user_id, receiver_name, receiver_phone, receiver_address,
				origin_city_id, destination_city_id, origin_hub_id, destination_hub_id,
				weight, price, status, payment_status
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id`
		err := tx.QueryRow(ctx, query,
			shipment.SenderID,
			shipment.Receiver.UserID, shipment.Receiver.Name, shipment.Receiver.Phone, shipment.Receiver.Address,
			shipment.OriginCityID, shipment.DestinationCityID,
			shipment.OriginHubID, shipment.DestinationHubID,
			shipment.Weight, shipment.Price,
			models.StatusPendingPickup, models.PaymentUnpaid,
		).Scan(&shipmentID)
		if err != nil {
			return fmt.Errorf("repository.CreateShipment: %w", err)
		}
		return appendLogTx(ctx, tx, shipmentID, entry)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, shipmentID)
}

func (r *Repository) FindByID(ctx context.Context, shipmentID string) (*models.Shipment, error) {
	shipment, err := scanShipment(r.db.QueryRow(ctx,
		`SELECT `+shipmentColumns+` `+shipmentJoins+` WHERE s.id = $1`, shipmentID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindShipmentByID: %w", err)
	}
	return shipment, nil
}

func (r *Repository) FindByQRCode(ctx context.Context, qrCodeID string) (*models.Shipment, error) {
	shipment, err := scanShipment(r.db.QueryRow(ctx,
		`SELECT `+shipmentColumns+` `+shipmentJoins+` WHERE s.qr_code_id = $1`, qrCodeID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindShipmentByQRCode: %w", err)
	}
	return shipment, nil
}

func (r *Repository) list(ctx context.Context, where string, args ...interface{}) ([]*models.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` ` + shipmentJoins
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY s.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.ListShipments: %w", err)
	}
	defer rows.Close()

	var shipments []*models.Shipment
	for rows.Next() {
		shipment, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListShipments.Scan: %w", err)
		}
		shipments = append(shipments, shipment)
	}
	return shipments, rows.Err()
}

func (r *Repository) ListAll(ctx context.Context) ([]*models.Shipment, error) {
	return r.list(ctx, "")
}

func (r *Repository) ListBySender(ctx context.Context, userID string) ([]*models.Shipment, error) {
	return r.list(ctx, `s.sender_id = $1`, userID)
}

func (r *Repository) ListByReceiverUser(ctx context.Context, userID string) ([]*models.Shipment, error) {
	return r.list(ctx, `s.receiver_user_id = $1`, userID)
}

func (r *Repository) ListByCourier(ctx context.Context, userID string, courierType string) ([]*models.Shipment, error) {
	if courierType == "B" {
		return r.list(ctx, `s.courier_b_id = $1`, userID)
	}
	return r.list(ctx, `s.courier_a_id = $1`, userID)
}

func (r *Repository) UpdateStatusWithLog(ctx context.Context, shipmentID string, expectedStatus *string, newStatus string, originHubID *string, entry models.ShipmentLogInput) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		var cmdTag pgconn.CommandTag
		var err error
		switch {
		case expectedStatus != nil && originHubID != nil:
			cmdTag, err = tx.Exec(ctx,
				`UPDATE shipments SET status = $1, origin_hub_id = $2, updated_at = NOW() WHERE id = $3 AND status = $4`,
				newStatus, *originHubID, shipmentID, *expectedStatus)
		case expectedStatus != nil:
			cmdTag, err = tx.Exec(ctx,
				`UPDATE shipments SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
				newStatus, shipmentID, *expectedStatus)
		case originHubID != nil:
			cmdTag, err = tx.Exec(ctx,
				`UPDATE shipments SET status = $1, origin_hub_id = $2, updated_at = NOW() WHERE id = $3`,
				newStatus, *originHubID, shipmentID)
		default:
			cmdTag, err = tx.Exec(ctx,
				`UPDATE shipments SET status = $1, updated_at = NOW() WHERE id = $2`,
				newStatus, shipmentID)
		}
		if err != nil {
			return fmt.Errorf("repository.UpdateShipmentStatus: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			if expectedStatus != nil {
				// Row exists but the precondition no longer holds, or the
				// shipment vanished; either way the transition is off the table.
				return models.ErrInvalidTransition
			}
			return models.ErrNotFound
		}
		return appendLogTx(ctx, tx, shipmentID, entry)
	})
}

func (r *Repository) SetCourierWithLog(ctx context.Context, shipmentID, courierType, courierID string, entry models.ShipmentLogInput) error {
	column := "courier_a_id"
	if courierType == "B" {
		column = "courier_b_id"
	}
	return r.withTx(ctx, func(tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx,
			fmt.Sprintf(`UPDATE shipments SET %s = $1, updated_at = NOW() WHERE id = $2`, column),
			courierID, shipmentID)
		if err != nil {
			return fmt.Errorf("repository.SetCourier: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return appendLogTx(ctx, tx, shipmentID, entry)
	})
}

func (r *Repository) SetWeightPriceWithLog(ctx context.Context, shipmentID string, weight, price float64, entries []models.ShipmentLogInput) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx,
			`UPDATE shipments SET weight = $1, price = $2, updated_at = NOW() WHERE id = $3`,
			weight, price, shipmentID)
		if err != nil {
			return fmt.Errorf("repository.SetWeightPrice: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		for _, entry := range entries {
			if err := appendLogTx(ctx, tx, shipmentID, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ApplyUpdateWithLog(ctx context.Context, shipmentID string, fields UpdateFields, entry *models.ShipmentLogInput) error {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	add := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if fields.SenderID != nil {
		add("sender_id", *fields.SenderID)
	}
	if fields.Receiver != nil {
		add("receiver_user_id", fields.Receiver.UserID)
		add("receiver_name", fields.Receiver.Name)
		add("receiver_phone", fields.Receiver.Phone)
		add("receiver_address", fields.Receiver.Address)
	}
	if fields.OriginCityID != nil {
		add("origin_city_id", *fields.OriginCityID)
	}
	if fields.DestinationCityID != nil {
		add("destination_city_id", *fields.DestinationCityID)
	}
	if fields.OriginHubID != nil {
		add("origin_hub_id", *fields.OriginHubID)
	}
	if fields.DestinationHubID != nil {
		add("destination_hub_id", *fields.DestinationHubID)
	}
	if fields.Weight != nil {
		add("weight", *fields.Weight)
	}
	if fields.Price != nil {
		add("price", *fields.Price)
	}

	if len(setClauses) == 0 {
		if entry == nil {
			return nil
		}
		return r.AppendLog(ctx, shipmentID, *entry)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++
	args = append(args, shipmentID)

	query := fmt.Sprintf(`UPDATE shipments SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argIdx)
	return r.withTx(ctx, func(tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("repository.ApplyShipmentUpdate: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		if entry != nil {
			return appendLogTx(ctx, tx, shipmentID, *entry)
		}
		return nil
	})
}

func (r *Repository) SetQRCode(ctx context.Context, shipmentID, qrCodeID, qrCodeImage string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE shipments SET qr_code_id = $1, qr_code_image = $2, updated_at = NOW() WHERE id = $3`,
		qrCodeID, qrCodeImage, shipmentID)
	if err != nil {
		return fmt.Errorf("repository.SetQRCode: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) MarkPaid(ctx context.Context, shipmentID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE shipments SET payment_status = $1, updated_at = NOW() WHERE id = $2`,
		models.PaymentPaid, shipmentID)
	if err != nil {
		return fmt.Errorf("repository.MarkShipmentPaid: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) AppendLog(ctx context.Context, shipmentID string, entry models.ShipmentLogInput) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		return appendLogTx(ctx, tx, shipmentID, entry)
	})
}

// ListLogs returns a shipment's audit entries newest first, the canonical
// display order.
func (r *Repository) ListLogs(ctx context.Context, shipmentID string) ([]*models.ShipmentLogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, shipment_id, action, status, description, user_id, user_role, metadata, created_at
		FROM shipment_logs
		WHERE shipment_id = $1
		ORDER BY created_at DESC, id DESC`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListShipmentLogs: %w", err)
	}
	defer rows.Close()

	var entries []*models.ShipmentLogEntry
	for rows.Next() {
		entry := &models.ShipmentLogEntry{}
		var metaJSON []byte
		err := rows.Scan(
			&entry.ID, &entry.ShipmentID, &entry.Action, &entry.Status,
			&entry.Description, &entry.UserID, &entry.UserRole, &metaJSON, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository.ListShipmentLogs.Scan: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("repository.ListShipmentLogs: decode metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes the shipment; its logs and payment row go with it via
// the ON DELETE CASCADE constraints.
func (r *Repository) Delete(ctx context.Context, shipmentID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM shipments WHERE id = $1`, shipmentID)
	if err != nil {
		return fmt.Errorf("repository.DeleteShipment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

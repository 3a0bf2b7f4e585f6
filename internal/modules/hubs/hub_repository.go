package hubs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"e-courier/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for hub storage.
type RepositoryInterface interface {
	List(ctx context.Context) ([]*models.Hub, error)
	FindByID(ctx context.Context, hubID string) (*models.Hub, error)
	Create(ctx context.Context, req models.CreateHubRequest) (*models.Hub, error)
	Update(ctx context.Context, hubID string, req models.UpdateHubRequest) (*models.Hub, error)
	Delete(ctx context.Context, hubID string) error
	IsReferencedByShipment(ctx context.Context, hubID string) (bool, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const hubColumns = `h.id, h.name, h.city_id, c.name, h.address, h.created_at, h.updated_at`

func scanHub(row pgx.Row) (*models.Hub, error) {
	hub := &models.Hub{}
	err := row.Scan(&hub.ID, &hub.Name, &hub.CityID, &hub.CityName, &hub.Address, &hub.CreatedAt, &hub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan hub: %w", err)
	}
	return hub, nil
}

func (r *Repository) List(ctx context.Context) ([]*models.Hub, error) {
	query := `
		SELECT ` + hubColumns + `
		FROM hubs h JOIN cities c ON c.id = h.city_id
		ORDER BY h.name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListHubs: %w", err)
	}
	defer rows.Close()

	var hubs []*models.Hub
	for rows.Next() {
		hub, err := scanHub(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListHubs.Scan: %w", err)
		}
		hubs = append(hubs, hub)
	}
	return hubs, rows.Err()
}

func (r *Repository) FindByID(ctx context.Context, hubID string) (*models.Hub, error) {
	query := `
		SELECT ` + hubColumns + `
		FROM hubs h JOIN cities c ON c.id = h.city_id
		WHERE h.id = $1`
	hub, err := scanHub(r.db.QueryRow(ctx, query, hubID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindHubByID: %w", err)
	}
	return hub, nil
}

func (r *Repository) Create(ctx context.Context, req models.CreateHubRequest) (*models.Hub, error) {
	var hubID string
	query := `
		INSERT INTO hubs (name, city_id, address)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRow(ctx, query, req.Name, req.CityID, req.Address).Scan(&hubID); err != nil {
		return nil, fmt.Errorf("repository.CreateHub: %w", err)
	}
	return r.FindByID(ctx, hubID)
}

func (r *Repository) Update(ctx context.Context, hubID string, req models.UpdateHubRequest) (*models.Hub, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	if req.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *req.Name)
		argIdx++
	}
	if req.CityID != nil {
		setClauses = append(setClauses, fmt.Sprintf("city_id = $%d", argIdx))
		args = append(args, *req.CityID)
		argIdx++
	}
	if req.Address != nil {
		setClauses = append(setClauses, fmt.Sprintf("address = $%d", argIdx))
		args = append(args, *req.Address)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, hubID)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++
	args = append(args, hubID)

	query := fmt.Sprintf(`UPDATE hubs SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argIdx)
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.UpdateHub: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}
	return r.FindByID(ctx, hubID)
}

func (r *Repository) Delete(ctx context.Context, hubID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM hubs WHERE id = $1`, hubID)
	if err != nil {
		return fmt.Errorf("repository.DeleteHub: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// IsReferencedByShipment reports whether any shipment still uses the hub
// as its origin or destination hub.
func (r *Repository) IsReferencedByShipment(ctx context.Context, hubID string) (bool, error) {
	var referenced bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM shipments WHERE origin_hub_id = $1 OR destination_hub_id = $1)`,
		hubID).Scan(&referenced)
	if err != nil {
		return false, fmt.Errorf("repository.HubReferencedByShipment: %w", err)
	}
	return referenced, nil
}

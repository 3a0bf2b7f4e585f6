package cities

import (
	"context"
	"errors"
	"fmt"

	"e-courier/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for city storage.
type RepositoryInterface interface {
	List(ctx context.Context) ([]*models.City, error)
	FindByID(ctx context.Context, cityID string) (*models.City, error)
	Create(ctx context.Context, name string) (*models.City, error)
	Update(ctx context.Context, cityID, name string) (*models.City, error)
	Delete(ctx context.Context, cityID string) error
	IsReferenced(ctx context.Context, cityID string) (byHub bool, byRule bool, err error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]*models.City, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at, updated_at FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("repository.ListCities: %w", err)
	}
	defer rows.Close()

	var cities []*models.City
	for rows.Next() {
		city := &models.City{}
		if err := rows.Scan(&city.ID, &city.Name, &city.CreatedAt, &city.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository.ListCities.Scan: %w", err)
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}

func (r *Repository) FindByID(ctx context.Context, cityID string) (*models.City, error) {
	city := &models.City{}
	query := `SELECT id, name, created_at, updated_at FROM cities WHERE id = $1`
	err := r.db.QueryRow(ctx, query, cityID).Scan(&city.ID, &city.Name, &city.CreatedAt, &city.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindCityByID: %w", err)
	}
	return city, nil
}

func (r *Repository) Create(ctx context.Context, name string) (*models.City, error) {
	city := &models.City{}
	query := `
		INSERT INTO cities (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, name).Scan(&city.ID, &city.Name, &city.CreatedAt, &city.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository.CreateCity: %w", err)
	}
	return city, nil
}

func (r *Repository) Update(ctx context.Context, cityID, name string) (*models.City, error) {
	city := &models.City{}
	query := `
		UPDATE cities SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, name, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, name, cityID).Scan(&city.ID, &city.Name, &city.CreatedAt, &city.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.UpdateCity: %w", err)
	}
	return city, nil
}

func (r *Repository) Delete(ctx context.Context, cityID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cities WHERE id = $1`, cityID)
	if err != nil {
		return fmt.Errorf("repository.DeleteCity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// IsReferenced reports whether any hub or pricing rule still points at
// the city, which blocks deletion.
func (r *Repository) IsReferenced(ctx context.Context, cityID string) (bool, bool, error) {
	var byHub, byRule bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM hubs WHERE city_id = $1)`, cityID).Scan(&byHub)
	if err != nil {
		return false, false, fmt.Errorf("repository.CityReferencedByHub: %w", err)
	}
	err = r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pricing_rules WHERE origin_city_id = $1 OR destination_city_id = $1)`,
		cityID).Scan(&byRule)
	if err != nil {
		return false, false, fmt.Errorf("repository.CityReferencedByRule: %w", err)
	}
	return byHub, byRule, nil
}

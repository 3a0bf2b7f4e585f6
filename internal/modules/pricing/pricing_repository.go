package pricing

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

// RepositoryInterface defines the contract for pricing-rule storage.
type RepositoryInterface interface {
	List(ctx context.Context) ([]*models.PricingRule, error)
	FindByID(ctx context.Context, ruleID string) (*models.PricingRule, error)
	// FindByRoute looks up the rule for the exact ordered city pair.
	FindByRoute(ctx context.Context, originCityID, destinationCityID string) (*models.PricingRule, error)
	// RouteHasOtherRule reports whether a different rule already covers the
	// ordered pair; excludeID may be empty.
	RouteHasOtherRule(ctx context.Context, originCityID, destinationCityID, excludeID string) (bool, error)
	Create(ctx context.Context, req models.CreatePricingRuleRequest) (*models.PricingRule, error)
	Update(ctx context.Context, ruleID string, req models.UpdatePricingRuleRequest) (*models.PricingRule, error)
	Delete(ctx context.Context, ruleID string) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const ruleColumns = `r.id, r.origin_city_id, r.destination_city_id, oc.name, dc.name,
	r.base_price, r.price_per_kg, r.created_at, r.updated_at`

const ruleJoins = `FROM pricing_rules r
	JOIN cities oc ON oc.id = r.origin_city_id
	JOIN cities dc ON dc.id = r.destination_city_id`

func scanRule(row pgx.Row) (*models.PricingRule, error) {
	rule := &models.PricingRule{}
	err := row.Scan(
		&rule.ID, &rule.OriginCityID, &rule.DestinationCityID,
		&rule.OriginCityName, &rule.DestinationCityName,
		&rule.BasePrice, &rule.PricePerKg, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan pricing rule: %w", err)
	}
	return rule, nil
}

func (r *Repository) List(ctx context.Context) ([]*models.PricingRule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ruleColumns+` `+ruleJoins+` ORDER BY oc.name, dc.name`)
	if err != nil {
		return nil, fmt.Errorf("repository.ListPricingRules: %w", err)
	}
	defer rows.Close()

	var rules []*models.PricingRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListPricingRules.Scan: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *Repository) FindByID(ctx context.Context, ruleID string) (*models.PricingRule, error) {
	rule, err := scanRule(r.db.QueryRow(ctx, `SELECT `+ruleColumns+` `+ruleJoins+` WHERE r.id = $1`, ruleID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindPricingRuleByID: %w", err)
	}
	return rule, nil
}

func (r *Repository) FindByRoute(ctx context.Context, originCityID, destinationCityID string) (*models.PricingRule, error) {
	rule, err := scanRule(r.db.QueryRow(ctx,
		`SELECT `+ruleColumns+` `+ruleJoins+` WHERE r.origin_city_id = $1 AND r.destination_city_id = $2`,
		originCityID, destinationCityID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindPricingRuleByRoute: %w", err)
	}
	return rule, nil
}

func (r *Repository) RouteHasOtherRule(ctx context.Context, originCityID, destinationCityID, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM pricing_rules
			WHERE origin_city_id = $1 AND destination_city_id = $2 AND id::text <> $3
		)`,
		originCityID, destinationCityID, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository.RouteHasOtherRule: %w", err)
	}
	return exists, nil
}

func (r *Repository) Create(ctx context.Context, req models.CreatePricingRuleRequest) (*models.PricingRule, error) {
	var ruleID string
	query := `
		INSERT INTO pricing_rules (origin_city_id, destination_city_id, base_price, price_per_kg)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.db.QueryRow(ctx, query,
		req.OriginCityID, req.DestinationCityID, *req.BasePrice, *req.PricePerKg).Scan(&ruleID)
	if err != nil {
		return nil, fmt.Errorf("repository.CreatePricingRule: %w", err)
	}
	return r.FindByID(ctx, ruleID)
}

func (r *Repository) Update(ctx context.Context, ruleID string, req models.UpdatePricingRuleRequest) (*models.PricingRule, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	if req.OriginCityID != nil {
		setClauses = append(setClauses, fmt.Sprintf("origin_city_id = $%d", argIdx))
		args = append(args, *req.OriginCityID)
		argIdx++
	}
	if req.DestinationCityID != nil {
		setClauses = append(setClauses, fmt.Sprintf("destination_city_id = $%d", argIdx))
		args = append(args, *req.DestinationCityID)
		argIdx++
	}
	if req.BasePrice != nil {
		setClauses = append(setClauses, fmt.Sprintf("base_price = $%d", argIdx))
		args = append(args, *req.BasePrice)
		argIdx++
	}
	if req.PricePerKg != nil {
		setClauses = append(setClauses, fmt.Sprintf("price_per_kg = $%d", argIdx))
		args = append(args, *req.PricePerKg)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, ruleID)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++
	args = append(args, ruleID)

	query := fmt.Sprintf(`UPDATE pricing_rules SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argIdx)
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.UpdatePricingRule: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}
	return r.FindByID(ctx, ruleID)
}

func (r *Repository) Delete(ctx context.Context, ruleID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM pricing_rules WHERE id = $1`, ruleID)
	if err != nil {
		return fmt.Errorf("repository.DeletePricingRule: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

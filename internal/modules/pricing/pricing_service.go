package pricing

import (
	"context"
	"errors"
	"fmt"

	"e-courier/internal/models"
	"e-courier/internal/modules/cities"
)

// Resolver is the pricing contract the shipment lifecycle depends on.
type Resolver interface {
	// ComputePrice resolves the rule for the exact ordered city pair and
	// returns basePrice + weight*pricePerKg. Fails with ErrNoRouteRule when
	// no rule covers the pair; the reverse direction does not count.
	ComputePrice(ctx context.Context, originCityID, destinationCityID string, weight float64) (float64, error)
}

// ServiceInterface defines the contract for the pricing service.
type ServiceInterface interface {
	Resolver
	List(ctx context.Context) ([]*models.PricingRule, error)
	Get(ctx context.Context, ruleID string) (*models.PricingRule, error)
	Create(ctx context.Context, req models.CreatePricingRuleRequest) (*models.PricingRule, error)
	Update(ctx context.Context, ruleID string, req models.UpdatePricingRuleRequest) (*models.PricingRule, error)
	Delete(ctx context.Context, ruleID string) error
}

type Service struct {
	repo     RepositoryInterface
	cityRepo cities.RepositoryInterface
}

func NewService(repo RepositoryInterface, cityRepo cities.RepositoryInterface) *Service {
	return &Service{repo: repo, cityRepo: cityRepo}
}

// ComputePrice implements Resolver. Pure read over the current rule set;
// no rounding or minimum-charge logic is applied.
func (s *Service) ComputePrice(ctx context.Context, originCityID, destinationCityID string, weight float64) (float64, error) {
	rule, err := s.repo.FindByRoute(ctx, originCityID, destinationCityID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, models.ErrNoRouteRule
		}
		return 0, fmt.Errorf("service.ComputePrice: %w", err)
	}
	return rule.BasePrice + weight*rule.PricePerKg, nil
}

func (s *Service) List(ctx context.Context) ([]*models.PricingRule, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, ruleID string) (*models.PricingRule, error) {
	return s.repo.FindByID(ctx, ruleID)
}

func (s *Service) Create(ctx context.Context, req models.CreatePricingRuleRequest) (*models.PricingRule, error) {
	if err := s.checkCities(ctx, &req.OriginCityID, &req.DestinationCityID); err != nil {
		return nil, err
	}

	duplicate, err := s.repo.RouteHasOtherRule(ctx, req.OriginCityID, req.DestinationCityID, "")
	if err != nil {
		return nil, fmt.Errorf("service.CreatePricingRule: %w", err)
	}
	if duplicate {
		return nil, models.ErrDuplicateRule
	}
	return s.repo.Create(ctx, req)
}

func (s *Service) Update(ctx context.Context, ruleID string, req models.UpdatePricingRuleRequest) (*models.PricingRule, error) {
	current, err := s.repo.FindByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCities(ctx, req.OriginCityID, req.DestinationCityID); err != nil {
		return nil, err
	}

	origin := current.OriginCityID
	dest := current.DestinationCityID
	if req.OriginCityID != nil {
		origin = *req.OriginCityID
	}
	if req.DestinationCityID != nil {
		dest = *req.DestinationCityID
	}

	duplicate, err := s.repo.RouteHasOtherRule(ctx, origin, dest, ruleID)
	if err != nil {
		return nil, fmt.Errorf("service.UpdatePricingRule: %w", err)
	}
	if duplicate {
		return nil, models.ErrDuplicateRule
	}
	return s.repo.Update(ctx, ruleID, req)
}

func (s *Service) Delete(ctx context.Context, ruleID string) error {
	return s.repo.Delete(ctx, ruleID)
}

func (s *Service) checkCities(ctx context.Context, originCityID, destinationCityID *string) error {
	for _, cityID := range []*string{originCityID, destinationCityID} {
		if cityID == nil {
			continue
		}
		if _, err := s.cityRepo.FindByID(ctx, *cityID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.NewValidationError("Origin or destination city does not exist")
			}
			return fmt.Errorf("service.checkCities: %w", err)
		}
	}
	return nil
}

package cities

import (
	"context"
	"fmt"

	"e-courier/internal/models"
)

// ServiceInterface defines the contract for the city service.
type ServiceInterface interface {
	List(ctx context.Context) ([]*models.City, error)
	Get(ctx context.Context, cityID string) (*models.City, error)
	Create(ctx context.Context, req models.CityRequest) (*models.City, error)
	Update(ctx context.Context, cityID string, req models.CityRequest) (*models.City, error)
	Delete(ctx context.Context, cityID string) error
}

type Service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*models.City, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, cityID string) (*models.City, error) {
	return s.repo.FindByID(ctx, cityID)
}

func (s *Service) Create(ctx context.Context, req models.CityRequest) (*models.City, error) {
	city, err := s.repo.Create(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("service.CreateCity: %w", err)
	}
	return city, nil
}

func (s *Service) Update(ctx context.Context, cityID string, req models.CityRequest) (*models.City, error) {
	return s.repo.Update(ctx, cityID, req.Name)
}

// Delete removes a city unless a hub or pricing rule still references it.
func (s *Service) Delete(ctx context.Context, cityID string) error {
	byHub, byRule, err := s.repo.IsReferenced(ctx, cityID)
	if err != nil {
		return fmt.Errorf("service.DeleteCity: %w", err)
	}
	if byHub {
		return models.NewConflictError("Cannot delete city: it is referenced by a hub.")
	}
	if byRule {
		return models.NewConflictError("Cannot delete city: it is referenced by a pricing rule.")
	}
	return s.repo.Delete(ctx, cityID)
}

package hubs

import (
	"context"
	"errors"
	"fmt"

	"e-courier/internal/models"
	"e-courier/internal/modules/cities"
)

// ServiceInterface defines the contract for the hub service.
type ServiceInterface interface {
	List(ctx context.Context) ([]*models.Hub, error)
	Get(ctx context.Context, hubID string) (*models.Hub, error)
	Create(ctx context.Context, req models.CreateHubRequest) (*models.Hub, error)
	Update(ctx context.Context, hubID string, req models.UpdateHubRequest) (*models.Hub, error)
	Delete(ctx context.Context, hubID string) error
}

type Service struct {
	repo     RepositoryInterface
	cityRepo cities.RepositoryInterface
}

func NewService(repo RepositoryInterface, cityRepo cities.RepositoryInterface) *Service {
	return &Service{repo: repo, cityRepo: cityRepo}
}

func (s *Service) List(ctx context.Context) ([]*models.Hub, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, hubID string) (*models.Hub, error) {
	return s.repo.FindByID(ctx, hubID)
}

func (s *Service) Create(ctx context.Context, req models.CreateHubRequest) (*models.Hub, error) {
	if _, err := s.cityRepo.FindByID(ctx, req.CityID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewValidationError("City does not exist")
		}
		return nil, fmt.Errorf("service.CreateHub: %w", err)
	}
	return s.repo.Create(ctx, req)
}

func (s *Service) Update(ctx context.Context, hubID string, req models.UpdateHubRequest) (*models.Hub, error) {
	if req.CityID != nil {
		if _, err := s.cityRepo.FindByID(ctx, *req.CityID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.NewValidationError("City does not exist")
			}
			return nil, fmt.Errorf("service.UpdateHub: %w", err)
		}
	}
	return s.repo.Update(ctx, hubID, req)
}

// Delete removes a hub unless a shipment still references it.
func (s *Service) Delete(ctx context.Context, hubID string) error {
	referenced, err := s.repo.IsReferencedByShipment(ctx, hubID)
	if err != nil {
		return fmt.Errorf("service.DeleteHub: %w", err)
	}
	if referenced {
		return models.NewConflictError("Cannot delete hub: it is referenced by a shipment.")
	}
	return s.repo.Delete(ctx, hubID)
}

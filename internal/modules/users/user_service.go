package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"e-courier/internal/models"
	"e-courier/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceInterface defines the contract for the user service.
type ServiceInterface interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	List(ctx context.Context, role string) ([]*models.User, error)
	ListPublic(ctx context.Context, role string) ([]*models.PublicUser, error)
	Get(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, userID string) error
}

type Service struct {
	repo      RepositoryInterface
	jwtSecret string
}

func NewService(repo RepositoryInterface, jwtSecret string) *Service {
	return &Service{repo: repo, jwtSecret: jwtSecret}
}

func (s *Service) generateToken(user *models.User) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// Register creates a customer account. The public signup surface only
// ever produces customers; couriers and admins are created by an admin.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if _, err := s.repo.FindByPhone(ctx, req.Phone); err == nil {
		return nil, models.ErrPhoneInUse
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.Register: %w", err)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("service.Register: hash password: %w", err)
	}

	address := req.Address
	user, err := s.repo.Create(ctx, &models.User{
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
		Address:      &address,
	})
	if err != nil {
		return nil, fmt.Errorf("service.Register: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("service.Register: sign token: %w", err)
	}
	return &models.AuthResponse{User: user, Token: token}, nil
}

// Login authenticates a phone/password/role triple. Unknown accounts and
// wrong passwords are reported identically.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.FindByPhoneAndRole(ctx, req.Phone, req.Role)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.Login: %w", err)
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("service.Login: sign token: %w", err)
	}
	return &models.AuthResponse{User: user, Token: token}, nil
}

func (s *Service) List(ctx context.Context, role string) ([]*models.User, error) {
	return s.repo.List(ctx, role)
}

// ListPublic returns the trimmed dropdown shape for the given role.
func (s *Service) ListPublic(ctx context.Context, role string) ([]*models.PublicUser, error) {
	users, err := s.repo.List(ctx, role)
	if err != nil {
		return nil, err
	}
	public := make([]*models.PublicUser, 0, len(users))
	for _, u := range users {
		pu := &models.PublicUser{ID: u.ID, Name: u.Name, Phone: u.Phone}
		if role == models.RoleCustomer {
			pu.Address = u.Address
		}
		public = append(public, pu)
	}
	return public, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// Create adds a user of any role. Customers must carry an address.
func (s *Service) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if req.Role == models.RoleCustomer {
		if req.Address == nil || len(*req.Address) < 10 {
			return nil, models.NewValidationError("Address is required for customers and must be at least 10 characters.")
		}
	}

	if _, err := s.repo.FindByPhone(ctx, req.Phone); err == nil {
		return nil, models.ErrPhoneInUse
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.CreateUser: %w", err)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("service.CreateUser: hash password: %w", err)
	}

	return s.repo.Create(ctx, &models.User{
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         req.Role,
		Address:      req.Address,
	})
}

func (s *Service) Update(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.User, error) {
	current, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Phone != nil && *req.Phone != current.Phone {
		if _, err := s.repo.FindByPhone(ctx, *req.Phone); err == nil {
			return nil, models.ErrPhoneInUse
		} else if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("service.UpdateUser: %w", err)
		}
	}

	var passwordHash *string
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("service.UpdateUser: hash password: %w", err)
		}
		passwordHash = &hash
	}

	return s.repo.Update(ctx, userID, req, passwordHash)
}

// Delete removes a user unless a shipment or payment still references
// them.
func (s *Service) Delete(ctx context.Context, userID string) error {
	referenced, err := s.repo.IsReferenced(ctx, userID)
	if err != nil {
		return fmt.Errorf("service.DeleteUser: %w", err)
	}
	if referenced {
		return models.NewConflictError("Cannot delete user: they are referenced by a shipment or payment.")
	}
	return s.repo.Delete(ctx, userID)
}

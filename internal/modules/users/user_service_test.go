package users

import (
	"context"
	"fmt"
	"testing"

	"e-courier/internal/models"
	"e-courier/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users  map[string]*models.User
	nextID int
	refs   map[string]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}, refs: map[string]bool{}}
}

func (f *fakeUserRepo) FindByID(ctx context.Context, userID string) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	for _, u := range f.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUserRepo) FindByPhoneAndRole(ctx context.Context, phone, role string) (*models.User, error) {
	for _, u := range f.users {
		if u.Phone == phone && u.Role == role {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, role string) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	f.nextID++
	copied := *user
	copied.ID = fmt.Sprintf("user-%d", f.nextID)
	f.users[copied.ID] = &copied
	return &copied, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, userID string, req models.UpdateUserRequest, passwordHash *string) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	return u, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return models.ErrNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeUserRepo) IsReferenced(ctx context.Context, userID string) (bool, error) {
	return f.refs[userID], nil
}

const testSecret = "test-secret"

func seedCustomer(t *testing.T, repo *fakeUserRepo, phone, password string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	address := "12 Harbor Road, Hamarweyne"
	u, err := repo.Create(context.Background(), &models.User{
		Name:         "Bashir",
		Phone:        phone,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
		Address:      &address,
	})
	require.NoError(t, err)
	return u
}

func TestRegisterCreatesCustomerWithToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testSecret)

	auth, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Bashir",
		Phone:    "615000002",
		Password: "hunter2secure",
		Address:  "12 Harbor Road, Hamarweyne",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleCustomer, auth.User.Role, "public signup only produces customers")
	require.NotEmpty(t, auth.Token)

	claims := &models.JwtCustomClaims{}
	_, err = jwt.ParseWithClaims(auth.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, auth.User.ID, claims.UserID)
	assert.Equal(t, models.RoleCustomer, claims.Role)
}

func TestRegisterRejectsDuplicatePhone(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testSecret)
	seedCustomer(t, repo, "615000002", "hunter2secure")

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Someone Else",
		Phone:    "615000002",
		Password: "different-pass",
		Address:  "4 Airport Street",
	})
	assert.ErrorIs(t, err, models.ErrPhoneInUse)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testSecret)
	seedCustomer(t, repo, "615000002", "hunter2secure")

	// Unknown phone.
	_, err := svc.Login(context.Background(), models.LoginRequest{
		Phone: "615999999", Password: "hunter2secure", Role: models.RoleCustomer,
	})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	// Right phone, wrong password.
	_, err = svc.Login(context.Background(), models.LoginRequest{
		Phone: "615000002", Password: "wrong", Role: models.RoleCustomer,
	})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	// Right credentials, wrong role.
	_, err = svc.Login(context.Background(), models.LoginRequest{
		Phone: "615000002", Password: "hunter2secure", Role: models.RoleAdmin,
	})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLoginSucceedsWithMatchingRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testSecret)
	user := seedCustomer(t, repo, "615000002", "hunter2secure")

	auth, err := svc.Login(context.Background(), models.LoginRequest{
		Phone: "615000002", Password: "hunter2secure", Role: models.RoleCustomer,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, auth.User.ID)
	assert.NotEmpty(t, auth.Token)
}

func TestCreateCustomerRequiresAddress(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testSecret)

	short := "too short"
	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		Name:     "Bashir",
		Phone:    "615000002",
		Password: "hunter2secure",
		Role:     models.RoleCustomer,
		Address:  &short,
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	// Couriers do not need one.
	_, err = svc.Create(context.Background(), models.CreateUserRequest{
		Name:     "Daahir",
		Phone:    "615000004",
		Password: "hunter2secure",
		Role:     models.RoleCourier,
	})
	assert.NoError(t, err)
}

func TestDeleteBlockedWhileReferenced(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testSecret)
	user := seedCustomer(t, repo, "615000002", "hunter2secure")
	repo.refs[user.ID] = true

	err := svc.Delete(context.Background(), user.ID)
	var cerr *models.ConflictError
	require.ErrorAs(t, err, &cerr)

	repo.refs[user.ID] = false
	assert.NoError(t, svc.Delete(context.Background(), user.ID))
}

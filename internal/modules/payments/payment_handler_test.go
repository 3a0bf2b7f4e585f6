package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"e-courier/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentRepo struct {
	gotLimit  int
	gotOffset int
}

func (f *fakePaymentRepo) Upsert(ctx context.Context, p models.PaymentUpsert) (*models.Payment, error) {
	return nil, nil
}

func (f *fakePaymentRepo) FindByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	return nil, models.ErrNotFound
}

func (f *fakePaymentRepo) FindByShipment(ctx context.Context, shipmentID string) (*models.Payment, error) {
	return nil, models.ErrNotFound
}

func (f *fakePaymentRepo) HasCompleted(ctx context.Context, shipmentID string) (bool, error) {
	return false, nil
}

func (f *fakePaymentRepo) List(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	f.gotLimit = limit
	f.gotOffset = offset
	return []*models.Payment{}, nil
}

func listRequest(t *testing.T, repo *fakePaymentRepo, query string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, NewHandler(repo).List(c))
	return rec
}

func TestListPassesPageAndLimitToRepository(t *testing.T) {
	repo := &fakePaymentRepo{}
	rec := listRequest(t, repo, "?page=3&limit=20")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, repo.gotLimit)
	assert.Equal(t, 40, repo.gotOffset, "page 3 with limit 20 skips the first two pages")
}

func TestListDefaultsAndClampsPagination(t *testing.T) {
	repo := &fakePaymentRepo{}
	listRequest(t, repo, "")
	assert.Equal(t, 50, repo.gotLimit)
	assert.Equal(t, 0, repo.gotOffset)

	listRequest(t, repo, "?page=0&limit=500")
	assert.Equal(t, 50, repo.gotLimit, "out-of-range limit falls back to the default")
	assert.Equal(t, 0, repo.gotOffset)
}

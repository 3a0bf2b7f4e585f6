package pricing

import (
	"context"
	"testing"

	"e-courier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuleRepo struct {
	rules map[string]*models.PricingRule
}

func (f *fakeRuleRepo) List(ctx context.Context) ([]*models.PricingRule, error) { return nil, nil }

func (f *fakeRuleRepo) FindByID(ctx context.Context, ruleID string) (*models.PricingRule, error) {
	r, ok := f.rules[ruleID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r, nil
}

func (f *fakeRuleRepo) FindByRoute(ctx context.Context, originCityID, destinationCityID string) (*models.PricingRule, error) {
	for _, r := range f.rules {
		if r.OriginCityID == originCityID && r.DestinationCityID == destinationCityID {
			return r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeRuleRepo) RouteHasOtherRule(ctx context.Context, originCityID, destinationCityID, excludeID string) (bool, error) {
	for id, r := range f.rules {
		if id != excludeID && r.OriginCityID == originCityID && r.DestinationCityID == destinationCityID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRuleRepo) Create(ctx context.Context, req models.CreatePricingRuleRequest) (*models.PricingRule, error) {
	rule := &models.PricingRule{
		ID:                "rule-new",
		OriginCityID:      req.OriginCityID,
		DestinationCityID: req.DestinationCityID,
		BasePrice:         *req.BasePrice,
		PricePerKg:        *req.PricePerKg,
	}
	f.rules[rule.ID] = rule
	return rule, nil
}

func (f *fakeRuleRepo) Update(ctx context.Context, ruleID string, req models.UpdatePricingRuleRequest) (*models.PricingRule, error) {
	return f.FindByID(ctx, ruleID)
}

func (f *fakeRuleRepo) Delete(ctx context.Context, ruleID string) error { return nil }

type fakeCityRepo struct {
	ids map[string]bool
}

func (f *fakeCityRepo) List(ctx context.Context) ([]*models.City, error) { return nil, nil }

func (f *fakeCityRepo) FindByID(ctx context.Context, cityID string) (*models.City, error) {
	if !f.ids[cityID] {
		return nil, models.ErrNotFound
	}
	return &models.City{ID: cityID}, nil
}

func (f *fakeCityRepo) Create(ctx context.Context, name string) (*models.City, error) {
	return nil, nil
}

func (f *fakeCityRepo) Update(ctx context.Context, cityID, name string) (*models.City, error) {
	return nil, nil
}

func (f *fakeCityRepo) Delete(ctx context.Context, cityID string) error { return nil }

func (f *fakeCityRepo) IsReferenced(ctx context.Context, cityID string) (bool, bool, error) {
	return false, false, nil
}

func newPricingFixture() (*Service, *fakeRuleRepo) {
	repo := &fakeRuleRepo{rules: map[string]*models.PricingRule{
		"rule-1": {
			ID:                "rule-1",
			OriginCityID:      "city-1",
			DestinationCityID: "city-2",
			BasePrice:         10,
			PricePerKg:        3,
		},
	}}
	cityRepo := &fakeCityRepo{ids: map[string]bool{"city-1": true, "city-2": true, "city-3": true}}
	return NewService(repo, cityRepo), repo
}

func TestComputePrice(t *testing.T) {
	svc, _ := newPricingFixture()

	price, err := svc.ComputePrice(context.Background(), "city-1", "city-2", 4)
	require.NoError(t, err)
	assert.Equal(t, 22.0, price) // 10 + 4*3
}

func TestComputePriceZeroWeightIsBasePrice(t *testing.T) {
	svc, _ := newPricingFixture()

	price, err := svc.ComputePrice(context.Background(), "city-1", "city-2", 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, price)
}

func TestComputePriceDirectionMatters(t *testing.T) {
	svc, _ := newPricingFixture()

	// Only city-1 -> city-2 has a rule; the reverse pair does not inherit
	// it.
	_, err := svc.ComputePrice(context.Background(), "city-2", "city-1", 4)
	assert.ErrorIs(t, err, models.ErrNoRouteRule)
}

func TestCreateRejectsDuplicateRoute(t *testing.T) {
	svc, _ := newPricingFixture()

	base, perKg := 7.0, 1.5
	_, err := svc.Create(context.Background(), models.CreatePricingRuleRequest{
		OriginCityID:      "city-1",
		DestinationCityID: "city-2",
		BasePrice:         &base,
		PricePerKg:        &perKg,
	})
	assert.ErrorIs(t, err, models.ErrDuplicateRule)
}

func TestCreateAllowsReverseDirection(t *testing.T) {
	svc, repo := newPricingFixture()

	base, perKg := 7.0, 1.5
	rule, err := svc.Create(context.Background(), models.CreatePricingRuleRequest{
		OriginCityID:      "city-2",
		DestinationCityID: "city-1",
		BasePrice:         &base,
		PricePerKg:        &perKg,
	})
	require.NoError(t, err)
	assert.Equal(t, "city-2", rule.OriginCityID)
	assert.Len(t, repo.rules, 2)
}

func TestCreateRejectsUnknownCity(t *testing.T) {
	svc, _ := newPricingFixture()

	base, perKg := 7.0, 1.5
	_, err := svc.Create(context.Background(), models.CreatePricingRuleRequest{
		OriginCityID:      "city-404",
		DestinationCityID: "city-2",
		BasePrice:         &base,
		PricePerKg:        &perKg,
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateRejectsRouteCollision(t *testing.T) {
	svc, repo := newPricingFixture()
	repo.rules["rule-2"] = &models.PricingRule{
		ID:                "rule-2",
		OriginCityID:      "city-1",
		DestinationCityID: "city-3",
		BasePrice:         4,
		PricePerKg:        2,
	}

	dest := "city-2"
	_, err := svc.Update(context.Background(), "rule-2", models.UpdatePricingRuleRequest{
		DestinationCityID: &dest,
	})
	assert.ErrorIs(t, err, models.ErrDuplicateRule)

	// Updating a rule onto its own route is fine.
	samePrice := 9.0
	_, err = svc.Update(context.Background(), "rule-1", models.UpdatePricingRuleRequest{
		BasePrice: &samePrice,
	})
	assert.NoError(t, err)
}

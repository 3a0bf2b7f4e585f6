package shipments

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"e-courier/internal/models"
	"e-courier/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeShipmentRepo struct {
	shipments map[string]*models.Shipment
	logs      map[string][]models.ShipmentLogInput
	nextID    int
}

func newFakeShipmentRepo() *fakeShipmentRepo {
	return &fakeShipmentRepo{
		shipments: map[string]*models.Shipment{},
		logs:      map[string][]models.ShipmentLogInput{},
	}
}

func (f *fakeShipmentRepo) CreateWithLog(ctx context.Context, shipment *models.Shipment, entry models.ShipmentLogInput) (*models.Shipment, error) {
	f.nextID++
	copied := *shipment
	copied.ID = fmt.Sprintf("ship-%d", f.nextID)
	copied.Status = models.StatusPendingPickup
	copied.PaymentStatus = models.PaymentUnpaid
	f.shipments[copied.ID] = &copied
	f.logs[copied.ID] = append(f.logs[copied.ID], entry)
	return f.find(copied.ID)
}

func (f *fakeShipmentRepo) find(id string) (*models.Shipment, error) {
	s, ok := f.shipments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeShipmentRepo) FindByID(ctx context.Context, shipmentID string) (*models.Shipment, error) {
	return f.find(shipmentID)
}

func (f *fakeShipmentRepo) FindByQRCode(ctx context.Context, qrCodeID string) (*models.Shipment, error) {
	for id, s := range f.shipments {
		if s.QRCodeID != nil && *s.QRCodeID == qrCodeID {
			return f.find(id)
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeShipmentRepo) ListAll(ctx context.Context) ([]*models.Shipment, error) {
	var out []*models.Shipment
	for id := range f.shipments {
		s, _ := f.find(id)
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeShipmentRepo) ListBySender(ctx context.Context, userID string) ([]*models.Shipment, error) {
	var out []*models.Shipment
	for id, s := range f.shipments {
		if s.SenderID == userID {
			s, _ := f.find(id)
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeShipmentRepo) ListByReceiverUser(ctx context.Context, userID string) ([]*models.Shipment, error) {
	var out []*models.Shipment
	for id, s := range f.shipments {
		if s.Receiver.UserID != nil && *s.Receiver.UserID == userID {
			s, _ := f.find(id)
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeShipmentRepo) ListByCourier(ctx context.Context, userID string, courierType string) ([]*models.Shipment, error) {
	var out []*models.Shipment
	for id, s := range f.shipments {
		assigned := s.CourierAID
		if courierType == "B" {
			assigned = s.CourierBID
		}
		if assigned != nil && *assigned == userID {
			s, _ := f.find(id)
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeShipmentRepo) UpdateStatusWithLog(ctx context.Context, shipmentID string, expectedStatus *string, newStatus string, originHubID *string, entry models.ShipmentLogInput) error {
	s, ok := f.shipments[shipmentID]
	if !ok {
		return models.ErrNotFound
	}
	if expectedStatus != nil && s.Status != *expectedStatus {
		return models.ErrInvalidTransition
	}
	s.Status = newStatus
	if originHubID != nil {
		s.OriginHubID = originHubID
	}
	f.logs[shipmentID] = append(f.logs[shipmentID], entry)
	return nil
}

func (f *fakeShipmentRepo) SetCourierWithLog(ctx context.Context, shipmentID, courierType, courierID string, entry models.ShipmentLogInput) error {
	s, ok := f.shipments[shipmentID]
	if !ok {
		return models.ErrNotFound
	}
	if courierType == "B" {
		s.CourierBID = &courierID
	} else {
		s.CourierAID = &courierID
	}
	f.logs[shipmentID] = append(f.logs[shipmentID], entry)
	return nil
}

func (f *fakeShipmentRepo) SetWeightPriceWithLog(ctx context.Context, shipmentID string, weight, price float64, entries []models.ShipmentLogInput) error {
	s, ok := f.shipments[shipmentID]
	if !ok {
		return models.ErrNotFound
	}
	s.Weight = &weight
	s.Price = &price
	f.logs[shipmentID] = append(f.logs[shipmentID], entries...)
	return nil
}

func (f *fakeShipmentRepo) ApplyUpdateWithLog(ctx context.Context, shipmentID string, fields UpdateFields, entry *models.ShipmentLogInput) error {
	s, ok := f.shipments[shipmentID]
	if !ok {
		return models.ErrNotFound
	}
	if fields.SenderID != nil {
		s.SenderID = *fields.SenderID
	}
	if fields.Receiver != nil {
		s.Receiver = *fields.Receiver
	}
	if fields.OriginCityID != nil {
		s.OriginCityID = *fields.OriginCityID
	}
	if fields.DestinationCityID != nil {
		s.DestinationCityID = *fields.DestinationCityID
	}
	if fields.OriginHubID != nil {
		s.OriginHubID = fields.OriginHubID
	}
	if fields.DestinationHubID != nil {
		s.DestinationHubID = fields.DestinationHubID
	}
	if fields.Weight != nil {
		s.Weight = fields.Weight
	}
	if fields.Price != nil {
		s.Price = fields.Price
	}
	if entry != nil {
		f.logs[shipmentID] = append(f.logs[shipmentID], *entry)
	}
	return nil
}

func (f *fakeShipmentRepo) SetQRCode(ctx context.Context, shipmentID, qrCodeID, qrCodeImage string) error {
	s, ok := f.shipments[shipmentID]
	if !ok {
		return models.ErrNotFound
	}
	s.QRCodeID = &qrCodeID
	s.QRCodeImage = &qrCodeImage
	return nil
}

func (f *fakeShipmentRepo) MarkPaid(ctx context.Context, shipmentID string) error {
	s, ok := f.shipments[shipmentID]
	if !ok {
		return models.ErrNotFound
	}
	s.PaymentStatus = models.PaymentPaid
	return nil
}

func (f *fakeShipmentRepo) AppendLog(ctx context.Context, shipmentID string, entry models.ShipmentLogInput) error {
	if _, ok := f.shipments[shipmentID]; !ok {
		return models.ErrNotFound
	}
	f.logs[shipmentID] = append(f.logs[shipmentID], entry)
	return nil
}

func (f *fakeShipmentRepo) ListLogs(ctx context.Context, shipmentID string) ([]*models.ShipmentLogEntry, error) {
	var out []*models.ShipmentLogEntry
	inputs := f.logs[shipmentID]
	for i := len(inputs) - 1; i >= 0; i-- {
		in := inputs[i]
		out = append(out, &models.ShipmentLogEntry{
			ShipmentID:  shipmentID,
			Action:      in.Action,
			Status:      in.Status,
			Description: in.Description,
			UserID:      in.UserID,
			UserRole:    in.UserRole,
			Metadata:    in.Metadata,
		})
	}
	return out, nil
}

func (f *fakeShipmentRepo) Delete(ctx context.Context, shipmentID string) error {
	if _, ok := f.shipments[shipmentID]; !ok {
		return models.ErrNotFound
	}
	delete(f.shipments, shipmentID)
	delete(f.logs, shipmentID)
	return nil
}

func (f *fakeShipmentRepo) actions(shipmentID string) []string {
	var out []string
	for _, entry := range f.logs[shipmentID] {
		out = append(out, entry.Action)
	}
	return out
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func (f *fakeUserRepo) FindByID(ctx context.Context, userID string) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return nil, models.ErrNotFound
}

func (f *fakeUserRepo) FindByPhoneAndRole(ctx context.Context, phone, role string) (*models.User, error) {
	return nil, models.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, role string) ([]*models.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, userID string, req models.UpdateUserRequest, passwordHash *string) (*models.User, error) {
	return f.FindByID(ctx, userID)
}

func (f *fakeUserRepo) Delete(ctx context.Context, userID string) error { return nil }

func (f *fakeUserRepo) IsReferenced(ctx context.Context, userID string) (bool, error) {
	return false, nil
}

type fakeHubRepo struct {
	hubs map[string]*models.Hub
}

func (f *fakeHubRepo) List(ctx context.Context) ([]*models.Hub, error) { return nil, nil }

func (f *fakeHubRepo) FindByID(ctx context.Context, hubID string) (*models.Hub, error) {
	h, ok := f.hubs[hubID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return h, nil
}

func (f *fakeHubRepo) Create(ctx context.Context, req models.CreateHubRequest) (*models.Hub, error) {
	return nil, nil
}

func (f *fakeHubRepo) Update(ctx context.Context, hubID string, req models.UpdateHubRequest) (*models.Hub, error) {
	return nil, nil
}

func (f *fakeHubRepo) Delete(ctx context.Context, hubID string) error { return nil }

func (f *fakeHubRepo) IsReferencedByShipment(ctx context.Context, hubID string) (bool, error) {
	return false, nil
}

type fakeResolver struct {
	base  float64
	perKg float64
	err   error
}

func (f *fakeResolver) ComputePrice(ctx context.Context, originCityID, destinationCityID string, weight float64) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.base + weight*f.perKg, nil
}

type fakePaymentRepo struct {
	byShipment map[string]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byShipment: map[string]*models.Payment{}}
}

func (f *fakePaymentRepo) Upsert(ctx context.Context, p models.PaymentUpsert) (*models.Payment, error) {
	row := &models.Payment{
		ID:         "pay-" + p.ShipmentID,
		ShipmentID: p.ShipmentID,
		CustomerID: p.CustomerID,
		Amount:     p.Amount,
		Method:     p.Method,
		Status:     p.Status,
		Result:     p.Result,
	}
	f.byShipment[p.ShipmentID] = row
	return row, nil
}

func (f *fakePaymentRepo) FindByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	for _, p := range f.byShipment {
		if p.ID == paymentID {
			return p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakePaymentRepo) FindByShipment(ctx context.Context, shipmentID string) (*models.Payment, error) {
	p, ok := f.byShipment[shipmentID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (f *fakePaymentRepo) HasCompleted(ctx context.Context, shipmentID string) (bool, error) {
	p, ok := f.byShipment[shipmentID]
	return ok && p.Status == models.PaymentStatusCompleted, nil
}

func (f *fakePaymentRepo) List(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	return nil, nil
}

type fakeGateway struct {
	succeed bool
	err     error
	calls   int
}

func (f *fakeGateway) Charge(ctx context.Context, payerPhone string, amount float64, reference string) (*payment.ChargeResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &payment.ChargeResult{Success: f.succeed, Raw: json.RawMessage(`{}`)}, nil
}

type fakeQRIssuer struct {
	calls int
}

func (f *fakeQRIssuer) Ensure(shipmentID string, currentToken, currentImage *string) (string, string, bool, error) {
	f.calls++
	if currentToken != nil && currentImage != nil {
		return *currentToken, *currentImage, false, nil
	}
	return "QR-" + shipmentID, "uploads/" + shipmentID + ".png", true, nil
}

type fakeAlerter struct {
	subjects []string
}

func (f *fakeAlerter) SendAlert(ctx context.Context, subject, body string) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

// --- fixture ---

type fixture struct {
	repo        *fakeShipmentRepo
	userRepo    *fakeUserRepo
	hubRepo     *fakeHubRepo
	resolver    *fakeResolver
	paymentRepo *fakePaymentRepo
	gateway     *fakeGateway
	qr          *fakeQRIssuer
	alerter     *fakeAlerter
	svc         *Service
}

func newFixture() *fixture {
	address := "12 Harbor Road, Hamarweyne"
	f := &fixture{
		repo: newFakeShipmentRepo(),
		userRepo: &fakeUserRepo{users: map[string]*models.User{
			"admin-1":    {ID: "admin-1", Name: "Amina", Phone: "615000001", Role: models.RoleAdmin},
			"customer-1": {ID: "customer-1", Name: "Bashir", Phone: "615000002", Role: models.RoleCustomer, Address: &address},
			"customer-2": {ID: "customer-2", Name: "Caaliya", Phone: "615000003", Role: models.RoleCustomer, Address: &address},
			"courier-1":  {ID: "courier-1", Name: "Daahir", Phone: "615000004", Role: models.RoleCourier},
			"courier-2":  {ID: "courier-2", Name: "Ebyan", Phone: "615000005", Role: models.RoleCourier},
		}},
		hubRepo: &fakeHubRepo{hubs: map[string]*models.Hub{
			"hub-1": {ID: "hub-1", Name: "Mogadishu Central", CityID: "city-1"},
		}},
		resolver:    &fakeResolver{base: 5, perKg: 2},
		paymentRepo: newFakePaymentRepo(),
		gateway:     &fakeGateway{succeed: true},
		qr:          &fakeQRIssuer{},
		alerter:     &fakeAlerter{},
	}
	f.svc = NewService(f.repo, f.userRepo, f.hubRepo, f.resolver, f.paymentRepo, f.gateway, f.qr, f.alerter)
	return f
}

var (
	admin    = Actor{ID: "admin-1", Role: models.RoleAdmin}
	customer = Actor{ID: "customer-1", Role: models.RoleCustomer}
	courier  = Actor{ID: "courier-1", Role: models.RoleCourier}
)

func guestReceiver() *models.ReceiverInput {
	return &models.ReceiverInput{Name: "Faadumo", Phone: "616000001", Address: "4 Airport Street"}
}

func registeredReceiver(userID string) *models.ReceiverInput {
	return &models.ReceiverInput{UserID: &userID}
}

func crossCityCreate(receiver *models.ReceiverInput) models.CreateShipmentRequest {
	return models.CreateShipmentRequest{
		Receiver:          receiver,
		OriginCityID:      "city-1",
		DestinationCityID: "city-2",
	}
}

// --- tests ---

func TestCreateByCustomerStartsPendingAndUnpaid(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	assert.Equal(t, "customer-1", created.SenderID)
	assert.Equal(t, models.StatusPendingPickup, created.Status)
	assert.Equal(t, models.PaymentUnpaid, created.PaymentStatus)
	assert.Nil(t, created.Price)
	assert.Equal(t, []string{models.LogActionCreated}, f.repo.actions(created.ID))
	assert.Zero(t, f.gateway.calls, "no weight means no price, so no charge")
}

func TestCreateSnapshotsRegisteredReceiver(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(registeredReceiver("customer-2")))
	require.NoError(t, err)

	require.NotNil(t, created.Receiver.UserID)
	assert.Equal(t, "customer-2", *created.Receiver.UserID)
	assert.Equal(t, "Caaliya", created.Receiver.Name)
	assert.Equal(t, "615000003", created.Receiver.Phone)
}

func TestCreateRejectsSenderAsReceiver(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), customer, crossCityCreate(registeredReceiver("customer-1")))
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreateGuestReceiverNeedsFullContact(t *testing.T) {
	f := newFixture()

	req := crossCityCreate(&models.ReceiverInput{Name: "Faadumo"})
	_, err := f.svc.Create(context.Background(), customer, req)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreateByAdminRequiresSender(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), admin, crossCityCreate(guestReceiver()))
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAdminCreateWithWeightChargesAndIssuesQR(t *testing.T) {
	f := newFixture()

	weight := 4.0
	req := crossCityCreate(guestReceiver())
	req.SenderID = "customer-1"
	req.Weight = &weight

	created, err := f.svc.Create(context.Background(), admin, req)
	require.NoError(t, err)

	require.NotNil(t, created.Price)
	assert.Equal(t, 13.0, *created.Price) // 5 + 4*2
	assert.Equal(t, 1, f.gateway.calls)
	assert.Equal(t, models.PaymentPaid, created.PaymentStatus)
	require.NotNil(t, created.QRCodeID)
	assert.Equal(t, "QR-"+created.ID, *created.QRCodeID)
	require.NotNil(t, created.Payment)
	assert.Equal(t, models.PaymentStatusCompleted, created.Payment.Status)
	assert.Equal(t, []string{
		models.LogActionCreated,
		models.LogActionPayment,
		models.LogActionQRGenerated,
	}, f.repo.actions(created.ID))
}

func TestAdminCreateGatewayDeclineLeavesUnpaid(t *testing.T) {
	f := newFixture()
	f.gateway.succeed = false

	weight := 4.0
	req := crossCityCreate(guestReceiver())
	req.SenderID = "customer-1"
	req.Weight = &weight

	created, err := f.svc.Create(context.Background(), admin, req)
	require.NoError(t, err, "a declined charge is not an operation failure")

	assert.Equal(t, models.PaymentUnpaid, created.PaymentStatus)
	assert.Nil(t, created.QRCodeID)
	require.NotNil(t, created.Payment)
	assert.Equal(t, models.PaymentStatusFailed, created.Payment.Status)
	assert.Len(t, f.alerter.subjects, 1)
	assert.Equal(t, []string{
		models.LogActionCreated,
		models.LogActionPayment,
	}, f.repo.actions(created.ID))
}

func TestSetWeightComputesPriceAndLogsTwice(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	weight := 2.5
	updated, err := f.svc.SetWeight(context.Background(), courier, models.SetWeightRequest{
		ShipmentID: created.ID,
		Weight:     &weight,
	})
	require.NoError(t, err)

	require.NotNil(t, updated.Price)
	assert.Equal(t, 10.0, *updated.Price) // 5 + 2.5*2
	assert.Equal(t, []string{
		models.LogActionCreated,
		models.LogActionWeightUpdated,
		models.LogActionPriceCalculated,
	}, f.repo.actions(created.ID))
}

func TestSetWeightFailsWithoutRouteRule(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	f.resolver.err = models.ErrNoRouteRule
	weight := 2.5
	_, err = f.svc.SetWeight(context.Background(), courier, models.SetWeightRequest{
		ShipmentID: created.ID,
		Weight:     &weight,
	})
	assert.ErrorIs(t, err, models.ErrNoRouteRule)
}

func TestAssignCourierAppliesWithoutStateChecks(t *testing.T) {
	f := newFixture()
	req := crossCityCreate(guestReceiver())
	req.DestinationCityID = "city-1"
	created, err := f.svc.Create(context.Background(), customer, req)
	require.NoError(t, err)
	f.repo.shipments[created.ID].Status = models.StatusDelivered

	// Initial assignment carries no status or route-shape guard.
	shipment, err := f.svc.AssignCourier(context.Background(), admin, models.AssignCourierRequest{
		ShipmentID: created.ID,
		CourierID:  "courier-1",
		Type:       "B",
	})
	require.NoError(t, err)
	require.NotNil(t, shipment.CourierBID)
	assert.Equal(t, "courier-1", *shipment.CourierBID)
}

func TestAssignCourierRejectsNonCourier(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	_, err = f.svc.AssignCourier(context.Background(), admin, models.AssignCourierRequest{
		ShipmentID: created.ID,
		CourierID:  "customer-2",
		Type:       "A",
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateCourierBRejectedOnSameCityRoute(t *testing.T) {
	f := newFixture()
	req := crossCityCreate(guestReceiver())
	req.DestinationCityID = "city-1"
	created, err := f.svc.Create(context.Background(), customer, req)
	require.NoError(t, err)
	f.repo.shipments[created.ID].Status = models.StatusAtDestinationHub

	_, err = f.svc.UpdateCourier(context.Background(), admin, models.AssignCourierRequest{
		ShipmentID: created.ID,
		CourierID:  "courier-2",
		Type:       "B",
	})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestUpdateCourierBOnlyAtDestinationHub(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	_, err = f.svc.UpdateCourier(context.Background(), admin, models.AssignCourierRequest{
		ShipmentID: created.ID,
		CourierID:  "courier-2",
		Type:       "B",
	})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	f.repo.shipments[created.ID].Status = models.StatusAtDestinationHub
	shipment, err := f.svc.UpdateCourier(context.Background(), admin, models.AssignCourierRequest{
		ShipmentID: created.ID,
		CourierID:  "courier-2",
		Type:       "B",
	})
	require.NoError(t, err)
	require.NotNil(t, shipment.CourierBID)
	assert.Equal(t, "courier-2", *shipment.CourierBID)
}

func TestMarkPaidRejectedWithoutPrice(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(context.Background(), admin, models.MarkPaidRequest{ShipmentID: created.ID})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, f.gateway.calls)
}

func TestMarkPaidChargesOnceAndIsIdempotent(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	weight := 1.0
	_, err = f.svc.SetWeight(context.Background(), courier, models.SetWeightRequest{ShipmentID: created.ID, Weight: &weight})
	require.NoError(t, err)

	paid, err := f.svc.MarkPaid(context.Background(), customer, models.MarkPaidRequest{ShipmentID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, 1, f.gateway.calls)

	again, err := f.svc.MarkPaid(context.Background(), customer, models.MarkPaidRequest{ShipmentID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, again.PaymentStatus)
	assert.Equal(t, 1, f.gateway.calls, "completed payments are never re-charged")
}

func TestMarkPaidRejectedAfterPickup(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	weight := 1.0
	_, err = f.svc.SetWeight(context.Background(), courier, models.SetWeightRequest{ShipmentID: created.ID, Weight: &weight})
	require.NoError(t, err)
	f.repo.shipments[created.ID].Status = models.StatusPickedUp

	_, err = f.svc.MarkPaid(context.Background(), customer, models.MarkPaidRequest{ShipmentID: created.ID})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestScanPickupMovesToPickedUpOnce(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	weight := 1.0
	_, err = f.svc.SetWeight(context.Background(), courier, models.SetWeightRequest{ShipmentID: created.ID, Weight: &weight})
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(context.Background(), customer, models.MarkPaidRequest{ShipmentID: created.ID})
	require.NoError(t, err)

	picked, err := f.svc.ScanPickup(context.Background(), courier, models.ScanPickupRequest{QRCodeID: "QR-" + created.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPickedUp, picked.Status)

	_, err = f.svc.ScanPickup(context.Background(), courier, models.ScanPickupRequest{QRCodeID: "QR-" + created.ID})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestScanPickupUnknownToken(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ScanPickup(context.Background(), courier, models.ScanPickupRequest{QRCodeID: "QR-nope"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateStatusFollowsRouteShape(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)
	f.repo.shipments[created.ID].Status = models.StatusPickedUp

	// Cross-city shipments go through the origin hub, not straight to
	// transit.
	_, err = f.svc.UpdateStatus(context.Background(), admin, models.UpdateStatusRequest{
		ShipmentID: created.ID,
		Status:     models.StatusInTransit,
	})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	hubID := "hub-1"
	shipment, err := f.svc.UpdateStatus(context.Background(), admin, models.UpdateStatusRequest{
		ShipmentID: created.ID,
		Status:     models.StatusAtOriginHub,
		HubID:      &hubID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAtOriginHub, shipment.Status)
	require.NotNil(t, shipment.OriginHubID)
	assert.Equal(t, "hub-1", *shipment.OriginHubID)
}

func TestUpdateStatusRejectsUnknownStatusAndHub(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), admin, models.UpdateStatusRequest{
		ShipmentID: created.ID,
		Status:     "Teleported",
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	f.repo.shipments[created.ID].Status = models.StatusPickedUp
	hubID := "hub-missing"
	_, err = f.svc.UpdateStatus(context.Background(), admin, models.UpdateStatusRequest{
		ShipmentID: created.ID,
		Status:     models.StatusAtOriginHub,
		HubID:      &hubID,
	})
	require.ErrorAs(t, err, &verr)
}

func TestGetEnforcesShipmentAccess(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(registeredReceiver("customer-2")))
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), customer, created.ID)
	assert.NoError(t, err, "sender can read")

	_, err = f.svc.Get(context.Background(), Actor{ID: "customer-2", Role: models.RoleCustomer}, created.ID)
	assert.NoError(t, err, "registered receiver can read")

	_, err = f.svc.Get(context.Background(), courier, created.ID)
	assert.ErrorIs(t, err, models.ErrAccessDenied, "unassigned courier cannot read")

	_, err = f.svc.AssignCourier(context.Background(), admin, models.AssignCourierRequest{
		ShipmentID: created.ID,
		CourierID:  "courier-1",
		Type:       "A",
	})
	require.NoError(t, err)
	_, err = f.svc.Get(context.Background(), courier, created.ID)
	assert.NoError(t, err, "assigned courier can read")
}

func TestUpdateRecomputesPriceOnWeightChange(t *testing.T) {
	f := newFixture()
	weight := 2.0
	req := crossCityCreate(guestReceiver())
	req.SenderID = "customer-1"
	req.Weight = &weight
	f.gateway.succeed = false // keep it unpaid so the update is the focus

	created, err := f.svc.Create(context.Background(), admin, req)
	require.NoError(t, err)

	newWeight := 5.0
	updated, err := f.svc.Update(context.Background(), admin, created.ID, models.UpdateShipmentRequest{
		Weight: &newWeight,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Price)
	assert.Equal(t, 15.0, *updated.Price) // 5 + 5*2
}

func TestUpdateRejectsCollapsingSenderAndReceiver(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(registeredReceiver("customer-2")))
	require.NoError(t, err)

	// Re-pointing the receiver at the current sender.
	_, err = f.svc.Update(context.Background(), admin, created.ID, models.UpdateShipmentRequest{
		Receiver: registeredReceiver("customer-1"),
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	// Re-pointing the sender at the current receiver.
	senderID := "customer-2"
	_, err = f.svc.Update(context.Background(), admin, created.ID, models.UpdateShipmentRequest{
		SenderID: &senderID,
	})
	require.ErrorAs(t, err, &verr)
}

func TestUpdateWithoutChangesRetriesFailedCharge(t *testing.T) {
	f := newFixture()
	weight := 1.0
	req := crossCityCreate(guestReceiver())
	req.SenderID = "customer-1"
	req.Weight = &weight
	f.gateway.succeed = false

	created, err := f.svc.Create(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Equal(t, 1, f.gateway.calls)
	assert.Equal(t, models.PaymentUnpaid, created.PaymentStatus)

	// A field-free admin edit still runs the charge trigger.
	f.gateway.succeed = true
	updated, err := f.svc.Update(context.Background(), admin, created.ID, models.UpdateShipmentRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.gateway.calls)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
}

func TestUpdateStatusAppendsHubToDescription(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)
	f.repo.shipments[created.ID].Status = models.StatusPickedUp

	hubID := "hub-1"
	_, err = f.svc.UpdateStatus(context.Background(), admin, models.UpdateStatusRequest{
		ShipmentID:  created.ID,
		Status:      models.StatusAtOriginHub,
		Description: "Truck unloaded",
		HubID:       &hubID,
	})
	require.NoError(t, err)

	entries := f.repo.logs[created.ID]
	require.NotEmpty(t, entries)
	assert.Equal(t, "Truck unloaded at hub: Mogadishu Central", entries[len(entries)-1].Description)
}

func TestDeleteRemovesShipment(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID))
	_, err = f.svc.Get(context.Background(), admin, created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), created.ID), models.ErrNotFound)
}

func TestLogsNewestFirstAndAccessChecked(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), customer, crossCityCreate(guestReceiver()))
	require.NoError(t, err)

	weight := 1.0
	_, err = f.svc.SetWeight(context.Background(), courier, models.SetWeightRequest{ShipmentID: created.ID, Weight: &weight})
	require.NoError(t, err)

	logs, err := f.svc.Logs(context.Background(), customer, created.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, models.LogActionPriceCalculated, logs[0].Action)
	assert.Equal(t, models.LogActionCreated, logs[len(logs)-1].Action)

	_, err = f.svc.Logs(context.Background(), Actor{ID: "customer-2", Role: models.RoleCustomer}, created.ID)
	assert.ErrorIs(t, err, models.ErrAccessDenied)
}

func TestCustomerShipmentsGroupsSentAndReceived(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), customer, crossCityCreate(registeredReceiver("customer-2")))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), Actor{ID: "customer-2", Role: models.RoleCustomer}, crossCityCreate(registeredReceiver("customer-1")))
	require.NoError(t, err)

	grouped, err := f.svc.CustomerShipments(context.Background(), "customer-1")
	require.NoError(t, err)
	assert.Len(t, grouped.Sent, 1)
	assert.Len(t, grouped.Received, 1)
}

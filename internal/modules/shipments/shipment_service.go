package shipments

import (
	"context"
	"errors"
	"fmt"
	"log"

	"e-courier/internal/models"
	"e-courier/internal/modules/hubs"
	"e-courier/internal/modules/payments"
	"e-courier/internal/modules/pricing"
	"e-courier/internal/modules/users"
	"e-courier/pkg/email"
	"e-courier/pkg/payment"
)

// Actor identifies the authenticated caller of a lifecycle operation.
type Actor struct {
	ID   string
	Role string
}

// QRIssuer mints the pickup token and its PNG for a shipment.
type QRIssuer interface {
	Ensure(shipmentID string, currentToken, currentImage *string) (token, imagePath string, generated bool, err error)
}

// ServiceInterface defines the contract for the shipment lifecycle.
type ServiceInterface interface {
	Create(ctx context.Context, actor Actor, req models.CreateShipmentRequest) (*models.ShipmentWithPayment, error)
	Update(ctx context.Context, actor Actor, shipmentID string, req models.UpdateShipmentRequest) (*models.ShipmentWithPayment, error)
	AssignCourier(ctx context.Context, actor Actor, req models.AssignCourierRequest) (*models.Shipment, error)
	UpdateCourier(ctx context.Context, actor Actor, req models.AssignCourierRequest) (*models.Shipment, error)
	SetWeight(ctx context.Context, actor Actor, req models.SetWeightRequest) (*models.Shipment, error)
	ScanPickup(ctx context.Context, actor Actor, req models.ScanPickupRequest) (*models.Shipment, error)
	UpdateStatus(ctx context.Context, actor Actor, req models.UpdateStatusRequest) (*models.Shipment, error)
	MarkPaid(ctx context.Context, actor Actor, req models.MarkPaidRequest) (*models.ShipmentWithPayment, error)
	QRDetails(ctx context.Context, actor Actor, qrCodeID string) (*models.Shipment, error)
	Get(ctx context.Context, actor Actor, shipmentID string) (*models.ShipmentWithPayment, error)
	ListAll(ctx context.Context) ([]*models.ShipmentWithPayment, error)
	CustomerShipments(ctx context.Context, userID string) (*models.CustomerShipments, error)
	CourierShipments(ctx context.Context, userID string) (*models.CourierShipments, error)
	Logs(ctx context.Context, actor Actor, shipmentID string) ([]*models.ShipmentLogEntry, error)
	Delete(ctx context.Context, shipmentID string) error
}

type Service struct {
	repo        RepositoryInterface
	userRepo    users.RepositoryInterface
	hubRepo     hubs.RepositoryInterface
	pricing     pricing.Resolver
	paymentRepo payments.RepositoryInterface
	gateway     payment.Gateway
	qr          QRIssuer
	alerter     email.AlertSender
}

// NewService wires the shipment lifecycle. alerter may be nil, in which
// case gateway failures are logged but no one is mailed.
func NewService(
	repo RepositoryInterface,
	userRepo users.RepositoryInterface,
	hubRepo hubs.RepositoryInterface,
	resolver pricing.Resolver,
	paymentRepo payments.RepositoryInterface,
	gateway payment.Gateway,
	qr QRIssuer,
	alerter email.AlertSender,
) *Service {
	return &Service{
		repo:        repo,
		userRepo:    userRepo,
		hubRepo:     hubRepo,
		pricing:     resolver,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		qr:          qr,
		alerter:     alerter,
	}
}

func (s *Service) Create(ctx context.Context, actor Actor, req models.CreateShipmentRequest) (*models.ShipmentWithPayment, error) {
	senderID := actor.ID
	if actor.Role == models.RoleAdmin {
		if req.SenderID == "" {
			return nil, models.NewValidationError("sender_id is required")
		}
		senderID = req.SenderID
	}

	sender, err := s.userRepo.FindByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewValidationError("Sender does not exist")
		}
		return nil, err
	}

	receiver, err := s.resolveReceiver(ctx, req.Receiver)
	if err != nil {
		return nil, err
	}
	if receiver.UserID != nil && *receiver.UserID == sender.ID {
		return nil, models.NewValidationError("Sender and receiver cannot be the same user")
	}

	shipment := &models.Shipment{
		SenderID:          sender.ID,
		Receiver:          *receiver,
		OriginCityID:      req.OriginCityID,
		DestinationCityID: req.DestinationCityID,
		OriginHubID:       req.OriginHubID,
		DestinationHubID:  req.DestinationHubID,
		Weight:            req.Weight,
	}

	if req.Weight != nil {
		price, err := s.pricing.ComputePrice(ctx, req.OriginCityID, req.DestinationCityID, *req.Weight)
		if err != nil {
			return nil, err
		}
		shipment.Price = &price
	}

	meta := map[string]any{
		"receiverName":  receiver.Name,
		"receiverPhone": receiver.Phone,
	}
	if shipment.Weight != nil {
		meta["weight"] = *shipment.Weight
	}
	if shipment.Price != nil {
		meta["price"] = *shipment.Price
	}
	status := models.StatusPendingPickup
	created, err := s.repo.CreateWithLog(ctx, shipment, models.ShipmentLogInput{
		Action:      models.LogActionCreated,
		Status:      &status,
		Description: "Shipment created",
		UserID:      actor.ID,
		UserRole:    actor.Role,
		Metadata:    meta,
	})
	if err != nil {
		return nil, err
	}

	return s.maybeChargeAndIssueQR(ctx, actor, created)
}

func (s *Service) Update(ctx context.Context, actor Actor, shipmentID string, req models.UpdateShipmentRequest) (*models.ShipmentWithPayment, error) {
	current, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	fields := UpdateFields{
		OriginHubID:      req.OriginHubID,
		DestinationHubID: req.DestinationHubID,
		Weight:           req.Weight,
	}
	changes := map[string]any{}

	if req.SenderID != nil && *req.SenderID != current.SenderID {
		sender, err := s.userRepo.FindByID(ctx, *req.SenderID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.NewValidationError("Sender does not exist")
			}
			return nil, err
		}
		fields.SenderID = &sender.ID
		changes["senderId"] = sender.ID
	}
	if req.Receiver != nil {
		receiver, err := s.resolveReceiver(ctx, req.Receiver)
		if err != nil {
			return nil, err
		}
		fields.Receiver = receiver
		changes["receiverName"] = receiver.Name
	}

	// Re-check the parties after the edit: neither a new receiver nor a
	// new sender may collapse the pair onto one account.
	effectiveSender := current.SenderID
	if fields.SenderID != nil {
		effectiveSender = *fields.SenderID
	}
	effectiveReceiver := current.Receiver.UserID
	if fields.Receiver != nil {
		effectiveReceiver = fields.Receiver.UserID
	}
	if effectiveReceiver != nil && *effectiveReceiver == effectiveSender {
		return nil, models.NewValidationError("Sender and receiver cannot be the same user")
	}
	if req.OriginCityID != nil && *req.OriginCityID != current.OriginCityID {
		fields.OriginCityID = req.OriginCityID
		changes["originCityId"] = *req.OriginCityID
	}
	if req.DestinationCityID != nil && *req.DestinationCityID != current.DestinationCityID {
		fields.DestinationCityID = req.DestinationCityID
		changes["destinationCityId"] = *req.DestinationCityID
	}
	if req.OriginHubID != nil {
		changes["originHubId"] = *req.OriginHubID
	}
	if req.DestinationHubID != nil {
		changes["destinationHubId"] = *req.DestinationHubID
	}
	if req.Weight != nil {
		changes["weight"] = *req.Weight
	}

	// Recompute when the weight or either endpoint changed and all three
	// inputs are resolvable afterwards.
	weight := current.Weight
	if fields.Weight != nil {
		weight = fields.Weight
	}
	origin := current.OriginCityID
	if fields.OriginCityID != nil {
		origin = *fields.OriginCityID
	}
	destination := current.DestinationCityID
	if fields.DestinationCityID != nil {
		destination = *fields.DestinationCityID
	}
	routeChanged := fields.Weight != nil || fields.OriginCityID != nil || fields.DestinationCityID != nil
	if routeChanged && weight != nil {
		price, err := s.pricing.ComputePrice(ctx, origin, destination, *weight)
		if err != nil {
			return nil, err
		}
		fields.Price = &price
		changes["price"] = price
	}

	// Even a no-op edit by an admin re-runs the payment trigger, so an
	// earlier failed charge gets another attempt.
	if len(changes) == 0 {
		return s.maybeChargeAndIssueQR(ctx, actor, current)
	}

	entry := models.ShipmentLogInput{
		Action:      models.LogActionStatusUpdated,
		Status:      &current.Status,
		Description: "Shipment details updated",
		UserID:      actor.ID,
		UserRole:    actor.Role,
		Metadata:    changes,
	}
	if err := s.repo.ApplyUpdateWithLog(ctx, shipmentID, fields, &entry); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	return s.maybeChargeAndIssueQR(ctx, actor, updated)
}

// AssignCourier sets the courier for a leg. The assignee must hold the
// courier role, but no status check is applied: admins can (re)assign at
// any point in the lifecycle.
func (s *Service) AssignCourier(ctx context.Context, actor Actor, req models.AssignCourierRequest) (*models.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, req.ShipmentID)
	if err != nil {
		return nil, err
	}
	courier, err := s.requireCourier(ctx, req.CourierID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetCourierWithLog(ctx, shipment.ID, req.Type, courier.ID, models.ShipmentLogInput{
		Action:      models.LogActionCourierAssigned,
		Status:      &shipment.Status,
		Description: fmt.Sprintf("Courier %s (%s) assigned", req.Type, courier.Name),
		UserID:      actor.ID,
		UserRole:    actor.Role,
		Metadata: map[string]any{
			"courierId":   courier.ID,
			"courierName": courier.Name,
			"courierType": req.Type,
		},
	}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, shipment.ID)
}

// UpdateCourier swaps an already-assigned courier. Reassigning leg B is
// only meaningful once the shipment sits at the destination hub.
func (s *Service) UpdateCourier(ctx context.Context, actor Actor, req models.AssignCourierRequest) (*models.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, req.ShipmentID)
	if err != nil {
		return nil, err
	}
	if req.Type == "B" {
		// Leg B only exists on cross-city routes, and swapping its courier
		// is a destination-hub-stage operation.
		if shipment.SameCity() || shipment.Status != models.StatusAtDestinationHub {
			return nil, models.ErrInvalidTransition
		}
	}
	courier, err := s.requireCourier(ctx, req.CourierID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetCourierWithLog(ctx, shipment.ID, req.Type, courier.ID, models.ShipmentLogInput{
		Action:      models.LogActionCourierAssigned,
		Status:      &shipment.Status,
		Description: fmt.Sprintf("Courier %s changed to %s", req.Type, courier.Name),
		UserID:      actor.ID,
		UserRole:    actor.Role,
		Metadata: map[string]any{
			"courierId":   courier.ID,
			"courierName": courier.Name,
			"courierType": req.Type,
		},
	}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, shipment.ID)
}

func (s *Service) SetWeight(ctx context.Context, actor Actor, req models.SetWeightRequest) (*models.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, req.ShipmentID)
	if err != nil {
		return nil, err
	}

	price, err := s.pricing.ComputePrice(ctx, shipment.OriginCityID, shipment.DestinationCityID, *req.Weight)
	if err != nil {
		return nil, err
	}

	oldWeight := "not set"
	if shipment.Weight != nil {
		oldWeight = fmt.Sprintf("%gkg", *shipment.Weight)
	}
	oldPrice := "not set"
	if shipment.Price != nil {
		oldPrice = fmt.Sprintf("%g", *shipment.Price)
	}
	entries := []models.ShipmentLogInput{
		{
			Action:      models.LogActionWeightUpdated,
			Status:      &shipment.Status,
			Description: fmt.Sprintf("Weight updated from %s to %gkg", oldWeight, *req.Weight),
			UserID:      actor.ID,
			UserRole:    actor.Role,
			Metadata:    map[string]any{"oldWeight": shipment.Weight, "newWeight": *req.Weight},
		},
		{
			Action:      models.LogActionPriceCalculated,
			Status:      &shipment.Status,
			Description: fmt.Sprintf("Price updated from %s to %g", oldPrice, price),
			UserID:      actor.ID,
			UserRole:    actor.Role,
			Metadata:    map[string]any{"oldPrice": shipment.Price, "newPrice": price},
		},
	}
	if err := s.repo.SetWeightPriceWithLog(ctx, shipment.ID, *req.Weight, price, entries); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, shipment.ID)
}

// ScanPickup moves a shipment from Pending Pickup to Picked Up by its QR
// token. The status check is repeated inside the UPDATE so concurrent
// scans cannot both win.
func (s *Service) ScanPickup(ctx context.Context, actor Actor, req models.ScanPickupRequest) (*models.Shipment, error) {
	shipment, err := s.repo.FindByQRCode(ctx, req.QRCodeID)
	if err != nil {
		return nil, err
	}
	if shipment.Status != models.StatusPendingPickup {
		return nil, models.ErrInvalidTransition
	}

	expected := models.StatusPendingPickup
	newStatus := models.StatusPickedUp
	err = s.repo.UpdateStatusWithLog(ctx, shipment.ID, &expected, newStatus, nil, models.ShipmentLogInput{
		Action:      models.LogActionStatusUpdated,
		Status:      &newStatus,
		Description: "Picked up after QR scan",
		UserID:      actor.ID,
		UserRole:    actor.Role,
		Metadata: map[string]any{
			"qrCodeId":  req.QRCodeID,
			"oldStatus": models.StatusPendingPickup,
			"newStatus": newStatus,
		},
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, shipment.ID)
}

func (s *Service) UpdateStatus(ctx context.Context, actor Actor, req models.UpdateStatusRequest) (*models.Shipment, error) {
	if !IsValidStatus(req.Status) {
		return nil, models.NewValidationError("Unknown shipment status")
	}
	shipment, err := s.repo.FindByID(ctx, req.ShipmentID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(shipment.SameCity(), shipment.Status, req.Status) {
		return nil, models.ErrInvalidTransition
	}

	description := req.Description
	meta := map[string]any{
		"oldStatus": shipment.Status,
		"newStatus": req.Status,
	}

	var originHubID *string
	if req.Status == models.StatusAtOriginHub && req.HubID != nil {
		hub, err := s.hubRepo.FindByID(ctx, *req.HubID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.NewValidationError("Hub does not exist")
			}
			return nil, err
		}
		originHubID = &hub.ID
		meta["hubId"] = hub.ID
		meta["hubName"] = hub.Name
		if description == "" {
			description = fmt.Sprintf("Arrived at hub %s", hub.Name)
		} else {
			description = fmt.Sprintf("%s at hub: %s", description, hub.Name)
		}
	}
	if description == "" {
		description = fmt.Sprintf("Status changed from %s to %s", shipment.Status, req.Status)
	}

	expected := shipment.Status
	newStatus := req.Status
	err = s.repo.UpdateStatusWithLog(ctx, shipment.ID, &expected, newStatus, originHubID, models.ShipmentLogInput{
		Action:      models.LogActionStatusUpdated,
		Status:      &newStatus,
		Description: description,
		UserID:      actor.ID,
		UserRole:    actor.Role,
		Metadata:    meta,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, shipment.ID)
}

// MarkPaid runs an explicit payment attempt for a shipment. Idempotent:
// a shipment that already has a completed payment only gets its QR
// re-ensured.
func (s *Service) MarkPaid(ctx context.Context, actor Actor, req models.MarkPaidRequest) (*models.ShipmentWithPayment, error) {
	shipment, err := s.repo.FindByID(ctx, req.ShipmentID)
	if err != nil {
		return nil, err
	}

	done, err := s.paymentRepo.HasCompleted(ctx, shipment.ID)
	if err != nil {
		return nil, err
	}
	if done && shipment.PaymentStatus == models.PaymentPaid {
		if err := s.ensureQR(ctx, actor, shipment); err != nil {
			return nil, err
		}
		fresh, err := s.repo.FindByID(ctx, shipment.ID)
		if err != nil {
			return nil, err
		}
		return s.attachPayment(ctx, fresh)
	}

	// Payment is a pre-pickup concern; once the parcel moves, the window
	// is closed.
	if shipment.Status != models.StatusPendingPickup {
		return nil, models.ErrInvalidTransition
	}
	if shipment.Price == nil {
		return nil, models.NewValidationError("Shipment has no price yet; set the weight first")
	}

	if err := s.charge(ctx, actor, shipment); err != nil {
		return nil, err
	}
	fresh, err := s.repo.FindByID(ctx, shipment.ID)
	if err != nil {
		return nil, err
	}
	return s.attachPayment(ctx, fresh)
}

// QRDetails resolves a shipment by its QR token without mutating it,
// letting a courier preview before scanning for pickup.
func (s *Service) QRDetails(ctx context.Context, actor Actor, qrCodeID string) (*models.Shipment, error) {
	return s.repo.FindByQRCode(ctx, qrCodeID)
}

func (s *Service) Get(ctx context.Context, actor Actor, shipmentID string) (*models.ShipmentWithPayment, error) {
	shipment, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if err := requireShipmentAccess(actor, shipment); err != nil {
		return nil, err
	}
	// Paid shipments always expose a QR; regenerate if the image went
	// missing on disk.
	if shipment.PaymentStatus == models.PaymentPaid {
		if err := s.ensureQR(ctx, actor, shipment); err != nil {
			return nil, err
		}
		shipment, err = s.repo.FindByID(ctx, shipmentID)
		if err != nil {
			return nil, err
		}
	}
	return s.attachPayment(ctx, shipment)
}

func (s *Service) ListAll(ctx context.Context) ([]*models.ShipmentWithPayment, error) {
	shipments, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ShipmentWithPayment, 0, len(shipments))
	for _, shipment := range shipments {
		withPayment, err := s.attachPayment(ctx, shipment)
		if err != nil {
			return nil, err
		}
		out = append(out, withPayment)
	}
	return out, nil
}

func (s *Service) CustomerShipments(ctx context.Context, userID string) (*models.CustomerShipments, error) {
	sent, err := s.repo.ListBySender(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.repo.ListByReceiverUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sent == nil {
		sent = []*models.Shipment{}
	}
	if received == nil {
		received = []*models.Shipment{}
	}
	return &models.CustomerShipments{Sent: sent, Received: received}, nil
}

func (s *Service) CourierShipments(ctx context.Context, userID string) (*models.CourierShipments, error) {
	asA, err := s.repo.ListByCourier(ctx, userID, "A")
	if err != nil {
		return nil, err
	}
	asB, err := s.repo.ListByCourier(ctx, userID, "B")
	if err != nil {
		return nil, err
	}
	if asA == nil {
		asA = []*models.Shipment{}
	}
	if asB == nil {
		asB = []*models.Shipment{}
	}
	return &models.CourierShipments{AsCourierA: asA, AsCourierB: asB}, nil
}

func (s *Service) Logs(ctx context.Context, actor Actor, shipmentID string) ([]*models.ShipmentLogEntry, error) {
	shipment, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if err := requireShipmentAccess(actor, shipment); err != nil {
		return nil, err
	}
	return s.repo.ListLogs(ctx, shipmentID)
}

func (s *Service) Delete(ctx context.Context, shipmentID string) error {
	return s.repo.Delete(ctx, shipmentID)
}

// resolveReceiver turns the polymorphic receiver input into a concrete
// receiver: registered accounts get their contact details snapshotted,
// guests supply them inline.
func (s *Service) resolveReceiver(ctx context.Context, input *models.ReceiverInput) (*models.Receiver, error) {
	if input == nil {
		return nil, models.NewValidationError("receiver is required")
	}
	if input.UserID != nil {
		user, err := s.userRepo.FindByID(ctx, *input.UserID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.NewValidationError("Receiver does not exist")
			}
			return nil, err
		}
		address := ""
		if user.Address != nil {
			address = *user.Address
		}
		return &models.Receiver{
			UserID:  &user.ID,
			Name:    user.Name,
			Phone:   user.Phone,
			Address: address,
		}, nil
	}
	if input.Name == "" || input.Phone == "" || input.Address == "" {
		return nil, models.NewValidationError("Guest receivers need name, phone and address")
	}
	return &models.Receiver{
		Name:    input.Name,
		Phone:   input.Phone,
		Address: input.Address,
	}, nil
}

func (s *Service) requireCourier(ctx context.Context, courierID string) (*models.User, error) {
	courier, err := s.userRepo.FindByID(ctx, courierID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewValidationError("Courier does not exist")
		}
		return nil, err
	}
	if courier.Role != models.RoleCourier {
		return nil, models.NewValidationError("Assigned user is not a courier")
	}
	return courier, nil
}

func requireShipmentAccess(actor Actor, shipment *models.Shipment) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCourier:
		if (shipment.CourierAID != nil && *shipment.CourierAID == actor.ID) ||
			(shipment.CourierBID != nil && *shipment.CourierBID == actor.ID) {
			return nil
		}
	case models.RoleCustomer:
		if shipment.SenderID == actor.ID {
			return nil
		}
		if shipment.Receiver.UserID != nil && *shipment.Receiver.UserID == actor.ID {
			return nil
		}
	}
	return models.ErrAccessDenied
}

func (s *Service) attachPayment(ctx context.Context, shipment *models.Shipment) (*models.ShipmentWithPayment, error) {
	p, err := s.paymentRepo.FindByShipment(ctx, shipment.ID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	return &models.ShipmentWithPayment{Shipment: shipment, Payment: p}, nil
}

// maybeChargeAndIssueQR is the shared post-write trigger: after an admin
// creates or edits a shipment whose price is known and whose payment has
// not completed, the charge runs immediately.
func (s *Service) maybeChargeAndIssueQR(ctx context.Context, actor Actor, shipment *models.Shipment) (*models.ShipmentWithPayment, error) {
	if actor.Role != models.RoleAdmin || shipment.Price == nil {
		return s.attachPayment(ctx, shipment)
	}
	done, err := s.paymentRepo.HasCompleted(ctx, shipment.ID)
	if err != nil {
		return nil, err
	}
	if done {
		return s.attachPayment(ctx, shipment)
	}

	if err := s.charge(ctx, actor, shipment); err != nil {
		return nil, err
	}
	fresh, err := s.repo.FindByID(ctx, shipment.ID)
	if err != nil {
		return nil, err
	}
	return s.attachPayment(ctx, fresh)
}

// charge runs one gateway attempt, records the outcome as the shipment's
// payment row plus an audit entry, and on success marks the shipment paid
// and ensures its QR code. A declined or errored gateway call is not an
// operation failure; the shipment simply stays unpaid.
func (s *Service) charge(ctx context.Context, actor Actor, shipment *models.Shipment) error {
	sender, err := s.userRepo.FindByID(ctx, shipment.SenderID)
	if err != nil {
		return err
	}

	result, gwErr := s.gateway.Charge(ctx, sender.Phone, *shipment.Price, shipment.ID)
	success := gwErr == nil && result != nil && result.Success

	upsert := models.PaymentUpsert{
		ShipmentID: shipment.ID,
		CustomerID: sender.ID,
		Amount:     *shipment.Price,
		Method:     models.PaymentMethodWaafi,
		Status:     models.PaymentStatusFailed,
	}
	if result != nil {
		upsert.Result = result.Raw
	}
	if success {
		upsert.Status = models.PaymentStatusCompleted
	}
	if _, err := s.paymentRepo.Upsert(ctx, upsert); err != nil {
		return err
	}

	outcome := "Failed"
	snapshot := models.LogStatusUnpaid
	if success {
		outcome = "Success"
		snapshot = models.LogStatusPaid
	}
	logStatus := snapshot
	if err := s.repo.AppendLog(ctx, shipment.ID, models.ShipmentLogInput{
		Action:      models.LogActionPayment,
		Status:      &logStatus,
		Description: fmt.Sprintf("Payment attempted via Waafi: %s", outcome),
		UserID:      actor.ID,
		UserRole:    actor.Role,
		Metadata: map[string]any{
			"amount":  *shipment.Price,
			"method":  models.PaymentMethodWaafi,
			"success": success,
		},
	}); err != nil {
		return err
	}

	if !success {
		s.alertChargeFailure(ctx, shipment, gwErr)
		return nil
	}

	if err := s.repo.MarkPaid(ctx, shipment.ID); err != nil {
		return err
	}
	shipment.PaymentStatus = models.PaymentPaid
	return s.ensureQR(ctx, actor, shipment)
}

// ensureQR mints the shipment's QR token and PNG if they are missing and
// records the generation in the audit log.
func (s *Service) ensureQR(ctx context.Context, actor Actor, shipment *models.Shipment) error {
	token, imagePath, generated, err := s.qr.Ensure(shipment.ID, shipment.QRCodeID, shipment.QRCodeImage)
	if err != nil {
		return err
	}
	if !generated {
		return nil
	}
	if err := s.repo.SetQRCode(ctx, shipment.ID, token, imagePath); err != nil {
		return err
	}
	return s.repo.AppendLog(ctx, shipment.ID, models.ShipmentLogInput{
		Action:      models.LogActionQRGenerated,
		Status:      &shipment.Status,
		Description: "QR code generated",
		UserID:      actor.ID,
		UserRole:    actor.Role,
		Metadata:    map[string]any{"qrCodeId": token},
	})
}

func (s *Service) alertChargeFailure(ctx context.Context, shipment *models.Shipment, gwErr error) {
	detail := "gateway declined the charge"
	if gwErr != nil {
		detail = gwErr.Error()
	}
	log.Printf("payment failed for shipment %s: %s", shipment.ID, detail)
	if s.alerter == nil {
		return
	}
	subject := fmt.Sprintf("Payment failed for shipment %s", shipment.ID)
	body := fmt.Sprintf("Charging shipment %s for %.2f failed: %s", shipment.ID, *shipment.Price, detail)
	if err := s.alerter.SendAlert(ctx, subject, body); err != nil {
		log.Printf("failed to send payment alert: %v", err)
	}
}

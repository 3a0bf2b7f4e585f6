package models

import "time"

// Shipment lifecycle states. Same-city routes use only PendingPickup,
// PickedUp, InTransit and Delivered; cross-city routes pass through the
// hub states as well. Canceled is declared for completeness but no
// operation currently transitions a shipment into it.
const (
	StatusPendingPickup    = "Pending Pickup"
	StatusPickedUp         = "Picked Up"
	StatusAtOriginHub      = "At Origin Hub"
	StatusInTransit        = "In Transit"
	StatusAtDestinationHub = "At Destination Hub"
	StatusOutForDelivery   = "Out for Delivery"
	StatusDelivered        = "Delivered"
	StatusCanceled         = "Canceled"
)

// Payment state carried on the shipment itself.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Audit log actions.
const (
	LogActionCreated         = "Created"
	LogActionStatusUpdated   = "Status Updated"
	LogActionPayment         = "Payment"
	LogActionQRGenerated     = "QR Generated"
	LogActionCourierAssigned = "Courier Assigned"
	LogActionWeightUpdated   = "Weight Updated"
	LogActionPriceCalculated = "Price Calculated"
	LogActionCancelled       = "Cancelled"
)

// Log-only status snapshots used by Payment entries.
const (
	LogStatusPaid   = "Paid"
	LogStatusUnpaid = "Unpaid"
)

// Receiver is the destination party: either a registered account
// (UserID set, contact fields snapshotted from it at creation time) or a
// guest snapshot (UserID nil, contact fields supplied inline).
type Receiver struct {
	UserID  *string `json:"user_id,omitempty" db:"receiver_user_id"`
	Name    string  `json:"name" db:"receiver_name"`
	Phone   string  `json:"phone" db:"receiver_phone"`
	Address string  `json:"address" db:"receiver_address"`
}

type Shipment struct {
	ID                string    `json:"id" db:"id"`
	SenderID          string    `json:"sender_id" db:"sender_id"`
	SenderName        string    `json:"sender_name,omitempty" db:"sender_name"`
	Receiver          Receiver  `json:"receiver"`
	OriginCityID      string    `json:"origin_city_id" db:"origin_city_id"`
	DestinationCityID string    `json:"destination_city_id" db:"destination_city_id"`
	OriginCityName    string    `json:"origin_city_name,omitempty" db:"origin_city_name"`
	DestCityName      string    `json:"destination_city_name,omitempty" db:"destination_city_name"`
	OriginHubID       *string   `json:"origin_hub_id,omitempty" db:"origin_hub_id"`
	DestinationHubID  *string   `json:"destination_hub_id,omitempty" db:"destination_hub_id"`
	CourierAID        *string   `json:"courier_a_id,omitempty" db:"courier_a_id"`
	CourierBID        *string   `json:"courier_b_id,omitempty" db:"courier_b_id"`
	Weight            *float64  `json:"weight,omitempty" db:"weight"`
	Price             *float64  `json:"price,omitempty" db:"price"`
	QRCodeID          *string   `json:"qr_code_id,omitempty" db:"qr_code_id"`
	QRCodeImage       *string   `json:"qr_code_image,omitempty" db:"qr_code_image"`
	Status            string    `json:"status" db:"status"`
	PaymentStatus     string    `json:"payment_status" db:"payment_status"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// SameCity reports whether the shipment's route starts and ends in the
// same city, in which case only courier A is ever involved.
func (s *Shipment) SameCity() bool {
	return s.OriginCityID == s.DestinationCityID
}

// ShipmentLogEntry is one immutable audit record owned by its shipment.
// Entries are only ever appended, never edited or removed.
type ShipmentLogEntry struct {
	ID          int64          `json:"id" db:"id"`
	ShipmentID  string         `json:"shipment_id" db:"shipment_id"`
	Action      string         `json:"action" db:"action"`
	Status      *string        `json:"status,omitempty" db:"status"`
	Description string         `json:"description" db:"description"`
	UserID      string         `json:"user_id" db:"user_id"`
	UserRole    string         `json:"user_role" db:"user_role"`
	Metadata    map[string]any `json:"metadata" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// ShipmentLogInput is the append payload for a new log entry; the actor
// attribution is mandatory.
type ShipmentLogInput struct {
	Action      string
	Status      *string
	Description string
	UserID      string
	UserRole    string
	Metadata    map[string]any
}

// ReceiverInput is the polymorphic receiver shape accepted on create and
// update: either user_id, or the full inline snapshot, never both.
type ReceiverInput struct {
	UserID  *string `json:"user_id,omitempty"`
	Name    string  `json:"name,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Address string  `json:"address,omitempty"`
}

type CreateShipmentRequest struct {
	SenderID          string         `json:"sender_id,omitempty"`
	Receiver          *ReceiverInput `json:"receiver" validate:"required"`
	OriginCityID      string         `json:"origin_city_id" validate:"required,uuid"`
	DestinationCityID string         `json:"destination_city_id" validate:"required,uuid"`
	OriginHubID       *string        `json:"origin_hub_id,omitempty" validate:"omitempty,uuid"`
	DestinationHubID  *string        `json:"destination_hub_id,omitempty" validate:"omitempty,uuid"`
	Weight            *float64       `json:"weight,omitempty" validate:"omitempty,gt=0"`
}

type UpdateShipmentRequest struct {
	SenderID          *string        `json:"sender_id,omitempty" validate:"omitempty,uuid"`
	Receiver          *ReceiverInput `json:"receiver,omitempty"`
	OriginCityID      *string        `json:"origin_city_id,omitempty" validate:"omitempty,uuid"`
	DestinationCityID *string        `json:"destination_city_id,omitempty" validate:"omitempty,uuid"`
	OriginHubID       *string        `json:"origin_hub_id,omitempty" validate:"omitempty,uuid"`
	DestinationHubID  *string        `json:"destination_hub_id,omitempty" validate:"omitempty,uuid"`
	Weight            *float64       `json:"weight,omitempty" validate:"omitempty,gt=0"`
}

type AssignCourierRequest struct {
	ShipmentID string `json:"shipment_id" validate:"required,uuid"`
	CourierID  string `json:"courier_id" validate:"required,uuid"`
	Type       string `json:"type" validate:"required,oneof=A B"`
}

type SetWeightRequest struct {
	ShipmentID string   `json:"shipment_id" validate:"required,uuid"`
	Weight     *float64 `json:"weight" validate:"required,gt=0"`
}

type ScanPickupRequest struct {
	QRCodeID string `json:"qr_code_id" validate:"required"`
}

type MarkPaidRequest struct {
	ShipmentID string `json:"shipment_id" validate:"required,uuid"`
}

type UpdateStatusRequest struct {
	ShipmentID  string  `json:"shipment_id" validate:"required,uuid"`
	Status      string  `json:"status" validate:"required"`
	Description string  `json:"description,omitempty"`
	HubID       *string `json:"hub_id,omitempty" validate:"omitempty,uuid"`
}

// ShipmentWithPayment decorates a shipment with its payment row, when
// one exists.
type ShipmentWithPayment struct {
	*Shipment
	Payment *Payment `json:"payment,omitempty"`
}

// CustomerShipments groups a customer's shipments by their role in them.
type CustomerShipments struct {
	Sent     []*Shipment `json:"sent"`
	Received []*Shipment `json:"received"`
}

// CourierShipments groups a courier's shipments by assignment leg.
type CourierShipments struct {
	AsCourierA []*Shipment `json:"as_courier_a"`
	AsCourierB []*Shipment `json:"as_courier_b"`
}

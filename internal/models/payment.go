package models

import (
	"encoding/json"
	"time"
)

// Payment methods.
const (
	PaymentMethodWaafi = "Waafi"
	PaymentMethodCash  = "cash"
)

// Payment attempt states.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment is the single payment row for a shipment. Repeated attempts
// overwrite it (last attempt wins); it is never duplicated per shipment.
type Payment struct {
	ID         string          `json:"id" db:"id"`
	ShipmentID string          `json:"shipment_id" db:"shipment_id"`
	CustomerID string          `json:"customer_id" db:"customer_id"`
	Amount     float64         `json:"amount" db:"amount"`
	Method     string          `json:"method" db:"method"`
	Status     string          `json:"status" db:"status"`
	Result     json.RawMessage `json:"result,omitempty" db:"result"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// PaymentUpsert is the write payload for the per-shipment payment row.
type PaymentUpsert struct {
	ShipmentID string
	CustomerID string
	Amount     float64
	Method     string
	Status     string
	Result     json.RawMessage
}

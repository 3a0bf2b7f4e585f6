package models

import "time"

// PricingRule is a directional rate card for an ordered (origin,
// destination) city pair. A rule for A->B says nothing about B->A.
type PricingRule struct {
	ID                  string    `json:"id" db:"id"`
	OriginCityID        string    `json:"origin_city_id" db:"origin_city_id"`
	DestinationCityID   string    `json:"destination_city_id" db:"destination_city_id"`
	OriginCityName      string    `json:"origin_city_name,omitempty" db:"origin_city_name"`
	DestinationCityName string    `json:"destination_city_name,omitempty" db:"destination_city_name"`
	BasePrice           float64   `json:"base_price" db:"base_price"`
	PricePerKg          float64   `json:"price_per_kg" db:"price_per_kg"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

type CreatePricingRuleRequest struct {
	OriginCityID      string   `json:"origin_city_id" validate:"required,uuid"`
	DestinationCityID string   `json:"destination_city_id" validate:"required,uuid"`
	BasePrice         *float64 `json:"base_price" validate:"required,gte=0"`
	PricePerKg        *float64 `json:"price_per_kg" validate:"required,gte=0"`
}

type UpdatePricingRuleRequest struct {
	OriginCityID      *string  `json:"origin_city_id,omitempty" validate:"omitempty,uuid"`
	DestinationCityID *string  `json:"destination_city_id,omitempty" validate:"omitempty,uuid"`
	BasePrice         *float64 `json:"base_price,omitempty" validate:"omitempty,gte=0"`
	PricePerKg        *float64 `json:"price_per_kg,omitempty" validate:"omitempty,gte=0"`
}

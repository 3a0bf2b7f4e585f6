package models

import "time"

type City struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CityRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// Hub is a sorting/transfer facility belonging to exactly one city.
type Hub struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CityID    string    `json:"city_id" db:"city_id"`
	CityName  string    `json:"city_name,omitempty" db:"city_name"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CreateHubRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=100"`
	CityID  string  `json:"city_id" validate:"required,uuid"`
	Address *string `json:"address,omitempty"`
}

type UpdateHubRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	CityID  *string `json:"city_id,omitempty" validate:"omitempty,uuid"`
	Address *string `json:"address,omitempty"`
}

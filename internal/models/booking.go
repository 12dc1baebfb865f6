package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID              int64               `json:"id"`
	UserID          int64               `json:"user_id"`
	VehicleType     VehicleType         `json:"vehicle_type"`
	VehicleNumber   string              `json:"vehicle_number,omitempty"`
	VehicleModel    string              `json:"vehicle_model,omitempty"`
	ServiceCategory ServiceCategory     `json:"service_category"`
	ServiceType     ServiceType         `json:"service_type"`
	Slot            time.Time           `json:"slot"`
	Notes           string              `json:"notes"`
	Status          BookingStatus       `json:"status"`
	StaffID         string              `json:"staff_id,omitempty"`
	EstimatedCost   decimal.Decimal     `json:"estimated_cost"`
	ActualCost      decimal.NullDecimal `json:"actual_cost"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// BookingRequest carries the raw fields of a new booking.
type BookingRequest struct {
	UserID          int64     `json:"user_id,omitempty"`
	VehicleType     string    `json:"vehicle_type"`
	VehicleNumber   string    `json:"vehicle_number"`
	VehicleModel    string    `json:"vehicle_model"`
	ServiceCategory string    `json:"service_category"`
	ServiceType     string    `json:"service_type"`
	Slot            time.Time `json:"slot"`
	Notes           string    `json:"notes"`
}

type BookingFilter struct {
	UserID int64
	Status BookingStatus
	Limit  int
}

// BookingOutcome is a created booking plus optional advisory enrichment.
type BookingOutcome struct {
	Booking  *Booking `json:"booking"`
	Advice   string   `json:"advice,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

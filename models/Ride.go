package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RideKindOffer   = "offer"   // driver offering seats
	RideKindRequest = "request" // passenger looking for a driver
)

const (
	RideStatusRequested = "requested"
	RideStatusOpen      = "open"
	RideStatusFull      = "full"
	RideStatusCancelled = "cancelled"
	RideStatusCompleted = "completed"
)

// RideStatuses lists every valid ride status.
var RideStatuses = []string{
	RideStatusRequested,
	RideStatusOpen,
	RideStatusFull,
	RideStatusCancelled,
	RideStatusCompleted,
}

type Ride struct {
	gorm.Model
	DriverID uint   `json:"driverID" gorm:"index"`
	Kind     string `json:"kind" gorm:"type:varchar(10);default:offer"` // offer, request

	// Human-readable labels for the UI
	OriginLabel      string `json:"originLabel"`
	DestinationLabel string `json:"destinationLabel"`

	// Geographic points (WGS84). Zero values mean "not geocoded yet".
	OriginLat      float64 `json:"originLat" gorm:"index"`
	OriginLng      float64 `json:"originLng" gorm:"index"`
	DestinationLat float64 `json:"destinationLat" gorm:"index"`
	DestinationLng float64 `json:"destinationLng" gorm:"index"`

	DepartureTime time.Time `json:"departureTime" gorm:"index"`

	SeatsTotal     int     `json:"seatsTotal"`
	SeatsAvailable int     `json:"seatsAvailable"`
	PriceShare     float64 `json:"priceShare"`

	Status string `json:"status" gorm:"type:varchar(20);default:open;index"`

	// Vehicle descriptor, only meaningful for offers
	VehicleMake  string `json:"vehicleMake"`
	VehicleModel string `json:"vehicleModel"`
	VehicleColor string `json:"vehicleColor"`
	VehicleYear  int    `json:"vehicleYear"`

	Notes string `json:"notes" gorm:"type:varchar(500)"`

	Driver   User      `json:"driver" gorm:"foreignKey:DriverID;references:ID"`
	Bookings []Booking `json:"bookings,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// IsTerminal reports whether the ride accepts no further transitions.
func (r *Ride) IsTerminal() bool {
	return r.Status == RideStatusCancelled || r.Status == RideStatusCompleted
}

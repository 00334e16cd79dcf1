package models

import "gorm.io/gorm"

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// BookingStatuses lists every valid booking status.
var BookingStatuses = []string{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

// ActiveBookingStatuses are the statuses that hold seats on a ride.
var ActiveBookingStatuses = []string{
	BookingStatusPending,
	BookingStatusConfirmed,
}

type Booking struct {
	gorm.Model
	RideID      uint `json:"rideID" gorm:"index"`
	PassengerID uint `json:"passengerID" gorm:"index"`

	SeatsReserved int `json:"seatsReserved"`

	// Computed once at creation as seatsReserved * ride.priceShare.
	// Not recomputed if the ride price later changes.
	AmountPaid float64 `json:"amountPaid"`

	Status string `json:"status" gorm:"type:varchar(20);default:pending;index"`

	Ride      Ride `json:"ride,omitempty" gorm:"foreignKey:RideID;references:ID"`
	Passenger User `json:"passenger,omitempty" gorm:"foreignKey:PassengerID;references:ID"`
}

// IsActive reports whether the booking currently holds seats.
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

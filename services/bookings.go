package services

import (
	"errors"
	"fmt"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/storage"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

const (
	MinSeatsPerBooking = 1
	MaxSeatsPerBooking = 10
)

// CreateBooking claims seats on a ride for a passenger. The seat check, the
// booking insert and the seat reconciliation run in one transaction with the
// ride row locked, so two passengers cannot both win the last seat.
func CreateBooking(passengerID, rideID uint, seatsReserved int) (*models.Booking, error) {
	if seatsReserved < MinSeatsPerBooking || seatsReserved > MaxSeatsPerBooking {
		return nil, ValidationError(fmt.Sprintf("seatsReserved must be between %d and %d", MinSeatsPerBooking, MaxSeatsPerBooking))
	}

	var booking models.Booking
	err := withTxRetry(func() error {
		return storage.DB.Transaction(func(tx *gorm.DB) error {
			var ride models.Ride
			if err := lockRide(tx, rideID, &ride); err != nil {
				return err
			}

			if ride.DriverID == passengerID {
				return PermissionError("cannot book own ride")
			}
			if ride.IsTerminal() {
				return InvalidStateError(fmt.Sprintf("cannot book a %s ride", ride.Status))
			}

			var active int64
			err := tx.Model(&models.Booking{}).
				Where("ride_id = ? AND passenger_id = ? AND status IN ?", rideID, passengerID, models.ActiveBookingStatuses).
				Count(&active).Error
			if err != nil {
				return err
			}
			if active > 0 {
				return ConflictError("you already have an active booking for this ride")
			}

			if seatsReserved > ride.SeatsAvailable {
				return ValidationError(fmt.Sprintf("not enough seats available: requested %d, available %d", seatsReserved, ride.SeatsAvailable))
			}

			booking = models.Booking{
				RideID:        ride.ID,
				PassengerID:   passengerID,
				SeatsReserved: seatsReserved,
				AmountPaid:    float64(seatsReserved) * ride.PriceShare,
				Status:        models.BookingStatusPending,
			}
			if err := tx.Create(&booking).Error; err != nil {
				return err
			}

			return ReconcileSeats(tx, &ride)
		})
	})
	if err != nil {
		return nil, err
	}

	storage.DB.Preload("Ride").Preload("Ride.Driver").Preload("Passenger").First(&booking, booking.ID)
	return &booking, nil
}

// SetBookingStatus applies a role-gated status transition. Only the ride's
// driver may confirm or complete; either side may cancel. Cancelling an
// active booking returns its seats to the ride.
func SetBookingStatus(bookingID uint, target string, actorID uint) (*models.Booking, error) {
	if !slices.Contains(models.BookingStatuses, target) {
		return nil, ValidationError(fmt.Sprintf("unknown booking status %q", target))
	}
	if target == models.BookingStatusPending {
		return nil, InvalidStateError("cannot set status back to pending")
	}

	var booking models.Booking
	err := withTxRetry(func() error {
		return storage.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&booking, bookingID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NotFoundError("booking not found")
				}
				return err
			}

			var ride models.Ride
			if err := lockRide(tx, booking.RideID, &ride); err != nil {
				return err
			}

			// Re-read under the ride lock: a racing transition on the same
			// booking may have committed between the first load and the lock.
			if err := tx.First(&booking, bookingID).Error; err != nil {
				return err
			}

			isDriver := ride.DriverID == actorID
			isPassenger := booking.PassengerID == actorID
			if !isDriver && !isPassenger {
				return PermissionError("you can only update your own bookings or bookings for your rides")
			}

			if !CanTransitionBooking(booking.Status, target) {
				return InvalidStateError(fmt.Sprintf("cannot change a %s booking to %s", booking.Status, target))
			}

			if (target == models.BookingStatusConfirmed || target == models.BookingStatusCompleted) && !isDriver {
				return PermissionError(fmt.Sprintf("only the driver can mark bookings as %s", target))
			}

			wasActive := booking.IsActive()
			booking.Status = target
			if err := tx.Save(&booking).Error; err != nil {
				return err
			}

			if target == models.BookingStatusCancelled && wasActive {
				return ReconcileSeats(tx, &ride)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	storage.DB.Preload("Ride").Preload("Ride.Driver").Preload("Passenger").First(&booking, booking.ID)
	return &booking, nil
}

// CancelBooking is the DELETE-endpoint wrapper around cancellation. The
// transition table already rejects cancelling a completed or an already
// cancelled booking.
func CancelBooking(bookingID, actorID uint) (*models.Booking, error) {
	return SetBookingStatus(bookingID, models.BookingStatusCancelled, actorID)
}

// BookingStats aggregates a user's bookings by status plus the money flows:
// spent as a passenger and earned as a driver, both counting completed
// bookings only.
type BookingStats struct {
	TotalBookings     int     `json:"totalBookings"`
	PendingBookings   int     `json:"pendingBookings"`
	ConfirmedBookings int     `json:"confirmedBookings"`
	CompletedBookings int     `json:"completedBookings"`
	CancelledBookings int     `json:"cancelledBookings"`
	TotalSpent        float64 `json:"totalSpent"`
	TotalEarned       float64 `json:"totalEarned"`
}

// GetBookingStats is a pure read, no side effects.
func GetBookingStats(userID uint) (*BookingStats, error) {
	type statusRow struct {
		Status string
		Count  int
		Amount float64
	}

	var rows []statusRow
	err := storage.DB.Model(&models.Booking{}).
		Select("status, COUNT(id) AS count, COALESCE(SUM(amount_paid), 0) AS amount").
		Where("passenger_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &BookingStats{}
	for _, row := range rows {
		stats.TotalBookings += row.Count
		switch row.Status {
		case models.BookingStatusPending:
			stats.PendingBookings = row.Count
		case models.BookingStatusConfirmed:
			stats.ConfirmedBookings = row.Count
		case models.BookingStatusCompleted:
			stats.CompletedBookings = row.Count
			stats.TotalSpent += row.Amount
		case models.BookingStatusCancelled:
			stats.CancelledBookings = row.Count
		}
	}

	err = storage.DB.Model(&models.Booking{}).
		Joins("JOIN rides ON rides.id = bookings.ride_id").
		Where("rides.driver_id = ? AND bookings.status = ?", userID, models.BookingStatusCompleted).
		Select("COALESCE(SUM(bookings.amount_paid), 0)").
		Scan(&stats.TotalEarned).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

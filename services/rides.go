package services

import (
	"fmt"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/storage"

	"gorm.io/gorm"
)

// SetRideStatus applies a manual ride transition. Only cancelled and
// completed may be set by the owner; open, full and requested are
// system-managed by the reconciler. Completing or cancelling a ride carries
// every active booking along to the same terminal status.
func SetRideStatus(rideID uint, target string, actorID uint) (*models.Ride, error) {
	if target != models.RideStatusCancelled && target != models.RideStatusCompleted {
		return nil, ValidationError("status can only be set to cancelled or completed")
	}

	var ride models.Ride
	var passengerIDs []uint
	err := withTxRetry(func() error {
		return storage.DB.Transaction(func(tx *gorm.DB) error {
			if err := lockRide(tx, rideID, &ride); err != nil {
				return err
			}
			if ride.DriverID != actorID {
				return PermissionError("you can only update your own rides")
			}
			if ride.IsTerminal() {
				return InvalidStateError(fmt.Sprintf("ride is already %s", ride.Status))
			}

			// Capture who is affected before the cascade rewrites statuses;
			// once everything is cancelled the active set is gone.
			passengerIDs = passengerIDs[:0]
			err := tx.Model(&models.Booking{}).
				Where("ride_id = ? AND status IN ?", ride.ID, models.ActiveBookingStatuses).
				Pluck("passenger_id", &passengerIDs).Error
			if err != nil {
				return err
			}

			err = tx.Model(&models.Booking{}).
				Where("ride_id = ? AND status IN ?", ride.ID, models.ActiveBookingStatuses).
				Update("status", target).Error
			if err != nil {
				return err
			}

			ride.Status = target
			return tx.Save(&ride).Error
		})
	})
	if err != nil {
		return nil, err
	}

	storage.DB.Preload("Driver").First(&ride, ride.ID)

	if target == models.RideStatusCancelled && len(passengerIDs) > 0 {
		cancelled := ride
		go NotificationServiceInstance.SendRideCancelledNotificationToPassengers(&cancelled, passengerIDs)
	}

	return &ride, nil
}

// DeleteRide removes a bookingless ride outright. A ride that has bookings is
// soft-retired through cancellation instead, preserving booking history for
// refunds and audits. With hard=true a booked ride is refused rather than
// cancelled.
func DeleteRide(rideID, actorID uint, hard bool) (cancelled bool, err error) {
	var ride models.Ride
	var passengerIDs []uint
	err = withTxRetry(func() error {
		return storage.DB.Transaction(func(tx *gorm.DB) error {
			if err := lockRide(tx, rideID, &ride); err != nil {
				return err
			}
			if ride.DriverID != actorID {
				return PermissionError("you can only delete your own rides")
			}

			var bookings int64
			if err := tx.Model(&models.Booking{}).Where("ride_id = ?", ride.ID).Count(&bookings).Error; err != nil {
				return err
			}

			if bookings == 0 {
				cancelled = false
				return tx.Delete(&ride).Error
			}

			if hard {
				return ConflictError("ride has bookings and cannot be deleted, cancel it instead")
			}
			if ride.IsTerminal() {
				return InvalidStateError(fmt.Sprintf("ride is already %s", ride.Status))
			}

			passengerIDs = passengerIDs[:0]
			err := tx.Model(&models.Booking{}).
				Where("ride_id = ? AND status IN ?", ride.ID, models.ActiveBookingStatuses).
				Pluck("passenger_id", &passengerIDs).Error
			if err != nil {
				return err
			}

			err = tx.Model(&models.Booking{}).
				Where("ride_id = ? AND status IN ?", ride.ID, models.ActiveBookingStatuses).
				Update("status", models.BookingStatusCancelled).Error
			if err != nil {
				return err
			}

			cancelled = true
			ride.Status = models.RideStatusCancelled
			return tx.Save(&ride).Error
		})
	})
	if err != nil {
		return false, err
	}

	if cancelled && len(passengerIDs) > 0 {
		off := ride
		go NotificationServiceInstance.SendRideCancelledNotificationToPassengers(&off, passengerIDs)
	}

	return cancelled, nil
}

// AdjustSeatsTotal changes a ride's capacity, keeping already-booked seats
// intact: the new availability is newTotal minus the seats currently held.
// Shrinking capacity below the booked seat count is rejected.
func AdjustSeatsTotal(tx *gorm.DB, ride *models.Ride, newTotal int) error {
	if newTotal < 1 || newTotal > MaxSeatsPerBooking {
		return ValidationError(fmt.Sprintf("seatsTotal must be between 1 and %d", MaxSeatsPerBooking))
	}

	booked := ride.SeatsTotal - ride.SeatsAvailable
	if newTotal-booked < 0 {
		return ValidationError("cannot reduce total seats below number of booked seats")
	}

	ride.SeatsTotal = newTotal
	ride.SeatsAvailable = newTotal - booked
	ride.Status = NextRideStatus(ride.Status, ride.Kind, ride.SeatsAvailable, booked)
	return nil
}

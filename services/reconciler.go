package services

import (
	"errors"
	"strings"

	"github.com/butcherthacker/FareShare/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var txRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fareshare",
	Name:      "seat_tx_retries_total",
	Help:      "Booking transactions retried after a serialization conflict",
})

// Every seat-count mutation funnels through ReconcileSeats inside the same
// transaction as the booking write that triggered it, so Ride.SeatsAvailable
// and the booking rows can never drift apart.

const maxTxRetries = 3

// bookingTransitions maps a booking status to the statuses it may move to.
// Terminal statuses map to nothing.
var bookingTransitions = map[string][]string{
	models.BookingStatusPending:   {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed: {models.BookingStatusCompleted, models.BookingStatusCancelled},
	models.BookingStatusCompleted: {},
	models.BookingStatusCancelled: {},
}

// CanTransitionBooking reports whether a booking may move from one status to
// another.
func CanTransitionBooking(from, to string) bool {
	return slices.Contains(bookingTransitions[from], to)
}

// SumActiveSeats totals the seats held by pending and confirmed bookings.
func SumActiveSeats(bookings []models.Booking) int {
	total := 0
	for _, b := range bookings {
		if b.IsActive() {
			total += b.SeatsReserved
		}
	}
	return total
}

// NextRideStatus computes the system-managed status of a ride from its seat
// availability. Terminal statuses are preserved. A passenger request with no
// active bookings goes back to "requested"; anything else with free seats is
// "open".
func NextRideStatus(current, kind string, seatsAvailable, activeSeats int) string {
	if current == models.RideStatusCancelled || current == models.RideStatusCompleted {
		return current
	}
	if seatsAvailable <= 0 {
		return models.RideStatusFull
	}
	if kind == models.RideKindRequest && activeSeats == 0 {
		return models.RideStatusRequested
	}
	return models.RideStatusOpen
}

// ReconcileSeats recomputes ride.SeatsAvailable and ride.Status from the
// ride's active bookings and persists the ride. Must run in the same
// transaction as the booking write that triggered it. No-op on terminal rides.
func ReconcileSeats(tx *gorm.DB, ride *models.Ride) error {
	if ride.IsTerminal() {
		return nil
	}

	var activeSeats int64
	err := tx.Model(&models.Booking{}).
		Where("ride_id = ? AND status IN ?", ride.ID, models.ActiveBookingStatuses).
		Select("COALESCE(SUM(seats_reserved), 0)").
		Scan(&activeSeats).Error
	if err != nil {
		return err
	}

	ride.SeatsAvailable = ride.SeatsTotal - int(activeSeats)
	ride.Status = NextRideStatus(ride.Status, ride.Kind, ride.SeatsAvailable, int(activeSeats))

	return tx.Save(ride).Error
}

// lockRide loads a ride with a row-level lock so concurrent bookings against
// the same ride serialize at the seat check. SQLite has no SELECT FOR UPDATE;
// its writes serialize on the database lock instead.
func lockRide(tx *gorm.DB, rideID uint, ride *models.Ride) error {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(ride, rideID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError("ride not found")
	}
	return err
}

// isSerializationFailure detects Postgres serialization and deadlock errors
// that are safe to retry.
func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "40P01") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "deadlock detected")
}

// withTxRetry runs fn, retrying a bounded number of times on serialization
// conflicts before surfacing a conflict error. Business errors pass through
// untouched.
func withTxRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = fn()
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		txRetriesTotal.Inc()
	}
	return ConflictError("the ride was modified concurrently, please retry")
}

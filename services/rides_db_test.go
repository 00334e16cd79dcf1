package services

import (
	"errors"
	"testing"
	"time"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/storage"
)

func waitForNotification(t *testing.T, userID uint, nType string) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var n int64
		storage.DB.Model(&models.Notification{}).
			Where("user_id = ? AND type = ?", userID, nType).
			Count(&n)
		if n > 0 {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestSetRideStatusCancelNotifiesOnlyActivePassengers(t *testing.T) {
	setupSeatTestDB(t)
	driver := seedUser(t, "driver@example.com")
	early := seedUser(t, "early@example.com")
	late := seedUser(t, "late@example.com")
	ride := seedRide(t, driver.ID, 4)

	// The first passenger books and then backs out on their own.
	earlyBooking, err := CreateBooking(early.ID, ride.ID, 1)
	if err != nil {
		t.Fatalf("create early booking: %v", err)
	}
	if _, err := CancelBooking(earlyBooking.ID, early.ID); err != nil {
		t.Fatalf("cancel early booking: %v", err)
	}

	if _, err := CreateBooking(late.ID, ride.ID, 2); err != nil {
		t.Fatalf("create late booking: %v", err)
	}

	if _, err := SetRideStatus(ride.ID, models.RideStatusCancelled, driver.ID); err != nil {
		t.Fatalf("cancel ride: %v", err)
	}

	if !waitForNotification(t, late.ID, "ride_cancelled") {
		t.Fatal("active passenger never got a ride_cancelled notification")
	}
	time.Sleep(50 * time.Millisecond)

	var n int64
	storage.DB.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", early.ID, "ride_cancelled").
		Count(&n)
	if n != 0 {
		t.Fatalf("passenger who self-cancelled earlier got %d ride_cancelled notifications, want 0", n)
	}

	var lateBooking models.Booking
	if err := storage.DB.Where("passenger_id = ?", late.ID).First(&lateBooking).Error; err != nil {
		t.Fatalf("reload late booking: %v", err)
	}
	if lateBooking.Status != models.BookingStatusCancelled {
		t.Fatalf("active booking status = %q after ride cancel, want cancelled", lateBooking.Status)
	}
}

func TestDeleteRideWithBookingsSoftCancels(t *testing.T) {
	setupSeatTestDB(t)
	driver := seedUser(t, "driver@example.com")
	passenger := seedUser(t, "passenger@example.com")
	ride := seedRide(t, driver.ID, 3)

	if _, err := CreateBooking(passenger.ID, ride.ID, 1); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	// hard=true on a booked ride is refused.
	_, err := DeleteRide(ride.ID, driver.ID, true)
	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Kind != KindConflict {
		t.Fatalf("hard delete of a booked ride: got %v, want conflict", err)
	}

	cancelled, err := DeleteRide(ride.ID, driver.ID, false)
	if err != nil {
		t.Fatalf("delete booked ride: %v", err)
	}
	if !cancelled {
		t.Fatal("expected a booked ride to be cancelled rather than deleted")
	}

	got := reloadRide(t, ride.ID)
	if got.Status != models.RideStatusCancelled {
		t.Fatalf("ride status = %q, want cancelled", got.Status)
	}

	if !waitForNotification(t, passenger.ID, "ride_cancelled") {
		t.Fatal("passenger never got a ride_cancelled notification")
	}
}

func TestDeleteRideWithoutBookingsHardDeletes(t *testing.T) {
	setupSeatTestDB(t)
	driver := seedUser(t, "driver@example.com")
	ride := seedRide(t, driver.ID, 3)

	cancelled, err := DeleteRide(ride.ID, driver.ID, false)
	if err != nil {
		t.Fatalf("delete ride: %v", err)
	}
	if cancelled {
		t.Fatal("bookingless ride should be deleted, not cancelled")
	}

	var count int64
	storage.DB.Model(&models.Ride{}).Where("id = ?", ride.ID).Count(&count)
	if count != 0 {
		t.Fatalf("ride still visible after delete")
	}
}

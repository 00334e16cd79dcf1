package services

import (
	"errors"
	"testing"
	"time"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/storage"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// setupSeatTestDB points storage.DB at an in-memory SQLite database for the
// duration of one test.
func setupSeatTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Ride{},
		&models.Booking{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	storage.DB = db
	t.Cleanup(func() {
		storage.DB = nil
		sqlDB.Close()
	})
}

func seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := models.User{FirstName: "Test", LastName: "User", Email: email}
	if err := storage.DB.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func seedRide(t *testing.T, driverID uint, seats int) *models.Ride {
	t.Helper()
	ride := models.Ride{
		DriverID:         driverID,
		Kind:             models.RideKindOffer,
		OriginLabel:      "Gare de Lyon, Paris",
		DestinationLabel: "Part-Dieu, Lyon",
		DepartureTime:    time.Now().Add(48 * time.Hour),
		SeatsTotal:       seats,
		SeatsAvailable:   seats,
		PriceShare:       20,
		Status:           models.RideStatusOpen,
	}
	if err := storage.DB.Create(&ride).Error; err != nil {
		t.Fatalf("seed ride: %v", err)
	}
	return &ride
}

func reloadRide(t *testing.T, id uint) *models.Ride {
	t.Helper()
	var ride models.Ride
	if err := storage.DB.First(&ride, id).Error; err != nil {
		t.Fatalf("reload ride: %v", err)
	}
	return &ride
}

func TestCancelBookingRestoresSeats(t *testing.T) {
	setupSeatTestDB(t)
	driver := seedUser(t, "driver@example.com")
	passenger := seedUser(t, "passenger@example.com")
	ride := seedRide(t, driver.ID, 3)

	booking, err := CreateBooking(passenger.ID, ride.ID, 2)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	got := reloadRide(t, ride.ID)
	if got.SeatsAvailable != 1 {
		t.Fatalf("after booking 2 of 3 seats, seatsAvailable = %d, want 1", got.SeatsAvailable)
	}
	if got.Status != models.RideStatusOpen {
		t.Fatalf("after partial booking, status = %q, want open", got.Status)
	}

	if _, err := CancelBooking(booking.ID, passenger.ID); err != nil {
		t.Fatalf("cancel booking: %v", err)
	}

	got = reloadRide(t, ride.ID)
	if got.SeatsAvailable != 3 {
		t.Fatalf("after cancel, seatsAvailable = %d, want 3", got.SeatsAvailable)
	}
	if got.Status != models.RideStatusOpen {
		t.Fatalf("after cancel, status = %q, want open", got.Status)
	}
}

func TestLastSeatBookingFlipsRideFull(t *testing.T) {
	setupSeatTestDB(t)
	driver := seedUser(t, "driver@example.com")
	passenger := seedUser(t, "passenger@example.com")
	ride := seedRide(t, driver.ID, 2)

	booking, err := CreateBooking(passenger.ID, ride.ID, 2)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	got := reloadRide(t, ride.ID)
	if got.SeatsAvailable != 0 {
		t.Fatalf("after booking every seat, seatsAvailable = %d, want 0", got.SeatsAvailable)
	}
	if got.Status != models.RideStatusFull {
		t.Fatalf("after booking every seat, status = %q, want full", got.Status)
	}

	// A second passenger cannot book a full ride.
	other := seedUser(t, "other@example.com")
	if _, err := CreateBooking(other.ID, ride.ID, 1); err == nil {
		t.Fatal("expected booking on a full ride to fail")
	}

	if _, err := CancelBooking(booking.ID, passenger.ID); err != nil {
		t.Fatalf("cancel booking: %v", err)
	}

	got = reloadRide(t, ride.ID)
	if got.SeatsAvailable != 2 || got.Status != models.RideStatusOpen {
		t.Fatalf("after cancel, ride = %d seats / %q, want 2 seats / open", got.SeatsAvailable, got.Status)
	}
}

func TestSetBookingStatusRejectsConfirmAfterCancel(t *testing.T) {
	setupSeatTestDB(t)
	driver := seedUser(t, "driver@example.com")
	passenger := seedUser(t, "passenger@example.com")
	ride := seedRide(t, driver.ID, 3)

	booking, err := CreateBooking(passenger.ID, ride.ID, 2)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if _, err := CancelBooking(booking.ID, passenger.ID); err != nil {
		t.Fatalf("cancel booking: %v", err)
	}

	// The driver's confirm must observe the committed cancellation and be
	// rejected; a cancelled booking is terminal.
	_, err = SetBookingStatus(booking.ID, models.BookingStatusConfirmed, driver.ID)
	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Kind != KindInvalidState {
		t.Fatalf("confirming a cancelled booking: got %v, want invalid_state", err)
	}

	var got models.Booking
	if err := storage.DB.First(&got, booking.ID).Error; err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	if got.Status != models.BookingStatusCancelled {
		t.Fatalf("booking status = %q, want cancelled to stay terminal", got.Status)
	}

	gotRide := reloadRide(t, ride.ID)
	if gotRide.SeatsAvailable != 3 {
		t.Fatalf("seatsAvailable = %d, want 3 after the failed confirm", gotRide.SeatsAvailable)
	}
}

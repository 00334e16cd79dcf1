package services

import (
	"testing"

	"github.com/butcherthacker/FareShare/models"
)

// These cover the argument checks that run before any database work.

func TestCreateBookingSeatRange(t *testing.T) {
	for _, seats := range []int{0, -1, 11, 100} {
		_, err := CreateBooking(1, 1, seats)
		svcErr, ok := err.(*Error)
		if !ok || svcErr.Kind != KindValidation {
			t.Errorf("CreateBooking with %d seats: expected validation error, got %v", seats, err)
		}
	}
}

func TestSetBookingStatusUnknownTarget(t *testing.T) {
	_, err := SetBookingStatus(1, "expired", 1)
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Kind != KindValidation {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestSetBookingStatusBackToPending(t *testing.T) {
	_, err := SetBookingStatus(1, models.BookingStatusPending, 1)
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Kind != KindInvalidState {
		t.Fatalf("expected invalid state error, got %v", err)
	}
}

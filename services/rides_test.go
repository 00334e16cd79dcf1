package services

import (
	"testing"

	"github.com/butcherthacker/FareShare/models"
)

func TestAdjustSeatsTotal(t *testing.T) {
	ride := &models.Ride{
		Kind:           models.RideKindOffer,
		Status:         models.RideStatusOpen,
		SeatsTotal:     4,
		SeatsAvailable: 2, // 2 seats booked
	}

	if err := AdjustSeatsTotal(nil, ride, 6); err != nil {
		t.Fatalf("expected growth to succeed, got %v", err)
	}
	if ride.SeatsTotal != 6 || ride.SeatsAvailable != 4 {
		t.Errorf("got total=%d available=%d, want 6/4", ride.SeatsTotal, ride.SeatsAvailable)
	}
	if ride.Status != models.RideStatusOpen {
		t.Errorf("status = %q, want open", ride.Status)
	}
}

func TestAdjustSeatsTotalShrinkToBooked(t *testing.T) {
	ride := &models.Ride{
		Kind:           models.RideKindOffer,
		Status:         models.RideStatusOpen,
		SeatsTotal:     4,
		SeatsAvailable: 2,
	}

	if err := AdjustSeatsTotal(nil, ride, 2); err != nil {
		t.Fatalf("shrinking to exactly the booked count should succeed, got %v", err)
	}
	if ride.SeatsAvailable != 0 {
		t.Errorf("available = %d, want 0", ride.SeatsAvailable)
	}
	if ride.Status != models.RideStatusFull {
		t.Errorf("status = %q, want full", ride.Status)
	}
}

func TestAdjustSeatsTotalBelowBooked(t *testing.T) {
	ride := &models.Ride{
		Kind:           models.RideKindOffer,
		Status:         models.RideStatusOpen,
		SeatsTotal:     4,
		SeatsAvailable: 1, // 3 booked
	}

	err := AdjustSeatsTotal(nil, ride, 2)
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Kind != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ride.SeatsTotal != 4 {
		t.Errorf("failed adjustment must not mutate the ride, total = %d", ride.SeatsTotal)
	}
}

func TestAdjustSeatsTotalRange(t *testing.T) {
	ride := &models.Ride{Kind: models.RideKindOffer, Status: models.RideStatusOpen, SeatsTotal: 2, SeatsAvailable: 2}

	for _, bad := range []int{0, -1, 11} {
		if err := AdjustSeatsTotal(nil, ride, bad); err == nil {
			t.Errorf("AdjustSeatsTotal(%d) should fail", bad)
		}
	}
}

package routes

import (
	"sort"
	"time"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/storage"
	"github.com/butcherthacker/FareShare/utils"

	"github.com/kataras/iris/v12"
)

// TripEntry is one row of a user's trip history. Booking fields are only set
// when the user rode as a passenger.
type TripEntry struct {
	RideID           uint      `json:"rideID"`
	Role             string    `json:"role"` // driver, passenger
	OriginLabel      string    `json:"originLabel"`
	DestinationLabel string    `json:"destinationLabel"`
	DepartureTime    time.Time `json:"departureTime"`
	RideStatus       string    `json:"rideStatus"`
	PriceShare       float64   `json:"priceShare"`

	BookingID     uint    `json:"bookingID,omitempty"`
	BookingStatus string  `json:"bookingStatus,omitempty"`
	SeatsReserved int     `json:"seatsReserved,omitempty"`
	AmountPaid    float64 `json:"amountPaid,omitempty"`
}

// GetTripHistory returns every trip the caller was part of, as driver or
// passenger, newest departure first.
func GetTripHistory(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var rides []models.Ride
	if err := storage.DB.Where("driver_id = ?", userID).Find(&rides).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var bookings []models.Booking
	err := storage.DB.Preload("Ride").Where("passenger_id = ?", userID).Find(&bookings).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	trips := make([]TripEntry, 0, len(rides)+len(bookings))
	for _, ride := range rides {
		trips = append(trips, TripEntry{
			RideID:           ride.ID,
			Role:             "driver",
			OriginLabel:      ride.OriginLabel,
			DestinationLabel: ride.DestinationLabel,
			DepartureTime:    ride.DepartureTime,
			RideStatus:       ride.Status,
			PriceShare:       ride.PriceShare,
		})
	}
	for _, booking := range bookings {
		trips = append(trips, TripEntry{
			RideID:           booking.RideID,
			Role:             "passenger",
			OriginLabel:      booking.Ride.OriginLabel,
			DestinationLabel: booking.Ride.DestinationLabel,
			DepartureTime:    booking.Ride.DepartureTime,
			RideStatus:       booking.Ride.Status,
			PriceShare:       booking.Ride.PriceShare,
			BookingID:        booking.ID,
			BookingStatus:    booking.Status,
			SeatsReserved:    booking.SeatsReserved,
			AmountPaid:       booking.AmountPaid,
		})
	}

	sort.Slice(trips, func(i, j int) bool {
		return trips[i].DepartureTime.After(trips[j].DepartureTime)
	})

	ctx.JSON(iris.Map{"trips": trips})
}

// GetDriverSummary returns the caller's driver-side totals over completed
// bookings: trips driven, total earnings and the average per ride.
func GetDriverSummary(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	type summaryRow struct {
		TotalTrips    int64
		TotalEarnings float64
	}

	var row summaryRow
	err := storage.DB.Model(&models.Booking{}).
		Joins("JOIN rides ON rides.id = bookings.ride_id").
		Where("rides.driver_id = ? AND bookings.status = ?", userID, models.BookingStatusCompleted).
		Select("COUNT(DISTINCT rides.id) AS total_trips, COALESCE(SUM(bookings.amount_paid), 0) AS total_earnings").
		Scan(&row).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	avgPerRide := 0.0
	if row.TotalTrips > 0 {
		avgPerRide = row.TotalEarnings / float64(row.TotalTrips)
	}

	ctx.JSON(iris.Map{
		"totalTrips":    row.TotalTrips,
		"totalEarnings": row.TotalEarnings,
		"avgPerRide":    avgPerRide,
	})
}

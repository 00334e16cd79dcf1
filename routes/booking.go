package routes

import (
	"time"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/services"
	"github.com/butcherthacker/FareShare/storage"
	"github.com/butcherthacker/FareShare/utils"

	"github.com/kataras/iris/v12"
)

func CreateBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateBookingInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	booking, svcErr := services.CreateBooking(userID, input.RideID, input.SeatsReserved)
	if svcErr != nil {
		utils.HandleServiceError(svcErr, ctx)
		return
	}

	utils.BookingsCreatedTotal.Inc()
	go services.NotificationServiceInstance.SendBookingCreatedNotificationToDriver(booking, &booking.Ride, booking.Passenger.FullName())

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(booking)
}

// ListBookings returns the caller's bookings. With role=driver it instead
// returns bookings made against the caller's rides.
func ListBookings(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	role := ctx.URLParamDefault("role", "passenger")
	if role != "passenger" && role != "driver" && role != "both" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "role must be passenger, driver or both.", ctx)
		return
	}

	query := storage.DB.Model(&models.Booking{})
	switch role {
	case "driver":
		query = query.Joins("JOIN rides ON rides.id = bookings.ride_id").
			Where("rides.driver_id = ?", userID)
	case "both":
		query = query.Joins("JOIN rides ON rides.id = bookings.ride_id").
			Where("bookings.passenger_id = ? OR rides.driver_id = ?", userID, userID)
	default:
		query = query.Where("bookings.passenger_id = ?", userID)
	}

	if status := ctx.URLParam("status"); status != "" {
		query = query.Where("bookings.status = ?", status)
	}
	if rideID := ctx.URLParam("ride_id"); rideID != "" {
		query = query.Where("bookings.ride_id = ?", rideID)
	}
	if from := ctx.URLParam("created_after"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("bookings.created_at >= ?", t)
		}
	}
	if to := ctx.URLParam("created_before"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			query = query.Where("bookings.created_at <= ?", t)
		}
	}

	page := ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var bookings []models.Booking
	err := query.Preload("Ride").Preload("Ride.Driver").Preload("Passenger").
		Order("bookings.created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&bookings).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, bookings, page, perPage, total)
}

func GetBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	params := ctx.Params()
	id := params.Get("id")

	var booking models.Booking
	bookingExists := storage.DB.Preload("Ride").Preload("Ride.Driver").Preload("Passenger").
		Where("id = ?", id).Find(&booking)

	if bookingExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if bookingExists.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Booking not found", ctx)
		return
	}

	if booking.PassengerID != userID && booking.Ride.DriverID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You can only view your own bookings or bookings for your rides.", ctx)
		return
	}

	ctx.JSON(booking)
}

func UpdateBookingStatus(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input UpdateBookingStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	booking, svcErr := services.SetBookingStatus(id, input.Status, userID)
	if svcErr != nil {
		utils.HandleServiceError(svcErr, ctx)
		return
	}

	utils.BookingStatusTotal.WithLabelValues(booking.Status).Inc()
	go services.NotificationServiceInstance.SendBookingStatusNotificationToPassenger(booking, &booking.Ride)

	ctx.JSON(booking)
}

func CancelBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	booking, svcErr := services.CancelBooking(id, userID)
	if svcErr != nil {
		utils.HandleServiceError(svcErr, ctx)
		return
	}

	utils.BookingStatusTotal.WithLabelValues(booking.Status).Inc()
	go services.NotificationServiceInstance.SendBookingStatusNotificationToPassenger(booking, &booking.Ride)

	ctx.StatusCode(iris.StatusNoContent)
}

func GetBookingStats(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	stats, err := services.GetBookingStats(userID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(stats)
}

type CreateBookingInput struct {
	RideID        uint `json:"rideID" validate:"required"`
	SeatsReserved int  `json:"seatsReserved" validate:"required,min=1,max=10"`
}

type UpdateBookingStatusInput struct {
	Status string `json:"status" validate:"required"`
}

package routes

import (
	"errors"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/services"
	"github.com/butcherthacker/FareShare/storage"
	"github.com/butcherthacker/FareShare/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// SendMessage delivers a direct message between two users who share a ride,
// either as co-passengers or as driver and passenger. The shared-ride check
// keeps the mailbox closed to strangers.
func SendMessage(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input SendMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.RecipientID == userID {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "You cannot send messages to yourself.", ctx)
		return
	}

	var recipient models.User
	if err := storage.DB.First(&recipient, input.RecipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Not Found", "Recipient not found", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	shared, err := usersShareRide(userID, input.RecipientID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !shared {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You can only message users you share a ride with.", ctx)
		return
	}

	if input.RideID != nil {
		var ride models.Ride
		if err := storage.DB.First(&ride, *input.RideID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.CreateError(iris.StatusNotFound, "Not Found", "Ride not found", ctx)
				return
			}
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	message := models.Message{
		SenderID:    userID,
		RecipientID: input.RecipientID,
		Body:        input.Body,
		RideID:      input.RideID,
	}
	if err := storage.DB.Create(&message).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var sender models.User
	if err := storage.DB.First(&sender, userID).Error; err == nil {
		go services.NotificationServiceInstance.SendMessageNotificationToUser(recipient.ID, message.ID, sender.FullName())
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(message)
}

// ListMessages returns the conversation between the caller and another user,
// oldest first, with cursor pagination on the message ID.
func ListMessages(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	otherID, err := ctx.URLParamInt("with")
	if err != nil || otherID <= 0 {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "with must be a user ID.", ctx)
		return
	}

	limit := ctx.URLParamIntDefault("limit", 30)
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	cursor, _ := ctx.URLParamInt("cursor")

	q := storage.DB.
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}

	var messages []models.Message
	if err := q.Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	nextCursor := 0
	if len(messages) > 0 {
		nextCursor = int(messages[0].ID)
	}

	ctx.JSON(iris.Map{"messages": messages, "nextCursor": nextCursor})
}

// RideParticipants lists who the caller can message about a ride: the driver
// and every passenger holding a booking, minus the caller. Emails stay out of
// the payload.
func RideParticipants(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	rideID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var ride models.Ride
	if err := storage.DB.First(&ride, rideID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Not Found", "Ride not found", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	isDriver := ride.DriverID == userID
	if !isDriver {
		var booked int64
		err := storage.DB.Model(&models.Booking{}).
			Where("ride_id = ? AND passenger_id = ?", rideID, userID).
			Count(&booked).Error
		if err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		if booked == 0 {
			utils.CreateError(iris.StatusForbidden, "Forbidden", "You must be part of this ride to view its participants.", ctx)
			return
		}
	}

	participants := []iris.Map{}

	if !isDriver {
		var driver models.User
		if err := storage.DB.First(&driver, ride.DriverID).Error; err == nil {
			participants = append(participants, iris.Map{
				"id":   driver.ID,
				"name": driver.FullName(),
				"role": "driver",
			})
		}
	}

	var bookings []models.Booking
	err = storage.DB.Preload("Passenger").
		Where("ride_id = ? AND passenger_id != ?", rideID, userID).
		Find(&bookings).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	for _, booking := range bookings {
		participants = append(participants, iris.Map{
			"id":   booking.Passenger.ID,
			"name": booking.Passenger.FullName(),
			"role": "passenger",
		})
	}

	ctx.JSON(iris.Map{
		"rideID": ride.ID,
		"ride": iris.Map{
			"originLabel":      ride.OriginLabel,
			"destinationLabel": ride.DestinationLabel,
			"departureTime":    ride.DepartureTime,
		},
		"participants": participants,
	})
}

// usersShareRide reports whether two users were ever on the same ride,
// as co-passengers or as driver and passenger.
func usersShareRide(a, b uint) (bool, error) {
	var n int64
	err := storage.DB.Model(&models.Booking{}).
		Joins("JOIN bookings other_bookings ON other_bookings.ride_id = bookings.ride_id").
		Where("bookings.passenger_id = ? AND other_bookings.passenger_id = ?", a, b).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	err = storage.DB.Model(&models.Booking{}).
		Joins("JOIN rides ON rides.id = bookings.ride_id").
		Where("(rides.driver_id = ? AND bookings.passenger_id = ?) OR (rides.driver_id = ? AND bookings.passenger_id = ?)",
			a, b, b, a).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type SendMessageInput struct {
	RecipientID uint   `json:"recipientID" validate:"required"`
	Body        string `json:"body" validate:"required,min=1,max=500"`
	RideID      *uint  `json:"rideID"`
}

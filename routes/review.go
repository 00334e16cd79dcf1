package routes

import (
	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/storage"
	"github.com/butcherthacker/FareShare/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// CreateReview lets a ride participant rate another participant once the
// ride is completed. The target's rating aggregate is updated in the same
// transaction.
func CreateReview(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateReviewInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.TargetUserID == userID {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "You cannot review yourself.", ctx)
		return
	}

	var ride models.Ride
	rideExists := storage.DB.Where("id = ?", input.RideID).Find(&ride)
	if rideExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if rideExists.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Ride not found", ctx)
		return
	}

	if ride.Status != models.RideStatusCompleted {
		utils.CreateError(iris.StatusBadRequest, "Invalid State", "Reviews can only be left on completed rides.", ctx)
		return
	}

	if !rideParticipant(&ride, userID) || !rideParticipant(&ride, input.TargetUserID) {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Both reviewer and target must have taken part in the ride.", ctx)
		return
	}

	var existing int64
	storage.DB.Model(&models.Review{}).
		Where("ride_id = ? AND author_id = ? AND target_user_id = ?", input.RideID, userID, input.TargetUserID).
		Count(&existing)
	if existing > 0 {
		utils.CreateError(iris.StatusConflict, "Conflict", "You already reviewed this user for this ride.", ctx)
		return
	}

	review := models.Review{
		RideID:       input.RideID,
		AuthorID:     userID,
		TargetUserID: input.TargetUserID,
		Rating:       input.Rating,
		Comment:      input.Comment,
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		var target models.User
		if err := tx.First(&target, input.TargetUserID).Error; err != nil {
			return err
		}

		total := target.RatingAvg*float64(target.RatingCount) + float64(input.Rating)
		target.RatingCount++
		target.RatingAvg = total / float64(target.RatingCount)

		return tx.Model(&target).Updates(map[string]interface{}{
			"rating_avg":   target.RatingAvg,
			"rating_count": target.RatingCount,
		}).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(review)
}

func ListUserReviews(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	page := ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := storage.DB.Model(&models.Review{}).Where("target_user_id = ?", id)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var reviews []models.Review
	err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&reviews).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, reviews, page, perPage, total)
}

// rideParticipant reports whether a user is the driver or holds a non
// cancelled booking on the ride.
func rideParticipant(ride *models.Ride, userID uint) bool {
	if ride.DriverID == userID {
		return true
	}

	var count int64
	storage.DB.Model(&models.Booking{}).
		Where("ride_id = ? AND passenger_id = ? AND status <> ?", ride.ID, userID, models.BookingStatusCancelled).
		Count(&count)
	return count > 0
}

type CreateReviewInput struct {
	RideID       uint   `json:"rideID" validate:"required"`
	TargetUserID uint   `json:"targetUserID" validate:"required"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Comment      string `json:"comment" validate:"max=1000"`
}

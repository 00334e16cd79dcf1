package routes

import (
	"errors"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/storage"
	"github.com/butcherthacker/FareShare/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

// CreateIncident files a safety report about the other party of a booking.
// The booking must be confirmed or completed; a pending or cancelled booking
// never put the two users in a car together.
func CreateIncident(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateIncidentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.ReportedUserID == userID {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "You cannot report yourself.", ctx)
		return
	}

	var ride models.Ride
	if err := storage.DB.First(&ride, input.RideID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Not Found", "Ride not found", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	var booking models.Booking
	err := storage.DB.Where("id = ? AND ride_id = ?", input.BookingID, input.RideID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Not Found", "Booking not found", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	if booking.Status != models.BookingStatusConfirmed && booking.Status != models.BookingStatusCompleted {
		utils.CreateError(iris.StatusBadRequest, "Invalid State", "Incidents can only be reported for confirmed or completed bookings.", ctx)
		return
	}

	if ride.DriverID != userID && booking.PassengerID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You are not part of this booking.", ctx)
		return
	}

	// The reported user has to be the other side of the booking.
	if ride.DriverID == userID {
		if booking.PassengerID != input.ReportedUserID {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Reported user is not the passenger on this booking.", ctx)
			return
		}
	} else if ride.DriverID != input.ReportedUserID {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Reported user is not the driver of this ride.", ctx)
		return
	}

	incident := models.Incident{
		ReporterID:     userID,
		ReportedUserID: input.ReportedUserID,
		RideID:         input.RideID,
		BookingID:      input.BookingID,
		Category:       input.Category,
		Description:    input.Description,
		Status:         models.IncidentStatusOpen,
	}
	if err := storage.DB.Create(&incident).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.DB.Preload("Reporter").Preload("ReportedUser").Preload("Ride").First(&incident, incident.ID)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(incident)
}

// ListIncidents returns incidents the caller is involved in, on either side.
func ListIncidents(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	query := storage.DB.Model(&models.Incident{}).
		Where("reporter_id = ? OR reported_user_id = ?", userID, userID)
	if status := ctx.URLParam("status"); status != "" {
		query = query.Where("status = ?", status)
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

	var incidents []models.Incident
	err := query.Preload("Reporter").Preload("ReportedUser").Preload("Ride").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&incidents).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, incidents, page, perPage, total)
}

func GetIncident(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	incident := getIncidentByID(id, ctx)
	if incident == nil {
		return
	}

	if incident.ReporterID != userID && incident.ReportedUserID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You do not have permission to view this incident.", ctx)
		return
	}

	ctx.JSON(incident)
}

// CreateIncidentComment adds a follow-up to an incident. Involved users can
// comment while the incident is open or reviewed; admins can always comment.
func CreateIncidentComment(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input CreateIncidentCommentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	incident, isAdmin := authorizeIncidentAccess(id, userID, ctx)
	if incident == nil {
		return
	}

	if incident.IsTerminal() && !isAdmin {
		utils.CreateError(iris.StatusBadRequest, "Invalid State", "Only admins can comment on a closed incident.", ctx)
		return
	}

	comment := models.IncidentComment{
		IncidentID: incident.ID,
		AuthorID:   userID,
		Body:       input.Body,
		IsAdmin:    isAdmin,
	}
	if err := storage.DB.Create(&comment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.DB.Preload("Author").First(&comment, comment.ID)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(comment)
}

func ListIncidentComments(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	incident, _ := authorizeIncidentAccess(id, userID, ctx)
	if incident == nil {
		return
	}

	var comments []models.IncidentComment
	err = storage.DB.Preload("Author").
		Where("incident_id = ?", incident.ID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(comments)
}

// authorizeIncidentAccess loads the incident and checks the caller is a party
// to it or an admin. Writes the error response and returns nil on failure.
func authorizeIncidentAccess(id, userID uint, ctx iris.Context) (*models.Incident, bool) {
	incident := getIncidentByID(id, ctx)
	if incident == nil {
		return nil, false
	}

	isAdmin := false
	if claims, ok := jwt.Get(ctx).(*utils.AccessToken); ok {
		isAdmin = claims.Role == "admin" || claims.Role == "super_admin"
	}

	if !isAdmin && incident.ReporterID != userID && incident.ReportedUserID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You do not have permission to view this incident.", ctx)
		return nil, false
	}

	return incident, isAdmin
}

func getIncidentByID(id uint, ctx iris.Context) *models.Incident {
	var incident models.Incident
	err := storage.DB.Preload("Reporter").Preload("ReportedUser").Preload("Ride").First(&incident, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Not Found", "Incident not found", ctx)
			return nil
		}
		utils.CreateInternalServerError(ctx)
		return nil
	}
	return &incident
}

type CreateIncidentInput struct {
	ReportedUserID uint   `json:"reportedUserID" validate:"required"`
	RideID         uint   `json:"rideID" validate:"required"`
	BookingID      uint   `json:"bookingID" validate:"required"`
	Category       string `json:"category" validate:"required,oneof=safety harassment property other"`
	Description    string `json:"description" validate:"required,min=10,max=2000"`
}

type CreateIncidentCommentInput struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

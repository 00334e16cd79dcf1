package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/services"
	"github.com/butcherthacker/FareShare/storage"
	"github.com/butcherthacker/FareShare/utils"

	"github.com/kataras/iris/v12"
)

// ListUsers - GET /admin/users?role=&q=&page=&per_page=
func AdminListUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	var users []models.User
	q := strings.TrimSpace(ctx.URLParamDefault("q", ""))
	role := strings.TrimSpace(ctx.URLParamDefault("role", ""))

	query := storage.DB.Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(first_name) LIKE ? OR lower(last_name) LIKE ? OR lower(email) LIKE ?", like, like, like)
	}

	var total int64
	query.Count(&total)
	query = query.Offset((page - 1) * perPage).Limit(perPage)
	if err := query.Find(&users).Error; err != nil {
		ctx.StatusCode(http.StatusInternalServerError)
		ctx.JSON(iris.Map{"error": "server_error", "message": err.Error()})
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

// Deactivate or reactivate an account - PATCH /admin/users/:id/active
func AdminSetUserActive(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "invalid_id"})
		return
	}

	var body struct {
		IsActive *bool `json:"isActive"`
	}
	if err := ctx.ReadJSON(&body); err != nil || body.IsActive == nil {
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "invalid_body"})
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		ctx.StopWithJSON(http.StatusNotFound, iris.Map{"error": "not_found"})
		return
	}

	before := user
	user.IsActive = body.IsActive
	if err := storage.DB.Model(&user).Update("is_active", *body.IsActive).Error; err != nil {
		ctx.StopWithJSON(http.StatusInternalServerError, iris.Map{"error": "server_error"})
		return
	}

	utils.Audit(ctx, "user.active_update", "user", user.ID, before, user)

	ctx.JSON(iris.Map{"data": user})
}

// AdminListRides - GET /admin/rides?status=&kind=&page=&per_page=
func AdminListRides(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.Ride{})
	if status := ctx.URLParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if kind := ctx.URLParam("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var total int64
	query.Count(&total)

	var rides []models.Ride
	err := query.Preload("Driver").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&rides).Error
	if err != nil {
		ctx.StatusCode(http.StatusInternalServerError)
		ctx.JSON(iris.Map{"error": "server_error", "message": err.Error()})
		return
	}

	utils.JSONPage(ctx, rides, page, perPage, total)
}

// AdminListIncidents - GET /admin/incidents?status=&user_id=&ride_id=&from=&to=&page=&per_page=
func AdminListIncidents(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.Incident{})
	if status := ctx.URLParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if userID := ctx.URLParam("user_id"); userID != "" {
		query = query.Where("reporter_id = ? OR reported_user_id = ?", userID, userID)
	}
	if rideID := ctx.URLParam("ride_id"); rideID != "" {
		query = query.Where("ride_id = ?", rideID)
	}
	if from := ctx.URLParam("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("created_at >= ?", t)
		}
	}
	if to := ctx.URLParam("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			query = query.Where("created_at <= ?", t)
		}
	}

	var total int64
	query.Count(&total)

	var incidents []models.Incident
	err := query.Preload("Reporter").Preload("ReportedUser").Preload("Ride").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&incidents).Error
	if err != nil {
		ctx.StatusCode(http.StatusInternalServerError)
		ctx.JSON(iris.Map{"error": "server_error", "message": err.Error()})
		return
	}

	utils.JSONPage(ctx, incidents, page, perPage, total)
}

// Review an incident report - PATCH /admin/incidents/:id
func AdminUpdateIncident(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "invalid_id"})
		return
	}

	var body AdminUpdateIncidentInput
	if err := ctx.ReadJSON(&body); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if body.Status == nil && body.AdminNotes == nil {
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "invalid_body"})
		return
	}

	var incident models.Incident
	if err := storage.DB.First(&incident, id).Error; err != nil {
		ctx.StopWithJSON(http.StatusNotFound, iris.Map{"error": "not_found"})
		return
	}

	before := incident
	statusChanged := false
	if body.Status != nil && *body.Status != incident.Status {
		incident.Status = *body.Status
		statusChanged = true
	}
	if body.AdminNotes != nil {
		incident.AdminNotes = *body.AdminNotes
	}

	if err := storage.DB.Save(&incident).Error; err != nil {
		ctx.StopWithJSON(http.StatusInternalServerError, iris.Map{"error": "server_error"})
		return
	}

	utils.Audit(ctx, "incident.review", "incident", incident.ID, before, incident)
	if statusChanged {
		go services.NotificationServiceInstance.SendIncidentStatusNotificationToReporter(&incident)
	}

	storage.DB.Preload("Reporter").Preload("ReportedUser").Preload("Ride").First(&incident, incident.ID)
	ctx.JSON(iris.Map{"data": incident, "adminNotes": incident.AdminNotes})
}

type AdminUpdateIncidentInput struct {
	Status     *string `json:"status" validate:"omitempty,oneof=open reviewed resolved dismissed"`
	AdminNotes *string `json:"adminNotes" validate:"omitempty,max=2000"`
}

// AdminStats - GET /admin/stats
func AdminStats(ctx iris.Context) {
	type statusCount struct {
		Status string
		Count  int64
	}

	var userCount int64
	storage.DB.Model(&models.User{}).Count(&userCount)

	var rideCounts []statusCount
	storage.DB.Model(&models.Ride{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Scan(&rideCounts)

	var bookingCounts []statusCount
	storage.DB.Model(&models.Booking{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Scan(&bookingCounts)

	var revenue float64
	storage.DB.Model(&models.Booking{}).
		Where("status = ?", models.BookingStatusCompleted).
		Select("COALESCE(SUM(amount_paid), 0)").
		Scan(&revenue)

	ridesByStatus := iris.Map{}
	for _, rc := range rideCounts {
		ridesByStatus[rc.Status] = rc.Count
	}
	bookingsByStatus := iris.Map{}
	for _, bc := range bookingCounts {
		bookingsByStatus[bc.Status] = bc.Count
	}

	ctx.JSON(iris.Map{
		"users":            userCount,
		"ridesByStatus":    ridesByStatus,
		"bookingsByStatus": bookingsByStatus,
		"completedRevenue": revenue,
	})
}

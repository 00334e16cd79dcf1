package routes

import (
	"errors"
	"time"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/services"
	"github.com/butcherthacker/FareShare/storage"
	"github.com/butcherthacker/FareShare/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	minLabelLength = 3
	maxLabelLength = 255
	maxPriceShare  = 9999.99
)

var rideSortColumns = []string{"departure_time", "price_share", "created_at"}

func CreateRide(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateRideInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !input.DepartureTime.After(time.Now()) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "departureTime must be in the future.", ctx)
		return
	}

	if !coordinatePairComplete(input.OriginLat, input.OriginLng) || !coordinatePairComplete(input.DestinationLat, input.DestinationLng) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "latitude and longitude must be provided together.", ctx)
		return
	}

	hasVehicleInfo := input.VehicleMake != "" || input.VehicleModel != "" || input.VehicleColor != "" || input.VehicleYear != 0
	if input.Kind == models.RideKindRequest && hasVehicleInfo {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "vehicle information only applies to ride offers.", ctx)
		return
	}

	ride := models.Ride{
		DriverID:         userID,
		Kind:             input.Kind,
		OriginLabel:      input.OriginLabel,
		DestinationLabel: input.DestinationLabel,
		DepartureTime:    input.DepartureTime,
		SeatsTotal:       input.SeatsTotal,
		SeatsAvailable:   input.SeatsTotal,
		PriceShare:       input.PriceShare,
		Notes:            input.Notes,
		VehicleMake:      input.VehicleMake,
		VehicleModel:     input.VehicleModel,
		VehicleColor:     input.VehicleColor,
		VehicleYear:      input.VehicleYear,
	}

	if input.OriginLat != nil {
		ride.OriginLat = *input.OriginLat
		ride.OriginLng = *input.OriginLng
	}
	if input.DestinationLat != nil {
		ride.DestinationLat = *input.DestinationLat
		ride.DestinationLng = *input.DestinationLng
	}

	if ride.Kind == models.RideKindRequest {
		ride.Status = models.RideStatusRequested
	} else {
		ride.Status = models.RideStatusOpen

		// Offers without vehicle info fall back to the driver's profile vehicle
		if !hasVehicleInfo {
			var driver models.User
			if err := storage.DB.First(&driver, userID).Error; err == nil {
				ride.VehicleMake = driver.VehicleMake
				ride.VehicleModel = driver.VehicleModel
				ride.VehicleColor = driver.VehicleColor
				ride.VehicleYear = driver.VehicleYear
			}
		}
	}

	if err := storage.DB.Create(&ride).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.RidesCreatedTotal.Inc()

	storage.DB.Preload("Driver").First(&ride, ride.ID)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(ride)
}

func GetRide(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	ride := getRideByID(id, ctx)
	if ride == nil {
		return
	}

	ctx.JSON(ride)
}

func ListRides(ctx iris.Context) {
	query := storage.DB.Model(&models.Ride{})

	if kind := ctx.URLParam("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if status := ctx.URLParam("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status NOT IN ?", []string{models.RideStatusCancelled, models.RideStatusCompleted})
	}
	if driverID := ctx.URLParam("driver_id"); driverID != "" {
		query = query.Where("driver_id = ?", driverID)
	}
	if minSeats := ctx.URLParamIntDefault("min_seats", 0); minSeats > 0 {
		query = query.Where("seats_available >= ?", minSeats)
	}
	if maxPrice := ctx.URLParamFloat64Default("max_price", 0); maxPrice > 0 {
		query = query.Where("price_share <= ?", maxPrice)
	}
	if from := ctx.URLParam("departure_after"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("departure_time >= ?", t)
		}
	}
	if search := ctx.URLParam("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("origin_label ILIKE ? OR destination_label ILIKE ?", like, like)
	}

	sortBy := ctx.URLParamDefault("sort_by", "departure_time")
	if !slices.Contains(rideSortColumns, sortBy) {
		sortBy = "departure_time"
	}
	order := ctx.URLParamDefault("order", "asc")
	if order != "asc" && order != "desc" {
		order = "asc"
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

	var rides []models.Ride
	err := query.Preload("Driver").
		Order(sortBy + " " + order).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&rides).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, rides, page, perPage, total)
}

func UpdateRide(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	params := ctx.Params()
	id := params.Get("id")

	var input UpdateRideInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if (input.OriginLat == nil) != (input.OriginLng == nil) || (input.DestinationLat == nil) != (input.DestinationLng == nil) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "latitude and longitude must be provided together.", ctx)
		return
	}

	var ride models.Ride
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&ride).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return services.NotFoundError("ride not found")
			}
			return err
		}
		if ride.DriverID != userID {
			return services.PermissionError("you can only update your own rides")
		}
		if ride.IsTerminal() {
			return services.InvalidStateError("cannot update a " + ride.Status + " ride")
		}

		if input.OriginLabel != nil {
			if len(*input.OriginLabel) < minLabelLength || len(*input.OriginLabel) > maxLabelLength {
				return services.ValidationError("originLabel must be between 3 and 255 characters")
			}
			ride.OriginLabel = *input.OriginLabel
		}
		if input.DestinationLabel != nil {
			if len(*input.DestinationLabel) < minLabelLength || len(*input.DestinationLabel) > maxLabelLength {
				return services.ValidationError("destinationLabel must be between 3 and 255 characters")
			}
			ride.DestinationLabel = *input.DestinationLabel
		}
		if input.OriginLat != nil {
			ride.OriginLat = *input.OriginLat
			ride.OriginLng = *input.OriginLng
		}
		if input.DestinationLat != nil {
			ride.DestinationLat = *input.DestinationLat
			ride.DestinationLng = *input.DestinationLng
		}
		if input.DepartureTime != nil {
			if !input.DepartureTime.After(time.Now()) {
				return services.ValidationError("departureTime must be in the future")
			}
			ride.DepartureTime = *input.DepartureTime
		}
		if input.PriceShare != nil {
			if *input.PriceShare < 0 || *input.PriceShare > maxPriceShare {
				return services.ValidationError("priceShare must be between 0 and 9999.99")
			}
			ride.PriceShare = *input.PriceShare
		}
		if input.Notes != nil {
			ride.Notes = *input.Notes
		}
		if input.VehicleMake != nil {
			ride.VehicleMake = *input.VehicleMake
		}
		if input.VehicleModel != nil {
			ride.VehicleModel = *input.VehicleModel
		}
		if input.VehicleColor != nil {
			ride.VehicleColor = *input.VehicleColor
		}
		if input.VehicleYear != nil {
			ride.VehicleYear = *input.VehicleYear
		}
		if input.SeatsTotal != nil {
			if err := services.AdjustSeatsTotal(tx, &ride, *input.SeatsTotal); err != nil {
				return err
			}
		}

		return tx.Save(&ride).Error
	})
	if txErr != nil {
		utils.HandleServiceError(txErr, ctx)
		return
	}

	storage.DB.Preload("Driver").First(&ride, ride.ID)
	ctx.JSON(ride)
}

func UpdateRideStatus(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input UpdateRideStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	ride, svcErr := services.SetRideStatus(id, input.Status, userID)
	if svcErr != nil {
		utils.HandleServiceError(svcErr, ctx)
		return
	}

	ctx.JSON(ride)
}

func DeleteRide(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	hard := ctx.URLParamBoolDefault("hard", false)

	cancelled, svcErr := services.DeleteRide(id, userID, hard)
	if svcErr != nil {
		utils.HandleServiceError(svcErr, ctx)
		return
	}

	if cancelled {
		ctx.JSON(iris.Map{"deleted": false, "cancelled": true})
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

func getRideByID(id string, ctx iris.Context) *models.Ride {
	var ride models.Ride
	rideExists := storage.DB.Preload("Driver").Where("id = ?", id).Find(&ride)

	if rideExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}

	if rideExists.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Ride not found", ctx)
		return nil
	}

	return &ride
}

func coordinatePairComplete(lat, lng *float64) bool {
	return (lat == nil) == (lng == nil)
}

type CreateRideInput struct {
	Kind             string    `json:"kind" validate:"required,oneof=offer request"`
	OriginLabel      string    `json:"originLabel" validate:"required,min=3,max=255"`
	DestinationLabel string    `json:"destinationLabel" validate:"required,min=3,max=255"`
	OriginLat        *float64  `json:"originLat" validate:"omitempty,min=-90,max=90"`
	OriginLng        *float64  `json:"originLng" validate:"omitempty,min=-180,max=180"`
	DestinationLat   *float64  `json:"destinationLat" validate:"omitempty,min=-90,max=90"`
	DestinationLng   *float64  `json:"destinationLng" validate:"omitempty,min=-180,max=180"`
	DepartureTime    time.Time `json:"departureTime" validate:"required"`
	SeatsTotal       int       `json:"seatsTotal" validate:"required,min=1,max=10"`
	PriceShare       float64   `json:"priceShare" validate:"min=0,max=9999.99"`
	Notes            string    `json:"notes" validate:"max=500"`
	VehicleMake      string    `json:"vehicleMake" validate:"max=100"`
	VehicleModel     string    `json:"vehicleModel" validate:"max=100"`
	VehicleColor     string    `json:"vehicleColor" validate:"max=50"`
	VehicleYear      int       `json:"vehicleYear" validate:"omitempty,min=1950,max=2100"`
}

type UpdateRideInput struct {
	OriginLabel      *string    `json:"originLabel"`
	DestinationLabel *string    `json:"destinationLabel"`
	OriginLat        *float64   `json:"originLat" validate:"omitempty,min=-90,max=90"`
	OriginLng        *float64   `json:"originLng" validate:"omitempty,min=-180,max=180"`
	DestinationLat   *float64   `json:"destinationLat" validate:"omitempty,min=-90,max=90"`
	DestinationLng   *float64   `json:"destinationLng" validate:"omitempty,min=-180,max=180"`
	DepartureTime    *time.Time `json:"departureTime"`
	SeatsTotal       *int       `json:"seatsTotal"`
	PriceShare       *float64   `json:"priceShare"`
	Notes            *string    `json:"notes" validate:"omitempty,max=500"`
	VehicleMake      *string    `json:"vehicleMake"`
	VehicleModel     *string    `json:"vehicleModel"`
	VehicleColor     *string    `json:"vehicleColor"`
	VehicleYear      *int       `json:"vehicleYear"`
}

type UpdateRideStatusInput struct {
	Status string `json:"status" validate:"required"`
}

package routes

import (
	"math"
	"sort"
	"time"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/storage"
	"github.com/butcherthacker/FareShare/utils"

	"github.com/kataras/iris/v12"
)

const (
	defaultRadiusKm = 10.0
	maxRadiusKm     = 500.0
)

// RideWithDistance decorates a ride with its distance from the search point.
type RideWithDistance struct {
	models.Ride
	DistanceM float64 `json:"distanceM"`
}

// NearbyRides finds rides whose origin or destination falls within a radius
// of a point. A bounding box narrows the candidate set in SQL before the
// exact Haversine check; results come back nearest first.
func NearbyRides(ctx iris.Context) {
	lat, latErr := ctx.URLParamFloat64("lat")
	lng, lngErr := ctx.URLParamFloat64("lng")
	if latErr != nil || lngErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "lat and lng are required.", ctx)
		return
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "lat must be in [-90, 90] and lng in [-180, 180].", ctx)
		return
	}

	radiusKm := ctx.URLParamFloat64Default("radius_km", defaultRadiusKm)
	if radiusKm <= 0 || radiusKm > maxRadiusKm {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "radius_km must be between 0 and 500.", ctx)
		return
	}
	radiusM := radiusKm * 1000

	searchType := ctx.URLParamDefault("search_type", "both")
	if searchType != "origin" && searchType != "destination" && searchType != "both" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "search_type must be origin, destination or both.", ctx)
		return
	}

	minLat, maxLat, minLng, maxLng := utils.BoundingBox(lat, lng, radiusM)

	query := storage.DB.Model(&models.Ride{}).Preload("Driver").
		Where("status NOT IN ?", []string{models.RideStatusCancelled, models.RideStatusCompleted})

	if kind := ctx.URLParam("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if from := ctx.URLParam("departure_after"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("departure_time >= ?", t)
		}
	}

	originBox := "origin_lat BETWEEN ? AND ? AND origin_lng BETWEEN ? AND ?"
	destBox := "destination_lat BETWEEN ? AND ? AND destination_lng BETWEEN ? AND ?"

	switch searchType {
	case "origin":
		query = query.Where(originBox, minLat, maxLat, minLng, maxLng)
	case "destination":
		query = query.Where(destBox, minLat, maxLat, minLng, maxLng)
	default:
		query = query.Where("("+originBox+") OR ("+destBox+")",
			minLat, maxLat, minLng, maxLng,
			minLat, maxLat, minLng, maxLng)
	}

	var candidates []models.Ride
	if err := query.Find(&candidates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	results := make([]RideWithDistance, 0, len(candidates))
	for _, ride := range candidates {
		distance := rideDistance(&ride, lat, lng, searchType)
		if distance <= radiusM {
			results = append(results, RideWithDistance{Ride: ride, DistanceM: math.Round(distance)})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DistanceM < results[j].DistanceM
	})

	page := ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	total := int64(len(results))
	start := (page - 1) * perPage
	if start > len(results) {
		start = len(results)
	}
	end := start + perPage
	if end > len(results) {
		end = len(results)
	}

	utils.NearbySearchesTotal.Inc()
	utils.JSONPage(ctx, results[start:end], page, perPage, total)
}

// rideDistance computes how far a ride is from the search point, per the
// requested search type. For "both" it takes the closer of the two endpoints,
// skipping endpoints that were never geocoded.
func rideDistance(ride *models.Ride, lat, lng float64, searchType string) float64 {
	origin := math.Inf(1)
	dest := math.Inf(1)

	if ride.OriginLat != 0 || ride.OriginLng != 0 {
		origin = utils.Haversine(lat, lng, ride.OriginLat, ride.OriginLng)
	}
	if ride.DestinationLat != 0 || ride.DestinationLng != 0 {
		dest = utils.Haversine(lat, lng, ride.DestinationLat, ride.DestinationLng)
	}

	switch searchType {
	case "origin":
		return origin
	case "destination":
		return dest
	default:
		return math.Min(origin, dest)
	}
}

package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/butcherthacker/FareShare/utils"

	"github.com/kataras/iris/v12"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// GeoHandler proxies geocoding requests to Nominatim so client apps never
// talk to it directly. A rate limiter keyed by client IP keeps us inside
// Nominatim's usage policy.
type GeoHandler struct {
	limiter    utils.RateLimiter
	httpClient *http.Client
	baseURL    string
}

func NewGeoHandler(limiter utils.RateLimiter) *GeoHandler {
	return &GeoHandler{
		limiter:    limiter,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    nominatimBaseURL,
	}
}

// GeocodeResult is the normalized shape returned to clients regardless of
// what the upstream provider sends back.
type GeocodeResult struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (h *GeoHandler) Geocode(ctx iris.Context) {
	q := ctx.URLParam("q")
	if len(q) < 2 {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "q must be at least 2 characters.", ctx)
		return
	}

	if !h.limiter.Allow(clientKey(ctx)) {
		utils.GeocodeLimitedTotal.Inc()
		utils.CreateError(iris.StatusTooManyRequests, "Rate Limited", "Too many geocoding requests, slow down.", ctx)
		return
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("limit", "5")

	places, err := h.fetchPlaces("/search?" + params.Encode())
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"results": places})
}

func (h *GeoHandler) Reverse(ctx iris.Context) {
	lat, latErr := ctx.URLParamFloat64("lat")
	lng, lngErr := ctx.URLParamFloat64("lng")
	if latErr != nil || lngErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "lat and lng are required.", ctx)
		return
	}

	if !h.limiter.Allow(clientKey(ctx)) {
		utils.GeocodeLimitedTotal.Inc()
		utils.CreateError(iris.StatusTooManyRequests, "Rate Limited", "Too many geocoding requests, slow down.", ctx)
		return
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")

	req, err := http.NewRequest(http.MethodGet, h.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	req.Header.Set("User-Agent", "FareShare/1.0")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var place nominatimPlace
	if err := json.Unmarshal(body, &place); err != nil || place.DisplayName == "" {
		utils.CreateError(iris.StatusNotFound, "Not Found", "No address found for these coordinates.", ctx)
		return
	}

	ctx.JSON(normalizePlace(place))
}

func (h *GeoHandler) fetchPlaces(path string) ([]GeocodeResult, error) {
	req, err := http.NewRequest(http.MethodGet, h.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "FareShare/1.0")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, err
	}

	results := make([]GeocodeResult, 0, len(places))
	for _, place := range places {
		results = append(results, normalizePlace(place))
	}
	return results, nil
}

func normalizePlace(place nominatimPlace) GeocodeResult {
	lat, _ := strconv.ParseFloat(place.Lat, 64)
	lng, _ := strconv.ParseFloat(place.Lon, 64)
	return GeocodeResult{Label: place.DisplayName, Lat: lat, Lng: lng}
}

func clientKey(ctx iris.Context) string {
	if ip := ctx.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}
	return ctx.RemoteAddr()
}

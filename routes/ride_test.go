package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// buildRideTestApp wires the ride routes with a JWT verifier, like main does.
func buildRideTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	app := iris.New()
	app.Configure(iris.WithoutPathCorrectionRedirection)
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(mockAccessToken) })

	rides := app.Party("/api/rides")
	{
		rides.Get("/nearby", NearbyRides)
		rides.Post("/", accessTokenVerifierMiddleware, mockUserIDMiddleware, CreateRide)
		rides.Patch("/{id:uint}/status", accessTokenVerifierMiddleware, mockUserIDMiddleware, UpdateRideStatus)
	}

	app.Build()
	return app
}

type mockAccessToken struct {
	ID   uint
	Role string
}

func mockUserIDMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*mockAccessToken)
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

func signTestToken() string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, _ := signer.Sign(mockAccessToken{ID: 1, Role: "user"})
	return string(token)
}

func TestCreateRideRequiresAuth(t *testing.T) {
	app := buildRideTestApp()

	req := httptest.NewRequest(http.MethodPost, "/api/rides/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code == http.StatusOK || resp.Code == http.StatusCreated {
		t.Fatalf("expected rejection without token, got %d", resp.Code)
	}
}

func TestCreateRideRejectsPastDeparture(t *testing.T) {
	app := buildRideTestApp()

	body := `{
		"kind": "offer",
		"originLabel": "Gare de Lyon, Paris",
		"destinationLabel": "Part-Dieu, Lyon",
		"departureTime": "2020-01-01T10:00:00Z",
		"seatsTotal": 3,
		"priceShare": 25
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/rides/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken())
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for past departure, got %d", resp.Code)
	}
}

func TestCreateRideRejectsHalfCoordinatePair(t *testing.T) {
	app := buildRideTestApp()

	body := `{
		"kind": "offer",
		"originLabel": "Gare de Lyon, Paris",
		"destinationLabel": "Part-Dieu, Lyon",
		"originLat": 48.844,
		"departureTime": "2099-01-01T10:00:00Z",
		"seatsTotal": 3,
		"priceShare": 25
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/rides/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken())
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for lat without lng, got %d", resp.Code)
	}
}

func TestCreateRideRejectsVehicleOnRequest(t *testing.T) {
	app := buildRideTestApp()

	body := `{
		"kind": "request",
		"originLabel": "Gare de Lyon, Paris",
		"destinationLabel": "Part-Dieu, Lyon",
		"departureTime": "2099-01-01T10:00:00Z",
		"seatsTotal": 2,
		"priceShare": 10,
		"vehicleMake": "Renault"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/rides/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken())
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for vehicle info on a request, got %d", resp.Code)
	}
}

func TestCreateRideRejectsTooManySeats(t *testing.T) {
	app := buildRideTestApp()

	body := `{
		"kind": "offer",
		"originLabel": "Gare de Lyon, Paris",
		"destinationLabel": "Part-Dieu, Lyon",
		"departureTime": "2099-01-01T10:00:00Z",
		"seatsTotal": 11,
		"priceShare": 25
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/rides/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken())
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for 11 seats, got %d", resp.Code)
	}
}

func TestUpdateRideStatusRejectsSystemManagedTargets(t *testing.T) {
	app := buildRideTestApp()

	for _, target := range []string{"open", "full", "requested"} {
		req := httptest.NewRequest(http.MethodPatch, "/api/rides/1/status", strings.NewReader(`{"status":"`+target+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+signTestToken())
		resp := httptest.NewRecorder()
		app.ServeHTTP(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Errorf("status %q: expected 400, got %d", target, resp.Code)
		}
	}
}

func TestNearbyRidesValidation(t *testing.T) {
	app := buildRideTestApp()

	tests := []struct {
		name string
		url  string
	}{
		{"missing coordinates", "/api/rides/nearby"},
		{"latitude out of range", "/api/rides/nearby?lat=91&lng=0"},
		{"radius too large", "/api/rides/nearby?lat=45&lng=7&radius_km=9999"},
		{"bad search type", "/api/rides/nearby?lat=45&lng=7&search_type=middle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			resp := httptest.NewRecorder()
			app.ServeHTTP(resp, req)

			if resp.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.Code)
			}
		})
	}
}

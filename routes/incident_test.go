package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/storage"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func buildIncidentTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	app := iris.New()
	app.Configure(iris.WithoutPathCorrectionRedirection)
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(mockAccessToken) })

	incidents := app.Party("/api/incidents", accessTokenVerifierMiddleware, mockUserIDMiddleware)
	{
		incidents.Post("/", CreateIncident)
		incidents.Get("/{id:uint}", GetIncident)
		incidents.Post("/{id:uint}/comments", CreateIncidentComment)
		incidents.Get("/{id:uint}/comments", ListIncidentComments)
	}

	app.Build()
	return app
}

func postIncident(app *iris.Application, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/incidents/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func incidentBody(reportedUserID, rideID, bookingID uint) string {
	return `{
		"reportedUserID": ` + itoa(reportedUserID) + `,
		"rideID": ` + itoa(rideID) + `,
		"bookingID": ` + itoa(bookingID) + `,
		"category": "safety",
		"description": "The driver was texting at the wheel for most of the trip."
	}`
}

func TestCreateIncidentByPassengerAboutDriver(t *testing.T) {
	setupRouteTestDB(t)
	app := buildIncidentTestApp()

	driver := seedRouteUser(t, "driver@example.com")
	passenger := seedRouteUser(t, "passenger@example.com")
	ride := seedRouteRide(t, driver.ID, 3)
	booking := seedRouteBooking(t, ride.ID, passenger.ID, models.BookingStatusConfirmed)

	resp := postIncident(app, signTestTokenAs(passenger.ID, "user"), incidentBody(driver.ID, ride.ID, booking.ID))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var stored models.Incident
	if err := storage.DB.Where("reporter_id = ?", passenger.ID).First(&stored).Error; err != nil {
		t.Fatalf("incident row not persisted: %v", err)
	}
	if stored.Status != models.IncidentStatusOpen {
		t.Fatalf("new incident status = %q, want open", stored.Status)
	}
	if stored.ReportedUserID != driver.ID {
		t.Fatalf("reported user = %d, want the driver %d", stored.ReportedUserID, driver.ID)
	}
}

func TestCreateIncidentRequiresConfirmedBooking(t *testing.T) {
	setupRouteTestDB(t)
	app := buildIncidentTestApp()

	driver := seedRouteUser(t, "driver@example.com")
	passenger := seedRouteUser(t, "passenger@example.com")
	ride := seedRouteRide(t, driver.ID, 3)
	booking := seedRouteBooking(t, ride.ID, passenger.ID, models.BookingStatusPending)

	resp := postIncident(app, signTestTokenAs(passenger.ID, "user"), incidentBody(driver.ID, ride.ID, booking.ID))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a pending booking, got %d", resp.Code)
	}
}

func TestCreateIncidentRejectsThirdParty(t *testing.T) {
	setupRouteTestDB(t)
	app := buildIncidentTestApp()

	driver := seedRouteUser(t, "driver@example.com")
	passenger := seedRouteUser(t, "passenger@example.com")
	stranger := seedRouteUser(t, "stranger@example.com")
	ride := seedRouteRide(t, driver.ID, 3)
	booking := seedRouteBooking(t, ride.ID, passenger.ID, models.BookingStatusConfirmed)

	// A passenger cannot name someone who was not on the booking.
	resp := postIncident(app, signTestTokenAs(passenger.ID, "user"), incidentBody(stranger.ID, ride.ID, booking.ID))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when the reported user is not the driver, got %d", resp.Code)
	}

	// An uninvolved reporter is rejected outright.
	resp = postIncident(app, signTestTokenAs(stranger.ID, "user"), incidentBody(driver.ID, ride.ID, booking.ID))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a reporter outside the booking, got %d", resp.Code)
	}
}

func TestGetIncidentHiddenFromOutsiders(t *testing.T) {
	setupRouteTestDB(t)
	app := buildIncidentTestApp()

	driver := seedRouteUser(t, "driver@example.com")
	passenger := seedRouteUser(t, "passenger@example.com")
	outsider := seedRouteUser(t, "outsider@example.com")
	ride := seedRouteRide(t, driver.ID, 3)
	booking := seedRouteBooking(t, ride.ID, passenger.ID, models.BookingStatusConfirmed)

	incident := models.Incident{
		ReporterID:     passenger.ID,
		ReportedUserID: driver.ID,
		RideID:         ride.ID,
		BookingID:      booking.ID,
		Category:       models.IncidentCategorySafety,
		Description:    "Driver took an unsafe shortcut.",
		Status:         models.IncidentStatusOpen,
	}
	if err := storage.DB.Create(&incident).Error; err != nil {
		t.Fatalf("seed incident: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/incidents/"+itoa(incident.ID), nil)
	req.Header.Set("Authorization", "Bearer "+signTestTokenAs(outsider.ID, "user"))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for an outsider, got %d", resp.Code)
	}
}

func TestIncidentCommentBlockedOnClosedIncident(t *testing.T) {
	setupRouteTestDB(t)
	app := buildIncidentTestApp()

	driver := seedRouteUser(t, "driver@example.com")
	passenger := seedRouteUser(t, "passenger@example.com")
	ride := seedRouteRide(t, driver.ID, 3)
	booking := seedRouteBooking(t, ride.ID, passenger.ID, models.BookingStatusConfirmed)

	incident := models.Incident{
		ReporterID:     passenger.ID,
		ReportedUserID: driver.ID,
		RideID:         ride.ID,
		BookingID:      booking.ID,
		Category:       models.IncidentCategoryOther,
		Description:    "Left my bag in the trunk.",
		Status:         models.IncidentStatusResolved,
	}
	if err := storage.DB.Create(&incident).Error; err != nil {
		t.Fatalf("seed incident: %v", err)
	}

	body := `{"body": "one more thing"}`
	req := httptest.NewRequest(http.MethodPost, "/api/incidents/"+itoa(incident.ID)+"/comments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestTokenAs(passenger.ID, "user"))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 commenting on a resolved incident, got %d", resp.Code)
	}
}

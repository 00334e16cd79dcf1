package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/butcherthacker/FareShare/routes"
	"github.com/butcherthacker/FareShare/storage"
	"github.com/butcherthacker/FareShare/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	// Initialize services
	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	// Minimal middleware - compression only
	app.Use(iris.Compression)

	// JWT Verifiers
	resetTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
	resetTokenVerifier.WithDefaultBlocklist()
	resetTokenVerifierMiddleware := resetTokenVerifier.Verify(func() interface{} {
		return new(utils.ForgotPasswordToken)
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Nominatim allows roughly 1 request per second per client
	geoHandler := routes.NewGeoHandler(utils.NewMemoryRateLimiter(30, time.Minute))

	// Health check endpoint
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})
	app.Get("/metrics", iris.FromStd(promhttp.Handler()))

	// Routes
	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/forgotpassword", routes.ForgotPassword)
		user.Post("/resetpassword", resetTokenVerifierMiddleware, routes.ResetPassword)
		user.Get("/{id}", routes.GetUser)
		user.Get("/{id}/reviews", routes.ListUserReviews)
		user.Patch("/{id}/profile", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.UpdateUserProfile)
		user.Patch("/{id}/pushtoken", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterPushToken)
	}

	rides := app.Party("/api/rides")
	{
		rides.Get("/", routes.ListRides)
		rides.Get("/search", routes.ListRides)
		rides.Get("/nearby", routes.NearbyRides)
		rides.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateRide)
		rides.Get("/{id:uint}", routes.GetRide)
		rides.Patch("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateRide)
		rides.Patch("/{id:uint}/status", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateRideStatus)
		rides.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteRide)
	}

	bookings := app.Party("/api/bookings", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		bookings.Post("/", routes.CreateBooking)
		bookings.Get("/", routes.ListBookings)
		bookings.Get("/stats", routes.GetBookingStats)
		bookings.Get("/{id:uint}", routes.GetBooking)
		bookings.Patch("/{id:uint}/status", routes.UpdateBookingStatus)
		bookings.Delete("/{id:uint}", routes.CancelBooking)
	}

	reviews := app.Party("/api/reviews", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		reviews.Post("/", routes.CreateReview)
	}

	notifications := app.Party("/api/notifications", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		notifications.Get("/", routes.ListNotifications)
		notifications.Patch("/{id:uint}/read", routes.MarkNotificationRead)
		notifications.Post("/read-all", routes.MarkAllNotificationsRead)
	}

	messages := app.Party("/api/messages", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		messages.Post("/", routes.SendMessage)
		messages.Get("/", routes.ListMessages)
		messages.Get("/ride-participants/{id:uint}", routes.RideParticipants)
	}

	incidents := app.Party("/api/incidents", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		incidents.Post("/", routes.CreateIncident)
		incidents.Get("/", routes.ListIncidents)
		incidents.Get("/{id:uint}", routes.GetIncident)
		incidents.Post("/{id:uint}/comments", routes.CreateIncidentComment)
		incidents.Get("/{id:uint}/comments", routes.ListIncidentComments)
	}

	trips := app.Party("/api/trips", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		trips.Get("/history", routes.GetTripHistory)
		trips.Get("/summary", routes.GetDriverSummary)
	}

	geo := app.Party("/api/geo")
	{
		geo.Get("/geocode", geoHandler.Geocode)
		geo.Get("/reverse", geoHandler.Reverse)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", routes.AdminListUsers)
		admin.Patch("/users/{id:uint}/active", routes.AdminSetUserActive)
		admin.Get("/rides", routes.AdminListRides)
		admin.Get("/incidents", routes.AdminListIncidents)
		admin.Patch("/incidents/{id:uint}", routes.AdminUpdateIncident)
		admin.Get("/stats", routes.AdminStats)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("🚀 Server starting on %s\n", addr)

	// Start server
	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"tourbase/internal/caching"
	"tourbase/internal/common"
	"tourbase/internal/config"
	"tourbase/internal/handlers"
	"tourbase/internal/jobs/background"
	"tourbase/internal/middleware"
	"tourbase/internal/models"
	"tourbase/internal/repositories"
	"tourbase/internal/services"
	"tourbase/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	minioSvc, err := services.NewMinioService(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.UseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO service: %v", err)
	}
	if err := minioSvc.EnsureBucketExists(ctx, cfg.MinIO.Bucket); err != nil {
		log.Printf("WARN: could not ensure image bucket exists: %v", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	tourRepo := repositories.NewTourRepo(pool)
	reviewRepo := repositories.NewReviewRepo(pool)
	bookingRepo := repositories.NewBookingRepo(pool)

	// Services
	tokenSvc := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL)
	mailer := services.NewSMTPMailer(cfg.SMTP)
	authSvc := services.NewAuthService(userRepo, tokenSvc, mailer)
	tourSvc := services.NewTourService(tourRepo, cacheSvc, minioSvc, cfg.MinIO.Bucket)
	reviewSvc := services.NewReviewService(reviewRepo, tourRepo)
	stripeSvc := services.NewStripeService(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	bookingSvc := services.NewBookingService(bookingRepo, tourRepo, userRepo, stripeSvc, cacheSvc)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(userRepo, tokenSvc)

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, cfg)
	userHandlers := handlers.NewUserHandlers(userRepo, minioSvc, cfg.MinIO.Bucket)
	tourHandlers := handlers.NewTourHandlers(tourSvc)
	reviewHandlers := handlers.NewReviewHandlers(reviewSvc)
	bookingHandlers := handlers.NewBookingHandlers(bookingSvc)
	webhookHandlers := handlers.NewWebhookHandlers(bookingSvc)

	// Background jobs
	scheduler, err := background.NewJobScheduler(userRepo, cacheSvc)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop scheduler: %v", err)
		}
	}()

	e := echo.New()
	e.HTTPErrorHandler = common.HTTPErrorHandler(cfg.IsProduction())

	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	// Payment webhook: raw body, signature-verified, no session auth.
	e.POST("/webhook-checkout", webhookHandlers.CheckoutWebhook)

	// Health endpoints
	e.GET("/health", handlers.HealthCheck)
	e.GET("/health/ready", handlers.ReadinessCheck(pool))

	v1 := e.Group("/api/v1")
	v1.Use(middleware.RateLimit(cacheSvc, 100, time.Hour))

	// User and auth routes
	users := v1.Group("/users")
	users.POST("/signup", authHandlers.Signup)
	users.POST("/login", authHandlers.Login)
	users.GET("/logout", authHandlers.Logout)
	users.POST("/forgot-password", authHandlers.ForgotPassword)
	users.PATCH("/reset-password/:token", authHandlers.ResetPassword)

	usersAuth := users.Group("", authMiddleware.Authenticate)
	usersAuth.PATCH("/update-password", authHandlers.UpdatePassword)
	usersAuth.GET("/me", userHandlers.Me)
	usersAuth.PATCH("/me", userHandlers.UpdateMe)
	usersAuth.PATCH("/me/photo", userHandlers.UploadPhoto)
	usersAuth.DELETE("/me", userHandlers.DeleteMe)

	usersAdmin := usersAuth.Group("", authMiddleware.RequireRoles(models.RoleAdmin))
	usersAdmin.GET("", userHandlers.ListUsers)
	usersAdmin.GET("/:id", userHandlers.GetUser)
	usersAdmin.PATCH("/:id", userHandlers.UpdateUser)
	usersAdmin.DELETE("/:id", userHandlers.DeleteUser)

	// Tour routes
	tours := v1.Group("/tours")
	tours.GET("", tourHandlers.ListTours)
	tours.GET("/top-5-cheap", tourHandlers.TopTours)
	tours.GET("/stats", tourHandlers.Stats)
	tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", tourHandlers.ToursWithin)
	tours.GET("/distances/:latlng/unit/:unit", tourHandlers.Distances)
	tours.GET("/slug/:slug", tourHandlers.GetTourBySlug)
	tours.GET("/:id", tourHandlers.GetTour)
	tours.GET("/monthly-plan/:year", tourHandlers.MonthlyPlan, authMiddleware.Authenticate,
		authMiddleware.RequireRoles(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide))

	toursManage := tours.Group("", authMiddleware.Authenticate,
		authMiddleware.RequireRoles(models.RoleAdmin, models.RoleLeadGuide))
	toursManage.POST("", tourHandlers.CreateTour)
	toursManage.PATCH("/:id", tourHandlers.UpdateTour)
	toursManage.PATCH("/:id/cover", tourHandlers.UploadCoverImage)
	toursManage.DELETE("/:id", tourHandlers.DeleteTour)

	// Reviews, flat and nested under tours
	tours.GET("/:tourID/reviews", reviewHandlers.ListReviews)
	tours.POST("/:tourID/reviews", reviewHandlers.CreateReview, authMiddleware.Authenticate,
		authMiddleware.RequireRoles(models.RoleUser))

	reviews := v1.Group("/reviews", authMiddleware.Authenticate)
	reviews.GET("", reviewHandlers.ListReviews)
	reviews.GET("/:id", reviewHandlers.GetReview)
	reviews.POST("", reviewHandlers.CreateReview, authMiddleware.RequireRoles(models.RoleUser))
	reviews.PATCH("/:id", reviewHandlers.UpdateReview, authMiddleware.RequireRoles(models.RoleUser, models.RoleAdmin))
	reviews.DELETE("/:id", reviewHandlers.DeleteReview, authMiddleware.RequireRoles(models.RoleUser, models.RoleAdmin))

	// Bookings
	bookings := v1.Group("/bookings", authMiddleware.Authenticate)
	bookings.GET("/checkout-session/:tourID", bookingHandlers.CreateCheckoutSession)
	bookings.GET("/my-bookings", bookingHandlers.MyBookings)

	bookingsAdmin := bookings.Group("", authMiddleware.RequireRoles(models.RoleAdmin, models.RoleLeadGuide))
	bookingsAdmin.GET("", bookingHandlers.ListBookings)
	bookingsAdmin.GET("/:id", bookingHandlers.GetBooking)
	bookingsAdmin.PATCH("/:id", bookingHandlers.UpdateBooking)
	bookingsAdmin.DELETE("/:id", bookingHandlers.DeleteBooking)

	log.Printf("Tourbase server v%s starting on port %d (%s)", version, cfg.Port, cfg.Env)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Port)))
}

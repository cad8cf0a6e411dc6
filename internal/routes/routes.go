package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-booking-server/internal/booking"
	"clinic-booking-server/internal/config"
	"clinic-booking-server/internal/handlers"
	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/models"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	bookingSvc := booking.NewService(
		booking.NewGormStore(db),
		booking.NewGormDirectory(db),
		booking.NewGormNotifier(db),
		log,
		booking.Config{
			SlotDurationMinutes: cfg.SlotDurationMinutes,
			AutoConfirm:         cfg.BookingAutoConfirm,
		},
	)

	authHandler := handlers.NewAuthHandler(db, cfg, log)
	doctorHandler := handlers.NewDoctorHandler(db)
	clinicHandler := handlers.NewClinicHandler(db, log)
	bookingHandler := handlers.NewBookingHandler(db, bookingSvc)
	adminHandler := handlers.NewAdminHandler(db, log)
	userHandler := handlers.NewUserHandler(db, log)
	notificationHandler := handlers.NewNotificationHandler(db)
	ratingHandler := handlers.NewRatingHandler(db)

	router.Use(middleware.AuditMiddleware(db, log))

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}

		public.GET("/doctors", doctorHandler.GetDoctors)
		public.GET("/doctors/:id", doctorHandler.GetDoctorByID)
		public.GET("/doctors/:id/ratings", ratingHandler.GetDoctorRatings)

		public.GET("/clinics", clinicHandler.GetPublicClinics)
		public.GET("/clinics/:id/ratings", ratingHandler.GetClinicRatings)

		public.GET("/bookings/slots", bookingHandler.GetAvailableSlots)
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PATCH("/profile", authHandler.UpdateProfile)
		}

		notificationRoutes := private.Group("/notifications")
		{
			notificationRoutes.GET("", notificationHandler.GetMyNotifications)
			notificationRoutes.PATCH("/read-all", notificationHandler.MarkAllAsRead)
			notificationRoutes.PATCH("/:id/read", notificationHandler.MarkAsRead)
		}

		bookingRoutes := private.Group("/bookings")
		{
			bookingRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), bookingHandler.CreateBooking)
			bookingRoutes.GET("", bookingHandler.GetMyBookings)
			bookingRoutes.PATCH("/:id/cancel", bookingHandler.CancelBooking)
		}

		ratingRoutes := private.Group("/ratings")
		ratingRoutes.Use(middleware.RoleAuthMiddleware(models.RolePatient))
		{
			ratingRoutes.POST("/doctors/:id", ratingHandler.RateDoctor)
			ratingRoutes.POST("/clinics/:id", ratingHandler.RateClinic)
		}

		// Doctor-only routes
		doctorRoutes := private.Group("/doctor")
		doctorRoutes.Use(middleware.RoleAuthMiddleware(models.RoleDoctor))
		{
			doctorRoutes.GET("/dashboard", doctorHandler.GetDashboard)
			doctorRoutes.POST("/clinic", clinicHandler.CreateClinic)
		}

		// Clinic owner routes: a doctor owning an approved clinic
		clinicRoutes := private.Group("/clinic")
		clinicRoutes.Use(middleware.RoleAuthMiddleware(models.RoleDoctor))
		clinicRoutes.Use(middleware.ClinicOwnerMiddleware(db))
		{
			clinicRoutes.POST("/staff", clinicHandler.CreateStaff)
			clinicRoutes.GET("/staff", clinicHandler.GetMyStaff)
			clinicRoutes.PATCH("/staff/:id/verify", clinicHandler.VerifyStaff)
			clinicRoutes.GET("/bookings", bookingHandler.GetClinicBookings)
			clinicRoutes.PATCH("/bookings/:id/cancel", bookingHandler.CancelClinicBooking)
		}

		// Admin-only routes
		adminRoutes := private.Group("/admin")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.POST("/create-admin", adminHandler.CreateAdmin)
			adminRoutes.GET("/staff", adminHandler.GetStaff)
			adminRoutes.GET("/clinics", adminHandler.GetClinics)
			adminRoutes.PATCH("/clinics/:id/review", adminHandler.ReviewClinic)
			adminRoutes.GET("/doctors", adminHandler.GetDoctors)
			adminRoutes.PATCH("/doctors/:id/verify", adminHandler.VerifyDoctor)
			adminRoutes.GET("/audit-logs", adminHandler.GetAuditLogs)
			adminRoutes.GET("/users", userHandler.GetUsers)
			adminRoutes.GET("/users/:id", userHandler.GetUserByID)
			adminRoutes.PATCH("/users/:id/active", userHandler.SetUserActive)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}

package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/utils"
)

// DoctorHandler handles doctor directory and dashboard requests.
type DoctorHandler struct {
	DB *gorm.DB
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(db *gorm.DB) *DoctorHandler {
	return &DoctorHandler{DB: db}
}

// bookableDoctors scopes a query to directly bookable doctors:
// verified, and not owning an approved clinic (those must be booked
// through their clinic staff).
func (h *DoctorHandler) bookableDoctors() *gorm.DB {
	clinicOwners := h.DB.Model(&models.Clinic{}).
		Select("owner_user_id").
		Where("status = ?", models.ClinicApproved)
	return h.DB.Model(&models.Doctor{}).
		Where("is_verified = ?", true).
		Where("user_id NOT IN (?)", clinicOwners)
}

// GetDoctors handles listing bookable doctors, optionally filtered by
// specialist. Public endpoint.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	q := h.bookableDoctors()
	if specialist := c.Query("specialist"); specialist != "" {
		q = q.Where("specialist = ?", specialist)
	}

	var doctors []models.Doctor
	if err := q.Order("years_of_experience DESC, full_name").Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	utils.Success(c, "Doctors fetched successfully", gin.H{"results": len(doctors), "doctors": doctors})
}

// GetDoctorByID handles fetching a single bookable doctor's public
// profile along with booking totals.
func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	doctorID := c.Param("id")

	var doctor models.Doctor
	err := h.bookableDoctors().Where("id = ?", doctorID).First(&doctor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Doctor not found or not available for booking")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	var totals struct {
		TotalBookings int64
		TotalPatients int64
	}
	err = h.DB.Model(&models.Booking{}).
		Select("COUNT(*) AS total_bookings, COUNT(DISTINCT patient_user_id) AS total_patients").
		Where("doctor_id = ? AND status = ?", doctorID, models.BookingConfirmed).
		Scan(&totals).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch booking totals: "+err.Error())
		return
	}

	utils.Success(c, "Doctor fetched successfully", gin.H{
		"doctor":        doctor,
		"totalBookings": totals.TotalBookings,
		"totalPatients": totals.TotalPatients,
	})
}

// doctorStats aggregates a doctor's booking counters for the dashboard.
type doctorStats struct {
	TotalBookings     int64 `json:"totalBookings"`
	TotalPatients     int64 `json:"totalPatients"`
	ConfirmedBookings int64 `json:"confirmedBookings"`
	CancelledBookings int64 `json:"cancelledBookings"`
	TodayBookings     int64 `json:"todayBookings"`
}

// GetDashboard handles the logged-in doctor's dashboard: booking
// counters plus the next five upcoming confirmed bookings.
func (h *DoctorHandler) GetDashboard(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var doctor models.Doctor
	err := h.DB.Where("user_id = ? AND is_verified = ?", userID, true).First(&doctor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Doctor profile not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	var stats doctorStats
	err = h.DB.Model(&models.Booking{}).
		Select(`COUNT(*) AS total_bookings,
			COUNT(DISTINCT patient_user_id) AS total_patients,
			SUM(CASE WHEN status = 'confirmed' THEN 1 ELSE 0 END) AS confirmed_bookings,
			SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END) AS cancelled_bookings,
			SUM(CASE WHEN booking_date = CURDATE() AND status = 'confirmed' THEN 1 ELSE 0 END) AS today_bookings`).
		Where("doctor_id = ?", doctor.ID).
		Scan(&stats).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch stats: "+err.Error())
		return
	}

	var upcoming []bookingRow
	err = h.DB.Table("bookings AS b").
		Select(`b.id, b.booking_date, b.booking_from, b.booking_to, b.status,
			p.full_name AS patient_name, p.phone AS patient_phone`).
		Joins("JOIN patient_profiles p ON p.user_id = b.patient_user_id").
		Where("b.doctor_id = ? AND b.status = ? AND b.booking_date >= CURDATE()", doctor.ID, models.BookingConfirmed).
		Order("b.booking_date, b.booking_from").
		Limit(5).
		Scan(&upcoming).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch upcoming bookings: "+err.Error())
		return
	}

	utils.Success(c, "Dashboard fetched successfully", gin.H{
		"stats":            stats,
		"upcomingBookings": upcoming,
	})
}

package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/utils"
)

// RatingHandler handles doctor and clinic rating requests.
type RatingHandler struct {
	DB *gorm.DB
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(db *gorm.DB) *RatingHandler {
	return &RatingHandler{DB: db}
}

// RateRequest represents the request body for rating a doctor or clinic.
type RateRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=500"`
}

// ratingSummary aggregates a target's ratings.
type ratingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// RateDoctor handles a patient rating a doctor they have a confirmed
// booking with. One rating per patient per doctor.
func (h *RatingHandler) RateDoctor(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	doctorID := c.Param("id")

	var req RateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var doctor models.Doctor
	err := h.DB.Where("id = ?", doctorID).First(&doctor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Doctor not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	var booked int64
	err = h.DB.Model(&models.Booking{}).
		Where("patient_user_id = ? AND doctor_id = ? AND status = ?", userID, doctorID, models.BookingConfirmed).
		Count(&booked).Error
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	if booked == 0 {
		utils.Forbidden(c, "You can only rate doctors you have a confirmed booking with")
		return
	}

	var existing models.Rating
	if err := h.DB.Where("patient_user_id = ? AND doctor_id = ?", userID, doctorID).First(&existing).Error; err == nil {
		utils.Conflict(c, "You have already rated this doctor")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	rating := models.Rating{
		PatientUserID: userID,
		DoctorID:      &doctorID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	}
	if err := h.DB.Create(&rating).Error; err != nil {
		utils.InternalServerError(c, "Failed to create rating: "+err.Error())
		return
	}

	utils.Created(c, "Rating submitted successfully", rating)
}

// RateClinic handles a patient rating a clinic they have a confirmed
// booking with (through any of its staff doctors).
func (h *RatingHandler) RateClinic(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	clinicID := c.Param("id")

	var req RateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var clinic models.Clinic
	err := h.DB.Where("id = ? AND status = ?", clinicID, models.ClinicApproved).First(&clinic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Clinic not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	staffIDs := h.DB.Model(&models.Staff{}).Select("id").Where("clinic_id = ?", clinicID)
	var booked int64
	err = h.DB.Model(&models.Booking{}).
		Where("patient_user_id = ? AND status = ? AND staff_id IN (?)", userID, models.BookingConfirmed, staffIDs).
		Count(&booked).Error
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	if booked == 0 {
		utils.Forbidden(c, "You can only rate clinics you have a confirmed booking with")
		return
	}

	var existing models.Rating
	if err := h.DB.Where("patient_user_id = ? AND clinic_id = ?", userID, clinicID).First(&existing).Error; err == nil {
		utils.Conflict(c, "You have already rated this clinic")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	rating := models.Rating{
		PatientUserID: userID,
		ClinicID:      &clinicID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	}
	if err := h.DB.Create(&rating).Error; err != nil {
		utils.InternalServerError(c, "Failed to create rating: "+err.Error())
		return
	}

	utils.Created(c, "Rating submitted successfully", rating)
}

// GetDoctorRatings handles listing a doctor's ratings with the average.
// Public endpoint.
func (h *RatingHandler) GetDoctorRatings(c *gin.Context) {
	h.listRatings(c, "doctor_id", c.Param("id"))
}

// GetClinicRatings handles listing a clinic's ratings with the average.
// Public endpoint.
func (h *RatingHandler) GetClinicRatings(c *gin.Context) {
	h.listRatings(c, "clinic_id", c.Param("id"))
}

func (h *RatingHandler) listRatings(c *gin.Context, column, targetID string) {
	var summary ratingSummary
	err := h.DB.Model(&models.Rating{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where(column+" = ?", targetID).
		Scan(&summary).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch rating summary: "+err.Error())
		return
	}

	var ratings []models.Rating
	err = h.DB.Where(column+" = ?", targetID).
		Order("created_at DESC").
		Limit(100).
		Find(&ratings).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch ratings: "+err.Error())
		return
	}

	utils.Success(c, "Ratings fetched successfully", gin.H{
		"summary": summary,
		"ratings": ratings,
	})
}

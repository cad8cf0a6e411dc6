package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-booking-server/internal/booking"
	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/utils"
)

// BookingService is the slice of the booking engine the handler needs.
type BookingService interface {
	AvailableSlots(ctx context.Context, ref booking.PractitionerRef, date string) ([]booking.Slot, error)
	Create(ctx context.Context, req booking.CreateRequest) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID string, actor booking.Actor) error
	CancelForClinic(ctx context.Context, bookingID, clinicID string) error
}

// BookingHandler handles booking related requests.
type BookingHandler struct {
	DB  *gorm.DB
	Svc BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(db *gorm.DB, svc BookingService) *BookingHandler {
	return &BookingHandler{DB: db, Svc: svc}
}

// respondBookingError translates engine error kinds to HTTP responses.
func respondBookingError(c *gin.Context, err error) {
	switch booking.KindOf(err) {
	case booking.KindInvalidArgument:
		utils.BadRequest(c, err.Error())
	case booking.KindNotFound:
		utils.NotFound(c, err.Error())
	case booking.KindForbidden:
		utils.Forbidden(c, err.Error())
	case booking.KindConflict:
		utils.Conflict(c, err.Error())
	default:
		utils.InternalServerError(c, err.Error())
	}
}

// CreateBookingRequest represents the request body for creating a booking.
type CreateBookingRequest struct {
	DoctorID    string `json:"doctorId"`
	StaffID     string `json:"staffId"`
	BookingDate string `json:"bookingDate" binding:"required"`
	BookingFrom string `json:"bookingFrom" binding:"required"`
}

// CreateBooking handles a patient booking a slot with a doctor or a
// clinic staff doctor.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreateBookingRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	b, err := h.Svc.Create(c.Request.Context(), booking.CreateRequest{
		PatientUserID: userID,
		DoctorID:      req.DoctorID,
		StaffID:       req.StaffID,
		Date:          req.BookingDate,
		From:          req.BookingFrom,
	})
	if err != nil {
		respondBookingError(c, err)
		return
	}

	utils.Created(c, "Booking created successfully", b)
}

// GetAvailableSlots handles fetching the free slots of a practitioner
// for a given date. Public endpoint.
func (h *BookingHandler) GetAvailableSlots(c *gin.Context) {
	ref, err := booking.NewPractitionerRef(c.Query("doctor_id"), c.Query("staff_id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	date := c.Query("booking_date")
	if date == "" {
		utils.BadRequest(c, "booking_date is required")
		return
	}

	slots, err := h.Svc.AvailableSlots(c.Request.Context(), ref, date)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	utils.Success(c, "Available slots fetched successfully", gin.H{"slots": slots})
}

// bookingRow is the flattened booking listing shape shared by the
// patient, practitioner and clinic views.
type bookingRow struct {
	ID           string `json:"id"`
	BookingDate  string `json:"bookingDate"`
	BookingFrom  string `json:"bookingFrom"`
	BookingTo    string `json:"bookingTo"`
	Status       string `json:"status"`
	PatientName  string `json:"patientName"`
	PatientPhone string `json:"patientPhone"`
	DoctorName   string `json:"doctorName"`
}

func (h *BookingHandler) bookingListQuery() *gorm.DB {
	return h.DB.Table("bookings AS b").
		Select(`b.id, b.booking_date, b.booking_from, b.booking_to, b.status,
			p.full_name AS patient_name, p.phone AS patient_phone,
			COALESCE(d.full_name, s.full_name) AS doctor_name`).
		Joins("JOIN patient_profiles p ON p.user_id = b.patient_user_id").
		Joins("LEFT JOIN doctors d ON d.id = b.doctor_id").
		Joins("LEFT JOIN staff s ON s.id = b.staff_id").
		Order("b.booking_date, b.booking_from")
}

// GetMyBookings handles fetching bookings for the logged-in user:
// patients see the bookings they made, practitioners the bookings made
// with them. An optional ?date= filter narrows to one day.
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	q := h.bookingListQuery()
	switch role {
	case models.RolePatient:
		q = q.Where("b.patient_user_id = ?", userID)
	case models.RoleDoctor:
		sub := h.DB.Model(&models.Doctor{}).Select("id").Where("user_id = ?", userID)
		q = q.Where("b.doctor_id = (?)", sub)
	case models.RoleStaff:
		sub := h.DB.Model(&models.Staff{}).Select("id").
			Where("user_id = ? AND role_title = ?", userID, models.StaffRoleDoctor)
		q = q.Where("b.staff_id = (?)", sub)
	default:
		utils.Forbidden(c, "Your role has no booking view")
		return
	}
	if date := c.Query("date"); date != "" {
		q = q.Where("b.booking_date = ?", date)
	}

	var rows []bookingRow
	if err := q.Scan(&rows).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch bookings: "+err.Error())
		return
	}

	utils.Success(c, "Bookings fetched successfully", gin.H{"results": len(rows), "bookings": rows})
}

// GetClinicBookings handles fetching every booking belonging to the
// owner's clinic: bookings with its staff doctors, plus bookings made
// directly with the owner before the clinic was approved.
func (h *BookingHandler) GetClinicBookings(c *gin.Context) {
	clinicID, exists := middleware.GetClinicIDFromContext(c)
	if !exists {
		utils.Forbidden(c, "You do not own an approved clinic")
		return
	}
	ownerUserID, _ := middleware.GetUserIDFromContext(c)

	q := h.bookingListQuery().
		Where("s.clinic_id = ? OR d.user_id = ?", clinicID, ownerUserID)
	if date := c.Query("date"); date != "" {
		q = q.Where("b.booking_date = ?", date)
	}

	var rows []bookingRow
	if err := q.Scan(&rows).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch clinic bookings: "+err.Error())
		return
	}

	utils.Success(c, "Clinic bookings fetched successfully", gin.H{"results": len(rows), "bookings": rows})
}

// CancelBooking handles cancellation by the booking's patient or the
// practitioner it targets.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	err := h.Svc.Cancel(c.Request.Context(), c.Param("id"), booking.Actor{UserID: userID, Role: role})
	if err != nil {
		respondBookingError(c, err)
		return
	}

	utils.Success(c, "Booking cancelled successfully", nil)
}

// CancelClinicBooking handles a clinic owner cancelling a booking made
// with one of their staff doctors.
func (h *BookingHandler) CancelClinicBooking(c *gin.Context) {
	clinicID, exists := middleware.GetClinicIDFromContext(c)
	if !exists {
		utils.Forbidden(c, "You do not own an approved clinic")
		return
	}

	if err := h.Svc.CancelForClinic(c.Request.Context(), c.Param("id"), clinicID); err != nil {
		respondBookingError(c, err)
		return
	}

	utils.Success(c, "Booking cancelled successfully", nil)
}

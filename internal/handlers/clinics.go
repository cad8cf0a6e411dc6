package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/utils"
)

// ClinicHandler handles clinic lifecycle and staff onboarding requests.
type ClinicHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// NewClinicHandler creates a new ClinicHandler.
func NewClinicHandler(db *gorm.DB, log *zap.Logger) *ClinicHandler {
	return &ClinicHandler{DB: db, Log: log}
}

// CreateClinicRequest represents the request body for creating a clinic.
type CreateClinicRequest struct {
	Name              string  `json:"name" binding:"required"`
	Address           string  `json:"address"`
	Location          string  `json:"location" binding:"required"`
	Phone             string  `json:"phone"`
	Email             string  `json:"email" binding:"required,email"`
	ConsultationPrice float64 `json:"consultationPrice"`
	WorkFrom          string  `json:"workFrom"`
	WorkTo            string  `json:"workTo"`
}

// CreateClinic handles a verified doctor creating a clinic. The clinic
// starts "pending" and must be approved by an admin before it can
// onboard staff or take bookings.
func (h *ClinicHandler) CreateClinic(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreateClinicRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	// Only verified doctors may open a clinic.
	var doctor models.Doctor
	err := h.DB.Where("user_id = ?", userID).First(&doctor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Doctor profile not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	if !doctor.IsVerified {
		utils.Forbidden(c, "Your account must be verified before creating a clinic")
		return
	}

	var existing models.Clinic
	if err := h.DB.Where("owner_user_id = ?", userID).First(&existing).Error; err == nil {
		utils.Conflict(c, "You already created a clinic")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	clinic := models.Clinic{
		OwnerUserID:       userID,
		Name:              req.Name,
		Address:           req.Address,
		Location:          req.Location,
		Phone:             req.Phone,
		Email:             req.Email,
		ConsultationPrice: req.ConsultationPrice,
		WorkFrom:          req.WorkFrom,
		WorkTo:            req.WorkTo,
		Status:            models.ClinicPending,
	}
	if err := h.DB.Create(&clinic).Error; err != nil {
		utils.InternalServerError(c, "Failed to create clinic: "+err.Error())
		return
	}

	h.Log.Info("clinic created, pending approval",
		zap.String("clinic_id", clinic.ID),
		zap.String("owner_user_id", userID))

	utils.Created(c, "Clinic created and pending admin approval", clinic)
}

// GetPublicClinics handles listing approved clinics. Public endpoint.
func (h *ClinicHandler) GetPublicClinics(c *gin.Context) {
	var clinics []models.Clinic
	err := h.DB.Where("status = ?", models.ClinicApproved).Find(&clinics).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch clinics: "+err.Error())
		return
	}

	utils.Success(c, "Clinics fetched successfully", gin.H{"results": len(clinics), "clinics": clinics})
}

// CreateStaffRequest represents the request body for onboarding a staff
// member into the owner's clinic.
type CreateStaffRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	FullName   string `json:"fullName" binding:"required"`
	RoleTitle  string `json:"roleTitle" binding:"required"`
	Specialist string `json:"specialist"`
	WorkDays   string `json:"workDays"`
	WorkFrom   string `json:"workFrom"`
	WorkTo     string `json:"workTo"`
}

// CreateStaff handles a clinic owner creating a staff account for their
// clinic. Staff doctors need a work schedule; they become bookable only
// after the owner verifies them.
func (h *ClinicHandler) CreateStaff(c *gin.Context) {
	clinicID, exists := middleware.GetClinicIDFromContext(c)
	if !exists {
		utils.Forbidden(c, "You do not own an approved clinic")
		return
	}

	var req CreateStaffRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if req.RoleTitle == models.StaffRoleDoctor {
		profile := RegisterProfile{WorkDays: req.WorkDays, WorkFrom: req.WorkFrom, WorkTo: req.WorkTo}
		if err := validateWorkSchedule(&profile); err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
	}

	var existing models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		utils.Conflict(c, "Email already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	user := models.User{Email: req.Email, Role: models.RoleStaff}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	staff := models.Staff{
		ClinicID:   clinicID,
		FullName:   req.FullName,
		RoleTitle:  req.RoleTitle,
		Specialist: req.Specialist,
		WorkDays:   req.WorkDays,
		WorkFrom:   req.WorkFrom,
		WorkTo:     req.WorkTo,
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		staff.UserID = user.ID
		return tx.Create(&staff).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to create staff: "+err.Error())
		return
	}

	h.Log.Info("staff created",
		zap.String("staff_id", staff.ID),
		zap.String("clinic_id", clinicID))

	utils.Created(c, "Staff created successfully", gin.H{
		"user":  user.Sanitize(),
		"staff": staff,
	})
}

// staffRow is the staff listing shape, joining the account e-mail.
type staffRow struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	RoleTitle  string `json:"roleTitle"`
	Specialist string `json:"specialist,omitempty"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
	IsActive   bool   `json:"isActive"`
}

// GetMyStaff handles listing the owner's clinic staff.
func (h *ClinicHandler) GetMyStaff(c *gin.Context) {
	clinicID, exists := middleware.GetClinicIDFromContext(c)
	if !exists {
		utils.Forbidden(c, "You do not own an approved clinic")
		return
	}

	var rows []staffRow
	err := h.DB.Table("staff AS s").
		Select("s.id, s.full_name, s.role_title, s.specialist, s.is_verified, u.email, u.is_active").
		Joins("JOIN users u ON u.id = s.user_id").
		Where("s.clinic_id = ?", clinicID).
		Scan(&rows).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch staff: "+err.Error())
		return
	}

	utils.Success(c, "Staff fetched successfully", gin.H{"results": len(rows), "staff": rows})
}

// VerifyStaffRequest represents the request body for staff verification.
type VerifyStaffRequest struct {
	IsVerified *bool `json:"isVerified" binding:"required"`
}

// VerifyStaff handles a clinic owner verifying (or unverifying) one of
// their staff members. Staff doctors become bookable once verified.
func (h *ClinicHandler) VerifyStaff(c *gin.Context) {
	clinicID, exists := middleware.GetClinicIDFromContext(c)
	if !exists {
		utils.Forbidden(c, "You do not own an approved clinic")
		return
	}

	var req VerifyStaffRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var staff models.Staff
	err := h.DB.Where("id = ? AND clinic_id = ?", c.Param("id"), clinicID).First(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Staff member not found in your clinic")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	staff.IsVerified = *req.IsVerified
	if err := h.DB.Save(&staff).Error; err != nil {
		utils.InternalServerError(c, "Failed to update staff: "+err.Error())
		return
	}

	if staff.IsVerified {
		if err := h.DB.Create(&models.Notification{
			UserID:  staff.UserID,
			Title:   "Account Verified",
			Message: "Your staff account has been verified by the clinic.",
		}).Error; err != nil {
			h.Log.Error("notification delivery failed",
				zap.String("user_id", staff.UserID),
				zap.Error(err))
		}
	}

	utils.Success(c, "Staff verification updated", staff)
}

package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/utils"
)

// AdminHandler handles platform administration requests.
type AdminHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *gorm.DB, log *zap.Logger) *AdminHandler {
	return &AdminHandler{DB: db, Log: log}
}

// CreateAdminRequest represents the request body for provisioning an
// admin account.
type CreateAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// CreateAdmin handles an existing admin provisioning another admin
// account. Admins cannot self-register through /auth/register.
func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	var req CreateAdminRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var existing models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		utils.Conflict(c, "Email already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	user := models.User{Email: req.Email, Role: models.RoleAdmin}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}
	if err := h.DB.Create(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to create admin: "+err.Error())
		return
	}

	h.Log.Warn("admin account created",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email))

	utils.Created(c, "Admin created successfully", user.Sanitize())
}

// adminStaffRow is the platform-wide staff listing shape.
type adminStaffRow struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	RoleTitle  string `json:"roleTitle"`
	Specialist string `json:"specialist,omitempty"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
	ClinicID   string `json:"clinicId"`
	ClinicName string `json:"clinicName"`
}

// GetStaff handles listing every staff member across all clinics.
func (h *AdminHandler) GetStaff(c *gin.Context) {
	var rows []adminStaffRow
	err := h.DB.Table("staff AS s").
		Select(`s.id, s.full_name, s.role_title, s.specialist, s.is_verified,
			u.email, s.clinic_id, c.name AS clinic_name`).
		Joins("JOIN users u ON u.id = s.user_id").
		Joins("JOIN clinics c ON c.id = s.clinic_id").
		Order("c.name, s.full_name").
		Scan(&rows).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch staff: "+err.Error())
		return
	}

	utils.Success(c, "Staff fetched successfully", gin.H{"results": len(rows), "staff": rows})
}

// GetClinics handles listing clinics for review, optionally filtered by
// ?status=pending|approved|rejected.
func (h *AdminHandler) GetClinics(c *gin.Context) {
	q := h.DB.Model(&models.Clinic{}).Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var clinics []models.Clinic
	if err := q.Find(&clinics).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch clinics: "+err.Error())
		return
	}

	utils.Success(c, "Clinics fetched successfully", gin.H{"results": len(clinics), "clinics": clinics})
}

// ReviewClinicRequest represents the clinic review decision.
type ReviewClinicRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

// ReviewClinic handles an admin approving or rejecting a pending clinic.
// Only pending clinics can be reviewed; the decision is final.
func (h *AdminHandler) ReviewClinic(c *gin.Context) {
	var req ReviewClinicRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var clinic models.Clinic
	err := h.DB.Where("id = ?", c.Param("id")).First(&clinic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Clinic not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	if clinic.Status != models.ClinicPending {
		utils.Conflict(c, "Clinic has already been reviewed")
		return
	}

	clinic.Status = models.ClinicStatus(req.Status)
	if clinic.Status == models.ClinicApproved {
		now := time.Now()
		clinic.VerifiedAt = &now
	}
	if err := h.DB.Save(&clinic).Error; err != nil {
		utils.InternalServerError(c, "Failed to update clinic: "+err.Error())
		return
	}

	title := "Clinic Approved"
	message := "Your clinic " + clinic.Name + " has been approved. You can now add staff and take bookings."
	if clinic.Status == models.ClinicRejected {
		title = "Clinic Rejected"
		message = "Your clinic " + clinic.Name + " has been rejected."
	}
	if err := h.DB.Create(&models.Notification{
		UserID:  clinic.OwnerUserID,
		Title:   title,
		Message: message,
	}).Error; err != nil {
		h.Log.Error("notification delivery failed",
			zap.String("user_id", clinic.OwnerUserID),
			zap.Error(err))
	}

	h.Log.Info("clinic reviewed",
		zap.String("clinic_id", clinic.ID),
		zap.String("status", string(clinic.Status)))

	utils.Success(c, "Clinic "+req.Status, clinic)
}

// GetDoctors handles listing doctor profiles for review, optionally
// filtered by ?verified=true|false.
func (h *AdminHandler) GetDoctors(c *gin.Context) {
	q := h.DB.Model(&models.Doctor{}).Order("created_at DESC")
	if verified := c.Query("verified"); verified != "" {
		v, err := strconv.ParseBool(verified)
		if err != nil {
			utils.BadRequest(c, "verified must be true or false")
			return
		}
		q = q.Where("is_verified = ?", v)
	}

	var doctors []models.Doctor
	if err := q.Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	utils.Success(c, "Doctors fetched successfully", gin.H{"results": len(doctors), "doctors": doctors})
}

// VerifyDoctorRequest represents the doctor verification decision.
type VerifyDoctorRequest struct {
	IsVerified *bool `json:"isVerified" binding:"required"`
}

// VerifyDoctor handles an admin verifying (or unverifying) a doctor.
// Verified doctors become bookable and may open a clinic.
func (h *AdminHandler) VerifyDoctor(c *gin.Context) {
	var req VerifyDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var doctor models.Doctor
	err := h.DB.Where("id = ?", c.Param("id")).First(&doctor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Doctor not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	doctor.IsVerified = *req.IsVerified
	if err := h.DB.Save(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to update doctor: "+err.Error())
		return
	}

	if doctor.IsVerified {
		if err := h.DB.Create(&models.Notification{
			UserID:  doctor.UserID,
			Title:   "Account Verified",
			Message: "Your doctor account has been verified. Patients can now book appointments with you.",
		}).Error; err != nil {
			h.Log.Error("notification delivery failed",
				zap.String("user_id", doctor.UserID),
				zap.Error(err))
		}
	}

	h.Log.Info("doctor verification updated",
		zap.String("doctor_id", doctor.ID),
		zap.Bool("is_verified", doctor.IsVerified))

	utils.Success(c, "Doctor verification updated", doctor)
}

var auditLogMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

// GetAuditLogs handles paged listing of the mutation audit trail,
// newest first. Supports ?page= and ?limit= (default 50, max 200) plus
// actor_user_id, method, status_code and path_contains filters.
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	q := h.DB.Model(&models.AuditLog{})
	if actorID := c.Query("actor_user_id"); actorID != "" {
		q = q.Where("actor_user_id = ?", actorID)
	}
	if method := c.Query("method"); method != "" {
		method = strings.ToUpper(method)
		if !auditLogMethods[method] {
			utils.BadRequest(c, "method must be one of GET, POST, PUT, PATCH, DELETE")
			return
		}
		q = q.Where("method = ?", method)
	}
	if rawStatus := c.Query("status_code"); rawStatus != "" {
		statusCode, err := strconv.Atoi(rawStatus)
		if err != nil || statusCode < 100 || statusCode > 599 {
			utils.BadRequest(c, "status_code must be a valid HTTP status code")
			return
		}
		q = q.Where("status_code = ?", statusCode)
	}
	if pathContains := strings.TrimSpace(c.Query("path_contains")); pathContains != "" {
		q = q.Where("path LIKE ?", "%"+pathContains+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count audit logs: "+err.Error())
		return
	}

	var logs []models.AuditLog
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch audit logs: "+err.Error())
		return
	}

	utils.Success(c, "Audit logs fetched successfully", gin.H{
		"total": total,
		"page":  page,
		"limit": limit,
		"logs":  logs,
	})
}

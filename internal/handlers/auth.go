package handlers

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-booking-server/internal/booking"
	"clinic-booking-server/internal/config"
	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/utils"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg, Log: log}
}

// RegisterProfile carries the role-specific profile fields submitted
// at registration. Which fields are required depends on the role.
type RegisterProfile struct {
	FullName string `json:"fullName" binding:"required"`

	// Patient fields
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Phone       string `json:"phone"`
	BloodType   string `json:"bloodType"`

	// Doctor / staff-doctor fields
	LicenseNumber     string `json:"licenseNumber"`
	Specialist        string `json:"specialist"`
	YearsOfExperience int    `json:"yearsOfExperience"`
	Bio               string `json:"bio"`
	Location          string `json:"location"`
	WorkDays          string `json:"workDays"`
	WorkFrom          string `json:"workFrom"`
	WorkTo            string `json:"workTo"`

	// Staff fields
	ClinicID  string `json:"clinicId"`
	RoleTitle string `json:"roleTitle"`
}

// RegisterRequest represents the request body for user registration.
// Admin accounts are provisioned out of band and cannot self-register.
type RegisterRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	Role     string          `json:"role" binding:"required,oneof=patient doctor staff"`
	Profile  RegisterProfile `json:"profile" binding:"required"`
}

func validateWorkSchedule(p *RegisterProfile) error {
	if len(booking.ParseWorkDays(p.WorkDays)) == 0 {
		return errors.New("workDays is required (e.g. \"mon,wed,fri\")")
	}
	from, err := booking.ParseTimeOfDay(p.WorkFrom)
	if err != nil {
		return errors.New("workFrom must be HH:mm")
	}
	to, err := booking.ParseTimeOfDay(p.WorkTo)
	if err != nil {
		return errors.New("workTo must be HH:mm")
	}
	if from >= to {
		return errors.New("workFrom must be before workTo")
	}
	return nil
}

// Register handles user registration for patients, doctors and clinic
// staff. The account and its profile row are created in one
// transaction; doctors start unverified and admins are notified to
// review them, staff start unverified and the clinic owner is notified.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var existingUser models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		utils.Conflict(c, "Email already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	role := models.Role(req.Role)
	if role == models.RoleDoctor || (role == models.RoleStaff && req.Profile.RoleTitle == models.StaffRoleDoctor) {
		if err := validateWorkSchedule(&req.Profile); err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
	}
	if role == models.RoleDoctor && req.Profile.LicenseNumber == "" {
		utils.BadRequest(c, "licenseNumber is required for doctors")
		return
	}
	if role == models.RoleStaff && req.Profile.RoleTitle == "" {
		utils.BadRequest(c, "roleTitle is required for staff")
		return
	}

	user := models.User{
		Email: req.Email,
		Role:  role,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		switch role {
		case models.RolePatient:
			return tx.Create(&models.PatientProfile{
				UserID:      user.ID,
				FullName:    req.Profile.FullName,
				DateOfBirth: req.Profile.DateOfBirth,
				Gender:      req.Profile.Gender,
				Phone:       req.Profile.Phone,
				BloodType:   req.Profile.BloodType,
			}).Error

		case models.RoleDoctor:
			if err := tx.Create(&models.Doctor{
				UserID:            user.ID,
				FullName:          req.Profile.FullName,
				LicenseNumber:     req.Profile.LicenseNumber,
				Specialist:        req.Profile.Specialist,
				Gender:            req.Profile.Gender,
				YearsOfExperience: req.Profile.YearsOfExperience,
				Bio:               req.Profile.Bio,
				Location:          req.Profile.Location,
				WorkDays:          req.Profile.WorkDays,
				WorkFrom:          req.Profile.WorkFrom,
				WorkTo:            req.Profile.WorkTo,
			}).Error; err != nil {
				return err
			}
			return notifyAdmins(tx, "New Doctor Pending Approval",
				fmt.Sprintf("Doctor %q is waiting for verification.", req.Profile.FullName))

		case models.RoleStaff:
			var clinic models.Clinic
			err := tx.Where("id = ? AND status = ?", req.Profile.ClinicID, models.ClinicApproved).
				First(&clinic).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("clinic not found or not approved")
			}
			if err != nil {
				return err
			}
			specialist := ""
			if req.Profile.RoleTitle == models.StaffRoleDoctor {
				specialist = req.Profile.Specialist
			}
			if err := tx.Create(&models.Staff{
				UserID:     user.ID,
				ClinicID:   clinic.ID,
				FullName:   req.Profile.FullName,
				RoleTitle:  req.Profile.RoleTitle,
				Specialist: specialist,
				WorkDays:   req.Profile.WorkDays,
				WorkFrom:   req.Profile.WorkFrom,
				WorkTo:     req.Profile.WorkTo,
			}).Error; err != nil {
				return err
			}
			return tx.Create(&models.Notification{
				UserID:  clinic.OwnerUserID,
				Title:   "New Staff Request",
				Message: fmt.Sprintf("Staff %q is waiting for verification.", req.Profile.FullName),
			}).Error
		}
		return nil
	})
	if err != nil {
		utils.BadRequest(c, "Registration failed: "+err.Error())
		return
	}

	h.Log.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))

	accessToken, err := h.issueTokens(c, &user)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate tokens: "+err.Error())
		return
	}

	utils.Created(c, "User registered successfully", gin.H{
		"user":        user.Sanitize(),
		"accessToken": accessToken,
	})
}

// notifyAdmins fans a notification out to every admin account.
func notifyAdmins(tx *gorm.DB, title, message string) error {
	var admins []models.User
	if err := tx.Where("role = ?", models.RoleAdmin).Find(&admins).Error; err != nil {
		return err
	}
	for _, admin := range admins {
		if err := tx.Create(&models.Notification{
			UserID:  admin.ID,
			Title:   title,
			Message: message,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

// issueTokens generates an access/refresh token pair, persists the
// refresh token and sets it as an HTTP-only cookie. Returns the access
// token.
func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) (string, error) {
	accessToken, refreshTokenString, err := utils.GenerateTokens(user, h.Cfg)
	if err != nil {
		return "", err
	}

	refreshToken := models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshTokenString,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.JWTRefreshExpirationHours) * time.Hour),
		IsRevoked: false,
	}
	if err := h.DB.Create(&refreshToken).Error; err != nil {
		return "", err
	}

	c.SetCookie(
		"refresh_token",
		refreshTokenString,
		h.Cfg.JWTRefreshExpirationHours*60*60,
		"/",
		"",
		h.Cfg.Environment != "development",
		true,
	)
	return accessToken, nil
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// profileFor loads the role-specific profile attached to a user.
func (h *AuthHandler) profileFor(user *models.User) (interface{}, error) {
	switch user.Role {
	case models.RolePatient:
		var p models.PatientProfile
		if err := h.DB.Where("user_id = ?", user.ID).First(&p).Error; err != nil {
			return nil, err
		}
		return p, nil
	case models.RoleDoctor:
		var d models.Doctor
		if err := h.DB.Where("user_id = ?", user.ID).First(&d).Error; err != nil {
			return nil, err
		}
		return d, nil
	case models.RoleStaff:
		var s models.Staff
		if err := h.DB.Where("user_id = ?", user.ID).First(&s).Error; err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, nil
	}
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.Where("email = ? AND is_active = ?", req.Email, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Invalid email or password")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	accessToken, err := h.issueTokens(c, &user)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate tokens: "+err.Error())
		return
	}

	profile, err := h.profileFor(&user)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Failed to load profile: "+err.Error())
		return
	}

	utils.Success(c, "Login successful", gin.H{
		"accessToken": accessToken,
		"user":        user.Sanitize(),
		"profile":     profile,
	})
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken handles refreshing an access token using a refresh
// token, with rotation: the presented token is revoked and replaced.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	// Prefer the HTTP-only cookie, fall back to the request body.
	refreshTokenString, err := c.Cookie("refresh_token")
	if err != nil || refreshTokenString == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		refreshTokenString = req.RefreshToken
	}

	claims, err := utils.ValidateToken(refreshTokenString, h.Cfg.JWTRefreshSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token: "+err.Error())
		return
	}

	var storedToken models.RefreshToken
	if err := h.DB.Where("token = ? AND user_id = ? AND is_revoked = ? AND expires_at > ?",
		refreshTokenString, claims.UserID, false, time.Now()).First(&storedToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
		} else {
			utils.InternalServerError(c, "Database error checking refresh token: "+err.Error())
		}
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ? AND is_active = ?", claims.UserID, true).Error; err != nil {
		utils.Unauthorized(c, "User not found or deactivated")
		return
	}

	storedToken.IsRevoked = true
	if err := h.DB.Save(&storedToken).Error; err != nil {
		utils.InternalServerError(c, "Failed to revoke refresh token: "+err.Error())
		return
	}

	accessToken, err := h.issueTokens(c, &user)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate new tokens: "+err.Error())
		return
	}

	utils.Success(c, "Access token refreshed successfully", gin.H{"accessToken": accessToken})
}

// Logout handles user logout by revoking the presented refresh token
// and clearing its cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshTokenString, _ := c.Cookie("refresh_token")
	if refreshTokenString == "" {
		var req RefreshTokenRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			refreshTokenString = req.RefreshToken
		}
	}

	if refreshTokenString != "" {
		var storedToken models.RefreshToken
		err := h.DB.Where("token = ? AND is_revoked = ?", refreshTokenString, false).
			First(&storedToken).Error
		if err == nil {
			storedToken.IsRevoked = true
			storedToken.ExpiresAt = time.Now()
			if err := h.DB.Save(&storedToken).Error; err != nil {
				utils.InternalServerError(c, "Failed to revoke refresh token: "+err.Error())
				return
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.InternalServerError(c, "Database error during logout: "+err.Error())
			return
		}
	}

	c.SetCookie("refresh_token", "", -1, "/", "", h.Cfg.Environment != "development", true)
	utils.Success(c, "Logged out successfully", nil)
}

// GetProfile handles fetching the currently authenticated user's
// account and role profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	profile, err := h.profileFor(&user)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Failed to load profile: "+err.Error())
		return
	}

	utils.Success(c, "Profile fetched successfully", gin.H{
		"user":    user.Sanitize(),
		"profile": profile,
	})
}

var fullNameRegex = regexp.MustCompile(`^[\p{L}\s.'-]{2,150}$`)

// UpdateProfileRequest carries the optional profile fields a user may
// change about themselves. Which fields are writable depends on the
// role; absent fields are left untouched.
type UpdateProfileRequest struct {
	Photo    *string `json:"photo"`
	FullName *string `json:"fullName"`

	// Patient fields
	DateOfBirth *string `json:"dateOfBirth"`
	Gender      *string `json:"gender"`
	Phone       *string `json:"phone"`
	BloodType   *string `json:"bloodType"`

	// Doctor / staff-doctor fields
	YearsOfExperience *int     `json:"yearsOfExperience"`
	Bio               *string  `json:"bio"`
	ConsultationPrice *float64 `json:"consultationPrice"`
	Specialist        *string  `json:"specialist"`
	Location          *string  `json:"location"`
	WorkDays          *string  `json:"workDays"`
	WorkFrom          *string  `json:"workFrom"`
	WorkTo            *string  `json:"workTo"`
}

func (r *UpdateProfileRequest) hasSchedule() bool {
	return r.Specialist != nil || r.WorkDays != nil || r.WorkFrom != nil ||
		r.WorkTo != nil || r.ConsultationPrice != nil
}

// validateProfileUpdate checks the format of whichever optional fields
// were submitted.
func validateProfileUpdate(req *UpdateProfileRequest) error {
	if req.FullName != nil && !fullNameRegex.MatchString(*req.FullName) {
		return errors.New("invalid fullName")
	}
	var from, to booking.TimeOfDay
	var err error
	if req.WorkFrom != nil {
		if from, err = booking.ParseTimeOfDay(*req.WorkFrom); err != nil {
			return errors.New("workFrom must be HH:mm")
		}
	}
	if req.WorkTo != nil {
		if to, err = booking.ParseTimeOfDay(*req.WorkTo); err != nil {
			return errors.New("workTo must be HH:mm")
		}
	}
	if req.WorkFrom != nil && req.WorkTo != nil && from >= to {
		return errors.New("workFrom must be before workTo")
	}
	if req.WorkDays != nil && len(booking.ParseWorkDays(*req.WorkDays)) == 0 {
		return errors.New("workDays must name at least one day (e.g. \"mon,wed,fri\")")
	}
	return nil
}

// UpdateProfile handles a user editing their own profile. Patients edit
// their personal details, doctors and staff doctors additionally their
// schedule; staff without the doctor role may only change their name,
// and admins only their photo.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if err := validateProfileUpdate(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if req.Photo != nil {
		err := h.DB.Model(&models.User{}).Where("id = ?", userID).
			Update("photo", *req.Photo).Error
		if err != nil {
			utils.InternalServerError(c, "Failed to update photo: "+err.Error())
			return
		}
	}

	var profile interface{}
	switch role {
	case models.RolePatient:
		var p models.PatientProfile
		if err := h.DB.Where("user_id = ?", userID).First(&p).Error; err != nil {
			utils.NotFound(c, "Profile not found")
			return
		}
		updates := map[string]interface{}{}
		setString(updates, "full_name", req.FullName)
		setString(updates, "date_of_birth", req.DateOfBirth)
		setString(updates, "gender", req.Gender)
		setString(updates, "phone", req.Phone)
		setString(updates, "blood_type", req.BloodType)
		if len(updates) == 0 && req.Photo == nil {
			utils.BadRequest(c, "No data provided to update")
			return
		}
		if len(updates) > 0 {
			if err := h.DB.Model(&p).Updates(updates).Error; err != nil {
				utils.InternalServerError(c, "Failed to update profile: "+err.Error())
				return
			}
		}
		profile = p

	case models.RoleDoctor:
		var d models.Doctor
		if err := h.DB.Where("user_id = ?", userID).First(&d).Error; err != nil {
			utils.NotFound(c, "Profile not found")
			return
		}
		updates := map[string]interface{}{}
		setString(updates, "full_name", req.FullName)
		setString(updates, "gender", req.Gender)
		setString(updates, "bio", req.Bio)
		setString(updates, "specialist", req.Specialist)
		setString(updates, "location", req.Location)
		setString(updates, "work_days", req.WorkDays)
		setString(updates, "work_from", req.WorkFrom)
		setString(updates, "work_to", req.WorkTo)
		if req.YearsOfExperience != nil {
			updates["years_of_experience"] = *req.YearsOfExperience
		}
		if req.ConsultationPrice != nil {
			updates["consultation_price"] = *req.ConsultationPrice
		}
		if len(updates) == 0 && req.Photo == nil {
			utils.BadRequest(c, "No data provided to update")
			return
		}
		if len(updates) > 0 {
			if err := h.DB.Model(&d).Updates(updates).Error; err != nil {
				utils.InternalServerError(c, "Failed to update profile: "+err.Error())
				return
			}
		}
		profile = d

	case models.RoleStaff:
		var s models.Staff
		if err := h.DB.Where("user_id = ?", userID).First(&s).Error; err != nil {
			utils.NotFound(c, "Profile not found")
			return
		}
		if s.RoleTitle != models.StaffRoleDoctor && req.hasSchedule() {
			utils.BadRequest(c, "Only staff doctors can update medical schedule or price")
			return
		}
		updates := map[string]interface{}{}
		setString(updates, "full_name", req.FullName)
		if s.RoleTitle == models.StaffRoleDoctor {
			setString(updates, "specialist", req.Specialist)
			setString(updates, "work_days", req.WorkDays)
			setString(updates, "work_from", req.WorkFrom)
			setString(updates, "work_to", req.WorkTo)
		}
		if len(updates) == 0 && req.Photo == nil {
			utils.BadRequest(c, "No data provided to update")
			return
		}
		if len(updates) > 0 {
			if err := h.DB.Model(&s).Updates(updates).Error; err != nil {
				utils.InternalServerError(c, "Failed to update profile: "+err.Error())
				return
			}
		}
		profile = s

	case models.RoleAdmin:
		if req.Photo == nil {
			utils.BadRequest(c, "Admins can only update their photo")
			return
		}

	default:
		utils.Forbidden(c, "Profile update not allowed")
		return
	}

	utils.Success(c, "Profile updated successfully", gin.H{"profile": profile})
}

func setString(updates map[string]interface{}, column string, value *string) {
	if value != nil {
		updates[column] = *value
	}
}

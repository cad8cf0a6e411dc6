package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/utils"
)

// UserHandler handles account administration requests.
type UserHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB, log *zap.Logger) *UserHandler {
	return &UserHandler{DB: db, Log: log}
}

// GetUsers handles fetching all accounts, optionally filtered by ?role=.
func (h *UserHandler) GetUsers(c *gin.Context) {
	q := h.DB.Model(&models.User{}).Order("created_at DESC")
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch users: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, len(users))
	for i, u := range users {
		sanitized[i] = u.Sanitize()
	}

	utils.Success(c, "Users fetched successfully", gin.H{"results": len(sanitized), "users": sanitized})
}

// GetUserByID handles fetching a single account.
func (h *UserHandler) GetUserByID(c *gin.Context) {
	var user models.User
	err := h.DB.First(&user, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "User not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// SetUserActiveRequest represents the account activation decision.
type SetUserActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// SetUserActive handles an admin deactivating or reactivating an
// account. Deactivation revokes every refresh token so the user cannot
// renew their session.
func (h *UserHandler) SetUserActive(c *gin.Context) {
	var req SetUserActiveRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	err := h.DB.First(&user, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "User not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	user.IsActive = *req.IsActive
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		if !user.IsActive {
			return tx.Model(&models.RefreshToken{}).
				Where("user_id = ?", user.ID).
				Update("is_revoked", true).Error
		}
		return nil
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to update user: "+err.Error())
		return
	}

	h.Log.Info("user active flag updated",
		zap.String("user_id", user.ID),
		zap.Bool("is_active", user.IsActive))

	utils.Success(c, "User updated successfully", user.Sanitize())
}

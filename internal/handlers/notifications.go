package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/utils"
)

// NotificationHandler handles in-app notification requests.
type NotificationHandler struct {
	DB *gorm.DB
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

// GetMyNotifications handles listing the logged-in user's notifications,
// newest first, with the unread count.
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var notifications []models.Notification
	err := h.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifications).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch notifications: "+err.Error())
		return
	}

	var unread int64
	err = h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to count notifications: "+err.Error())
		return
	}

	utils.Success(c, "Notifications fetched successfully", gin.H{
		"unread":        unread,
		"notifications": notifications,
	})
}

// MarkAsRead handles marking one of the user's notifications as read.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var notification models.Notification
	err := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Notification not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	if !notification.IsRead {
		notification.IsRead = true
		if err := h.DB.Save(&notification).Error; err != nil {
			utils.InternalServerError(c, "Failed to update notification: "+err.Error())
			return
		}
	}

	utils.Success(c, "Notification marked as read", notification)
}

// MarkAllAsRead handles marking every unread notification of the user
// as read in one update.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to update notifications: "+err.Error())
		return
	}

	utils.Success(c, "All notifications marked as read", nil)
}

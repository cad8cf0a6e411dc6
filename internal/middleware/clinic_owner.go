package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/utils"
)

// ClinicOwnerMiddleware resolves the approved clinic owned by the
// authenticated user and stores its ID in the context. Requests from
// users without an approved clinic are rejected.
// It must run after AuthMiddleware.
func ClinicOwnerMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserIDFromContext(c)
		if !exists {
			utils.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}

		var clinic models.Clinic
		err := db.Select("id").
			Where("owner_user_id = ? AND status = ?", userID, models.ClinicApproved).
			First(&clinic).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Forbidden(c, "You do not own an approved clinic")
			c.Abort()
			return
		}
		if err != nil {
			utils.InternalServerError(c, "Database error: "+err.Error())
			c.Abort()
			return
		}

		c.Set("clinicID", clinic.ID)
		c.Next()
	}
}

// GetClinicIDFromContext returns the clinic ID set by ClinicOwnerMiddleware.
func GetClinicIDFromContext(c *gin.Context) (string, bool) {
	clinicID, exists := c.Get("clinicID")
	if !exists {
		return "", false
	}
	idStr, ok := clinicID.(string)
	return idStr, ok
}

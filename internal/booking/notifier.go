package booking

import (
	"context"

	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
)

// GormNotifier stores notifications in the notifications table, where
// clients poll them through the notifications endpoints.
type GormNotifier struct {
	db *gorm.DB
}

// NewGormNotifier creates a GormNotifier.
func NewGormNotifier(db *gorm.DB) *GormNotifier {
	return &GormNotifier{db: db}
}

// Notify inserts an unread notification row for the user.
func (n *GormNotifier) Notify(ctx context.Context, userID, title, message string) error {
	return n.db.WithContext(ctx).Create(&models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
	}).Error
}

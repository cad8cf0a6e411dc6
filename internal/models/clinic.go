package models

import "time"

// ClinicStatus represents the admin approval state of a clinic
type ClinicStatus string

const (
	ClinicPending  ClinicStatus = "pending"
	ClinicApproved ClinicStatus = "approved"
	ClinicRejected ClinicStatus = "rejected"
)

// Clinic represents a clinic created by a verified doctor. It stays
// "pending" until an admin approves or rejects it; only approved
// clinics can onboard staff and receive bookings.
type Clinic struct {
	BaseModel
	OwnerUserID       string       `gorm:"size:36;uniqueIndex" json:"ownerUserId"`
	Name              string       `gorm:"size:255;not null" json:"name"`
	Address           string       `gorm:"size:255" json:"address,omitempty"`
	Location          string       `gorm:"size:255;not null" json:"location"`
	Phone             string       `gorm:"size:30" json:"phone,omitempty"`
	Email             string       `gorm:"size:255;not null" json:"email"`
	ConsultationPrice float64      `json:"consultationPrice,omitempty"`
	WorkFrom          string       `gorm:"size:5" json:"workFrom,omitempty"`
	WorkTo            string       `gorm:"size:5" json:"workTo,omitempty"`
	Status            ClinicStatus `gorm:"size:20;default:'pending';index" json:"status"`
	VerifiedAt        *time.Time   `json:"verifiedAt,omitempty"`

	Owner User    `gorm:"foreignKey:OwnerUserID" json:"-"`
	Staff []Staff `gorm:"foreignKey:ClinicID" json:"-"`
}

package models

import (
	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RoleStaff   Role = "staff"
	RolePatient Role = "patient"
)

// User represents an account in the system. Role-specific details live
// in the profile tables (PatientProfile, Doctor, Staff).
type User struct {
	BaseModel
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	Role     Role   `gorm:"size:20;default:'patient'" json:"role"`
	Photo    string `gorm:"size:255" json:"photo,omitempty"`
	IsActive bool   `gorm:"default:true" json:"isActive"`

	// Relations (not always preloaded)
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Photo    string `json:"photo,omitempty"`
	IsActive bool   `json:"isActive"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		Photo:    u.Photo,
		IsActive: u.IsActive,
	}
}

// PatientProfile holds patient details linked to a user account.
type PatientProfile struct {
	BaseModel
	UserID      string `gorm:"size:36;uniqueIndex" json:"userId"`
	FullName    string `gorm:"size:255;not null" json:"fullName"`
	DateOfBirth string `gorm:"size:10" json:"dateOfBirth,omitempty"`
	Gender      string `gorm:"size:10" json:"gender,omitempty"`
	Phone       string `gorm:"size:30" json:"phone,omitempty"`
	BloodType   string `gorm:"size:5" json:"bloodType,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

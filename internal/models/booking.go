package models

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking represents an admitted time slot for a practitioner.
//
// Exactly one of DoctorID/StaffID is set: independent doctors and
// clinic staff-doctors share this table. BookingDate is "YYYY-MM-DD"
// and BookingFrom/BookingTo are zero-padded "HH:mm", so two confirmed
// rows for the same practitioner and date conflict iff
// booking_from < other.booking_to AND booking_to > other.booking_from.
type Booking struct {
	BaseModel
	PatientUserID string        `gorm:"size:36;index;not null" json:"patientUserId"`
	DoctorID      *string       `gorm:"size:36;index" json:"doctorId,omitempty"`
	StaffID       *string       `gorm:"size:36;index" json:"staffId,omitempty"`
	BookingDate   string        `gorm:"size:10;index;not null" json:"bookingDate"`
	BookingFrom   string        `gorm:"size:5;not null" json:"bookingFrom"`
	BookingTo     string        `gorm:"size:5;not null" json:"bookingTo"`
	Status        BookingStatus `gorm:"size:20;default:'confirmed';index" json:"status"`

	Patient User    `gorm:"foreignKey:PatientUserID" json:"-"`
	Doctor  *Doctor `gorm:"foreignKey:DoctorID" json:"-"`
	Staff   *Staff  `gorm:"foreignKey:StaffID" json:"-"`
}

package models

// Rating represents a patient's review of a doctor or a clinic.
// Exactly one of DoctorID/ClinicID is set. A patient may only rate a
// target they have a confirmed booking with.
type Rating struct {
	BaseModel
	PatientUserID string  `gorm:"size:36;index;not null" json:"patientUserId"`
	DoctorID      *string `gorm:"size:36;index" json:"doctorId,omitempty"`
	ClinicID      *string `gorm:"size:36;index" json:"clinicId,omitempty"`
	Rating        int     `gorm:"not null" json:"rating"`
	Comment       string  `gorm:"size:500" json:"comment"`

	Patient User `gorm:"foreignKey:PatientUserID" json:"-"`
}

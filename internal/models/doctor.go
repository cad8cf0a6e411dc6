package models

// Doctor represents an independent doctor profile.
//
// Work schedule columns drive slot generation: WorkDays is a comma
// separated list of lowercase short weekday names ("mon,wed,fri"),
// WorkFrom/WorkTo are zero-padded "HH:mm" strings so lexicographic
// comparison matches chronological order.
type Doctor struct {
	BaseModel
	UserID            string  `gorm:"size:36;uniqueIndex" json:"userId"`
	FullName          string  `gorm:"size:255;not null" json:"fullName"`
	LicenseNumber     string  `gorm:"size:100" json:"licenseNumber"`
	Specialist        string  `gorm:"size:100;index" json:"specialist"`
	Gender            string  `gorm:"size:10" json:"gender,omitempty"`
	YearsOfExperience int     `json:"yearsOfExperience"`
	Bio               string  `gorm:"type:text" json:"bio,omitempty"`
	Location          string  `gorm:"size:255" json:"location,omitempty"`
	ConsultationPrice float64 `json:"consultationPrice,omitempty"`
	WorkDays          string  `gorm:"size:50" json:"workDays"`
	WorkFrom          string  `gorm:"size:5" json:"workFrom"`
	WorkTo            string  `gorm:"size:5" json:"workTo"`
	IsVerified        bool    `gorm:"default:false" json:"isVerified"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// StaffRoleDoctor is the role title a staff member must carry to be bookable.
const StaffRoleDoctor = "doctor"

// Staff represents a clinic employee. Staff with RoleTitle "doctor" are
// bookable once verified by the clinic owner.
type Staff struct {
	BaseModel
	UserID     string `gorm:"size:36;uniqueIndex" json:"userId"`
	ClinicID   string `gorm:"size:36;index" json:"clinicId"`
	FullName   string `gorm:"size:255;not null" json:"fullName"`
	RoleTitle  string `gorm:"size:50;not null" json:"roleTitle"`
	Specialist string `gorm:"size:100" json:"specialist,omitempty"`
	WorkDays   string `gorm:"size:50" json:"workDays"`
	WorkFrom   string `gorm:"size:5" json:"workFrom"`
	WorkTo     string `gorm:"size:5" json:"workTo"`
	IsVerified bool   `gorm:"default:false" json:"isVerified"`

	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Clinic Clinic `gorm:"foreignKey:ClinicID" json:"-"`
}

// TableName keeps the singular table name ("staff" has no plural).
func (Staff) TableName() string {
	return "staff"
}

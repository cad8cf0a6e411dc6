package booking

import (
	"context"
	"strings"
)

// PractitionerKind distinguishes the two bookable variants sharing the
// bookings table.
type PractitionerKind string

const (
	// PractitionerDoctor is an independent verified doctor.
	PractitionerDoctor PractitionerKind = "doctor"
	// PractitionerStaff is a clinic staff member with role "doctor".
	PractitionerStaff PractitionerKind = "staff"
)

// PractitionerRef identifies exactly one practitioner. Construct it
// with NewPractitionerRef, which enforces the doctor/staff mutual
// exclusivity at the API boundary.
type PractitionerRef struct {
	Kind PractitionerKind
	ID   string
}

// NewPractitionerRef builds a ref from the raw doctor_id/staff_id pair.
// Exactly one of the two must be set.
func NewPractitionerRef(doctorID, staffID string) (PractitionerRef, error) {
	if (doctorID == "" && staffID == "") || (doctorID != "" && staffID != "") {
		return PractitionerRef{}, invalidf("booking must target a doctor OR a staff doctor, not both")
	}
	if doctorID != "" {
		return PractitionerRef{Kind: PractitionerDoctor, ID: doctorID}, nil
	}
	return PractitionerRef{Kind: PractitionerStaff, ID: staffID}, nil
}

// PractitionerView is the common shape both practitioner variants
// resolve to. The engine never branches on the underlying table again
// once it holds a view.
type PractitionerView struct {
	Ref      PractitionerRef
	UserID   string
	FullName string
	// OwnsClinicID is the approved clinic owned by this practitioner's
	// user account, if any. Only ever set for independent doctors; a
	// doctor who owns an approved clinic is not directly bookable.
	OwnsClinicID string
	WorkDays     []string
	WorkFrom     TimeOfDay
	WorkTo       TimeOfDay
}

// WorksOn reports whether the practitioner works on the given short
// weekday name ("mon".."sun").
func (v *PractitionerView) WorksOn(day string) bool {
	for _, d := range v.WorkDays {
		if d == day {
			return true
		}
	}
	return false
}

// ParseWorkDays splits a stored comma separated day list ("mon, wed")
// into normalized short names.
func ParseWorkDays(s string) []string {
	var days []string
	for _, part := range strings.Split(s, ",") {
		if day := strings.ToLower(strings.TrimSpace(part)); day != "" {
			days = append(days, day)
		}
	}
	return days
}

// Directory resolves practitioner references against the store. Lookups
// only return bookable practitioners: verified doctors, and verified
// staff with role "doctor".
type Directory interface {
	// Resolve returns the practitioner behind ref, or a NotFound error
	// if it does not exist or is not bookable.
	Resolve(ctx context.Context, ref PractitionerRef) (*PractitionerView, error)
	// DoctorIDByUser returns the doctor profile id owned by the user,
	// or "" when the user has none.
	DoctorIDByUser(ctx context.Context, userID string) (string, error)
	// StaffDoctorIDByUser returns the staff-doctor profile id owned by
	// the user, or "" when the user has none.
	StaffDoctorIDByUser(ctx context.Context, userID string) (string, error)
}

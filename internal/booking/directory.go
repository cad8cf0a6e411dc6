package booking

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
)

// GormDirectory implements Directory against the doctors, staff and
// clinics tables.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory creates a GormDirectory.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// Resolve looks up a bookable practitioner and flattens both variants
// into the shared PractitionerView. Missing and unverified
// practitioners are indistinguishable to callers: both are NotFound.
func (d *GormDirectory) Resolve(ctx context.Context, ref PractitionerRef) (*PractitionerView, error) {
	switch ref.Kind {
	case PractitionerDoctor:
		var doc models.Doctor
		err := d.db.WithContext(ctx).
			Where("id = ? AND is_verified = ?", ref.ID, true).
			First(&doc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("doctor not available")
		}
		if err != nil {
			return nil, internal("failed to load doctor", err)
		}
		view, err := newView(ref, doc.UserID, doc.FullName, doc.WorkDays, doc.WorkFrom, doc.WorkTo)
		if err != nil {
			return nil, err
		}
		ownedClinic, err := d.approvedClinicOwnedBy(ctx, doc.UserID)
		if err != nil {
			return nil, err
		}
		view.OwnsClinicID = ownedClinic
		return view, nil

	case PractitionerStaff:
		var st models.Staff
		err := d.db.WithContext(ctx).
			Where("id = ? AND role_title = ? AND is_verified = ?", ref.ID, models.StaffRoleDoctor, true).
			First(&st).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("doctor not available")
		}
		if err != nil {
			return nil, internal("failed to load staff doctor", err)
		}
		return newView(ref, st.UserID, st.FullName, st.WorkDays, st.WorkFrom, st.WorkTo)

	default:
		return nil, invalidf("unknown practitioner kind %q", ref.Kind)
	}
}

func newView(ref PractitionerRef, userID, fullName, workDays, workFrom, workTo string) (*PractitionerView, error) {
	from, err := ParseTimeOfDay(workFrom)
	if err != nil {
		return nil, internal("practitioner has malformed work_from", err)
	}
	to, err := ParseTimeOfDay(workTo)
	if err != nil {
		return nil, internal("practitioner has malformed work_to", err)
	}
	return &PractitionerView{
		Ref:      ref,
		UserID:   userID,
		FullName: fullName,
		WorkDays: ParseWorkDays(workDays),
		WorkFrom: from,
		WorkTo:   to,
	}, nil
}

func (d *GormDirectory) approvedClinicOwnedBy(ctx context.Context, userID string) (string, error) {
	var clinic models.Clinic
	err := d.db.WithContext(ctx).
		Select("id").
		Where("owner_user_id = ? AND status = ?", userID, models.ClinicApproved).
		First(&clinic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", internal("failed to load owned clinic", err)
	}
	return clinic.ID, nil
}

// DoctorIDByUser returns the doctor profile id for a user, "" if none.
func (d *GormDirectory) DoctorIDByUser(ctx context.Context, userID string) (string, error) {
	var doc models.Doctor
	err := d.db.WithContext(ctx).Select("id").Take(&doc, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", internal("failed to load doctor", err)
	}
	return doc.ID, nil
}

// StaffDoctorIDByUser returns the staff-doctor profile id for a user,
// "" if none.
func (d *GormDirectory) StaffDoctorIDByUser(ctx context.Context, userID string) (string, error) {
	var st models.Staff
	err := d.db.WithContext(ctx).
		Select("id").
		Where("user_id = ? AND role_title = ?", userID, models.StaffRoleDoctor).
		Take(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", internal("failed to load staff", err)
	}
	return st.ID, nil
}

package booking

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-booking-server/internal/models"
)

// GormStore implements BookingStore on the shared MySQL database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func byPractitioner(q *gorm.DB, ref PractitionerRef) *gorm.DB {
	if ref.Kind == PractitionerDoctor {
		return q.Where("doctor_id = ?", ref.ID)
	}
	return q.Where("staff_id = ?", ref.ID)
}

// ConfirmedForDay returns the confirmed bookings for a practitioner on
// a date, ordered by start time.
func (s *GormStore) ConfirmedForDay(ctx context.Context, ref PractitionerRef, date string) ([]models.Booking, error) {
	var rows []models.Booking
	q := s.db.WithContext(ctx).
		Where("booking_date = ? AND status = ?", date, models.BookingConfirmed)
	q = byPractitioner(q, ref)
	if err := q.Order("booking_from").Find(&rows).Error; err != nil {
		return nil, internal("failed to load bookings", err)
	}
	return rows, nil
}

// Insert admits a booking inside a transaction that serializes
// admissions per practitioner: it first takes a FOR UPDATE lock on the
// practitioner's profile row, then re-runs the overlap query against
// confirmed bookings, then inserts. Two concurrent submissions for the
// same practitioner queue on the row lock, so the loser always sees the
// winner's booking and fails with a conflict.
func (s *GormStore) Insert(ctx context.Context, b *models.Booking) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id")
		var err error
		if b.DoctorID != nil {
			var d models.Doctor
			err = locked.Take(&d, "id = ?", *b.DoctorID).Error
		} else {
			var st models.Staff
			err = locked.Take(&st, "id = ?", *b.StaffID).Error
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("doctor not available")
		}
		if err != nil {
			return internal("failed to lock practitioner", err)
		}

		var overlapping int64
		q := tx.Model(&models.Booking{}).
			Where("booking_date = ? AND status = ?", b.BookingDate, models.BookingConfirmed).
			Where("booking_from < ? AND booking_to > ?", b.BookingTo, b.BookingFrom)
		ref := PractitionerRef{Kind: PractitionerDoctor}
		if b.DoctorID != nil {
			ref.ID = *b.DoctorID
		} else {
			ref = PractitionerRef{Kind: PractitionerStaff, ID: *b.StaffID}
		}
		q = byPractitioner(q, ref)
		if err := q.Count(&overlapping).Error; err != nil {
			return internal("failed to check for overlapping bookings", err)
		}
		if overlapping > 0 {
			return conflictf("this time slot is already booked")
		}

		if err := tx.Create(b).Error; err != nil {
			return internal("failed to create booking", err)
		}
		return nil
	})
}

// Get loads a booking by id.
func (s *GormStore) Get(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("booking not found")
		}
		return nil, internal("failed to load booking", err)
	}
	return &b, nil
}

// SetStatus updates a booking's status.
func (s *GormStore) SetStatus(ctx context.Context, id string, status models.BookingStatus) error {
	res := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return internal("failed to update booking status", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundf("booking not found")
	}
	return nil
}

// StaffClinicID returns the clinic employing the given staff member.
func (s *GormStore) StaffClinicID(ctx context.Context, staffID string) (string, error) {
	var st models.Staff
	if err := s.db.WithContext(ctx).Select("clinic_id").Take(&st, "id = ?", staffID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", notFoundf("staff member not found")
		}
		return "", internal("failed to load staff", err)
	}
	return st.ClinicID, nil
}

package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"clinic-booking-server/internal/models"
)

// BookingStore is the persistence surface the engine needs. The
// concrete implementation must make Insert atomic with respect to
// concurrent inserts for the same practitioner and date (see GormStore).
type BookingStore interface {
	// ConfirmedForDay returns all confirmed bookings for the
	// practitioner on the given "YYYY-MM-DD" date, ordered by start time.
	ConfirmedForDay(ctx context.Context, ref PractitionerRef, date string) ([]models.Booking, error)
	// Insert persists a new booking after re-checking, under a
	// per-practitioner lock, that no confirmed booking overlaps it.
	// Returns a Conflict error when the slot is already taken.
	Insert(ctx context.Context, b *models.Booking) error
	// Get loads a booking by id, NotFound if missing.
	Get(ctx context.Context, id string) (*models.Booking, error)
	// SetStatus updates a booking's status, NotFound if missing.
	SetStatus(ctx context.Context, id string, status models.BookingStatus) error
	// StaffClinicID returns the clinic employing the given staff member.
	StaffClinicID(ctx context.Context, staffID string) (string, error)
}

// Notifier delivers an in-app notification to a user. Delivery
// failures are logged by the engine and never fail the triggering
// operation.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message string) error
}

// Actor is the authenticated principal performing a lifecycle action.
type Actor struct {
	UserID string
	Role   models.Role
}

// Config tunes the engine's slot policy.
type Config struct {
	// SlotDurationMinutes is the fixed booking length. Defaults to 30.
	SlotDurationMinutes int
	// AutoConfirm admits bookings directly as "confirmed". When false,
	// bookings start "pending" and must be confirmed out of band.
	AutoConfirm bool
}

// Service is the booking engine: slot generation, availability
// resolution, admission with conflict detection, and cancellation.
type Service struct {
	store     BookingStore
	directory Directory
	notifier  Notifier
	log       *zap.Logger

	slotMinutes int
	autoConfirm bool
	now         func() time.Time
}

// NewService wires the engine with its collaborators.
func NewService(store BookingStore, directory Directory, notifier Notifier, log *zap.Logger, cfg Config) *Service {
	if cfg.SlotDurationMinutes <= 0 {
		cfg.SlotDurationMinutes = 30
	}
	return &Service{
		store:       store,
		directory:   directory,
		notifier:    notifier,
		log:         log,
		slotMinutes: cfg.SlotDurationMinutes,
		autoConfirm: cfg.AutoConfirm,
		now:         time.Now,
	}
}

const dateLayout = "2006-01-02"

// weekdayShort returns the lowercase three letter weekday name used in
// the stored work_days lists.
func weekdayShort(t time.Time) string {
	return strings.ToLower(t.Weekday().String()[:3])
}

// AvailableSlots returns the free slots for a practitioner on a date:
// the generated working-hour slots minus everything already confirmed.
// A day outside the practitioner's work days yields an empty result,
// not an error.
func (s *Service) AvailableSlots(ctx context.Context, ref PractitionerRef, date string) ([]Slot, error) {
	day, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return nil, invalidf("booking_date must be YYYY-MM-DD")
	}

	view, err := s.directory.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !view.WorksOn(weekdayShort(day)) {
		return []Slot{}, nil
	}

	all := GenerateSlots(view.WorkFrom, view.WorkTo, s.slotMinutes)

	booked, err := s.store.ConfirmedForDay(ctx, ref, date)
	if err != nil {
		return nil, err
	}

	intervals, err := bookedIntervals(booked)
	if err != nil {
		return nil, err
	}

	free := make([]Slot, 0, len(all))
	for _, slot := range all {
		taken := false
		for _, iv := range intervals {
			if Overlaps(slot.From, slot.To, iv.From, iv.To) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, slot)
		}
	}
	return free, nil
}

func bookedIntervals(rows []models.Booking) ([]Slot, error) {
	intervals := make([]Slot, 0, len(rows))
	for _, b := range rows {
		from, err := ParseTimeOfDay(b.BookingFrom)
		if err != nil {
			return nil, internal("stored booking has malformed booking_from", err)
		}
		to, err := ParseTimeOfDay(b.BookingTo)
		if err != nil {
			return nil, internal("stored booking has malformed booking_to", err)
		}
		intervals = append(intervals, Slot{From: from, To: to})
	}
	return intervals, nil
}

// CreateRequest carries a patient's booking submission. Exactly one of
// DoctorID/StaffID must be set.
type CreateRequest struct {
	PatientUserID string
	DoctorID      string
	StaffID       string
	Date          string // YYYY-MM-DD
	From          string // HH:mm
}

// Create validates and admits a new booking. The schedule checks
// (work day, working-hours window) run here; the final overlap check
// runs inside the store under a per-practitioner lock so that two
// concurrent submissions can never both be admitted.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	ref, err := NewPractitionerRef(req.DoctorID, req.StaffID)
	if err != nil {
		return nil, err
	}
	if req.Date == "" || req.From == "" {
		return nil, invalidf("booking_date and booking_from are required")
	}

	day, err := time.ParseInLocation(dateLayout, req.Date, time.Local)
	if err != nil {
		return nil, invalidf("booking_date must be YYYY-MM-DD")
	}
	from, err := ParseTimeOfDay(req.From)
	if err != nil {
		return nil, invalidf("booking_from must be HH:mm")
	}
	to := from.Add(s.slotMinutes)
	if to > TimeOfDay(24*60) {
		return nil, invalidf("invalid booking time")
	}

	start := day.Add(time.Duration(from) * time.Minute)
	if !start.After(s.now()) {
		return nil, invalidf("booking time is in the past")
	}

	view, err := s.directory.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if ref.Kind == PractitionerDoctor && view.OwnsClinicID != "" {
		return nil, forbiddenf("this doctor owns a clinic, book through clinic staff instead")
	}

	if !view.WorksOn(weekdayShort(day)) {
		return nil, invalidf("doctor does not work on this day")
	}
	if from < view.WorkFrom || to > view.WorkTo {
		return nil, invalidf("invalid booking time")
	}

	status := models.BookingConfirmed
	if !s.autoConfirm {
		status = models.BookingPending
	}

	b := &models.Booking{
		PatientUserID: req.PatientUserID,
		BookingDate:   req.Date,
		BookingFrom:   from.String(),
		BookingTo:     to.String(),
		Status:        status,
	}
	switch ref.Kind {
	case PractitionerDoctor:
		id := ref.ID
		b.DoctorID = &id
	case PractitionerStaff:
		id := ref.ID
		b.StaffID = &id
	}

	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}

	s.notify(ctx, view.UserID, "New Booking",
		fmt.Sprintf("New booking on %s from %s to %s", b.BookingDate, b.BookingFrom, b.BookingTo))

	return b, nil
}

// Cancel transitions a booking to cancelled. Allowed actors: the
// booking's patient, and the practitioner the booking targets.
// Cancelling an already-cancelled booking is a conflict, not a no-op,
// so client bugs surface.
func (s *Service) Cancel(ctx context.Context, bookingID string, actor Actor) error {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status == models.BookingCancelled {
		return conflictf("booking already cancelled")
	}

	authorized := false
	switch actor.Role {
	case models.RolePatient:
		authorized = b.PatientUserID == actor.UserID
	case models.RoleDoctor:
		if b.DoctorID != nil {
			doctorID, err := s.directory.DoctorIDByUser(ctx, actor.UserID)
			if err != nil {
				return err
			}
			authorized = doctorID != "" && doctorID == *b.DoctorID
		}
	case models.RoleStaff:
		if b.StaffID != nil {
			staffID, err := s.directory.StaffDoctorIDByUser(ctx, actor.UserID)
			if err != nil {
				return err
			}
			authorized = staffID != "" && staffID == *b.StaffID
		}
	}
	if !authorized {
		return forbiddenf("you are not allowed to cancel this booking")
	}

	if err := s.store.SetStatus(ctx, bookingID, models.BookingCancelled); err != nil {
		return err
	}

	s.notify(ctx, b.PatientUserID, "Booking Cancelled", "Your booking has been cancelled.")
	return nil
}

// CancelForClinic cancels a staff booking on behalf of the clinic that
// employs the staff member. Bookings of independent doctors are not
// visible to clinics.
func (s *Service) CancelForClinic(ctx context.Context, bookingID, clinicID string) error {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.StaffID == nil {
		return notFoundf("booking not found")
	}

	staffClinic, err := s.store.StaffClinicID(ctx, *b.StaffID)
	if err != nil {
		return err
	}
	if staffClinic != clinicID {
		return forbiddenf("booking does not belong to your clinic")
	}
	if b.Status == models.BookingCancelled {
		return conflictf("booking already cancelled")
	}

	if err := s.store.SetStatus(ctx, bookingID, models.BookingCancelled); err != nil {
		return err
	}

	s.notify(ctx, b.PatientUserID, "Booking Cancelled", "Your booking has been cancelled by the clinic.")
	return nil
}

// notify is fire-and-forget: a failed notification is logged and never
// rolls back the operation that triggered it.
func (s *Service) notify(ctx context.Context, userID, title, message string) {
	if err := s.notifier.Notify(ctx, userID, title, message); err != nil {
		s.log.Error("notification delivery failed",
			zap.String("user_id", userID),
			zap.String("title", title),
			zap.Error(err))
	}
}

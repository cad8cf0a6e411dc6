package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic-booking-server/internal/models"
)

// fakeStore keeps bookings in memory. Insert re-checks overlaps under a
// mutex, mirroring the per-practitioner lock the real store takes.
type fakeStore struct {
	mu          sync.Mutex
	bookings    map[string]*models.Booking
	staffClinic map[string]string
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bookings:    map[string]*models.Booking{},
		staffClinic: map[string]string{},
	}
}

func refOf(b *models.Booking) PractitionerRef {
	if b.DoctorID != nil {
		return PractitionerRef{Kind: PractitionerDoctor, ID: *b.DoctorID}
	}
	return PractitionerRef{Kind: PractitionerStaff, ID: *b.StaffID}
}

func (s *fakeStore) ConfirmedForDay(_ context.Context, ref PractitionerRef, date string) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []models.Booking
	for _, b := range s.bookings {
		if b.Status == models.BookingConfirmed && b.BookingDate == date && refOf(b) == ref {
			rows = append(rows, *b)
		}
	}
	return rows, nil
}

func (s *fakeStore) Insert(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bookings {
		if existing.Status != models.BookingConfirmed ||
			existing.BookingDate != b.BookingDate ||
			refOf(existing) != refOf(b) {
			continue
		}
		if existing.BookingFrom < b.BookingTo && existing.BookingTo > b.BookingFrom {
			return conflictf("this time slot is already booked")
		}
	}
	s.nextID++
	b.ID = fmt.Sprintf("b%d", s.nextID)
	s.bookings[b.ID] = b
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, notFoundf("booking not found")
	}
	copied := *b
	return &copied, nil
}

func (s *fakeStore) SetStatus(_ context.Context, id string, status models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return notFoundf("booking not found")
	}
	b.Status = status
	return nil
}

func (s *fakeStore) StaffClinicID(_ context.Context, staffID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clinicID, ok := s.staffClinic[staffID]
	if !ok {
		return "", notFoundf("staff member not found")
	}
	return clinicID, nil
}

type fakeDirectory struct {
	views        map[PractitionerRef]*PractitionerView
	doctorByUser map[string]string
	staffByUser  map[string]string
}

func (d *fakeDirectory) Resolve(_ context.Context, ref PractitionerRef) (*PractitionerView, error) {
	v, ok := d.views[ref]
	if !ok {
		return nil, notFoundf("doctor not available")
	}
	return v, nil
}

func (d *fakeDirectory) DoctorIDByUser(_ context.Context, userID string) (string, error) {
	return d.doctorByUser[userID], nil
}

func (d *fakeDirectory) StaffDoctorIDByUser(_ context.Context, userID string) (string, error) {
	return d.staffByUser[userID], nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	fails bool
}

func (n *fakeNotifier) Notify(_ context.Context, userID, title, _ string) error {
	if n.fails {
		return errors.New("smtp down")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, userID+"/"+title)
	return nil
}

// 2026-01-05 is a Monday.
const (
	testDate = "2026-01-05"
	doctorID = "doc-1"
)

func doctorRef() PractitionerRef {
	return PractitionerRef{Kind: PractitionerDoctor, ID: doctorID}
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeDirectory, *fakeNotifier) {
	t.Helper()
	store := newFakeStore()
	workFrom, err := ParseTimeOfDay("09:00")
	require.NoError(t, err)
	workTo, err := ParseTimeOfDay("12:00")
	require.NoError(t, err)
	dir := &fakeDirectory{
		views: map[PractitionerRef]*PractitionerView{
			doctorRef(): {
				Ref:      doctorRef(),
				UserID:   "user-doc-1",
				FullName: "Dr. Aisha",
				WorkDays: []string{"mon", "wed", "fri"},
				WorkFrom: workFrom,
				WorkTo:   workTo,
			},
		},
		doctorByUser: map[string]string{"user-doc-1": doctorID},
		staffByUser:  map[string]string{},
	}
	notifier := &fakeNotifier{}
	svc := NewService(store, dir, notifier, zap.NewNop(), Config{SlotDurationMinutes: 30, AutoConfirm: true})
	svc.now = func() time.Time {
		return time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local)
	}
	return svc, store, dir, notifier
}

func mustCreate(t *testing.T, svc *Service, from string) *models.Booking {
	t.Helper()
	b, err := svc.Create(context.Background(), CreateRequest{
		PatientUserID: "patient-1",
		DoctorID:      doctorID,
		Date:          testDate,
		From:          from,
	})
	require.NoError(t, err)
	return b
}

func TestAvailableSlotsFullDay(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	slots, err := svc.AvailableSlots(context.Background(), doctorRef(), testDate)
	require.NoError(t, err)
	require.Len(t, slots, 6)
	assert.Equal(t, "09:00", slots[0].From.String())
	assert.Equal(t, "11:30", slots[5].From.String())
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	mustCreate(t, svc, "09:30")

	slots, err := svc.AvailableSlots(context.Background(), doctorRef(), testDate)
	require.NoError(t, err)
	require.Len(t, slots, 5)
	for _, slot := range slots {
		assert.NotEqual(t, "09:30", slot.From.String())
	}
}

func TestAvailableSlotsOffDayIsEmpty(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	// 2026-01-06 is a Tuesday, outside mon/wed/fri.
	slots, err := svc.AvailableSlots(context.Background(), doctorRef(), "2026-01-06")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsBadDate(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.AvailableSlots(context.Background(), doctorRef(), "05-01-2026")
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}

func TestAvailableSlotsUnknownPractitioner(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.AvailableSlots(context.Background(), PractitionerRef{Kind: PractitionerDoctor, ID: "ghost"}, testDate)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCreateBooking(t *testing.T) {
	svc, _, _, notifier := newTestService(t)

	b := mustCreate(t, svc, "09:00")
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.Equal(t, "09:00", b.BookingFrom)
	assert.Equal(t, "09:30", b.BookingTo)
	require.NotNil(t, b.DoctorID)
	assert.Equal(t, doctorID, *b.DoctorID)
	assert.Nil(t, b.StaffID)
	assert.Equal(t, []string{"user-doc-1/New Booking"}, notifier.sent)
}

func TestCreatePendingWhenAutoConfirmOff(t *testing.T) {
	svc, store, dir, notifier := newTestService(t)
	pending := NewService(store, dir, notifier, zap.NewNop(), Config{SlotDurationMinutes: 30, AutoConfirm: false})
	pending.now = svc.now

	b, err := pending.Create(context.Background(), CreateRequest{
		PatientUserID: "patient-1",
		DoctorID:      doctorID,
		Date:          testDate,
		From:          "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateRequest
		kind Kind
	}{
		{"no practitioner", CreateRequest{PatientUserID: "p", Date: testDate, From: "09:00"}, KindInvalidArgument},
		{"both practitioners", CreateRequest{PatientUserID: "p", DoctorID: "d", StaffID: "s", Date: testDate, From: "09:00"}, KindInvalidArgument},
		{"missing date", CreateRequest{PatientUserID: "p", DoctorID: doctorID, From: "09:00"}, KindInvalidArgument},
		{"bad date", CreateRequest{PatientUserID: "p", DoctorID: doctorID, Date: "not-a-date", From: "09:00"}, KindInvalidArgument},
		{"bad time", CreateRequest{PatientUserID: "p", DoctorID: doctorID, Date: testDate, From: "9am"}, KindInvalidArgument},
		{"past time", CreateRequest{PatientUserID: "p", DoctorID: doctorID, Date: "2025-12-29", From: "09:00"}, KindInvalidArgument},
		{"before hours", CreateRequest{PatientUserID: "p", DoctorID: doctorID, Date: testDate, From: "08:30"}, KindInvalidArgument},
		{"slot past closing", CreateRequest{PatientUserID: "p", DoctorID: doctorID, Date: testDate, From: "11:45"}, KindInvalidArgument},
		{"off day", CreateRequest{PatientUserID: "p", DoctorID: doctorID, Date: "2026-01-06", From: "09:00"}, KindInvalidArgument},
		{"slot past midnight", CreateRequest{PatientUserID: "p", DoctorID: doctorID, Date: testDate, From: "23:45"}, KindInvalidArgument},
		{"unknown doctor", CreateRequest{PatientUserID: "p", DoctorID: "ghost", Date: testDate, From: "09:00"}, KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err))
		})
	}
}

func TestCreateRejectsClinicOwner(t *testing.T) {
	svc, _, dir, _ := newTestService(t)
	dir.views[doctorRef()].OwnsClinicID = "clinic-1"

	_, err := svc.Create(context.Background(), CreateRequest{
		PatientUserID: "patient-1",
		DoctorID:      doctorID,
		Date:          testDate,
		From:          "09:00",
	})
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestCreateConflict(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	mustCreate(t, svc, "09:00")

	_, err := svc.Create(context.Background(), CreateRequest{
		PatientUserID: "patient-2",
		DoctorID:      doctorID,
		Date:          testDate,
		From:          "09:00",
	})
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestCreateConcurrentSameSlot(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), CreateRequest{
				PatientUserID: fmt.Sprintf("patient-%d", i),
				DoctorID:      doctorID,
				Date:          testDate,
				From:          "10:00",
			})
		}(i)
	}
	wg.Wait()

	var conflicts, successes int
	for _, err := range errs {
		if err == nil {
			successes++
		} else if KindOf(err) == KindConflict {
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Len(t, store.bookings, 1)
}

func TestCreateSurvivesNotifierFailure(t *testing.T) {
	svc, _, _, notifier := newTestService(t)
	notifier.fails = true

	b := mustCreate(t, svc, "09:00")
	assert.Equal(t, models.BookingConfirmed, b.Status)
}

func TestCancelByPatient(t *testing.T) {
	svc, store, _, notifier := newTestService(t)
	b := mustCreate(t, svc, "09:00")

	err := svc.Cancel(context.Background(), b.ID, Actor{UserID: "patient-1", Role: models.RolePatient})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, store.bookings[b.ID].Status)
	assert.Contains(t, notifier.sent, "patient-1/Booking Cancelled")
}

func TestCancelByDoctor(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	b := mustCreate(t, svc, "09:00")

	err := svc.Cancel(context.Background(), b.ID, Actor{UserID: "user-doc-1", Role: models.RoleDoctor})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, store.bookings[b.ID].Status)
}

func TestCancelAuthorization(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	b := mustCreate(t, svc, "09:00")
	ctx := context.Background()

	cases := []struct {
		name  string
		actor Actor
	}{
		{"other patient", Actor{UserID: "patient-2", Role: models.RolePatient}},
		{"other doctor", Actor{UserID: "user-doc-2", Role: models.RoleDoctor}},
		{"staff on doctor booking", Actor{UserID: "user-staff-1", Role: models.RoleStaff}},
		{"admin has no cancel path", Actor{UserID: "admin-1", Role: models.RoleAdmin}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Cancel(ctx, b.ID, tc.actor)
			assert.Equal(t, KindForbidden, KindOf(err))
		})
	}
}

func TestCancelAlreadyCancelled(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	b := mustCreate(t, svc, "09:00")
	actor := Actor{UserID: "patient-1", Role: models.RolePatient}
	ctx := context.Background()

	require.NoError(t, svc.Cancel(ctx, b.ID, actor))
	err := svc.Cancel(ctx, b.ID, actor)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestCancelMissingBooking(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.Cancel(context.Background(), "ghost", Actor{UserID: "patient-1", Role: models.RolePatient})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCancelCancelledSlotReopens(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	b := mustCreate(t, svc, "09:00")
	require.NoError(t, svc.Cancel(context.Background(), b.ID, Actor{UserID: "patient-1", Role: models.RolePatient}))

	slots, err := svc.AvailableSlots(context.Background(), doctorRef(), testDate)
	require.NoError(t, err)
	assert.Len(t, slots, 6)

	mustCreate(t, svc, "09:00")
}

func staffTestService(t *testing.T) (*Service, *fakeStore, PractitionerRef) {
	t.Helper()
	svc, store, dir, _ := newTestService(t)
	ref := PractitionerRef{Kind: PractitionerStaff, ID: "staff-1"}
	workFrom, _ := ParseTimeOfDay("09:00")
	workTo, _ := ParseTimeOfDay("12:00")
	dir.views[ref] = &PractitionerView{
		Ref:      ref,
		UserID:   "user-staff-1",
		FullName: "Dr. Omar",
		WorkDays: []string{"mon"},
		WorkFrom: workFrom,
		WorkTo:   workTo,
	}
	dir.staffByUser["user-staff-1"] = "staff-1"
	store.staffClinic["staff-1"] = "clinic-1"
	return svc, store, ref
}

func TestCancelForClinic(t *testing.T) {
	svc, store, _ := staffTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, CreateRequest{
		PatientUserID: "patient-1",
		StaffID:       "staff-1",
		Date:          testDate,
		From:          "09:00",
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelForClinic(ctx, b.ID, "clinic-1"))
	assert.Equal(t, models.BookingCancelled, store.bookings[b.ID].Status)

	err = svc.CancelForClinic(ctx, b.ID, "clinic-1")
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestCancelForClinicWrongClinic(t *testing.T) {
	svc, _, _ := staffTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, CreateRequest{
		PatientUserID: "patient-1",
		StaffID:       "staff-1",
		Date:          testDate,
		From:          "09:00",
	})
	require.NoError(t, err)

	err = svc.CancelForClinic(ctx, b.ID, "clinic-2")
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestCancelForClinicDoctorBookingHidden(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	b := mustCreate(t, svc, "09:00")

	err := svc.CancelForClinic(context.Background(), b.ID, "clinic-1")
	assert.Equal(t, KindNotFound, KindOf(err))
}

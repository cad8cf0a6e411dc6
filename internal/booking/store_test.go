package booking

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewGormStore(db), mock
}

func strPtr(s string) *string { return &s }

func TestConfirmedForDayQuery(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "doctor_id", "booking_date", "booking_from", "booking_to", "status"}).
		AddRow("b1", "doc-1", "2026-01-05", "09:00", "09:30", "confirmed").
		AddRow("b2", "doc-1", "2026-01-05", "10:00", "10:30", "confirmed")
	mock.ExpectQuery("SELECT (.+) FROM `bookings` WHERE booking_date = (.+) AND status = (.+) AND doctor_id = (.+) ORDER BY booking_from").
		WithArgs("2026-01-05", "confirmed", "doc-1").
		WillReturnRows(rows)

	got, err := store.ConfirmedForDay(context.Background(), doctorRef(), "2026-01-05")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "09:00", got[0].BookingFrom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTakesLockAndChecksOverlap(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `doctors` WHERE id = (.+) FOR UPDATE").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `bookings` WHERE booking_date = (.+) AND status = (.+) AND \\(booking_from < (.+) AND booking_to > (.+)\\) AND doctor_id = (.+)").
		WithArgs("2026-01-05", "confirmed", "09:30", "09:00", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectExec("INSERT INTO `bookings`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.Insert(context.Background(), &models.Booking{
		PatientUserID: "patient-1",
		DoctorID:      strPtr("doc-1"),
		BookingDate:   "2026-01-05",
		BookingFrom:   "09:00",
		BookingTo:     "09:30",
		Status:        models.BookingConfirmed,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertConflictRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `doctors` WHERE id = (.+) FOR UPDATE").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `bookings`").
		WithArgs("2026-01-05", "confirmed", "09:30", "09:00", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectRollback()

	err := store.Insert(context.Background(), &models.Booking{
		PatientUserID: "patient-1",
		DoctorID:      strPtr("doc-1"),
		BookingDate:   "2026-01-05",
		BookingFrom:   "09:00",
		BookingTo:     "09:30",
		Status:        models.BookingConfirmed,
	})
	assert.Equal(t, KindConflict, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertUnknownPractitioner(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `staff` WHERE id = (.+) FOR UPDATE").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := store.Insert(context.Background(), &models.Booking{
		PatientUserID: "patient-1",
		StaffID:       strPtr("ghost"),
		BookingDate:   "2026-01-05",
		BookingFrom:   "09:00",
		BookingTo:     "09:30",
		Status:        models.BookingConfirmed,
	})
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusMissingBooking(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `bookings` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := store.SetStatus(context.Background(), "ghost", models.BookingCancelled)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

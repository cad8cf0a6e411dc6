package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-booking-server/internal/config"
	"clinic-booking-server/internal/models"
)

func profileTestRouter(db *gorm.DB, role models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(db, &config.Config{}, zap.NewNop())
	r := gin.New()
	r.PATCH("/auth/profile", func(c *gin.Context) {
		c.Set("userID", "user-1")
		c.Set("userRole", role)
		h.UpdateProfile(c)
	})
	return r
}

func patchProfile(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/auth/profile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateProfilePatient(t *testing.T) {
	db, mock := newMockDB(t)
	r := profileTestRouter(db, models.RolePatient)

	mock.ExpectQuery("SELECT (.+) FROM `patient_profiles` WHERE user_id = (.+)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "full_name", "phone"}).
			AddRow("p-1", "user-1", "Old Name", "111"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `patient_profiles` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := patchProfile(r, `{"fullName":"New Name","phone":"222"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fullName":"New Name"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileValidation(t *testing.T) {
	db, _ := newMockDB(t)
	r := profileTestRouter(db, models.RoleDoctor)

	cases := []struct {
		name string
		body string
	}{
		{"bad workFrom", `{"workFrom":"9am"}`},
		{"bad workTo", `{"workTo":"25:00"}`},
		{"inverted window", `{"workFrom":"12:00","workTo":"09:00"}`},
		{"empty workDays", `{"workDays":" , "}`},
		{"bad fullName", `{"fullName":"x"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := patchProfile(r, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUpdateProfileNoData(t *testing.T) {
	db, mock := newMockDB(t)
	r := profileTestRouter(db, models.RolePatient)

	mock.ExpectQuery("SELECT (.+) FROM `patient_profiles` WHERE user_id = (.+)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "full_name"}).
			AddRow("p-1", "user-1", "Name"))

	w := patchProfile(r, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProfileStaffScheduleGate(t *testing.T) {
	db, mock := newMockDB(t)
	r := profileTestRouter(db, models.RoleStaff)

	// A receptionist cannot touch schedule fields.
	mock.ExpectQuery("SELECT (.+) FROM `staff` WHERE user_id = (.+)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "full_name", "role_title"}).
			AddRow("s-1", "user-1", "Reception", "receptionist"))

	w := patchProfile(r, `{"workDays":"mon,tue","workFrom":"09:00","workTo":"17:00"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Only staff doctors")
}

func TestUpdateProfileStaffDoctorSchedule(t *testing.T) {
	db, mock := newMockDB(t)
	r := profileTestRouter(db, models.RoleStaff)

	mock.ExpectQuery("SELECT (.+) FROM `staff` WHERE user_id = (.+)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "full_name", "role_title"}).
			AddRow("s-1", "user-1", "Dr. Omar", "doctor"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `staff` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := patchProfile(r, `{"workDays":"mon,tue","workFrom":"09:00","workTo":"17:00"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

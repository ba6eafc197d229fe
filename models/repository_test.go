package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockRepository(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewPostgresRepositoryWithDB(db), mock
}

func TestPostgresRepository_LoadEmpty(t *testing.T) {
	repo, mock := setupMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "clinic_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "doctor_name", "address", "phone"}))

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Load(t *testing.T) {
	repo, mock := setupMockRepository(t)
	registered := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "clinic_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "doctor_name", "address", "phone"}).
			AddRow(1, "Nile Clinic", "Dr. Hala", "Cairo", "0200"))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"role", "username", "password"}).
			AddRow("doctor", "hala", "d-pass").
			AddRow("secretary", "omar", "s-pass"))
	mock.ExpectQuery(`SELECT \* FROM "patients" ORDER BY position`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "position", "name", "phone", "address", "registration_date", "last_visit"}).
			AddRow("p1", 0, "Sara", "0100", "Giza", registered, nil).
			AddRow("p2", 1, "Mona", "0111", "Cairo", registered, nil))
	mock.ExpectQuery(`SELECT \* FROM "appointments" ORDER BY position`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "position", "patient_id", "appointment_date", "visit_kind", "booking_kind", "status"}).
			AddRow("a1", 0, "p1", registered, "new", "phone", "unconfirmed"))
	mock.ExpectQuery(`SELECT \* FROM "follow_ups" ORDER BY position`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "position", "patient_id", "type"}))
	mock.ExpectQuery(`SELECT \* FROM "payments" ORDER BY position`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "position", "patient_id", "appointment_id", "amount", "description", "date"}))

	s, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Nile Clinic", s.ClinicSettings.Name)
	assert.Equal(t, "hala", s.Users.Doctor.Username)
	assert.Equal(t, "s-pass", s.Users.Secretary.Password)
	require.Len(t, s.Patients, 2)
	assert.Equal(t, "p1", s.Patients[0].ID)
	assert.Nil(t, s.Patients[0].LastVisit)
	require.Len(t, s.Appointments, 1)
	assert.Equal(t, BookingPhone, s.Appointments[0].BookingKind)
	assert.Equal(t, StatusUnconfirmed, s.Appointments[0].Status)
	assert.NotNil(t, s.FollowUps)
	assert.NotNil(t, s.Payments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Save(t *testing.T) {
	repo, mock := setupMockRepository(t)

	s := NewSnapshot()
	s.Patients = append(s.Patients, Patient{ID: "p1", Name: "Sara", Phone: "0100", RegistrationDate: time.Now()})

	mock.ExpectBegin()
	for _, table := range []string{"patients", "appointments", "follow_ups", "payments", "users", "clinic_settings"} {
		mock.ExpectExec(`DELETE FROM "` + table + `"`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(`INSERT INTO "patients"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO "clinic_settings"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_SaveRollsBack(t *testing.T) {
	repo, mock := setupMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "patients"`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Save(context.Background(), NewSnapshot())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Ping(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	repo := NewPostgresRepositoryWithDB(db)

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	assert.NoError(t, repo.Ping(context.Background()))
	assert.Error(t, repo.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-management/models"
)

var cairo = time.FixedZone("EET", 2*60*60)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recordingPublisher) Publish(e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingPublisher) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Event
	}
	return kinds
}

// flakyBackend fails every save while failSaves is set.
type flakyBackend struct {
	*models.MemoryStore
	failSaves bool
	saves     int
}

func (f *flakyBackend) Save(ctx context.Context, s *models.Snapshot) error {
	f.saves++
	if f.failSaves {
		return errors.New("backend unavailable")
	}
	return f.MemoryStore.Save(ctx, s)
}

type fixture struct {
	store   *Store
	backend *flakyBackend
	events  *recordingPublisher
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend: &flakyBackend{MemoryStore: models.NewMemoryStore()},
		events:  &recordingPublisher{},
		now:     time.Date(2026, 10, 19, 9, 0, 0, 0, cairo),
	}
	seq := 0
	f.store = New(f.backend,
		WithClock(func() time.Time { return f.now }),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
		WithEvents(f.events),
	)
	return f
}

func (f *fixture) patient(t *testing.T, name, phone string) string {
	t.Helper()
	id, err := f.store.AddOrFindPatient(context.Background(), models.Patient{Name: name, Phone: phone})
	require.NoError(t, err)
	return id
}

func (f *fixture) appointment(t *testing.T, patientID string, at time.Time, booking models.BookingKind, status models.AppointmentStatus) string {
	t.Helper()
	id, err := f.store.AddAppointment(context.Background(), models.Appointment{
		PatientID:       patientID,
		AppointmentDate: at,
		VisitKind:       models.VisitNew,
		BookingKind:     booking,
		Status:          status,
	})
	require.NoError(t, err)
	return id
}

func TestOpen_EmptyBackendUsesDefaults(t *testing.T) {
	s, err := Open(context.Background(), models.NewMemoryStore())
	require.NoError(t, err)

	assert.Empty(t, s.Patients())
	assert.Equal(t, models.DefaultUsers(), s.Users())
	assert.Equal(t, models.DefaultClinicSettings(), s.Settings())
}

func TestAddOrFindPatient_DeduplicatesByPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.store.AddOrFindPatient(ctx, models.Patient{Name: "Sara Ali", Phone: "0100", Address: "Giza"})
	require.NoError(t, err)
	second, err := f.store.AddOrFindPatient(ctx, models.Patient{Name: "Someone Else", Phone: "0100", Address: "Alex"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	patients := f.store.Patients()
	require.Len(t, patients, 1)
	assert.Equal(t, "Sara Ali", patients[0].Name)
	assert.Equal(t, "Giza", patients[0].Address)
	assert.Equal(t, f.now, patients[0].RegistrationDate)
	assert.Nil(t, patients[0].LastVisit)
	assert.Equal(t, 1, f.backend.saves)
}

func TestAddOrFindPatient_PhoneMatchIsExact(t *testing.T) {
	f := newFixture(t)

	a := f.patient(t, "A", "0100")
	b := f.patient(t, "B", "0100 ")

	assert.NotEqual(t, a, b)
	assert.Len(t, f.store.Patients(), 2)
}

func TestUpdatePatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.patient(t, "Sara", "0100")

	address := "Maadi"
	ok, err := f.store.UpdatePatient(ctx, id, models.PatientUpdate{Address: &address})
	require.NoError(t, err)
	assert.True(t, ok)

	p, found := f.store.FindPatientByID(id)
	require.True(t, found)
	assert.Equal(t, "Maadi", p.Address)
	assert.Equal(t, "Sara", p.Name)
}

func TestUpdate_MissingIDIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.patient(t, "Sara", "0100")
	savesBefore := f.backend.saves
	before := f.store.Snapshot()

	name := "ghost"
	ok, err := f.store.UpdatePatient(ctx, "missing", models.PatientUpdate{Name: &name})
	require.NoError(t, err)
	assert.False(t, ok)

	status := models.StatusConfirmed
	ok, err = f.store.UpdateAppointment(ctx, "missing", models.AppointmentUpdate{Status: &status})
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, before, f.store.Snapshot())
	assert.Equal(t, savesBefore, f.backend.saves)
}

func TestUpdateAppointment_ConfirmSetsLastVisit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patientID := f.patient(t, "Sara", "0100")
	date := time.Date(2026, 10, 19, 11, 0, 0, 0, cairo)
	apptID := f.appointment(t, patientID, date, models.BookingClinic, models.StatusUnconfirmed)

	confirmed := models.StatusConfirmed
	ok, err := f.store.UpdateAppointment(ctx, apptID, models.AppointmentUpdate{Status: &confirmed})
	require.NoError(t, err)
	require.True(t, ok)

	p, _ := f.store.FindPatientByID(patientID)
	require.NotNil(t, p.LastVisit)
	assert.True(t, p.LastVisit.Equal(date))

	a, _ := f.store.AppointmentByID(apptID)
	assert.Equal(t, models.StatusConfirmed, a.Status)

	assert.Equal(t, []string{
		models.EventPatientCreated,
		models.EventAppointmentCreated,
		models.EventAppointmentUpdated,
		models.EventPatientUpdated,
	}, f.events.kinds())
}

func TestUpdateAppointment_ConfirmWithMissingPatientKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	apptID := f.appointment(t, "nobody", f.now, models.BookingClinic, models.StatusUnconfirmed)

	confirmed := models.StatusConfirmed
	ok, err := f.store.UpdateAppointment(ctx, apptID, models.AppointmentUpdate{Status: &confirmed})
	require.NoError(t, err)
	assert.True(t, ok)

	a, _ := f.store.AppointmentByID(apptID)
	assert.Equal(t, models.StatusConfirmed, a.Status)
}

func TestUpdateAppointment_CancelDoesNotTouchLastVisit(t *testing.T) {
	f := newFixture(t)
	patientID := f.patient(t, "Sara", "0100")
	apptID := f.appointment(t, patientID, f.now, models.BookingClinic, models.StatusUnconfirmed)

	cancelled := models.StatusCancelled
	ok, err := f.store.UpdateAppointment(context.Background(), apptID, models.AppointmentUpdate{Status: &cancelled})
	require.NoError(t, err)
	assert.True(t, ok)

	p, _ := f.store.FindPatientByID(patientID)
	assert.Nil(t, p.LastVisit)
}

func TestAppointmentsByDate_DayEdges(t *testing.T) {
	f := newFixture(t)
	patientID := f.patient(t, "Sara", "0100")
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, cairo)

	start := f.appointment(t, patientID, day, models.BookingClinic, models.StatusUnconfirmed)
	end := f.appointment(t, patientID, day.Add(24*time.Hour-time.Millisecond), models.BookingClinic, models.StatusUnconfirmed)
	f.appointment(t, patientID, day.Add(24*time.Hour), models.BookingClinic, models.StatusUnconfirmed)

	got := f.store.AppointmentsByDate(time.Date(2026, 10, 19, 15, 0, 0, 0, cairo))

	require.Len(t, got, 2)
	assert.Equal(t, start, got[0].ID)
	assert.Equal(t, end, got[1].ID)
}

func TestDueForReminder_Window(t *testing.T) {
	f := newFixture(t)
	patientID := f.patient(t, "Sara", "0100")
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, cairo)

	inside := f.appointment(t, patientID, now.Add(14*time.Minute+59*time.Second), models.BookingPhone, models.StatusUnconfirmed)
	edge := f.appointment(t, patientID, now.Add(ReminderWindow), models.BookingPhone, models.StatusUnconfirmed)
	f.appointment(t, patientID, now.Add(15*time.Minute+time.Second), models.BookingPhone, models.StatusUnconfirmed)
	f.appointment(t, patientID, now, models.BookingPhone, models.StatusUnconfirmed)
	f.appointment(t, patientID, now.Add(5*time.Minute), models.BookingPhone, models.StatusConfirmed)
	f.appointment(t, patientID, now.Add(5*time.Minute), models.BookingClinic, models.StatusUnconfirmed)

	due := f.store.DueForReminder(now)

	require.Len(t, due, 2)
	assert.Equal(t, inside, due[0].ID)
	assert.Equal(t, edge, due[1].ID)
}

func TestSearchPatients(t *testing.T) {
	f := newFixture(t)
	f.patient(t, "Sara Ali", "01001234")
	f.patient(t, "Mona Adel", "01119876")
	f.patient(t, "Salma Hassan", "01225555")

	byName := f.store.SearchPatients("sa")
	require.Len(t, byName, 2)
	assert.Equal(t, "Sara Ali", byName[0].Name)
	assert.Equal(t, "Salma Hassan", byName[1].Name)

	byPhone := f.store.SearchPatients("9876")
	require.Len(t, byPhone, 1)
	assert.Equal(t, "Mona Adel", byPhone[0].Name)

	assert.Empty(t, f.store.SearchPatients("zzz"))
	assert.Len(t, f.store.SearchPatients(""), 3)
}

func TestFollowUpsAndPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patientID := f.patient(t, "Sara", "0100")
	other := f.patient(t, "Mona", "0111")

	_, err := f.store.AddFollowUp(ctx, models.FollowUp{PatientID: patientID, Type: models.FollowUpOvulation, CycleDay: "12"})
	require.NoError(t, err)
	_, err = f.store.AddFollowUp(ctx, models.FollowUp{PatientID: other, Type: models.FollowUpPregnancy})
	require.NoError(t, err)

	notes := f.store.FollowUpsByPatient(patientID)
	require.Len(t, notes, 1)
	assert.Equal(t, "12", notes[0].CycleDay)
	assert.Equal(t, f.now, notes[0].CreatedAt)

	_, err = f.store.AddPayment(ctx, models.Payment{PatientID: patientID, Amount: 100})
	require.NoError(t, err)
	f.now = f.now.Add(48 * time.Hour)
	_, err = f.store.AddPayment(ctx, models.Payment{PatientID: patientID, Amount: 40})
	require.NoError(t, err)

	day := time.Date(2026, 10, 19, 0, 0, 0, 0, cairo)
	assert.Len(t, f.store.PaymentsByDateRange(day, day), 1)
	assert.Len(t, f.store.PaymentsByDateRange(day, day.Add(48*time.Hour)), 2)
	assert.Len(t, f.store.Payments(), 2)
}

func TestFailedSaveLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	f.patient(t, "Sara", "0100")
	f.backend.failSaves = true
	published := len(f.events.kinds())

	_, err := f.store.AddOrFindPatient(context.Background(), models.Patient{Name: "Mona", Phone: "0111"})
	require.Error(t, err)

	assert.Len(t, f.store.Patients(), 1)
	assert.Len(t, f.events.kinds(), published)
}

func TestSettingsPasswordsAndReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.patient(t, "Sara", "0100")

	settings := models.ClinicSettings{Name: "Nile Clinic", DoctorName: "Dr. Hala", Address: "Cairo", Phone: "0200"}
	require.NoError(t, f.store.SaveSettings(ctx, settings))
	assert.Equal(t, settings, f.store.Settings())

	ok, err := f.store.UpdateUserPassword(ctx, models.RoleDoctor, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "s3cret", f.store.Users().Doctor.Password)

	ok, err = f.store.UpdateUserPassword(ctx, models.Role("nurse"), "x")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.store.FactoryReset(ctx))
	assert.Empty(t, f.store.Patients())
	assert.Equal(t, models.DefaultUsers(), f.store.Users())
	assert.Equal(t, models.DefaultClinicSettings(), f.store.Settings())
}

func TestSnapshotSurvivesReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patientID := f.patient(t, "Sara", "0100")
	apptID := f.appointment(t, patientID, f.now.Add(time.Hour), models.BookingPhone, models.StatusUnconfirmed)
	confirmed := models.StatusConfirmed
	_, err := f.store.UpdateAppointment(ctx, apptID, models.AppointmentUpdate{Status: &confirmed})
	require.NoError(t, err)
	_, err = f.store.AddFollowUp(ctx, models.FollowUp{PatientID: patientID, Type: models.FollowUpDelivery})
	require.NoError(t, err)
	_, err = f.store.AddPayment(ctx, models.Payment{PatientID: patientID, AppointmentID: apptID, Amount: 150})
	require.NoError(t, err)
	require.NoError(t, f.store.SaveSettings(ctx, models.ClinicSettings{Name: "Nile Clinic"}))

	want, err := models.EncodeSnapshot(f.store.Snapshot())
	require.NoError(t, err)

	reloaded, err := Open(ctx, f.backend.MemoryStore)
	require.NoError(t, err)
	got, err := models.EncodeSnapshot(reloaded.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, string(want), string(got))
	assert.Equal(t, string(want), string(f.backend.Raw()))
}

func TestReadsDoNotShareLastVisit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patientID := f.patient(t, "Sara", "0100")
	visit := f.now.Add(-24 * time.Hour)
	_, err := f.store.UpdatePatient(ctx, patientID, models.PatientUpdate{LastVisit: &visit})
	require.NoError(t, err)

	byID, _ := f.store.FindPatientByID(patientID)
	*byID.LastVisit = byID.LastVisit.Add(time.Hour)
	listed := f.store.Patients()
	*listed[0].LastVisit = listed[0].LastVisit.Add(time.Hour)
	*f.store.SearchPatients("sara")[0].LastVisit = time.Time{}
	*f.store.Snapshot().Patients[0].LastVisit = time.Time{}

	p, _ := f.store.FindPatientByPhone("0100")
	require.NotNil(t, p.LastVisit)
	assert.True(t, p.LastVisit.Equal(visit))
}

func TestTimesKeepMicrosecondPrecision(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2026, 10, 19, 9, 0, 0, 123456789, cairo)
	ctx := context.Background()

	patientID := f.patient(t, "Sara", "0100")
	apptID := f.appointment(t, patientID, f.now.Add(time.Hour), models.BookingClinic, models.StatusUnconfirmed)
	moved := f.now.Add(2 * time.Hour)
	confirmed := models.StatusConfirmed
	_, err := f.store.UpdateAppointment(ctx, apptID, models.AppointmentUpdate{AppointmentDate: &moved, Status: &confirmed})
	require.NoError(t, err)
	_, err = f.store.AddPayment(ctx, models.Payment{PatientID: patientID, AppointmentID: apptID, Amount: 100})
	require.NoError(t, err)
	_, err = f.store.AddFollowUp(ctx, models.FollowUp{PatientID: patientID, Type: models.FollowUpDelivery})
	require.NoError(t, err)

	snapshot := f.store.Snapshot()
	times := []time.Time{
		snapshot.Patients[0].RegistrationDate,
		*snapshot.Patients[0].LastVisit,
		snapshot.Appointments[0].AppointmentDate,
		snapshot.Appointments[0].CreatedAt,
		snapshot.Payments[0].Date,
		snapshot.FollowUps[0].CreatedAt,
	}
	for _, at := range times {
		assert.Equal(t, 123456000, at.Nanosecond())
	}
	assert.True(t, snapshot.Appointments[0].AppointmentDate.Equal(moved.Truncate(time.Microsecond)))
}

package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"clinic-management/models"
	"clinic-management/stats"
)

// ReminderWindow is how far ahead DueForReminder looks.
const ReminderWindow = 15 * time.Minute

func (s *Store) AddAppointment(ctx context.Context, a models.Appointment) (string, error) {
	a.ID = s.newID()
	a.CreatedAt = s.now()
	a.AppointmentDate = precise(a.AppointmentDate)
	_, err := s.commit(ctx, func(next *models.Snapshot) ([]models.Event, bool) {
		next.Appointments = append(next.Appointments, a)
		return []models.Event{s.event(models.EventAppointmentCreated, a.ID, a)}, true
	})
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

// UpdateAppointment merges u over the appointment and reports false if id is
// unknown. Confirming an appointment also moves its patient's LastVisit to
// the appointment date in the same save; a missing patient is logged and
// does not undo the appointment change.
func (s *Store) UpdateAppointment(ctx context.Context, id string, u models.AppointmentUpdate) (bool, error) {
	if u.AppointmentDate != nil {
		date := precise(*u.AppointmentDate)
		u.AppointmentDate = &date
	}
	return s.commit(ctx, func(next *models.Snapshot) ([]models.Event, bool) {
		i := indexAppointment(next.Appointments, id)
		if i < 0 {
			return nil, false
		}
		u.Apply(&next.Appointments[i])
		a := next.Appointments[i]
		events := []models.Event{s.event(models.EventAppointmentUpdated, id, a)}

		if u.Status != nil && *u.Status == models.StatusConfirmed {
			j := indexPatient(next.Patients, a.PatientID)
			if j < 0 {
				s.logger.Warn("confirmed appointment references a missing patient",
					zap.String("appointment_id", id),
					zap.String("patient_id", a.PatientID),
				)
				return events, true
			}
			models.PatientUpdate{LastVisit: &a.AppointmentDate}.Apply(&next.Patients[j])
			events = append(events, s.event(models.EventPatientUpdated, a.PatientID, next.Patients[j]))
		}
		return events, true
	})
}

func (s *Store) AppointmentByID(id string) (models.Appointment, bool) {
	var (
		a     models.Appointment
		found bool
	)
	s.read(func(state *models.Snapshot) {
		if i := indexAppointment(state.Appointments, id); i >= 0 {
			a, found = state.Appointments[i], true
		}
	})
	return a, found
}

func (s *Store) AppointmentsByPatient(patientID string) []models.Appointment {
	return s.filterAppointments(func(a models.Appointment) bool {
		return a.PatientID == patientID
	})
}

// AppointmentsByDate returns the appointments falling on date's local day.
func (s *Store) AppointmentsByDate(date time.Time) []models.Appointment {
	day := stats.DayWindow(date)
	return s.filterAppointments(func(a models.Appointment) bool {
		return day.Contains(a.AppointmentDate)
	})
}

// DueForReminder returns unconfirmed phone bookings dated after now and no
// later than now+ReminderWindow.
func (s *Store) DueForReminder(now time.Time) []models.Appointment {
	until := now.Add(ReminderWindow)
	return s.filterAppointments(func(a models.Appointment) bool {
		return a.BookingKind == models.BookingPhone &&
			a.Status == models.StatusUnconfirmed &&
			a.AppointmentDate.After(now) &&
			!a.AppointmentDate.After(until)
	})
}

func (s *Store) Appointments() []models.Appointment {
	return s.filterAppointments(func(models.Appointment) bool { return true })
}

func (s *Store) filterAppointments(keep func(models.Appointment) bool) []models.Appointment {
	matches := []models.Appointment{}
	s.read(func(state *models.Snapshot) {
		for _, a := range state.Appointments {
			if keep(a) {
				matches = append(matches, a)
			}
		}
	})
	return matches
}

func indexAppointment(appointments []models.Appointment, id string) int {
	for i := range appointments {
		if appointments[i].ID == id {
			return i
		}
	}
	return -1
}

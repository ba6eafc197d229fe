// Package clinic holds the secretary and doctor views of the record store.
package clinic

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"clinic-management/models"
	"clinic-management/stats"
	"clinic-management/store"
)

const (
	descriptionNewVisit      = "New consultation"
	descriptionFollowUpVisit = "Follow-up consultation"
)

// Booking is what the front desk enters for a new appointment. Payment above
// zero is recorded immediately and confirms the appointment.
type Booking struct {
	Name            string                   `json:"name" binding:"required"`
	Phone           string                   `json:"phone" binding:"required"`
	Address         string                   `json:"address"`
	AppointmentDate time.Time                `json:"appointmentDate" binding:"required"`
	VisitKind       models.VisitKind         `json:"type"`
	BookingKind     models.BookingKind       `json:"bookingType"`
	Notes           string                   `json:"notes"`
	Status          models.AppointmentStatus `json:"status"`
	Payment         float64                  `json:"payment"`
}

type Secretary struct {
	store    *store.Store
	notifier Notifier
	logger   *zap.Logger
	loc      *time.Location
}

func NewSecretary(s *store.Store, notifier Notifier, loc *time.Location, logger *zap.Logger) *Secretary {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = DisabledNotifier{Logger: logger}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Secretary{store: s, notifier: notifier, logger: logger, loc: loc}
}

func (s *Secretary) Location() *time.Location { return s.loc }

// BookAppointment finds or registers the patient by phone and creates the
// appointment for them.
func (s *Secretary) BookAppointment(ctx context.Context, b Booking) (string, error) {
	patientID, err := s.store.AddOrFindPatient(ctx, models.Patient{
		Name:    b.Name,
		Phone:   b.Phone,
		Address: b.Address,
	})
	if err != nil {
		return "", fmt.Errorf("failed to register patient: %w", err)
	}

	status := b.Status
	if status == "" {
		status = models.StatusUnconfirmed
	}
	appointmentID, err := s.store.AddAppointment(ctx, models.Appointment{
		PatientID:       patientID,
		AppointmentDate: b.AppointmentDate,
		VisitKind:       b.VisitKind,
		BookingKind:     b.BookingKind,
		Notes:           b.Notes,
		Status:          status,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create appointment: %w", err)
	}

	if b.Payment > 0 {
		appointment, _ := s.store.AppointmentByID(appointmentID)
		if _, err := s.confirm(ctx, appointment, b.Payment); err != nil {
			return appointmentID, err
		}
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appointmentID),
		zap.String("patient_id", patientID),
		zap.String("booking_type", string(b.BookingKind)),
	)
	return appointmentID, nil
}

// ConfirmAppointment records payment (when above zero) and marks the
// appointment confirmed. It reports false for an unknown id.
func (s *Secretary) ConfirmAppointment(ctx context.Context, id string, payment float64) (bool, error) {
	appointment, ok := s.store.AppointmentByID(id)
	if !ok {
		return false, nil
	}
	return s.confirm(ctx, appointment, payment)
}

func (s *Secretary) confirm(ctx context.Context, appointment models.Appointment, payment float64) (bool, error) {
	if payment > 0 {
		description := descriptionFollowUpVisit
		if appointment.VisitKind == models.VisitNew {
			description = descriptionNewVisit
		}
		if _, err := s.store.AddPayment(ctx, models.Payment{
			PatientID:     appointment.PatientID,
			AppointmentID: appointment.ID,
			Amount:        payment,
			Description:   description,
		}); err != nil {
			return false, fmt.Errorf("failed to record payment: %w", err)
		}
	}

	confirmed := models.StatusConfirmed
	return s.store.UpdateAppointment(ctx, appointment.ID, models.AppointmentUpdate{Status: &confirmed})
}

func (s *Secretary) CancelAppointment(ctx context.Context, id string) (bool, error) {
	cancelled := models.StatusCancelled
	return s.store.UpdateAppointment(ctx, id, models.AppointmentUpdate{Status: &cancelled})
}

func (s *Secretary) RescheduleAppointment(ctx context.Context, id string, date time.Time) (bool, error) {
	return s.store.UpdateAppointment(ctx, id, models.AppointmentUpdate{AppointmentDate: &date})
}

func (s *Secretary) TodayAppointments(now time.Time) []models.Appointment {
	return s.store.AppointmentsByDate(now.In(s.loc))
}

func (s *Secretary) AppointmentsByDate(date time.Time) []models.Appointment {
	return s.store.AppointmentsByDate(date)
}

func (s *Secretary) RegisterPatient(ctx context.Context, p models.Patient) (string, error) {
	return s.store.AddOrFindPatient(ctx, p)
}

func (s *Secretary) UpdatePatient(ctx context.Context, id string, u models.PatientUpdate) (bool, error) {
	return s.store.UpdatePatient(ctx, id, u)
}

func (s *Secretary) Patients() []models.Patient {
	return s.store.Patients()
}

func (s *Secretary) SearchPatients(query string) []models.Patient {
	return s.store.SearchPatients(query)
}

func (s *Secretary) PatientAppointments(patientID string) []models.Appointment {
	return s.store.AppointmentsByPatient(patientID)
}

// SendAppointmentReminders flags every appointment due for a reminder and
// returns how many were flagged. No message leaves the clinic.
func (s *Secretary) SendAppointmentReminders(ctx context.Context, now time.Time) (int, error) {
	sent := true
	flagged := 0
	for _, appointment := range s.store.DueForReminder(now) {
		if appointment.ReminderSent {
			continue
		}
		ok, err := s.store.UpdateAppointment(ctx, appointment.ID, models.AppointmentUpdate{ReminderSent: &sent})
		if err != nil {
			return flagged, fmt.Errorf("failed to flag reminder for %s: %w", appointment.ID, err)
		}
		if !ok {
			continue
		}
		flagged++

		if patient, found := s.store.FindPatientByID(appointment.PatientID); found {
			if err := s.notifier.Remind(ctx, patient, appointment); err != nil {
				s.logger.Warn("reminder delivery failed", zap.String("appointment_id", appointment.ID), zap.Error(err))
			}
		}
	}
	return flagged, nil
}

func (s *Secretary) DailyStats(date time.Time) stats.Summary {
	return s.summarize(stats.DayWindow(date.In(s.loc)))
}

func (s *Secretary) MonthlyStats(year int, month time.Month) stats.Summary {
	return s.summarize(stats.MonthWindow(year, month, s.loc))
}

func (s *Secretary) YearlyStats(year int) stats.Summary {
	return s.summarize(stats.YearWindow(year, s.loc))
}

func (s *Secretary) summarize(w stats.Window) stats.Summary {
	return stats.Summarize(s.store.Appointments(), s.store.Payments(), w)
}

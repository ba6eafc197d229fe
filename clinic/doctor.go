package clinic

import (
	"context"
	"time"

	"go.uber.org/zap"

	"clinic-management/models"
	"clinic-management/stats"
	"clinic-management/store"
)

type PatientFile struct {
	Patient      models.Patient       `json:"patient"`
	Appointments []models.Appointment `json:"appointments"`
	FollowUps    []models.FollowUp    `json:"followUps"`
}

type TodayPatient struct {
	Appointment models.Appointment `json:"appointment"`
	Patient     *models.Patient    `json:"patient"`
}

type Doctor struct {
	store  *store.Store
	logger *zap.Logger
	loc    *time.Location
}

func NewDoctor(s *store.Store, loc *time.Location, logger *zap.Logger) *Doctor {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Doctor{store: s, logger: logger, loc: loc}
}

// PatientFile returns nil when the patient does not exist.
func (d *Doctor) PatientFile(patientID string) *PatientFile {
	patient, ok := d.store.FindPatientByID(patientID)
	if !ok {
		return nil
	}
	return &PatientFile{
		Patient:      patient,
		Appointments: d.store.AppointmentsByPatient(patientID),
		FollowUps:    d.store.FollowUpsByPatient(patientID),
	}
}

func (d *Doctor) SearchPatients(query string) []models.Patient {
	return d.store.SearchPatients(query)
}

func (d *Doctor) AddFollowUp(ctx context.Context, f models.FollowUp) (string, error) {
	return d.store.AddFollowUp(ctx, f)
}

func (d *Doctor) Stats(period stats.Period, now time.Time) stats.DoctorSummary {
	return stats.Doctor(d.store.FollowUps(), period, now.In(d.loc))
}

func (d *Doctor) ResetToFactory(ctx context.Context) error {
	if err := d.store.FactoryReset(ctx); err != nil {
		return err
	}
	d.logger.Warn("clinic data reset to factory defaults")
	return nil
}

// InitializeSystem stores the clinic settings entered on first run.
func (d *Doctor) InitializeSystem(ctx context.Context, settings models.ClinicSettings) error {
	return d.store.SaveSettings(ctx, settings)
}

// TodayPatients lists today's confirmed appointments with their patients.
// Patient is nil when the appointment points at a missing record.
func (d *Doctor) TodayPatients(now time.Time) []TodayPatient {
	result := make([]TodayPatient, 0)
	for _, appointment := range d.store.AppointmentsByDate(now.In(d.loc)) {
		if appointment.Status != models.StatusConfirmed {
			continue
		}
		entry := TodayPatient{Appointment: appointment}
		if patient, ok := d.store.FindPatientByID(appointment.PatientID); ok {
			entry.Patient = &patient
		}
		result = append(result, entry)
	}
	return result
}

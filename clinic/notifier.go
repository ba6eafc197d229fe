package clinic

import (
	"context"

	"go.uber.org/zap"

	"clinic-management/models"
)

// Notifier would deliver a reminder to a patient.
type Notifier interface {
	Remind(ctx context.Context, patient models.Patient, appointment models.Appointment) error
}

// DisabledNotifier stands in for the WhatsApp sender, which is switched off.
// It only logs what it would have sent.
type DisabledNotifier struct {
	Logger *zap.Logger
}

func (n DisabledNotifier) Remind(_ context.Context, patient models.Patient, appointment models.Appointment) error {
	if n.Logger != nil {
		n.Logger.Debug("reminder messaging disabled",
			zap.String("phone", patient.Phone),
			zap.String("appointment_id", appointment.ID),
			zap.Time("appointment_date", appointment.AppointmentDate),
		)
	}
	return nil
}

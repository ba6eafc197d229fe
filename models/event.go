package models

import (
	"encoding/json"
	"time"
)

const (
	EventPatientCreated     = "patient_created"
	EventPatientUpdated     = "patient_updated"
	EventAppointmentCreated = "appointment_created"
	EventAppointmentUpdated = "appointment_updated"
	EventFollowUpCreated    = "follow_up_created"
	EventPaymentCreated     = "payment_created"
	EventSettingsSaved      = "settings_saved"
	EventPasswordChanged    = "password_changed"
	EventStoreReset         = "store_reset"
)

// Event describes one committed change to the store.
type Event struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	At    time.Time       `json:"at"`
}

package models

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the whole persisted state of the clinic. Every backend stores
// and returns it as a single unit.
type Snapshot struct {
	Patients       []Patient      `json:"patients"`
	Appointments   []Appointment  `json:"appointments"`
	FollowUps      []FollowUp     `json:"followUps"`
	Payments       []Payment      `json:"payments"`
	Users          Users          `json:"users"`
	ClinicSettings ClinicSettings `json:"clinicSettings"`
}

func DefaultUsers() Users {
	return Users{
		Doctor:    Credentials{Username: "admin", Password: "123"},
		Secretary: Credentials{Username: "admin", Password: "123"},
	}
}

func DefaultClinicSettings() ClinicSettings {
	return ClinicSettings{
		Name:       "Obstetrics & Gynecology Clinic",
		DoctorName: "Dr. Mohamed Ahmed",
		Address:    "Hospital Street, Cairo",
		Phone:      "01234567890",
	}
}

// NewSnapshot returns an empty snapshot with factory credentials and settings.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Patients:       []Patient{},
		Appointments:   []Appointment{},
		FollowUps:      []FollowUp{},
		Payments:       []Payment{},
		Users:          DefaultUsers(),
		ClinicSettings: DefaultClinicSettings(),
	}
}

// Clone deep-copies the snapshot so the result can be mutated independently.
func (s *Snapshot) Clone() *Snapshot {
	patients := make([]Patient, 0, len(s.Patients))
	for _, p := range s.Patients {
		patients = append(patients, p.Copy())
	}
	return &Snapshot{
		Patients:       patients,
		Appointments:   append([]Appointment{}, s.Appointments...),
		FollowUps:      append([]FollowUp{}, s.FollowUps...),
		Payments:       append([]Payment{}, s.Payments...),
		Users:          s.Users,
		ClinicSettings: s.ClinicSettings,
	}
}

// normalize fills in whatever a stored document left out.
func (s *Snapshot) normalize() {
	if s.Patients == nil {
		s.Patients = []Patient{}
	}
	if s.Appointments == nil {
		s.Appointments = []Appointment{}
	}
	if s.FollowUps == nil {
		s.FollowUps = []FollowUp{}
	}
	if s.Payments == nil {
		s.Payments = []Payment{}
	}
	if s.Users == (Users{}) {
		s.Users = DefaultUsers()
	}
	if s.ClinicSettings == (ClinicSettings{}) {
		s.ClinicSettings = DefaultClinicSettings()
	}
}

func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	s.normalize()
	return &s, nil
}

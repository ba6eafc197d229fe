package store

import (
	"context"
	"strings"

	"clinic-management/models"
)

// AddOrFindPatient returns the id of the first patient with p.Phone, leaving
// that record untouched, or registers p under a new id.
func (s *Store) AddOrFindPatient(ctx context.Context, p models.Patient) (string, error) {
	var id string
	_, err := s.commit(ctx, func(next *models.Snapshot) ([]models.Event, bool) {
		if i := indexPatientByPhone(next.Patients, p.Phone); i >= 0 {
			id = next.Patients[i].ID
			return nil, false
		}

		p.ID = s.newID()
		p.RegistrationDate = s.now()
		p.LastVisit = nil
		next.Patients = append(next.Patients, p)
		id = p.ID
		return []models.Event{s.event(models.EventPatientCreated, p.ID, p)}, true
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdatePatient merges u over the patient and reports false if id is unknown.
func (s *Store) UpdatePatient(ctx context.Context, id string, u models.PatientUpdate) (bool, error) {
	if u.LastVisit != nil {
		lastVisit := precise(*u.LastVisit)
		u.LastVisit = &lastVisit
	}
	return s.commit(ctx, func(next *models.Snapshot) ([]models.Event, bool) {
		i := indexPatient(next.Patients, id)
		if i < 0 {
			return nil, false
		}
		u.Apply(&next.Patients[i])
		return []models.Event{s.event(models.EventPatientUpdated, id, next.Patients[i])}, true
	})
}

func (s *Store) FindPatientByID(id string) (models.Patient, bool) {
	var (
		p     models.Patient
		found bool
	)
	s.read(func(state *models.Snapshot) {
		if i := indexPatient(state.Patients, id); i >= 0 {
			p, found = state.Patients[i].Copy(), true
		}
	})
	return p, found
}

func (s *Store) FindPatientByPhone(phone string) (models.Patient, bool) {
	var (
		p     models.Patient
		found bool
	)
	s.read(func(state *models.Snapshot) {
		if i := indexPatientByPhone(state.Patients, phone); i >= 0 {
			p, found = state.Patients[i].Copy(), true
		}
	})
	return p, found
}

// SearchPatients matches query case-insensitively against name or phone and
// keeps registration order.
func (s *Store) SearchPatients(query string) []models.Patient {
	query = strings.ToLower(query)
	matches := []models.Patient{}
	s.read(func(state *models.Snapshot) {
		for _, p := range state.Patients {
			if strings.Contains(strings.ToLower(p.Name), query) || strings.Contains(strings.ToLower(p.Phone), query) {
				matches = append(matches, p.Copy())
			}
		}
	})
	return matches
}

func (s *Store) Patients() []models.Patient {
	var patients []models.Patient
	s.read(func(state *models.Snapshot) {
		patients = make([]models.Patient, 0, len(state.Patients))
		for _, p := range state.Patients {
			patients = append(patients, p.Copy())
		}
	})
	return patients
}

func indexPatient(patients []models.Patient, id string) int {
	for i := range patients {
		if patients[i].ID == id {
			return i
		}
	}
	return -1
}

func indexPatientByPhone(patients []models.Patient, phone string) int {
	for i := range patients {
		if patients[i].Phone == phone {
			return i
		}
	}
	return -1
}

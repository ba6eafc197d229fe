package store

import (
	"context"

	"clinic-management/models"
)

// AddFollowUp appends a clinical note. Notes are never edited afterwards.
func (s *Store) AddFollowUp(ctx context.Context, f models.FollowUp) (string, error) {
	f.ID = s.newID()
	f.CreatedAt = s.now()
	_, err := s.commit(ctx, func(next *models.Snapshot) ([]models.Event, bool) {
		next.FollowUps = append(next.FollowUps, f)
		return []models.Event{s.event(models.EventFollowUpCreated, f.ID, f)}, true
	})
	if err != nil {
		return "", err
	}
	return f.ID, nil
}

func (s *Store) FollowUpsByPatient(patientID string) []models.FollowUp {
	matches := []models.FollowUp{}
	s.read(func(state *models.Snapshot) {
		for _, f := range state.FollowUps {
			if f.PatientID == patientID {
				matches = append(matches, f)
			}
		}
	})
	return matches
}

func (s *Store) FollowUps() []models.FollowUp {
	var followUps []models.FollowUp
	s.read(func(state *models.Snapshot) {
		followUps = append([]models.FollowUp{}, state.FollowUps...)
	})
	return followUps
}

package store

import (
	"context"

	"clinic-management/models"
)

func (s *Store) Settings() models.ClinicSettings {
	var settings models.ClinicSettings
	s.read(func(state *models.Snapshot) {
		settings = state.ClinicSettings
	})
	return settings
}

// SaveSettings replaces the clinic settings wholesale.
func (s *Store) SaveSettings(ctx context.Context, settings models.ClinicSettings) error {
	_, err := s.commit(ctx, func(next *models.Snapshot) ([]models.Event, bool) {
		next.ClinicSettings = settings
		return []models.Event{s.event(models.EventSettingsSaved, "", settings)}, true
	})
	return err
}

func (s *Store) Users() models.Users {
	var users models.Users
	s.read(func(state *models.Snapshot) {
		users = state.Users
	})
	return users
}

// UpdateUserPassword reports false for an unknown role.
func (s *Store) UpdateUserPassword(ctx context.Context, role models.Role, password string) (bool, error) {
	return s.commit(ctx, func(next *models.Snapshot) ([]models.Event, bool) {
		if !next.Users.SetPassword(role, password) {
			return nil, false
		}
		return []models.Event{s.event(models.EventPasswordChanged, string(role), nil)}, true
	})
}

// FactoryReset drops every record and restores the default credentials and
// settings.
func (s *Store) FactoryReset(ctx context.Context) error {
	_, err := s.commit(ctx, func(next *models.Snapshot) ([]models.Event, bool) {
		*next = *models.NewSnapshot()
		return []models.Event{s.event(models.EventStoreReset, "", nil)}, true
	})
	return err
}

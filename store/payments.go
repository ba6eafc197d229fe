package store

import (
	"context"
	"time"

	"clinic-management/models"
	"clinic-management/stats"
)

// AddPayment appends a payment dated now.
func (s *Store) AddPayment(ctx context.Context, p models.Payment) (string, error) {
	p.ID = s.newID()
	p.Date = s.now()
	_, err := s.commit(ctx, func(next *models.Snapshot) ([]models.Event, bool) {
		next.Payments = append(next.Payments, p)
		return []models.Event{s.event(models.EventPaymentCreated, p.ID, p)}, true
	})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// PaymentsByDateRange returns payments from the start of from's day to the
// end of to's day.
func (s *Store) PaymentsByDateRange(from, to time.Time) []models.Payment {
	w := stats.RangeWindow(from, to)
	matches := []models.Payment{}
	s.read(func(state *models.Snapshot) {
		for _, p := range state.Payments {
			if w.Contains(p.Date) {
				matches = append(matches, p)
			}
		}
	})
	return matches
}

func (s *Store) Payments() []models.Payment {
	var payments []models.Payment
	s.read(func(state *models.Snapshot) {
		payments = append([]models.Payment{}, state.Payments...)
	})
	return payments
}

// Package store is the clinic's record store. It keeps the whole snapshot in
// memory and hands it to a models.Backend after every mutation.
//
// Mutations are serialised by a mutex and applied to a copy of the snapshot;
// the copy only replaces the live state once the backend has saved it, so a
// failed save leaves the store as it was. Two processes sharing one backend
// still overwrite each other's snapshots (last write wins).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic-management/models"
	"clinic-management/monitoring"
)

type Store struct {
	mu      sync.Mutex
	backend models.Backend
	events  EventPublisher
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
	state   *models.Snapshot
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithEvents(p EventPublisher) Option {
	return func(s *Store) { s.events = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns a store holding an empty snapshot. Call Load to read the
// backend's state.
func New(backend models.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		events:  noopPublisher{},
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
		state:   models.NewSnapshot(),
	}
	for _, opt := range opts {
		opt(s)
	}
	clock := s.now
	s.now = func() time.Time { return precise(clock()) }
	return s
}

// precise drops what postgres timestamps cannot hold, so every backend reads
// back exactly the times it was given.
func precise(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}

func Open(ctx context.Context, backend models.Backend, opts ...Option) (*Store, error) {
	s := New(backend, opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory state with the backend's snapshot, or with
// factory defaults if nothing has been saved yet.
func (s *Store) Load(ctx context.Context) error {
	snapshot, err := s.backend.Load(ctx)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Info("no saved snapshot, starting empty", zap.String("backend", s.backend.Name()))
		snapshot = models.NewSnapshot()
	} else if err != nil {
		return fmt.Errorf("failed to load snapshot from %s: %w", s.backend.Name(), err)
	}

	s.mu.Lock()
	s.state = snapshot
	s.mu.Unlock()

	s.logger.Info("snapshot loaded",
		zap.String("backend", s.backend.Name()),
		zap.Int("patients", len(snapshot.Patients)),
		zap.Int("appointments", len(snapshot.Appointments)),
	)
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) Backend() string {
	return s.backend.Name()
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// commit runs apply against a copy of the state. When apply reports a change
// the copy is saved and becomes the new state; commit returns whether that
// happened.
func (s *Store) commit(ctx context.Context, apply func(next *models.Snapshot) ([]models.Event, bool)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	events, changed := apply(next)
	if !changed {
		return false, nil
	}

	if err := s.save(ctx, next); err != nil {
		return false, err
	}
	s.state = next

	for _, e := range events {
		s.events.Publish(e)
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, snapshot *models.Snapshot) error {
	name := s.backend.Name()
	start := time.Now()
	err := s.backend.Save(ctx, snapshot)
	monitoring.SnapshotSaveDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		monitoring.SnapshotSaves.WithLabelValues(name, "error").Inc()
		s.logger.Error("snapshot save failed", zap.String("backend", name), zap.Error(err))
		return fmt.Errorf("failed to save snapshot to %s: %w", name, err)
	}
	monitoring.SnapshotSaves.WithLabelValues(name, "ok").Inc()
	return nil
}

func (s *Store) read(fn func(state *models.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

func (s *Store) event(kind, id string, data interface{}) models.Event {
	e := models.Event{Event: kind, ID: id, At: s.now()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			s.logger.Warn("failed to marshal event payload", zap.String("event", kind), zap.Error(err))
		} else {
			e.Data = raw
		}
	}
	return e
}

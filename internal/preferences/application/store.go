package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"plantwatch/internal/observability/metrics"
	preferences "plantwatch/internal/preferences/domain"
	"plantwatch/internal/storage"
)

// Store owns the dashboard preferences and persists every mutation.
type Store struct {
	mu     sync.RWMutex
	kv     storage.KV
	key    string
	policy storage.Policy
	logger *zap.Logger
	prefs  preferences.Preferences
}

// Option customizes the store.
type Option func(*Store)

// WithPolicy sets the storage failure policy.
func WithPolicy(policy storage.Policy) Option {
	return func(s *Store) {
		s.policy = policy
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKey overrides the storage namespace.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// NewStore loads persisted preferences. Absent or corrupt state starts empty
// unless the policy asks to fail on corruption.
func NewStore(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	if kv == nil {
		return nil, errors.New("preferences: nil storage")
	}
	s := &Store{
		kv:     kv,
		key:    storage.KeyDashboardPreferences,
		logger: zap.NewNop(),
		prefs:  preferences.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	loaded, err := s.kv.Load(ctx, s.key)
	if err != nil {
		metrics.IncStorageError(s.key, "load")
		return fmt.Errorf("preferences: load: %w", err)
	}
	var stored preferences.Preferences
	loaded = storage.Decode(loaded, &stored)
	switch loaded.State {
	case storage.StateAbsent:
		return nil
	case storage.StateCorrupt:
		metrics.IncStorageCorrupt(s.key)
		if s.policy.FailOnCorrupt {
			return &storage.CorruptError{Key: s.key, Cause: loaded.Cause}
		}
		s.logger.Warn("discarding corrupt preferences", zap.String("key", s.key), zap.Error(loaded.Cause))
		return nil
	}
	stored.Normalize()
	s.prefs = stored
	return nil
}

// SetActiveTab overwrites the active plant tab.
func (s *Store) SetActiveTab(ctx context.Context, plantID string) error {
	_, err := s.mutate(ctx, "set_active_tab", func(p *preferences.Preferences) preferences.Outcome {
		return p.SetActiveTab(plantID)
	})
	return err
}

// SetSelectedSensors replaces a plant's selection, keeping at most MaxSelectedSensors.
func (s *Store) SetSelectedSensors(ctx context.Context, plantID string, sensorIDs []string) (preferences.Outcome, error) {
	return s.mutate(ctx, "set_selected", func(p *preferences.Preferences) preferences.Outcome {
		return p.SetSelected(plantID, sensorIDs)
	})
}

// AddSensor appends a sensor to the plant's selection.
func (s *Store) AddSensor(ctx context.Context, plantID, sensorID string) (preferences.Outcome, error) {
	return s.mutate(ctx, "add", func(p *preferences.Preferences) preferences.Outcome {
		return p.Add(plantID, sensorID)
	})
}

// RemoveSensor drops a sensor from the plant's selection.
func (s *Store) RemoveSensor(ctx context.Context, plantID, sensorID string) (preferences.Outcome, error) {
	return s.mutate(ctx, "remove", func(p *preferences.Preferences) preferences.Outcome {
		return p.Remove(plantID, sensorID)
	})
}

// ToggleSensor flips membership subject to the cap.
func (s *Store) ToggleSensor(ctx context.Context, plantID, sensorID string) (preferences.Outcome, error) {
	return s.mutate(ctx, "toggle", func(p *preferences.Preferences) preferences.Outcome {
		return p.Toggle(plantID, sensorID)
	})
}

// ClearPlantSensors empties one plant's selection.
func (s *Store) ClearPlantSensors(ctx context.Context, plantID string) error {
	_, err := s.mutate(ctx, "clear_plant", func(p *preferences.Preferences) preferences.Outcome {
		return p.ClearPlant(plantID)
	})
	return err
}

// ClearAllPreferences resets every selection and the active tab.
func (s *Store) ClearAllPreferences(ctx context.Context) error {
	_, err := s.mutate(ctx, "clear_all", func(p *preferences.Preferences) preferences.Outcome {
		return p.Reset()
	})
	return err
}

// GetSelectedSensors returns the plant's selection, empty when unknown.
func (s *Store) GetSelectedSensors(plantID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Selected(plantID)
}

// IsSensorSelected reports membership.
func (s *Store) IsSensorSelected(plantID, sensorID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.IsSelected(plantID, sensorID)
}

// GetSelectedCount returns the selection size.
func (s *Store) GetSelectedCount(plantID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Count(plantID)
}

// ActiveTab returns the active plant tab when one is set.
func (s *Store) ActiveTab() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.prefs.ActiveTab == nil {
		return "", false
	}
	return *s.prefs.ActiveTab, true
}

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() preferences.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Clone()
}

// mutate applies fn to a copy, persists the copy and commits it. Under a
// strict save policy a failed save leaves the previous state in place.
func (s *Store) mutate(ctx context.Context, op string, fn func(*preferences.Preferences) preferences.Outcome) (preferences.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.prefs.Clone()
	outcome := fn(&next)
	if err := s.persist(ctx, next); err != nil {
		metrics.IncStorageError(s.key, "save")
		if s.policy.FailOnSaveError {
			return outcome, fmt.Errorf("preferences: save: %w", err)
		}
		s.logger.Warn("preferences not persisted", zap.String("op", op), zap.Error(err))
	}
	s.prefs = next
	metrics.IncPreferenceMutation(op, string(outcome))
	return outcome, nil
}

func (s *Store) persist(ctx context.Context, prefs preferences.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return s.kv.Save(ctx, s.key, data)
}

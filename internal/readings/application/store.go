package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plantwatch/internal/observability/metrics"
	readings "plantwatch/internal/readings/domain"
	"plantwatch/internal/storage"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Store is the manual readings journal, most recent first.
type Store struct {
	mu       sync.RWMutex
	kv       storage.KV
	key      string
	policy   storage.Policy
	logger   *zap.Logger
	clock    Clock
	newID    func() string
	readings []readings.Reading
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

// WithClock assigns a clock.
func WithClock(clock Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore loads the persisted journal.
func NewStore(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	if kv == nil {
		return nil, errors.New("readings: nil storage")
	}
	s := &Store{
		kv:     kv,
		key:    storage.KeyManualReadings,
		logger: zap.NewNop(),
		clock:  systemClock{},
		newID:  uuid.NewString,
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
		return fmt.Errorf("readings: load: %w", err)
	}
	if loaded.State == storage.StateValid {
		journal, err := readings.DecodeJournal(loaded.Data)
		if err != nil {
			loaded = storage.Corrupt(loaded, err)
		} else {
			s.readings = journal.Readings
			return nil
		}
	}
	if loaded.State == storage.StateCorrupt {
		metrics.IncStorageCorrupt(s.key)
		if s.policy.FailOnCorrupt {
			return &storage.CorruptError{Key: s.key, Cause: loaded.Cause}
		}
		s.logger.Warn("discarding corrupt readings journal", zap.String("key", s.key), zap.Error(loaded.Cause))
	}
	s.readings = nil
	return nil
}

// AddReading assigns an id and prepends the reading.
func (s *Store) AddReading(ctx context.Context, input readings.Input) (readings.Reading, error) {
	if err := input.Validate(); err != nil {
		return readings.Reading{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	reading := input.Build(s.newID(), s.clock.Now())
	next := make([]readings.Reading, 0, len(s.readings)+1)
	next = append(next, reading)
	next = append(next, s.readings...)
	if err := s.commit(ctx, "add", next); err != nil {
		return readings.Reading{}, err
	}
	return reading, nil
}

// GetReadingsForSensor returns the sensor's readings, most recent first.
func (s *Store) GetReadingsForSensor(sensorID string) []readings.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]readings.Reading, 0)
	for _, r := range s.readings {
		if r.SensorID == sensorID {
			out = append(out, r)
		}
	}
	return out
}

// GetRecentReadings returns up to limit readings; limit <= 0 means DefaultRecentLimit.
func (s *Store) GetRecentReadings(limit int) []readings.Reading {
	if limit <= 0 {
		limit = readings.DefaultRecentLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit > len(s.readings) {
		limit = len(s.readings)
	}
	return append([]readings.Reading{}, s.readings[:limit]...)
}

// All returns every reading.
func (s *Store) All() []readings.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]readings.Reading{}, s.readings...)
}

// DeleteReading removes the reading with id. It reports whether one was found.
func (s *Store) DeleteReading(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.readings {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	next := make([]readings.Reading, 0, len(s.readings)-1)
	next = append(next, s.readings[:idx]...)
	next = append(next, s.readings[idx+1:]...)
	if err := s.commit(ctx, "delete", next); err != nil {
		return false, err
	}
	return true, nil
}

// ClearAllReadings empties the journal.
func (s *Store) ClearAllReadings(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, "clear", nil)
}

func (s *Store) commit(ctx context.Context, op string, next []readings.Reading) error {
	if err := s.persist(ctx, next); err != nil {
		metrics.IncStorageError(s.key, "save")
		if s.policy.FailOnSaveError {
			return fmt.Errorf("readings: save: %w", err)
		}
		s.logger.Warn("readings not persisted", zap.String("op", op), zap.Error(err))
	}
	s.readings = next
	metrics.IncReadingOp(op)
	return nil
}

func (s *Store) persist(ctx context.Context, list []readings.Reading) error {
	data, err := readings.EncodeJournal(list)
	if err != nil {
		return err
	}
	return s.kv.Save(ctx, s.key, data)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

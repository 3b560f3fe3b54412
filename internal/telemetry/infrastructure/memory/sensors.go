// Package memory holds the process-local telemetry repositories. All reads
// return copies; callers never share slices with the repository.
package memory

import (
	"errors"
	"sort"
	"sync"

	telemetry "plantwatch/internal/telemetry/domain"
)

// ErrSensorNotFound indicates a missing sensor.
var ErrSensorNotFound = errors.New("sensors: not found")

// SensorRepository owns the mutable sensor collection.
type SensorRepository struct {
	mu      sync.RWMutex
	sensors map[string]telemetry.Sensor
	byPlant map[string][]string
}

// NewSensorRepository seeds the repository. Insertion order is preserved per plant.
func NewSensorRepository(sensors []telemetry.Sensor) (*SensorRepository, error) {
	repo := &SensorRepository{
		sensors: make(map[string]telemetry.Sensor, len(sensors)),
		byPlant: make(map[string][]string),
	}
	for _, s := range sensors {
		if s.ID == "" || s.PlantID == "" {
			return nil, errors.New("sensors: sensor id and plant id required")
		}
		if _, dup := repo.sensors[s.ID]; dup {
			return nil, errors.New("sensors: duplicate id " + s.ID)
		}
		repo.sensors[s.ID] = s.Clone()
		repo.byPlant[s.PlantID] = append(repo.byPlant[s.PlantID], s.ID)
	}
	return repo, nil
}

// Get returns one sensor.
func (r *SensorRepository) Get(id string) (telemetry.Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sensors[id]
	if !ok {
		return telemetry.Sensor{}, ErrSensorNotFound
	}
	return s.Clone(), nil
}

// Exists reports whether id is a known sensor.
func (r *SensorRepository) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sensors[id]
	return ok
}

// ListByPlant returns a plant's sensors in catalogue order.
func (r *SensorRepository) ListByPlant(plantID string) []telemetry.Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byPlant[plantID]
	out := make([]telemetry.Sensor, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.sensors[id].Clone())
	}
	return out
}

// List returns every sensor ordered by plant then catalogue order.
func (r *SensorRepository) List() []telemetry.Sensor {
	r.mu.RLock()
	plants := make([]string, 0, len(r.byPlant))
	for id := range r.byPlant {
		plants = append(plants, id)
	}
	r.mu.RUnlock()
	sort.Strings(plants)

	var out []telemetry.Sensor
	for _, id := range plants {
		out = append(out, r.ListByPlant(id)...)
	}
	return out
}

// IDsByPlant returns the sensor ids of a plant.
func (r *SensorRepository) IDsByPlant(plantID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.byPlant[plantID]...)
}

// Update applies fn to a copy of the sensor and stores the result atomically.
func (r *SensorRepository) Update(id string, fn func(*telemetry.Sensor)) (telemetry.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sensors[id]
	if !ok {
		return telemetry.Sensor{}, ErrSensorNotFound
	}
	next := s.Clone()
	fn(&next)
	next.ID = s.ID
	next.PlantID = s.PlantID
	r.sensors[id] = next
	return next.Clone(), nil
}

package memory

import (
	"sort"
	"sync"

	telemetry "plantwatch/internal/telemetry/domain"
)

// AlertFilter narrows List. Empty fields match everything.
type AlertFilter struct {
	PlantID  string
	Status   telemetry.AlertStatus
	Severity telemetry.Severity
}

func (f AlertFilter) match(a telemetry.Alert) bool {
	if f.PlantID != "" && a.PlantID != f.PlantID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	return true
}

// AlertRepository stores alerts by id.
type AlertRepository struct {
	mu     sync.RWMutex
	alerts map[string]telemetry.Alert
}

// NewAlertRepository seeds the repository.
func NewAlertRepository(alerts []telemetry.Alert) *AlertRepository {
	repo := &AlertRepository{alerts: make(map[string]telemetry.Alert, len(alerts))}
	for _, a := range alerts {
		repo.alerts[a.ID] = a
	}
	return repo
}

// GetByID returns one alert.
func (r *AlertRepository) GetByID(id string) (telemetry.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.alerts[id]
	if !ok {
		return telemetry.Alert{}, telemetry.ErrAlertNotFound
	}
	return a, nil
}

// List returns matching alerts, newest first.
func (r *AlertRepository) List(filter AlertFilter) []telemetry.Alert {
	r.mu.RLock()
	out := make([]telemetry.Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		if filter.match(a) {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Update applies fn to the stored alert under the write lock. fn's error
// aborts the update.
func (r *AlertRepository) Update(id string, fn func(*telemetry.Alert) (bool, error)) (telemetry.Alert, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return telemetry.Alert{}, false, telemetry.ErrAlertNotFound
	}
	changed, err := fn(&a)
	if err != nil {
		return telemetry.Alert{}, false, err
	}
	if changed {
		r.alerts[id] = a
	}
	return a, changed, nil
}

package readings

import (
	"errors"
	"math"
	"time"
)

// SourceManual tags readings typed in by a user.
const SourceManual = "manual"

// DefaultRecentLimit is used when a non-positive limit is requested.
const DefaultRecentLimit = 50

var (
	// ErrEmptySensorID rejects readings without a sensor reference.
	ErrEmptySensorID = errors.New("reading: empty sensor id")
	// ErrInvalidValue rejects NaN and infinite values.
	ErrInvalidValue = errors.New("reading: value must be finite")
)

// Reading is a user-entered sensor value. Readings are never edited.
type Reading struct {
	ID        string    `json:"id"`
	SensorID  string    `json:"sensorId"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
	EnteredBy string    `json:"enteredBy"`
	Source    string    `json:"source"`
}

// Input carries everything but the id.
type Input struct {
	SensorID  string    `json:"sensorId"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
	EnteredBy string    `json:"enteredBy"`
	Source    string    `json:"source,omitempty"`
}

// Validate checks input invariants.
func (i Input) Validate() error {
	if i.SensorID == "" {
		return ErrEmptySensorID
	}
	if math.IsNaN(i.Value) || math.IsInf(i.Value, 0) {
		return ErrInvalidValue
	}
	return nil
}

// Build turns input into a reading with id, defaulting timestamp and source.
func (i Input) Build(id string, now time.Time) Reading {
	ts := i.Timestamp
	if ts.IsZero() {
		ts = now
	}
	source := i.Source
	if source == "" {
		source = SourceManual
	}
	return Reading{
		ID:        id,
		SensorID:  i.SensorID,
		Value:     i.Value,
		Timestamp: ts.UTC(),
		Notes:     i.Notes,
		EnteredBy: i.EnteredBy,
		Source:    source,
	}
}

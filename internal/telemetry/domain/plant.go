package telemetry

import (
	"errors"
	"time"
)

// PlantStatus is the connectivity state of a plant.
type PlantStatus string

const (
	PlantOnline  PlantStatus = "online"
	PlantWarning PlantStatus = "warning"
	PlantOffline PlantStatus = "offline"
)

// Plant represents a monitored water-treatment facility.
type Plant struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Location    string      `json:"location"`
	Region      string      `json:"region"`
	Status      PlantStatus `json:"status"`
	SensorCount int         `json:"sensorCount"`
	LastUpdated time.Time   `json:"lastUpdated"`
}

// Validate checks plant invariants.
func (p Plant) Validate() error {
	if p.ID == "" {
		return errors.New("plant: empty id")
	}
	if p.Name == "" {
		return errors.New("plant: empty name")
	}
	switch p.Status {
	case PlantOnline, PlantWarning, PlantOffline:
	default:
		return errors.New("plant: invalid status")
	}
	return nil
}

package telemetry

import "time"

// HistoryWindow bounds the per-sensor history.
const HistoryWindow = 20

// warningMargin is the share of the threshold span, measured inward from
// either bound, in which a sensor reports warning.
const warningMargin = 0.1

// SensorType is the measured quantity.
type SensorType string

const (
	SensorPH              SensorType = "ph"
	SensorTurbidity       SensorType = "turbidity"
	SensorChlorine        SensorType = "chlorine"
	SensorFlow            SensorType = "flow"
	SensorPressure        SensorType = "pressure"
	SensorTemperature     SensorType = "temperature"
	SensorDissolvedOxygen SensorType = "dissolved_oxygen"
	SensorConductivity    SensorType = "conductivity"
	SensorLevel           SensorType = "level"
	SensorTDS             SensorType = "tds"
)

// SensorTypes lists every supported type in display order.
var SensorTypes = []SensorType{
	SensorPH,
	SensorTurbidity,
	SensorChlorine,
	SensorFlow,
	SensorPressure,
	SensorTemperature,
	SensorDissolvedOxygen,
	SensorConductivity,
	SensorLevel,
	SensorTDS,
}

// SensorStatus is the value state against thresholds.
type SensorStatus string

const (
	SensorNormal   SensorStatus = "normal"
	SensorWarning  SensorStatus = "warning"
	SensorCritical SensorStatus = "critical"
)

// CommStatus is the communication state of a sensor.
type CommStatus string

const (
	CommOnline  CommStatus = "online"
	CommStale   CommStatus = "stale"
	CommOffline CommStatus = "offline"
)

const (
	staleAfter   = 5 * time.Minute
	offlineAfter = 30 * time.Minute
)

// HistoryPoint is one timestamped value.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Sensor is a measurement point at a plant.
type Sensor struct {
	ID           string         `json:"id"`
	PlantID      string         `json:"plantId"`
	Name         string         `json:"name"`
	Type         SensorType     `json:"type"`
	Unit         string         `json:"unit"`
	Value        float64        `json:"value"`
	MinThreshold float64        `json:"minThreshold"`
	MaxThreshold float64        `json:"maxThreshold"`
	Setpoint     *float64       `json:"setpoint,omitempty"`
	Status       SensorStatus   `json:"status"`
	CommStatus   CommStatus     `json:"commStatus"`
	LastUpdated  time.Time      `json:"lastUpdated"`
	History      []HistoryPoint `json:"history"`
	Priority     int            `json:"priority"`
	Location     string         `json:"location,omitempty"`
	Tag          string         `json:"tag,omitempty"`
}

// Clone returns a copy that shares no slices or pointers with s.
func (s Sensor) Clone() Sensor {
	out := s
	out.History = append([]HistoryPoint(nil), s.History...)
	if s.Setpoint != nil {
		sp := *s.Setpoint
		out.Setpoint = &sp
	}
	return out
}

// ApplyReading records a new value: status is recomputed, history is
// appended and trimmed to HistoryWindow, and the sensor is marked online.
func (s *Sensor) ApplyReading(value float64, at time.Time) {
	s.Value = value
	s.Status = EvaluateStatus(value, s.MinThreshold, s.MaxThreshold)
	s.CommStatus = CommOnline
	s.LastUpdated = at
	s.History = append(s.History, HistoryPoint{Timestamp: at, Value: value})
	if extra := len(s.History) - HistoryWindow; extra > 0 {
		s.History = append([]HistoryPoint(nil), s.History[extra:]...)
	}
}

// EvaluateStatus grades value against [minThreshold, maxThreshold]: outside is
// critical, inside but within the warning margin of a bound is warning.
func EvaluateStatus(value, minThreshold, maxThreshold float64) SensorStatus {
	if value < minThreshold || value > maxThreshold {
		return SensorCritical
	}
	margin := (maxThreshold - minThreshold) * warningMargin
	if value < minThreshold+margin || value > maxThreshold-margin {
		return SensorWarning
	}
	return SensorNormal
}

// CommStatusAt derives the communication state from the age of the last update.
func CommStatusAt(lastUpdated, now time.Time) CommStatus {
	age := now.Sub(lastUpdated)
	switch {
	case age > offlineAfter:
		return CommOffline
	case age > staleAfter:
		return CommStale
	default:
		return CommOnline
	}
}

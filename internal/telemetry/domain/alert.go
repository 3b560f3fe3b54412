package telemetry

import (
	"errors"
	"time"
)

var (
	// ErrAlertNotFound indicates a missing alert.
	ErrAlertNotFound = errors.New("alert: not found")
	// ErrInvalidTransition rejects a lifecycle step from the current status.
	ErrInvalidTransition = errors.New("alert: invalid status transition")
)

// Severity ranks alerts.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AlertStatus is the lifecycle state.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// Alert is raised when a sensor leaves its normal band.
type Alert struct {
	ID             string      `json:"id"`
	PlantID        string      `json:"plantId"`
	PlantName      string      `json:"plantName"`
	SensorID       string      `json:"sensorId"`
	SensorName     string      `json:"sensorName"`
	Severity       Severity    `json:"severity"`
	Message        string      `json:"message"`
	Threshold      float64     `json:"threshold"`
	Value          float64     `json:"value"`
	Unit           string      `json:"unit"`
	Status         AlertStatus `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	AcknowledgedAt *time.Time  `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy string      `json:"acknowledgedBy,omitempty"`
	ResolvedAt     *time.Time  `json:"resolvedAt,omitempty"`
	ResolvedBy     string      `json:"resolvedBy,omitempty"`
}

// Acknowledge moves an active alert to acknowledged. Acknowledging twice is a no-op.
func (a *Alert) Acknowledge(by string, at time.Time) (bool, error) {
	switch a.Status {
	case AlertAcknowledged:
		return false, nil
	case AlertActive:
		a.Status = AlertAcknowledged
		a.AcknowledgedAt = &at
		a.AcknowledgedBy = by
		return true, nil
	default:
		return false, ErrInvalidTransition
	}
}

// Resolve closes an active or acknowledged alert. Resolving twice is a no-op.
func (a *Alert) Resolve(by string, at time.Time) (bool, error) {
	switch a.Status {
	case AlertResolved:
		return false, nil
	case AlertActive, AlertAcknowledged:
		a.Status = AlertResolved
		a.ResolvedAt = &at
		a.ResolvedBy = by
		return true, nil
	default:
		return false, ErrInvalidTransition
	}
}

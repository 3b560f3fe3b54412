package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"plantwatch/internal/observability/metrics"
	telemetry "plantwatch/internal/telemetry/domain"
	"plantwatch/internal/telemetry/infrastructure/memory"
	"plantwatch/internal/telemetry/synthetic"
)

// Alert event types.
const (
	EventAcknowledged = "acknowledged"
	EventResolved     = "resolved"
)

// AlertNotifier publishes alert lifecycle events.
type AlertNotifier interface {
	Notify(ctx context.Context, event AlertEvent)
}

// AlertEvent represents a lifecycle update.
type AlertEvent struct {
	Type  string          `json:"type"`
	Alert telemetry.Alert `json:"alert"`
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service serves plant, sensor, alert and chart reads over the in-memory
// repositories and runs the alert lifecycle.
type Service struct {
	plants   *memory.PlantCatalogue
	sensors  *memory.SensorRepository
	alerts   *memory.AlertRepository
	notifier AlertNotifier
	clock    Clock
	logger   *zap.Logger
	// seededThrough is the end of the seeded history; sensors not updated
	// since keep their seeded comm status.
	seededThrough time.Time
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithNotifier assigns a notifier.
func WithNotifier(notifier AlertNotifier) ServiceOption {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a telemetry service.
func NewService(plants *memory.PlantCatalogue, sensors *memory.SensorRepository, alerts *memory.AlertRepository, opts ...ServiceOption) (*Service, error) {
	if plants == nil {
		return nil, errors.New("telemetry: nil plant catalogue")
	}
	if sensors == nil || alerts == nil {
		return nil, errors.New("telemetry: nil repository")
	}
	service := &Service{
		plants:  plants,
		sensors: sensors,
		alerts:  alerts,
		clock:   systemClock{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Seeded builds a service over the synthetic catalogue generated at now.
func Seeded(now time.Time, opts ...ServiceOption) (*Service, error) {
	plantList := synthetic.Plants(now)
	sensorList := synthetic.Sensors(plantList, now)
	plants, err := memory.NewPlantCatalogue(plantList)
	if err != nil {
		return nil, err
	}
	sensors, err := memory.NewSensorRepository(sensorList)
	if err != nil {
		return nil, err
	}
	alerts := memory.NewAlertRepository(synthetic.Alerts(plantList, sensorList, now))
	service, err := NewService(plants, sensors, alerts, opts...)
	if err != nil {
		return nil, err
	}
	service.seededThrough = synthetic.HourStart(now)
	return service, nil
}

// Sensors exposes the mutable sensor repository to the live-update loop.
func (s *Service) Sensors() *memory.SensorRepository {
	return s.sensors
}

// ListPlants returns the plant catalogue.
func (s *Service) ListPlants() []telemetry.Plant {
	return s.plants.List()
}

// PlantExists reports whether id is a catalogued plant.
func (s *Service) PlantExists(id string) bool {
	return s.plants.Exists(id)
}

// PlantStatusCounts counts plants per status.
func (s *Service) PlantStatusCounts() map[telemetry.PlantStatus]int {
	out := map[telemetry.PlantStatus]int{
		telemetry.PlantOnline:  0,
		telemetry.PlantWarning: 0,
		telemetry.PlantOffline: 0,
	}
	for _, p := range s.plants.List() {
		out[p.Status]++
	}
	return out
}

// ListSensors returns a plant's sensors with communication status refreshed
// against the clock. Only sensors updated after seeding age.
func (s *Service) ListSensors(plantID string) ([]telemetry.Sensor, error) {
	if !s.plants.Exists(plantID) {
		return nil, memory.ErrPlantNotFound
	}
	now := s.clock.Now()
	list := s.sensors.ListByPlant(plantID)
	for i := range list {
		if list[i].CommStatus == telemetry.CommOnline && list[i].LastUpdated.After(s.seededThrough) {
			list[i].CommStatus = telemetry.CommStatusAt(list[i].LastUpdated, now)
		}
	}
	return list, nil
}

// SensorsByID returns the requested sensors of a plant in the order given.
// Unknown ids are skipped.
func (s *Service) SensorsByID(plantID string, ids []string) []telemetry.Sensor {
	out := make([]telemetry.Sensor, 0, len(ids))
	for _, id := range ids {
		sensor, err := s.sensors.Get(id)
		if err != nil || sensor.PlantID != plantID {
			continue
		}
		out = append(out, sensor)
	}
	return out
}

// SensorName resolves a sensor id to its display name, falling back to the id.
func (s *Service) SensorName(id string) string {
	sensor, err := s.sensors.Get(id)
	if err != nil {
		return id
	}
	return sensor.Name
}

// ListAlerts returns alerts matching filter, newest first.
func (s *Service) ListAlerts(filter memory.AlertFilter) []telemetry.Alert {
	return s.alerts.List(filter)
}

// AckAlert acknowledges an alert.
func (s *Service) AckAlert(ctx context.Context, id, by string) (telemetry.Alert, error) {
	return s.transition(ctx, id, EventAcknowledged, func(a *telemetry.Alert, at time.Time) (bool, error) {
		return a.Acknowledge(by, at)
	})
}

// ResolveAlert resolves an alert.
func (s *Service) ResolveAlert(ctx context.Context, id, by string) (telemetry.Alert, error) {
	return s.transition(ctx, id, EventResolved, func(a *telemetry.Alert, at time.Time) (bool, error) {
		return a.Resolve(by, at)
	})
}

func (s *Service) transition(ctx context.Context, id, eventType string, fn func(*telemetry.Alert, time.Time) (bool, error)) (telemetry.Alert, error) {
	if s == nil {
		return telemetry.Alert{}, errors.New("telemetry: nil service")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return telemetry.Alert{}, errors.New("telemetry: alert id required")
	}
	at := s.clock.Now().UTC()
	alert, changed, err := s.alerts.Update(id, func(a *telemetry.Alert) (bool, error) {
		return fn(a, at)
	})
	if err != nil {
		return telemetry.Alert{}, err
	}
	if changed {
		s.logger.Info("alert transition", zap.String("alert_id", id), zap.String("event", eventType))
		s.notify(ctx, eventType, alert)
	}
	return alert, nil
}

func (s *Service) notify(ctx context.Context, eventType string, alert telemetry.Alert) {
	metrics.IncAlertEvent(eventType)
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, AlertEvent{Type: eventType, Alert: alert})
}

// HourlyAlerts returns the 24-hour alert chart.
func (s *Service) HourlyAlerts() []synthetic.HourlyAlertPoint {
	return synthetic.HourlyAlertData(s.clock.Now())
}

// Trends returns the parameter trend chart.
func (s *Service) Trends(hours int) []synthetic.TrendPoint {
	return synthetic.ParameterTrends(s.clock.Now(), hours)
}

// HealthMatrix returns the plant health matrix.
func (s *Service) HealthMatrix() []synthetic.HealthRow {
	return synthetic.PlantHealthMatrix(s.plants.List())
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

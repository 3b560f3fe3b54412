package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	telemetry "plantwatch/internal/telemetry/domain"
	"plantwatch/internal/telemetry/infrastructure/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type recordingNotifier struct {
	mu     sync.Mutex
	events []AlertEvent
}

func (r *recordingNotifier) Notify(_ context.Context, event AlertEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func newTestService(t *testing.T, notifier AlertNotifier) *Service {
	t.Helper()
	now := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	plants, err := memory.NewPlantCatalogue([]telemetry.Plant{
		{ID: "p1", Name: "One", Status: telemetry.PlantOnline},
		{ID: "p2", Name: "Two", Status: telemetry.PlantOffline},
	})
	require.NoError(t, err)
	sensors, err := memory.NewSensorRepository([]telemetry.Sensor{
		{ID: "p1-ph", PlantID: "p1", Name: "pH", CommStatus: telemetry.CommOnline, LastUpdated: now.Add(-time.Minute)},
		{ID: "p1-flow", PlantID: "p1", Name: "Flow", CommStatus: telemetry.CommOnline, LastUpdated: now.Add(-time.Hour)},
	})
	require.NoError(t, err)
	alerts := memory.NewAlertRepository([]telemetry.Alert{
		{ID: "a1", PlantID: "p1", SensorID: "p1-ph", Status: telemetry.AlertActive, CreatedAt: now},
	})
	svc, err := NewService(plants, sensors, alerts, WithClock(fixedClock{now: now}), WithNotifier(notifier))
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresRepositories(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	assert.Error(t, err)
}

func TestListSensorsRefreshesCommStatus(t *testing.T) {
	svc := newTestService(t, nil)
	list, err := svc.ListSensors("p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, telemetry.CommOnline, list[0].CommStatus)
	assert.Equal(t, telemetry.CommOffline, list[1].CommStatus)

	_, err = svc.ListSensors("nope")
	assert.ErrorIs(t, err, memory.ErrPlantNotFound)
}

func TestSensorsByIDKeepsOrderAndSkipsUnknown(t *testing.T) {
	svc := newTestService(t, nil)
	got := svc.SensorsByID("p1", []string{"p1-flow", "missing", "p1-ph"})
	require.Len(t, got, 2)
	assert.Equal(t, "p1-flow", got[0].ID)
	assert.Equal(t, "pH", svc.SensorName("p1-ph"))
	assert.Equal(t, "zzz", svc.SensorName("zzz"))
}

func TestAlertLifecycleNotifiesOnChange(t *testing.T) {
	rec := &recordingNotifier{}
	svc := newTestService(t, rec)
	ctx := context.Background()

	a, err := svc.AckAlert(ctx, "a1", "Operator")
	require.NoError(t, err)
	assert.Equal(t, telemetry.AlertAcknowledged, a.Status)

	_, err = svc.AckAlert(ctx, "a1", "Operator")
	require.NoError(t, err)

	a, err = svc.ResolveAlert(ctx, "a1", "Manager")
	require.NoError(t, err)
	assert.Equal(t, telemetry.AlertResolved, a.Status)

	_, err = svc.AckAlert(ctx, "a1", "Operator")
	assert.ErrorIs(t, err, telemetry.ErrInvalidTransition)

	_, err = svc.ResolveAlert(ctx, "missing", "Manager")
	assert.ErrorIs(t, err, telemetry.ErrAlertNotFound)

	require.Len(t, rec.events, 2)
	assert.Equal(t, EventAcknowledged, rec.events[0].Type)
	assert.Equal(t, EventResolved, rec.events[1].Type)
}

func TestMultiNotifierFansOut(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	NewMultiNotifier(a, nil, b).Notify(context.Background(), AlertEvent{Type: EventResolved})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestSeededServiceCharts(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	svc, err := Seeded(now, WithClock(fixedClock{now: now}))
	require.NoError(t, err)

	assert.NotEmpty(t, svc.ListPlants())
	assert.Len(t, svc.HourlyAlerts(), 24)
	assert.Len(t, svc.Trends(12), 12)
	assert.Len(t, svc.HealthMatrix(), len(svc.ListPlants()))

	counts := svc.PlantStatusCounts()
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, len(svc.ListPlants()), total)
}

func TestSeededSensorsKeepCommStatusLateInHour(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 40, 0, 0, time.UTC)
	svc, err := Seeded(now, WithClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("seeded: %v", err)
	}

	list, err := svc.ListSensors("plant-001")
	if err != nil {
		t.Fatalf("list sensors: %v", err)
	}
	online := 0
	for _, s := range list {
		stored, err := svc.Sensors().Get(s.ID)
		if err != nil {
			t.Fatalf("get %s: %v", s.ID, err)
		}
		if s.CommStatus != stored.CommStatus {
			t.Errorf("%s: comm status %s, seeded %s", s.ID, s.CommStatus, stored.CommStatus)
		}
		if s.CommStatus == telemetry.CommOnline {
			online++
		}
	}
	if online == 0 {
		t.Fatalf("expected online sensors on an online plant, got none of %d", len(list))
	}

	// an update after seeding makes the sensor subject to aging again
	_, err = svc.Sensors().Update("plant-001-ph", func(s *telemetry.Sensor) {
		s.ApplyReading(s.Value, time.Date(2026, 3, 4, 9, 5, 0, 0, time.UTC))
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err = svc.ListSensors("plant-001")
	if err != nil {
		t.Fatalf("list sensors: %v", err)
	}
	for _, s := range list {
		if s.ID == "plant-001-ph" && s.CommStatus != telemetry.CommOffline {
			t.Fatalf("plant-001-ph comm status = %s, want offline", s.CommStatus)
		}
	}
}

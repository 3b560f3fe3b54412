package synthetic

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	telemetry "plantwatch/internal/telemetry/domain"
)

func TestSeededRangeAndFormula(t *testing.T) {
	for seed := -50; seed < 500; seed++ {
		v := Seeded(seed)
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
	x := math.Sin(17) * 10000
	assert.Equal(t, x-math.Floor(x), Seeded(17))
	assert.Equal(t, Seeded(42), Seeded(42))
}

func TestHourlyAlertDataStableWithinHour(t *testing.T) {
	first := HourlyAlertData(time.Date(2026, 3, 4, 10, 1, 0, 0, time.UTC))
	second := HourlyAlertData(time.Date(2026, 3, 4, 10, 59, 59, 0, time.UTC))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("hourly data changed within the hour (-first +second):\n%s", diff)
	}
	require.Len(t, first, 24)
	assert.Equal(t, time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), first[23].Hour)
	for _, p := range first {
		assert.Equal(t, p.Critical+p.High+p.Medium+p.Low, p.Total)
	}
}

func TestHourlyAlertDataUsesHourSeed(t *testing.T) {
	points := HourlyAlertData(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC))
	noon := points[23]
	assert.Equal(t, int(math.Floor(Seeded(12*17+1)*2*1.5)), noon.Critical)
	assert.Equal(t, int(math.Floor(Seeded(12*17+4)*8*1.5)), noon.Low)
}

func TestDayNightMultiplier(t *testing.T) {
	assert.Equal(t, 0.6, DayNightMultiplier(7))
	assert.Equal(t, 1.5, DayNightMultiplier(8))
	assert.Equal(t, 1.5, DayNightMultiplier(17))
	assert.Equal(t, 0.6, DayNightMultiplier(18))
}

func TestParameterTrends(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	points := ParameterTrends(now, 6)
	require.Len(t, points, 6)
	for _, p := range points {
		require.Len(t, p.Values, len(TrendParameters))
		for _, param := range TrendParameters {
			v := p.Values[param.Key]
			assert.LessOrEqual(t, math.Abs(v-param.Base), param.Amplitude+0.01, param.Key)
		}
	}
	assert.Len(t, ParameterTrends(now, 0), 24)
	if diff := cmp.Diff(points, ParameterTrends(now.Add(20*time.Minute), 6)); diff != "" {
		t.Fatalf("trends changed within the hour:\n%s", diff)
	}
}

func TestBucketHealth(t *testing.T) {
	assert.Equal(t, HealthIssue, BucketHealth(0.95))
	assert.Equal(t, HealthAttention, BucketHealth(0.90))
	assert.Equal(t, HealthAttention, BucketHealth(0.80))
	assert.Equal(t, HealthGood, BucketHealth(0.75))
	assert.Equal(t, HealthGood, BucketHealth(0.1))
}

func TestPlantHealthMatrix(t *testing.T) {
	plants := Plants(time.Now())
	rows := PlantHealthMatrix(plants)
	require.Len(t, rows, len(plants))
	for pi, row := range rows {
		require.Len(t, row.Cells, 6)
		for ci, cell := range row.Cells {
			assert.Equal(t, BucketHealth(Seeded(pi*6+ci)), cell.Status)
		}
	}
	total := 0
	for _, n := range HealthSummary(rows) {
		total += n
	}
	assert.Equal(t, len(plants)*6, total)
}

func TestCatalogue(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	plants := Plants(now)
	for _, p := range plants {
		require.NoError(t, p.Validate())
	}
	sensors := Sensors(plants, now)
	require.Len(t, sensors, len(plants)*plants[0].SensorCount)

	seen := map[string]bool{}
	for _, s := range sensors {
		assert.False(t, seen[s.ID], "duplicate sensor id %s", s.ID)
		seen[s.ID] = true
		assert.Len(t, s.History, telemetry.HistoryWindow)
		assert.Equal(t, telemetry.EvaluateStatus(s.Value, s.MinThreshold, s.MaxThreshold), s.Status)
	}
	assert.True(t, seen["plant-001-ph"])
	assert.True(t, seen["plant-001-ph-out"])

	if diff := cmp.Diff(sensors, Sensors(plants, now.Add(10*time.Minute))); diff != "" {
		t.Fatalf("sensors changed within the hour:\n%s", diff)
	}

	alerts := Alerts(plants, sensors, now)
	for _, a := range alerts {
		assert.True(t, seen[a.SensorID])
		assert.NotEmpty(t, a.PlantName)
		if a.Status == telemetry.AlertResolved {
			assert.NotNil(t, a.ResolvedAt)
		}
	}
}

func TestAlertLifecycleFieldsMatchStatus(t *testing.T) {
	now := time.Date(2026, 3, 4, 14, 20, 0, 0, time.UTC)
	plants := Plants(now)
	alerts := Alerts(plants, Sensors(plants, now), now)
	if len(alerts) == 0 {
		t.Fatal("expected seeded alerts")
	}
	for _, a := range alerts {
		acked := a.AcknowledgedAt != nil && a.AcknowledgedBy != ""
		resolved := a.ResolvedAt != nil && a.ResolvedBy != ""
		switch a.Status {
		case telemetry.AlertActive:
			if a.AcknowledgedAt != nil || a.ResolvedAt != nil {
				t.Errorf("%s: active alert carries lifecycle timestamps", a.ID)
			}
		case telemetry.AlertAcknowledged:
			if !acked || a.ResolvedAt != nil {
				t.Errorf("%s: acknowledged alert fields inconsistent", a.ID)
			}
		case telemetry.AlertResolved:
			if !acked || !resolved {
				t.Errorf("%s: resolved alert fields inconsistent", a.ID)
			}
			if !a.ResolvedAt.After(*a.AcknowledgedAt) {
				t.Errorf("%s: resolved before acknowledged", a.ID)
			}
		default:
			t.Errorf("%s: unexpected status %q", a.ID, a.Status)
		}
	}
}

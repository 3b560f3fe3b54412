package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	readings "plantwatch/internal/readings/domain"
	"plantwatch/internal/storage"
	"plantwatch/internal/storage/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("reading-%03d", n)
	}
}

func TestAddReadingSurvivesReload(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	at := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

	store, err := NewStore(ctx, kv)
	require.NoError(t, err)
	added, err := store.AddReading(ctx, readings.Input{SensorID: "plant-001-ph", Value: 7.4, Timestamp: at, EnteredBy: "Operator One"})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	reloaded, err := NewStore(ctx, kv)
	require.NoError(t, err)
	list := reloaded.GetReadingsForSensor("plant-001-ph")
	require.Len(t, list, 1)
	assert.Equal(t, 7.4, list[0].Value)
	assert.IsType(t, time.Time{}, list[0].Timestamp)
	assert.True(t, at.Equal(list[0].Timestamp))
	assert.Equal(t, readings.SourceManual, list[0].Source)
}

func TestReadingsAreMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, memory.NewKV(), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.AddReading(ctx, readings.Input{SensorID: "s", Value: float64(i)})
		require.NoError(t, err)
	}
	_, err = store.AddReading(ctx, readings.Input{SensorID: "other", Value: 9})
	require.NoError(t, err)

	ids := func(list []readings.Reading) []string {
		out := make([]string, 0, len(list))
		for _, r := range list {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []string{"reading-003", "reading-002", "reading-001"}, ids(store.GetReadingsForSensor("s")))
	assert.Equal(t, []string{"reading-004", "reading-003"}, ids(store.GetRecentReadings(2)))
	assert.Len(t, store.GetRecentReadings(0), 4)
	assert.Empty(t, store.GetReadingsForSensor("unknown"))
}

func TestRecentReadingsDefaultLimit(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, memory.NewKV())
	require.NoError(t, err)
	for i := 0; i < readings.DefaultRecentLimit+5; i++ {
		_, err := store.AddReading(ctx, readings.Input{SensorID: "s", Value: float64(i)})
		require.NoError(t, err)
	}
	assert.Len(t, store.GetRecentReadings(-1), readings.DefaultRecentLimit)
}

func TestDeleteReadingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, memory.NewKV())
	require.NoError(t, err)

	first, err := store.AddReading(ctx, readings.Input{SensorID: "s", Value: 1})
	require.NoError(t, err)
	_, err = store.AddReading(ctx, readings.Input{SensorID: "s", Value: 2})
	require.NoError(t, err)

	found, err := store.DeleteReading(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, store.All(), 1)

	found, err = store.DeleteReading(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Len(t, store.All(), 1)
}

func TestClearAllReadings(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store, err := NewStore(ctx, kv)
	require.NoError(t, err)
	_, err = store.AddReading(ctx, readings.Input{SensorID: "s", Value: 1})
	require.NoError(t, err)

	require.NoError(t, store.ClearAllReadings(ctx))
	assert.Empty(t, store.All())

	loaded, err := kv.Load(ctx, storage.KeyManualReadings)
	require.NoError(t, err)
	assert.JSONEq(t, `{"readings":[]}`, string(loaded.Data))
}

func TestAddReadingDefaultsTimestampToClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store, err := NewStore(ctx, memory.NewKV(), WithClock(fixedClock{now: now}))
	require.NoError(t, err)

	r, err := store.AddReading(ctx, readings.Input{SensorID: "s", Value: 1})
	require.NoError(t, err)
	assert.Equal(t, now, r.Timestamp)

	_, err = store.AddReading(ctx, readings.Input{Value: 1})
	assert.ErrorIs(t, err, readings.ErrEmptySensorID)
}

func TestCorruptJournal(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	require.NoError(t, kv.Save(ctx, storage.KeyManualReadings, []byte(`{"readings":[{"id":"r","sensorId":"s","value":1,"timestamp":"not-a-time"}]}`)))

	store, err := NewStore(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, store.All())

	_, err = NewStore(ctx, kv, WithPolicy(storage.Policy{FailOnCorrupt: true}))
	var corrupt *storage.CorruptError
	assert.ErrorAs(t, err, &corrupt)
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, memory.NewKV())
	require.NoError(t, err)
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		r, err := store.AddReading(ctx, readings.Input{SensorID: "s", Value: 1})
		require.NoError(t, err)
		_, dup := seen[r.ID]
		require.False(t, dup)
		seen[r.ID] = struct{}{}
	}
}

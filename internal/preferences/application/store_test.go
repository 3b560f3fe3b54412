package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	preferences "plantwatch/internal/preferences/domain"
	"plantwatch/internal/storage"
	"plantwatch/internal/storage/memory"
)

type failingKV struct {
	*memory.KV
	saveErr error
}

func (f failingKV) Save(ctx context.Context, key string, data []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.KV.Save(ctx, key, data)
}

func TestNewStoreRequiresStorage(t *testing.T) {
	_, err := NewStore(context.Background(), nil)
	assert.Error(t, err)
}

func TestStorePersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store, err := NewStore(ctx, kv)
	require.NoError(t, err)

	require.NoError(t, store.SetActiveTab(ctx, "plant-002"))
	_, err = store.AddSensor(ctx, "plant-002", "plant-002-ph")
	require.NoError(t, err)
	_, err = store.AddSensor(ctx, "plant-002", "plant-002-flow")
	require.NoError(t, err)

	loaded, err := kv.Load(ctx, storage.KeyDashboardPreferences)
	require.NoError(t, err)
	assert.JSONEq(t, `{"selectedSensors":{"plant-002":["plant-002-ph","plant-002-flow"]},"activeTab":"plant-002"}`, string(loaded.Data))

	reloaded, err := NewStore(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, []string{"plant-002-ph", "plant-002-flow"}, reloaded.GetSelectedSensors("plant-002"))
	tab, ok := reloaded.ActiveTab()
	assert.True(t, ok)
	assert.Equal(t, "plant-002", tab)
}

func TestStoreScenario(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, memory.NewKV())
	require.NoError(t, err)

	require.NoError(t, store.SetActiveTab(ctx, "P"))
	for _, id := range []string{"A", "B", "C"} {
		outcome, err := store.AddSensor(ctx, "P", id)
		require.NoError(t, err)
		require.Equal(t, preferences.OutcomeAdded, outcome)
	}
	assert.Equal(t, 3, store.GetSelectedCount("P"))

	outcome, err := store.RemoveSensor(ctx, "P", "B")
	require.NoError(t, err)
	assert.Equal(t, preferences.OutcomeRemoved, outcome)
	assert.Equal(t, 2, store.GetSelectedCount("P"))
	assert.False(t, store.IsSensorSelected("P", "B"))
}

func TestStoreClearAll(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store, err := NewStore(ctx, kv)
	require.NoError(t, err)

	require.NoError(t, store.SetActiveTab(ctx, "plant-001"))
	_, err = store.SetSelectedSensors(ctx, "plant-001", []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, store.ClearAllPreferences(ctx))

	assert.Empty(t, store.GetSelectedSensors("plant-001"))
	_, ok := store.ActiveTab()
	assert.False(t, ok)

	reloaded, err := NewStore(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, reloaded.GetSelectedSensors("plant-001"))
	_, ok = reloaded.ActiveTab()
	assert.False(t, ok)
}

func TestStoreCorruptStateResetsByDefault(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	require.NoError(t, kv.Save(ctx, storage.KeyDashboardPreferences, []byte(`{"selectedSensors":`)))

	store, err := NewStore(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, store.GetSelectedSensors("plant-001"))

	_, err = NewStore(ctx, kv, WithPolicy(storage.Policy{FailOnCorrupt: true}))
	var corrupt *storage.CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, storage.KeyDashboardPreferences, corrupt.Key)
}

func TestStoreOverCapStoredStateIsTrimmed(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	require.NoError(t, kv.Save(ctx, storage.KeyDashboardPreferences,
		[]byte(`{"selectedSensors":{"p":["1","2","3","4","5","6","7","8","9","10","11","12","13"]},"activeTab":null}`)))

	store, err := NewStore(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, preferences.MaxSelectedSensors, store.GetSelectedCount("p"))
}

func TestStoreSaveErrorPolicy(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")

	lenient, err := NewStore(ctx, failingKV{KV: memory.NewKV(), saveErr: boom})
	require.NoError(t, err)
	outcome, err := lenient.AddSensor(ctx, "p", "a")
	require.NoError(t, err)
	assert.Equal(t, preferences.OutcomeAdded, outcome)
	assert.True(t, lenient.IsSensorSelected("p", "a"))

	strict, err := NewStore(ctx, failingKV{KV: memory.NewKV(), saveErr: boom}, WithPolicy(storage.Policy{FailOnSaveError: true}))
	require.NoError(t, err)
	_, err = strict.AddSensor(ctx, "p", "a")
	require.ErrorIs(t, err, boom)
	assert.False(t, strict.IsSensorSelected("p", "a"))
}

func TestStoreTruncationOutcome(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, memory.NewKV())
	require.NoError(t, err)

	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14"}
	outcome, err := store.SetSelectedSensors(ctx, "p", ids)
	require.NoError(t, err)
	assert.Equal(t, preferences.OutcomeTruncated, outcome)
	assert.Equal(t, ids[:12], store.GetSelectedSensors("p"))

	outcome, err = store.AddSensor(ctx, "p", "15")
	require.NoError(t, err)
	assert.Equal(t, preferences.OutcomeLimitReached, outcome)
	assert.Equal(t, 12, store.GetSelectedCount("p"))
}

package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("absent passes through", func(t *testing.T) {
		var p payload
		out := Decode(Loaded{State: StateAbsent}, &p)
		assert.Equal(t, StateAbsent, out.State)
		assert.Empty(t, p.Name)
	})

	t.Run("valid json decodes", func(t *testing.T) {
		var p payload
		out := Decode(Loaded{State: StateValid, Data: []byte(`{"name":"north"}`)}, &p)
		assert.Equal(t, StateValid, out.State)
		assert.Equal(t, "north", p.Name)
	})

	t.Run("broken json is corrupt", func(t *testing.T) {
		var p payload
		out := Decode(Loaded{State: StateValid, Data: []byte(`{"name":`)}, &p)
		assert.Equal(t, StateCorrupt, out.State)
		assert.Error(t, out.Cause)
	})

	t.Run("empty payload is corrupt", func(t *testing.T) {
		var p payload
		out := Decode(Loaded{State: StateValid}, &p)
		assert.Equal(t, StateCorrupt, out.State)
	})
}

func TestCorruptErrorUnwrap(t *testing.T) {
	cause := errors.New("bad timestamp")
	err := error(&CorruptError{Key: KeyManualReadings, Cause: cause})
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), KeyManualReadings)
	assert.Equal(t, "corrupt", StateCorrupt.String())
}

func TestValidTableName(t *testing.T) {
	for name, want := range map[string]bool{
		"dashboard_state": true,
		"_state2":         true,
		"":                false,
		"2state":          false,
		"State":           false,
		"a-b":             false,
		"x; drop table y": false,
	} {
		if got := ValidTableName(name); got != want {
			t.Errorf("ValidTableName(%q) = %v, want %v", name, got, want)
		}
	}
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
)

// Namespaces under which dashboard state is persisted.
const (
	KeyDashboardPreferences = "dashboard-preferences"
	KeyManualReadings       = "manual-readings"
	KeyAuthSession          = "auth-session"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidTableName reports whether name is safe to splice into SQL as a table
// identifier.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// ErrEmptyKey is returned by backends for an empty namespace key.
var ErrEmptyKey = errors.New("storage: empty key")

// State classifies the result of a load.
type State int

const (
	StateAbsent State = iota
	StateValid
	StateCorrupt
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateValid:
		return "valid"
	case StateCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Loaded is the outcome of reading a namespace.
type Loaded struct {
	State State
	Data  []byte
	// Cause explains a corrupt payload.
	Cause error
}

// KV is a durable key/value store holding one serialized snapshot per namespace.
type KV interface {
	Load(ctx context.Context, key string) (Loaded, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Policy controls how stores react to storage problems. The zero value resets
// corrupt state to defaults and logs failed saves without failing the caller.
type Policy struct {
	FailOnCorrupt   bool
	FailOnSaveError bool
}

// Decode unmarshals a valid payload into target. Absent loads are returned
// unchanged; a payload that does not decode is reported as StateCorrupt.
func Decode(loaded Loaded, target any) Loaded {
	if loaded.State != StateValid {
		return loaded
	}
	if len(loaded.Data) == 0 {
		return Loaded{State: StateCorrupt, Data: loaded.Data, Cause: errors.New("storage: empty payload")}
	}
	if err := json.Unmarshal(loaded.Data, target); err != nil {
		return Loaded{State: StateCorrupt, Data: loaded.Data, Cause: err}
	}
	return loaded
}

// Corrupt marks a decoded payload as corrupt because it failed validation.
func Corrupt(loaded Loaded, cause error) Loaded {
	return Loaded{State: StateCorrupt, Data: loaded.Data, Cause: cause}
}

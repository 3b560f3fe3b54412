package storage

import "fmt"

// CorruptError reports a namespace whose payload could not be used.
type CorruptError struct {
	Key   string
	Cause error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("storage: corrupt state under %q: %v", e.Key, e.Cause)
}

func (e *CorruptError) Unwrap() error {
	return e.Cause
}

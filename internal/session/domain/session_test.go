package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidAtIsStrict(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	s := Session{User: User{ID: "u", Email: "a@b"}, ExpiresAt: now.UnixMilli()}
	assert.False(t, s.ValidAt(now))
	assert.True(t, s.ValidAt(now.Add(-time.Millisecond)))
	assert.False(t, s.ValidAt(now.Add(time.Millisecond)))
}

func TestNewAndValidate(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(User{ID: "u", Email: "a@b"}, now, time.Hour)
	assert.NoError(t, s.Validate())
	assert.Equal(t, now.Add(time.Hour), s.Expiry())
	assert.ErrorIs(t, Session{ExpiresAt: 1}.Validate(), ErrInvalidSession)
	assert.ErrorIs(t, Session{User: User{ID: "u", Email: "a@b"}}.Validate(), ErrInvalidSession)
	assert.Equal(t, "ops@plant.io", NormalizeEmail("  Ops@Plant.IO "))
}

package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"plantwatch/internal/auth"
	session "plantwatch/internal/session/domain"
	"plantwatch/internal/storage"
	"plantwatch/internal/storage/memory"
)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func testAccounts(t *testing.T) []session.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return []session.Account{{
		User:         session.User{ID: "u-1", Name: "Olive Operator", Email: "Operator@Plant.test", Role: "operator"},
		PasswordHash: hash,
	}}
}

func newTestService(t *testing.T, kv storage.KV, clock *manualClock) *Service {
	t.Helper()
	svc, err := NewService(kv, testAccounts(t), []byte("jwt-secret"), WithClock(clock), WithTTL(time.Hour))
	require.NoError(t, err)
	return svc
}

func TestLoginPersistsSession(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	clock := &manualClock{now: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(t, kv, clock)

	ok, err := svc.Login(ctx, "operator@plant.test", "secret")
	require.NoError(t, err)
	require.True(t, ok)

	loaded, err := kv.Load(ctx, storage.KeyAuthSession)
	require.NoError(t, err)
	assert.Equal(t, storage.StateValid, loaded.State)
	assert.Contains(t, string(loaded.Data), `"expiresAt":`)

	sess, ok, err := svc.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u-1", sess.User.ID)
	assert.Equal(t, clock.now.Add(time.Hour).UnixMilli(), sess.ExpiresAt)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	svc := newTestService(t, kv, &manualClock{now: time.Now()})

	ok, err := svc.Login(ctx, "operator@plant.test", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Login(ctx, "nobody@plant.test", "secret")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCurrentExpiryIsStrict(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	clock := &manualClock{now: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(t, kv, clock)

	ok, err := svc.Login(ctx, "operator@plant.test", "secret")
	require.NoError(t, err)
	require.True(t, ok)

	clock.now = clock.now.Add(time.Hour - time.Millisecond)
	_, ok, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.now = clock.now.Add(time.Millisecond)
	_, ok, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := kv.Load(ctx, storage.KeyAuthSession)
	require.NoError(t, err)
	assert.Equal(t, storage.StateAbsent, loaded.State)
}

func TestCurrentDiscardsMalformedSession(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	svc := newTestService(t, kv, &manualClock{now: time.Now()})

	for _, payload := range []string{`{not json`, `{"user":{},"expiresAt":99999999999999}`} {
		require.NoError(t, kv.Save(ctx, storage.KeyAuthSession, []byte(payload)))
		_, ok, err := svc.Current(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		loaded, err := kv.Load(ctx, storage.KeyAuthSession)
		require.NoError(t, err)
		assert.Equal(t, storage.StateAbsent, loaded.State)
	}
}

func TestLogoutAndToken(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Now().UTC()}
	svc := newTestService(t, memory.NewKV(), clock)

	ok, err := svc.Login(ctx, "operator@plant.test", "secret")
	require.NoError(t, err)
	require.True(t, ok)
	sess, ok, err := svc.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	token, err := svc.Token(sess)
	require.NoError(t, err)
	claims, err := auth.ParseJWT(token, []byte("jwt-secret"))
	require.NoError(t, err)
	assert.Equal(t, auth.RoleOperator, claims.Identity().Role)

	require.NoError(t, svc.Logout(ctx))
	_, ok, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Token(session.Session{User: sess.User, ExpiresAt: clock.now.UnixMilli()})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestNewServiceValidatesAccounts(t *testing.T) {
	_, err := NewService(nil, nil, []byte("x"))
	assert.Error(t, err)
	_, err = NewService(memory.NewKV(), nil, nil)
	assert.Error(t, err)
	_, err = NewService(memory.NewKV(), []session.Account{{User: session.User{ID: "u", Email: "a@b", Role: "admin"}, PasswordHash: []byte("x")}}, []byte("x"))
	assert.Error(t, err)
}

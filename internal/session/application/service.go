package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"plantwatch/internal/auth"
	"plantwatch/internal/observability/metrics"
	session "plantwatch/internal/session/domain"
	"plantwatch/internal/storage"
)

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 8 * time.Hour

// ErrNoSession is returned when a token is requested without a live session.
var ErrNoSession = errors.New("session: no active session")

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service logs users in against the configured accounts and persists the
// resulting session under a single storage namespace.
type Service struct {
	kv       storage.KV
	key      string
	accounts map[string]session.Account
	secret   []byte
	ttl      time.Duration
	clock    Clock
	logger   *zap.Logger
	// dummy is compared against when the email is unknown so both paths pay
	// the bcrypt cost.
	dummy []byte
}

// Option customizes the service.
type Option func(*Service)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a session service.
func NewService(kv storage.KV, accounts []session.Account, secret []byte, opts ...Option) (*Service, error) {
	if kv == nil {
		return nil, errors.New("session: nil storage")
	}
	if len(secret) == 0 {
		return nil, errors.New("session: empty token secret")
	}
	s := &Service{
		kv:       kv,
		key:      storage.KeyAuthSession,
		accounts: make(map[string]session.Account, len(accounts)),
		secret:   secret,
		ttl:      DefaultTTL,
		clock:    systemClock{},
		logger:   zap.NewNop(),
	}
	for _, acc := range accounts {
		email := session.NormalizeEmail(acc.User.Email)
		if email == "" || acc.User.ID == "" {
			return nil, errors.New("session: account requires id and email")
		}
		if _, ok := auth.NormalizeRole(acc.User.Role); !ok {
			return nil, fmt.Errorf("session: account %s has invalid role %q", email, acc.User.Role)
		}
		if len(acc.PasswordHash) == 0 {
			return nil, fmt.Errorf("session: account %s has no password hash", email)
		}
		s.accounts[email] = acc
	}
	for _, opt := range opts {
		opt(s)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("plantwatch-unknown-user"), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.dummy = dummy
	return s, nil
}

// TTL returns the configured session lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Login checks the credentials and on success persists a new session. Bad
// credentials return false with a nil error.
func (s *Service) Login(ctx context.Context, email, password string) (bool, error) {
	acc, known := s.accounts[session.NormalizeEmail(email)]
	hash := s.dummy
	if known {
		hash = acc.PasswordHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !known {
		metrics.IncSessionLogin(metrics.LoginRejected)
		s.logger.Info("login rejected", zap.String("email", session.NormalizeEmail(email)))
		return false, nil
	}

	sess := session.New(acc.User, s.clock.Now(), s.ttl)
	data, err := json.Marshal(sess)
	if err != nil {
		return false, fmt.Errorf("session: encode: %w", err)
	}
	if err := s.kv.Save(ctx, s.key, data); err != nil {
		metrics.IncStorageError(s.key, "save")
		return false, fmt.Errorf("session: save: %w", err)
	}
	metrics.IncSessionLogin(metrics.LoginAccepted)
	s.logger.Info("login accepted", zap.String("user_id", acc.User.ID), zap.String("role", acc.User.Role))
	return true, nil
}

// Current returns the persisted session when it is still valid. Expired or
// malformed entries are deleted and reported as no session.
func (s *Service) Current(ctx context.Context) (session.Session, bool, error) {
	loaded, err := s.kv.Load(ctx, s.key)
	if err != nil {
		metrics.IncStorageError(s.key, "load")
		return session.Session{}, false, fmt.Errorf("session: load: %w", err)
	}
	var sess session.Session
	loaded = storage.Decode(loaded, &sess)
	if loaded.State == storage.StateValid {
		if err := sess.Validate(); err != nil {
			loaded = storage.Corrupt(loaded, err)
		}
	}
	switch loaded.State {
	case storage.StateAbsent:
		return session.Session{}, false, nil
	case storage.StateCorrupt:
		metrics.IncStorageCorrupt(s.key)
		s.logger.Warn("discarding malformed session", zap.Error(loaded.Cause))
		return session.Session{}, false, s.discard(ctx)
	}
	if !sess.ValidAt(s.clock.Now()) {
		s.logger.Debug("session expired", zap.String("user_id", sess.User.ID))
		return session.Session{}, false, s.discard(ctx)
	}
	return sess, true, nil
}

// Logout removes the persisted session.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		metrics.IncStorageError(s.key, "delete")
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// Token signs a bearer token for sess that expires with it.
func (s *Service) Token(sess session.Session) (string, error) {
	now := s.clock.Now()
	if !sess.ValidAt(now) {
		return "", ErrNoSession
	}
	role, ok := auth.NormalizeRole(sess.User.Role)
	if !ok {
		return "", fmt.Errorf("session: invalid role %q", sess.User.Role)
	}
	return auth.IssueJWT(auth.Identity{
		Subject: sess.User.ID,
		Role:    role,
		Name:    sess.User.Name,
		Email:   sess.User.Email,
	}, s.secret, now, sess.Expiry())
}

func (s *Service) discard(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		metrics.IncStorageError(s.key, "delete")
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"plantwatch/internal/observability/metrics"
	telemetry "plantwatch/internal/telemetry/domain"
)

// Policy selects which sensors a tick mutates.
type Policy string

const (
	// PolicyAll mutates every sensor of the watched plant.
	PolicyAll Policy = "all"
	// PolicyRandom mutates one sensor picked uniformly at random.
	PolicyRandom Policy = "random"
)

// DefaultInterval is the tick period when none is configured.
const DefaultInterval = 3 * time.Second

const (
	// perturbation is the maximum per-tick step as a share of the threshold span.
	perturbation = 0.02
	// overshoot bounds how far past a threshold a drifting value may go.
	overshoot = 0.1
)

// ErrEmptyPlantID rejects Watch without a plant.
var ErrEmptyPlantID = errors.New("liveupdate: empty plant id")

// ParsePolicy maps a config string to a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyAll:
		return PolicyAll, nil
	case PolicyRandom:
		return PolicyRandom, nil
	default:
		return "", fmt.Errorf("liveupdate: unknown policy %q", value)
	}
}

// SensorUpdated is published after every mutation.
type SensorUpdated struct {
	PlantID string           `json:"plantId"`
	Sensor  telemetry.Sensor `json:"sensor"`
}

// Publisher receives sensor updates.
type Publisher interface {
	PublishSensor(ctx context.Context, event SensorUpdated)
}

// SensorStore is the mutable sensor collection the loop drives.
type SensorStore interface {
	IDsByPlant(plantID string) []string
	Update(id string, fn func(*telemetry.Sensor)) (telemetry.Sensor, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Loop simulates a telemetry feed for one plant at a time. At most one
// ticker goroutine exists; Watch stops the previous one and waits for it to
// exit before arming the next.
type Loop struct {
	sensors   SensorStore
	policy    Policy
	interval  time.Duration
	publisher Publisher
	clock     Clock
	logger    *zap.Logger
	base      context.Context

	randMu sync.Mutex
	rnd    *rand.Rand

	mu      sync.Mutex
	plantID string
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option customizes the loop.
type Option func(*Loop)

// WithPolicy sets the mutation policy.
func WithPolicy(policy Policy) Option {
	return func(l *Loop) {
		if policy != "" {
			l.policy = policy
		}
	}
}

// WithInterval sets the tick period.
func WithInterval(interval time.Duration) Option {
	return func(l *Loop) {
		if interval > 0 {
			l.interval = interval
		}
	}
}

// WithPublisher assigns the update publisher.
func WithPublisher(publisher Publisher) Option {
	return func(l *Loop) {
		l.publisher = publisher
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(l *Loop) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithSeed makes perturbations reproducible.
func WithSeed(seed int64) Option {
	return func(l *Loop) {
		l.rnd = rand.New(rand.NewSource(seed))
	}
}

// WithBaseContext parents every ticker goroutine. Cancelling it stops the
// loop as if Stop had been called.
func WithBaseContext(ctx context.Context) Option {
	return func(l *Loop) {
		if ctx != nil {
			l.base = ctx
		}
	}
}

// NewLoop constructs an idle loop.
func NewLoop(sensors SensorStore, opts ...Option) (*Loop, error) {
	if sensors == nil {
		return nil, errors.New("liveupdate: nil sensor store")
	}
	l := &Loop{
		sensors:  sensors,
		policy:   PolicyAll,
		interval: DefaultInterval,
		clock:    systemClock{},
		logger:   zap.NewNop(),
		base:     context.Background(),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.policy != PolicyAll && l.policy != PolicyRandom {
		return nil, fmt.Errorf("liveupdate: unknown policy %q", l.policy)
	}
	return l, nil
}

// Watch rearms the loop on plantID. Watching the plant already being
// watched leaves the running ticker alone.
func (l *Loop) Watch(plantID string) error {
	plantID = strings.TrimSpace(plantID)
	if plantID == "" {
		return ErrEmptyPlantID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil && l.plantID == plantID && !l.exited() {
		return nil
	}
	l.stopLocked()

	ctx, cancel := context.WithCancel(l.base)
	done := make(chan struct{})
	l.plantID = plantID
	l.cancel = cancel
	l.done = done
	go l.run(ctx, plantID, done)
	metrics.SetLiveLoopsActive(1)
	l.logger.Debug("live loop armed", zap.String("plant_id", plantID), zap.String("policy", string(l.policy)), zap.Duration("interval", l.interval))
	return nil
}

// Stop tears the loop down and waits for the ticker goroutine to exit.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

// Watching returns the plant currently being driven.
func (l *Loop) Watching() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil || l.exited() {
		return "", false
	}
	return l.plantID, true
}

// Policy returns the configured policy.
func (l *Loop) Policy() Policy {
	return l.policy
}

// Interval returns the configured tick period.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

func (l *Loop) stopLocked() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.logger.Debug("live loop stopped", zap.String("plant_id", l.plantID))
	l.cancel = nil
	l.done = nil
	l.plantID = ""
	metrics.SetLiveLoopsActive(0)
}

func (l *Loop) exited() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

func (l *Loop) run(ctx context.Context, plantID string, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick(ctx, plantID)
		}
	}
}

// Tick performs one round of mutations on plantID and returns how many
// sensors were updated.
func (l *Loop) Tick(ctx context.Context, plantID string) int {
	start := time.Now()
	ids := l.sensors.IDsByPlant(plantID)
	if len(ids) == 0 {
		metrics.ObserveLiveTick(string(l.policy), 0, time.Since(start))
		return 0
	}
	if l.policy == PolicyRandom {
		ids = []string{ids[l.randIntn(len(ids))]}
	}

	now := l.clock.Now().UTC()
	updated := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		sensor, err := l.sensors.Update(id, func(s *telemetry.Sensor) {
			s.ApplyReading(l.perturb(*s), now)
		})
		if err != nil {
			l.logger.Warn("live update failed", zap.String("sensor_id", id), zap.Error(err))
			continue
		}
		updated++
		if l.publisher != nil {
			l.publisher.PublishSensor(ctx, SensorUpdated{PlantID: plantID, Sensor: sensor})
		}
	}
	metrics.ObserveLiveTick(string(l.policy), updated, time.Since(start))
	return updated
}

// perturb drifts the value by at most perturbation of the threshold span and
// keeps it within overshoot of either threshold.
func (l *Loop) perturb(s telemetry.Sensor) float64 {
	span := s.MaxThreshold - s.MinThreshold
	if span <= 0 {
		span = math.Max(math.Abs(s.Value), 1)
	}
	delta := (l.randFloat()*2 - 1) * span * perturbation
	next := s.Value + delta
	lo := s.MinThreshold - span*overshoot
	hi := s.MaxThreshold + span*overshoot
	if s.MaxThreshold > s.MinThreshold {
		next = math.Min(math.Max(next, lo), hi)
	}
	return math.Round(next*1000) / 1000
}

func (l *Loop) randFloat() float64 {
	l.randMu.Lock()
	defer l.randMu.Unlock()
	return l.rnd.Float64()
}

func (l *Loop) randIntn(n int) int {
	l.randMu.Lock()
	defer l.randMu.Unlock()
	return l.rnd.Intn(n)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

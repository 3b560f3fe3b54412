package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCapacity bounds the in-memory journal.
const DefaultCapacity = 500

// Journal keeps the most recent entries in memory and mirrors each one to
// the structured log.
type Journal struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
	logger  *zap.Logger
	now     func() time.Time
}

// JournalOption configures a Journal.
type JournalOption func(*Journal)

// WithLogger mirrors entries to logger.
func WithLogger(logger *zap.Logger) JournalOption {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// WithNow overrides the timestamp source.
func WithNow(now func() time.Time) JournalOption {
	return func(j *Journal) {
		if now != nil {
			j.now = now
		}
	}
}

// NewJournal builds a journal holding at most capacity entries. A
// non-positive capacity uses DefaultCapacity.
func NewJournal(capacity int, opts ...JournalOption) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	j := &Journal{
		entries: make([]Entry, capacity),
		logger:  zap.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Log implements Logger. The oldest entry is overwritten once full.
func (j *Journal) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = j.now()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}

	j.mu.Lock()
	j.entries[j.next] = entry
	j.next = (j.next + 1) % len(j.entries)
	if j.next == 0 {
		j.full = true
	}
	j.mu.Unlock()

	j.logger.Info("audit",
		zap.String("action", entry.Action),
		zap.String("actor", entry.Actor),
		zap.String("resource_type", entry.ResourceType),
		zap.String("resource_id", entry.ResourceID),
		zap.String("ip", entry.IP),
	)
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (j *Journal) List(limit int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	size := j.next
	if j.full {
		size = len(j.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}
	out := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (j.next - i + len(j.entries)) % len(j.entries)
		out = append(out, j.entries[idx])
	}
	return out
}

// Package reservation keeps the durable set of bicycles reserved on this
// device.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goccy/go-json"
)

// DefaultKey is the storage key the ledger lives under.
const DefaultKey = "MyreservedBike"

var ErrInvalidID = errors.New("invalid bike id")

// Store is the durable key/value port the ledger persists through.
// Get returns nil, nil when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// StorageError wraps a failed read, write or parse of the ledger key.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Ledger is the single source of truth for "is bike X reserved by me".
// Read-modify-write cycles are serialized, so a Reserve followed by a read
// from any goroutine observes the add.
type Ledger struct {
	store  Store
	key    string
	logger *slog.Logger

	mu sync.Mutex
}

type Option func(*Ledger)

func WithKey(key string) Option {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func NewLedger(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		key:    DefaultKey,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) Key() string { return l.key }

// IsReserved reports ledger membership. An unreadable or corrupt ledger
// counts as empty.
func (l *Ledger) IsReserved(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	set, _ := l.load(ctx)
	return set.contains(id)
}

// ListAll returns the reserved ids in the order they were reserved.
func (l *Ledger) ListAll(ctx context.Context) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, _ := l.load(ctx)
	return set.list()
}

// Reserve adds id to the ledger. Reserving an id twice is a no-op. A failed
// read returns a *StorageError and writes nothing.
func (l *Ledger) Reserve(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(ctx)
	if err != nil {
		ledgerOps.WithLabelValues("reserve", "error").Inc()
		return err
	}
	if !s.add(id) {
		ledgerOps.WithLabelValues("reserve", "noop").Inc()
		return nil
	}
	if err := l.save(ctx, s); err != nil {
		ledgerOps.WithLabelValues("reserve", "error").Inc()
		return err
	}
	ledgerOps.WithLabelValues("reserve", "ok").Inc()
	l.logger.InfoContext(ctx, "bike reserved", "bike_id", id)
	return nil
}

// Cancel removes id from the ledger. Cancelling an absent id is a no-op. A
// failed read returns a *StorageError and writes nothing.
func (l *Ledger) Cancel(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(ctx)
	if err != nil {
		ledgerOps.WithLabelValues("cancel", "error").Inc()
		return err
	}
	if !s.remove(id) {
		ledgerOps.WithLabelValues("cancel", "noop").Inc()
		return nil
	}
	if err := l.save(ctx, s); err != nil {
		ledgerOps.WithLabelValues("cancel", "error").Inc()
		return err
	}
	ledgerOps.WithLabelValues("cancel", "ok").Inc()
	l.logger.InfoContext(ctx, "reservation cancelled", "bike_id", id)
	return nil
}

// Clear drops the ledger key entirely.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Remove(ctx, l.key); err != nil {
		err = &StorageError{Op: "remove", Key: l.key, Err: err}
		l.logger.ErrorContext(ctx, "failed to clear ledger", "error", err)
		ledgerOps.WithLabelValues("clear", "error").Inc()
		return err
	}
	ledgerOps.WithLabelValues("clear", "ok").Inc()
	return nil
}

// load must be called with mu held. It always returns a usable set: a
// corrupt value reads as empty with a nil error so the next write repairs
// it, while a failed read returns an empty set and a *StorageError.
func (l *Ledger) load(ctx context.Context) (*idSet, error) {
	raw, err := l.store.Get(ctx, l.key)
	if err != nil {
		err = &StorageError{Op: "read", Key: l.key, Err: err}
		l.logger.ErrorContext(ctx, "failed to read ledger", "error", err)
		ledgerOps.WithLabelValues("read", "error").Inc()
		return newIDSet(nil), err
	}
	if raw == nil {
		return newIDSet(nil), nil
	}
	s, err := decodeSet(raw)
	if err != nil {
		l.logger.WarnContext(ctx, "ledger value is corrupt, treating as empty",
			"error", &StorageError{Op: "parse", Key: l.key, Err: err})
		ledgerOps.WithLabelValues("read", "corrupt").Inc()
		return newIDSet(nil), nil
	}
	return s, nil
}

// save must be called with mu held.
func (l *Ledger) save(ctx context.Context, s *idSet) error {
	raw, err := json.Marshal(s.list())
	if err != nil {
		return &StorageError{Op: "encode", Key: l.key, Err: err}
	}
	if err := l.store.Set(ctx, l.key, raw); err != nil {
		err = &StorageError{Op: "write", Key: l.key, Err: err}
		l.logger.ErrorContext(ctx, "failed to write ledger", "error", err)
		return err
	}
	return nil
}

// Package ledger persists the per-prefix last-issued serial numbers as a
// single JSON document in the blob store.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/tagmint/tagmint/internal/platform/blob"
)

// DocumentKey is the blob key of the serial ledger document.
const DocumentKey = "serials.json"

// MaxQuantity caps a single reservation. Every issued serial becomes a
// label held in memory, so the cap bounds both the response size and
// how far one request can advance a counter.
const MaxQuantity = 10_000

// ErrStaleStart indicates the caller expected a different next serial
// than the ledger holds, typically a form submitted against stale data.
var ErrStaleStart = errors.New("ledger: expected start serial is stale")

// Ledger provides serialized access to the prefix counters. All prefixes
// live in one document and the backing store has no conditional writes,
// so every mutation runs the whole read-modify-write cycle under a
// single document lock. Without it two concurrent reservations could
// read the same counter and issue overlapping serial ranges.
type Ledger struct {
	store blob.Store
	mu    sync.Mutex
}

// New returns a ledger over the given store.
func New(store blob.Store) *Ledger {
	return &Ledger{store: store}
}

// Snapshot returns the full prefix → lastSerial mapping. An absent
// document is the first-use bootstrap case and yields an empty map.
func (l *Ledger) Snapshot(ctx context.Context) (map[string]int64, error) {
	data, err := l.store.Get(ctx, DocumentKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return map[string]int64{}, nil
		}
		return nil, fmt.Errorf("ledger: read %s: %w", DocumentKey, err)
	}
	var serials map[string]int64
	if err := json.Unmarshal(data, &serials); err != nil {
		return nil, fmt.Errorf("ledger: decode %s: %w", DocumentKey, err)
	}
	if serials == nil {
		serials = map[string]int64{}
	}
	return serials, nil
}

// LastSerial returns the last issued serial for prefix, 0 when the
// prefix has never been allocated.
func (l *Ledger) LastSerial(ctx context.Context, prefix string) (int64, error) {
	serials, err := l.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return serials[prefix], nil
}

// Reserve allocates a contiguous range of quantity serials for prefix
// and advances the ledger. When expectStart is positive the reservation
// only proceeds if it matches the next serial the ledger would issue.
func (l *Ledger) Reserve(ctx context.Context, prefix string, quantity, expectStart int64) (start, end int64, err error) {
	if prefix == "" {
		return 0, 0, errors.New("ledger: prefix required")
	}
	if quantity <= 0 {
		return 0, 0, errors.New("ledger: quantity must be positive")
	}
	if quantity > MaxQuantity {
		return 0, 0, fmt.Errorf("ledger: quantity %d exceeds maximum %d", quantity, MaxQuantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	serials, err := l.Snapshot(ctx)
	if err != nil {
		return 0, 0, err
	}
	if serials[prefix] > math.MaxInt64-quantity {
		return 0, 0, fmt.Errorf("ledger: counter for %s cannot advance by %d without overflow", prefix, quantity)
	}
	start = serials[prefix] + 1
	if expectStart > 0 && expectStart != start {
		return 0, 0, fmt.Errorf("%w: next serial for %s is %d", ErrStaleStart, prefix, start)
	}
	end = start + quantity - 1
	serials[prefix] = end
	if err := l.put(ctx, serials); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// Seed merges the given counters into the ledger. Existing entries are
// never lowered, keeping lastSerial monotonic.
func (l *Ledger) Seed(ctx context.Context, counters map[string]int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	serials, err := l.Snapshot(ctx)
	if err != nil {
		return err
	}
	for prefix, last := range counters {
		if last > serials[prefix] {
			serials[prefix] = last
		}
	}
	return l.put(ctx, serials)
}

func (l *Ledger) put(ctx context.Context, serials map[string]int64) error {
	data, err := json.MarshalIndent(serials, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: encode %s: %w", DocumentKey, err)
	}
	if err := l.store.Put(ctx, DocumentKey, data); err != nil {
		return fmt.Errorf("ledger: write %s: %w", DocumentKey, err)
	}
	return nil
}

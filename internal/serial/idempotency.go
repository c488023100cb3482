package serial

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tagmint/tagmint/internal/platform/blob"
	"github.com/tagmint/tagmint/internal/platform/httpx"
)

// IdempotencyStore persists allocation results keyed by the caller's
// Idempotency-Key header, so a retry after an ambiguous failure replays
// the recorded response instead of consuming a fresh serial range. Keys
// are scoped per requester.
type IdempotencyStore struct {
	store blob.Store
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(store blob.Store) *IdempotencyStore {
	return &IdempotencyStore{store: store}
}

type idempotentEntry struct {
	Requester   string    `json:"requester"`
	Fingerprint string    `json:"fingerprint"`
	Labels      []Label   `json:"labels"`
	LastSerial  int64     `json:"lastSerial"`
	RecordID    string    `json:"recordId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Lookup returns the recorded result for the key, if any. A key reused
// with different request parameters is a conflict, not a replay: the
// recorded result belongs to a different allocation.
func (s *IdempotencyStore) Lookup(ctx context.Context, requester, key, fingerprint string) (AllocateResult, bool, error) {
	data, err := s.store.Get(ctx, blobKey(requester, key))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return AllocateResult{}, false, nil
		}
		return AllocateResult{}, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	var entry idempotentEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return AllocateResult{}, false, fmt.Errorf("idempotency decode: %w", err)
	}
	if entry.Fingerprint != fingerprint {
		return AllocateResult{}, false, fmt.Errorf("%w: idempotency key was already used for a different request", httpx.ErrConflict)
	}
	return AllocateResult{
		Labels:     entry.Labels,
		LastSerial: entry.LastSerial,
		RecordID:   entry.RecordID,
	}, true, nil
}

// Record stores the result under the key.
func (s *IdempotencyStore) Record(ctx context.Context, requester, key, fingerprint string, result AllocateResult) error {
	entry := idempotentEntry{
		Requester:   requester,
		Fingerprint: fingerprint,
		Labels:      result.Labels,
		LastSerial:  result.LastSerial,
		RecordID:    result.RecordID,
		CreatedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	if err := s.store.Put(ctx, blobKey(requester, key), data); err != nil {
		return fmt.Errorf("idempotency write: %w", err)
	}
	return nil
}

func blobKey(requester, key string) string {
	sum := sha256.Sum256([]byte(requester + "\x00" + key))
	return "idem-" + hex.EncodeToString(sum[:]) + ".json"
}

// requestFingerprint condenses the allocation parameters so a replay can
// be told apart from a key reused for a different request.
func requestFingerprint(req AllocateRequest) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		req.SKUPrefix,
		req.BarcodeNumber,
		req.PO,
		strconv.FormatInt(req.Quantity, 10),
	}, "\x00")))
	return hex.EncodeToString(sum[:])
}

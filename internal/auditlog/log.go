// Package auditlog persists the append-only issuance history as a single
// JSON array document in the blob store.
package auditlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tagmint/tagmint/internal/platform/blob"
)

// DocumentKey is the blob key of the audit log document.
const DocumentKey = "audit.json"

// Record describes one allocation event. Records are immutable once
// appended; insertion order is issuance order.
type Record struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	User          string    `json:"user"`
	SKUPrefix     string    `json:"skuPrefix"`
	PO            string    `json:"po,omitempty"`
	BarcodeNumber string    `json:"barcodeNumber"`
	Quantity      int64     `json:"quantity"`
	StartSerial   int64     `json:"startSerial"`
	EndSerial     int64     `json:"endSerial"`
}

// Log provides serialized append access to the audit document. The store
// only supports whole-document writes, so appends are read-push-write
// under a single lock.
type Log struct {
	store blob.Store
	mu    sync.Mutex
}

// New returns a log over the given store.
func New(store blob.Store) *Log {
	return &Log{store: store}
}

// Records returns all audit records in insertion order, empty when the
// document does not exist yet.
func (l *Log) Records(ctx context.Context) ([]Record, error) {
	data, err := l.store.Get(ctx, DocumentKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("auditlog: read %s: %w", DocumentKey, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("auditlog: decode %s: %w", DocumentKey, err)
	}
	return records, nil
}

// Append adds one record to the end of the log.
func (l *Log) Append(ctx context.Context, record Record) error {
	if record.ID == "" {
		return errors.New("auditlog: record id required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.Records(ctx)
	if err != nil {
		return err
	}
	records = append(records, record)
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("auditlog: encode %s: %w", DocumentKey, err)
	}
	if err := l.store.Put(ctx, DocumentKey, data); err != nil {
		return fmt.Errorf("auditlog: write %s: %w", DocumentKey, err)
	}
	return nil
}

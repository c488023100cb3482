package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagmint/tagmint/internal/auditlog"
	"github.com/tagmint/tagmint/internal/ledger"
	"github.com/tagmint/tagmint/internal/platform/blob"
)

func appendRecord(t *testing.T, log *auditlog.Log, prefix string, start, end int64) {
	t.Helper()
	require.NoError(t, log.Append(context.Background(), auditlog.Record{
		ID:            prefix + "-rec",
		Timestamp:     time.Now().UTC(),
		User:          "u@x.com",
		SKUPrefix:     prefix,
		BarcodeNumber: "BN1",
		Quantity:      end - start + 1,
		StartSerial:   start,
		EndSerial:     end,
	}))
}

func TestScanCleanWhenLedgerMatchesAudit(t *testing.T) {
	store := blob.NewMemory()
	l := ledger.New(store)
	log := auditlog.New(store)

	require.NoError(t, l.Seed(context.Background(), map[string]int64{"ABC": 5}))
	appendRecord(t, log, "ABC", 1, 5)

	drifts, err := NewDriftScanner(l, log, nil).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestScanFlagsLedgerAheadOfAudit(t *testing.T) {
	store := blob.NewMemory()
	l := ledger.New(store)
	log := auditlog.New(store)

	// Ledger advanced but the audit append never happened.
	require.NoError(t, l.Seed(context.Background(), map[string]int64{"ABC": 10}))
	appendRecord(t, log, "ABC", 1, 5)

	drifts, err := NewDriftScanner(l, log, nil).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, Drift{Prefix: "ABC", LedgerLast: 10, AuditMaxEnd: 5}, drifts[0])
}

func TestScanFlagsAuditWithoutLedgerEntry(t *testing.T) {
	store := blob.NewMemory()
	l := ledger.New(store)
	log := auditlog.New(store)

	// Audit trail exists but the ledger document lost the counter.
	appendRecord(t, log, "DEF", 1, 3)

	drifts, err := NewDriftScanner(l, log, nil).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, Drift{Prefix: "DEF", LedgerLast: 0, AuditMaxEnd: 3}, drifts[0])
}

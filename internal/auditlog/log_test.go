package auditlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagmint/tagmint/internal/platform/blob"
)

func record(id string, prefix string, start, end int64) Record {
	return Record{
		ID:            id,
		Timestamp:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		User:          "u@x.com",
		SKUPrefix:     prefix,
		BarcodeNumber: "BN1",
		Quantity:      end - start + 1,
		StartSerial:   start,
		EndSerial:     end,
	}
}

func TestRecordsEmptyWhenAbsent(t *testing.T) {
	l := New(blob.NewMemory())

	records, err := l.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	l := New(blob.NewMemory())

	require.NoError(t, l.Append(context.Background(), record("a", "ABC", 1, 5)))
	require.NoError(t, l.Append(context.Background(), record("b", "ABC", 6, 6)))
	require.NoError(t, l.Append(context.Background(), record("c", "DEF", 1, 2)))

	records, err := l.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, "c", records[2].ID)
	assert.Equal(t, int64(5), records[0].EndSerial)
}

func TestAppendRequiresID(t *testing.T) {
	l := New(blob.NewMemory())
	require.Error(t, l.Append(context.Background(), Record{}))
}

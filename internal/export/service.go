// Package export renders the audit log as CSV for a date range.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tagmint/tagmint/internal/auditlog"
	"github.com/tagmint/tagmint/internal/observability"
	"github.com/tagmint/tagmint/internal/platform/httpx"
)

// Filename is the suggested attachment name for exports.
const Filename = "barcode-export.csv"

// ErrNoData indicates the filtered range holds no audit records.
var ErrNoData = fmt.Errorf("%w: no data found in this range", httpx.ErrNotFound)

// AuditReader reads the full audit history.
type AuditReader interface {
	Records(ctx context.Context) ([]auditlog.Record, error)
}

// Service filters audit records by date and serializes them to CSV.
type Service struct {
	audit   AuditReader
	metrics *observability.Metrics
	group   singleflight.Group
}

// NewService constructs the export service. metrics may be nil.
func NewService(audit AuditReader, metrics *observability.Metrics) *Service {
	return &Service{audit: audit, metrics: metrics}
}

// columns is the canonical CSV column order, matching the audit record
// fields so exports stay deterministic regardless of record contents.
var columns = []string{
	"id", "timestamp", "user", "skuPrefix", "po",
	"barcodeNumber", "quantity", "startSerial", "endSerial",
}

// ExportRange returns CSV bytes for records whose timestamp falls in
// [startDate, endDate], both at day granularity with the end date
// inclusive through end of day. Empty result is ErrNoData, never an
// empty file. Concurrent identical exports share one log read.
func (s *Service) ExportRange(ctx context.Context, startDate, endDate time.Time) ([]byte, error) {
	key := startDate.Format(time.DateOnly) + "/" + endDate.Format(time.DateOnly)
	result, err, _ := s.group.Do(key, func() (any, error) {
		return s.exportRange(ctx, startDate, endDate)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (s *Service) exportRange(ctx context.Context, startDate, endDate time.Time) ([]byte, error) {
	records, err := s.audit.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	from := startDate.Truncate(24 * time.Hour)
	until := endDate.Truncate(24 * time.Hour).AddDate(0, 0, 1)

	filtered := records[:0:0]
	for _, record := range records {
		ts := record.Timestamp
		if !ts.Before(from) && ts.Before(until) {
			filtered = append(filtered, record)
		}
	}
	if len(filtered) == 0 {
		return nil, ErrNoData
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true
	if err := writer.Write(columns); err != nil {
		return nil, fmt.Errorf("export: write header: %w", err)
	}
	for _, record := range filtered {
		row := []string{
			record.ID,
			record.Timestamp.Format(time.RFC3339),
			record.User,
			record.SKUPrefix,
			record.PO,
			record.BarcodeNumber,
			strconv.FormatInt(record.Quantity, 10),
			strconv.FormatInt(record.StartSerial, 10),
			strconv.FormatInt(record.EndSerial, 10),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("export: write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("export: flush: %w", err)
	}

	s.metrics.ExportObserved()
	return buf.Bytes(), nil
}

package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tagmint/tagmint/internal/auditlog"
	"github.com/tagmint/tagmint/internal/ledger"
)

// Drift describes a disagreement between the ledger and the audit log
// for one prefix. LedgerLast ahead of AuditMaxEnd means serials were
// consumed without a trail (the partial-failure window of an allocation
// that advanced the ledger but never appended its record). LedgerLast
// behind AuditMaxEnd means the ledger document was overwritten or lost
// an update.
type Drift struct {
	Prefix      string
	LedgerLast  int64
	AuditMaxEnd int64
}

// DriftScanner reconciles the serial ledger against the audit log.
type DriftScanner struct {
	ledger *ledger.Ledger
	audit  *auditlog.Log
	logger *slog.Logger
}

// NewDriftScanner constructs the scanner.
func NewDriftScanner(l *ledger.Ledger, audit *auditlog.Log, logger *slog.Logger) *DriftScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &DriftScanner{ledger: l, audit: audit, logger: logger}
}

// Scan compares ledger[prefix] against the maximum endSerial recorded in
// the audit log per prefix and returns every mismatch.
func (s *DriftScanner) Scan(ctx context.Context) ([]Drift, error) {
	serials, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.audit.Records(ctx)
	if err != nil {
		return nil, err
	}

	maxEnd := make(map[string]int64, len(serials))
	for _, record := range records {
		if record.EndSerial > maxEnd[record.SKUPrefix] {
			maxEnd[record.SKUPrefix] = record.EndSerial
		}
	}

	var drifts []Drift
	for prefix, last := range serials {
		if last != maxEnd[prefix] {
			drifts = append(drifts, Drift{Prefix: prefix, LedgerLast: last, AuditMaxEnd: maxEnd[prefix]})
		}
	}
	for prefix, end := range maxEnd {
		if _, ok := serials[prefix]; !ok {
			drifts = append(drifts, Drift{Prefix: prefix, LedgerLast: 0, AuditMaxEnd: end})
		}
	}
	return drifts, nil
}

// HandleTask processes TaskTypeDriftScan tasks.
func (s *DriftScanner) HandleTask(ctx context.Context, _ *asynq.Task) error {
	drifts, err := s.Scan(ctx)
	if err != nil {
		s.logger.Error("drift scan failed", slog.Any("error", err))
		return err
	}
	if len(drifts) == 0 {
		s.logger.Info("drift scan clean")
		return nil
	}
	for _, d := range drifts {
		attrs := []any{
			slog.String("prefix", d.Prefix),
			slog.Int64("ledgerLast", d.LedgerLast),
			slog.Int64("auditMaxEnd", d.AuditMaxEnd),
		}
		if d.LedgerLast < d.AuditMaxEnd {
			// Audit log ahead of the ledger: a lost counter update.
			// Allocating now would reissue serials already on labels.
			s.logger.Warn("ledger behind audit log", attrs...)
			continue
		}
		// Ledger ahead: serials without an audit trail. Seeded counters
		// land here too, so this is informational.
		s.logger.Info("serials without audit trail", attrs...)
	}
	return nil
}

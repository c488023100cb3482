// Package serial implements the allocation service: contiguous serial
// ranges per SKU prefix, recorded in the audit log.
package serial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tagmint/tagmint/internal/auditlog"
	"github.com/tagmint/tagmint/internal/ledger"
	"github.com/tagmint/tagmint/internal/observability"
	"github.com/tagmint/tagmint/internal/platform/httpx"
)

// LedgerStore is the slice of the ledger the service depends on.
type LedgerStore interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
	LastSerial(ctx context.Context, prefix string) (int64, error)
	Reserve(ctx context.Context, prefix string, quantity, expectStart int64) (start, end int64, err error)
}

// AuditAppender records issuance events.
type AuditAppender interface {
	Append(ctx context.Context, record auditlog.Record) error
}

// Service coordinates ledger reservation and audit recording.
type Service struct {
	ledger  LedgerStore
	audit   AuditAppender
	idem    *IdempotencyStore
	metrics *observability.Metrics
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService constructs the allocation service. idem and metrics may be
// nil when the features are disabled.
func NewService(ledgerStore LedgerStore, audit AuditAppender, idem *IdempotencyStore, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ledger:  ledgerStore,
		audit:   audit,
		idem:    idem,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Allocate validates the request, reserves the next contiguous range for
// the prefix, appends the audit record and returns the printable labels.
// Validation failures mutate nothing. If the audit append fails after
// the ledger advanced, the consumed range is logged and the call fails:
// serials were burned without a trail and operators must reconcile.
func (s *Service) Allocate(ctx context.Context, req AllocateRequest) (AllocateResult, error) {
	if err := validate(req); err != nil {
		return AllocateResult{}, err
	}

	if s.idem != nil && req.IdempotencyKey != "" {
		result, ok, err := s.idem.Lookup(ctx, req.Requester, req.IdempotencyKey, requestFingerprint(req))
		switch {
		case errors.Is(err, httpx.ErrConflict):
			return AllocateResult{}, err
		case err != nil:
			s.logger.Warn("idempotency lookup failed", slog.Any("error", err))
		case ok:
			result.Replayed = true
			return result, nil
		}
	}

	start, end, err := s.ledger.Reserve(ctx, req.SKUPrefix, req.Quantity, req.ExpectStart)
	if err != nil {
		if errors.Is(err, ledger.ErrStaleStart) {
			return AllocateResult{}, fmt.Errorf("%w: %v", httpx.ErrConflict, err)
		}
		s.logger.Error("ledger reserve failed",
			slog.String("prefix", req.SKUPrefix),
			slog.Int64("quantity", req.Quantity),
			slog.Any("error", err))
		return AllocateResult{}, fmt.Errorf("reserve serials for %s: %w", req.SKUPrefix, err)
	}

	record := auditlog.Record{
		ID:            s.newID(),
		Timestamp:     s.now().UTC(),
		User:          req.Requester,
		SKUPrefix:     req.SKUPrefix,
		PO:            req.PO,
		BarcodeNumber: req.BarcodeNumber,
		Quantity:      req.Quantity,
		StartSerial:   start,
		EndSerial:     end,
	}
	if err := s.audit.Append(ctx, record); err != nil {
		// The ledger already advanced: serials start..end are consumed
		// with no audit trail. No compensating write exists.
		s.logger.Error("audit append failed after ledger advance",
			slog.String("prefix", req.SKUPrefix),
			slog.Int64("startSerial", start),
			slog.Int64("endSerial", end),
			slog.Any("error", err))
		return AllocateResult{}, fmt.Errorf("append audit record for %s (%d-%d): %w", req.SKUPrefix, start, end, err)
	}

	result := AllocateResult{
		Labels:     BuildLabels(req.SKUPrefix, req.BarcodeNumber, start, end),
		LastSerial: end,
		RecordID:   record.ID,
	}

	if s.idem != nil && req.IdempotencyKey != "" {
		if err := s.idem.Record(ctx, req.Requester, req.IdempotencyKey, requestFingerprint(req), result); err != nil {
			s.logger.Warn("idempotency record failed", slog.Any("error", err))
		}
	}
	s.metrics.AllocationObserved(req.SKUPrefix, req.Quantity)

	return result, nil
}

// LastSerial returns the last issued serial for prefix, 0 for a fresh one.
func (s *Service) LastSerial(ctx context.Context, prefix string) (int64, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return 0, fmt.Errorf("%w: prefix required", httpx.ErrValidation)
	}
	return s.ledger.LastSerial(ctx, prefix)
}

// Serials returns the full ledger mapping.
func (s *Service) Serials(ctx context.Context) (map[string]int64, error) {
	return s.ledger.Snapshot(ctx)
}

func validate(req AllocateRequest) error {
	if strings.TrimSpace(req.SKUPrefix) == "" {
		return fmt.Errorf("%w: skuPrefix required", httpx.ErrValidation)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", httpx.ErrValidation)
	}
	if req.Quantity > ledger.MaxQuantity {
		return fmt.Errorf("%w: quantity must not exceed %d", httpx.ErrValidation, ledger.MaxQuantity)
	}
	if strings.TrimSpace(req.BarcodeNumber) == "" {
		return fmt.Errorf("%w: barcodeNumber required", httpx.ErrValidation)
	}
	if req.Requester == "" {
		return fmt.Errorf("%w: requester identity missing", httpx.ErrUnauthorized)
	}
	return nil
}

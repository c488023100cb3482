package export

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tagmint/tagmint/internal/platform/httpx"
)

// Handler serves the CSV export endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the export handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the export routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/export-csv", h.handleExportCSV)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDates(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	data, err := h.service.ExportRange(r.Context(), startDate, endDate)
	if err != nil {
		if !errors.Is(err, ErrNoData) {
			h.logger.Error("export csv",
				slog.String("startDate", startDate.Format(time.DateOnly)),
				slog.String("endDate", endDate.Format(time.DateOnly)),
				slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func parseDates(r *http.Request) (time.Time, time.Time, error) {
	startRaw := r.URL.Query().Get("startDate")
	endRaw := r.URL.Query().Get("endDate")
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: startDate and endDate are required", httpx.ErrValidation)
	}
	startDate, err := time.Parse(time.DateOnly, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: startDate must be YYYY-MM-DD", httpx.ErrValidation)
	}
	endDate, err := time.Parse(time.DateOnly, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: endDate must be YYYY-MM-DD", httpx.ErrValidation)
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: endDate precedes startDate", httpx.ErrValidation)
	}
	return startDate, endDate, nil
}

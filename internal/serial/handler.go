package serial

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tagmint/tagmint/internal/auth"
	"github.com/tagmint/tagmint/internal/platform/httpx"
)

// Handler serves the allocation endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authn     func(http.Handler) http.Handler
	validator *validator.Validate
}

// NewHandler constructs the handler. authn gates the mutating routes.
func NewHandler(logger *slog.Logger, service *Service, authn func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		authn:     authn,
		validator: validator.New(),
	}
}

// MountRoutes registers the serial routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/last-serial/{prefix}", h.handleLastSerial)
	r.Group(func(r chi.Router) {
		if h.authn != nil {
			r.Use(h.authn)
		}
		r.Post("/barcodes", h.handleAllocate)
		r.Get("/serials", h.handleSerials)
	})
}

type allocatePayload struct {
	SKUPrefix     string `json:"skuPrefix" validate:"required"`
	PO            string `json:"po"`
	BarcodeNumber string `json:"barcodeNumber" validate:"required"`
	Quantity      int64  `json:"quantity" validate:"required,gt=0,lte=10000"`
	StartSerial   int64  `json:"startSerial" validate:"omitempty,gte=0"`
}

type allocateResponse struct {
	Barcodes   []Label `json:"barcodes"`
	LastSerial int64   `json:"lastSerial"`
}

func (h *Handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no token provided")
		return
	}

	var payload allocatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	result, err := h.service.Allocate(r.Context(), AllocateRequest{
		SKUPrefix:      strings.TrimSpace(payload.SKUPrefix),
		PO:             payload.PO,
		BarcodeNumber:  strings.TrimSpace(payload.BarcodeNumber),
		Quantity:       payload.Quantity,
		ExpectStart:    payload.StartSerial,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		Requester:      identity.Email,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if result.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	httpx.JSON(w, http.StatusOK, allocateResponse{
		Barcodes:   result.Labels,
		LastSerial: result.LastSerial,
	})
}

func (h *Handler) handleLastSerial(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "prefix")
	last, err := h.service.LastSerial(r.Context(), prefix)
	if err != nil {
		h.logger.Error("get last serial", slog.String("prefix", prefix), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"lastSerial": last})
}

func (h *Handler) handleSerials(w http.ResponseWriter, r *http.Request) {
	serials, err := h.service.Serials(r.Context())
	if err != nil {
		h.logger.Error("get serials", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, serials)
}

func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request"
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return "missing or invalid parameters: " + strings.Join(fields, ", ")
}

package sequence

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/voyager-erp/voyager-erp/internal/platform/httpx"
	"github.com/voyager-erp/voyager-erp/internal/shared"
)

// AuditRecorder appends audit entries for administrative counter overwrites.
type AuditRecorder interface {
	RecordAsync(ctx context.Context, log shared.AuditLog)
}

type Handler struct {
	service  *Service
	audit    AuditRecorder
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, audit AuditRecorder) *Handler {
	return &Handler{service: service, audit: audit, logger: logger, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/{typeKey}/allocate", h.Allocate)
	r.Put("/{typeKey}", h.Set)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	counters, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list sequences", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sequences": counters})
}

func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	number, err := h.service.Allocate(r.Context(), chi.URLParam(r, "typeKey"))
	if err != nil {
		h.respondError(w, "allocate sequence number", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"number": number})
}

type setRequest struct {
	Label    string `json:"label"`
	Prefix   string `json:"prefix"`
	Value    int64  `json:"value" validate:"gte=0"`
	PadWidth int    `json:"pad_width" validate:"gte=0,lte=12"`
}

// Set overwrites a counter, e.g. to repair a mis-seeded value. Administrative
// operation; the transition is audited.
// respondError distinguishes transient contention (retry later) from caller
// mistakes and internal failures.
func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var txFailure *TxFailure
	switch {
	case errors.As(err, &txFailure):
		httpx.Problem(w, http.StatusServiceUnavailable, "Sequence Contention", err.Error())
	case errors.Is(err, ErrKeyRequired), errors.Is(err, ErrNegativeCounter):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Actor-Role") != "admin" {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "sequence overwrite is an administrative operation")
		return
	}
	var req setRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	counter, err := h.service.Set(r.Context(), chi.URLParam(r, "typeKey"), SetInput{
		Label:    req.Label,
		Prefix:   req.Prefix,
		Value:    req.Value,
		PadWidth: req.PadWidth,
	})
	if err != nil {
		h.respondError(w, "overwrite sequence counter", err)
		return
	}
	if h.audit != nil {
		actor := shared.ActorFromContext(r.Context())
		h.audit.RecordAsync(r.Context(), shared.AuditLog{
			UserID:      actor.ID,
			UserName:    actor.Name,
			Action:      shared.AuditActionUpdate,
			TargetType:  "sequence_counter",
			TargetID:    counter.TypeKey,
			Description: "sequence counter overwritten",
			Meta:        map[string]any{"value": counter.Value, "prefix": counter.Prefix},
			At:          time.Now().UTC(),
		})
	}
	httpx.JSON(w, http.StatusOK, counter)
}

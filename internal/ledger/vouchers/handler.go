package vouchers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/voyager-erp/voyager-erp/internal/ledger/finmap"
	ledgershared "github.com/voyager-erp/voyager-erp/internal/ledger/shared"
	"github.com/voyager-erp/voyager-erp/internal/platform/httpx"
	"github.com/voyager-erp/voyager-erp/internal/sequence"
	"github.com/voyager-erp/voyager-erp/internal/shared"
)

// NumberAllocator mints voucher numbers. Allocation happens before posting;
// a post failure afterwards burns the number.
type NumberAllocator interface {
	Allocate(ctx context.Context, typeKeyRaw string) (string, error)
}

// AuditRecorder appends audit trail entries after successful operations.
// Fire and forget: failures are logged, never propagated.
type AuditRecorder interface {
	RecordAsync(ctx context.Context, log shared.AuditLog)
}

type Handler struct {
	service   *Service
	allocator NumberAllocator
	resolver  *finmap.Resolver
	audit     AuditRecorder
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, allocator NumberAllocator, resolver *finmap.Resolver, audit AuditRecorder) *Handler {
	return &Handler{
		service:   service,
		allocator: allocator,
		resolver:  resolver,
		audit:     audit,
		logger:    logger,
		validate:  validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Post)
	r.Post("/sale", h.PostSale)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.SoftDelete)
	r.Post("/{id}/restore", h.Restore)
	r.Delete("/{id}/permanent", h.PermanentDelete)
}

type lineRequest struct {
	AccountID   int64   `json:"account_id" validate:"required,gt=0"`
	Debit       float64 `json:"debit" validate:"gte=0"`
	Credit      float64 `json:"credit" validate:"gte=0"`
	Description string  `json:"description"`
}

type postRequest struct {
	InvoiceNumber string         `json:"invoice_number"`
	TypeKey       string         `json:"type_key"`
	Date          time.Time      `json:"date"`
	Currency      string         `json:"currency"`
	SourceType    string         `json:"source_type" validate:"required"`
	SourceID      string         `json:"source_id"`
	Lines         []lineRequest  `json:"lines" validate:"required,min=1,dive"`
	OriginalData  map[string]any `json:"original_data"`
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())

	number := req.InvoiceNumber
	if number == "" {
		typeKey := req.TypeKey
		if typeKey == "" {
			typeKey = req.SourceType
		}
		allocated, err := h.allocator.Allocate(r.Context(), typeKey)
		if err != nil {
			h.respondError(w, err)
			return
		}
		number = allocated
	}

	lines := make([]PostingLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, PostingLineInput{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Description: l.Description})
	}
	voucher, err := h.service.Post(r.Context(), PostingInput{
		InvoiceNumber: number,
		Date:          defaultDate(req.Date),
		Currency:      defaultCurrency(req.Currency),
		SourceType:    req.SourceType,
		SourceID:      req.SourceID,
		CreatedBy:     actor.ID,
		Lines:         lines,
		OriginalData:  req.OriginalData,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, shared.AuditActionCreate, voucher, "journal voucher posted")
	httpx.JSON(w, http.StatusCreated, voucher)
}

type saleRequest struct {
	ServiceKind string    `json:"service_kind" validate:"required"`
	Amount      float64   `json:"amount" validate:"required,gt=0"`
	Date        time.Time `json:"date"`
	Currency    string    `json:"currency"`
	SourceType  string    `json:"source_type"`
	SourceID    string    `json:"source_id"`
	Description string    `json:"description"`
}

// PostSale records a sale event end to end: resolve the receivable and
// revenue accounts from the finance map, mint a number, and post the two
// balanced lines. When policy allows the cash-as-receivable substitution the
// voucher is tagged direct_cash_revenue.
func (h *Handler) PostSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	ctx := r.Context()

	receivableID, directCash, err := h.resolver.ResolveReceivable(ctx)
	if err != nil {
		h.respondError(w, err)
		return
	}
	revenueID, err := h.resolver.ResolveRevenueAccount(ctx, req.ServiceKind)
	if err != nil {
		h.respondError(w, err)
		return
	}

	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = "booking"
	}
	number, err := h.allocator.Allocate(ctx, sourceType)
	if err != nil {
		h.respondError(w, err)
		return
	}

	voucher, err := h.service.Post(ctx, PostingInput{
		InvoiceNumber: number,
		Date:          defaultDate(req.Date),
		Currency:      defaultCurrency(req.Currency),
		SourceType:    sourceType,
		SourceID:      req.SourceID,
		CreatedBy:     actor.ID,
		Lines: []PostingLineInput{
			{AccountID: receivableID, Debit: req.Amount, Description: req.Description},
			{AccountID: revenueID, Credit: req.Amount, Description: req.Description},
		},
		OriginalData: map[string]any{
			"service_kind": req.ServiceKind,
			"amount":       req.Amount,
		},
		DirectCashRevenue: directCash,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(ctx, actor, shared.AuditActionCreate, voucher, "sale voucher posted")
	httpx.JSON(w, http.StatusCreated, voucher)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ListFilter{
		Page:           atoiDefault(query.Get("page"), 1),
		PerPage:        atoiDefault(query.Get("per_page"), 20),
		SourceType:     query.Get("source_type"),
		IncludeDeleted: query.Get("include_deleted") == "true",
	}
	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list vouchers", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.voucherID(w, r)
	if !ok {
		return
	}
	voucher, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, voucher)
}

func (h *Handler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.voucherID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	voucher, err := h.service.SoftDelete(r.Context(), id, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, shared.AuditActionDelete, voucher, "journal voucher soft-deleted")
	httpx.JSON(w, http.StatusOK, voucher)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.voucherID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	voucher, err := h.service.Restore(r.Context(), id, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, shared.AuditActionUpdate, voucher, "journal voucher restored")
	httpx.JSON(w, http.StatusOK, voucher)
}

func (h *Handler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Actor-Role") != "admin" {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "permanent delete is an administrative operation")
		return
	}
	id, ok := h.voucherID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if err := h.service.PermanentDelete(r.Context(), id, actor); err != nil {
		h.respondError(w, err)
		return
	}
	if h.audit != nil {
		h.audit.RecordAsync(r.Context(), shared.AuditLog{
			UserID:      actor.ID,
			UserName:    actor.Name,
			Action:      shared.AuditActionDelete,
			TargetType:  "journal_voucher",
			TargetID:    id.String(),
			Description: "journal voucher permanently deleted",
			At:          time.Now().UTC(),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (h *Handler) voucherID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "voucher id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) recordAudit(ctx context.Context, actor shared.Actor, action string, voucher JournalVoucher, description string) {
	if h.audit == nil {
		return
	}
	h.audit.RecordAsync(ctx, shared.AuditLog{
		UserID:      actor.ID,
		UserName:    actor.Name,
		Action:      action,
		TargetType:  "journal_voucher",
		TargetID:    voucher.ID.String(),
		Description: description,
		Meta: map[string]any{
			"invoice_number": voucher.InvoiceNumber,
			"source_type":    voucher.SourceType,
			"source_id":      voucher.SourceID,
		},
		At: time.Now().UTC(),
	})
}

// respondError maps the ledger error taxonomy onto problem responses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var notFound *ledgershared.AccountsNotFoundError
	var nonLeaf *ledgershared.NonLeafAccountsError
	var unbalanced *ledgershared.UnbalancedEntryError
	var unmapped *ledgershared.UnmappedAccountError
	var duplicate *ledgershared.DuplicateNumberError
	var txFailure *sequence.TxFailure
	switch {
	case errors.As(err, &duplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate Invoice Number", err.Error())
	case errors.As(err, &notFound):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Accounts Not Found", err.Error())
	case errors.As(err, &nonLeaf):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Non-Leaf Accounts", err.Error())
	case errors.As(err, &unbalanced):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unbalanced Entry", err.Error())
	case errors.As(err, &unmapped):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unmapped Account", err.Error())
	case errors.As(err, &txFailure):
		httpx.Problem(w, http.StatusServiceUnavailable, "Sequence Allocation Failed", err.Error())
	case errors.Is(err, ledgershared.ErrVoucherActive):
		httpx.Problem(w, http.StatusConflict, "Voucher Still Active", err.Error())
	case errors.Is(err, ledgershared.ErrVoucherNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ledgershared.ErrMapNotConfigured):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Finance Map Missing", err.Error())
	case errors.Is(err, ledgershared.ErrInvalidPosting):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("voucher operation", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func defaultCurrency(currency string) string {
	if currency == "" {
		return "USD"
	}
	return currency
}

func defaultDate(date time.Time) time.Time {
	if date.IsZero() {
		return time.Now().UTC()
	}
	return date
}

func atoiDefault(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

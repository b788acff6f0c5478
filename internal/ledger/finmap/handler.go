package finmap

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	ledgershared "github.com/voyager-erp/voyager-erp/internal/ledger/shared"
	"github.com/voyager-erp/voyager-erp/internal/platform/httpx"
)

type Handler struct {
	repo     Repository
	resolver *Resolver
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, repo Repository, resolver *Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver, logger: logger, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/finance-map", h.Get)
	r.Put("/finance-map", h.Update)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.repo.Get(r.Context())
	if err != nil {
		if errors.Is(err, ledgershared.ErrMapNotConfigured) {
			httpx.Problem(w, http.StatusNotFound, "Not Configured", err.Error())
			return
		}
		h.logger.Error("get finance map", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

type updateRequest struct {
	ReceivableAccountID      int64            `json:"receivable_account_id" validate:"gte=0"`
	PayableAccountID         int64            `json:"payable_account_id" validate:"gte=0"`
	DefaultCashID            int64            `json:"default_cash_id" validate:"gte=0"`
	DefaultBankID            int64            `json:"default_bank_id" validate:"gte=0"`
	RevenueMap               map[string]int64 `json:"revenue_map"`
	ExpenseMap               map[string]int64 `json:"expense_map"`
	PreventDirectCashRevenue bool             `json:"prevent_direct_cash_revenue"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	m := FinanceAccountMap{
		ReceivableAccountID:      req.ReceivableAccountID,
		PayableAccountID:         req.PayableAccountID,
		DefaultCashID:            req.DefaultCashID,
		DefaultBankID:            req.DefaultBankID,
		RevenueMap:               req.RevenueMap,
		ExpenseMap:               req.ExpenseMap,
		PreventDirectCashRevenue: req.PreventDirectCashRevenue,
	}
	if err := h.repo.Save(r.Context(), m); err != nil {
		h.logger.Error("save finance map", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.resolver.Invalidate()
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "updated"})
}

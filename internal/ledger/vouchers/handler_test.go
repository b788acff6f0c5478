package vouchers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyager-erp/voyager-erp/internal/ledger/finmap"
	"github.com/voyager-erp/voyager-erp/internal/shared"
)

type stubAllocator struct {
	mu   sync.Mutex
	next map[string]int64
}

func (a *stubAllocator) Allocate(ctx context.Context, typeKeyRaw string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.next == nil {
		a.next = make(map[string]int64)
	}
	key := strings.ToUpper(strings.TrimSpace(typeKeyRaw))
	a.next[key]++
	return fmt.Sprintf("%s-%05d", key, a.next[key]), nil
}

type finmapStub struct {
	m finmap.FinanceAccountMap
}

func (r *finmapStub) Get(ctx context.Context) (finmap.FinanceAccountMap, error) { return r.m, nil }

func (r *finmapStub) Save(ctx context.Context, m finmap.FinanceAccountMap) error {
	r.m = m
	return nil
}

type auditSpy struct {
	mu      sync.Mutex
	entries []shared.AuditLog
}

func (s *auditSpy) RecordAsync(ctx context.Context, log shared.AuditLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, log)
}

func (s *auditSpy) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func newTestRouter(t *testing.T, repo *fakeRepo, m finmap.FinanceAccountMap) (chi.Router, *auditSpy) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := finmap.NewResolver(&finmapStub{m: m}, time.Minute)
	audit := &auditSpy{}
	handler := NewHandler(logger, newTestService(repo), &stubAllocator{}, resolver, audit)
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.ContextWithActor(r.Context(), shared.ActorFromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Route("/vouchers", handler.MountRoutes)
	return router, audit
}

func testFinanceMap() finmap.FinanceAccountMap {
	return finmap.FinanceAccountMap{
		DefaultCashID: 10,
		RevenueMap:    map[string]int64{"tickets": 40},
	}
}

func doJSON(t *testing.T, router chi.Router, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Actor-ID", "u-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerPostAllocatesNumber(t *testing.T) {
	repo := newFakeRepo()
	router, audit := newTestRouter(t, repo, testFinanceMap())

	rec := doJSON(t, router, http.MethodPost, "/vouchers", `{
		"source_type": "booking",
		"source_id": "bk-1",
		"lines": [
			{"account_id": 10, "debit": 250},
			{"account_id": 40, "credit": 250}
		]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var voucher JournalVoucher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &voucher))
	assert.Equal(t, "BK-00001", voucher.InvoiceNumber)
	assert.Equal(t, "USD", voucher.Currency)
	assert.Equal(t, 1, audit.count())
}

func TestHandlerPostUnbalancedReturns422(t *testing.T) {
	router, audit := newTestRouter(t, newFakeRepo(), testFinanceMap())

	rec := doJSON(t, router, http.MethodPost, "/vouchers", `{
		"source_type": "booking",
		"lines": [
			{"account_id": 10, "debit": 250},
			{"account_id": 40, "credit": 100}
		]
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, audit.count())
}

func TestHandlerPostMissingAccountReturns422(t *testing.T) {
	router, _ := newTestRouter(t, newFakeRepo(), testFinanceMap())

	rec := doJSON(t, router, http.MethodPost, "/vouchers", `{
		"source_type": "booking",
		"lines": [
			{"account_id": 999, "debit": 100},
			{"account_id": 40, "credit": 100}
		]
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "999")
}

func TestHandlerPostRejectsBadBody(t *testing.T) {
	router, _ := newTestRouter(t, newFakeRepo(), testFinanceMap())

	rec := doJSON(t, router, http.MethodPost, "/vouchers", `{"source_type": "booking"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerPostSaleTagsDirectCash(t *testing.T) {
	repo := newFakeRepo()
	router, _ := newTestRouter(t, repo, testFinanceMap())

	rec := doJSON(t, router, http.MethodPost, "/vouchers/sale", `{
		"service_kind": "tickets",
		"amount": 400,
		"source_id": "bk-2"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var voucher JournalVoucher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &voucher))
	// No receivable mapped, so the default cash account substitutes and the
	// voucher carries the exception tag.
	assert.True(t, voucher.DirectCashRevenue)
	assert.Equal(t, "BK-00001", voucher.InvoiceNumber)
	require.Len(t, voucher.DebitEntries, 1)
	assert.Equal(t, int64(10), voucher.DebitEntries[0].AccountID)
	require.Len(t, voucher.CreditEntries, 1)
	assert.Equal(t, int64(40), voucher.CreditEntries[0].AccountID)
}

func TestHandlerPostSaleUnmappedKind(t *testing.T) {
	router, _ := newTestRouter(t, newFakeRepo(), testFinanceMap())

	rec := doJSON(t, router, http.MethodPost, "/vouchers/sale", `{
		"service_kind": "insurance",
		"amount": 400
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandlerGetUnknownVoucher(t *testing.T) {
	router, _ := newTestRouter(t, newFakeRepo(), testFinanceMap())

	rec := doJSON(t, router, http.MethodGet, "/vouchers/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/vouchers/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerPermanentDeleteRequiresAdmin(t *testing.T) {
	repo := newFakeRepo()
	router, _ := newTestRouter(t, repo, testFinanceMap())

	rec := doJSON(t, router, http.MethodPost, "/vouchers", `{
		"source_type": "booking",
		"source_id": "bk-3",
		"lines": [
			{"account_id": 10, "debit": 100},
			{"account_id": 40, "credit": 100}
		]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var voucher JournalVoucher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &voucher))

	rec = doJSON(t, router, http.MethodDelete, "/vouchers/"+voucher.ID.String()+"/permanent", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminDelete := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/vouchers/"+voucher.ID.String()+"/permanent", nil)
		req.Header.Set("X-Actor-ID", "admin-1")
		req.Header.Set("X-Actor-Role", "admin")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// Still active: the conflict response leaves the voucher in place.
	assert.Equal(t, http.StatusConflict, adminDelete().Code)
	assert.Len(t, repo.state.vouchers, 1)

	rec = doJSON(t, router, http.MethodDelete, "/vouchers/"+voucher.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusOK, adminDelete().Code)
	assert.Empty(t, repo.state.vouchers)
}

func TestHandlerPostDuplicateNumberConflict(t *testing.T) {
	repo := newFakeRepo()
	router, _ := newTestRouter(t, repo, testFinanceMap())

	body := `{
		"invoice_number": "RC-00042",
		"source_type": "booking",
		"source_id": "bk-5",
		"lines": [
			{"account_id": 10, "debit": 100},
			{"account_id": 40, "credit": 100}
		]
	}`
	rec := doJSON(t, router, http.MethodPost, "/vouchers", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/vouchers", strings.Replace(body, "bk-5", "bk-6", 1))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, repo.state.vouchers, 1)
}

func TestHandlerSoftDeleteAndRestore(t *testing.T) {
	repo := newFakeRepo()
	router, audit := newTestRouter(t, repo, testFinanceMap())

	rec := doJSON(t, router, http.MethodPost, "/vouchers", `{
		"source_type": "booking",
		"source_id": "bk-4",
		"lines": [
			{"account_id": 10, "debit": 100},
			{"account_id": 40, "credit": 100}
		]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var voucher JournalVoucher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &voucher))

	rec = doJSON(t, router, http.MethodDelete, "/vouchers/"+voucher.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted JournalVoucher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.True(t, deleted.IsDeleted)
	require.NotNil(t, deleted.DeletedBy)
	assert.Equal(t, "u-7", *deleted.DeletedBy)

	rec = doJSON(t, router, http.MethodPost, "/vouchers/"+voucher.ID.String()+"/restore", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var restored JournalVoucher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &restored))
	assert.False(t, restored.IsDeleted)

	// post + delete + restore
	assert.Equal(t, 3, audit.count())
}

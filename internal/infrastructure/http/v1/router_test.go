package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "posledger/internal/core/context"
	"posledger/internal/core/id"
	"posledger/internal/core/tx"
	"posledger/internal/core/types"
	"posledger/internal/domain/catalog"
	"posledger/internal/domain/ledger"
	"posledger/internal/domain/reports"
	"posledger/internal/domain/sales"
	"posledger/internal/infrastructure/export"
	"posledger/internal/infrastructure/storage/postgres"
	"posledger/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokenValidator struct{}

func (tokenValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != "till-token" {
		return nil, errors.New("bad token")
	}
	return &appctx.UserContext{UserID: "op-1", DeviceID: "till-1"}, nil
}

type readiness struct{ err error }

func (r readiness) Ready(context.Context) error { return r.err }

type memReports struct {
	entries []ledger.Entry
}

func (m *memReports) ListEntries(_ context.Context, deviceID string, from, to time.Time) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range m.entries {
		if e.DeviceID == deviceID && !e.TransactionDate.Before(from) && !e.TransactionDate.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memReports) OpenSales(context.Context, string) ([]reports.OpenBill, error)     { return nil, nil }
func (m *memReports) OpenPurchases(context.Context, string) ([]reports.OpenBill, error) { return nil, nil }
func (m *memReports) BalanceAt(context.Context, string, time.Time) (types.Money, error) {
	return types.Zero(), nil
}

type memCatalog struct {
	products []catalog.Product
}

func (m *memCatalog) CreateProduct(_ context.Context, p *catalog.Product) error {
	m.products = append(m.products, *p)
	return nil
}

func (m *memCatalog) GetProduct(_ context.Context, deviceID string, productID id.ID) (*catalog.Product, error) {
	for _, p := range m.products {
		if p.DeviceID == deviceID && p.ID == productID {
			return &p, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memCatalog) ListProducts(_ context.Context, deviceID string, _ catalog.ListQuery) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.products {
		if p.DeviceID == deviceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memCatalog) CreateParty(context.Context, catalog.PartyKind, *catalog.Party) error { return nil }
func (m *memCatalog) ListParties(context.Context, catalog.PartyKind, string, catalog.ListQuery) ([]catalog.Party, error) {
	return nil, nil
}

type memAudit struct {
	gotType  string
	gotLimit int
}

func (m *memAudit) History(_ context.Context, _ string, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error) {
	m.gotType, m.gotLimit = entityType, limit
	return []postgres.AuditEntry{{ID: id.New(), EntityType: entityType, EntityID: entityID}}, nil
}

func newTestRouter(t *testing.T, ready error) (*gin.Engine, *memReports) {
	t.Helper()
	rep := &memReports{}
	r := NewRouter(RouterConfig{
		Health:       readiness{err: ready},
		Logger:       logger.NewNop(),
		JWTValidator: tokenValidator{},
		Catalog:      catalog.NewService(&memCatalog{}),
		Sales:        sales.NewService(nil, tx.Passthrough{}, nil, nil, nil, nil),
		Ledger:       ledger.NewService(nil, tx.Passthrough{}),
		Reports:      reports.NewService(rep, time.UTC),
		Audit:        &memAudit{},
	})
	return r, rep
}

func call(r http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer till-token")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health/live", "", false).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health/ready", "", false).Code)

	r, _ = newTestRouter(t, errors.New("db down"))
	assert.Equal(t, http.StatusServiceUnavailable, call(r, http.MethodGet, "/health/ready", "", false).Code)
}

func TestAPI_RequiresToken(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := call(r, http.MethodGet, "/api/v1/reports/summary", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReports_Summary(t *testing.T) {
	r, rep := newTestRouter(t, nil)
	rep.entries = []ledger.Entry{{
		ID:              id.New(),
		DeviceID:        "till-1",
		TransactionDate: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		CreditAmount:    types.MustMoney("80"),
		CostAmount:      types.MustMoney("20"),
	}}

	w := call(r, http.MethodGet, "/api/v1/reports/summary?from=2024-05-01&to=2024-05-31", "", true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		TotalIncome  string            `json:"total_income"`
		Transactions []json.RawMessage `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "80", body.TotalIncome)
	assert.Len(t, body.Transactions, 1)
}

func TestReports_RejectsBadPeriod(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusBadRequest,
		call(r, http.MethodGet, "/api/v1/reports/summary?from=05/01/2024", "", true).Code)
	assert.Equal(t, http.StatusBadRequest,
		call(r, http.MethodGet, "/api/v1/reports/balances?from=2024-05-02&to=2024-05-01", "", true).Code)
}

func TestReports_Export(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := call(r, http.MethodGet, "/api/v1/reports/summary/export?from=2024-05-01&to=2024-05-31", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "summary_2024-05-01_2024-05-31.xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestCatalog_CreateAndListProducts(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := call(r, http.MethodPost, "/api/v1/products", `{"name":"Espresso beans","wholesale_price":"4.50","stock_quantity":"12"}`, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created catalog.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "till-1", created.DeviceID)

	w = call(r, http.MethodGet, "/api/v1/products/"+created.ID.String(), "", true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(r, http.MethodGet, "/api/v1/products?filter=kind:eq:product", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Espresso beans")

	w = call(r, http.MethodGet, "/api/v1/products?filter=kind:between:a", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSales_RejectsMalformedID(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := call(r, http.MethodGet, "/api/v1/sales/not-a-uuid", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedger_RejectsUnknownReferenceType(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := call(r, http.MethodGet, "/api/v1/ledger/references/invoice/"+id.New().String(), "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAudit_History(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := call(r, http.MethodGet, "/api/v1/audit/sale/"+id.New().String()+"?limit=5", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"entity_type":"sale"`)

	w = call(r, http.MethodGet, "/api/v1/audit/invoice/"+id.New().String(), "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

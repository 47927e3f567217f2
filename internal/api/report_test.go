package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"blangkis/internal/domain"
	"blangkis/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type globalResponse struct {
	GlobalSales report.Global `json:"globalSales"`
	Cached      bool          `json:"cached"`
}

type complexResponse struct {
	Report report.Complex `json:"report"`
	Cached bool           `json:"cached"`
}

// placeOrder checks out qty units of productID as the customer and returns the order id
func (e *testEnv) placeOrder(productID uint, qty int) uint {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/orders", e.customerToken, gin.H{"items": []gin.H{{"productId": productID, "quantity": qty}}})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[orderResponse](e.t, w).Order.ID
}

func (e *testEnv) setStatus(orderID uint, status string) {
	e.t.Helper()
	w := e.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/status", orderID), e.adminToken, gin.H{"status": status})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
}

func TestReportCountsOrderOnceItIsPaid(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(domain.Product{Name: "Blangkon Solo", Price: 100000, OriginalPrice: ptrFloat(60000), Stock: 5})

	orderID := env.placeOrder(p.ID, 1)

	w := env.do(http.MethodGet, "/api/reports/global", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	before := decode[globalResponse](t, w)
	assert.False(t, before.Cached)
	assert.Zero(t, before.GlobalSales.TotalOrders)
	assert.True(t, decode[globalResponse](t, env.do(http.MethodGet, "/api/reports/global", env.adminToken, nil)).Cached)

	// The status change must drop the cached report
	env.setStatus(orderID, domain.StatusDibayar)

	after := decode[globalResponse](t, env.do(http.MethodGet, "/api/reports/global", env.adminToken, nil))
	assert.False(t, after.Cached)
	assert.Equal(t, 1, after.GlobalSales.TotalOrders)
	assert.Equal(t, 1, after.GlobalSales.TotalQty)
	assert.Equal(t, 100000.0, after.GlobalSales.TotalRevenue)
	assert.Equal(t, 40000.0, after.GlobalSales.TotalProfit)
	assert.Equal(t, 4, env.stockOf(p.ID))
}

func TestReportsAreAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/reports/global", "/api/reports/periodic", "/api/reports/income", "/api/reports/complex", "/api/reports/complex/export"} {
		assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, path, "", nil).Code, path)
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path, env.customerToken, nil).Code, path)
	}
}

func TestComplexReportSectionsAndFilters(t *testing.T) {
	env := newTestEnv(t)
	solo := env.createProduct(domain.Product{Name: "Blangkon Solo", Price: 100000, OriginalPrice: ptrFloat(60000), Stock: 10})
	udeng := env.createProduct(domain.Product{Name: "Udeng Bali", Price: 80000, Stock: 10})

	env.setStatus(env.placeOrder(solo.ID, 2), domain.StatusDibayar)
	env.setStatus(env.placeOrder(udeng.ID, 1), domain.StatusTerkirim)
	env.setStatus(env.placeOrder(solo.ID, 1), domain.StatusDiproses) // Not a paid status
	env.placeOrder(udeng.ID, 3)                                      // Still awaiting payment

	w := env.do(http.MethodGet, "/api/reports/complex", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	full := decode[complexResponse](t, w).Report
	assert.Equal(t, 2, full.Global.TotalOrders)
	assert.Equal(t, 3, full.Global.TotalQty)
	assert.Equal(t, 280000.0, full.Global.TotalRevenue)
	assert.Equal(t, 80000.0, full.Global.TotalProfit)
	require.Len(t, full.Periodic, 1)
	assert.Equal(t, 280000.0, full.Periodic[0].Income)
	require.Len(t, full.TopProducts, 2)
	assert.Equal(t, "Blangkon Solo", full.TopProducts[0].ProductName)
	require.Len(t, full.TopUsers, 1)
	assert.Equal(t, "sari", full.TopUsers[0].Username)
	assert.Equal(t, map[string]int{"Dibayar": 1, "Terkirim": 1}, full.StatusStats)

	byProduct := decode[complexResponse](t, env.do(http.MethodGet, fmt.Sprintf("/api/reports/complex?product=%d", udeng.ID), env.adminToken, nil)).Report
	assert.Equal(t, 1, byProduct.Global.TotalOrders)
	assert.Equal(t, 80000.0, byProduct.Global.TotalRevenue)
	assert.Zero(t, byProduct.Global.TotalProfit)

	byStatus := decode[complexResponse](t, env.do(http.MethodGet, "/api/reports/complex?status=dibayar", env.adminToken, nil)).Report
	assert.Equal(t, 1, byStatus.Global.TotalOrders)

	future := decode[complexResponse](t, env.do(http.MethodGet, "/api/reports/complex?start=2999-01-01", env.adminToken, nil)).Report
	assert.Zero(t, future.Global.TotalOrders)
	assert.Empty(t, future.Detail)

	// Malformed dates are ignored
	ignored := decode[complexResponse](t, env.do(http.MethodGet, "/api/reports/complex?start=kemarin", env.adminToken, nil)).Report
	assert.Equal(t, 2, ignored.Global.TotalOrders)
}

func TestPeriodicViews(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(domain.Product{Name: "Blangkon Solo", Price: 100000, OriginalPrice: ptrFloat(60000), Stock: 5})
	env.setStatus(env.placeOrder(p.ID, 2), domain.StatusPembayaranDiterima)

	periodic := decode[struct {
		PeriodicSales []report.Period `json:"periodicSales"`
	}](t, env.do(http.MethodGet, "/api/reports/periodic", env.adminToken, nil))
	require.Len(t, periodic.PeriodicSales, 1)
	assert.Equal(t, 2, periodic.PeriodicSales[0].TotalItems)
	assert.Equal(t, 80000.0, periodic.PeriodicSales[0].Profit)

	income := decode[struct {
		PeriodicIncome []report.IncomePeriod `json:"periodicIncome"`
	}](t, env.do(http.MethodGet, "/api/reports/income", env.adminToken, nil))
	require.Len(t, income.PeriodicIncome, 1)
	assert.Equal(t, periodic.PeriodicSales[0].Period, income.PeriodicIncome[0].Period)
	assert.Equal(t, 200000.0, income.PeriodicIncome[0].Income)
}

func TestExportReportCSV(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(domain.Product{Name: "Blangkon Solo", Price: 100000, OriginalPrice: ptrFloat(60000), Stock: 5})
	env.setStatus(env.placeOrder(p.ID, 1), domain.StatusDibayar)

	w := env.do(http.MethodGet, "/api/reports/complex/export", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "laporan-penjualan-")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "No. Pesanan,"))
	assert.Contains(t, lines[1], "sari")
	assert.Contains(t, lines[1], "Dibayar")
	assert.True(t, strings.HasSuffix(lines[1], ",100000,40000,100000"), lines[1])
}

func TestProfileUpdateRefreshesCachedReport(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(domain.Product{Name: "Blangkon Solo", Price: 100000, Stock: 5})
	env.setStatus(env.placeOrder(p.ID, 1), domain.StatusDibayar)

	require.False(t, decode[complexResponse](t, env.do(http.MethodGet, "/api/reports/complex", env.adminToken, nil)).Cached)
	require.True(t, decode[complexResponse](t, env.do(http.MethodGet, "/api/reports/complex", env.adminToken, nil)).Cached)

	require.Equal(t, http.StatusOK, env.do(http.MethodPut, "/api/auth/profile", env.customerToken, gin.H{"username": "sari-baru"}).Code)

	after := decode[complexResponse](t, env.do(http.MethodGet, "/api/reports/complex", env.adminToken, nil))
	assert.False(t, after.Cached)
	require.Len(t, after.Report.TopUsers, 1)
	assert.Equal(t, "sari-baru", after.Report.TopUsers[0].Username)
	require.Len(t, after.Report.Detail, 1)
	assert.Equal(t, "sari-baru", after.Report.Detail[0].Username)
}

func TestCatalogAndUserWritesDropCachedReport(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(domain.Product{Name: "Blangkon Solo", Price: 100000, Stock: 5})
	env.setStatus(env.placeOrder(p.ID, 1), domain.StatusDibayar)

	cases := []struct {
		name   string
		method string
		path   string
		body   gin.H
	}{
		{"product", http.MethodPut, fmt.Sprintf("/api/products/%d", p.ID), gin.H{"name": "Blangkon Solo Premium"}},
		{"user", http.MethodPut, fmt.Sprintf("/api/users/%d", env.customer.ID), gin.H{"username": "Sari Admin"}},
		{"profile", http.MethodPut, "/api/auth/profile", gin.H{"username": "Sari Dewi"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env.do(http.MethodGet, "/api/reports/complex", env.adminToken, nil)
			require.True(t, decode[complexResponse](t, env.do(http.MethodGet, "/api/reports/complex", env.adminToken, nil)).Cached)

			token := env.adminToken
			if tc.name == "profile" {
				token = env.customerToken
			}
			w := env.do(tc.method, tc.path, token, tc.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			assert.False(t, decode[complexResponse](t, env.do(http.MethodGet, "/api/reports/complex", env.adminToken, nil)).Cached)
		})
	}
}

func ptrFloat(v float64) *float64 { return &v }

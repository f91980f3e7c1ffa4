package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tokomaju/backend/internal/cache"
	"tokomaju/backend/internal/domain"
	"tokomaju/backend/internal/service"
	"tokomaju/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, cache.NewMemoryReportStore(), time.Hour)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

func loginToken(t *testing.T, api *API, username, password string) string {
	t.Helper()

	payload, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d (%s)", username, rec.Code, rec.Body.String())
	}

	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func authedRequest(t *testing.T, api *API, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestEndpointsRejectMissingToken(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{
		"/api/sales",
		"/api/inventory/all",
		"/api/debts",
		"/api/suppliers",
		"/api/dashboard/stats",
		"/api/reports/sales",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		api.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token, got %d", path, rec.Code)
		}
	}
}

func TestSalesListAndCreate(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "staff", "staff123")

	rec := authedRequest(t, api, token, http.MethodGet, "/api/sales", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list sales: expected 200, got %d", rec.Code)
	}

	var listBody struct {
		Sales []domain.Sale `json:"sales"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listBody); err != nil {
		t.Fatalf("decode sales: %v", err)
	}
	if len(listBody.Sales) == 0 {
		t.Fatalf("seeded store must return sales")
	}

	rec = authedRequest(t, api, token, http.MethodPost, "/api/sales", map[string]any{
		"productId":    3,
		"quantitySold": 2,
		"totalAmount":  70,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestGetSaleByID(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "staff", "staff123")

	rec := authedRequest(t, api, token, http.MethodGet, "/api/sales/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get sale: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Sale domain.Sale `json:"sale"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	if body.Sale.ID != 1 {
		t.Fatalf("expected sale 1, got %d", body.Sale.ID)
	}

	rec = authedRequest(t, api, token, http.MethodGet, "/api/sales/9999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown sale: expected 404, got %d", rec.Code)
	}
}

func TestAdjustStockEndpoint(t *testing.T) {
	api := newTestAPI(t)
	staffToken := loginToken(t, api, "staff", "staff123")
	adminToken := loginToken(t, api, "admin", "admin123")

	rec := authedRequest(t, api, staffToken, http.MethodPost, "/api/inventory/1/stock", map[string]any{
		"delta": 5,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("staff restock: expected 403, got %d", rec.Code)
	}

	rec = authedRequest(t, api, adminToken, http.MethodPost, "/api/inventory/1/stock", map[string]any{
		"delta": 5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin restock: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Item domain.InventoryItem `json:"item"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if body.Item.StockQuantity != 45 {
		t.Fatalf("expected stock 45 after restock, got %d", body.Item.StockQuantity)
	}

	rec = authedRequest(t, api, adminToken, http.MethodPost, "/api/inventory/1/stock", map[string]any{
		"delta": -100000,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("draining restock: expected 409, got %d", rec.Code)
	}
}

func TestCreateSaleInsufficientStockConflict(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "staff", "staff123")

	rec := authedRequest(t, api, token, http.MethodPost, "/api/sales", map[string]any{
		"productId":    3,
		"quantitySold": 100000,
		"totalAmount":  1,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for oversell, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestSalesSummaryEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "staff", "staff123")

	rec := authedRequest(t, api, token, http.MethodGet, "/api/sales/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var summary domain.SalesSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalSalesToday == 0 {
		t.Fatalf("seeded store records a sale today, got %+v", summary)
	}
}

func TestInventoryWriteRequiresAdminRole(t *testing.T) {
	api := newTestAPI(t)
	staffToken := loginToken(t, api, "staff", "staff123")
	adminToken := loginToken(t, api, "admin", "admin123")

	item := map[string]any{
		"name": "Tea Box", "category": "beverage", "stockQuantity": 15,
		"unit": "box", "costPrice": 90, "sellingPrice": 120, "stockAlertLevel": 5,
	}

	rec := authedRequest(t, api, staffToken, http.MethodPost, "/api/inventory/add", item)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("staff create: expected 403, got %d", rec.Code)
	}

	rec = authedRequest(t, api, adminToken, http.MethodPost, "/api/inventory/add", item)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	var created struct {
		Item domain.InventoryItem `json:"item"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created item: %v", err)
	}

	rec = authedRequest(t, api, adminToken, http.MethodPut, fmt.Sprintf("/api/inventory/%d", created.Item.ID), map[string]any{
		"stockQuantity": 3,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin update: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = authedRequest(t, api, adminToken, http.MethodDelete, fmt.Sprintf("/api/inventory/%d", created.Item.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin delete: expected 200, got %d", rec.Code)
	}
}

func TestInventoryCategoryAndLowStock(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "staff", "staff123")

	rec := authedRequest(t, api, token, http.MethodGet, "/api/inventory/category/grocery", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("category list: expected 200, got %d", rec.Code)
	}
	var byCategory struct {
		Items []domain.InventoryItem `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&byCategory); err != nil {
		t.Fatalf("decode category items: %v", err)
	}
	for _, item := range byCategory.Items {
		if item.Category != "grocery" {
			t.Fatalf("unexpected category %s in grocery listing", item.Category)
		}
	}

	rec = authedRequest(t, api, token, http.MethodGet, "/api/inventory/low-stock", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("low stock: expected 200, got %d", rec.Code)
	}
	var lowStock struct {
		Items []domain.InventoryItem `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&lowStock); err != nil {
		t.Fatalf("decode low stock: %v", err)
	}
	for _, item := range lowStock.Items {
		if item.StockQuantity > item.StockAlertLevel {
			t.Fatalf("item %s not low on stock (%d > %d)", item.Name, item.StockQuantity, item.StockAlertLevel)
		}
	}
}

func TestDebtOverviewAndLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "staff", "staff123")

	rec := authedRequest(t, api, token, http.MethodPost, "/api/debts", map[string]any{
		"customerName": "Pak Joko",
		"amount":       500,
		"dueDate":      time.Now().UTC().AddDate(0, 0, 2).Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debt: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Debt domain.Debt `json:"debt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created debt: %v", err)
	}

	rec = authedRequest(t, api, token, http.MethodGet, "/api/debts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("debt overview: expected 200, got %d", rec.Code)
	}
	var overview domain.DebtOverview
	if err := json.NewDecoder(rec.Body).Decode(&overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if overview.Summary.OutstandingCount == 0 {
		t.Fatalf("expected outstanding debts in overview")
	}

	rec = authedRequest(t, api, token, http.MethodPut, fmt.Sprintf("/api/debts/%d", created.Debt.ID), map[string]any{
		"paid": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("mark paid: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	// Deleting debts is an admin action.
	rec = authedRequest(t, api, token, http.MethodDelete, fmt.Sprintf("/api/debts/%d", created.Debt.ID), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("staff delete: expected 403, got %d", rec.Code)
	}
}

func TestSupplierCRUD(t *testing.T) {
	api := newTestAPI(t)
	adminToken := loginToken(t, api, "admin", "admin123")

	rec := authedRequest(t, api, adminToken, http.MethodPost, "/api/suppliers", map[string]any{
		"name": "Grosir Baru", "category": "general", "contactPerson": "Wati",
		"phoneNumber": "+62-800-0000", "email": "wati@grosirbaru.example",
		"city": "Surabaya", "country": "Indonesia", "active": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create supplier: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Supplier domain.Supplier `json:"supplier"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode supplier: %v", err)
	}

	rec = authedRequest(t, api, adminToken, http.MethodPut, fmt.Sprintf("/api/suppliers/%d", created.Supplier.ID), map[string]any{
		"active": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update supplier: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = authedRequest(t, api, adminToken, http.MethodDelete, fmt.Sprintf("/api/suppliers/%d", created.Supplier.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete supplier: expected 200, got %d", rec.Code)
	}

	rec = authedRequest(t, api, adminToken, http.MethodDelete, fmt.Sprintf("/api/suppliers/%d", created.Supplier.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing supplier: expected 404, got %d", rec.Code)
	}
}

func TestDashboardEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "staff", "staff123")

	rec := authedRequest(t, api, token, http.MethodGet, "/api/dashboard/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rec.Code)
	}
	var stats domain.DashboardStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalSales == 0 {
		t.Fatalf("seeded store must report sales, got %+v", stats)
	}

	rec = authedRequest(t, api, token, http.MethodGet, "/api/dashboard/activity", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("activity: expected 200, got %d", rec.Code)
	}
	var activity struct {
		Activity []domain.ActivityEntry `json:"activity"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&activity); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if len(activity.Activity) == 0 {
		t.Fatalf("expected activity entries")
	}
}

func TestSalesReportEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "staff", "staff123")

	rec := authedRequest(t, api, token, http.MethodGet, "/api/reports/sales", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report domain.SalesReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TotalRevenue == 0 {
		t.Fatalf("seeded store must report revenue")
	}
	if len(report.TopProducts) == 0 {
		t.Fatalf("expected top products")
	}
}

func TestGenerateAndDownloadReportOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "staff", "staff123")

	rec := authedRequest(t, api, token, http.MethodPost, "/api/reports/generate", map[string]any{
		"period": "monthly",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp domain.GenerateReportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}

	rec = authedRequest(t, api, token, http.MethodGet, fmt.Sprintf("/api/reports/%s/download", resp.ReportID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("expected text/csv, got %q", got)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected csv content")
	}
}

func TestGenerateReportBadPeriod(t *testing.T) {
	api := newTestAPI(t)
	token := loginToken(t, api, "staff", "staff123")

	rec := authedRequest(t, api, token, http.MethodPost, "/api/reports/generate", map[string]any{
		"period": "yearly",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tokomaju/backend/internal/cache"
	"tokomaju/backend/internal/domain"
	"tokomaju/backend/internal/store"
	"tokomaju/backend/internal/store/memory"
)

func newTestService() *Service {
	return New(memory.NewSeeded(), cache.NewMemoryReportStore(), time.Hour)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

func staffCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "staff", Role: domain.RoleStaff})
}

func TestCreateSaleDecrementsStock(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	items, err := svc.ListInventory(ctx)
	if err != nil {
		t.Fatalf("list inventory: %v", err)
	}
	target := items[0]

	sale, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		ProductID:    target.ID,
		QuantitySold: 2,
		TotalAmount:  target.SellingPrice * 2,
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if sale.ID == 0 {
		t.Fatalf("expected assigned sale id")
	}

	after, err := svc.ListInventory(ctx)
	if err != nil {
		t.Fatalf("list inventory: %v", err)
	}
	if after[0].StockQuantity != target.StockQuantity-2 {
		t.Fatalf("expected stock %d, got %d", target.StockQuantity-2, after[0].StockQuantity)
	}
}

func TestCreateSaleRejectsOversell(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	items, _ := svc.ListInventory(ctx)
	target := items[0]

	_, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		ProductID:    target.ID,
		QuantitySold: target.StockQuantity + 1,
		TotalAmount:  100,
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestGetSale(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	sale, err := svc.GetSale(ctx, 1)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if sale.ID != 1 {
		t.Fatalf("expected sale 1, got %d", sale.ID)
	}

	if _, err := svc.GetSale(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdjustInventoryStock(t *testing.T) {
	svc := newTestService()

	items, err := svc.ListInventory(adminCtx())
	if err != nil {
		t.Fatalf("list inventory: %v", err)
	}
	target := items[0]

	if _, err := svc.AdjustInventoryStock(staffCtx(), target.ID, 5); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for staff, got %v", err)
	}

	updated, err := svc.AdjustInventoryStock(adminCtx(), target.ID, 5)
	if err != nil {
		t.Fatalf("restock failed: %v", err)
	}
	if updated.StockQuantity != target.StockQuantity+5 {
		t.Fatalf("expected stock %d, got %d", target.StockQuantity+5, updated.StockQuantity)
	}

	if _, err := svc.AdjustInventoryStock(adminCtx(), target.ID, 0); !errors.Is(err, store.ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity for zero delta, got %v", err)
	}

	if _, err := svc.AdjustInventoryStock(adminCtx(), target.ID, -(target.StockQuantity + 100)); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestDeleteSaleRequiresAdmin(t *testing.T) {
	svc := newTestService()

	if err := svc.DeleteSale(staffCtx(), 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteSale(adminCtx(), 1); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
}

func TestInventoryWritesRequireAdmin(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateInventoryItem(staffCtx(), domain.InventoryCreateRequest{
		Name: "Sugar 1kg", Category: "grocery", Unit: "bag", StockQuantity: 10,
	})
	if err == nil {
		t.Fatalf("expected staff create to be rejected")
	}

	created, err := svc.CreateInventoryItem(adminCtx(), domain.InventoryCreateRequest{
		Name: "Sugar 1kg", Category: "grocery", Unit: "bag", StockQuantity: 10,
		CostPrice: 150000, SellingPrice: 180000, StockAlertLevel: 5,
	})
	if err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned inventory id")
	}
}

func TestUpdateInventoryItemPartial(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	items, _ := svc.ListInventory(ctx)
	target := items[0]

	newStock := 77
	updated, err := svc.UpdateInventoryItem(ctx, target.ID, domain.InventoryUpdateRequest{
		StockQuantity: &newStock,
	})
	if err != nil {
		t.Fatalf("update inventory: %v", err)
	}
	if updated.StockQuantity != 77 {
		t.Fatalf("expected stock 77, got %d", updated.StockQuantity)
	}
	if updated.Name != target.Name {
		t.Fatalf("untouched field changed: %s -> %s", target.Name, updated.Name)
	}
}

func TestDeletedProductYieldsStaleSaleNotError(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	items, _ := svc.ListInventory(ctx)
	target := items[0]

	if _, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		ProductID:    target.ID,
		QuantitySold: 1,
		TotalAmount:  target.SellingPrice,
	}); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if err := svc.DeleteInventoryItem(ctx, target.ID); err != nil {
		t.Fatalf("delete inventory item: %v", err)
	}

	report, err := svc.SalesReport(ctx)
	if err != nil {
		t.Fatalf("sales report: %v", err)
	}
	if report.TotalRevenue == 0 {
		t.Fatalf("stale sales must keep contributing revenue")
	}
}

func TestDebtLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	due := time.Now().UTC().AddDate(0, 0, 5)
	created, err := svc.CreateDebt(ctx, domain.DebtCreateRequest{
		CustomerName: "Bu Rina",
		Amount:       125000,
		DueDate:      due,
	})
	if err != nil {
		t.Fatalf("create debt: %v", err)
	}

	paid := true
	updated, err := svc.UpdateDebt(ctx, created.ID, domain.DebtUpdateRequest{Paid: &paid})
	if err != nil {
		t.Fatalf("update debt: %v", err)
	}
	if !updated.Paid {
		t.Fatalf("expected debt marked paid")
	}

	overview, err := svc.DebtOverview(ctx)
	if err != nil {
		t.Fatalf("debt overview: %v", err)
	}
	for _, d := range overview.Debts {
		if d.ID == created.ID && d.Status != domain.DebtPaid {
			t.Fatalf("expected paid status, got %s", d.Status)
		}
	}
}

func TestDashboardOverviewShape(t *testing.T) {
	svc := newTestService()

	overview, err := svc.DashboardOverview(staffCtx())
	if err != nil {
		t.Fatalf("dashboard overview: %v", err)
	}
	if overview.Stats.TotalSales == 0 {
		t.Fatalf("seeded store must report sales")
	}
	if len(overview.RecentActivity) == 0 {
		t.Fatalf("expected recent activity entries")
	}
	if overview.RecentActivity[0].Type != domain.ActivitySale {
		t.Fatalf("activity feed must start with sales, got %s", overview.RecentActivity[0].Type)
	}
}

func TestSalesSummaryCountsToday(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	items, _ := svc.ListInventory(ctx)
	target := items[1]
	if _, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		ProductID:    target.ID,
		QuantitySold: 1,
		TotalAmount:  target.SellingPrice,
	}); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	summary, err := svc.SalesSummary(ctx)
	if err != nil {
		t.Fatalf("sales summary: %v", err)
	}
	if summary.TotalSalesToday == 0 || summary.TotalItemsSoldToday == 0 {
		t.Fatalf("expected today's sale to be counted, got %+v", summary)
	}
}

func TestGenerateAndDownloadReport(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	resp, err := svc.GenerateReport(ctx, domain.GenerateReportRequest{Period: "monthly"})
	if err != nil {
		t.Fatalf("generate report: %v", err)
	}
	if resp.ReportID == "" || resp.FileName == "" {
		t.Fatalf("expected report id and file name, got %+v", resp)
	}

	report, err := svc.DownloadReport(ctx, resp.ReportID)
	if err != nil {
		t.Fatalf("download report: %v", err)
	}
	if report.ContentType != "text/csv" {
		t.Fatalf("expected text/csv, got %s", report.ContentType)
	}
	if !strings.HasPrefix(report.Content, "date,sales,profit") {
		t.Fatalf("unexpected csv header: %q", report.Content)
	}
}

func TestGenerateReportRejectsBadPeriod(t *testing.T) {
	svc := newTestService()

	_, err := svc.GenerateReport(staffCtx(), domain.GenerateReportRequest{Period: "quarterly"})
	if !errors.Is(err, store.ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity, got %v", err)
	}

	_, err = svc.GenerateReport(staffCtx(), domain.GenerateReportRequest{
		Period: "custom", StartDate: "2024-02-10", EndDate: "2024-02-01",
	})
	if !errors.Is(err, store.ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity for inverted range, got %v", err)
	}
}

func TestDownloadUnknownReport(t *testing.T) {
	svc := newTestService()

	_, err := svc.DownloadReport(staffCtx(), "rpt-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tokomaju/backend/internal/analytics"
	"tokomaju/backend/internal/cache"
	"tokomaju/backend/internal/domain"
	"tokomaju/backend/internal/store"
	"tokomaju/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const defaultReportTTL = 24 * time.Hour

type Service struct {
	repo      store.Repository
	reports   cache.ReportStore
	reportTTL time.Duration
}

func New(repo store.Repository, reports cache.ReportStore, reportTTL time.Duration) *Service {
	if reports == nil {
		reports = cache.NewMemoryReportStore()
	}
	if reportTTL <= 0 {
		reportTTL = defaultReportTTL
	}

	return &Service{
		repo:      repo,
		reports:   reports,
		reportTTL: reportTTL,
	}
}

// ErrForbidden is returned when the acting user lacks the role an
// operation requires.
var ErrForbidden = errors.New("admin role required")

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

func (s *Service) GetSale(ctx context.Context, id int64) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	if req.ProductID < 1 || req.QuantitySold < 1 || req.TotalAmount < 0 {
		return domain.Sale{}, store.ErrInvalidEntity
	}

	sale := domain.Sale{
		ProductID:    req.ProductID,
		QuantitySold: req.QuantitySold,
		TotalAmount:  req.TotalAmount,
		SaleDate:     time.Now().UTC(),
	}
	if req.SaleDate != nil && !req.SaleDate.IsZero() {
		sale.SaleDate = req.SaleDate.UTC()
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}
	return *created, nil
}

// DeleteSale removes the record without restocking: a deleted sale is a data
// correction, not a return.
func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteSale(ctx, id)
}

func (s *Service) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.repo.ListInventory(ctx)
}

func (s *Service) ListInventoryByCategory(ctx context.Context, category string) ([]domain.InventoryItem, error) {
	if strings.TrimSpace(category) == "" {
		return nil, store.ErrInvalidEntity
	}
	return s.repo.ListInventoryByCategory(ctx, category)
}

func (s *Service) CreateInventoryItem(ctx context.Context, req domain.InventoryCreateRequest) (domain.InventoryItem, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.InventoryItem{}, err
	}

	item := domain.InventoryItem{
		Name:            strings.TrimSpace(req.Name),
		Category:        strings.TrimSpace(req.Category),
		StockQuantity:   req.StockQuantity,
		Unit:            strings.TrimSpace(req.Unit),
		CostPrice:       req.CostPrice,
		SellingPrice:    req.SellingPrice,
		Supplier:        strings.TrimSpace(req.Supplier),
		StockAlertLevel: req.StockAlertLevel,
		ImageURL:        strings.TrimSpace(req.ImageURL),
	}
	if item.Name == "" || item.Category == "" || item.Unit == "" {
		return domain.InventoryItem{}, store.ErrInvalidEntity
	}
	if item.StockQuantity < 0 || item.CostPrice < 0 || item.SellingPrice < 0 || item.StockAlertLevel < 0 {
		return domain.InventoryItem{}, store.ErrInvalidEntity
	}

	created, err := s.repo.CreateInventoryItem(ctx, item)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	return *created, nil
}

func (s *Service) UpdateInventoryItem(ctx context.Context, id int64, req domain.InventoryUpdateRequest) (domain.InventoryItem, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.InventoryItem{}, err
	}

	existing, err := s.repo.GetInventoryItem(ctx, id)
	if err != nil {
		return domain.InventoryItem{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.InventoryItem{}, store.ErrInvalidEntity
		}
		updated.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return domain.InventoryItem{}, store.ErrInvalidEntity
		}
		updated.Category = category
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return domain.InventoryItem{}, store.ErrInvalidEntity
		}
		updated.StockQuantity = *req.StockQuantity
	}
	if req.Unit != nil {
		unit := strings.TrimSpace(*req.Unit)
		if unit == "" {
			return domain.InventoryItem{}, store.ErrInvalidEntity
		}
		updated.Unit = unit
	}
	if req.CostPrice != nil {
		if *req.CostPrice < 0 {
			return domain.InventoryItem{}, store.ErrInvalidEntity
		}
		updated.CostPrice = *req.CostPrice
	}
	if req.SellingPrice != nil {
		if *req.SellingPrice < 0 {
			return domain.InventoryItem{}, store.ErrInvalidEntity
		}
		updated.SellingPrice = *req.SellingPrice
	}
	if req.Supplier != nil {
		updated.Supplier = strings.TrimSpace(*req.Supplier)
	}
	if req.StockAlertLevel != nil {
		if *req.StockAlertLevel < 0 {
			return domain.InventoryItem{}, store.ErrInvalidEntity
		}
		updated.StockAlertLevel = *req.StockAlertLevel
	}
	if req.ImageURL != nil {
		updated.ImageURL = strings.TrimSpace(*req.ImageURL)
	}

	saved, err := s.repo.UpdateInventoryItem(ctx, updated)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteInventoryItem(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteInventoryItem(ctx, id)
}

// AdjustInventoryStock applies a signed stock delta, for restocks and manual
// corrections outside the sales flow.
func (s *Service) AdjustInventoryStock(ctx context.Context, id int64, delta int) (domain.InventoryItem, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.InventoryItem{}, err
	}
	if delta == 0 {
		return domain.InventoryItem{}, store.ErrInvalidEntity
	}
	item, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	return *item, nil
}

func (s *Service) LowStockAlerts(ctx context.Context) ([]domain.InventoryItem, error) {
	items, err := s.repo.ListInventory(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.LowStockItems(items), nil
}

func (s *Service) ListDebts(ctx context.Context) ([]domain.ClassifiedDebt, error) {
	debts, err := s.repo.ListDebts(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.ClassifyDebts(debts, time.Now().UTC()), nil
}

func (s *Service) CreateDebt(ctx context.Context, req domain.DebtCreateRequest) (domain.Debt, error) {
	debt := domain.Debt{
		CustomerName: strings.TrimSpace(req.CustomerName),
		Amount:       req.Amount,
		DueDate:      req.DueDate.UTC(),
		CreatedDate:  time.Now().UTC(),
	}
	if req.CreatedDate != nil && !req.CreatedDate.IsZero() {
		debt.CreatedDate = req.CreatedDate.UTC()
	}
	if debt.CustomerName == "" || debt.Amount < 1 || debt.DueDate.IsZero() {
		return domain.Debt{}, store.ErrInvalidEntity
	}

	created, err := s.repo.CreateDebt(ctx, debt)
	if err != nil {
		return domain.Debt{}, err
	}
	return *created, nil
}

func (s *Service) UpdateDebt(ctx context.Context, id int64, req domain.DebtUpdateRequest) (domain.Debt, error) {
	existing, err := s.repo.GetDebt(ctx, id)
	if err != nil {
		return domain.Debt{}, err
	}

	updated := *existing
	if req.CustomerName != nil {
		name := strings.TrimSpace(*req.CustomerName)
		if name == "" {
			return domain.Debt{}, store.ErrInvalidEntity
		}
		updated.CustomerName = name
	}
	if req.Amount != nil {
		if *req.Amount < 1 {
			return domain.Debt{}, store.ErrInvalidEntity
		}
		updated.Amount = *req.Amount
	}
	if req.DueDate != nil {
		if req.DueDate.IsZero() {
			return domain.Debt{}, store.ErrInvalidEntity
		}
		updated.DueDate = req.DueDate.UTC()
	}
	if req.Paid != nil {
		updated.Paid = *req.Paid
	}

	saved, err := s.repo.UpdateDebt(ctx, updated)
	if err != nil {
		return domain.Debt{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteDebt(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteDebt(ctx, id)
}

func (s *Service) DebtOverview(ctx context.Context) (domain.DebtOverview, error) {
	debts, err := s.repo.ListDebts(ctx)
	if err != nil {
		return domain.DebtOverview{}, err
	}

	now := time.Now().UTC()
	return domain.DebtOverview{
		Summary: analytics.SummarizeDebts(debts, now),
		Debts:   analytics.ClassifyDebts(debts, now),
	}, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}

	supplier := domain.Supplier{
		Name:          strings.TrimSpace(req.Name),
		Category:      strings.TrimSpace(req.Category),
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		PhoneNumber:   strings.TrimSpace(req.PhoneNumber),
		Email:         strings.TrimSpace(req.Email),
		Address:       strings.TrimSpace(req.Address),
		City:          strings.TrimSpace(req.City),
		State:         strings.TrimSpace(req.State),
		PostalCode:    strings.TrimSpace(req.PostalCode),
		Country:       strings.TrimSpace(req.Country),
		Active:        req.Active,
	}
	if supplier.Name == "" {
		return domain.Supplier{}, store.ErrInvalidEntity
	}

	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *created, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, req domain.SupplierUpdateRequest) (domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}

	existing, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return domain.Supplier{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Supplier{}, store.ErrInvalidEntity
		}
		updated.Name = name
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.ContactPerson != nil {
		updated.ContactPerson = strings.TrimSpace(*req.ContactPerson)
	}
	if req.PhoneNumber != nil {
		updated.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.Email != nil {
		updated.Email = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		updated.Address = strings.TrimSpace(*req.Address)
	}
	if req.City != nil {
		updated.City = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		updated.State = strings.TrimSpace(*req.State)
	}
	if req.PostalCode != nil {
		updated.PostalCode = strings.TrimSpace(*req.PostalCode)
	}
	if req.Country != nil {
		updated.Country = strings.TrimSpace(*req.Country)
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateSupplier(ctx, updated)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteSupplier(ctx, id)
}

// fetchEntities loads the three entity snapshots concurrently. Any single
// failure fails the whole fetch; partial dashboards are worse than an error.
func (s *Service) fetchEntities(ctx context.Context) ([]domain.Sale, []domain.InventoryItem, []domain.Debt, error) {
	var (
		sales []domain.Sale
		items []domain.InventoryItem
		debts []domain.Debt
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = s.repo.ListSales(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.repo.ListInventory(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		debts, err = s.repo.ListDebts(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return sales, items, debts, nil
}

func (s *Service) DashboardOverview(ctx context.Context) (domain.DashboardOverview, error) {
	sales, items, debts, err := s.fetchEntities(ctx)
	if err != nil {
		return domain.DashboardOverview{}, err
	}

	return domain.DashboardOverview{
		Stats:          analytics.DashboardStats(sales, items, debts),
		RecentActivity: analytics.RecentActivity(sales, debts, items, analytics.SampleSizes{}),
	}, nil
}

func (s *Service) SalesReport(ctx context.Context) (domain.SalesReport, error) {
	var (
		sales []domain.Sale
		items []domain.InventoryItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = s.repo.ListSales(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.repo.ListInventory(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.SalesReport{}, err
	}

	return analytics.BuildSalesReport(sales, items), nil
}

func (s *Service) SalesSummary(ctx context.Context) (domain.SalesSummary, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	return analytics.SummarizeSales(sales, time.Now().UTC()), nil
}

// GenerateReport renders the sales report for the requested period as a CSV
// artifact and stores it for later download.
func (s *Service) GenerateReport(ctx context.Context, req domain.GenerateReportRequest) (domain.GenerateReportResponse, error) {
	period := strings.ToLower(strings.TrimSpace(req.Period))
	now := time.Now().UTC()

	from, to, err := reportWindow(period, req.StartDate, req.EndDate, now)
	if err != nil {
		return domain.GenerateReportResponse{}, err
	}

	var (
		sales []domain.Sale
		items []domain.InventoryItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var listErr error
		sales, listErr = s.repo.ListSales(gctx)
		return listErr
	})
	g.Go(func() error {
		var listErr error
		items, listErr = s.repo.ListInventory(gctx)
		return listErr
	})
	if err := g.Wait(); err != nil {
		return domain.GenerateReportResponse{}, err
	}

	windowed := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		at := sale.SaleDate.UTC()
		if at.Before(from) || !at.Before(to) {
			continue
		}
		windowed = append(windowed, sale)
	}

	report := analytics.BuildSalesReport(windowed, items)
	content, err := renderReportCSV(report)
	if err != nil {
		return domain.GenerateReportResponse{}, err
	}

	artifact := domain.GeneratedReport{
		ID:          xid.New("rpt"),
		Period:      period,
		StartDate:   from.Format("2006-01-02"),
		EndDate:     to.AddDate(0, 0, -1).Format("2006-01-02"),
		FileName:    fmt.Sprintf("sales-report-%s-%s.csv", period, now.Format("20060102-150405")),
		ContentType: "text/csv",
		Content:     content,
		GeneratedAt: now,
	}

	if err := s.reports.Set(ctx, &artifact, s.reportTTL); err != nil {
		log.Printf("[service] WARN: failed to store report artifact %s: %v", artifact.ID, err)
		return domain.GenerateReportResponse{}, err
	}

	return domain.GenerateReportResponse{
		ReportID:    artifact.ID,
		FileName:    artifact.FileName,
		GeneratedAt: artifact.GeneratedAt.Format(time.RFC3339),
	}, nil
}

func (s *Service) DownloadReport(ctx context.Context, id string) (*domain.GeneratedReport, error) {
	if strings.TrimSpace(id) == "" {
		return nil, store.ErrInvalidEntity
	}
	report, found, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, store.ErrNotFound
	}
	return report, nil
}

// reportWindow returns the half-open [from, to) range covered by the period.
func reportWindow(period string, startDate string, endDate string, now time.Time) (time.Time, time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case "daily":
		return today, today.AddDate(0, 0, 1), nil
	case "weekly":
		return today.AddDate(0, 0, -6), today.AddDate(0, 0, 1), nil
	case "monthly":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first, first.AddDate(0, 1, 0), nil
	case "custom":
		from, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return time.Time{}, time.Time{}, store.ErrInvalidEntity
		}
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, time.Time{}, store.ErrInvalidEntity
		}
		to := end.AddDate(0, 0, 1)
		if !from.Before(to) {
			return time.Time{}, time.Time{}, store.ErrInvalidEntity
		}
		return from, to, nil
	default:
		return time.Time{}, time.Time{}, store.ErrInvalidEntity
	}
}

func renderReportCSV(report domain.SalesReport) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	rows := [][]string{
		{"date", "sales", "profit"},
	}
	for _, row := range report.Rows {
		rows = append(rows, []string{row.Date, row.Sales.String(), row.Profit.String()})
	}
	rows = append(rows,
		[]string{},
		[]string{"totalRevenue", report.TotalRevenue.String()},
		[]string{"totalProfit", report.TotalProfit.String()},
		[]string{"profitMargin", fmt.Sprintf("%d%%", report.ProfitMargin)},
	)
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tokomaju/backend/internal/domain"
	"tokomaju/backend/internal/money"
)

func TotalRevenue(sales []domain.EnrichedSale) money.Cents {
	total := money.Cents(0)
	for _, sale := range sales {
		total += sale.TotalAmount
	}
	return total
}

func TotalProfit(sales []domain.EnrichedSale) money.Cents {
	total := money.Cents(0)
	for _, sale := range sales {
		total += sale.Profit
	}
	return total
}

// ProfitMargin returns round(profit/revenue*100) as a whole percentage.
// Zero or negative revenue yields 0 rather than a division error.
func ProfitMargin(revenue, profit money.Cents) int {
	if revenue <= 0 {
		return 0
	}
	margin := decimal.New(int64(profit), 0).
		Div(decimal.New(int64(revenue), 0)).
		Mul(decimal.New(100, 0))
	return int(margin.Round(0).IntPart())
}

// SalesByCategory groups enriched sales by product category, summing amount
// and profit per group. Sales with no matching product carry no category and
// are excluded. Groups appear in first-seen order; callers needing another
// order must sort explicitly.
func SalesByCategory(sales []domain.EnrichedSale) []domain.CategorySummary {
	index := make(map[string]int)
	summaries := make([]domain.CategorySummary, 0)
	for _, sale := range sales {
		if sale.Product == nil {
			continue
		}
		category := sale.Product.Category
		pos, seen := index[category]
		if !seen {
			pos = len(summaries)
			index[category] = pos
			summaries = append(summaries, domain.CategorySummary{Category: category})
		}
		summaries[pos].TotalSales += sale.TotalAmount
		summaries[pos].TotalProfit += sale.Profit
	}
	return summaries
}

// DefaultTopN is the ranking cutoff used by the reports page.
const DefaultTopN = 5

// TopSellingProducts ranks inventory items by the revenue of their own sales,
// descending. Ties keep the items' input order (stable sort). Items with no
// sales are omitted, so the result holds at most min(n, items with sales)
// entries.
func TopSellingProducts(items []domain.InventoryItem, sales []domain.Sale, n int) []domain.TopProduct {
	if n <= 0 {
		n = DefaultTopN
	}

	type tally struct {
		quantity int
		amount   money.Cents
	}
	byProduct := make(map[int64]tally, len(items))
	for _, sale := range sales {
		t := byProduct[sale.ProductID]
		t.quantity += sale.QuantitySold
		t.amount += sale.TotalAmount
		byProduct[sale.ProductID] = t
	}

	ranked := make([]domain.TopProduct, 0, len(items))
	for _, item := range items {
		t, ok := byProduct[item.ID]
		if !ok {
			continue
		}
		ranked = append(ranked, domain.TopProduct{
			Name:     item.Name,
			Quantity: t.quantity,
			Sales:    t.amount,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Sales > ranked[j].Sales
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// SampleSizes controls how many entries of each type RecentActivity picks.
// The zero value selects the dashboard defaults (3 sales, 2 debts, 3
// inventory rows).
type SampleSizes struct {
	Sales     int
	Debts     int
	Inventory int
}

func (s SampleSizes) withDefaults() SampleSizes {
	if s.Sales == 0 {
		s.Sales = 3
	}
	if s.Debts == 0 {
		s.Debts = 2
	}
	if s.Inventory == 0 {
		s.Inventory = 3
	}
	return s
}

// RecentActivity builds the dashboard feed: latest sales by sale date, latest
// debts by created date, then the last inventory rows by slice position
// (inventory carries no creation timestamp, so tail position stands in for
// recency). The three blocks are concatenated in that fixed order, never
// re-sorted across types.
func RecentActivity(sales []domain.Sale, debts []domain.Debt, items []domain.InventoryItem, sizes SampleSizes) []domain.ActivityEntry {
	sizes = sizes.withDefaults()

	recentSales := make([]domain.Sale, len(sales))
	copy(recentSales, sales)
	sort.SliceStable(recentSales, func(i, j int) bool {
		return recentSales[i].SaleDate.After(recentSales[j].SaleDate)
	})
	if len(recentSales) > sizes.Sales {
		recentSales = recentSales[:sizes.Sales]
	}

	recentDebts := make([]domain.Debt, len(debts))
	copy(recentDebts, debts)
	sort.SliceStable(recentDebts, func(i, j int) bool {
		return recentDebts[i].CreatedDate.After(recentDebts[j].CreatedDate)
	})
	if len(recentDebts) > sizes.Debts {
		recentDebts = recentDebts[:sizes.Debts]
	}

	recentItems := items
	if len(recentItems) > sizes.Inventory {
		recentItems = recentItems[len(recentItems)-sizes.Inventory:]
	}

	entries := make([]domain.ActivityEntry, 0, len(recentSales)+len(recentDebts)+len(recentItems))
	for _, sale := range recentSales {
		entries = append(entries, domain.ActivityEntry{
			Type:        domain.ActivitySale,
			Description: fmt.Sprintf("%d items sold for $%s", sale.QuantitySold, sale.TotalAmount),
			Time:        sale.SaleDate.UTC().Format(time.RFC3339),
		})
	}
	for _, debt := range recentDebts {
		entries = append(entries, domain.ActivityEntry{
			Type:        domain.ActivityDebt,
			Description: fmt.Sprintf("$%s debt for %s", debt.Amount, debt.CustomerName),
			Time:        debt.CreatedDate.UTC().Format(time.RFC3339),
		})
	}
	for _, item := range recentItems {
		entries = append(entries, domain.ActivityEntry{
			Type:        domain.ActivityInventory,
			Description: fmt.Sprintf("Added %d %s of %s to inventory", item.StockQuantity, item.Unit, item.Name),
			Time:        "N/A",
		})
	}
	return entries
}

// DashboardStats computes the four headline numbers: revenue and sale count
// over all sales, total stock units across inventory, and the sum of unpaid
// debt amounts.
func DashboardStats(sales []domain.Sale, items []domain.InventoryItem, debts []domain.Debt) domain.DashboardStats {
	stats := domain.DashboardStats{TotalSales: len(sales)}
	for _, sale := range sales {
		stats.TotalRevenue += sale.TotalAmount
	}
	for _, item := range items {
		stats.ActiveInventory += item.StockQuantity
	}
	for _, debt := range debts {
		if !debt.Paid {
			stats.ActiveDebts += debt.Amount
		}
	}
	return stats
}

// SummarizeSales windows revenue by day (UTC), rolling 7 days, and calendar
// month relative to now.
func SummarizeSales(sales []domain.Sale, now time.Time) domain.SalesSummary {
	now = now.UTC()
	today := midnightUTC(now)
	weekStart := today.AddDate(0, 0, -6)

	var summary domain.SalesSummary
	for _, sale := range sales {
		at := sale.SaleDate.UTC()
		day := midnightUTC(at)
		if day.Equal(today) {
			summary.TotalSalesToday += sale.TotalAmount
			summary.TotalItemsSoldToday += sale.QuantitySold
		}
		if !day.Before(weekStart) && !day.After(today) {
			summary.TotalSalesThisWeek += sale.TotalAmount
		}
		if at.Year() == now.Year() && at.Month() == now.Month() {
			summary.TotalSalesThisMonth += sale.TotalAmount
		}
	}
	return summary
}

// BuildSalesReport assembles the full reports-page view model from one pass
// over the joined sales.
func BuildSalesReport(sales []domain.Sale, items []domain.InventoryItem) domain.SalesReport {
	enriched := JoinSalesWithProducts(sales, items)

	rows := make([]domain.SalesReportRow, 0, len(enriched))
	for _, sale := range enriched {
		rows = append(rows, domain.SalesReportRow{
			Date:   sale.SaleDate.UTC().Format("2006-01-02"),
			Sales:  sale.TotalAmount,
			Profit: sale.Profit,
		})
	}

	revenue := TotalRevenue(enriched)
	profit := TotalProfit(enriched)

	return domain.SalesReport{
		TotalRevenue: revenue,
		TotalProfit:  profit,
		ProfitMargin: ProfitMargin(revenue, profit),
		Categories:   SalesByCategory(enriched),
		TopProducts:  TopSellingProducts(items, sales, DefaultTopN),
		Rows:         rows,
	}
}

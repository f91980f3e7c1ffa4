package analytics

import (
	"math"
	"time"

	"tokomaju/backend/internal/domain"
)

// dueSoonWindowDays bounds the "due soon" bucket: unpaid debts due within
// this many days (inclusive) of today.
const dueSoonWindowDays = 3

// DebtStatusOf derives the lifecycle status of a debt at the given date.
// Paid always wins; otherwise a due date strictly before today means
// overdue. Dates are compared at day granularity in UTC, so the status of an
// unpaid debt flips from pending to overdue at midnight after its due date.
func DebtStatusOf(debt domain.Debt, today time.Time) domain.DebtStatus {
	if debt.Paid {
		return domain.DebtPaid
	}
	if midnightUTC(debt.DueDate).Before(midnightUTC(today)) {
		return domain.DebtOverdue
	}
	return domain.DebtPending
}

// DueDaysRemaining returns ceil((dueDate - today) / 1 day). Zero means due
// today; negative values count days overdue.
func DueDaysRemaining(dueDate, today time.Time) int {
	diff := midnightUTC(dueDate).Sub(midnightUTC(today))
	return int(math.Ceil(diff.Hours() / 24))
}

func IsLowStock(item domain.InventoryItem) bool {
	return item.StockQuantity <= item.StockAlertLevel
}

// LowStockItems filters items at or below their alert level, preserving
// input order.
func LowStockItems(items []domain.InventoryItem) []domain.InventoryItem {
	flagged := make([]domain.InventoryItem, 0)
	for _, item := range items {
		if IsLowStock(item) {
			flagged = append(flagged, item)
		}
	}
	return flagged
}

// ClassifyDebts annotates each debt with its derived status and remaining
// days. Output order matches input order.
func ClassifyDebts(debts []domain.Debt, today time.Time) []domain.ClassifiedDebt {
	classified := make([]domain.ClassifiedDebt, 0, len(debts))
	for _, debt := range debts {
		classified = append(classified, domain.ClassifiedDebt{
			Debt:      debt,
			Status:    DebtStatusOf(debt, today),
			DueInDays: DueDaysRemaining(debt.DueDate, today),
		})
	}
	return classified
}

// SummarizeDebts buckets debts into outstanding (anything unpaid), overdue,
// and due-soon (unpaid, due within dueSoonWindowDays of today). A debt can
// count toward outstanding and exactly one of the other two buckets.
func SummarizeDebts(debts []domain.Debt, today time.Time) domain.DebtSummary {
	var summary domain.DebtSummary
	for _, debt := range debts {
		status := DebtStatusOf(debt, today)
		if status == domain.DebtPaid {
			continue
		}
		summary.OutstandingTotal += debt.Amount
		summary.OutstandingCount++

		if status == domain.DebtOverdue {
			summary.OverdueTotal += debt.Amount
			summary.OverdueCount++
			continue
		}
		if days := DueDaysRemaining(debt.DueDate, today); days <= dueSoonWindowDays {
			summary.DueSoonTotal += debt.Amount
			summary.DueSoonCount++
		}
	}
	return summary
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

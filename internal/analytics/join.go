// Package analytics derives dashboard and report view models from raw entity
// snapshots fetched by the caller. Every function is pure: inputs are never
// mutated, the clock is always an explicit parameter, and results are
// recomputed from scratch on every call.
package analytics

import (
	"tokomaju/backend/internal/domain"
	"tokomaju/backend/internal/money"
)

// JoinSalesWithProducts left-joins each sale with its inventory item and
// computes profit = totalAmount - costPrice*quantitySold. Sales whose product
// was deleted keep a nil Product and zero profit; stale references are
// expected in real data and are not an error. Output length always equals
// input length.
func JoinSalesWithProducts(sales []domain.Sale, items []domain.InventoryItem) []domain.EnrichedSale {
	byID := make(map[int64]domain.InventoryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	enriched := make([]domain.EnrichedSale, 0, len(sales))
	for _, sale := range sales {
		entry := domain.EnrichedSale{Sale: sale}
		if item, ok := byID[sale.ProductID]; ok {
			product := item
			entry.Product = &product
			entry.Profit = sale.TotalAmount - item.CostPrice*money.Cents(sale.QuantitySold)
		}
		enriched = append(enriched, entry)
	}
	return enriched
}

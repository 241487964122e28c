// Package view holds the pure list operations behind the dashboard: sorting,
// pagination and summary counts.
package view

import (
	"sort"

	"order-dashboard/internal/domain"
)

// Sort returns a sorted copy of orders. Ties keep their input order.
// An unknown criterion sorts newest first.
func Sort(orders []domain.Order, by domain.SortCriterion) []domain.Order {
	out := make([]domain.Order, len(orders))
	copy(out, orders)

	var less func(a, b domain.Order) bool
	switch by {
	case domain.SortOldest:
		less = func(a, b domain.Order) bool { return a.Timestamp.Before(b.Timestamp) }
	case domain.SortStatus:
		less = func(a, b domain.Order) bool { return a.Status.Rank() < b.Status.Rank() }
	case domain.SortTotal:
		less = func(a, b domain.Order) bool { return a.Total > b.Total }
	default:
		less = func(a, b domain.Order) bool { return a.Timestamp.After(b.Timestamp) }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Renumber sets RowNumber to each order's 1-based position.
func Renumber(orders []domain.Order) {
	for i := range orders {
		orders[i].RowNumber = i + 1
	}
}

package domain

import "time"

// RawOrder is an order record as decoded from the API or the push channel.
// Field names and value types vary by producer.
type RawOrder map[string]any

const (
	DefaultCustomerName = "Unknown Customer"
	DefaultOrderType    = "dine-in"

	// EmptySentinel is what the upstream uses to say "no value".
	EmptySentinel = "-"

	PageSize = 10
)

type Order struct {
	ID           string    `json:"id"`
	Synthetic    bool      `json:"synthetic"`
	CustomerName string    `json:"customerName"`
	OrderType    string    `json:"orderType"`
	Items        []string  `json:"items"`
	Status       Status    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Total        float64   `json:"total"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	TableNumber  string    `json:"tableNumber"`
	UpdatedAt    string    `json:"updatedAt"`
	RowNumber    int       `json:"rowNumber"`
}

type SortCriterion string

const (
	SortNewest SortCriterion = "newest"
	SortOldest SortCriterion = "oldest"
	SortStatus SortCriterion = "status"
	SortTotal  SortCriterion = "total"
)

func (c SortCriterion) Valid() bool {
	switch c {
	case SortNewest, SortOldest, SortStatus, SortTotal:
		return true
	}
	return false
}

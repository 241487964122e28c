package infra

import (
	"context"
	"time"

	"order-dashboard/internal/domain"
	"order-dashboard/internal/infra/cache"
)

type OrderAPI interface {
	FetchOrders(ctx context.Context) ([]domain.RawOrder, error)
	UpdateOrderStatus(ctx context.Context, orderID, apiStatus string, updatedAt time.Time) error
	GetOrderStatus(ctx context.Context, orderID string) (string, error)
}

// StatusProbeCache remembers the last get-status answer per order.
type StatusProbeCache interface {
	Put(ctx context.Context, orderID, status string) error
	Get(ctx context.Context, orderID string) (string, bool, error)
}

var (
	_ OrderAPI         = (*OrderClient)(nil)
	_ StatusProbeCache = (*cache.StatusCache)(nil)
)

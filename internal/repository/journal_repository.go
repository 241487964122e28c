package repository

import (
	"context"

	"order-dashboard/internal/domain"
)

// JournalRepository records staff status-change attempts.
type JournalRepository interface {
	Save(ctx context.Context, entry *domain.StatusChange) error
	FindByOrderID(ctx context.Context, orderID string, limit int) ([]domain.StatusChange, error)
}

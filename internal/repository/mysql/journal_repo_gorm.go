package mysql

import (
	"context"
	"errors"

	"order-dashboard/internal/domain"
	"order-dashboard/internal/repository"

	"gorm.io/gorm"
)

const defaultHistoryLimit = 50

type journalRepo struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) repository.JournalRepository {
	return &journalRepo{db: db}
}

func (r *journalRepo) Save(ctx context.Context, entry *domain.StatusChange) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}
	if entry.ID == 0 {
		return errors.New("failed to assign journal entry ID")
	}
	return nil
}

// FindByOrderID returns the newest entries first.
func (r *journalRepo) FindByOrderID(ctx context.Context, orderID string, limit int) ([]domain.StatusChange, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var out []domain.StatusChange
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

package repository

import (
	"context"

	"lustre-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LineItemRepository interface {
	// ReplaceForQuote deletes every line item of the quote and bulk-inserts the
	// new set. Full replace, no diffing; run inside the quote write transaction.
	ReplaceForQuote(ctx context.Context, quoteID uuid.UUID, items []model.QuoteLineItem) error
	ListForQuote(ctx context.Context, quoteID uuid.UUID) ([]model.QuoteLineItem, error)
}

type lineItemRepository struct {
	db *gorm.DB
}

func NewLineItemRepository(db *gorm.DB) LineItemRepository {
	return &lineItemRepository{db: db}
}

func (r *lineItemRepository) ReplaceForQuote(ctx context.Context, quoteID uuid.UUID, items []model.QuoteLineItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("quote_id = ?", quoteID).Delete(&model.QuoteLineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}

func (r *lineItemRepository) ListForQuote(ctx context.Context, quoteID uuid.UUID) ([]model.QuoteLineItem, error) {
	var items []model.QuoteLineItem
	err := GetDB(ctx, r.db).
		Where("quote_id = ?", quoteID).
		Order("is_addon asc, sort_order asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

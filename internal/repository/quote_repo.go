package repository

import (
	"context"
	"fmt"
	"time"

	"lustre-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuoteListFilter narrows the quote listing.
type QuoteListFilter struct {
	Status   string
	ClientID *uuid.UUID
	Page     int
	Limit    int
}

type QuoteRepository interface {
	Create(ctx context.Context, quote *model.Quote) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Quote, error)
	FindByIDWithRelations(ctx context.Context, orgID, id uuid.UUID) (*model.Quote, error)
	FindByToken(ctx context.Context, token string) (*model.Quote, error)
	FindByTokenWithRelations(ctx context.Context, token string) (*model.Quote, error)
	List(ctx context.Context, orgID uuid.UUID, filter QuoteListFilter) ([]model.Quote, int64, error)
	Update(ctx context.Context, quote *model.Quote) error
	SetJob(ctx context.Context, quoteID, jobID uuid.UUID) error
	// TransitionStatus applies updates only while the quote's status is one of
	// fromStatuses, as a single conditional UPDATE. Returns the number of rows
	// changed so callers can treat a missed guard as an invalid-state error
	// instead of double-processing.
	TransitionStatus(ctx context.Context, quoteID uuid.UUID, fromStatuses []string, updates map[string]interface{}) (int64, error)
	DeleteDraft(ctx context.Context, orgID, id uuid.UUID) (int64, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	NextQuoteNumber(ctx context.Context, orgID uuid.UUID) (int64, error)
}

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) Create(ctx context.Context, quote *model.Quote) error {
	return GetDB(ctx, r.db).Create(quote).Error
}

func (r *quoteRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Quote, error) {
	var quote model.Quote
	if err := GetDB(ctx, r.db).First(&quote, "id = ? AND organisation_id = ?", id, orgID).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) FindByIDWithRelations(ctx context.Context, orgID, id uuid.UUID) (*model.Quote, error) {
	var quote model.Quote
	err := GetDB(ctx, r.db).
		Preload("Client").
		Preload("Property").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_addon asc, sort_order asc")
		}).
		First(&quote, "id = ? AND organisation_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) FindByToken(ctx context.Context, token string) (*model.Quote, error) {
	var quote model.Quote
	if err := GetDB(ctx, r.db).First(&quote, "accept_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) FindByTokenWithRelations(ctx context.Context, token string) (*model.Quote, error) {
	var quote model.Quote
	err := GetDB(ctx, r.db).
		Preload("Client").
		Preload("Property").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_addon asc, sort_order asc")
		}).
		First(&quote, "accept_token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) List(ctx context.Context, orgID uuid.UUID, filter QuoteListFilter) ([]model.Quote, int64, error) {
	var quotes []model.Quote
	var total int64

	db := GetDB(ctx, r.db)
	base := db.Model(&model.Quote{}).Where("organisation_id = ?", orgID)
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		base = base.Where("client_id = ?", *filter.ClientID)
	}

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	fetch := db.Preload("Client").Where("organisation_id = ?", orgID)
	if filter.Status != "" {
		fetch = fetch.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		fetch = fetch.Where("client_id = ?", *filter.ClientID)
	}
	if err := fetch.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&quotes).Error; err != nil {
		return nil, 0, err
	}

	return quotes, total, nil
}

func (r *quoteRepository) Update(ctx context.Context, quote *model.Quote) error {
	return GetDB(ctx, r.db).Save(quote).Error
}

func (r *quoteRepository) SetJob(ctx context.Context, quoteID, jobID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Quote{}).
		Where("id = ?", quoteID).
		Update("job_id", jobID).Error
}

func (r *quoteRepository) TransitionStatus(ctx context.Context, quoteID uuid.UUID, fromStatuses []string, updates map[string]interface{}) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Quote{}).
		Where("id = ? AND status IN ?", quoteID, fromStatuses).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *quoteRepository) DeleteDraft(ctx context.Context, orgID, id uuid.UUID) (int64, error) {
	db := GetDB(ctx, r.db)
	// line items first: sqlite does not honour the FK cascade in tests
	if err := db.Where("quote_id = ?", id).Delete(&model.QuoteLineItem{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("id = ? AND organisation_id = ? AND status = ?", id, orgID, model.QuoteStatusDraft).
		Delete(&model.Quote{})
	return res.RowsAffected, res.Error
}

func (r *quoteRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Quote{}).
		Where("status IN ? AND valid_until IS NOT NULL AND valid_until < ?",
			[]string{model.QuoteStatusSent, model.QuoteStatusViewed}, now).
		Update("status", model.QuoteStatusExpired)
	return res.RowsAffected, res.Error
}

// NextQuoteNumber draws the next per-organisation sequence value. The increment
// is a single UPDATE so two concurrent creates for the same organisation cannot
// read the same value; call inside the quote-creation transaction.
func (r *quoteRepository) NextQuoteNumber(ctx context.Context, orgID uuid.UUID) (int64, error) {
	db := GetDB(ctx, r.db)

	res := db.Model(&model.QuoteCounter{}).
		Where("organisation_id = ?", orgID).
		Update("last_number", gorm.Expr("last_number + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		// First quote for this organisation. A concurrent create may win the
		// insert race; fall back to the increment path if it does.
		if err := db.Create(&model.QuoteCounter{OrganisationID: orgID, LastNumber: 1}).Error; err != nil {
			retry := db.Model(&model.QuoteCounter{}).
				Where("organisation_id = ?", orgID).
				Update("last_number", gorm.Expr("last_number + 1"))
			if retry.Error != nil {
				return 0, retry.Error
			}
			if retry.RowsAffected == 0 {
				return 0, fmt.Errorf("quote counter unavailable for organisation %s", orgID)
			}
		}
	}

	var counter model.QuoteCounter
	if err := db.First(&counter, "organisation_id = ?", orgID).Error; err != nil {
		return 0, err
	}
	return counter.LastNumber, nil
}

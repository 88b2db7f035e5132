package repository

import (
	"context"

	"lustre-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
	ListForClient(ctx context.Context, orgID, clientID uuid.UUID, page, limit int) ([]model.Activity, int64, error)
	Recent(ctx context.Context, orgID uuid.UUID, limit int) ([]model.Activity, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *model.Activity) error {
	return GetDB(ctx, r.db).Create(activity).Error
}

func (r *activityRepository) ListForClient(ctx context.Context, orgID, clientID uuid.UUID, page, limit int) ([]model.Activity, int64, error) {
	var activities []model.Activity
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Activity{}).
		Where("organisation_id = ? AND client_id = ?", orgID, clientID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Where("organisation_id = ? AND client_id = ?", orgID, clientID).
		Order("pinned desc, created_at desc").
		Offset(offset).Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

func (r *activityRepository) Recent(ctx context.Context, orgID uuid.UUID, limit int) ([]model.Activity, error) {
	var activities []model.Activity
	err := GetDB(ctx, r.db).
		Where("organisation_id = ?", orgID).
		Order("created_at desc").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

package repository

import (
	"context"

	"lustre-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyRepository interface {
	Create(ctx context.Context, property *model.Property) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Property, error)
	ListForClient(ctx context.Context, orgID, clientID uuid.UUID) ([]model.Property, error)
	Update(ctx context.Context, property *model.Property) error
	Delete(ctx context.Context, orgID, id uuid.UUID) (int64, error)
}

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, property *model.Property) error {
	return GetDB(ctx, r.db).Create(property).Error
}

func (r *propertyRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Property, error) {
	var property model.Property
	if err := GetDB(ctx, r.db).First(&property, "id = ? AND organisation_id = ?", id, orgID).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *propertyRepository) ListForClient(ctx context.Context, orgID, clientID uuid.UUID) ([]model.Property, error) {
	var properties []model.Property
	err := GetDB(ctx, r.db).
		Where("organisation_id = ? AND client_id = ?", orgID, clientID).
		Order("created_at asc").
		Find(&properties).Error
	if err != nil {
		return nil, err
	}
	return properties, nil
}

func (r *propertyRepository) Update(ctx context.Context, property *model.Property) error {
	return GetDB(ctx, r.db).Save(property).Error
}

func (r *propertyRepository) Delete(ctx context.Context, orgID, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("id = ? AND organisation_id = ?", id, orgID).
		Delete(&model.Property{})
	return res.RowsAffected, res.Error
}

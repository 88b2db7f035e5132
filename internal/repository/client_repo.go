package repository

import (
	"context"

	"lustre-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Client, error)
	FindByIDWithProperties(ctx context.Context, orgID, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context, orgID uuid.UUID, status string, page, limit int) ([]model.Client, int64, error)
	Recent(ctx context.Context, orgID uuid.UUID, limit int) ([]model.Client, error)
	Count(ctx context.Context, orgID uuid.UUID) (int64, error)
	Update(ctx context.Context, client *model.Client) error
	Delete(ctx context.Context, orgID, id uuid.UUID) (int64, error)
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Create(client).Error
}

func (r *clientRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).First(&client, "id = ? AND organisation_id = ?", id, orgID).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) FindByIDWithProperties(ctx context.Context, orgID, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	err := GetDB(ctx, r.db).Preload("Properties").
		First(&client, "id = ? AND organisation_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context, orgID uuid.UUID, status string, page, limit int) ([]model.Client, int64, error) {
	var clients []model.Client
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Client{}).Where("organisation_id = ?", orgID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Where("organisation_id = ?", orgID)
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	if err := fetch.Order("created_at desc").Offset(offset).Limit(limit).Find(&clients).Error; err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}

func (r *clientRepository) Recent(ctx context.Context, orgID uuid.UUID, limit int) ([]model.Client, error) {
	var clients []model.Client
	err := GetDB(ctx, r.db).
		Where("organisation_id = ?", orgID).
		Order("created_at desc").
		Limit(limit).
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientRepository) Count(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Client{}).
		Where("organisation_id = ?", orgID).
		Count(&count).Error
	return count, err
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Save(client).Error
}

func (r *clientRepository) Delete(ctx context.Context, orgID, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("id = ? AND organisation_id = ?", id, orgID).
		Delete(&model.Client{})
	return res.RowsAffected, res.Error
}

package repository

import (
	"context"

	"lustre-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganisationRepository interface {
	Create(ctx context.Context, org *model.Organisation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organisation, error)
	Update(ctx context.Context, org *model.Organisation) error
}

type organisationRepository struct {
	db *gorm.DB
}

func NewOrganisationRepository(db *gorm.DB) OrganisationRepository {
	return &organisationRepository{db: db}
}

func (r *organisationRepository) Create(ctx context.Context, org *model.Organisation) error {
	return GetDB(ctx, r.db).Create(org).Error
}

func (r *organisationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Organisation, error) {
	var org model.Organisation
	if err := GetDB(ctx, r.db).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organisationRepository) Update(ctx context.Context, org *model.Organisation) error {
	return GetDB(ctx, r.db).Save(org).Error
}

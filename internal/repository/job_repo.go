package repository

import (
	"context"

	"lustre-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Job, error)
	FindByIDWithRelations(ctx context.Context, orgID, id uuid.UUID) (*model.Job, error)
	List(ctx context.Context, orgID uuid.UUID, status string, page, limit int) ([]model.Job, int64, error)
	Upcoming(ctx context.Context, orgID uuid.UUID, limit int) ([]model.Job, error)
	Count(ctx context.Context, orgID uuid.UUID, status string) (int64, error)
	Update(ctx context.Context, job *model.Job) error
	Delete(ctx context.Context, orgID, id uuid.UUID) (int64, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *model.Job) error {
	return GetDB(ctx, r.db).Create(job).Error
}

func (r *jobRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	if err := GetDB(ctx, r.db).First(&job, "id = ? AND organisation_id = ?", id, orgID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) FindByIDWithRelations(ctx context.Context, orgID, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	err := GetDB(ctx, r.db).Preload("Client").Preload("Property").
		First(&job, "id = ? AND organisation_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) List(ctx context.Context, orgID uuid.UUID, status string, page, limit int) ([]model.Job, int64, error) {
	var jobs []model.Job
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Job{}).Where("organisation_id = ?", orgID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Client").Preload("Property").Where("organisation_id = ?", orgID)
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	if err := fetch.Order("scheduled_date desc").Offset(offset).Limit(limit).Find(&jobs).Error; err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

func (r *jobRepository) Upcoming(ctx context.Context, orgID uuid.UUID, limit int) ([]model.Job, error) {
	var jobs []model.Job
	err := GetDB(ctx, r.db).Preload("Client").Preload("Property").
		Where("organisation_id = ? AND status = ?", orgID, model.JobStatusScheduled).
		Order("scheduled_date asc").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRepository) Count(ctx context.Context, orgID uuid.UUID, status string) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.Job{}).Where("organisation_id = ?", orgID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *jobRepository) Update(ctx context.Context, job *model.Job) error {
	return GetDB(ctx, r.db).Save(job).Error
}

func (r *jobRepository) Delete(ctx context.Context, orgID, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("id = ? AND organisation_id = ?", id, orgID).
		Delete(&model.Job{})
	return res.RowsAffected, res.Error
}

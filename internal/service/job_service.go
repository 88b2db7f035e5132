package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lustre-backend/internal/model"
	"lustre-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateJobRequest struct {
	ClientID      string  `json:"client_id" binding:"required"`
	PropertyID    string  `json:"property_id"`
	AssignedTo    string  `json:"assigned_to"`
	ServiceType   string  `json:"service_type" binding:"omitempty,oneof=regular deep_clean move_in move_out post_event other"`
	Status        string  `json:"status" binding:"omitempty,oneof=scheduled in_progress completed cancelled"`
	ScheduledDate string  `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime string  `json:"scheduled_time"`
	DurationHours *string `json:"duration_hours"`
	Price         *string `json:"price"`
	Notes         string  `json:"notes"`
	InternalNotes string  `json:"internal_notes"`
}

type UpdateJobRequest = CreateJobRequest

type JobResponse struct {
	ID            string            `json:"id"`
	ClientID      string            `json:"client_id"`
	ClientName    string            `json:"client_name,omitempty"`
	PropertyID    *string           `json:"property_id"`
	AssignedTo    *string           `json:"assigned_to"`
	QuoteID       *string           `json:"quote_id"`
	ServiceType   string            `json:"service_type"`
	Status        string            `json:"status"`
	ScheduledDate *string           `json:"scheduled_date"`
	ScheduledTime string            `json:"scheduled_time"`
	DurationHours *string           `json:"duration_hours"`
	Price         *string           `json:"price"`
	Notes         string            `json:"notes"`
	InternalNotes string            `json:"internal_notes"`
	Property      *PropertyResponse `json:"property,omitempty"`
	CreatedAt     string            `json:"created_at"`
}

// --- Interface ---

type JobService interface {
	CreateJob(ctx context.Context, orgID uuid.UUID, userID uuid.UUID, req CreateJobRequest) (JobResponse, error)
	GetJob(ctx context.Context, orgID uuid.UUID, id string) (JobResponse, error)
	ListJobs(ctx context.Context, orgID uuid.UUID, status string, page, limit int) ([]JobResponse, int64, error)
	UpdateJob(ctx context.Context, orgID uuid.UUID, id string, req UpdateJobRequest) (JobResponse, error)
	UpdateJobStatus(ctx context.Context, orgID uuid.UUID, id string, status string, actorID uuid.UUID) (JobResponse, error)
	DeleteJob(ctx context.Context, orgID uuid.UUID, id string) error
}

type jobService struct {
	jobRepo      repository.JobRepository
	clientRepo   repository.ClientRepository
	activityRepo repository.ActivityRepository
}

func NewJobService(jobRepo repository.JobRepository, clientRepo repository.ClientRepository, activityRepo repository.ActivityRepository) JobService {
	return &jobService{jobRepo: jobRepo, clientRepo: clientRepo, activityRepo: activityRepo}
}

// --- Implementation ---

func (s *jobService) CreateJob(ctx context.Context, orgID uuid.UUID, userID uuid.UUID, req CreateJobRequest) (JobResponse, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return JobResponse{}, ErrNotFound
	}
	if _, err := s.clientRepo.FindByID(ctx, orgID, clientID); err != nil {
		return JobResponse{}, ErrNotFound
	}

	job := model.Job{
		OrganisationID: orgID,
		ClientID:       clientID,
		ServiceType:    valueOrDefault(req.ServiceType, model.ServiceTypeOther),
		Status:         valueOrDefault(req.Status, model.JobStatusScheduled),
		ScheduledTime:  req.ScheduledTime,
		Notes:          req.Notes,
		InternalNotes:  req.InternalNotes,
	}
	if err := applyJobFields(&job, req); err != nil {
		return JobResponse{}, err
	}

	if err := s.jobRepo.Create(ctx, &job); err != nil {
		return JobResponse{}, fmt.Errorf("failed to create job: %w", err)
	}

	s.recordJobActivity(ctx, &job, model.ActivityJobScheduled, "Job scheduled", &userID)
	return toJobResponse(&job), nil
}

func (s *jobService) GetJob(ctx context.Context, orgID uuid.UUID, id string) (JobResponse, error) {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return JobResponse{}, ErrNotFound
	}
	job, err := s.jobRepo.FindByIDWithRelations(ctx, orgID, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return JobResponse{}, ErrNotFound
		}
		return JobResponse{}, fmt.Errorf("failed to fetch job: %w", err)
	}
	return toJobResponse(job), nil
}

func (s *jobService) ListJobs(ctx context.Context, orgID uuid.UUID, status string, page, limit int) ([]JobResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	jobs, total, err := s.jobRepo.List(ctx, orgID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch jobs: %w", err)
	}
	result := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		result = append(result, toJobResponse(&jobs[i]))
	}
	return result, total, nil
}

func (s *jobService) UpdateJob(ctx context.Context, orgID uuid.UUID, id string, req UpdateJobRequest) (JobResponse, error) {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return JobResponse{}, ErrNotFound
	}
	job, err := s.jobRepo.FindByID(ctx, orgID, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return JobResponse{}, ErrNotFound
		}
		return JobResponse{}, fmt.Errorf("failed to fetch job: %w", err)
	}

	if req.ServiceType != "" {
		job.ServiceType = req.ServiceType
	}
	if req.Status != "" {
		job.Status = req.Status
	}
	job.ScheduledTime = req.ScheduledTime
	job.Notes = req.Notes
	job.InternalNotes = req.InternalNotes
	if err := applyJobFields(job, req); err != nil {
		return JobResponse{}, err
	}

	if err := s.jobRepo.Update(ctx, job); err != nil {
		return JobResponse{}, fmt.Errorf("failed to update job: %w", err)
	}
	return toJobResponse(job), nil
}

// UpdateJobStatus moves a job along its lifecycle and writes the matching
// timeline activity for completed and cancelled.
func (s *jobService) UpdateJobStatus(ctx context.Context, orgID uuid.UUID, id string, status string, actorID uuid.UUID) (JobResponse, error) {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return JobResponse{}, ErrNotFound
	}
	job, err := s.jobRepo.FindByID(ctx, orgID, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return JobResponse{}, ErrNotFound
		}
		return JobResponse{}, fmt.Errorf("failed to fetch job: %w", err)
	}

	switch status {
	case model.JobStatusScheduled, model.JobStatusInProgress, model.JobStatusCompleted, model.JobStatusCancelled:
	default:
		return JobResponse{}, fmt.Errorf("%w: unknown job status %q", ErrInvalidState, status)
	}

	job.Status = status
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return JobResponse{}, fmt.Errorf("failed to update job: %w", err)
	}

	switch status {
	case model.JobStatusCompleted:
		s.recordJobActivity(ctx, job, model.ActivityJobCompleted, "Job completed", &actorID)
	case model.JobStatusCancelled:
		s.recordJobActivity(ctx, job, model.ActivityJobCancelled, "Job cancelled", &actorID)
	}
	return toJobResponse(job), nil
}

func (s *jobService) DeleteJob(ctx context.Context, orgID uuid.UUID, id string) error {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	rows, err := s.jobRepo.Delete(ctx, orgID, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func applyJobFields(job *model.Job, req CreateJobRequest) error {
	if req.PropertyID != "" {
		propertyID, err := uuid.Parse(req.PropertyID)
		if err != nil {
			return fmt.Errorf("invalid property_id")
		}
		job.PropertyID = &propertyID
	}
	if req.AssignedTo != "" {
		assignedTo, err := uuid.Parse(req.AssignedTo)
		if err != nil {
			return fmt.Errorf("invalid assigned_to")
		}
		job.AssignedTo = &assignedTo
	}
	if req.ScheduledDate != "" {
		date, err := time.Parse("2006-01-02", req.ScheduledDate)
		if err != nil {
			return fmt.Errorf("invalid scheduled_date, expected YYYY-MM-DD")
		}
		job.ScheduledDate = &date
	}
	if req.DurationHours != nil {
		duration, err := decimal.NewFromString(*req.DurationHours)
		if err != nil {
			return fmt.Errorf("invalid duration_hours")
		}
		job.DurationHours = &duration
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			return fmt.Errorf("invalid price")
		}
		job.Price = &price
	}
	return nil
}

func (s *jobService) recordJobActivity(ctx context.Context, job *model.Job, activityType, title string, actorID *uuid.UUID) {
	activity := model.Activity{
		OrganisationID: job.OrganisationID,
		ClientID:       job.ClientID,
		JobID:          &job.ID,
		CreatedBy:      actorID,
		Type:           activityType,
		Title:          title,
	}
	if err := s.activityRepo.Create(ctx, &activity); err != nil {
		// timeline write failure must not fail the job operation
		log.Printf("warning: failed to record job activity: %v", err)
	}
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// --- Mapping ---

func toJobResponse(job *model.Job) JobResponse {
	resp := JobResponse{
		ID:            job.ID.String(),
		ClientID:      job.ClientID.String(),
		ServiceType:   job.ServiceType,
		Status:        job.Status,
		ScheduledTime: job.ScheduledTime,
		Notes:         job.Notes,
		InternalNotes: job.InternalNotes,
		CreatedAt:     job.CreatedAt.Format(time.RFC3339),
	}
	if job.Client != nil {
		resp.ClientName = job.Client.FirstName + " " + job.Client.LastName
	}
	if job.PropertyID != nil {
		id := job.PropertyID.String()
		resp.PropertyID = &id
	}
	if job.AssignedTo != nil {
		id := job.AssignedTo.String()
		resp.AssignedTo = &id
	}
	if job.QuoteID != nil {
		id := job.QuoteID.String()
		resp.QuoteID = &id
	}
	if job.ScheduledDate != nil {
		date := job.ScheduledDate.Format("2006-01-02")
		resp.ScheduledDate = &date
	}
	if job.DurationHours != nil {
		duration := job.DurationHours.StringFixed(2)
		resp.DurationHours = &duration
	}
	if job.Price != nil {
		price := job.Price.StringFixed(2)
		resp.Price = &price
	}
	if job.Property != nil {
		property := toPropertyResponse(job.Property)
		resp.Property = &property
	}
	return resp
}

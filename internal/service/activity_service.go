package service

import (
	"context"
	"fmt"
	"time"

	"lustre-backend/internal/model"
	"lustre-backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateActivityRequest struct {
	Type   string `json:"type" binding:"required,oneof=note call email"`
	Title  string `json:"title" binding:"required"`
	Body   string `json:"body"`
	Pinned bool   `json:"pinned"`
}

type ActivityResponse struct {
	ID        string  `json:"id"`
	ClientID  string  `json:"client_id"`
	JobID     *string `json:"job_id,omitempty"`
	CreatedBy *string `json:"created_by,omitempty"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Pinned    bool    `json:"pinned"`
	CreatedAt string  `json:"created_at"`
}

// --- Interface ---

type ActivityService interface {
	CreateActivity(ctx context.Context, orgID, userID uuid.UUID, clientID string, req CreateActivityRequest) (ActivityResponse, error)
	ListForClient(ctx context.Context, orgID uuid.UUID, clientID string, page, limit int) ([]ActivityResponse, int64, error)
}

type activityService struct {
	activityRepo repository.ActivityRepository
	clientRepo   repository.ClientRepository
}

func NewActivityService(activityRepo repository.ActivityRepository, clientRepo repository.ClientRepository) ActivityService {
	return &activityService{activityRepo: activityRepo, clientRepo: clientRepo}
}

// --- Implementation ---

// CreateActivity records a manual timeline entry (note, call, email). Quote and
// job lifecycle activities are written by their own services.
func (s *activityService) CreateActivity(ctx context.Context, orgID, userID uuid.UUID, clientID string, req CreateActivityRequest) (ActivityResponse, error) {
	parsedClientID, err := uuid.Parse(clientID)
	if err != nil {
		return ActivityResponse{}, ErrNotFound
	}
	if _, err := s.clientRepo.FindByID(ctx, orgID, parsedClientID); err != nil {
		return ActivityResponse{}, ErrNotFound
	}

	activity := model.Activity{
		OrganisationID: orgID,
		ClientID:       parsedClientID,
		CreatedBy:      &userID,
		Type:           req.Type,
		Title:          req.Title,
		Body:           req.Body,
		Pinned:         req.Pinned,
	}
	if err := s.activityRepo.Create(ctx, &activity); err != nil {
		return ActivityResponse{}, fmt.Errorf("failed to create activity: %w", err)
	}
	return toActivityResponse(&activity), nil
}

func (s *activityService) ListForClient(ctx context.Context, orgID uuid.UUID, clientID string, page, limit int) ([]ActivityResponse, int64, error) {
	parsedClientID, err := uuid.Parse(clientID)
	if err != nil {
		return nil, 0, ErrNotFound
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	activities, total, err := s.activityRepo.ListForClient(ctx, orgID, parsedClientID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch activities: %w", err)
	}

	result := make([]ActivityResponse, 0, len(activities))
	for i := range activities {
		result = append(result, toActivityResponse(&activities[i]))
	}
	return result, total, nil
}

// --- Mapping ---

func toActivityResponse(activity *model.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:        activity.ID.String(),
		ClientID:  activity.ClientID.String(),
		Type:      activity.Type,
		Title:     activity.Title,
		Body:      activity.Body,
		Pinned:    activity.Pinned,
		CreatedAt: activity.CreatedAt.Format(time.RFC3339),
	}
	if activity.JobID != nil {
		id := activity.JobID.String()
		resp.JobID = &id
	}
	if activity.CreatedBy != nil {
		id := activity.CreatedBy.String()
		resp.CreatedBy = &id
	}
	return resp
}

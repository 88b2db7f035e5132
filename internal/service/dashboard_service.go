package service

import (
	"context"
	"fmt"

	"lustre-backend/internal/model"
	"lustre-backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type DashboardResponse struct {
	ClientCount    int64              `json:"client_count"`
	ScheduledJobs  int64              `json:"scheduled_jobs"`
	CompletedJobs  int64              `json:"completed_jobs"`
	RecentClients  []ClientResponse   `json:"recent_clients"`
	UpcomingJobs   []JobResponse      `json:"upcoming_jobs"`
	RecentActivity []ActivityResponse `json:"recent_activity"`
}

// --- Interface ---

type DashboardService interface {
	GetDashboard(ctx context.Context, orgID uuid.UUID) (DashboardResponse, error)
}

type dashboardService struct {
	clientRepo   repository.ClientRepository
	jobRepo      repository.JobRepository
	activityRepo repository.ActivityRepository
}

func NewDashboardService(clientRepo repository.ClientRepository, jobRepo repository.JobRepository, activityRepo repository.ActivityRepository) DashboardService {
	return &dashboardService{clientRepo: clientRepo, jobRepo: jobRepo, activityRepo: activityRepo}
}

const (
	recentClientsLimit  = 5
	upcomingJobsLimit   = 5
	recentActivityLimit = 10
)

// --- Implementation ---

func (s *dashboardService) GetDashboard(ctx context.Context, orgID uuid.UUID) (DashboardResponse, error) {
	clientCount, err := s.clientRepo.Count(ctx, orgID)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count clients: %w", err)
	}
	scheduled, err := s.jobRepo.Count(ctx, orgID, model.JobStatusScheduled)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count scheduled jobs: %w", err)
	}
	completed, err := s.jobRepo.Count(ctx, orgID, model.JobStatusCompleted)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count completed jobs: %w", err)
	}

	recentClients, err := s.clientRepo.Recent(ctx, orgID, recentClientsLimit)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to fetch recent clients: %w", err)
	}
	upcomingJobs, err := s.jobRepo.Upcoming(ctx, orgID, upcomingJobsLimit)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to fetch upcoming jobs: %w", err)
	}
	recentActivity, err := s.activityRepo.Recent(ctx, orgID, recentActivityLimit)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to fetch recent activity: %w", err)
	}

	resp := DashboardResponse{
		ClientCount:    clientCount,
		ScheduledJobs:  scheduled,
		CompletedJobs:  completed,
		RecentClients:  make([]ClientResponse, 0, len(recentClients)),
		UpcomingJobs:   make([]JobResponse, 0, len(upcomingJobs)),
		RecentActivity: make([]ActivityResponse, 0, len(recentActivity)),
	}
	for i := range recentClients {
		resp.RecentClients = append(resp.RecentClients, toClientResponse(&recentClients[i]))
	}
	for i := range upcomingJobs {
		resp.UpcomingJobs = append(resp.UpcomingJobs, toJobResponse(&upcomingJobs[i]))
	}
	for i := range recentActivity {
		resp.RecentActivity = append(resp.RecentActivity, toActivityResponse(&recentActivity[i]))
	}
	return resp, nil
}

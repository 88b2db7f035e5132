package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lustre-backend/internal/model"
	"lustre-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateClientRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name" binding:"required"`
	Email          string `json:"email" binding:"omitempty,email"`
	Phone          string `json:"phone"`
	SecondaryPhone string `json:"secondary_phone"`
	Notes          string `json:"notes"`
	Status         string `json:"status" binding:"omitempty,oneof=active inactive lead"`
	Source         string `json:"source"`
}

type UpdateClientRequest = CreateClientRequest

type ClientResponse struct {
	ID             string             `json:"id"`
	FirstName      string             `json:"first_name"`
	LastName       string             `json:"last_name"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone"`
	SecondaryPhone string             `json:"secondary_phone"`
	Notes          string             `json:"notes"`
	Status         string             `json:"status"`
	Source         string             `json:"source"`
	Properties     []PropertyResponse `json:"properties,omitempty"`
	CreatedAt      string             `json:"created_at"`
}

// --- Interface ---

type ClientService interface {
	CreateClient(ctx context.Context, orgID uuid.UUID, req CreateClientRequest) (ClientResponse, error)
	GetClient(ctx context.Context, orgID uuid.UUID, id string) (ClientResponse, error)
	ListClients(ctx context.Context, orgID uuid.UUID, status string, page, limit int) ([]ClientResponse, int64, error)
	UpdateClient(ctx context.Context, orgID uuid.UUID, id string, req UpdateClientRequest) (ClientResponse, error)
	DeleteClient(ctx context.Context, orgID uuid.UUID, id string) error
}

type clientService struct {
	clientRepo repository.ClientRepository
}

func NewClientService(clientRepo repository.ClientRepository) ClientService {
	return &clientService{clientRepo: clientRepo}
}

// --- Implementation ---

func (s *clientService) CreateClient(ctx context.Context, orgID uuid.UUID, req CreateClientRequest) (ClientResponse, error) {
	status := req.Status
	if status == "" {
		status = model.ClientStatusActive
	}

	client := model.Client{
		OrganisationID: orgID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		SecondaryPhone: req.SecondaryPhone,
		Notes:          req.Notes,
		Status:         status,
		Source:         req.Source,
	}
	if err := s.clientRepo.Create(ctx, &client); err != nil {
		return ClientResponse{}, fmt.Errorf("failed to create client: %w", err)
	}
	return toClientResponse(&client), nil
}

func (s *clientService) GetClient(ctx context.Context, orgID uuid.UUID, id string) (ClientResponse, error) {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return ClientResponse{}, ErrNotFound
	}
	client, err := s.clientRepo.FindByIDWithProperties(ctx, orgID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClientResponse{}, ErrNotFound
		}
		return ClientResponse{}, fmt.Errorf("failed to fetch client: %w", err)
	}
	return toClientResponse(client), nil
}

func (s *clientService) ListClients(ctx context.Context, orgID uuid.UUID, status string, page, limit int) ([]ClientResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	clients, total, err := s.clientRepo.List(ctx, orgID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch clients: %w", err)
	}

	result := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		result = append(result, toClientResponse(&clients[i]))
	}
	return result, total, nil
}

func (s *clientService) UpdateClient(ctx context.Context, orgID uuid.UUID, id string, req UpdateClientRequest) (ClientResponse, error) {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return ClientResponse{}, ErrNotFound
	}
	client, err := s.clientRepo.FindByID(ctx, orgID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClientResponse{}, ErrNotFound
		}
		return ClientResponse{}, fmt.Errorf("failed to fetch client: %w", err)
	}

	client.FirstName = req.FirstName
	client.LastName = req.LastName
	client.Email = req.Email
	client.Phone = req.Phone
	client.SecondaryPhone = req.SecondaryPhone
	client.Notes = req.Notes
	if req.Status != "" {
		client.Status = req.Status
	}
	client.Source = req.Source

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return ClientResponse{}, fmt.Errorf("failed to update client: %w", err)
	}
	return toClientResponse(client), nil
}

func (s *clientService) DeleteClient(ctx context.Context, orgID uuid.UUID, id string) error {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	rows, err := s.clientRepo.Delete(ctx, orgID, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Mapping ---

func toClientResponse(client *model.Client) ClientResponse {
	resp := ClientResponse{
		ID:             client.ID.String(),
		FirstName:      client.FirstName,
		LastName:       client.LastName,
		Email:          client.Email,
		Phone:          client.Phone,
		SecondaryPhone: client.SecondaryPhone,
		Notes:          client.Notes,
		Status:         client.Status,
		Source:         client.Source,
		CreatedAt:      client.CreatedAt.Format(time.RFC3339),
	}
	for i := range client.Properties {
		resp.Properties = append(resp.Properties, toPropertyResponse(&client.Properties[i]))
	}
	return resp
}

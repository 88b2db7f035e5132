package service

import (
	"context"
	"errors"
	"fmt"

	"lustre-backend/internal/model"
	"lustre-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreatePropertyRequest struct {
	AddressLine1        string `json:"address_line1" binding:"required"`
	AddressLine2        string `json:"address_line2"`
	Town                string `json:"town" binding:"required"`
	Postcode            string `json:"postcode" binding:"required"`
	PropertyType        string `json:"property_type"`
	Bedrooms            *int   `json:"bedrooms"`
	Bathrooms           *int   `json:"bathrooms"`
	AccessInstructions  string `json:"access_instructions"`
	ParkingInstructions string `json:"parking_instructions"`
	AlarmInstructions   string `json:"alarm_instructions"`
	KeyHeld             bool   `json:"key_held"`
	SpecialistSurfaces  string `json:"specialist_surfaces"`
	Pets                string `json:"pets"`
}

type UpdatePropertyRequest = CreatePropertyRequest

type PropertyResponse struct {
	ID                  string `json:"id"`
	ClientID            string `json:"client_id"`
	AddressLine1        string `json:"address_line1"`
	AddressLine2        string `json:"address_line2"`
	Town                string `json:"town"`
	Postcode            string `json:"postcode"`
	PropertyType        string `json:"property_type"`
	Bedrooms            *int   `json:"bedrooms"`
	Bathrooms           *int   `json:"bathrooms"`
	AccessInstructions  string `json:"access_instructions"`
	ParkingInstructions string `json:"parking_instructions"`
	AlarmInstructions   string `json:"alarm_instructions"`
	KeyHeld             bool   `json:"key_held"`
	SpecialistSurfaces  string `json:"specialist_surfaces"`
	Pets                string `json:"pets"`
}

// --- Interface ---

type PropertyService interface {
	CreateProperty(ctx context.Context, orgID uuid.UUID, clientID string, req CreatePropertyRequest) (PropertyResponse, error)
	GetProperty(ctx context.Context, orgID uuid.UUID, id string) (PropertyResponse, error)
	ListForClient(ctx context.Context, orgID uuid.UUID, clientID string) ([]PropertyResponse, error)
	UpdateProperty(ctx context.Context, orgID uuid.UUID, id string, req UpdatePropertyRequest) (PropertyResponse, error)
	DeleteProperty(ctx context.Context, orgID uuid.UUID, id string) error
}

type propertyService struct {
	propertyRepo repository.PropertyRepository
	clientRepo   repository.ClientRepository
}

func NewPropertyService(propertyRepo repository.PropertyRepository, clientRepo repository.ClientRepository) PropertyService {
	return &propertyService{propertyRepo: propertyRepo, clientRepo: clientRepo}
}

// --- Implementation ---

func (s *propertyService) CreateProperty(ctx context.Context, orgID uuid.UUID, clientID string, req CreatePropertyRequest) (PropertyResponse, error) {
	parsedClientID, err := uuid.Parse(clientID)
	if err != nil {
		return PropertyResponse{}, ErrNotFound
	}
	if _, err := s.clientRepo.FindByID(ctx, orgID, parsedClientID); err != nil {
		return PropertyResponse{}, ErrNotFound
	}

	property := model.Property{
		OrganisationID:      orgID,
		ClientID:            parsedClientID,
		AddressLine1:        req.AddressLine1,
		AddressLine2:        req.AddressLine2,
		Town:                req.Town,
		Postcode:            req.Postcode,
		PropertyType:        req.PropertyType,
		Bedrooms:            req.Bedrooms,
		Bathrooms:           req.Bathrooms,
		AccessInstructions:  req.AccessInstructions,
		ParkingInstructions: req.ParkingInstructions,
		AlarmInstructions:   req.AlarmInstructions,
		KeyHeld:             req.KeyHeld,
		SpecialistSurfaces:  req.SpecialistSurfaces,
		Pets:                req.Pets,
	}
	if err := s.propertyRepo.Create(ctx, &property); err != nil {
		return PropertyResponse{}, fmt.Errorf("failed to create property: %w", err)
	}
	return toPropertyResponse(&property), nil
}

func (s *propertyService) GetProperty(ctx context.Context, orgID uuid.UUID, id string) (PropertyResponse, error) {
	propertyID, err := uuid.Parse(id)
	if err != nil {
		return PropertyResponse{}, ErrNotFound
	}
	property, err := s.propertyRepo.FindByID(ctx, orgID, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PropertyResponse{}, ErrNotFound
		}
		return PropertyResponse{}, fmt.Errorf("failed to fetch property: %w", err)
	}
	return toPropertyResponse(property), nil
}

func (s *propertyService) ListForClient(ctx context.Context, orgID uuid.UUID, clientID string) ([]PropertyResponse, error) {
	parsedClientID, err := uuid.Parse(clientID)
	if err != nil {
		return nil, ErrNotFound
	}
	properties, err := s.propertyRepo.ListForClient(ctx, orgID, parsedClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch properties: %w", err)
	}
	result := make([]PropertyResponse, 0, len(properties))
	for i := range properties {
		result = append(result, toPropertyResponse(&properties[i]))
	}
	return result, nil
}

func (s *propertyService) UpdateProperty(ctx context.Context, orgID uuid.UUID, id string, req UpdatePropertyRequest) (PropertyResponse, error) {
	propertyID, err := uuid.Parse(id)
	if err != nil {
		return PropertyResponse{}, ErrNotFound
	}
	property, err := s.propertyRepo.FindByID(ctx, orgID, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PropertyResponse{}, ErrNotFound
		}
		return PropertyResponse{}, fmt.Errorf("failed to fetch property: %w", err)
	}

	property.AddressLine1 = req.AddressLine1
	property.AddressLine2 = req.AddressLine2
	property.Town = req.Town
	property.Postcode = req.Postcode
	property.PropertyType = req.PropertyType
	property.Bedrooms = req.Bedrooms
	property.Bathrooms = req.Bathrooms
	property.AccessInstructions = req.AccessInstructions
	property.ParkingInstructions = req.ParkingInstructions
	property.AlarmInstructions = req.AlarmInstructions
	property.KeyHeld = req.KeyHeld
	property.SpecialistSurfaces = req.SpecialistSurfaces
	property.Pets = req.Pets

	if err := s.propertyRepo.Update(ctx, property); err != nil {
		return PropertyResponse{}, fmt.Errorf("failed to update property: %w", err)
	}
	return toPropertyResponse(property), nil
}

func (s *propertyService) DeleteProperty(ctx context.Context, orgID uuid.UUID, id string) error {
	propertyID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	rows, err := s.propertyRepo.Delete(ctx, orgID, propertyID)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Mapping ---

func toPropertyResponse(property *model.Property) PropertyResponse {
	return PropertyResponse{
		ID:                  property.ID.String(),
		ClientID:            property.ClientID.String(),
		AddressLine1:        property.AddressLine1,
		AddressLine2:        property.AddressLine2,
		Town:                property.Town,
		Postcode:            property.Postcode,
		PropertyType:        property.PropertyType,
		Bedrooms:            property.Bedrooms,
		Bathrooms:           property.Bathrooms,
		AccessInstructions:  property.AccessInstructions,
		ParkingInstructions: property.ParkingInstructions,
		AlarmInstructions:   property.AlarmInstructions,
		KeyHeld:             property.KeyHeld,
		SpecialistSurfaces:  property.SpecialistSurfaces,
		Pets:                property.Pets,
	}
}

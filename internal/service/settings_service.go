package service

import (
	"context"
	"fmt"
	"regexp"

	"lustre-backend/internal/model"
	"lustre-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UK VAT registration numbers: GB followed by nine digits.
var vatNumberPattern = regexp.MustCompile(`^GB[0-9]{9}$`)

var defaultVatRate = decimal.NewFromInt(20)

// --- DTOs ---

type UpdateSettingsRequest struct {
	Name          string  `json:"name" binding:"required"`
	Email         string  `json:"email" binding:"omitempty,email"`
	Phone         string  `json:"phone"`
	AddressLine1  string  `json:"address_line1"`
	AddressLine2  string  `json:"address_line2"`
	Town          string  `json:"town"`
	Postcode      string  `json:"postcode"`
	Website       string  `json:"website"`
	VatRegistered bool    `json:"vat_registered"`
	VatRate       *string `json:"vat_rate"`
	VatNumber     string  `json:"vat_number"`
}

type SettingsResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	AddressLine1  string `json:"address_line1"`
	AddressLine2  string `json:"address_line2"`
	Town          string `json:"town"`
	Postcode      string `json:"postcode"`
	Website       string `json:"website"`
	VatRegistered bool   `json:"vat_registered"`
	VatRate       string `json:"vat_rate"`
	VatNumber     string `json:"vat_number"`
}

// --- Interface ---

type SettingsService interface {
	GetSettings(ctx context.Context, orgID uuid.UUID) (SettingsResponse, error)
	UpdateSettings(ctx context.Context, orgID uuid.UUID, req UpdateSettingsRequest) (SettingsResponse, error)
}

type settingsService struct {
	orgRepo repository.OrganisationRepository
}

func NewSettingsService(orgRepo repository.OrganisationRepository) SettingsService {
	return &settingsService{orgRepo: orgRepo}
}

// --- Implementation ---

func (s *settingsService) GetSettings(ctx context.Context, orgID uuid.UUID) (SettingsResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return SettingsResponse{}, ErrNotFound
	}
	return toSettingsResponse(org), nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, orgID uuid.UUID, req UpdateSettingsRequest) (SettingsResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return SettingsResponse{}, ErrNotFound
	}

	org.Name = req.Name
	org.Email = req.Email
	org.Phone = req.Phone
	org.AddressLine1 = req.AddressLine1
	org.AddressLine2 = req.AddressLine2
	org.Town = req.Town
	org.Postcode = req.Postcode
	org.Website = req.Website

	if req.VatRegistered {
		org.VatRegistered = true
		if req.VatNumber != "" {
			if !vatNumberPattern.MatchString(req.VatNumber) {
				return SettingsResponse{}, fmt.Errorf("vat_number must match GB followed by nine digits")
			}
			org.VatNumber = req.VatNumber
		}
		if req.VatRate != nil {
			rate, parseErr := decimal.NewFromString(*req.VatRate)
			if parseErr != nil {
				return SettingsResponse{}, fmt.Errorf("invalid vat_rate")
			}
			if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
				return SettingsResponse{}, fmt.Errorf("vat_rate must be between 0 and 100")
			}
			org.VatRate = rate
		}
	} else {
		// deregistering resets the rate so a later re-registration starts
		// from the standard rate
		org.VatRegistered = false
		org.VatRate = defaultVatRate
		org.VatNumber = ""
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return SettingsResponse{}, fmt.Errorf("failed to update organisation settings: %w", err)
	}
	return toSettingsResponse(org), nil
}

func toSettingsResponse(org *model.Organisation) SettingsResponse {
	return SettingsResponse{
		ID:            org.ID.String(),
		Name:          org.Name,
		Email:         org.Email,
		Phone:         org.Phone,
		AddressLine1:  org.AddressLine1,
		AddressLine2:  org.AddressLine2,
		Town:          org.Town,
		Postcode:      org.Postcode,
		Website:       org.Website,
		VatRegistered: org.VatRegistered,
		VatRate:       org.VatRate.StringFixed(2),
		VatNumber:     org.VatNumber,
	}
}

package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"lustre-backend/internal/email"
	"lustre-backend/internal/model"
	"lustre-backend/internal/pdf"
	"lustre-backend/internal/repository"
	"lustre-backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Line item bounds. Out-of-range input is clamped to a fallback rather than
// rejected, so one bad row never fails a whole quote.
const (
	maxLineItemQuantity  = 9999
	maxLineItemUnitPrice = 999999
)

// --- DTOs ---

type LineItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	IsAddon     bool    `json:"is_addon"`
}

type CreateQuoteRequest struct {
	ClientID      string          `json:"client_id" binding:"required"`
	PropertyID    string          `json:"property_id"`
	Title         string          `json:"title" binding:"required"`
	PricingType   string          `json:"pricing_type" binding:"required,oneof=fixed itemised"`
	FixedPrice    string          `json:"fixed_price"` // decimal string, VAT-inclusive; fixed mode only
	Notes         string          `json:"notes"`
	InternalNotes string          `json:"internal_notes"`
	ValidUntil    string          `json:"valid_until"` // YYYY-MM-DD
	LineItems     []LineItemInput `json:"line_items"`  // itemised mode only
}

// UpdateQuoteRequest mirrors create: an edit re-validates everything, replaces
// the line items in full and forces the quote back to draft.
type UpdateQuoteRequest = CreateQuoteRequest

type QuoteFilter struct {
	Status   string
	ClientID string
	Page     int
	Limit    int
}

type LineItemResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Amount      string `json:"amount"`
	IsAddon     bool   `json:"is_addon"`
	SortOrder   int    `json:"sort_order"`
}

type QuoteClientResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type QuotePropertyResponse struct {
	ID           string `json:"id"`
	AddressLine1 string `json:"address_line1"`
	Town         string `json:"town"`
	Postcode     string `json:"postcode"`
}

type QuoteResponse struct {
	ID            string                 `json:"id"`
	QuoteNumber   string                 `json:"quote_number"`
	Title         string                 `json:"title"`
	Status        string                 `json:"status"`
	PricingType   string                 `json:"pricing_type"`
	FixedPrice    *string                `json:"fixed_price"`
	Subtotal      string                 `json:"subtotal"`
	TaxRate       string                 `json:"tax_rate"`
	TaxAmount     string                 `json:"tax_amount"`
	Total         string                 `json:"total"`
	Notes         string                 `json:"notes"`
	InternalNotes string                 `json:"internal_notes"`
	ValidUntil    *string                `json:"valid_until"`
	AcceptToken   string                 `json:"accept_token"`
	SentAt        *string                `json:"sent_at"`
	ViewedAt      *string                `json:"viewed_at"`
	RespondedAt   *string                `json:"responded_at"`
	JobID         *string                `json:"job_id"`
	ClientID      string                 `json:"client_id"`
	PropertyID    *string                `json:"property_id"`
	Client        *QuoteClientResponse   `json:"client,omitempty"`
	Property      *QuotePropertyResponse `json:"property,omitempty"`
	LineItems     []LineItemResponse     `json:"line_items"`
	AddonItems    []LineItemResponse     `json:"addon_items"`
	CreatedAt     string                 `json:"created_at"`
	UpdatedAt     string                 `json:"updated_at"`
}

// PublicQuoteResponse is what the tokenised public page sees: the quote, the
// organisation letterhead and the client's name. No internal notes, no ids of
// other entities.
type PublicQuoteResponse struct {
	QuoteNumber string                 `json:"quote_number"`
	Title       string                 `json:"title"`
	Status      string                 `json:"status"`
	PricingType string                 `json:"pricing_type"`
	Subtotal    string                 `json:"subtotal"`
	TaxRate     string                 `json:"tax_rate"`
	TaxAmount   string                 `json:"tax_amount"`
	Total       string                 `json:"total"`
	Notes       string                 `json:"notes"`
	ValidUntil  *string                `json:"valid_until"`
	RespondedAt *string                `json:"responded_at"`
	ClientName  string                 `json:"client_name"`
	Property    *QuotePropertyResponse `json:"property,omitempty"`
	LineItems   []LineItemResponse     `json:"line_items"`
	AddonItems  []LineItemResponse     `json:"addon_items"`
	Organisation struct {
		Name         string `json:"name"`
		Email        string `json:"email,omitempty"`
		Phone        string `json:"phone,omitempty"`
		AddressLine1 string `json:"address_line1,omitempty"`
		Town         string `json:"town,omitempty"`
		Postcode     string `json:"postcode,omitempty"`
	} `json:"organisation"`
}

// --- Interface ---

type QuoteService interface {
	CreateQuote(ctx context.Context, orgID, userID uuid.UUID, req CreateQuoteRequest) (QuoteResponse, error)
	UpdateQuote(ctx context.Context, orgID uuid.UUID, id string, req UpdateQuoteRequest) (QuoteResponse, error)
	GetQuote(ctx context.Context, orgID uuid.UUID, id string) (QuoteResponse, error)
	ListQuotes(ctx context.Context, orgID uuid.UUID, filter QuoteFilter) ([]QuoteResponse, int64, error)
	DeleteQuote(ctx context.Context, orgID uuid.UUID, id string) error
	SendQuote(ctx context.Context, orgID uuid.UUID, id string) (QuoteResponse, error)
	RespondToQuote(ctx context.Context, orgID uuid.UUID, id string, decision string, actorID uuid.UUID) (QuoteResponse, error)
	GetQuoteByToken(ctx context.Context, token string) (PublicQuoteResponse, error)
	RespondByToken(ctx context.Context, token string, decision string) error
	RenderQuotePDF(ctx context.Context, orgID uuid.UUID, id string) ([]byte, string, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

type quoteService struct {
	quoteRepo    repository.QuoteRepository
	lineItemRepo repository.LineItemRepository
	clientRepo   repository.ClientRepository
	propertyRepo repository.PropertyRepository
	jobRepo      repository.JobRepository
	orgRepo      repository.OrganisationRepository
	activityRepo repository.ActivityRepository
	txManager    repository.TransactionManager
	mailer       email.Mailer
	pdfRenderer  pdf.QuoteRenderer
	hub          *websocket.Hub
	baseURL      string // public origin for accept links, e.g. https://app.simplylustre.com
}

func NewQuoteService(
	quoteRepo repository.QuoteRepository,
	lineItemRepo repository.LineItemRepository,
	clientRepo repository.ClientRepository,
	propertyRepo repository.PropertyRepository,
	jobRepo repository.JobRepository,
	orgRepo repository.OrganisationRepository,
	activityRepo repository.ActivityRepository,
	txManager repository.TransactionManager,
	mailer email.Mailer,
	pdfRenderer pdf.QuoteRenderer,
	hub *websocket.Hub,
	baseURL string,
) QuoteService {
	return &quoteService{
		quoteRepo:    quoteRepo,
		lineItemRepo: lineItemRepo,
		clientRepo:   clientRepo,
		propertyRepo: propertyRepo,
		jobRepo:      jobRepo,
		orgRepo:      orgRepo,
		activityRepo: activityRepo,
		txManager:    txManager,
		mailer:       mailer,
		pdfRenderer:  pdfRenderer,
		hub:          hub,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

// --- Create / Update ---

func (s *quoteService) CreateQuote(ctx context.Context, orgID, userID uuid.UUID, req CreateQuoteRequest) (QuoteResponse, error) {
	parsed, err := s.validateQuoteInput(ctx, orgID, req)
	if err != nil {
		return QuoteResponse{}, err
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return QuoteResponse{}, fmt.Errorf("failed to load organisation: %w", err)
	}

	items := sanitiseLineItems(req.LineItems)
	totals := computeQuoteTotals(req.PricingType, parsed.fixedPrice, items, org.VatRate, org.VatRegistered)

	token, err := generateAcceptToken()
	if err != nil {
		return QuoteResponse{}, fmt.Errorf("failed to generate accept token: %w", err)
	}

	taxRate := decimal.Zero
	if org.VatRegistered {
		taxRate = org.VatRate
	}

	quote := model.Quote{
		OrganisationID: orgID,
		ClientID:       parsed.clientID,
		PropertyID:     parsed.propertyID,
		CreatedBy:      userID,
		AcceptToken:    token,
		Title:          strings.TrimSpace(req.Title),
		PricingType:    req.PricingType,
		FixedPrice:     parsed.fixedPrice,
		Subtotal:       totals.Subtotal,
		TaxRate:        taxRate,
		TaxAmount:      totals.TaxAmount,
		Total:          totals.Total,
		Notes:          req.Notes,
		InternalNotes:  req.InternalNotes,
		ValidUntil:     parsed.validUntil,
		Status:         model.QuoteStatusDraft,
	}

	// Sequence draw, quote insert and line-item insert commit as one unit, so a
	// failed line-item write can never leave an orphaned quote behind.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		seq, seqErr := s.quoteRepo.NextQuoteNumber(txCtx, orgID)
		if seqErr != nil {
			return fmt.Errorf("failed to generate quote number: %w", seqErr)
		}
		quote.QuoteNumber = fmt.Sprintf("Q-%05d", seq)

		if createErr := s.quoteRepo.Create(txCtx, &quote); createErr != nil {
			return fmt.Errorf("failed to create quote: %w", createErr)
		}

		if req.PricingType == model.PricingTypeItemised {
			for i := range items {
				items[i].QuoteID = quote.ID
				items[i].OrganisationID = orgID
			}
			if itemsErr := s.lineItemRepo.ReplaceForQuote(txCtx, quote.ID, items); itemsErr != nil {
				return fmt.Errorf("failed to save line items: %w", itemsErr)
			}
		}
		return nil
	})
	if err != nil {
		return QuoteResponse{}, err
	}

	return s.reload(ctx, orgID, quote.ID)
}

func (s *quoteService) UpdateQuote(ctx context.Context, orgID uuid.UUID, id string, req UpdateQuoteRequest) (QuoteResponse, error) {
	quoteID, err := uuid.Parse(id)
	if err != nil {
		return QuoteResponse{}, ErrNotFound
	}

	quote, err := s.quoteRepo.FindByID(ctx, orgID, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return QuoteResponse{}, ErrNotFound
		}
		return QuoteResponse{}, fmt.Errorf("failed to fetch quote: %w", err)
	}

	parsed, err := s.validateQuoteInput(ctx, orgID, req)
	if err != nil {
		return QuoteResponse{}, err
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return QuoteResponse{}, fmt.Errorf("failed to load organisation: %w", err)
	}

	items := sanitiseLineItems(req.LineItems)
	totals := computeQuoteTotals(req.PricingType, parsed.fixedPrice, items, org.VatRate, org.VatRegistered)

	taxRate := decimal.Zero
	if org.VatRegistered {
		taxRate = org.VatRate
	}

	quote.ClientID = parsed.clientID
	quote.PropertyID = parsed.propertyID
	quote.Title = strings.TrimSpace(req.Title)
	quote.PricingType = req.PricingType
	quote.FixedPrice = parsed.fixedPrice
	quote.Subtotal = totals.Subtotal
	quote.TaxRate = taxRate
	quote.TaxAmount = totals.TaxAmount
	quote.Total = totals.Total
	quote.Notes = req.Notes
	quote.InternalNotes = req.InternalNotes
	quote.ValidUntil = parsed.validUntil
	// an edit always resets the lifecycle
	quote.Status = model.QuoteStatusDraft

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.quoteRepo.Update(txCtx, quote); updateErr != nil {
			return fmt.Errorf("failed to update quote: %w", updateErr)
		}
		if req.PricingType == model.PricingTypeItemised {
			for i := range items {
				items[i].QuoteID = quote.ID
				items[i].OrganisationID = orgID
			}
			return s.lineItemRepo.ReplaceForQuote(txCtx, quote.ID, items)
		}
		// switching to fixed mode discards the itemised rows
		return s.lineItemRepo.ReplaceForQuote(txCtx, quote.ID, nil)
	})
	if err != nil {
		return QuoteResponse{}, err
	}

	return s.reload(ctx, orgID, quote.ID)
}

// --- Read ---

func (s *quoteService) GetQuote(ctx context.Context, orgID uuid.UUID, id string) (QuoteResponse, error) {
	quoteID, err := uuid.Parse(id)
	if err != nil {
		return QuoteResponse{}, ErrNotFound
	}
	return s.reload(ctx, orgID, quoteID)
}

func (s *quoteService) ListQuotes(ctx context.Context, orgID uuid.UUID, filter QuoteFilter) ([]QuoteResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.QuoteListFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.ClientID != "" {
		clientID, err := uuid.Parse(filter.ClientID)
		if err != nil {
			return nil, 0, ErrNotFound
		}
		repoFilter.ClientID = &clientID
	}

	quotes, total, err := s.quoteRepo.List(ctx, orgID, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch quotes: %w", err)
	}

	result := make([]QuoteResponse, 0, len(quotes))
	for i := range quotes {
		result = append(result, toQuoteResponse(&quotes[i]))
	}
	return result, total, nil
}

// --- Delete ---

func (s *quoteService) DeleteQuote(ctx context.Context, orgID uuid.UUID, id string) error {
	quoteID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	quote, err := s.quoteRepo.FindByID(ctx, orgID, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch quote: %w", err)
	}
	if quote.Status != model.QuoteStatusDraft {
		return fmt.Errorf("%w: only draft quotes can be deleted", ErrInvalidState)
	}

	rows, err := s.quoteRepo.DeleteDraft(ctx, orgID, quoteID)
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}
	if rows == 0 {
		// status moved between the read and the delete
		return fmt.Errorf("%w: only draft quotes can be deleted", ErrInvalidState)
	}
	return nil
}

// --- Lifecycle transitions ---

func (s *quoteService) SendQuote(ctx context.Context, orgID uuid.UUID, id string) (QuoteResponse, error) {
	quoteID, err := uuid.Parse(id)
	if err != nil {
		return QuoteResponse{}, ErrNotFound
	}

	quote, err := s.quoteRepo.FindByID(ctx, orgID, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return QuoteResponse{}, ErrNotFound
		}
		return QuoteResponse{}, fmt.Errorf("failed to fetch quote: %w", err)
	}

	now := time.Now()
	rows, err := s.quoteRepo.TransitionStatus(ctx, quoteID,
		[]string{model.QuoteStatusDraft},
		map[string]interface{}{"status": model.QuoteStatusSent, "sent_at": now})
	if err != nil {
		return QuoteResponse{}, fmt.Errorf("failed to update quote status: %w", err)
	}
	if rows == 0 {
		return QuoteResponse{}, fmt.Errorf("%w: only draft quotes can be sent", ErrInvalidState)
	}

	// Side effects are best-effort: a failed email or activity write never
	// rolls the quote back to draft.
	s.dispatchQuoteEmail(ctx, quote)
	s.recordActivity(ctx, quote, model.ActivityQuoteSent, nil)

	return s.reload(ctx, orgID, quoteID)
}

func (s *quoteService) RespondToQuote(ctx context.Context, orgID uuid.UUID, id string, decision string, actorID uuid.UUID) (QuoteResponse, error) {
	quoteID, err := uuid.Parse(id)
	if err != nil {
		return QuoteResponse{}, ErrNotFound
	}

	quote, err := s.quoteRepo.FindByID(ctx, orgID, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return QuoteResponse{}, ErrNotFound
		}
		return QuoteResponse{}, fmt.Errorf("failed to fetch quote: %w", err)
	}

	if err := s.applyResponse(ctx, quote, decision, &actorID); err != nil {
		return QuoteResponse{}, err
	}
	return s.reload(ctx, orgID, quoteID)
}

func (s *quoteService) RespondByToken(ctx context.Context, token string, decision string) error {
	quote, err := s.quoteRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch quote: %w", err)
	}
	return s.applyResponse(ctx, quote, decision, nil)
}

// applyResponse moves an open quote to accepted or declined. The status guard
// and the job creation run in one transaction with a conditional UPDATE, so two
// concurrent responders cannot both succeed or create two jobs.
func (s *quoteService) applyResponse(ctx context.Context, quote *model.Quote, decision string, actorID *uuid.UUID) error {
	if decision != model.QuoteStatusAccepted && decision != model.QuoteStatusDeclined {
		return fmt.Errorf("invalid decision %q: must be accepted or declined", decision)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := time.Now()
		rows, txErr := s.quoteRepo.TransitionStatus(txCtx, quote.ID,
			[]string{model.QuoteStatusSent, model.QuoteStatusViewed},
			map[string]interface{}{"status": decision, "responded_at": now})
		if txErr != nil {
			return fmt.Errorf("failed to update quote status: %w", txErr)
		}
		if rows == 0 {
			return fmt.Errorf("%w: this quote is no longer open for responses", ErrInvalidState)
		}

		if decision == model.QuoteStatusAccepted {
			return s.createJobFromQuote(txCtx, quote, actorID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	activityType := model.ActivityQuoteAccepted
	if decision == model.QuoteStatusDeclined {
		activityType = model.ActivityQuoteDeclined
	}
	s.recordActivity(ctx, quote, activityType, actorID)
	return nil
}

// createJobFromQuote is the acceptance side effect: one scheduled job carrying
// the quote's total as its price and a note referencing the quote number.
func (s *quoteService) createJobFromQuote(ctx context.Context, quote *model.Quote, actorID *uuid.UUID) error {
	price := quote.Total
	job := model.Job{
		OrganisationID: quote.OrganisationID,
		ClientID:       quote.ClientID,
		PropertyID:     quote.PropertyID,
		AssignedTo:     actorID,
		QuoteID:        &quote.ID,
		ServiceType:    model.ServiceTypeOther,
		Status:         model.JobStatusScheduled,
		Price:          &price,
		Notes:          fmt.Sprintf("From quote %s: %s", quote.QuoteNumber, quote.Title),
	}
	if err := s.jobRepo.Create(ctx, &job); err != nil {
		return fmt.Errorf("failed to create job from quote: %w", err)
	}
	if err := s.quoteRepo.SetJob(ctx, quote.ID, job.ID); err != nil {
		return fmt.Errorf("failed to link job to quote: %w", err)
	}
	return nil
}

// --- Public gateway ---

func (s *quoteService) GetQuoteByToken(ctx context.Context, token string) (PublicQuoteResponse, error) {
	quote, err := s.quoteRepo.FindByTokenWithRelations(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PublicQuoteResponse{}, ErrNotFound
		}
		return PublicQuoteResponse{}, fmt.Errorf("failed to fetch quote: %w", err)
	}

	// First view of a sent quote marks it viewed. Idempotent by construction:
	// the conditional UPDATE only matches while the status is exactly "sent",
	// and a failure here never fails the page render.
	if quote.Status == model.QuoteStatusSent {
		now := time.Now()
		rows, viewErr := s.quoteRepo.TransitionStatus(ctx, quote.ID,
			[]string{model.QuoteStatusSent},
			map[string]interface{}{"status": model.QuoteStatusViewed, "viewed_at": now})
		if viewErr != nil {
			log.Printf("quote %s: failed to mark viewed: %v", quote.QuoteNumber, viewErr)
		} else if rows > 0 {
			quote.Status = model.QuoteStatusViewed
			quote.ViewedAt = &now
			s.recordActivity(ctx, quote, model.ActivityQuoteViewed, nil)
		}
	}

	org, err := s.orgRepo.FindByID(ctx, quote.OrganisationID)
	if err != nil {
		return PublicQuoteResponse{}, fmt.Errorf("failed to load organisation: %w", err)
	}

	return toPublicQuoteResponse(quote, org), nil
}

// --- PDF ---

// RenderQuotePDF returns the printable document and the quote number for the
// download filename.
func (s *quoteService) RenderQuotePDF(ctx context.Context, orgID uuid.UUID, id string) ([]byte, string, error) {
	quoteID, err := uuid.Parse(id)
	if err != nil {
		return nil, "", ErrNotFound
	}

	quote, err := s.quoteRepo.FindByIDWithRelations(ctx, orgID, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to fetch quote: %w", err)
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load organisation: %w", err)
	}

	data, err := s.pdfRenderer.RenderQuote(quote, org)
	if err != nil {
		return nil, "", err
	}
	return data, quote.QuoteNumber, nil
}

// --- Expiry ---

// ExpireOverdue marks every sent or viewed quote whose validity date has passed
// as expired. Driven by the background scheduler, never by reads.
func (s *quoteService) ExpireOverdue(ctx context.Context) (int64, error) {
	rows, err := s.quoteRepo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire quotes: %w", err)
	}
	if rows > 0 {
		log.Printf("expired %d overdue quote(s)", rows)
	}
	return rows, nil
}

// --- Side-effect helpers ---

func (s *quoteService) dispatchQuoteEmail(ctx context.Context, quote *model.Quote) {
	if s.mailer == nil {
		return
	}

	client, err := s.clientRepo.FindByID(ctx, quote.OrganisationID, quote.ClientID)
	if err != nil {
		log.Printf("quote %s: failed to load client for email: %v", quote.QuoteNumber, err)
		return
	}
	if client.Email == "" {
		log.Printf("quote %s: client has no email address, skipping send", quote.QuoteNumber)
		return
	}

	org, err := s.orgRepo.FindByID(ctx, quote.OrganisationID)
	if err != nil {
		log.Printf("quote %s: failed to load organisation for email: %v", quote.QuoteNumber, err)
		return
	}

	validUntil := ""
	if quote.ValidUntil != nil {
		validUntil = quote.ValidUntil.Format("2 January 2006")
	}

	err = s.mailer.SendQuoteEmail(email.SendQuoteEmailParams{
		ClientEmail:     client.Email,
		ClientName:      client.FirstName + " " + client.LastName,
		QuoteNumber:     quote.QuoteNumber,
		QuoteTitle:      quote.Title,
		QuoteTotal:      quote.Total,
		QuoteValidUntil: validUntil,
		AcceptURL:       s.baseURL + "/q/" + quote.AcceptToken,
		OrgName:         org.Name,
		OrgEmail:        org.Email,
		OrgPhone:        org.Phone,
	})
	if err != nil {
		log.Printf("quote %s: email send failed: %v", quote.QuoteNumber, err)
	}
}

func (s *quoteService) recordActivity(ctx context.Context, quote *model.Quote, activityType string, actorID *uuid.UUID) {
	activity := model.Activity{
		OrganisationID: quote.OrganisationID,
		ClientID:       quote.ClientID,
		CreatedBy:      actorID,
		Type:           activityType,
		Title:          fmt.Sprintf("%s — %s", quote.QuoteNumber, quote.Title),
	}
	if err := s.activityRepo.Create(ctx, &activity); err != nil {
		log.Printf("quote %s: failed to record %s activity: %v", quote.QuoteNumber, activityType, err)
	}

	if s.hub != nil {
		s.hub.BroadcastToOrg(quote.OrganisationID, websocket.Event{
			Type:        activityType,
			QuoteNumber: quote.QuoteNumber,
			Title:       quote.Title,
			ClientID:    quote.ClientID.String(),
		})
	}
}

// --- Validation and sanitisation ---

type parsedQuoteInput struct {
	clientID   uuid.UUID
	propertyID *uuid.UUID
	fixedPrice *decimal.Decimal
	validUntil *time.Time
}

func (s *quoteService) validateQuoteInput(ctx context.Context, orgID uuid.UUID, req CreateQuoteRequest) (parsedQuoteInput, error) {
	var parsed parsedQuoteInput

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return parsed, errors.New("please select a client")
	}
	if _, err := s.clientRepo.FindByID(ctx, orgID, clientID); err != nil {
		return parsed, errors.New("please select a client")
	}
	parsed.clientID = clientID

	if strings.TrimSpace(req.Title) == "" {
		return parsed, errors.New("please enter a quote title")
	}

	if req.PropertyID != "" {
		propertyID, err := uuid.Parse(req.PropertyID)
		if err != nil {
			return parsed, errors.New("invalid property")
		}
		if _, err := s.propertyRepo.FindByID(ctx, orgID, propertyID); err != nil {
			return parsed, errors.New("invalid property")
		}
		parsed.propertyID = &propertyID
	}

	if req.PricingType == model.PricingTypeFixed {
		price, err := decimal.NewFromString(req.FixedPrice)
		if err != nil || price.LessThanOrEqual(decimal.Zero) {
			return parsed, errors.New("please enter a price greater than zero")
		}
		parsed.fixedPrice = &price
	}

	if req.ValidUntil != "" {
		validUntil, err := time.Parse("2006-01-02", req.ValidUntil)
		if err != nil {
			return parsed, errors.New("invalid validity date, expected YYYY-MM-DD")
		}
		parsed.validUntil = &validUntil
	}

	return parsed, nil
}

// sanitiseLineItems clamps each row independently and drops rows with a blank
// description. Amounts are recomputed from quantity × unit price, rounded to 2
// decimals; sort order is reassigned densely over the retained rows.
func sanitiseLineItems(inputs []LineItemInput) []model.QuoteLineItem {
	items := make([]model.QuoteLineItem, 0, len(inputs))
	for _, input := range inputs {
		description := strings.TrimSpace(input.Description)
		if description == "" {
			continue
		}

		qty := input.Quantity
		if math.IsNaN(qty) || math.IsInf(qty, 0) || qty <= 0 || qty > maxLineItemQuantity {
			qty = 1
		}
		price := input.UnitPrice
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 || price > maxLineItemUnitPrice {
			price = 0
		}

		quantity := decimal.NewFromFloat(qty).Round(2)
		unitPrice := decimal.NewFromFloat(price).Round(2)

		items = append(items, model.QuoteLineItem{
			Description: description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Amount:      quantity.Mul(unitPrice).Round(2),
			IsAddon:     input.IsAddon,
			SortOrder:   len(items),
		})
	}
	return items
}

func computeQuoteTotals(pricingType string, fixedPrice *decimal.Decimal, items []model.QuoteLineItem, vatRate decimal.Decimal, vatRegistered bool) QuoteTotals {
	if pricingType == model.PricingTypeFixed {
		return computeFixedTotals(*fixedPrice, vatRate, vatRegistered)
	}
	return computeItemisedTotals(items, vatRate, vatRegistered)
}

// generateAcceptToken returns 256 bits of randomness as hex: the sole
// credential for public quote access, so exact-match lookup only.
func generateAcceptToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// --- Mapping ---

func (s *quoteService) reload(ctx context.Context, orgID, quoteID uuid.UUID) (QuoteResponse, error) {
	quote, err := s.quoteRepo.FindByIDWithRelations(ctx, orgID, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return QuoteResponse{}, ErrNotFound
		}
		return QuoteResponse{}, fmt.Errorf("failed to reload quote: %w", err)
	}
	return toQuoteResponse(quote), nil
}

func splitLineItems(items []model.QuoteLineItem) (core, addons []LineItemResponse) {
	core = make([]LineItemResponse, 0, len(items))
	addons = make([]LineItemResponse, 0)
	for _, item := range items {
		resp := LineItemResponse{
			ID:          item.ID.String(),
			Description: item.Description,
			Quantity:    item.Quantity.StringFixed(2),
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Amount:      item.Amount.StringFixed(2),
			IsAddon:     item.IsAddon,
			SortOrder:   item.SortOrder,
		}
		if item.IsAddon {
			addons = append(addons, resp)
		} else {
			core = append(core, resp)
		}
	}
	return core, addons
}

func toQuoteResponse(quote *model.Quote) QuoteResponse {
	resp := QuoteResponse{
		ID:            quote.ID.String(),
		QuoteNumber:   quote.QuoteNumber,
		Title:         quote.Title,
		Status:        quote.Status,
		PricingType:   quote.PricingType,
		Subtotal:      quote.Subtotal.StringFixed(2),
		TaxRate:       quote.TaxRate.StringFixed(2),
		TaxAmount:     quote.TaxAmount.StringFixed(2),
		Total:         quote.Total.StringFixed(2),
		Notes:         quote.Notes,
		InternalNotes: quote.InternalNotes,
		AcceptToken:   quote.AcceptToken,
		ClientID:      quote.ClientID.String(),
		CreatedAt:     quote.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     quote.UpdatedAt.Format(time.RFC3339),
	}

	if quote.FixedPrice != nil {
		v := quote.FixedPrice.StringFixed(2)
		resp.FixedPrice = &v
	}
	if quote.ValidUntil != nil {
		v := quote.ValidUntil.Format("2006-01-02")
		resp.ValidUntil = &v
	}
	if quote.SentAt != nil {
		v := quote.SentAt.Format(time.RFC3339)
		resp.SentAt = &v
	}
	if quote.ViewedAt != nil {
		v := quote.ViewedAt.Format(time.RFC3339)
		resp.ViewedAt = &v
	}
	if quote.RespondedAt != nil {
		v := quote.RespondedAt.Format(time.RFC3339)
		resp.RespondedAt = &v
	}
	if quote.JobID != nil {
		v := quote.JobID.String()
		resp.JobID = &v
	}
	if quote.PropertyID != nil {
		v := quote.PropertyID.String()
		resp.PropertyID = &v
	}
	if quote.Client != nil {
		resp.Client = &QuoteClientResponse{
			ID:        quote.Client.ID.String(),
			FirstName: quote.Client.FirstName,
			LastName:  quote.Client.LastName,
			Email:     quote.Client.Email,
			Phone:     quote.Client.Phone,
		}
	}
	if quote.Property != nil {
		resp.Property = &QuotePropertyResponse{
			ID:           quote.Property.ID.String(),
			AddressLine1: quote.Property.AddressLine1,
			Town:         quote.Property.Town,
			Postcode:     quote.Property.Postcode,
		}
	}

	resp.LineItems, resp.AddonItems = splitLineItems(quote.LineItems)
	return resp
}

func toPublicQuoteResponse(quote *model.Quote, org *model.Organisation) PublicQuoteResponse {
	resp := PublicQuoteResponse{
		QuoteNumber: quote.QuoteNumber,
		Title:       quote.Title,
		Status:      quote.Status,
		PricingType: quote.PricingType,
		Subtotal:    quote.Subtotal.StringFixed(2),
		TaxRate:     quote.TaxRate.StringFixed(2),
		TaxAmount:   quote.TaxAmount.StringFixed(2),
		Total:       quote.Total.StringFixed(2),
		Notes:       quote.Notes,
	}
	if quote.ValidUntil != nil {
		v := quote.ValidUntil.Format("2006-01-02")
		resp.ValidUntil = &v
	}
	if quote.RespondedAt != nil {
		v := quote.RespondedAt.Format(time.RFC3339)
		resp.RespondedAt = &v
	}
	if quote.Client != nil {
		resp.ClientName = quote.Client.FirstName + " " + quote.Client.LastName
	}
	if quote.Property != nil {
		resp.Property = &QuotePropertyResponse{
			ID:           quote.Property.ID.String(),
			AddressLine1: quote.Property.AddressLine1,
			Town:         quote.Property.Town,
			Postcode:     quote.Property.Postcode,
		}
	}
	resp.LineItems, resp.AddonItems = splitLineItems(quote.LineItems)

	resp.Organisation.Name = org.Name
	resp.Organisation.Email = org.Email
	resp.Organisation.Phone = org.Phone
	resp.Organisation.AddressLine1 = org.AddressLine1
	resp.Organisation.Town = org.Town
	resp.Organisation.Postcode = org.Postcode
	return resp
}

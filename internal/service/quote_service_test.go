package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"lustre-backend/internal/email"
	"lustre-backend/internal/model"
	"lustre-backend/internal/pdf"
	"lustre-backend/internal/repository"
	"lustre-backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeMailer records sends instead of talking to an SMTP server.
type fakeMailer struct {
	sent []email.SendQuoteEmailParams
}

func (m *fakeMailer) SendQuoteEmail(params email.SendQuoteEmailParams) error {
	m.sent = append(m.sent, params)
	return nil
}

type quoteTestEnv struct {
	db      *gorm.DB
	service QuoteService
	mailer  *fakeMailer
	jobRepo repository.JobRepository
	org     model.Organisation
	user    model.User
	client  model.Client
}

func newQuoteTestEnv(t *testing.T) *quoteTestEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.Organisation{},
		&model.User{},
		&model.RefreshToken{},
		&model.Client{},
		&model.Property{},
		&model.Quote{},
		&model.QuoteLineItem{},
		&model.QuoteCounter{},
		&model.Job{},
		&model.Activity{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	org := model.Organisation{
		Name:          "Sparkle & Shine",
		Email:         "office@sparkle.test",
		VatRegistered: true,
		VatRate:       decimal.NewFromInt(20),
	}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("failed to seed organisation: %v", err)
	}

	user := model.User{
		OrganisationID: org.ID,
		FullName:       "Pat Owner",
		Email:          fmt.Sprintf("pat+%s@sparkle.test", t.Name()),
		Password:       "hashed",
		Role:           model.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	client := model.Client{
		OrganisationID: org.ID,
		FirstName:      "Jo",
		LastName:       "Client",
		Email:          "jo@client.test",
		Status:         model.ClientStatusActive,
	}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}

	mailer := &fakeMailer{}
	jobRepo := repository.NewJobRepository(db)
	svc := NewQuoteService(
		repository.NewQuoteRepository(db),
		repository.NewLineItemRepository(db),
		repository.NewClientRepository(db),
		repository.NewPropertyRepository(db),
		jobRepo,
		repository.NewOrganisationRepository(db),
		repository.NewActivityRepository(db),
		repository.NewTransactionManager(db),
		mailer,
		pdf.NewQuoteRenderer(),
		websocket.NewHub(),
		"http://app.test",
	)

	return &quoteTestEnv{db: db, service: svc, mailer: mailer, jobRepo: jobRepo, org: org, user: user, client: client}
}

func (env *quoteTestEnv) createFixedQuote(t *testing.T, price string) QuoteResponse {
	t.Helper()
	quote, err := env.service.CreateQuote(context.Background(), env.org.ID, env.user.ID, CreateQuoteRequest{
		ClientID:    env.client.ID.String(),
		Title:       "End of tenancy clean",
		PricingType: model.PricingTypeFixed,
		FixedPrice:  price,
	})
	if err != nil {
		t.Fatalf("failed to create quote: %v", err)
	}
	return quote
}

func TestCreateQuoteFixedPricing(t *testing.T) {
	env := newQuoteTestEnv(t)

	quote := env.createFixedQuote(t, "120.00")

	if quote.QuoteNumber != "Q-00001" {
		t.Errorf("expected first quote number Q-00001, got %s", quote.QuoteNumber)
	}
	if quote.Status != model.QuoteStatusDraft {
		t.Errorf("new quote should be draft, got %s", quote.Status)
	}
	if quote.Subtotal != "100.00" || quote.TaxAmount != "20.00" || quote.Total != "120.00" {
		t.Errorf("fixed £120 at 20%% should break down as 100/20/120, got %s/%s/%s",
			quote.Subtotal, quote.TaxAmount, quote.Total)
	}
	if len(quote.AcceptToken) != 64 {
		t.Errorf("accept token should be 64 hex chars, got %d", len(quote.AcceptToken))
	}
}

func TestCreateQuoteItemisedPricing(t *testing.T) {
	env := newQuoteTestEnv(t)

	quote, err := env.service.CreateQuote(context.Background(), env.org.ID, env.user.ID, CreateQuoteRequest{
		ClientID:    env.client.ID.String(),
		Title:       "Spring clean",
		PricingType: model.PricingTypeItemised,
		LineItems: []LineItemInput{
			{Description: "Kitchen", Quantity: 2, UnitPrice: 50},
			{Description: "Carpet shampoo", Quantity: 1, UnitPrice: 35, IsAddon: true},
		},
	})
	if err != nil {
		t.Fatalf("failed to create quote: %v", err)
	}

	if quote.Subtotal != "135.00" || quote.TaxAmount != "27.00" || quote.Total != "162.00" {
		t.Errorf("expected 135/27/162, got %s/%s/%s", quote.Subtotal, quote.TaxAmount, quote.Total)
	}
	if len(quote.LineItems) != 1 || len(quote.AddonItems) != 1 {
		t.Errorf("expected 1 core and 1 addon item, got %d and %d", len(quote.LineItems), len(quote.AddonItems))
	}
}

func TestQuoteNumbersIncrementPerOrganisation(t *testing.T) {
	env := newQuoteTestEnv(t)

	for i := 1; i <= 3; i++ {
		quote := env.createFixedQuote(t, "50.00")
		want := fmt.Sprintf("Q-%05d", i)
		if quote.QuoteNumber != want {
			t.Errorf("quote %d: expected number %s, got %s", i, want, quote.QuoteNumber)
		}
	}

	// a second organisation starts its own sequence
	otherOrg := model.Organisation{Name: "Other Cleaners"}
	if err := env.db.Create(&otherOrg).Error; err != nil {
		t.Fatalf("failed to seed second organisation: %v", err)
	}
	otherClient := model.Client{OrganisationID: otherOrg.ID, FirstName: "Sam", LastName: "Else", Status: model.ClientStatusActive}
	if err := env.db.Create(&otherClient).Error; err != nil {
		t.Fatalf("failed to seed second client: %v", err)
	}

	quote, err := env.service.CreateQuote(context.Background(), otherOrg.ID, env.user.ID, CreateQuoteRequest{
		ClientID:    otherClient.ID.String(),
		Title:       "First job",
		PricingType: model.PricingTypeFixed,
		FixedPrice:  "80.00",
	})
	if err != nil {
		t.Fatalf("failed to create quote in second org: %v", err)
	}
	if quote.QuoteNumber != "Q-00001" {
		t.Errorf("second organisation should start at Q-00001, got %s", quote.QuoteNumber)
	}
}

func TestSendQuoteEmailsClientOnce(t *testing.T) {
	env := newQuoteTestEnv(t)
	quote := env.createFixedQuote(t, "120.00")

	sent, err := env.service.SendQuote(context.Background(), env.org.ID, quote.ID)
	if err != nil {
		t.Fatalf("failed to send quote: %v", err)
	}
	if sent.Status != model.QuoteStatusSent {
		t.Errorf("expected status sent, got %s", sent.Status)
	}
	if sent.SentAt == nil {
		t.Error("sent_at should be stamped")
	}
	if len(env.mailer.sent) != 1 {
		t.Fatalf("expected exactly one email, got %d", len(env.mailer.sent))
	}
	if env.mailer.sent[0].ClientEmail != env.client.Email {
		t.Errorf("email went to %s, want %s", env.mailer.sent[0].ClientEmail, env.client.Email)
	}

	// sending again is an invalid transition
	if _, err := env.service.SendQuote(context.Background(), env.org.ID, quote.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second send should fail with ErrInvalidState, got %v", err)
	}
	if len(env.mailer.sent) != 1 {
		t.Errorf("failed resend must not email again, got %d emails", len(env.mailer.sent))
	}
}

func TestSendQuoteSkipsEmailWhenClientHasNone(t *testing.T) {
	env := newQuoteTestEnv(t)
	if err := env.db.Model(&model.Client{}).Where("id = ?", env.client.ID).Update("email", "").Error; err != nil {
		t.Fatalf("failed to clear client email: %v", err)
	}
	quote := env.createFixedQuote(t, "60.00")

	sent, err := env.service.SendQuote(context.Background(), env.org.ID, quote.ID)
	if err != nil {
		t.Fatalf("send should succeed without a client email: %v", err)
	}
	if sent.Status != model.QuoteStatusSent {
		t.Errorf("expected status sent, got %s", sent.Status)
	}
	if len(env.mailer.sent) != 0 {
		t.Errorf("no email should be dispatched, got %d", len(env.mailer.sent))
	}
}

func TestViewByTokenMarksViewedOnce(t *testing.T) {
	env := newQuoteTestEnv(t)
	quote := env.createFixedQuote(t, "120.00")
	if _, err := env.service.SendQuote(context.Background(), env.org.ID, quote.ID); err != nil {
		t.Fatalf("failed to send quote: %v", err)
	}

	view, err := env.service.GetQuoteByToken(context.Background(), quote.AcceptToken)
	if err != nil {
		t.Fatalf("failed to view quote by token: %v", err)
	}
	if view.Status != model.QuoteStatusViewed {
		t.Errorf("first view should mark quote viewed, got %s", view.Status)
	}
	if view.Organisation.Name != env.org.Name {
		t.Errorf("public view should carry the organisation letterhead, got %q", view.Organisation.Name)
	}

	var stored model.Quote
	if err := env.db.First(&stored, "id = ?", quote.ID).Error; err != nil {
		t.Fatalf("failed to reload quote: %v", err)
	}
	firstViewedAt := stored.ViewedAt
	if firstViewedAt == nil {
		t.Fatal("viewed_at should be stamped")
	}

	// a second view must not move the timestamp
	if _, err := env.service.GetQuoteByToken(context.Background(), quote.AcceptToken); err != nil {
		t.Fatalf("second view failed: %v", err)
	}
	if err := env.db.First(&stored, "id = ?", quote.ID).Error; err != nil {
		t.Fatalf("failed to reload quote: %v", err)
	}
	if !stored.ViewedAt.Equal(*firstViewedAt) {
		t.Error("second view must not change viewed_at")
	}
}

func TestAcceptQuoteCreatesOneJob(t *testing.T) {
	env := newQuoteTestEnv(t)
	quote := env.createFixedQuote(t, "120.00")
	if _, err := env.service.SendQuote(context.Background(), env.org.ID, quote.ID); err != nil {
		t.Fatalf("failed to send quote: %v", err)
	}

	if err := env.service.RespondByToken(context.Background(), quote.AcceptToken, model.QuoteStatusAccepted); err != nil {
		t.Fatalf("failed to accept quote: %v", err)
	}

	var stored model.Quote
	if err := env.db.First(&stored, "id = ?", quote.ID).Error; err != nil {
		t.Fatalf("failed to reload quote: %v", err)
	}
	if stored.Status != model.QuoteStatusAccepted {
		t.Errorf("expected status accepted, got %s", stored.Status)
	}
	if stored.JobID == nil {
		t.Fatal("accepted quote should link to its job")
	}

	var jobs []model.Job
	if err := env.db.Where("quote_id = ?", quote.ID).Find(&jobs).Error; err != nil {
		t.Fatalf("failed to load jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected exactly one job, got %d", len(jobs))
	}
	job := jobs[0]
	if job.Status != model.JobStatusScheduled {
		t.Errorf("job should be scheduled, got %s", job.Status)
	}
	if job.Price == nil || job.Price.StringFixed(2) != "120.00" {
		t.Errorf("job should carry the quote total as its price")
	}

	// responding again must fail and must not create a second job
	err := env.service.RespondByToken(context.Background(), quote.AcceptToken, model.QuoteStatusDeclined)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("second response should fail with ErrInvalidState, got %v", err)
	}
	var count int64
	env.db.Model(&model.Job{}).Where("quote_id = ?", quote.ID).Count(&count)
	if count != 1 {
		t.Errorf("double response must not duplicate the job, got %d jobs", count)
	}
}

func TestDeclineQuoteCreatesNoJob(t *testing.T) {
	env := newQuoteTestEnv(t)
	quote := env.createFixedQuote(t, "90.00")
	if _, err := env.service.SendQuote(context.Background(), env.org.ID, quote.ID); err != nil {
		t.Fatalf("failed to send quote: %v", err)
	}

	if err := env.service.RespondByToken(context.Background(), quote.AcceptToken, model.QuoteStatusDeclined); err != nil {
		t.Fatalf("failed to decline quote: %v", err)
	}

	var count int64
	env.db.Model(&model.Job{}).Where("quote_id = ?", quote.ID).Count(&count)
	if count != 0 {
		t.Errorf("declined quote must not create a job, got %d", count)
	}
}

func TestRespondToDraftIsRejected(t *testing.T) {
	env := newQuoteTestEnv(t)
	quote := env.createFixedQuote(t, "90.00")

	err := env.service.RespondByToken(context.Background(), quote.AcceptToken, model.QuoteStatusAccepted)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("responding to a draft should fail with ErrInvalidState, got %v", err)
	}
}

func TestDeleteQuoteOnlyInDraft(t *testing.T) {
	env := newQuoteTestEnv(t)
	quote := env.createFixedQuote(t, "90.00")

	if err := env.service.DeleteQuote(context.Background(), env.org.ID, quote.ID); err != nil {
		t.Fatalf("draft delete should succeed: %v", err)
	}
	if _, err := env.service.GetQuote(context.Background(), env.org.ID, quote.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted quote should be gone, got %v", err)
	}

	sentQuote := env.createFixedQuote(t, "90.00")
	if _, err := env.service.SendQuote(context.Background(), env.org.ID, sentQuote.ID); err != nil {
		t.Fatalf("failed to send quote: %v", err)
	}
	if err := env.service.DeleteQuote(context.Background(), env.org.ID, sentQuote.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("sent quote delete should fail with ErrInvalidState, got %v", err)
	}
}

func TestUpdateQuoteResetsToDraftAndReplacesItems(t *testing.T) {
	env := newQuoteTestEnv(t)

	quote, err := env.service.CreateQuote(context.Background(), env.org.ID, env.user.ID, CreateQuoteRequest{
		ClientID:    env.client.ID.String(),
		Title:       "Initial",
		PricingType: model.PricingTypeItemised,
		LineItems: []LineItemInput{
			{Description: "Old item", Quantity: 1, UnitPrice: 10},
		},
	})
	if err != nil {
		t.Fatalf("failed to create quote: %v", err)
	}
	if _, err := env.service.SendQuote(context.Background(), env.org.ID, quote.ID); err != nil {
		t.Fatalf("failed to send quote: %v", err)
	}

	updated, err := env.service.UpdateQuote(context.Background(), env.org.ID, quote.ID, UpdateQuoteRequest{
		ClientID:    env.client.ID.String(),
		Title:       "Revised",
		PricingType: model.PricingTypeItemised,
		LineItems: []LineItemInput{
			{Description: "New item", Quantity: 2, UnitPrice: 25},
		},
	})
	if err != nil {
		t.Fatalf("failed to update quote: %v", err)
	}

	if updated.Status != model.QuoteStatusDraft {
		t.Errorf("an edit must force the quote back to draft, got %s", updated.Status)
	}
	if updated.QuoteNumber != quote.QuoteNumber {
		t.Errorf("edit must keep the quote number, got %s want %s", updated.QuoteNumber, quote.QuoteNumber)
	}
	if len(updated.LineItems) != 1 || updated.LineItems[0].Description != "New item" {
		t.Errorf("line items should be fully replaced, got %+v", updated.LineItems)
	}
	if updated.Subtotal != "50.00" {
		t.Errorf("expected recomputed subtotal 50.00, got %s", updated.Subtotal)
	}
}

func TestVATSnapshotSurvivesSettingsChange(t *testing.T) {
	env := newQuoteTestEnv(t)
	quote := env.createFixedQuote(t, "120.00")

	// deregister the organisation after the quote exists
	err := env.db.Model(&model.Organisation{}).Where("id = ?", env.org.ID).
		Updates(map[string]interface{}{"vat_registered": false, "vat_rate": decimal.Zero}).Error
	if err != nil {
		t.Fatalf("failed to change organisation settings: %v", err)
	}

	reloaded, err := env.service.GetQuote(context.Background(), env.org.ID, quote.ID)
	if err != nil {
		t.Fatalf("failed to reload quote: %v", err)
	}
	if reloaded.TaxRate != "20.00" || reloaded.TaxAmount != "20.00" {
		t.Errorf("quote must keep its snapshotted VAT, got rate %s amount %s", reloaded.TaxRate, reloaded.TaxAmount)
	}
}

func TestQuoteNotVisibleAcrossOrganisations(t *testing.T) {
	env := newQuoteTestEnv(t)
	quote := env.createFixedQuote(t, "120.00")

	otherOrg := model.Organisation{Name: "Rival Cleaners"}
	if err := env.db.Create(&otherOrg).Error; err != nil {
		t.Fatalf("failed to seed second organisation: %v", err)
	}

	if _, err := env.service.GetQuote(context.Background(), otherOrg.ID, quote.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-organisation read should be ErrNotFound, got %v", err)
	}
	if err := env.service.DeleteQuote(context.Background(), otherOrg.ID, quote.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-organisation delete should be ErrNotFound, got %v", err)
	}
}

func TestExpireOverdueQuotes(t *testing.T) {
	env := newQuoteTestEnv(t)

	quote, err := env.service.CreateQuote(context.Background(), env.org.ID, env.user.ID, CreateQuoteRequest{
		ClientID:    env.client.ID.String(),
		Title:       "Short offer",
		PricingType: model.PricingTypeFixed,
		FixedPrice:  "75.00",
		ValidUntil:  "2020-01-01",
	})
	if err != nil {
		t.Fatalf("failed to create quote: %v", err)
	}
	if _, err := env.service.SendQuote(context.Background(), env.org.ID, quote.ID); err != nil {
		t.Fatalf("failed to send quote: %v", err)
	}

	// a draft with a past date must not expire
	draft, err := env.service.CreateQuote(context.Background(), env.org.ID, env.user.ID, CreateQuoteRequest{
		ClientID:    env.client.ID.String(),
		Title:       "Still drafting",
		PricingType: model.PricingTypeFixed,
		FixedPrice:  "75.00",
		ValidUntil:  "2020-01-01",
	})
	if err != nil {
		t.Fatalf("failed to create draft: %v", err)
	}

	expired, err := env.service.ExpireOverdue(context.Background())
	if err != nil {
		t.Fatalf("expiry sweep failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("expected 1 expired quote, got %d", expired)
	}

	reloaded, _ := env.service.GetQuote(context.Background(), env.org.ID, quote.ID)
	if reloaded.Status != model.QuoteStatusExpired {
		t.Errorf("overdue sent quote should be expired, got %s", reloaded.Status)
	}
	reloadedDraft, _ := env.service.GetQuote(context.Background(), env.org.ID, draft.ID)
	if reloadedDraft.Status != model.QuoteStatusDraft {
		t.Errorf("draft must never expire, got %s", reloadedDraft.Status)
	}

	// expired quotes are closed to responses
	if err := env.service.RespondByToken(context.Background(), quote.AcceptToken, model.QuoteStatusAccepted); !errors.Is(err, ErrInvalidState) {
		t.Errorf("responding to an expired quote should fail with ErrInvalidState, got %v", err)
	}
}

func TestRenderQuotePDF(t *testing.T) {
	env := newQuoteTestEnv(t)

	quote, err := env.service.CreateQuote(context.Background(), env.org.ID, env.user.ID, CreateQuoteRequest{
		ClientID:    env.client.ID.String(),
		Title:       "Spring clean",
		PricingType: model.PricingTypeItemised,
		LineItems: []LineItemInput{
			{Description: "Kitchen", Quantity: 2, UnitPrice: 50},
			{Description: "Carpet shampoo", Quantity: 1, UnitPrice: 35, IsAddon: true},
		},
	})
	if err != nil {
		t.Fatalf("failed to create quote: %v", err)
	}

	data, number, err := env.service.RenderQuotePDF(context.Background(), env.org.ID, quote.ID)
	if err != nil {
		t.Fatalf("failed to render pdf: %v", err)
	}
	if number != quote.QuoteNumber {
		t.Errorf("expected filename number %s, got %s", quote.QuoteNumber, number)
	}
	if len(data) == 0 || string(data[:5]) != "%PDF-" {
		t.Error("expected a PDF document")
	}

	if _, _, err := env.service.RenderQuotePDF(context.Background(), uuid.New(), quote.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-organisation pdf render should be ErrNotFound, got %v", err)
	}
}

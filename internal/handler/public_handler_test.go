package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lustre-backend/internal/email"
	"lustre-backend/internal/model"
	"lustre-backend/internal/pdf"
	"lustre-backend/internal/repository"
	"lustre-backend/internal/service"
	"lustre-backend/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type nullMailer struct{}

func (nullMailer) SendQuoteEmail(email.SendQuoteEmailParams) error { return nil }

type handlerTestEnv struct {
	db           *gorm.DB
	router       *gin.Engine
	quoteService service.QuoteService
	org          model.Organisation
	user         model.User
	client       model.Client
}

func newHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&model.Organisation{}, &model.User{}, &model.RefreshToken{},
		&model.Client{}, &model.Property{},
		&model.Quote{}, &model.QuoteLineItem{}, &model.QuoteCounter{},
		&model.Job{}, &model.Activity{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	org := model.Organisation{Name: "Sparkle & Shine", VatRegistered: true, VatRate: decimal.NewFromInt(20)}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("failed to seed organisation: %v", err)
	}
	user := model.User{OrganisationID: org.ID, FullName: "Pat Owner", Email: fmt.Sprintf("pat+%s@sparkle.test", t.Name()), Password: "hashed", Role: model.RoleAdmin}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	client := model.Client{OrganisationID: org.ID, FirstName: "Jo", LastName: "Client", Email: "jo@client.test", Status: model.ClientStatusActive}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}

	quoteService := service.NewQuoteService(
		repository.NewQuoteRepository(db),
		repository.NewLineItemRepository(db),
		repository.NewClientRepository(db),
		repository.NewPropertyRepository(db),
		repository.NewJobRepository(db),
		repository.NewOrganisationRepository(db),
		repository.NewActivityRepository(db),
		repository.NewTransactionManager(db),
		nullMailer{},
		pdf.NewQuoteRenderer(),
		websocket.NewHub(),
		"http://app.test",
	)

	router := gin.New()
	NewPublicHandler(quoteService).RegisterRoutes(router.Group(""))

	// the quote routes normally sit behind the auth middleware; tests inject
	// the same context keys directly
	quoteHandler := NewQuoteHandler(quoteService)
	authed := router.Group("", func(c *gin.Context) {
		c.Set("userID", user.ID)
		c.Set("orgID", org.ID)
		c.Set("userRole", user.Role)
	})
	authed.GET("/api/quotes/:id/pdf", quoteHandler.DownloadQuotePDF)

	return &handlerTestEnv{db: db, router: router, quoteService: quoteService, org: org, user: user, client: client}
}

func (env *handlerTestEnv) sendQuote(t *testing.T) service.QuoteResponse {
	t.Helper()
	quote, err := env.quoteService.CreateQuote(context.Background(), env.org.ID, env.user.ID, service.CreateQuoteRequest{
		ClientID:    env.client.ID.String(),
		Title:       "End of tenancy clean",
		PricingType: model.PricingTypeFixed,
		FixedPrice:  "120.00",
	})
	if err != nil {
		t.Fatalf("failed to create quote: %v", err)
	}
	sent, err := env.quoteService.SendQuote(context.Background(), env.org.ID, quote.ID)
	if err != nil {
		t.Fatalf("failed to send quote: %v", err)
	}
	return sent
}

func (env *handlerTestEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestPublicViewMarksQuoteViewed(t *testing.T) {
	env := newHandlerTestEnv(t)
	quote := env.sendQuote(t)

	rec := env.do(http.MethodGet, "/q/"+quote.AcceptToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Data service.PublicQuoteResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Data.Status != model.QuoteStatusViewed {
		t.Errorf("first public view should mark the quote viewed, got %s", payload.Data.Status)
	}
	if payload.Data.Organisation.Name != env.org.Name {
		t.Errorf("public page should carry the letterhead, got %q", payload.Data.Organisation.Name)
	}
	if payload.Data.Total != "120.00" {
		t.Errorf("expected total 120.00, got %s", payload.Data.Total)
	}
}

func TestPublicViewUnknownTokenIs404(t *testing.T) {
	env := newHandlerTestEnv(t)

	rec := env.do(http.MethodGet, "/q/"+strings.Repeat("ab", 32), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown token should be 404, got %d", rec.Code)
	}
}

func TestPublicAcceptCreatesJobAndLocksQuote(t *testing.T) {
	env := newHandlerTestEnv(t)
	quote := env.sendQuote(t)

	rec := env.do(http.MethodPost, "/q/"+quote.AcceptToken+"/respond", `{"decision":"accepted"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var count int64
	env.db.Model(&model.Job{}).Where("organisation_id = ?", env.org.ID).Count(&count)
	if count != 1 {
		t.Errorf("accepting should schedule exactly one job, got %d", count)
	}

	// the decision is final: a second response conflicts
	rec = env.do(http.MethodPost, "/q/"+quote.AcceptToken+"/respond", `{"decision":"declined"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("second response should be 409, got %d: %s", rec.Code, rec.Body.String())
	}

	env.db.Model(&model.Job{}).Where("organisation_id = ?", env.org.ID).Count(&count)
	if count != 1 {
		t.Errorf("conflicting response must not add a job, got %d", count)
	}
}

func TestPublicRespondRejectsBadDecision(t *testing.T) {
	env := newHandlerTestEnv(t)
	quote := env.sendQuote(t)

	rec := env.do(http.MethodPost, "/q/"+quote.AcceptToken+"/respond", `{"decision":"maybe"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid decision should be 400, got %d", rec.Code)
	}
}

func TestDownloadQuotePDF(t *testing.T) {
	env := newHandlerTestEnv(t)
	quote := env.sendQuote(t)

	rec := env.do(http.MethodGet, "/api/quotes/"+quote.ID+"/pdf", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", ct)
	}
	want := `attachment; filename="` + quote.QuoteNumber + `.pdf"`
	if cd := rec.Header().Get("Content-Disposition"); cd != want {
		t.Errorf("expected disposition %q, got %q", want, cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Error("body should be a PDF document")
	}

	rec = env.do(http.MethodGet, "/api/quotes/"+uuid.NewString()+"/pdf", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown quote id should be 404, got %d", rec.Code)
	}
}

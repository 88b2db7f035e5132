package handler

import (
	"errors"
	"net/http"

	"lustre-backend/internal/middleware"
	"lustre-backend/internal/service"
	"lustre-backend/pkg/pagination"
	"lustre-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	quoteService service.QuoteService
}

func NewQuoteHandler(quoteService service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

func (h *QuoteHandler) RegisterRoutes(router *gin.RouterGroup) {
	quotes := router.Group("/api/quotes", middleware.RequireAuth())
	{
		quotes.POST("", h.CreateQuote)
		quotes.GET("", h.ListQuotes)
		quotes.GET("/:id", h.GetQuote)
		quotes.PUT("/:id", h.UpdateQuote)
		quotes.DELETE("/:id", h.DeleteQuote)
		quotes.POST("/:id/send", h.SendQuote)
		quotes.POST("/:id/respond", h.RespondToQuote)
		quotes.GET("/:id/pdf", h.DownloadQuotePDF)
	}
}

// writeQuoteError maps service sentinels onto HTTP statuses. Ownership misses
// and bad ids both surface as 404 so callers cannot probe other organisations'
// quote ids.
func writeQuoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Quote not found"))
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}

// CreateQuote creates a new draft quote
// @Summary      Create quote
// @Description  Creates a new draft quote with fixed or itemised pricing
// @Tags         quotes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateQuoteRequest  true  "Create Quote Payload"
// @Success      201      {object}  response.Response{data=service.QuoteResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/quotes [post]
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req service.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quote, err := h.quoteService.CreateQuote(c.Request.Context(), middleware.GetOrgID(c), middleware.GetUserID(c), req)
	if err != nil {
		writeQuoteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, quote))
}

// ListQuotes returns a paginated list of quotes
// @Summary      List quotes
// @Description  Retrieves a paginated list of quotes, optionally filtered by status and client
// @Tags         quotes
// @Security     BearerAuth
// @Produce      json
// @Param        status     query     string  false  "Filter by status (draft, sent, viewed, accepted, declined, expired)"
// @Param        client_id  query     string  false  "Filter by client id"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=object}
// @Failure      500        {object}  response.Response
// @Router       /api/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.QuoteFilter{
		Status:   c.Query("status"),
		ClientID: c.Query("client_id"),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	quotes, total, err := h.quoteService.ListQuotes(c.Request.Context(), middleware.GetOrgID(c), filter)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeQuoteError(c, err)
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"quotes":     quotes,
		"pagination": pagination.NewMeta(params, total),
	}))
}

// GetQuote returns a single quote with its line items
// @Summary      Get quote
// @Description  Retrieves a quote with client, property and line items
// @Tags         quotes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quote ID"
// @Success      200  {object}  response.Response{data=service.QuoteResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/quotes/{id} [get]
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quote, err := h.quoteService.GetQuote(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"))
	if err != nil {
		writeQuoteError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

// UpdateQuote replaces a quote's content and resets it to draft
// @Summary      Update quote
// @Description  Replaces the quote's content and line items; any edit forces the quote back to draft
// @Tags         quotes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Quote ID"
// @Param        payload  body      service.UpdateQuoteRequest  true  "Update Quote Payload"
// @Success      200      {object}  response.Response{data=service.QuoteResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/quotes/{id} [put]
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	var req service.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quote, err := h.quoteService.UpdateQuote(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"), req)
	if err != nil {
		writeQuoteError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

// DeleteQuote deletes a draft quote
// @Summary      Delete quote
// @Description  Deletes a quote; only drafts can be deleted
// @Tags         quotes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quote ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/quotes/{id} [delete]
func (h *QuoteHandler) DeleteQuote(c *gin.Context) {
	if err := h.quoteService.DeleteQuote(c.Request.Context(), middleware.GetOrgID(c), c.Param("id")); err != nil {
		writeQuoteError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// SendQuote marks a draft quote as sent and emails the client
// @Summary      Send quote
// @Description  Transitions a draft quote to sent and emails the acceptance link to the client
// @Tags         quotes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quote ID"
// @Success      200  {object}  response.Response{data=service.QuoteResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/quotes/{id}/send [post]
func (h *QuoteHandler) SendQuote(c *gin.Context) {
	quote, err := h.quoteService.SendQuote(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"))
	if err != nil {
		writeQuoteError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

type respondRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accepted declined"`
}

// RespondToQuote records an accept/decline decision on behalf of the client
// @Summary      Respond to quote
// @Description  Records the client's decision (e.g. taken over the phone); accepting creates a job
// @Tags         quotes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string          true  "Quote ID"
// @Param        payload  body      respondRequest  true  "Decision Payload"
// @Success      200      {object}  response.Response{data=service.QuoteResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/quotes/{id}/respond [post]
func (h *QuoteHandler) RespondToQuote(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quote, err := h.quoteService.RespondToQuote(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"), req.Decision, middleware.GetUserID(c))
	if err != nil {
		writeQuoteError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

// DownloadQuotePDF streams the quote as a PDF attachment
// @Summary      Download quote PDF
// @Description  Renders the quote as a PDF document for download
// @Tags         quotes
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id   path      string  true  "Quote ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /api/quotes/{id}/pdf [get]
func (h *QuoteHandler) DownloadQuotePDF(c *gin.Context) {
	data, quoteNumber, err := h.quoteService.RenderQuotePDF(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"))
	if err != nil {
		writeQuoteError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+quoteNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

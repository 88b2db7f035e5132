package handler

import (
	"errors"
	"net/http"

	"lustre-backend/internal/service"
	"lustre-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the tokenised quote gateway. No authentication: the
// accept token in the URL is the sole credential.
type PublicHandler struct {
	quoteService service.QuoteService
}

func NewPublicHandler(quoteService service.QuoteService) *PublicHandler {
	return &PublicHandler{quoteService: quoteService}
}

func (h *PublicHandler) RegisterRoutes(router *gin.RouterGroup) {
	public := router.Group("/q")
	{
		public.GET("/:token", h.ViewQuote)
		public.POST("/:token/respond", h.RespondToQuote)
	}
}

// ViewQuote renders the public quote page data
// @Summary      View quote by token
// @Description  Returns the quote with the organisation letterhead; the first view of a sent quote marks it viewed
// @Tags         public
// @Produce      json
// @Param        token  path      string  true  "Accept token"
// @Success      200    {object}  response.Response{data=service.PublicQuoteResponse}
// @Failure      404    {object}  response.Response
// @Router       /q/{token} [get]
func (h *PublicHandler) ViewQuote(c *gin.Context) {
	quote, err := h.quoteService.GetQuoteByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Quote not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

// RespondToQuote records the client's accept/decline decision
// @Summary      Respond to quote by token
// @Description  Accepts or declines an open quote; accepting schedules a job. A decided quote returns 409.
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        token    path      string          true  "Accept token"
// @Param        payload  body      respondRequest  true  "Decision Payload"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /q/{token}/respond [post]
func (h *PublicHandler) RespondToQuote(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	err := h.quoteService.RespondByToken(c.Request.Context(), c.Param("token"), req.Decision)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Quote not found"))
		case errors.Is(err, service.ErrInvalidState):
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		default:
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		}
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"decision": req.Decision}))
}

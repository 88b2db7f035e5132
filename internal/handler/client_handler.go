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

type ClientHandler struct {
	clientService   service.ClientService
	propertyService service.PropertyService
	activityService service.ActivityService
	quoteService    service.QuoteService
}

func NewClientHandler(
	clientService service.ClientService,
	propertyService service.PropertyService,
	activityService service.ActivityService,
	quoteService service.QuoteService,
) *ClientHandler {
	return &ClientHandler{
		clientService:   clientService,
		propertyService: propertyService,
		activityService: activityService,
		quoteService:    quoteService,
	}
}

func (h *ClientHandler) RegisterRoutes(router *gin.RouterGroup) {
	clients := router.Group("/api/clients", middleware.RequireAuth())
	{
		clients.POST("", h.CreateClient)
		clients.GET("", h.ListClients)
		clients.GET("/:id", h.GetClient)
		clients.PUT("/:id", h.UpdateClient)
		clients.DELETE("/:id", h.DeleteClient)

		clients.POST("/:id/properties", h.CreateProperty)
		clients.GET("/:id/properties", h.ListProperties)

		clients.POST("/:id/activities", h.CreateActivity)
		clients.GET("/:id/activities", h.ListActivities)

		clients.GET("/:id/quotes", h.ListClientQuotes)
	}

	properties := router.Group("/api/properties", middleware.RequireAuth())
	{
		properties.GET("/:id", h.GetProperty)
		properties.PUT("/:id", h.UpdateProperty)
		properties.DELETE("/:id", h.DeleteProperty)
	}
}

func writeClientError(c *gin.Context, err error, notFoundMessage string) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, notFoundMessage))
		return
	}
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
}

// CreateClient creates a new client
// @Summary      Create client
// @Description  Creates a new client record
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateClientRequest  true  "Create Client Payload"
// @Success      201      {object}  response.Response{data=service.ClientResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req service.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), middleware.GetOrgID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, client))
}

// ListClients returns a paginated list of clients
// @Summary      List clients
// @Description  Retrieves a paginated list of clients, optionally filtered by status
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (active, inactive, lead)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	params := pagination.Parse(c)
	clients, total, err := h.clientService.ListClients(c.Request.Context(), middleware.GetOrgID(c), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"clients":    clients,
		"pagination": pagination.NewMeta(params, total),
	}))
}

// GetClient returns a single client with their properties
// @Summary      Get client
// @Description  Retrieves a client with their properties
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  response.Response{data=service.ClientResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/clients/{id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	client, err := h.clientService.GetClient(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"))
	if err != nil {
		writeClientError(c, err, "Client not found")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

// UpdateClient updates a client
// @Summary      Update client
// @Description  Updates an existing client record
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Client ID"
// @Param        payload  body      service.UpdateClientRequest  true  "Update Client Payload"
// @Success      200      {object}  response.Response{data=service.ClientResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	var req service.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"), req)
	if err != nil {
		writeClientError(c, err, "Client not found")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

// DeleteClient deletes a client
// @Summary      Delete client
// @Description  Deletes a client record
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	if err := h.clientService.DeleteClient(c.Request.Context(), middleware.GetOrgID(c), c.Param("id")); err != nil {
		writeClientError(c, err, "Client not found")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// CreateProperty adds a property to a client
// @Summary      Create property
// @Description  Adds a property to the client's record
// @Tags         properties
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Client ID"
// @Param        payload  body      service.CreatePropertyRequest  true  "Create Property Payload"
// @Success      201      {object}  response.Response{data=service.PropertyResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/clients/{id}/properties [post]
func (h *ClientHandler) CreateProperty(c *gin.Context) {
	var req service.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	property, err := h.propertyService.CreateProperty(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"), req)
	if err != nil {
		writeClientError(c, err, "Client not found")
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, property))
}

// ListProperties lists a client's properties
// @Summary      List properties
// @Description  Lists all properties attached to a client
// @Tags         properties
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  response.Response{data=[]service.PropertyResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/clients/{id}/properties [get]
func (h *ClientHandler) ListProperties(c *gin.Context) {
	properties, err := h.propertyService.ListForClient(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"))
	if err != nil {
		writeClientError(c, err, "Client not found")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, properties))
}

// GetProperty returns a single property
// @Summary      Get property
// @Description  Retrieves a property by id
// @Tags         properties
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Property ID"
// @Success      200  {object}  response.Response{data=service.PropertyResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/properties/{id} [get]
func (h *ClientHandler) GetProperty(c *gin.Context) {
	property, err := h.propertyService.GetProperty(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"))
	if err != nil {
		writeClientError(c, err, "Property not found")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, property))
}

// UpdateProperty updates a property
// @Summary      Update property
// @Description  Updates an existing property
// @Tags         properties
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Property ID"
// @Param        payload  body      service.UpdatePropertyRequest  true  "Update Property Payload"
// @Success      200      {object}  response.Response{data=service.PropertyResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/properties/{id} [put]
func (h *ClientHandler) UpdateProperty(c *gin.Context) {
	var req service.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	property, err := h.propertyService.UpdateProperty(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"), req)
	if err != nil {
		writeClientError(c, err, "Property not found")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, property))
}

// DeleteProperty deletes a property
// @Summary      Delete property
// @Description  Deletes a property from the client's record
// @Tags         properties
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Property ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/properties/{id} [delete]
func (h *ClientHandler) DeleteProperty(c *gin.Context) {
	if err := h.propertyService.DeleteProperty(c.Request.Context(), middleware.GetOrgID(c), c.Param("id")); err != nil {
		writeClientError(c, err, "Property not found")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// CreateActivity records a manual timeline entry for a client
// @Summary      Create activity
// @Description  Records a note, call or email on the client's timeline
// @Tags         activities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Client ID"
// @Param        payload  body      service.CreateActivityRequest  true  "Create Activity Payload"
// @Success      201      {object}  response.Response{data=service.ActivityResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/clients/{id}/activities [post]
func (h *ClientHandler) CreateActivity(c *gin.Context) {
	var req service.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	activity, err := h.activityService.CreateActivity(c.Request.Context(), middleware.GetOrgID(c), middleware.GetUserID(c), c.Param("id"), req)
	if err != nil {
		writeClientError(c, err, "Client not found")
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, activity))
}

// ListActivities lists a client's timeline
// @Summary      List activities
// @Description  Lists the client's timeline entries, pinned first then newest first
// @Tags         activities
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Client ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      404    {object}  response.Response
// @Router       /api/clients/{id}/activities [get]
func (h *ClientHandler) ListActivities(c *gin.Context) {
	params := pagination.Parse(c)
	activities, total, err := h.activityService.ListForClient(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		writeClientError(c, err, "Client not found")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"activities": activities,
		"pagination": pagination.NewMeta(params, total),
	}))
}

// ListClientQuotes lists quotes for one client
// @Summary      List client quotes
// @Description  Lists all quotes belonging to the client
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Client ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      404    {object}  response.Response
// @Router       /api/clients/{id}/quotes [get]
func (h *ClientHandler) ListClientQuotes(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.QuoteFilter{
		ClientID: c.Param("id"),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	quotes, total, err := h.quoteService.ListQuotes(c.Request.Context(), middleware.GetOrgID(c), filter)
	if err != nil {
		writeClientError(c, err, "Client not found")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"quotes":     quotes,
		"pagination": pagination.NewMeta(params, total),
	}))
}

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

type JobHandler struct {
	jobService service.JobService
}

func NewJobHandler(jobService service.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/api/jobs", middleware.RequireAuth())
	{
		jobs.POST("", h.CreateJob)
		jobs.GET("", h.ListJobs)
		jobs.GET("/:id", h.GetJob)
		jobs.PUT("/:id", h.UpdateJob)
		jobs.PUT("/:id/status", h.UpdateJobStatus)
		jobs.DELETE("/:id", h.DeleteJob)
	}
}

func writeJobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Job not found"))
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}

// CreateJob schedules a new job
// @Summary      Create job
// @Description  Schedules a new cleaning job for a client
// @Tags         jobs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateJobRequest  true  "Create Job Payload"
// @Success      201      {object}  response.Response{data=service.JobResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req service.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), middleware.GetOrgID(c), middleware.GetUserID(c), req)
	if err != nil {
		writeJobError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, job))
}

// ListJobs returns a paginated list of jobs
// @Summary      List jobs
// @Description  Retrieves a paginated list of jobs, optionally filtered by status
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (scheduled, in_progress, completed, cancelled)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	params := pagination.Parse(c)
	jobs, total, err := h.jobService.ListJobs(c.Request.Context(), middleware.GetOrgID(c), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"jobs":       jobs,
		"pagination": pagination.NewMeta(params, total),
	}))
}

// GetJob returns a single job
// @Summary      Get job
// @Description  Retrieves a job with its client and property
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  response.Response{data=service.JobResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobService.GetJob(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"))
	if err != nil {
		writeJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

// UpdateJob updates a job
// @Summary      Update job
// @Description  Updates an existing job's details
// @Tags         jobs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Job ID"
// @Param        payload  body      service.UpdateJobRequest  true  "Update Job Payload"
// @Success      200      {object}  response.Response{data=service.JobResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/jobs/{id} [put]
func (h *JobHandler) UpdateJob(c *gin.Context) {
	var req service.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	job, err := h.jobService.UpdateJob(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"), req)
	if err != nil {
		writeJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

type jobStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=scheduled in_progress completed cancelled"`
}

// UpdateJobStatus moves a job along its lifecycle
// @Summary      Update job status
// @Description  Changes the job's status; completed and cancelled write a timeline activity
// @Tags         jobs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Job ID"
// @Param        payload  body      jobStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response{data=service.JobResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/jobs/{id}/status [put]
func (h *JobHandler) UpdateJobStatus(c *gin.Context) {
	var req jobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	job, err := h.jobService.UpdateJobStatus(c.Request.Context(), middleware.GetOrgID(c), c.Param("id"), req.Status, middleware.GetUserID(c))
	if err != nil {
		writeJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

// DeleteJob deletes a job
// @Summary      Delete job
// @Description  Deletes a job from the schedule
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/jobs/{id} [delete]
func (h *JobHandler) DeleteJob(c *gin.Context) {
	if err := h.jobService.DeleteJob(c.Request.Context(), middleware.GetOrgID(c), c.Param("id")); err != nil {
		writeJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

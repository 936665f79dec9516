// internal/handler/job_handler.go
package handler

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"epl2-service/internal/model"
	"epl2-service/internal/service"
	"epl2-service/internal/utils"
)

// JobHandler handles decode and job HTTP requests
type JobHandler struct {
	inspectionService *service.InspectionService
	maxJobBytes       int64
	logger            *utils.ServiceLogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(inspectionService *service.InspectionService, maxJobBytes int64, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		inspectionService: inspectionService,
		maxJobBytes:       maxJobBytes,
		logger:            utils.NewServiceLogger(logger, "job-handler"),
	}
}

// RegisterRoutes registers job routes
func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/decode", h.DecodeJob)

	jobs := router.Group("/jobs")
	{
		jobs.POST("", h.InspectJob)
		jobs.GET("", h.ListJobs)
		jobs.GET("/stats", h.GetJobStats)

		jobRoutes := jobs.Group("/:job_id")
		{
			jobRoutes.GET("", h.GetJob)
			jobRoutes.DELETE("", h.DeleteJob)
			jobRoutes.GET("/report.pdf", h.GetJobReport)
			jobRoutes.POST("/forward", h.ForwardJob)
		}
	}
}

// PaginationResult describes one page of a list
type PaginationResult struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// DecodeJob decodes a job without storing it
// @Summary Decode EPL2 job
// @Description Decode the raw request body as an EPL2 command stream and return the report. Pass items=true to include every decoded item.
// @Tags Decode
// @Accept octet-stream
// @Produce json
// @Param items query bool false "Include decoded items" default(false)
// @Success 200 {object} utils.APIResponse{data=DecodeResponse} "Job decoded"
// @Failure 400 {object} utils.APIResponse "Empty body"
// @Failure 413 {object} utils.APIResponse "Job too large"
// @Router /decode [post]
func (h *JobHandler) DecodeJob(c *gin.Context) {
	data, ok := h.readBody(c)
	if !ok {
		return
	}

	analysis, err := h.inspectionService.Decode(data)
	if err != nil {
		h.handleServiceError(c, "Failed to decode job", err)
		return
	}

	response := DecodeResponse{
		Status: analysis.Status(),
		Report: analysis.Report,
	}
	if c.Query("items") == "true" {
		response.Items = make([]ItemView, 0, len(analysis.Items))
		for _, item := range analysis.Items {
			response.Items = append(response.Items, NewItemView(item))
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Job decoded", response)
}

// InspectJob decodes a job and stores it with its report
// @Summary Submit job
// @Description Decode the raw request body as an EPL2 command stream and store the job for later retrieval and forwarding
// @Tags Jobs
// @Accept octet-stream
// @Produce json
// @Param name query string false "Job name"
// @Success 201 {object} utils.APIResponse{data=model.PrintJob} "Job stored"
// @Failure 400 {object} utils.APIResponse "Empty body"
// @Failure 413 {object} utils.APIResponse "Job too large"
// @Router /jobs [post]
func (h *JobHandler) InspectJob(c *gin.Context) {
	data, ok := h.readBody(c)
	if !ok {
		return
	}

	source := c.GetHeader("X-Job-Source")
	if source == "" {
		source = c.ClientIP()
	}

	job, err := h.inspectionService.Inspect(c.Request.Context(), &service.InspectRequest{
		Name:   c.Query("name"),
		Source: source,
		Data:   data,
	})
	if err != nil {
		h.handleServiceError(c, "Failed to inspect job", err)
		return
	}

	h.logger.Info("Job stored",
		zap.String("job_id", job.ID.String()),
		zap.String("status", string(job.Status)),
	)
	utils.SuccessResponse(c, http.StatusCreated, "Job stored", job)
}

// ListJobs lists stored jobs
// @Summary List jobs
// @Description List stored jobs, newest first
// @Tags Jobs
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status" Enums(DECODED, PARTIAL, FAILED, FORWARDED)
// @Param since query string false "Only jobs created at or after this RFC3339 time"
// @Success 200 {object} utils.APIResponse{data=object{jobs=[]model.PrintJob,pagination=PaginationResult}} "Jobs retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid filter"
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	page, perPage := 1, 20
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if pp, err := strconv.Atoi(c.Query("per_page")); err == nil && pp > 0 && pp <= 100 {
		perPage = pp
	}

	filter := &model.JobFilter{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}

	if status := c.Query("status"); status != "" {
		s := model.JobStatus(status)
		switch s {
		case model.JobStatusDecoded, model.JobStatusPartial, model.JobStatusFailed, model.JobStatusForwarded:
			filter.Status = &s
		default:
			utils.ValidationErrorResponse(c, map[string]string{"status": "unknown job status"})
			return
		}
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			utils.ValidationErrorResponse(c, map[string]string{"since": "must be an RFC3339 time"})
			return
		}
		filter.Since = &t
	}

	jobs, total, err := h.inspectionService.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.handleServiceError(c, "Failed to list jobs", err)
		return
	}
	if jobs == nil {
		jobs = []*model.PrintJob{}
	}

	utils.SuccessResponse(c, http.StatusOK, "Jobs retrieved", gin.H{
		"jobs": jobs,
		"pagination": PaginationResult{
			Total:      total,
			Page:       page,
			PerPage:    perPage,
			TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
		},
	})
}

// GetJob returns a stored job with its report
// @Summary Get job
// @Tags Jobs
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} utils.APIResponse{data=model.PrintJob} "Job retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid job ID"
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Router /jobs/{job_id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}

	job, err := h.inspectionService.GetJob(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, "Failed to get job", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job retrieved", job)
}

// DeleteJob removes a stored job
// @Summary Delete job
// @Tags Jobs
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} utils.APIResponse "Job deleted"
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Router /jobs/{job_id} [delete]
func (h *JobHandler) DeleteJob(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}

	if err := h.inspectionService.DeleteJob(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, "Failed to delete job", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job deleted", nil)
}

// GetJobReport renders the job report as PDF
// @Summary Job report
// @Description Render the job's decode report, diagnostics and graphics previews as a PDF document
// @Tags Jobs
// @Produce application/pdf
// @Param job_id path string true "Job ID"
// @Success 200 {file} binary "PDF report"
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Router /jobs/{job_id}/report.pdf [get]
func (h *JobHandler) GetJobReport(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}

	data, err := h.inspectionService.ReportPDF(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, "Failed to render report", err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="job-`+id.String()+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// ForwardJob sends the job's decoded commands to a printer
// @Summary Forward job
// @Description Re-encode the job's decoded commands and write them to a serial, USB or TCP printer. Commands that failed to decode are not sent.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param job_id path string true "Job ID"
// @Param target body model.PrinterTarget true "Printer target"
// @Success 200 {object} utils.APIResponse{data=service.ForwardResult} "Job forwarded"
// @Failure 400 {object} utils.APIResponse "Invalid target"
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Failure 422 {object} utils.APIResponse "Nothing to forward"
// @Failure 502 {object} utils.APIResponse "Printer unreachable"
// @Router /jobs/{job_id}/forward [post]
func (h *JobHandler) ForwardJob(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}

	var target model.PrinterTarget
	if err := c.ShouldBindJSON(&target); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := target.Validate(); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid printer target", err)
		return
	}

	result, err := h.inspectionService.Forward(c.Request.Context(), id, target)
	if err != nil {
		h.handleServiceError(c, "Failed to forward job", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job forwarded", result)
}

// GetJobStats returns aggregate job counts
// @Summary Job statistics
// @Tags Jobs
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.JobStats} "Statistics retrieved"
// @Router /jobs/stats [get]
func (h *JobHandler) GetJobStats(c *gin.Context) {
	stats, err := h.inspectionService.GetStats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, "Failed to get job statistics", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved", stats)
}

// readBody reads the raw job, capped one byte past the limit so oversize
// bodies are detected without buffering them whole
func (h *JobHandler) readBody(c *gin.Context) ([]byte, bool) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxJobBytes+1))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read request body", err)
		return nil, false
	}
	if len(data) == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Request body is empty", service.ErrEmptyJob)
		return nil, false
	}
	return data, true
}

func parseJobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid job ID", err)
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps service errors to HTTP status codes
func (h *JobHandler) handleServiceError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Job not found", err)
	case errors.Is(err, service.ErrJobTooLarge):
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Job too large", err)
	case errors.Is(err, service.ErrEmptyJob), errors.Is(err, service.ErrInvalidTarget):
		utils.ErrorResponse(c, http.StatusBadRequest, message, err)
	case errors.Is(err, service.ErrNothingToForward):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, message, err)
	case errors.Is(err, service.ErrPrinterUnreachable):
		h.logger.Warn(message, zap.Error(err), zap.String("request_id", utils.GetRequestID(c)))
		utils.ErrorResponse(c, http.StatusBadGateway, "Printer unreachable", err)
	default:
		h.logger.Error(message, zap.Error(err), zap.String("request_id", utils.GetRequestID(c)))
		utils.ErrorResponse(c, http.StatusInternalServerError, message, err)
	}
}

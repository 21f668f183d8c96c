package http

import (
	"errors"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"audiopress/internal/domain"
	"audiopress/internal/usecase"
)

// downloadsBasePath is where the router serves finished artifacts from.
const downloadsBasePath = "/downloads"

// JobHandler handles HTTP requests for conversion jobs.
type JobHandler struct {
	submitUC *usecase.SubmitJobUsecase
	getJobUC *usecase.GetJobUsecase
	logger   *zap.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(submitUC *usecase.SubmitJobUsecase, getJobUC *usecase.GetJobUsecase, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		submitUC: submitUC,
		getJobUC: getJobUC,
		logger:   logger,
	}
}

// Submit handles POST /api/v1/jobs
func (h *JobHandler) Submit(c *gin.Context) {
	var req domain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	resp, err := h.submitUC.Execute(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrQueueFull):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			h.logger.Error("submit job failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// GetByID handles GET /api/v1/jobs/:id
func (h *JobHandler) GetByID(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	job, err := h.getJobUC.Execute(c.Request.Context(), id)
	if err != nil {
		h.renderLookupError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetResult handles GET /api/v1/jobs/:id/result. It only hands out an
// artifact reference once the job is DONE; before that the current state is
// returned with no reference.
func (h *JobHandler) GetResult(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	job, err := h.getJobUC.Execute(c.Request.Context(), id)
	if err != nil {
		h.renderLookupError(c, id, err)
		return
	}

	resp := domain.ResultResponse{
		JobID:         job.ID,
		Status:        string(job.State),
		FailureReason: job.FailureReason,
	}
	if job.State == domain.StateDone {
		// Artifacts are named by job ID, so the public reference derives
		// from the stored path without any secondary lookup.
		resp.DownloadURL = downloadsBasePath + "/" + path.Base(job.ResultPath)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *JobHandler) jobID(c *gin.Context) (string, bool) {
	idStr := c.Param("id")
	if _, err := uuid.Parse(idStr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return "", false
	}
	return idStr, true
}

func (h *JobHandler) renderLookupError(c *gin.Context, id string, err error) {
	if errors.Is(err, domain.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	h.logger.Error("get job failed", zap.Error(err), zap.String("job_id", id))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

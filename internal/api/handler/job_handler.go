package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuongbtq/ecourts-causelist/internal/api/domain"
	"github.com/cuongbtq/ecourts-causelist/internal/api/dto"
	"github.com/cuongbtq/ecourts-causelist/internal/api/model"
	"github.com/cuongbtq/ecourts-causelist/internal/api/storage"
	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// DownloadCauseList handles POST /api/download-causelist
// Records a job and queues it for the worker.
func (h *Handler) DownloadCauseList(c *gin.Context) {
	var req dto.DownloadCauseListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg, isValidation := dto.BindingMessage(err)
		if !isValidation {
			h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
			fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		fail(c, http.StatusOK, msg)
		return
	}

	if req.CourtName == "" {
		req.CourtName = causelist.AllCourts
	}

	now := time.Now().UTC()
	job := model.Job{
		JobID:        uuid.New().String(),
		State:        req.State,
		District:     req.District,
		CourtComplex: req.CourtComplex,
		CourtName:    req.CourtName,
		CauseDate:    req.Date,
		Status:       domain.JobStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx := c.Request.Context()
	if err := h.store.CreateJob(ctx, &job); err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		fail(c, http.StatusInternalServerError, "Failed to create job")
		return
	}

	body, err := json.Marshal(dto.JobMessage{JobID: job.JobID})
	if err == nil {
		err = h.publisher.Publish(ctx, body, "application/json")
	}
	if err != nil {
		h.logger.Error("Failed to publish job",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		if markErr := h.store.MarkFailed(ctx, job.JobID, domain.MsgQueueFailed); markErr != nil {
			h.logger.Error("Failed to mark unqueued job",
				slog.String("job_id", job.JobID),
				slog.String("error", markErr.Error()),
			)
		}
		fail(c, http.StatusOK, domain.MsgQueueFailed)
		return
	}

	h.logger.Info("Cause list job queued",
		slog.String("job_id", job.JobID),
		slog.String("state", job.State),
		slog.String("district", job.District),
		slog.String("court_complex", job.CourtComplex),
		slog.String("date", job.CauseDate),
	)

	ok(c, dto.JobQueuedResponse{JobID: job.JobID})
}

// Status handles GET /api/status
// Reports the most recently submitted job.
func (h *Handler) Status(c *gin.Context) {
	job, err := h.store.LatestJob(c.Request.Context())
	if errors.Is(err, domain.ErrJobNotFound) {
		c.JSON(http.StatusOK, dto.StatusResponse{Status: domain.StatusIdle, Message: "No download requested"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get latest job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status"})
		return
	}

	resp, err := statusOf(job)
	if err != nil {
		h.logger.Error("Failed to read job result",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// statusOf maps a stored job onto the status the form polls for.
func statusOf(job *model.Job) (dto.StatusResponse, error) {
	switch job.Status {
	case domain.JobStatusPending:
		return dto.StatusResponse{Status: string(causelist.StatusRunning), Message: domain.MsgWaiting}, nil
	case domain.JobStatusRunning:
		msg := job.Step
		if msg == "" {
			msg = domain.MsgWaiting
		}
		return dto.StatusResponse{Status: string(causelist.StatusRunning), Message: msg}, nil
	case domain.JobStatusCompleted:
		result, err := job.DecodeResult()
		if err != nil {
			return dto.StatusResponse{}, err
		}
		if result == nil {
			result = &causelist.JobResult{Success: false, Error: "Job finished without a result"}
		}
		msg := result.Message
		if !result.Success {
			msg = result.Error
		}
		return dto.StatusResponse{Status: string(causelist.StatusCompleted), Message: msg, Data: result}, nil
	default:
		return dto.StatusResponse{Status: string(causelist.StatusError), Message: job.ErrorMessage}, nil
	}
}

// ListJobs handles GET /api/jobs
// Lists job history newest first with cursor pagination.
func (h *Handler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.logger.Warn("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	jobs, err := h.store.ListJobs(c.Request.Context(), storage.JobFilter{
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	resp := dto.ListJobsResponse{Jobs: make([]dto.JobDTO, 0, len(jobs))}
	for i := range jobs {
		resp.Jobs = append(resp.Jobs, h.jobDTO(&jobs[i]))
	}

	if hasMore {
		last := jobs[len(jobs)-1]
		resp.NextCursor = EncodeJobCursor(storage.JobCursor{CreatedAt: last.CreatedAt, JobID: last.JobID})
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) jobDTO(job *model.Job) dto.JobDTO {
	out := dto.JobDTO{
		JobID:        job.JobID,
		State:        job.State,
		District:     job.District,
		CourtComplex: job.CourtComplex,
		CourtName:    job.CourtName,
		Date:         job.CauseDate,
		Status:       job.Status,
		Step:         job.Step,
		Error:        job.ErrorMessage,
		CreatedAt:    job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    job.UpdatedAt.Format(time.RFC3339),
	}
	result, err := job.DecodeResult()
	if err != nil {
		h.logger.Warn("Skipping unreadable job result",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
	}
	out.Result = result
	return out
}

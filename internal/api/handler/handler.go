package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/ecourts-causelist/internal/api/dto"
	"github.com/cuongbtq/ecourts-causelist/internal/api/model"
	"github.com/cuongbtq/ecourts-causelist/internal/api/storage"
	"github.com/cuongbtq/ecourts-causelist/internal/directory"
)

// JobStore persists cause-list jobs.
type JobStore interface {
	CreateJob(ctx context.Context, job *model.Job) error
	LatestJob(ctx context.Context) (*model.Job, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error)
	MarkFailed(ctx context.Context, jobID, message string) error
}

// JobPublisher hands job messages to the worker queue.
type JobPublisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Store        JobStore
	Publisher    JobPublisher
	Directory    directory.Source
	DownloadsDir string
	ServiceName  string
	// HealthCheck reports database reachability; nil skips the check.
	HealthCheck func(ctx context.Context) error
}

// Handler serves the cause-list HTTP API.
type Handler struct {
	logger       *slog.Logger
	store        JobStore
	publisher    JobPublisher
	directory    directory.Source
	downloadsDir string
	serviceName  string
	healthCheck  func(ctx context.Context) error
}

func NewHandler(deps *Dependencies) *Handler {
	return &Handler{
		logger:       deps.Logger,
		store:        deps.Store,
		publisher:    deps.Publisher,
		directory:    deps.Directory,
		downloadsDir: deps.DownloadsDir,
		serviceName:  deps.ServiceName,
		healthCheck:  deps.HealthCheck,
	}
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	if h.healthCheck != nil {
		if err := h.healthCheck(c.Request.Context()); err != nil {
			h.logger.Warn("Health check failed", slog.String("error", err.Error()))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": h.serviceName,
				"error":   err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.serviceName,
	})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.Envelope{Success: true, Data: data})
}

// fail answers with a failed envelope. Domain failures use 200 so the form
// reads the error text from the body.
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, dto.Envelope{Success: false, Error: message})
}

package router

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/ecourts-causelist/internal/api/dto"
	"github.com/cuongbtq/ecourts-causelist/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) (*gin.Engine, error) {
	if err := dto.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	r := gin.New()
	// Hierarchy names may contain an encoded "/".
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	h := handler.NewHandler(deps)

	r.GET("/health", h.Health)
	r.GET("/download/:filename", h.DownloadFile)

	api := r.Group("/api")
	{
		api.GET("/states", h.States)
		api.GET("/districts/:state", h.Districts)
		api.GET("/court-complexes/:state/:district", h.CourtComplexes)
		api.GET("/courts/:state/:district/:complex", h.Courts)

		api.POST("/download-causelist", h.DownloadCauseList)
		api.GET("/status", h.Status)
		api.GET("/jobs", h.ListJobs)
	}

	return r, nil
}

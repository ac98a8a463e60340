package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
	"github.com/cuongbtq/ecourts-causelist/internal/directory"
)

// hierarchyParams names the path parameters of each level's route, top-down.
var hierarchyParams = []string{"state", "district", "complex"}

// States handles GET /api/states
func (h *Handler) States(c *gin.Context) {
	h.hierarchy(c, causelist.LevelState)
}

// Districts handles GET /api/districts/:state
func (h *Handler) Districts(c *gin.Context) {
	h.hierarchy(c, causelist.LevelDistrict)
}

// CourtComplexes handles GET /api/court-complexes/:state/:district
func (h *Handler) CourtComplexes(c *gin.Context) {
	h.hierarchy(c, causelist.LevelCourtComplex)
}

// Courts handles GET /api/courts/:state/:district/:complex
func (h *Handler) Courts(c *gin.Context) {
	h.hierarchy(c, causelist.LevelCourt)
}

func (h *Handler) hierarchy(c *gin.Context, level causelist.Level) {
	parents := make([]string, 0, int(level))
	for _, name := range hierarchyParams[:level] {
		parents = append(parents, c.Param(name))
	}

	entries, err := h.directory.Lookup(c.Request.Context(), level, parents)
	if err != nil {
		h.logger.Error("Hierarchy lookup failed",
			slog.String("level", level.String()),
			slog.Any("parents", parents),
			slog.String("error", err.Error()),
		)
		fail(c, http.StatusOK, err.Error())
		return
	}

	if entries == nil {
		entries = []directory.Entry{}
	}
	ok(c, entries)
}

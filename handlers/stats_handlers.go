package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ivytime/site/store"
	"ivytime/site/utils"
)

type StatsHandlers struct {
	AnalyticsStore *store.AnalyticsStore
}

func NewStatsHandlers(s *store.AnalyticsStore) *StatsHandlers {
	return &StatsHandlers{AnalyticsStore: s}
}

// GetPath returns the aggregate counters for one path, looked up by its
// path string: GET /api/stats/path?path=/x
func (h *StatsHandlers) GetPath(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path query parameter is required"})
		return
	}

	p, err := h.AnalyticsStore.PathByPath(c.Request.Context(), path)
	if err != nil {
		if errors.Is(err, store.ErrPathNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Path not found"})
			return
		}
		logrus.WithError(err).Error("Failed to get path stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve path statistics"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// GetPathByID returns the aggregate counters for one path by identity:
// GET /api/stats/paths/:id
func (h *StatsHandlers) GetPathByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid path id"})
		return
	}

	p, err := h.AnalyticsStore.PathByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrPathNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Path not found"})
			return
		}
		logrus.WithError(err).Error("Failed to get path stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve path statistics"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// ListPaths returns one page of paths ordered by total requests:
// GET /api/stats/paths?page=1&pageSize=15
func (h *StatsHandlers) ListPaths(c *gin.Context) {
	page := 1
	if v := c.Query("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'page' parameter. Must be a positive integer."})
			return
		}
		page = parsed
	}

	pageSize := 15
	if v := c.Query("pageSize"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'pageSize' parameter. Must be a positive integer."})
			return
		}
		pageSize = parsed
	}

	pageResult, err := h.AnalyticsStore.ListPaths(c.Request.Context(), pageSize, page)
	if err != nil {
		logrus.WithError(err).Error("Failed to list paths")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve path listing"})
		return
	}

	c.JSON(http.StatusOK, pageResult)
}

// TopPaths returns the most-visited paths by unique visitors:
// GET /api/stats/paths/top?limit=10
func (h *StatsHandlers) TopPaths(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsed
	}

	rows, err := h.AnalyticsStore.TopPaths(c.Request.Context(), limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to list top paths")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve top paths"})
		return
	}

	c.JSON(http.StatusOK, rows)
}

// GetGraph returns the time-bucketed series for one path:
// GET /api/stats/paths/:id/graph?preset=halfhour|day|month
func (h *StatsHandlers) GetGraph(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid path id"})
		return
	}

	presetName := c.DefaultQuery("preset", "day")
	preset, ok := utils.PresetByName(presetName)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'preset' parameter. Use 'halfhour', 'day' or 'month'."})
		return
	}

	series, err := h.AnalyticsStore.Series(c.Request.Context(), id, preset)
	if err != nil {
		if errors.Is(err, store.ErrPathNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Path not found"})
			return
		}
		logrus.WithError(err).Error("Failed to build graph series")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve graph"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pathId":  id,
		"preset":  preset.Name,
		"buckets": series,
	})
}

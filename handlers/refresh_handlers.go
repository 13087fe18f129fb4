package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ivytime/site/content"
)

type RefreshHandlers struct {
	Refresher *content.Refresher
}

func NewRefreshHandlers(r *content.Refresher) *RefreshHandlers {
	return &RefreshHandlers{Refresher: r}
}

// Refresh pulls the latest site content: POST /refresh (operator only).
func (h *RefreshHandlers) Refresh(c *gin.Context) {
	if err := h.Refresher.Refresh(c.Request.Context()); err != nil {
		logrus.WithError(err).Error("Content refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh site content"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Site content refreshed"})
}

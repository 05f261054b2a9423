package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasknexus/server/internal/dto"
	"github.com/tasknexus/server/internal/services"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
	log       *zap.Logger
}

func NewAnalyticsHandler(analytics *services.AnalyticsService, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		log:       log,
	}
}

// Dashboard returns the task and project counters for the current user.
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summary, err := h.analytics.DashboardSummary(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.log, "dashboard query failed", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDashboardDTO(summary))
}

// Weekly returns seven daily points, oldest first.
func (h *AnalyticsHandler) Weekly(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	series, err := h.analytics.WeeklySeries(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.log, "weekly series query failed", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDayActivityDTOs(series))
}

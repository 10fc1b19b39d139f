package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moneshrallapalli/sentinel/internal/datastore/repository"
	"github.com/moneshrallapalli/sentinel/internal/errors"
	"github.com/moneshrallapalli/sentinel/internal/logger"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 200
)

// initAlertRoutes registers the alert endpoints.
func (c *Controller) initAlertRoutes() {
	alerts := c.Group.Group("/alerts")
	alerts.GET("", c.ListAlerts)
	alerts.GET("/unread/count", c.UnreadAlertCount)
	alerts.GET("/:id", c.GetAlert)
	alerts.POST("/:id/acknowledge", c.AcknowledgeAlert)
}

// ListAlerts returns persisted alerts, newest first, optionally filtered.
func (c *Controller) ListAlerts(ctx echo.Context) error {
	if c.alertRepo == nil {
		return c.requirePersistence(ctx)
	}

	filter := repository.AlertFilter{
		Severity: ctx.QueryParam("severity"),
		CameraID: ctx.QueryParam("camera_id"),
		Limit:    defaultAlertLimit,
	}
	if ctx.QueryParam("unread") == "true" {
		filter.UnreadOnly = true
	}
	if limitParam := ctx.QueryParam("limit"); limitParam != "" {
		v, err := strconv.Atoi(limitParam)
		if err == nil && v > 0 {
			if v > maxAlertLimit {
				v = maxAlertLimit
			}
			filter.Limit = v
		}
	}
	if offsetParam := ctx.QueryParam("offset"); offsetParam != "" {
		v, err := strconv.Atoi(offsetParam)
		if err == nil && v >= 0 {
			filter.Offset = v
		}
	}

	alerts, total, err := c.alertRepo.ListAlerts(ctx.Request().Context(), filter)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list alerts", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"alerts": alerts,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetAlert returns one alert by id.
func (c *Controller) GetAlert(ctx echo.Context) error {
	if c.alertRepo == nil {
		return c.requirePersistence(ctx)
	}

	alert, err := c.alertRepo.GetAlert(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
		}
		return c.HandleError(ctx, err, "Failed to get alert", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, alert)
}

// AcknowledgeAlert marks an alert read and records the operator response
// time. Acknowledging an already-read alert is a no-op.
func (c *Controller) AcknowledgeAlert(ctx echo.Context) error {
	if c.alertRepo == nil {
		return c.requirePersistence(ctx)
	}

	id := ctx.Param("id")
	alert, err := c.alertRepo.Acknowledge(ctx.Request().Context(), id, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
		}
		return c.HandleError(ctx, err, "Failed to acknowledge alert", http.StatusInternalServerError)
	}

	c.log.Info("alert acknowledged",
		logger.String("alert_id", id),
		logger.Float64("response_time_seconds", alert.ResponseTimeSeconds))

	c.notifier.SendSystemMessage("alert_acknowledged", map[string]any{
		"alert_id":              alert.ID,
		"response_time_seconds": alert.ResponseTimeSeconds,
	})

	return ctx.JSON(http.StatusOK, alert)
}

// UnreadAlertCount returns the number of unacknowledged alerts.
func (c *Controller) UnreadAlertCount(ctx echo.Context) error {
	if c.alertRepo == nil {
		return c.requirePersistence(ctx)
	}

	count, err := c.alertRepo.CountUnread(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to count unread alerts", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]int64{"unread": count})
}

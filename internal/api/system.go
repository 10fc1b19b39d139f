package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/moneshrallapalli/sentinel/internal/logger"
	"github.com/moneshrallapalli/sentinel/internal/notification"
)

// initSystemRoutes registers health, connection stats, events, and metrics.
func (c *Controller) initSystemRoutes() {
	system := c.Group.Group("/system")
	system.GET("/health", c.Health)
	system.GET("/connections", c.ConnectionStats)

	c.Group.GET("/cameras/:id/events", c.RecentCameraEvents)

	c.Echo.GET("/metrics", echo.WrapHandler(c.metricsHandler))
}

// Health reports process health: worker state, subscriber counts, and
// host resource usage.
func (c *Controller) Health(ctx echo.Context) error {
	status := "ok"
	if !notification.IsWorkerActive() {
		status = "degraded"
	}

	resources := map[string]any{}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		resources["cpu_percent"] = percents[0]
	} else if err != nil {
		c.log.Debug("cpu stats unavailable", logger.Error(err))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resources["memory_percent"] = vm.UsedPercent
		resources["memory_used_mb"] = vm.Used / 1024 / 1024
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"status":         status,
		"worker_active":  notification.IsWorkerActive(),
		"uptime_seconds": int64(time.Since(c.startTime).Seconds()),
		"cameras":        c.settings.Monitor.Cameras,
		"active_tasks":   len(c.registry.ActiveTasks()),
		"connections":    c.notifier.Stats(),
		"resources":      resources,
	})
}

// ConnectionStats reports per-channel subscriber counts and delivery totals.
func (c *Controller) ConnectionStats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"channels": c.notifier.Stats(),
	})
}

// RecentCameraEvents returns the latest persisted events for a camera.
func (c *Controller) RecentCameraEvents(ctx echo.Context) error {
	if c.eventRepo == nil {
		return c.requirePersistence(ctx)
	}

	limit := 20
	if limitParam := ctx.QueryParam("limit"); limitParam != "" {
		if v, err := strconv.Atoi(limitParam); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	events, err := c.eventRepo.RecentEvents(ctx.Request().Context(), ctx.Param("id"), limit)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list events", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

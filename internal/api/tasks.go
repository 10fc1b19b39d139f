package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moneshrallapalli/sentinel/internal/datastore/entities"
	"github.com/moneshrallapalli/sentinel/internal/logger"
	"github.com/moneshrallapalli/sentinel/internal/monitor"
)

// persistTimeout bounds each best-effort audit write.
const persistTimeout = 3 * time.Second

// initTaskRoutes registers command and task endpoints.
func (c *Controller) initTaskRoutes() {
	c.Group.POST("/command", c.SubmitCommand)

	tasks := c.Group.Group("/tasks")
	tasks.GET("", c.ListTasks)
	tasks.GET("/active", c.ListActiveTasks)
	tasks.POST("/:id/stop", c.StopTask)
}

// commandRequest is the body of POST /command.
type commandRequest struct {
	Command string `json:"command"`
}

// SubmitCommand interprets a natural-language command and creates a
// monitoring task from it. Interpretation prefers the external service
// and falls back to the keyword interpreter on failure, so command
// submission keeps working when the service is down.
func (c *Controller) SubmitCommand(ctx echo.Context) error {
	var req commandRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Command) == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Command is required"})
	}

	reqCtx := ctx.Request().Context()

	spec, err := c.interpretCommand(reqCtx, req.Command)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to interpret command", http.StatusUnprocessableEntity)
	}

	task := c.registry.Create(spec)

	c.saveTaskAudit(task)
	c.notifier.SendSystemMessage("task_created", task)

	c.log.Info("monitoring task created",
		logger.String("task_id", task.ID),
		logger.String("query_type", task.QueryType),
		logger.String("target", task.Target))

	return ctx.JSON(http.StatusCreated, map[string]any{
		"task":         task,
		"confirmation": spec.Confirmation,
	})
}

// interpretCommand runs the primary interpreter with keyword fallback.
func (c *Controller) interpretCommand(ctx context.Context, command string) (monitor.TaskSpec, error) {
	if c.interp != nil {
		spec, err := c.interp.Interpret(ctx, command)
		if err == nil {
			return spec, nil
		}
		c.log.Warn("external interpreter failed, using keyword fallback",
			logger.Error(err))
	}
	return c.fallback.Interpret(ctx, command)
}

// ListTasks returns all tasks, stopped included, in creation order.
func (c *Controller) ListTasks(ctx echo.Context) error {
	tasks := c.registry.AllTasks()
	return ctx.JSON(http.StatusOK, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// ListActiveTasks returns only active tasks.
func (c *Controller) ListActiveTasks(ctx echo.Context) error {
	tasks := c.registry.ActiveTasks()
	return ctx.JSON(http.StatusOK, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// StopTask transitions a task to stopped. The task, its baseline, and its
// alerts are retained.
func (c *Controller) StopTask(ctx echo.Context) error {
	id := ctx.Param("id")
	if !c.registry.Stop(id) {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Task not found"})
	}

	task := c.registry.Get(id)

	if c.taskRepo != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		stoppedAt := task.StoppedAt
		if err := c.taskRepo.UpdateTaskStatus(saveCtx, id, task.Status, &stoppedAt); err != nil {
			c.log.Warn("failed to persist task stop", logger.Error(err))
		}
	}

	c.notifier.SendSystemMessage("task_stopped", task)
	c.log.Info("monitoring task stopped", logger.String("task_id", id))

	return ctx.JSON(http.StatusOK, task)
}

// saveTaskAudit persists the task record best-effort.
func (c *Controller) saveTaskAudit(task *monitor.Task) {
	if c.taskRepo == nil {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := c.taskRepo.SaveTask(saveCtx, &entities.MonitorTask{
		ID:               task.ID,
		Status:           task.Status,
		QueryText:        task.QueryText,
		QueryType:        task.QueryType,
		Target:           task.Target,
		RequiresBaseline: task.RequiresBaseline,
		TargetCameras:    strings.Join(task.TargetCameras, ","),
		CreatedAt:        task.CreatedAt,
	})
	if err != nil {
		c.log.Warn("failed to persist task", logger.Error(err))
	}
}

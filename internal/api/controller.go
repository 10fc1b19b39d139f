// Package api exposes the REST and WebSocket surface: alert queries and
// acknowledgement, command submission, task lifecycle, live streaming
// channels, and system health.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moneshrallapalli/sentinel/internal/conf"
	"github.com/moneshrallapalli/sentinel/internal/datastore/repository"
	"github.com/moneshrallapalli/sentinel/internal/interpreter"
	"github.com/moneshrallapalli/sentinel/internal/logger"
	"github.com/moneshrallapalli/sentinel/internal/monitor"
	"github.com/moneshrallapalli/sentinel/internal/notification"
)

// Controller holds the HTTP surface's dependencies and registers its
// routes on an Echo instance.
type Controller struct {
	Echo  *echo.Echo
	Group *echo.Group

	settings  *conf.Settings
	log       logger.Logger
	registry  *monitor.Registry
	baselines *monitor.BaselineTracker
	notifier  *notification.Service

	// interp is the primary command interpreter (external service);
	// fallback handles commands when interp is unset or fails.
	interp   interpreter.Interpreter
	fallback interpreter.Interpreter

	// Repositories are nil when persistence is disabled; endpoints that
	// need them answer 503 in that case.
	alertRepo repository.AlertRepository
	eventRepo repository.EventRepository
	taskRepo  repository.TaskRepository

	metricsHandler http.Handler
	startTime      time.Time
}

// Deps bundles everything the controller needs.
type Deps struct {
	Settings  *conf.Settings
	Log       logger.Logger
	Registry  *monitor.Registry
	Baselines *monitor.BaselineTracker
	Notifier  *notification.Service

	Interpreter         interpreter.Interpreter
	FallbackInterpreter interpreter.Interpreter

	AlertRepo repository.AlertRepository
	EventRepo repository.EventRepository
	TaskRepo  repository.TaskRepository
}

// New creates the controller and registers all routes.
func New(e *echo.Echo, deps Deps) *Controller {
	fallback := deps.FallbackInterpreter
	if fallback == nil {
		fallback = interpreter.NewKeywordInterpreter()
	}

	c := &Controller{
		Echo:           e,
		settings:       deps.Settings,
		log:            deps.Log,
		registry:       deps.Registry,
		baselines:      deps.Baselines,
		notifier:       deps.Notifier,
		interp:         deps.Interpreter,
		fallback:       fallback,
		alertRepo:      deps.AlertRepo,
		eventRepo:      deps.EventRepo,
		taskRepo:       deps.TaskRepo,
		metricsHandler: promhttp.Handler(),
		startTime:      time.Now(),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	c.Group = e.Group("/api/v1")
	c.initAlertRoutes()
	c.initTaskRoutes()
	c.initSystemRoutes()
	e.GET("/ws/:channel", c.StreamChannel)

	return c
}

// HandleError logs an error and returns a JSON error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, status int) error {
	c.log.Error(message, logger.Error(err))
	return ctx.JSON(status, map[string]string{"error": message})
}

// requirePersistence answers 503 when the datastore is disabled.
func (c *Controller) requirePersistence(ctx echo.Context) error {
	return ctx.JSON(http.StatusServiceUnavailable,
		map[string]string{"error": "Persistence is disabled"})
}

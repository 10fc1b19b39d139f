//go:build integration

// Integration tests for the repositories against a real MySQL instance
// managed by testcontainers.
package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moneshrallapalli/sentinel/internal/datastore"
	"github.com/moneshrallapalli/sentinel/internal/datastore/entities"
	"github.com/moneshrallapalli/sentinel/internal/datastore/repository"
	"github.com/moneshrallapalli/sentinel/internal/testutil/containers"
)

var (
	mysqlContainer *containers.MySQLContainer
	testDB         *gorm.DB
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	mysqlContainer, err = containers.NewMySQLContainer(ctx, nil)
	if err != nil {
		panic("failed to create MySQL container: " + err.Error())
	}

	// Every exit path below must tear the container down exactly once.
	terminate := containers.NewCleanupOnce(func() error {
		return mysqlContainer.Terminate(context.Background())
	})

	testDB, err = gorm.Open(gormmysql.Open(mysqlContainer.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		_ = terminate.Do()
		panic("failed to open gorm connection: " + err.Error())
	}

	if err := datastore.Migrate(testDB); err != nil {
		_ = terminate.Do()
		panic("failed to migrate schema: " + err.Error())
	}

	code := m.Run()

	_ = terminate.Do()
	os.Exit(code)
}

func resetDatabase(t *testing.T) {
	t.Helper()
	err := mysqlContainer.Reset(t.Context(), []string{
		"alerts", "events", "detections", "monitor_tasks", "baseline_states", "system_logs",
	})
	require.NoError(t, err, "failed to reset database")
}

func newAlert(severity string, createdAt time.Time) *entities.Alert {
	return &entities.Alert{
		ID:        uuid.NewString(),
		Severity:  severity,
		Kind:      "immediate",
		Title:     "Task alert: scissors",
		Message:   "scissors visible on the desk",
		CameraID:  "cam-1",
		CreatedAt: createdAt,
	}
}

func TestMySQL_AlertSaveAndGet(t *testing.T) {
	resetDatabase(t)
	repo := repository.NewAlertRepository(testDB)
	ctx := t.Context()

	alert := newAlert("WARNING", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, repo.SaveAlert(ctx, alert))

	got, err := repo.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.Title, got.Title)
	assert.False(t, got.IsRead)

	_, err = repo.GetAlert(ctx, "no-such-id")
	assert.ErrorIs(t, err, repository.ErrAlertNotFound)
}

func TestMySQL_AlertAcknowledgeIdempotent(t *testing.T) {
	resetDatabase(t)
	repo := repository.NewAlertRepository(testDB)
	ctx := t.Context()

	created := time.Now().UTC().Truncate(time.Second)
	alert := newAlert("CRITICAL", created)
	require.NoError(t, repo.SaveAlert(ctx, alert))

	ackAt := created.Add(30 * time.Second)
	acked, err := repo.Acknowledge(ctx, alert.ID, ackAt)
	require.NoError(t, err)
	assert.True(t, acked.IsRead)
	assert.InDelta(t, 30.0, acked.ResponseTimeSeconds, 1.0)

	// A second acknowledgement keeps the original response time.
	again, err := repo.Acknowledge(ctx, alert.ID, ackAt.Add(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, acked.ResponseTimeSeconds, again.ResponseTimeSeconds, 0.001)

	count, err := repo.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMySQL_AlertListFilters(t *testing.T) {
	resetDatabase(t)
	repo := repository.NewAlertRepository(testDB)
	ctx := t.Context()

	base := time.Now().UTC().Truncate(time.Second)
	critical := newAlert("CRITICAL", base)
	warning := newAlert("WARNING", base.Add(time.Second))
	require.NoError(t, repo.SaveAlert(ctx, critical))
	require.NoError(t, repo.SaveAlert(ctx, warning))

	alerts, total, err := repo.ListAlerts(ctx, repository.AlertFilter{Severity: "CRITICAL"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, alerts, 1)
	assert.Equal(t, critical.ID, alerts[0].ID)

	// Newest first without filters.
	alerts, total, err = repo.ListAlerts(ctx, repository.AlertFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, alerts, 2)
	assert.Equal(t, warning.ID, alerts[0].ID)
}

func TestMySQL_EventRoundTripWithDetections(t *testing.T) {
	resetDatabase(t)
	repo := repository.NewEventRepository(testDB)
	ctx := t.Context()

	event := &entities.Event{
		CameraID:     "cam-1",
		Timestamp:    time.Now().UTC().Truncate(time.Second),
		SceneText:    "a desk with scissors",
		Significance: 65,
		Severity:     "WARNING",
		Detections: []entities.Detection{
			{ObjectType: "object", Label: "scissors", Confidence: 0.9, Location: "desk"},
		},
	}
	require.NoError(t, repo.SaveEvent(ctx, event))
	require.NotZero(t, event.ID)

	events, err := repo.RecentEvents(ctx, "cam-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, events[0].Detections, 1)
	assert.Equal(t, "scissors", events[0].Detections[0].Label)

	events, err = repo.RecentEvents(ctx, "cam-2", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMySQL_BaselineFirstWriteWins(t *testing.T) {
	resetDatabase(t)
	repo := repository.NewTaskRepository(testDB)
	ctx := t.Context()

	taskID := uuid.NewString()
	first := &entities.BaselineState{
		TaskID:        taskID,
		Description:   "the door is closed",
		EstablishedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.SaveBaseline(ctx, first))

	// A conflicting insert is silently ignored.
	second := &entities.BaselineState{
		TaskID:        taskID,
		Description:   "the door is open",
		EstablishedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.SaveBaseline(ctx, second))

	var got entities.BaselineState
	require.NoError(t, testDB.WithContext(ctx).First(&got, "task_id = ?", taskID).Error)
	assert.Equal(t, "the door is closed", got.Description)
}

func TestMySQL_TaskAuditLifecycle(t *testing.T) {
	resetDatabase(t)
	repo := repository.NewTaskRepository(testDB)
	ctx := t.Context()

	task := &entities.MonitorTask{
		ID:        uuid.NewString(),
		Status:    "active",
		QueryText: "tell me if you see scissors",
		QueryType: "object",
		Target:    "scissors",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.SaveTask(ctx, task))

	stoppedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateTaskStatus(ctx, task.ID, "stopped", &stoppedAt))

	tasks, err := repo.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "stopped", tasks[0].Status)
	require.NotNil(t, tasks[0].StoppedAt)
}

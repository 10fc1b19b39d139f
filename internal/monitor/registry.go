package monitor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry is the lifecycle store for monitoring tasks. Create always
// succeeds with a fresh id; Stop is a status transition, never a delete —
// stopped tasks stay queryable for audit, and their baselines and alerts
// are retained.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	order []string // creation order for stable listings
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*Task),
	}
}

// Create registers a new active task from an interpreted command spec.
func (r *Registry) Create(spec TaskSpec) *Task {
	task := &Task{
		ID:               uuid.NewString(),
		Status:           StatusActive,
		QueryText:        spec.QueryText,
		QueryType:        spec.QueryType,
		Target:           spec.Target,
		RequiresBaseline: spec.RequiresBaseline,
		TargetCameras:    spec.TargetCameras,
		CreatedAt:        time.Now(),
	}

	r.mu.Lock()
	r.tasks[task.ID] = task
	r.order = append(r.order, task.ID)
	r.mu.Unlock()

	return task
}

// Stop transitions a task to stopped. Returns false for an unknown id.
// Stopping is observed eventually-consistently by in-flight processing.
func (r *Registry) Stop(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[taskID]
	if !ok {
		return false
	}
	if task.Status != StatusStopped {
		task.Status = StatusStopped
		task.StoppedAt = time.Now()
	}
	return true
}

// Get returns a copy of the task with the given id, or nil if unknown.
func (r *Registry) Get(taskID string) *Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[taskID]
	if !ok {
		return nil
	}
	cp := *task
	return &cp
}

// ActiveTasks returns copies of all active tasks in creation order.
func (r *Registry) ActiveTasks() []Task {
	return r.list(true)
}

// AllTasks returns copies of all tasks, stopped included, in creation order.
func (r *Registry) AllTasks() []Task {
	return r.list(false)
}

func (r *Registry) list(activeOnly bool) []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Task, 0, len(r.order))
	for _, id := range r.order {
		task := r.tasks[id]
		if activeOnly && !task.Active() {
			continue
		}
		out = append(out, *task)
	}
	return out
}

// ActiveTasksFor returns copies of active tasks targeting the given camera.
func (r *Registry) ActiveTasksFor(cameraID string) []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Task
	for _, id := range r.order {
		task := r.tasks[id]
		if task.Active() && task.AppliesTo(cameraID) {
			out = append(out, *task)
		}
	}
	return out
}

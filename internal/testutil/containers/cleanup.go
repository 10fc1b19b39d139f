//go:build integration

package containers

import (
	"fmt"
	"sync"
	"testing"
)

// CleanupManager collects container teardown steps and runs them in
// LIFO order, so dependents (clients, connections) are released before
// the containers they point at.
type CleanupManager struct {
	mu    sync.Mutex
	steps []cleanupStep
}

type cleanupStep struct {
	name string
	fn   func() error
}

// NewCleanupManager creates an empty CleanupManager.
func NewCleanupManager() *CleanupManager {
	return &CleanupManager{}
}

// Add registers a named teardown step.
func (cm *CleanupManager) Add(name string, fn func() error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.steps = append(cm.steps, cleanupStep{name: name, fn: fn})
}

// Cleanup runs every registered step in reverse registration order and
// collects the failures. Steps are drained under the lock but executed
// outside it, so a step may safely register follow-up cleanups.
func (cm *CleanupManager) Cleanup() []error {
	cm.mu.Lock()
	steps := cm.steps
	cm.steps = nil
	cm.mu.Unlock()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i].fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s cleanup failed: %w", steps[i].name, err))
		}
	}
	return errs
}

// RegisterTestCleanup hooks the manager into t.Cleanup so teardown runs
// even when the test fails or panics.
func (cm *CleanupManager) RegisterTestCleanup(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		for _, err := range cm.Cleanup() {
			t.Errorf("cleanup error: %v", err)
		}
	})
}

// CleanupOnce guards a teardown function that error paths and the
// normal exit path both reach, running it exactly once. Later calls
// return the first execution's error.
type CleanupOnce struct {
	once sync.Once
	fn   func() error
	err  error
}

// NewCleanupOnce wraps fn for one-shot execution.
func NewCleanupOnce(fn func() error) *CleanupOnce {
	return &CleanupOnce{fn: fn}
}

// Do runs the wrapped function on the first call only.
func (co *CleanupOnce) Do() error {
	co.once.Do(func() {
		co.err = co.fn()
	})
	return co.err
}

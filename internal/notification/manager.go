package notification

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/moneshrallapalli/sentinel/internal/logger"
	"github.com/moneshrallapalli/sentinel/internal/metrics"
)

var (
	instance *Service
	once     sync.Once
	mu       sync.RWMutex

	// workerActive indicates whether the polling worker is running.
	// Surfaced via the system health endpoint.
	workerActive atomic.Bool
)

// Initialize sets up the global notification service instance
func Initialize(config *ServiceConfig, log logger.Logger, m *metrics.Metrics) {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		instance = NewService(config, log, m)
	})
}

// GetService returns the global notification service instance
func GetService() *Service {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// SetServiceForTesting allows setting a custom service instance for testing only
// It returns an error if the service is already initialized in production
func SetServiceForTesting(service *Service) error {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return fmt.Errorf("notification service already initialized")
	}

	instance = service
	return nil
}

// MustGetService returns the service instance or panics if not initialized
func MustGetService() *Service {
	service := GetService()
	if service == nil {
		panic("notification service not initialized")
	}
	return service
}

// IsInitialized checks if the notification service has been initialized
func IsInitialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return instance != nil
}

// SetWorkerActive marks the polling worker as running. Called by the
// pipeline on start and stop.
func SetWorkerActive(active bool) {
	workerActive.Store(active)
}

// IsWorkerActive returns whether the polling worker is running.
func IsWorkerActive() bool {
	return workerActive.Load()
}

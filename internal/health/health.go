package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/pkg/logger"
)

// Pinger is a dependency that can report its health
type Pinger interface {
	Health(ctx context.Context) error
}

// Checker tracks startup readiness and dependency health
type Checker struct {
	names     []string
	deps      map[string]Pinger
	ready     bool
	readyMu   sync.RWMutex
	startTime time.Time
}

// HealthStatus represents system health
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ReadinessStatus represents system readiness
type ReadinessStatus struct {
	Ready     bool              `json:"ready"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// NewChecker creates new health checker
func NewChecker() *Checker {
	return &Checker{
		deps:      make(map[string]Pinger),
		startTime: time.Now(),
	}
}

// Register adds a dependency checked by readiness
func (c *Checker) Register(name string, dep Pinger) {
	if _, exists := c.deps[name]; !exists {
		c.names = append(c.names, name)
	}
	c.deps[name] = dep
}

// SetReady marks the service as ready
func (c *Checker) SetReady(ready bool) {
	c.readyMu.Lock()
	defer c.readyMu.Unlock()
	c.ready = ready

	if ready {
		logger.Info("service marked as ready")
	} else {
		logger.Warn("service marked as not ready")
	}
}

// Liveness reports the process is alive even if dependencies are down.
// verbose adds dependency checks for debugging.
func (c *Checker) Liveness(ctx context.Context, verbose bool) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
	}

	if verbose {
		status.Checks, _ = c.check(ctx)
	}

	return status
}

// Readiness is ready once startup finished and every dependency is healthy
func (c *Checker) Readiness(ctx context.Context) ReadinessStatus {
	c.readyMu.RLock()
	ready := c.ready
	c.readyMu.RUnlock()

	checks, allHealthy := c.check(ctx)

	return ReadinessStatus{
		Ready:     ready && allHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
}

func (c *Checker) check(ctx context.Context) (map[string]string, bool) {
	checks := make(map[string]string, len(c.names))
	allHealthy := true

	for _, name := range c.names {
		if err := c.deps[name].Health(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			allHealthy = false
			logger.Warn("dependency unhealthy",
				zap.String("dependency", name),
				zap.Error(err),
			)
			continue
		}
		checks[name] = "healthy"
	}

	return checks, allHealthy
}

// Package health provides health check functionality for the service.
package health

import (
	"context"
	"fmt"
	"sync"
)

// Status represents the health status of the service.
type Status string

const (
	// StatusHealthy means all checks passed.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy means at least one check failed.
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc performs one health check, returning an error when unhealthy.
type CheckFunc func(ctx context.Context) error

// Checker manages named health checks.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewChecker creates a Checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

// Register adds a named health check.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// Check runs all registered checks and reports the combined status with
// per-check results.
func (c *Checker) Check(ctx context.Context) (Status, map[string]string) {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	results := make(map[string]string, len(checks))
	status := StatusHealthy

	for name, fn := range checks {
		if err := fn(ctx); err != nil {
			results[name] = fmt.Sprintf("error: %v", err)
			status = StatusUnhealthy
		} else {
			results[name] = "ok"
		}
	}

	return status, results
}

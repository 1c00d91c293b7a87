package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"health-concierge/backend/pkg/logger"
)

// Status is the reported state of one dependency
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Component is the last observed state of one checked dependency
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check probes one dependency and reports its state
type Check func() (Status, string, error)

// Checker runs registered dependency probes on a fixed period and keeps
// the latest result per component. The database is the only critical
// dependency: the oracle and similarity sidecar degrade gracefully, and
// redis only disables the analytics cache.
type Checker struct {
	period time.Duration
	log    *logger.Logger

	mu         sync.RWMutex
	checks     map[string]Check
	components map[string]*Component
}

// NewChecker creates a checker that probes every period once started
func NewChecker(log *logger.Logger, period time.Duration) *Checker {
	c := &Checker{
		period:     period,
		log:        log,
		checks:     make(map[string]Check),
		components: make(map[string]*Component),
	}
	c.RegisterCheck("self", func() (Status, string, error) {
		return StatusUp, "Health checker is running", nil
	})
	return c
}

// RegisterCheck adds a named probe, initially reported as down until the
// first run
func (c *Checker) RegisterCheck(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Description: "Not checked yet",
	}
}

// RunChecks executes every registered probe once
func (c *Checker) RunChecks() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, check := range c.checks {
		status, description, err := check()

		component := c.components[name]
		component.Status = status
		component.Description = description
		component.LastChecked = time.Now()
		component.Error = ""

		if err != nil {
			component.Error = err.Error()
			c.log.Error("Health check failed",
				"component", name,
				"status", string(status),
				"error", err.Error(),
			)
			continue
		}
		c.log.Debug("Health check completed", "component", name, "status", string(status))
	}
}

// Start runs the probes immediately and then on every period
func (c *Checker) Start() {
	go func() {
		c.RunChecks()

		ticker := time.NewTicker(c.period)
		defer ticker.Stop()
		for range ticker.C {
			c.RunChecks()
		}
	}()
}

// GetStatus returns a copy of the latest component states
func (c *Checker) GetStatus() map[string]*Component {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]*Component, len(c.components))
	for name, component := range c.components {
		cp := *component
		out[name] = &cp
	}
	return out
}

// IsSystemHealthy reports whether every critical component is up. Only
// the database is critical: chat falls back to recency-only context and
// an apology reply when the AI dependencies are down.
func (c *Checker) IsSystemHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, component := range c.components {
		if name == "database" && component.Status == StatusDown {
			return false
		}
	}
	return true
}

// HTTPHandler serves the component snapshot, 503 when unhealthy
func (c *Checker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !c.IsSystemHealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		response := map[string]interface{}{
			"status":     "ok",
			"timestamp":  time.Now(),
			"components": c.GetStatus(),
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			c.log.Error("Failed to encode health check response", "error", err.Error())
		}
	}
}

// RegisterDatabaseCheck probes the message and plan store
func (c *Checker) RegisterDatabaseCheck(ping func() error) {
	c.RegisterCheck("database", func() (Status, string, error) {
		if err := ping(); err != nil {
			return StatusDown, "Database connection failed", err
		}
		return StatusUp, "Database connection is established", nil
	})
}

// RegisterRedisCheck probes the analytics cache backend. A redis outage
// is degraded, not down: stats are recomputed per request instead.
func (c *Checker) RegisterRedisCheck(ping func() error) {
	c.RegisterCheck("redis", func() (Status, string, error) {
		if err := ping(); err != nil {
			return StatusDegraded, "Redis ping failed, analytics cache disabled", err
		}
		return StatusUp, "Redis connection is established", nil
	})
}

// RegisterAPICheck probes an HTTP collaborator such as the similarity
// sidecar
func (c *Checker) RegisterAPICheck(name, endpoint string, client *http.Client) {
	if client == nil {
		client = http.DefaultClient
	}

	c.RegisterCheck(fmt.Sprintf("api-%s", name), func() (Status, string, error) {
		start := time.Now()
		resp, err := client.Get(endpoint)
		elapsed := time.Since(start)
		if err != nil {
			return StatusDown, "API request failed", err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return StatusDegraded, fmt.Sprintf("API returned status %d", resp.StatusCode),
				fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return StatusUp, fmt.Sprintf("API is responding (latency: %s)", elapsed), nil
	})
}

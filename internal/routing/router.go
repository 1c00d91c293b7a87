package routing

import (
	"context"

	"health-concierge/backend/internal/oracle"
	"health-concierge/backend/internal/specialist"
	"health-concierge/backend/pkg/logger"
	"health-concierge/backend/pkg/resilience"
)

// Router picks the specialist who should answer a message. Any routing
// failure falls back to the concierge, never to an error.
type Router struct {
	oracle   oracle.Client
	registry *specialist.Registry
	breaker  *resilience.CircuitBreaker
	log      *logger.Logger
}

// NewRouter creates a message router
func NewRouter(client oracle.Client, registry *specialist.Registry, breaker *resilience.CircuitBreaker, log *logger.Logger) *Router {
	return &Router{
		oracle:   client,
		registry: registry,
		breaker:  breaker,
		log:      log,
	}
}

// Route classifies the message against the specialist roster. The result
// is always a valid roster member.
func (r *Router) Route(ctx context.Context, message string) specialist.Specialist {
	var name string
	err := r.breaker.Execute(func() error {
		var err error
		name, err = r.oracle.Classify(ctx, message, r.registry.Names())
		return err
	})
	if err != nil {
		r.log.Warn("Routing failed, falling back to concierge", "error", err.Error())
		return r.registry.Default()
	}

	return r.registry.Resolve(name)
}

package router

import (
	"os"

	"github.com/gin-gonic/gin"

	"health-concierge/backend/internal/api"
	"health-concierge/backend/internal/ws"
	"health-concierge/backend/pkg/config"
	"health-concierge/backend/pkg/di"
	"health-concierge/backend/pkg/errors"
	"health-concierge/backend/pkg/logger"
	"health-concierge/backend/pkg/middleware"
	"health-concierge/backend/pkg/validator"
)

// Router wraps the gin engine and the dependency container
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
}

// New creates the HTTP router with the full middleware stack
func New(container *di.Container) *Router {
	cfg := config.Get()
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(errors.ErrorHandler())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodySizeLimit())
	engine.Use(middleware.NewRateLimiter().Middleware())

	if schemaPath := os.Getenv("OPENAPI_SCHEMA"); schemaPath != "" {
		v, err := validator.NewOpenAPIValidator(schemaPath)
		if err != nil {
			container.Logger.Warn("Request validation disabled", "error", err)
		} else {
			engine.Use(v.Middleware())
		}
	}

	r := &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	c := r.Container

	r.setupHealthRoutes()
	r.Engine.GET("/ws", ws.Handler(c.Hub))

	handlers := []interface {
		RegisterRoutes(*gin.RouterGroup)
	}{
		api.NewChatHandler(c.ChatService),
		api.NewPlanHandler(c.Plans, c.PlanEngine, nil),
		api.NewAnalyticsHandler(c.Aggregator, nil),
		api.NewUploadHandler(c.Extractor),
	}

	v1 := r.Engine.Group("/api/v1")
	root := r.Engine.Group("/")
	for _, h := range handlers {
		h.RegisterRoutes(v1)
		// Unprefixed routes kept for clients that predate API versioning.
		h.RegisterRoutes(root)
	}
}

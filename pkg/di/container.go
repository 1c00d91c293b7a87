package di

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"health-concierge/backend/internal/analytics"
	"health-concierge/backend/internal/assembler"
	"health-concierge/backend/internal/chat"
	"health-concierge/backend/internal/extract"
	"health-concierge/backend/internal/models"
	"health-concierge/backend/internal/oracle"
	"health-concierge/backend/internal/plan"
	"health-concierge/backend/internal/repository"
	"health-concierge/backend/internal/routing"
	"health-concierge/backend/internal/similarity"
	"health-concierge/backend/internal/specialist"
	"health-concierge/backend/internal/ws"
	"health-concierge/backend/pkg/cache"
	"health-concierge/backend/pkg/config"
	"health-concierge/backend/pkg/health"
	"health-concierge/backend/pkg/logger"
	"health-concierge/backend/pkg/resilience"
	"health-concierge/backend/pkg/secrets"
	"health-concierge/backend/shared/redis"
)

// Container holds all the dependencies for the application
type Container struct {
	DB     *gorm.DB
	Logger *logger.Logger

	Registry  *specialist.Registry
	Oracle    oracle.Client
	Searcher  similarity.Searcher
	Extractor extract.Extractor

	Messages repository.MessageRepository
	Plans    repository.PlanRepository

	Assembler   *assembler.Assembler
	Router      *routing.Router
	PlanEngine  *plan.Engine
	Aggregator  *analytics.Aggregator
	ChatService *chat.Service
	Hub         *ws.Hub

	Redis  *redis.RedisClient
	Health *health.Checker

	OracleBreaker     *resilience.CircuitBreaker
	SimilarityBreaker *resilience.CircuitBreaker
}

// New wires the application dependencies from configuration
func New(db *gorm.DB, log *logger.Logger) (*Container, error) {
	cfg := config.Get()

	if err := db.AutoMigrate(&models.Message{}, &models.HealthPlan{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	c := &Container{
		DB:       db,
		Logger:   log,
		Registry: specialist.NewRegistry(),
		Messages: repository.NewGormMessageRepository(db),
		Plans:    repository.NewGormPlanRepository(db),
		Hub:      ws.NewHub(log),
	}

	c.OracleBreaker = resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("oracle"), log)
	c.SimilarityBreaker = resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("similarity"), log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	apiKey := secrets.GetSecretWithDefault(ctx, "oracle-api-key", "")

	c.Oracle = oracle.NewOpenAIClient(oracle.Options{
		APIKey:      apiKey,
		BaseURL:     cfg.Oracle.BaseURL,
		Model:       cfg.Oracle.Model,
		Temperature: cfg.Oracle.Temperature,
	}, log)

	if cfg.Similarity.URL != "" {
		c.Searcher = similarity.NewHTTPSearcher(cfg.Similarity.URL, cfg.Similarity.Timeout, log)
	} else {
		log.Warn("No similarity service configured, context will be recency-only")
		c.Searcher = similarity.Disabled{}
	}

	c.Extractor = extract.NewHTTPExtractor(cfg.Extraction.URL, cfg.Extraction.Timeout, log)

	c.Assembler = assembler.New(c.Messages, c.Searcher, c.SimilarityBreaker,
		cfg.Context.RecencyWindow, cfg.Similarity.TopK, log)
	c.Router = routing.NewRouter(c.Oracle, c.Registry, c.OracleBreaker, log)
	c.PlanEngine = plan.NewEngine(c.Plans, c.Oracle, c.OracleBreaker, log)

	c.Aggregator = analytics.NewAggregator(c.Messages, c.buildStatsCache(cfg, log), log)

	c.ChatService = chat.NewService(chat.Options{
		Registry:    c.Registry,
		Router:      c.Router,
		Assembler:   c.Assembler,
		Engine:      c.PlanEngine,
		Oracle:      c.Oracle,
		Breaker:     c.OracleBreaker,
		Messages:    c.Messages,
		Plans:       c.Plans,
		Searcher:    c.Searcher,
		Hub:         c.Hub,
		Analytics:   c.Aggregator,
		Logger:      log,
		MaxMessages: int64(cfg.Features.MaxMessagesPerSession),
	})

	c.setupHealthChecks(cfg, log)

	return c, nil
}

// buildStatsCache picks the analytics cache backend. Redis is preferred
// when enabled so multiple instances share computed stats.
func (c *Container) buildStatsCache(cfg *config.Config, log *logger.Logger) analytics.StatsCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.UseRedis {
		c.Redis = redis.NewRedisClient()
		return analytics.NewRedisStatsCache(c.Redis, cfg.Cache.TTL, log)
	}
	return analytics.NewMemoryStatsCache(
		cache.NewCacheWithOptions(cfg.Cache.TTL, cfg.Cache.PurgeWindow, cfg.Cache.MaxSize))
}

func (c *Container) setupHealthChecks(cfg *config.Config, log *logger.Logger) {
	c.Health = health.NewChecker(log, 30*time.Second)

	c.Health.RegisterDatabaseCheck(func() error {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})

	if c.Redis != nil {
		c.Health.RegisterRedisCheck(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return c.Redis.Ping(ctx)
		})
	}

	if cfg.Similarity.URL != "" {
		c.Health.RegisterAPICheck("similarity", cfg.Similarity.URL+"/healthz", nil)
	}

	c.Health.Start()
}

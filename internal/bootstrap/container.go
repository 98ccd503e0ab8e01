package bootstrap

import (
	"context"
	"fmt"

	"feature-store-be/internal/config"
	"feature-store-be/internal/controller"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/internal/pkg/serverutils"
	"feature-store-be/internal/repository/memory"
	"feature-store-be/internal/repository/unitofwork"
	"feature-store-be/internal/service"
	pktNats "feature-store-be/pkg/nats"
	"feature-store-be/pkg/ratelimit"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceVersion = "1.0.0"

type Container struct {
	// Controllers
	FeatureValueController controller.IFeatureValueController
	FeatureController      controller.IFeatureController
	HealthController       controller.IHealthController

	// Middleware collaborators
	Logger       logger.ILogger
	AccessLogger logger.ILogger
	RateLimiter  serverutils.RateLimiter // nil when rate limiting is off

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	NatsSubscriber  service.EventSubscriber // nil without NATS

	closers []func() error
}

// NewContainer wires the application. A nil db selects the in-memory store.
func NewContainer(ctx context.Context, cfg *config.Config, db *gorm.DB, sysLogger logger.ILogger) *Container {
	c := &Container{Logger: sysLogger, AccessLogger: sysLogger}
	checks := map[string]controller.HealthCheck{}

	// 1. Persistence
	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	} else {
		uowFactory = memory.NewRepositoryFactory(memory.NewStore())
		sysLogger.Warn("Bootstrap", "Using in-memory storage; data is lost on restart", nil)
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, pubSub.Close)

	// 3. Infrastructure
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(ctx, cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
			natsPub = nil
		} else {
			c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
		}

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS subscriber", map[string]interface{}{"error": err.Error()})
		} else {
			c.NatsSubscriber = natsSub
			c.closers = append(c.closers, func() error { natsSub.Close(); return nil })
		}
	}

	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		c.closers = append(c.closers, rdb.Close)
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
		if cfg.RateLimit.Enabled {
			c.RateLimiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	}

	// 4. Services
	catalog := service.NewFeatureCatalog(uowFactory, memory.NewFeatureCache(cfg.Cache.FeatureTTL))
	publisherService := service.NewPublisherService(cfg.App.EventTopic, pubSub)

	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.EventTopic, catalog, eventPublisher, sysLogger)

	featureService := service.NewFeatureService(
		uowFactory,
		catalog,
		publisherService,
		cfg.Serving.DefaultPageSize,
		cfg.Serving.MaxPageSize,
		sysLogger,
	)
	featureValueService := service.NewFeatureValueService(uowFactory, catalog, cfg.Serving, sysLogger)

	// 5. Controllers
	c.FeatureController = controller.NewFeatureController(featureService)
	c.FeatureValueController = controller.NewFeatureValueController(featureValueService)
	c.HealthController = controller.NewHealthController(cfg.Tracing.ServiceName, serviceVersion, checks)

	return c
}

// Start launches the background consumers.
func (c *Container) Start(ctx context.Context) error {
	if err := c.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start catalog consumer: %w", err)
	}
	if c.NatsSubscriber != nil {
		if err := c.ConsumerService.ConsumeRemote(ctx, c.NatsSubscriber); err != nil {
			c.Logger.Warn("Bootstrap", "Failed to subscribe to remote catalog events", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("Bootstrap", "Error while closing resource", map[string]interface{}{"error": err.Error()})
		}
	}
}

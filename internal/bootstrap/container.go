package bootstrap

import (
	"context"
	"fmt"
	"log"

	"ai-interviewer-be/internal/config"
	"ai-interviewer-be/internal/controller"
	"ai-interviewer-be/internal/handler"
	"ai-interviewer-be/internal/model"
	"ai-interviewer-be/internal/pkg/logger"
	"ai-interviewer-be/internal/repository/memory"
	"ai-interviewer-be/internal/repository/unitofwork"
	"ai-interviewer-be/internal/service"
	"ai-interviewer-be/internal/websocket"
	"ai-interviewer-be/pkg/embedding"
	"ai-interviewer-be/pkg/interview"
	"ai-interviewer-be/pkg/interview/oracle"
	"ai-interviewer-be/pkg/interview/pipeline"
	"ai-interviewer-be/pkg/llm/factory"
	vectormemory "ai-interviewer-be/pkg/memory"

	pktNats "ai-interviewer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	InterviewController controller.IInterviewController
	InterviewHandler    *handler.InterviewHandler

	// Exposed for cmd tools that drive interviews without HTTP
	InterviewService service.IInterviewService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires the interview stack. db may be nil, which disables the
// archive; NATS and Redis are optional and skipped when unset or unreachable.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() })

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Providers
	embeddingProvider, err := embedding.NewProvider(
		cfg.Memory.EmbeddingProvider,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaEmbeddingModel,
		cfg.Memory.EmbeddingDimensions,
	)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%d dims)", cfg.Memory.EmbeddingProvider, embeddingProvider.Dimensions())

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.Anthropic,
	)
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	var decider oracle.Decider
	switch cfg.Interview.DecisionOracle {
	case "", "rules":
		decider = oracle.NewRuleDecider()
	case "llm":
		decider = oracle.NewLLMDecider(llmProvider)
	default:
		return nil, fmt.Errorf("unsupported DECISION_ORACLE: %s", cfg.Interview.DecisionOracle)
	}

	// 4. Interview core
	scope, err := vectormemory.ParseScope(cfg.Memory.Scope)
	if err != nil {
		return nil, err
	}
	memories := vectormemory.NewRegistry(scope, embeddingProvider)

	difficulty, err := interview.ParseDifficulty(cfg.Interview.InitialDifficulty)
	if err != nil {
		return nil, err
	}

	sessionRepo := memory.NewSessionRepository(cfg.Interview.SessionTTL, cfg.Interview.SessionCleanupInterval)

	turns := pipeline.New(pipeline.Config{
		Evaluator:       oracle.NewLLMEvaluator(llmProvider),
		Decider:         decider,
		Questioner:      oracle.NewLLMQuestioner(llmProvider),
		Memory:          memories,
		Logger:          sysLogger,
		OracleTimeout:   cfg.Interview.OracleTimeout,
		OpeningQuestion: cfg.Interview.OpeningQuestion,
	})

	// 5. Infrastructure
	var forwarder service.EventForwarder
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v (websocket relay disabled)", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		if embeddingProvider.Dimensions() != model.ArchiveEmbeddingDimensions {
			log.Printf("[WARN] Archive disabled: embeddings have %d dims, archive column has %d",
				embeddingProvider.Dimensions(), model.ArchiveEmbeddingDimensions)
		} else {
			uowFactory = unitofwork.NewRepositoryFactory(db)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.App.EventTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.App.EventTopic,
		forwarder,
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	c.InterviewService = service.NewInterviewService(
		sessionRepo,
		turns,
		memories,
		publisherService,
		service.InterviewDefaults{
			MaxRounds:  cfg.Interview.MaxRounds,
			Difficulty: difficulty,
			TopK:       cfg.Memory.QueryTopK,
		},
		sysLogger,
	)

	// 7. Controllers
	c.InterviewController = controller.NewInterviewController(c.InterviewService, cfg.Auth.JwtSecret)
	c.InterviewHandler = handler.NewInterviewHandler(
		c.InterviewService,
		c.WebSocketHub,
		cfg.Auth.JwtSecret,
		3*cfg.Interview.OracleTimeout,
		wsLogger,
	)

	return c, nil
}

// Start runs the hub and the event consumer until ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	return c.ConsumerService.Consume(ctx)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// ArchiveModels lists the tables the archive needs.
func ArchiveModels() []interface{} {
	return []interface{}{
		&model.InterviewSession{},
		&model.InterviewInteraction{},
	}
}

// Package app assembles the stores, generator, lifecycle manager and
// question pipeline from a Config. The server and the maintenance commands
// share it.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"apcsp-quiz/internal/cache"
	"apcsp-quiz/internal/config"
	mongodb "apcsp-quiz/internal/database/mongo"
	redisdb "apcsp-quiz/internal/database/redis"
	"apcsp-quiz/internal/event"
	"apcsp-quiz/internal/generator"
	"apcsp-quiz/internal/lifecycle"
	"apcsp-quiz/internal/logger"
	"apcsp-quiz/internal/questiongen"
	"apcsp-quiz/internal/repository"
	"apcsp-quiz/internal/repository/memstore"
	"apcsp-quiz/internal/selection"
	"apcsp-quiz/internal/service"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type App struct {
	Config    *config.Config
	Log       *logger.Logger
	Questions repository.QuestionStore
	Quizzes   repository.QuizStore
	Cache     cache.Cache
	Publisher event.Publisher

	Generator *generator.QuizGenerator
	Pools     *lifecycle.PoolKeeper
	Lifecycle *lifecycle.Manager
	Bank      *service.QuestionService
	// Pipeline is nil without an LLM API key.
	Pipeline *questiongen.Pipeline

	mongoClient *mongo.Client
	redisClient *redis.Client
	amqp        *event.EventPublisher
}

// New connects the configured backends and builds every component. Redis
// and RabbitMQ are optional: a failed connection is logged and the app falls
// back to the no-op cache or the log publisher.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	switch cfg.Store.Backend {
	case BackendMongo:
		client, err := mongodb.Connect(ctx, &cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		a.mongoClient = client
		db := client.Database(cfg.MongoDB.Database)
		questions := repository.NewQuestionRepository(db)
		quizzes := repository.NewQuizRepository(db)
		if err := questions.EnsureIndexes(ctx); err != nil {
			log.Warn("Failed to create question indexes", "error", err)
		}
		if err := quizzes.EnsureIndexes(ctx); err != nil {
			log.Warn("Failed to create quiz indexes", "error", err)
		}
		a.Questions, a.Quizzes = questions, quizzes
		log.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)
	case BackendMemory:
		a.Questions, a.Quizzes = memstore.NewQuestionStore(), memstore.NewQuizStore()
		log.Warn("Using in-memory stores; data is lost on exit")
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	a.Cache = cache.NoopCache{}
	client, err := redisdb.Connect(ctx, &cfg.Redis)
	switch {
	case err != nil:
		log.Warn("Redis unavailable, caching disabled", "error", err)
	case client != nil:
		a.redisClient = client
		a.Cache = cache.NewRedisCache(client, "apcsp-quiz:", log)
		log.Info("Connected to Redis", "addr", cfg.Redis.Address)
	}

	a.Publisher = event.LogPublisher{Log: log}
	if cfg.RabbitMQ.URI != "" {
		pub, err := event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Warn("RabbitMQ unavailable, events will only be logged", "error", err)
		} else {
			a.amqp = pub
			a.Publisher = pub
		}
	}

	selector := selection.NewSelector(a.Questions, rand.New(rand.NewSource(time.Now().UnixNano())))
	if cfg.Quiz.StrictSelection {
		selector.Policy = selection.Strict
	}
	a.Generator = generator.NewQuizGenerator(a.Questions, a.Quizzes, selector, a.Publisher, log)
	a.Pools = lifecycle.NewPoolKeeper(a.Quizzes, a.Generator, log)
	a.Lifecycle = lifecycle.NewManager(a.Quizzes, a.Questions, a.Generator, a.Pools, a.Publisher, log, lifecycle.Options{
		RetakeCooldown: cfg.Quiz.RetakeCooldown,
		ArchiveAfter:   cfg.Quiz.ArchiveAfter,
		AbandonedAfter: cfg.Quiz.AbandonedAfter,
	})

	bank := service.NewQuestionService(a.Questions, a.Cache, log)
	if cfg.Redis.CacheTTL > 0 {
		bank.SetTTL(cfg.Redis.CacheTTL)
	}
	a.Bank = bank

	if cfg.LLM.APIKey != "" {
		a.Pipeline = questiongen.NewPipeline(
			questiongen.NewOpenAICompleter(&cfg.LLM),
			a.Questions,
			a.Publisher,
			log.With("component", "questiongen"),
			cfg.Quiz.QualityThreshold,
		)
	} else {
		log.Warn("OPENAI_API_KEY not set, question generation is disabled")
	}

	return a, nil
}

// Close releases every connection New opened.
func (a *App) Close() {
	if a.amqp != nil {
		a.amqp.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.Log.Warn("Error closing Redis", "error", err)
		}
	}
	if err := mongodb.Disconnect(a.mongoClient); err != nil {
		a.Log.Warn("Error disconnecting MongoDB", "error", err)
	}
}

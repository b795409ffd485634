package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/health"
	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
	"github.com/vladislavdragonenkov/ecom/internal/storage/postgres"
)

// Dependencies — инфраструктурные зависимости сервиса: хранилище,
// репозитории и опциональный Kafka producer.
type Dependencies struct {
	Tx              domain.TxRunner
	Repos           domain.Repositories
	IdempotencyRepo domain.IdempotencyRepository
	KafkaProducer   *kafka.Producer

	pgStore *postgres.Store
}

// buildDependencies собирает зависимости по конфигурации. Пустой DSN
// включает in-memory хранилище, пустой список брокеров отключает Kafka.
func buildDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	deps := &Dependencies{}

	if dsn := cfg.Postgres.DSN; dsn != "" {
		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		deps.pgStore = store
		deps.Tx = store
		deps.Repos = store.Repositories()
		deps.IdempotencyRepo = postgres.NewIdempotencyRepository(store)
		logger.Info("postgres storage initialized")
	} else {
		store := memory.NewStore()
		deps.Tx = store
		deps.Repos = store.Repositories()
		deps.IdempotencyRepo = memory.NewIdempotencyRepository()
		logger.Info("in-memory storage initialized")
	}

	if brokers := cfg.Kafka.Brokers; len(brokers) > 0 {
		producer, err := kafka.NewProducer(brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			deps.KafkaProducer = producer
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	return deps, nil
}

// registerHealthChecks добавляет проверки инфраструктурных компонентов.
func (d *Dependencies) registerHealthChecks(handler *health.Handler) {
	if d.pgStore != nil {
		handler.Register("postgres", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
			defer cancel()
			return d.pgStore.Ping(ctx)
		})
	}
}

// Close освобождает ресурсы в обратном порядке инициализации.
func (d *Dependencies) Close(logger *log.Entry) {
	if d.KafkaProducer != nil {
		if err := d.KafkaProducer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			logger.Info("kafka producer closed")
		}
	}
	if d.pgStore != nil {
		if err := d.pgStore.Close(); err != nil {
			logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}

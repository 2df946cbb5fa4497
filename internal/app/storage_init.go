package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/thandzin/ordering/internal/domain"
	"github.com/thandzin/ordering/internal/storage/memory"
	"github.com/thandzin/ordering/internal/storage/postgres"
)

// storageSet собирает репозитории и, для postgres, сам Store для
// health-проверок и закрытия.
type storageSet struct {
	carts  domain.CartRepository
	orders domain.OrderRepository
	store  *postgres.Store
}

func (s *storageSet) close(logger *log.Entry) {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		logger.WithError(err).Warn("failed to close postgres store")
	}
}

// initStorage выбирает бэкенд хранения по конфигурации. Драйвер memory
// держит документы в процессе, postgres переживает рестарты.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storageSet, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		logger.Info("using in-memory storage")
		return &storageSet{
			carts:  memory.NewCartRepository(),
			orders: memory.NewOrderRepository(),
		}, nil
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("storage driver postgres requires ORDERING_POSTGRES_DSN")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}
		logger.Info("using postgres storage")
		return &storageSet{
			carts:  postgres.NewCartRepository(store),
			orders: postgres.NewOrderRepository(store),
			store:  store,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

package factory

import (
	"fmt"

	"go.uber.org/zap"

	"privateinbox/backend/internal/config"
	"privateinbox/backend/internal/storage"
	"privateinbox/backend/internal/storage/memory"
	"privateinbox/backend/internal/storage/postgres"
	"privateinbox/backend/internal/storage/postgrest"
	sqlstore "privateinbox/backend/internal/storage/sql"
)

// Open 按 store.type 创建存储客户端
//
// rest 类型未配置 URL 时回退到内存存储（开发模式），并记录警告。
func Open(cfg *config.Config, log *zap.Logger) (storage.Client, error) {
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("initializing storage", zap.String("type", cfg.Store.Type))

	switch cfg.Store.Type {
	case config.StoreREST:
		if cfg.Store.URL == "" {
			log.Warn("store url is empty, using memory storage (development mode)")
			return memory.NewStore(), nil
		}
		client, err := postgrest.New(postgrest.Config{
			URL:     cfg.Store.URL,
			Key:     cfg.Store.Key,
			Schema:  cfg.Store.Schema,
			Timeout: cfg.Store.Timeout,
		}, log.Named("postgrest"))
		if err != nil {
			return nil, fmt.Errorf("failed to create rest store: %w", err)
		}
		return client, nil

	case config.StorePGX:
		client, err := postgres.New(&cfg.Database, log.Named("pgx"))
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx store: %w", err)
		}
		return client, nil

	case config.StorePostgres, config.StoreMySQL:
		store, err := sqlstore.NewStore(
			cfg.Store.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s store: %w", cfg.Store.Type, err)
		}
		return store, nil

	case config.StoreMemory:
		log.Info("using memory storage (development mode)")
		return memory.NewStore(), nil
	}

	return nil, fmt.Errorf("unsupported store type: %q", cfg.Store.Type)
}

// Close 关闭持有连接资源的存储
func Close(client storage.Client) error {
	if closer, ok := client.(storage.Closer); ok {
		return closer.Close()
	}
	return nil
}

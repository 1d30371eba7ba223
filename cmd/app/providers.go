package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/phytocast/internal/domain/prediction"
	"github.com/yanqian/phytocast/internal/domain/selection"
	"github.com/yanqian/phytocast/internal/infra/config"
	"github.com/yanqian/phytocast/internal/infra/exportstore"
	"github.com/yanqian/phytocast/internal/infra/historyrepo"
	"github.com/yanqian/phytocast/internal/infra/openmeteo"
	"github.com/yanqian/phytocast/internal/infra/predictor"
	"github.com/yanqian/phytocast/internal/infra/scheduler"
	"github.com/yanqian/phytocast/internal/infra/selectionstore"
	"github.com/yanqian/phytocast/internal/infra/session"
)

func provideForecastClient(cfg *config.Config) *openmeteo.Client {
	fc := cfg.Forecast
	return openmeteo.NewClient(openmeteo.Config{
		BaseURL:      fc.BaseURL,
		Latitude:     fc.Latitude,
		Longitude:    fc.Longitude,
		Timezone:     fc.Timezone,
		ForecastDays: fc.ForecastDays,
		Timeout:      fc.Timeout,
		Breaker: openmeteo.BreakerConfig{
			Enabled:          fc.Breaker.Enabled,
			MaxRequests:      fc.Breaker.MaxRequests,
			Interval:         fc.Breaker.Interval,
			Timeout:          fc.Breaker.Timeout,
			FailureThreshold: fc.Breaker.FailureThreshold,
		},
	})
}

func providePredictorClient(cfg *config.Config) *predictor.Client {
	return predictor.NewClient(predictor.Config{
		Endpoint: cfg.Prediction.Endpoint,
		Timeout:  cfg.Prediction.Timeout,
	})
}

func providePredictionConfig(cfg *config.Config) prediction.Config {
	return prediction.Config{
		IncludeDate:   cfg.Prediction.IncludeDate,
		HistoryLimit:  cfg.History.Limit,
		ExportPrefix:  cfg.Export.Prefix,
		ExportMaxRows: cfg.Export.MaxRows,
	}
}

func provideSelectionConfig(cfg *config.Config) selection.Config {
	policy, _ := selection.ParseStalePolicy(cfg.Selection.StalePolicy)
	return selection.Config{
		Location:    cfg.Forecast.Location(),
		StalePolicy: policy,
	}
}

func provideSelectionStore(cfg *config.Config, logger *slog.Logger) selection.Store {
	ttl := cfg.Selection.StateTTL
	if cfg.Selection.Redis.Enabled {
		opt, err := buildValkeyOptions(cfg.Selection.Redis.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return selectionstore.NewMemoryStore(ttl)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return selectionstore.NewMemoryStore(ttl)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
			client.Close()
		} else {
			logger.Info("selection valkey store enabled", "addr", cfg.Selection.Redis.Addr)
			return selectionstore.NewValkeyStore(client, cfg.Selection.Redis.Prefix, ttl)
		}
	}
	return selectionstore.NewMemoryStore(ttl)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideHistoryRepository(cfg *config.Config, logger *slog.Logger) prediction.HistoryRepository {
	fallback := historyrepo.NewMemoryRepository(cfg.History.MaxMemoryRecords)
	dsn := strings.TrimSpace(cfg.History.Postgres.DSN)
	if dsn == "" {
		logger.Info("history postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.History.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.History.Postgres.MaxConns
	}
	if cfg.History.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.History.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	repo := historyrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("history schema setup failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("history postgres repository enabled")
	return repo
}

func provideExportStore(cfg *config.Config, logger *slog.Logger) prediction.ExportStore {
	s3 := cfg.Export.S3
	if !s3.Enabled {
		logger.Info("s3 export disabled, using memory export store")
		return exportstore.NewMemoryStore()
	}
	store, err := exportstore.NewS3Store(exportstore.S3Config{
		Endpoint:  s3.Endpoint,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
		Bucket:    s3.Bucket,
		Region:    s3.Region,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize s3 export store, using memory export store", "error", err)
		return exportstore.NewMemoryStore()
	}
	logger.Info("s3 export store enabled", "bucket", s3.Bucket)
	return store
}

func provideSessionManager(cfg *config.Config, logger *slog.Logger) (*session.Manager, error) {
	secret := cfg.Session.Secret
	if secret == "" {
		logger.Warn("session secret not set, sessions will not survive restarts")
		secret = uuid.NewString()
	}
	return session.NewManager(session.Config{Secret: secret, TTL: cfg.Session.TTL})
}

func provideScheduler(cfg *config.Config, svc prediction.Service, logger *slog.Logger) *scheduler.Scheduler {
	return scheduler.New(cfg.Export.Interval, svc, logger)
}

package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"plantwatch/internal/config"
	prefapp "plantwatch/internal/preferences/application"
	readingapp "plantwatch/internal/readings/application"
	"plantwatch/internal/storage"
	"plantwatch/internal/storage/memory"
	"plantwatch/internal/storage/postgres"
	"plantwatch/internal/storage/sqlite"
)

type stores struct {
	kv          storage.KV
	preferences *prefapp.Store
	readings    *readingapp.Store
	closeFn     func() error
}

func (s *stores) Close() {
	if s.closeFn != nil {
		_ = s.closeFn()
	}
}

func openKV(ctx context.Context, cfg config.Config) (storage.KV, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.NewKV(), nil, nil
	case config.DriverSQLite:
		kv, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return kv, kv.Close, nil
	case config.DriverPostgres:
		kv, db, err := postgres.Open(ctx, cfg.Storage.PostgresDSN, postgres.WithTable(cfg.Storage.Table))
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return kv, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	kv, closeFn, err := openKV(ctx, cfg)
	if err != nil {
		return nil, err
	}
	st := &stores{kv: kv, closeFn: closeFn}
	policy := cfg.Persistence.Policy()

	st.preferences, err = prefapp.NewStore(ctx, kv, prefapp.WithPolicy(policy), prefapp.WithLogger(logger))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	st.readings, err = readingapp.NewStore(ctx, kv, readingapp.WithPolicy(policy), readingapp.WithLogger(logger))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load readings: %w", err)
	}
	logger.Info("storage opened", zap.String("driver", cfg.Storage.Driver))
	return st, nil
}

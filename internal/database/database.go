package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storyboard-server/internal/config"
)

const (
	defaultMaxConns          = 5
	defaultMinConns          = 1
	defaultMaxConnLifetime   = time.Hour
	defaultMaxConnIdleTime   = 30 * time.Minute
	defaultHealthCheckPeriod = time.Minute
	defaultConnectTimeout    = 5 * time.Second
)

// NewPool создает пул соединений к целевой БД, при необходимости создавая
// саму базу через служебное подключение к postgres. Пользователю нужна
// привилегия CREATEDB, иначе базу придется создать вручную.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	if err := ensureDatabase(ctx, cfg, logger); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolCfg.MaxConns = defaultMaxConns
	poolCfg.MinConns = defaultMinConns
	poolCfg.MaxConnLifetime = defaultMaxConnLifetime
	poolCfg.MaxConnIdleTime = defaultMaxConnIdleTime
	poolCfg.HealthCheckPeriod = defaultHealthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("подключение к базе данных установлено", zap.String("database", cfg.Name))
	return pool, nil
}

func ensureDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) error {
	adminCfg := cfg
	adminCfg.Name = "postgres"

	conn, err := pgx.Connect(ctx, adminCfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to admin database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	if exists {
		return nil
	}

	logger.Info("база данных отсутствует, создаем", zap.String("database", cfg.Name))
	_, err = conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE %q", cfg.Name))
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "42501" { // insufficient_privilege
			return fmt.Errorf("user %q lacks permission to create database %q: %w", cfg.User, cfg.Name, err)
		}
		return fmt.Errorf("failed to create database %q: %w", cfg.Name, err)
	}
	return nil
}

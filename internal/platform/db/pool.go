package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig holds the connection pool settings read from the environment.
type PoolConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ApplicationName string
}

const connectTimeout = 10 * time.Second

func NewPool(ctx context.Context, pc PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(pc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 && pc.MinConns <= cfg.MaxConns {
		cfg.MinConns = pc.MinConns
	}
	if pc.ApplicationName != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = pc.ApplicationName
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

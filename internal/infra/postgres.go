package infra

import (
	"context"
	"crypto/tls"
	_ "embed"
	"fmt"
	"time"

	"github.com/Vovarama1992/lostfound/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// NewPgxPool opens the pool and pings it. TLS follows cfg.SSLMode only;
// any sslmode in the URL is overridden.
func NewPgxPool(ctx context.Context, cfg *config.Database) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	applySSLMode(poolCfg, cfg.SSLMode)
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("cannot connect pgxpool: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

func applySSLMode(poolCfg *pgxpool.Config, mode string) {
	cc := poolCfg.ConnConfig
	cc.Fallbacks = nil

	switch mode {
	case config.SSLRequire:
		// managed hosts (Render, Heroku) present certs we cannot verify
		cc.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	case config.SSLVerifyFull:
		cc.TLSConfig = &tls.Config{ServerName: cc.Host}
	default:
		cc.TLSConfig = nil
	}
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

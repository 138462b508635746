// Package postgres owns the gorm connection, transactions and schema.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config holds connection parameters. DSN wins over the individual fields when set.
type Config struct {
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowQuery       time.Duration
}

// ConnString returns the libpq connection URL.
func (c Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type txKey struct{}

// Store wraps a gorm.DB and carries transactions through the context.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres. Statements are logged through logger.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.ConnString()), &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(logger, cfg.SlowQuery),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return &Store{db: db}, nil
}

// NewStoreForTest wraps an existing gorm.DB (test-only).
func NewStoreForTest(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Conn returns the transaction bound to ctx, or the pool.
func (s *Store) Conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

// Transaction runs fn in one transaction. Repositories called with the ctx passed
// to fn join it through Conn. A returned error or a panic rolls back.
// Nested calls use savepoints.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Conn(ctx).Transaction(func(tx *gorm.DB) error { //nolint:wrapcheck // fn errors pass through
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("postgres pool: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// WaitForReady polls Ping until Postgres responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var last error
	for {
		if last = s.Ping(ctx); last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for postgres: %w", errors.Join(ctx.Err(), last))
		case <-ticker.C:
		}
	}
}

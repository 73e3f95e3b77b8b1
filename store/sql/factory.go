package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/goliatone/go-paybridge/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// PersistenceConfig satisfies the go-persistence-bun client configuration.
type PersistenceConfig struct {
	Driver         string
	Server         string
	Debug          bool
	PingTimeout    time.Duration
	OtelIdentifier string
	MaxOpenConns   int
	SkipMigrations bool
}

func (c PersistenceConfig) GetDebug() bool {
	return c.Debug
}

func (c PersistenceConfig) GetDriver() string {
	return c.Driver
}

func (c PersistenceConfig) GetServer() string {
	return c.Server
}

func (c PersistenceConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c PersistenceConfig) GetOtelIdentifier() string {
	if strings.TrimSpace(c.OtelIdentifier) == "" {
		return "go-paybridge"
	}
	return c.OtelIdentifier
}

// Open connects through go-persistence-bun with the dialect matching the
// driver and applies the activity migrations unless SkipMigrations is set.
func Open(ctx context.Context, cfg PersistenceConfig) (*persistence.Client, error) {
	dialectName, err := migrations.DialectForDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Server) == "" {
		return nil, fmt.Errorf("sqlstore: server dsn is required")
	}
	cfg.Driver = driverName(dialectName)
	sqlDB, err := sql.Open(cfg.Driver, cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	client, err := persistence.New(cfg, sqlDB, dialectFor(dialectName))
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}
	if cfg.SkipMigrations {
		return client, nil
	}
	if err := Migrate(ctx, client, dialectName); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Migrate registers the embedded migrations for dialect and runs them.
func Migrate(ctx context.Context, client *persistence.Client, dialect string) error {
	if client == nil {
		return fmt.Errorf("sqlstore: persistence client is required")
	}
	err := migrations.Register(dialect, func(fsys fs.FS) {
		client.RegisterSQLMigrations(fsys)
	})
	if err != nil {
		return fmt.Errorf("sqlstore: register migrations: %w", err)
	}
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

func NewActivityStoreFromPersistence(client *persistence.Client) (*ActivityStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewActivityStore(db)
}

func driverName(dialect string) string {
	if dialect == migrations.DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}

func dialectFor(name string) schema.Dialect {
	if name == migrations.DialectPostgres {
		return pgdialect.New()
	}
	return sqlitedialect.New()
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case *persistence.Client:
		if typed == nil {
			return nil, fmt.Errorf("sqlstore: persistence client is required")
		}
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

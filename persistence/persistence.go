package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	gpersistence "github.com/goliatone/go-persistence-bun"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Client is a go-persistence-bun client that also manages the tables
// of its registered models
type Client struct {
	*gpersistence.Client
	driver string
	logger gpersistence.Logger

	mu     sync.Mutex
	models []any
}

// Open connects to the configured database. models are registered
// before the bun handle is built so relations and fixtures can refer
// to them.
func Open(ctx context.Context, cfg gpersistence.Config, models ...any) (*Client, error) {
	sqldb, dialect, err := openDriver(cfg.GetDriver(), cfg.GetServer())
	if err != nil {
		return nil, err
	}

	var opts []gpersistence.ClientOption
	if cfg.GetDebug() {
		opts = append(opts, gpersistence.WithBundebug())
	}
	if cfg.GetOtelIdentifier() != "" {
		opts = append(opts, gpersistence.WithBunotel())
	}

	gpersistence.RegisterModel(models...)

	client, err := New(cfg, sqldb, dialect, opts...)
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	client.models = append(client.models, models...)

	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// New wraps an existing *sql.DB
func New(cfg gpersistence.Config, sqldb *sql.DB, dialect schema.Dialect, opts ...gpersistence.ClientOption) (*Client, error) {
	if sqldb == nil {
		return nil, errors.New("missing sql database", errors.CategoryBadInput)
	}

	inner, err := gpersistence.New(cfg, sqldb, dialect, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "database unreachable").
			WithMetadata(map[string]any{"driver": cfg.GetDriver()})
	}

	return &Client{
		Client: inner,
		driver: cfg.GetDriver(),
		logger: glog.Nop(),
	}, nil
}

func openDriver(driver, dsn string) (*sql.DB, schema.Dialect, error) {
	switch driver {
	case DriverSQLite, "":
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryExternal, "unable to open sqlite database")
		}
		// sqlite allows a single writer
		sqldb.SetMaxOpenConns(1)
		return sqldb, sqlitedialect.New(), nil
	case DriverPostgres:
		connCfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryBadInput, "invalid postgres dsn")
		}
		return stdlib.OpenDB(*connCfg), pgdialect.New(), nil
	default:
		return nil, nil, errors.New(fmt.Sprintf("unsupported database driver %q", driver), errors.CategoryBadInput).
			WithMetadata(map[string]any{"driver": driver})
	}
}

// RegisterModel registers models with bun and adds them to the set
// created by CreateSchema
func (c *Client) RegisterModel(m ...any) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DB().RegisterModel(m...)
	c.models = append(c.models, m...)
	return c
}

// RegisteredModels returns a copy of the registered models
func (c *Client) RegisteredModels() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.models))
	copy(out, c.models)
	return out
}

func (c *Client) SetLogger(l gpersistence.Logger) {
	if l == nil {
		return
	}
	c.logger = l
	c.Client.SetLogger(l)
}

func (c *Client) Driver() string {
	return c.driver
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "database unreachable").
			WithMetadata(map[string]any{"driver": c.driver})
	}
	return nil
}

// CreateSchema creates a table for every registered model unless it
// already exists
func (c *Client) CreateSchema(ctx context.Context) error {
	for _, model := range c.RegisteredModels() {
		table := fmt.Sprintf("%T", model)
		if _, err := c.DB().NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "unable to create table").
				WithMetadata(map[string]any{"table": table})
		}
		c.logger.Debug("table ready", "table", table)
	}
	return nil
}

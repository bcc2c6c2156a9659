package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"

	"github.com/bilyar/storefront-api/internal/repositories"
)

type txContextKey struct{}

func withTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

func transactionFrom(ctx context.Context) (*sql.Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txContextKey{}).(*sql.Tx)
	return tx, ok && tx != nil
}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Registry wires the Postgres-backed repository set around a shared pool.
type Registry struct {
	db *sql.DB

	orders      *OrderRepository
	products    *ProductRepository
	categories  *CategoryRepository
	collections *CollectionRepository
	settings    *SettingsRepository
	health      repositories.HealthRepository
}

// Open connects to Postgres, applies the schema, and constructs the registry.
func Open(ctx context.Context, databaseURL string) (*Registry, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres registry: database url is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, wrapError("postgres.open", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, wrapError("postgres.ping", err)
	}

	registry, err := NewRegistry(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := registry.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return registry, nil
}

// NewRegistry constructs the registry around an existing pool. Schema
// migration is the caller's responsibility.
func NewRegistry(db *sql.DB) (*Registry, error) {
	if db == nil {
		return nil, errors.New("postgres registry: db handle is required")
	}

	registry := &Registry{db: db}
	registry.orders = &OrderRepository{registry: registry}
	registry.products = &ProductRepository{registry: registry}
	registry.categories = &CategoryRepository{registry: registry}
	registry.collections = &CollectionRepository{registry: registry}
	registry.settings = &SettingsRepository{registry: registry}

	health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
		{
			Name: "postgres",
			Check: func(ctx context.Context) error {
				return db.PingContext(ctx)
			},
		},
	})
	if err != nil {
		return nil, err
	}
	registry.health = health

	return registry, nil
}

// Migrate creates the schema when it does not exist yet.
func (r *Registry) Migrate(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("postgres registry not initialised")
	}
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return wrapError("postgres.migrate", err)
		}
	}
	return nil
}

// Close releases the underlying pool.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// RunInTx executes fn inside a database transaction. Repository calls made
// with the derived context join the same transaction.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.db == nil {
		return errors.New("postgres registry not initialised")
	}
	if fn == nil {
		return errors.New("postgres registry: transaction function is required")
	}
	if _, ok := transactionFrom(ctx); ok {
		return fn(ctx)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapError("postgres.begin", err)
	}

	if err := fn(withTransaction(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapError("postgres.commit", err)
	}
	return nil
}

func (r *Registry) querier(ctx context.Context) querier {
	if tx, ok := transactionFrom(ctx); ok {
		return tx
	}
	return r.db
}

// Orders implements repositories.Registry.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Products implements repositories.Registry.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// Categories implements repositories.Registry.
func (r *Registry) Categories() repositories.CategoryRepository { return r.categories }

// Collections implements repositories.Registry.
func (r *Registry) Collections() repositories.CollectionRepository { return r.collections }

// Settings implements repositories.Registry.
func (r *Registry) Settings() repositories.SettingsRepository { return r.settings }

// Health implements repositories.Registry.
func (r *Registry) Health() repositories.HealthRepository { return r.health }

var _ repositories.Registry = (*Registry)(nil)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		order_number TEXT NOT NULL UNIQUE,
		customer_name TEXT NOT NULL,
		customer_email TEXT NOT NULL DEFAULT '',
		customer_phone TEXT NOT NULL DEFAULT '',
		customer_address TEXT NOT NULL DEFAULT '',
		customer_city TEXT NOT NULL DEFAULT '',
		customer_country TEXT NOT NULL DEFAULT '',
		customer_name_en TEXT,
		customer_address_en TEXT,
		customer_city_en TEXT,
		customer_country_en TEXT,
		status TEXT NOT NULL DEFAULT 'Pending',
		payment_method TEXT NOT NULL DEFAULT 'manual',
		payment_id TEXT,
		payment_status TEXT NOT NULL DEFAULT 'pending',
		total DOUBLE PRECISION NOT NULL DEFAULT 0,
		shipping_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_payment_id ON orders (payment_id)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		price DOUBLE PRECISION NOT NULL DEFAULT 0,
		image TEXT NOT NULL DEFAULT '',
		size TEXT,
		measurements JSONB,
		notes TEXT,
		notes_en TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		name_ar TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT '',
		category_ar TEXT NOT NULL DEFAULT '',
		images JSONB,
		is_new BOOLEAN NOT NULL DEFAULT FALSE,
		description TEXT NOT NULL DEFAULT '',
		description_ar TEXT NOT NULL DEFAULT '',
		has_shirt BOOLEAN NOT NULL DEFAULT FALSE,
		has_trouser BOOLEAN NOT NULL DEFAULT FALSE,
		sku TEXT,
		stock_by_size JSONB,
		out_of_stock BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		name_ar TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS collections (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		title_ar TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		description_ar TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY DEFAULT 1,
		store_name TEXT NOT NULL,
		store_email TEXT NOT NULL,
		store_phone TEXT NOT NULL,
		currency TEXT NOT NULL,
		free_shipping_threshold DOUBLE PRECISION NOT NULL,
		default_shipping_cost DOUBLE PRECISION NOT NULL
	)`,
}

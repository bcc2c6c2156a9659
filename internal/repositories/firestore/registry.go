package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/bilyar/storefront-api/internal/platform/firestore"
	"github.com/bilyar/storefront-api/internal/repositories"
)

// Registry transactions run on webhook and callback request paths and are
// bounded tighter than the client defaults.
const (
	registryTxAttempts = 3
	registryTxTimeout  = 10 * time.Second
)

type txContextKey struct{}

func withTransaction(ctx context.Context, tx *firestore.Transaction) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

func transactionFrom(ctx context.Context) (*firestore.Transaction, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txContextKey{}).(*firestore.Transaction)
	return tx, ok && tx != nil
}

// Registry wires the Firestore-backed repository set behind the shared provider.
type Registry struct {
	provider *pfirestore.Provider

	orders      *OrderRepository
	products    *ProductRepository
	categories  *CategoryRepository
	collections *CollectionRepository
	settings    *SettingsRepository
	health      repositories.HealthRepository
}

// NewRegistry constructs the Firestore registry and its repositories.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry: provider is required")
	}

	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider, counters)
	if err != nil {
		return nil, err
	}
	products, err := NewProductRepository(provider, counters)
	if err != nil {
		return nil, err
	}
	categories, err := NewCategoryRepository(provider, counters)
	if err != nil {
		return nil, err
	}
	collections, err := NewCollectionRepository(provider, counters)
	if err != nil {
		return nil, err
	}
	settings, err := NewSettingsRepository(provider)
	if err != nil {
		return nil, err
	}

	health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
		{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				_, err := provider.Client(ctx)
				return err
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:    provider,
		orders:      orders,
		products:    products,
		categories:  categories,
		collections: collections,
		settings:    settings,
		health:      health,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// RunInTx executes fn inside a Firestore transaction. Repository calls made
// with the derived context join the same transaction. Firestore requires all
// transactional reads to happen before the first write.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.provider == nil {
		return errors.New("firestore registry not initialised")
	}
	if fn == nil {
		return errors.New("firestore registry: transaction function is required")
	}
	if _, ok := transactionFrom(ctx); ok {
		return fn(ctx)
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(withTransaction(ctx, tx))
	}, pfirestore.WithTxAttempts(registryTxAttempts), pfirestore.WithTxTimeout(registryTxTimeout))
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

package repositories

import (
	"context"

	"github.com/bilyar/storefront-api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Products() ProductRepository
	Categories() CategoryRepository
	Collections() CollectionRepository
	Settings() SettingsRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentUpdate carries the payment fields mutated during gateway reconciliation.
// Nil fields are left untouched.
type PaymentUpdate struct {
	PaymentID     *string
	PaymentStatus *domain.PaymentStatus
	Status        *domain.OrderStatus
}

// OrderRepository persists orders together with their items.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id int) (domain.Order, error)
	FindByPaymentRef(ctx context.Context, paymentRef string) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	// Update replaces the stored order, items included.
	Update(ctx context.Context, order domain.Order) (domain.Order, error)
	UpdateStatus(ctx context.Context, id int, status domain.OrderStatus) (domain.Order, error)
	UpdatePayment(ctx context.Context, id int, update PaymentUpdate) (domain.Order, error)
	Delete(ctx context.Context, id int) error
}

// ProductRepository owns catalog product persistence.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id int) (domain.Product, error)
	FindByIDs(ctx context.Context, ids []int) (map[int]domain.Product, error)
	Insert(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id int) error
}

// CategoryRepository owns category persistence.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Insert(ctx context.Context, category domain.Category) (domain.Category, error)
	Update(ctx context.Context, category domain.Category) (domain.Category, error)
	Delete(ctx context.Context, id int) error
}

// CollectionRepository owns collection persistence.
type CollectionRepository interface {
	List(ctx context.Context) ([]domain.Collection, error)
	Insert(ctx context.Context, collection domain.Collection) (domain.Collection, error)
	Update(ctx context.Context, collection domain.Collection) (domain.Collection, error)
	Delete(ctx context.Context, id int) error
}

// SettingsRepository persists the single store settings record.
type SettingsRepository interface {
	Get(ctx context.Context) (domain.Settings, error)
	Update(ctx context.Context, settings domain.Settings) (domain.Settings, error)
}

// CounterRepository allocates monotonically increasing identifiers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}

// HealthRepository aggregates dependency probes for readiness reporting.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

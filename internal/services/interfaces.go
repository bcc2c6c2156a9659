package services

import (
	"context"

	domain "github.com/bilyar/storefront-api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Order         = domain.Order
	OrderItem     = domain.OrderItem
	OrderStatus   = domain.OrderStatus
	PaymentMethod = domain.PaymentMethod
	PaymentStatus = domain.PaymentStatus
	Product       = domain.Product
	Category      = domain.Category
	Collection    = domain.Collection
	Settings      = domain.Settings
	Customer      = domain.Customer

	SystemHealthReport = domain.SystemHealthReport
)

// OrderService owns the order lifecycle: creation with server-side catalog
// validation and pricing, admin edits, and status management.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	GetOrder(ctx context.Context, id int) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrder(ctx context.Context, cmd UpdateOrderCommand) (Order, error)
	UpdateOrderStatus(ctx context.Context, id int, status OrderStatus) (Order, error)
	DeleteOrder(ctx context.Context, id int) error
}

// PaymentService drives gateway checkout initiation and reconciles gateway
// callbacks and webhooks onto orders.
type PaymentService interface {
	GatewayAvailability(ctx context.Context) GatewayAvailability
	InitiatePayment(ctx context.Context, cmd InitiatePaymentCommand) (PaymentInitiation, error)
	CompleteCallback(ctx context.Context, cmd PaymentCallbackCommand) (CallbackResult, error)
	HandleDeemaWebhook(ctx context.Context, event DeemaWebhookEvent) error
}

// CatalogService manages products, categories, and collections.
type CatalogService interface {
	ListProducts(ctx context.Context, query string) ([]Product, error)
	GetProduct(ctx context.Context, id int) (Product, error)
	CreateProduct(ctx context.Context, cmd ProductCommand) (Product, error)
	UpdateProduct(ctx context.Context, id int, patch ProductPatch) (Product, error)
	DeleteProduct(ctx context.Context, id int) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, cmd CategoryCommand) (Category, error)
	UpdateCategory(ctx context.Context, id int, patch CategoryPatch) (Category, error)
	DeleteCategory(ctx context.Context, id int) error

	ListCollections(ctx context.Context) ([]Collection, error)
	CreateCollection(ctx context.Context, cmd CollectionCommand) (Collection, error)
	UpdateCollection(ctx context.Context, id int, patch CollectionPatch) (Collection, error)
	DeleteCollection(ctx context.Context, id int) error
}

// CustomerService serves the read-time customer aggregation derived from
// order history, plus the admin operations that fan out over it.
type CustomerService interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	UpdateCustomer(ctx context.Context, cmd UpdateCustomerCommand) (int, error)
	DeleteCustomer(ctx context.Context, customerID string) (int, error)
}

// SettingsService owns the single global store configuration record.
type SettingsService interface {
	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, patch SettingsPatch) (Settings, error)
}

// SystemService surfaces operational health for monitoring endpoints.
type SystemService interface {
	Health(ctx context.Context) (SystemHealthReport, error)
}

// Translator converts Arabic text to English, passing other input through.
type Translator interface {
	ToEnglish(ctx context.Context, text string) string
}

// Notifier delivers best-effort customer notifications.
type Notifier interface {
	Enabled() bool
	SendText(ctx context.Context, to, text string) error
}

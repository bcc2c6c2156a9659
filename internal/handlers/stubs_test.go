package handlers

import (
	"context"
	"errors"

	"github.com/bilyar/storefront-api/internal/services"
)

var errNotWired = errors.New("not wired")

type stubOrderService struct {
	createFn       func(context.Context, services.CreateOrderCommand) (services.Order, error)
	getFn          func(context.Context, int) (services.Order, error)
	listFn         func(context.Context) ([]services.Order, error)
	updateFn       func(context.Context, services.UpdateOrderCommand) (services.Order, error)
	updateStatusFn func(context.Context, int, services.OrderStatus) (services.Order, error)
	deleteFn       func(context.Context, int) error
}

func (s *stubOrderService) CreateOrder(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.Order{}, errNotWired
}

func (s *stubOrderService) GetOrder(ctx context.Context, id int) (services.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return services.Order{}, errNotWired
}

func (s *stubOrderService) ListOrders(ctx context.Context) ([]services.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, errNotWired
}

func (s *stubOrderService) UpdateOrder(ctx context.Context, cmd services.UpdateOrderCommand) (services.Order, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.Order{}, errNotWired
}

func (s *stubOrderService) UpdateOrderStatus(ctx context.Context, id int, status services.OrderStatus) (services.Order, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, id, status)
	}
	return services.Order{}, errNotWired
}

func (s *stubOrderService) DeleteOrder(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return errNotWired
}

type stubPaymentService struct {
	availabilityFn func(context.Context) services.GatewayAvailability
	initiateFn     func(context.Context, services.InitiatePaymentCommand) (services.PaymentInitiation, error)
	callbackFn     func(context.Context, services.PaymentCallbackCommand) (services.CallbackResult, error)
	webhookFn      func(context.Context, services.DeemaWebhookEvent) error
}

func (s *stubPaymentService) GatewayAvailability(ctx context.Context) services.GatewayAvailability {
	if s.availabilityFn != nil {
		return s.availabilityFn(ctx)
	}
	return services.GatewayAvailability{}
}

func (s *stubPaymentService) InitiatePayment(ctx context.Context, cmd services.InitiatePaymentCommand) (services.PaymentInitiation, error) {
	if s.initiateFn != nil {
		return s.initiateFn(ctx, cmd)
	}
	return services.PaymentInitiation{}, errNotWired
}

func (s *stubPaymentService) CompleteCallback(ctx context.Context, cmd services.PaymentCallbackCommand) (services.CallbackResult, error) {
	if s.callbackFn != nil {
		return s.callbackFn(ctx, cmd)
	}
	return services.CallbackResult{}, errNotWired
}

func (s *stubPaymentService) HandleDeemaWebhook(ctx context.Context, event services.DeemaWebhookEvent) error {
	if s.webhookFn != nil {
		return s.webhookFn(ctx, event)
	}
	return errNotWired
}

type stubCatalogService struct {
	listProductsFn  func(context.Context, string) ([]services.Product, error)
	getProductFn    func(context.Context, int) (services.Product, error)
	createProductFn func(context.Context, services.ProductCommand) (services.Product, error)
	updateProductFn func(context.Context, int, services.ProductPatch) (services.Product, error)
	deleteProductFn func(context.Context, int) error

	listCategoriesFn func(context.Context) ([]services.Category, error)
	createCategoryFn func(context.Context, services.CategoryCommand) (services.Category, error)
	updateCategoryFn func(context.Context, int, services.CategoryPatch) (services.Category, error)
	deleteCategoryFn func(context.Context, int) error

	listCollectionsFn  func(context.Context) ([]services.Collection, error)
	createCollectionFn func(context.Context, services.CollectionCommand) (services.Collection, error)
	updateCollectionFn func(context.Context, int, services.CollectionPatch) (services.Collection, error)
	deleteCollectionFn func(context.Context, int) error
}

func (s *stubCatalogService) ListProducts(ctx context.Context, query string) ([]services.Product, error) {
	if s.listProductsFn != nil {
		return s.listProductsFn(ctx, query)
	}
	return nil, errNotWired
}

func (s *stubCatalogService) GetProduct(ctx context.Context, id int) (services.Product, error) {
	if s.getProductFn != nil {
		return s.getProductFn(ctx, id)
	}
	return services.Product{}, errNotWired
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, cmd services.ProductCommand) (services.Product, error) {
	if s.createProductFn != nil {
		return s.createProductFn(ctx, cmd)
	}
	return services.Product{}, errNotWired
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, id int, patch services.ProductPatch) (services.Product, error) {
	if s.updateProductFn != nil {
		return s.updateProductFn(ctx, id, patch)
	}
	return services.Product{}, errNotWired
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, id int) error {
	if s.deleteProductFn != nil {
		return s.deleteProductFn(ctx, id)
	}
	return errNotWired
}

func (s *stubCatalogService) ListCategories(ctx context.Context) ([]services.Category, error) {
	if s.listCategoriesFn != nil {
		return s.listCategoriesFn(ctx)
	}
	return nil, errNotWired
}

func (s *stubCatalogService) CreateCategory(ctx context.Context, cmd services.CategoryCommand) (services.Category, error) {
	if s.createCategoryFn != nil {
		return s.createCategoryFn(ctx, cmd)
	}
	return services.Category{}, errNotWired
}

func (s *stubCatalogService) UpdateCategory(ctx context.Context, id int, patch services.CategoryPatch) (services.Category, error) {
	if s.updateCategoryFn != nil {
		return s.updateCategoryFn(ctx, id, patch)
	}
	return services.Category{}, errNotWired
}

func (s *stubCatalogService) DeleteCategory(ctx context.Context, id int) error {
	if s.deleteCategoryFn != nil {
		return s.deleteCategoryFn(ctx, id)
	}
	return errNotWired
}

func (s *stubCatalogService) ListCollections(ctx context.Context) ([]services.Collection, error) {
	if s.listCollectionsFn != nil {
		return s.listCollectionsFn(ctx)
	}
	return nil, errNotWired
}

func (s *stubCatalogService) CreateCollection(ctx context.Context, cmd services.CollectionCommand) (services.Collection, error) {
	if s.createCollectionFn != nil {
		return s.createCollectionFn(ctx, cmd)
	}
	return services.Collection{}, errNotWired
}

func (s *stubCatalogService) UpdateCollection(ctx context.Context, id int, patch services.CollectionPatch) (services.Collection, error) {
	if s.updateCollectionFn != nil {
		return s.updateCollectionFn(ctx, id, patch)
	}
	return services.Collection{}, errNotWired
}

func (s *stubCatalogService) DeleteCollection(ctx context.Context, id int) error {
	if s.deleteCollectionFn != nil {
		return s.deleteCollectionFn(ctx, id)
	}
	return errNotWired
}

type stubCustomerService struct {
	listFn   func(context.Context) ([]services.Customer, error)
	updateFn func(context.Context, services.UpdateCustomerCommand) (int, error)
	deleteFn func(context.Context, string) (int, error)
}

func (s *stubCustomerService) ListCustomers(ctx context.Context) ([]services.Customer, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, errNotWired
}

func (s *stubCustomerService) UpdateCustomer(ctx context.Context, cmd services.UpdateCustomerCommand) (int, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return 0, errNotWired
}

func (s *stubCustomerService) DeleteCustomer(ctx context.Context, customerID string) (int, error) {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, customerID)
	}
	return 0, errNotWired
}

type stubSettingsService struct {
	getFn    func(context.Context) (services.Settings, error)
	updateFn func(context.Context, services.SettingsPatch) (services.Settings, error)
}

func (s *stubSettingsService) GetSettings(ctx context.Context) (services.Settings, error) {
	if s.getFn != nil {
		return s.getFn(ctx)
	}
	return services.Settings{}, errNotWired
}

func (s *stubSettingsService) UpdateSettings(ctx context.Context, patch services.SettingsPatch) (services.Settings, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, patch)
	}
	return services.Settings{}, errNotWired
}

type stubSystemService struct {
	healthFn func(context.Context) (services.SystemHealthReport, error)
}

func (s *stubSystemService) Health(ctx context.Context) (services.SystemHealthReport, error) {
	if s.healthFn != nil {
		return s.healthFn(ctx)
	}
	return services.SystemHealthReport{}, errNotWired
}

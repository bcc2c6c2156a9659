package services

import (
	"context"
	"errors"

	domain "github.com/bilyar/storefront-api/internal/domain"
	"github.com/bilyar/storefront-api/internal/repositories"
)

// notFoundErr satisfies repositories.RepositoryError for stubbed lookups.
type notFoundErr struct{}

func (notFoundErr) Error() string       { return "not found" }
func (notFoundErr) IsNotFound() bool    { return true }
func (notFoundErr) IsConflict() bool    { return false }
func (notFoundErr) IsUnavailable() bool { return false }

type stubOrderRepo struct {
	insertFn         func(context.Context, domain.Order) (domain.Order, error)
	findFn           func(context.Context, int) (domain.Order, error)
	findByPaymentFn  func(context.Context, string) (domain.Order, error)
	listFn           func(context.Context) ([]domain.Order, error)
	updateFn         func(context.Context, domain.Order) (domain.Order, error)
	updateStatusFn   func(context.Context, int, domain.OrderStatus) (domain.Order, error)
	updatePaymentFn  func(context.Context, int, repositories.PaymentUpdate) (domain.Order, error)
	deleteFn         func(context.Context, int) error
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	order.ID = 1
	return order, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id int) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return domain.Order{}, notFoundErr{}
}

func (s *stubOrderRepo) FindByPaymentRef(ctx context.Context, ref string) (domain.Order, error) {
	if s.findByPaymentFn != nil {
		return s.findByPaymentFn(ctx, ref)
	}
	return domain.Order{}, notFoundErr{}
}

func (s *stubOrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubOrderRepo) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, order)
	}
	return order, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, id int, status domain.OrderStatus) (domain.Order, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, id, status)
	}
	return domain.Order{ID: id, Status: status}, nil
}

func (s *stubOrderRepo) UpdatePayment(ctx context.Context, id int, update repositories.PaymentUpdate) (domain.Order, error) {
	if s.updatePaymentFn != nil {
		return s.updatePaymentFn(ctx, id, update)
	}
	return domain.Order{ID: id}, nil
}

func (s *stubOrderRepo) Delete(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type stubProductRepo struct {
	listFn      func(context.Context) ([]domain.Product, error)
	findFn      func(context.Context, int) (domain.Product, error)
	findByIDsFn func(context.Context, []int) (map[int]domain.Product, error)
	insertFn    func(context.Context, domain.Product) (domain.Product, error)
	updateFn    func(context.Context, domain.Product) (domain.Product, error)
	deleteFn    func(context.Context, int) error
}

func (s *stubProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, id int) (domain.Product, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return domain.Product{}, notFoundErr{}
}

func (s *stubProductRepo) FindByIDs(ctx context.Context, ids []int) (map[int]domain.Product, error) {
	if s.findByIDsFn != nil {
		return s.findByIDsFn(ctx, ids)
	}
	return map[int]domain.Product{}, nil
}

func (s *stubProductRepo) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if s.insertFn != nil {
		return s.insertFn(ctx, product)
	}
	product.ID = 1
	return product, nil
}

func (s *stubProductRepo) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, product)
	}
	return product, nil
}

func (s *stubProductRepo) Delete(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type stubCategoryRepo struct {
	listFn   func(context.Context) ([]domain.Category, error)
	insertFn func(context.Context, domain.Category) (domain.Category, error)
	updateFn func(context.Context, domain.Category) (domain.Category, error)
	deleteFn func(context.Context, int) error
}

func (s *stubCategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubCategoryRepo) Insert(ctx context.Context, category domain.Category) (domain.Category, error) {
	if s.insertFn != nil {
		return s.insertFn(ctx, category)
	}
	category.ID = 1
	return category, nil
}

func (s *stubCategoryRepo) Update(ctx context.Context, category domain.Category) (domain.Category, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, category)
	}
	return category, nil
}

func (s *stubCategoryRepo) Delete(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type stubCollectionRepo struct {
	listFn   func(context.Context) ([]domain.Collection, error)
	insertFn func(context.Context, domain.Collection) (domain.Collection, error)
	updateFn func(context.Context, domain.Collection) (domain.Collection, error)
	deleteFn func(context.Context, int) error
}

func (s *stubCollectionRepo) List(ctx context.Context) ([]domain.Collection, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubCollectionRepo) Insert(ctx context.Context, collection domain.Collection) (domain.Collection, error) {
	if s.insertFn != nil {
		return s.insertFn(ctx, collection)
	}
	collection.ID = 1
	return collection, nil
}

func (s *stubCollectionRepo) Update(ctx context.Context, collection domain.Collection) (domain.Collection, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, collection)
	}
	return collection, nil
}

func (s *stubCollectionRepo) Delete(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type stubSettingsRepo struct {
	getFn    func(context.Context) (domain.Settings, error)
	updateFn func(context.Context, domain.Settings) (domain.Settings, error)
}

func (s *stubSettingsRepo) Get(ctx context.Context) (domain.Settings, error) {
	if s.getFn != nil {
		return s.getFn(ctx)
	}
	return domain.DefaultSettings(), nil
}

func (s *stubSettingsRepo) Update(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, settings)
	}
	return settings, nil
}

type stubHealthRepo struct {
	collectFn func(context.Context) (domain.SystemHealthReport, error)
}

func (s *stubHealthRepo) Collect(ctx context.Context) (domain.SystemHealthReport, error) {
	if s.collectFn != nil {
		return s.collectFn(ctx)
	}
	return domain.SystemHealthReport{}, nil
}

// stubRegistry satisfies repositories.Registry over the stub repositories.
// RunInTx simply invokes fn, transactional grouping is covered by the
// backend tests.
type stubRegistry struct {
	orders      *stubOrderRepo
	products    *stubProductRepo
	categories  *stubCategoryRepo
	collections *stubCollectionRepo
	settings    *stubSettingsRepo
	health      *stubHealthRepo
	runInTxFn   func(context.Context, func(context.Context) error) error
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{
		orders:      &stubOrderRepo{},
		products:    &stubProductRepo{},
		categories:  &stubCategoryRepo{},
		collections: &stubCollectionRepo{},
		settings:    &stubSettingsRepo{},
		health:      &stubHealthRepo{},
	}
}

func (s *stubRegistry) Close(context.Context) error { return nil }

func (s *stubRegistry) Orders() repositories.OrderRepository           { return s.orders }
func (s *stubRegistry) Products() repositories.ProductRepository       { return s.products }
func (s *stubRegistry) Categories() repositories.CategoryRepository    { return s.categories }
func (s *stubRegistry) Collections() repositories.CollectionRepository { return s.collections }
func (s *stubRegistry) Settings() repositories.SettingsRepository      { return s.settings }
func (s *stubRegistry) Health() repositories.HealthRepository          { return s.health }

func (s *stubRegistry) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.runInTxFn != nil {
		return s.runInTxFn(ctx, fn)
	}
	if fn == nil {
		return errors.New("nil tx fn")
	}
	return fn(ctx)
}

var _ repositories.Registry = (*stubRegistry)(nil)

// stubTranslator maps inputs to canned translations, echoing anything else.
type stubTranslator struct {
	translations map[string]string
	calls        []string
}

func (s *stubTranslator) ToEnglish(_ context.Context, text string) string {
	s.calls = append(s.calls, text)
	if translated, ok := s.translations[text]; ok {
		return translated
	}
	return text
}

type stubNotifier struct {
	enabled bool
	sent    []string
	err     error
}

func (s *stubNotifier) Enabled() bool { return s.enabled }

func (s *stubNotifier) SendText(_ context.Context, to, text string) error {
	s.sent = append(s.sent, to+": "+text)
	return s.err
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	domain "github.com/bilyar/storefront-api/internal/domain"
	"github.com/bilyar/storefront-api/internal/platform/textutil"
	"github.com/bilyar/storefront-api/internal/repositories"
)

const orderNumberPrefix = "ORD-"

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
)

// CreateOrderCommand is the storefront checkout payload.
type CreateOrderCommand struct {
	Customer      CustomerInfo
	Items         []NewOrderItem
	PaymentMethod PaymentMethod
}

// CustomerInfo carries the customer contact and delivery fields.
type CustomerInfo struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Country string
}

// NewOrderItem is a single cart line in the checkout payload.
type NewOrderItem struct {
	ProductID    int
	ProductName  string
	Quantity     int
	Image        string
	Size         *string
	Measurements map[string]string
	Notes        *string
}

// UpdateOrderCommand is the admin order edit payload. Nil fields are left
// untouched; a non-nil Items slice replaces the order lines and reprices the
// order from the supplied line amounts.
type UpdateOrderCommand struct {
	OrderID  int
	Customer CustomerPatch
	Status   *OrderStatus
	Items    []ReplacementOrderItem
}

// CustomerPatch holds optional customer field overrides.
type CustomerPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	City    *string
	Country *string
}

// ReplacementOrderItem is an admin-supplied order line. Unlike checkout,
// admin edits trust the supplied price.
type ReplacementOrderItem struct {
	ProductID    int
	ProductName  string
	Quantity     int
	Price        float64
	Image        string
	Size         *string
	Measurements map[string]string
	Notes        *string
	NotesEn      *string
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Registry   repositories.Registry
	Translator Translator
	Notifier   Notifier
	Clock      func() time.Time
	// NumberGenerator produces the unique portion of order numbers.
	NumberGenerator func() string
	Logger          *zap.Logger
}

type orderService struct {
	registry   repositories.Registry
	translator Translator
	notifier   Notifier
	clock      func() time.Time
	newNumber  func() string
	logger     *zap.Logger
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Registry == nil {
		return nil, errors.New("order service: repository registry is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newNumber := deps.NumberGenerator
	if newNumber == nil {
		newNumber = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &orderService{
		registry:   deps.Registry,
		translator: deps.Translator,
		notifier:   deps.Notifier,
		clock:      clock,
		newNumber:  newNumber,
		logger:     logger,
	}, nil
}

// CreateOrder validates the cart against the catalog, prices the order
// server-side, and persists it atomically with its items.
func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	if err := validateCreateOrder(cmd); err != nil {
		return Order{}, err
	}

	method := cmd.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodMyFatoorah
	}
	parsed, ok := domain.ParsePaymentMethod(string(method))
	if !ok {
		return Order{}, fmt.Errorf("%w: unknown payment method %q", ErrOrderInvalidInput, method)
	}
	method = parsed
	isManual := method == domain.PaymentMethodManual

	// Translation talks to an external service, so it runs before the
	// storage transaction. Manual orders are entered by staff in the
	// customer's own words and skip translation entirely.
	customerEn := s.translateCustomer(ctx, cmd.Customer, isManual)
	notesEn := s.translateNotes(ctx, cmd.Items, isManual)

	var created Order
	err := s.registry.RunInTx(ctx, func(ctx context.Context) error {
		ids := make([]int, 0, len(cmd.Items))
		for _, item := range cmd.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := s.registry.Products().FindByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		for _, item := range cmd.Items {
			product, ok := products[item.ProductID]
			if !ok {
				return fmt.Errorf("%w: product not found: %d", ErrOrderInvalidInput, item.ProductID)
			}
			if product.OutOfStock {
				return fmt.Errorf("%w: product is out of stock: %s", ErrOrderInvalidInput, product.Name)
			}
		}

		settings, err := s.registry.Settings().Get(ctx)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}

		// Catalog prices are authoritative; the client-supplied price is
		// ignored to prevent tampering.
		subtotal := 0.0
		items := make([]domain.OrderItem, 0, len(cmd.Items))
		for i, line := range cmd.Items {
			product := products[line.ProductID]
			subtotal += product.Price * float64(line.Quantity)

			name := line.ProductName
			if name == "" {
				name = product.Name
			}
			image := line.Image
			if len(product.Images) > 0 {
				image = product.Images[0]
			}
			items = append(items, domain.OrderItem{
				ProductID:    line.ProductID,
				ProductName:  name,
				Quantity:     line.Quantity,
				Price:        product.Price,
				Image:        image,
				Size:         line.Size,
				Measurements: textutil.NormalizeStringMap(line.Measurements),
				Notes:        line.Notes,
				NotesEn:      notesEn[i],
			})
		}

		shippingCost := settings.DefaultShippingCost
		if subtotal >= settings.FreeShippingThreshold {
			shippingCost = 0
		}

		paymentStatus := domain.PaymentStatusPending
		if isManual {
			paymentStatus = domain.PaymentStatusManual
		}

		order := domain.Order{
			OrderNumber:       orderNumberPrefix + s.newNumber(),
			CustomerName:      cmd.Customer.Name,
			CustomerEmail:     cmd.Customer.Email,
			CustomerPhone:     cmd.Customer.Phone,
			CustomerAddress:   cmd.Customer.Address,
			CustomerCity:      cmd.Customer.City,
			CustomerCountry:   cmd.Customer.Country,
			CustomerNameEn:    customerEn.Name,
			CustomerAddressEn: customerEn.Address,
			CustomerCityEn:    customerEn.City,
			CustomerCountryEn: customerEn.Country,
			Status:            domain.OrderStatusPending,
			PaymentMethod:     method,
			PaymentStatus:     paymentStatus,
			Total:             subtotal + shippingCost,
			ShippingCost:      shippingCost,
			CreatedAt:         s.clock().UTC(),
			Items:             items,
		}

		created, err = s.registry.Orders().Insert(ctx, order)
		return err
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("order created",
		zap.Int("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.String("payment_method", string(created.PaymentMethod)),
		zap.Float64("total", created.Total))
	return created, nil
}

func validateCreateOrder(cmd CreateOrderCommand) error {
	c := cmd.Customer
	if c.Name == "" || c.Phone == "" || c.Address == "" || c.City == "" || c.Country == "" {
		return fmt.Errorf("%w: customer name, phone, address, city, and country are required", ErrOrderInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrOrderInvalidInput)
	}
	for _, item := range cmd.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item quantity must be at least 1", ErrOrderInvalidInput)
		}
	}
	return nil
}

// translatedCustomer carries English renditions, nil where the source text
// needed no translation.
type translatedCustomer struct {
	Name    *string
	Address *string
	City    *string
	Country *string
}

func (s *orderService) translateCustomer(ctx context.Context, c CustomerInfo, isManual bool) translatedCustomer {
	if isManual || s.translator == nil {
		return translatedCustomer{}
	}
	return translatedCustomer{
		Name:    s.translateField(ctx, c.Name),
		Address: s.translateField(ctx, c.Address),
		City:    s.translateField(ctx, c.City),
		Country: s.translateField(ctx, c.Country),
	}
}

// translateField returns the English rendition, or nil when translation
// produced nothing new. Storing only genuine translations keeps the driver
// view from repeating identical text.
func (s *orderService) translateField(ctx context.Context, text string) *string {
	translated := s.translator.ToEnglish(ctx, text)
	if translated == text {
		return nil
	}
	return &translated
}

func (s *orderService) translateNotes(ctx context.Context, items []NewOrderItem, isManual bool) []*string {
	notesEn := make([]*string, len(items))
	if isManual || s.translator == nil {
		return notesEn
	}
	for i, item := range items {
		if item.Notes == nil || *item.Notes == "" {
			continue
		}
		notesEn[i] = s.translateField(ctx, *item.Notes)
	}
	return notesEn
}

func (s *orderService) GetOrder(ctx context.Context, id int) (Order, error) {
	order, err := s.registry.Orders().FindByID(ctx, id)
	if err != nil {
		return Order{}, mapOrderRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]Order, error) {
	return s.registry.Orders().List(ctx)
}

// UpdateOrder applies an admin edit: customer fields, status, and optionally
// a full item replacement with repricing from the supplied line amounts.
func (s *orderService) UpdateOrder(ctx context.Context, cmd UpdateOrderCommand) (Order, error) {
	if cmd.Status != nil {
		if _, ok := domain.ParseOrderStatus(string(*cmd.Status)); !ok {
			return Order{}, fmt.Errorf("%w: invalid status %q", ErrOrderInvalidInput, *cmd.Status)
		}
	}

	var updated Order
	err := s.registry.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.registry.Orders().FindByID(ctx, cmd.OrderID)
		if err != nil {
			return mapOrderRepositoryError(err)
		}

		applyCustomerPatch(&order, cmd.Customer)
		if cmd.Status != nil {
			order.Status = *cmd.Status
		}

		if len(cmd.Items) > 0 {
			settings, err := s.registry.Settings().Get(ctx)
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}

			subtotal := 0.0
			items := make([]domain.OrderItem, 0, len(cmd.Items))
			for _, line := range cmd.Items {
				subtotal += line.Price * float64(line.Quantity)
				items = append(items, domain.OrderItem{
					OrderID:      order.ID,
					ProductID:    line.ProductID,
					ProductName:  line.ProductName,
					Quantity:     line.Quantity,
					Price:        line.Price,
					Image:        line.Image,
					Size:         line.Size,
					Measurements: line.Measurements,
					Notes:        line.Notes,
					NotesEn:      line.NotesEn,
				})
			}

			shippingCost := settings.DefaultShippingCost
			if subtotal >= settings.FreeShippingThreshold {
				shippingCost = 0
			}
			order.ShippingCost = shippingCost
			order.Total = subtotal + shippingCost
			order.Items = items
		}

		updated, err = s.registry.Orders().Update(ctx, order)
		if err != nil {
			return mapOrderRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return updated, nil
}

// applyCustomerPatch overwrites customer fields in place. Admin edits are
// already typed in the preferred display language, so the English mirror
// follows the raw value instead of going through translation.
func applyCustomerPatch(order *domain.Order, patch CustomerPatch) {
	if patch.Name != nil {
		order.CustomerName = *patch.Name
		order.CustomerNameEn = patch.Name
	}
	if patch.Email != nil {
		order.CustomerEmail = *patch.Email
	}
	if patch.Phone != nil {
		order.CustomerPhone = *patch.Phone
	}
	if patch.Address != nil {
		order.CustomerAddress = *patch.Address
		order.CustomerAddressEn = patch.Address
	}
	if patch.City != nil {
		order.CustomerCity = *patch.City
		order.CustomerCityEn = patch.City
	}
	if patch.Country != nil {
		order.CustomerCountry = *patch.Country
		order.CustomerCountryEn = patch.Country
	}
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id int, status OrderStatus) (Order, error) {
	parsed, ok := domain.ParseOrderStatus(string(status))
	if !ok {
		return Order{}, fmt.Errorf("%w: invalid status %q", ErrOrderInvalidInput, status)
	}

	updated, err := s.registry.Orders().UpdateStatus(ctx, id, parsed)
	if err != nil {
		return Order{}, mapOrderRepositoryError(err)
	}

	s.notifyStatusChange(ctx, updated)
	return updated, nil
}

// notifyStatusChange pushes a WhatsApp update to the customer. Failures are
// logged and swallowed, notification delivery never blocks the order flow.
func (s *orderService) notifyStatusChange(ctx context.Context, order Order) {
	if s.notifier == nil || !s.notifier.Enabled() || order.CustomerPhone == "" {
		return
	}
	message := fmt.Sprintf("Your order %s is now %s.", order.OrderNumber, order.Status)
	if err := s.notifier.SendText(ctx, order.CustomerPhone, message); err != nil {
		s.logger.Warn("status notification failed",
			zap.Int("order_id", order.ID),
			zap.Error(err))
	}
}

func (s *orderService) DeleteOrder(ctx context.Context, id int) error {
	if err := s.registry.Orders().Delete(ctx, id); err != nil {
		return mapOrderRepositoryError(err)
	}
	return nil
}

func mapOrderRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, err)
	}
	return err
}

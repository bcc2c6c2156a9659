package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	domain "github.com/bilyar/storefront-api/internal/domain"
	"github.com/bilyar/storefront-api/internal/payments"
	"github.com/bilyar/storefront-api/internal/repositories"
)

// ErrPaymentInvalidInput signals a payment request the gateways cannot serve.
var ErrPaymentInvalidInput = errors.New("payment: invalid input")

// GatewayAvailability reports which gateways have live credentials.
type GatewayAvailability struct {
	MyFatoorah bool
	Deema      bool
}

// InitiatePaymentCommand asks for a hosted checkout session on an order.
type InitiatePaymentCommand struct {
	Method  PaymentMethod
	OrderID int
}

// PaymentInitiation is the redirect target handed back to the storefront.
// Demo marks the credential-less fallback that skips the gateway entirely.
type PaymentInitiation struct {
	Demo       bool
	PaymentURL string
	PaymentRef string
}

// PaymentCallbackCommand is the browser return leg from a gateway.
type PaymentCallbackCommand struct {
	Method     PaymentMethod
	OrderID    int
	PaymentRef string
	Failed     bool
}

// CallbackResult tells the handler where to send the customer's browser.
type CallbackResult struct {
	RedirectURL string
}

// DeemaWebhookEvent is the server-to-server payment notification payload.
type DeemaWebhookEvent struct {
	OrderRef        string
	MerchantOrderID string
	Status          string
}

// paymentEvent names a reconciliation trigger.
type paymentEvent string

const (
	paymentEventCallbackConfirmed paymentEvent = "callback_confirmed"
	paymentEventCallbackFailed    paymentEvent = "callback_failed"
	paymentEventWebhookCaptured   paymentEvent = "webhook_captured"
	paymentEventWebhookExpired    paymentEvent = "webhook_expired"
	paymentEventWebhookCancelled  paymentEvent = "webhook_cancelled"
)

type paymentTransition struct {
	paymentStatus domain.PaymentStatus
	orderStatus   domain.OrderStatus
	// failure transitions obey the sticky-paid guard: once an order's
	// payment is paid, no failure event may flip it back.
	failure bool
}

// paymentTransitions is the single source of truth for how reconciliation
// events land on an order.
var paymentTransitions = map[paymentEvent]paymentTransition{
	paymentEventCallbackConfirmed: {domain.PaymentStatusPaid, domain.OrderStatusPaid, false},
	paymentEventCallbackFailed:    {domain.PaymentStatusFailed, domain.OrderStatusCancelled, true},
	paymentEventWebhookCaptured:   {domain.PaymentStatusPaid, domain.OrderStatusPaid, false},
	paymentEventWebhookExpired:    {domain.PaymentStatusFailed, domain.OrderStatusCancelled, true},
	paymentEventWebhookCancelled:  {domain.PaymentStatusFailed, domain.OrderStatusCancelled, true},
}

// PaymentServiceDeps bundles collaborators for the payment service.
type PaymentServiceDeps struct {
	Registry   repositories.Registry
	MyFatoorah payments.Gateway
	Deema      payments.Gateway
	// PublicBaseURL is the externally reachable origin used for gateway
	// callback URLs and browser redirects.
	PublicBaseURL string
	Logger        *zap.Logger
}

type paymentService struct {
	registry   repositories.Registry
	myfatoorah payments.Gateway
	deema      payments.Gateway
	baseURL    string
	logger     *zap.Logger
}

// NewPaymentService wires dependencies into a concrete PaymentService implementation.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Registry == nil {
		return nil, errors.New("payment service: repository registry is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(deps.PublicBaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("payment service: public base url is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &paymentService{
		registry:   deps.Registry,
		myfatoorah: deps.MyFatoorah,
		deema:      deps.Deema,
		baseURL:    baseURL,
		logger:     logger,
	}, nil
}

func (s *paymentService) GatewayAvailability(ctx context.Context) GatewayAvailability {
	return GatewayAvailability{
		MyFatoorah: s.myfatoorah != nil && s.myfatoorah.Enabled(),
		Deema:      s.deema != nil && s.deema.Enabled(),
	}
}

// InitiatePayment opens a hosted checkout session for the order. Without
// gateway credentials it returns a demo redirect and leaves the order alone,
// which keeps local and preview environments usable end to end.
func (s *paymentService) InitiatePayment(ctx context.Context, cmd InitiatePaymentCommand) (PaymentInitiation, error) {
	gateway, err := s.gatewayFor(cmd.Method)
	if err != nil {
		return PaymentInitiation{}, err
	}

	order, err := s.registry.Orders().FindByID(ctx, cmd.OrderID)
	if err != nil {
		return PaymentInitiation{}, mapOrderRepositoryError(err)
	}

	if gateway == nil || !gateway.Enabled() {
		return PaymentInitiation{
			Demo:       true,
			PaymentURL: fmt.Sprintf("%s/order/success?orderId=%d&demo=true", s.baseURL, order.ID),
		}, nil
	}

	req := payments.InitiationRequest{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Amount:        order.Total,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: order.CustomerPhone,
	}
	for _, item := range order.Items {
		req.Items = append(req.Items, payments.InvoiceItem{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}
	switch cmd.Method {
	case domain.PaymentMethodMyFatoorah:
		req.CallbackURL = fmt.Sprintf("%s/api/payment/myfatoorah/callback?orderId=%d", s.baseURL, order.ID)
		req.ErrorURL = req.CallbackURL + "&error=true"
	case domain.PaymentMethodDeema:
		req.CallbackURL = fmt.Sprintf("%s/api/payment/deema/callback?orderId=%d&status=success", s.baseURL, order.ID)
		req.ErrorURL = fmt.Sprintf("%s/api/payment/deema/callback?orderId=%d&status=failed", s.baseURL, order.ID)
	}

	initiation, err := gateway.Initiate(ctx, req)
	if err != nil {
		if payments.IsRequestError(err) {
			return PaymentInitiation{}, fmt.Errorf("%w: %s", ErrPaymentInvalidInput, err)
		}
		return PaymentInitiation{}, err
	}

	initiated := domain.PaymentStatusInitiated
	update := repositories.PaymentUpdate{PaymentStatus: &initiated}
	if initiation.PaymentRef != "" {
		ref := initiation.PaymentRef
		update.PaymentID = &ref
	}
	if _, err := s.registry.Orders().UpdatePayment(ctx, order.ID, update); err != nil {
		return PaymentInitiation{}, mapOrderRepositoryError(err)
	}

	s.logger.Info("payment initiated",
		zap.Int("order_id", order.ID),
		zap.String("gateway", gateway.Name()),
		zap.String("payment_ref", initiation.PaymentRef))

	return PaymentInitiation{
		PaymentURL: initiation.PaymentURL,
		PaymentRef: initiation.PaymentRef,
	}, nil
}

func (s *paymentService) gatewayFor(method PaymentMethod) (payments.Gateway, error) {
	switch method {
	case domain.PaymentMethodMyFatoorah:
		return s.myfatoorah, nil
	case domain.PaymentMethodDeema:
		return s.deema, nil
	default:
		return nil, fmt.Errorf("%w: no gateway for payment method %q", ErrPaymentInvalidInput, method)
	}
}

// CompleteCallback reconciles the browser return leg. The gateway redirect is
// the customer's only path back to the storefront, so reconciliation is
// optimistic: unless the gateway flagged an explicit failure, the order is
// marked paid and the customer lands on the success page even when the
// server-side status check cannot confirm.
func (s *paymentService) CompleteCallback(ctx context.Context, cmd PaymentCallbackCommand) (CallbackResult, error) {
	successURL := fmt.Sprintf("%s/order/success?orderId=%d", s.baseURL, cmd.OrderID)
	failedURL := fmt.Sprintf("%s/order/failed?orderId=%d", s.baseURL, cmd.OrderID)

	if cmd.Failed {
		if _, _, err := s.applyTransition(ctx, cmd.OrderID, paymentEventCallbackFailed, cmd.PaymentRef); err != nil {
			s.logger.Error("callback failure reconciliation failed",
				zap.Int("order_id", cmd.OrderID),
				zap.Error(err))
		}
		return CallbackResult{RedirectURL: failedURL}, nil
	}

	if cmd.Method == domain.PaymentMethodMyFatoorah && cmd.PaymentRef != "" {
		if checker, ok := s.myfatoorah.(payments.StatusChecker); ok && s.myfatoorah.Enabled() {
			status, err := checker.PaymentStatus(ctx, cmd.PaymentRef)
			if err != nil {
				s.logger.Warn("payment status check failed, trusting callback",
					zap.Int("order_id", cmd.OrderID),
					zap.Error(err))
			} else if status != payments.StatusPaid {
				s.logger.Warn("gateway has not confirmed payment yet, trusting callback",
					zap.Int("order_id", cmd.OrderID),
					zap.String("gateway_status", string(status)))
			}
		}
	}

	if _, _, err := s.applyTransition(ctx, cmd.OrderID, paymentEventCallbackConfirmed, cmd.PaymentRef); err != nil {
		s.logger.Error("callback reconciliation failed",
			zap.Int("order_id", cmd.OrderID),
			zap.Error(err))
	}
	return CallbackResult{RedirectURL: successURL}, nil
}

// HandleDeemaWebhook reconciles a server-to-server payment notification.
// Unmatched orders and unknown statuses are logged and dropped so the
// gateway never retries storms against us.
func (s *paymentService) HandleDeemaWebhook(ctx context.Context, event DeemaWebhookEvent) error {
	order, found := s.matchWebhookOrder(ctx, event)
	if !found {
		s.logger.Warn("deema webhook for unknown order",
			zap.String("order_ref", event.OrderRef),
			zap.String("merchant_order_id", event.MerchantOrderID))
		return nil
	}

	var reconciliation paymentEvent
	switch strings.ToLower(event.Status) {
	case "captured":
		reconciliation = paymentEventWebhookCaptured
	case "expired":
		reconciliation = paymentEventWebhookExpired
	case "cancelled":
		reconciliation = paymentEventWebhookCancelled
	default:
		s.logger.Info("deema webhook status ignored",
			zap.Int("order_id", order.ID),
			zap.String("status", event.Status))
		return nil
	}

	updated, applied, err := s.applyTransition(ctx, order.ID, reconciliation, event.OrderRef)
	if err != nil {
		// The handler acks the gateway regardless, so this log line is the
		// only trace of a reconciliation that needs manual follow-up.
		s.logger.Error("deema webhook reconciliation failed",
			zap.Int("order_id", order.ID),
			zap.String("event", string(reconciliation)),
			zap.Error(err))
		return err
	}
	if applied {
		s.logger.Info("deema webhook reconciled",
			zap.Int("order_id", updated.ID),
			zap.String("event", string(reconciliation)),
			zap.String("payment_status", string(updated.PaymentStatus)))
	} else {
		s.logger.Info("deema webhook skipped by sticky-paid guard",
			zap.Int("order_id", order.ID),
			zap.String("event", string(reconciliation)))
	}
	return nil
}

func (s *paymentService) matchWebhookOrder(ctx context.Context, event DeemaWebhookEvent) (Order, bool) {
	if event.OrderRef != "" {
		order, err := s.registry.Orders().FindByPaymentRef(ctx, event.OrderRef)
		if err == nil {
			return order, true
		}
	}
	if id, err := strconv.Atoi(strings.TrimSpace(event.MerchantOrderID)); err == nil {
		order, err := s.registry.Orders().FindByID(ctx, id)
		if err == nil {
			return order, true
		}
	}
	return Order{}, false
}

// applyTransition looks the event up in the transition table and applies it
// inside a transaction. The read and the write share the transaction so the
// sticky-paid guard cannot race a concurrent capture.
func (s *paymentService) applyTransition(ctx context.Context, orderID int, event paymentEvent, paymentRef string) (Order, bool, error) {
	transition, ok := paymentTransitions[event]
	if !ok {
		return Order{}, false, fmt.Errorf("payment: unknown reconciliation event %q", event)
	}

	var updated Order
	applied := false
	err := s.registry.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.registry.Orders().FindByID(ctx, orderID)
		if err != nil {
			return mapOrderRepositoryError(err)
		}

		if transition.failure && order.PaymentStatus == domain.PaymentStatusPaid {
			updated = order
			return nil
		}

		paymentStatus := transition.paymentStatus
		orderStatus := transition.orderStatus
		update := repositories.PaymentUpdate{
			PaymentStatus: &paymentStatus,
			Status:        &orderStatus,
		}
		if paymentRef != "" {
			ref := paymentRef
			update.PaymentID = &ref
		}

		updated, err = s.registry.Orders().UpdatePayment(ctx, orderID, update)
		if err != nil {
			return mapOrderRepositoryError(err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return Order{}, false, err
	}
	return updated, applied, nil
}

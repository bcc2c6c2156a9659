package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	domain "github.com/bilyar/storefront-api/internal/domain"
	"github.com/bilyar/storefront-api/internal/payments"
	"github.com/bilyar/storefront-api/internal/repositories"
)

// stubGateway fakes a payment gateway, optionally with status lookup.
type stubGateway struct {
	name       string
	enabled    bool
	initiateFn func(context.Context, payments.InitiationRequest) (payments.Initiation, error)
	statusFn   func(context.Context, string) (payments.Status, error)
}

func (s *stubGateway) Name() string  { return s.name }
func (s *stubGateway) Enabled() bool { return s.enabled }

func (s *stubGateway) Initiate(ctx context.Context, req payments.InitiationRequest) (payments.Initiation, error) {
	if s.initiateFn != nil {
		return s.initiateFn(ctx, req)
	}
	return payments.Initiation{}, errors.New("not implemented")
}

func (s *stubGateway) PaymentStatus(ctx context.Context, ref string) (payments.Status, error) {
	if s.statusFn != nil {
		return s.statusFn(ctx, ref)
	}
	return payments.StatusPending, errors.New("not implemented")
}

func newTestPaymentService(t *testing.T, registry *stubRegistry, myfatoorah, deema payments.Gateway) PaymentService {
	t.Helper()
	svc, err := NewPaymentService(PaymentServiceDeps{
		Registry:      registry,
		MyFatoorah:    myfatoorah,
		Deema:         deema,
		PublicBaseURL: "https://shop.example",
	})
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}
	return svc
}

func pendingOrder(id int) domain.Order {
	return domain.Order{
		ID:            id,
		OrderNumber:   "ORD-01J8TESTULID",
		CustomerName:  "Sara",
		CustomerEmail: "sara@example.com",
		CustomerPhone: "96599887766",
		Status:        domain.OrderStatusPending,
		PaymentMethod: domain.PaymentMethodMyFatoorah,
		PaymentStatus: domain.PaymentStatusPending,
		Total:         119,
		Items:         []domain.OrderItem{{ProductName: "Classic Dishdasha", Quantity: 1, Price: 119}},
	}
}

func TestInitiatePaymentDemoModeWithoutCredentials(t *testing.T) {
	registry := newStubRegistry()
	registry.orders.findFn = func(_ context.Context, id int) (domain.Order, error) {
		return pendingOrder(id), nil
	}
	mutated := false
	registry.orders.updatePaymentFn = func(_ context.Context, id int, _ repositories.PaymentUpdate) (domain.Order, error) {
		mutated = true
		return domain.Order{ID: id}, nil
	}

	svc := newTestPaymentService(t, registry, &stubGateway{name: "myfatoorah"}, nil)

	initiation, err := svc.InitiatePayment(context.Background(), InitiatePaymentCommand{
		Method:  domain.PaymentMethodMyFatoorah,
		OrderID: 12,
	})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	if !initiation.Demo {
		t.Fatalf("expected demo initiation")
	}
	if initiation.PaymentURL != "https://shop.example/order/success?orderId=12&demo=true" {
		t.Fatalf("demo url = %q", initiation.PaymentURL)
	}
	if mutated {
		t.Fatalf("demo mode must not touch the order")
	}
}

func TestInitiatePaymentRecordsReference(t *testing.T) {
	registry := newStubRegistry()
	registry.orders.findFn = func(_ context.Context, id int) (domain.Order, error) {
		return pendingOrder(id), nil
	}
	var recorded repositories.PaymentUpdate
	registry.orders.updatePaymentFn = func(_ context.Context, id int, update repositories.PaymentUpdate) (domain.Order, error) {
		recorded = update
		return domain.Order{ID: id}, nil
	}

	var captured payments.InitiationRequest
	gateway := &stubGateway{
		name:    "myfatoorah",
		enabled: true,
		initiateFn: func(_ context.Context, req payments.InitiationRequest) (payments.Initiation, error) {
			captured = req
			return payments.Initiation{PaymentURL: "https://pay.example/1", PaymentRef: "987654"}, nil
		},
	}

	svc := newTestPaymentService(t, registry, gateway, nil)

	initiation, err := svc.InitiatePayment(context.Background(), InitiatePaymentCommand{
		Method:  domain.PaymentMethodMyFatoorah,
		OrderID: 12,
	})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	if initiation.Demo || initiation.PaymentURL != "https://pay.example/1" {
		t.Fatalf("initiation = %#v", initiation)
	}

	if captured.CallbackURL != "https://shop.example/api/payment/myfatoorah/callback?orderId=12" {
		t.Fatalf("callback url = %q", captured.CallbackURL)
	}
	if !strings.HasSuffix(captured.ErrorURL, "&error=true") {
		t.Fatalf("error url = %q", captured.ErrorURL)
	}
	if captured.Amount != 119 {
		t.Fatalf("amount = %v", captured.Amount)
	}

	if recorded.PaymentID == nil || *recorded.PaymentID != "987654" {
		t.Fatalf("payment id update = %v", recorded.PaymentID)
	}
	if recorded.PaymentStatus == nil || *recorded.PaymentStatus != domain.PaymentStatusInitiated {
		t.Fatalf("payment status update = %v", recorded.PaymentStatus)
	}
	if recorded.Status != nil {
		t.Fatalf("initiation must not change the order status")
	}
}

func TestInitiatePaymentMapsGatewayRequestErrors(t *testing.T) {
	registry := newStubRegistry()
	registry.orders.findFn = func(_ context.Context, id int) (domain.Order, error) {
		return pendingOrder(id), nil
	}
	gateway := &stubGateway{
		name:    "deema",
		enabled: true,
		initiateFn: func(context.Context, payments.InitiationRequest) (payments.Initiation, error) {
			return payments.Initiation{}, payments.NewRequestError("sandbox range exceeded")
		},
	}

	svc := newTestPaymentService(t, registry, nil, gateway)

	_, err := svc.InitiatePayment(context.Background(), InitiatePaymentCommand{
		Method:  domain.PaymentMethodDeema,
		OrderID: 12,
	})
	if !errors.Is(err, ErrPaymentInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestInitiatePaymentRejectsManualMethod(t *testing.T) {
	svc := newTestPaymentService(t, newStubRegistry(), nil, nil)
	_, err := svc.InitiatePayment(context.Background(), InitiatePaymentCommand{
		Method:  domain.PaymentMethodManual,
		OrderID: 12,
	})
	if !errors.Is(err, ErrPaymentInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestCompleteCallbackFailureCancelsOrder(t *testing.T) {
	registry := newStubRegistry()
	registry.orders.findFn = func(_ context.Context, id int) (domain.Order, error) {
		return pendingOrder(id), nil
	}
	var recorded repositories.PaymentUpdate
	registry.orders.updatePaymentFn = func(_ context.Context, id int, update repositories.PaymentUpdate) (domain.Order, error) {
		recorded = update
		return domain.Order{ID: id}, nil
	}

	svc := newTestPaymentService(t, registry, &stubGateway{name: "myfatoorah", enabled: true}, nil)

	result, err := svc.CompleteCallback(context.Background(), PaymentCallbackCommand{
		Method:     domain.PaymentMethodMyFatoorah,
		OrderID:    12,
		PaymentRef: "987654",
		Failed:     true,
	})
	if err != nil {
		t.Fatalf("CompleteCallback: %v", err)
	}
	if result.RedirectURL != "https://shop.example/order/failed?orderId=12" {
		t.Fatalf("redirect = %q", result.RedirectURL)
	}
	if recorded.PaymentStatus == nil || *recorded.PaymentStatus != domain.PaymentStatusFailed {
		t.Fatalf("payment status = %v", recorded.PaymentStatus)
	}
	if recorded.Status == nil || *recorded.Status != domain.OrderStatusCancelled {
		t.Fatalf("order status = %v", recorded.Status)
	}
}

func TestCompleteCallbackMarksPaidEvenWhenStatusCheckFails(t *testing.T) {
	registry := newStubRegistry()
	registry.orders.findFn = func(_ context.Context, id int) (domain.Order, error) {
		return pendingOrder(id), nil
	}
	var recorded repositories.PaymentUpdate
	registry.orders.updatePaymentFn = func(_ context.Context, id int, update repositories.PaymentUpdate) (domain.Order, error) {
		recorded = update
		return domain.Order{ID: id}, nil
	}

	gateway := &stubGateway{
		name:    "myfatoorah",
		enabled: true,
		statusFn: func(context.Context, string) (payments.Status, error) {
			return payments.StatusPending, errors.New("gateway timeout")
		},
	}
	svc := newTestPaymentService(t, registry, gateway, nil)

	result, err := svc.CompleteCallback(context.Background(), PaymentCallbackCommand{
		Method:     domain.PaymentMethodMyFatoorah,
		OrderID:    12,
		PaymentRef: "987654",
	})
	if err != nil {
		t.Fatalf("CompleteCallback: %v", err)
	}
	if result.RedirectURL != "https://shop.example/order/success?orderId=12" {
		t.Fatalf("redirect = %q", result.RedirectURL)
	}
	if recorded.PaymentStatus == nil || *recorded.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("payment status = %v, want optimistic paid", recorded.PaymentStatus)
	}
	if recorded.Status == nil || *recorded.Status != domain.OrderStatusPaid {
		t.Fatalf("order status = %v", recorded.Status)
	}
}

func TestCompleteCallbackRedirectsEvenWhenOrderMissing(t *testing.T) {
	svc := newTestPaymentService(t, newStubRegistry(), &stubGateway{name: "myfatoorah"}, nil)

	result, err := svc.CompleteCallback(context.Background(), PaymentCallbackCommand{
		Method:  domain.PaymentMethodMyFatoorah,
		OrderID: 404,
	})
	if err != nil {
		t.Fatalf("CompleteCallback: %v", err)
	}
	if !strings.Contains(result.RedirectURL, "/order/success") {
		t.Fatalf("redirect = %q", result.RedirectURL)
	}
}

func TestDeemaWebhookCapturedMarksPaid(t *testing.T) {
	registry := newStubRegistry()
	order := pendingOrder(22)
	ref := "DEEMA-REF-1"
	order.PaymentID = &ref
	registry.orders.findByPaymentFn = func(_ context.Context, got string) (domain.Order, error) {
		if got == ref {
			return order, nil
		}
		return domain.Order{}, notFoundErr{}
	}
	registry.orders.findFn = func(_ context.Context, id int) (domain.Order, error) {
		if id == 22 {
			return order, nil
		}
		return domain.Order{}, notFoundErr{}
	}
	var recorded repositories.PaymentUpdate
	registry.orders.updatePaymentFn = func(_ context.Context, id int, update repositories.PaymentUpdate) (domain.Order, error) {
		recorded = update
		order.PaymentStatus = *update.PaymentStatus
		return order, nil
	}

	svc := newTestPaymentService(t, registry, nil, &stubGateway{name: "deema", enabled: true})

	err := svc.HandleDeemaWebhook(context.Background(), DeemaWebhookEvent{
		OrderRef: ref,
		Status:   "captured",
	})
	if err != nil {
		t.Fatalf("HandleDeemaWebhook: %v", err)
	}
	if recorded.PaymentStatus == nil || *recorded.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("payment status = %v", recorded.PaymentStatus)
	}
	if recorded.Status == nil || *recorded.Status != domain.OrderStatusPaid {
		t.Fatalf("order status = %v", recorded.Status)
	}
}

func TestDeemaWebhookExpiredRespectsStickyPaid(t *testing.T) {
	registry := newStubRegistry()
	order := pendingOrder(22)
	order.PaymentStatus = domain.PaymentStatusPaid
	order.Status = domain.OrderStatusPaid
	registry.orders.findFn = func(_ context.Context, id int) (domain.Order, error) {
		return order, nil
	}
	registry.orders.findByPaymentFn = func(context.Context, string) (domain.Order, error) {
		return order, nil
	}
	registry.orders.updatePaymentFn = func(_ context.Context, _ int, _ repositories.PaymentUpdate) (domain.Order, error) {
		t.Fatalf("a paid order must not be flipped by a late failure webhook")
		return domain.Order{}, nil
	}

	svc := newTestPaymentService(t, registry, nil, &stubGateway{name: "deema", enabled: true})

	for _, status := range []string{"expired", "cancelled", "EXPIRED"} {
		if err := svc.HandleDeemaWebhook(context.Background(), DeemaWebhookEvent{
			OrderRef: "DEEMA-REF-1",
			Status:   status,
		}); err != nil {
			t.Fatalf("HandleDeemaWebhook(%s): %v", status, err)
		}
	}
}

func TestDeemaWebhookExpiredCancelsUnpaidOrder(t *testing.T) {
	registry := newStubRegistry()
	order := pendingOrder(22)
	registry.orders.findByPaymentFn = func(context.Context, string) (domain.Order, error) {
		return order, nil
	}
	registry.orders.findFn = func(_ context.Context, id int) (domain.Order, error) {
		return order, nil
	}
	var recorded repositories.PaymentUpdate
	registry.orders.updatePaymentFn = func(_ context.Context, id int, update repositories.PaymentUpdate) (domain.Order, error) {
		recorded = update
		return order, nil
	}

	svc := newTestPaymentService(t, registry, nil, &stubGateway{name: "deema", enabled: true})

	if err := svc.HandleDeemaWebhook(context.Background(), DeemaWebhookEvent{
		OrderRef: "DEEMA-REF-1",
		Status:   "expired",
	}); err != nil {
		t.Fatalf("HandleDeemaWebhook: %v", err)
	}
	if recorded.PaymentStatus == nil || *recorded.PaymentStatus != domain.PaymentStatusFailed {
		t.Fatalf("payment status = %v", recorded.PaymentStatus)
	}
	if recorded.Status == nil || *recorded.Status != domain.OrderStatusCancelled {
		t.Fatalf("order status = %v", recorded.Status)
	}
}

func TestDeemaWebhookMatchesByMerchantOrderID(t *testing.T) {
	registry := newStubRegistry()
	order := pendingOrder(22)
	registry.orders.findFn = func(_ context.Context, id int) (domain.Order, error) {
		if id == 22 {
			return order, nil
		}
		return domain.Order{}, notFoundErr{}
	}
	updated := false
	registry.orders.updatePaymentFn = func(_ context.Context, id int, _ repositories.PaymentUpdate) (domain.Order, error) {
		updated = true
		return order, nil
	}

	svc := newTestPaymentService(t, registry, nil, &stubGateway{name: "deema", enabled: true})

	if err := svc.HandleDeemaWebhook(context.Background(), DeemaWebhookEvent{
		MerchantOrderID: "22",
		Status:          "captured",
	}); err != nil {
		t.Fatalf("HandleDeemaWebhook: %v", err)
	}
	if !updated {
		t.Fatalf("order matched by merchant id should be reconciled")
	}
}

func TestDeemaWebhookUnknownOrderIsDropped(t *testing.T) {
	svc := newTestPaymentService(t, newStubRegistry(), nil, &stubGateway{name: "deema", enabled: true})

	if err := svc.HandleDeemaWebhook(context.Background(), DeemaWebhookEvent{
		OrderRef:        "no-such-ref",
		MerchantOrderID: "999",
		Status:          "captured",
	}); err != nil {
		t.Fatalf("unmatched webhook must not error: %v", err)
	}
}

func TestDeemaWebhookIgnoresUnknownStatus(t *testing.T) {
	registry := newStubRegistry()
	registry.orders.findByPaymentFn = func(context.Context, string) (domain.Order, error) {
		return pendingOrder(22), nil
	}
	registry.orders.updatePaymentFn = func(_ context.Context, _ int, _ repositories.PaymentUpdate) (domain.Order, error) {
		t.Fatalf("unknown status must not mutate the order")
		return domain.Order{}, nil
	}

	svc := newTestPaymentService(t, registry, nil, &stubGateway{name: "deema", enabled: true})

	if err := svc.HandleDeemaWebhook(context.Background(), DeemaWebhookEvent{
		OrderRef: "DEEMA-REF-1",
		Status:   "created",
	}); err != nil {
		t.Fatalf("HandleDeemaWebhook: %v", err)
	}
}

func TestDeemaWebhookLogsReconciliationFailure(t *testing.T) {
	registry := newStubRegistry()
	registry.orders.findByPaymentFn = func(context.Context, string) (domain.Order, error) {
		return pendingOrder(22), nil
	}
	registry.orders.findFn = func(context.Context, int) (domain.Order, error) {
		return pendingOrder(22), nil
	}
	registry.orders.updatePaymentFn = func(context.Context, int, repositories.PaymentUpdate) (domain.Order, error) {
		return domain.Order{}, errors.New("store unavailable")
	}

	core, logs := observer.New(zap.ErrorLevel)
	svc, err := NewPaymentService(PaymentServiceDeps{
		Registry:      registry,
		Deema:         &stubGateway{name: "deema", enabled: true},
		PublicBaseURL: "https://shop.example",
		Logger:        zap.New(core),
	})
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}

	err = svc.HandleDeemaWebhook(context.Background(), DeemaWebhookEvent{
		OrderRef: "DEEMA-REF-1",
		Status:   "captured",
	})
	if err == nil {
		t.Fatalf("reconciliation failure must surface as an error")
	}
	entries := logs.FilterMessage("deema webhook reconciliation failed").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want the failure recorded once", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["order_id"] != int64(22) {
		t.Fatalf("logged order_id = %v", fields["order_id"])
	}
}

func TestDeemaWebhookReplayIsIdempotent(t *testing.T) {
	registry := newStubRegistry()
	order := pendingOrder(22)
	registry.orders.findByPaymentFn = func(context.Context, string) (domain.Order, error) {
		return order, nil
	}
	registry.orders.findFn = func(context.Context, int) (domain.Order, error) {
		return order, nil
	}
	writes := 0
	registry.orders.updatePaymentFn = func(_ context.Context, _ int, update repositories.PaymentUpdate) (domain.Order, error) {
		writes++
		order.PaymentStatus = *update.PaymentStatus
		order.Status = *update.Status
		return order, nil
	}

	svc := newTestPaymentService(t, registry, nil, &stubGateway{name: "deema", enabled: true})

	event := DeemaWebhookEvent{OrderRef: "DEEMA-REF-1", Status: "captured"}
	for attempt := 0; attempt < 2; attempt++ {
		if err := svc.HandleDeemaWebhook(context.Background(), event); err != nil {
			t.Fatalf("HandleDeemaWebhook replay %d: %v", attempt, err)
		}
	}
	if order.PaymentStatus != domain.PaymentStatusPaid || order.Status != domain.OrderStatusPaid {
		t.Fatalf("replayed capture left order %s/%s", order.PaymentStatus, order.Status)
	}
	if writes != 2 {
		t.Fatalf("writes = %d, each delivery should apply the same terminal state", writes)
	}
}

func TestGatewayAvailability(t *testing.T) {
	svc := newTestPaymentService(t, newStubRegistry(),
		&stubGateway{name: "myfatoorah", enabled: true},
		&stubGateway{name: "deema"})

	availability := svc.GatewayAvailability(context.Background())
	if !availability.MyFatoorah || availability.Deema {
		t.Fatalf("availability = %#v", availability)
	}
}

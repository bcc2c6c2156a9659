package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/bilyar/storefront-api/internal/domain"
	"github.com/bilyar/storefront-api/internal/platform/httpx"
	"github.com/bilyar/storefront-api/internal/services"
)

const maxPaymentBodySize = 64 * 1024

// PaymentHandlers exposes checkout initiation, the browser callback legs,
// and the server-to-server webhook.
type PaymentHandlers struct {
	payments services.PaymentService
}

// NewPaymentHandlers constructs a new PaymentHandlers instance.
func NewPaymentHandlers(payments services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{payments: payments}
}

// Routes registers the public payment endpoints.
func (h *PaymentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/payment/status", h.gatewayStatus)
	r.Post("/payment/myfatoorah/initiate", h.initiate(domain.PaymentMethodMyFatoorah))
	r.Post("/payment/deema/initiate", h.initiate(domain.PaymentMethodDeema))
	r.Get("/payment/myfatoorah/callback", h.myfatoorahCallback)
	r.Get("/payment/deema/callback", h.deemaCallback)
}

// WebhookRoutes registers the gateway webhook endpoints.
func (h *PaymentHandlers) WebhookRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/payment/deema/webhook", h.deemaWebhook)
}

func (h *PaymentHandlers) gatewayStatus(w http.ResponseWriter, r *http.Request) {
	availability := h.payments.GatewayAvailability(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{
		"myfatoorah": availability.MyFatoorah,
		"deema":      availability.Deema,
	})
}

type initiatePaymentRequest struct {
	OrderID int `json:"orderId"`
}

type initiatePaymentResponse struct {
	Demo       bool   `json:"demo,omitempty"`
	PaymentURL string `json:"paymentUrl"`
	PaymentRef string `json:"paymentRef,omitempty"`
}

func (h *PaymentHandlers) initiate(method domain.PaymentMethod) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req initiatePaymentRequest
		if !decodeBody(ctx, w, r, maxPaymentBodySize, &req) {
			return
		}
		if req.OrderID <= 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "orderId is required", http.StatusBadRequest))
			return
		}

		initiation, err := h.payments.InitiatePayment(ctx, services.InitiatePaymentCommand{
			Method:  method,
			OrderID: req.OrderID,
		})
		if err != nil {
			writePaymentError(ctx, w, err)
			return
		}
		writeJSON(w, http.StatusOK, initiatePaymentResponse{
			Demo:       initiation.Demo,
			PaymentURL: initiation.PaymentURL,
			PaymentRef: initiation.PaymentRef,
		})
	}
}

func (h *PaymentHandlers) myfatoorahCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	orderID, err := strconv.Atoi(strings.TrimSpace(query.Get("orderId")))
	if err != nil || orderID <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid order id", http.StatusBadRequest))
		return
	}

	result, err := h.payments.CompleteCallback(ctx, services.PaymentCallbackCommand{
		Method:     domain.PaymentMethodMyFatoorah,
		OrderID:    orderID,
		PaymentRef: strings.TrimSpace(query.Get("paymentId")),
		Failed:     query.Get("error") != "",
	})
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

func (h *PaymentHandlers) deemaCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	orderID, err := strconv.Atoi(strings.TrimSpace(query.Get("orderId")))
	if err != nil || orderID <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid order id", http.StatusBadRequest))
		return
	}

	// Anything other than an explicit failed status counts as success; Deema
	// omits the parameter on some flows and uses "completed" on others.
	failed := strings.EqualFold(strings.TrimSpace(query.Get("status")), "failed")

	result, err := h.payments.CompleteCallback(ctx, services.PaymentCallbackCommand{
		Method:  domain.PaymentMethodDeema,
		OrderID: orderID,
		Failed:  failed,
	})
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

type deemaWebhookRequest struct {
	OrderRef         string `json:"order_ref"`
	OrderReference   string `json:"order_reference"`
	MerchantOrderRef string `json:"merchant_order_ref"`
	MerchantOrderID  string `json:"merchant_order_id"`
	Status           string `json:"status"`
}

// deemaWebhook always acknowledges with 200 so the gateway does not retry;
// reconciliation failures are logged inside the service.
func (h *PaymentHandlers) deemaWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req deemaWebhookRequest
	if body, err := readLimitedBody(r, maxPaymentBodySize); err == nil {
		_ = json.Unmarshal(body, &req)
	}

	orderRef := req.OrderRef
	if orderRef == "" {
		orderRef = req.OrderReference
	}
	merchantOrderID := req.MerchantOrderRef
	if merchantOrderID == "" {
		merchantOrderID = req.MerchantOrderID
	}

	_ = h.payments.HandleDeemaWebhook(ctx, services.DeemaWebhookEvent{
		OrderRef:        orderRef,
		MerchantOrderID: merchantOrderID,
		Status:          req.Status,
	})

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func writePaymentError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrPaymentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("payment_error", "payment service error", http.StatusInternalServerError))
	}
}

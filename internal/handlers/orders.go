package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/bilyar/storefront-api/internal/domain"
	"github.com/bilyar/storefront-api/internal/platform/httpx"
	"github.com/bilyar/storefront-api/internal/services"
)

const maxOrderBodySize = 512 * 1024

// OrderHandlers exposes the checkout and order admin endpoints.
type OrderHandlers struct {
	orders  services.OrderService
	limiter RateLimiter
}

// NewOrderHandlers constructs a new OrderHandlers instance. A nil limiter
// disables checkout rate limiting.
func NewOrderHandlers(orders services.OrderService, limiter RateLimiter) *OrderHandlers {
	return &OrderHandlers{orders: orders, limiter: limiter}
}

// Routes registers the public order endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Post("/orders", h.createOrder)
}

// AdminRoutes registers the order admin endpoints.
func (h *OrderHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Patch("/orders/{orderID}", h.updateOrder)
	r.Patch("/orders/{orderID}/status", h.updateOrderStatus)
	r.Delete("/orders/{orderID}", h.deleteOrder)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildOrderListPayload(orders))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := urlParamInt(r, "orderID")
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid order id", http.StatusBadRequest))
		return
	}
	order, err := h.orders.GetOrder(ctx, id)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildOrderPayload(order))
}

type createOrderRequest struct {
	Customer struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
		City    string `json:"city"`
		Country string `json:"country"`
	} `json:"customer"`
	Items []struct {
		ProductID    int               `json:"productId"`
		ProductName  string            `json:"productName"`
		Quantity     int               `json:"quantity"`
		Image        string            `json:"image"`
		Size         *string           `json:"size"`
		Measurements map[string]string `json:"measurements"`
		Notes        *string           `json:"notes"`
	} `json:"items"`
	PaymentMethod string `json:"paymentMethod"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.limiter != nil && !h.limiter.Allow(clientAddress(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many checkout attempts, try again shortly", http.StatusTooManyRequests))
		return
	}

	var req createOrderRequest
	if !decodeBody(ctx, w, r, maxOrderBodySize, &req) {
		return
	}

	cmd := services.CreateOrderCommand{
		Customer: services.CustomerInfo{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
			City:    req.Customer.City,
			Country: req.Customer.Country,
		},
		PaymentMethod: services.PaymentMethod(strings.TrimSpace(req.PaymentMethod)),
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, services.NewOrderItem{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			Image:        item.Image,
			Size:         item.Size,
			Measurements: item.Measurements,
			Notes:        item.Notes,
		})
	}

	order, err := h.orders.CreateOrder(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, buildOrderPayload(order))
}

type updateOrderRequest struct {
	Customer *struct {
		Name    *string `json:"name"`
		Email   *string `json:"email"`
		Phone   *string `json:"phone"`
		Address *string `json:"address"`
		City    *string `json:"city"`
		Country *string `json:"country"`
	} `json:"customer"`
	Status *string `json:"status"`
	Items  []struct {
		ProductID    int               `json:"productId"`
		ProductName  string            `json:"productName"`
		Quantity     int               `json:"quantity"`
		Price        float64           `json:"price"`
		Image        string            `json:"image"`
		Size         *string           `json:"size"`
		Measurements map[string]string `json:"measurements"`
		Notes        *string           `json:"notes"`
		NotesEn      *string           `json:"notesEn"`
	} `json:"items"`
}

func (h *OrderHandlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := urlParamInt(r, "orderID")
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid order id", http.StatusBadRequest))
		return
	}

	var req updateOrderRequest
	if !decodeBody(ctx, w, r, maxOrderBodySize, &req) {
		return
	}

	cmd := services.UpdateOrderCommand{OrderID: id}
	if req.Customer != nil {
		cmd.Customer = services.CustomerPatch{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
			City:    req.Customer.City,
			Country: req.Customer.Country,
		}
	}
	if req.Status != nil {
		status, ok := domain.ParseOrderStatus(*req.Status)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid order status", http.StatusBadRequest))
			return
		}
		cmd.Status = &status
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, services.ReplacementOrderItem{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			Price:        item.Price,
			Image:        item.Image,
			Size:         item.Size,
			Measurements: item.Measurements,
			Notes:        item.Notes,
			NotesEn:      item.NotesEn,
		})
	}

	order, err := h.orders.UpdateOrder(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildOrderPayload(order))
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := urlParamInt(r, "orderID")
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid order id", http.StatusBadRequest))
		return
	}

	var req updateOrderStatusRequest
	if !decodeBody(ctx, w, r, maxOrderBodySize, &req) {
		return
	}
	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid order status", http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := urlParamInt(r, "orderID")
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid order id", http.StatusBadRequest))
		return
	}
	if err := h.orders.DeleteOrder(ctx, id); err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}

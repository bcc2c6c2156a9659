package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bilyar/storefront-api/internal/platform/httpx"
	"github.com/bilyar/storefront-api/internal/services"
)

const maxCustomerBodySize = 64 * 1024

// CustomerHandlers exposes the derived customer directory and the admin
// operations that fan out over a customer's order history.
type CustomerHandlers struct {
	customers services.CustomerService
}

// NewCustomerHandlers constructs a new CustomerHandlers instance.
func NewCustomerHandlers(customers services.CustomerService) *CustomerHandlers {
	return &CustomerHandlers{customers: customers}
}

// Routes registers the customer read endpoints.
func (h *CustomerHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/customers", h.listCustomers)
}

// AdminRoutes registers the customer admin endpoints.
func (h *CustomerHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Patch("/customers", h.updateCustomer)
	r.Delete("/customers", h.deleteCustomer)
}

func (h *CustomerHandlers) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customers, err := h.customers.ListCustomers(ctx)
	if err != nil {
		writeCustomerError(ctx, w, err)
		return
	}
	out := make([]customerPayload, 0, len(customers))
	for _, c := range customers {
		out = append(out, buildCustomerPayload(c))
	}
	writeJSON(w, http.StatusOK, out)
}

type updateCustomerRequest struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

func (h *CustomerHandlers) updateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateCustomerRequest
	if !decodeBody(ctx, w, r, maxCustomerBodySize, &req) {
		return
	}

	updated, err := h.customers.UpdateCustomer(ctx, services.UpdateCustomerCommand{
		CustomerID: req.ID,
		Name:       req.Name,
		Phone:      req.Phone,
	})
	if err != nil {
		writeCustomerError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *CustomerHandlers) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "customer id is required", http.StatusBadRequest))
		return
	}

	deleted, err := h.customers.DeleteCustomer(ctx, id)
	if err != nil {
		writeCustomerError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func writeCustomerError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCustomerInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCustomerNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("customer_not_found", "customer not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("customer_error", "failed to process customer request", http.StatusInternalServerError))
	}
}

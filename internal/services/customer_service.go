package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	domain "github.com/bilyar/storefront-api/internal/domain"
	"github.com/bilyar/storefront-api/internal/repositories"
)

var (
	// ErrCustomerInvalidInput signals the caller provided invalid data.
	ErrCustomerInvalidInput = errors.New("customer: invalid input")
	// ErrCustomerNotFound indicates no orders matched the customer key.
	ErrCustomerNotFound = errors.New("customer: not found")
)

// UpdateCustomerCommand renames a derived customer across their order history.
type UpdateCustomerCommand struct {
	CustomerID string
	Name       *string
	Phone      *string
}

type customerService struct {
	registry repositories.Registry
	logger   *zap.Logger
}

// NewCustomerService wires the repository registry into a CustomerService.
func NewCustomerService(registry repositories.Registry, logger *zap.Logger) (CustomerService, error) {
	if registry == nil {
		return nil, errors.New("customer service: repository registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &customerService{registry: registry, logger: logger}, nil
}

// ListCustomers aggregates the order history into per-customer rollups.
// Customers are keyed by lowercased email when present, else phone|name, and
// the most recent order supplies the display name and phone.
func (s *customerService) ListCustomers(ctx context.Context) ([]Customer, error) {
	orders, err := s.registry.Orders().List(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*Customer)
	var keys []string
	for _, order := range orders {
		key := order.CustomerKey()
		existing, ok := byKey[key]
		if !ok {
			byKey[key] = &Customer{
				ID:            key,
				Email:         order.CustomerEmail,
				Name:          order.CustomerName,
				Phone:         order.CustomerPhone,
				TotalOrders:   1,
				TotalSpent:    order.Total,
				LastOrderDate: order.CreatedAt,
				Orders:        []Order{order},
			}
			keys = append(keys, key)
			continue
		}
		existing.TotalOrders++
		existing.TotalSpent += order.Total
		if order.CreatedAt.After(existing.LastOrderDate) {
			existing.LastOrderDate = order.CreatedAt
			existing.Name = order.CustomerName
			existing.Phone = order.CustomerPhone
		}
		existing.Orders = append(existing.Orders, order)
	}

	customers := make([]Customer, 0, len(keys))
	for _, key := range keys {
		customer := *byKey[key]
		customer.Tier = domain.TierFor(customer.TotalOrders, customer.TotalSpent)
		customers = append(customers, customer)
	}
	sort.SliceStable(customers, func(i, j int) bool {
		return customers[i].TotalSpent > customers[j].TotalSpent
	})
	return customers, nil
}

// UpdateCustomer applies the rename to every order belonging to the customer
// key and returns the number of orders touched.
func (s *customerService) UpdateCustomer(ctx context.Context, cmd UpdateCustomerCommand) (int, error) {
	if strings.TrimSpace(cmd.CustomerID) == "" {
		return 0, fmt.Errorf("%w: customer id is required", ErrCustomerInvalidInput)
	}
	if cmd.Name == nil && cmd.Phone == nil {
		return 0, fmt.Errorf("%w: nothing to update", ErrCustomerInvalidInput)
	}

	orders, err := s.registry.Orders().List(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, order := range orders {
		if order.CustomerKey() != cmd.CustomerID {
			continue
		}
		if cmd.Name != nil {
			order.CustomerName = *cmd.Name
			order.CustomerNameEn = cmd.Name
		}
		if cmd.Phone != nil {
			order.CustomerPhone = *cmd.Phone
		}
		if _, err := s.registry.Orders().Update(ctx, order); err != nil {
			return updated, mapOrderRepositoryError(err)
		}
		updated++
	}
	if updated == 0 {
		return 0, fmt.Errorf("%w: %s", ErrCustomerNotFound, cmd.CustomerID)
	}

	s.logger.Info("customer updated",
		zap.String("customer_id", cmd.CustomerID),
		zap.Int("orders", updated))
	return updated, nil
}

// DeleteCustomer removes every order belonging to the customer key and
// returns the number deleted.
func (s *customerService) DeleteCustomer(ctx context.Context, customerID string) (int, error) {
	if strings.TrimSpace(customerID) == "" {
		return 0, fmt.Errorf("%w: customer id is required", ErrCustomerInvalidInput)
	}

	orders, err := s.registry.Orders().List(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, order := range orders {
		if order.CustomerKey() != customerID {
			continue
		}
		if err := s.registry.Orders().Delete(ctx, order.ID); err != nil {
			return deleted, mapOrderRepositoryError(err)
		}
		deleted++
	}
	if deleted == 0 {
		return 0, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
	}

	s.logger.Info("customer deleted",
		zap.String("customer_id", customerID),
		zap.Int("orders", deleted))
	return deleted, nil
}

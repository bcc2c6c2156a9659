package domain

import (
	"strings"
	"time"
)

// OrderStatus enumerates the storefront-visible lifecycle states of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusPaid       OrderStatus = "Paid"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusUnfinished OrderStatus = "Unfinished"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusPaid:       {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusUnfinished: {},
	OrderStatusCancelled:  {},
}

// ParseOrderStatus validates a raw status value against the known set.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	status := OrderStatus(strings.TrimSpace(raw))
	_, ok := orderStatuses[status]
	return status, ok
}

// IsSuccessful reports whether the status counts as a completed sale for
// storefront/admin partitioning.
func (s OrderStatus) IsSuccessful() bool {
	switch s {
	case OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// PaymentStatus tracks the payment side channel, decoupled from OrderStatus.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusManual    PaymentStatus = "manual"
)

// PaymentMethod identifies the payment integration an order was created for.
type PaymentMethod string

const (
	PaymentMethodMyFatoorah PaymentMethod = "myfatoorah"
	PaymentMethodDeema      PaymentMethod = "deema"
	PaymentMethodManual     PaymentMethod = "manual"
)

// ParsePaymentMethod validates a raw payment method value.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.TrimSpace(strings.ToLower(raw))) {
	case PaymentMethodMyFatoorah:
		return PaymentMethodMyFatoorah, true
	case PaymentMethodDeema:
		return PaymentMethodDeema, true
	case PaymentMethodManual:
		return PaymentMethodManual, true
	}
	return "", false
}

// Order is one checkout transaction with a customer snapshot captured at
// creation time. There is no customer entity; customers are derived by
// grouping orders at read time.
type Order struct {
	ID          int
	OrderNumber string

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	CustomerCity    string
	CustomerCountry string

	// English counterparts for driver-facing documents, set only when the
	// original differs (translated Arabic input).
	CustomerNameEn    *string
	CustomerAddressEn *string
	CustomerCityEn    *string
	CustomerCountryEn *string

	Status        OrderStatus
	PaymentMethod PaymentMethod
	PaymentID     *string
	PaymentStatus PaymentStatus

	Total        float64
	ShippingCost float64
	CreatedAt    time.Time

	Items []OrderItem
}

// OrderItem is one line in an order, owned exclusively by that order.
type OrderItem struct {
	ID           int
	OrderID      int
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

// Product is a catalog entry with bilingual display fields.
type Product struct {
	ID            int
	Name          string
	NameAr        string
	Price         float64
	Category      string
	CategoryAr    string
	Images        []string
	IsNew         bool
	Description   string
	DescriptionAr string
	HasShirt      bool
	HasTrouser    bool
	SKU           *string
	StockBySize   map[string]int
	OutOfStock    bool
}

// Category groups products for storefront navigation.
type Category struct {
	ID       int
	Name     string
	NameAr   string
	IsActive bool
}

// Collection is a curated product grouping shown on the storefront.
type Collection struct {
	ID            int
	Title         string
	TitleAr       string
	Description   string
	DescriptionAr string
	Image         string
	IsActive      bool
}

// Settings is the single global store configuration record.
type Settings struct {
	ID                    int
	StoreName             string
	StoreEmail            string
	StorePhone            string
	Currency              string
	FreeShippingThreshold float64
	DefaultShippingCost   float64
}

// DefaultSettings are applied when no settings record has been persisted yet.
func DefaultSettings() Settings {
	return Settings{
		StoreName:             "BILYAR",
		StoreEmail:            "info@bilyar.com",
		StorePhone:            "+965 1234 5678",
		Currency:              "KWD",
		FreeShippingThreshold: 90,
		DefaultShippingCost:   5,
	}
}

// CustomerKey derives the grouping key used for read-time customer
// aggregation: lowercased email when present, else phone|name.
func (o Order) CustomerKey() string {
	email := strings.ToLower(strings.TrimSpace(o.CustomerEmail))
	if email != "" {
		return email
	}
	return strings.TrimSpace(o.CustomerPhone) + "|" + strings.TrimSpace(o.CustomerName)
}

// LoyaltyTier buckets customers by purchase history.
type LoyaltyTier string

const (
	LoyaltyBronze LoyaltyTier = "bronze"
	LoyaltySilver LoyaltyTier = "silver"
	LoyaltyGold   LoyaltyTier = "gold"
)

// TierFor assigns the loyalty tier for a customer's aggregated history.
func TierFor(totalOrders int, totalSpent float64) LoyaltyTier {
	switch {
	case totalOrders >= 5 || totalSpent >= 500:
		return LoyaltyGold
	case totalOrders >= 2 || totalSpent >= 200:
		return LoyaltySilver
	default:
		return LoyaltyBronze
	}
}

// Customer is a read-time aggregation over orders. Customers are never
// persisted on their own, the order history is the source of truth.
type Customer struct {
	ID            string
	Email         string
	Name          string
	Phone         string
	TotalOrders   int
	TotalSpent    float64
	LastOrderDate time.Time
	Tier          LoyaltyTier
	Orders        []Order
}

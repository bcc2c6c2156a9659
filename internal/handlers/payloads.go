package handlers

import (
	"time"

	"github.com/bilyar/storefront-api/internal/services"
)

// Wire payloads mirror the storefront's JSON contract: camelCase keys,
// nullable fields as pointers, timestamps as RFC 3339.

type productPayload struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	NameAr        string         `json:"nameAr"`
	Description   string         `json:"description"`
	DescriptionAr string         `json:"descriptionAr"`
	Price         float64        `json:"price"`
	Category      string         `json:"category"`
	CategoryAr    string         `json:"categoryAr"`
	Images        []string       `json:"images"`
	IsNew         bool           `json:"isNew"`
	HasShirt      bool           `json:"hasShirt"`
	HasTrouser    bool           `json:"hasTrouser"`
	SKU           *string        `json:"sku"`
	StockBySize   map[string]int `json:"stockBySize"`
	OutOfStock    bool           `json:"outOfStock"`
}

func buildProductPayload(p services.Product) productPayload {
	return productPayload{
		ID:            p.ID,
		Name:          p.Name,
		NameAr:        p.NameAr,
		Description:   p.Description,
		DescriptionAr: p.DescriptionAr,
		Price:         p.Price,
		Category:      p.Category,
		CategoryAr:    p.CategoryAr,
		Images:        p.Images,
		IsNew:         p.IsNew,
		HasShirt:      p.HasShirt,
		HasTrouser:    p.HasTrouser,
		SKU:           p.SKU,
		StockBySize:   p.StockBySize,
		OutOfStock:    p.OutOfStock,
	}
}

func buildProductListPayload(products []services.Product) []productPayload {
	out := make([]productPayload, 0, len(products))
	for _, p := range products {
		out = append(out, buildProductPayload(p))
	}
	return out
}

type categoryPayload struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	NameAr   string `json:"nameAr"`
	IsActive bool   `json:"isActive"`
}

func buildCategoryPayload(c services.Category) categoryPayload {
	return categoryPayload{ID: c.ID, Name: c.Name, NameAr: c.NameAr, IsActive: c.IsActive}
}

type collectionPayload struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	TitleAr       string `json:"titleAr"`
	Description   string `json:"description"`
	DescriptionAr string `json:"descriptionAr"`
	Image         string `json:"image"`
	IsActive      bool   `json:"isActive"`
}

func buildCollectionPayload(c services.Collection) collectionPayload {
	return collectionPayload{
		ID:            c.ID,
		Title:         c.Title,
		TitleAr:       c.TitleAr,
		Description:   c.Description,
		DescriptionAr: c.DescriptionAr,
		Image:         c.Image,
		IsActive:      c.IsActive,
	}
}

type orderItemPayload struct {
	ID           int               `json:"id"`
	OrderID      int               `json:"orderId"`
	ProductID    int               `json:"productId"`
	ProductName  string            `json:"productName"`
	Quantity     int               `json:"quantity"`
	Price        float64           `json:"price"`
	Image        string            `json:"image"`
	Size         *string           `json:"size"`
	Measurements map[string]string `json:"measurements"`
	Notes        *string           `json:"notes"`
	NotesEn      *string           `json:"notesEn"`
}

type orderPayload struct {
	ID                int                `json:"id"`
	OrderNumber       string             `json:"orderNumber"`
	CustomerName      string             `json:"customerName"`
	CustomerEmail     string             `json:"customerEmail"`
	CustomerPhone     string             `json:"customerPhone"`
	CustomerAddress   string             `json:"customerAddress"`
	CustomerCity      string             `json:"customerCity"`
	CustomerCountry   string             `json:"customerCountry"`
	CustomerNameEn    *string            `json:"customerNameEn"`
	CustomerAddressEn *string            `json:"customerAddressEn"`
	CustomerCityEn    *string            `json:"customerCityEn"`
	CustomerCountryEn *string            `json:"customerCountryEn"`
	Status            string             `json:"status"`
	PaymentMethod     string             `json:"paymentMethod"`
	PaymentID         *string            `json:"paymentId"`
	PaymentStatus     string             `json:"paymentStatus"`
	Total             float64            `json:"total"`
	ShippingCost      float64            `json:"shippingCost"`
	CreatedAt         string             `json:"createdAt"`
	Items             []orderItemPayload `json:"items"`
}

func buildOrderPayload(order services.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ID:           item.ID,
			OrderID:      item.OrderID,
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
	return orderPayload{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		CustomerName:      order.CustomerName,
		CustomerEmail:     order.CustomerEmail,
		CustomerPhone:     order.CustomerPhone,
		CustomerAddress:   order.CustomerAddress,
		CustomerCity:      order.CustomerCity,
		CustomerCountry:   order.CustomerCountry,
		CustomerNameEn:    order.CustomerNameEn,
		CustomerAddressEn: order.CustomerAddressEn,
		CustomerCityEn:    order.CustomerCityEn,
		CustomerCountryEn: order.CustomerCountryEn,
		Status:            string(order.Status),
		PaymentMethod:     string(order.PaymentMethod),
		PaymentID:         order.PaymentID,
		PaymentStatus:     string(order.PaymentStatus),
		Total:             order.Total,
		ShippingCost:      order.ShippingCost,
		CreatedAt:         formatTime(order.CreatedAt),
		Items:             items,
	}
}

func buildOrderListPayload(orders []services.Order) []orderPayload {
	out := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		out = append(out, buildOrderPayload(order))
	}
	return out
}

type customerPayload struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	Name          string         `json:"name"`
	Phone         string         `json:"phone"`
	TotalOrders   int            `json:"totalOrders"`
	TotalSpent    float64        `json:"totalSpent"`
	LastOrderDate string         `json:"lastOrderDate"`
	Tier          string         `json:"tier"`
	Orders        []orderPayload `json:"orders"`
}

func buildCustomerPayload(c services.Customer) customerPayload {
	return customerPayload{
		ID:            c.ID,
		Email:         c.Email,
		Name:          c.Name,
		Phone:         c.Phone,
		TotalOrders:   c.TotalOrders,
		TotalSpent:    c.TotalSpent,
		LastOrderDate: formatTime(c.LastOrderDate),
		Tier:          string(c.Tier),
		Orders:        buildOrderListPayload(c.Orders),
	}
}

type settingsPayload struct {
	StoreName             string  `json:"storeName"`
	StoreEmail            string  `json:"storeEmail"`
	StorePhone            string  `json:"storePhone"`
	Currency              string  `json:"currency"`
	FreeShippingThreshold float64 `json:"freeShippingThreshold"`
	DefaultShippingCost   float64 `json:"defaultShippingCost"`
}

func buildSettingsPayload(s services.Settings) settingsPayload {
	return settingsPayload{
		StoreName:             s.StoreName,
		StoreEmail:            s.StoreEmail,
		StorePhone:            s.StorePhone,
		Currency:              s.Currency,
		FreeShippingThreshold: s.FreeShippingThreshold,
		DefaultShippingCost:   s.DefaultShippingCost,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

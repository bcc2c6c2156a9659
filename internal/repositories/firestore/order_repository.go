package firestore

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bilyar/storefront-api/internal/domain"
	pfirestore "github.com/bilyar/storefront-api/internal/platform/firestore"
	"github.com/bilyar/storefront-api/internal/repositories"
)

const ordersCollection = "orders"

type orderItemDocument struct {
	ID           int               `firestore:"id"`
	ProductID    int               `firestore:"productId"`
	ProductName  string            `firestore:"productName"`
	Quantity     int               `firestore:"quantity"`
	Price        float64           `firestore:"price"`
	Image        string            `firestore:"image,omitempty"`
	Size         *string           `firestore:"size,omitempty"`
	Measurements map[string]string `firestore:"measurements,omitempty"`
	Notes        *string           `firestore:"notes,omitempty"`
	NotesEn      *string           `firestore:"notesEn,omitempty"`
}

type orderDocument struct {
	ID          int    `firestore:"id"`
	OrderNumber string `firestore:"orderNumber"`

	CustomerName    string `firestore:"customerName"`
	CustomerEmail   string `firestore:"customerEmail"`
	CustomerPhone   string `firestore:"customerPhone"`
	CustomerAddress string `firestore:"customerAddress"`
	CustomerCity    string `firestore:"customerCity"`
	CustomerCountry string `firestore:"customerCountry"`

	CustomerNameEn    *string `firestore:"customerNameEn,omitempty"`
	CustomerAddressEn *string `firestore:"customerAddressEn,omitempty"`
	CustomerCityEn    *string `firestore:"customerCityEn,omitempty"`
	CustomerCountryEn *string `firestore:"customerCountryEn,omitempty"`

	Status        string  `firestore:"status"`
	PaymentMethod string  `firestore:"paymentMethod"`
	PaymentID     *string `firestore:"paymentId,omitempty"`
	PaymentStatus string  `firestore:"paymentStatus"`

	Total        float64   `firestore:"total"`
	ShippingCost float64   `firestore:"shippingCost"`
	CreatedAt    time.Time `firestore:"createdAt"`

	Items []orderItemDocument `firestore:"items"`
}

// OrderRepository persists orders as single documents with embedded items,
// which keeps item replacement atomic without cross-document writes.
type OrderRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[orderDocument]
	counters *CounterRepository
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider, counters *CounterRepository) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository: firestore provider is required")
	}
	if counters == nil {
		return nil, errors.New("order repository: counter repository is required")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection)
	return &OrderRepository{provider: provider, base: base, counters: counters}, nil
}

// Insert allocates an integer identifier and stores the order. When called
// inside a registry transaction the counter increment and the document create
// commit together.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}

	id, err := r.counters.Next(ctx, counterOrders, 1)
	if err != nil {
		return domain.Order{}, err
	}
	order.ID = int(id)
	for i := range order.Items {
		order.Items[i].ID = i + 1
		order.Items[i].OrderID = order.ID
	}

	doc := encodeOrderDocument(order)
	ref, err := r.base.DocumentRef(ctx, strconv.Itoa(order.ID))
	if err != nil {
		return domain.Order{}, err
	}

	if tx, ok := transactionFrom(ctx); ok {
		if err := tx.Create(ref, doc); err != nil {
			return domain.Order{}, pfirestore.WrapError("orders.insert", err)
		}
		return order, nil
	}

	if _, err := ref.Create(ctx, doc); err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.insert", err)
	}
	return order, nil
}

// FindByID loads an order by its integer identifier.
func (r *OrderRepository) FindByID(ctx context.Context, id int) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}

	if tx, ok := transactionFrom(ctx); ok {
		ref, err := r.base.DocumentRef(ctx, strconv.Itoa(id))
		if err != nil {
			return domain.Order{}, err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return domain.Order{}, pfirestore.WrapError("orders.get", err)
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Order{}, pfirestore.WrapError("orders.get", err)
		}
		return decodeOrderDocument(doc), nil
	}

	doc, err := r.base.Get(ctx, strconv.Itoa(id))
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrderDocument(doc.Data), nil
}

// FindByPaymentRef locates an order by the gateway payment reference.
func (r *OrderRepository) FindByPaymentRef(ctx context.Context, paymentRef string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if paymentRef == "" {
		return domain.Order{}, pfirestore.WrapError("orders.payment_ref", status.Error(codes.NotFound, "order not found"))
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("paymentId", "==", paymentRef).Limit(1)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if len(docs) == 0 {
		return domain.Order{}, pfirestore.WrapError("orders.payment_ref", status.Error(codes.NotFound, "order not found"))
	}
	return decodeOrderDocument(docs[0].Data), nil
}

// List returns all orders sorted newest first.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrderDocument(doc.Data))
	}
	// Stable ordering for orders sharing a timestamp.
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// UpdateStatus sets the lifecycle status and returns the updated order.
// Update replaces the stored order document, items included. The mutate
// round trip keeps the existence check and the write in one transaction.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	replacement := encodeOrderDocument(order)
	return r.mutate(ctx, order.ID, func(doc *orderDocument) {
		*doc = replacement
	})
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int, orderStatus domain.OrderStatus) (domain.Order, error) {
	return r.mutate(ctx, id, func(doc *orderDocument) {
		doc.Status = string(orderStatus)
	})
}

// UpdatePayment applies the non-nil payment fields and returns the updated order.
func (r *OrderRepository) UpdatePayment(ctx context.Context, id int, update repositories.PaymentUpdate) (domain.Order, error) {
	return r.mutate(ctx, id, func(doc *orderDocument) {
		if update.PaymentID != nil {
			doc.PaymentID = update.PaymentID
		}
		if update.PaymentStatus != nil {
			doc.PaymentStatus = string(*update.PaymentStatus)
		}
		if update.Status != nil {
			doc.Status = string(*update.Status)
		}
	})
}

// Delete removes the order document together with its embedded items.
func (r *OrderRepository) Delete(ctx context.Context, id int) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strconv.Itoa(id))
	if err != nil {
		return err
	}
	// Existence check keeps delete-of-missing an explicit not found error.
	if _, err := ref.Get(ctx); err != nil {
		return pfirestore.WrapError("orders.delete", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("orders.delete", err)
	}
	return nil
}

// mutate loads the document, applies fn, and writes it back. Inside an ambient
// transaction the read/write pair joins it, otherwise a dedicated transaction
// guards against concurrent writers.
func (r *OrderRepository) mutate(ctx context.Context, id int, fn func(doc *orderDocument)) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}

	apply := func(ctx context.Context, tx *firestore.Transaction) (domain.Order, error) {
		ref, err := r.base.DocumentRef(ctx, strconv.Itoa(id))
		if err != nil {
			return domain.Order{}, err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return domain.Order{}, pfirestore.WrapError("orders.update", err)
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Order{}, pfirestore.WrapError("orders.update", err)
		}
		fn(&doc)
		if err := tx.Set(ref, doc); err != nil {
			return domain.Order{}, pfirestore.WrapError("orders.update", err)
		}
		return decodeOrderDocument(doc), nil
	}

	if tx, ok := transactionFrom(ctx); ok {
		return apply(ctx, tx)
	}

	var updated domain.Order
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		order, err := apply(ctx, tx)
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

func encodeOrderDocument(order domain.Order) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDocument{
			ID:           item.ID,
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
	return orderDocument{
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
		CreatedAt:         order.CreatedAt.UTC(),
		Items:             items,
	}
}

func decodeOrderDocument(doc orderDocument) domain.Order {
	items := make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.OrderItem{
			ID:           item.ID,
			OrderID:      doc.ID,
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
	return domain.Order{
		ID:                doc.ID,
		OrderNumber:       doc.OrderNumber,
		CustomerName:      doc.CustomerName,
		CustomerEmail:     doc.CustomerEmail,
		CustomerPhone:     doc.CustomerPhone,
		CustomerAddress:   doc.CustomerAddress,
		CustomerCity:      doc.CustomerCity,
		CustomerCountry:   doc.CustomerCountry,
		CustomerNameEn:    doc.CustomerNameEn,
		CustomerAddressEn: doc.CustomerAddressEn,
		CustomerCityEn:    doc.CustomerCityEn,
		CustomerCountryEn: doc.CustomerCountryEn,
		Status:            domain.OrderStatus(doc.Status),
		PaymentMethod:     domain.PaymentMethod(doc.PaymentMethod),
		PaymentID:         doc.PaymentID,
		PaymentStatus:     domain.PaymentStatus(doc.PaymentStatus),
		Total:             doc.Total,
		ShippingCost:      doc.ShippingCost,
		CreatedAt:         doc.CreatedAt,
		Items:             items,
	}
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

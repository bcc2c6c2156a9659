package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bilyar/storefront-api/internal/domain"
	"github.com/bilyar/storefront-api/internal/repositories"
)

// OrderRepository persists orders and their items in Postgres.
type OrderRepository struct {
	registry *Registry
}

const orderColumns = `id, order_number, customer_name, customer_email, customer_phone,
	customer_address, customer_city, customer_country,
	customer_name_en, customer_address_en, customer_city_en, customer_country_en,
	status, payment_method, payment_id, payment_status,
	total, shipping_cost, created_at`

const orderItemColumns = `id, order_id, product_id, product_name, quantity, price, image, size, measurements, notes, notes_en`

// Insert stores the order and its items. Inside a registry transaction the
// writes commit together.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	q := r.registry.querier(ctx)

	row := q.QueryRowContext(ctx, `INSERT INTO orders (
			order_number, customer_name, customer_email, customer_phone,
			customer_address, customer_city, customer_country,
			customer_name_en, customer_address_en, customer_city_en, customer_country_en,
			status, payment_method, payment_id, payment_status,
			total, shipping_cost, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id`,
		order.OrderNumber, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.CustomerAddress, order.CustomerCity, order.CustomerCountry,
		order.CustomerNameEn, order.CustomerAddressEn, order.CustomerCityEn, order.CustomerCountryEn,
		string(order.Status), string(order.PaymentMethod), order.PaymentID, string(order.PaymentStatus),
		order.Total, order.ShippingCost, order.CreatedAt,
	)
	if err := row.Scan(&order.ID); err != nil {
		return domain.Order{}, wrapError("orders.insert", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		measurements, err := marshalNullableJSON(item.Measurements)
		if err != nil {
			return domain.Order{}, fmt.Errorf("orders.insert: encode measurements: %w", err)
		}

		itemRow := q.QueryRowContext(ctx, `INSERT INTO order_items (
				order_id, product_id, product_name, quantity, price, image, size, measurements, notes, notes_en
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id`,
			item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.Price,
			item.Image, item.Size, measurements, item.Notes, item.NotesEn,
		)
		if err := itemRow.Scan(&item.ID); err != nil {
			return domain.Order{}, wrapError("orders.insert_item", err)
		}
	}

	return order, nil
}

// FindByID loads an order with its items.
func (r *OrderRepository) FindByID(ctx context.Context, id int) (domain.Order, error) {
	q := r.registry.querier(ctx)

	row := q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, wrapError("orders.get", err)
	}

	items, err := r.loadItems(ctx, q, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items
	return order, nil
}

// FindByPaymentRef locates an order by the gateway payment reference.
func (r *OrderRepository) FindByPaymentRef(ctx context.Context, paymentRef string) (domain.Order, error) {
	if paymentRef == "" {
		return domain.Order{}, notFoundError("orders.payment_ref")
	}
	q := r.registry.querier(ctx)

	row := q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_id = $1 LIMIT 1`, paymentRef)
	order, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, wrapError("orders.payment_ref", err)
	}

	items, err := r.loadItems(ctx, q, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items
	return order, nil
}

// List returns all orders sorted newest first, items included.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	q := r.registry.querier(ctx)

	rows, err := q.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, wrapError("orders.list", err)
	}
	defer rows.Close()

	var orders []domain.Order
	index := make(map[int]int)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, wrapError("orders.list", err)
		}
		index[order.ID] = len(orders)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("orders.list", err)
	}
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := q.QueryContext(ctx, `SELECT `+orderItemColumns+` FROM order_items ORDER BY order_id, id`)
	if err != nil {
		return nil, wrapError("orders.list_items", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		item, err := scanOrderItem(itemRows)
		if err != nil {
			return nil, wrapError("orders.list_items", err)
		}
		if pos, ok := index[item.OrderID]; ok {
			orders[pos].Items = append(orders[pos].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, wrapError("orders.list_items", err)
	}
	return orders, nil
}

// Update replaces the stored order row and its items.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	q := r.registry.querier(ctx)

	result, err := q.ExecContext(ctx, `UPDATE orders SET
			order_number = $1, customer_name = $2, customer_email = $3, customer_phone = $4,
			customer_address = $5, customer_city = $6, customer_country = $7,
			customer_name_en = $8, customer_address_en = $9, customer_city_en = $10, customer_country_en = $11,
			status = $12, payment_method = $13, payment_id = $14, payment_status = $15,
			total = $16, shipping_cost = $17
		WHERE id = $18`,
		order.OrderNumber, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.CustomerAddress, order.CustomerCity, order.CustomerCountry,
		order.CustomerNameEn, order.CustomerAddressEn, order.CustomerCityEn, order.CustomerCountryEn,
		string(order.Status), string(order.PaymentMethod), order.PaymentID, string(order.PaymentStatus),
		order.Total, order.ShippingCost, order.ID,
	)
	if err != nil {
		return domain.Order{}, wrapError("orders.update", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.Order{}, notFoundError("orders.update")
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return domain.Order{}, wrapError("orders.update_items", err)
	}
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		measurements, err := marshalNullableJSON(item.Measurements)
		if err != nil {
			return domain.Order{}, fmt.Errorf("orders.update: encode measurements: %w", err)
		}

		itemRow := q.QueryRowContext(ctx, `INSERT INTO order_items (
				order_id, product_id, product_name, quantity, price, image, size, measurements, notes, notes_en
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id`,
			item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.Price,
			item.Image, item.Size, measurements, item.Notes, item.NotesEn,
		)
		if err := itemRow.Scan(&item.ID); err != nil {
			return domain.Order{}, wrapError("orders.update_items", err)
		}
	}

	return order, nil
}

// UpdateStatus sets the lifecycle status and returns the updated order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int, status domain.OrderStatus) (domain.Order, error) {
	q := r.registry.querier(ctx)

	result, err := q.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return domain.Order{}, wrapError("orders.update_status", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.Order{}, notFoundError("orders.update_status")
	}
	return r.FindByID(ctx, id)
}

// UpdatePayment applies the non-nil payment fields and returns the updated order.
func (r *OrderRepository) UpdatePayment(ctx context.Context, id int, update repositories.PaymentUpdate) (domain.Order, error) {
	q := r.registry.querier(ctx)

	set := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if update.PaymentID != nil {
		args = append(args, *update.PaymentID)
		set = append(set, fmt.Sprintf("payment_id = $%d", len(args)))
	}
	if update.PaymentStatus != nil {
		args = append(args, string(*update.PaymentStatus))
		set = append(set, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if update.Status != nil {
		args = append(args, string(*update.Status))
		set = append(set, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Order{}, wrapError("orders.update_payment", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.Order{}, notFoundError("orders.update_payment")
	}
	return r.FindByID(ctx, id)
}

// Delete removes the order; items cascade.
func (r *OrderRepository) Delete(ctx context.Context, id int) error {
	q := r.registry.querier(ctx)

	result, err := q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return wrapError("orders.delete", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return notFoundError("orders.delete")
	}
	return nil
}

func (r *OrderRepository) loadItems(ctx context.Context, q querier, orderID int) ([]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, wrapError("orders.items", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0, 4)
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, wrapError("orders.items", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("orders.items", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var order domain.Order
	var status, method, paymentStatus string
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerName, &order.CustomerEmail, &order.CustomerPhone,
		&order.CustomerAddress, &order.CustomerCity, &order.CustomerCountry,
		&order.CustomerNameEn, &order.CustomerAddressEn, &order.CustomerCityEn, &order.CustomerCountryEn,
		&status, &method, &order.PaymentID, &paymentStatus,
		&order.Total, &order.ShippingCost, &order.CreatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	order.PaymentMethod = domain.PaymentMethod(method)
	order.PaymentStatus = domain.PaymentStatus(paymentStatus)
	return order, nil
}

func scanOrderItem(row rowScanner) (domain.OrderItem, error) {
	var item domain.OrderItem
	var measurements []byte
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity,
		&item.Price, &item.Image, &item.Size, &measurements, &item.Notes, &item.NotesEn,
	)
	if err != nil {
		return domain.OrderItem{}, err
	}
	if len(measurements) > 0 {
		if err := json.Unmarshal(measurements, &item.Measurements); err != nil {
			return domain.OrderItem{}, fmt.Errorf("decode measurements: %w", err)
		}
	}
	return item, nil
}

// marshalNullableJSON encodes the value as JSONB, mapping empty values to NULL.
func marshalNullableJSON(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		if len(v) == 0 {
			return nil, nil
		}
	case map[string]int:
		if len(v) == 0 {
			return nil, nil
		}
	case []string:
		if len(v) == 0 {
			return nil, nil
		}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bilyar/storefront-api/internal/domain"
	"github.com/bilyar/storefront-api/internal/repositories"
)

// ProductRepository persists catalog products in Postgres.
type ProductRepository struct {
	registry *Registry
}

const productColumns = `id, name, name_ar, price, category, category_ar, images, is_new,
	description, description_ar, has_shirt, has_trouser, sku, stock_by_size, out_of_stock`

// List returns all products ordered by identifier.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	q := r.registry.querier(ctx)

	rows, err := q.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, wrapError("products.list", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 16)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, wrapError("products.list", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("products.list", err)
	}
	return products, nil
}

// FindByID loads a product by its identifier.
func (r *ProductRepository) FindByID(ctx context.Context, id int) (domain.Product, error) {
	q := r.registry.querier(ctx)

	row := q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, wrapError("products.get", err)
	}
	return product, nil
}

// FindByIDs resolves the given product identifiers. Missing products are
// simply absent from the result map.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []int) (map[int]domain.Product, error) {
	found := make(map[int]domain.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	q := r.registry.querier(ctx)

	placeholders := ""
	args := make([]any, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		args = append(args, id)
		if placeholders != "" {
			placeholders += ","
		}
		placeholders += fmt.Sprintf("$%d", len(args))
	}

	rows, err := q.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, wrapError("products.get_many", err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, wrapError("products.get_many", err)
		}
		found[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("products.get_many", err)
	}
	return found, nil
}

// Insert stores a new product and returns it with the assigned identifier.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	q := r.registry.querier(ctx)

	images, err := marshalNullableJSON(product.Images)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.insert: encode images: %w", err)
	}
	stock, err := marshalNullableJSON(product.StockBySize)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.insert: encode stock: %w", err)
	}

	row := q.QueryRowContext(ctx, `INSERT INTO products (
			name, name_ar, price, category, category_ar, images, is_new,
			description, description_ar, has_shirt, has_trouser, sku, stock_by_size, out_of_stock
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id`,
		product.Name, product.NameAr, product.Price, product.Category, product.CategoryAr, images, product.IsNew,
		product.Description, product.DescriptionAr, product.HasShirt, product.HasTrouser, product.SKU, stock, product.OutOfStock,
	)
	if err := row.Scan(&product.ID); err != nil {
		return domain.Product{}, wrapError("products.insert", err)
	}
	return product, nil
}

// Update replaces the product row.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	q := r.registry.querier(ctx)

	images, err := marshalNullableJSON(product.Images)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.update: encode images: %w", err)
	}
	stock, err := marshalNullableJSON(product.StockBySize)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.update: encode stock: %w", err)
	}

	result, err := q.ExecContext(ctx, `UPDATE products SET
			name = $1, name_ar = $2, price = $3, category = $4, category_ar = $5, images = $6, is_new = $7,
			description = $8, description_ar = $9, has_shirt = $10, has_trouser = $11, sku = $12,
			stock_by_size = $13, out_of_stock = $14
		WHERE id = $15`,
		product.Name, product.NameAr, product.Price, product.Category, product.CategoryAr, images, product.IsNew,
		product.Description, product.DescriptionAr, product.HasShirt, product.HasTrouser, product.SKU,
		stock, product.OutOfStock, product.ID,
	)
	if err != nil {
		return domain.Product{}, wrapError("products.update", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.Product{}, notFoundError("products.update")
	}
	return product, nil
}

// Delete removes the product row.
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	q := r.registry.querier(ctx)

	result, err := q.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrapError("products.delete", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return notFoundError("products.delete")
	}
	return nil
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var product domain.Product
	var images, stock []byte
	err := row.Scan(
		&product.ID, &product.Name, &product.NameAr, &product.Price, &product.Category, &product.CategoryAr,
		&images, &product.IsNew, &product.Description, &product.DescriptionAr,
		&product.HasShirt, &product.HasTrouser, &product.SKU, &stock, &product.OutOfStock,
	)
	if err != nil {
		return domain.Product{}, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &product.Images); err != nil {
			return domain.Product{}, fmt.Errorf("decode images: %w", err)
		}
	}
	if len(stock) > 0 {
		if err := json.Unmarshal(stock, &product.StockBySize); err != nil {
			return domain.Product{}, fmt.Errorf("decode stock: %w", err)
		}
	}
	return product, nil
}

// CategoryRepository persists storefront categories in Postgres.
type CategoryRepository struct {
	registry *Registry
}

// List returns all categories ordered by identifier.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	q := r.registry.querier(ctx)

	rows, err := q.QueryContext(ctx, `SELECT id, name, name_ar, is_active FROM categories ORDER BY id`)
	if err != nil {
		return nil, wrapError("categories.list", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 8)
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.NameAr, &category.IsActive); err != nil {
			return nil, wrapError("categories.list", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("categories.list", err)
	}
	return categories, nil
}

// Insert stores a new category.
func (r *CategoryRepository) Insert(ctx context.Context, category domain.Category) (domain.Category, error) {
	q := r.registry.querier(ctx)

	row := q.QueryRowContext(ctx,
		`INSERT INTO categories (name, name_ar, is_active) VALUES ($1,$2,$3) RETURNING id`,
		category.Name, category.NameAr, category.IsActive,
	)
	if err := row.Scan(&category.ID); err != nil {
		return domain.Category{}, wrapError("categories.insert", err)
	}
	return category, nil
}

// Update replaces the category row.
func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) (domain.Category, error) {
	q := r.registry.querier(ctx)

	result, err := q.ExecContext(ctx,
		`UPDATE categories SET name = $1, name_ar = $2, is_active = $3 WHERE id = $4`,
		category.Name, category.NameAr, category.IsActive, category.ID,
	)
	if err != nil {
		return domain.Category{}, wrapError("categories.update", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.Category{}, notFoundError("categories.update")
	}
	return category, nil
}

// Delete removes the category row.
func (r *CategoryRepository) Delete(ctx context.Context, id int) error {
	q := r.registry.querier(ctx)

	result, err := q.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return wrapError("categories.delete", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return notFoundError("categories.delete")
	}
	return nil
}

// CollectionRepository persists storefront collections in Postgres.
type CollectionRepository struct {
	registry *Registry
}

// List returns all collections ordered by identifier.
func (r *CollectionRepository) List(ctx context.Context) ([]domain.Collection, error) {
	q := r.registry.querier(ctx)

	rows, err := q.QueryContext(ctx,
		`SELECT id, title, title_ar, description, description_ar, image, is_active FROM collections ORDER BY id`)
	if err != nil {
		return nil, wrapError("collections.list", err)
	}
	defer rows.Close()

	collections := make([]domain.Collection, 0, 8)
	for rows.Next() {
		var collection domain.Collection
		if err := rows.Scan(
			&collection.ID, &collection.Title, &collection.TitleAr,
			&collection.Description, &collection.DescriptionAr, &collection.Image, &collection.IsActive,
		); err != nil {
			return nil, wrapError("collections.list", err)
		}
		collections = append(collections, collection)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("collections.list", err)
	}
	return collections, nil
}

// Insert stores a new collection.
func (r *CollectionRepository) Insert(ctx context.Context, collection domain.Collection) (domain.Collection, error) {
	q := r.registry.querier(ctx)

	row := q.QueryRowContext(ctx,
		`INSERT INTO collections (title, title_ar, description, description_ar, image, is_active)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		collection.Title, collection.TitleAr, collection.Description, collection.DescriptionAr,
		collection.Image, collection.IsActive,
	)
	if err := row.Scan(&collection.ID); err != nil {
		return domain.Collection{}, wrapError("collections.insert", err)
	}
	return collection, nil
}

// Update replaces the collection row.
func (r *CollectionRepository) Update(ctx context.Context, collection domain.Collection) (domain.Collection, error) {
	q := r.registry.querier(ctx)

	result, err := q.ExecContext(ctx,
		`UPDATE collections SET title = $1, title_ar = $2, description = $3, description_ar = $4,
			image = $5, is_active = $6 WHERE id = $7`,
		collection.Title, collection.TitleAr, collection.Description, collection.DescriptionAr,
		collection.Image, collection.IsActive, collection.ID,
	)
	if err != nil {
		return domain.Collection{}, wrapError("collections.update", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.Collection{}, notFoundError("collections.update")
	}
	return collection, nil
}

// Delete removes the collection row.
func (r *CollectionRepository) Delete(ctx context.Context, id int) error {
	q := r.registry.querier(ctx)

	result, err := q.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return wrapError("collections.delete", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return notFoundError("collections.delete")
	}
	return nil
}

var (
	_ repositories.ProductRepository    = (*ProductRepository)(nil)
	_ repositories.CategoryRepository   = (*CategoryRepository)(nil)
	_ repositories.CollectionRepository = (*CollectionRepository)(nil)
)

package firestore

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/bilyar/storefront-api/internal/domain"
	pfirestore "github.com/bilyar/storefront-api/internal/platform/firestore"
	"github.com/bilyar/storefront-api/internal/repositories"
)

const productsCollection = "products"

type productDocument struct {
	ID            int            `firestore:"id"`
	Name          string         `firestore:"name"`
	NameAr        string         `firestore:"nameAr"`
	Price         float64        `firestore:"price"`
	Category      string         `firestore:"category"`
	CategoryAr    string         `firestore:"categoryAr"`
	Images        []string       `firestore:"images,omitempty"`
	IsNew         bool           `firestore:"isNew"`
	Description   string         `firestore:"description,omitempty"`
	DescriptionAr string         `firestore:"descriptionAr,omitempty"`
	HasShirt      bool           `firestore:"hasShirt"`
	HasTrouser    bool           `firestore:"hasTrouser"`
	SKU           *string        `firestore:"sku,omitempty"`
	StockBySize   map[string]int `firestore:"stockBySize,omitempty"`
	OutOfStock    bool           `firestore:"outOfStock"`
}

// ProductRepository persists catalog products.
type ProductRepository struct {
	base     *pfirestore.BaseRepository[productDocument]
	counters *CounterRepository
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider, counters *CounterRepository) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository: firestore provider is required")
	}
	if counters == nil {
		return nil, errors.New("product repository: counter repository is required")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productsCollection)
	return &ProductRepository{base: base, counters: counters}, nil
}

// List returns all products ordered by identifier.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}
	docs, err := r.base.Query(ctx, nil)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, decodeProductDocument(doc.Data))
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// FindByID loads a product by its integer identifier.
func (r *ProductRepository) FindByID(ctx context.Context, id int) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}

	if tx, ok := transactionFrom(ctx); ok {
		ref, err := r.base.DocumentRef(ctx, strconv.Itoa(id))
		if err != nil {
			return domain.Product{}, err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return domain.Product{}, pfirestore.WrapError("products.get", err)
		}
		var doc productDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Product{}, pfirestore.WrapError("products.get", err)
		}
		return decodeProductDocument(doc), nil
	}

	doc, err := r.base.Get(ctx, strconv.Itoa(id))
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProductDocument(doc.Data), nil
}

// FindByIDs resolves the given product identifiers. Missing products are
// simply absent from the result map.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []int) (map[int]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}

	found := make(map[int]domain.Product, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		product, err := r.FindByID(ctx, id)
		if err != nil {
			if notFound(err) {
				continue
			}
			return nil, err
		}
		found[id] = product
	}
	return found, nil
}

// Insert allocates an identifier and stores the product.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	id, err := r.counters.Next(ctx, counterProducts, 1)
	if err != nil {
		return domain.Product{}, err
	}
	product.ID = int(id)

	ref, err := r.base.DocumentRef(ctx, strconv.Itoa(product.ID))
	if err != nil {
		return domain.Product{}, err
	}
	if _, err := ref.Create(ctx, encodeProductDocument(product)); err != nil {
		return domain.Product{}, pfirestore.WrapError("products.insert", err)
	}
	return product, nil
}

// Update replaces the product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strconv.Itoa(product.ID))
	if err != nil {
		return domain.Product{}, err
	}
	if _, err := ref.Get(ctx); err != nil {
		return domain.Product{}, pfirestore.WrapError("products.update", err)
	}
	if _, err := ref.Set(ctx, encodeProductDocument(product)); err != nil {
		return domain.Product{}, pfirestore.WrapError("products.update", err)
	}
	return product, nil
}

// Delete removes the product document.
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strconv.Itoa(id))
	if err != nil {
		return err
	}
	if _, err := ref.Get(ctx); err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	return nil
}

func notFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func encodeProductDocument(product domain.Product) productDocument {
	return productDocument{
		ID:            product.ID,
		Name:          product.Name,
		NameAr:        product.NameAr,
		Price:         product.Price,
		Category:      product.Category,
		CategoryAr:    product.CategoryAr,
		Images:        product.Images,
		IsNew:         product.IsNew,
		Description:   product.Description,
		DescriptionAr: product.DescriptionAr,
		HasShirt:      product.HasShirt,
		HasTrouser:    product.HasTrouser,
		SKU:           product.SKU,
		StockBySize:   product.StockBySize,
		OutOfStock:    product.OutOfStock,
	}
}

func decodeProductDocument(doc productDocument) domain.Product {
	return domain.Product{
		ID:            doc.ID,
		Name:          doc.Name,
		NameAr:        doc.NameAr,
		Price:         doc.Price,
		Category:      doc.Category,
		CategoryAr:    doc.CategoryAr,
		Images:        doc.Images,
		IsNew:         doc.IsNew,
		Description:   doc.Description,
		DescriptionAr: doc.DescriptionAr,
		HasShirt:      doc.HasShirt,
		HasTrouser:    doc.HasTrouser,
		SKU:           doc.SKU,
		StockBySize:   doc.StockBySize,
		OutOfStock:    doc.OutOfStock,
	}
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

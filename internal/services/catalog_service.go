package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/bilyar/storefront-api/internal/domain"
	"github.com/bilyar/storefront-api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput signals the caller provided invalid data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the catalog entity could not be located.
	ErrCatalogNotFound = errors.New("catalog: not found")
)

// ProductCommand is the full product payload for creation.
type ProductCommand struct {
	Name          string
	NameAr        string
	Description   string
	DescriptionAr string
	Price         float64
	Category      string
	CategoryAr    string
	Images        []string
	IsNew         bool
	HasShirt      bool
	HasTrouser    bool
	SKU           *string
	StockBySize   map[string]int
	OutOfStock    bool
}

// ProductPatch holds optional per-field product overrides.
type ProductPatch struct {
	Name          *string
	NameAr        *string
	Description   *string
	DescriptionAr *string
	Price         *float64
	Category      *string
	CategoryAr    *string
	Images        []string
	IsNew         *bool
	HasShirt      *bool
	HasTrouser    *bool
	SKU           *string
	StockBySize   map[string]int
	OutOfStock    *bool
}

// CategoryCommand is the category creation payload.
type CategoryCommand struct {
	Name     string
	NameAr   string
	IsActive bool
}

// CategoryPatch holds optional category overrides.
type CategoryPatch struct {
	Name     *string
	NameAr   *string
	IsActive *bool
}

// CollectionCommand is the collection creation payload.
type CollectionCommand struct {
	Title         string
	TitleAr       string
	Description   string
	DescriptionAr string
	Image         string
	IsActive      bool
}

// CollectionPatch holds optional collection overrides.
type CollectionPatch struct {
	Title         *string
	TitleAr       *string
	Description   *string
	DescriptionAr *string
	Image         *string
	IsActive      *bool
}

type catalogService struct {
	registry repositories.Registry
}

// NewCatalogService wires the repository registry into a CatalogService.
func NewCatalogService(registry repositories.Registry) (CatalogService, error) {
	if registry == nil {
		return nil, errors.New("catalog service: repository registry is required")
	}
	return &catalogService{registry: registry}, nil
}

// ListProducts returns the catalog, optionally filtered by a free-text query
// matched against both language renditions of name, description, and category.
func (s *catalogService) ListProducts(ctx context.Context, query string) ([]Product, error) {
	products, err := s.registry.Products().List(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return products, nil
	}

	filtered := make([]Product, 0, len(products))
	for _, product := range products {
		if productMatches(product, query) {
			filtered = append(filtered, product)
		}
	}
	return filtered, nil
}

func productMatches(p Product, query string) bool {
	for _, field := range []string{p.Name, p.NameAr, p.Description, p.DescriptionAr, p.Category, p.CategoryAr} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func (s *catalogService) GetProduct(ctx context.Context, id int) (Product, error) {
	product, err := s.registry.Products().FindByID(ctx, id)
	if err != nil {
		return Product{}, mapCatalogRepositoryError(err)
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd ProductCommand) (Product, error) {
	if err := validateProductCommand(cmd); err != nil {
		return Product{}, err
	}
	product := domain.Product{
		Name:          cmd.Name,
		NameAr:        cmd.NameAr,
		Description:   cmd.Description,
		DescriptionAr: cmd.DescriptionAr,
		Price:         cmd.Price,
		Category:      cmd.Category,
		CategoryAr:    cmd.CategoryAr,
		Images:        cmd.Images,
		IsNew:         cmd.IsNew,
		HasShirt:      cmd.HasShirt,
		HasTrouser:    cmd.HasTrouser,
		SKU:           cmd.SKU,
		StockBySize:   cmd.StockBySize,
		OutOfStock:    cmd.OutOfStock,
	}
	created, err := s.registry.Products().Insert(ctx, product)
	if err != nil {
		return Product{}, err
	}
	return created, nil
}

func validateProductCommand(cmd ProductCommand) error {
	if cmd.Name == "" || cmd.NameAr == "" {
		return fmt.Errorf("%w: product name is required in both languages", ErrCatalogInvalidInput)
	}
	if cmd.Description == "" || cmd.DescriptionAr == "" {
		return fmt.Errorf("%w: product description is required in both languages", ErrCatalogInvalidInput)
	}
	if cmd.Category == "" || cmd.CategoryAr == "" {
		return fmt.Errorf("%w: product category is required in both languages", ErrCatalogInvalidInput)
	}
	if cmd.Price <= 0 {
		return fmt.Errorf("%w: product price must be positive", ErrCatalogInvalidInput)
	}
	if len(cmd.Images) == 0 {
		return fmt.Errorf("%w: at least one product image is required", ErrCatalogInvalidInput)
	}
	return nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int, patch ProductPatch) (Product, error) {
	if patch.Price != nil && *patch.Price <= 0 {
		return Product{}, fmt.Errorf("%w: product price must be positive", ErrCatalogInvalidInput)
	}

	product, err := s.registry.Products().FindByID(ctx, id)
	if err != nil {
		return Product{}, mapCatalogRepositoryError(err)
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.NameAr != nil {
		product.NameAr = *patch.NameAr
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.DescriptionAr != nil {
		product.DescriptionAr = *patch.DescriptionAr
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.CategoryAr != nil {
		product.CategoryAr = *patch.CategoryAr
	}
	if patch.Images != nil {
		product.Images = patch.Images
	}
	if patch.IsNew != nil {
		product.IsNew = *patch.IsNew
	}
	if patch.HasShirt != nil {
		product.HasShirt = *patch.HasShirt
	}
	if patch.HasTrouser != nil {
		product.HasTrouser = *patch.HasTrouser
	}
	if patch.SKU != nil {
		product.SKU = patch.SKU
	}
	if patch.StockBySize != nil {
		product.StockBySize = patch.StockBySize
	}
	if patch.OutOfStock != nil {
		product.OutOfStock = *patch.OutOfStock
	}

	updated, err := s.registry.Products().Update(ctx, product)
	if err != nil {
		return Product{}, mapCatalogRepositoryError(err)
	}
	return updated, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int) error {
	if err := s.registry.Products().Delete(ctx, id); err != nil {
		return mapCatalogRepositoryError(err)
	}
	return nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]Category, error) {
	return s.registry.Categories().List(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, cmd CategoryCommand) (Category, error) {
	if cmd.Name == "" || cmd.NameAr == "" {
		return Category{}, fmt.Errorf("%w: category name is required in both languages", ErrCatalogInvalidInput)
	}
	created, err := s.registry.Categories().Insert(ctx, domain.Category{
		Name:     cmd.Name,
		NameAr:   cmd.NameAr,
		IsActive: cmd.IsActive,
	})
	if err != nil {
		return Category{}, err
	}
	return created, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id int, patch CategoryPatch) (Category, error) {
	categories, err := s.registry.Categories().List(ctx)
	if err != nil {
		return Category{}, err
	}
	var category Category
	found := false
	for _, c := range categories {
		if c.ID == id {
			category = c
			found = true
			break
		}
	}
	if !found {
		return Category{}, fmt.Errorf("%w: category %d", ErrCatalogNotFound, id)
	}

	if patch.Name != nil {
		category.Name = *patch.Name
	}
	if patch.NameAr != nil {
		category.NameAr = *patch.NameAr
	}
	if patch.IsActive != nil {
		category.IsActive = *patch.IsActive
	}

	updated, err := s.registry.Categories().Update(ctx, category)
	if err != nil {
		return Category{}, mapCatalogRepositoryError(err)
	}
	return updated, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id int) error {
	if err := s.registry.Categories().Delete(ctx, id); err != nil {
		return mapCatalogRepositoryError(err)
	}
	return nil
}

func (s *catalogService) ListCollections(ctx context.Context) ([]Collection, error) {
	return s.registry.Collections().List(ctx)
}

func (s *catalogService) CreateCollection(ctx context.Context, cmd CollectionCommand) (Collection, error) {
	if cmd.Title == "" || cmd.TitleAr == "" {
		return Collection{}, fmt.Errorf("%w: collection title is required in both languages", ErrCatalogInvalidInput)
	}
	created, err := s.registry.Collections().Insert(ctx, domain.Collection{
		Title:         cmd.Title,
		TitleAr:       cmd.TitleAr,
		Description:   cmd.Description,
		DescriptionAr: cmd.DescriptionAr,
		Image:         cmd.Image,
		IsActive:      cmd.IsActive,
	})
	if err != nil {
		return Collection{}, err
	}
	return created, nil
}

func (s *catalogService) UpdateCollection(ctx context.Context, id int, patch CollectionPatch) (Collection, error) {
	collections, err := s.registry.Collections().List(ctx)
	if err != nil {
		return Collection{}, err
	}
	var collection Collection
	found := false
	for _, c := range collections {
		if c.ID == id {
			collection = c
			found = true
			break
		}
	}
	if !found {
		return Collection{}, fmt.Errorf("%w: collection %d", ErrCatalogNotFound, id)
	}

	if patch.Title != nil {
		collection.Title = *patch.Title
	}
	if patch.TitleAr != nil {
		collection.TitleAr = *patch.TitleAr
	}
	if patch.Description != nil {
		collection.Description = *patch.Description
	}
	if patch.DescriptionAr != nil {
		collection.DescriptionAr = *patch.DescriptionAr
	}
	if patch.Image != nil {
		collection.Image = *patch.Image
	}
	if patch.IsActive != nil {
		collection.IsActive = *patch.IsActive
	}

	updated, err := s.registry.Collections().Update(ctx, collection)
	if err != nil {
		return Collection{}, mapCatalogRepositoryError(err)
	}
	return updated, nil
}

func (s *catalogService) DeleteCollection(ctx context.Context, id int) error {
	if err := s.registry.Collections().Delete(ctx, id); err != nil {
		return mapCatalogRepositoryError(err)
	}
	return nil
}

func mapCatalogRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %s", ErrCatalogNotFound, err)
	}
	return err
}

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

const (
	categoriesCollection  = "categories"
	collectionsCollection = "collections"
)

type categoryDocument struct {
	ID       int    `firestore:"id"`
	Name     string `firestore:"name"`
	NameAr   string `firestore:"nameAr"`
	IsActive bool   `firestore:"isActive"`
}

type collectionDocument struct {
	ID            int    `firestore:"id"`
	Title         string `firestore:"title"`
	TitleAr       string `firestore:"titleAr"`
	Description   string `firestore:"description,omitempty"`
	DescriptionAr string `firestore:"descriptionAr,omitempty"`
	Image         string `firestore:"image,omitempty"`
	IsActive      bool   `firestore:"isActive"`
}

// CategoryRepository persists storefront categories.
type CategoryRepository struct {
	base     *pfirestore.BaseRepository[categoryDocument]
	counters *CounterRepository
}

// NewCategoryRepository constructs a Firestore-backed category repository.
func NewCategoryRepository(provider *pfirestore.Provider, counters *CounterRepository) (*CategoryRepository, error) {
	if provider == nil {
		return nil, errors.New("category repository: firestore provider is required")
	}
	if counters == nil {
		return nil, errors.New("category repository: counter repository is required")
	}
	base := pfirestore.NewBaseRepository[categoryDocument](provider, categoriesCollection)
	return &CategoryRepository{base: base, counters: counters}, nil
}

// List returns all categories ordered by identifier.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("category repository not initialised")
	}
	docs, err := r.base.Query(ctx, nil)
	if err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(docs))
	for _, doc := range docs {
		categories = append(categories, domain.Category(doc.Data))
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

// Insert allocates an identifier and stores the category.
func (r *CategoryRepository) Insert(ctx context.Context, category domain.Category) (domain.Category, error) {
	if r == nil || r.base == nil {
		return domain.Category{}, errors.New("category repository not initialised")
	}
	id, err := r.counters.Next(ctx, counterCategories, 1)
	if err != nil {
		return domain.Category{}, err
	}
	category.ID = int(id)

	ref, err := r.base.DocumentRef(ctx, strconv.Itoa(category.ID))
	if err != nil {
		return domain.Category{}, err
	}
	if _, err := ref.Create(ctx, categoryDocument(category)); err != nil {
		return domain.Category{}, pfirestore.WrapError("categories.insert", err)
	}
	return category, nil
}

// Update replaces the category document.
func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) (domain.Category, error) {
	if r == nil || r.base == nil {
		return domain.Category{}, errors.New("category repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strconv.Itoa(category.ID))
	if err != nil {
		return domain.Category{}, err
	}
	if _, err := ref.Get(ctx); err != nil {
		return domain.Category{}, pfirestore.WrapError("categories.update", err)
	}
	if _, err := ref.Set(ctx, categoryDocument(category)); err != nil {
		return domain.Category{}, pfirestore.WrapError("categories.update", err)
	}
	return category, nil
}

// Delete removes the category document.
func (r *CategoryRepository) Delete(ctx context.Context, id int) error {
	if r == nil || r.base == nil {
		return errors.New("category repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strconv.Itoa(id))
	if err != nil {
		return err
	}
	if _, err := ref.Get(ctx); err != nil {
		return pfirestore.WrapError("categories.delete", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("categories.delete", err)
	}
	return nil
}

// CollectionRepository persists storefront collections.
type CollectionRepository struct {
	base     *pfirestore.BaseRepository[collectionDocument]
	counters *CounterRepository
}

// NewCollectionRepository constructs a Firestore-backed collection repository.
func NewCollectionRepository(provider *pfirestore.Provider, counters *CounterRepository) (*CollectionRepository, error) {
	if provider == nil {
		return nil, errors.New("collection repository: firestore provider is required")
	}
	if counters == nil {
		return nil, errors.New("collection repository: counter repository is required")
	}
	base := pfirestore.NewBaseRepository[collectionDocument](provider, collectionsCollection)
	return &CollectionRepository{base: base, counters: counters}, nil
}

// List returns all collections ordered by identifier.
func (r *CollectionRepository) List(ctx context.Context) ([]domain.Collection, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("collection repository not initialised")
	}
	docs, err := r.base.Query(ctx, nil)
	if err != nil {
		return nil, err
	}
	collections := make([]domain.Collection, 0, len(docs))
	for _, doc := range docs {
		collections = append(collections, domain.Collection(doc.Data))
	}
	sort.Slice(collections, func(i, j int) bool { return collections[i].ID < collections[j].ID })
	return collections, nil
}

// Insert allocates an identifier and stores the collection.
func (r *CollectionRepository) Insert(ctx context.Context, collection domain.Collection) (domain.Collection, error) {
	if r == nil || r.base == nil {
		return domain.Collection{}, errors.New("collection repository not initialised")
	}
	id, err := r.counters.Next(ctx, counterCollections, 1)
	if err != nil {
		return domain.Collection{}, err
	}
	collection.ID = int(id)

	ref, err := r.base.DocumentRef(ctx, strconv.Itoa(collection.ID))
	if err != nil {
		return domain.Collection{}, err
	}
	if _, err := ref.Create(ctx, collectionDocument(collection)); err != nil {
		return domain.Collection{}, pfirestore.WrapError("collections.insert", err)
	}
	return collection, nil
}

// Update replaces the collection document.
func (r *CollectionRepository) Update(ctx context.Context, collection domain.Collection) (domain.Collection, error) {
	if r == nil || r.base == nil {
		return domain.Collection{}, errors.New("collection repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strconv.Itoa(collection.ID))
	if err != nil {
		return domain.Collection{}, err
	}
	if _, err := ref.Get(ctx); err != nil {
		return domain.Collection{}, pfirestore.WrapError("collections.update", err)
	}
	if _, err := ref.Set(ctx, collectionDocument(collection)); err != nil {
		return domain.Collection{}, pfirestore.WrapError("collections.update", err)
	}
	return collection, nil
}

// Delete removes the collection document.
func (r *CollectionRepository) Delete(ctx context.Context, id int) error {
	if r == nil || r.base == nil {
		return errors.New("collection repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strconv.Itoa(id))
	if err != nil {
		return err
	}
	if _, err := ref.Get(ctx); err != nil {
		return pfirestore.WrapError("collections.delete", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("collections.delete", err)
	}
	return nil
}

var (
	_ repositories.CategoryRepository   = (*CategoryRepository)(nil)
	_ repositories.CollectionRepository = (*CollectionRepository)(nil)
)

package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/bilyar/storefront-api/internal/domain"
)

func newTestCatalogService(t *testing.T, registry *stubRegistry) CatalogService {
	t.Helper()
	svc, err := NewCatalogService(registry)
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return svc
}

func TestListProductsFiltersBothLanguages(t *testing.T) {
	registry := newStubRegistry()
	registry.products.listFn = func(context.Context) ([]domain.Product, error) {
		return []domain.Product{
			{ID: 1, Name: "Classic Dishdasha", NameAr: "دشداشة كلاسيكية", Category: "Dishdasha"},
			{ID: 2, Name: "Summer Ghutra", NameAr: "غترة صيفية", Category: "Accessories"},
			{ID: 3, Name: "Winter Dishdasha", NameAr: "دشداشة شتوية", Category: "Dishdasha"},
		}, nil
	}

	svc := newTestCatalogService(t, registry)

	all, err := svc.ListProducts(context.Background(), "")
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("unfiltered count = %d", len(all))
	}

	byName, err := svc.ListProducts(context.Background(), "DISHDASHA")
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(byName) != 2 {
		t.Fatalf("query match count = %d, want 2", len(byName))
	}

	byArabic, err := svc.ListProducts(context.Background(), "غترة")
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(byArabic) != 1 || byArabic[0].ID != 2 {
		t.Fatalf("arabic query matched %v", byArabic)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestCatalogService(t, newStubRegistry())

	valid := ProductCommand{
		Name:          "Classic Dishdasha",
		NameAr:        "دشداشة كلاسيكية",
		Description:   "Tailored cotton dishdasha",
		DescriptionAr: "دشداشة قطنية",
		Price:         95,
		Category:      "Dishdasha",
		CategoryAr:    "دشداشة",
		Images:        []string{"https://cdn.example/d1.jpg"},
	}

	cases := []struct {
		name   string
		mutate func(*ProductCommand)
	}{
		{"missing arabic name", func(c *ProductCommand) { c.NameAr = "" }},
		{"missing description", func(c *ProductCommand) { c.Description = "" }},
		{"missing arabic category", func(c *ProductCommand) { c.CategoryAr = "" }},
		{"zero price", func(c *ProductCommand) { c.Price = 0 }},
		{"negative price", func(c *ProductCommand) { c.Price = -5 }},
		{"no images", func(c *ProductCommand) { c.Images = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := valid
			tc.mutate(&cmd)
			if _, err := svc.CreateProduct(context.Background(), cmd); !errors.Is(err, ErrCatalogInvalidInput) {
				t.Fatalf("err = %v, want invalid input", err)
			}
		})
	}

	if _, err := svc.CreateProduct(context.Background(), valid); err != nil {
		t.Fatalf("valid command rejected: %v", err)
	}
}

func TestUpdateProductMergesPatch(t *testing.T) {
	registry := newStubRegistry()
	sku := "DSH-001"
	registry.products.findFn = func(_ context.Context, id int) (domain.Product, error) {
		return domain.Product{
			ID:          id,
			Name:        "Classic Dishdasha",
			NameAr:      "دشداشة كلاسيكية",
			Price:       95,
			Category:    "Dishdasha",
			SKU:         &sku,
			StockBySize: map[string]int{"M": 4},
		}, nil
	}
	var saved domain.Product
	registry.products.updateFn = func(_ context.Context, p domain.Product) (domain.Product, error) {
		saved = p
		return p, nil
	}

	svc := newTestCatalogService(t, registry)

	price := 85.0
	outOfStock := true
	updated, err := svc.UpdateProduct(context.Background(), 3, ProductPatch{
		Price:      &price,
		OutOfStock: &outOfStock,
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.Price != 85 || !updated.OutOfStock {
		t.Fatalf("patched product = %#v", updated)
	}
	// Untouched fields survive the merge.
	if saved.Name != "Classic Dishdasha" || saved.SKU == nil || *saved.SKU != "DSH-001" || saved.StockBySize["M"] != 4 {
		t.Fatalf("merge lost fields: %#v", saved)
	}
}

func TestUpdateProductRejectsNonPositivePrice(t *testing.T) {
	svc := newTestCatalogService(t, newStubRegistry())

	price := 0.0
	if _, err := svc.UpdateProduct(context.Background(), 3, ProductPatch{Price: &price}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestCatalogService(t, newStubRegistry())

	if _, err := svc.GetProduct(context.Background(), 404); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestUpdateCategoryByID(t *testing.T) {
	registry := newStubRegistry()
	registry.categories.listFn = func(context.Context) ([]domain.Category, error) {
		return []domain.Category{
			{ID: 1, Name: "Dishdasha", NameAr: "دشداشة", IsActive: true},
			{ID: 2, Name: "Accessories", NameAr: "اكسسوارات", IsActive: true},
		}, nil
	}
	registry.categories.updateFn = func(_ context.Context, c domain.Category) (domain.Category, error) {
		return c, nil
	}

	svc := newTestCatalogService(t, registry)

	active := false
	updated, err := svc.UpdateCategory(context.Background(), 2, CategoryPatch{IsActive: &active})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if updated.ID != 2 || updated.IsActive || updated.Name != "Accessories" {
		t.Fatalf("updated = %#v", updated)
	}

	if _, err := svc.UpdateCategory(context.Background(), 99, CategoryPatch{IsActive: &active}); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCreateCollectionRequiresBothTitles(t *testing.T) {
	registry := newStubRegistry()
	registry.collections.insertFn = func(_ context.Context, c domain.Collection) (domain.Collection, error) {
		c.ID = 7
		return c, nil
	}

	svc := newTestCatalogService(t, registry)

	if _, err := svc.CreateCollection(context.Background(), CollectionCommand{Title: "Eid Edit"}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}

	created, err := svc.CreateCollection(context.Background(), CollectionCommand{
		Title:    "Eid Edit",
		TitleAr:  "تشكيلة العيد",
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if created.ID != 7 || created.TitleAr != "تشكيلة العيد" {
		t.Fatalf("created = %#v", created)
	}
}

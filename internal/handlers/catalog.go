package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bilyar/storefront-api/internal/platform/httpx"
	"github.com/bilyar/storefront-api/internal/services"
)

const maxCatalogBodySize = 512 * 1024

// CatalogHandlers exposes products, categories, and collections. Reads are
// public storefront endpoints; writes are registered on the admin group.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes registers the public catalog read endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/categories", h.listCategories)
	r.Get("/collections", h.listCollections)
}

// AdminRoutes registers the catalog write endpoints.
func (h *CatalogHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/products", h.createProduct)
	r.Patch("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)

	r.Post("/categories", h.createCategory)
	r.Patch("/categories/{categoryID}", h.updateCategory)
	r.Delete("/categories/{categoryID}", h.deleteCategory)

	r.Post("/collections", h.createCollection)
	r.Patch("/collections/{collectionID}", h.updateCollection)
	r.Delete("/collections/{collectionID}", h.deleteCollection)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := h.catalog.ListProducts(ctx, strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildProductListPayload(products))
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := urlParamInt(r, "productID")
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid product id", http.StatusBadRequest))
		return
	}
	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildProductPayload(product))
}

type productRequest struct {
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

func (h *CatalogHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req productRequest
	if !decodeBody(ctx, w, r, maxCatalogBodySize, &req) {
		return
	}
	product, err := h.catalog.CreateProduct(ctx, services.ProductCommand{
		Name:          req.Name,
		NameAr:        req.NameAr,
		Description:   req.Description,
		DescriptionAr: req.DescriptionAr,
		Price:         req.Price,
		Category:      req.Category,
		CategoryAr:    req.CategoryAr,
		Images:        req.Images,
		IsNew:         req.IsNew,
		HasShirt:      req.HasShirt,
		HasTrouser:    req.HasTrouser,
		SKU:           req.SKU,
		StockBySize:   req.StockBySize,
		OutOfStock:    req.OutOfStock,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, buildProductPayload(product))
}

type productPatchRequest struct {
	Name          *string        `json:"name"`
	NameAr        *string        `json:"nameAr"`
	Description   *string        `json:"description"`
	DescriptionAr *string        `json:"descriptionAr"`
	Price         *float64       `json:"price"`
	Category      *string        `json:"category"`
	CategoryAr    *string        `json:"categoryAr"`
	Images        []string       `json:"images"`
	IsNew         *bool          `json:"isNew"`
	HasShirt      *bool          `json:"hasShirt"`
	HasTrouser    *bool          `json:"hasTrouser"`
	SKU           *string        `json:"sku"`
	StockBySize   map[string]int `json:"stockBySize"`
	OutOfStock    *bool          `json:"outOfStock"`
}

func (h *CatalogHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := urlParamInt(r, "productID")
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid product id", http.StatusBadRequest))
		return
	}
	var req productPatchRequest
	if !decodeBody(ctx, w, r, maxCatalogBodySize, &req) {
		return
	}
	product, err := h.catalog.UpdateProduct(ctx, id, services.ProductPatch{
		Name:          req.Name,
		NameAr:        req.NameAr,
		Description:   req.Description,
		DescriptionAr: req.DescriptionAr,
		Price:         req.Price,
		Category:      req.Category,
		CategoryAr:    req.CategoryAr,
		Images:        req.Images,
		IsNew:         req.IsNew,
		HasShirt:      req.HasShirt,
		HasTrouser:    req.HasTrouser,
		SKU:           req.SKU,
		StockBySize:   req.StockBySize,
		OutOfStock:    req.OutOfStock,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildProductPayload(product))
}

func (h *CatalogHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := urlParamInt(r, "productID")
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid product id", http.StatusBadRequest))
		return
	}
	if err := h.catalog.DeleteProduct(ctx, id); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	out := make([]categoryPayload, 0, len(categories))
	for _, c := range categories {
		out = append(out, buildCategoryPayload(c))
	}
	writeJSON(w, http.StatusOK, out)
}

type categoryRequest struct {
	Name     string `json:"name"`
	NameAr   string `json:"nameAr"`
	IsActive *bool  `json:"isActive"`
}

func (h *CatalogHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req categoryRequest
	if !decodeBody(ctx, w, r, maxCatalogBodySize, &req) {
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	category, err := h.catalog.CreateCategory(ctx, services.CategoryCommand{
		Name:     req.Name,
		NameAr:   req.NameAr,
		IsActive: isActive,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, buildCategoryPayload(category))
}

type categoryPatchRequest struct {
	Name     *string `json:"name"`
	NameAr   *string `json:"nameAr"`
	IsActive *bool   `json:"isActive"`
}

func (h *CatalogHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := urlParamInt(r, "categoryID")
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid category id", http.StatusBadRequest))
		return
	}
	var req categoryPatchRequest
	if !decodeBody(ctx, w, r, maxCatalogBodySize, &req) {
		return
	}
	category, err := h.catalog.UpdateCategory(ctx, id, services.CategoryPatch{
		Name:     req.Name,
		NameAr:   req.NameAr,
		IsActive: req.IsActive,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildCategoryPayload(category))
}

func (h *CatalogHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := urlParamInt(r, "categoryID")
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid category id", http.StatusBadRequest))
		return
	}
	if err := h.catalog.DeleteCategory(ctx, id); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandlers) listCollections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	collections, err := h.catalog.ListCollections(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	out := make([]collectionPayload, 0, len(collections))
	for _, c := range collections {
		out = append(out, buildCollectionPayload(c))
	}
	writeJSON(w, http.StatusOK, out)
}

type collectionRequest struct {
	Title         string `json:"title"`
	TitleAr       string `json:"titleAr"`
	Description   string `json:"description"`
	DescriptionAr string `json:"descriptionAr"`
	Image         string `json:"image"`
	IsActive      *bool  `json:"isActive"`
}

func (h *CatalogHandlers) createCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req collectionRequest
	if !decodeBody(ctx, w, r, maxCatalogBodySize, &req) {
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	collection, err := h.catalog.CreateCollection(ctx, services.CollectionCommand{
		Title:         req.Title,
		TitleAr:       req.TitleAr,
		Description:   req.Description,
		DescriptionAr: req.DescriptionAr,
		Image:         req.Image,
		IsActive:      isActive,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, buildCollectionPayload(collection))
}

type collectionPatchRequest struct {
	Title         *string `json:"title"`
	TitleAr       *string `json:"titleAr"`
	Description   *string `json:"description"`
	DescriptionAr *string `json:"descriptionAr"`
	Image         *string `json:"image"`
	IsActive      *bool   `json:"isActive"`
}

func (h *CatalogHandlers) updateCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := urlParamInt(r, "collectionID")
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid collection id", http.StatusBadRequest))
		return
	}
	var req collectionPatchRequest
	if !decodeBody(ctx, w, r, maxCatalogBodySize, &req) {
		return
	}
	collection, err := h.catalog.UpdateCollection(ctx, id, services.CollectionPatch{
		Title:         req.Title,
		TitleAr:       req.TitleAr,
		Description:   req.Description,
		DescriptionAr: req.DescriptionAr,
		Image:         req.Image,
		IsActive:      req.IsActive,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildCollectionPayload(collection))
}

func (h *CatalogHandlers) deleteCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := urlParamInt(r, "collectionID")
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid collection id", http.StatusBadRequest))
		return
	}
	if err := h.catalog.DeleteCollection(ctx, id); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody reads and unmarshals the request body, writing the error
// response itself. Returns false when the caller should stop.
func decodeBody(ctx context.Context, w http.ResponseWriter, r *http.Request, limit int64, dest any) bool {
	body, err := readLimitedBody(r, limit)
	if err != nil {
		code := "invalid_request"
		message := "request body is required"
		if errors.Is(err, errBodyTooLarge) {
			message = "request body too large"
		}
		httpx.WriteError(ctx, w, httpx.NewError(code, message, http.StatusBadRequest))
		return false
	}
	if err := json.Unmarshal(body, dest); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return false
	}
	return true
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "catalog entry not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}

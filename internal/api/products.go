package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dropskill/dropskill/internal/storage"
)

// catalogStore is the subset of the storage layer the product handler needs.
type catalogStore interface {
	ListProducts(ctx context.Context, f storage.ProductFilter) ([]storage.Product, error)
	ProductByID(ctx context.Context, id int64) (*storage.Product, error)
	Categories(ctx context.Context) ([]string, error)

	StoreByID(ctx context.Context, id int64) (*storage.Store, error)
	ImportProduct(ctx context.Context, storeID, productID int64, customPrice float64) (*storage.StoreProduct, error)
	StoreProducts(ctx context.Context, storeID int64) ([]storage.StoreProduct, error)
	UpdateStoreProduct(ctx context.Context, storeID, id int64, patch storage.StoreProductPatch) (*storage.StoreProduct, error)
	RemoveStoreProduct(ctx context.Context, storeID, id int64) error
}

type productHandler struct {
	catalog catalogStore
	logger  *slog.Logger
}

const maxPageSize = 100

// list browses the supplier catalog with filters and pagination.
func (h *productHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f storage.ProductFilter
	f.Category = q.Get("category")
	f.Search = q.Get("search")
	f.MinPrice, _ = strconv.ParseFloat(q.Get("min_price"), 64)
	f.MaxPrice, _ = strconv.ParseFloat(q.Get("max_price"), 64)
	f.InStock = q.Get("in_stock") == "true"
	f.SortBy = q.Get("sort_by")
	f.Asc = q.Get("order") == "asc"

	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if off, err := strconv.Atoi(q.Get("offset")); err == nil && off > 0 {
		f.Offset = off
	}

	products, err := h.catalog.ListProducts(r.Context(), f)
	if err != nil {
		h.logger.Error("listing products", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list products")
		return
	}
	if products == nil {
		products = []storage.Product{}
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *productHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "product id must be an integer")
		return
	}

	product, err := h.catalog.ProductByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		h.logger.Error("loading product", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load product")
		return
	}
	if !product.IsActive {
		writeError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *productHandler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.logger.Error("listing categories", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list categories")
		return
	}
	if categories == nil {
		categories = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

// ownedStoreID parses the {id} path segment and verifies the requester owns
// that store. Foreign stores get 404 so their existence is not leaked.
func (h *productHandler) ownedStoreID(w http.ResponseWriter, r *http.Request, userID int64) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "store id must be an integer")
		return 0, false
	}

	store, err := h.catalog.StoreByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "store not found")
			return 0, false
		}
		h.logger.Error("loading store", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load store")
		return 0, false
	}
	if store.UserID != userID {
		writeError(w, http.StatusNotFound, "not_found", "store not found")
		return 0, false
	}
	return store.ID, true
}

type importProductRequest struct {
	ProductID   int64   `json:"product_id"`
	CustomPrice float64 `json:"custom_price"`
}

// importProduct copies a catalog product into the seller's store.
func (h *productHandler) importProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	storeID, ok := h.ownedStoreID(w, r, userID)
	if !ok {
		return
	}

	var req importProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.catalog.ProductByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		h.logger.Error("loading product", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not import product")
		return
	}
	if !product.IsActive {
		writeError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}

	sp, err := h.catalog.ImportProduct(r.Context(), storeID, product.ID, req.CustomPrice)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "already_imported", "product already in store")
			return
		}
		h.logger.Error("importing product", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not import product")
		return
	}

	writeJSON(w, http.StatusCreated, sp)
}

func (h *productHandler) storeProducts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	storeID, ok := h.ownedStoreID(w, r, userID)
	if !ok {
		return
	}

	products, err := h.catalog.StoreProducts(r.Context(), storeID)
	if err != nil {
		h.logger.Error("listing store products", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list store products")
		return
	}
	if products == nil {
		products = []storage.StoreProduct{}
	}

	writeJSON(w, http.StatusOK, products)
}

type updateStoreProductRequest struct {
	CustomName        *string  `json:"custom_name"`
	CustomDescription *string  `json:"custom_description"`
	CustomPrice       *float64 `json:"custom_price"`
	IsFeatured        *bool    `json:"is_featured"`
	IsActive          *bool    `json:"is_active"`
}

func (h *productHandler) updateStoreProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	storeID, ok := h.ownedStoreID(w, r, userID)
	if !ok {
		return
	}

	spID, err := strconv.ParseInt(r.PathValue("spID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "store product id must be an integer")
		return
	}

	var req updateStoreProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sp, err := h.catalog.UpdateStoreProduct(r.Context(), storeID, spID, storage.StoreProductPatch{
		CustomName:        req.CustomName,
		CustomDescription: req.CustomDescription,
		CustomPrice:       req.CustomPrice,
		IsFeatured:        req.IsFeatured,
		IsActive:          req.IsActive,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "product not in store")
			return
		}
		h.logger.Error("updating store product", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not update store product")
		return
	}

	writeJSON(w, http.StatusOK, sp)
}

func (h *productHandler) removeStoreProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	storeID, ok := h.ownedStoreID(w, r, userID)
	if !ok {
		return
	}

	spID, err := strconv.ParseInt(r.PathValue("spID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "store product id must be an integer")
		return
	}

	if err := h.catalog.RemoveStoreProduct(r.Context(), storeID, spID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "product not in store")
			return
		}
		h.logger.Error("removing store product", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not remove store product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

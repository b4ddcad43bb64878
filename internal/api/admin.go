package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dropskill/dropskill/internal/storage"
)

// adminStore is the subset of the storage layer the admin handler needs.
type adminStore interface {
	UserByID(ctx context.Context, id int64) (*storage.User, error)
	SetUserRole(ctx context.Context, id int64, role string) error

	ListAllProducts(ctx context.Context, includeInactive bool) ([]storage.Product, error)
	CreateProduct(ctx context.Context, p *storage.Product) (*storage.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch storage.ProductPatch) (*storage.Product, error)
	DeactivateProduct(ctx context.Context, id int64) error
	LowStockProducts(ctx context.Context, limit int) ([]storage.Product, error)

	CountUsers(ctx context.Context) (int64, error)
	CountStores(ctx context.Context) (int64, error)
	CountActiveProducts(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context) (float64, error)
	RecentOrders(ctx context.Context, limit int) ([]storage.Order, error)
}

type adminHandler struct {
	store  adminStore
	logger *slog.Logger
}

// requireAdmin verifies the requester is an active admin. Non-admins get 403.
func (h *adminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	userID, ok := requireUser(w, r)
	if !ok {
		return false
	}

	user, err := h.store.UserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
			return false
		}
		h.logger.Error("loading user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not verify permissions")
		return false
	}
	if !user.IsActive || user.Role != storage.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden", "admin access required")
		return false
	}
	return true
}

func (h *adminHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	products, err := h.store.ListAllProducts(r.Context(), includeInactive)
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

type createProductRequest struct {
	SKU             string         `json:"sku"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Category        string         `json:"category"`
	Subcategory     string         `json:"subcategory"`
	CostPrice       float64        `json:"cost_price"`
	BasePrice       float64        `json:"base_price"`
	SuggestedRetail float64        `json:"suggested_retail"`
	StockQuantity   int            `json:"stock_quantity"`
	ImageURL        string         `json:"image_url"`
	Images          []string       `json:"images"`
	Specifications  map[string]any `json:"specifications"`
	Tags            []string       `json:"tags"`
	DemandScore     float64        `json:"demand_score"`
	MarginPotential float64        `json:"margin_potential"`
}

func (h *adminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req createProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	if req.SKU == "" || req.Name == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, "invalid_product", "sku, name, and category are required")
		return
	}
	if req.Images == nil {
		req.Images = []string{}
	}
	if req.Specifications == nil {
		req.Specifications = map[string]any{}
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	product, err := h.store.CreateProduct(r.Context(), &storage.Product{
		SKU:             req.SKU,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Subcategory:     req.Subcategory,
		CostPrice:       req.CostPrice,
		BasePrice:       req.BasePrice,
		SuggestedRetail: req.SuggestedRetail,
		StockQuantity:   req.StockQuantity,
		ImageURL:        req.ImageURL,
		Images:          req.Images,
		Specifications:  req.Specifications,
		Tags:            req.Tags,
		DemandScore:     req.DemandScore,
		MarginPotential: req.MarginPotential,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "sku_taken", "sku already exists")
			return
		}
		h.logger.Error("creating product", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not create product")
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

type updateProductRequest struct {
	Name            *string         `json:"name"`
	Description     *string         `json:"description"`
	Category        *string         `json:"category"`
	Subcategory     *string         `json:"subcategory"`
	CostPrice       *float64        `json:"cost_price"`
	BasePrice       *float64        `json:"base_price"`
	SuggestedRetail *float64        `json:"suggested_retail"`
	StockQuantity   *int            `json:"stock_quantity"`
	ImageURL        *string         `json:"image_url"`
	Images          *[]string       `json:"images"`
	Specifications  *map[string]any `json:"specifications"`
	Tags            *[]string       `json:"tags"`
	DemandScore     *float64        `json:"demand_score"`
	IsActive        *bool           `json:"is_active"`
}

func (h *adminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "product id must be an integer")
		return
	}

	var req updateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), id, storage.ProductPatch{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Subcategory:     req.Subcategory,
		CostPrice:       req.CostPrice,
		BasePrice:       req.BasePrice,
		SuggestedRetail: req.SuggestedRetail,
		StockQuantity:   req.StockQuantity,
		ImageURL:        req.ImageURL,
		Images:          req.Images,
		Specifications:  req.Specifications,
		Tags:            req.Tags,
		DemandScore:     req.DemandScore,
		IsActive:        req.IsActive,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		h.logger.Error("updating product", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not update product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// deleteProduct soft-deletes: the product is deactivated, not removed, so
// existing store imports keep their reference.
func (h *adminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "product id must be an integer")
		return
	}

	if err := h.store.DeactivateProduct(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		h.logger.Error("deactivating product", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not delete product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

type analyticsResponse struct {
	TotalUsers    int64             `json:"total_users"`
	TotalStores   int64             `json:"total_stores"`
	TotalProducts int64             `json:"total_products"`
	TotalOrders   int64             `json:"total_orders"`
	TotalRevenue  float64           `json:"total_revenue"`
	RecentOrders  []storage.Order   `json:"recent_orders"`
	LowStock      []storage.Product `json:"low_stock_products"`
}

func (h *adminHandler) analytics(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	ctx := r.Context()
	var resp analyticsResponse

	fail := func(step string, err error) {
		h.logger.Error("computing analytics", "step", step, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not compute analytics")
	}

	var err error
	if resp.TotalUsers, err = h.store.CountUsers(ctx); err != nil {
		fail("users", err)
		return
	}
	if resp.TotalStores, err = h.store.CountStores(ctx); err != nil {
		fail("stores", err)
		return
	}
	if resp.TotalProducts, err = h.store.CountActiveProducts(ctx); err != nil {
		fail("products", err)
		return
	}
	if resp.TotalOrders, err = h.store.CountOrders(ctx); err != nil {
		fail("orders", err)
		return
	}
	if resp.TotalRevenue, err = h.store.TotalRevenue(ctx); err != nil {
		fail("revenue", err)
		return
	}
	if resp.RecentOrders, err = h.store.RecentOrders(ctx, 10); err != nil {
		fail("recent orders", err)
		return
	}
	if resp.LowStock, err = h.store.LowStockProducts(ctx, 10); err != nil {
		fail("low stock", err)
		return
	}
	if resp.RecentOrders == nil {
		resp.RecentOrders = []storage.Order{}
	}
	if resp.LowStock == nil {
		resp.LowStock = []storage.Product{}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *adminHandler) makeAdmin(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "user id must be an integer")
		return
	}

	if err := h.store.SetUserRole(r.Context(), id, storage.RoleAdmin); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		h.logger.Error("setting user role", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not update user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

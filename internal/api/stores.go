package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dropskill/dropskill/internal/storage"
)

// storeStore is the subset of the storage layer the store handler needs.
type storeStore interface {
	CreateStore(ctx context.Context, p storage.CreateStoreParams) (*storage.Store, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	StoresByUser(ctx context.Context, userID int64) ([]storage.Store, error)
	StoreByID(ctx context.Context, id int64) (*storage.Store, error)
	ActiveStoreBySlug(ctx context.Context, slug string) (*storage.Store, error)
	UpdateStore(ctx context.Context, id int64, patch storage.StorePatch) (*storage.Store, error)
	DeleteStore(ctx context.Context, id int64) error
	PublicStoreProducts(ctx context.Context, storeID int64) ([]storage.StoreProduct, error)
}

type storeHandler struct {
	stores storeStore
	logger *slog.Logger
}

// validTemplates are the storefront layouts the frontend knows how to render.
var validTemplates = map[string]bool{
	"modern":  true,
	"minimal": true,
	"bold":    true,
}

type createStoreRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Template     string `json:"template"`
	PrimaryColor string `json:"primary_color"`
}

func (h *storeHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createStoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_name", "store name is required")
		return
	}
	if req.Template == "" {
		req.Template = "modern"
	}
	if !validTemplates[req.Template] {
		writeError(w, http.StatusBadRequest, "invalid_template", "template must be one of: modern, minimal, bold")
		return
	}
	if req.PrimaryColor == "" {
		req.PrimaryColor = "#3B82F6"
	}

	slug, err := h.uniqueSlug(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("generating slug", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not create store")
		return
	}

	store, err := h.stores.CreateStore(r.Context(), storage.CreateStoreParams{
		UserID:       userID,
		Name:         req.Name,
		Slug:         slug,
		Description:  req.Description,
		Template:     req.Template,
		PrimaryColor: req.PrimaryColor,
	})
	if err != nil {
		h.logger.Error("creating store", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not create store")
		return
	}

	writeJSON(w, http.StatusCreated, store)
}

func (h *storeHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	stores, err := h.stores.StoresByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("listing stores", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list stores")
		return
	}
	if stores == nil {
		stores = []storage.Store{}
	}

	writeJSON(w, http.StatusOK, stores)
}

// ownedStore loads a store and verifies the requester owns it. Foreign stores
// get 404 rather than 403 so their existence is not leaked.
func (h *storeHandler) ownedStore(w http.ResponseWriter, r *http.Request, userID int64) (*storage.Store, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "store id must be an integer")
		return nil, false
	}

	store, err := h.stores.StoreByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "store not found")
			return nil, false
		}
		h.logger.Error("loading store", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load store")
		return nil, false
	}
	if store.UserID != userID {
		writeError(w, http.StatusNotFound, "not_found", "store not found")
		return nil, false
	}
	return store, true
}

func (h *storeHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	store, ok := h.ownedStore(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, store)
}

type updateStoreRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Template     *string `json:"template"`
	LogoURL      *string `json:"logo_url"`
	BannerURL    *string `json:"banner_url"`
	PrimaryColor *string `json:"primary_color"`
	IsActive     *bool   `json:"is_active"`
}

func (h *storeHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	store, ok := h.ownedStore(w, r, userID)
	if !ok {
		return
	}

	var req updateStoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Template != nil && !validTemplates[*req.Template] {
		writeError(w, http.StatusBadRequest, "invalid_template", "template must be one of: modern, minimal, bold")
		return
	}

	updated, err := h.stores.UpdateStore(r.Context(), store.ID, storage.StorePatch{
		Name:         req.Name,
		Description:  req.Description,
		Template:     req.Template,
		LogoURL:      req.LogoURL,
		BannerURL:    req.BannerURL,
		PrimaryColor: req.PrimaryColor,
		IsActive:     req.IsActive,
	})
	if err != nil {
		h.logger.Error("updating store", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not update store")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *storeHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	store, ok := h.ownedStore(w, r, userID)
	if !ok {
		return
	}

	if err := h.stores.DeleteStore(r.Context(), store.ID); err != nil {
		h.logger.Error("deleting store", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not delete store")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// public serves a storefront by slug with its active products. No auth.
func (h *storeHandler) public(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	store, err := h.stores.ActiveStoreBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "store not found")
			return
		}
		h.logger.Error("loading public store", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load store")
		return
	}

	products, err := h.stores.PublicStoreProducts(r.Context(), store.ID)
	if err != nil {
		h.logger.Error("loading storefront products", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load store")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"store":    store,
		"products": publicListings(products),
	})
}

// publicListing is a storefront product with seller customizations resolved
// against the catalog values.
type publicListing struct {
	ID          int64    `json:"id"`
	ProductID   int64    `json:"product_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	ImageURL    string   `json:"image_url"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	InStock     bool     `json:"in_stock"`
	IsFeatured  bool     `json:"is_featured"`
}

func publicListings(products []storage.StoreProduct) []publicListing {
	listings := make([]publicListing, 0, len(products))
	for _, sp := range products {
		l := publicListing{
			ID:          sp.ID,
			ProductID:   sp.ProductID,
			Name:        sp.Product.Name,
			Description: sp.Product.Description,
			Price:       sp.Product.SuggestedRetail,
			ImageURL:    sp.Product.ImageURL,
			Images:      sp.Product.Images,
			Category:    sp.Product.Category,
			InStock:     sp.Product.StockQuantity > 0,
			IsFeatured:  sp.IsFeatured,
		}
		if sp.CustomName != "" {
			l.Name = sp.CustomName
		}
		if sp.CustomDescription != "" {
			l.Description = sp.CustomDescription
		}
		if sp.CustomPrice > 0 {
			l.Price = sp.CustomPrice
		}
		listings = append(listings, l)
	}
	return listings
}

// slugify lowercases a name and collapses runs of non-alphanumerics into
// single hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "store"
	}
	return slug
}

// uniqueSlug appends -1, -2, ... until the slug is free. A concurrent insert
// can still race; the unique index on stores.slug is the backstop.
func (h *storeHandler) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)
	slug := base
	for n := 1; ; n++ {
		taken, err := h.stores.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

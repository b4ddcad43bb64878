package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dropskill/dropskill/internal/advisor"
	"github.com/dropskill/dropskill/internal/storage"
)

// advisorStore is the subset of the storage layer the advisor handler needs.
type advisorStore interface {
	UserByID(ctx context.Context, id int64) (*storage.User, error)
	StoreByID(ctx context.Context, id int64) (*storage.Store, error)
	StoreProductIDs(ctx context.Context, storeID int64) ([]int64, error)
	CountStoreProducts(ctx context.Context, storeID int64) (int64, error)
	CountOrdersByStore(ctx context.Context, storeID int64) (int64, error)
	TopProductsByDemand(ctx context.Context, limit int) ([]storage.Product, error)
	StoreProducts(ctx context.Context, storeID int64) ([]storage.StoreProduct, error)
}

// recommendationPool is how many top-demand catalog products feed one
// recommendation request.
const recommendationPool = 20

type advisorAPIHandler struct {
	store  advisorStore
	engine *advisor.Engine
	logger *slog.Logger
}

// candidate converts a catalog product into the engine's input shape.
func candidate(p storage.Product) advisor.ProductCandidate {
	return advisor.ProductCandidate{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.SuggestedRetail,
		DemandScore: p.DemandScore,
	}
}

func candidates(products []storage.Product) []advisor.ProductCandidate {
	out := make([]advisor.ProductCandidate, 0, len(products))
	for _, p := range products {
		out = append(out, candidate(p))
	}
	return out
}

// ownedStore loads a store and checks the requester owns it.
func (h *advisorAPIHandler) ownedStore(ctx context.Context, storeID, userID int64) (*storage.Store, error) {
	store, err := h.store.StoreByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return store, nil
}

type recommendRequest struct {
	Query   string `json:"query"`
	StoreID int64  `json:"store_id"`
}

func (h *advisorAPIHandler) recommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req recommendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var storeCtx *advisor.StoreContext
	if req.StoreID != 0 {
		store, err := h.ownedStore(r.Context(), req.StoreID, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "store not found")
				return
			}
			h.logger.Error("loading store", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "could not load store")
			return
		}

		ids, err := h.store.StoreProductIDs(r.Context(), store.ID)
		if err != nil {
			h.logger.Error("loading store product ids", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "could not load store")
			return
		}
		storeCtx = &advisor.StoreContext{
			Name:         store.Name,
			ProductCount: len(ids),
			ProductIDs:   ids,
		}
	}

	products, err := h.store.TopProductsByDemand(r.Context(), recommendationPool)
	if err != nil {
		h.logger.Error("loading catalog", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load catalog")
		return
	}

	result := h.engine.Recommendations(req.Query, storeCtx, candidates(products))
	writeJSON(w, http.StatusOK, result)
}

type chatRequest struct {
	Message string             `json:"message"`
	StoreID int64              `json:"store_id"`
	History []advisor.ChatTurn `json:"history"`
}

func (h *advisorAPIHandler) chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_message", "message is required")
		return
	}

	user, err := h.store.UserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("loading user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load account")
		return
	}

	chatCtx := advisor.ChatContext{UserName: firstName(user)}

	if req.StoreID != 0 {
		store, err := h.ownedStore(r.Context(), req.StoreID, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "store not found")
				return
			}
			h.logger.Error("loading store", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "could not load store")
			return
		}

		products, err := h.store.CountStoreProducts(r.Context(), store.ID)
		if err != nil {
			h.logger.Error("counting store products", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "could not load store")
			return
		}
		orders, err := h.store.CountOrdersByStore(r.Context(), store.ID)
		if err != nil {
			h.logger.Error("counting orders", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "could not load store")
			return
		}
		chatCtx.Store = &advisor.StoreStats{
			Name:     store.Name,
			Products: int(products),
			Orders:   int(orders),
		}
	}

	reply := h.engine.Chat(req.Message, req.History, chatCtx)
	writeJSON(w, http.StatusOK, reply)
}

func (h *advisorAPIHandler) insights(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	storeID, err := strconv.ParseInt(r.PathValue("storeID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "store id must be an integer")
		return
	}

	store, err := h.ownedStore(r.Context(), storeID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "store not found")
			return
		}
		h.logger.Error("loading store", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load store")
		return
	}

	storeProducts, err := h.store.StoreProducts(r.Context(), store.ID)
	if err != nil {
		h.logger.Error("loading store products", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load store")
		return
	}

	catalog, err := h.store.TopProductsByDemand(r.Context(), 0)
	if err != nil {
		h.logger.Error("loading catalog", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load catalog")
		return
	}

	owned := make([]advisor.ProductCandidate, 0, len(storeProducts))
	for _, sp := range storeProducts {
		owned = append(owned, candidate(sp.Product))
	}

	report := h.engine.Insights(store.Name, owned, candidates(catalog))
	writeJSON(w, http.StatusOK, report)
}

// firstName picks a display name for chat: the first word of the full name,
// falling back to the local part of the email.
func firstName(user *storage.User) string {
	if name := strings.TrimSpace(user.FullName); name != "" {
		first, _, _ := strings.Cut(name, " ")
		return first
	}
	local, _, _ := strings.Cut(user.Email, "@")
	return local
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropskill/dropskill/internal/log"
	"github.com/dropskill/dropskill/internal/storage"
)

// fakeAdminStore is an in-memory adminStore.
type fakeAdminStore struct {
	users    map[int64]*storage.User
	products map[int64]*storage.Product
	nextID   int64
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{
		users:    make(map[int64]*storage.User),
		products: make(map[int64]*storage.Product),
		nextID:   1,
	}
}

func (f *fakeAdminStore) UserByID(_ context.Context, id int64) (*storage.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeAdminStore) SetUserRole(_ context.Context, id int64, role string) error {
	u, ok := f.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeAdminStore) ListAllProducts(_ context.Context, includeInactive bool) ([]storage.Product, error) {
	var out []storage.Product
	for _, p := range f.products {
		if p.IsActive || includeInactive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeAdminStore) CreateProduct(_ context.Context, p *storage.Product) (*storage.Product, error) {
	for _, existing := range f.products {
		if existing.SKU == p.SKU {
			return nil, storage.ErrDuplicate
		}
	}
	created := *p
	created.ID = f.nextID
	created.IsActive = true
	f.nextID++
	f.products[created.ID] = &created
	return &created, nil
}

func (f *fakeAdminStore) UpdateProduct(_ context.Context, id int64, patch storage.ProductPatch) (*storage.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.DemandScore != nil {
		p.DemandScore = *patch.DemandScore
	}
	return p, nil
}

func (f *fakeAdminStore) DeactivateProduct(_ context.Context, id int64) error {
	p, ok := f.products[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (f *fakeAdminStore) LowStockProducts(context.Context, int) ([]storage.Product, error) {
	return nil, nil
}

func (f *fakeAdminStore) CountUsers(context.Context) (int64, error)          { return 3, nil }
func (f *fakeAdminStore) CountStores(context.Context) (int64, error)         { return 2, nil }
func (f *fakeAdminStore) CountActiveProducts(context.Context) (int64, error) { return 5, nil }
func (f *fakeAdminStore) CountOrders(context.Context) (int64, error)         { return 7, nil }
func (f *fakeAdminStore) TotalRevenue(context.Context) (float64, error)      { return 123.45, nil }
func (f *fakeAdminStore) RecentOrders(context.Context, int) ([]storage.Order, error) {
	return []storage.Order{{ID: 1, OrderNumber: "DS-0001"}}, nil
}

// adminFixture returns a handler with user 1 as admin and user 2 as seller.
func adminFixture() (*adminHandler, *fakeAdminStore) {
	store := newFakeAdminStore()
	store.users[1] = &storage.User{ID: 1, Role: storage.RoleAdmin, IsActive: true}
	store.users[2] = &storage.User{ID: 2, Role: storage.RoleSeller, IsActive: true}
	return &adminHandler{store: store, logger: log.NewNop()}, store
}

func adminMux(h *adminHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/products", h.createProduct)
	mux.HandleFunc("GET /api/admin/products", h.listProducts)
	mux.HandleFunc("PUT /api/admin/products/{id}", h.updateProduct)
	mux.HandleFunc("DELETE /api/admin/products/{id}", h.deleteProduct)
	mux.HandleFunc("GET /api/admin/analytics", h.analytics)
	mux.HandleFunc("POST /api/admin/users/{id}/make-admin", h.makeAdmin)
	return mux
}

func TestAdminRoleGate(t *testing.T) {
	h, _ := adminFixture()
	mux := adminMux(h)

	tests := []struct {
		name       string
		userID     int64
		wantStatus int
	}{
		{"admin allowed", 1, http.StatusOK},
		{"seller forbidden", 2, http.StatusForbidden},
		{"unknown user", 99, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/admin/products", "", tt.userID))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/products", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}

func TestAdminCreateProduct(t *testing.T) {
	h, _ := adminFixture()
	mux := adminMux(h)

	body := `{"sku":"DS-100","name":"Earbuds","category":"Audio","suggested_retail":29.99,"demand_score":0.8}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/admin/products", body, 1))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body)
	}

	t.Run("duplicate sku", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/admin/products", body, 1))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/admin/products", `{"name":"x"}`, 1))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestAdminDeleteIsSoft(t *testing.T) {
	h, store := adminFixture()
	mux := adminMux(h)
	store.products[1] = &storage.Product{ID: 1, SKU: "DS-1", Name: "Earbuds", IsActive: true}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/admin/products/1", "", 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.products[1] == nil {
		t.Fatal("product was hard-deleted")
	}
	if store.products[1].IsActive {
		t.Error("product still active after delete")
	}
}

func TestAdminAnalytics(t *testing.T) {
	h, _ := adminFixture()
	rec := httptest.NewRecorder()
	adminMux(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/admin/analytics", "", 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp analyticsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalUsers != 3 || resp.TotalStores != 2 || resp.TotalProducts != 5 ||
		resp.TotalOrders != 7 || resp.TotalRevenue != 123.45 {
		t.Errorf("analytics = %+v", resp)
	}
	if len(resp.RecentOrders) != 1 {
		t.Errorf("recent orders = %d", len(resp.RecentOrders))
	}
	if resp.LowStock == nil {
		t.Error("low stock should marshal as empty array, not null")
	}
}

func TestMakeAdmin(t *testing.T) {
	h, store := adminFixture()
	mux := adminMux(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/admin/users/2/make-admin", "", 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.users[2].Role != storage.RoleAdmin {
		t.Errorf("role = %q, want admin", store.users[2].Role)
	}

	t.Run("seller cannot promote", func(t *testing.T) {
		store.users[3] = &storage.User{ID: 3, Role: storage.RoleSeller, IsActive: true}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/admin/users/3/make-admin", "", 3))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})
}

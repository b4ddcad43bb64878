package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dropskill/dropskill/internal/advisor"
	"github.com/dropskill/dropskill/internal/knowledge"
	"github.com/dropskill/dropskill/internal/log"
	"github.com/dropskill/dropskill/internal/storage"
)

// fakeAdvisorStore is an in-memory advisorStore.
type fakeAdvisorStore struct {
	users       map[int64]*storage.User
	stores      map[int64]*storage.Store
	imports     map[int64][]storage.StoreProduct
	catalog     []storage.Product
	orderCounts map[int64]int64
}

func (f *fakeAdvisorStore) UserByID(_ context.Context, id int64) (*storage.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeAdvisorStore) StoreByID(_ context.Context, id int64) (*storage.Store, error) {
	s, ok := f.stores[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeAdvisorStore) StoreProductIDs(_ context.Context, storeID int64) ([]int64, error) {
	var ids []int64
	for _, sp := range f.imports[storeID] {
		ids = append(ids, sp.ProductID)
	}
	return ids, nil
}

func (f *fakeAdvisorStore) CountStoreProducts(_ context.Context, storeID int64) (int64, error) {
	return int64(len(f.imports[storeID])), nil
}

func (f *fakeAdvisorStore) CountOrdersByStore(_ context.Context, storeID int64) (int64, error) {
	return f.orderCounts[storeID], nil
}

func (f *fakeAdvisorStore) TopProductsByDemand(_ context.Context, limit int) ([]storage.Product, error) {
	out := make([]storage.Product, len(f.catalog))
	copy(out, f.catalog)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAdvisorStore) StoreProducts(_ context.Context, storeID int64) ([]storage.StoreProduct, error) {
	return f.imports[storeID], nil
}

func advisorFixture(t *testing.T) (*advisorAPIHandler, *fakeAdvisorStore) {
	t.Helper()
	store := &fakeAdvisorStore{
		users: map[int64]*storage.User{
			1: {ID: 1, Email: "sam.seller@example.com", FullName: "Sam Seller", IsActive: true},
		},
		stores: map[int64]*storage.Store{
			1: {ID: 1, UserID: 1, Name: "Tech Corner", IsActive: true},
		},
		imports:     make(map[int64][]storage.StoreProduct),
		orderCounts: map[int64]int64{1: 4},
	}
	ks := knowledge.New("", log.NewNop())
	engine := advisor.New(ks, log.NewNop())
	return &advisorAPIHandler{store: store, engine: engine, logger: log.NewNop()}, store
}

func advisorMux(h *advisorAPIHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ai/recommend", h.recommend)
	mux.HandleFunc("POST /api/ai/chat", h.chat)
	mux.HandleFunc("GET /api/ai/insights/{storeID}", h.insights)
	return mux
}

func TestRecommend(t *testing.T) {
	h, store := advisorFixture(t)
	store.catalog = []storage.Product{
		{ID: 1, Name: "Wireless Earbuds Pro", Category: "Audio", SuggestedRetail: 29.99, DemandScore: 0.6, IsActive: true},
		{ID: 2, Name: "Fitness Tracker", Category: "Wearables", SuggestedRetail: 39.99, DemandScore: 0.9, IsActive: true},
	}
	store.imports[1] = []storage.StoreProduct{{ID: 1, StoreID: 1, ProductID: 2}}
	mux := advisorMux(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/ai/recommend", `{"query":"earbuds","store_id":1}`, 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body)
	}

	var result advisor.RecommendationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Recommendations) != 1 {
		t.Fatalf("recommendations = %d, want 1 (owned product excluded)", len(result.Recommendations))
	}
	if result.Recommendations[0].ProductID != 1 {
		t.Errorf("recommended product = %d, want 1", result.Recommendations[0].ProductID)
	}
	if !strings.Contains(result.Insights, "'earbuds'") {
		t.Errorf("insights = %q", result.Insights)
	}

	t.Run("foreign store", func(t *testing.T) {
		store.stores[2] = &storage.Store{ID: 2, UserID: 99, Name: "Other"}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/ai/recommend", `{"query":"x","store_id":2}`, 1))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("no store context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/ai/recommend", `{"query":"earbuds"}`, 1))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var result advisor.RecommendationResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatal(err)
		}
		if len(result.Recommendations) != 2 {
			t.Fatalf("recommendations = %d, want 2 without exclusions", len(result.Recommendations))
		}
	})
}

func TestChat(t *testing.T) {
	h, _ := advisorFixture(t)
	mux := advisorMux(h)

	t.Run("uses first name", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/ai/chat", `{"message":"how should I price this?"}`, 1))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (body %s)", rec.Code, rec.Body)
		}
		var reply advisor.ChatReply
		if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(reply.Response, "Hi Sam!") {
			t.Errorf("response = %q, want Hi Sam! prefix", reply.Response)
		}
		if len(reply.ActionItems) == 0 {
			t.Error("action items empty")
		}
	})

	t.Run("empty message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/ai/chat", `{"message":"  "}`, 1))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("with store stats", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/ai/chat", `{"message":"hello","store_id":1}`, 1))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (body %s)", rec.Code, rec.Body)
		}
	})
}

func TestFirstName(t *testing.T) {
	tests := []struct {
		fullName string
		email    string
		want     string
	}{
		{"Sam Seller", "sam@example.com", "Sam"},
		{"", "sam.seller@example.com", "sam.seller"},
		{"  ", "solo@example.com", "solo"},
		{"Cher", "cher@example.com", "Cher"},
	}
	for _, tt := range tests {
		got := firstName(&storage.User{FullName: tt.fullName, Email: tt.email})
		if got != tt.want {
			t.Errorf("firstName(%q, %q) = %q, want %q", tt.fullName, tt.email, got, tt.want)
		}
	}
}

func TestInsights(t *testing.T) {
	h, store := advisorFixture(t)
	store.catalog = []storage.Product{
		{ID: 1, Name: "Hot Item", Category: "Audio", DemandScore: 0.9, IsActive: true},
		{ID: 2, Name: "Owned Item", Category: "Audio", DemandScore: 0.8, IsActive: true},
		{ID: 3, Name: "Cold Item", Category: "Audio", DemandScore: 0.2, IsActive: true},
	}
	store.imports[1] = []storage.StoreProduct{
		{ID: 10, StoreID: 1, ProductID: 2, Product: storage.Product{ID: 2, Name: "Owned Item", DemandScore: 0.8}},
	}
	mux := advisorMux(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/ai/insights/1", "", 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body)
	}

	var report advisor.InsightReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(report.Summary, "'Tech Corner'") || !strings.Contains(report.Summary, "1 products") {
		t.Errorf("summary = %q", report.Summary)
	}
	if len(report.ProductGaps) != 1 || report.ProductGaps[0].ProductID != 1 {
		t.Errorf("gaps = %+v, want only high-demand unowned product", report.ProductGaps)
	}
	if len(report.Risks) == 0 {
		t.Error("risks empty for a store under five products")
	}

	t.Run("foreign store", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/ai/insights/1", "", 99))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dropskill/dropskill/internal/storage"
	"github.com/dropskill/dropskill/internal/testutil"
)

// setup starts a throwaway database. Skipped in -short mode since it needs a
// Docker daemon.
func setup(t *testing.T) *storage.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	tdb := testutil.SetupTestDB(t)
	return storage.New(tdb.Pool, testutil.DiscardLogger())
}

func TestUsers(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	has, err := db.HasUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Fatal("fresh database reports users")
	}

	u, err := db.CreateUser(ctx, "seller@example.com", "hash", "Sam Seller", storage.RoleSeller)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == 0 || u.Role != storage.RoleSeller || !u.IsActive {
		t.Errorf("created user = %+v", u)
	}

	if _, err := db.CreateUser(ctx, "seller@example.com", "hash", "", storage.RoleSeller); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate email error = %v, want ErrDuplicate", err)
	}

	byEmail, err := db.UserByEmail(ctx, "seller@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("UserByEmail = %+v, %v", byEmail, err)
	}

	if _, err := db.UserByID(ctx, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing user error = %v, want ErrNotFound", err)
	}

	if err := db.SetUserRole(ctx, u.ID, storage.RoleAdmin); err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}
	promoted, err := db.UserByID(ctx, u.ID)
	if err != nil || promoted.Role != storage.RoleAdmin {
		t.Errorf("after promote = %+v, %v", promoted, err)
	}

	if err := db.SetUserRole(ctx, 9999, storage.RoleAdmin); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("promote missing user error = %v, want ErrNotFound", err)
	}
}

func TestStores(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "seller@example.com", "hash", "Sam", storage.RoleSeller)
	if err != nil {
		t.Fatal(err)
	}

	s, err := db.CreateStore(ctx, storage.CreateStoreParams{
		UserID: u.ID, Name: "Tech Corner", Slug: "tech-corner",
		Template: "modern", PrimaryColor: "#3B82F6",
	})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}

	if _, err := db.CreateStore(ctx, storage.CreateStoreParams{
		UserID: u.ID, Name: "Tech Corner", Slug: "tech-corner", Template: "modern",
	}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate slug error = %v, want ErrDuplicate", err)
	}

	taken, err := db.SlugExists(ctx, "tech-corner")
	if err != nil || !taken {
		t.Errorf("SlugExists = %t, %v", taken, err)
	}

	bySlug, err := db.ActiveStoreBySlug(ctx, "tech-corner")
	if err != nil || bySlug.ID != s.ID {
		t.Fatalf("ActiveStoreBySlug = %+v, %v", bySlug, err)
	}

	newName := "Gadget Corner"
	inactive := false
	updated, err := db.UpdateStore(ctx, s.ID, storage.StorePatch{Name: &newName, IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateStore: %v", err)
	}
	if updated.Name != newName || updated.IsActive {
		t.Errorf("updated = %+v", updated)
	}

	// Deactivated stores disappear from public lookup.
	if _, err := db.ActiveStoreBySlug(ctx, "tech-corner"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("inactive store lookup error = %v, want ErrNotFound", err)
	}

	if err := db.DeleteStore(ctx, s.ID); err != nil {
		t.Fatalf("DeleteStore: %v", err)
	}
	if err := db.DeleteStore(ctx, s.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func seedProduct(t *testing.T, db *storage.DB, sku, name, category string, retail, demand float64, stock int) *storage.Product {
	t.Helper()
	p, err := db.CreateProduct(context.Background(), &storage.Product{
		SKU: sku, Name: name, Category: category,
		SuggestedRetail: retail, DemandScore: demand, StockQuantity: stock,
		Images:         []string{},
		Specifications: map[string]any{},
		Tags:           []string{},
	})
	if err != nil {
		t.Fatalf("seeding product %s: %v", sku, err)
	}
	return p
}

func TestProducts(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	earbuds := seedProduct(t, db, "SKU-1", "Wireless Earbuds", "Audio", 29.99, 0.9, 10)
	seedProduct(t, db, "SKU-2", "Speaker", "Audio", 39.99, 0.7, 0)
	seedProduct(t, db, "SKU-3", "Tracker", "Wearables", 34.99, 0.8, 5)

	if _, err := db.CreateProduct(ctx, &storage.Product{
		SKU: "SKU-1", Name: "Dup", Category: "Audio",
		Images: []string{}, Specifications: map[string]any{}, Tags: []string{},
	}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate sku error = %v, want ErrDuplicate", err)
	}

	t.Run("filters", func(t *testing.T) {
		audio, err := db.ListProducts(ctx, storage.ProductFilter{Category: "Audio"})
		if err != nil || len(audio) != 2 {
			t.Fatalf("category filter = %d products, %v", len(audio), err)
		}

		inStock, err := db.ListProducts(ctx, storage.ProductFilter{InStock: true})
		if err != nil || len(inStock) != 2 {
			t.Fatalf("in stock filter = %d products, %v", len(inStock), err)
		}

		search, err := db.ListProducts(ctx, storage.ProductFilter{Search: "earbud"})
		if err != nil || len(search) != 1 || search[0].ID != earbuds.ID {
			t.Fatalf("search filter = %+v, %v", search, err)
		}

		priced, err := db.ListProducts(ctx, storage.ProductFilter{MinPrice: 30, MaxPrice: 35})
		if err != nil || len(priced) != 1 || priced[0].SKU != "SKU-3" {
			t.Fatalf("price filter = %+v, %v", priced, err)
		}
	})

	t.Run("sorting", func(t *testing.T) {
		byDemand, err := db.ListProducts(ctx, storage.ProductFilter{})
		if err != nil {
			t.Fatal(err)
		}
		if byDemand[0].SKU != "SKU-1" {
			t.Errorf("default sort should be demand desc, got %s first", byDemand[0].SKU)
		}

		byPrice, err := db.ListProducts(ctx, storage.ProductFilter{SortBy: "base_price", Asc: true})
		if err != nil || len(byPrice) != 3 {
			t.Fatalf("price sort: %v", err)
		}

		// Unknown sort column falls back rather than erroring.
		if _, err := db.ListProducts(ctx, storage.ProductFilter{SortBy: "evil; DROP TABLE products"}); err != nil {
			t.Fatalf("whitelist fallback: %v", err)
		}
	})

	t.Run("top by demand", func(t *testing.T) {
		top, err := db.TopProductsByDemand(ctx, 2)
		if err != nil || len(top) != 2 {
			t.Fatalf("top = %d, %v", len(top), err)
		}
		if top[0].DemandScore < top[1].DemandScore {
			t.Error("not sorted by demand desc")
		}
	})

	t.Run("categories", func(t *testing.T) {
		cats, err := db.Categories(ctx)
		if err != nil || len(cats) != 2 {
			t.Fatalf("categories = %v, %v", cats, err)
		}
	})

	t.Run("deactivate", func(t *testing.T) {
		if err := db.DeactivateProduct(ctx, earbuds.ID); err != nil {
			t.Fatal(err)
		}
		active, err := db.ListProducts(ctx, storage.ProductFilter{})
		if err != nil || len(active) != 2 {
			t.Fatalf("active after deactivate = %d, %v", len(active), err)
		}
		all, err := db.ListAllProducts(ctx, true)
		if err != nil || len(all) != 3 {
			t.Fatalf("all products = %d, %v", len(all), err)
		}
	})

	t.Run("update jsonb", func(t *testing.T) {
		tags := []string{"audio", "sale"}
		specs := map[string]any{"battery_hours": float64(30)}
		updated, err := db.UpdateProduct(ctx, earbuds.ID, storage.ProductPatch{Tags: &tags, Specifications: &specs})
		if err != nil {
			t.Fatalf("UpdateProduct: %v", err)
		}
		if len(updated.Tags) != 2 || updated.Specifications["battery_hours"] != float64(30) {
			t.Errorf("jsonb round trip = %+v", updated)
		}
	})
}

func TestStoreProducts(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "seller@example.com", "hash", "Sam", storage.RoleSeller)
	if err != nil {
		t.Fatal(err)
	}
	s, err := db.CreateStore(ctx, storage.CreateStoreParams{UserID: u.ID, Name: "Shop", Slug: "shop", Template: "modern"})
	if err != nil {
		t.Fatal(err)
	}
	p := seedProduct(t, db, "SKU-1", "Earbuds", "Audio", 29.99, 0.9, 10)

	sp, err := db.ImportProduct(ctx, s.ID, p.ID, 24.99)
	if err != nil {
		t.Fatalf("ImportProduct: %v", err)
	}
	if sp.CustomPrice != 24.99 || sp.Product.ID != p.ID {
		t.Errorf("imported = %+v", sp)
	}

	if _, err := db.ImportProduct(ctx, s.ID, p.ID, 0); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate import error = %v, want ErrDuplicate", err)
	}

	ids, err := db.StoreProductIDs(ctx, s.ID)
	if err != nil || len(ids) != 1 || ids[0] != p.ID {
		t.Fatalf("StoreProductIDs = %v, %v", ids, err)
	}

	name := "My Earbuds"
	featured := true
	updated, err := db.UpdateStoreProduct(ctx, s.ID, sp.ID, storage.StoreProductPatch{CustomName: &name, IsFeatured: &featured})
	if err != nil {
		t.Fatalf("UpdateStoreProduct: %v", err)
	}
	if updated.CustomName != name || !updated.IsFeatured {
		t.Errorf("updated = %+v", updated)
	}

	// Scoped updates: wrong store ID must not match.
	if _, err := db.UpdateStoreProduct(ctx, s.ID+1, sp.ID, storage.StoreProductPatch{CustomName: &name}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-store update error = %v, want ErrNotFound", err)
	}

	pub, err := db.PublicStoreProducts(ctx, s.ID)
	if err != nil || len(pub) != 1 {
		t.Fatalf("PublicStoreProducts = %d, %v", len(pub), err)
	}

	// Deactivating the catalog product hides it from the storefront.
	if err := db.DeactivateProduct(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	pub, err = db.PublicStoreProducts(ctx, s.ID)
	if err != nil || len(pub) != 0 {
		t.Fatalf("storefront after deactivation = %d, %v", len(pub), err)
	}

	if err := db.RemoveStoreProduct(ctx, s.ID, sp.ID); err != nil {
		t.Fatalf("RemoveStoreProduct: %v", err)
	}
	n, err := db.CountStoreProducts(ctx, s.ID)
	if err != nil || n != 0 {
		t.Errorf("count after remove = %d, %v", n, err)
	}
}

func TestStoreCascade(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "seller@example.com", "hash", "Sam", storage.RoleSeller)
	if err != nil {
		t.Fatal(err)
	}
	s, err := db.CreateStore(ctx, storage.CreateStoreParams{UserID: u.ID, Name: "Shop", Slug: "shop", Template: "modern"})
	if err != nil {
		t.Fatal(err)
	}
	p := seedProduct(t, db, "SKU-1", "Earbuds", "Audio", 29.99, 0.9, 10)
	if _, err := db.ImportProduct(ctx, s.ID, p.ID, 0); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteStore(ctx, s.ID); err != nil {
		t.Fatalf("DeleteStore: %v", err)
	}

	// Imports go with the store; the catalog product survives.
	ids, err := db.StoreProductIDs(ctx, s.ID)
	if err != nil || len(ids) != 0 {
		t.Fatalf("imports after store delete = %v, %v", ids, err)
	}
	if _, err := db.ProductByID(ctx, p.ID); err != nil {
		t.Errorf("catalog product gone after store delete: %v", err)
	}
}

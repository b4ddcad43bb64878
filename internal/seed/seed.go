// Package seed loads the initial admin account and supplier catalog into an
// empty database.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dropskill/dropskill/internal/auth"
	"github.com/dropskill/dropskill/internal/storage"
)

//go:embed products.json
var dataFS embed.FS

// catalogEntry mirrors one record of the embedded products.json.
type catalogEntry struct {
	SKU               string         `json:"sku"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Category          string         `json:"category"`
	Subcategory       string         `json:"subcategory"`
	CostPrice         float64        `json:"cost_price"`
	BasePrice         float64        `json:"base_price"`
	SuggestedRetail   float64        `json:"suggested_retail"`
	StockQuantity     int            `json:"stock_quantity"`
	LowStockThreshold int            `json:"low_stock_threshold"`
	ImageURL          string         `json:"image_url"`
	Images            []string       `json:"images"`
	Specifications    map[string]any `json:"specifications"`
	Tags              []string       `json:"tags"`
	DemandScore       float64        `json:"demand_score"`
	MarginPotential   float64        `json:"margin_potential"`
}

// store is the subset of the storage layer seeding needs.
type store interface {
	HasUsers(ctx context.Context) (bool, error)
	CreateUser(ctx context.Context, email, passwordHash, fullName, role string) (*storage.User, error)
	CreateProduct(ctx context.Context, p *storage.Product) (*storage.Product, error)
}

// Config controls the initial admin account.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Run seeds the admin user and product catalog. Idempotent: a database that
// already has any user is left untouched.
func Run(ctx context.Context, db store, cfg Config, logger *slog.Logger) error {
	seeded, err := db.HasUsers(ctx)
	if err != nil {
		return fmt.Errorf("checking for existing users: %w", err)
	}
	if seeded {
		logger.Debug("database already seeded, skipping")
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	admin, err := db.CreateUser(ctx, cfg.AdminEmail, hash, "Admin User", storage.RoleAdmin)
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	logger.Info("admin user created", "email", admin.Email)

	entries, err := loadCatalog()
	if err != nil {
		return err
	}

	for _, e := range entries {
		p := &storage.Product{
			SKU:               e.SKU,
			Name:              e.Name,
			Description:       e.Description,
			Category:          e.Category,
			Subcategory:       e.Subcategory,
			CostPrice:         e.CostPrice,
			BasePrice:         e.BasePrice,
			SuggestedRetail:   e.SuggestedRetail,
			StockQuantity:     e.StockQuantity,
			LowStockThreshold: e.LowStockThreshold,
			ImageURL:          e.ImageURL,
			Images:            e.Images,
			Specifications:    e.Specifications,
			Tags:              e.Tags,
			DemandScore:       e.DemandScore,
			MarginPotential:   e.MarginPotential,
		}
		if p.Images == nil {
			p.Images = []string{}
		}
		if p.Specifications == nil {
			p.Specifications = map[string]any{}
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
		if p.LowStockThreshold == 0 {
			p.LowStockThreshold = 10
		}
		if _, err := db.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("seeding product %s: %w", e.SKU, err)
		}
	}

	logger.Info("catalog seeded", "products", len(entries))
	return nil
}

func loadCatalog() ([]catalogEntry, error) {
	raw, err := dataFS.ReadFile("products.json")
	if err != nil {
		return nil, fmt.Errorf("reading embedded catalog: %w", err)
	}
	var entries []catalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing embedded catalog: %w", err)
	}
	return entries, nil
}

package storage

import "time"

// User roles.
const (
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User is a seller or admin account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store is a seller-owned storefront.
type Store struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Template     string    `json:"template"` // modern, minimal, bold
	LogoURL      string    `json:"logo_url"`
	BannerURL    string    `json:"banner_url"`
	PrimaryColor string    `json:"primary_color"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Product is an entry in the shared supplier catalog, managed by admins.
type Product struct {
	ID          int64  `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`

	// Pricing: cost is what the platform pays, base is suggested wholesale,
	// suggested retail is the MSRP sellers start from.
	CostPrice       float64 `json:"cost_price"`
	BasePrice       float64 `json:"base_price"`
	SuggestedRetail float64 `json:"suggested_retail"`

	StockQuantity     int `json:"stock_quantity"`
	LowStockThreshold int `json:"low_stock_threshold"`

	ImageURL string   `json:"image_url"`
	Images   []string `json:"images"`

	Specifications map[string]any `json:"specifications"`
	Tags           []string       `json:"tags"`

	DemandScore     float64 `json:"demand_score"`     // popularity estimate in [0,1]
	MarginPotential float64 `json:"margin_potential"` // suggested margin

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreProduct is a catalog product imported into a seller's store, with
// optional seller customization overriding the catalog values.
type StoreProduct struct {
	ID        int64 `json:"id"`
	StoreID   int64 `json:"store_id"`
	ProductID int64 `json:"product_id"`

	CustomName        string  `json:"custom_name"`
	CustomDescription string  `json:"custom_description"`
	CustomPrice       float64 `json:"custom_price"`

	IsFeatured bool      `json:"is_featured"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`

	Product Product `json:"product"`
}

// Order statuses.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Order is a customer purchase placed against a storefront.
type Order struct {
	ID          int64     `json:"id"`
	StoreID     int64     `json:"store_id"`
	OrderNumber string    `json:"order_number"`
	Customer    string    `json:"customer_name"`
	Email       string    `json:"customer_email"`
	Subtotal    float64   `json:"subtotal"`
	Shipping    float64   `json:"shipping_cost"`
	Tax         float64   `json:"tax"`
	Total       float64   `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

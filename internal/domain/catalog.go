package domain

import "github.com/shopspring/decimal"

// ============================================================
// Store
// ============================================================

// Store holds the storefront's public profile as served by the catalog
// endpoint.
type Store struct {
	ID             string                      `json:"id"`
	Name           string                      `json:"name"`
	Slug           string                      `json:"slug"`
	Description    string                      `json:"description,omitempty"`
	LogoURL        string                      `json:"logo_url,omitempty"`
	BannerURL      string                      `json:"banner_url,omitempty"`
	Address        string                      `json:"address"`
	City           string                      `json:"city"`
	State          string                      `json:"state"`
	ZipCode        string                      `json:"zip_code"`
	Phone          string                      `json:"phone,omitempty"`
	WhatsappNumber string                      `json:"whatsapp_number,omitempty"`
	Email          string                      `json:"email,omitempty"`
	Latitude       float64                     `json:"latitude"`
	Longitude      float64                     `json:"longitude"`
	IsOpen         bool                        `json:"is_open"`
	OperatingHours map[string]OperatingWindow  `json:"operating_hours,omitempty"`
}

// OperatingWindow is an open/close pair for one weekday.
type OperatingWindow struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// ============================================================
// Products and categories
// ============================================================

// ProductStatus enumerates upstream product availability states.
type ProductStatus string

const (
	ProductActive     ProductStatus = "active"
	ProductInactive   ProductStatus = "inactive"
	ProductOutOfStock ProductStatus = "out_of_stock"
)

// Category is a catalog category.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

// Product is a single sellable item. Prices are decimals end to end; they are
// never represented as floats inside this service.
type Product struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	ShortDescription string           `json:"short_description,omitempty"`
	Price            decimal.Decimal  `json:"price"`
	CompareAtPrice   *decimal.Decimal `json:"compare_at_price,omitempty"`
	MainImageURL     string           `json:"main_image_url,omitempty"`
	Images           []string         `json:"images,omitempty"`
	CategoryID       string           `json:"category_id,omitempty"`
	Status           ProductStatus    `json:"status"`
	StockQuantity    *int             `json:"stock_quantity,omitempty"`
	Featured         bool             `json:"featured"`
	Tags             []string         `json:"tags,omitempty"`
	Attributes       map[string]any   `json:"attributes,omitempty"`
}

// ============================================================
// Combos
// ============================================================

// ComboItem is one product slot inside a combo.
type ComboItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Combo is a bundled offering with its own price.
type Combo struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	ImageURL      string           `json:"image_url,omitempty"`
	Items         []ComboItem      `json:"items"`
	IsActive      bool             `json:"is_active"`
}

// ============================================================
// Catalog snapshot
// ============================================================

// Catalog is the full storefront snapshot plus derived views. The derived
// fields are computed once when the snapshot is installed, never lazily.
type Catalog struct {
	Store              Store                `json:"store"`
	Categories         []Category           `json:"categories"`
	Products           []Product            `json:"products"`
	Combos             []Combo              `json:"combos"`
	FeaturedProducts   []Product            `json:"featured_products"`
	ProductsByCategory map[string][]Product `json:"products_by_category"`
}

package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GuitarType is the closed set of guitar categories the shop sells.
type GuitarType string

const (
	TypeElectric  GuitarType = "electric"
	TypeAcoustic  GuitarType = "acoustic"
	TypeBass      GuitarType = "bass"
	TypeClassical GuitarType = "classical"
)

// ParseGuitarType validates a stored or submitted type token.
func ParseGuitarType(s string) (GuitarType, error) {
	switch GuitarType(s) {
	case TypeElectric, TypeAcoustic, TypeBass, TypeClassical:
		return GuitarType(s), nil
	}
	return "", fmt.Errorf("unknown guitar type %q", s)
}

// UserRole distinguishes customers from shop administrators.
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case RoleCustomer, RoleAdmin:
		return UserRole(s), nil
	}
	return "", fmt.Errorf("unknown user role %q", s)
}

// OrderStatus tracks an order through its lifecycle.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Guitar represents a product in the catalog.
type Guitar struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Brand           string     `json:"brand"`
	Type            GuitarType `json:"guitar_type"`
	Price           float64    `json:"price"`
	Stock           int        `json:"stock"`
	DiscountPercent float64    `json:"discount_percent"`
	Description     string     `json:"description"`
	ImageURL        string     `json:"image_url"`
	ImagePublicID   string     `json:"-"`
	CategoryID      int64      `json:"category_id"`
	Available       bool       `json:"available"`
	CreatedAt       time.Time  `json:"created_at"`
}

// EffectivePrice is the unit price with the current discount applied,
// rounded to currency precision.
func (g Guitar) EffectivePrice() float64 {
	price := decimal.NewFromFloat(g.Price)
	pct := decimal.NewFromFloat(g.DiscountPercent).Div(decimal.NewFromInt(100))
	return price.Mul(decimal.NewFromInt(1).Sub(pct)).Round(2).InexactFloat64()
}

// Category groups guitars; each guitar belongs to at most one category.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// User is a shop account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Online       bool      `json:"online"`
	LastLogin    time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Order is a completed checkout with its frozen line items.
type Order struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderItem `json:"items"`
}

// OrderItem is an append-only audit line; PriceAtPurchase is the
// discounted unit price frozen at checkout time.
type OrderItem struct {
	GuitarID        int64   `json:"guitar_id"`
	GuitarName      string  `json:"guitar_name"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"price"`
}

// Notification is created exactly once per successful order for admin review.
type Notification struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Total     float64   `json:"total"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// GuitarFilter holds catalog listing filters decoded from the query string.
type GuitarFilter struct {
	Type       string   `schema:"guitar_type"`
	Brand      string   `schema:"brand"`
	MinPrice   *float64 `schema:"min_price"`
	MaxPrice   *float64 `schema:"max_price"`
	InStock    bool     `schema:"in_stock"`
	CategoryID int64    `schema:"category_id"`
}

// GuitarPatch lists the fields an update request may touch. Nil means
// "leave unchanged".
type GuitarPatch struct {
	Name            *string  `json:"name"`
	Brand           *string  `json:"brand"`
	Type            *string  `json:"guitar_type"`
	Price           *float64 `json:"price"`
	Stock           *int     `json:"stock"`
	DiscountPercent *float64 `json:"discount_percent"`
	Description     *string  `json:"description"`
	ImageURL        *string  `json:"image_url"`
	ImagePublicID   *string  `json:"-"`
	CategoryID      *int64   `json:"category_id"`
}

// Empty reports whether the patch touches nothing.
func (p GuitarPatch) Empty() bool {
	return p.Name == nil && p.Brand == nil && p.Type == nil && p.Price == nil &&
		p.Stock == nil && p.DiscountPercent == nil && p.Description == nil &&
		p.ImageURL == nil && p.CategoryID == nil
}

// CategoryPatch lists the updatable category fields.
type CategoryPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (p CategoryPatch) Empty() bool { return p.Name == nil && p.Description == nil }

// UserPatch lists the updatable account fields.
type UserPatch struct {
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// InventoryStats aggregates the catalog for the admin dashboard.
// Everything is computed fresh per request.
type InventoryStats struct {
	TotalProducts   int            `json:"total_products"`
	TotalUnits      int            `json:"total_units"`
	TotalValue      float64        `json:"total_value"`
	AvgPrice        float64        `json:"avg_price"`
	DiscountedCount int            `json:"discounted_count"`
	Revenue         float64        `json:"revenue"`
	ByType          map[string]int `json:"by_type"`
	ByBrand         map[string]int `json:"by_brand"`
}

// CategoryStat summarizes one category's inventory.
type CategoryStat struct {
	Category    Category `json:"category"`
	GuitarCount int      `json:"guitar_count"`
	TotalStock  int      `json:"total_stock"`
	TotalValue  float64  `json:"total_value"`
}

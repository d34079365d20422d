package models

import (
	"time"
)

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"unique;not null"          json:"name"`
	Description string    `gorm:"not null"                 json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Product struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"not null"                 json:"name"`
	Description string         `gorm:"not null"                 json:"description"`
	Price       float64        `gorm:"not null;check:price>=0"  json:"price"`
	CategoryID  uint           `gorm:"index;not null"           json:"category_id"`
	Category    *Category      `json:"category,omitempty"`
	Stock       int            `gorm:"not null;default:0;check:stock>=0" json:"stock"`
	Images      []ProductImage `gorm:"constraint:OnDelete:CASCADE"       json:"images"`
	Ratings     float64        `gorm:"default:0"                json:"ratings"`
	NumReviews  int            `gorm:"default:0"                json:"num_reviews"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	ProductID uint   `gorm:"index;not null"           json:"-"`
	PublicID  string `gorm:"not null"                 json:"public_id"`
	URL       string `gorm:"not null"                 json:"url"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username     string `gorm:"unique;not null"           json:"username"`
	PasswordHash string `gorm:"not null"                  json:"-"`
	Role         string `gorm:"not null;default:customer" json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

// Cart is the per-user aggregate: at most one row per user, enforced by the
// unique index. It is deleted outright when an order is placed from it.
type Cart struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID     uint       `gorm:"uniqueIndex;not null"        json:"user_id"`
	Items      []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	TotalPrice float64    `gorm:"not null;default:0"          json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartItem.Price is the unit price captured when the line was added,
// never refreshed from the product afterwards.
type CartItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	CartID    uint    `gorm:"index;not null"            json:"-"`
	ProductID uint    `gorm:"not null"                  json:"product_id"`
	Quantity  int     `gorm:"not null;check:quantity>0" json:"quantity"`
	Price     float64 `gorm:"not null"                  json:"price"`
}

type ShippingAddress struct {
	Address    string `gorm:"not null" json:"address"`
	City       string `gorm:"not null" json:"city"`
	PostalCode string `gorm:"not null" json:"postal_code"`
	Country    string `gorm:"not null" json:"country"`
}

type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"          json:"id"`
	UserID          uint            `gorm:"index;not null"                    json:"user_id"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE"       json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod   string          `gorm:"not null"                 json:"payment_method"`
	TotalPrice      float64         `gorm:"not null"                 json:"total_price"`
	OrderStatus     string          `gorm:"not null;default:Pending" json:"order_status"`
	PaymentStatus   string          `gorm:"not null;default:Pending" json:"payment_status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderItem is an immutable snapshot: name and price are copied at placement
// time so later product edits cannot change an already placed order.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint    `gorm:"index;not null"           json:"-"`
	ProductID uint    `gorm:"not null"                 json:"product_id"`
	Name      string  `gorm:"not null"                 json:"name"`
	Quantity  int     `gorm:"not null"                 json:"quantity"`
	Price     float64 `gorm:"not null"                 json:"price"`
}

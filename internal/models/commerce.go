package models

import (
	"time"

	"github.com/google/uuid"
)

type Coupon struct {
	Base
	Name     string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Expire   time.Time `gorm:"not null"                     json:"expire"`
	Discount float64   `gorm:"not null"                     json:"discount"`
}

type Review struct {
	Base
	Title     string    `gorm:"size:200"                                         json:"title"`
	Ratings   float64   `gorm:"not null"                                         json:"ratings"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_product" json:"userId"`
	User      *User     `json:"user,omitempty"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_product;index" json:"productId"`
}

type Cart struct {
	Base
	UserID                  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	CartItems               []CartItem `json:"cartItems"`
	TotalCartPrice          float64    `gorm:"not null;default:0"             json:"totalCartPrice"`
	TotalPriceAfterDiscount *float64   `json:"totalPriceAfterDiscount,omitempty"`
}

type CartItem struct {
	Base
	CartID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"       json:"productId"`
	Product   *Product  `json:"product,omitempty"`
	Quantity  int       `gorm:"not null;default:1"       json:"quantity"`
	Color     string    `json:"color,omitempty"`
	Price     float64   `gorm:"not null"                 json:"price"`
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

type ShippingAddress struct {
	Details    string `json:"details"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

type Order struct {
	Base
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index"      json:"userId"`
	User              *User           `json:"user,omitempty"`
	CartItems         []OrderItem     `json:"cartItems"`
	TaxPrice          float64         `gorm:"not null;default:0"            json:"taxPrice"`
	ShippingPrice     float64         `gorm:"not null;default:0"            json:"shippingPrice"`
	ShippingAddress   ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	TotalOrderPrice   float64         `gorm:"not null"                      json:"totalOrderPrice"`
	PaymentMethodType PaymentMethod   `gorm:"size:8;not null;default:'cash'"  json:"paymentMethodType"`
	IsPaid            bool            `gorm:"not null;default:false"        json:"isPaid"`
	PaidAt            *time.Time      `json:"paidAt,omitempty"`
	IsDelivered       bool            `gorm:"not null;default:false"        json:"isDelivered"`
	DeliveredAt       *time.Time      `json:"deliveredAt,omitempty"`
}

type OrderItem struct {
	Base
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"       json:"productId"`
	Product   *Product  `json:"product,omitempty"`
	Quantity  int       `gorm:"not null"                 json:"quantity"`
	Color     string    `json:"color,omitempty"`
	Price     float64   `gorm:"not null"                 json:"price"`
}

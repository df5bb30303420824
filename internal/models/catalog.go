package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Category struct {
	Base
	Name  string `gorm:"size:32;not null"      json:"name"`
	Slug  string `gorm:"size:64;uniqueIndex"   json:"slug"`
	Image string `gorm:"default:'default-category.jpg'" json:"image"`
}

type SubCategory struct {
	Base
	Name       string    `gorm:"size:32;not null;uniqueIndex:idx_subcategory_name_category" json:"name"`
	Slug       string    `gorm:"size:64;index"                                              json:"slug"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subcategory_name_category" json:"categoryId"`
	Category   *Category `json:"category,omitempty"`
}

type Brand struct {
	Base
	Name  string `gorm:"size:32;not null;uniqueIndex" json:"name"`
	Slug  string `gorm:"size:64;index"                json:"slug"`
	Image string `json:"image"`
}

type Product struct {
	Base
	Title              string                      `gorm:"size:100;not null"   json:"title"`
	Slug               string                      `gorm:"size:128;uniqueIndex" json:"slug"`
	Description        string                      `gorm:"size:2000;not null"  json:"description"`
	Quantity           int                         `gorm:"not null;default:0"  json:"quantity"`
	Sold               int                         `gorm:"not null;default:0"  json:"sold"`
	Price              float64                     `gorm:"not null"            json:"price"`
	PriceAfterDiscount *float64                    `json:"priceAfterDiscount,omitempty"`
	Colors             datatypes.JSONSlice[string] `json:"colors"`
	ImageCover         string                      `gorm:"not null"            json:"imageCover"`
	Images             datatypes.JSONSlice[string] `json:"images"`
	CategoryID         uuid.UUID                   `gorm:"type:uuid;not null;index" json:"categoryId"`
	Category           *Category                   `json:"category,omitempty"`
	BrandID            *uuid.UUID                  `gorm:"type:uuid;index"     json:"brandId,omitempty"`
	Brand              *Brand                      `json:"brand,omitempty"`
	SubCategories      []SubCategory               `gorm:"many2many:product_subcategories" json:"subcategories"`
	RatingsAverage     float64                     `gorm:"not null;default:0"  json:"ratingsAverage"`
	RatingsQuantity    int                         `gorm:"not null;default:0"  json:"ratingsQuantity"`
	Reviews            []Review                    `json:"reviews,omitempty"`
}

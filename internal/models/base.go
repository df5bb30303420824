package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Category{},
		&SubCategory{},
		&Brand{},
		&Product{},
		&Coupon{},
		&Review{},
		&User{},
		&Address{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	}
}

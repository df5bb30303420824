package repo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/models"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// PlaceOrder creates order, moves every ordered quantity from stock to sold
// and removes the cart, all in one transaction. With guard set a line that
// would drive stock negative aborts the whole order.
func (r *GormRepo) PlaceOrder(ctx context.Context, order *models.Order, cartID uuid.UUID, guard bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, item := range order.CartItems {
			q := tx.Model(&models.Product{}).Where("id = ?", item.ProductID)
			if guard {
				q = q.Where("quantity >= ?", item.Quantity)
			}
			res := q.Updates(map[string]any{
				"quantity": gorm.Expr("quantity - ?", item.Quantity),
				"sold":     gorm.Expr("sold + ?", item.Quantity),
			})
			if res.Error != nil {
				return res.Error
			}
			if guard && res.RowsAffected == 0 {
				return errors.Wrapf(ErrInsufficientStock, "product %s", item.ProductID)
			}
		}

		return deleteCart(tx, cartID)
	})
}

func (r *GormRepo) MarkOrderPaid(ctx context.Context, id uuid.UUID, at time.Time) (*models.Order, error) {
	return r.markOrder(ctx, id, map[string]any{"is_paid": true, "paid_at": at})
}

func (r *GormRepo) MarkOrderDelivered(ctx context.Context, id uuid.UUID, at time.Time) (*models.Order, error) {
	return r.markOrder(ctx, id, map[string]any{"is_delivered": true, "delivered_at": at})
}

func (r *GormRepo) markOrder(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Order, error) {
	order := models.Order{}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Preload("CartItems").Where("id = ?", id).First(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

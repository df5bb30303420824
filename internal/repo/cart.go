package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/eshop/internal/models"
)

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

func (r *GormRepo) CartByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := models.Cart{}
	err := r.DB.WithContext(ctx).
		Preload("CartItems", orderedItems).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) CartByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	cart := models.Cart{}
	err := r.DB.WithContext(ctx).
		Preload("CartItems", orderedItems).
		Where("id = ?", id).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// SaveCart persists the cart row and makes the stored items match
// cart.CartItems exactly.
func (r *GormRepo) SaveCart(ctx context.Context, cart *models.Cart) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(cart).Error; err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(cart.CartItems))
		for i := range cart.CartItems {
			item := &cart.CartItems[i]
			item.CartID = cart.ID
			if err := tx.Omit(clause.Associations).Save(item).Error; err != nil {
				return err
			}
			keep = append(keep, item.ID)
		}

		stale := tx.Where("cart_id = ?", cart.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		return stale.Delete(&models.CartItem{}).Error
	})
}

func (r *GormRepo) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteCart(tx, cartID)
	})
}

func deleteCart(tx *gorm.DB, cartID uuid.UUID) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	res := tx.Where("id = ?", cartID).Delete(&models.Cart{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ActiveCoupon finds a coupon by name that expires after now.
func (r *GormRepo) ActiveCoupon(ctx context.Context, name string, now time.Time) (*models.Coupon, error) {
	coupon := models.Coupon{}
	err := r.DB.WithContext(ctx).
		Where("name = ? AND expire > ?", name, now).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

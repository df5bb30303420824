package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := models.User{}
	err := r.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByResetCode finds the user holding an unexpired hashed reset code.
func (r *GormRepo) GetUserByResetCode(ctx context.Context, hashed string, now time.Time) (*models.User, error) {
	user := models.User{}
	err := r.DB.WithContext(ctx).
		Where("password_reset_code = ? AND password_reset_expires > ?", hashed, now).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", strings.ToLower(strings.TrimSpace(email)), except).
		Count(&n).Error
	return n > 0, err
}

// UpdateUser writes fields by column name, including zero and nil values.
func (r *GormRepo) UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.User, error) {
	user := models.User{}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) Wishlist(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	user := models.User{Base: models.Base{ID: userID}}
	products := []models.Product{}
	err := r.DB.WithContext(ctx).Model(&user).Association("Wishlist").Find(&products)
	return products, err
}

// AddToWishlist is idempotent.
func (r *GormRepo) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]models.Product, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Table("user_wishlist").
			Where("user_id = ? AND product_id = ?", userID, productID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		return tx.Table("user_wishlist").
			Create(map[string]any{"user_id": userID, "product_id": productID}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.Wishlist(ctx, userID)
}

func (r *GormRepo) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) ([]models.Product, error) {
	user := models.User{Base: models.Base{ID: userID}}
	product := models.Product{Base: models.Base{ID: productID}}
	if err := r.DB.WithContext(ctx).Model(&user).Association("Wishlist").Delete(&product); err != nil {
		return nil, err
	}
	return r.Wishlist(ctx, userID)
}

func (r *GormRepo) Addresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses := []models.Address{}
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&addresses).Error
	return addresses, err
}

// AddAddress skips an address identical to one already stored.
func (r *GormRepo) AddAddress(ctx context.Context, userID uuid.UUID, addr models.Address) ([]models.Address, error) {
	existing, err := r.Addresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, a := range existing {
		if a.SameAs(addr) {
			return existing, nil
		}
	}

	addr.ID = uuid.Nil
	addr.UserID = userID
	if err := r.DB.WithContext(ctx).Create(&addr).Error; err != nil {
		return nil, err
	}
	return append(existing, addr), nil
}

func (r *GormRepo) RemoveAddress(ctx context.Context, userID, addressID uuid.UUID) ([]models.Address, error) {
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.Address{}).Error
	if err != nil {
		return nil, err
	}
	return r.Addresses(ctx, userID)
}

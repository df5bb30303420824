package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Skotchmaster/eshop/internal/models"
)

func (r *GormRepo) ReviewExists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n > 0, err
}

// RatingStats aggregates the reviews of one product.
func (r *GormRepo) RatingStats(ctx context.Context, productID uuid.UUID) (avg float64, count int64, err error) {
	var res struct {
		Avg sql.NullFloat64
		Cnt int64
	}
	err = r.DB.WithContext(ctx).Model(&models.Review{}).
		Select("AVG(ratings) AS avg, COUNT(*) AS cnt").
		Where("product_id = ?", productID).
		Scan(&res).Error
	if err != nil {
		return 0, 0, err
	}
	return res.Avg.Float64, res.Cnt, nil
}

func (r *GormRepo) SetProductRatings(ctx context.Context, productID uuid.UUID, avg float64, count int64) error {
	return r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"ratings_average": avg, "ratings_quantity": count}).Error
}

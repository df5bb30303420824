package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/eshop/internal/models"
)

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) BrandExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Brand{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// CategoryNameTaken compares names case-insensitively.
func (r *GormRepo) CategoryNameTaken(ctx context.Context, name string, except uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Category{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), except).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) SubCategoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.SubCategory, error) {
	var subs []models.SubCategory
	if len(ids) == 0 {
		return subs, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&subs).Error
	return subs, err
}

func (r *GormRepo) DeleteSubCategoriesOf(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("category_id = ?", categoryID).Delete(&models.SubCategory{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) ReplaceProductSubCategories(ctx context.Context, p *models.Product, subs []models.SubCategory) error {
	assoc := r.DB.WithContext(ctx).Model(p).Association("SubCategories")
	if len(subs) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(subs)
}

func (r *GormRepo) ProductSubCategories(ctx context.Context, p *models.Product) ([]models.SubCategory, error) {
	subs := []models.SubCategory{}
	err := r.DB.WithContext(ctx).Model(p).Association("SubCategories").Find(&subs)
	return subs, err
}

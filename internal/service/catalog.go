package service

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/events"
	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/internal/search"
	"github.com/Skotchmaster/eshop/pkg/logging"
)

// CatalogService holds the save and delete hooks of catalog entities.
type CatalogService struct {
	Repo   *repo.GormRepo
	Search search.Index
	Events events.Publisher
}

func Slug(s string) string {
	return slug.Make(s)
}

func (s *CatalogService) PrepareCategory(ctx context.Context, c *models.Category) error {
	taken, err := s.Repo.CategoryNameTaken(ctx, c.Name, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return fail(ErrConflict, "Category must be unique")
	}
	c.Slug = Slug(c.Name)
	return nil
}

// CategoryDeleted removes every subcategory of the deleted category.
// Products keep their references.
func (s *CatalogService) CategoryDeleted(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "catalog.category_deleted")

	n, err := s.Repo.DeleteSubCategoriesOf(ctx, id)
	if err != nil {
		return errors.Wrap(err, "cascade subcategories")
	}
	l.Info("subcategories_removed", "category_id", id, "count", n)
	return nil
}

func (s *CatalogService) PrepareSubCategory(ctx context.Context, sc *models.SubCategory) error {
	ok, err := s.Repo.CategoryExists(ctx, sc.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fail(ErrValidation, "No category for this id: %s", sc.CategoryID)
	}
	sc.Slug = Slug(sc.Name)
	return nil
}

func (s *CatalogService) PrepareBrand(_ context.Context, b *models.Brand) error {
	b.Slug = Slug(b.Name)
	return nil
}

// PrepareProduct derives the slug and checks the price and reference rules of
// p. When subIDs is non-nil the resolved subcategories replace
// p.SubCategories.
func (s *CatalogService) PrepareProduct(ctx context.Context, p *models.Product, subIDs []uuid.UUID) error {
	p.Slug = Slug(p.Title)

	if p.PriceAfterDiscount != nil && *p.PriceAfterDiscount >= p.Price {
		return fail(ErrValidation, "Discount price must be lower than the original price")
	}

	ok, err := s.Repo.CategoryExists(ctx, p.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fail(ErrValidation, "No category for this id: %s", p.CategoryID)
	}

	if p.BrandID != nil {
		ok, err := s.Repo.BrandExists(ctx, *p.BrandID)
		if err != nil {
			return err
		}
		if !ok {
			return fail(ErrValidation, "No brand for this id: %s", *p.BrandID)
		}
	}

	if subIDs == nil && p.ID != uuid.Nil {
		current, err := s.Repo.ProductSubCategories(ctx, p)
		if err != nil {
			return err
		}
		for _, sc := range current {
			subIDs = append(subIDs, sc.ID)
		}
	}
	subs, err := s.resolveSubCategories(ctx, p.CategoryID, subIDs)
	if err != nil {
		return err
	}
	p.SubCategories = subs
	return nil
}

func (s *CatalogService) resolveSubCategories(ctx context.Context, categoryID uuid.UUID, ids []uuid.UUID) ([]models.SubCategory, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, fail(ErrValidation, "Subcategories must be unique")
		}
		seen[id] = struct{}{}
	}

	subs, err := s.Repo.SubCategoriesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(subs) != len(ids) {
		found := make(map[uuid.UUID]struct{}, len(subs))
		for _, sc := range subs {
			found[sc.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return nil, fail(ErrValidation, "No subcategory for this id: %s", id)
			}
		}
	}
	for _, sc := range subs {
		if sc.CategoryID != categoryID {
			return nil, fail(ErrValidation, "Subcategories must belong to the category")
		}
	}
	return subs, nil
}

func (s *CatalogService) ProductCreated(ctx context.Context, p *models.Product) {
	s.syncProduct(ctx, p, "product_created")
}

// ProductUpdated stores the subcategory set of p and resyncs the index.
func (s *CatalogService) ProductUpdated(ctx context.Context, p *models.Product) error {
	if err := s.Repo.ReplaceProductSubCategories(ctx, p, p.SubCategories); err != nil {
		return errors.Wrap(err, "replace subcategories")
	}
	s.syncProduct(ctx, p, "product_updated")
	return nil
}

func (s *CatalogService) ProductDeleted(ctx context.Context, p *models.Product) {
	l := logging.FromContext(ctx).With("svc", "catalog.product_deleted")

	if s.Search != nil {
		if err := s.Search.DeleteProduct(ctx, p.ID.String()); err != nil {
			l.Warn("search_delete_failed", "product_id", p.ID, "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.TopicProducts, events.Event{Type: "product_deleted", ID: p.ID.String()})
}

func (s *CatalogService) syncProduct(ctx context.Context, p *models.Product, eventType string) {
	l := logging.FromContext(ctx).With("svc", "catalog.sync_product")

	if s.Search != nil {
		if err := s.Search.IndexProduct(ctx, p); err != nil {
			l.Warn("search_index_failed", "product_id", p.ID, "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.TopicProducts, events.Event{Type: eventType, ID: p.ID.String(), Data: p})
}

// ReindexProducts pushes every stored product to the search index.
func (s *CatalogService) ReindexProducts(ctx context.Context) (int, error) {
	if s.Search == nil {
		return 0, nil
	}
	var (
		products []models.Product
		n        int
	)
	err := s.Repo.DB.WithContext(ctx).FindInBatches(&products, 200, func(_ *gorm.DB, _ int) error {
		for i := range products {
			if err := s.Search.IndexProduct(ctx, &products[i]); err != nil {
				return err
			}
			n++
		}
		return nil
	}).Error
	if err != nil {
		return n, errors.Wrap(err, "reindex products")
	}
	return n, nil
}

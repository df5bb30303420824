package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"

	"github.com/Skotchmaster/eshop/internal/apierror"
	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/query"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/internal/transport"
	"github.com/Skotchmaster/eshop/internal/upload"
)

const defaultCategoryImage = "default-category.jpg"

func (d *Deps) images(folder, prefix string, w, h int, fields ...upload.Field) *upload.Processor {
	return &upload.Processor{
		Dir:     d.UploadDir,
		Folder:  folder,
		Prefix:  prefix,
		Width:   w,
		Height:  h,
		Fields:  fields,
		Quality: 95,
	}
}

// parentScope restricts a nested list to the parent id found in the path.
func parentScope(param, column string) func(c echo.Context) (map[string]any, error) {
	return func(c echo.Context) (map[string]any, error) {
		if c.Param(param) == "" {
			return nil, nil
		}
		id, err := parseID(c, param)
		if err != nil {
			return nil, err
		}
		return map[string]any{column: id}, nil
	}
}

func mustUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func parseIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		ids = append(ids, mustUUID(s))
	}
	return ids
}

func (d *Deps) categoryResource() *Resource[models.Category, transport.CreateCategoryRequest, transport.UpdateCategoryRequest] {
	return &Resource[models.Category, transport.CreateCategoryRequest, transport.UpdateCategoryRequest]{
		Name:   "category",
		Store:  &repo.Store[models.Category]{DB: d.DB, Spec: query.MustSpec(&models.Category{}, "name")},
		Images: d.images("categories", "category", 600, 600, upload.Field{Name: "image", MaxCount: 1}),
		Build: func(c echo.Context, req *transport.CreateCategoryRequest) (*models.Category, error) {
			cat := &models.Category{Name: req.Name, Image: req.Image}
			if cat.Image == "" {
				cat.Image = defaultCategoryImage
			}
			if err := d.Catalog.PrepareCategory(c.Request().Context(), cat); err != nil {
				return nil, err
			}
			return cat, nil
		},
		Apply: func(c echo.Context, cat *models.Category, req *transport.UpdateCategoryRequest) error {
			if req.Name != nil {
				cat.Name = *req.Name
			}
			if req.Image != nil {
				cat.Image = *req.Image
			}
			return d.Catalog.PrepareCategory(c.Request().Context(), cat)
		},
		AfterDelete: func(c echo.Context, cat *models.Category) error {
			return d.Catalog.CategoryDeleted(c.Request().Context(), cat.ID)
		},
		Present: func(cat *models.Category) {
			cat.Image = upload.URL(d.BaseURL, "categories", cat.Image)
		},
	}
}

func (d *Deps) subCategoryResource() *Resource[models.SubCategory, transport.CreateSubCategoryRequest, transport.UpdateSubCategoryRequest] {
	return &Resource[models.SubCategory, transport.CreateSubCategoryRequest, transport.UpdateSubCategoryRequest]{
		Name:  "subcategory",
		Store: &repo.Store[models.SubCategory]{DB: d.DB, Spec: query.MustSpec(&models.SubCategory{}, "name").Alias("category", "categoryId")},
		Scope: parentScope("categoryId", "category_id"),
		Build: func(c echo.Context, req *transport.CreateSubCategoryRequest) (*models.SubCategory, error) {
			categoryID := req.CategoryID
			if c.Param("categoryId") != "" {
				categoryID = c.Param("categoryId")
			}
			id, err := uuid.Parse(categoryID)
			if err != nil {
				return nil, apierror.BadRequest("Subcategory must belong to a category")
			}
			sc := &models.SubCategory{Name: req.Name, CategoryID: id}
			if err := d.Catalog.PrepareSubCategory(c.Request().Context(), sc); err != nil {
				return nil, err
			}
			return sc, nil
		},
		Apply: func(c echo.Context, sc *models.SubCategory, req *transport.UpdateSubCategoryRequest) error {
			if req.Name != nil {
				sc.Name = *req.Name
			}
			if req.CategoryID != nil {
				sc.CategoryID = mustUUID(*req.CategoryID)
			}
			return d.Catalog.PrepareSubCategory(c.Request().Context(), sc)
		},
	}
}

func (d *Deps) brandResource() *Resource[models.Brand, transport.CreateBrandRequest, transport.UpdateBrandRequest] {
	return &Resource[models.Brand, transport.CreateBrandRequest, transport.UpdateBrandRequest]{
		Name:   "brand",
		Store:  &repo.Store[models.Brand]{DB: d.DB, Spec: query.MustSpec(&models.Brand{}, "name")},
		Images: d.images("brands", "brand", 600, 600, upload.Field{Name: "image", MaxCount: 1}),
		Build: func(c echo.Context, req *transport.CreateBrandRequest) (*models.Brand, error) {
			b := &models.Brand{Name: req.Name, Image: req.Image}
			return b, d.Catalog.PrepareBrand(c.Request().Context(), b)
		},
		Apply: func(c echo.Context, b *models.Brand, req *transport.UpdateBrandRequest) error {
			if req.Name != nil {
				b.Name = *req.Name
			}
			if req.Image != nil {
				b.Image = *req.Image
			}
			return d.Catalog.PrepareBrand(c.Request().Context(), b)
		},
		Present: func(b *models.Brand) {
			b.Image = upload.URL(d.BaseURL, "brands", b.Image)
		},
	}
}

func (d *Deps) productSpec() *query.Spec {
	spec := query.MustSpec(&models.Product{}, "title", "description").
		Alias("category", "categoryId").
		Alias("brand", "brandId")
	if d.Search != nil {
		spec.WithTextSearch(d.Search.SearchIDs)
	}
	return spec
}

func (d *Deps) productResource() *Resource[models.Product, transport.CreateProductRequest, transport.UpdateProductRequest] {
	return &Resource[models.Product, transport.CreateProductRequest, transport.UpdateProductRequest]{
		Name:         "product",
		Store:        &repo.Store[models.Product]{DB: d.DB, Spec: d.productSpec()},
		Preloads:     []string{"Category", "Brand", "SubCategories", "Reviews"},
		ListPreloads: []string{"Category"},
		Images: d.images("products", "product", 2000, 1333,
			upload.Field{Name: "imageCover", MaxCount: 1},
			upload.Field{Name: "images", MaxCount: 5},
		),
		Build: func(c echo.Context, req *transport.CreateProductRequest) (*models.Product, error) {
			p := &models.Product{
				Title:              req.Title,
				Description:        req.Description,
				Quantity:           req.Quantity,
				Sold:               req.Sold,
				Price:              req.Price,
				PriceAfterDiscount: req.PriceAfterDiscount,
				Colors:             datatypes.JSONSlice[string](nonNil(req.Colors)),
				ImageCover:         req.ImageCover,
				Images:             datatypes.JSONSlice[string](nonNil(req.Images)),
				CategoryID:         mustUUID(req.CategoryID),
			}
			if req.BrandID != nil {
				id := mustUUID(*req.BrandID)
				p.BrandID = &id
			}
			if err := d.Catalog.PrepareProduct(c.Request().Context(), p, parseIDs(req.SubCategories)); err != nil {
				return nil, err
			}
			return p, nil
		},
		Apply: func(c echo.Context, p *models.Product, req *transport.UpdateProductRequest) error {
			applyProductUpdate(p, req)
			var subIDs []uuid.UUID
			if req.SubCategories != nil {
				subIDs = parseIDs(*req.SubCategories)
			}
			return d.Catalog.PrepareProduct(c.Request().Context(), p, subIDs)
		},
		AfterCreate: func(c echo.Context, p *models.Product) error {
			d.Catalog.ProductCreated(c.Request().Context(), p)
			return nil
		},
		AfterUpdate: func(c echo.Context, p *models.Product) error {
			return d.Catalog.ProductUpdated(c.Request().Context(), p)
		},
		AfterDelete: func(c echo.Context, p *models.Product) error {
			d.Catalog.ProductDeleted(c.Request().Context(), p)
			return nil
		},
		Present: d.presentProduct,
	}
}

func applyProductUpdate(p *models.Product, req *transport.UpdateProductRequest) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.Sold != nil {
		p.Sold = *req.Sold
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.PriceAfterDiscount != nil {
		p.PriceAfterDiscount = req.PriceAfterDiscount
	}
	if req.Colors != nil {
		p.Colors = datatypes.JSONSlice[string](nonNil(*req.Colors))
	}
	if req.ImageCover != nil {
		p.ImageCover = *req.ImageCover
	}
	if req.Images != nil {
		p.Images = datatypes.JSONSlice[string](nonNil(*req.Images))
	}
	if req.CategoryID != nil {
		p.CategoryID = mustUUID(*req.CategoryID)
	}
	if req.BrandID != nil {
		id := mustUUID(*req.BrandID)
		p.BrandID = &id
	}
}

func (d *Deps) presentProduct(p *models.Product) {
	p.ImageCover = upload.URL(d.BaseURL, "products", p.ImageCover)
	for i, img := range p.Images {
		p.Images[i] = upload.URL(d.BaseURL, "products", img)
	}
	if p.Category != nil {
		p.Category.Image = upload.URL(d.BaseURL, "categories", p.Category.Image)
	}
	if p.Brand != nil {
		p.Brand.Image = upload.URL(d.BaseURL, "brands", p.Brand.Image)
	}
}

func (d *Deps) couponResource() *Resource[models.Coupon, transport.CreateCouponRequest, transport.UpdateCouponRequest] {
	now := d.now
	return &Resource[models.Coupon, transport.CreateCouponRequest, transport.UpdateCouponRequest]{
		Name:  "coupon",
		Store: &repo.Store[models.Coupon]{DB: d.DB, Spec: query.MustSpec(&models.Coupon{}, "name")},
		Build: func(_ echo.Context, req *transport.CreateCouponRequest) (*models.Coupon, error) {
			if !req.Expire.After(now()) {
				return nil, apierror.New(http.StatusBadRequest, "Coupon expire date must be in the future")
			}
			return &models.Coupon{Name: req.Name, Expire: req.Expire.UTC(), Discount: req.Discount}, nil
		},
		Apply: func(_ echo.Context, cp *models.Coupon, req *transport.UpdateCouponRequest) error {
			if req.Name != nil {
				cp.Name = *req.Name
			}
			if req.Expire != nil {
				if !req.Expire.After(now()) {
					return apierror.New(http.StatusBadRequest, "Coupon expire date must be in the future")
				}
				cp.Expire = req.Expire.UTC()
			}
			if req.Discount != nil {
				cp.Discount = *req.Discount
			}
			return nil
		},
	}
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

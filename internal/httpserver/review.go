package httpserver

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/eshop/internal/apierror"
	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/query"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/internal/service"
	"github.com/Skotchmaster/eshop/internal/transport"
	authmw "github.com/Skotchmaster/eshop/pkg/middleware/auth"
)

func currentUser(c echo.Context) (*models.User, error) {
	u, ok := authmw.Current[*models.User](c)
	if !ok || u == nil {
		return nil, authmw.ErrNotLoggedIn
	}
	return u, nil
}

func (d *Deps) reviewResource() *Resource[models.Review, transport.CreateReviewRequest, transport.UpdateReviewRequest] {
	syncRatings := func(c echo.Context, r *models.Review) error {
		return d.Reviews.SyncRatings(c.Request().Context(), r.ProductID)
	}

	return &Resource[models.Review, transport.CreateReviewRequest, transport.UpdateReviewRequest]{
		Name:     "review",
		Store:    &repo.Store[models.Review]{DB: d.DB, Spec: query.MustSpec(&models.Review{}, "title").Alias("product", "productId").Alias("user", "userId")},
		Scope:    parentScope("productId", "product_id"),
		Preloads: []string{"User"},
		Build: func(c echo.Context, req *transport.CreateReviewRequest) (*models.Review, error) {
			user, err := currentUser(c)
			if err != nil {
				return nil, err
			}
			raw := req.ProductID
			if c.Param("productId") != "" {
				raw = c.Param("productId")
			}
			productID, err := uuid.Parse(raw)
			if err != nil {
				return nil, apierror.BadRequest("Review must belong to a product")
			}
			if err := d.Reviews.CheckNewReview(c.Request().Context(), user.ID, productID); err != nil {
				return nil, err
			}
			return &models.Review{Title: req.Title, Ratings: req.Ratings, UserID: user.ID, ProductID: productID}, nil
		},
		Apply: func(c echo.Context, r *models.Review, req *transport.UpdateReviewRequest) error {
			user, err := currentUser(c)
			if err != nil {
				return err
			}
			if err := service.CheckOwner(r, user, false); err != nil {
				return err
			}
			if req.Title != nil {
				r.Title = *req.Title
			}
			if req.Ratings != nil {
				r.Ratings = *req.Ratings
			}
			return nil
		},
		BeforeDelete: func(c echo.Context, r *models.Review) error {
			user, err := currentUser(c)
			if err != nil {
				return err
			}
			return service.CheckOwner(r, user, true)
		},
		AfterCreate: syncRatings,
		AfterUpdate: syncRatings,
		AfterDelete: syncRatings,
		Present: func(r *models.Review) {
			if r.User != nil {
				r.User = &models.User{Base: models.Base{ID: r.User.ID}, Name: r.User.Name, Role: r.User.Role, Active: r.User.Active}
			}
		},
	}
}

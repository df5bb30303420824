package service

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/pricing"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/pkg/logging"
)

type ReviewService struct {
	Repo *repo.GormRepo
}

// CheckNewReview rejects a review of a missing product and a second review
// of the same product by one user.
func (s *ReviewService) CheckNewReview(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrNotFound, "No product for this id: %s", productID)
		}
		return err
	}

	exists, err := s.Repo.ReviewExists(ctx, userID, productID)
	if err != nil {
		return err
	}
	if exists {
		return fail(ErrConflict, "You have already reviewed this product.")
	}
	return nil
}

// CheckOwner allows the author to change a review. With staff set, admins
// and managers may act on any review.
func CheckOwner(r *models.Review, u *models.User, staff bool) error {
	if r.UserID == u.ID {
		return nil
	}
	if staff && u.Role != models.RoleUser {
		return nil
	}
	return fail(ErrForbidden, "You are not allowed to perform this action")
}

// SyncRatings recomputes the rating summary of a product from its reviews.
func (s *ReviewService) SyncRatings(ctx context.Context, productID uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "review.sync_ratings")

	avg, count, err := s.Repo.RatingStats(ctx, productID)
	if err != nil {
		return errors.Wrap(err, "rating stats")
	}
	avg = pricing.RoundRating(avg)
	if err := s.Repo.SetProductRatings(ctx, productID, avg, count); err != nil {
		return errors.Wrap(err, "set ratings")
	}
	l.Debug("ratings_synced", "product_id", productID, "average", avg, "quantity", count)
	return nil
}

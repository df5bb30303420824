package service

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/events"
	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/pricing"
	"github.com/Skotchmaster/eshop/internal/repo"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Now    func() time.Time
}

func (s *CartService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// recalc refreshes the cart total and drops any applied discount.
func recalc(cart *models.Cart) {
	lines := make([]pricing.Line, 0, len(cart.CartItems))
	for _, it := range cart.CartItems {
		lines = append(lines, pricing.Line{Price: it.Price, Quantity: it.Quantity})
	}
	cart.TotalCartPrice = pricing.Total(lines)
	cart.TotalPriceAfterDiscount = nil
}

func (s *CartService) userCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Repo.CartByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrNotFound, "No cart found for user: %s", userID)
	}
	return cart, err
}

// AddItem puts one unit of a product into the user's cart, creating the cart
// on first use. A line with the same product and color is incremented.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, color string) (*models.Cart, error) {
	product, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "Product not found")
		}
		return nil, err
	}

	cart, err := s.Repo.CartByUser(ctx, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		cart = &models.Cart{UserID: userID}
	case err != nil:
		return nil, err
	}

	merged := false
	for i := range cart.CartItems {
		it := &cart.CartItems[i]
		if it.ProductID == productID && it.Color == color {
			it.Quantity++
			merged = true
			break
		}
	}
	if !merged {
		cart.CartItems = append(cart.CartItems, models.CartItem{
			ProductID: productID,
			Quantity:  1,
			Color:     color,
			Price:     product.Price,
		})
	}

	recalc(cart)
	if err := s.Repo.SaveCart(ctx, cart); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	events.Emit(ctx, s.Events, events.TopicCart, events.Event{
		Type: "cart_item_added", ID: cart.ID.String(), UserID: userID.String(),
		Data: map[string]any{"productId": productID, "color": color},
	})
	return cart, nil
}

func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.userCart(ctx, userID)
}

// RemoveItem drops a line; removing an unknown line leaves the cart as is.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	cart, err := s.userCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := cart.CartItems[:0]
	for _, it := range cart.CartItems {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	cart.CartItems = kept

	recalc(cart)
	if err := s.Repo.SaveCart(ctx, cart); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return cart, nil
}

// Clear deletes the user's cart. A missing cart is not an error.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.Repo.CartByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteCart(ctx, cart.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fail(ErrValidation, "Quantity must be greater than zero")
	}
	cart, err := s.userCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.CartItems {
		if cart.CartItems[i].ID == itemID {
			cart.CartItems[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, fail(ErrNotFound, "No item found with id: %s", itemID)
	}

	recalc(cart)
	if err := s.Repo.SaveCart(ctx, cart); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return cart, nil
}

// ApplyCoupon sets the discounted total from a named, unexpired coupon.
func (s *CartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, name string) (*models.Cart, error) {
	coupon, err := s.Repo.ActiveCoupon(ctx, name, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrValidation, "Coupon is invalid or expired")
		}
		return nil, err
	}

	cart, err := s.userCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	recalc(cart)
	discounted := pricing.ApplyPercent(cart.TotalCartPrice, coupon.Discount)
	cart.TotalPriceAfterDiscount = &discounted
	if err := s.Repo.SaveCart(ctx, cart); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return cart, nil
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/service"
	"github.com/Skotchmaster/eshop/internal/transport"
	"github.com/Skotchmaster/eshop/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func cartResponse(cart *models.Cart, msg string) Response {
	return Response{
		Message:        msg,
		NumOfCartItems: intPtr(len(cart.CartItems)),
		Data:           cart,
	}
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "add_to_cart", err)
	}
	var req transport.AddToCartRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "add_to_cart", err)
	}

	cart, err := h.Svc.AddItem(ctx, user.ID, mustUUID(req.ProductID), req.Color)
	if err != nil {
		return failed(l, "add_to_cart", err)
	}
	l.Info("cart_item_added", "user_id", user.ID, "product_id", req.ProductID)
	return respond(c, http.StatusOK, cartResponse(cart, "Product added to cart successfully"))
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "get_cart", err)
	}
	cart, err := h.Svc.Get(ctx, user.ID)
	if err != nil {
		return failed(l, "get_cart", err)
	}
	return respond(c, http.StatusOK, cartResponse(cart, ""))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "remove_item", err)
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return failed(l, "remove_item", err)
	}
	cart, err := h.Svc.RemoveItem(ctx, user.ID, itemID)
	if err != nil {
		return failed(l, "remove_item", err)
	}
	return respond(c, http.StatusOK, cartResponse(cart, ""))
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "clear_cart", err)
	}
	if err := h.Svc.Clear(ctx, user.ID); err != nil {
		return failed(l, "clear_cart", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "update_quantity", err)
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return failed(l, "update_quantity", err)
	}
	var req transport.UpdateCartItemRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "update_quantity", err)
	}

	cart, err := h.Svc.UpdateQuantity(ctx, user.ID, itemID, req.Quantity)
	if err != nil {
		return failed(l, "update_quantity", err)
	}
	return respond(c, http.StatusOK, cartResponse(cart, ""))
}

func (h *CartHTTP) ApplyCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.apply_coupon")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "apply_coupon", err)
	}
	var req transport.ApplyCouponRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "apply_coupon", err)
	}

	cart, err := h.Svc.ApplyCoupon(ctx, user.ID, req.Coupon)
	if err != nil {
		return failed(l, "apply_coupon", err)
	}
	return respond(c, http.StatusOK, cartResponse(cart, "Coupon applied successfully"))
}

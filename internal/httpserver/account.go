package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/service"
	"github.com/Skotchmaster/eshop/internal/transport"
	"github.com/Skotchmaster/eshop/pkg/logging"
)

// AccountHTTP serves the wishlist and saved addresses of the current user.
type AccountHTTP struct {
	Users   *service.UserService
	Present func(*models.Product)
}

func (h *AccountHTTP) wishlist(c echo.Context, products []models.Product, msg string) error {
	if h.Present != nil {
		for i := range products {
			h.Present(&products[i])
		}
	}
	return respond(c, http.StatusOK, Response{Message: msg, Results: intPtr(len(products)), Data: products})
}

func (h *AccountHTTP) GetWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.get")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "get_wishlist", err)
	}
	products, err := h.Users.Wishlist(ctx, user.ID)
	if err != nil {
		return failed(l, "get_wishlist", err)
	}
	return h.wishlist(c, products, "")
}

func (h *AccountHTTP) AddToWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.add")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "add_to_wishlist", err)
	}
	var req transport.WishlistRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "add_to_wishlist", err)
	}
	products, err := h.Users.AddToWishlist(ctx, user.ID, mustUUID(req.ProductID))
	if err != nil {
		return failed(l, "add_to_wishlist", err)
	}
	return h.wishlist(c, products, "Product added successfully to your wishlist.")
}

func (h *AccountHTTP) RemoveFromWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "remove_from_wishlist", err)
	}
	productID, err := parseID(c, "productId")
	if err != nil {
		return failed(l, "remove_from_wishlist", err)
	}
	products, err := h.Users.RemoveFromWishlist(ctx, user.ID, productID)
	if err != nil {
		return failed(l, "remove_from_wishlist", err)
	}
	return h.wishlist(c, products, "Product removed successfully from your wishlist.")
}

func (h *AccountHTTP) GetAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "addresses.get")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "get_addresses", err)
	}
	addrs, err := h.Users.Addresses(ctx, user.ID)
	if err != nil {
		return failed(l, "get_addresses", err)
	}
	return respond(c, http.StatusOK, Response{Results: intPtr(len(addrs)), Data: addrs})
}

func (h *AccountHTTP) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "addresses.add")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "add_address", err)
	}
	var req transport.AddressRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "add_address", err)
	}
	addrs, err := h.Users.AddAddress(ctx, user.ID, models.Address{
		Alias:      req.Alias,
		Details:    req.Details,
		Phone:      req.Phone,
		City:       req.City,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		return failed(l, "add_address", err)
	}
	return respond(c, http.StatusOK, Response{Message: "Address added successfully.", Results: intPtr(len(addrs)), Data: addrs})
}

func (h *AccountHTTP) RemoveAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "addresses.remove")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "remove_address", err)
	}
	addressID, err := parseID(c, "addressId")
	if err != nil {
		return failed(l, "remove_address", err)
	}
	addrs, err := h.Users.RemoveAddress(ctx, user.ID, addressID)
	if err != nil {
		return failed(l, "remove_address", err)
	}
	return respond(c, http.StatusOK, Response{Message: "Address removed successfully.", Results: intPtr(len(addrs)), Data: addrs})
}

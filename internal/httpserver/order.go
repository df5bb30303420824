package httpserver

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/eshop/internal/apierror"
	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/query"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/internal/service"
	"github.com/Skotchmaster/eshop/internal/transport"
	"github.com/Skotchmaster/eshop/pkg/logging"
)

const signatureHeader = "Stripe-Signature"

type OrderHTTP struct {
	Svc *service.OrderService
}

// ownOrders limits plain users to their own orders.
func ownOrders(c echo.Context) (map[string]any, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleUser {
		return map[string]any{"user_id": user.ID}, nil
	}
	return nil, nil
}

func (d *Deps) orderResource() *Resource[models.Order, struct{}, struct{}] {
	return &Resource[models.Order, struct{}, struct{}]{
		Name:         "order",
		Store:        &repo.Store[models.Order]{DB: d.DB, Spec: query.MustSpec(&models.Order{}, "paymentMethodType").Alias("user", "userId")},
		Scope:        ownOrders,
		Preloads:     []string{"CartItems"},
		ListPreloads: []string{"CartItems"},
	}
}

func shippingAddress(a *transport.ShippingAddress) models.ShippingAddress {
	if a == nil {
		return models.ShippingAddress{}
	}
	return models.ShippingAddress{Details: a.Details, Phone: a.Phone, City: a.City, PostalCode: a.PostalCode}
}

func (h *OrderHTTP) CreateCashOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_cash")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "create_cash_order", err)
	}
	cartID, err := parseID(c, "cartId")
	if err != nil {
		return failed(l, "create_cash_order", err)
	}
	var req transport.CashOrderRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "create_cash_order", err)
	}

	order, err := h.Svc.CreateCashOrder(ctx, user.ID, cartID, shippingAddress(req.ShippingAddress))
	if err != nil {
		return failed(l, "create_cash_order", err)
	}
	l.Info("order_created", "order_id", order.ID, "user_id", user.ID, "total", order.TotalOrderPrice)
	return respond(c, http.StatusCreated, Response{Data: order})
}

func (h *OrderHTTP) CheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout_session")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "checkout_session", err)
	}
	cartID, err := parseID(c, "cartId")
	if err != nil {
		return failed(l, "checkout_session", err)
	}
	var req transport.OrderRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "checkout_session", err)
	}

	origin := c.Scheme() + "://" + c.Request().Host
	sess, err := h.Svc.CheckoutSession(ctx, service.CheckoutRequest{
		UserID:        user.ID,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		CartID:        cartID,
		Address:       shippingAddress(req.ShippingAddress),
		SuccessURL:    origin + "/orders",
		CancelURL:     origin + "/cart",
	})
	if err != nil {
		return failed(l, "checkout_session", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": statusSuccess, "session": sess})
}

// Webhook receives payment gateway notifications. It must see the body
// exactly as sent for the signature check.
func (h *OrderHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.webhook")

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return failed(l, "webhook", apierror.Wrap(http.StatusBadRequest, "Webhook Error: unreadable body", err))
	}
	if err := h.Svc.HandleWebhook(ctx, payload, c.Request().Header.Get(signatureHeader)); err != nil {
		return failed(l, "webhook", err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *OrderHTTP) MarkPaid(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pay")

	id, err := parseID(c, "id")
	if err != nil {
		return failed(l, "mark_paid", err)
	}
	order, err := h.Svc.MarkPaid(ctx, id)
	if err != nil {
		return failed(l, "mark_paid", err)
	}
	return respond(c, http.StatusOK, Response{Message: "Order marked as paid successfully", Data: order})
}

func (h *OrderHTTP) MarkDelivered(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.deliver")

	id, err := parseID(c, "id")
	if err != nil {
		return failed(l, "mark_delivered", err)
	}
	order, err := h.Svc.MarkDelivered(ctx, id)
	if err != nil {
		return failed(l, "mark_delivered", err)
	}
	return respond(c, http.StatusOK, Response{Message: "Order marked as delivered successfully", Data: order})
}

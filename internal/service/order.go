package service

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/events"
	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/payment"
	"github.com/Skotchmaster/eshop/internal/pricing"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/pkg/logging"
)

type OrderService struct {
	Repo     *repo.GormRepo
	Payments payment.Gateway
	Events   events.Publisher

	TaxPrice      float64
	ShippingPrice float64
	Now           func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// ownCart loads a cart that belongs to userID. A foreign cart is reported as
// missing.
func (s *OrderService) ownCart(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Repo.CartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "There is no such cart with id %s", cartID)
		}
		return nil, err
	}
	if cart.UserID != userID {
		return nil, fail(ErrNotFound, "There is no such cart with id %s", cartID)
	}
	if len(cart.CartItems) == 0 {
		return nil, fail(ErrValidation, "Cart is empty")
	}
	return cart, nil
}

func cartPrice(cart *models.Cart) float64 {
	if cart.TotalPriceAfterDiscount != nil {
		return *cart.TotalPriceAfterDiscount
	}
	return cart.TotalCartPrice
}

func (s *OrderService) orderFromCart(cart *models.Cart, userID uuid.UUID, addr models.ShippingAddress) *models.Order {
	items := make([]models.OrderItem, 0, len(cart.CartItems))
	for _, it := range cart.CartItems {
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Color:     it.Color,
			Price:     it.Price,
		})
	}
	return &models.Order{
		UserID:          userID,
		CartItems:       items,
		TaxPrice:        s.TaxPrice,
		ShippingPrice:   s.ShippingPrice,
		ShippingAddress: addr,
		TotalOrderPrice: pricing.OrderTotal(cartPrice(cart), s.TaxPrice, s.ShippingPrice),
	}
}

// CreateCashOrder turns the cart into an unpaid cash order. Stock is checked
// and moved to sold atomically; the cart is removed.
func (s *OrderService) CreateCashOrder(ctx context.Context, userID, cartID uuid.UUID, addr models.ShippingAddress) (*models.Order, error) {
	cart, err := s.ownCart(ctx, userID, cartID)
	if err != nil {
		return nil, err
	}

	order := s.orderFromCart(cart, userID, addr)
	order.PaymentMethodType = models.PaymentCash

	if err := s.Repo.PlaceOrder(ctx, order, cart.ID, true); err != nil {
		if errors.Is(err, repo.ErrInsufficientStock) {
			return nil, failWith(ErrConflict, err, "Not enough stock to place this order")
		}
		return nil, errors.Wrap(err, "place order")
	}

	events.Emit(ctx, s.Events, events.TopicOrders, events.Event{
		Type: "order_created", ID: order.ID.String(), UserID: userID.String(), Data: order,
	})
	return order, nil
}

type CheckoutRequest struct {
	UserID        uuid.UUID
	CustomerName  string
	CustomerEmail string
	CartID        uuid.UUID
	Address       models.ShippingAddress
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession opens a hosted payment session for the cart total. The cart
// id travels as the session's client reference.
func (s *OrderService) CheckoutSession(ctx context.Context, req CheckoutRequest) (*payment.Session, error) {
	cart, err := s.ownCart(ctx, req.UserID, req.CartID)
	if err != nil {
		return nil, err
	}

	total := pricing.OrderTotal(cartPrice(cart), s.TaxPrice, s.ShippingPrice)
	sess, err := s.Payments.CreateCheckoutSession(ctx, payment.CheckoutParams{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CartID:        cart.ID.String(),
		AmountMinor:   pricing.MinorUnits(total),
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		Metadata:      addressMetadata(req.Address),
	})
	if err != nil {
		if errors.Is(err, payment.ErrUnavailable) {
			return nil, failWith(ErrInternal, err, "Card payments are not available")
		}
		return nil, errors.Wrap(err, "create checkout session")
	}
	return sess, nil
}

func addressMetadata(a models.ShippingAddress) map[string]string {
	md := map[string]string{}
	for k, v := range map[string]string{
		"details": a.Details, "phone": a.Phone, "city": a.City, "postalCode": a.PostalCode,
	} {
		if v != "" {
			md[k] = v
		}
	}
	return md
}

// HandleWebhook verifies a gateway notification and records a paid card
// order for every completed checkout.
func (s *OrderService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	l := logging.FromContext(ctx).With("svc", "order.webhook")

	ev, err := s.Payments.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return failWith(ErrValidation, err, "Webhook Error: invalid signature")
		}
		return failWith(ErrValidation, err, "Webhook Error: %s", err.Error())
	}
	if ev.Type != payment.EventCheckoutCompleted || ev.Checkout == nil {
		l.Debug("webhook_ignored", "type", ev.Type)
		return nil
	}
	return s.createCardOrder(ctx, ev.Checkout)
}

func (s *OrderService) createCardOrder(ctx context.Context, co *payment.CompletedCheckout) error {
	l := logging.FromContext(ctx).With("svc", "order.create_card_order")

	cartID, err := uuid.Parse(co.CartID)
	if err != nil {
		l.Warn("bad_client_reference", "session_id", co.SessionID, "cart_id", co.CartID)
		return nil
	}
	cart, err := s.Repo.CartByID(ctx, cartID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// already turned into an order by an earlier delivery
		l.Warn("cart_gone", "session_id", co.SessionID, "cart_id", cartID)
		return nil
	}
	if err != nil {
		return err
	}
	user, err := s.Repo.GetUserByEmail(ctx, co.CustomerEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("customer_unknown", "session_id", co.SessionID, "email", co.CustomerEmail)
		return nil
	}
	if err != nil {
		return err
	}

	addr := models.ShippingAddress{
		Details:    co.Metadata["details"],
		Phone:      co.Metadata["phone"],
		City:       co.Metadata["city"],
		PostalCode: co.Metadata["postalCode"],
	}
	order := s.orderFromCart(cart, user.ID, addr)
	order.TotalOrderPrice = pricing.FromMinorUnits(co.AmountMinor)
	order.PaymentMethodType = models.PaymentCard
	order.IsPaid = true
	paidAt := s.now()
	order.PaidAt = &paidAt

	if err := s.Repo.PlaceOrder(ctx, order, cart.ID, false); err != nil {
		return errors.Wrap(err, "place card order")
	}

	l.Info("card_order_created", "order_id", order.ID, "session_id", co.SessionID)
	events.Emit(ctx, s.Events, events.TopicOrders, events.Event{
		Type: "order_created", ID: order.ID.String(), UserID: user.ID.String(), Data: order,
	})
	return nil
}

func (s *OrderService) MarkPaid(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.MarkOrderPaid(ctx, id, s.now())
	if err != nil {
		return nil, orderLookupErr(err, id)
	}
	events.Emit(ctx, s.Events, events.TopicOrders, events.Event{Type: "order_paid", ID: id.String(), UserID: order.UserID.String()})
	return order, nil
}

func (s *OrderService) MarkDelivered(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.MarkOrderDelivered(ctx, id, s.now())
	if err != nil {
		return nil, orderLookupErr(err, id)
	}
	events.Emit(ctx, s.Events, events.TopicOrders, events.Event{Type: "order_delivered", ID: id.String(), UserID: order.UserID.String()})
	return order, nil
}

func orderLookupErr(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(ErrNotFound, "There is no such order with id %s", id)
	}
	return err
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/eshop/internal/events"
	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/payment"
)

type fakeGateway struct {
	params payment.CheckoutParams
	event  *payment.WebhookEvent
	err    error
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, p payment.CheckoutParams) (*payment.Session, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Session{ID: "cs_test_1", URL: "https://pay.example/cs_test_1"}, nil
}

func (f *fakeGateway) ParseWebhook([]byte, string) (*payment.WebhookEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

// cartWith fills a cart for user with quantity units of each product.
func cartWith(t *testing.T, svc *CartService, userID uuid.UUID, quantity int, products ...models.Product) *models.Cart {
	t.Helper()
	var cart *models.Cart
	for _, p := range products {
		for i := 0; i < quantity; i++ {
			c, err := svc.AddItem(context.Background(), userID, p.ID, "")
			require.NoError(t, err)
			cart = c
		}
	}
	return cart
}

func TestOrderService_CreateCashOrder(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	bus := &events.Memory{}
	now := time.Now().UTC()
	carts := &CartService{Repo: r, Now: func() time.Time { return now }}
	svc := &OrderService{Repo: r, Events: bus}
	ctx := context.Background()

	user := seedUser(t, r, "buyer@example.com")
	p := seedProduct(t, r, "Speaker", 250, 10)
	require.NoError(t, r.DB.Create(&models.Coupon{Name: "TEN", Discount: 10, Expire: now.Add(time.Hour)}).Error)

	cart := cartWith(t, carts, user.ID, 2, p)
	_, err := carts.ApplyCoupon(ctx, user.ID, "TEN")
	require.NoError(t, err)

	addr := models.ShippingAddress{Details: "1 Nile St", Phone: "01012345678", City: "Cairo", PostalCode: "11511"}
	order, err := svc.CreateCashOrder(ctx, user.ID, cart.ID, addr)
	require.NoError(t, err)

	assert.Equal(t, 450.0, order.TotalOrderPrice)
	assert.Equal(t, models.PaymentCash, order.PaymentMethodType)
	assert.False(t, order.IsPaid)
	require.Len(t, order.CartItems, 1)
	assert.Equal(t, 2, order.CartItems[0].Quantity)

	stored := reloadProduct(t, r, p.ID)
	assert.Equal(t, 8, stored.Quantity)
	assert.Equal(t, 2, stored.Sold)

	_, err = r.CartByID(ctx, cart.ID)
	require.Error(t, err)
	var items int64
	require.NoError(t, r.DB.Model(&models.CartItem{}).Count(&items).Error)
	assert.Zero(t, items)

	var saved models.Order
	require.NoError(t, r.DB.Preload("CartItems").First(&saved, "id = ?", order.ID).Error)
	assert.Equal(t, "Cairo", saved.ShippingAddress.City)
	assert.Len(t, saved.CartItems, 1)

	assert.Equal(t, []string{"order_created"}, bus.Types(events.TopicOrders))
}

func TestOrderService_CreateCashOrder_InsufficientStock(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	carts := &CartService{Repo: r}
	svc := &OrderService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "greedy@example.com")
	plenty := seedProduct(t, r, "Plenty", 5, 100)
	scarce := seedProduct(t, r, "Scarce", 5, 1)
	cart := cartWith(t, carts, user.ID, 2, plenty, scarce)

	_, err := svc.CreateCashOrder(ctx, user.ID, cart.ID, models.ShippingAddress{})
	require.ErrorIs(t, err, ErrConflict)

	// the transaction rolled back everything
	assert.Equal(t, 100, reloadProduct(t, r, plenty.ID).Quantity)
	assert.Equal(t, 1, reloadProduct(t, r, scarce.ID).Quantity)
	_, err = r.CartByID(ctx, cart.ID)
	require.NoError(t, err)
	var orders int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestOrderService_CreateCashOrder_ForeignOrMissingCart(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	carts := &CartService{Repo: r}
	svc := &OrderService{Repo: r}
	ctx := context.Background()

	owner := seedUser(t, r, "owner@example.com")
	thief := seedUser(t, r, "thief@example.com")
	cart := cartWith(t, carts, owner.ID, 1, seedProduct(t, r, "Watch", 99, 3))

	_, err := svc.CreateCashOrder(ctx, thief.ID, cart.ID, models.ShippingAddress{})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.CreateCashOrder(ctx, owner.ID, uuid.New(), models.ShippingAddress{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_CheckoutSession(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	carts := &CartService{Repo: r}
	gw := &fakeGateway{}
	svc := &OrderService{Repo: r, Payments: gw, TaxPrice: 5}
	ctx := context.Background()

	user := seedUser(t, r, "card@example.com")
	cart := cartWith(t, carts, user.ID, 3, seedProduct(t, r, "Pen", 19.99, 10))

	sess, err := svc.CheckoutSession(ctx, CheckoutRequest{
		UserID:        user.ID,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		CartID:        cart.ID,
		Address:       models.ShippingAddress{City: "Giza"},
		SuccessURL:    "http://shop.local/orders",
		CancelURL:     "http://shop.local/cart",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, int64(6497), gw.params.AmountMinor)
	assert.Equal(t, cart.ID.String(), gw.params.CartID)
	assert.Equal(t, map[string]string{"city": "Giza"}, gw.params.Metadata)

	gw.err = payment.ErrUnavailable
	_, err = svc.CheckoutSession(ctx, CheckoutRequest{UserID: user.ID, CartID: cart.ID})
	require.ErrorIs(t, err, ErrInternal)
}

func TestOrderService_HandleWebhook(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	carts := &CartService{Repo: r}
	bus := &events.Memory{}
	gw := &fakeGateway{}
	svc := &OrderService{Repo: r, Payments: gw, Events: bus}
	ctx := context.Background()

	user := seedUser(t, r, "paid@example.com")
	p := seedProduct(t, r, "Camera", 300, 1)
	cart := cartWith(t, carts, user.ID, 2, p)

	gw.event = &payment.WebhookEvent{
		Type: payment.EventCheckoutCompleted,
		Checkout: &payment.CompletedCheckout{
			SessionID:     "cs_1",
			CartID:        cart.ID.String(),
			CustomerEmail: "PAID@example.com",
			AmountMinor:   60000,
			Metadata:      map[string]string{"city": "Alexandria"},
		},
	}
	require.NoError(t, svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	var order models.Order
	require.NoError(t, r.DB.Preload("CartItems").First(&order, "user_id = ?", user.ID).Error)
	assert.Equal(t, 600.0, order.TotalOrderPrice)
	assert.Equal(t, models.PaymentCard, order.PaymentMethodType)
	assert.True(t, order.IsPaid)
	assert.NotNil(t, order.PaidAt)
	assert.Equal(t, "Alexandria", order.ShippingAddress.City)

	// payment already captured, so stock may go negative
	stored := reloadProduct(t, r, p.ID)
	assert.Equal(t, -1, stored.Quantity)
	assert.Equal(t, 2, stored.Sold)

	// a redelivered notification finds no cart and is acknowledged
	require.NoError(t, svc.HandleWebhook(ctx, []byte(`{}`), "sig"))
	var orders int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)

	gw.event = &payment.WebhookEvent{Type: "payment_intent.created"}
	require.NoError(t, svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	gw.err = errors.Wrap(payment.ErrInvalidSignature, "verify")
	require.ErrorIs(t, svc.HandleWebhook(ctx, []byte(`{}`), "bad"), ErrValidation)
}

func TestOrderService_MarkPaidAndDelivered(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	carts := &CartService{Repo: r}
	bus := &events.Memory{}
	svc := &OrderService{Repo: r, Events: bus}
	ctx := context.Background()

	user := seedUser(t, r, "status@example.com")
	cart := cartWith(t, carts, user.ID, 1, seedProduct(t, r, "Hat", 15, 4))
	order, err := svc.CreateCashOrder(ctx, user.ID, cart.ID, models.ShippingAddress{})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Len(t, paid.CartItems, 1)

	delivered, err := svc.MarkDelivered(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	assert.True(t, delivered.IsPaid)

	_, err = svc.MarkPaid(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"order_created", "order_paid", "order_delivered"}, bus.Types(events.TopicOrders))
}

// Package payment creates hosted checkout sessions and verifies the
// gateway's completion webhooks.
package payment

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	ErrUnavailable      = errors.New("payment gateway not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

const EventCheckoutCompleted = "checkout.session.completed"

type CheckoutParams struct {
	CustomerName  string
	CustomerEmail string
	CartID        string
	AmountMinor   int64
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedCheckout is the payload of a paid session.
type CompletedCheckout struct {
	SessionID     string
	CartID        string
	CustomerEmail string
	AmountMinor   int64
	Metadata      map[string]string
}

type WebhookEvent struct {
	Type     string
	Checkout *CompletedCheckout
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type Stripe struct {
	api           *client.API
	webhookSecret string
	currency      string
}

func NewStripe(secretKey, webhookSecret, currency string) *Stripe {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api, webhookSecret: webhookSecret, currency: currency}
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		CustomerEmail:     stripe.String(p.CustomerEmail),
		ClientReferenceID: stripe.String(p.CartID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(s.currency),
				UnitAmount: stripe.Int64(p.AmountMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(p.CustomerName),
				},
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "stripe: create checkout session")
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	return parseWebhook(payload, signature, s.webhookSecret)
}

func parseWebhook(payload []byte, signature, secret string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSignature, "%v", err)
	}

	out := &WebhookEvent{Type: string(event.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, errors.Wrap(err, "decode checkout session")
	}

	email := sess.CustomerEmail
	if email == "" && sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}
	out.Checkout = &CompletedCheckout{
		SessionID:     sess.ID,
		CartID:        sess.ClientReferenceID,
		CustomerEmail: email,
		AmountMinor:   sess.AmountTotal,
		Metadata:      sess.Metadata,
	}
	return out, nil
}

// Disabled rejects every call. Used when no secret key is configured.
type Disabled struct{}

func (Disabled) CreateCheckoutSession(context.Context, CheckoutParams) (*Session, error) {
	return nil, ErrUnavailable
}

func (Disabled) ParseWebhook([]byte, string) (*WebhookEvent, error) {
	return nil, ErrUnavailable
}

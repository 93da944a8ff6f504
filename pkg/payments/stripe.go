package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider builds a provider from a secret API key.
func NewStripeProvider(apiKey string) (*StripeProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("stripe api key required")
	}
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeProvider{api: api}, nil
}

// FindCustomerByEmail returns the first Stripe customer with the email.
func (p *StripeProvider) FindCustomerByEmail(ctx context.Context, email string) (Customer, bool, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	iter := p.api.Customers.List(params)
	for iter.Next() {
		c := iter.Customer()
		return Customer{ID: c.ID, Email: c.Email}, true, nil
	}
	if err := iter.Err(); err != nil {
		return Customer{}, false, fmt.Errorf("%w: list customers: %v", ErrUnavailable, err)
	}
	return Customer{}, false, nil
}

// CreateCustomer registers a new Stripe customer.
func (p *StripeProvider) CreateCustomer(ctx context.Context, email string) (Customer, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	c, err := p.api.Customers.New(params)
	if err != nil {
		return Customer{}, fmt.Errorf("%w: create customer: %v", ErrUnavailable, err)
	}
	return Customer{ID: c.ID, Email: c.Email}, nil
}

// ActiveSubscription returns the customer's active subscription (limit 1).
func (p *StripeProvider) ActiveSubscription(ctx context.Context, customerID string) (Subscription, bool, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	iter := p.api.Subscriptions.List(params)
	for iter.Next() {
		s := iter.Subscription()
		sub := Subscription{
			ID:               s.ID,
			Status:           string(s.Status),
			CurrentPeriodEnd: time.Unix(s.CurrentPeriodEnd, 0).UTC(),
		}
		if len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
			sub.PriceID = s.Items.Data[0].Price.ID
		}
		return sub, true, nil
	}
	if err := iter.Err(); err != nil {
		return Subscription{}, false, fmt.Errorf("%w: list subscriptions: %v", ErrUnavailable, err)
	}
	return Subscription{}, false, nil
}

// NewCheckoutSession creates a subscription checkout session.
func (p *StripeProvider) NewCheckoutSession(ctx context.Context, cp CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(cp.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(cp.SuccessURL),
		CancelURL:  stripe.String(cp.CancelURL),
	}
	params.Context = ctx
	if cp.CustomerID != "" {
		params.Customer = stripe.String(cp.CustomerID)
	} else if cp.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(cp.CustomerEmail)
	}
	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %v", ErrUnavailable, err)
	}
	return session.URL, nil
}

// NewBillingPortalSession creates a billing portal session.
func (p *StripeProvider) NewBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	session, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create portal session: %v", ErrUnavailable, err)
	}
	return session.URL, nil
}

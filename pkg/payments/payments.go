// Package payments abstracts the payment provider used for pro
// subscriptions. The core never talks to Stripe types directly so the
// reconciler can be tested against a fake provider.
package payments

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the provider could not be reached or answered
// with an unexpected failure. Callers must keep previously known
// entitlement state instead of downgrading.
var ErrUnavailable = errors.New("payment provider unavailable")

// Customer is a payment-provider customer handle.
type Customer struct {
	ID    string
	Email string
}

// Subscription is an active provider subscription.
type Subscription struct {
	ID               string
	Status           string
	PriceID          string
	CurrentPeriodEnd time.Time
}

// CheckoutParams describes a new checkout session for the pro tier.
type CheckoutParams struct {
	CustomerID    string // preferred when known
	CustomerEmail string // used when no customer exists yet
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

// Provider is the payment provider contract.
type Provider interface {
	// FindCustomerByEmail looks up an existing customer by email.
	FindCustomerByEmail(ctx context.Context, email string) (Customer, bool, error)
	// CreateCustomer registers a new customer.
	CreateCustomer(ctx context.Context, email string) (Customer, error)
	// ActiveSubscription returns the customer's active subscription, if any
	// (at most one is consulted).
	ActiveSubscription(ctx context.Context, customerID string) (Subscription, bool, error)
	// NewCheckoutSession creates a hosted checkout session and returns its URL.
	NewCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
	// NewBillingPortalSession creates a hosted billing portal session URL.
	NewBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

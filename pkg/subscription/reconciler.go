// Package subscription reconciles per-user entitlement records against
// the payment provider. Reconciliation is re-run on demand and never
// cached beyond one call.
package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"palavraviva/pkg/domain"
	"palavraviva/pkg/payments"
)

// privilegedEmail is permanently entitled to the pro tier regardless of
// provider state. Product decision, revisit before removing.
const privilegedEmail = "pastor@palavraviva.app"

// privilegedEnd is the fixed far-future expiry written for the
// privileged account.
var privilegedEnd = time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC)

// isPrivileged is the single policy gate for the forced-pro account.
func isPrivileged(email string) bool {
	return email == privilegedEmail
}

// Store is the slice of persistence the reconciler needs.
type Store interface {
	GetSubscriberByUserID(userID string) (domain.Subscriber, bool, error)
	SaveSubscriber(domain.Subscriber) error
}

// Reconciler resolves a user's entitlement from the payment provider
// and persists the outcome. Any provider or store failure aborts the
// whole run with no partial writes, so callers keep the previously
// known state instead of downgrading.
type Reconciler struct {
	store    Store
	provider payments.Provider
	logger   *slog.Logger
	now      func() time.Time
}

// New builds a Reconciler.
func New(store Store, provider payments.Provider, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:    store,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// Reconcile resolves and persists the entitlement record for one user.
func (r *Reconciler) Reconcile(ctx context.Context, userID, email string) (domain.Subscriber, error) {
	now := r.now().UTC()

	sub, found, err := r.store.GetSubscriberByUserID(userID)
	if err != nil {
		return domain.Subscriber{}, fmt.Errorf("load subscriber: %w", err)
	}
	if !found {
		sub = domain.Subscriber{
			ID:        uuid.NewString(),
			UserID:    userID,
			Email:     email,
			Tier:      domain.TierFree,
			CreatedAt: now,
		}
	}
	sub.Email = email

	// Forced-pro account is resolved before any provider call so that a
	// provider outage never affects it.
	if isPrivileged(email) {
		end := privilegedEnd
		sub.Subscribed = true
		sub.Tier = domain.TierPro
		sub.SubscriptionEnd = &end
		sub.UpdatedAt = now
		if err := r.store.SaveSubscriber(sub); err != nil {
			return domain.Subscriber{}, fmt.Errorf("save subscriber: %w", err)
		}
		return sub, nil
	}

	if sub.StripeCustomerID == "" {
		customer, ok, err := r.provider.FindCustomerByEmail(ctx, email)
		if err != nil {
			return domain.Subscriber{}, fmt.Errorf("find customer: %w", err)
		}
		if !ok {
			sub.Subscribed = false
			sub.Tier = domain.TierFree
			sub.SubscriptionEnd = nil
			sub.ProviderData = nil
			sub.UpdatedAt = now
			if err := r.store.SaveSubscriber(sub); err != nil {
				return domain.Subscriber{}, fmt.Errorf("save subscriber: %w", err)
			}
			return sub, nil
		}
		sub.StripeCustomerID = customer.ID
	}

	active, ok, err := r.provider.ActiveSubscription(ctx, sub.StripeCustomerID)
	if err != nil {
		return domain.Subscriber{}, fmt.Errorf("list subscriptions: %w", err)
	}
	if ok {
		end := active.CurrentPeriodEnd.UTC()
		sub.Subscribed = true
		sub.Tier = domain.TierPro
		sub.SubscriptionEnd = &end
		sub.ProviderData = snapshot(active, now)
	} else {
		sub.Subscribed = false
		sub.Tier = domain.TierFree
		sub.SubscriptionEnd = nil
		sub.ProviderData = nil
	}
	sub.UpdatedAt = now

	if err := r.store.SaveSubscriber(sub); err != nil {
		return domain.Subscriber{}, fmt.Errorf("save subscriber: %w", err)
	}
	r.logger.Debug("subscription reconciled",
		"user_id", userID,
		"tier", sub.Tier,
		"subscribed", sub.Subscribed,
	)
	return sub, nil
}

func snapshot(active payments.Subscription, checkedAt time.Time) json.RawMessage {
	raw, err := json.Marshal(map[string]any{
		"subscriptionId":   active.ID,
		"status":           active.Status,
		"priceId":          active.PriceID,
		"currentPeriodEnd": active.CurrentPeriodEnd.UTC(),
		"checkedAt":        checkedAt,
	})
	if err != nil {
		return nil
	}
	return raw
}

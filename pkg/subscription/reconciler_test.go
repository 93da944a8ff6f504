package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"palavraviva/pkg/domain"
	"palavraviva/pkg/payments"
)

type fakeStore struct {
	subs     map[string]domain.Subscriber
	saves    int
	saveErr  error
	loadErr  error
	lastSave domain.Subscriber
}

func newFakeStore() *fakeStore {
	return &fakeStore{subs: make(map[string]domain.Subscriber)}
}

func (s *fakeStore) GetSubscriberByUserID(userID string) (domain.Subscriber, bool, error) {
	if s.loadErr != nil {
		return domain.Subscriber{}, false, s.loadErr
	}
	sub, ok := s.subs[userID]
	return sub, ok, nil
}

func (s *fakeStore) SaveSubscriber(sub domain.Subscriber) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.lastSave = sub
	s.subs[sub.UserID] = sub
	return nil
}

type fakeProvider struct {
	customer       payments.Customer
	hasCustomer    bool
	customerErr    error
	active         payments.Subscription
	hasActive      bool
	activeErr      error
	customerCalls  int
	subscriptCalls int
}

func (p *fakeProvider) FindCustomerByEmail(_ context.Context, _ string) (payments.Customer, bool, error) {
	p.customerCalls++
	return p.customer, p.hasCustomer, p.customerErr
}

func (p *fakeProvider) CreateCustomer(_ context.Context, email string) (payments.Customer, error) {
	return payments.Customer{ID: "cus_new", Email: email}, nil
}

func (p *fakeProvider) ActiveSubscription(_ context.Context, _ string) (payments.Subscription, bool, error) {
	p.subscriptCalls++
	return p.active, p.hasActive, p.activeErr
}

func (p *fakeProvider) NewCheckoutSession(_ context.Context, _ payments.CheckoutParams) (string, error) {
	return "https://checkout.test/session", nil
}

func (p *fakeProvider) NewBillingPortalSession(_ context.Context, _, _ string) (string, error) {
	return "https://portal.test/session", nil
}

func TestReconcilePrivilegedEmailForcedPro(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{
		customerErr: errors.New("provider down"),
		activeErr:   errors.New("provider down"),
	}
	r := New(store, provider, nil)

	for i := 0; i < 2; i++ {
		sub, err := r.Reconcile(context.Background(), "u-1", privilegedEmail)
		if err != nil {
			t.Fatalf("reconcile %d: %v", i, err)
		}
		if !sub.Subscribed || sub.Tier != domain.TierPro {
			t.Fatalf("privileged account not forced pro: %+v", sub)
		}
		if sub.SubscriptionEnd == nil || !sub.SubscriptionEnd.Equal(privilegedEnd) {
			t.Fatalf("unexpected subscription end: %v", sub.SubscriptionEnd)
		}
	}
	if provider.customerCalls != 0 || provider.subscriptCalls != 0 {
		t.Fatal("privileged branch must not touch the provider")
	}
	if store.saves != 2 {
		t.Fatalf("expected 2 persisted reconciliations, got %d", store.saves)
	}
}

func TestReconcileNoCustomerPersistsFree(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{hasCustomer: false}
	r := New(store, provider, nil)

	sub, err := r.Reconcile(context.Background(), "u-2", "ana@example.com")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if sub.Subscribed || sub.Tier != domain.TierFree || sub.SubscriptionEnd != nil {
		t.Fatalf("expected free state, got %+v", sub)
	}
	if store.saves != 1 {
		t.Fatalf("expected persisted free record, saves=%d", store.saves)
	}
	if provider.subscriptCalls != 0 {
		t.Fatal("must not list subscriptions without a customer")
	}
}

func TestReconcileActiveSubscriptionGrantsPro(t *testing.T) {
	end := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	provider := &fakeProvider{
		hasCustomer: true,
		customer:    payments.Customer{ID: "cus_123"},
		hasActive:   true,
		active:      payments.Subscription{ID: "sub_123", Status: "active", CurrentPeriodEnd: end},
	}
	r := New(store, provider, nil)

	sub, err := r.Reconcile(context.Background(), "u-3", "bia@example.com")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !sub.Subscribed || sub.Tier != domain.TierPro {
		t.Fatalf("expected pro, got %+v", sub)
	}
	if sub.SubscriptionEnd == nil || !sub.SubscriptionEnd.Equal(end) {
		t.Fatalf("subscription end mismatch: %v", sub.SubscriptionEnd)
	}
	if sub.StripeCustomerID != "cus_123" {
		t.Fatalf("customer id not stored: %q", sub.StripeCustomerID)
	}
	if len(sub.ProviderData) == 0 {
		t.Fatal("provider snapshot missing")
	}
}

func TestReconcileLapsedSubscriptionDowngrades(t *testing.T) {
	store := newFakeStore()
	end := time.Now().Add(time.Hour)
	store.subs["u-4"] = domain.Subscriber{
		ID:               "s-4",
		UserID:           "u-4",
		StripeCustomerID: "cus_456",
		Subscribed:       true,
		Tier:             domain.TierPro,
		SubscriptionEnd:  &end,
	}
	provider := &fakeProvider{hasActive: false}
	r := New(store, provider, nil)

	sub, err := r.Reconcile(context.Background(), "u-4", "caio@example.com")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if sub.Subscribed || sub.Tier != domain.TierFree || sub.SubscriptionEnd != nil {
		t.Fatalf("expected downgrade to free, got %+v", sub)
	}
	if provider.customerCalls != 0 {
		t.Fatal("stored customer id must skip email lookup")
	}
}

func TestReconcileProviderErrorNoPartialWrite(t *testing.T) {
	store := newFakeStore()
	store.subs["u-5"] = domain.Subscriber{
		ID:               "s-5",
		UserID:           "u-5",
		StripeCustomerID: "cus_789",
		Subscribed:       true,
		Tier:             domain.TierPro,
	}
	provider := &fakeProvider{activeErr: payments.ErrUnavailable}
	r := New(store, provider, nil)

	_, err := r.Reconcile(context.Background(), "u-5", "dani@example.com")
	if !errors.Is(err, payments.ErrUnavailable) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("provider failure must not persist, saves=%d", store.saves)
	}
	if kept := store.subs["u-5"]; kept.Tier != domain.TierPro {
		t.Fatalf("previously known state lost: %+v", kept)
	}
}

func TestReconcileStoreWriteErrorSurfaces(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("write failed")
	provider := &fakeProvider{hasCustomer: false}
	r := New(store, provider, nil)

	if _, err := r.Reconcile(context.Background(), "u-6", "eva@example.com"); err == nil {
		t.Fatal("expected store write error")
	}
}

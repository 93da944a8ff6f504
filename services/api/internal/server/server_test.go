package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"palavraviva/pkg/domain"
	"palavraviva/pkg/payments"
	"palavraviva/pkg/store"
	"palavraviva/services/api/internal/app"
)

type stubProvider struct{}

func (stubProvider) FindCustomerByEmail(context.Context, string) (payments.Customer, bool, error) {
	return payments.Customer{}, false, nil
}
func (stubProvider) CreateCustomer(_ context.Context, email string) (payments.Customer, error) {
	return payments.Customer{ID: "cus_test", Email: email}, nil
}
func (stubProvider) ActiveSubscription(context.Context, string) (payments.Subscription, bool, error) {
	return payments.Subscription{}, false, nil
}
func (stubProvider) NewCheckoutSession(context.Context, payments.CheckoutParams) (string, error) {
	return "https://checkout.test/session", nil
}
func (stubProvider) NewBillingPortalSession(context.Context, string, string) (string, error) {
	return "https://portal.test/session", nil
}

func newTestServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	appCore, err := app.New(app.Config{
		Store:    mem,
		Sessions: store.NewJWTSessionStore("test-secret", time.Hour, store.NewMemoryTokenRevoker()),
		Provider: stubProvider{},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(New(Config{App: appCore}).Router())
	t.Cleanup(srv.Close)
	return srv, mem
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func signUp(t *testing.T, srv *httptest.Server, name, email string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "segredo12345",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}
	body := decode[struct {
		Token string `json:"token"`
	}](t, resp)
	if body.Token == "" {
		t.Fatal("signup returned empty token")
	}
	return body.Token
}

func seedVerses(t *testing.T, mem *store.MemoryStore, n int) []domain.Verse {
	t.Helper()
	verses := make([]domain.Verse, 0, n)
	for i := 0; i < n; i++ {
		v := domain.Verse{
			ID:      fmt.Sprintf("v-%d", i+1),
			Book:    "Salmos",
			Chapter: i + 1,
			Verse:   1,
			Text:    "texto",
			Order:   i + 1,
		}
		if err := mem.SaveVerse(v); err != nil {
			t.Fatalf("seed verse: %v", err)
		}
		verses = append(verses, v)
	}
	return verses
}

func TestUnauthorizedRequestsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/api/verses", "/api/reflections", "/api/stats", "/functions/v1/check-subscription"} {
		resp := doJSON(t, http.MethodGet, srv.URL+path, "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestFreeTierReflectionListCapped(t *testing.T) {
	srv, mem := newTestServer(t)
	token := signUp(t, srv, "Ana", "ana@example.com")
	verses := seedVerses(t, mem, 3)

	for _, v := range verses {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/reflections", token, map[string]string{
			"verseId": v.ID,
			"text":    "reflexao sobre " + v.ID,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("save reflection status = %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/reflections", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	list := decode[struct {
		Items   []domain.Reflection `json:"items"`
		Total   int                 `json:"total"`
		Limited bool                `json:"limited"`
	}](t, resp)
	if len(list.Items) != 2 || !list.Limited || list.Total != 3 {
		t.Fatalf("free list: items=%d limited=%v total=%d", len(list.Items), list.Limited, list.Total)
	}
}

func TestDeleteReflectionUnmarksVerse(t *testing.T) {
	srv, mem := newTestServer(t)
	token := signUp(t, srv, "Bia", "bia@example.com")
	verses := seedVerses(t, mem, 1)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/reflections", token, map[string]string{
		"verseId": verses[0].ID,
		"text":    "para apagar",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save reflection status = %d", resp.StatusCode)
	}
	reflection := decode[domain.Reflection](t, resp)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/reflections/"+reflection.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/verses/"+verses[0].ID, token, nil)
	detail := decode[struct {
		Read bool `json:"read"`
	}](t, resp)
	if detail.Read {
		t.Fatal("verse still read after reflection delete")
	}
}

func TestDailyVerseStableAcrossCalls(t *testing.T) {
	srv, mem := newTestServer(t)
	token := signUp(t, srv, "Caio", "caio@example.com")
	seedVerses(t, mem, 7)

	first := decode[domain.Verse](t, doJSON(t, http.MethodGet, srv.URL+"/api/verses/daily", token, nil))
	second := decode[domain.Verse](t, doJSON(t, http.MethodGet, srv.URL+"/api/verses/daily", token, nil))
	if first.ID != second.ID {
		t.Fatalf("daily verse changed between calls: %s vs %s", first.ID, second.ID)
	}
}

func TestMarkReadEndpoint(t *testing.T) {
	srv, mem := newTestServer(t)
	token := signUp(t, srv, "Davi", "davi@example.com")
	verses := seedVerses(t, mem, 1)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/verses/"+verses[0].ID+"/read", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark read status = %d", resp.StatusCode)
	}
	profile := decode[domain.Profile](t, resp)
	if profile.ChaptersRead != 1 || profile.Points != 1 {
		t.Fatalf("profile after read: %+v", profile)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/verses/missing/read", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing verse status = %d", resp.StatusCode)
	}
}

func TestGenerateVerseRequiresPro(t *testing.T) {
	srv, _ := newTestServer(t)
	token := signUp(t, srv, "Eva", "eva@example.com")

	resp := doJSON(t, http.MethodPost, srv.URL+"/functions/v1/generate-verse", token, map[string]int{"count": 2})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("free generation status = %d, want 403", resp.StatusCode)
	}
}

func TestCheckSubscriptionReturnsFree(t *testing.T) {
	srv, _ := newTestServer(t)
	token := signUp(t, srv, "Gil", "gil@example.com")

	resp := doJSON(t, http.MethodPost, srv.URL+"/functions/v1/check-subscription", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("check-subscription status = %d", resp.StatusCode)
	}
	body := decode[struct {
		Subscribed bool        `json:"subscribed"`
		Tier       domain.Tier `json:"tier"`
	}](t, resp)
	if body.Subscribed || body.Tier != domain.TierFree {
		t.Fatalf("expected free state, got %+v", body)
	}
}

func TestPublicStatsOpenEndpoint(t *testing.T) {
	srv, mem := newTestServer(t)
	seedVerses(t, mem, 2)

	resp := doJSON(t, http.MethodGet, srv.URL+"/functions/v1/public-stats", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public-stats status = %d", resp.StatusCode)
	}
	stats := decode[struct {
		Verses int `json:"verses"`
	}](t, resp)
	if stats.Verses != 2 {
		t.Fatalf("public stats verses = %d", stats.Verses)
	}
}

func TestPreflightGetsPermissiveCORS(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/functions/v1/check-subscription", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing permissive CORS header")
	}
}

func TestRankingEndpoint(t *testing.T) {
	srv, mem := newTestServer(t)
	token := signUp(t, srv, "Hugo", "hugo@example.com")
	verses := seedVerses(t, mem, 2)
	for _, v := range verses {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/verses/"+v.ID+"/read", token, nil)
		resp.Body.Close()
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/ranking?limit=5", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ranking status = %d", resp.StatusCode)
	}
	body := decode[struct {
		Items []domain.RankingEntry `json:"items"`
	}](t, resp)
	if len(body.Items) != 1 || body.Items[0].Rank != 1 || body.Items[0].Points != 2 {
		t.Fatalf("ranking = %+v", body.Items)
	}
}

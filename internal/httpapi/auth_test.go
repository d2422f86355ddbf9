package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"studioledger/backend/internal/cache"
	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/logging"
	"studioledger/backend/internal/store"
	"studioledger/backend/internal/store/memory"
	"studioledger/backend/internal/xid"
)

func newTestAuth(t *testing.T, cfg AuthConfig) (*AuthManager, *memory.Store) {
	t.Helper()
	repo := memory.New()
	if cfg.Secret == "" {
		cfg.Secret = "test-secret-key-with-enough-length!"
	}
	return NewAuthManager(cfg, repo, cache.NewMemoryRevocations(), logging.Discard()), repo
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	auth, repo := newTestAuth(t, AuthConfig{})
	ctx := context.Background()
	if err := repo.CreateUser(ctx, domain.UserAccount{
		ID:       xid.New(),
		Email:    "legacy@studio.test",
		Password: "legacy-pass",
		Role:     roleAdmin,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	resp, err := auth.Login(ctx, domain.LoginRequest{Email: "Legacy@Studio.test", Password: "legacy-pass"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != roleAdmin {
		t.Fatalf("expected admin role, got %q", resp.Role)
	}

	user, err := repo.GetUserByEmail(ctx, "legacy@studio.test")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !isPasswordHash(user.Password) {
		t.Fatalf("expected password to be upgraded from plain-text")
	}

	if _, err := auth.Login(ctx, domain.LoginRequest{Email: "legacy@studio.test", Password: "legacy-pass"}); err != nil {
		t.Fatalf("login after upgrade failed: %v", err)
	}
	if _, err := auth.Login(ctx, domain.LoginRequest{Email: "legacy@studio.test", Password: "nope"}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	ctx := context.Background()
	issuer, repo := newTestAuth(t, AuthConfig{Secret: "issuer-secret-key-with-enough-length"})
	if _, err := issuer.EnsureAdmin(ctx, testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	resp, err := issuer.Login(ctx, domain.LoginRequest{Email: testAdminEmail, Password: testAdminPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	actor, err := issuer.ParseToken(ctx, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse own token: %v", err)
	}
	if actor.Email != testAdminEmail || actor.Role != roleAdmin || actor.TokenID == "" {
		t.Fatalf("unexpected actor %+v", actor)
	}

	other := NewAuthManager(AuthConfig{Secret: "another-secret-key-with-enough-length"}, repo, nil, logging.Discard())
	if _, err := other.ParseToken(ctx, resp.AccessToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for foreign secret, got %v", err)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuth(t, AuthConfig{TokenTTL: time.Minute})
	if _, err := auth.EnsureAdmin(ctx, testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	resp, err := auth.Login(ctx, domain.LoginRequest{Email: testAdminEmail, Password: testAdminPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := auth.ParseToken(ctx, resp.AccessToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestExchangeSessionUpsertsEmployee(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.Header.Get("X-Session-ID"); got != "sess-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"email":   "Photographer@Studio.test",
			"name":    "Photographer",
			"picture": "https://cdn.example/p.png",
		})
	}))
	defer upstream.Close()

	auth, repo := newTestAuth(t, AuthConfig{SessionDataURL: upstream.URL})
	ctx := context.Background()

	resp, err := auth.ExchangeSession(ctx, "sess-123")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if resp.Role != roleEmployee || resp.User.Email != "photographer@studio.test" {
		t.Fatalf("unexpected login response %+v", resp)
	}

	if _, err := auth.ExchangeSession(ctx, "sess-123"); err != nil {
		t.Fatalf("second exchange: %v", err)
	}
	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected one upserted user, got %d", len(users))
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls.Load())
	}
}

func TestExchangeSessionUpstreamFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	env := newTestAPIWithAuth(t, AuthConfig{SessionDataURL: upstream.URL})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/session", nil)
	req.Header.Set("X-Session-ID", "sess-broken")
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for upstream failure, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "failed to get session data") {
		t.Fatalf("unexpected error body %s", res.Body.String())
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", calls.Load())
	}
}

func TestExchangeSessionWithoutUpstreamConfigured(t *testing.T) {
	auth, _ := newTestAuth(t, AuthConfig{})

	_, err := auth.ExchangeSession(context.Background(), "sess-1")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	_, err = auth.ExchangeSession(context.Background(), "  ")
	if !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for blank session id, got %v", err)
	}
}

func TestSessionCookieAuthenticatesMe(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"email": "crew@studio.test", "name": "Crew"})
	}))
	defer upstream.Close()

	env := newTestAPIWithAuth(t, AuthConfig{SessionDataURL: upstream.URL})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/session", nil)
	req.Header.Set("X-Session-ID", "sess-ok")
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("session expected 200, got %d (body: %s)", res.Code, res.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range res.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("expected http-only session cookie, got %+v", cookie)
	}
	if cookie.MaxAge != int(time.Hour.Seconds()) {
		t.Fatalf("expected cookie max age to follow token ttl, got %d", cookie.MaxAge)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: cookie.Value})
	res = httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("me expected 200, got %d", res.Code)
	}
	var profile domain.UserProfile
	decodeBody(t, res, &profile)
	if profile.Email != "crew@studio.test" || profile.Role != roleEmployee {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestLoginURLRedirectsToDashboard(t *testing.T) {
	auth, _ := newTestAuth(t, AuthConfig{
		PortalURL: "https://auth.example/",
		AppURL:    "https://studio.example/",
	})

	got := auth.LoginURL()
	want := "https://auth.example/?redirect=https%3A%2F%2Fstudio.example%2Fdashboard"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	auth, repo := newTestAuth(t, AuthConfig{})
	ctx := context.Background()

	created, err := auth.EnsureAdmin(ctx, testAdminEmail, testAdminPassword)
	if err != nil || !created {
		t.Fatalf("expected admin to be created, got created=%v err=%v", created, err)
	}
	created, err = auth.EnsureAdmin(ctx, testAdminEmail, "another-password")
	if err != nil || created {
		t.Fatalf("expected existing admin to be kept, got created=%v err=%v", created, err)
	}
	created, err = auth.EnsureAdmin(ctx, "", "")
	if err != nil || created {
		t.Fatalf("expected blank admin email to be skipped, got created=%v err=%v", created, err)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].Role != roleAdmin {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestCreateUserValidatesInput(t *testing.T) {
	auth, _ := newTestAuth(t, AuthConfig{})
	ctx := context.Background()

	cases := []domain.UserCreateRequest{
		{Email: "not-an-email", Password: "long-enough-pass"},
		{Email: "crew@studio.test", Password: "short"},
		{Email: "crew@studio.test", Password: "long-enough-pass", Role: "owner"},
	}
	for _, req := range cases {
		if _, err := auth.CreateUser(ctx, req); !errors.Is(err, store.ErrInvalidRecord) {
			t.Fatalf("expected ErrInvalidRecord for %+v, got %v", req, err)
		}
	}

	profile, err := auth.CreateUser(ctx, domain.UserCreateRequest{Email: "Crew@Studio.test", Password: "long-enough-pass"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if profile.Email != "crew@studio.test" || profile.Role != roleEmployee || !profile.Active {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

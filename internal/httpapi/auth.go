package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"studioledger/backend/internal/cache"
	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/logging"
	"studioledger/backend/internal/store"
	"studioledger/backend/internal/xid"
)

var (
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrUpstreamUnavailable = errors.New("failed to get session data")
)

const (
	roleAdmin    = "admin"
	roleEmployee = "employee"

	minPasswordLength = 8
)

type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error)
	UpsertUserByEmail(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, email string, passwordHash string) error
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
	// SessionDataURL is the hosted login provider endpoint that resolves an
	// X-Session-ID into an identity.
	SessionDataURL string
	PortalURL      string
	AppURL         string
	HTTPClient     *http.Client
}

type AuthManager struct {
	secret         []byte
	tokenTTL       time.Duration
	sessionDataURL string
	portalURL      string
	appURL         string
	client         *http.Client
	users          UserStore
	revocations    cache.RevocationStore
	log            logrus.FieldLogger
	now            func() time.Time
}

type ledgerClaims struct {
	jwtlib.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionData struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func NewAuthManager(cfg AuthConfig, users UserStore, revocations cache.RevocationStore, logger logrus.FieldLogger) *AuthManager {
	secret := cfg.Secret
	if secret == "" {
		secret = "dev-change-me"
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if revocations == nil {
		revocations = cache.NewMemoryRevocations()
	}
	return &AuthManager{
		secret:         []byte(secret),
		tokenTTL:       ttl,
		sessionDataURL: strings.TrimSpace(cfg.SessionDataURL),
		portalURL:      strings.TrimSpace(cfg.PortalURL),
		appURL:         strings.TrimRight(strings.TrimSpace(cfg.AppURL), "/"),
		client:         client,
		users:          users,
		revocations:    revocations,
		log:            logging.Component(logger, "auth"),
		now:            time.Now,
	}
}

func (a *AuthManager) TokenTTL() time.Duration {
	return a.tokenTTL
}

// Login checks a local account password. Accounts still holding a plain-text
// password are upgraded to bcrypt on their first successful login.
func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		return domain.LoginResponse{}, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}

	user, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return domain.LoginResponse{}, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}
	if err != nil {
		return domain.LoginResponse{}, err
	}

	switch {
	case isPasswordHash(user.Password):
		if !verifyPassword(user.Password, req.Password) {
			return domain.LoginResponse{}, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
		}
	case user.Password != "" && subtle.ConstantTimeCompare([]byte(user.Password), []byte(req.Password)) == 1:
		hashed, err := hashPassword(req.Password)
		if err == nil {
			if err := a.users.UpdateUserPassword(ctx, email, hashed); err != nil {
				a.log.WithError(err).WithField("email", email).Warn("password upgrade failed")
			}
		}
	default:
		return domain.LoginResponse{}, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}
	if !user.Active {
		return domain.LoginResponse{}, fmt.Errorf("%w: account is inactive", ErrUnauthenticated)
	}

	return a.issue(*user)
}

// ExchangeSession resolves a hosted-login session id into a local account and
// issues an access token for it. Upstream failures are not retried.
func (a *AuthManager) ExchangeSession(ctx context.Context, sessionID string) (domain.LoginResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.LoginResponse{}, fmt.Errorf("%w: missing session id", store.ErrInvalidRecord)
	}

	data, err := a.fetchSessionData(ctx, sessionID)
	if err != nil {
		a.log.WithError(err).Warn("session exchange failed")
		return domain.LoginResponse{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	user, err := a.users.UpsertUserByEmail(ctx, domain.UserAccount{
		ID:        xid.New(),
		Email:     data.Email,
		Name:      strings.TrimSpace(data.Name),
		Picture:   strings.TrimSpace(data.Picture),
		Role:      roleEmployee,
		Active:    true,
		CreatedAt: a.now().UTC(),
	})
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if !user.Active {
		return domain.LoginResponse{}, fmt.Errorf("%w: account is inactive", ErrUnauthenticated)
	}
	return a.issue(*user)
}

func (a *AuthManager) fetchSessionData(ctx context.Context, sessionID string) (sessionData, error) {
	if a.sessionDataURL == "" {
		return sessionData{}, errors.New("session data url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.sessionDataURL, nil)
	if err != nil {
		return sessionData{}, err
	}
	req.Header.Set("X-Session-ID", sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return sessionData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return sessionData{}, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	var data sessionData
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&data); err != nil {
		return sessionData{}, fmt.Errorf("decode session data: %w", err)
	}
	data.Email = normalizeEmail(data.Email)
	if data.Email == "" {
		return sessionData{}, errors.New("session data has no email")
	}
	return data, nil
}

// ParseToken validates signature, expiry and revocation of an access token.
func (a *AuthManager) ParseToken(ctx context.Context, tokenStr string) (domain.Actor, error) {
	claims := &ledgerClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, fmt.Errorf("%w: invalid token subject", ErrUnauthenticated)
	}

	revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return domain.Actor{}, err
	}
	if revoked {
		return domain.Actor{}, fmt.Errorf("%w: session expired or invalid", ErrUnauthenticated)
	}

	return domain.Actor{
		UserID:  sub,
		Email:   claims.Email,
		Role:    claims.Role,
		TokenID: claims.ID,
	}, nil
}

// Logout revokes the actor's token for the rest of its lifetime.
func (a *AuthManager) Logout(ctx context.Context, actor domain.Actor) error {
	if actor.TokenID == "" {
		return nil
	}
	return a.revocations.Revoke(ctx, actor.TokenID, a.tokenTTL)
}

func (a *AuthManager) Profile(ctx context.Context, actor domain.Actor) (domain.UserProfile, error) {
	user, err := a.users.GetUserByEmail(ctx, actor.Email)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return user.Profile(), nil
}

// LoginURL points the browser at the hosted login portal, which redirects
// back to the dashboard.
func (a *AuthManager) LoginURL() string {
	redirect := a.appURL + "/dashboard"
	if a.portalURL == "" {
		return redirect
	}
	sep := "?"
	if strings.Contains(a.portalURL, "?") {
		sep = "&"
	}
	return a.portalURL + sep + "redirect=" + url.QueryEscape(redirect)
}

func (a *AuthManager) CreateUser(ctx context.Context, req domain.UserCreateRequest) (domain.UserProfile, error) {
	email := normalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: email is invalid", store.ErrInvalidRecord)
	}
	if len(req.Password) < minPasswordLength {
		return domain.UserProfile{}, fmt.Errorf("%w: password must be at least %d characters", store.ErrInvalidRecord, minPasswordLength)
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = roleEmployee
	}
	if role != roleAdmin && role != roleEmployee {
		return domain.UserProfile{}, fmt.Errorf("%w: user_type must be admin or employee", store.ErrInvalidRecord)
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user := domain.UserAccount{
		ID:        xid.New(),
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		Role:      role,
		Password:  passwordHash,
		Active:    true,
		CreatedAt: a.now().UTC(),
	}
	if err := a.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrInvalidRecord) {
			return domain.UserProfile{}, fmt.Errorf("%w: email already registered", store.ErrInvalidRecord)
		}
		return domain.UserProfile{}, err
	}
	a.log.WithFields(logrus.Fields{"email": email, "role": role}).Info("user created")
	return user.Profile(), nil
}

func (a *AuthManager) ListUsers(ctx context.Context) ([]domain.UserProfile, error) {
	users, err := a.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserProfile, 0, len(users))
	for _, user := range users {
		out = append(out, user.Profile())
	}
	return out, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
// An existing account is left untouched.
func (a *AuthManager) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, nil
	}
	_, err := a.users.GetUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	if _, err := a.CreateUser(ctx, domain.UserCreateRequest{
		Email:    email,
		Name:     "Administrator",
		Password: password,
		Role:     roleAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (a *AuthManager) issue(user domain.UserAccount) (domain.LoginResponse, error) {
	now := a.now().UTC()
	expiresAt := now.Add(a.tokenTTL)
	claims := ledgerClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "studioledger",
		},
		Email: user.Email,
		Role:  user.Role,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return domain.LoginResponse{
		AccessToken: token,
		Role:        user.Role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		User:        user.Profile(),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/bilyar/storefront-api/internal/platform/httpx"
)

var (
	// ErrTokenExpired signals that the provided admin token has expired.
	ErrTokenExpired = errors.New("auth: admin token expired")
	// ErrTokenInvalid signals that the provided admin token is invalid for other reasons.
	ErrTokenInvalid = errors.New("auth: admin token invalid")
)

type contextKey string

const identityContextKey contextKey = "github.com/bilyar/storefront-api/internal/platform/auth/identity"

// Identity describes the authenticated admin extracted from a bearer token.
type Identity struct {
	Subject string
}

// IdentityFromContext retrieves the admin identity when the request was authenticated.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// AdminAuthenticator validates HS256 bearer tokens on admin routes. When no
// secret is configured the middleware passes requests through unchanged, which
// keeps local and demo deployments usable without issuing tokens.
type AdminAuthenticator struct {
	secret []byte
}

// NewAdminAuthenticator constructs the authenticator from the shared secret.
func NewAdminAuthenticator(secret string) *AdminAuthenticator {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &AdminAuthenticator{}
	}
	return &AdminAuthenticator{secret: []byte(secret)}
}

// Enabled reports whether token validation is active.
func (a *AdminAuthenticator) Enabled() bool {
	return a != nil && len(a.secret) > 0
}

// Middleware enforces bearer token validation on the wrapped handlers.
func (a *AdminAuthenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "missing bearer token", http.StatusUnauthorized))
				return
			}

			identity, err := a.verify(token)
			if err != nil {
				message := "invalid bearer token"
				if errors.Is(err, ErrTokenExpired) {
					message = "bearer token expired"
				}
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", message, http.StatusUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *AdminAuthenticator) verify(raw string) (*Identity, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	subject := claims.Subject
	if subject == "" {
		subject = "admin"
	}
	return &Identity{Subject: subject}, nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

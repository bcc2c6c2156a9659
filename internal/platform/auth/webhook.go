package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/bilyar/storefront-api/internal/platform/httpx"
)

// WebhookVerifier checks a shared secret header on inbound gateway webhooks.
// Verification is skipped when no secret is configured.
type WebhookVerifier struct {
	header string
	secret string
}

// NewWebhookVerifier constructs the verifier. The header name falls back to
// x-webhook-secret when blank.
func NewWebhookVerifier(header, secret string) *WebhookVerifier {
	header = strings.TrimSpace(header)
	if header == "" {
		header = "x-webhook-secret"
	}
	return &WebhookVerifier{header: header, secret: strings.TrimSpace(secret)}
}

// Enabled reports whether shared secret validation is active.
func (v *WebhookVerifier) Enabled() bool {
	return v != nil && v.secret != ""
}

// Middleware rejects requests whose shared secret header does not match.
func (v *WebhookVerifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !v.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			provided := strings.TrimSpace(r.Header.Get(v.header))
			if subtle.ConstantTimeCompare([]byte(provided), []byte(v.secret)) != 1 {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "invalid webhook secret", http.StatusUnauthorized))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

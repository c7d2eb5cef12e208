// Package auth guards the admin write API. A request must carry a bearer
// token that the configured identity provider accepts, and the token's
// email must belong to the organisation's domain.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"car-rental-catalog/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	errMissingToken = "Authentication required"
	errInvalidToken = "Invalid or expired token"
)

// Identity is the verified subject of a token.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
}

// Verifier checks a raw token with an identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// claims are the token claims both verifiers read.
type claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// IdentityFrom returns the identity stored by Guard.Middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Guard authorizes admin requests.
type Guard struct {
	verifier Verifier
	suffix   string
	log      *zap.Logger
}

// NewGuard accepts the domain with or without a leading '@'.
func NewGuard(v Verifier, emailDomain string, log *zap.Logger) *Guard {
	d := strings.ToLower(strings.TrimSpace(emailDomain))
	if !strings.HasPrefix(d, "@") {
		d = "@" + d
	}
	return &Guard{verifier: v, suffix: d, log: log.With(zap.String("component", "auth"))}
}

// Authorize checks an Authorization header value. It returns an
// Unauthenticated error when the token is missing or rejected, and a
// Forbidden error when the email is outside the admin domain. Provider
// failures are not retried.
func (g *Guard) Authorize(ctx context.Context, header string) (Identity, error) {
	token, ok := extractBearerToken(header)
	if !ok {
		return Identity{}, apperr.Unauthenticated(errMissingToken)
	}

	id, err := g.verifier.Verify(ctx, token)
	if err != nil {
		g.log.Info("token rejected", zap.Error(err))
		return Identity{}, apperr.Wrap(apperr.KindUnauthenticated, errInvalidToken, err)
	}

	if !strings.HasSuffix(strings.ToLower(id.Email), g.suffix) {
		g.log.Warn("admin access denied", zap.String("uid", id.UID), zap.String("email", id.Email))
		return Identity{}, apperr.Forbidden("Access restricted to " + g.suffix + " accounts")
	}
	return id, nil
}

// Middleware rejects unauthorized requests with a JSON error and stores
// the identity in the request context otherwise.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authorize(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			var ae *apperr.Error
			status := http.StatusUnauthorized
			msg := errMissingToken
			if errors.As(err, &ae) {
				status = ae.HTTPStatus()
				msg = ae.Message
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	rawToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if rawToken == "" {
		return "", false
	}

	return rawToken, true
}

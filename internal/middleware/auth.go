// Package middleware provides Fiber middleware for authentication, rate
// limiting, tracing and request logging.
package middleware

import (
	"context"
	"strings"

	"linkvault/internal/cache"
	"linkvault/internal/models"
	"linkvault/internal/observability"
	"linkvault/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals set by the auth middleware.
const (
	LocalIdentity = "identity"
	LocalUserID   = "userID"
	LocalToken    = "token"
)

type identityKey struct{}

// TokenVerifier is satisfied by *service.TokenService.
type TokenVerifier interface {
	VerifyKind(token string, kind service.TokenKind) (*service.VerifiedToken, error)
}

// RequireAuth rejects requests without a valid access token. A missing or
// malformed header is 401, a token that fails verification is 403.
func RequireAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Access token required"))
		}

		verified, err := verify(c.UserContext(), verifier, raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Invalid or expired token"))
		}

		attach(c, verified)
		return c.Next()
	}
}

// OptionalAuth attaches the identity when a valid access token is present and
// otherwise continues anonymously.
func OptionalAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw, ok := bearerToken(c); ok {
			if verified, err := verify(c.UserContext(), verifier, raw); err == nil {
				attach(c, verified)
			}
		}
		return c.Next()
	}
}

func verify(ctx context.Context, verifier TokenVerifier, raw string) (*service.VerifiedToken, error) {
	verified, err := verifier.VerifyKind(raw, service.AccessToken)
	if err != nil {
		return nil, err
	}
	if cache.IsTokenRevoked(ctx, verified.ID) {
		return nil, service.ErrInvalidOrExpiredToken
	}
	return verified, nil
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func attach(c *fiber.Ctx, verified *service.VerifiedToken) {
	identity := verified.Identity
	c.Locals(LocalIdentity, &identity)
	c.Locals(LocalUserID, identity.UserID)
	c.Locals(LocalToken, verified)

	ctx := WithIdentity(c.UserContext(), &identity)
	ctx = context.WithValue(ctx, observability.UserIDKey, identity.UserID)
	c.SetUserContext(ctx)
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the authenticated identity, or nil for anonymous requests.
func IdentityFrom(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(identityKey{}).(*models.Identity)
	return identity
}

// CurrentIdentity reads the identity set by RequireAuth or OptionalAuth.
func CurrentIdentity(c *fiber.Ctx) *models.Identity {
	identity, _ := c.Locals(LocalIdentity).(*models.Identity)
	return identity
}

// CurrentToken returns the verified access token of the request, if any.
func CurrentToken(c *fiber.Ctx) *service.VerifiedToken {
	token, _ := c.Locals(LocalToken).(*service.VerifiedToken)
	return token
}

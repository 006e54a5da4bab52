package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"linkvault/internal/cache"
	"linkvault/internal/models"
	"linkvault/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens() *service.TokenService {
	return service.NewTokenService(service.TokenConfig{
		Secret:     "test-secret-key-12345678901234567890123456789012",
		Issuer:     "linkvault-api",
		Audience:   "linkvault-client",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
}

func identityApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/test", handler, func(c *fiber.Ctx) error {
		identity := CurrentIdentity(c)
		fromCtx := IdentityFrom(c.UserContext())
		if identity == nil {
			return c.JSON(fiber.Map{"anonymous": true, "ctx_anonymous": fromCtx == nil})
		}
		return c.JSON(fiber.Map{
			"userID":     c.Locals(LocalUserID),
			"username":   identity.Username,
			"ctx_userID": fromCtx.UserID,
		})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens()
	pair, err := tokens.Issue(models.Identity{UserID: 123, Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	app := identityApp(RequireAuth(tokens))

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedCode   string
	}{
		{"valid access token", "Bearer " + pair.AccessToken, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + pair.AccessToken, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, models.CodeUnauthorized},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, models.CodeUnauthorized},
		{"bearer without token", "Bearer ", http.StatusUnauthorized, models.CodeUnauthorized},
		{"malformed token", "Bearer malformed.token.here", http.StatusForbidden, models.CodeForbidden},
		{"refresh token", "Bearer " + pair.RefreshToken, http.StatusForbidden, models.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, body := doRequest(t, app, tt.authHeader)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, float64(123), body["userID"])
				assert.Equal(t, float64(123), body["ctx_userID"])
				assert.Equal(t, "alice", body["username"])
				return
			}
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.expectedCode, body["code"])
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens()
	pair, err := tokens.Issue(models.Identity{UserID: 9, Username: "bob"})
	require.NoError(t, err)

	app := identityApp(OptionalAuth(tokens))

	resp, body := doRequest(t, app, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob", body["username"])

	for _, header := range []string{"", "Bearer garbage", "Token abc"} {
		resp, body := doRequest(t, app, header)
		assert.Equal(t, http.StatusOK, resp.StatusCode, header)
		assert.Equal(t, true, body["anonymous"], header)
		assert.Equal(t, true, body["ctx_anonymous"], header)
	}
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	tokens := newTestTokens()
	pair, err := tokens.Issue(models.Identity{UserID: 5, Username: "carol"})
	require.NoError(t, err)
	verified, err := tokens.Verify(pair.AccessToken)
	require.NoError(t, err)

	app := identityApp(RequireAuth(tokens))
	resp, _ := doRequest(t, app, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, cache.RevokeToken(context.Background(), verified.ID, time.Hour))

	resp, body := doRequest(t, app, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.CodeForbidden, body["code"])

	optional := identityApp(OptionalAuth(tokens))
	_, body = doRequest(t, optional, "Bearer "+pair.AccessToken)
	assert.Equal(t, true, body["anonymous"])
}

func TestIdentityFrom_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, IdentityFrom(context.Background()))

	id := &models.Identity{UserID: 1}
	assert.Same(t, id, IdentityFrom(WithIdentity(context.Background(), id)))
}

package server

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"linkvault/internal/models"
	"linkvault/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id uint, fullName, avatarURL *string) error {
	args := m.Called(ctx, id, fullName, avatarURL)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) CountBookmarks(ctx context.Context, id uint) (int64, int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func newMockedAuthApp(repo *MockUserRepository) *fiber.App {
	cfg := testConfig()
	tokens := service.NewTokenService(service.TokenConfigFrom(cfg))
	s := &Server{
		config:         cfg,
		tokens:         tokens,
		profileService: service.NewProfileService(repo, service.NewCredentialService(bcrypt.MinCost), tokens),
	}

	app := fiber.New()
	app.Post("/api/auth/register", s.Register)
	app.Post("/api/auth/login", s.Login)
	return app
}

func TestLogin_WithMockRepository(t *testing.T) {
	t.Parallel()

	digest, err := bcrypt.GenerateFromPassword([]byte(strongPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: string(digest), IsActive: true}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		repo.On("TouchLastLogin", mock.Anything, uint(1), mock.AnythingOfType("time.Time")).Return(nil)

		status, env := doRequest(t, newMockedAuthApp(repo), http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "  Alice@Example.com ",
			"password": strongPassword,
		})
		assert.Equal(t, http.StatusOK, status)

		var out authData
		decodeData(t, env, &out)
		assert.Equal(t, "alice", out.User.Username)
		assert.NotEmpty(t, out.Tokens.AccessToken)
		repo.AssertExpectations(t)
	})

	t.Run("Unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

		status, env := doRequest(t, newMockedAuthApp(repo), http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "nobody@example.com",
			"password": strongPassword,
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid email or password", env.Error)
		repo.AssertNotCalled(t, "TouchLastLogin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Database failure", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, errors.New("connection refused"))

		status, env := doRequest(t, newMockedAuthApp(repo), http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": strongPassword,
		})
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Internal server error", env.Error)
	})
}

func TestRegister_WithMockRepository(t *testing.T) {
	t.Parallel()

	t.Run("Conflict", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(true, nil)

		status, env := doRequest(t, newMockedAuthApp(repo), http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": strongPassword,
		})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, models.CodeConflict, env.Code)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Weak password never reaches the repository", func(t *testing.T) {
		repo := new(MockUserRepository)

		status, env := doRequest(t, newMockedAuthApp(repo), http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, models.CodeWeakPassword, env.Code)
		repo.AssertExpectations(t)
	})

	t.Run("Malformed body", func(t *testing.T) {
		repo := new(MockUserRepository)
		app := newMockedAuthApp(repo)

		status, env := doRequest(t, app, http.MethodPost, "/api/auth/register", "", "not an object")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid request body", env.Error)
	})
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	alice := registerUser(t, app, "alice")
	assert.NotZero(t, alice.User.ID)
	assert.NotEmpty(t, alice.Tokens.RefreshToken)

	status, env := doRequest(t, app, http.MethodGet, "/api/auth/me", alice.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var me models.User
	decodeData(t, env, &me)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)

	status, _ = doRequest(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": strongPassword,
	})
	assert.Equal(t, http.StatusConflict, status)

	status, env = doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "Wr0ng$password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeInvalidCredentials, env.Code)

	status, _ = doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": strongPassword,
	})
	assert.Equal(t, http.StatusOK, status)

	status, env = doRequest(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": alice.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, status)
	var pair models.TokenPair
	decodeData(t, env, &pair)
	assert.NotEmpty(t, pair.AccessToken)

	status, _ = doRequest(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": alice.Tokens.AccessToken,
	})
	assert.Equal(t, http.StatusForbidden, status, "an access token is not a refresh token")

	status, _ = doRequest(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, app, http.MethodPost, "/api/auth/logout", pair.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/bookmarks"},
		{http.MethodPost, "/api/bookmarks"},
		{http.MethodGet, "/api/bookmarks/folders"},
		{http.MethodPut, "/api/bookmarks/1"},
		{http.MethodPatch, "/api/bookmarks/1/privacy"},
		{http.MethodDelete, "/api/bookmarks/1"},
		{http.MethodGet, "/api/tags"},
		{http.MethodGet, "/api/users/profile"},
		{http.MethodDelete, "/api/users/account"},
	}
	for _, rt := range routes {
		status, env := doRequest(t, app, rt.method, rt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, "%s %s", rt.method, rt.path)
		assert.Equal(t, "Access token required", env.Error)

		status, _ = doRequest(t, app, rt.method, rt.path, "not-a-token", nil)
		assert.Equal(t, http.StatusForbidden, status, "%s %s", rt.method, rt.path)
	}
}

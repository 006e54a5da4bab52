package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"linkvault/internal/cache"
	"linkvault/internal/models"
	"linkvault/internal/observability"
	"linkvault/internal/repository"
	"linkvault/internal/validation"
)

type ProfileService struct {
	users  repository.UserRepository
	creds  *CredentialService
	tokens *TokenService
	now    func() time.Time
}

type RegisterInput struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileInput struct {
	FullName  *string `json:"full_name" validate:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func NewProfileService(users repository.UserRepository, creds *CredentialService, tokens *TokenService) *ProfileService {
	return &ProfileService{users: users, creds: creds, tokens: tokens, now: time.Now}
}

// Register creates an account and signs the new user in.
func (s *ProfileService) Register(ctx context.Context, in RegisterInput) (*models.AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if res := s.creds.ValidateStrength(in.Password); !res.Valid {
		return nil, models.NewWeakPasswordError(res.Message)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		observability.AuthEvents.WithLabelValues("register", "conflict").Inc()
		return nil, models.NewConflictError("Username or email already exists")
	}

	digest, err := s.creds.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		IsActive:     true,
	}
	if in.FullName != nil {
		if name := validation.NormalizeText(*in.FullName); name != "" {
			user.FullName = &name
		}
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.tokens.Issue(models.IdentityOf(user))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.AuthEvents.WithLabelValues("register", "success").Inc()
	return &models.AuthResult{User: user, Tokens: tokens}, nil
}

// Login never says whether the email or the password was wrong.
func (s *ProfileService) Login(ctx context.Context, in LoginInput) (*models.AuthResult, error) {
	invalid := models.NewInvalidCredentialsError("Invalid email or password")

	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive || !s.creds.Verify(in.Password, user.PasswordHash) {
		observability.AuthEvents.WithLabelValues("login", "failure").Inc()
		return nil, invalid
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	tokens, err := s.tokens.Issue(models.IdentityOf(user))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.AuthEvents.WithLabelValues("login", "success").Inc()
	return &models.AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh issues a new pair for a valid refresh token whose user still exists.
// The used refresh token is revoked so it cannot be replayed.
func (s *ProfileService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	forbidden := models.NewForbiddenError("Invalid or expired token")

	verified, err := s.tokens.VerifyKind(refreshToken, RefreshToken)
	if err != nil || cache.IsTokenRevoked(ctx, verified.ID) {
		return nil, forbidden
	}
	user, err := s.users.GetByID(ctx, verified.Identity.UserID)
	if err != nil || !user.IsActive {
		return nil, forbidden
	}

	pair, err := s.tokens.Issue(models.IdentityOf(user))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	s.revoke(ctx, verified)
	observability.AuthEvents.WithLabelValues("refresh", "success").Inc()
	return &pair, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *ProfileService) Logout(ctx context.Context, token *VerifiedToken) {
	s.revoke(ctx, token)
	observability.AuthEvents.WithLabelValues("logout", "success").Inc()
}

func (s *ProfileService) revoke(ctx context.Context, token *VerifiedToken) {
	if token == nil {
		return
	}
	if err := cache.RevokeToken(ctx, token.ID, s.tokens.Remaining(token)); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to revoke token", slog.String("error", err.Error()))
	}
}

// Me returns the authenticated user.
func (s *ProfileService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// GetProfile returns the user's own profile with bookmark counts.
func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, public, err := s.users.CountBookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{User: user, TotalBookmarks: total, PublicBookmarks: public}, nil
}

// UpdateProfile changes full name and avatar. Identity fields are immutable.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	if in.FullName == nil && in.AvatarURL == nil {
		return nil, models.NewValidationError("No fields to update")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.FullName != nil {
		name := validation.NormalizeText(*in.FullName)
		in.FullName = &name
	}

	if err := s.users.UpdateProfile(ctx, userID, in.FullName, in.AvatarURL); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	cache.InvalidatePublicProfile(ctx, user.Username)
	return user, nil
}

// ChangePassword replaces the digest after re-checking the current password.
func (s *ProfileService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.creds.Verify(in.CurrentPassword, user.PasswordHash) {
		return models.NewInvalidCredentialsError("Current password is incorrect")
	}
	if res := s.creds.ValidateStrength(in.NewPassword); !res.Valid {
		return models.NewWeakPasswordError(res.Message)
	}

	digest, err := s.creds.Hash(in.NewPassword)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.users.UpdatePassword(ctx, userID, digest)
}

// DeleteAccount re-verifies the password, then removes the user and
// everything they own.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.creds.Verify(password, user.PasswordHash) {
		return models.NewInvalidCredentialsError("Password is incorrect")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	cache.InvalidatePublicProfile(ctx, user.Username)
	cache.InvalidatePopularTags(ctx)
	return nil
}

// GetPublicProfile returns what anyone may see about a user.
func (s *ProfileService) GetPublicProfile(ctx context.Context, username string) (*models.PublicProfile, error) {
	username = strings.TrimSpace(username)

	var profile models.PublicProfile
	err := cache.Aside(ctx, cache.PublicProfileKey(username), &profile, cache.PublicProfileTTL, func() error {
		user, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil || !user.IsActive {
			return models.NewNotFoundError("User", username)
		}
		_, public, err := s.users.CountBookmarks(ctx, user.ID)
		if err != nil {
			return err
		}
		profile = models.PublicProfile{
			Username:        user.Username,
			FullName:        user.FullName,
			AvatarURL:       user.AvatarURL,
			CreatedAt:       user.CreatedAt,
			PublicBookmarks: public,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

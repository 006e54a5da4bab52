// Package service holds the business rules of the bookmark manager.
package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"linkvault/internal/config"
	"linkvault/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidOrExpiredToken is the only error Verify returns.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

// TokenKind tells access tokens from refresh tokens.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// TokenConfig is fixed at startup.
type TokenConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenConfigFrom reads token settings from the application config.
func TokenConfigFrom(cfg *config.Config) TokenConfig {
	return TokenConfig{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		AccessTTL:  cfg.JWTExpiresIn,
		RefreshTTL: cfg.JWTRefreshExpiresIn,
	}
}

// VerifiedToken is a token that passed signature, issuer, audience and
// expiry checks.
type VerifiedToken struct {
	Identity  models.Identity
	Kind      TokenKind
	ID        string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Kind     TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 token pairs. It has no state
// beyond its configuration.
type TokenService struct {
	cfg    TokenConfig
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenService creates a token service.
func NewTokenService(cfg TokenConfig) *TokenService {
	return &TokenService{
		cfg: cfg,
		now: time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}
}

// Issue signs an access token and a refresh token for the same identity.
func (s *TokenService) Issue(id models.Identity) (models.TokenPair, error) {
	access, err := s.sign(id, AccessToken, s.cfg.AccessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := s.sign(id, RefreshToken, s.cfg.RefreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) sign(id models.Identity, kind TokenKind, ttl time.Duration) (string, error) {
	if s.cfg.Secret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := s.now()
	claims := tokenClaims{
		Username: id.Username,
		Email:    id.Email,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id.UserID), 10),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return token, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry and
// returns the embedded identity.
func (s *TokenService) Verify(token string) (*VerifiedToken, error) {
	var claims tokenClaims
	parsed, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidOrExpiredToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidOrExpiredToken
	}

	verified := &VerifiedToken{
		Identity: models.Identity{UserID: uint(userID), Username: claims.Username, Email: claims.Email},
		Kind:     claims.Kind,
		ID:       claims.ID,
	}
	if claims.ExpiresAt != nil {
		verified.ExpiresAt = claims.ExpiresAt.Time
	}
	return verified, nil
}

// VerifyKind is Verify restricted to one kind of token.
func (s *TokenService) VerifyKind(token string, kind TokenKind) (*VerifiedToken, error) {
	verified, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	if verified.Kind != kind {
		return nil, ErrInvalidOrExpiredToken
	}
	return verified, nil
}

// Decode returns the identity in token without checking the signature or
// expiry. It must not be used for authorization. Malformed input yields nil.
func (s *TokenService) Decode(token string) *models.Identity {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil {
		return nil
	}
	return &models.Identity{UserID: uint(userID), Username: claims.Username, Email: claims.Email}
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *TokenService) Refresh(refreshToken string) (models.TokenPair, *VerifiedToken, error) {
	verified, err := s.VerifyKind(refreshToken, RefreshToken)
	if err != nil {
		return models.TokenPair{}, nil, err
	}
	pair, err := s.Issue(verified.Identity)
	if err != nil {
		return models.TokenPair{}, nil, err
	}
	return pair, verified, nil
}

// Remaining returns how long a verified token stays valid.
func (s *TokenService) Remaining(t *VerifiedToken) time.Duration {
	if t == nil || t.ExpiresAt.IsZero() {
		return 0
	}
	return t.ExpiresAt.Sub(s.now())
}

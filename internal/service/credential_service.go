package service

import (
	"linkvault/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// StrengthResult is the outcome of a password policy check.
type StrengthResult struct {
	Valid   bool
	Message string
}

// CredentialService hashes and verifies passwords with bcrypt.
type CredentialService struct {
	cost int
}

// NewCredentialService creates a credential service. Costs outside bcrypt's
// range fall back to bcrypt.DefaultCost.
func NewCredentialService(cost int) *CredentialService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialService{cost: cost}
}

// Hash returns a salted bcrypt digest of plain.
func (s *CredentialService) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest.
func (s *CredentialService) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// ValidateStrength applies the password policy before anything is hashed.
func (s *CredentialService) ValidateStrength(plain string) StrengthResult {
	if err := validation.ValidatePassword(plain); err != nil {
		return StrengthResult{Message: err.Error()}
	}
	if len(plain) > maxPasswordBytes {
		return StrengthResult{Message: "password must not exceed 72 bytes"}
	}
	return StrengthResult{Valid: true}
}

package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"eventreservation/internal/domain"
)

// AdminCredentials is the single administrator account, read from configuration.
type AdminCredentials struct {
	Username string
	Password string
}

type authService struct {
	hasher    domain.PasswordHasher
	issuer    domain.TokenIssuer
	username  string
	salt      string
	hash      string
	jwtExpiry time.Duration
}

// NewAuthService hashes the configured admin password once and returns an AuthService
// that checks logins against it. The plain password is not retained.
func NewAuthService(hasher domain.PasswordHasher, issuer domain.TokenIssuer, admin AdminCredentials, jwtExpiry time.Duration) (domain.AuthService, error) {
	if strings.TrimSpace(admin.Username) == "" || admin.Password == "" {
		return nil, fmt.Errorf("admin username and password are required")
	}
	salt, err := hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(salt, admin.Password)
	if err != nil {
		return nil, err
	}
	return &authService{
		hasher:    hasher,
		issuer:    issuer,
		username:  strings.TrimSpace(admin.Username),
		salt:      salt,
		hash:      hash,
		jwtExpiry: jwtExpiry,
	}, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	usernameOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(s.username)) == 1
	passwordErr := s.hasher.Compare(s.hash, s.salt, password)
	if !usernameOK || passwordErr != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(s.username, []string{domain.RoleAdmin}, s.jwtExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

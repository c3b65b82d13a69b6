package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Scope tags discriminate the three token kinds sharing one signing
// secret. The tag is the sole replay-class discriminator: a refresh
// token cannot pass as an access token and vice versa. Email tokens
// carry no scope at all.
const (
	ScopeAccess  = "access token"
	ScopeRefresh = "refresh token"
)

type tokenClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed tokens. Pure functions
// over the signing secret; no server-side token state.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
}

func NewTokenService(secret []byte, accessTTL, refreshTTL, emailTTL time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("signing secret must not be empty")
	}

	return &TokenService{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		emailTTL:   emailTTL,
	}, nil
}

// IssueAccessToken creates an access token for the subject email
func (s *TokenService) IssueAccessToken(subject string) (string, error) {
	return s.sign(subject, ScopeAccess, s.accessTTL)
}

// IssueRefreshToken creates a refresh token for the subject email
func (s *TokenService) IssueRefreshToken(subject string) (string, error) {
	return s.sign(subject, ScopeRefresh, s.refreshTTL)
}

// IssueEmailToken creates an email-confirmation token. No scope claim.
func (s *TokenService) IssueEmailToken(subject string) (string, error) {
	return s.sign(subject, "", s.emailTTL)
}

// VerifyAccessToken validates an access token and returns the subject
// email. Decode failures and expiry map to ErrCredentials, a wrong
// scope to ErrInvalidScope.
func (s *TokenService) VerifyAccessToken(tokenStr string) (string, error) {
	return s.verifyScoped(tokenStr, ScopeAccess)
}

// VerifyRefreshToken validates a refresh token and returns the subject
// email. Same failure split as VerifyAccessToken.
func (s *TokenService) VerifyRefreshToken(tokenStr string) (string, error) {
	return s.verifyScoped(tokenStr, ScopeRefresh)
}

// VerifyEmailToken validates an email-confirmation token and returns the
// subject email. Any decode failure is ErrEmailToken, never ErrCredentials.
func (s *TokenService) VerifyEmailToken(tokenStr string) (string, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return "", ErrEmailToken
	}
	if claims.Subject == "" {
		return "", ErrEmailToken
	}
	return claims.Subject, nil
}

func (s *TokenService) sign(subject, scope string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := tokenClaims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (s *TokenService) verifyScoped(tokenStr, wantScope string) (string, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return "", ErrCredentials
	}
	if claims.Scope != wantScope {
		return "", ErrInvalidScope
	}
	if claims.Subject == "" {
		return "", ErrCredentials
	}
	return claims.Subject, nil
}

func (s *TokenService) parse(tokenStr string) (*tokenClaims, error) {
	claims := new(tokenClaims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	return claims, nil
}

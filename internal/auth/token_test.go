package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()

	svc, err := NewTokenService([]byte("test-secret"), 7*24*time.Hour, 7*24*time.Hour, 7*24*time.Hour)
	require.NoError(t, err)

	return svc
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(nil, time.Hour, time.Hour, time.Hour)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.IssueAccessToken("user@example.com")
	require.NoError(t, err)

	subject, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", subject)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.IssueRefreshToken("user@example.com")
	require.NoError(t, err)

	subject, err := svc.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", subject)
}

func TestEmailTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.IssueEmailToken("user@example.com")
	require.NoError(t, err)

	subject, err := svc.VerifyEmailToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", subject)
}

func TestScopeCrossUseRejected(t *testing.T) {
	svc := newTestTokenService(t)

	accessToken, err := svc.IssueAccessToken("user@example.com")
	require.NoError(t, err)

	refreshToken, err := svc.IssueRefreshToken("user@example.com")
	require.NoError(t, err)

	emailToken, err := svc.IssueEmailToken("user@example.com")
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(accessToken)
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = svc.VerifyAccessToken(refreshToken)
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = svc.VerifyAccessToken(emailToken)
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	svc, err := NewTokenService([]byte("test-secret"), -time.Minute, time.Hour, time.Hour)
	require.NoError(t, err)

	token, err := svc.IssueAccessToken("user@example.com")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrCredentials)
}

func TestForeignSignatureRejected(t *testing.T) {
	svc := newTestTokenService(t)

	other, err := NewTokenService([]byte("other-secret"), time.Hour, time.Hour, time.Hour)
	require.NoError(t, err)

	token, err := other.IssueAccessToken("user@example.com")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrCredentials)
}

func TestTamperedEmailTokenIsUnprocessable(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.IssueEmailToken("user@example.com")
	require.NoError(t, err)

	tampered := tamperSignature(token)

	_, err = svc.VerifyEmailToken(tampered)
	// The email-confirmation path has its own error class; it must
	// never surface as a request-authentication failure.
	assert.ErrorIs(t, err, ErrEmailToken)
	assert.NotErrorIs(t, err, ErrCredentials)
}

func TestGarbageTokens(t *testing.T) {
	svc := newTestTokenService(t)

	_, err := svc.VerifyAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrCredentials)

	_, err = svc.VerifyRefreshToken("")
	assert.ErrorIs(t, err, ErrCredentials)

	_, err = svc.VerifyEmailToken("not-a-token")
	assert.ErrorIs(t, err, ErrEmailToken)
}

// tamperSignature flips the final character of the signature segment
func tamperSignature(token string) string {
	parts := strings.Split(token, ".")
	sig := parts[len(parts)-1]

	last := sig[len(sig)-1]
	replacement := byte('A')
	if last == replacement {
		replacement = 'B'
	}
	parts[len(parts)-1] = sig[:len(sig)-1] + string(replacement)

	return strings.Join(parts, ".")
}

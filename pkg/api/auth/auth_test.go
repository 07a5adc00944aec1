package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-must-be-32-chars!"

func TestNewJWTService(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Secret: "short"})
	assert.ErrorIs(t, err, ErrInvalidSecretLength)

	s, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.TokenTTL())
}

func TestIssueAndValidate(t *testing.T) {
	s, err := NewJWTService(JWTConfig{Secret: testSecret, TokenTTL: 10 * time.Minute})
	require.NoError(t, err)

	tok, err := s.Issue("admin")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, int64(600), tok.ExpiresIn)

	claims, err := s.Validate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.True(t, claims.IsAdmin())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	a, _ := NewJWTService(JWTConfig{Secret: testSecret})
	b, _ := NewJWTService(JWTConfig{Secret: "another-secret-key-that-is-32-chars"})

	tok, err := a.Issue("admin")
	require.NoError(t, err)

	_, err = b.Validate(tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsOtherIssuer(t *testing.T) {
	a, _ := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "a"})
	b, _ := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "b"})

	tok, err := a.Issue("admin")
	require.NoError(t, err)

	_, err = b.Validate(tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	s, _ := NewJWTService(JWTConfig{Secret: testSecret, TokenTTL: time.Minute})
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }

	tok, err := s.Issue("admin")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Validate(tok.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	s, _ := NewJWTService(JWTConfig{Secret: testSecret})

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "admin", Role: RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswords(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = HashPassword(string(make([]byte, 73)))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	creds := Credentials{Username: "admin", PasswordHash: hash}
	assert.NoError(t, creds.Verify("admin", "correct horse"))
	assert.ErrorIs(t, creds.Verify("admin", "wrong horse"), ErrInvalidCredentials)
	assert.ErrorIs(t, creds.Verify("root", "correct horse"), ErrInvalidCredentials)

	assert.ErrorIs(t, Credentials{Username: "admin"}.Verify("admin", ""), ErrInvalidCredentials)
}

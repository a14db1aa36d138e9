package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
)

const testSecret = "test-secret-key-for-jwt-signing-32-chars"

func createTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	registry := NewStaticRegistry(models.User{
		Username:     "owner@rtm.example",
		Name:         "RTM Owner",
		PasswordHash: string(hash),
	})

	svc, err := NewService(registry, testSecret, 30*time.Minute, nil)
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	registry := NewStaticRegistry()

	tests := []struct {
		name        string
		users       UserRegistry
		secret      string
		ttl         time.Duration
		expectError bool
	}{
		{name: "valid", users: registry, secret: testSecret, ttl: time.Minute},
		{name: "missing registry", users: nil, secret: testSecret, ttl: time.Minute, expectError: true},
		{name: "missing secret", users: registry, secret: "", ttl: time.Minute, expectError: true},
		{name: "zero ttl", users: registry, secret: testSecret, ttl: 0, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.users, tt.secret, tt.ttl, nil)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	svc := createTestService(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid credentials", username: "owner@rtm.example", password: "s3cret"},
		{name: "username is case insensitive", username: " Owner@RTM.example ", password: "s3cret"},
		{name: "wrong password", username: "owner@rtm.example", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown user", username: "someone@else", password: "s3cret", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, user, err := svc.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.Equal(t, models.UserInfo{Username: "owner@rtm.example", Name: "RTM Owner"}, user)

			claims, err := svc.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, "owner@rtm.example", claims.Username)
			assert.Equal(t, "RTM Owner", claims.Name)
		})
	}
}

func TestVerify_Expired(t *testing.T) {
	svc := createTestService(t)
	issuedAt := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue(models.UserInfo{Username: "owner@rtm.example"})
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(29 * time.Minute) }
	_, err = svc.Verify(token)
	assert.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(31 * time.Minute) }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsForeignTokens(t *testing.T) {
	svc := createTestService(t)

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Username: "owner@rtm.example",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Username: "owner@rtm.example",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Username: "owner@rtm.example"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong key": otherKey,
		"alg none":  unsigned,
		"no expiry": noExpiry,
		"garbage":   "not.a.token",
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

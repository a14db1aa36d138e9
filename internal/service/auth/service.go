package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
)

var (
	// ErrInvalidCredentials is returned when the username or password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed, tampered or expired tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the payload carried by issued tokens.
type Claims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// Service signs operators in and verifies their bearer tokens.
type Service struct {
	users  UserRegistry
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewService builds the auth service. The secret must not be empty.
func NewService(users UserRegistry, secret string, ttl time.Duration, logger *zap.Logger) (*Service, error) {
	if users == nil {
		return nil, errors.New("user registry is required")
	}
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", ttl)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Login checks the credentials and returns a signed token for the operator.
func (s *Service) Login(_ context.Context, username, password string) (string, models.UserInfo, error) {
	user, ok := s.users.Lookup(username)
	if !ok {
		s.logger.Info("login rejected: unknown user", zap.String("username", username))
		return "", models.UserInfo{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected: password mismatch", zap.String("username", username))
		return "", models.UserInfo{}, ErrInvalidCredentials
	}

	info := models.UserInfo{Username: user.Username, Name: user.Name}
	token, err := s.Issue(info)
	if err != nil {
		return "", models.UserInfo{}, err
	}
	return token, info, nil
}

// Issue signs a token for the given operator.
func (s *Service) Issue(user models.UserInfo) (string, error) {
	now := s.now()
	claims := &Claims{
		Username: user.Username,
		Name:     user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify parses the token and returns its claims.
func (s *Service) Verify(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

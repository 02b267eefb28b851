package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoleSession is the only role issued today
const RoleSession = "session"

// sessionTokenTTL matches the session idle window
const sessionTokenTTL = 24 * time.Hour

var (
	// ErrInvalidToken is returned for tokens that fail signature or claim checks
	ErrInvalidToken = errors.New("invalid token")
	// ErrAdminDisabled is returned when no admin key is configured
	ErrAdminDisabled = errors.New("admin access is not configured")
)

// JWTClaims represents the claims in our JWT token
type JWTClaims struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and checks session tokens with an HS256 secret. It also
// guards the server-wide settings with a static admin key.
type Manager struct {
	secret   []byte
	adminKey []byte
	ttl      time.Duration
}

// Option configures a Manager
type Option func(*Manager)

// WithAdminKey sets the key required for server-wide changes. Without one
// those changes are refused.
func WithAdminKey(key string) Option {
	return func(m *Manager) {
		if key = strings.TrimSpace(key); key != "" {
			m.adminKey = []byte(key)
		}
	}
}

// NewManager creates a token manager. An empty secret is replaced by a random
// one, so tokens do not survive a restart.
func NewManager(secret string, logger *zap.Logger, opts ...Option) *Manager {
	if strings.TrimSpace(secret) == "" {
		logger.Warn("JWT_SECRET not set, using a random secret for this process")
		secret = uuid.NewString() + uuid.NewString()
	}
	m := &Manager{secret: []byte(secret), ttl: sessionTokenTTL}
	for _, opt := range opts {
		opt(m)
	}
	if m.adminKey == nil {
		logger.Warn("ADMIN_KEY not set, settings and credential changes are disabled")
	}
	return m
}

// ValidateAdminKey checks a presented admin key in constant time
func (m *Manager) ValidateAdminKey(key string) error {
	if m.adminKey == nil {
		return ErrAdminDisabled
	}
	if subtle.ConstantTimeCompare([]byte(key), m.adminKey) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// GenerateSessionToken generates a JWT bound to one session
func (m *Manager) GenerateSessionToken(sessionID string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		SessionID: sessionID,
		Role:      RoleSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a JWT token and returns the claims
func (m *Manager) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.SessionID != "" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

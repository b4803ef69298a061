package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token cannot be verified.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carries the authenticated account identity.
type Claims struct {
	AccountID int `json:"account_id"`
	jwt.RegisteredClaims
}

// Manager verifies (and, for tooling, issues) HS256 session tokens.
type Manager struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
}

// NewManager constructs a Manager for the given signing secret.
func NewManager(secret string) *Manager {
	return &Manager{
		secret:   []byte(secret),
		issuer:   "strapi-chat-app",
		lifetime: 7 * 24 * time.Hour,
	}
}

// Issue signs a token for the account. The identity provider normally does
// this; the service only needs it for local tooling and tests.
func (m *Manager) Issue(accountID int) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate verifies the token and returns the account id it carries.
func (m *Manager) Validate(tokenString string) (int, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AccountID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.AccountID, nil
}

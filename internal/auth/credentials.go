package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken is returned when a presented token fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload carried by issued tokens.
type Claims struct {
	UserID int64  `json:"id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Credentials hashes passwords and issues signed tokens. The signing secret
// and token lifetime are fixed at construction; nothing reads the
// environment at request time.
type Credentials struct {
	secret []byte
	ttl    time.Duration
}

func NewCredentials(secret string, ttl time.Duration) (*Credentials, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("signing secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Credentials{secret: []byte(secret), ttl: ttl}, nil
}

// HashPassword produces a salted bcrypt hash (cost 10).
func (c *Credentials) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a stored hash.
func (c *Credentials) CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// IssueToken signs a token asserting the given identity.
func (c *Credentials) IssueToken(id int64, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: id,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a signed token and returns its claims.
func (c *Credentials) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

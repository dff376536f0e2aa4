package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired reports a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid reports a malformed or mis-signed token.
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenService issues and validates signed bearer tokens.
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// NewTokenService builds a token service with the server secret and the
// configured token lifetime in hours.
func NewTokenService(secret string, expiryHours int) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		expiry: time.Duration(expiryHours) * time.Hour,
	}
}

// Issue creates an HS256 token carrying subject, issued-at, and expiry.
func (s *TokenService) Issue(username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(s.expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature and expiry and returns the token subject.
// Expired and malformed tokens are distinct errors for internal diagnostics;
// callers surface both as the same authentication failure.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrTokenInvalid
	}
	return sub, nil
}

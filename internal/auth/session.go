package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession is returned for tokens that are missing, malformed,
// expired or signed with the wrong key.
var ErrInvalidSession = errors.New("auth: invalid session token")

// Sessions issues and verifies the HMAC-SHA256 session tokens carried by
// the session cookie.
type Sessions struct {
	secret []byte
	ttl    time.Duration
}

// NewSessions creates a session signer with the given secret and lifetime.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token whose subject is the account id.
func (s *Sessions) Issue(accountID int) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.Itoa(accountID),
		"iss": "papertrade",
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token, returning the account id it is
// bound to.
func (s *Sessions) Verify(tokenString string) (int, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidSession
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, ErrInvalidSession
	}
	accountID, err := strconv.Atoi(sub)
	if err != nil || accountID <= 0 {
		return 0, ErrInvalidSession
	}
	return accountID, nil
}

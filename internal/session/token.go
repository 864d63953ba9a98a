package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "clinicd"

// TokenIssuer mints and verifies the HMAC access tokens handed out at
// login. Tokens exist only for the HTTP surface; the persisted session
// record remains the durable source of truth.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

type sessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issue returns a signed token carrying the session's public subset.
func (t *TokenIssuer) Issue(sess Session) (string, error) {
	now := t.now()
	claims := sessionClaims{
		Name:  sess.Name,
		Email: sess.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   sess.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and returns the session it carries.
func (t *TokenIssuer) Verify(tokenStr string) (Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil {
		return Session{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return Session{}, fmt.Errorf("invalid token")
	}
	return Session{ID: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
}

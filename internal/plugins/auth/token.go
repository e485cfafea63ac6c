package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned by Verify for every failure: bad signature,
// malformed token, wrong algorithm, missing or passed expiry.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload. The registered jti claim (ID) names the
// session the token belongs to.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// TokenCodec issues and verifies HS256-signed bearer tokens. The secret is
// held in memory only; replacing it invalidates every outstanding token.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec creates a codec with the given signing secret and lifetime.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime stamped on every issued token.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs claims with a freshly minted token id and returns the token
// and that id. Caller-supplied registered claims are overwritten.
func (c *TokenCodec) Issue(claims Claims) (token, tokenID string, err error) {
	now := c.now()
	tokenID = uuid.NewString()

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        tokenID,
		Subject:   strconv.FormatInt(claims.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", "", fmt.Errorf("signing token: %w", err)
	}
	return token, tokenID, nil
}

// Verify checks the signature and expiry and returns the claims.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

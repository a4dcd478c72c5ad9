package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/erazemk/oprema/internal/model"
)

// Issuer is stamped into every session token and required when parsing.
const Issuer = "oprema"

// SessionLifetime is how long a session token stays valid.
const SessionLifetime = 7 * 24 * time.Hour

// ErrInvalidSession is returned for tokens that fail any session check.
var ErrInvalidSession = errors.New("invalid session")

// Claims carry the actor a session acts as. The JTI (RegisteredClaims.ID) is
// what logout revokes.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Actor returns the identity the token's holder acts as.
func (c *Claims) Actor() model.Actor {
	return model.Actor{UserID: c.UserID, Username: c.Username, Role: c.Role}
}

// IssueSession signs a session token for actor.
func IssueSession(secret string, actor model.Actor) (string, error) {
	if !model.ValidRole(actor.Role) {
		return "", fmt.Errorf("issuing session for role %q: %w", actor.Role, ErrInvalidSession)
	}

	now := time.Now()
	claims := Claims{
		UserID:   actor.UserID,
		Username: actor.Username,
		Role:     actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Issuer:    Issuer,
			Subject:   actor.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionLifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing session: %w", err)
	}
	return signed, nil
}

// ParseSession verifies a session token and returns its claims. Tokens from
// another issuer, without an expiry, without a JTI or with an unknown role
// are rejected.
func ParseSession(secret, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if claims.ID == "" || !model.ValidRole(claims.Role) {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
